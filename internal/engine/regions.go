package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/region"
)

// CreateRegionRequest is a region creation issued by a player or the console.
type CreateRegionRequest struct {
	Name        string
	CornerA     model.Location
	CornerB     model.Location
	Creator     *uuid.UUID // nil = console
	Description string
}

// CreateRegion validates and publishes a region, then persists it.
// Validation failures are *region.ValidationError; a store failure is a
// *PersistenceError and the region stays published.
func (e *Engine) CreateRegion(ctx context.Context, req CreateRegionRequest) (*model.Region, error) {
	r, err := e.regions.Create(e.createRequest(req))
	if err != nil {
		return nil, err
	}
	return r, e.save(ctx, r)
}

// CreateRegionAsync validates off the caller's goroutine via the region
// manager and persists the published region before delivering the result.
func (e *Engine) CreateRegionAsync(ctx context.Context, req CreateRegionRequest) <-chan region.CreateResult {
	pending := e.regions.CreateAsync(ctx, e.createRequest(req))
	out := make(chan region.CreateResult, 1)
	go func() {
		defer close(out)
		res := <-pending
		if res.Err == nil {
			res.Err = e.save(ctx, res.Region)
		}
		out <- res
	}()
	return out
}

func (e *Engine) createRequest(req CreateRegionRequest) region.CreateRequest {
	return region.CreateRequest{
		Name:        req.Name,
		CornerA:     req.CornerA,
		CornerB:     req.CornerB,
		Creator:     req.Creator,
		Description: req.Description,
		Bypass:      e.bypass(req.Creator),
	}
}

// RemoveRegion unpublishes a region, drops its transition state and deletes
// it from the store.
func (e *Engine) RemoveRegion(ctx context.Context, id uuid.UUID) error {
	r, err := e.regions.Remove(id)
	if err != nil {
		return err
	}
	e.tracker.RemoveRegion(r.ID)

	if e.store == nil {
		return nil
	}
	if err := e.store.Delete(ctx, r.ID); err != nil {
		slog.Error("region delete not persisted", "region", r.Name, "err", err)
		return &PersistenceError{Op: "delete", Region: r.ID, Err: err}
	}
	return nil
}

// RenameRegion renames a region and persists the new name.
func (e *Engine) RenameRegion(ctx context.Context, id uuid.UUID, name string) (*model.Region, error) {
	r, err := e.regions.Rename(id, name)
	if err != nil {
		return nil, err
	}
	return r, e.save(ctx, r)
}

// DescribeRegion changes a region's description and persists it.
func (e *Engine) DescribeRegion(ctx context.Context, id uuid.UUID, description string) (*model.Region, error) {
	r, err := e.regions.Describe(id, description)
	if err != nil {
		return nil, err
	}
	return r, e.save(ctx, r)
}

func (e *Engine) save(ctx context.Context, r *model.Region) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.Save(ctx, r); err != nil {
		slog.Error("region not persisted", "region", r.Name, "err", err)
		return &PersistenceError{Op: "save", Region: r.ID, Err: err}
	}
	return nil
}

// bypass maps creator capabilities to cap bypass flags.
func (e *Engine) bypass(creator *uuid.UUID) region.Bypass {
	if creator == nil || e.permissions == nil {
		return region.Bypass{}
	}
	id := *creator
	return region.Bypass{
		Count:   e.permissions.HasPermission(id, PermBypassCount),
		Volume:  e.permissions.HasPermission(id, PermBypassVolume),
		Overlap: e.permissions.HasPermission(id, PermBypassOverlap),
	}
}
