// Package region keeps the set of named sound regions, validates creation,
// renaming and removal, and answers containment queries through a grid index.
package region

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/model"
)

const defaultGridSize = 64 // блоков на ячейку сетки

// maxGridCells caps how many cells one region is indexed in; larger regions
// are kept in a per-world list scanned on every lookup.
const maxGridCells = 4096

// Limits caps region creation.
type Limits struct {
	MaxNameLength int   // 0 = unlimited
	MaxPerCreator int   // 0 = unlimited
	MaxVolume     int64 // blocks, 0 = unlimited
	GridSize      int   // grid cell edge in blocks
}

// DefaultLimits returns the limits used when configuration omits them.
func DefaultLimits() Limits {
	return Limits{
		MaxNameLength: 20,
		MaxPerCreator: 5,
		MaxVolume:     1_000_000,
		GridSize:      defaultGridSize,
	}
}

// Bypass lists the caps an acting creator may skip.
type Bypass struct {
	Count   bool
	Volume  bool
	Overlap bool
}

// CreateRequest describes a region to create.
type CreateRequest struct {
	Name        string
	CornerA     model.Location
	CornerB     model.Location
	Creator     *uuid.UUID // nil = console
	Description string
	Bypass      Bypass
}

type gridKey struct {
	world  string
	gx, gz int
}

// snapshot is immutable once published.
type snapshot struct {
	regions []*model.Region
	byID    map[uuid.UUID]*model.Region
	byName  map[string]*model.Region // lower-case name
	grid    map[gridKey][]*model.Region
	large   map[string][]*model.Region // world -> regions too big for the grid
}

// Manager manages all regions with spatial indexing for fast lookups.
// Readers never lock: they load the current snapshot. Writers serialize on mu
// and publish a fresh snapshot with a single atomic store.
type Manager struct {
	limits Limits
	now    func() time.Time

	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

// NewManager creates an empty Manager.
func NewManager(limits Limits) *Manager {
	if limits.GridSize <= 0 {
		limits.GridSize = defaultGridSize
	}
	m := &Manager{limits: limits, now: time.Now}
	m.current.Store(m.build(nil))
	return m
}

// Load replaces all regions with persisted ones (start-up).
func (m *Manager) Load(regions []*model.Region) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.Store(m.build(regions))

	slog.Info("regions loaded", "regions", len(regions))
}

// Create validates req and publishes the new region.
func (m *Manager) Create(req CreateRequest) (*model.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.current.Load()

	if err := m.checkName(snap, req.Name, uuid.Nil); err != nil {
		return nil, err
	}

	box, err := model.NewBox(req.CornerA, req.CornerB)
	switch {
	case errors.Is(err, model.ErrWorldMismatch):
		return nil, invalid(KindWorldMismatch, req.Name, "%s / %s", req.CornerA.World, req.CornerB.World)
	case err != nil:
		return nil, invalid(KindOutOfBounds, req.Name, "%v", err)
	}

	// Консоль не ограничена лимитами.
	console := req.Creator == nil

	if !console && !req.Bypass.Count && m.limits.MaxPerCreator > 0 {
		if n := countOwned(snap, req.Creator); n >= m.limits.MaxPerCreator {
			return nil, invalid(KindCountExceeded, req.Name, "%d of %d", n, m.limits.MaxPerCreator)
		}
	}

	if !console && !req.Bypass.Volume && m.limits.MaxVolume > 0 {
		if v := box.Volume(); v > m.limits.MaxVolume {
			return nil, invalid(KindVolumeExceeded, req.Name, "%d > %d blocks", v, m.limits.MaxVolume)
		}
	}

	if !console && !req.Bypass.Overlap {
		for _, other := range snap.regions {
			if other.CreatedBy(req.Creator) {
				continue
			}
			if box.Overlaps(other.Box) {
				return nil, invalid(KindOverlap, req.Name, "with %q", other.Name)
			}
		}
	}

	r := &model.Region{
		ID:          uuid.New(),
		Name:        req.Name,
		Box:         box,
		Creator:     copyCreator(req.Creator),
		Description: req.Description,
		CreatedAt:   m.now(),
	}

	next := append(cloneRegions(snap.regions), r)
	m.current.Store(m.build(next))

	slog.Info("region created",
		"region", r.Name,
		"id", r.ID,
		"world", box.World,
		"volume", box.Volume())

	return r, nil
}

// CreateResult is delivered by CreateAsync.
type CreateResult struct {
	Region *model.Region
	Err    error
}

// CreateAsync runs Create off the caller's goroutine. Validation reads only
// published snapshots and publication is atomic, so readers on the tick
// timeline never observe a partially built region.
func (m *Manager) CreateAsync(ctx context.Context, req CreateRequest) <-chan CreateResult {
	out := make(chan CreateResult, 1)
	go func() {
		defer close(out)
		if err := ctx.Err(); err != nil {
			out <- CreateResult{Err: err}
			return
		}
		r, err := m.Create(req)
		out <- CreateResult{Region: r, Err: err}
	}()
	return out
}

// Remove deletes a region and returns it.
func (m *Manager) Remove(id uuid.UUID) (*model.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.current.Load()
	r, ok := snap.byID[id]
	if !ok {
		return nil, invalid(KindNotFound, id.String(), "")
	}

	next := make([]*model.Region, 0, len(snap.regions)-1)
	for _, o := range snap.regions {
		if o.ID != id {
			next = append(next, o)
		}
	}
	m.current.Store(m.build(next))

	slog.Info("region removed", "region", r.Name, "id", r.ID)
	return r, nil
}

// Rename validates newName and publishes the renamed region.
// Renaming to the same name with different case is allowed.
func (m *Manager) Rename(id uuid.UUID, newName string) (*model.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.current.Load()
	r, ok := snap.byID[id]
	if !ok {
		return nil, invalid(KindNotFound, id.String(), "")
	}
	if err := m.checkName(snap, newName, id); err != nil {
		return nil, err
	}

	renamed := r.WithName(newName)
	m.replace(snap, renamed)

	slog.Info("region renamed", "from", r.Name, "to", newName, "id", id)
	return renamed, nil
}

// Describe publishes the region with a new description.
func (m *Manager) Describe(id uuid.UUID, description string) (*model.Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.current.Load()
	r, ok := snap.byID[id]
	if !ok {
		return nil, invalid(KindNotFound, id.String(), "")
	}

	described := r.WithDescription(description)
	m.replace(snap, described)
	return described, nil
}

// Get returns a region by ID, or nil if not found.
func (m *Manager) Get(id uuid.UUID) *model.Region {
	return m.current.Load().byID[id]
}

// ByName returns a region by case-insensitive name, or nil if not found.
func (m *Manager) ByName(name string) *model.Region {
	return m.current.Load().byName[strings.ToLower(name)]
}

// All returns every region.
func (m *Manager) All() []*model.Region {
	return cloneRegions(m.current.Load().regions)
}

// Count returns the number of regions.
func (m *Manager) Count() int {
	return len(m.current.Load().regions)
}

// OwnedBy returns regions created by creator (nil = console).
func (m *Manager) OwnedBy(creator *uuid.UUID) []*model.Region {
	var out []*model.Region
	for _, r := range m.current.Load().regions {
		if r.CreatedBy(creator) {
			out = append(out, r)
		}
	}
	return out
}

// Containing returns all regions containing loc.
func (m *Manager) Containing(loc model.Location) []*model.Region {
	snap := m.current.Load()
	b := loc.Block()
	key := gridKey{world: loc.World, gx: floorDiv(b.X, m.limits.GridSize), gz: floorDiv(b.Z, m.limits.GridSize)}

	var result []*model.Region
	for _, r := range snap.grid[key] {
		if r.Contains(loc) {
			result = append(result, r)
		}
	}
	for _, r := range snap.large[loc.World] {
		if r.Contains(loc) {
			result = append(result, r)
		}
	}
	return result
}

// checkName validates characters, length and case-insensitive uniqueness.
// self is excluded from the collision check (rename).
func (m *Manager) checkName(snap *snapshot, name string, self uuid.UUID) error {
	if !ValidName(name) {
		return invalid(KindIllegalName, name, "only letters, digits and underscore")
	}
	if m.limits.MaxNameLength > 0 && len(name) > m.limits.MaxNameLength {
		return invalid(KindNameTooLong, name, "%d > %d", len(name), m.limits.MaxNameLength)
	}
	if other, ok := snap.byName[strings.ToLower(name)]; ok && other.ID != self {
		return invalid(KindNameCollision, name, "")
	}
	return nil
}

// replace публикует снимок с заменённым регионом (тот же ID).
func (m *Manager) replace(snap *snapshot, r *model.Region) {
	next := make([]*model.Region, len(snap.regions))
	for i, o := range snap.regions {
		if o.ID == r.ID {
			next[i] = r
		} else {
			next[i] = o
		}
	}
	m.current.Store(m.build(next))
}

// build собирает индексы и регистрирует каждый регион во всех ячейках сетки,
// которые пересекает его коробка.
func (m *Manager) build(regions []*model.Region) *snapshot {
	s := &snapshot{
		regions: regions,
		byID:    make(map[uuid.UUID]*model.Region, len(regions)),
		byName:  make(map[string]*model.Region, len(regions)),
		grid:    make(map[gridKey][]*model.Region),
		large:   make(map[string][]*model.Region),
	}

	size := m.limits.GridSize
	for _, r := range regions {
		s.byID[r.ID] = r
		s.byName[strings.ToLower(r.Name)] = r

		gxMin, gxMax := floorDiv(r.Box.Min.X, size), floorDiv(r.Box.Max.X, size)
		gzMin, gzMax := floorDiv(r.Box.Min.Z, size), floorDiv(r.Box.Max.Z, size)
		if gridCells(gxMin, gxMax, gzMin, gzMax) > maxGridCells {
			s.large[r.Box.World] = append(s.large[r.Box.World], r)
			continue
		}
		for gx := gxMin; gx <= gxMax; gx++ {
			for gz := gzMin; gz <= gzMax; gz++ {
				key := gridKey{world: r.Box.World, gx: gx, gz: gz}
				s.grid[key] = append(s.grid[key], r)
			}
		}
	}
	return s
}

// gridCells returns how many cells the range covers, saturating just above
// maxGridCells so that neither the spans nor their product can overflow.
func gridCells(gxMin, gxMax, gzMin, gzMax int) uint64 {
	dx, dz := uint64(gxMax-gxMin), uint64(gzMax-gzMin)
	if dx >= maxGridCells || dz >= maxGridCells {
		return maxGridCells + 1
	}
	return (dx + 1) * (dz + 1)
}

// ValidName reports whether name is non-empty and only [A-Za-z0-9_].
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		ok := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
		if !ok {
			return false
		}
	}
	return true
}

func countOwned(snap *snapshot, creator *uuid.UUID) int {
	n := 0
	for _, r := range snap.regions {
		if r.CreatedBy(creator) {
			n++
		}
	}
	return n
}

func cloneRegions(rs []*model.Region) []*model.Region {
	out := make([]*model.Region, len(rs))
	copy(out, rs)
	return out
}

func copyCreator(c *uuid.UUID) *uuid.UUID {
	if c == nil {
		return nil
	}
	id := *c
	return &id
}

// floorDiv выполняет целочисленное деление с округлением к -inf,
// корректно обрабатывая отрицательные координаты.
func floorDiv(a, b int) int {
	d := a / b
	if (a^b) < 0 && d*b != a {
		d--
	}
	return d
}
