// Package engine wires regions, sound catalog, audience resolution, playback
// and transition tracking behind the API the host calls.
package engine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/audience"
	"github.com/udisondev/soundzones/internal/catalog"
	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/playback"
	"github.com/udisondev/soundzones/internal/region"
	"github.com/udisondev/soundzones/internal/tick"
	"github.com/udisondev/soundzones/internal/transition"
)

// Capabilities that lift region creation caps.
const (
	PermBypassCount   = "soundzones.region.bypass.count"
	PermBypassVolume  = "soundzones.region.bypass.volume"
	PermBypassOverlap = "soundzones.region.bypass.overlap"
)

// RegionStore persists regions (db.RegionRepository).
type RegionStore interface {
	Save(ctx context.Context, r *model.Region) error
	Delete(ctx context.Context, id uuid.UUID) error
	LoadAll(ctx context.Context) ([]*model.Region, error)
}

// Options configures an Engine.
type Options struct {
	Scheduler   tick.Scheduler
	Sink        playback.Sink
	Directory   audience.Directory
	Permissions audience.Permissions // nil = sound permissions granted, no cap bypass
	Toggles     audience.Toggles     // nil = nobody opted out
	Store       RegionStore          // nil = regions are not persisted
	Limits      region.Limits
}

// Engine owns all mutable state of the sound system.
type Engine struct {
	regions     *region.Manager
	sounds      *catalog.Store
	player      *playback.Player
	tracker     *transition.Tracker
	permissions audience.Permissions
	store       RegionStore
}

// New creates an Engine with an empty catalog and no regions.
func New(opts Options) *Engine {
	resolver := audience.NewResolver(opts.Directory, opts.Permissions, opts.Toggles)
	player := playback.NewPlayer(opts.Scheduler, opts.Sink, resolver)
	regions := region.NewManager(opts.Limits)
	sounds := catalog.NewStore()

	return &Engine{
		regions:     regions,
		sounds:      sounds,
		player:      player,
		tracker:     transition.NewTracker(regions, sounds, player),
		permissions: opts.Permissions,
		store:       opts.Store,
	}
}

// LoadRegions publishes persisted regions, replacing the current set.
func (e *Engine) LoadRegions(regions []*model.Region) {
	e.regions.Load(regions)
}

// Reload swaps the sound catalog unless digest is unchanged.
func (e *Engine) Reload(tree *config.Tree, digest string) bool {
	swapped := e.sounds.Reload(tree, digest)
	if swapped {
		slog.Info("sounds reloaded", "digest", digest)
	}
	return swapped
}

// Catalog returns the current sound snapshot.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.sounds.Load()
}

// ResolveAndPlay resolves cs for ctx and schedules every child.
// Returns the number of playback instructions produced.
func (e *Engine) ResolveAndPlay(cs *model.CompositeSound, ctx audience.Context) int {
	return e.player.Play(cs, ctx)
}

// OnRegionEvent registers a handler for synthetic Enter/Leave events.
// A handler may cancel the event.
func (e *Engine) OnRegionEvent(h transition.Handler) {
	e.tracker.Handle(h)
}

// OnPositionSample drives region transitions for one movement and plays the
// global region_enter / region_leave sounds of applied events.
func (e *Engine) OnPositionSample(listener model.Listener, from, to model.Location) transition.Result {
	res := e.tracker.OnPositionSample(listener, from, to)

	cat := e.sounds.Load()
	for _, ev := range res.Events {
		if ev.Cancelled() {
			continue
		}
		kind := model.TriggerRegionEnter
		if ev.Kind == transition.Leave {
			kind = model.TriggerRegionLeave
		}
		listener.Location = to
		e.player.Play(cat.Trigger(kind), audience.At(model.PlayerActor(listener)))
	}
	return res
}

// OnQuit drops every timer and transition state of a disconnected listener.
func (e *Engine) OnQuit(listener uuid.UUID) {
	e.tracker.Forget(listener)
}

// RegionsContaining returns the regions whose box contains loc.
func (e *Engine) RegionsContaining(loc model.Location) []*model.Region {
	return e.regions.Containing(loc)
}

// Regions exposes the region registry for read-only queries.
func (e *Engine) Regions() *region.Manager {
	return e.regions
}
