// Package transition turns successive position samples into region
// Enter/Leave events and drives per-region loop and stop-on-exit timers.
package transition

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/audience"
	"github.com/udisondev/soundzones/internal/catalog"
	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/playback"
	"github.com/udisondev/soundzones/internal/tick"
)

// Regions answers containment queries (region.Manager).
type Regions interface {
	Containing(loc model.Location) []*model.Region
}

// Sounds looks up the sounds bound to a region name (catalog.Store).
type Sounds interface {
	Region(name string) catalog.RegionSounds
}

// Kind of a transition event.
type Kind uint8

const (
	Enter Kind = iota + 1
	Leave
)

func (k Kind) String() string {
	switch k {
	case Enter:
		return "enter"
	case Leave:
		return "leave"
	default:
		return "unknown"
	}
}

// Event is a synthetic Enter/Leave event. Handlers may cancel it.
type Event struct {
	Kind      Kind
	Listener  model.Listener
	Region    *model.Region
	From, To  model.Location
	cancelled bool
}

// Cancel marks the event cancelled: the transition is not applied.
func (e *Event) Cancel() { e.cancelled = true }

// Cancelled reports whether a handler cancelled the event.
func (e *Event) Cancelled() bool { return e.cancelled }

// Handler observes transition events before they are applied.
type Handler func(e *Event)

// Result of one position sample.
type Result struct {
	Events []Event
	// Cancelled is true when any event was cancelled; the host should treat
	// the movement that produced the sample as denied.
	Cancelled bool
}

type pairKey struct {
	listener uuid.UUID
	region   uuid.UUID
}

// state of one (listener, region) pair while the listener is inside.
type state struct {
	loop tick.Handle
}

// Tracker keeps per-pair transition state.
type Tracker struct {
	regions Regions
	sounds  Sounds
	player  *playback.Player

	mu        sync.Mutex
	states    map[pairKey]*state
	positions map[uuid.UUID]model.Listener
	handlers  []Handler
}

// NewTracker creates a Tracker.
func NewTracker(regions Regions, sounds Sounds, player *playback.Player) *Tracker {
	return &Tracker{
		regions:   regions,
		sounds:    sounds,
		player:    player,
		states:    make(map[pairKey]*state),
		positions: make(map[uuid.UUID]model.Listener),
	}
}

// Handle registers h. Handlers run in registration order.
func (t *Tracker) Handle(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

// OnPositionSample evaluates one movement of listener from -> to.
// Leaves are applied before enters; within a kind, regions go by name.
func (t *Tracker) OnPositionSample(listener model.Listener, from, to model.Location) Result {
	listener.Location = to

	t.mu.Lock()
	t.positions[listener.ID] = listener
	t.mu.Unlock()

	before := byID(t.regions.Containing(from))
	after := byID(t.regions.Containing(to))

	var events []Event
	for _, r := range sortedRegions(before) {
		if _, still := after[r.ID]; !still {
			events = append(events, Event{Kind: Leave, Listener: listener, Region: r, From: from, To: to})
		}
	}
	for _, r := range sortedRegions(after) {
		if _, was := before[r.ID]; !was {
			events = append(events, Event{Kind: Enter, Listener: listener, Region: r, From: from, To: to})
		}
	}

	var res Result
	for i := range events {
		e := &events[i]
		t.dispatch(e)
		if e.cancelled {
			res.Cancelled = true
			slog.Debug("region transition cancelled", "kind", e.Kind, "region", e.Region.Name, "listener", listener.Name)
			continue
		}
		switch e.Kind {
		case Enter:
			t.enter(listener, e.Region)
		case Leave:
			t.leave(listener, e.Region)
		}
	}
	res.Events = events
	return res
}

func (t *Tracker) dispatch(e *Event) {
	t.mu.Lock()
	handlers := slices.Clone(t.handlers)
	t.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}

func (t *Tracker) enter(listener model.Listener, r *model.Region) {
	key := pairKey{listener: listener.ID, region: r.ID}
	rs := t.sounds.Region(r.Name)
	st := &state{}

	t.mu.Lock()
	if old, ok := t.states[key]; ok && old.loop != 0 {
		t.player.CancelLoop(old.loop)
	}
	t.states[key] = st
	t.mu.Unlock()

	ctx := audience.At(model.PlayerActor(listener))
	if rs.Loop == nil || !rs.Loop.PreventEnterSound {
		t.player.Play(rs.Enter, ctx)
	}

	if rs.Loop != nil && rs.Loop.Sound.Enabled() {
		h := t.player.Loop(rs.Loop.Sound,
			func() audience.Context { return t.contextOf(listener) },
			rs.Loop.PeriodTicks, rs.Loop.DelayTicks,
			func() bool { return t.current(key) == st },
		)
		t.mu.Lock()
		st.loop = h
		t.mu.Unlock()
	}

	slog.Debug("region entered", "region", r.Name, "listener", listener.Name)
}

func (t *Tracker) leave(listener model.Listener, r *model.Region) {
	key := pairKey{listener: listener.ID, region: r.ID}
	rs := t.sounds.Region(r.Name)

	t.mu.Lock()
	if st, ok := t.states[key]; ok {
		if st.loop != 0 {
			t.player.CancelLoop(st.loop)
		}
		delete(t.states, key)
	}
	t.mu.Unlock()

	if rs.StopOnExit.Enabled {
		t.player.ScheduleStop(listener.ID, rs.SoundIDs(), rs.StopOnExit.DelayTicks)
	}
	t.player.Play(rs.Leave, audience.At(model.PlayerActor(listener)))

	slog.Debug("region left", "region", r.Name, "listener", listener.Name)
}

func (t *Tracker) current(key pairKey) *state {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[key]
}

// contextOf builds a playback context from the listener's latest sample.
func (t *Tracker) contextOf(listener model.Listener) audience.Context {
	t.mu.Lock()
	if last, ok := t.positions[listener.ID]; ok {
		listener = last
	}
	t.mu.Unlock()
	return audience.At(model.PlayerActor(listener))
}

// Inside reports whether listener is tracked as inside region.
func (t *Tracker) Inside(listener, region uuid.UUID) bool {
	return t.current(pairKey{listener: listener, region: region}) != nil
}

// ActiveLoops returns the number of running loop timers.
func (t *Tracker) ActiveLoops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, st := range t.states {
		if st.loop != 0 {
			n++
		}
	}
	return n
}

// RemoveRegion drops every pair of a removed region and cancels its loops.
// No Leave event is emitted.
func (t *Tracker) RemoveRegion(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, st := range t.states {
		if key.region != id {
			continue
		}
		if st.loop != 0 {
			t.player.CancelLoop(st.loop)
		}
		delete(t.states, key)
	}
}

// Forget drops all state of a disconnected listener: loops and pending stops.
func (t *Tracker) Forget(listener uuid.UUID) {
	t.mu.Lock()
	for key, st := range t.states {
		if key.listener != listener {
			continue
		}
		if st.loop != 0 {
			t.player.CancelLoop(st.loop)
		}
		delete(t.states, key)
	}
	delete(t.positions, listener)
	t.mu.Unlock()

	t.player.CancelStops(listener)
}

func byID(regions []*model.Region) map[uuid.UUID]*model.Region {
	m := make(map[uuid.UUID]*model.Region, len(regions))
	for _, r := range regions {
		m[r.ID] = r
	}
	return m
}

func sortedRegions(m map[uuid.UUID]*model.Region) []*model.Region {
	out := make([]*model.Region, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *model.Region) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
