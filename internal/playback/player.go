// Package playback dispatches resolved instructions to the audio sink,
// immediately or through tick timers, and owns loop and stop bookkeeping.
package playback

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/audience"
	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/tick"
)

// Sink is the audio output. Implementations must not block.
type Sink interface {
	Play(listener uuid.UUID, loc model.Location, soundID string, category model.Category, volume, pitch float32)
	Stop(listener uuid.UUID, soundIDs []string)
}

// stopKey groups stop requests: one timer per (listener, delay).
type stopKey struct {
	listener uuid.UUID
	delay    int
}

type stopBatch struct {
	handle tick.Handle
	ids    []string
}

func (b *stopBatch) add(ids []string) {
	for _, id := range ids {
		if !slices.Contains(b.ids, id) {
			b.ids = append(b.ids, id)
		}
	}
}

// Player schedules playback on the tick timeline.
type Player struct {
	scheduler tick.Scheduler
	sink      Sink
	resolver  *audience.Resolver

	mu    sync.Mutex
	stops map[stopKey]*stopBatch
}

// NewPlayer creates a Player.
func NewPlayer(scheduler tick.Scheduler, sink Sink, resolver *audience.Resolver) *Player {
	return &Player{
		scheduler: scheduler,
		sink:      sink,
		resolver:  resolver,
		stops:     make(map[stopKey]*stopBatch),
	}
}

// Emit dispatches instructions now (delayTicks == 0) or after delayTicks.
func (p *Player) Emit(instructions []audience.Instruction, delayTicks int) {
	if len(instructions) == 0 {
		return
	}
	if delayTicks <= 0 {
		p.dispatch(instructions)
		return
	}
	p.scheduler.After(delayTicks, func() { p.dispatch(instructions) })
}

func (p *Player) dispatch(instructions []audience.Instruction) {
	for _, in := range instructions {
		p.sink.Play(in.Listener.ID, in.Location, in.SoundID, in.Category, in.Volume, in.Pitch)
	}
}

// Play resolves every child of cs and emits it with the child's own delay.
// Returns the number of instructions produced.
func (p *Player) Play(cs *model.CompositeSound, ctx audience.Context) int {
	if !cs.Enabled() {
		return 0
	}
	n := 0
	for _, s := range cs.Children() {
		instr := p.resolver.Resolve(s, ctx)
		p.Emit(instr, s.DelayTicks())
		n += len(instr)
	}
	return n
}

// Loop plays cs every periodTicks after startDelayTicks. Before each firing
// cont is evaluated; when it returns false the loop cancels itself. The
// audience is re-resolved on every firing from ctx().
func (p *Player) Loop(cs *model.CompositeSound, ctx func() audience.Context, periodTicks, startDelayTicks int, cont func() bool) tick.Handle {
	var h tick.Handle
	h = p.scheduler.Every(startDelayTicks, periodTicks, func() {
		if !cont() {
			p.scheduler.Cancel(h)
			return
		}
		p.Play(cs, ctx())
	})
	return h
}

// CancelLoop stops a loop started by Loop.
func (p *Player) CancelLoop(h tick.Handle) {
	p.scheduler.Cancel(h)
}

// ScheduleStop stops soundIDs for listener after delayTicks. Requests sharing
// (listener, delayTicks) with a pending batch join it and fire with it.
// Returns true when a new batch (and timer) was created.
func (p *Player) ScheduleStop(listener uuid.UUID, soundIDs []string, delayTicks int) bool {
	if len(soundIDs) == 0 {
		return false
	}
	if delayTicks <= 0 {
		p.sink.Stop(listener, soundIDs)
		return false
	}

	key := stopKey{listener: listener, delay: delayTicks}

	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.stops[key]; ok {
		b.add(soundIDs)
		return false
	}

	b := &stopBatch{}
	b.add(soundIDs)
	b.handle = p.scheduler.After(delayTicks, func() { p.fireStop(key) })
	p.stops[key] = b

	slog.Debug("stop batch scheduled", "listener", listener, "delay", delayTicks, "sounds", len(b.ids))
	return true
}

func (p *Player) fireStop(key stopKey) {
	p.mu.Lock()
	b, ok := p.stops[key]
	delete(p.stops, key)
	p.mu.Unlock()

	if ok {
		p.sink.Stop(key.listener, b.ids)
	}
}

// PendingStops returns the delays of listener's pending stop batches, sorted.
func (p *Player) PendingStops(listener uuid.UUID) []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	var delays []int
	for k := range p.stops {
		if k.listener == listener {
			delays = append(delays, k.delay)
		}
	}
	slices.Sort(delays)
	return delays
}

// CancelStops drops every pending stop batch of listener without firing it.
func (p *Player) CancelStops(listener uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k, b := range p.stops {
		if k.listener == listener {
			p.scheduler.Cancel(b.handle)
			delete(p.stops, k)
		}
	}
}
