// Package tick provides the single logical timeline everything in the engine
// runs on: delayed and repeating tasks counted in ticks, plus Submit for host
// callbacks that must run between ticks.
package tick

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultRate is the number of ticks per second (Minecraft server rate).
const DefaultRate = 20

// Handle identifies a scheduled task. Zero is never a valid handle.
type Handle uint64

// Scheduler is the timer primitive consumed by playback and transition code.
type Scheduler interface {
	// After runs fn once after ticks ticks (ticks <= 0 runs on the next tick).
	After(ticks int, fn func()) Handle
	// Every runs fn after delay ticks and then every period ticks.
	Every(delay, period int, fn func()) Handle
	// Cancel stops a task. A cancelled task never fires again.
	Cancel(h Handle)
}

type task struct {
	handle Handle
	due    uint64
	period uint64 // 0 = one-shot
	fn     func()
}

// Loop is a tick-driven Scheduler.
// Tasks run on the goroutine calling Run (or Step in tests).
type Loop struct {
	interval time.Duration

	mu      sync.Mutex
	now     uint64
	next    Handle
	tasks   map[Handle]*task
	pending []func()
}

// NewLoop creates a Loop ticking rate times per second.
func NewLoop(rate int) *Loop {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Loop{
		interval: time.Second / time.Duration(rate),
		tasks:    make(map[Handle]*task),
	}
}

// Now returns the current tick number.
func (l *Loop) Now() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// After schedules a one-shot task.
func (l *Loop) After(ticks int, fn func()) Handle {
	return l.schedule(ticks, 0, fn)
}

// Every schedules a repeating task. period <= 0 is treated as 1.
func (l *Loop) Every(delay, period int, fn func()) Handle {
	if period <= 0 {
		period = 1
	}
	return l.schedule(delay, uint64(period), fn)
}

func (l *Loop) schedule(delay int, period uint64, fn func()) Handle {
	if delay < 1 {
		delay = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	t := &task{handle: l.next, due: l.now + uint64(delay), period: period, fn: fn}
	l.tasks[t.handle] = t
	return t.handle
}

// Cancel removes a task. Unknown handles are ignored.
func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	delete(l.tasks, h)
	l.mu.Unlock()
}

// Pending returns the number of scheduled tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Submit queues fn to run on the timeline before the next tick's tasks.
// Safe to call from any goroutine.
func (l *Loop) Submit(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
}

// Run advances the timeline until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("tick loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick loop stopping", "tick", l.Now())
			return ctx.Err()
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step advances the timeline by one tick: runs submitted callbacks, then
// every task that became due, in handle order.
func (l *Loop) Step() {
	l.mu.Lock()
	submitted := l.pending
	l.pending = nil
	l.now++
	now := l.now
	l.mu.Unlock()

	for _, fn := range submitted {
		l.run(fn)
	}

	for _, h := range l.due(now) {
		// Задача могла быть отменена предыдущей задачей этого же тика.
		l.mu.Lock()
		t, ok := l.tasks[h]
		if ok {
			if t.period == 0 {
				delete(l.tasks, h)
			} else {
				t.due = now + t.period
			}
		}
		l.mu.Unlock()

		if ok {
			l.run(t.fn)
		}
	}
}

// Advance calls Step n times.
func (l *Loop) Advance(n int) {
	for range n {
		l.Step()
	}
}

func (l *Loop) due(now uint64) []Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	var handles []Handle
	for h, t := range l.tasks {
		if t.due <= now {
			handles = append(handles, h)
		}
	}
	slices.Sort(handles)
	return handles
}

// run isolates a panicking callback so one bad task cannot stop the timeline.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick task panicked", "panic", r)
		}
	}()
	fn()
}

