package tick

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_After(t *testing.T) {
	l := NewLoop(20)
	fired := 0
	l.After(3, func() { fired++ })

	l.Advance(2)
	assert.Equal(t, 0, fired)

	l.Step()
	assert.Equal(t, 1, fired)

	l.Advance(10)
	assert.Equal(t, 1, fired, "one-shot must fire once")
	assert.Equal(t, 0, l.Pending())
}

func TestLoop_AfterZeroRunsNextTick(t *testing.T) {
	l := NewLoop(20)
	fired := false
	l.After(0, func() { fired = true })

	assert.False(t, fired)
	l.Step()
	assert.True(t, fired)
}

func TestLoop_Every(t *testing.T) {
	l := NewLoop(20)
	var at []uint64
	l.Every(2, 5, func() { at = append(at, l.Now()) })

	l.Advance(13)
	assert.Equal(t, []uint64{2, 7, 12}, at)
}

func TestLoop_CancelIsSynchronous(t *testing.T) {
	l := NewLoop(20)
	fired := 0
	h := l.Every(1, 1, func() { fired++ })

	l.Advance(3)
	require.Equal(t, 3, fired)

	l.Cancel(h)
	l.Advance(5)
	assert.Equal(t, 3, fired)
	assert.Equal(t, 0, l.Pending())

	l.Cancel(h) // повторная отмена безопасна
	l.Cancel(Handle(12345))
}

func TestLoop_TaskCancelsLaterTaskOfSameTick(t *testing.T) {
	l := NewLoop(20)
	secondFired := false
	var second Handle
	l.After(1, func() { l.Cancel(second) })
	second = l.After(1, func() { secondFired = true })

	l.Step()
	assert.False(t, secondFired)
}

func TestLoop_SelfCancel(t *testing.T) {
	l := NewLoop(20)
	fired := 0
	var h Handle
	h = l.Every(1, 1, func() {
		fired++
		if fired == 2 {
			l.Cancel(h)
		}
	})

	l.Advance(10)
	assert.Equal(t, 2, fired)
}

func TestLoop_SubmitRunsBeforeTasks(t *testing.T) {
	l := NewLoop(20)
	var order []string
	l.After(1, func() { order = append(order, "task") })
	l.Submit(func() { order = append(order, "submitted") })

	l.Step()
	assert.Equal(t, []string{"submitted", "task"}, order)
}

func TestLoop_PanicDoesNotStopTimeline(t *testing.T) {
	l := NewLoop(20)
	fired := false
	l.After(1, func() { panic("boom") })
	l.After(1, func() { fired = true })

	assert.NotPanics(t, l.Step)
	assert.True(t, fired)
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := NewLoop(1000)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	fired := make(chan struct{})
	l.Submit(func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("submitted callback did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
