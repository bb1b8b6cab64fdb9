package testutil

import (
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/model"
)

// Played is one recorded Play call.
type Played struct {
	Listener uuid.UUID
	Location model.Location
	SoundID  string
	Category model.Category
	Volume   float32
	Pitch    float32
}

// Stopped is one recorded Stop call.
type Stopped struct {
	Listener uuid.UUID
	SoundIDs []string
}

// RecordingSink запоминает все вызовы Play/Stop для проверок в тестах.
type RecordingSink struct {
	mu      sync.Mutex
	played  []Played
	stopped []Stopped
}

// Play implements playback.Sink.
func (s *RecordingSink) Play(listener uuid.UUID, loc model.Location, soundID string, category model.Category, volume, pitch float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, Played{listener, loc, soundID, category, volume, pitch})
}

// Stop implements playback.Sink.
func (s *RecordingSink) Stop(listener uuid.UUID, soundIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(soundIDs))
	copy(ids, soundIDs)
	s.stopped = append(s.stopped, Stopped{listener, ids})
}

// Played returns a copy of recorded plays.
func (s *RecordingSink) Played() []Played {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Played, len(s.played))
	copy(out, s.played)
	return out
}

// PlayedIDs returns the sound IDs of recorded plays in order.
func (s *RecordingSink) PlayedIDs() []string {
	var ids []string
	for _, p := range s.Played() {
		ids = append(ids, p.SoundID)
	}
	return ids
}

// Stopped returns a copy of recorded stops.
func (s *RecordingSink) Stopped() []Stopped {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Stopped, len(s.stopped))
	copy(out, s.stopped)
	return out
}

// Reset clears recorded calls.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = nil
	s.stopped = nil
}
