package model

import "github.com/google/uuid"

// Listener is a connected player that can perceive sounds.
// Snapshot value: the host supplies a fresh copy on every call.
type Listener struct {
	ID       uuid.UUID
	Name     string
	Location Location
}

// Actor is whoever caused a trigger. Non-player actors (mobs, blocks, console)
// have Listener=false: they cannot hear sounds and are not capability-checkable.
type Actor struct {
	ID       uuid.UUID
	Name     string
	Kind     string // "player", "zombie", ...
	Location Location
	Listener bool
}

// AsListener converts a player actor into a Listener.
// ok is false for non-player actors.
func (a *Actor) AsListener() (Listener, bool) {
	if a == nil || !a.Listener {
		return Listener{}, false
	}
	return Listener{ID: a.ID, Name: a.Name, Location: a.Location}, true
}

// PlayerActor creates an Actor for a connected listener.
func PlayerActor(l Listener) *Actor {
	return &Actor{ID: l.ID, Name: l.Name, Kind: "player", Location: l.Location, Listener: true}
}
