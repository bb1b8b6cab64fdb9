package main

import (
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/model"
)

// directory tracks connected players and the permissions the host reported
// for them at join.
type directory struct {
	mu          sync.RWMutex
	players     map[uuid.UUID]model.Listener
	order       []uuid.UUID
	permissions map[uuid.UUID]map[string]struct{}
}

func newDirectory() *directory {
	return &directory{
		players:     make(map[uuid.UUID]model.Listener),
		permissions: make(map[uuid.UUID]map[string]struct{}),
	}
}

func (d *directory) join(l model.Listener, permissions []string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.players[l.ID]; !ok {
		d.order = append(d.order, l.ID)
	}
	d.players[l.ID] = l

	perms := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		perms[p] = struct{}{}
	}
	d.permissions[l.ID] = perms
}

// move updates the player's location and returns the previous one.
func (d *directory) move(id uuid.UUID, to model.Location) (model.Listener, model.Location, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.players[id]
	if !ok {
		return model.Listener{}, model.Location{}, false
	}
	from := l.Location
	l.Location = to
	d.players[id] = l
	return l, from, true
}

func (d *directory) quit(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.players, id)
	delete(d.permissions, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Online implements audience.Directory.
func (d *directory) Online() []model.Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]model.Listener, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.players[id])
	}
	return out
}

// InWorld implements audience.Directory.
func (d *directory) InWorld(world string) []model.Listener {
	var out []model.Listener
	for _, l := range d.Online() {
		if l.Location.World == world {
			out = append(out, l)
		}
	}
	return out
}

// HasPermission implements audience.Permissions.
func (d *directory) HasPermission(id uuid.UUID, permission string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.permissions[id][permission]
	return ok
}
