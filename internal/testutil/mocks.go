package testutil

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/udisondev/soundzones/internal/model"
)

// ErrSimulated is returned by fakes that emulate a failing dependency.
var ErrSimulated = errors.New("simulated error for testing")

// Directory — in-memory список подключённых слушателей для unit тестов.
type Directory struct {
	mu        sync.RWMutex
	listeners map[uuid.UUID]model.Listener
	order     []uuid.UUID
}

// NewDirectory создаёт Directory с указанными слушателями.
func NewDirectory(listeners ...model.Listener) *Directory {
	d := &Directory{listeners: make(map[uuid.UUID]model.Listener)}
	for _, l := range listeners {
		d.Put(l)
	}
	return d
}

// Put adds or moves a listener.
func (d *Directory) Put(l model.Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.listeners[l.ID]; !ok {
		d.order = append(d.order, l.ID)
	}
	d.listeners[l.ID] = l
}

// Remove disconnects a listener.
func (d *Directory) Remove(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, id)
	for i, o := range d.order {
		if o == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Get returns a connected listener.
func (d *Directory) Get(id uuid.UUID) (model.Listener, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	l, ok := d.listeners[id]
	return l, ok
}

// Online returns listeners in insertion order.
func (d *Directory) Online() []model.Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Listener, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.listeners[id])
	}
	return out
}

// InWorld returns listeners of one world in insertion order.
func (d *Directory) InWorld(world string) []model.Listener {
	var out []model.Listener
	for _, l := range d.Online() {
		if l.Location.World == world {
			out = append(out, l)
		}
	}
	return out
}

// Permissions — набор выданных прав по слушателю.
type Permissions struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]map[string]bool
}

// NewPermissions creates an empty permission set.
func NewPermissions() *Permissions {
	return &Permissions{grants: make(map[uuid.UUID]map[string]bool)}
}

// Grant gives permissions to id.
func (p *Permissions) Grant(id uuid.UUID, permissions ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grants[id] == nil {
		p.grants[id] = make(map[string]bool)
	}
	for _, perm := range permissions {
		p.grants[id][perm] = true
	}
}

// HasPermission implements audience.Permissions.
func (p *Permissions) HasPermission(id uuid.UUID, permission string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.grants[id][permission]
}

// Toggles — in-memory opt-out флаги.
type Toggles struct {
	mu  sync.RWMutex
	out map[uuid.UUID]bool
}

// NewToggles creates Toggles with the given listeners opted out.
func NewToggles(optedOut ...uuid.UUID) *Toggles {
	t := &Toggles{out: make(map[uuid.UUID]bool)}
	for _, id := range optedOut {
		t.out[id] = true
	}
	return t
}

// Set changes the opt-out flag.
func (t *Toggles) Set(id uuid.UUID, optedOut bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out[id] = optedOut
}

// IsOptedOut implements audience.Toggles.
func (t *Toggles) IsOptedOut(id uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.out[id]
}

// MockSink is a testify mock of playback.Sink.
type MockSink struct {
	mock.Mock
}

// Play records the call.
func (m *MockSink) Play(listener uuid.UUID, loc model.Location, soundID string, category model.Category, volume, pitch float32) {
	m.Called(listener, loc, soundID, category, volume, pitch)
}

// Stop records the call.
func (m *MockSink) Stop(listener uuid.UUID, soundIDs []string) {
	m.Called(listener, soundIDs)
}
