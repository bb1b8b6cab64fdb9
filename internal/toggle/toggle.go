// Package toggle keeps per-listener sound opt-outs in memory, backed by a
// persistent repository.
package toggle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Repository persists toggle state (db.ToggleRepository).
type Repository interface {
	LoadOptedOut(ctx context.Context) ([]uuid.UUID, error)
	SetOptedOut(ctx context.Context, listener uuid.UUID, optedOut bool) error
}

// Cache answers IsOptedOut without touching the database.
// Safe for concurrent use.
type Cache struct {
	repo     Repository // nil = memory only
	optedOut sync.Map   // uuid.UUID -> struct{}
}

// NewCache creates a Cache. repo may be nil.
func NewCache(repo Repository) *Cache {
	return &Cache{repo: repo}
}

// Load fills the cache from the repository.
func (c *Cache) Load(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}
	ids, err := c.repo.LoadOptedOut(ctx)
	if err != nil {
		return fmt.Errorf("loading toggles: %w", err)
	}
	c.Prime(ids)
	return nil
}

// Prime marks ids as opted out without persisting.
func (c *Cache) Prime(ids []uuid.UUID) {
	for _, id := range ids {
		c.optedOut.Store(id, struct{}{})
	}
	slog.Info("sound toggles loaded", "opted_out", len(ids))
}

// IsOptedOut reports whether listener disabled sounds.
func (c *Cache) IsOptedOut(listener uuid.UUID) bool {
	_, ok := c.optedOut.Load(listener)
	return ok
}

// Set changes the listener's state and persists it. The in-memory value is
// applied even when persisting fails; the error is returned to the caller.
func (c *Cache) Set(ctx context.Context, listener uuid.UUID, optedOut bool) error {
	if optedOut {
		c.optedOut.Store(listener, struct{}{})
	} else {
		c.optedOut.Delete(listener)
	}

	if c.repo == nil {
		return nil
	}
	if err := c.repo.SetOptedOut(ctx, listener, optedOut); err != nil {
		return fmt.Errorf("persisting toggle of %s: %w", listener, err)
	}
	return nil
}

// Toggle flips the listener's state and returns the new value.
func (c *Cache) Toggle(ctx context.Context, listener uuid.UUID) (bool, error) {
	next := !c.IsOptedOut(listener)
	return next, c.Set(ctx, listener, next)
}
