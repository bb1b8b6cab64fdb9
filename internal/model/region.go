package model

import (
	"time"

	"github.com/google/uuid"
)

// Region is a named axis-aligned sound zone.
// Region values are never mutated after publication: rename and describe
// produce a new value via WithName/WithDescription.
type Region struct {
	ID          uuid.UUID
	Name        string
	Box         Box
	Creator     *uuid.UUID // nil = console
	Description string
	CreatedAt   time.Time
}

// Contains reports whether loc is inside the region box.
func (r *Region) Contains(loc Location) bool {
	return r.Box.Contains(loc)
}

// CreatedBy reports whether the region belongs to creator.
// A nil creator means the console.
func (r *Region) CreatedBy(creator *uuid.UUID) bool {
	if r.Creator == nil || creator == nil {
		return r.Creator == nil && creator == nil
	}
	return *r.Creator == *creator
}

// WithName returns a copy of the region with a new name.
func (r *Region) WithName(name string) *Region {
	cp := *r
	cp.Name = name
	return &cp
}

// WithDescription returns a copy of the region with a new description.
func (r *Region) WithDescription(description string) *Region {
	cp := *r
	cp.Description = description
	return &cp
}
