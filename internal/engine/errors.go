package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrPersistence matches every PersistenceError via errors.Is.
var ErrPersistence = errors.New("region persistence failed")

// PersistenceError reports a failed region save or delete. The in-memory
// change has already been applied and is not rolled back: the caller decides
// whether to retry or to undo it.
type PersistenceError struct {
	Op     string // save | delete
	Region uuid.UUID
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s region %s: %v", e.Op, e.Region, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
