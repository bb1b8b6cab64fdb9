package region

import (
	"errors"
	"fmt"
)

// Kind classifies a ValidationError.
type Kind uint8

const (
	KindNameCollision Kind = iota + 1
	KindIllegalName
	KindNameTooLong
	KindCountExceeded
	KindVolumeExceeded
	KindOverlap
	KindWorldMismatch
	KindNotFound
	KindOutOfBounds
)

var kindNames = map[Kind]string{
	KindNameCollision:  "name collision",
	KindIllegalName:    "illegal name",
	KindNameTooLong:    "name too long",
	KindCountExceeded:  "region count exceeded",
	KindVolumeExceeded: "region volume exceeded",
	KindOverlap:        "overlaps another region",
	KindWorldMismatch:  "corners in different worlds",
	KindNotFound:       "region not found",
	KindOutOfBounds:    "coordinates out of bounds",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ValidationError is returned by region operations that reject their input.
type ValidationError struct {
	Kind   Kind
	Name   string // region name the operation was about
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("region %q: %s", e.Name, e.Kind)
	}
	return fmt.Sprintf("region %q: %s: %s", e.Name, e.Kind, e.Detail)
}

// IsKind reports whether err is a ValidationError of kind k.
func IsKind(err error, k Kind) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Kind == k
}

func invalid(kind Kind, name, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Name: name, Detail: fmt.Sprintf(format, args...)}
}
