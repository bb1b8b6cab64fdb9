package model

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Block coordinates must fit the INTEGER columns regions are stored in.
const (
	MinBlockCoord = math.MinInt32
	MaxBlockCoord = math.MaxInt32
)

var (
	// ErrWorldMismatch is returned when box corners belong to different worlds.
	ErrWorldMismatch = errors.New("corners belong to different worlds")
	// ErrCoordinateRange is returned for NaN, infinite or out-of-range corners.
	ErrCoordinateRange = errors.New("coordinate out of range")
)

// Box is an axis-aligned block box normalized to Min <= Max on every axis.
// Both bounds are inclusive: a box from (0,0,0) to (0,0,0) covers one block.
type Box struct {
	World string
	Min   BlockPos
	Max   BlockPos
}

// NewBox normalizes two arbitrary corners into a Box.
func NewBox(a, b Location) (Box, error) {
	if a.World != b.World {
		return Box{}, fmt.Errorf("new box %q/%q: %w", a.World, b.World, ErrWorldMismatch)
	}
	for _, c := range [...]float64{a.X, a.Y, a.Z, b.X, b.Y, b.Z} {
		if !validCoord(c) {
			return Box{}, fmt.Errorf("new box: %w: %v", ErrCoordinateRange, c)
		}
	}
	return NormalizeBox(a.World, a.Block(), b.Block()), nil
}

// validCoord проверяет, что координата конечна и её блок помещается в int32.
func validCoord(c float64) bool {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return false
	}
	f := math.Floor(c)
	return f >= MinBlockCoord && f <= MaxBlockCoord
}

// NormalizeBox builds a Box from two block corners of the same world.
func NormalizeBox(world string, a, b BlockPos) Box {
	return Box{
		World: world,
		Min:   BlockPos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max:   BlockPos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// Contains проверяет попадание точки в AABB, границы включительно на всех шести гранях.
func (b Box) Contains(loc Location) bool {
	if loc.World != b.World {
		return false
	}
	return b.ContainsBlock(loc.Block())
}

// ContainsBlock checks a block coordinate against the box bounds.
func (b Box) ContainsBlock(p BlockPos) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overlaps reports whether both boxes share at least one block.
// Boxes that only touch (max=10, other min=11) do not overlap.
func (b Box) Overlaps(other Box) bool {
	if b.World != other.World {
		return false
	}
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y &&
		b.Min.Z <= other.Max.Z && b.Max.Z >= other.Min.Z
}

// Volume returns the number of blocks inside the box.
// The result saturates at math.MaxInt64 instead of wrapping.
func (b Box) Volume() int64 {
	v := span(b.Min.X, b.Max.X)
	for _, d := range [...]uint64{span(b.Min.Y, b.Max.Y), span(b.Min.Z, b.Max.Z)} {
		hi, lo := bits.Mul64(v, d)
		if hi != 0 || lo > math.MaxInt64 {
			return math.MaxInt64
		}
		v = lo
	}
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// span returns max-min+1 for a normalized axis, saturating at MaxUint64.
func span(lo, hi int) uint64 {
	d := uint64(hi - lo) // разность по модулю 2^64 верна при hi >= lo
	if d == math.MaxUint64 {
		return d
	}
	return d + 1
}
