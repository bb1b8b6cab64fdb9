package model

import "math"

// Location представляет точку в игровом мире.
// Value type, передаётся по значению (immutable).
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
	Yaw   float32 // degrees, 0 = +Z (south)
	Pitch float32
}

// NewLocation создаёт Location в мире world с нулевым направлением.
func NewLocation(world string, x, y, z float64) Location {
	return Location{World: world, X: x, Y: y, Z: z}
}

// WithFacing возвращает новый Location с обновлённым направлением (immutable pattern).
func (l Location) WithFacing(yaw, pitch float32) Location {
	l.Yaw = yaw
	l.Pitch = pitch
	return l
}

// Add возвращает Location, смещённый на (dx, dy, dz). Направление сохраняется.
func (l Location) Add(dx, dy, dz float64) Location {
	l.X += dx
	l.Y += dy
	l.Z += dz
	return l
}

// Block returns the integer block coordinates containing the location.
func (l Location) Block() BlockPos {
	return BlockPos{
		X: int(math.Floor(l.X)),
		Y: int(math.Floor(l.Y)),
		Z: int(math.Floor(l.Z)),
	}
}

// SameWorld reports whether both locations belong to one world.
func (l Location) SameWorld(other Location) bool {
	return l.World == other.World
}

// DistanceSquared возвращает квадрат расстояния до другой точки (без sqrt для производительности).
// Мир не учитывается, вызывающий обязан сравнить миры сам.
func (l Location) DistanceSquared(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// BlockPos is an integer block coordinate.
type BlockPos struct {
	X int
	Y int
	Z int
}
