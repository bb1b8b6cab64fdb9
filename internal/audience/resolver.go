// Package audience resolves who hears a sound and where they perceive it.
package audience

import (
	"math"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/model"
)

// Directory enumerates connected listeners.
type Directory interface {
	// Online returns every connected listener.
	Online() []model.Listener
	// InWorld returns connected listeners in world.
	InWorld(world string) []model.Listener
}

// Permissions is the host capability checker.
type Permissions interface {
	HasPermission(id uuid.UUID, permission string) bool
}

// Toggles reports listeners who opted out of sounds.
type Toggles interface {
	IsOptedOut(id uuid.UUID) bool
}

// Context describes what triggered a sound.
type Context struct {
	Actor    *model.Actor // nil for actor-less triggers (console, scheduled tick)
	Location model.Location
}

// At builds a Context for a player actor at its own location.
func At(actor *model.Actor) Context {
	return Context{Actor: actor, Location: actor.Location}
}

// Instruction is one concrete playback for one listener.
type Instruction struct {
	Listener   model.Listener
	Location   model.Location
	SoundID    string
	Category   model.Category
	Volume     float32
	Pitch      float32
	DelayTicks int
}

// Resolver turns sound definitions into per-listener instructions.
type Resolver struct {
	directory   Directory
	permissions Permissions
	toggles     Toggles
}

// NewResolver creates a Resolver. permissions and toggles may be nil:
// everyone is then allowed and nobody is opted out.
func NewResolver(directory Directory, permissions Permissions, toggles Toggles) *Resolver {
	return &Resolver{directory: directory, permissions: permissions, toggles: toggles}
}

// ResolveComposite resolves every child sound of cs. A disabled or nil
// composite yields nothing.
func (r *Resolver) ResolveComposite(cs *model.CompositeSound, ctx Context) []Instruction {
	if !cs.Enabled() {
		return nil
	}
	var out []Instruction
	for _, s := range cs.Children() {
		out = append(out, r.Resolve(s, ctx)...)
	}
	return out
}

// Resolve computes the audience of a single sound.
func (r *Resolver) Resolve(s model.SoundDef, ctx Context) []Instruction {
	opts := s.Options()

	// Права проверяются только у игрока: у моба или консоли их нет.
	if opts.PermissionRequired != "" && ctx.Actor != nil && ctx.Actor.Listener {
		if !r.hasPermission(ctx.Actor.ID, opts.PermissionRequired) {
			return nil
		}
	}

	candidates := r.candidates(opts.Radius, ctx)
	if len(candidates) == 0 {
		return nil
	}

	loc := perceivedLocation(ctx, opts.RelativeOffset)

	out := make([]Instruction, 0, len(candidates))
	for _, l := range candidates {
		if !opts.IgnoreToggle && r.optedOut(l.ID) {
			continue
		}
		if opts.PermissionToListen != "" && !r.hasPermission(l.ID, opts.PermissionToListen) {
			continue
		}
		out = append(out, Instruction{
			Listener:   l,
			Location:   loc,
			SoundID:    s.ID(),
			Category:   s.Category(),
			Volume:     s.Volume(),
			Pitch:      s.Pitch(),
			DelayTicks: opts.DelayTicks,
		})
	}
	return out
}

// candidates builds the listener set for a radius regime.
func (r *Resolver) candidates(radius float64, ctx Context) []model.Listener {
	switch {
	case radius > 0:
		r2 := radius * radius
		var out []model.Listener
		for _, l := range r.directory.InWorld(ctx.Location.World) {
			if l.Location.World == ctx.Location.World && l.Location.DistanceSquared(ctx.Location) <= r2 {
				out = append(out, l)
			}
		}
		return out
	case radius == model.RadiusGlobal:
		return r.directory.Online()
	case radius == model.RadiusWorld:
		return r.directory.InWorld(ctx.Location.World)
	default:
		if l, ok := ctx.Actor.AsListener(); ok {
			return []model.Listener{l}
		}
		return nil
	}
}

func (r *Resolver) hasPermission(id uuid.UUID, permission string) bool {
	if r.permissions == nil {
		return true
	}
	return r.permissions.HasPermission(id, permission)
}

func (r *Resolver) optedOut(id uuid.UUID) bool {
	if r.toggles == nil {
		return false
	}
	return r.toggles.IsOptedOut(id)
}

// perceivedLocation applies the relative offset in the actor's facing frame.
func perceivedLocation(ctx Context, offset *model.Offset) model.Location {
	base := ctx.Location
	if offset == nil || offset.IsZero() {
		return base
	}

	yaw := base.Yaw
	if ctx.Actor != nil {
		yaw = ctx.Actor.Location.Yaw
	}
	dx, dy, dz := Rotate(*offset, yaw)
	return base.Add(dx, dy, dz)
}

// Rotate converts an offset into world axes for a facing yaw in degrees.
// yaw 0 faces +Z; forward = (-sin, 0, cos), right = (-cos, 0, -sin).
func Rotate(offset model.Offset, yaw float32) (dx, dy, dz float64) {
	rad := float64(yaw) * math.Pi / 180
	sin, cos := math.Sincos(rad)

	dx = -sin*offset.FrontBack - cos*offset.LeftRight
	dz = cos*offset.FrontBack - sin*offset.LeftRight
	dy = offset.UpDown
	return dx, dy, dz
}
