package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Radius regimes of SoundOptions.Radius.
const (
	RadiusSource = 0.0  // only the trigger's actor
	RadiusGlobal = -1.0 // every connected listener
	RadiusWorld  = -2.0 // every listener in the trigger's world
)

// Sound defaults applied when a field is absent from configuration.
const (
	DefaultVolume float32 = 10
	DefaultPitch  float32 = 1
)

// UnboundedVolume replaces the -1 volume sentinel.
const UnboundedVolume float32 = math.MaxFloat32

var (
	ErrInvalidSoundID = errors.New("invalid sound id")
	ErrNegativeDelay  = errors.New("negative delay")
)

// Offset is a displacement in the actor's facing frame.
type Offset struct {
	FrontBack float64 // +front / -back
	LeftRight float64 // +right / -left
	UpDown    float64 // +up / -down
}

// IsZero reports whether the offset moves nothing.
func (o Offset) IsZero() bool {
	return o.FrontBack == 0 && o.LeftRight == 0 && o.UpDown == 0
}

// SoundOptions holds per-sound playback options.
type SoundOptions struct {
	DelayTicks         int
	Radius             float64
	IgnoreToggle       bool
	PermissionRequired string // empty = no check
	PermissionToListen string // empty = no check
	RelativeOffset     *Offset
}

// SoundDef describes one sound to emit. Immutable: use the With* methods.
type SoundDef struct {
	id       string
	category Category
	volume   float32
	pitch    float32
	options  SoundOptions
}

// NewSoundDef validates id and normalizes the -1 volume sentinel.
func NewSoundDef(id string, category Category, volume, pitch float32, opts SoundOptions) (SoundDef, error) {
	if !ValidSoundID(id) {
		return SoundDef{}, fmt.Errorf("%w: %q", ErrInvalidSoundID, id)
	}
	if opts.DelayTicks < 0 {
		return SoundDef{}, fmt.Errorf("sound %q: %w: %d", id, ErrNegativeDelay, opts.DelayTicks)
	}
	if opts.RelativeOffset != nil {
		off := *opts.RelativeOffset
		opts.RelativeOffset = &off
	}
	return SoundDef{
		id:       id,
		category: category,
		volume:   normalizeVolume(volume),
		pitch:    pitch,
		options:  opts,
	}, nil
}

func normalizeVolume(v float32) float32 {
	if v == -1 {
		return UnboundedVolume
	}
	return v
}

func (s SoundDef) ID() string { return s.id }
func (s SoundDef) Category() Category { return s.category }
func (s SoundDef) Volume() float32 { return s.volume }
func (s SoundDef) Pitch() float32 { return s.pitch }
func (s SoundDef) Options() SoundOptions { return s.options }
func (s SoundDef) IsUnbounded() bool { return s.volume == UnboundedVolume }
func (s SoundDef) DelayTicks() int { return s.options.DelayTicks }
func (s SoundDef) Radius() float64 { return s.options.Radius }
func (s SoundDef) IgnoresToggle() bool { return s.options.IgnoreToggle }

// WithVolume returns a copy with a new volume (-1 is normalized again).
func (s SoundDef) WithVolume(v float32) SoundDef {
	s.volume = normalizeVolume(v)
	return s
}

// WithPitch returns a copy with a new pitch.
func (s SoundDef) WithPitch(p float32) SoundDef {
	s.pitch = p
	return s
}

// WithOptions returns a copy with new options. A negative delay is clamped to 0.
func (s SoundDef) WithOptions(opts SoundOptions) SoundDef {
	if opts.DelayTicks < 0 {
		opts.DelayTicks = 0
	}
	if opts.RelativeOffset != nil {
		off := *opts.RelativeOffset
		opts.RelativeOffset = &off
	}
	s.options = opts
	return s
}

// ValidSoundID checks a namespaced key: optional "namespace:" followed by a path.
// namespace: [a-z0-9_.-]+, path: [a-z0-9_.-/]+.
func ValidSoundID(id string) bool {
	ns, path, found := strings.Cut(id, ":")
	if !found {
		ns, path = "minecraft", id
	}
	if ns == "" || path == "" {
		return false
	}
	for _, r := range ns {
		if !isKeyRune(r) {
			return false
		}
	}
	for _, r := range path {
		if !isKeyRune(r) && r != '/' {
			return false
		}
	}
	return true
}

func isKeyRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' || r == '-'
}

// CompositeSound is an ordered set of sounds played together for one trigger.
// Built at load time and replaced wholesale on reload.
type CompositeSound struct {
	enabled     bool
	cancellable bool
	children    []SoundDef
}

// NewCompositeSound copies children so the caller cannot mutate the result.
func NewCompositeSound(enabled, cancellable bool, children []SoundDef) *CompositeSound {
	cp := make([]SoundDef, len(children))
	copy(cp, children)
	return &CompositeSound{enabled: enabled, cancellable: cancellable, children: cp}
}

func (c *CompositeSound) Enabled() bool { return c != nil && c.enabled }
func (c *CompositeSound) Cancellable() bool { return c != nil && c.cancellable }

// Children returns a copy of the child sounds in configuration order.
func (c *CompositeSound) Children() []SoundDef {
	if c == nil {
		return nil
	}
	cp := make([]SoundDef, len(c.children))
	copy(cp, c.children)
	return cp
}

// SoundIDs returns the distinct sound IDs of all children.
func (c *CompositeSound) SoundIDs() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.children))
	ids := make([]string, 0, len(c.children))
	for _, s := range c.children {
		if _, ok := seen[s.id]; ok {
			continue
		}
		seen[s.id] = struct{}{}
		ids = append(ids, s.id)
	}
	return ids
}
