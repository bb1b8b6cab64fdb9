// Package catalog turns the sound configuration tree into immutable
// snapshots of trigger, criteria and region sounds.
package catalog

import (
	"fmt"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/model"
)

// Configuration keys of a sound entry.
const (
	keySound              = "sound"
	keyCategory           = "category"
	keyVolume             = "volume"
	keyPitch              = "pitch"
	keyOptions            = "options"
	keyDelay              = "delay"
	keyRadius             = "radius"
	keyIgnoresToggle      = "ignores_toggle"
	keyPermissionRequired = "permission_required"
	keyPermissionToListen = "permission_to_listen"
	keyRelativeLocation   = "relative_location"
	keyFrontBack          = "front_back"
	keyRightLeft          = "right_left"
	keyUpDown             = "up_down"

	keyEnabled     = "enabled"
	keyCancellable = "cancellable"
	keySounds      = "sounds"
)

// ParseSound builds one SoundDef. Missing fields take defaults: delay 0,
// radius 0, volume 10, pitch 1, category master. Malformed numbers default
// too; only a malformed sound id is an error.
func ParseSound(t *config.Tree) (model.SoundDef, error) {
	id := t.String(keySound, "")

	category, _ := model.ParseCategory(t.String(keyCategory, model.DefaultCategory.String()))

	opts := model.SoundOptions{
		DelayTicks:         max(t.Int(keyOptions+"."+keyDelay, 0), 0),
		Radius:             t.Number(keyOptions+"."+keyRadius, model.RadiusSource),
		IgnoreToggle:       t.Bool(keyOptions+"."+keyIgnoresToggle, false),
		PermissionRequired: t.String(keyOptions+"."+keyPermissionRequired, ""),
		PermissionToListen: t.String(keyOptions+"."+keyPermissionToListen, ""),
	}

	if rel := t.Sub(keyOptions + "." + keyRelativeLocation); rel != nil {
		off := model.Offset{
			FrontBack: rel.Number(keyFrontBack, 0),
			LeftRight: rel.Number(keyRightLeft, 0),
			UpDown:    rel.Number(keyUpDown, 0),
		}
		if !off.IsZero() {
			opts.RelativeOffset = &off
		}
	}

	s, err := model.NewSoundDef(
		id,
		category,
		float32(t.Number(keyVolume, float64(model.DefaultVolume))),
		float32(t.Number(keyPitch, float64(model.DefaultPitch))),
		opts,
	)
	if err != nil {
		return model.SoundDef{}, fmt.Errorf("parsing sound: %w", err)
	}
	return s, nil
}

// ParseComposite builds a CompositeSound from a node with enabled,
// cancellable and a sounds list. A nil node means "not configured" and
// returns nil, nil. Any malformed child rejects the whole composite.
func ParseComposite(t *config.Tree) (*model.CompositeSound, error) {
	if t == nil {
		return nil, nil
	}

	entries := t.List(keySounds)
	children := make([]model.SoundDef, 0, len(entries))
	for i, e := range entries {
		s, err := ParseSound(e)
		if err != nil {
			return nil, fmt.Errorf("sound #%d: %w", i+1, err)
		}
		children = append(children, s)
	}

	return model.NewCompositeSound(
		t.Bool(keyEnabled, true),
		t.Bool(keyCancellable, false),
		children,
	), nil
}

// EncodeSound serializes a SoundDef back into configuration form.
// An unbounded volume is written as the constant, never as -1.
func EncodeSound(s model.SoundDef) map[string]any {
	opts := s.Options()
	o := map[string]any{
		keyDelay:         opts.DelayTicks,
		keyRadius:        opts.Radius,
		keyIgnoresToggle: opts.IgnoreToggle,
	}
	if opts.PermissionRequired != "" {
		o[keyPermissionRequired] = opts.PermissionRequired
	}
	if opts.PermissionToListen != "" {
		o[keyPermissionToListen] = opts.PermissionToListen
	}
	if off := opts.RelativeOffset; off != nil {
		o[keyRelativeLocation] = map[string]any{
			keyFrontBack: off.FrontBack,
			keyRightLeft: off.LeftRight,
			keyUpDown:    off.UpDown,
		}
	}

	return map[string]any{
		keySound:    s.ID(),
		keyCategory: s.Category().String(),
		keyVolume:   float64(s.Volume()),
		keyPitch:    float64(s.Pitch()),
		keyOptions:  o,
	}
}

// EncodeComposite serializes a CompositeSound back into configuration form.
func EncodeComposite(cs *model.CompositeSound) map[string]any {
	children := cs.Children()
	sounds := make([]any, 0, len(children))
	for _, s := range children {
		sounds = append(sounds, EncodeSound(s))
	}
	return map[string]any{
		keyEnabled:     cs.Enabled(),
		keyCancellable: cs.Cancellable(),
		keySounds:      sounds,
	}
}
