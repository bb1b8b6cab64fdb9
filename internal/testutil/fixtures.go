package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/soundzones/internal/model"
)

// Listener создаёт слушателя с детерминированным ID в мире world.
func Listener(n byte, name, world string, x, y, z float64) model.Listener {
	var id uuid.UUID
	id[15] = n
	return model.Listener{ID: id, Name: name, Location: model.NewLocation(world, x, y, z)}
}

// Sound builds a SoundDef or fails the test.
func Sound(t testing.TB, id string, opts model.SoundOptions) model.SoundDef {
	t.Helper()
	s, err := model.NewSoundDef(id, model.CategoryMaster, model.DefaultVolume, model.DefaultPitch, opts)
	require.NoError(t, err)
	return s
}

// Composite builds an enabled composite of the given sounds.
func Composite(sounds ...model.SoundDef) *model.CompositeSound {
	return model.NewCompositeSound(true, false, sounds)
}
