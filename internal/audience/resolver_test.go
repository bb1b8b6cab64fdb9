package audience

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/testutil"
)

var (
	alice = testutil.Listener(1, "alice", "world", 0, 64, 0)
	bob   = testutil.Listener(2, "bob", "world", 10, 64, 0)
	carol = testutil.Listener(3, "carol", "world", 100, 64, 0)
	dave  = testutil.Listener(4, "dave", "nether", 0, 64, 0)
)

func newFixture() (*Resolver, *testutil.Permissions, *testutil.Toggles) {
	perms := testutil.NewPermissions()
	toggles := testutil.NewToggles()
	dir := testutil.NewDirectory(alice, bob, carol, dave)
	return NewResolver(dir, perms, toggles), perms, toggles
}

func listenerNames(instr []Instruction) []string {
	var names []string
	for _, in := range instr {
		names = append(names, in.Listener.Name)
	}
	return names
}

func TestResolve_RadiusRegimes(t *testing.T) {
	r, _, _ := newFixture()
	ctx := At(model.PlayerActor(alice))

	tests := []struct {
		name   string
		radius float64
		want   []string
	}{
		{"source only", model.RadiusSource, []string{"alice"}},
		{"distance limited", 15, []string{"alice", "bob"}},
		{"distance inclusive", 10, []string{"alice", "bob"}},
		{"global", model.RadiusGlobal, []string{"alice", "bob", "carol", "dave"}},
		{"world", model.RadiusWorld, []string{"alice", "bob", "carol"}},
		{"unknown negative is source only", -7, []string{"alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.Sound(t, "entity.player.levelup", model.SoundOptions{Radius: tt.radius})
			assert.Equal(t, tt.want, listenerNames(r.Resolve(s, ctx)))
		})
	}
}

func TestResolve_SourceOnlyWithoutPlayerActor(t *testing.T) {
	r, _, _ := newFixture()
	s := testutil.Sound(t, "entity.zombie.ambient", model.SoundOptions{})

	assert.Empty(t, r.Resolve(s, Context{Location: alice.Location}), "no actor")

	zombie := &model.Actor{Kind: "zombie", Location: alice.Location}
	assert.Empty(t, r.Resolve(s, Context{Actor: zombie, Location: zombie.Location}), "non-player actor")
}

func TestResolve_DistanceIgnoresOtherWorlds(t *testing.T) {
	r, _, _ := newFixture()
	s := testutil.Sound(t, "block.bell.use", model.SoundOptions{Radius: 1000})

	got := listenerNames(r.Resolve(s, Context{Location: model.NewLocation("nether", 0, 64, 0)}))
	assert.Equal(t, []string{"dave"}, got)
}

func TestResolve_Toggle(t *testing.T) {
	r, _, toggles := newFixture()
	toggles.Set(bob.ID, true)
	ctx := At(model.PlayerActor(alice))

	plain := testutil.Sound(t, "ui.toast.in", model.SoundOptions{Radius: model.RadiusGlobal})
	assert.NotContains(t, listenerNames(r.Resolve(plain, ctx)), "bob")

	bypass := testutil.Sound(t, "ui.toast.in", model.SoundOptions{Radius: model.RadiusGlobal, IgnoreToggle: true})
	assert.Contains(t, listenerNames(r.Resolve(bypass, ctx)), "bob")
}

func TestResolve_PermissionRequired(t *testing.T) {
	r, perms, _ := newFixture()
	s := testutil.Sound(t, "ui.toast.in", model.SoundOptions{Radius: model.RadiusGlobal, PermissionRequired: "sounds.vip"})

	assert.Empty(t, r.Resolve(s, At(model.PlayerActor(alice))), "actor lacks permission")

	perms.Grant(alice.ID, "sounds.vip")
	assert.Len(t, r.Resolve(s, At(model.PlayerActor(alice))), 4)

	// Моба нельзя проверить на права, проверка пропускается.
	mob := &model.Actor{Kind: "creeper", Location: alice.Location}
	assert.Len(t, r.Resolve(s, Context{Actor: mob, Location: mob.Location}), 4)
	assert.Len(t, r.Resolve(s, Context{Location: alice.Location}), 4)
}

func TestResolve_PermissionToListen(t *testing.T) {
	r, perms, _ := newFixture()
	perms.Grant(carol.ID, "sounds.hear")
	s := testutil.Sound(t, "ui.toast.in", model.SoundOptions{Radius: model.RadiusWorld, PermissionToListen: "sounds.hear"})

	assert.Equal(t, []string{"carol"}, listenerNames(r.Resolve(s, At(model.PlayerActor(alice)))))
}

func TestResolve_NilCollaborators(t *testing.T) {
	r := NewResolver(testutil.NewDirectory(alice, bob), nil, nil)
	s := testutil.Sound(t, "ui.toast.in", model.SoundOptions{Radius: model.RadiusGlobal, PermissionRequired: "x", PermissionToListen: "y"})

	assert.Len(t, r.Resolve(s, At(model.PlayerActor(alice))), 2)
}

func TestResolve_InstructionCarriesSoundFields(t *testing.T) {
	r, _, _ := newFixture()
	s, err := model.NewSoundDef("music.end", model.CategoryMusic, -1, 0.5, model.SoundOptions{DelayTicks: 40})
	require.NoError(t, err)

	got := r.Resolve(s, At(model.PlayerActor(alice)))
	require.Len(t, got, 1)
	assert.Equal(t, "music.end", got[0].SoundID)
	assert.Equal(t, model.CategoryMusic, got[0].Category)
	assert.Equal(t, model.UnboundedVolume, got[0].Volume)
	assert.Equal(t, float32(0.5), got[0].Pitch)
	assert.Equal(t, 40, got[0].DelayTicks)
	assert.Equal(t, alice.Location, got[0].Location)
}

func TestResolve_RelativeOffsetUsesActorFrame(t *testing.T) {
	r, _, _ := newFixture()
	s := testutil.Sound(t, "block.note_block.harp", model.SoundOptions{
		Radius:         model.RadiusGlobal,
		RelativeOffset: &model.Offset{FrontBack: 2, LeftRight: 1, UpDown: 3},
	})

	// Актёр смотрит на +X (yaw -90), слушатели смотрят куда угодно.
	actor := model.PlayerActor(alice)
	actor.Location = actor.Location.WithFacing(-90, 0)

	got := r.Resolve(s, At(actor))
	require.NotEmpty(t, got)
	for _, in := range got {
		assert.InDelta(t, 2.0, in.Location.X, 1e-9, "front is +X")
		assert.InDelta(t, 67.0, in.Location.Y, 1e-9)
		assert.InDelta(t, 1.0, in.Location.Z, 1e-9, "right of +X facing is +Z")
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name       string
		yaw        float32
		wx, wy, wz float64
	}{
		{"south", 0, -1, 0, 1},
		{"west", 90, -1, 0, -1},
		{"north", 180, 1, 0, -1},
		{"east", -90, 1, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// одна единица вперёд и одна вправо
			dx, dy, dz := Rotate(model.Offset{FrontBack: 1, LeftRight: 1}, tt.yaw)
			assert.InDelta(t, tt.wx, dx, 1e-9)
			assert.InDelta(t, tt.wy, dy, 1e-9)
			assert.InDelta(t, tt.wz, dz, 1e-9)
		})
	}
}

func TestResolveComposite(t *testing.T) {
	r, _, _ := newFixture()
	a := testutil.Sound(t, "a.one", model.SoundOptions{})
	b := testutil.Sound(t, "b.two", model.SoundOptions{Radius: 15})
	ctx := At(model.PlayerActor(alice))

	got := r.ResolveComposite(testutil.Composite(a, b), ctx)
	require.Len(t, got, 3)
	assert.Equal(t, "a.one", got[0].SoundID)
	assert.Equal(t, "b.two", got[1].SoundID)

	disabled := model.NewCompositeSound(false, false, []model.SoundDef{a})
	assert.Empty(t, r.ResolveComposite(disabled, ctx))
	assert.Empty(t, r.ResolveComposite(nil, ctx))
}
