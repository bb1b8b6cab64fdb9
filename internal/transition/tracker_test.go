package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/soundzones/internal/audience"
	"github.com/udisondev/soundzones/internal/catalog"
	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/playback"
	"github.com/udisondev/soundzones/internal/region"
	"github.com/udisondev/soundzones/internal/testutil"
)

const world = "world"

type fixture struct {
	sched   *testutil.CountingScheduler
	sink    *testutil.RecordingSink
	regions *region.Manager
	tracker *Tracker
	alice   model.Listener
}

func newFixture(t *testing.T, sounds string) *fixture {
	t.Helper()

	tree, err := config.ParseYAML([]byte(sounds))
	require.NoError(t, err)
	store := catalog.NewStore()
	store.Reload(tree, "")

	f := &fixture{
		sched:   testutil.NewCountingScheduler(),
		sink:    &testutil.RecordingSink{},
		regions: region.NewManager(region.DefaultLimits()),
		alice:   testutil.Listener(1, "alice", world, -50, 5, -50),
	}
	resolver := audience.NewResolver(testutil.NewDirectory(f.alice), nil, nil)
	player := playback.NewPlayer(f.sched, f.sink, resolver)
	f.tracker = NewTracker(f.regions, store, player)
	return f
}

func (f *fixture) region(t *testing.T, name string, x1, y1, z1, x2, y2, z2 float64) *model.Region {
	t.Helper()
	r, err := f.regions.Create(region.CreateRequest{
		Name:    name,
		CornerA: model.NewLocation(world, x1, y1, z1),
		CornerB: model.NewLocation(world, x2, y2, z2),
	})
	require.NoError(t, err)
	return r
}

func at(x, y, z float64) model.Location {
	return model.NewLocation(world, x, y, z)
}

func kinds(res Result) map[string]Kind {
	out := make(map[string]Kind)
	for _, e := range res.Events {
		out[e.Region.Name] = e.Kind
	}
	return out
}

const regionSounds = `
regions:
  default:
    enter:
      sounds:
        - sound: zone.enter
    leave:
      sounds:
        - sound: zone.leave
    loop:
      period: 20
      sounds:
        - sound: zone.loop
    stop_on_exit:
      enabled: true
      delay: 10
`

func TestOnPositionSample_EnterOnce(t *testing.T) {
	f := newFixture(t, regionSounds)
	box := f.region(t, "box", 0, 0, 0, 10, 10, 10)

	res := f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))
	require.Len(t, res.Events, 1)
	assert.Equal(t, Enter, res.Events[0].Kind)
	assert.Equal(t, box.ID, res.Events[0].Region.ID)
	assert.False(t, res.Cancelled)
	assert.True(t, f.tracker.Inside(f.alice.ID, box.ID))
	assert.Equal(t, []string{"zone.enter"}, f.sink.PlayedIDs())

	// остаётся внутри: событий нет
	res = f.tracker.OnPositionSample(f.alice, at(5, 5, 5), at(6, 5, 5))
	assert.Empty(t, res.Events)
}

func TestOnPositionSample_DiffSets(t *testing.T) {
	f := newFixture(t, "{}")
	f.region(t, "a", 0, 0, 0, 10, 10, 10)
	f.region(t, "b", 5, 0, 0, 20, 10, 10)
	f.region(t, "c", 15, 0, 0, 30, 10, 10)

	// до {a,b}, после {b,c}
	res := f.tracker.OnPositionSample(f.alice, at(7, 5, 5), at(17, 5, 5))

	assert.Equal(t, map[string]Kind{"a": Leave, "c": Enter}, kinds(res))
	require.Len(t, res.Events, 2)
	assert.Equal(t, Leave, res.Events[0].Kind, "leaves are applied first")
}

func TestOnPositionSample_LeaveStopsAndPlays(t *testing.T) {
	f := newFixture(t, regionSounds)
	box := f.region(t, "box", 0, 0, 0, 10, 10, 10)

	f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))
	assert.Equal(t, 1, f.tracker.ActiveLoops())

	f.sched.Advance(20)
	assert.Equal(t, []string{"zone.enter", "zone.loop"}, f.sink.PlayedIDs())

	f.sink.Reset()
	res := f.tracker.OnPositionSample(f.alice, at(5, 5, 5), at(11, 5, 5))
	require.Len(t, res.Events, 1)
	assert.Equal(t, Leave, res.Events[0].Kind)
	assert.False(t, f.tracker.Inside(f.alice.ID, box.ID))
	assert.Equal(t, 0, f.tracker.ActiveLoops())
	assert.Equal(t, []string{"zone.leave"}, f.sink.PlayedIDs())

	f.sched.Advance(9)
	assert.Empty(t, f.sink.Stopped())
	f.sched.Advance(1)
	stopped := f.sink.Stopped()
	require.Len(t, stopped, 1)
	assert.ElementsMatch(t, []string{"zone.enter", "zone.loop"}, stopped[0].SoundIDs)

	// петля больше не играет
	f.sink.Reset()
	f.sched.Advance(40)
	assert.Empty(t, f.sink.PlayedIDs())
}

func TestOnPositionSample_ReentryCancelsExactlyOneLoop(t *testing.T) {
	f := newFixture(t, regionSounds)
	f.region(t, "box", 0, 0, 0, 10, 10, 10)

	f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))
	// хост пропустил выход: следующий сэмпл снова начинается снаружи
	f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))

	repeating, _, cancelled := f.sched.Counts()
	assert.Equal(t, 2, repeating)
	assert.Equal(t, 1, cancelled)
	assert.Equal(t, 1, f.tracker.ActiveLoops())

	f.sink.Reset()
	f.sched.Advance(20)
	assert.Equal(t, []string{"zone.loop"}, f.sink.PlayedIDs(), "only one loop must fire")
}

func TestOnPositionSample_PreventEnterSound(t *testing.T) {
	f := newFixture(t, `
regions:
  quiet:
    enter:
      sounds:
        - sound: zone.enter
    loop:
      prevent_enter_sound: true
      delay: 1
      sounds:
        - sound: zone.loop
`)
	f.region(t, "quiet", 0, 0, 0, 10, 10, 10)

	f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))
	assert.Empty(t, f.sink.PlayedIDs())

	f.sched.Advance(1)
	assert.Equal(t, []string{"zone.loop"}, f.sink.PlayedIDs())
}

func TestOnPositionSample_Cancelled(t *testing.T) {
	f := newFixture(t, regionSounds)
	box := f.region(t, "box", 0, 0, 0, 10, 10, 10)

	var seen []Kind
	f.tracker.Handle(func(e *Event) {
		seen = append(seen, e.Kind)
		if e.Kind == Enter {
			e.Cancel()
		}
	})

	res := f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))
	assert.True(t, res.Cancelled)
	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].Cancelled())
	assert.Equal(t, []Kind{Enter}, seen)

	assert.False(t, f.tracker.Inside(f.alice.ID, box.ID))
	assert.Empty(t, f.sink.PlayedIDs())
	assert.Equal(t, 0, f.sched.Pending())
}

func TestRemoveRegion(t *testing.T) {
	f := newFixture(t, regionSounds)
	box := f.region(t, "box", 0, 0, 0, 10, 10, 10)
	f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))

	f.tracker.RemoveRegion(box.ID)

	assert.False(t, f.tracker.Inside(f.alice.ID, box.ID))
	assert.Equal(t, 0, f.sched.Pending())
}

func TestForget(t *testing.T) {
	f := newFixture(t, regionSounds)
	f.region(t, "box", 0, 0, 0, 10, 10, 10)
	f.tracker.OnPositionSample(f.alice, at(-1, 5, 5), at(5, 5, 5))
	f.tracker.OnPositionSample(f.alice, at(5, 5, 5), at(20, 5, 5))
	require.Equal(t, 1, f.sched.Pending(), "stop batch pending")

	f.tracker.Forget(f.alice.ID)

	assert.Equal(t, 0, f.sched.Pending())
	f.sched.Advance(20)
	assert.Empty(t, f.sink.Stopped())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "enter", Enter.String())
	assert.Equal(t, "leave", Leave.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
