package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/engine"
	"github.com/udisondev/soundzones/internal/region"
	"github.com/udisondev/soundzones/internal/tick"
	"github.com/udisondev/soundzones/internal/toggle"
)

type hostFixture struct {
	host *host
	loop *tick.Loop
	buf  *bytes.Buffer
}

func newHostFixture(t *testing.T, sounds string) *hostFixture {
	t.Helper()

	buf := &bytes.Buffer{}
	out := newOutput(buf)
	loop := tick.NewLoop(tick.DefaultRate)
	players := newDirectory()
	toggles := toggle.NewCache(nil)

	eng := engine.New(engine.Options{
		Scheduler:   loop,
		Sink:        newLogSink(out),
		Directory:   players,
		Permissions: players,
		Toggles:     toggles,
		Limits:      region.DefaultLimits(),
	})
	tree, err := config.ParseYAML([]byte(sounds))
	require.NoError(t, err)
	eng.Reload(tree, "")

	return &hostFixture{
		host: &host{engine: eng, loop: loop, players: players, toggles: toggles, out: out},
		loop: loop,
		buf:  buf,
	}
}

func (f *hostFixture) send(t *testing.T, lines ...string) {
	t.Helper()
	require.NoError(t, f.host.feed(context.Background(), strings.NewReader(strings.Join(lines, "\n"))))
	f.loop.Step()
}

func (f *hostFixture) output() string {
	f.host.out.mu.Lock()
	defer f.host.out.mu.Unlock()
	return f.buf.String()
}

const hostSounds = `
triggers:
  join_server:
    sounds:
      - sound: join.sound
regions:
  default:
    enter:
      sounds:
        - sound: zone.enter
`

const alice = `{"id":"00000000-0000-0000-0000-000000000001","name":"alice","world":"world","x":-5,"y":5,"z":5}`

func TestHost_JoinPlaysSound(t *testing.T) {
	f := newHostFixture(t, hostSounds)

	f.send(t, `{"type":"join","player":`+alice+`}`)

	out := f.output()
	assert.Contains(t, out, `"op":"play"`)
	assert.Contains(t, out, `"sound":"join.sound"`)
	assert.Len(t, f.host.players.Online(), 1)
}

func TestHost_RegionCreateAndMove(t *testing.T) {
	f := newHostFixture(t, hostSounds)

	f.send(t,
		`{"type":"join","player":`+alice+`}`,
		`{"type":"region.create","name":"spawn","from":{"world":"world","x":0,"y":0,"z":0},"to":{"world":"world","x":10,"y":10,"z":10}}`,
	)
	require.Eventually(t, func() bool {
		return strings.Contains(f.output(), `"op":"ok","type":"region.create"`)
	}, time.Second, 10*time.Millisecond)

	f.send(t, `{"type":"move","player":{"id":"00000000-0000-0000-0000-000000000001","world":"world","x":5,"y":5,"z":5}}`)
	assert.Contains(t, f.output(), `"sound":"zone.enter"`)

	f.send(t, `{"type":"region.at","from":{"world":"world","x":1,"y":1,"z":1}}`)
	assert.Contains(t, f.output(), `"name":"spawn"`)
}

func TestHost_Errors(t *testing.T) {
	f := newHostFixture(t, hostSounds)

	f.send(t,
		`not json`,
		`{"type":"bogus"}`,
		`{"type":"trigger","trigger":"nope"}`,
		`{"type":"region.remove","name":"ghost"}`,
		`{"type":"region.create","name":"bad name!","from":{"world":"world"},"to":{"world":"world"}}`,
	)
	require.Eventually(t, func() bool {
		return strings.Contains(f.output(), `"kind":"illegal name"`)
	}, time.Second, 10*time.Millisecond)

	out := f.output()
	assert.Contains(t, out, `unknown event type \"bogus\"`)
	assert.Contains(t, out, `unknown trigger \"nope\"`)
	assert.Contains(t, out, `region \"ghost\" not found`)
}

func TestHost_JoinRejectsNonPlayer(t *testing.T) {
	f := newHostFixture(t, hostSounds)

	f.send(t, `{"type":"join","player":{"id":"00000000-0000-0000-0000-000000000002","name":"zombie","kind":"zombie","world":"world"}}`)

	out := f.output()
	assert.Contains(t, out, `"op":"error","type":"join"`)
	assert.Contains(t, out, `actor \"zombie\" is not a player`)
	assert.NotContains(t, out, `"op":"play"`)
	assert.Empty(t, f.host.players.Online())
}

func TestHost_RegionCreateOutOfBounds(t *testing.T) {
	f := newHostFixture(t, hostSounds)

	f.send(t, `{"type":"region.create","name":"huge","from":{"world":"world","x":0,"y":0,"z":0},"to":{"world":"world","x":274877906943,"y":0,"z":274877906943}}`)
	require.Eventually(t, func() bool {
		return strings.Contains(f.output(), `"kind":"coordinates out of bounds"`)
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, f.host.engine.Regions().Count())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "INFO", parseLogLevel("loud").String())
}
