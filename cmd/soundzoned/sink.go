package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/model"
)

// output writes JSON lines for the host: playback commands and replies.
type output struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newOutput(w io.Writer) *output {
	return &output{enc: json.NewEncoder(w)}
}

func (o *output) write(v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(v); err != nil {
		slog.Error("writing output", "err", err)
	}
}

type playCommand struct {
	Op       string  `json:"op"`
	Listener string  `json:"listener"`
	Sound    string  `json:"sound"`
	Category string  `json:"category"`
	Volume   float32 `json:"volume"`
	Pitch    float32 `json:"pitch"`
	World    string  `json:"world"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}

type stopCommand struct {
	Op       string   `json:"op"`
	Listener string   `json:"listener"`
	Sounds   []string `json:"sounds"`
}

// logSink implements playback.Sink by emitting play/stop commands.
type logSink struct {
	out *output
}

func newLogSink(out *output) *logSink {
	return &logSink{out: out}
}

func (s *logSink) Play(listener uuid.UUID, loc model.Location, soundID string, category model.Category, volume, pitch float32) {
	slog.Debug("play", "listener", listener, "sound", soundID, "category", category, "volume", volume, "pitch", pitch)
	s.out.write(playCommand{
		Op:       "play",
		Listener: listener.String(),
		Sound:    soundID,
		Category: category.String(),
		Volume:   volume,
		Pitch:    pitch,
		World:    loc.World,
		X:        loc.X,
		Y:        loc.Y,
		Z:        loc.Z,
	})
}

func (s *logSink) Stop(listener uuid.UUID, soundIDs []string) {
	slog.Debug("stop", "listener", listener, "sounds", soundIDs)
	s.out.write(stopCommand{Op: "stop", Listener: listener.String(), Sounds: soundIDs})
}
