package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/udisondev/soundzones/internal/engine"
	"github.com/udisondev/soundzones/internal/model"
	"github.com/udisondev/soundzones/internal/region"
	"github.com/udisondev/soundzones/internal/tick"
	"github.com/udisondev/soundzones/internal/toggle"
)

// maxEventSize bounds one JSON line.
const maxEventSize = 64 * 1024

// Event types of the stdin protocol.
const (
	evJoin           = "join"
	evQuit           = "quit"
	evMove           = "move"
	evTrigger        = "trigger"
	evToggle         = "toggle"
	evRegionCreate   = "region.create"
	evRegionRemove   = "region.remove"
	evRegionRename   = "region.rename"
	evRegionDescribe = "region.describe"
	evRegionAt       = "region.at"
)

type point struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float32 `json:"yaw"`
	Pitch float32 `json:"pitch"`
}

func (p point) location() model.Location {
	return model.NewLocation(p.World, p.X, p.Y, p.Z).WithFacing(p.Yaw, p.Pitch)
}

type entity struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Kind string    `json:"kind"` // empty = player
	point
}

func (e *entity) actor() *model.Actor {
	if e == nil {
		return nil
	}
	kind := e.Kind
	if kind == "" {
		kind = "player"
	}
	return &model.Actor{
		ID:       e.ID,
		Name:     e.Name,
		Kind:     kind,
		Location: e.location(),
		Listener: kind == "player",
	}
}

// event is one JSON line from the host.
type event struct {
	Type        string   `json:"type"`
	Player      *entity  `json:"player"`
	Permissions []string `json:"permissions"`

	// trigger
	Trigger   string  `json:"trigger"`
	Text      string  `json:"text"`
	Item      string  `json:"item"`
	Victim    *entity `json:"victim"`
	Cancelled bool    `json:"cancelled"`

	// regions
	Name        string `json:"name"`
	NewName     string `json:"new_name"`
	Description string `json:"description"`
	From        point  `json:"from"`
	To          point  `json:"to"`
}

type reply struct {
	Op        string          `json:"op"`
	Type      string          `json:"type"`
	Error     string          `json:"error,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Cancelled bool            `json:"cancelled,omitempty"`
	Regions   []regionSummary `json:"regions,omitempty"`
}

type regionSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// host adapts the stdin event protocol to the engine API. Every event is
// handled on the tick timeline.
type host struct {
	engine  *engine.Engine
	loop    *tick.Loop
	players *directory
	toggles *toggle.Cache
	out     *output
}

// feed reads JSON lines until r is exhausted or ctx is done.
func (h *host) feed(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxEventSize)

	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			slog.Warn("skip malformed event", "err", err)
			continue
		}
		h.loop.Submit(func() { h.handle(ctx, ev) })
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading events: %w", err)
	}
	slog.Info("event stream closed")
	return nil
}

func (h *host) handle(ctx context.Context, ev event) {
	switch ev.Type {
	case evJoin:
		if ev.Player == nil {
			h.fail(ev, fmt.Errorf("join without player"))
			return
		}
		l, ok := ev.Player.actor().AsListener()
		if !ok {
			h.fail(ev, fmt.Errorf("join: actor %q is not a player", ev.Player.Kind))
			return
		}
		h.players.join(l, ev.Permissions)
		h.fire(ev, model.TriggerJoin)

	case evQuit:
		if ev.Player == nil {
			return
		}
		h.fire(ev, model.TriggerQuit)
		h.players.quit(ev.Player.ID)

	case evMove:
		if ev.Player == nil {
			return
		}
		l, from, ok := h.players.move(ev.Player.ID, ev.Player.location())
		if !ok {
			slog.Debug("move of unknown player", "id", ev.Player.ID)
			return
		}
		res := h.engine.OnPositionSample(l, from, l.Location)
		if res.Cancelled {
			// Хост должен откатить перемещение
			h.players.move(l.ID, from)
			h.out.write(reply{Op: "move", Type: ev.Type, Cancelled: true})
		}

	case evTrigger:
		kind, ok := model.ParseTriggerKind(ev.Trigger)
		if !ok {
			h.fail(ev, fmt.Errorf("unknown trigger %q", ev.Trigger))
			return
		}
		h.fire(ev, kind)

	case evToggle:
		if ev.Player == nil {
			return
		}
		on, err := h.toggles.Toggle(ctx, ev.Player.ID)
		if err != nil {
			h.fail(ev, err)
			return
		}
		slog.Info("sounds toggled", "player", ev.Player.Name, "opted_out", on)

	case evRegionCreate:
		h.createRegion(ctx, ev)

	case evRegionRemove:
		r := h.engine.Regions().ByName(ev.Name)
		if r == nil {
			h.fail(ev, fmt.Errorf("region %q not found", ev.Name))
			return
		}
		h.done(ev, h.engine.RemoveRegion(ctx, r.ID))

	case evRegionRename:
		r := h.engine.Regions().ByName(ev.Name)
		if r == nil {
			h.fail(ev, fmt.Errorf("region %q not found", ev.Name))
			return
		}
		_, err := h.engine.RenameRegion(ctx, r.ID, ev.NewName)
		h.done(ev, err)

	case evRegionDescribe:
		r := h.engine.Regions().ByName(ev.Name)
		if r == nil {
			h.fail(ev, fmt.Errorf("region %q not found", ev.Name))
			return
		}
		_, err := h.engine.DescribeRegion(ctx, r.ID, ev.Description)
		h.done(ev, err)

	case evRegionAt:
		var out []regionSummary
		for _, r := range h.engine.RegionsContaining(ev.From.location()) {
			out = append(out, regionSummary{ID: r.ID, Name: r.Name})
		}
		h.out.write(reply{Op: "ok", Type: ev.Type, Regions: out})

	default:
		h.fail(ev, fmt.Errorf("unknown event type %q", ev.Type))
	}
}

func (h *host) fire(ev event, kind model.TriggerKind) {
	cancelled := h.engine.Fire(engine.Trigger{
		Kind:      kind,
		Actor:     ev.Player.actor(),
		Text:      ev.Text,
		Item:      ev.Item,
		Victim:    ev.Victim.actor(),
		Cancelled: ev.Cancelled,
	})
	if cancelled {
		h.out.write(reply{Op: "trigger", Type: kind.String(), Cancelled: true})
	}
}

// createRegion runs validation and persistence off the timeline.
func (h *host) createRegion(ctx context.Context, ev event) {
	var creator *uuid.UUID
	if ev.Player != nil {
		id := ev.Player.ID
		creator = &id
	}

	res := h.engine.CreateRegionAsync(ctx, engine.CreateRegionRequest{
		Name:        ev.Name,
		CornerA:     ev.From.location(),
		CornerB:     ev.To.location(),
		Creator:     creator,
		Description: ev.Description,
	})
	go func() {
		r := <-res
		h.done(ev, r.Err)
	}()
}

func (h *host) done(ev event, err error) {
	if err != nil {
		h.fail(ev, err)
		return
	}
	h.out.write(reply{Op: "ok", Type: ev.Type})
}

func (h *host) fail(ev event, err error) {
	rep := reply{Op: "error", Type: ev.Type, Error: err.Error()}
	var verr *region.ValidationError
	if errors.As(err, &verr) {
		rep.Kind = verr.Kind.String()
	}
	slog.Warn("event failed", "type", ev.Type, "err", err)
	h.out.write(rep)
}
