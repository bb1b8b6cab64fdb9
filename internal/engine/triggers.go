package engine

import (
	"log/slog"

	"github.com/udisondev/soundzones/internal/audience"
	"github.com/udisondev/soundzones/internal/model"
)

// Trigger is one game action reported by the host.
type Trigger struct {
	Kind  model.TriggerKind
	Actor *model.Actor // nil for actor-less triggers
	// Location of the action; the actor's location when World is empty.
	Location model.Location
	// Text is the chat message or command line.
	Text string
	// Item is the item involved (held item change, hit).
	Item string
	// Victim of a hit; Actor is the damager.
	Victim *model.Actor
	// Cancelled is set when the host already cancelled the action.
	Cancelled bool
}

func (t Trigger) context() audience.Context {
	loc := t.Location
	if loc.World == "" && t.Actor != nil {
		loc = t.Actor.Location
	}
	return audience.Context{Actor: t.Actor, Location: loc}
}

// Fire plays every sound bound to t. When t arrived cancelled, cancellable
// sounds are skipped; Fire reports true if any sound was skipped that way.
func (e *Engine) Fire(t Trigger) (cancelled bool) {
	cat := e.sounds.Load()

	var sounds []*model.CompositeSound
	switch t.Kind {
	case model.TriggerJoin, model.TriggerFirstJoin,
		model.TriggerDeath, model.TriggerKill, model.TriggerRespawn,
		model.TriggerTeleport, model.TriggerBedEnter, model.TriggerBedLeave,
		model.TriggerGameModeChange, model.TriggerLevelUp, model.TriggerCraft,
		model.TriggerDropItem, model.TriggerPickupItem,
		model.TriggerInventoryOpen, model.TriggerInventoryClose, model.TriggerSwing:
		sounds = append(sounds, cat.Trigger(t.Kind))

	case model.TriggerQuit:
		sounds = append(sounds, cat.Trigger(t.Kind))
		if t.Actor != nil && t.Actor.Listener {
			defer e.OnQuit(t.Actor.ID)
		}

	case model.TriggerChat:
		sounds = append(sounds, cat.Trigger(t.Kind))
		sounds = append(sounds, cat.Chat(t.Text)...)

	case model.TriggerCommand:
		sounds = append(sounds, cat.Trigger(t.Kind))
		sounds = append(sounds, cat.Command(t.Text)...)

	case model.TriggerHeldItemChange:
		sounds = append(sounds, cat.Trigger(t.Kind))
		sounds = append(sounds, cat.HeldItem(t.Item)...)

	case model.TriggerHit:
		sounds = append(sounds, cat.Trigger(t.Kind))
		sounds = append(sounds, cat.Hit(kindOf(t.Actor), kindOf(t.Victim), t.Item)...)

	case model.TriggerRegionEnter, model.TriggerRegionLeave:
		// Синтезируются трекером из OnPositionSample.
		slog.Warn("region triggers come from position samples", "trigger", t.Kind)
		return false

	default:
		slog.Warn("unknown trigger", "trigger", uint8(t.Kind))
		return false
	}

	ctx := t.context()
	played := 0
	for _, cs := range sounds {
		if cs == nil {
			continue
		}
		if t.Cancelled && cs.Cancellable() {
			cancelled = true
			continue
		}
		played += e.player.Play(cs, ctx)
	}

	slog.Debug("trigger fired", "trigger", t.Kind, "sounds", len(sounds), "instructions", played, "cancelled", cancelled)
	return cancelled
}

func kindOf(a *model.Actor) string {
	if a == nil {
		return ""
	}
	return a.Kind
}
