package model

// TriggerKind enumerates the game actions that can carry a sound.
type TriggerKind uint8

const (
	TriggerJoin TriggerKind = iota + 1
	TriggerFirstJoin
	TriggerQuit
	TriggerDeath
	TriggerKill
	TriggerRespawn
	TriggerTeleport
	TriggerBedEnter
	TriggerBedLeave
	TriggerGameModeChange
	TriggerLevelUp
	TriggerCraft
	TriggerDropItem
	TriggerPickupItem
	TriggerInventoryOpen
	TriggerInventoryClose
	TriggerSwing
	TriggerHeldItemChange
	TriggerChat
	TriggerCommand
	TriggerHit
	TriggerRegionEnter
	TriggerRegionLeave

	triggerCount
)

var triggerNames = [...]string{
	TriggerJoin:           "join_server",
	TriggerFirstJoin:      "first_join",
	TriggerQuit:           "leave_server",
	TriggerDeath:          "player_death",
	TriggerKill:           "player_kill",
	TriggerRespawn:        "player_respawn",
	TriggerTeleport:       "teleport",
	TriggerBedEnter:       "bed_enter",
	TriggerBedLeave:       "bed_leave",
	TriggerGameModeChange: "game_mode_change",
	TriggerLevelUp:        "level_up",
	TriggerCraft:          "craft_item",
	TriggerDropItem:       "drop_item",
	TriggerPickupItem:     "pickup_item",
	TriggerInventoryOpen:  "inventory_open",
	TriggerInventoryClose: "inventory_close",
	TriggerSwing:          "player_swing",
	TriggerHeldItemChange: "change_held_item",
	TriggerChat:           "chat",
	TriggerCommand:        "command",
	TriggerHit:            "player_hit",
	TriggerRegionEnter:    "region_enter",
	TriggerRegionLeave:    "region_leave",
}

// String returns the configuration key of the trigger.
func (k TriggerKind) String() string {
	if k > 0 && k < triggerCount {
		return triggerNames[k]
	}
	return "unknown"
}

// Valid reports whether k is a known trigger.
func (k TriggerKind) Valid() bool {
	return k > 0 && k < triggerCount
}

// TriggerKinds returns every known trigger in declaration order.
func TriggerKinds() []TriggerKind {
	out := make([]TriggerKind, 0, triggerCount-1)
	for k := TriggerKind(1); k < triggerCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseTriggerKind maps a configuration key to a TriggerKind.
func ParseTriggerKind(name string) (TriggerKind, bool) {
	for k := TriggerKind(1); k < triggerCount; k++ {
		if triggerNames[k] == name {
			return k, true
		}
	}
	return 0, false
}
