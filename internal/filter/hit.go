package filter

import (
	"log/slog"
	"strings"
)

// Keywords of a hit condition: "<damager> hit <victim> holding <item>".
const (
	hitKeyword     = "hit"
	holdingKeyword = "holding"
)

// HitCondition is a parsed "<damager> hit <victim> holding <item>" condition.
type HitCondition struct {
	Damager string
	Victim  string
	Item    string
}

// ParseHit splits condition on the first standalone "hit" token and the first
// standalone "holding" token after it. Each part is trimmed; an empty part or
// a missing keyword fails.
func ParseHit(condition string) (HitCondition, bool) {
	fields := strings.Fields(strings.ToLower(condition))

	hitAt, holdingAt := -1, -1
	for i, f := range fields {
		if hitAt < 0 && f == hitKeyword {
			hitAt = i
			continue
		}
		if hitAt >= 0 && f == holdingKeyword {
			holdingAt = i
			break
		}
	}
	if hitAt <= 0 || holdingAt <= hitAt+1 || holdingAt == len(fields)-1 {
		return HitCondition{}, false
	}

	return HitCondition{
		Damager: strings.TrimSpace(strings.Join(fields[:hitAt], " ")),
		Victim:  strings.TrimSpace(strings.Join(fields[hitAt+1:holdingAt], " ")),
		Item:    strings.TrimSpace(strings.Join(fields[holdingAt+1:], " ")),
	}, true
}

// Matches evaluates the three sub-criteria.
func (c HitCondition) Matches(damager, victim, item string) bool {
	return Match(c.Damager, damager) && Match(c.Victim, victim) && Match(c.Item, item)
}

// MatchHit parses condition and evaluates it; parse failures never match.
func MatchHit(condition, damager, victim, item string) bool {
	c, ok := ParseHit(condition)
	if !ok {
		slog.Debug("malformed hit condition", "condition", condition)
		return false
	}
	return c.Matches(damager, victim, item)
}
