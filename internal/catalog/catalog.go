package catalog

import (
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/udisondev/soundzones/internal/config"
	"github.com/udisondev/soundzones/internal/filter"
	"github.com/udisondev/soundzones/internal/model"
)

// Top-level sections of the sound configuration.
const (
	sectionTriggers = "triggers"
	sectionChat     = "chat_triggers"
	sectionCommands = "command_triggers"
	sectionItems    = "item_triggers"
	sectionHits     = "hit_triggers"
	sectionRegions  = "regions"

	defaultRegionKey = "default"
)

// Region section keys.
const (
	keyEnter             = "enter"
	keyLeave             = "leave"
	keyLoop              = "loop"
	keyPeriod            = "period"
	keyPreventEnterSound = "prevent_enter_sound"
	keyStopOnExit        = "stop_on_exit"
)

// DefaultLoopPeriod is used when a loop omits its period (ticks).
const DefaultLoopPeriod = 100

// CriteriaSound binds a filter criterion to a sound.
type CriteriaSound struct {
	Criterion string
	Sound     *model.CompositeSound
}

// HitSound binds a parsed hit condition to a sound.
type HitSound struct {
	Condition filter.HitCondition
	Raw       string
	Sound     *model.CompositeSound
}

// LoopSound is a sound repeated while a listener stays inside a region.
type LoopSound struct {
	Sound             *model.CompositeSound
	DelayTicks        int
	PeriodTicks       int
	PreventEnterSound bool
}

// StopOnExit stops a region's enter and loop sounds after leaving it.
type StopOnExit struct {
	Enabled    bool
	DelayTicks int
}

// RegionSounds are the sounds bound to one region.
type RegionSounds struct {
	Enter      *model.CompositeSound
	Leave      *model.CompositeSound
	Loop       *LoopSound
	StopOnExit StopOnExit
}

// SoundIDs returns ids of the enter and loop sounds (what stop-on-exit stops).
func (r RegionSounds) SoundIDs() []string {
	ids := r.Enter.SoundIDs()
	if r.Loop != nil {
		for _, id := range r.Loop.Sound.SoundIDs() {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// regionOverride keeps which fields a per-region section set explicitly.
type regionOverride struct {
	sounds        RegionSounds
	hasStopOnExit bool
}

// Catalog is an immutable snapshot of all configured sounds.
type Catalog struct {
	triggers      map[model.TriggerKind]*model.CompositeSound
	chat          []CriteriaSound
	commands      []CriteriaSound
	items         []CriteriaSound
	hits          []HitSound
	defaultRegion RegionSounds
	regions       map[string]regionOverride // lower-case region name
}

// Empty returns a Catalog with no sounds.
func Empty() *Catalog {
	return &Catalog{
		triggers: make(map[model.TriggerKind]*model.CompositeSound),
		regions:  make(map[string]regionOverride),
	}
}

// Parse builds a Catalog. It never fails: malformed entries are logged and
// skipped, so one bad sound does not silence the rest.
func Parse(t *config.Tree) *Catalog {
	c := Empty()

	triggers := t.Sub(sectionTriggers)
	for _, key := range triggers.Keys() {
		kind, ok := model.ParseTriggerKind(key)
		if !ok {
			slog.Warn("skip unknown trigger", "trigger", key)
			continue
		}
		if cs := parseOrSkip(triggers.Child(key), sectionTriggers, key); cs != nil {
			c.triggers[kind] = cs
		}
	}

	c.chat = parseCriteria(t.Sub(sectionChat), sectionChat)
	c.commands = parseCriteria(t.Sub(sectionCommands), sectionCommands)
	c.items = parseCriteria(t.Sub(sectionItems), sectionItems)

	hits := t.Sub(sectionHits)
	for _, key := range hits.Keys() {
		cond, ok := filter.ParseHit(key)
		if !ok {
			slog.Warn("skip malformed hit condition", "condition", key)
			continue
		}
		if cs := parseOrSkip(hits.Child(key), sectionHits, key); cs != nil {
			c.hits = append(c.hits, HitSound{Condition: cond, Raw: key, Sound: cs})
		}
	}

	regions := t.Sub(sectionRegions)
	for _, key := range regions.Keys() {
		ov := parseRegion(regions.Child(key), key)
		if strings.EqualFold(key, defaultRegionKey) {
			c.defaultRegion = ov.sounds
			continue
		}
		c.regions[strings.ToLower(key)] = ov
	}

	slog.Info("sound catalog parsed",
		"triggers", len(c.triggers),
		"chat", len(c.chat),
		"commands", len(c.commands),
		"items", len(c.items),
		"hits", len(c.hits),
		"regions", len(c.regions))

	return c
}

func parseOrSkip(t *config.Tree, section, key string) *model.CompositeSound {
	cs, err := ParseComposite(t)
	if err != nil {
		slog.Warn("skip malformed sound", "section", section, "key", key, "err", err)
		return nil
	}
	return cs
}

func parseCriteria(t *config.Tree, section string) []CriteriaSound {
	var out []CriteriaSound
	for _, key := range t.Keys() {
		if cs := parseOrSkip(t.Child(key), section, key); cs != nil {
			out = append(out, CriteriaSound{Criterion: key, Sound: cs})
		}
	}
	return out
}

func parseRegion(t *config.Tree, name string) regionOverride {
	var ov regionOverride
	ov.sounds.Enter = parseOrSkip(t.Sub(keyEnter), sectionRegions, name+"."+keyEnter)
	ov.sounds.Leave = parseOrSkip(t.Sub(keyLeave), sectionRegions, name+"."+keyLeave)

	if loop := t.Sub(keyLoop); loop != nil {
		if cs := parseOrSkip(loop, sectionRegions, name+"."+keyLoop); cs != nil {
			ov.sounds.Loop = &LoopSound{
				Sound:             cs,
				DelayTicks:        max(loop.Int(keyDelay, 0), 0),
				PeriodTicks:       max(loop.Int(keyPeriod, DefaultLoopPeriod), 1),
				PreventEnterSound: loop.Bool(keyPreventEnterSound, false),
			}
		}
	}

	if stop := t.Sub(keyStopOnExit); stop != nil {
		ov.hasStopOnExit = true
		ov.sounds.StopOnExit = StopOnExit{
			Enabled:    stop.Bool(keyEnabled, false),
			DelayTicks: max(stop.Int(keyDelay, 0), 0),
		}
	}
	return ov
}

// Trigger returns the sound bound to kind, or nil.
func (c *Catalog) Trigger(kind model.TriggerKind) *model.CompositeSound {
	return c.triggers[kind]
}

// Chat returns sounds whose criterion matches message, in configuration order.
func (c *Catalog) Chat(message string) []*model.CompositeSound {
	return matchAll(c.chat, message)
}

// Command returns sounds whose criterion matches the command line.
func (c *Catalog) Command(line string) []*model.CompositeSound {
	return matchAll(c.commands, line)
}

// HeldItem returns sounds whose criterion matches the item id.
func (c *Catalog) HeldItem(item string) []*model.CompositeSound {
	return matchAll(c.items, item)
}

// Hit returns sounds whose hit condition matches.
func (c *Catalog) Hit(damager, victim, item string) []*model.CompositeSound {
	var out []*model.CompositeSound
	for _, h := range c.hits {
		if h.Condition.Matches(damager, victim, item) {
			out = append(out, h.Sound)
		}
	}
	return out
}

// Region returns the sounds of a region: fields configured for the region's
// name override the default region section.
func (c *Catalog) Region(name string) RegionSounds {
	rs := c.defaultRegion
	ov, ok := c.regions[strings.ToLower(name)]
	if !ok {
		return rs
	}
	if ov.sounds.Enter != nil {
		rs.Enter = ov.sounds.Enter
	}
	if ov.sounds.Leave != nil {
		rs.Leave = ov.sounds.Leave
	}
	if ov.sounds.Loop != nil {
		rs.Loop = ov.sounds.Loop
	}
	if ov.hasStopOnExit {
		rs.StopOnExit = ov.sounds.StopOnExit
	}
	return rs
}

func matchAll(entries []CriteriaSound, value string) []*model.CompositeSound {
	var out []*model.CompositeSound
	for _, e := range entries {
		if filter.Match(e.Criterion, value) {
			out = append(out, e.Sound)
		}
	}
	return out
}

// Store publishes Catalog snapshots. Readers always see a whole snapshot,
// either the old one or the new one.
type Store struct {
	current atomic.Pointer[Catalog]
	digest  atomic.Pointer[string]
}

// NewStore creates a Store holding an empty Catalog.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(Empty())
	empty := ""
	s.digest.Store(&empty)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() *Catalog {
	return s.current.Load()
}

// Reload parses t and swaps it in unless digest equals the current one.
// An empty digest always swaps. Returns true when swapped.
func (s *Store) Reload(t *config.Tree, digest string) bool {
	if digest != "" && digest == *s.digest.Load() {
		slog.Debug("sound config unchanged, reload skipped", "digest", digest)
		return false
	}
	s.Swap(Parse(t), digest)
	return true
}

// Swap publishes c.
func (s *Store) Swap(c *Catalog, digest string) {
	s.current.Store(c)
	s.digest.Store(&digest)
}

// Region returns the region sounds of the current snapshot.
func (s *Store) Region(name string) RegionSounds {
	return s.Load().Region(name)
}
