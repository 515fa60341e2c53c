// Package priority resolves sphere priorities, fortification priorities and
// blacklists from static configuration and an optional project board.
package priority

import (
	"slices"
	"strings"
)

// Tier is a sphere priority. Lower is more important.
type Tier int

const (
	TierTop  Tier = 1
	TierHigh Tier = 2
	TierLow  Tier = 3
	TierNone Tier = 9999
)

// IsPriority reports whether t is one of the three ranked tiers.
func (t Tier) IsPriority() bool { return t >= TierTop && t <= TierLow }

func (t Tier) String() string {
	switch t {
	case TierTop:
		return "Top"
	case TierHigh:
		return "High"
	case TierLow:
		return "Low"
	default:
		return "None"
	}
}

// FortText names a fortification priority.
func FortText(t Tier) string {
	switch t {
	case TierTop:
		return "Top"
	case TierHigh:
		return "Higher"
	case TierLow:
		return "High"
	default:
		return "None"
	}
}

// DoNotFortifyText replaces the fortification text of blacklisted spheres.
const DoNotFortifyText = "Do Not Fort"

// Capabilities toggles optional report features.
type Capabilities struct {
	// PriorityColumns adds fortification priority columns and the matching toggle.
	PriorityColumns bool `yaml:"priority_columns" json:"priority_columns"`

	// SimpleReport produces the second, priority-only document.
	SimpleReport bool `yaml:"simple_report" json:"simple_report"`

	// StationDrops fetches stations of priority spheres for drop recommendations.
	StationDrops bool `yaml:"station_drops" json:"station_drops"`
}

// Entries is the raw priority data, from configuration or a board.
type Entries struct {
	Priorities      map[string]int `yaml:"priorities,omitempty" json:"priorities,omitempty"`
	FortPriorities  map[string]int `yaml:"fort_priorities,omitempty" json:"fort_priorities,omitempty"`
	DoNotFortify    []string       `yaml:"do_not_fortify,omitempty" json:"do_not_fortify,omitempty"`
	ManagedByOthers []string       `yaml:"managed_by_others,omitempty" json:"managed_by_others,omitempty"`
}

// Board answers priority and blacklist questions for one power. It is
// built once at startup and read-only afterwards.
type Board struct {
	priorities      map[string]Tier
	fortPriorities  map[string]Tier
	ignored         []string
	doNotFortify    []string
	managedByOthers []string
}

// NewBoard builds a Board. ignored holds spheres that are never reported on,
// typically the headquarters. Later entries override earlier ones.
func NewBoard(ignored []string, entries ...Entries) *Board {
	b := &Board{
		priorities:     map[string]Tier{},
		fortPriorities: map[string]Tier{},
		ignored:        dedupe(ignored),
	}
	for _, e := range entries {
		b.apply(e)
	}
	return b
}

func (b *Board) apply(e Entries) {
	for name, tier := range e.Priorities {
		b.priorities[key(name)] = normalize(tier)
	}
	for name, tier := range e.FortPriorities {
		b.fortPriorities[key(name)] = normalize(tier)
	}
	b.doNotFortify = dedupe(append(b.doNotFortify, e.DoNotFortify...))
	b.managedByOthers = dedupe(append(b.managedByOthers, e.ManagedByOthers...))
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func normalize(tier int) Tier {
	if t := Tier(tier); t.IsPriority() {
		return t
	}
	return TierNone
}

func dedupe(names []string) []string {
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || slices.ContainsFunc(out, func(o string) bool { return strings.EqualFold(o, n) }) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func contains(names []string, name string) bool {
	return slices.ContainsFunc(names, func(n string) bool { return strings.EqualFold(n, name) })
}

// Priority returns the sphere tier, TierNone when absent.
func (b *Board) Priority(sphere string) Tier {
	if t, ok := b.priorities[key(sphere)]; ok {
		return t
	}
	return TierNone
}

// HasPriority reports whether the sphere is on the priority list.
func (b *Board) HasPriority(sphere string) bool {
	_, ok := b.priorities[key(sphere)]
	return ok
}

// FortPriority returns the fortification tier, TierNone when absent.
func (b *Board) FortPriority(sphere string) Tier {
	if t, ok := b.fortPriorities[key(sphere)]; ok {
		return t
	}
	return TierNone
}

// FortText names the sphere's fortification priority.
func (b *Board) FortText(sphere string) string {
	if b.IsDoNotFortify(sphere) {
		return DoNotFortifyText
	}
	return FortText(b.FortPriority(sphere))
}

// IsDoNotFortify reports whether the sphere must not be fortified.
func (b *Board) IsDoNotFortify(sphere string) bool { return contains(b.doNotFortify, sphere) }

// IsBlacklisted reports whether the sphere is in BlacklistCombined.
func (b *Board) IsBlacklisted(sphere string) bool {
	return contains(b.ignored, sphere) || contains(b.doNotFortify, sphere) || contains(b.managedByOthers, sphere)
}

// BlacklistCombined returns ignored, do-not-fortify and managed-by-others
// spheres, in that order, without duplicates.
func (b *Board) BlacklistCombined() []string {
	all := slices.Concat(b.ignored, b.doNotFortify, b.managedByOthers)
	return dedupe(all)
}

// BlacklistText explains which spheres blacklist filters remove.
func (b *Board) BlacklistText() string {
	return "*Spheres ignored as DO NOT FORTIFY: " + listOrNone(b.doNotFortify) + "*<br>" +
		"*Spheres ignored as managed by another group of players: " + listOrNone(b.managedByOthers) + "*"
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}
