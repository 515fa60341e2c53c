package galaxy

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FactionState is one entry of a faction's active or pending states.
type FactionState struct {
	State string `json:"state"`
	Trend int    `json:"trend,omitempty"`
}

// Faction is a minor faction as present in one system. Influence is a
// fraction in [0,1] and only meaningful together with that system.
type Faction struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Allegiance       string             `json:"allegiance"`
	Government       string             `json:"government"`
	Influence        float64            `json:"influence"`
	State            string             `json:"state,omitempty"`
	ActiveStates     []FactionState     `json:"activeStates"`
	PendingStates    []FactionState     `json:"pendingStates"`
	RecoveringStates []FactionState     `json:"recoveringStates,omitempty"`
	InfluenceHistory map[string]float64 `json:"influenceHistory,omitempty"`
	IsPlayer         bool               `json:"isPlayer,omitempty"`
	LastUpdate       int64              `json:"lastUpdate"`
}

// FactionRef identifies a faction without per-system data.
type FactionRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Allegiance string `json:"allegiance,omitempty"`
	Government string `json:"government,omitempty"`
}

// GovernmentName implements favor.Entity. Nil-safe.
func (f *Faction) GovernmentName() string {
	if f == nil {
		return ""
	}
	return f.Government
}

// AllegianceName implements favor.Entity. Nil-safe.
func (f *Faction) AllegianceName() string {
	if f == nil {
		return ""
	}
	return f.Allegiance
}

// GovernmentName implements favor.Entity. Nil-safe.
func (f *FactionRef) GovernmentName() string {
	if f == nil {
		return ""
	}
	return f.Government
}

// AllegianceName implements favor.Entity. Nil-safe.
func (f *FactionRef) AllegianceName() string {
	if f == nil {
		return ""
	}
	return f.Allegiance
}

func stateNames(states []FactionState) []string {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.State)
	}
	return names
}

// ActiveStateNames returns the names of the active states in source order.
func (f *Faction) ActiveStateNames() []string { return stateNames(f.ActiveStates) }

// PendingStateNames returns the names of the pending states in source order.
func (f *Faction) PendingStateNames() []string { return stateNames(f.PendingStates) }

// StateNames returns active followed by pending state names.
func (f *Faction) StateNames() []string {
	return append(f.ActiveStateNames(), f.PendingStateNames()...)
}

// HasState reports whether the faction has state active or pending.
func (f *Faction) HasState(state string) bool {
	return slices.ContainsFunc(f.StateNames(), func(s string) bool {
		return strings.EqualFold(s, state)
	})
}

// HasActiveState reports whether state is currently active.
func (f *Faction) HasActiveState(state string) bool {
	return slices.ContainsFunc(f.ActiveStateNames(), func(s string) bool {
		return strings.EqualFold(s, state)
	})
}

// InfluenceAt returns the latest historical influence sampled at or before
// cutoff, or the current influence when no such sample exists.
func (f *Faction) InfluenceAt(cutoff time.Time) float64 {
	limit := cutoff.Unix()
	best := int64(-1)
	value := f.Influence
	for key, inf := range f.InfluenceHistory {
		ts, err := strconv.ParseInt(key, 10, 64)
		if err != nil || ts > limit {
			continue
		}
		if ts > best {
			best = ts
			value = inf
		}
	}
	return value
}

// SystemFactions is the per-system faction payload returned by the faction
// API and stored in the cache.
type SystemFactions struct {
	ID                 int64       `json:"id,omitempty"`
	Name               string      `json:"name,omitempty"`
	ControllingFaction *FactionRef `json:"controllingFaction"`
	Factions           []*Faction  `json:"factions"`
}

// Present returns the factions with positive influence, ordered by influence
// descending and then by name.
func (sf *SystemFactions) Present() []*Faction {
	var out []*Faction
	for _, f := range sf.Factions {
		if f.Influence > 0 {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Influence != out[j].Influence {
			return out[i].Influence > out[j].Influence
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Controller resolves the controlling faction. Without an explicit
// controllingFaction (or when it is not in the list) the faction with the
// highest influence is used. Nil means no controller could be determined.
func (sf *SystemFactions) Controller() *Faction {
	if sf.ControllingFaction != nil {
		for _, f := range sf.Factions {
			if f.ID == sf.ControllingFaction.ID {
				return f
			}
		}
	}
	present := sf.Present()
	if len(present) == 0 {
		return nil
	}
	return present[0]
}

// LastUpdate returns the most recent faction update time, zero if unknown.
func (sf *SystemFactions) LastUpdate() time.Time {
	var latest int64
	for _, f := range sf.Factions {
		latest = max(latest, f.LastUpdate)
	}
	if latest == 0 {
		return time.Time{}
	}
	return time.Unix(latest, 0)
}

// Station is a station with its controlling faction.
type Station struct {
	ID                 int64       `json:"id"`
	MarketID           int64       `json:"marketId,omitempty"`
	Name               string      `json:"name"`
	Type               string      `json:"type"`
	DistanceToArrival  float64     `json:"distanceToArrival"`
	ControllingFaction *FactionRef `json:"controllingFaction"`
}
