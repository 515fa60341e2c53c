// Package favor classifies governments and factions for a single power.
package favor

import (
	"slices"
	"strings"
)

// Entity is anything with a government and allegiance: systems, factions,
// faction references.
type Entity interface {
	GovernmentName() string
	AllegianceName() string
}

// Classifier holds the per-power government sets. Construct it with New;
// the zero value classifies nothing as favorable.
type Classifier struct {
	favorable   map[string]struct{}
	unfavorable map[string]struct{}
	blacklist   map[string]struct{}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// New builds a Classifier. Matching is case-insensitive.
func New(favorable, unfavorable, allegianceBlacklist []string) *Classifier {
	return &Classifier{
		favorable:   toSet(favorable),
		unfavorable: toSet(unfavorable),
		blacklist:   toSet(allegianceBlacklist),
	}
}

func has(set map[string]struct{}, v string) bool {
	_, ok := set[strings.ToLower(v)]
	return ok
}

// IsFavorable reports whether e has a favorable government and its
// allegiance is not blacklisted. A nil entity is never favorable.
func (c *Classifier) IsFavorable(e Entity) bool {
	if e == nil {
		return false
	}
	gov := e.GovernmentName()
	if gov == "" {
		return false
	}
	if has(c.blacklist, e.AllegianceName()) {
		return false
	}
	return has(c.favorable, gov)
}

// IsUnfavorable reports whether e has an unfavorable government.
func (c *Classifier) IsUnfavorable(e Entity) bool {
	if e == nil {
		return false
	}
	gov := e.GovernmentName()
	return gov != "" && has(c.unfavorable, gov)
}

var conflictStates = []string{"war", "civil war"}

// IsConflicting reports whether any state is a war or civil war.
func IsConflicting(states []string) bool {
	return slices.ContainsFunc(states, func(s string) bool {
		return slices.Contains(conflictStates, strings.ToLower(strings.TrimSpace(s)))
	})
}

// IsRetreating reports whether any state is a retreat.
func IsRetreating(states []string) bool {
	return slices.ContainsFunc(states, func(s string) bool {
		return strings.EqualFold(strings.TrimSpace(s), "retreat")
	})
}
