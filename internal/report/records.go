package report

import (
	"slices"

	"github.com/bgsforge/powerstate/internal/dataset"
	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/priority"
)

func validateSphere(control *galaxy.System) error {
	if control == nil {
		return dataset.Malformed("missing control system")
	}
	if control.Flip == nil {
		return dataset.Malformed("control system %s has no flip data", control.Name)
	}
	return nil
}

func validateSighting(fac *galaxy.Faction, sys, control *galaxy.System) error {
	if fac == nil {
		return dataset.Malformed("missing faction")
	}
	if sys == nil {
		return dataset.Malformed("faction %s has no system", fac.Name)
	}
	return validateSphere(control)
}

// SphereRecord is one control sphere, used by the flip state and
// unfavorable data sets.
type SphereRecord struct {
	Control  *galaxy.System
	Priority priority.Tier
}

func (r SphereRecord) Validate() error { return validateSphere(r.Control) }

// FactionRecord is a faction worth pushing in one system of a sphere.
type FactionRecord struct {
	Faction  *galaxy.Faction
	System   *galaxy.System
	Control  *galaxy.System
	Priority priority.Tier
}

func (r FactionRecord) Validate() error { return validateSighting(r.Faction, r.System, r.Control) }

// WarRole is a favorable faction's side in a conflict relative to the
// system's controlling faction.
type WarRole string

const (
	RoleDefending WarRole = "Defending"
	RoleAttacking WarRole = "Attacking"
	RoleUnknown   WarRole = "???"
	RoleNeutral   WarRole = "No"
)

// rank orders roles within an urgency bucket.
func (r WarRole) rank() int {
	switch r {
	case RoleDefending:
		return 0
	case RoleAttacking:
		return 1
	case RoleUnknown:
		return 2
	default:
		return 3
	}
}

// WarRecord is a favorable faction in war or civil war.
type WarRecord struct {
	Faction  *galaxy.Faction
	System   *galaxy.System
	Control  *galaxy.System
	Role     WarRole
	Priority priority.Tier
}

func (r WarRecord) Validate() error {
	if r.Role == "" {
		return dataset.Malformed("war record without role")
	}
	return validateSighting(r.Faction, r.System, r.Control)
}

// FlipUrgency returns the flip text and the urgency bucket of the record.
// Bucket 0 holds conflicts that can move the sphere's flip state.
func (r WarRecord) FlipUrgency() (string, int) {
	buffer := r.Control.Flip.Buffer
	switch r.Role {
	case RoleAttacking:
		switch {
		case buffer == -1:
			return "Flip", 0
		case buffer >= 0:
			return itoa(buffer+1) + " banking", 0
		default:
			return itoa(-buffer) + " needed", 0
		}
	case RoleDefending:
		switch {
		case buffer == 0:
			return "Unflip", 0
		case buffer > 0:
			return itoa(buffer) + " buffer", 0
		default:
			return itoa(-buffer) + " needed", 0
		}
	case RoleUnknown:
		return bufferText(buffer), 0
	default:
		return bufferText(buffer), 1
	}
}

func bufferText(buffer int) string {
	if buffer >= 0 {
		return itoa(buffer) + " buffer"
	}
	return itoa(-buffer) + " needed"
}

// ProfitRecord is the economics of one sphere.
type ProfitRecord struct {
	Control  *galaxy.System
	Income   int
	Upkeep   int
	Overhead float64
	Profit   float64
}

func (r ProfitRecord) Validate() error { return validateSphere(r.Control) }

// Effective is the profit without income shared with other spheres.
func (r ProfitRecord) Effective() float64 {
	return roundTenth(r.Profit - float64(r.Control.Overlap.Income))
}

// IncomeRecord is a sphere's radius income.
type IncomeRecord struct {
	Control *galaxy.System
	Income  int
}

func (r IncomeRecord) Validate() error { return validateSphere(r.Control) }

// Unique is the income without systems shared with other spheres.
func (r IncomeRecord) Unique() int { return r.Income - r.Control.Overlap.Income }

// UpkeepRecord is a sphere's upkeep.
type UpkeepRecord struct {
	Control *galaxy.System
	Upkeep  int
}

func (r UpkeepRecord) Validate() error { return validateSphere(r.Control) }

// Trend is the total favorable influence of a sphere at three points in time,
// as fractions summed over systems.
type Trend struct {
	Now   float64 `yaml:"now" json:"now"`
	Week  float64 `yaml:"week" json:"week"`
	Month float64 `yaml:"month" json:"month"`
}

// WeekChange is Now minus Week.
func (t Trend) WeekChange() float64 { return t.Now - t.Week }

// MonthChange is Now minus Month.
func (t Trend) MonthChange() float64 { return t.Now - t.Month }

// TrendRecord is the influence trend of one sphere.
type TrendRecord struct {
	Control *galaxy.System
	Trend   Trend
}

func (r TrendRecord) Validate() error { return validateSphere(r.Control) }

// RetreatRecord is a faction in retreat worth attention. Rank 1 is the most
// urgent.
type RetreatRecord struct {
	Faction *galaxy.Faction
	System  *galaxy.System
	Control *galaxy.System
	Info    string
	Rank    int
}

func (r RetreatRecord) Validate() error {
	if r.Rank < 1 {
		return dataset.Malformed("retreat without rank")
	}
	return validateSighting(r.Faction, r.System, r.Control)
}

// DefenseRecord is a favorable controller with its influence lead.
type DefenseRecord struct {
	Faction  *galaxy.Faction
	System   *galaxy.System
	Control  *galaxy.System
	Lead     float64
	Priority priority.Tier
}

func (r DefenseRecord) Validate() error { return validateSighting(r.Faction, r.System, r.Control) }

// StationRecord is a station controlled by a faction worth supporting.
type StationRecord struct {
	Station  *galaxy.Station
	Faction  *galaxy.Faction
	System   *galaxy.System
	Control  *galaxy.System
	Priority priority.Tier
}

func (r StationRecord) Validate() error {
	if r.Station == nil {
		return dataset.Malformed("missing station")
	}
	return validateSighting(r.Faction, r.System, r.Control)
}

// BoomRecord is a booming favorable faction. Sightings in several systems
// are grouped into one record.
type BoomRecord struct {
	Faction *galaxy.Faction
	Systems []*galaxy.System
	Spheres []*galaxy.System
}

func (r BoomRecord) Validate() error {
	if r.Faction == nil {
		return dataset.Malformed("missing faction")
	}
	if len(r.Systems) == 0 {
		return dataset.Malformed("faction %s has no systems", r.Faction.Name)
	}
	return nil
}

// AvgDistance is the mean distance to HQ over the faction's systems.
func (r BoomRecord) AvgDistance() float64 {
	if len(r.Systems) == 0 {
		return 0
	}
	var sum float64
	for _, s := range r.Systems {
		sum += s.DistToHQ
	}
	return sum / float64(len(r.Systems))
}

// GroupBooms merges records of the same faction, keeping first-seen order.
func GroupBooms(records []BoomRecord) []BoomRecord {
	var out []BoomRecord
	index := map[int64]int{}
	for _, r := range records {
		i, ok := index[r.Faction.ID]
		if !ok {
			index[r.Faction.ID] = len(out)
			out = append(out, BoomRecord{Faction: r.Faction})
			i = len(out) - 1
		}
		out[i].Systems = appendUnique(out[i].Systems, r.Systems...)
		out[i].Spheres = appendUnique(out[i].Spheres, r.Spheres...)
	}
	return out
}

func appendUnique(dst []*galaxy.System, src ...*galaxy.System) []*galaxy.System {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
