package galaxy

import "math"

// FlipState classifies a sphere's fortification bonus.
type FlipState int

const (
	// FlipImpossible means even every possible favorable faction would not reach half.
	FlipImpossible FlipState = iota
	// FlipIncomplete means the bonus is reachable but not yet active.
	FlipIncomplete
	// FlipActive means favorable factions control at least half the systems.
	FlipActive
)

func (s FlipState) String() string {
	switch s {
	case FlipActive:
		return "active"
	case FlipIncomplete:
		return "incomplete"
	default:
		return "impossible"
	}
}

// flipThreshold is the controlled share a sphere needs for the bonus.
const flipThreshold = 0.5

// FlipData is the favorable-government tally of one control sphere.
type FlipData struct {
	Active           int     `yaml:"active" json:"active"`
	ActiveRatio      float64 `yaml:"active_ratio" json:"active_ratio"`
	Possible         int     `yaml:"possible" json:"possible"`
	PossibleRatio    float64 `yaml:"possible_ratio" json:"possible_ratio"`
	Unfavorable      int     `yaml:"unfavorable" json:"unfavorable"`
	UnfavorableRatio float64 `yaml:"unfavorable_ratio" json:"unfavorable_ratio"`
	Needed           int     `yaml:"needed" json:"needed"`
	Buffer           int     `yaml:"buffer" json:"buffer"`
	Total            int     `yaml:"total" json:"total"`
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// NewFlipData derives needed, buffer and ratios from raw counts.
// Buffer is always Active minus Needed.
func NewFlipData(total, active, possible, unfavorable int) FlipData {
	needed := int(math.Ceil(float64(total) * flipThreshold))
	return FlipData{
		Active:           active,
		ActiveRatio:      ratio(active, total),
		Possible:         possible,
		PossibleRatio:    ratio(possible, total),
		Unfavorable:      unfavorable,
		UnfavorableRatio: ratio(unfavorable, total),
		Needed:           needed,
		Buffer:           active - needed,
		Total:            total,
	}
}

// State classifies the sphere.
func (f FlipData) State() FlipState {
	switch {
	case f.ActiveRatio >= flipThreshold:
		return FlipActive
	case f.PossibleRatio >= flipThreshold:
		return FlipIncomplete
	default:
		return FlipImpossible
	}
}

// MostlyUnfavorable reports whether unfavorable governments control at least half.
func (f FlipData) MostlyUnfavorable() bool {
	return f.UnfavorableRatio >= flipThreshold
}

// AbsBuffer is |Buffer|, the distance from the flip point.
func (f FlipData) AbsBuffer() int {
	if f.Buffer < 0 {
		return -f.Buffer
	}
	return f.Buffer
}
