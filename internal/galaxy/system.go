// Package galaxy defines the star system and faction data model shared by the
// aggregation and reporting packages, and loads the static system snapshot.
package galaxy

import (
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/bgsforge/powerstate/internal/geo"
)

// PowerState is a system's relation to a power.
type PowerState string

const (
	StateNone       PowerState = ""
	StateControl    PowerState = "Control"
	StateExploited  PowerState = "Exploited"
	StateHomeSystem PowerState = "Home System"
)

// System is one populated star system from the snapshot. Fields below the
// blank line are derived during a report run and never persisted.
type System struct {
	ID         int64      `json:"id"`
	ExternalID int64      `json:"edsm_id"`
	Name       string     `json:"name"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Z          float64    `json:"z"`
	Population int64      `json:"population"`
	Government string     `json:"government"`
	Allegiance string     `json:"allegiance"`
	Power      string     `json:"power"`
	PowerState PowerState `json:"power_state"`

	Location     r3.Vec    `json:"-"`
	DistToHQ     float64   `json:"-"`
	CCIncome     int       `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Flip         *FlipData `json:"-"`
	Overlap      Overlap   `json:"-"`
	FortPriority int       `json:"-"`
	FortText     string    `json:"-"`
}

// Overlap records exploited systems a sphere shares with other spheres.
type Overlap struct {
	Systems int
	Income  int
}

// Position implements geo.Point.
func (s *System) Position() r3.Vec { return s.Location }

// IsControl reports whether the system anchors a sphere.
func (s *System) IsControl() bool {
	return s.PowerState == StateControl || s.PowerState == StateHomeSystem
}

// GovernmentName implements favor.Entity.
func (s *System) GovernmentName() string { return s.Government }

// AllegianceName implements favor.Entity.
func (s *System) AllegianceName() string { return s.Allegiance }

// Locate fills Location from the raw coordinates.
func (s *System) Locate() {
	s.Location = geo.Vec(s.X, s.Y, s.Z)
}

// AnnotateDistances sets DistToHQ on every system, rounded to one decimal.
func AnnotateDistances(hq *System, systems ...[]*System) {
	for _, group := range systems {
		for _, sys := range group {
			sys.DistToHQ = geo.Round1(geo.Distance(sys.Location, hq.Location))
		}
	}
}

// SamePower reports whether a system belongs to the named power.
func (s *System) SamePower(power string) bool {
	return strings.EqualFold(s.Power, power)
}
