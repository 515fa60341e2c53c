// Package sphere aggregates control spheres: it gathers the exploited systems
// around each control system, scores their factions, classifies the flip
// state, computes the economics and feeds the report data sets.
package sphere

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/bgsforge/powerstate/internal/economy"
	"github.com/bgsforge/powerstate/internal/favor"
	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/geo"
	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/priority"
	"github.com/bgsforge/powerstate/internal/report"
)

// FactionSource provides per-system faction data. Any error other than a
// context error makes the aggregator skip the system.
type FactionSource interface {
	SystemFactions(ctx context.Context, sys *galaxy.System) (*galaxy.SystemFactions, error)
}

// StationSource provides the stations of a system.
type StationSource interface {
	SystemStations(ctx context.Context, systemName string) ([]*galaxy.Station, error)
}

// Options configures an Aggregator.
type Options struct {
	Control   []*galaxy.System
	Exploited []*galaxy.System

	Factions FactionSource
	// Stations is only used with the station_drops capability.
	Stations StationSource

	Classifier   *favor.Classifier
	Board        *priority.Board
	Capabilities priority.Capabilities
	Logger       logging.Logger
	Now          time.Time
}

// Aggregator runs the sphere pipeline once over a power's systems.
type Aggregator struct {
	opts Options
	log  logging.Logger

	// incomeSeen holds systems already counted toward the total income.
	incomeSeen map[*galaxy.System]bool
	// overlapped holds exploited systems counted by more than one sphere.
	overlapped []*galaxy.System
}

// Summary is the per-sphere outcome, for machine-readable exports.
type Summary struct {
	Name           string          `yaml:"name" json:"name"`
	Priority       string          `yaml:"priority" json:"priority"`
	FortPriority   string          `yaml:"fort_priority" json:"fort_priority"`
	DistToHQ       float64         `yaml:"dist_to_hq" json:"dist_to_hq"`
	State          string          `yaml:"state" json:"state"`
	Flip           galaxy.FlipData `yaml:"flip" json:"flip"`
	Systems        int             `yaml:"systems" json:"systems"`
	Skipped        int             `yaml:"skipped,omitempty" json:"skipped,omitempty"`
	Income         int             `yaml:"income" json:"income"`
	Upkeep         int             `yaml:"upkeep" json:"upkeep"`
	Overhead       float64         `yaml:"overhead" json:"overhead"`
	Profit         float64         `yaml:"profit" json:"profit"`
	OverlapSystems int             `yaml:"overlap_systems" json:"overlap_systems"`
	OverlapIncome  int             `yaml:"overlap_income" json:"overlap_income"`
	Trend          report.Trend    `yaml:"trend" json:"trend"`

	control *galaxy.System
}

// Result is the outcome of a run.
type Result struct {
	Spheres []*Summary    `yaml:"spheres" json:"spheres"`
	Totals  report.Totals `yaml:"totals" json:"totals"`
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Board == nil {
		opts.Board = priority.NewBoard(nil)
	}
	if opts.Classifier == nil {
		opts.Classifier = favor.New(nil, nil, nil)
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Aggregator{
		opts:       opts,
		log:        opts.Logger.Named("sphere"),
		incomeSeen: map[*galaxy.System]bool{},
	}
}

// Run processes every control sphere and fills set. Only context errors
// abort the run; systems without data are skipped.
func (a *Aggregator) Run(ctx context.Context, set *report.Set) (*Result, error) {
	overhead := economy.Overhead(len(a.opts.Control) + len(a.opts.Exploited))

	result := &Result{}
	for _, ctrl := range a.opts.Control {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary, err := a.processSphere(ctx, ctrl, overhead, set)
		if err != nil {
			return nil, err
		}
		result.Spheres = append(result.Spheres, summary)
		result.Totals.Upkeep += summary.Upkeep
	}
	result.Totals.Income = a.totalIncome()
	result.Totals.Overheads = overhead * float64(len(a.opts.Control))

	a.applyOverlap(result.Spheres)
	set.SetTotals(result.Totals)

	a.log.Info("aggregation finished",
		logging.Int("spheres", len(result.Spheres)),
		logging.Int("overlapped_systems", len(a.overlapped)),
		logging.Int("income", result.Totals.Income),
		logging.Int("upkeep", result.Totals.Upkeep))
	return result, nil
}

func (a *Aggregator) totalIncome() int {
	total := 0
	for sys := range a.incomeSeen {
		total += sys.CCIncome
	}
	return total
}

// countIncome registers sys for the power-wide total and remembers systems
// seen by more than one sphere.
func (a *Aggregator) countIncome(sys *galaxy.System) {
	if !a.incomeSeen[sys] {
		a.incomeSeen[sys] = true
		return
	}
	if !slices.Contains(a.overlapped, sys) {
		a.overlapped = append(a.overlapped, sys)
	}
}

// applyOverlap is the post-pass: every sphere learns which of its systems
// are shared with another sphere, and how much income they carry.
func (a *Aggregator) applyOverlap(spheres []*Summary) {
	for _, s := range spheres {
		ctrl := s.control
		shared := geo.WithinRadius(ctrl.Location, a.overlapped, geo.ProfitRadius)
		ov := galaxy.Overlap{Systems: len(shared)}
		for _, sys := range shared {
			ov.Income += sys.CCIncome
		}
		ctrl.Overlap = ov
		s.OverlapSystems = ov.Systems
		s.OverlapIncome = ov.Income
	}
}

func roundTenth(v float64) float64 { return math.Round(v*10) / 10 }
