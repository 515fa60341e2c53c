package sphere

import (
	"context"
	"fmt"
	"time"

	"github.com/bgsforge/powerstate/internal/economy"
	"github.com/bgsforge/powerstate/internal/favor"
	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/geo"
	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/priority"
	"github.com/bgsforge/powerstate/internal/report"
)

const (
	day = 24 * time.Hour

	boomState    = "Boom"
	retreatState = "Retreat"

	// crowdedSystem is the faction count from which a retreat is noteworthy
	// regardless of favorability.
	crowdedSystem = 7
)

// tally accumulates the scores of one sphere.
type tally struct {
	total, active, possible, unfavorable int

	income  int
	skipped int
	trend   report.Trend
	pushes  []report.FactionRecord

	// records that reference the control system wait here until its flip
	// data is known
	wars          []report.WarRecord
	simpleWars    []report.WarRecord
	retreats      []report.RetreatRecord
	defense       []report.DefenseRecord
	simpleDefense []report.DefenseRecord
	simplePushes  []report.FactionRecord
	stations      []report.StationRecord
}

// sphereRun carries the state shared while scoring one sphere.
type sphereRun struct {
	ctrl     *galaxy.System
	priority priority.Tier
	set      *report.Set
	log      logging.Logger
	t        tally
}

// gather returns the exploited systems in the profit radius followed by the
// control system itself.
func (a *Aggregator) gather(ctrl *galaxy.System) []*galaxy.System {
	members := geo.WithinRadius(ctrl.Location, a.opts.Exploited, geo.ProfitRadius)
	return append(members, ctrl)
}

func (a *Aggregator) processSphere(ctx context.Context, ctrl *galaxy.System, overhead float64, set *report.Set) (*Summary, error) {
	board := a.opts.Board
	run := &sphereRun{
		ctrl:     ctrl,
		priority: board.Priority(ctrl.Name),
		set:      set,
		log:      a.log.With(logging.String("sphere", ctrl.Name)),
	}
	ctrl.FortPriority = int(board.FortPriority(ctrl.Name))
	ctrl.FortText = board.FortText(ctrl.Name)

	members := a.gather(ctrl)
	run.log.Info("processing control sphere", logging.Int("systems", len(members)))

	for _, sys := range members {
		if err := a.processSystem(ctx, run, sys); err != nil {
			return nil, err
		}
	}

	flip := galaxy.NewFlipData(run.t.total, run.t.active, run.t.possible, run.t.unfavorable)
	ctrl.Flip = &flip
	a.emit(run)

	upkeep := economy.Upkeep(ctrl.DistToHQ)
	profit := roundTenth(float64(run.t.income-upkeep) - overhead)
	set.Income.Add(report.IncomeRecord{Control: ctrl, Income: run.t.income})
	set.Upkeep.Add(report.UpkeepRecord{Control: ctrl, Upkeep: upkeep})
	set.Profit.Add(report.ProfitRecord{
		Control: ctrl, Income: run.t.income, Upkeep: upkeep, Overhead: overhead, Profit: profit,
	})
	set.Trends.Add(report.TrendRecord{Control: ctrl, Trend: run.t.trend})

	return &Summary{
		Name:         ctrl.Name,
		Priority:     run.priority.String(),
		FortPriority: ctrl.FortText,
		DistToHQ:     ctrl.DistToHQ,
		State:        flip.State().String(),
		Flip:         flip,
		Systems:      len(members),
		Skipped:      run.t.skipped,
		Income:       run.t.income,
		Upkeep:       upkeep,
		Overhead:     overhead,
		Profit:       profit,
		Trend:        run.t.trend,
		control:      ctrl,
	}, nil
}

// emit classifies the sphere and adds its records. It runs once ctrl.Flip
// is set, since every record validates against it.
func (a *Aggregator) emit(run *sphereRun) {
	ctrl, set, t := run.ctrl, run.set, &run.t
	rec := report.SphereRecord{Control: ctrl, Priority: run.priority}

	set.Wars.Add(t.wars...)
	set.SimpleWars.Add(t.simpleWars...)
	set.Retreats.Add(t.retreats...)
	set.Defense.Add(t.defense...)
	set.SimpleDefense.Add(t.simpleDefense...)
	set.SimpleFavPush.Add(t.simplePushes...)
	set.SimpleStations.Add(t.stations...)

	switch ctrl.Flip.State() {
	case galaxy.FlipActive:
		set.Active.Add(rec)
	case galaxy.FlipIncomplete:
		set.Incomplete.Add(rec)
		set.FavPush.Add(run.t.pushes...)
	default:
		set.Impossible.Add(rec)
	}
	if a.opts.Board.HasPriority(ctrl.Name) {
		set.SimpleSpheres.Add(rec)
	}
	if ctrl.Flip.MostlyUnfavorable() {
		set.Unfavorable.Add(rec)
	}
}

func (a *Aggregator) processSystem(ctx context.Context, run *sphereRun, sys *galaxy.System) error {
	log := run.log.With(logging.String("system", sys.Name), logging.Int64("edsm_id", sys.ExternalID))
	log.Info("processing system")

	sf, err := a.opts.Factions.SystemFactions(ctx, sys)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("system %s: %w", sys.Name, ctxErr)
		}
		// the sphere total shrinks by one, accepted
		log.Warn("skipping system without faction data", logging.Err(err))
		run.t.skipped++
		return nil
	}
	if sf == nil || len(sf.Factions) == 0 {
		return nil
	}

	income := economy.Income(sys.Population)
	sys.CCIncome = income
	run.t.income += income
	a.countIncome(sys)

	// the control system earns income but does not count for the flip state
	if sys == run.ctrl {
		return nil
	}
	a.score(ctx, run, sys, sf)
	return nil
}

// score tallies one exploited system and adds its faction-level records.
func (a *Aggregator) score(ctx context.Context, run *sphereRun, sys *galaxy.System, sf *galaxy.SystemFactions) {
	cls := a.opts.Classifier
	ctrl, set, prio := run.ctrl, run.set, run.priority

	present := sf.Present()
	controller := sf.Controller()
	sys.UpdatedAt = sf.LastUpdate()

	run.t.total++
	ctrlFav := cls.IsFavorable(controller)
	if ctrlFav {
		run.t.active++
	}
	if cls.IsUnfavorable(controller) {
		run.t.unfavorable++
	}

	var favs []*galaxy.Faction
	for _, f := range present {
		if cls.IsFavorable(f) {
			favs = append(favs, f)
		}
	}
	if len(favs) > 0 {
		run.t.possible++
	}

	weekAgo := a.opts.Now.Add(-7 * day)
	monthAgo := a.opts.Now.Add(-30 * day)

	var best *galaxy.Faction
	for _, fav := range favs {
		if !ctrlFav && (best == nil || fav.Influence > best.Influence) {
			best = fav
		}
		if favor.IsConflicting(fav.StateNames()) {
			a.war(run, sys, fav, present, controller)
		}
		if fav.HasActiveState(boomState) {
			set.Booms.Add(report.BoomRecord{
				Faction: fav, Systems: []*galaxy.System{sys}, Spheres: []*galaxy.System{ctrl},
			})
		}
		run.t.trend.Now += fav.Influence
		run.t.trend.Week += fav.InfluenceAt(weekAgo)
		run.t.trend.Month += fav.InfluenceAt(monthAgo)
	}

	if best != nil {
		push := report.FactionRecord{Faction: best, System: sys, Control: ctrl, Priority: prio}
		run.t.pushes = append(run.t.pushes, push)
		if prio.IsPriority() {
			run.t.simplePushes = append(run.t.simplePushes, push)
			if !favor.IsConflicting(best.StateNames()) {
				a.stations(ctx, run, sys, best)
			}
		}
	}

	if ctrlFav && !favor.IsConflicting(controller.StateNames()) && len(present) > 1 {
		rec := report.DefenseRecord{
			Faction: controller, System: sys, Control: ctrl,
			Lead: controller.Influence - runnerUp(present, controller).Influence, Priority: prio,
		}
		run.t.defense = append(run.t.defense, rec)
		if prio.IsPriority() {
			run.t.simpleDefense = append(run.t.simpleDefense, rec)
			a.stations(ctx, run, sys, controller)
		}
	}

	a.retreats(run, sys, present, len(favs))
}

// runnerUp is the most influential present faction other than leader.
// present is sorted by influence and holds at least two factions.
func runnerUp(present []*galaxy.Faction, leader *galaxy.Faction) *galaxy.Faction {
	for _, f := range present {
		if f != leader {
			return f
		}
	}
	return leader
}

// war records a favorable faction in conflict. The opponent is the other
// faction with the same influence; conflicts between two favorable factions
// are not reported.
func (a *Aggregator) war(run *sphereRun, sys *galaxy.System, fav *galaxy.Faction, present []*galaxy.Faction, controller *galaxy.Faction) {
	var opponent *galaxy.Faction
	for _, f := range present {
		if f.ID != fav.ID && f.Influence == fav.Influence {
			opponent = f
			break
		}
	}
	if opponent != nil && a.opts.Classifier.IsFavorable(opponent) {
		return
	}

	var role report.WarRole
	switch {
	case controller != nil && fav.ID == controller.ID:
		role = report.RoleDefending
	case opponent == nil:
		role = report.RoleUnknown
	case controller != nil && opponent.ID == controller.ID:
		role = report.RoleAttacking
	default:
		role = report.RoleNeutral
	}

	rec := report.WarRecord{Faction: fav, System: sys, Control: run.ctrl, Role: role, Priority: run.priority}
	run.t.wars = append(run.t.wars, rec)
	if run.priority.IsPriority() && role != report.RoleNeutral {
		run.t.simpleWars = append(run.t.simpleWars, rec)
	}
}

// retreats records factions in retreat: the last favorable faction of a
// system first, then crowded systems, then any favorable faction.
func (a *Aggregator) retreats(run *sphereRun, sys *galaxy.System, present []*galaxy.Faction, favCount int) {
	for _, f := range present {
		if !f.HasState(retreatState) {
			continue
		}
		fav := a.opts.Classifier.IsFavorable(f)

		var info string
		var rank int
		switch {
		case fav && favCount == 1:
			info, rank = "Last Fav in system", 1
		case len(present) >= crowdedSystem:
			info, rank = fmt.Sprintf("%dth faction", len(present)), 2
			if fav {
				info += " (Fav)"
			}
		case fav:
			info, rank = "Fav", 3
		default:
			continue
		}
		run.t.retreats = append(run.t.retreats, report.RetreatRecord{
			Faction: f, System: sys, Control: run.ctrl, Info: info, Rank: rank,
		})
	}
}

// stations recommends the stations of sys controlled by fac. It costs one
// API call and is only done for priority spheres.
func (a *Aggregator) stations(ctx context.Context, run *sphereRun, sys *galaxy.System, fac *galaxy.Faction) {
	if !a.opts.Capabilities.StationDrops || a.opts.Stations == nil {
		return
	}
	stations, err := a.opts.Stations.SystemStations(ctx, sys.Name)
	if err != nil {
		run.log.Warn("could not fetch stations", logging.String("system", sys.Name), logging.Err(err))
		return
	}
	for _, st := range stations {
		if st.ControllingFaction == nil || st.ControllingFaction.ID != fac.ID {
			continue
		}
		run.t.stations = append(run.t.stations, report.StationRecord{
			Station: st, Faction: fac, System: sys, Control: run.ctrl, Priority: run.priority,
		})
	}
}
