package sphere

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bgsforge/powerstate/internal/favor"
	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/priority"
	"github.com/bgsforge/powerstate/internal/report"
)

var now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeFactions map[int64]*galaxy.SystemFactions

func (f fakeFactions) SystemFactions(ctx context.Context, sys *galaxy.System) (*galaxy.SystemFactions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sf, ok := f[sys.ExternalID]
	if !ok {
		return nil, errors.New("system data unavailable")
	}
	return sf, nil
}

type fakeStations map[string][]*galaxy.Station

func (f fakeStations) SystemStations(ctx context.Context, name string) ([]*galaxy.Station, error) {
	return f[name], nil
}

func newSystem(id int64, name string, x float64, state galaxy.PowerState) *galaxy.System {
	s := &galaxy.System{
		ID: id, ExternalID: id, Name: name, X: x, Population: 1_000_000,
		Power: "Aisling Duval", PowerState: state,
	}
	s.Locate()
	return s
}

func newFaction(id int64, gov string, inf float64, states ...string) *galaxy.Faction {
	f := &galaxy.Faction{ID: id, Name: "Faction " + strconv.FormatInt(id, 10), Government: gov, Influence: inf}
	for _, st := range states {
		f.ActiveStates = append(f.ActiveStates, galaxy.FactionState{State: st})
	}
	return f
}

func controlled(ctrl *galaxy.Faction, others ...*galaxy.Faction) *galaxy.SystemFactions {
	return &galaxy.SystemFactions{
		ControllingFaction: &galaxy.FactionRef{ID: ctrl.ID, Name: ctrl.Name},
		Factions:           append([]*galaxy.Faction{ctrl}, others...),
	}
}

// fixture is one control system at x with n exploited systems one LY
// apart along the x axis.
type fixture struct {
	control   []*galaxy.System
	exploited []*galaxy.System
	data      fakeFactions
	nextID    int64
}

func newFixture() *fixture {
	return &fixture{data: fakeFactions{}, nextID: 1}
}

func (fx *fixture) id() int64 {
	fx.nextID++
	return fx.nextID
}

func (fx *fixture) addControl(name string, x float64) *galaxy.System {
	ctrl := newSystem(fx.id(), name, x, galaxy.StateControl)
	fx.control = append(fx.control, ctrl)
	fx.data[ctrl.ExternalID] = controlled(newFaction(fx.id(), "Cooperative", 0.9))
	return ctrl
}

func (fx *fixture) addExploited(x float64, sf *galaxy.SystemFactions) *galaxy.System {
	sys := newSystem(fx.id(), "Sys "+strconv.FormatFloat(x, 'f', 1, 64), x, galaxy.StateExploited)
	fx.exploited = append(fx.exploited, sys)
	if sf != nil {
		fx.data[sys.ExternalID] = sf
	}
	return sys
}

func (fx *fixture) run(t *testing.T, board *priority.Board, caps priority.Capabilities, stations StationSource) (*Result, *report.Set) {
	t.Helper()
	ctx := report.Context{Board: board, Capabilities: caps, Now: now}
	set := report.NewSet(ctx)
	agg := New(Options{
		Control:      fx.control,
		Exploited:    fx.exploited,
		Factions:     fx.data,
		Stations:     stations,
		Classifier:   favor.New([]string{"cooperative"}, []string{"feudal"}, nil),
		Board:        board,
		Capabilities: caps,
		Now:          now,
	})
	res, err := agg.Run(context.Background(), set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res, set
}

func TestRun_FlipStates(t *testing.T) {
	fx := newFixture()

	// Active: 6 of 10 favorable controllers
	fx.addControl("Alpha", 0)
	for i := 1; i <= 10; i++ {
		gov := "Feudal"
		if i <= 6 {
			gov = "Cooperative"
		}
		fx.addExploited(float64(i), controlled(newFaction(fx.id(), gov, 0.6), newFaction(fx.id(), "Dictatorship", 0.4)))
	}

	// Incomplete: 3 favorable controllers, 3 more systems with a favorable faction
	fx.addControl("Beta", 1000)
	for i := 1; i <= 10; i++ {
		var sf *galaxy.SystemFactions
		switch {
		case i <= 3:
			sf = controlled(newFaction(fx.id(), "Cooperative", 0.6), newFaction(fx.id(), "Feudal", 0.4))
		case i <= 6:
			sf = controlled(newFaction(fx.id(), "Feudal", 0.6), newFaction(fx.id(), "Cooperative", 0.3+float64(i)/100))
		default:
			sf = controlled(newFaction(fx.id(), "Feudal", 0.6), newFaction(fx.id(), "Dictatorship", 0.4))
		}
		fx.addExploited(1000+float64(i), sf)
	}

	res, set := fx.run(t, nil, priority.Capabilities{}, nil)

	alpha, beta := res.Spheres[0], res.Spheres[1]
	if alpha.Flip.Total != 10 || alpha.Flip.Needed != 5 || alpha.Flip.Buffer != 1 {
		t.Errorf("alpha flip = %+v, want total 10 needed 5 buffer +1", alpha.Flip)
	}
	if alpha.State != "active" {
		t.Errorf("alpha state = %s, want active", alpha.State)
	}
	if beta.Flip.Active != 3 || beta.Flip.Possible != 6 || beta.State != "incomplete" {
		t.Errorf("beta flip = %+v state %s, want incomplete with 3/6", beta.Flip, beta.State)
	}
	if set.Active.Len() != 1 || set.Incomplete.Len() != 1 || set.Impossible.Len() != 0 {
		t.Errorf("active/incomplete/impossible = %d/%d/%d",
			set.Active.Len(), set.Incomplete.Len(), set.Impossible.Len())
	}

	// pushes only for the incomplete sphere, one per system without favorable controller
	if set.FavPush.Len() != 3 {
		t.Errorf("fav pushes = %d, want 3", set.FavPush.Len())
	}
	for _, r := range set.FavPush.Records() {
		if r.Control.Name != "Beta" {
			t.Errorf("push for %s, want only Beta", r.Control.Name)
		}
	}

	for _, s := range res.Spheres {
		if s.Flip.Buffer != s.Flip.Active-s.Flip.Needed {
			t.Errorf("%s: buffer %d != active %d - needed %d", s.Name, s.Flip.Buffer, s.Flip.Active, s.Flip.Needed)
		}
	}
}

func TestRun_UnfavorableAndImpossible(t *testing.T) {
	fx := newFixture()
	fx.addControl("Gamma", 0)
	for i := 1; i <= 4; i++ {
		fx.addExploited(float64(i), controlled(newFaction(fx.id(), "Feudal", 0.7), newFaction(fx.id(), "Democracy", 0.3)))
	}
	res, set := fx.run(t, nil, priority.Capabilities{}, nil)

	if res.Spheres[0].State != "impossible" || set.Impossible.Len() != 1 {
		t.Errorf("state = %s, impossible records = %d", res.Spheres[0].State, set.Impossible.Len())
	}
	if set.Unfavorable.Len() != 1 || res.Spheres[0].Flip.Unfavorable != 4 {
		t.Errorf("unfavorable records = %d, flip = %+v", set.Unfavorable.Len(), res.Spheres[0].Flip)
	}
}

func TestRun_SkipsUnavailableSystems(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fx := newFixture()
	fx.addControl("Delta", 0)
	fx.addExploited(1, controlled(newFaction(fx.id(), "Cooperative", 0.6), newFaction(fx.id(), "Feudal", 0.4)))
	fx.addExploited(2, nil)

	set := report.NewSet(report.Context{Now: now})
	agg := New(Options{
		Control: fx.control, Exploited: fx.exploited, Factions: fx.data,
		Classifier: favor.New([]string{"cooperative"}, nil, nil),
		Logger:     logging.NewLoggerFromCore(core), Now: now,
	})
	res, err := agg.Run(context.Background(), set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := res.Spheres[0]
	if s.Skipped != 1 || s.Flip.Total != 1 || s.Systems != 3 {
		t.Errorf("skipped %d, total %d, systems %d; want 1, 1, 3", s.Skipped, s.Flip.Total, s.Systems)
	}
	if logs.FilterMessage("skipping system without faction data").Len() != 1 {
		t.Errorf("expected one skip warning, got %v", logs.All())
	}
}

func TestRun_CanceledContext(t *testing.T) {
	fx := newFixture()
	fx.addControl("Epsilon", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := New(Options{Control: fx.control, Factions: fx.data})
	if _, err := agg.Run(ctx, report.NewSet(report.Context{})); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_EconomicsAndOverlap(t *testing.T) {
	fx := newFixture()
	a := fx.addControl("Alpha", 0)
	b := fx.addControl("Beta", 20)
	shared := fx.addExploited(10, controlled(newFaction(fx.id(), "Cooperative", 1)))
	fx.addExploited(-5, controlled(newFaction(fx.id(), "Cooperative", 1)))
	a.DistToHQ, b.DistToHQ = 0, 20

	res, set := fx.run(t, nil, priority.Capabilities{}, nil)

	// population 1e6 gives income 7 per system
	if res.Spheres[0].Income != 21 || res.Spheres[1].Income != 14 {
		t.Errorf("incomes = %d, %d; want 21, 14", res.Spheres[0].Income, res.Spheres[1].Income)
	}
	// unique systems only: 2 controls + 2 exploited
	if res.Totals.Income != 28 {
		t.Errorf("total income = %d, want 28", res.Totals.Income)
	}
	if res.Totals.Upkeep != 20+21 {
		t.Errorf("total upkeep = %d, want 41", res.Totals.Upkeep)
	}
	if a.Overlap.Systems != 1 || a.Overlap.Income != shared.CCIncome || b.Overlap.Systems != 1 {
		t.Errorf("overlap a=%+v b=%+v", a.Overlap, b.Overlap)
	}
	if res.Spheres[0].OverlapIncome != 7 {
		t.Errorf("summary overlap income = %d", res.Spheres[0].OverlapIncome)
	}
	if set.Income.Len() != 2 || set.Upkeep.Len() != 2 || set.Profit.Len() != 2 || set.Trends.Len() != 2 {
		t.Error("expected one economics record per sphere")
	}
	if set.Totals.Income != 28 {
		t.Errorf("set totals not recorded: %+v", set.Totals)
	}

	p := set.Profit.Records()[0]
	if p.Profit != roundTenth(float64(p.Income-p.Upkeep)-p.Overhead) {
		t.Errorf("profit %v inconsistent with %d-%d-%v", p.Profit, p.Income, p.Upkeep, p.Overhead)
	}
}

func TestRun_Wars(t *testing.T) {
	fx := newFixture()
	fx.addControl("Alpha", 0)

	attacker := newFaction(fx.id(), "Cooperative", 0.4, "War")
	defender := newFaction(fx.id(), "Feudal", 0.4, "War")
	sf := &galaxy.SystemFactions{
		ControllingFaction: &galaxy.FactionRef{ID: defender.ID},
		Factions:           []*galaxy.Faction{attacker, defender, newFaction(fx.id(), "Democracy", 0.2)},
	}
	fx.addExploited(1, sf)

	holder := newFaction(fx.id(), "Cooperative", 0.45, "Civil War")
	fx.addExploited(2, controlled(holder, newFaction(fx.id(), "Feudal", 0.45, "Civil War"), newFaction(fx.id(), "Anarchy", 0.1)))

	// two favorable factions fighting each other are not reported
	favA := newFaction(fx.id(), "Cooperative", 0.3, "War")
	favB := newFaction(fx.id(), "Cooperative", 0.3, "War")
	fx.addExploited(3, controlled(newFaction(fx.id(), "Feudal", 0.4), favA, favB))

	// lone war without an equal opponent
	fx.addExploited(4, controlled(newFaction(fx.id(), "Feudal", 0.5), newFaction(fx.id(), "Cooperative", 0.35, "War"), newFaction(fx.id(), "Democracy", 0.15)))

	board := priority.NewBoard([]string{"Cubeo"}, priority.Entries{Priorities: map[string]int{"Alpha": 2}})
	_, set := fx.run(t, board, priority.Capabilities{}, nil)

	roles := map[report.WarRole]int{}
	for _, r := range set.Wars.Records() {
		roles[r.Role]++
	}
	want := map[report.WarRole]int{report.RoleAttacking: 1, report.RoleDefending: 1, report.RoleUnknown: 1}
	for role, n := range want {
		if roles[role] != n {
			t.Errorf("role %s: %d records, want %d (all: %v)", role, roles[role], n, roles)
		}
	}
	if set.Wars.Len() != 3 {
		t.Errorf("wars = %d, want 3", set.Wars.Len())
	}
	if set.SimpleWars.Len() != 3 {
		t.Errorf("simple wars = %d, want 3", set.SimpleWars.Len())
	}
}

func TestRun_FactionRecordsKeepControl(t *testing.T) {
	fx := newFixture()
	fx.addControl("Alpha", 0)

	attacker := newFaction(fx.id(), "Cooperative", 0.4, "War")
	defender := newFaction(fx.id(), "Feudal", 0.4, "War")
	fx.addExploited(1, &galaxy.SystemFactions{
		ControllingFaction: &galaxy.FactionRef{ID: defender.ID},
		Factions:           []*galaxy.Faction{attacker, defender, newFaction(fx.id(), "Democracy", 0.2)},
	})
	fx.addExploited(2, controlled(newFaction(fx.id(), "Feudal", 0.8), newFaction(fx.id(), "Cooperative", 0.2, "Retreat")))
	fx.addExploited(3, controlled(newFaction(fx.id(), "Cooperative", 0.7), newFaction(fx.id(), "Feudal", 0.3)))

	_, set := fx.run(t, nil, priority.Capabilities{}, nil)

	tests := []struct {
		name    string
		len     int
		dropped int
		rows    int
	}{
		{"wars", set.Wars.Len(), set.Wars.Dropped(), len(set.Wars.Table().Rows)},
		{"retreats", set.Retreats.Len(), set.Retreats.Dropped(), len(set.Retreats.Table().Rows)},
		{"defense", set.Defense.Len(), set.Defense.Dropped(), len(set.Defense.Table().Rows)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.dropped != 0 {
				t.Errorf("dropped = %d, want 0", tt.dropped)
			}
			if tt.len != 1 || tt.rows != 1 {
				t.Errorf("records = %d, rows = %d, want 1 each", tt.len, tt.rows)
			}
		})
	}

	for _, r := range set.Wars.Records() {
		if r.Control == nil || r.Control.Flip == nil {
			t.Fatalf("war record without flip data: %+v", r)
		}
	}
}

func TestRun_Retreats(t *testing.T) {
	fx := newFixture()
	fx.addControl("Alpha", 0)

	last := newFaction(fx.id(), "Cooperative", 0.2, "Retreat")
	fx.addExploited(1, controlled(newFaction(fx.id(), "Feudal", 0.8), last))

	crowded := []*galaxy.Faction{newFaction(fx.id(), "Feudal", 0.3)}
	for i := 0; i < 6; i++ {
		crowded = append(crowded, newFaction(fx.id(), "Democracy", 0.1))
	}
	crowded[6].PendingStates = []galaxy.FactionState{{State: "Retreat"}}
	fx.addExploited(2, controlled(crowded[0], crowded[1:]...))

	fav := newFaction(fx.id(), "Cooperative", 0.1, "Retreat")
	fx.addExploited(3, controlled(newFaction(fx.id(), "Cooperative", 0.6), newFaction(fx.id(), "Feudal", 0.3), fav))

	// unfavorable retreat in a small system is not noteworthy
	fx.addExploited(4, controlled(newFaction(fx.id(), "Cooperative", 0.8), newFaction(fx.id(), "Feudal", 0.2, "Retreat")))

	_, set := fx.run(t, nil, priority.Capabilities{}, nil)

	recs := set.Retreats.Records()
	if len(recs) != 3 {
		t.Fatalf("retreats = %d, want 3", len(recs))
	}
	wantInfo := []string{"Last Fav in system", "7th faction", "Fav"}
	for i, r := range recs {
		if r.Rank != i+1 || r.Info != wantInfo[i] {
			t.Errorf("retreat %d = rank %d %q, want rank %d %q", i, r.Rank, r.Info, i+1, wantInfo[i])
		}
	}
}

func TestRun_DefenseTrendsBooms(t *testing.T) {
	fx := newFixture()
	fx.addControl("Alpha", 0)

	holder := newFaction(fx.id(), "Cooperative", 0.5, "Boom")
	holder.InfluenceHistory = map[string]float64{
		strconv.FormatInt(now.Add(-10*day).Unix(), 10): 0.4,
		strconv.FormatInt(now.Add(-40*day).Unix(), 10): 0.3,
	}
	fx.addExploited(1, controlled(holder, newFaction(fx.id(), "Feudal", 0.35), newFaction(fx.id(), "Democracy", 0.15)))

	// conflicting controller gets no defense record
	fx.addExploited(2, controlled(newFaction(fx.id(), "Cooperative", 0.5, "War"), newFaction(fx.id(), "Feudal", 0.5, "War")))

	_, set := fx.run(t, nil, priority.Capabilities{}, nil)

	defense := set.Defense.Records()
	if len(defense) != 1 {
		t.Fatalf("defense records = %d, want 1", len(defense))
	}
	if got := defense[0].Lead; got < 0.1499 || got > 0.1501 {
		t.Errorf("lead = %v, want 0.15", got)
	}

	trend := set.Trends.Records()[0].Trend
	// holder: now 0.5, week 0.4, month 0.3; war faction: 0.5 throughout
	if trend.Now != 1.0 || trend.Week != 0.9 || trend.Month != 0.8 {
		t.Errorf("trend = %+v", trend)
	}

	if set.Booms.Len() != 1 {
		t.Errorf("booms = %d, want 1", set.Booms.Len())
	}
}

func TestRun_PrioritySpheresAndStations(t *testing.T) {
	fx := newFixture()
	ctrl := fx.addControl("Alpha", 0)
	fx.addControl("Beta", 1000)

	best := newFaction(fx.id(), "Cooperative", 0.3)
	pushSys := fx.addExploited(1, controlled(newFaction(fx.id(), "Feudal", 0.7), best))

	holder := newFaction(fx.id(), "Cooperative", 0.7)
	defSys := fx.addExploited(2, controlled(holder, newFaction(fx.id(), "Feudal", 0.3)))

	stations := fakeStations{
		pushSys.Name: {
			{ID: 1, Name: "Push Port", ControllingFaction: &galaxy.FactionRef{ID: best.ID}},
			{ID: 2, Name: "Other Port", ControllingFaction: &galaxy.FactionRef{ID: 999}},
		},
		defSys.Name: {
			{ID: 3, Name: "Hold Port", ControllingFaction: &galaxy.FactionRef{ID: holder.ID}},
			{ID: 4, Name: "Orphan"},
		},
	}
	board := priority.NewBoard(nil, priority.Entries{
		Priorities:     map[string]int{"Alpha": 1},
		FortPriorities: map[string]int{"Alpha": 2},
	})
	caps := priority.Capabilities{StationDrops: true, SimpleReport: true}

	res, set := fx.run(t, board, caps, stations)

	if ctrl.FortText != "Higher" || ctrl.FortPriority != 2 {
		t.Errorf("fort = %d %q", ctrl.FortPriority, ctrl.FortText)
	}
	if res.Spheres[0].Priority != "Top" || res.Spheres[1].Priority != "None" {
		t.Errorf("priorities = %s, %s", res.Spheres[0].Priority, res.Spheres[1].Priority)
	}
	if set.SimpleSpheres.Len() != 1 {
		t.Errorf("simple spheres = %d, want 1", set.SimpleSpheres.Len())
	}
	if set.SimpleFavPush.Len() != 1 || set.SimpleDefense.Len() != 1 {
		t.Errorf("simple push/defense = %d/%d", set.SimpleFavPush.Len(), set.SimpleDefense.Len())
	}

	var names []string
	for _, r := range set.SimpleStations.Records() {
		names = append(names, r.Station.Name)
	}
	if len(names) != 2 {
		t.Fatalf("stations = %v, want Push Port and Hold Port", names)
	}
	for _, n := range names {
		if n != "Push Port" && n != "Hold Port" {
			t.Errorf("unexpected station %s", n)
		}
	}
}

func TestRun_StationsNeedCapability(t *testing.T) {
	fx := newFixture()
	fx.addControl("Alpha", 0)
	best := newFaction(fx.id(), "Cooperative", 0.3)
	sys := fx.addExploited(1, controlled(newFaction(fx.id(), "Feudal", 0.7), best))
	stations := fakeStations{sys.Name: {{Name: "Port", ControllingFaction: &galaxy.FactionRef{ID: best.ID}}}}
	board := priority.NewBoard(nil, priority.Entries{Priorities: map[string]int{"Alpha": 1}})

	_, set := fx.run(t, board, priority.Capabilities{}, stations)
	if set.SimpleStations.HasRecords() {
		t.Error("stations fetched without station_drops capability")
	}
}

func TestGather(t *testing.T) {
	fx := newFixture()
	ctrl := fx.addControl("Alpha", 0)
	near := fx.addExploited(15, nil)
	fx.addExploited(15.01, nil)
	fx.addExploited(-3, nil)

	agg := New(Options{Control: fx.control, Exploited: fx.exploited})
	members := agg.gather(ctrl)
	if len(members) != 3 {
		t.Fatalf("members = %d, want 3", len(members))
	}
	if members[0] != near || members[len(members)-1] != ctrl {
		t.Error("control system must be appended after the exploited systems")
	}
}
