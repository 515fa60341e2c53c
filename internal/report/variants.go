package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bgsforge/powerstate/internal/dataset"
	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/priority"
)

// Context is shared by all data sets of one report run.
type Context struct {
	Board        *priority.Board
	Capabilities priority.Capabilities
	Now          time.Time
	Logger       logging.Logger
}

func (c Context) board() *priority.Board {
	if c.Board == nil {
		return priority.NewBoard(nil)
	}
	return c.Board
}

// Meta names a data set.
type Meta struct {
	Title       string
	Icon        string
	Description string
}

func options[R dataset.Record](ctx Context, meta Meta, columns ...string) dataset.Options[R] {
	return dataset.Options[R]{
		Title:       meta.Title,
		Icon:        meta.Icon,
		Description: meta.Description,
		Columns:     columns,
		Logger:      ctx.Logger,
	}
}

// blacklisted installs the blacklist filter on control system names.
func blacklisted[R dataset.Record](ctx Context, opts *dataset.Options[R], control func(R) *galaxy.System) {
	board := ctx.board()
	opts.Filter = func(r R) bool { return !board.IsBlacklisted(control(r).Name) }
	opts.FilterText = board.BlacklistText()
}

func byName(a, b *galaxy.System) int { return strings.Compare(a.Name, b.Name) }

func absBuffer(s *galaxy.System) int { return s.Flip.AbsBuffer() }

func withFort(ctx Context, columns []string) []string {
	if ctx.Capabilities.PriorityColumns {
		return slices.Concat(columns, []string{"Fort Priority"})
	}
	return columns
}

func fortCell(ctx Context, cells []string, control *galaxy.System) []string {
	if ctx.Capabilities.PriorityColumns {
		return append(cells, control.FortText)
	}
	return cells
}

func flipCells(s *galaxy.System) []string {
	fd := s.Flip
	return []string{
		SystemLink(s),
		fmt.Sprintf("%d (%s)", fd.Active, Percent(fd.ActiveRatio)),
		fmt.Sprintf("%d (%+d)", fd.Needed, fd.Buffer),
		fmt.Sprintf("%d (%s)", fd.Possible, Percent(fd.PossibleRatio)),
		itoa(fd.Total),
		Distance(s.DistToHQ),
	}
}

var flipColumns = []string{"Control System", "Favorable Governments", "Needed (Buffer)", "Possible Favorable", "Total Governments", "From HQ"}

func compareFlip(a, b SphereRecord) int {
	return cmp.Or(
		cmp.Compare(absBuffer(a.Control), absBuffer(b.Control)),
		cmp.Compare(b.Control.Flip.ActiveRatio, a.Control.Flip.ActiveRatio),
		byName(a.Control, b.Control),
	)
}

// FlipStates lists spheres of one flip state, closest to flipping first.
func FlipStates(ctx Context, meta Meta) *dataset.DataSet[SphereRecord] {
	opts := options[SphereRecord](ctx, meta, withFort(ctx, flipColumns)...)
	blacklisted(ctx, &opts, func(r SphereRecord) *galaxy.System { return r.Control })
	opts.Compare = compareFlip
	opts.Format = func(r SphereRecord) ([]string, error) {
		return fortCell(ctx, flipCells(r.Control), r.Control), nil
	}
	return dataset.New(opts)
}

// SimpleFlipStates lists priority spheres, highest priority first.
func SimpleFlipStates(ctx Context, meta Meta) *dataset.DataSet[SphereRecord] {
	opts := options[SphereRecord](ctx, meta, append([]string{"Priority"}, flipColumns...)...)
	opts.Compare = func(a, b SphereRecord) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), compareFlip(a, b))
	}
	opts.Format = func(r SphereRecord) ([]string, error) {
		return append([]string{r.Priority.String()}, flipCells(r.Control)...), nil
	}
	return dataset.New(opts)
}

// Unfavorable lists spheres mostly controlled by unfavorable governments.
func Unfavorable(ctx Context, meta Meta) *dataset.DataSet[SphereRecord] {
	opts := options[SphereRecord](ctx, meta, "Control System", "Unfavorable Governments", "Total Governments", "From HQ")
	opts.Compare = func(a, b SphereRecord) int { return byName(a.Control, b.Control) }
	opts.Format = func(r SphereRecord) ([]string, error) {
		return []string{
			SystemLink(r.Control),
			itoa(r.Control.Flip.Unfavorable),
			itoa(r.Control.Flip.Total),
			Distance(r.Control.DistToHQ),
		}, nil
	}
	return dataset.New(opts)
}

var pushColumns = []string{"Faction", "System", "Sphere", "Influence", "States", "Buffer", "From HQ", "Updated"}

func comparePush(a, b FactionRecord) int {
	return cmp.Or(
		cmp.Compare(absBuffer(a.Control), absBuffer(b.Control)),
		cmp.Compare(b.Control.Flip.ActiveRatio, a.Control.Flip.ActiveRatio),
		cmp.Compare(a.System.DistToHQ, b.System.DistToHQ),
		cmp.Compare(b.Faction.Influence, a.Faction.Influence),
		byName(a.System, b.System),
		strings.Compare(a.Faction.Name, b.Faction.Name),
		byName(a.Control, b.Control),
	)
}

func pushCells(ctx Context, r FactionRecord) []string {
	return []string{
		FactionLink(r.Faction),
		SystemLink(r.System),
		SystemLink(r.Control),
		Percent(r.Faction.Influence),
		States(r.Faction),
		fmt.Sprintf("%+d", r.Control.Flip.Buffer),
		Distance(r.System.DistToHQ),
		UpdatedAt(r.System.UpdatedAt, ctx.Now),
	}
}

// FavPush lists the strongest favorable faction per system of flippable spheres.
func FavPush(ctx Context, meta Meta) *dataset.DataSet[FactionRecord] {
	opts := options[FactionRecord](ctx, meta, pushColumns...)
	blacklisted(ctx, &opts, func(r FactionRecord) *galaxy.System { return r.Control })
	opts.Compare = comparePush
	opts.Format = func(r FactionRecord) ([]string, error) { return pushCells(ctx, r), nil }
	return dataset.New(opts)
}

// SimpleFavPush is FavPush for priority spheres, highest priority first.
func SimpleFavPush(ctx Context, meta Meta) *dataset.DataSet[FactionRecord] {
	opts := options[FactionRecord](ctx, meta, append([]string{"Priority"}, pushColumns...)...)
	opts.Compare = func(a, b FactionRecord) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), comparePush(a, b))
	}
	opts.Format = func(r FactionRecord) ([]string, error) {
		return append([]string{r.Priority.String()}, pushCells(ctx, r)...), nil
	}
	return dataset.New(opts)
}

var warColumns = []string{"Faction", "System", "Sphere", "States", "Control War", "Flip State", "From HQ", "Updated"}

func compareWar(a, b WarRecord) int {
	_, ba := a.FlipUrgency()
	_, bb := b.FlipUrgency()
	return cmp.Or(
		cmp.Compare(ba, bb),
		cmp.Compare(absBuffer(a.Control), absBuffer(b.Control)),
		cmp.Compare(a.Role.rank(), b.Role.rank()),
		cmp.Compare(a.System.DistToHQ, b.System.DistToHQ),
		byName(a.System, b.System),
		strings.Compare(a.Faction.Name, b.Faction.Name),
		byName(a.Control, b.Control),
	)
}

func warCells(ctx Context, r WarRecord) []string {
	flip, _ := r.FlipUrgency()
	return []string{
		FactionLink(r.Faction),
		SystemLink(r.System),
		SystemLink(r.Control),
		States(r.Faction),
		string(r.Role),
		flip,
		Distance(r.System.DistToHQ),
		UpdatedAt(r.System.UpdatedAt, ctx.Now),
	}
}

// Wars lists favorable factions in conflict, most urgent for the flip state first.
func Wars(ctx Context, meta Meta) *dataset.DataSet[WarRecord] {
	opts := options[WarRecord](ctx, meta, withFort(ctx, warColumns)...)
	blacklisted(ctx, &opts, func(r WarRecord) *galaxy.System { return r.Control })
	opts.Compare = compareWar
	opts.Format = func(r WarRecord) ([]string, error) {
		return fortCell(ctx, warCells(ctx, r), r.Control), nil
	}
	return dataset.New(opts)
}

// SimpleWars is Wars for priority spheres, highest priority first.
func SimpleWars(ctx Context, meta Meta) *dataset.DataSet[WarRecord] {
	opts := options[WarRecord](ctx, meta, append([]string{"Priority"}, warColumns...)...)
	opts.Compare = func(a, b WarRecord) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), compareWar(a, b))
	}
	opts.Format = func(r WarRecord) ([]string, error) {
		return append([]string{r.Priority.String()}, warCells(ctx, r)...), nil
	}
	return dataset.New(opts)
}

// Profit lists spheres by effective profit.
func Profit(ctx Context, meta Meta) *dataset.DataSet[ProfitRecord] {
	opts := options[ProfitRecord](ctx, meta,
		"Control System", "Effective Profit", "Full Profit", "Unique Income", "Income", "Upkeep", "Overhead", "From HQ")
	opts.Compare = func(a, b ProfitRecord) int {
		return cmp.Or(cmp.Compare(b.Effective(), a.Effective()), byName(a.Control, b.Control))
	}
	opts.Format = func(r ProfitRecord) ([]string, error) {
		return []string{
			SystemLink(r.Control),
			CC(r.Effective()),
			CC(r.Profit),
			CC(float64(r.Income - r.Control.Overlap.Income)),
			CC(float64(r.Income)),
			CC(float64(r.Upkeep)),
			CC(r.Overhead),
			Distance(r.Control.DistToHQ),
		}, nil
	}
	return dataset.New(opts)
}

// Income lists spheres by radius income.
func Income(ctx Context, meta Meta) *dataset.DataSet[IncomeRecord] {
	opts := options[IncomeRecord](ctx, meta, "Control System", "Unique Income", "Full Income", "Overlapped Systems", "From HQ")
	opts.Compare = func(a, b IncomeRecord) int {
		return cmp.Or(cmp.Compare(b.Income, a.Income), cmp.Compare(b.Unique(), a.Unique()), byName(a.Control, b.Control))
	}
	opts.Format = func(r IncomeRecord) ([]string, error) {
		return []string{
			SystemLink(r.Control),
			CC(float64(r.Unique())),
			CC(float64(r.Income)),
			itoa(r.Control.Overlap.Systems),
			Distance(r.Control.DistToHQ),
		}, nil
	}
	return dataset.New(opts)
}

// Upkeep lists spheres by upkeep.
func Upkeep(ctx Context, meta Meta) *dataset.DataSet[UpkeepRecord] {
	opts := options[UpkeepRecord](ctx, meta, "Control System", "Upkeep", "From HQ")
	opts.Compare = func(a, b UpkeepRecord) int {
		return cmp.Or(cmp.Compare(b.Upkeep, a.Upkeep), byName(a.Control, b.Control))
	}
	opts.Format = func(r UpkeepRecord) ([]string, error) {
		return []string{SystemLink(r.Control), CC(float64(r.Upkeep)), Distance(r.Control.DistToHQ)}, nil
	}
	return dataset.New(opts)
}

// Trends lists spheres by weekly change of favorable influence.
func Trends(ctx Context, meta Meta) *dataset.DataSet[TrendRecord] {
	opts := options[TrendRecord](ctx, meta, "Control System", "Favorable Influence", "Last 7 Days", "Last 30 Days", "From HQ")
	opts.Compare = func(a, b TrendRecord) int {
		return cmp.Or(
			cmp.Compare(b.Trend.WeekChange(), a.Trend.WeekChange()),
			cmp.Compare(b.Trend.MonthChange(), a.Trend.MonthChange()),
			byName(a.Control, b.Control),
		)
	}
	opts.Format = func(r TrendRecord) ([]string, error) {
		return []string{
			SystemLink(r.Control),
			fmt.Sprintf("%.1f", 100*r.Trend.Now),
			Points(r.Trend.WeekChange()),
			Points(r.Trend.MonthChange()),
			Distance(r.Control.DistToHQ),
		}, nil
	}
	return dataset.New(opts)
}

// Retreats lists noteworthy retreats, most urgent first.
func Retreats(ctx Context, meta Meta) *dataset.DataSet[RetreatRecord] {
	opts := options[RetreatRecord](ctx, meta, "Faction", "System", "Sphere", "Reason", "States", "Buffer", "From HQ", "Updated")
	blacklisted(ctx, &opts, func(r RetreatRecord) *galaxy.System { return r.Control })
	opts.Compare = func(a, b RetreatRecord) int {
		return cmp.Or(
			cmp.Compare(a.Rank, b.Rank),
			cmp.Compare(absBuffer(a.Control), absBuffer(b.Control)),
			cmp.Compare(a.System.DistToHQ, b.System.DistToHQ),
			byName(a.System, b.System),
			strings.Compare(a.Faction.Name, b.Faction.Name),
			byName(a.Control, b.Control),
		)
	}
	opts.Format = func(r RetreatRecord) ([]string, error) {
		return []string{
			FactionLink(r.Faction),
			SystemLink(r.System),
			SystemLink(r.Control),
			r.Info,
			States(r.Faction),
			fmt.Sprintf("%+d", r.Control.Flip.Buffer),
			Distance(r.System.DistToHQ),
			UpdatedAt(r.System.UpdatedAt, ctx.Now),
		}, nil
	}
	return dataset.New(opts)
}

var defenseColumns = []string{"Faction", "System", "Sphere", "Influence", "Lead", "Buffer", "From HQ", "Updated"}

func compareDefense(a, b DefenseRecord) int {
	return cmp.Or(
		cmp.Compare(a.Lead, b.Lead),
		cmp.Compare(absBuffer(a.Control), absBuffer(b.Control)),
		cmp.Compare(a.System.DistToHQ, b.System.DistToHQ),
		byName(a.System, b.System),
		strings.Compare(a.Faction.Name, b.Faction.Name),
		byName(a.Control, b.Control),
	)
}

func defenseCells(ctx Context, r DefenseRecord) []string {
	return []string{
		FactionLink(r.Faction),
		SystemLink(r.System),
		SystemLink(r.Control),
		Percent(r.Faction.Influence),
		Percent(r.Lead),
		fmt.Sprintf("%+d", r.Control.Flip.Buffer),
		Distance(r.System.DistToHQ),
		UpdatedAt(r.System.UpdatedAt, ctx.Now),
	}
}

// Defense lists favorable controllers by influence lead, weakest first.
func Defense(ctx Context, meta Meta) *dataset.DataSet[DefenseRecord] {
	opts := options[DefenseRecord](ctx, meta, defenseColumns...)
	blacklisted(ctx, &opts, func(r DefenseRecord) *galaxy.System { return r.Control })
	opts.Compare = compareDefense
	opts.Format = func(r DefenseRecord) ([]string, error) { return defenseCells(ctx, r), nil }
	return dataset.New(opts)
}

// SimpleDefense is Defense for priority spheres, highest priority first.
func SimpleDefense(ctx Context, meta Meta) *dataset.DataSet[DefenseRecord] {
	opts := options[DefenseRecord](ctx, meta, append([]string{"Priority"}, defenseColumns...)...)
	opts.Compare = func(a, b DefenseRecord) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), compareDefense(a, b))
	}
	opts.Format = func(r DefenseRecord) ([]string, error) {
		return append([]string{r.Priority.String()}, defenseCells(ctx, r)...), nil
	}
	return dataset.New(opts)
}

// Stations lists stations for resource drops, by priority and influence.
func Stations(ctx Context, meta Meta) *dataset.DataSet[StationRecord] {
	opts := options[StationRecord](ctx, meta, "Priority", "Station", "Type", "Arrival", "Faction", "System", "Sphere")
	opts.Compare = func(a, b StationRecord) int {
		return cmp.Or(
			cmp.Compare(a.Priority, b.Priority),
			cmp.Compare(b.Faction.Influence, a.Faction.Influence),
			byName(a.System, b.System),
			strings.Compare(a.Station.Name, b.Station.Name),
			byName(a.Control, b.Control),
		)
	}
	opts.Format = func(r StationRecord) ([]string, error) {
		return []string{
			r.Priority.String(),
			r.Station.Name,
			r.Station.Type,
			fmt.Sprintf("%.0f ls", r.Station.DistanceToArrival),
			FactionLink(r.Faction),
			SystemLink(r.System),
			SystemLink(r.Control),
		}, nil
	}
	return dataset.New(opts)
}

func links(systems []*galaxy.System) string {
	parts := make([]string, 0, len(systems))
	for _, s := range systems {
		parts = append(parts, SystemLink(s))
	}
	return strings.Join(parts, "<br>")
}

// Booms lists booming favorable factions grouped across systems, nearest first.
func Booms(ctx Context, meta Meta) *dataset.DataSet[BoomRecord] {
	opts := options[BoomRecord](ctx, meta, "Faction", "Systems", "Spheres", "Avg From HQ")
	opts.Dedupe = GroupBooms
	opts.Compare = func(a, b BoomRecord) int {
		return cmp.Or(
			cmp.Compare(a.AvgDistance(), b.AvgDistance()),
			strings.Compare(a.Faction.Name, b.Faction.Name),
			cmp.Compare(a.Faction.ID, b.Faction.ID),
			byName(a.Systems[0], b.Systems[0]),
		)
	}
	opts.Format = func(r BoomRecord) ([]string, error) {
		return []string{
			FactionLink(r.Faction),
			links(r.Systems),
			links(r.Spheres),
			Distance(r.AvgDistance()),
		}, nil
	}
	return dataset.New(opts)
}
