package report

import (
	"fmt"
	"math"

	"github.com/bgsforge/powerstate/internal/dataset"
)

const formulaNote = "CC values calculated with experimental formulas."

// Set holds every data set of one report run. The aggregator adds records;
// Advanced and Simple arrange them into documents.
type Set struct {
	Wars        *dataset.DataSet[WarRecord]
	Retreats    *dataset.DataSet[RetreatRecord]
	Unfavorable *dataset.DataSet[SphereRecord]
	Incomplete  *dataset.DataSet[SphereRecord]
	FavPush     *dataset.DataSet[FactionRecord]
	Active      *dataset.DataSet[SphereRecord]
	Defense     *dataset.DataSet[DefenseRecord]
	Impossible  *dataset.DataSet[SphereRecord]
	Profit      *dataset.DataSet[ProfitRecord]
	Upkeep      *dataset.DataSet[UpkeepRecord]
	Income      *dataset.DataSet[IncomeRecord]
	Trends      *dataset.DataSet[TrendRecord]
	Booms       *dataset.DataSet[BoomRecord]

	SimpleSpheres  *dataset.DataSet[SphereRecord]
	SimpleWars     *dataset.DataSet[WarRecord]
	SimpleStations *dataset.DataSet[StationRecord]
	SimpleFavPush  *dataset.DataSet[FactionRecord]
	SimpleDefense  *dataset.DataSet[DefenseRecord]

	Totals Totals
}

// NewSet creates the empty data sets.
func NewSet(ctx Context) *Set {
	return &Set{
		Wars:     Wars(ctx, Meta{Title: "Warring favorable factions", Icon: "combat"}),
		Retreats: Retreats(ctx, Meta{Title: "Noteworthy retreats", Icon: "combat"}),
		Unfavorable: Unfavorable(ctx, Meta{
			Title: "Control systems that are UNFAVORABLE", Icon: "covert",
		}),
		Incomplete: FlipStates(ctx, Meta{
			Title: "Control systems without active fortification bonus where possible", Icon: "fortify",
		}),
		FavPush: FavPush(ctx, Meta{
			Title: "Best factions to push for flipping", Icon: "fortify",
			Description: "Shows the best factions in their system if there is no favorable one in control and the sphere is flippable.",
		}),
		Active: FlipStates(ctx, Meta{Title: "Control systems with active fortification bonus", Icon: "fortify"}),
		Defense: Defense(ctx, Meta{
			Title: "Best factions to push for defense", Icon: "fortify",
			Description: "Shows favorable factions that are in control but do not have a high lead.",
		}),
		Impossible: FlipStates(ctx, Meta{
			Title: "Control systems with impossible fortification bonus", Icon: "fortify",
			Description: "These do not have favorable factions in enough exploited systems (50% cannot be reached).",
		}),
		Profit: Profit(ctx, Meta{Title: "Control systems by profit", Icon: "finance", Description: formulaNote}),
		Upkeep: Upkeep(ctx, Meta{Title: "Control systems by upkeep costs", Icon: "finance", Description: formulaNote}),
		Income: Income(ctx, Meta{Title: "Control systems by radius income", Icon: "finance", Description: formulaNote}),
		Trends: Trends(ctx, Meta{
			Title: "Favorable factions influence movements", Icon: "eye",
			Description: "Lists control spheres by changes in total percent points of influence in favorables.",
		}),
		Booms: Booms(ctx, Meta{
			Title: "Booming favorable factions", Icon: "finance",
			Description: "Favorable factions in an active boom, grouped over all their systems.",
		}),

		SimpleSpheres: SimpleFlipStates(ctx, Meta{
			Title: "Control systems to focus on", Icon: "fortify",
			Description: "These are the spheres we want to focus on.",
		}),
		SimpleWars: SimpleWars(ctx, Meta{Title: "Wars to support", Icon: "combat"}),
		SimpleStations: Stations(ctx, Meta{
			Title: "Recommended stations for data drops", Icon: "finance",
			Description: "Stations with factions we want to push in control.",
		}),
		SimpleFavPush: SimpleFavPush(ctx, Meta{
			Title: "Best factions to push for flipping", Icon: "fortify",
			Description: "Shows the best factions in their system for all our priority spheres.",
		}),
		SimpleDefense: SimpleDefense(ctx, Meta{
			Title: "Best factions to push for defense", Icon: "fortify",
			Description: "Shows favorable factions that are in control but do not have a high lead.",
		}),
	}
}

// Totals are the power-wide economics.
type Totals struct {
	Income    int     `yaml:"income" json:"income"`
	Upkeep    int     `yaml:"upkeep" json:"upkeep"`
	Overheads float64 `yaml:"overheads" json:"overheads"`
}

// ProfitNoFort is the expected profit when no sphere is fortified.
func (t Totals) ProfitNoFort() float64 { return float64(t.Income-t.Upkeep) - t.Overheads }

// ProfitFullFort is the expected profit when every sphere is fortified.
func (t Totals) ProfitFullFort() float64 { return float64(t.Income) - t.Overheads }

// Description summarizes the totals for the profit block.
func (t Totals) Description() string {
	return fmt.Sprintf("%s<br><br>**Totals:** Income %s, Upkeep %s, Overheads %s<br>"+
		"Expected Profit (No fortification) %s<br>Expected Profit (Full fortification) %s",
		formulaNote,
		CC(float64(t.Income)), CC(float64(t.Upkeep)), CC(math.Round(t.Overheads)),
		CC(math.Round(t.ProfitNoFort())), CC(math.Round(t.ProfitFullFort())))
}

// SetTotals records the totals and updates the profit description.
func (s *Set) SetTotals(t Totals) {
	s.Totals = t
	s.Profit.SetDescription(t.Description())
}

// Advanced arranges the full report.
func (s *Set) Advanced(p Preamble) *Document {
	return &Document{
		Kind:     KindAdvanced,
		Preamble: p,
		Sections: []Section{
			{Block: s.Wars},
			{Block: s.Retreats},
			{Block: s.Unfavorable},
			{Block: s.Incomplete},
			{Block: s.FavPush},
			{Block: s.Active},
			{Block: s.Defense},
			{Block: s.Impossible},
			{Block: s.Profit},
			{Block: s.Upkeep},
			{Block: s.Income},
			{Block: s.Trends},
			{Block: s.Booms},
		},
	}
}

// Simple arranges the priority-only report.
func (s *Set) Simple(p Preamble) *Document {
	return &Document{
		Kind:     KindSimple,
		Preamble: p,
		Sections: []Section{
			{Block: s.SimpleSpheres},
			{Block: s.SimpleWars, Optional: true},
			{Block: s.SimpleStations, Optional: true},
			{Block: s.SimpleFavPush, Optional: true},
			{Block: s.SimpleDefense, Optional: true},
		},
	}
}

// Blocks returns every data set in advanced-then-simple order, for
// format-independent exports.
func (s *Set) Blocks() []dataset.Block {
	return []dataset.Block{
		s.Wars, s.Retreats, s.Unfavorable, s.Incomplete, s.FavPush, s.Active,
		s.Defense, s.Impossible, s.Profit, s.Upkeep, s.Income, s.Trends, s.Booms,
		s.SimpleSpheres, s.SimpleWars, s.SimpleStations, s.SimpleFavPush, s.SimpleDefense,
	}
}
