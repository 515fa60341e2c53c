// Package economy implements the empirical Powerplay CC formulas.
//
// The constants are curve fits against observed in-game values. They are not
// derived from anything and must be kept exactly as they are.
package economy

import "math"

const (
	// incomePopulationDivisor scales population before the log10 tier lookup.
	incomePopulationDivisor = 3.1625
	incomeMinTier           = 2
	incomeMaxTier           = 9
	incomeTierOffset        = 2

	// BaseUpkeep is charged for the headquarters and anything at distance 0.
	BaseUpkeep = 20

	upkeepA     = 1.977e-7
	upkeepB     = 9.336e-4
	upkeepC     = 6.933e-3
	upkeepConst = 20.333

	overheadScale   = 11.5
	overheadKnee    = 42.0
	overheadLinearK = 5.4
)

// Income returns the CC radius income tier contributed by a system.
func Income(population int64) int {
	if population <= 0 {
		return 0
	}
	tier := int(math.Floor(math.Log10(float64(population) / incomePopulationDivisor)))
	tier = min(max(tier, incomeMinTier), incomeMaxTier)
	return tier + incomeTierOffset
}

// Upkeep returns the CC upkeep of a control system dist light years from HQ.
func Upkeep(dist float64) int {
	if dist <= 0 {
		return BaseUpkeep
	}
	v := upkeepA*dist*dist*dist + upkeepB*dist*dist + upkeepC*dist + upkeepConst
	return int(math.Round(v))
}

// Overhead returns the per-system share of the power's overhead for a power
// holding n systems. It grows with n² until the linear cap takes over.
func Overhead(n int) float64 {
	if n <= 0 {
		return 0
	}
	fn := float64(n)
	cubic := math.Pow(overheadScale*fn/overheadKnee, 3)
	linear := overheadLinearK * overheadScale * fn
	return math.Min(cubic, linear) / fn
}

// OverheadCap is the value Overhead converges to for large powers.
func OverheadCap() float64 {
	return overheadLinearK * overheadScale
}

// Profit is income minus upkeep and overhead, rounded to one decimal.
func Profit(income, upkeep int, overhead float64) float64 {
	return math.Round((float64(income)-float64(upkeep)-overhead)*10) / 10
}
