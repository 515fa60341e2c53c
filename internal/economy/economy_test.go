package economy

import (
	"math"
	"testing"
)

func TestIncome(t *testing.T) {
	tests := []struct {
		population int64
		want       int
	}{
		{0, 0},
		{-5, 0},
		{1, 4},
		{3163, 5},
		{1_000_000, 7},
		{31_625_000_000, 11},
		{1 << 62, 11},
	}

	for _, tt := range tests {
		got := Income(tt.population)
		if got != tt.want {
			t.Errorf("Income(%d) = %d, want %d", tt.population, got, tt.want)
		}
	}
}

func TestIncome_PowersOfTen(t *testing.T) {
	for k := 0; k <= 12; k++ {
		pop := int64(math.Round(3.1625*math.Pow(10, float64(k)))) + 1
		want := min(max(k, 2), 9) + 2
		if got := Income(pop); got != want {
			t.Errorf("Income(3.1625e%d) = %d, want %d", k, got, want)
		}
	}
}

func TestIncome_NonDecreasing(t *testing.T) {
	prev := Income(1)
	for p := int64(2); p < 50_000_000_000; p = p*3/2 + 1 {
		got := Income(p)
		if got < prev {
			t.Fatalf("Income decreased at %d: %d < %d", p, got, prev)
		}
		prev = got
	}
}

func TestUpkeep(t *testing.T) {
	if got := Upkeep(0); got != 20 {
		t.Errorf("Upkeep(0) = %d, want 20", got)
	}
	if got := Upkeep(-3); got != 20 {
		t.Errorf("Upkeep(-3) = %d, want 20", got)
	}
	if got := Upkeep(100); got != 31 {
		t.Errorf("Upkeep(100) = %d, want 31", got)
	}
}

func TestUpkeep_IncreasesWithDistance(t *testing.T) {
	prev := Upkeep(1)
	for d := 10.0; d <= 400; d += 10 {
		got := Upkeep(d)
		if got < prev {
			t.Fatalf("Upkeep decreased at %v: %d < %d", d, got, prev)
		}
		prev = got
	}
	if Upkeep(400) <= Upkeep(50) {
		t.Errorf("Upkeep(400)=%d should exceed Upkeep(50)=%d", Upkeep(400), Upkeep(50))
	}
}

func TestOverhead(t *testing.T) {
	if got := Overhead(0); got != 0 {
		t.Errorf("Overhead(0) = %v, want 0", got)
	}

	// Quadratic regime: doubling n quadruples the per-system share.
	small, double := Overhead(10), Overhead(20)
	if ratio := double / small; math.Abs(ratio-4) > 1e-9 {
		t.Errorf("Overhead(20)/Overhead(10) = %v, want 4", ratio)
	}

	// Linear regime: flat at the cap.
	for _, n := range []int{60, 100, 500} {
		if got := Overhead(n); math.Abs(got-OverheadCap()) > 1e-9 {
			t.Errorf("Overhead(%d) = %v, want cap %v", n, got, OverheadCap())
		}
	}

	// Crossover sits between the two regimes.
	if Overhead(42) >= OverheadCap() {
		t.Errorf("Overhead(42) = %v should still be below the cap", Overhead(42))
	}
}

func TestProfit(t *testing.T) {
	if got := Profit(30, 22, 4.25); got != 3.8 {
		t.Errorf("Profit = %v, want 3.8", got)
	}
}
