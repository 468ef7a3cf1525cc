// Package trust derives a per-member composite score from savings level,
// repayment behavior and meeting attendance. The score is advisory: it backs
// dashboard coloring and officer-eligibility hints, never an enforcement
// gate.
package trust

import (
	"math"

	"github.com/shopspring/decimal"
)

// Component weights. Savings and repayment dominate; attendance is a
// tie-breaker.
const (
	savingsWeight    = 0.4
	repaymentWeight  = 0.4
	attendanceWeight = 0.2
)

// DefaultSavingsCeiling is the savings level that earns full marks on the
// savings component.
var DefaultSavingsCeiling = decimal.NewFromInt(50000)

// Score computes the composite trust score with the default savings ceiling.
// See ScoreWithCeiling.
func Score(savings decimal.Decimal, repaymentPct, attendancePct float64) int {
	return ScoreWithCeiling(savings, repaymentPct, attendancePct, DefaultSavingsCeiling)
}

// ScoreWithCeiling computes
//
//	round(0.4×normalizedSavings + 0.4×repaymentPct + 0.2×attendancePct)
//
// where normalizedSavings = min(100, savings/ceiling×100). Pure and total:
// out-of-range inputs are clamped so the result is always in [0, 100].
func ScoreWithCeiling(savings decimal.Decimal, repaymentPct, attendancePct float64, ceiling decimal.Decimal) int {
	if !ceiling.IsPositive() {
		ceiling = DefaultSavingsCeiling
	}

	normalizedSavings := savings.
		Div(ceiling).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
	normalizedSavings = clamp(normalizedSavings)

	score := savingsWeight*normalizedSavings +
		repaymentWeight*clamp(repaymentPct) +
		attendanceWeight*clamp(attendancePct)

	return int(math.Round(clamp(score)))
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
