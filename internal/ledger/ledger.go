// Package ledger holds the pure arithmetic of the fund-accounting engine:
// currency conversion, the floor-based split policies, and the rounding
// tolerance used by the trial balance. No I/O.
//
// Amounts are carried as float64 at the API and storage boundaries (the
// KES figures are whole-shilling in practice); computations go through
// shopspring/decimal so products like 10000 * 12.10 come out exact.
package ledger

import "github.com/shopspring/decimal"

// KesEquivalent returns sekAmount * exchangeRate, the KES value persisted
// on a donation at creation time.
func KesEquivalent(sekAmount, exchangeRate float64) float64 {
	v, _ := decimal.NewFromFloat(sekAmount).
		Mul(decimal.NewFromFloat(exchangeRate)).
		Float64()
	return v
}

// FloorShare returns floor(total * ratio / totalRatio), one group's share of
// a proportional disbursement. Truncation is deliberate: the sum of all
// shares never exceeds total, any remainder stays in main cash.
func FloorShare(total, ratio, totalRatio float64) float64 {
	v, _ := decimal.NewFromFloat(total).
		Mul(decimal.NewFromFloat(ratio)).
		Div(decimal.NewFromFloat(totalRatio)).
		Floor().
		Float64()
	return v
}

// EqualSplit returns floor(total / n), the per-beneficiary amount of an
// equal-split payment run. The undistributed remainder (< n) stays in the
// group balance.
func EqualSplit(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(total).
		Div(decimal.NewFromInt(int64(n))).
		Floor().
		Float64()
	return v
}

// CentsEqual compares two amounts at 2-decimal granularity. Used for the
// trial balance isBalanced check instead of float equality.
func CentsEqual(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}
