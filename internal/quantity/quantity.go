// Package quantity centralizes rounding and comparison of order quantities.
//
// Quantities travel as float64 but carry at most two decimal places of
// business meaning. Every quantity comparison in the editing engine goes
// through this package so that all flows share one rounding policy and one
// epsilon.
package quantity

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance applied after rounding when two quantities are
// compared for equality.
const Epsilon = 0.0001

// Round2 rounds v half-up to two decimal places.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Sum2 adds vs with exact decimal arithmetic and rounds the total to two
// decimal places.
func Sum2(vs ...float64) float64 {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(decimal.NewFromFloat(v))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// Sub2 returns a minus b rounded to two decimal places.
func Sub2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Equal reports whether a and b differ by less than Epsilon.
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// IsZero reports whether v is within Epsilon of zero.
func IsZero(v float64) bool {
	return math.Abs(v) < Epsilon
}

// Format renders v rounded to two decimal places without trailing zeros,
// e.g. "4", "2.5", "0.25".
func Format(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}
