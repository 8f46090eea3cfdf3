package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the rounding tolerance used when comparing computed amounts.
// Split conservation and true-up checks hold within one centavo.
var Tolerance = decimal.NewFromFloat(0.01)

var (
	two    = decimal.NewFromInt(2)
	twelve = decimal.NewFromInt(12)
)

// Round2 rounds an amount half-up to two decimal places.
//
// Every derived rate and amount in the engine is rounded at the step it is
// produced, never as a chained floating-point expression, so that a recomputed
// run reproduces historical rows exactly.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Half returns half of the amount rounded to two decimals.
func Half(d decimal.Decimal) decimal.Decimal {
	return Round2(d.Div(two))
}

// NormalizeName canonicalizes a component or header name for lookups:
// trimmed, upper-cased, with interior whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	fields := strings.Fields(strings.ToUpper(name))
	return strings.Join(fields, " ")
}

// SameAmount reports whether two amounts are equal within Tolerance.
func SameAmount(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// PeriodLabel formats the display label of a pay period, e.g.
// "Jan 1 - Jan 15, 2026".
func PeriodLabel(start, end time.Time) string {
	if start.Year() == end.Year() {
		return fmt.Sprintf("%s %d - %s %d, %d",
			start.Format("Jan"), start.Day(), end.Format("Jan"), end.Day(), end.Year())
	}
	return fmt.Sprintf("%s %d, %d - %s %d, %d",
		start.Format("Jan"), start.Day(), start.Year(), end.Format("Jan"), end.Day(), end.Year())
}

// clampDecimal bounds v to the inclusive range [min, max].
func clampDecimal(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

// floorZero returns v, or zero when v is negative.
func floorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// minDecimal returns the smaller of a and b.
func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
