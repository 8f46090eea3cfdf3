package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxScale selects which duplicated scale of the progressive tax schedule a
// lookup runs against.
type TaxScale string

const (
	ScaleSemiMonthly TaxScale = "semi-monthly"
	ScaleMonthly     TaxScale = "monthly"
	ScaleAnnual      TaxScale = "annual"
)

// TaxBracketRow is one row of a progressive withholding schedule.
// Tax on income within the row is FixedAmount + Rate x (income - Threshold).
// A zero Cap marks the open-ended top row.
type TaxBracketRow struct {
	Threshold   decimal.Decimal `json:"threshold"`
	Cap         decimal.Decimal `json:"cap"`
	FixedAmount decimal.Decimal `json:"fixed_amount"`
	Rate        decimal.Decimal `json:"rate"`
}

// TaxBracketTable is a versioned progressive income-tax schedule duplicated
// across the three time scales. Published tables are immutable.
type TaxBracketTable struct {
	Version       string          `json:"version"`
	Published     bool            `json:"published"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	SemiMonthly   []TaxBracketRow `json:"semi_monthly"`
	Monthly       []TaxBracketRow `json:"monthly"`
	Annual        []TaxBracketRow `json:"annual"`
}

// Covers reports whether the table is published and its validity window
// contains the given date.
func (t *TaxBracketTable) Covers(date time.Time) bool {
	if t == nil || !t.Published {
		return false
	}
	if !t.EffectiveFrom.IsZero() && date.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && date.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// rows returns the bracket rows of the requested scale.
func (t *TaxBracketTable) rows(scale TaxScale) []TaxBracketRow {
	if t == nil {
		return nil
	}
	switch scale {
	case ScaleSemiMonthly:
		return t.SemiMonthly
	case ScaleMonthly:
		return t.Monthly
	case ScaleAnnual:
		return t.Annual
	}
	return nil
}

// Lookup finds the bracket row containing income on the given scale.
// Income above the top row resolves to the top row; a missing or empty
// scale resolves to no row (the caller degrades to zero tax).
func (t *TaxBracketTable) Lookup(scale TaxScale, income decimal.Decimal) (TaxBracketRow, bool) {
	rows := t.rows(scale)
	if len(rows) == 0 {
		return TaxBracketRow{}, false
	}
	for _, row := range rows {
		if income.GreaterThanOrEqual(row.Threshold) &&
			(row.Cap.IsZero() || income.LessThanOrEqual(row.Cap)) {
			return row, true
		}
	}
	// Below the lowest threshold: no tax due.
	if income.LessThan(rows[0].Threshold) {
		return TaxBracketRow{}, false
	}
	return rows[len(rows)-1], true
}

// Tax computes the bracket tax for income on the given scale, rounded
// half-up to two decimals. Missing brackets degrade to zero.
func (t *TaxBracketTable) Tax(scale TaxScale, income decimal.Decimal) decimal.Decimal {
	row, ok := t.Lookup(scale, income)
	if !ok {
		return decimal.Zero
	}
	excess := income.Sub(row.Threshold)
	if excess.IsNegative() {
		excess = decimal.Zero
	}
	return Round2(row.FixedAmount.Add(excess.Mul(row.Rate)))
}

// MarginalRate returns the marginal rate applicable to income on the given
// scale, used by the annualized other-benefit path.
func (t *TaxBracketTable) MarginalRate(scale TaxScale, income decimal.Decimal) decimal.Decimal {
	row, ok := t.Lookup(scale, income)
	if !ok {
		return decimal.Zero
	}
	return row.Rate
}

// ContributionBracketRow is one compensation bracket of the social-insurance
// schedule. The two employee/employer pairs cover the regular and provident
// sub-programs; EmployerCompensation is the flat employer-only amount.
type ContributionBracketRow struct {
	CompensationMin      decimal.Decimal `json:"compensation_min"`
	CompensationMax      decimal.Decimal `json:"compensation_max"`
	EmployeeRegular      decimal.Decimal `json:"employee_regular"`
	EmployeeProvident    decimal.Decimal `json:"employee_provident"`
	EmployerRegular      decimal.Decimal `json:"employer_regular"`
	EmployerProvident    decimal.Decimal `json:"employer_provident"`
	EmployerCompensation decimal.Decimal `json:"employer_compensation"`
}

// ContributionTable is a versioned social-insurance bracket schedule.
// Published tables are immutable.
type ContributionTable struct {
	Version       string                   `json:"version"`
	Published     bool                     `json:"published"`
	EffectiveFrom time.Time                `json:"effective_from"`
	EffectiveTo   *time.Time               `json:"effective_to,omitempty"`
	Rows          []ContributionBracketRow `json:"rows"`
}

// Covers reports whether the table is published and valid at the date.
func (t *ContributionTable) Covers(date time.Time) bool {
	if t == nil || !t.Published {
		return false
	}
	if !t.EffectiveFrom.IsZero() && date.Before(t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && date.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// bracketOutcome tells the contribution calculator how a lookup resolved.
type bracketOutcome int

const (
	bracketExact bracketOutcome = iota
	bracketCeiling
	bracketBelowMinimum
	bracketMissing
)

// lookup finds the row whose compensation range contains base. Compensation
// above the highest row falls back to the top row as a ceiling; compensation
// below the lowest row resolves to no contribution. The legacy behavior of
// applying the top row to sub-minimum compensation is intentionally not kept.
func (t *ContributionTable) lookup(base decimal.Decimal) (ContributionBracketRow, bracketOutcome) {
	if t == nil || len(t.Rows) == 0 {
		return ContributionBracketRow{}, bracketMissing
	}
	for _, row := range t.Rows {
		if base.GreaterThanOrEqual(row.CompensationMin) &&
			(row.CompensationMax.IsZero() || base.LessThanOrEqual(row.CompensationMax)) {
			return row, bracketExact
		}
	}
	if base.LessThan(t.Rows[0].CompensationMin) {
		return ContributionBracketRow{}, bracketBelowMinimum
	}
	return t.Rows[len(t.Rows)-1], bracketCeiling
}
