package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PeriodHalf labels the accounting scope of a run within the month.
type PeriodHalf string

const (
	HalfA       PeriodHalf = "A"
	HalfB       PeriodHalf = "B"
	HalfMonthly PeriodHalf = "Monthly"
	HalfSpecial PeriodHalf = "Special"
)

// ContributionPrior carries the employee-side amounts Half A already took,
// read from the prior-taken ledger. Half B true-ups against these.
type ContributionPrior struct {
	SSSRegularEE   decimal.Decimal
	SSSProvidentEE decimal.Decimal
	HealthEE       decimal.Decimal
	HousingEE      decimal.Decimal

	// EmployerTaken reports whether employer-side amounts were already
	// posted this month. Employer shares are never split: they post once,
	// in full.
	EmployerTaken bool
}

// ContributionInput is one employee's statutory contribution request for a
// period.
type ContributionInput struct {
	// SocialBase is the monthly compensation base for the social-insurance
	// bracket lookup; HealthBase feeds the health-insurance percentage.
	// They differ in Half B, where the health base is reconstructed from
	// Half A's basic-related disbursements.
	SocialBase decimal.Decimal
	HealthBase decimal.Decimal

	Half       PeriodHalf
	DailyBasis bool

	PWD        bool
	NonCitizen bool

	// RetirementApplied stops social-insurance contributions; the employee
	// has filed for retirement with the social-insurance program.
	RetirementApplied bool

	Prior ContributionPrior
}

// ContributionResult holds the period amounts per program and side. All
// amounts are positive magnitudes; the runner records employee shares as
// deductions. Half B employee amounts can be negative, which is a refund of
// a Half A over-deduction.
type ContributionResult struct {
	SSSRegularEE      decimal.Decimal
	SSSProvidentEE    decimal.Decimal
	SSSRegularER      decimal.Decimal
	SSSProvidentER    decimal.Decimal
	SSSCompensationER decimal.Decimal

	HealthEE decimal.Decimal
	HealthER decimal.Decimal

	HousingEE decimal.Decimal
	HousingER decimal.Decimal

	Warnings []Warning
}

// TotalEmployee returns the combined employee-side contribution for the
// period, used when reducing taxable income.
func (r ContributionResult) TotalEmployee() decimal.Decimal {
	return r.SSSRegularEE.Add(r.SSSProvidentEE).Add(r.HealthEE).Add(r.HousingEE)
}

// ContributionCalculator computes statutory contributions from a bracket
// table and the tenant's statutory constants. It is pure; a nil or empty
// table degrades to zero amounts so statutory tables can be edited freely.
type ContributionCalculator struct {
	table *ContributionTable
	cfg   StatutoryConfig
}

// NewContributionCalculator builds a calculator over a bracket table.
func NewContributionCalculator(table *ContributionTable, cfg StatutoryConfig) *ContributionCalculator {
	return &ContributionCalculator{table: table, cfg: cfg}
}

// monthlyAmounts resolves the full-month amounts for every program before
// period apportionment.
type monthlyAmounts struct {
	sssRegularEE, sssProvidentEE decimal.Decimal
	sssRegularER, sssProvidentER decimal.Decimal
	sssCompensationER            decimal.Decimal
	healthEE, healthER           decimal.Decimal
	housingEE, housingER         decimal.Decimal
}

func (c *ContributionCalculator) monthly(in ContributionInput) (monthlyAmounts, []Warning) {
	var m monthlyAmounts
	var warnings []Warning

	row, outcome := c.table.lookup(in.SocialBase)
	switch outcome {
	case bracketExact:
		m.sssRegularEE = row.EmployeeRegular
		m.sssProvidentEE = row.EmployeeProvident
		m.sssRegularER = row.EmployerRegular
		m.sssProvidentER = row.EmployerProvident
		m.sssCompensationER = row.EmployerCompensation
	case bracketCeiling:
		m.sssRegularEE = row.EmployeeRegular
		m.sssProvidentEE = row.EmployeeProvident
		m.sssRegularER = row.EmployerRegular
		m.sssProvidentER = row.EmployerProvident
		m.sssCompensationER = row.EmployerCompensation
		warnings = append(warnings, Warning{
			Code:    WarnBracketCeiling,
			Message: fmt.Sprintf("compensation base %s above highest bracket, top row applied", in.SocialBase.StringFixed(2)),
		})
	case bracketBelowMinimum:
		warnings = append(warnings, Warning{
			Code:    WarnBelowMinimumBase,
			Message: fmt.Sprintf("compensation base %s below lowest bracket, no contribution", in.SocialBase.StringFixed(2)),
		})
	case bracketMissing:
		// Fail open: missing tables compute zero; the runner decides
		// whether that is fatal for the run.
	}

	if c.cfg.HealthRate.IsPositive() {
		base := clampDecimal(in.HealthBase, c.cfg.HealthMinBase, c.cfg.HealthMaxBase)
		premium := Round2(base.Mul(c.cfg.HealthRate))
		m.healthEE = Half(premium)
		m.healthER = premium.Sub(m.healthEE)
	}

	if c.cfg.HousingEmployeeRate.IsPositive() || c.cfg.HousingEmployerRate.IsPositive() {
		base := minDecimal(in.SocialBase, c.cfg.HousingBaseCap)
		if base.IsPositive() {
			m.housingEE = Round2(base.Mul(c.cfg.HousingEmployeeRate))
			m.housingER = Round2(base.Mul(c.cfg.HousingEmployerRate))
		}
	}

	return m, warnings
}

// Calculate apportions the monthly statutory amounts to the requested
// period scope.
//
// Half A takes half of every employee share (full for social and health
// insurance on a daily pay basis) and defers employer shares to Half B.
// Half B is a true-up, not a half: each employee share is the full monthly
// amount minus whatever A already took, which can go negative when a
// mid-month compensation change makes A an over-deduction. Monthly runs take
// everything in full; special runs mirror Half A.
func (c *ContributionCalculator) Calculate(in ContributionInput) ContributionResult {
	m, warnings := c.monthly(in)
	var out ContributionResult
	out.Warnings = warnings

	switch in.Half {
	case HalfMonthly:
		out.SSSRegularEE = m.sssRegularEE
		out.SSSProvidentEE = m.sssProvidentEE
		out.HealthEE = m.healthEE
		out.HousingEE = m.housingEE
		out.SSSRegularER = m.sssRegularER
		out.SSSProvidentER = m.sssProvidentER
		out.SSSCompensationER = m.sssCompensationER
		out.HealthER = m.healthER
		out.HousingER = m.housingER

	case HalfA, HalfSpecial:
		if in.DailyBasis && in.Half == HalfA {
			// Daily earners may not appear in Half B at all, so the
			// insurance programs collect in full up front.
			out.SSSRegularEE = m.sssRegularEE
			out.SSSProvidentEE = m.sssProvidentEE
			out.HealthEE = m.healthEE
			out.SSSRegularER = m.sssRegularER
			out.SSSProvidentER = m.sssProvidentER
			out.SSSCompensationER = m.sssCompensationER
			out.HealthER = m.healthER
			halfFloor := Half(c.cfg.HousingMonthlyFloor)
			half := Half(m.housingEE)
			if half.IsPositive() && half.LessThan(halfFloor) {
				half = halfFloor
			}
			out.HousingEE = half
			out.HousingER = m.housingER
		} else {
			out.SSSRegularEE = Half(m.sssRegularEE)
			out.SSSProvidentEE = Half(m.sssProvidentEE)
			out.HealthEE = Half(m.healthEE)
			out.HousingEE = Half(m.housingEE)
			// Employer shares deferred to Half B.
		}

	case HalfB:
		out.SSSRegularEE = m.sssRegularEE.Sub(in.Prior.SSSRegularEE)
		out.SSSProvidentEE = m.sssProvidentEE.Sub(in.Prior.SSSProvidentEE)
		out.HealthEE = m.healthEE.Sub(in.Prior.HealthEE)
		out.HousingEE = m.housingEE.Sub(in.Prior.HousingEE)
		if !in.Prior.EmployerTaken {
			out.SSSRegularER = m.sssRegularER
			out.SSSProvidentER = m.sssProvidentER
			out.SSSCompensationER = m.sssCompensationER
			out.HealthER = m.healthER
			out.HousingER = m.housingER
		}
	}

	// Exemptions apply after computation, not before, so the bracket math
	// above stays uniform.
	if in.PWD {
		out.HealthEE = decimal.Zero
		out.HealthER = decimal.Zero
	}
	if in.NonCitizen {
		out.HousingEE = decimal.Zero
		out.HousingER = decimal.Zero
	}
	if in.RetirementApplied {
		out.SSSRegularEE = decimal.Zero
		out.SSSProvidentEE = decimal.Zero
		out.SSSRegularER = decimal.Zero
		out.SSSProvidentER = decimal.Zero
		out.SSSCompensationER = decimal.Zero
	}

	return out
}
