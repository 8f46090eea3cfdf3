package payroll

import (
	"github.com/shopspring/decimal"
)

// TaxInput is one employee's withholding computation request for a period.
type TaxInput struct {
	// TaxableIncome is the regular (non-benefit) taxable income for the
	// period, already net of employee-side contributions and floored at
	// zero by the runner.
	TaxableIncome decimal.Decimal

	Half PeriodHalf

	// PriorHalfTaxable and PriorHalfTax are Half A's recorded taxable
	// income and withheld amount, used by the Half B true-up.
	PriorHalfTaxable decimal.Decimal
	PriorHalfTax     decimal.Decimal

	// Consultant switches to the flat-rate path, bypassing brackets and
	// period splitting entirely.
	Consultant     bool
	ConsultantRate decimal.Decimal

	// MinimumWage forces zero tax regardless of income.
	MinimumWage bool

	// BenefitPayment is this period's 13th-month / other-benefit amount,
	// YTDBenefit the cumulative category total before this payment, and
	// ProjectedAnnualTaxable the projected annual regular income used to
	// find the marginal rate for the excess over the exemption ceiling.
	BenefitPayment         decimal.Decimal
	YTDBenefit             decimal.Decimal
	ProjectedAnnualTaxable decimal.Decimal
}

// TaxResult is a signed withholding amount: negative means a deduction from
// pay. RegularTax is the periodic bracket portion; BenefitTax the annualized
// marginal-rate tax on the benefit excess.
type TaxResult struct {
	RegularTax decimal.Decimal
	BenefitTax decimal.Decimal
}

// Total is the combined signed withholding amount for the period.
func (r TaxResult) Total() decimal.Decimal {
	return r.RegularTax.Add(r.BenefitTax)
}

// WithholdingCalculator computes periodic withholding tax from the
// progressive bracket table and the benefit exemption ceiling. A nil or
// empty table degrades to zero tax; the runner enforces the fatal
// missing-table contract.
type WithholdingCalculator struct {
	table *TaxBracketTable
	cfg   StatutoryConfig
}

// NewWithholdingCalculator builds a calculator over a tax bracket table.
func NewWithholdingCalculator(table *TaxBracketTable, cfg StatutoryConfig) *WithholdingCalculator {
	return &WithholdingCalculator{table: table, cfg: cfg}
}

// Calculate returns the signed withholding for the period.
//
// Monthly runs look up the monthly scale; Half A the semi-monthly scale on
// its own income. Half B recomputes the monthly tax on A's income plus this
// period's and subtracts what A withheld, floored at zero: the sum of A and
// B always equals one monthly bracket computation, and an over-withheld A
// surfaces as a net-pay refund, never as negative tax.
func (w *WithholdingCalculator) Calculate(in TaxInput) TaxResult {
	var out TaxResult

	if in.MinimumWage {
		return out
	}

	if in.Consultant {
		out.RegularTax = Round2(in.TaxableIncome.Mul(in.ConsultantRate)).Neg()
		return out
	}

	switch in.Half {
	case HalfMonthly:
		out.RegularTax = w.table.Tax(ScaleMonthly, in.TaxableIncome).Neg()
	case HalfB:
		monthlyTax := w.table.Tax(ScaleMonthly, in.PriorHalfTaxable.Add(in.TaxableIncome))
		out.RegularTax = floorZero(monthlyTax.Sub(in.PriorHalfTax)).Neg()
	default: // Half A and special runs use the semi-monthly scale alone.
		out.RegularTax = w.table.Tax(ScaleSemiMonthly, in.TaxableIncome).Neg()
	}

	out.BenefitTax = w.benefitTax(in)
	return out
}

// benefitTax taxes the portion of this period's benefit payment that pushes
// the cumulative YTD total past the annual exemption ceiling. The excess is
// not run through the periodic bracket; it is taxed flat at the marginal
// annual rate of the projected annual income.
func (w *WithholdingCalculator) benefitTax(in TaxInput) decimal.Decimal {
	if !in.BenefitPayment.IsPositive() {
		return decimal.Zero
	}
	ceiling := w.cfg.BenefitExemptionCeiling
	excessAfter := floorZero(in.YTDBenefit.Add(in.BenefitPayment).Sub(ceiling))
	excessBefore := floorZero(in.YTDBenefit.Sub(ceiling))
	taxablePortion := excessAfter.Sub(excessBefore)
	if !taxablePortion.IsPositive() {
		return decimal.Zero
	}
	rate := w.table.MarginalRate(ScaleAnnual, in.ProjectedAnnualTaxable)
	return Round2(taxablePortion.Mul(rate)).Neg()
}

// AnnualTax computes the annual bracket tax for a year's taxable income,
// used by the annualization engine.
func (w *WithholdingCalculator) AnnualTax(taxable decimal.Decimal) decimal.Decimal {
	return w.table.Tax(ScaleAnnual, taxable)
}

// MonthlyTax computes one month's bracket tax, used by the projection
// engine when simulating the remaining months of the year.
func (w *WithholdingCalculator) MonthlyTax(taxable decimal.Decimal) decimal.Decimal {
	return w.table.Tax(ScaleMonthly, taxable)
}
