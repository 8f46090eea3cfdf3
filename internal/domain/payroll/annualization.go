package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sweldo/engine/internal/domain/shared"
)

// PreviousEmployerSummary carries the BIR 2316 figures of an employee's
// previous employer within the same tax year, merged additively into the
// annual reconciliation.
type PreviousEmployerSummary struct {
	TaxableIncome decimal.Decimal `json:"taxable_income"`
	NonTaxable    decimal.Decimal `json:"non_taxable"`
	TaxWithheld   decimal.Decimal `json:"tax_withheld"`
}

// AnnualInput is the shared input of the three annualization consumers.
type AnnualInput struct {
	Employee EmployeeRecord
	History  []*OutputRow // posted rows of the tax year, any order

	TaxTable *TaxBracketTable
	Config   StatutoryConfig

	Components       map[string]ComponentCategory
	PreviousEmployer *PreviousEmployerSummary
}

// AnnualSummary is one employee's year-to-date rollup and reconciliation.
type AnnualSummary struct {
	EmployeeCode string                                `json:"employee_code"`
	Categories   map[ComponentCategory]decimal.Decimal `json:"categories"`

	TotalContributions decimal.Decimal `json:"total_contributions"`
	TotalWithheld      decimal.Decimal `json:"total_withheld"`
	TaxableIncome      decimal.Decimal `json:"taxable_income"`
	AnnualTaxDue       decimal.Decimal `json:"annual_tax_due"`

	// TaxDifference = AnnualTaxDue - TotalWithheld. Positive means the
	// employee owes additional tax, negative a refund due.
	TaxDifference decimal.Decimal `json:"tax_difference"`
}

// AnnualProjection is the mid-year estimate of the year-end position.
type AnnualProjection struct {
	EmployeeCode string `json:"employee_code"`

	MonthsSeen       int  `json:"months_seen"`
	CutoffsSeen      int  `json:"cutoffs_seen"`
	CutoffsRemaining int  `json:"cutoffs_remaining"`
	Resigned         bool `json:"resigned"`

	YTDTaxable  decimal.Decimal `json:"ytd_taxable"`
	YTDWithheld decimal.Decimal `json:"ytd_withheld"`

	ProjectedTaxable   decimal.Decimal `json:"projected_taxable"`
	ProjectedAnnualTax decimal.Decimal `json:"projected_annual_tax"`
	ProjectedWithheld  decimal.Decimal `json:"projected_withheld"`

	// RemainingLiability is the projected year-end shortfall after the
	// simulated remaining monthly withholding; PerCutoffAdjustment spreads
	// it evenly across the remaining pay cutoffs.
	RemainingLiability  decimal.Decimal `json:"remaining_liability"`
	PerCutoffAdjustment decimal.Decimal `json:"per_cutoff_adjustment"`
}

// FinalPayItems are the one-time separation line items.
type FinalPayItems struct {
	UnpaidSalary       decimal.Decimal `json:"unpaid_salary"`
	ProRatedThirteenth decimal.Decimal `json:"pro_rated_thirteenth"`
	LeaveConversion    decimal.Decimal `json:"leave_conversion"`
	Severance          decimal.Decimal `json:"severance"`
}

// FinalPaySettlement is the separation settlement: one tax true-up over the
// full year plus the gross/net of the separation payment alone.
type FinalPaySettlement struct {
	EmployeeCode string        `json:"employee_code"`
	Items        FinalPayItems `json:"items"`
	Summary      AnnualSummary `json:"summary"`

	// TaxTrueUp is the signed withholding adjustment written back at
	// separation: negative withholds the shortfall, positive refunds the
	// excess. Applying it brings cumulative withholding to the annual due.
	TaxTrueUp decimal.Decimal `json:"tax_true_up"`

	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
}

// Annualizer reconciles cumulative withholding against the true annual tax
// liability. Like the runners it is pure: history rows are read-only input.
type Annualizer struct {
	logger *zap.Logger
}

// NewAnnualizer creates an annualizer. A nil logger disables logging.
func NewAnnualizer(logger *zap.Logger) *Annualizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Annualizer{logger: logger}
}

// rollup accumulates per-category totals from historical rows, skipping
// employer-side contribution columns and derived totals.
func (a *Annualizer) rollup(in AnnualInput) *AnnualSummary {
	classifier := NewClassifier(in.Components)
	summary := &AnnualSummary{
		EmployeeCode: in.Employee.Code,
		Categories:   make(map[ComponentCategory]decimal.Decimal),
	}

	employeeContribCols := map[string]bool{
		ColSSSEmployee:        true,
		ColSSSProvidentEE:     true,
		ColPhilHealthEmployee: true,
		ColPagIBIGEmployee:    true,
	}

	for _, row := range in.History {
		for _, col := range row.Columns() {
			value := row.Get(col)
			switch {
			case employerColumns[col] || derivedColumns[col]:
				continue
			case col == ColWithholdingTax:
				summary.TotalWithheld = summary.TotalWithheld.Add(value.Abs())
			case employeeContribCols[col]:
				summary.TotalContributions = summary.TotalContributions.Add(value.Abs())
			case col == ColBasicPay:
				summary.Categories[CategoryBasicPayRelated] = summary.Categories[CategoryBasicPayRelated].Add(value)
			default:
				cat := classifier.Classify(col)
				if cat == CategoryUnclassified {
					cat = CategoryTaxableEarning
				}
				summary.Categories[cat] = summary.Categories[cat].Add(value)
			}
		}
	}

	return summary
}

// taxableFromRollup derives annual taxable income from category totals:
// basic-related plus taxable earnings minus employee contributions, floored
// at zero. Minimum-wage earners have their basic pay and overtime
// reclassified as non-taxable first.
func (a *Annualizer) taxableFromRollup(in AnnualInput, summary *AnnualSummary) decimal.Decimal {
	basicRelated := summary.Categories[CategoryBasicPayRelated]
	taxable := summary.Categories[CategoryTaxableEarning]

	if in.Employee.IsMinimumWage {
		reclassified := basicRelated.Add(taxable)
		summary.Categories[CategoryNonTaxableOther] = summary.Categories[CategoryNonTaxableOther].Add(reclassified)
		summary.Categories[CategoryBasicPayRelated] = decimal.Zero
		summary.Categories[CategoryTaxableEarning] = decimal.Zero
		basicRelated = decimal.Zero
		taxable = decimal.Zero
	}

	benefitExcess := floorZero(summary.Categories[CategoryThirteenthMonth].Sub(in.Config.BenefitExemptionCeiling))
	total := basicRelated.Add(taxable).Add(benefitExcess).Sub(summary.TotalContributions)

	if in.PreviousEmployer != nil {
		total = total.Add(in.PreviousEmployer.TaxableIncome)
	}
	return floorZero(Round2(total))
}

// Finalize performs the year-end annualization: the true annual tax due
// versus everything withheld, with the previous-employer breakdown merged
// additively.
func (a *Annualizer) Finalize(in AnnualInput) (*AnnualSummary, error) {
	if len(in.History) == 0 {
		return nil, shared.ErrMissingHistory
	}
	if in.TaxTable == nil {
		return nil, shared.ErrMissingTaxTable
	}

	summary := a.rollup(in)
	summary.TaxableIncome = a.taxableFromRollup(in, summary)

	wtax := NewWithholdingCalculator(in.TaxTable, in.Config)
	summary.AnnualTaxDue = wtax.AnnualTax(summary.TaxableIncome)

	if in.PreviousEmployer != nil {
		summary.TotalWithheld = summary.TotalWithheld.Add(in.PreviousEmployer.TaxWithheld)
	}
	summary.TaxDifference = Round2(summary.AnnualTaxDue.Sub(summary.TotalWithheld))

	a.logger.Debug("annualization finalized",
		zap.String("employee", summary.EmployeeCode),
		zap.String("taxable", summary.TaxableIncome.StringFixed(2)),
		zap.String("annual_due", summary.AnnualTaxDue.StringFixed(2)),
		zap.String("difference", summary.TaxDifference.StringFixed(2)))

	return summary, nil
}

// Project estimates the year-end position as of the given date by
// extrapolating per-month averages across the remaining months and
// simulating the remaining monthly withholding.
func (a *Annualizer) Project(in AnnualInput, asOf time.Time) (*AnnualProjection, error) {
	if len(in.History) == 0 {
		return nil, shared.ErrMissingHistory
	}
	if in.TaxTable == nil {
		return nil, shared.ErrMissingTaxTable
	}

	summary := a.rollup(in)
	ytdTaxable := a.taxableFromRollup(in, summary)

	months := make(map[string]bool)
	cutoffsThisMonth := 0
	for _, row := range in.History {
		monthKey := row.PeriodEnd.Format("2006-01")
		months[monthKey] = true
		if row.PeriodEnd.Year() == asOf.Year() && row.PeriodEnd.Month() == asOf.Month() {
			cutoffsThisMonth++
		}
	}
	monthsSeen := len(months)
	cutoffsSeen := len(in.History)

	resigned := in.Employee.SeparationDate != nil && !in.Employee.SeparationDate.After(asOf)

	cutoffsPerMonth := 2
	if in.Config.CutoffsPerYear > 0 {
		cutoffsPerMonth = in.Config.CutoffsPerYear / 12
	}

	remainingMonths := 12 - monthsSeen
	if resigned || remainingMonths < 0 {
		remainingMonths = 0
	}
	// Remaining cutoffs account for partial months already consumed.
	cutoffsRemaining := remainingMonths * cutoffsPerMonth
	if !resigned && cutoffsThisMonth > 0 && cutoffsThisMonth < cutoffsPerMonth {
		cutoffsRemaining += cutoffsPerMonth - cutoffsThisMonth
	}

	proj := &AnnualProjection{
		EmployeeCode:     in.Employee.Code,
		MonthsSeen:       monthsSeen,
		CutoffsSeen:      cutoffsSeen,
		CutoffsRemaining: cutoffsRemaining,
		Resigned:         resigned,
		YTDTaxable:       ytdTaxable,
		YTDWithheld:      summary.TotalWithheld,
	}

	var avgMonthly decimal.Decimal
	if monthsSeen > 0 {
		avgMonthly = Round2(ytdTaxable.Div(decimal.NewFromInt(int64(monthsSeen))))
	}

	wtax := NewWithholdingCalculator(in.TaxTable, in.Config)
	remaining := decimal.NewFromInt(int64(remainingMonths))
	proj.ProjectedTaxable = Round2(ytdTaxable.Add(avgMonthly.Mul(remaining)))
	proj.ProjectedAnnualTax = wtax.AnnualTax(proj.ProjectedTaxable)
	proj.ProjectedWithheld = Round2(summary.TotalWithheld.Add(wtax.MonthlyTax(avgMonthly).Mul(remaining)))
	proj.RemainingLiability = Round2(proj.ProjectedAnnualTax.Sub(proj.ProjectedWithheld))

	if cutoffsRemaining > 0 {
		proj.PerCutoffAdjustment = Round2(proj.RemainingLiability.Div(decimal.NewFromInt(int64(cutoffsRemaining))))
	} else {
		// No cutoffs left: the whole liability lands on the final payment.
		proj.PerCutoffAdjustment = proj.RemainingLiability
	}

	return proj, nil
}

// FinalPay computes the separation settlement: the one-time separation
// items joined with the full-year rollup, a single tax true-up, and the
// gross/net of the separation payment alone.
//
// Severance is a separation benefit and stays non-taxable; unpaid salary
// and leave conversion are regular taxable income, and the pro-rated
// 13th month counts against the annual benefit exemption ceiling.
func (a *Annualizer) FinalPay(in AnnualInput, items FinalPayItems) (*FinalPaySettlement, error) {
	if in.Employee.SeparationDate == nil {
		return nil, shared.ErrNotSeparated
	}
	if in.TaxTable == nil {
		return nil, shared.ErrMissingTaxTable
	}

	summary := a.rollup(in)
	summary.Categories[CategoryBasicPayRelated] = summary.Categories[CategoryBasicPayRelated].
		Add(items.UnpaidSalary)
	summary.Categories[CategoryTaxableEarning] = summary.Categories[CategoryTaxableEarning].
		Add(items.LeaveConversion)
	summary.Categories[CategoryThirteenthMonth] = summary.Categories[CategoryThirteenthMonth].
		Add(items.ProRatedThirteenth)
	summary.Categories[CategoryNonTaxableOther] = summary.Categories[CategoryNonTaxableOther].
		Add(items.Severance)

	summary.TaxableIncome = a.taxableFromRollup(in, summary)

	wtax := NewWithholdingCalculator(in.TaxTable, in.Config)
	summary.AnnualTaxDue = wtax.AnnualTax(summary.TaxableIncome)
	if in.PreviousEmployer != nil {
		summary.TotalWithheld = summary.TotalWithheld.Add(in.PreviousEmployer.TaxWithheld)
	}
	summary.TaxDifference = Round2(summary.AnnualTaxDue.Sub(summary.TotalWithheld))

	gross := Round2(items.UnpaidSalary.
		Add(items.ProRatedThirteenth).
		Add(items.LeaveConversion).
		Add(items.Severance))

	settlement := &FinalPaySettlement{
		EmployeeCode: in.Employee.Code,
		Items:        items,
		Summary:      *summary,
		TaxTrueUp:    summary.TaxDifference.Neg(),
		Gross:        gross,
		Net:          Round2(gross.Sub(summary.TaxDifference)),
	}

	a.logger.Info("final pay settled",
		zap.String("employee", in.Employee.Code),
		zap.String("gross", settlement.Gross.StringFixed(2)),
		zap.String("true_up", settlement.TaxTrueUp.StringFixed(2)),
		zap.String("net", settlement.Net.StringFixed(2)))

	return settlement, nil
}
