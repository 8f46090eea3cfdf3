package payroll

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sweldo/engine/internal/domain/shared"
)

// RunType selects the period-runner variant.
type RunType string

const (
	RunRegular RunType = "Regular"
	RunMonthly RunType = "Monthly"
	RunSpecial RunType = "Special"
)

// AttendanceRecord is one employee's attendance facts for the period.
type AttendanceRecord struct {
	DaysWorked    decimal.Decimal
	AbsentDays    decimal.Decimal
	TardyMinutes  decimal.Decimal
	OvertimeHours map[OvertimeType]decimal.Decimal
}

// ProgressFunc reports run progress for observability. It must not block;
// correctness never depends on it.
type ProgressFunc func(percent int, message string)

// RunRequest carries everything one run needs. All inputs are read-only for
// the duration of the run; the caller freezes the prior-taken snapshot
// before invoking the engine.
type RunRequest struct {
	RunID       uuid.UUID
	Half        PeriodHalf // A or B for regular runs
	RunCode     string     // labels special runs
	PeriodStart time.Time
	PeriodEnd   time.Time

	Employees   []EmployeeRecord
	Adjustments []Adjustment
	Attendance  map[uuid.UUID]AttendanceRecord

	TaxTable          *TaxBracketTable
	ContributionTable *ContributionTable
	Ledger            *PriorTakenLedger

	// Components is the tenant name->category table; ComponentModes the
	// per-component apportionment overrides (default split).
	Components     map[string]ComponentCategory
	ComponentModes map[string]ComponentMode

	// YTDBenefits is the cumulative 13th-month / other-benefit total per
	// employee before this run, for the exemption-ceiling check.
	YTDBenefits map[uuid.UUID]decimal.Decimal

	Config   StatutoryConfig
	Progress ProgressFunc
}

// RunResult is the in-memory outcome of one run.
type RunResult struct {
	RunID       uuid.UUID    `json:"run_id"`
	Type        RunType      `json:"type"`
	PeriodLabel string       `json:"period_label"`
	Rows        []*OutputRow `json:"rows"`
	Totals      RunTotals    `json:"totals"`
	Warnings    []Warning    `json:"warnings,omitempty"`
	Skipped     []string     `json:"skipped,omitempty"`
}

// runVariant captures what differs between the three runner types.
type runVariant struct {
	runType    RunType
	half       PeriodHalf
	masterfile bool // masterfile-driven earnings and attendance apply
	trueUp     bool // Half B cross-half reconstruction applies
}

// Engine is the payroll computation engine. It is a pure batch
// transformation: employees are processed sequentially and no input is ever
// mutated, so a single Engine is safe for concurrent runs.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine. A nil logger disables engine logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// RunRegular executes a semi-monthly split run for Half A or Half B.
func (e *Engine) RunRegular(req RunRequest) (*RunResult, error) {
	if req.Half != HalfA && req.Half != HalfB {
		return nil, shared.NewDomainError("INVALID_INPUT", "regular runs require period half A or B")
	}
	variant := runVariant{
		runType:    RunRegular,
		half:       req.Half,
		masterfile: true,
		trueUp:     req.Half == HalfB,
	}
	return e.run(req, variant, PeriodLabel(req.PeriodStart, req.PeriodEnd))
}

// RunMonthly executes a full-month run: no A/B split, component modes are
// ignored and no true-up applies.
func (e *Engine) RunMonthly(req RunRequest) (*RunResult, error) {
	variant := runVariant{
		runType:    RunMonthly,
		half:       HalfMonthly,
		masterfile: true,
	}
	return e.run(req, variant, PeriodLabel(req.PeriodStart, req.PeriodEnd))
}

// RunSpecial executes an ad-hoc run: adjustments are the only earnings
// source and the period label derives from the run code.
func (e *Engine) RunSpecial(req RunRequest) (*RunResult, error) {
	if req.RunCode == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "special runs require a run code")
	}
	variant := runVariant{
		runType: RunSpecial,
		half:    HalfSpecial,
	}
	label := fmt.Sprintf("%s (%s)", req.RunCode, PeriodLabel(req.PeriodStart, req.PeriodEnd))
	return e.run(req, variant, label)
}

// run is the shared batch loop for all three variants.
func (e *Engine) run(req RunRequest, variant runVariant, label string) (*RunResult, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	classifier := NewClassifier(req.Components)
	contrib := NewContributionCalculator(req.ContributionTable, req.Config)
	wtax := NewWithholdingCalculator(req.TaxTable, req.Config)

	adjustmentsByEmployee := make(map[uuid.UUID][]Adjustment, len(req.Employees))
	for _, adj := range req.Adjustments {
		adjustmentsByEmployee[adj.EmployeeID] = append(adjustmentsByEmployee[adj.EmployeeID], adj)
	}

	result := &RunResult{
		RunID:       req.RunID,
		Type:        variant.runType,
		PeriodLabel: label,
	}

	total := len(req.Employees)
	for i := range req.Employees {
		emp := &req.Employees[i]

		if reason, ok := e.eligible(emp, req); !ok {
			result.Skipped = append(result.Skipped, emp.Code)
			e.logger.Debug("employee skipped",
				zap.String("employee", emp.Code),
				zap.String("reason", reason))
			e.report(req, (i+1)*100/total, fmt.Sprintf("skipped %s", emp.Code))
			continue
		}

		row, warnings := e.computeRow(req, variant, label, emp, classifier, contrib, wtax, adjustmentsByEmployee[emp.ID])
		result.Rows = append(result.Rows, row)
		result.Warnings = append(result.Warnings, warnings...)

		result.Totals.EmployeeCount++
		result.Totals.TotalGross = result.Totals.TotalGross.Add(row.Get(ColGrossPay))
		result.Totals.TotalNet = result.Totals.TotalNet.Add(row.Get(ColNetPay))

		e.report(req, (i+1)*100/total, fmt.Sprintf("computed %s", emp.Code))
	}

	e.logger.Info("payroll run complete",
		zap.String("run_id", req.RunID.String()),
		zap.String("type", string(variant.runType)),
		zap.String("period", label),
		zap.Int("employees", result.Totals.EmployeeCount),
		zap.Int("skipped", len(result.Skipped)),
		zap.String("total_gross", result.Totals.TotalGross.StringFixed(2)),
		zap.String("total_net", result.Totals.TotalNet.StringFixed(2)))

	return result, nil
}

// validate enforces the fatal run-level contracts: the calculators degrade
// to zero on missing data, but a run without published statutory tables
// covering its period must abort before any row is produced.
func (e *Engine) validate(req RunRequest) error {
	if req.PeriodStart.After(req.PeriodEnd) {
		return shared.ErrEmptyRunPeriod
	}
	if len(req.Employees) == 0 {
		return shared.ErrNoEmployees
	}
	if !req.TaxTable.Covers(req.PeriodEnd) {
		return shared.ErrNoBracketTable
	}
	if !req.ContributionTable.Covers(req.PeriodEnd) {
		return shared.ErrNoBracketTable
	}
	for _, adj := range req.Adjustments {
		if adj.EmployeeID == uuid.Nil {
			return shared.ErrUnknownEmployee
		}
	}
	return nil
}

// eligible applies the per-employee skip rules.
func (e *Engine) eligible(emp *EmployeeRecord, req RunRequest) (string, bool) {
	if !emp.HasIdentity() {
		return "missing identity fields", false
	}
	if emp.Status != StatusActive {
		return "not active", false
	}
	if !emp.EmployedDuring(req.PeriodStart, req.PeriodEnd) {
		return "outside employment window", false
	}
	return "", true
}

func (e *Engine) report(req RunRequest, percent int, message string) {
	if req.Progress != nil {
		req.Progress(percent, message)
		return
	}
	e.logger.Debug("run progress", zap.Int("percent", percent), zap.String("message", message))
}

// buckets accumulate classified component sums for one employee.
type buckets struct {
	basicExtras decimal.Decimal // basic-related beyond the basic pay itself
	taxableOnly decimal.Decimal
	nonTaxable  decimal.Decimal
	thirteenth  decimal.Decimal
	deductions  decimal.Decimal
	additions   decimal.Decimal
	sysContrib  map[string]decimal.Decimal // system adjustments to statutory columns
	sysTax      decimal.Decimal            // system adjustment to withholding
}

func (b *buckets) bucket(cat ComponentCategory, amount decimal.Decimal) {
	switch cat {
	case CategoryBasicPayRelated:
		b.basicExtras = b.basicExtras.Add(amount)
	case CategoryNonTaxableDeMin, CategoryNonTaxableOther:
		b.nonTaxable = b.nonTaxable.Add(amount)
	case CategoryThirteenthMonth:
		b.thirteenth = b.thirteenth.Add(amount)
	case CategoryDeduction:
		b.deductions = b.deductions.Add(amount)
	case CategoryAddition:
		b.additions = b.additions.Add(amount)
	default:
		// Taxable earnings, and unclassified components treated
		// conservatively as taxable.
		b.taxableOnly = b.taxableOnly.Add(amount)
	}
}

// computeRow runs the shared per-employee algorithm.
func (e *Engine) computeRow(
	req RunRequest,
	variant runVariant,
	label string,
	emp *EmployeeRecord,
	classifier *Classifier,
	contrib *ContributionCalculator,
	wtax *WithholdingCalculator,
	adjustments []Adjustment,
) (*OutputRow, []Warning) {
	var warnings []Warning
	row := NewOutputRow(emp, label, req.PeriodStart, req.PeriodEnd)
	rates := NewRateConverter(emp, req.Config.OvertimeMultipliers)
	monthlyRate := rates.MonthlyRate()
	b := buckets{sysContrib: make(map[string]decimal.Decimal)}

	// Step 2: resolve basic pay for the period.
	var basic decimal.Decimal
	if variant.runType != RunSpecial {
		switch {
		case emp.ComputedBasicPay != nil:
			basic = Round2(*emp.ComputedBasicPay)
		case emp.PayBasis == PayBasisDaily:
			att := req.Attendance[emp.ID]
			basic = Round2(rates.DailyRate().Mul(att.DaysWorked))
		default:
			mode := e.componentMode(req, ColBasicPay)
			basic = e.periodPortion(req, emp.ID, ColBasicPay, monthlyRate, mode, variant.half)
		}
		row.Set(ColBasicPay, basic)
	}

	// Step 3: masterfile-driven recurring earnings, each apportioned by its
	// own configured mode and netted against prior taken.
	if variant.masterfile {
		names := make([]string, 0, len(emp.RecurringPay))
		for name := range emp.RecurringPay {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			monthly := emp.RecurringPay[name]
			mode := e.componentMode(req, name)
			portion := e.periodPortion(req, emp.ID, name, monthly, mode, variant.half)
			if portion.IsZero() {
				continue
			}
			cat, warn := e.classify(classifier, name, CategoryUnclassified, emp.Code)
			warnings = append(warnings, warn...)
			b.bucket(cat, portion)
			row.Add(name, portion)
		}

		// Attendance-derived lines: overtime pay, absence and tardiness.
		if att, ok := req.Attendance[emp.ID]; ok {
			var overtime decimal.Decimal
			for otType, hours := range att.OvertimeHours {
				overtime = overtime.Add(rates.OvertimePay(otType, hours))
			}
			if !overtime.IsZero() {
				row.Add(ColOvertime, overtime)
				b.bucket(CategoryTaxableEarning, overtime)
			}
			if att.AbsentDays.IsPositive() && emp.PayBasis != PayBasisDaily {
				absence := rates.AbsenceDeduction(att.AbsentDays)
				row.Add(ColAbsence, absence)
				b.bucket(CategoryBasicPayRelated, absence)
			}
			if att.TardyMinutes.IsPositive() {
				tardiness := rates.TardinessDeduction(att.TardyMinutes)
				row.Add(ColTardiness, tardiness)
				b.bucket(CategoryBasicPayRelated, tardiness)
			}
		}
	}

	// Step 4: this-period adjustments, netted against prior taken.
	// Statutory line-item names divert into the system bucket and post to
	// their statutory columns instead of becoming earnings.
	for _, adj := range adjustments {
		net := adj.Amount.Sub(e.priorTaken(req, emp.ID, adj.Component, variant.half))
		if net.IsZero() {
			continue
		}
		if col, ok := SystemColumn(adj.Component); ok {
			if col == ColWithholdingTax {
				b.sysTax = b.sysTax.Add(net)
			} else {
				b.sysContrib[col] = b.sysContrib[col].Add(net)
			}
			continue
		}
		cat, warn := e.classify(classifier, adj.Component, adj.Category, emp.Code)
		warnings = append(warnings, warn...)
		b.bucket(cat, net)
		row.Add(adj.Component, net)
	}

	// Step 5: reconstruct the statutory bases. Half B rebuilds the health
	// base from Half A's basic-related disbursements so a mid-month raise
	// reaches the monthly health-insurance base.
	socialBase := monthlyRate.Add(b.basicExtras)
	healthBase := socialBase
	if variant.trueUp {
		for name, taken := range req.Ledger.MonthComponents(emp.ID) {
			if NormalizeName(name) == ColBasicPay {
				continue
			}
			if classifier.Classify(name) == CategoryBasicPayRelated {
				healthBase = healthBase.Add(taken)
			}
		}
	}

	// Step 6: statutory contributions. Consultants carry none.
	var contribResult ContributionResult
	if !emp.IsConsultant() {
		contribResult = contrib.Calculate(ContributionInput{
			SocialBase:        socialBase,
			HealthBase:        healthBase,
			Half:              variant.half,
			DailyBasis:        emp.PayBasis == PayBasisDaily,
			PWD:               emp.IsPWD,
			NonCitizen:        req.Config.IsNonCitizen(emp),
			RetirementApplied: emp.AppliedForRetirement,
			Prior:             e.contributionPrior(req, emp.ID),
		})
		for i := range contribResult.Warnings {
			contribResult.Warnings[i].EmployeeCode = emp.Code
		}
		warnings = append(warnings, contribResult.Warnings...)
	}

	row.Set(ColSSSEmployee, contribResult.SSSRegularEE.Neg())
	row.Set(ColSSSProvidentEE, contribResult.SSSProvidentEE.Neg())
	row.Set(ColPhilHealthEmployee, contribResult.HealthEE.Neg())
	row.Set(ColPagIBIGEmployee, contribResult.HousingEE.Neg())
	row.Set(ColSSSEmployer, contribResult.SSSRegularER)
	row.Set(ColSSSProvidentER, contribResult.SSSProvidentER)
	row.Set(ColSSSCompensation, contribResult.SSSCompensationER)
	row.Set(ColPhilHealthEmployer, contribResult.HealthER)
	row.Set(ColPagIBIGEmployer, contribResult.HousingER)
	for col, amount := range b.sysContrib {
		row.Add(col, amount)
	}

	employeeShare := row.Get(ColSSSEmployee).Abs().
		Add(row.Get(ColSSSProvidentEE).Abs()).
		Add(row.Get(ColPhilHealthEmployee).Abs()).
		Add(row.Get(ColPagIBIGEmployee).Abs())

	// Step 6 continued: period taxable income, floored at zero. The
	// benefit excess is taxed separately at the annualized marginal rate,
	// never through the periodic bracket.
	taxable := floorZero(basic.Add(b.basicExtras).Add(b.taxableOnly).Sub(employeeShare))
	row.Set(ColTaxableIncome, taxable)

	// Step 7: withholding tax.
	taxResult := wtax.Calculate(TaxInput{
		TaxableIncome:          taxable,
		Half:                   variant.half,
		PriorHalfTaxable:       req.Ledger.MonthTaken(emp.ID, ColTaxableIncome),
		PriorHalfTax:           req.Ledger.MonthTaken(emp.ID, ColWithholdingTax).Abs(),
		Consultant:             emp.IsConsultant(),
		ConsultantRate:         emp.ConsultantTaxRate,
		MinimumWage:            emp.IsMinimumWage,
		BenefitPayment:         b.thirteenth,
		YTDBenefit:             req.YTDBenefits[emp.ID],
		ProjectedAnnualTaxable: e.projectAnnual(req, variant.half, taxable, monthlyRate),
	})
	row.Set(ColWithholdingTax, taxResult.Total().Add(b.sysTax))

	// Step 8: gross pay sums every earning-category column, unworked time
	// included even when negative. Deductions and additions fold into net
	// pay only.
	gross := basic.Add(b.basicExtras).Add(b.taxableOnly).Add(b.nonTaxable).Add(b.thirteenth)
	row.Set(ColGrossPay, gross)

	// Step 9: net pay. Statutory columns are signed, so adding them
	// subtracts deductions and passes refunds through.
	net := gross.
		Add(row.Get(ColSSSEmployee)).
		Add(row.Get(ColSSSProvidentEE)).
		Add(row.Get(ColPhilHealthEmployee)).
		Add(row.Get(ColPagIBIGEmployee)).
		Add(row.Get(ColWithholdingTax)).
		Sub(b.deductions).
		Add(b.additions)
	row.Set(ColNetPay, Round2(net))

	return row, warnings
}

// componentMode resolves the apportionment mode of a component, defaulting
// to split.
func (e *Engine) componentMode(req RunRequest, name string) ComponentMode {
	if mode, ok := req.ComponentModes[NormalizeName(name)]; ok {
		return mode
	}
	if mode, ok := req.ComponentModes[name]; ok {
		return mode
	}
	return ModeSplit
}

// periodPortion apportions a monthly intended amount to the current period
// and nets it against prior taken, preserving the month conservation
// invariant: the sum of portions across the month's periods always equals
// the monthly intended amount.
func (e *Engine) periodPortion(req RunRequest, employee uuid.UUID, component string, monthly decimal.Decimal, mode ComponentMode, half PeriodHalf) decimal.Decimal {
	monthTaken := req.Ledger.MonthTaken(employee, component)
	halfTaken := req.Ledger.HalfTaken(employee, component)

	switch half {
	case HalfA:
		switch mode {
		case ModeFirst:
			return monthly.Sub(monthTaken)
		case ModeSecond:
			return decimal.Zero
		default:
			return Half(monthly).Sub(halfTaken)
		}
	case HalfB:
		switch mode {
		case ModeFirst:
			return decimal.Zero
		default:
			// Split and second both true-up against the whole month.
			return monthly.Sub(monthTaken)
		}
	case HalfMonthly:
		return monthly.Sub(monthTaken)
	}
	return decimal.Zero
}

// priorTaken returns the prior-taken scope that applies to adjustments in
// the given period: half scope for Half A and special runs, month scope for
// Half B and monthly runs.
func (e *Engine) priorTaken(req RunRequest, employee uuid.UUID, component string, half PeriodHalf) decimal.Decimal {
	switch half {
	case HalfA, HalfSpecial:
		return req.Ledger.HalfTaken(employee, component)
	default:
		return req.Ledger.MonthTaken(employee, component)
	}
}

// contributionPrior reads Half A's employee-side statutory amounts from the
// ledger for the Half B true-up.
func (e *Engine) contributionPrior(req RunRequest, employee uuid.UUID) ContributionPrior {
	return ContributionPrior{
		SSSRegularEE:   req.Ledger.MonthTaken(employee, ColSSSEmployee).Abs(),
		SSSProvidentEE: req.Ledger.MonthTaken(employee, ColSSSProvidentEE).Abs(),
		HealthEE:       req.Ledger.MonthTaken(employee, ColPhilHealthEmployee).Abs(),
		HousingEE:      req.Ledger.MonthTaken(employee, ColPagIBIGEmployee).Abs(),
		EmployerTaken:  !req.Ledger.MonthTaken(employee, ColSSSEmployer).IsZero(),
	}
}

// classify resolves a category, surfacing heuristic fallbacks and
// unclassified names as warnings.
func (e *Engine) classify(classifier *Classifier, name string, preset ComponentCategory, employeeCode string) (ComponentCategory, []Warning) {
	if preset != CategoryUnclassified {
		return preset, nil
	}
	cat, heuristic := classifier.ClassifyHeuristic(name)
	if cat == CategoryUnclassified {
		return cat, []Warning{{
			Code:         WarnUnclassified,
			Message:      fmt.Sprintf("component %q has no category, treated as taxable", name),
			EmployeeCode: employeeCode,
		}}
	}
	if heuristic {
		return cat, []Warning{{
			Code:         WarnHeuristicComponent,
			Message:      fmt.Sprintf("component %q classified as %s by heuristic", name, cat),
			EmployeeCode: employeeCode,
		}}
	}
	return cat, nil
}

// projectAnnual extrapolates the period's regular taxable income across the
// year's pay cutoffs, for the marginal-rate lookup of the benefit path.
// Benefit-only periods carry no regular income, so the masterfile monthly
// rate stands in for the projection there.
func (e *Engine) projectAnnual(req RunRequest, half PeriodHalf, taxable, monthlyRate decimal.Decimal) decimal.Decimal {
	if taxable.IsZero() {
		return monthlyRate.Mul(twelve)
	}
	cutoffs := req.Config.CutoffsPerYear
	if cutoffs <= 0 {
		cutoffs = 24
	}
	if half == HalfMonthly {
		return taxable.Mul(twelve)
	}
	return taxable.Mul(decimal.NewFromInt(int64(cutoffs)))
}
