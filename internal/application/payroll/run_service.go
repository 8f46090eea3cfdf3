package payroll

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sweldo/engine/internal/domain/payroll"
	"github.com/sweldo/engine/internal/domain/shared"
	"github.com/sweldo/engine/internal/infrastructure/config"
)

const dateLayout = "2006-01-02"

// Service wires the computation engine to transport-level run requests.
// Requests are self-contained: they carry the masterfile, tables and prior
// ledger inline, and nothing is persisted.
type Service struct {
	engine     *payroll.Engine
	annualizer *payroll.Annualizer
	defaults   payroll.StatutoryConfig
	logger     *zap.Logger
}

// NewService creates a run service with the given statutory defaults.
func NewService(defaults payroll.StatutoryConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:     payroll.NewEngine(logger),
		annualizer: payroll.NewAnnualizer(logger),
		defaults:   defaults,
		logger:     logger,
	}
}

// StatutoryFromConfig converts the service configuration into the domain
// statutory constants, falling back to the built-in defaults per field.
func StatutoryFromConfig(c config.StatutoryConfig) payroll.StatutoryConfig {
	cfg := payroll.DefaultStatutoryConfig()
	if c.HealthRate > 0 {
		cfg.HealthRate = decimal.NewFromFloat(c.HealthRate)
	}
	if c.HealthMinBase > 0 {
		cfg.HealthMinBase = decimal.NewFromFloat(c.HealthMinBase)
	}
	if c.HealthMaxBase > 0 {
		cfg.HealthMaxBase = decimal.NewFromFloat(c.HealthMaxBase)
	}
	if c.HousingEmployeeRate > 0 {
		cfg.HousingEmployeeRate = decimal.NewFromFloat(c.HousingEmployeeRate)
	}
	if c.HousingEmployerRate > 0 {
		cfg.HousingEmployerRate = decimal.NewFromFloat(c.HousingEmployerRate)
	}
	if c.HousingBaseCap > 0 {
		cfg.HousingBaseCap = decimal.NewFromFloat(c.HousingBaseCap)
	}
	if c.HousingMonthlyFloor > 0 {
		cfg.HousingMonthlyFloor = decimal.NewFromFloat(c.HousingMonthlyFloor)
	}
	if c.BenefitExemptionCeiling > 0 {
		cfg.BenefitExemptionCeiling = decimal.NewFromFloat(c.BenefitExemptionCeiling)
	}
	if c.CitizenNationality != "" {
		cfg.CitizenNationality = c.CitizenNationality
	}
	if c.CutoffsPerYear > 0 {
		cfg.CutoffsPerYear = c.CutoffsPerYear
	}
	if c.WorkingDaysPerYear > 0 {
		cfg.WorkingDaysPerYear = c.WorkingDaysPerYear
	}
	return cfg
}

// EmployeeInput is one masterfile record as submitted by the caller.
type EmployeeInput struct {
	ID                 string                     `json:"id,omitempty"`
	Code               string                     `json:"code" binding:"required"`
	Name               string                     `json:"name" binding:"required"`
	Status             string                     `json:"status,omitempty"`
	ContractType       string                     `json:"contract_type,omitempty"`
	PayBasis           string                     `json:"pay_basis,omitempty"`
	BasePay            decimal.Decimal            `json:"base_pay"`
	ComputedBasicPay   *decimal.Decimal           `json:"computed_basic_pay,omitempty"`
	WorkingDaysPerYear int                        `json:"working_days_per_year,omitempty"`
	IsPWD              bool                       `json:"is_pwd,omitempty"`
	IsMinimumWage      bool                       `json:"is_minimum_wage,omitempty"`
	RetirementApplied  bool                       `json:"applied_for_retirement,omitempty"`
	Nationality        string                     `json:"nationality,omitempty"`
	ConsultantTaxRate  decimal.Decimal            `json:"consultant_tax_rate,omitempty"`
	HireDate           string                     `json:"hire_date,omitempty" binding:"omitempty,dateonly"`
	SeparationDate     string                     `json:"separation_date,omitempty" binding:"omitempty,dateonly"`
	RecurringPay       map[string]decimal.Decimal `json:"recurring_pay,omitempty"`
}

// AdjustmentInput is a period adjustment keyed by employee code.
type AdjustmentInput struct {
	EmployeeCode string          `json:"employee_code" binding:"required"`
	Component    string          `json:"component" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category,omitempty"`
}

// AttendanceInput is one employee's attendance facts for the period.
type AttendanceInput struct {
	EmployeeCode  string                     `json:"employee_code" binding:"required"`
	DaysWorked    decimal.Decimal            `json:"days_worked,omitempty"`
	AbsentDays    decimal.Decimal            `json:"absent_days,omitempty"`
	TardyMinutes  decimal.Decimal            `json:"tardy_minutes,omitempty"`
	OvertimeHours map[string]decimal.Decimal `json:"overtime_hours,omitempty"`
}

// PriorTakenInput is one already-disbursed amount, scoped to the month or the
// current half. Callers build these from previously posted rows.
type PriorTakenInput struct {
	EmployeeCode string          `json:"employee_code" binding:"required"`
	Component    string          `json:"component" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Scope        string          `json:"scope" binding:"required,oneof=month half"`
}

// RunInput is a self-contained run request.
type RunInput struct {
	Half        string `json:"half,omitempty"` // A or B for regular runs
	RunCode     string `json:"run_code,omitempty"`
	PeriodStart string `json:"period_start" binding:"required,dateonly"`
	PeriodEnd   string `json:"period_end" binding:"required,dateonly"`

	Employees   []EmployeeInput   `json:"employees" binding:"required"`
	Adjustments []AdjustmentInput `json:"adjustments,omitempty"`
	Attendance  []AttendanceInput `json:"attendance,omitempty"`
	PriorTaken  []PriorTakenInput `json:"prior_taken,omitempty"`

	TaxTable          *payroll.TaxBracketTable   `json:"tax_table" binding:"required"`
	ContributionTable *payroll.ContributionTable `json:"contribution_table" binding:"required"`

	Components     map[string]string          `json:"components,omitempty"`
	ComponentModes map[string]string          `json:"component_modes,omitempty"`
	YTDBenefits    map[string]decimal.Decimal `json:"ytd_benefits,omitempty"`
}

// RunRegular executes a semi-monthly Half A or Half B run.
func (s *Service) RunRegular(ctx context.Context, in RunInput) (*payroll.RunResult, error) {
	req, err := s.translate(in)
	if err != nil {
		return nil, err
	}
	req.Half = payroll.PeriodHalf(in.Half)
	return s.engine.RunRegular(*req)
}

// RunMonthly executes a full-month run.
func (s *Service) RunMonthly(ctx context.Context, in RunInput) (*payroll.RunResult, error) {
	req, err := s.translate(in)
	if err != nil {
		return nil, err
	}
	return s.engine.RunMonthly(*req)
}

// RunSpecial executes an ad-hoc run labeled by the run code.
func (s *Service) RunSpecial(ctx context.Context, in RunInput) (*payroll.RunResult, error) {
	req, err := s.translate(in)
	if err != nil {
		return nil, err
	}
	req.RunCode = in.RunCode
	return s.engine.RunSpecial(*req)
}

// translate converts a wire request into a domain run request, resolving
// employee codes to identities and building the prior-taken ledger.
func (s *Service) translate(in RunInput) (*payroll.RunRequest, error) {
	start, err := parseDate(in.PeriodStart)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("period_start: %v", err))
	}
	end, err := parseDate(in.PeriodEnd)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("period_end: %v", err))
	}

	employees := make([]payroll.EmployeeRecord, 0, len(in.Employees))
	byCode := make(map[string]uuid.UUID, len(in.Employees))
	for i := range in.Employees {
		emp, err := s.translateEmployee(in.Employees[i])
		if err != nil {
			return nil, err
		}
		if _, dup := byCode[emp.Code]; dup {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("duplicate employee code %q", emp.Code))
		}
		byCode[emp.Code] = emp.ID
		employees = append(employees, *emp)
	}

	resolve := func(code string) (uuid.UUID, error) {
		id, ok := byCode[code]
		if !ok {
			return uuid.Nil, shared.ErrUnknownEmployee
		}
		return id, nil
	}

	adjustments := make([]payroll.Adjustment, 0, len(in.Adjustments))
	for _, adj := range in.Adjustments {
		id, err := resolve(adj.EmployeeCode)
		if err != nil {
			return nil, err
		}
		adjustments = append(adjustments, payroll.Adjustment{
			EmployeeID: id,
			Component:  adj.Component,
			Amount:     adj.Amount,
			Category:   payroll.ComponentCategory(adj.Category),
		})
	}

	attendance := make(map[uuid.UUID]payroll.AttendanceRecord, len(in.Attendance))
	for _, att := range in.Attendance {
		id, err := resolve(att.EmployeeCode)
		if err != nil {
			return nil, err
		}
		record := payroll.AttendanceRecord{
			DaysWorked:   att.DaysWorked,
			AbsentDays:   att.AbsentDays,
			TardyMinutes: att.TardyMinutes,
		}
		if len(att.OvertimeHours) > 0 {
			record.OvertimeHours = make(map[payroll.OvertimeType]decimal.Decimal, len(att.OvertimeHours))
			for otType, hours := range att.OvertimeHours {
				record.OvertimeHours[payroll.OvertimeType(otType)] = hours
			}
		}
		attendance[id] = record
	}

	ledger := payroll.NewPriorTakenLedger()
	for _, prior := range in.PriorTaken {
		id, err := resolve(prior.EmployeeCode)
		if err != nil {
			return nil, err
		}
		switch prior.Scope {
		case "half":
			ledger.RecordHalf(id, prior.Component, prior.Amount)
		default:
			ledger.RecordMonth(id, prior.Component, prior.Amount)
		}
	}

	components := make(map[string]payroll.ComponentCategory, len(in.Components))
	for name, cat := range in.Components {
		components[name] = payroll.ComponentCategory(cat)
	}
	modes := make(map[string]payroll.ComponentMode, len(in.ComponentModes))
	for name, mode := range in.ComponentModes {
		modes[payroll.NormalizeName(name)] = payroll.ComponentMode(mode)
	}

	ytd := make(map[uuid.UUID]decimal.Decimal, len(in.YTDBenefits))
	for code, amount := range in.YTDBenefits {
		id, err := resolve(code)
		if err != nil {
			return nil, err
		}
		ytd[id] = amount
	}

	return &payroll.RunRequest{
		RunID:             uuid.New(),
		PeriodStart:       start,
		PeriodEnd:         end,
		Employees:         employees,
		Adjustments:       adjustments,
		Attendance:        attendance,
		TaxTable:          in.TaxTable,
		ContributionTable: in.ContributionTable,
		Ledger:            ledger,
		Components:        components,
		ComponentModes:    modes,
		YTDBenefits:       ytd,
		Config:            s.defaults,
	}, nil
}

// translateEmployee maps one wire employee onto the domain master record,
// applying the masterfile defaults for omitted enumerations.
func (s *Service) translateEmployee(in EmployeeInput) (*payroll.EmployeeRecord, error) {
	id := uuid.New()
	if in.ID != "" {
		parsed, err := uuid.Parse(in.ID)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("employee %s: invalid id", in.Code))
		}
		id = parsed
	}

	emp := &payroll.EmployeeRecord{
		ID:                   id,
		Code:                 in.Code,
		Name:                 in.Name,
		Status:               payroll.StatusActive,
		ContractType:         payroll.ContractEmployee,
		PayBasis:             payroll.PayBasisMonthly,
		BasePay:              in.BasePay,
		ComputedBasicPay:     in.ComputedBasicPay,
		WorkingDaysPerYear:   in.WorkingDaysPerYear,
		IsPWD:                in.IsPWD,
		IsMinimumWage:        in.IsMinimumWage,
		AppliedForRetirement: in.RetirementApplied,
		Nationality:          in.Nationality,
		ConsultantTaxRate:    in.ConsultantTaxRate,
		RecurringPay:         in.RecurringPay,
	}
	if emp.WorkingDaysPerYear == 0 {
		emp.WorkingDaysPerYear = s.defaults.WorkingDaysPerYear
	}
	if in.Status != "" {
		emp.Status = payroll.EmployeeStatus(in.Status)
	}
	if in.ContractType != "" {
		emp.ContractType = payroll.ContractType(in.ContractType)
	}
	if in.PayBasis != "" {
		emp.PayBasis = payroll.PayBasis(in.PayBasis)
	}
	if in.HireDate != "" {
		hired, err := parseDate(in.HireDate)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("employee %s: hire_date: %v", in.Code, err))
		}
		emp.HireDate = hired
	}
	if in.SeparationDate != "" {
		separated, err := parseDate(in.SeparationDate)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("employee %s: separation_date: %v", in.Code, err))
		}
		emp.SeparationDate = &separated
	}
	return emp, nil
}

// HistoryRowInput is one posted row of the tax year, as column name->amount.
type HistoryRowInput struct {
	PeriodStart string                     `json:"period_start" binding:"required,dateonly"`
	PeriodEnd   string                     `json:"period_end" binding:"required,dateonly"`
	Values      map[string]decimal.Decimal `json:"values" binding:"required"`
}

// AnnualInput is the shared wire input of the annualization operations.
type AnnualInput struct {
	Employee EmployeeInput     `json:"employee" binding:"required"`
	History  []HistoryRowInput `json:"history" binding:"required"`

	TaxTable         *payroll.TaxBracketTable         `json:"tax_table" binding:"required"`
	Components       map[string]string                `json:"components,omitempty"`
	PreviousEmployer *payroll.PreviousEmployerSummary `json:"previous_employer,omitempty"`
}

// FinalPayInput joins the annual input with the one-time separation items.
type FinalPayInput struct {
	AnnualInput
	Items payroll.FinalPayItems `json:"items"`
}

// Finalize performs the year-end annualization for one employee.
func (s *Service) Finalize(ctx context.Context, in AnnualInput) (*payroll.AnnualSummary, error) {
	domainIn, err := s.translateAnnual(in)
	if err != nil {
		return nil, err
	}
	return s.annualizer.Finalize(*domainIn)
}

// Project estimates the year-end tax position as of a date.
func (s *Service) Project(ctx context.Context, in AnnualInput, asOf string) (*payroll.AnnualProjection, error) {
	domainIn, err := s.translateAnnual(in)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(asOf)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("as_of: %v", err))
	}
	return s.annualizer.Project(*domainIn, date)
}

// FinalPay computes the separation settlement.
func (s *Service) FinalPay(ctx context.Context, in FinalPayInput) (*payroll.FinalPaySettlement, error) {
	domainIn, err := s.translateAnnual(in.AnnualInput)
	if err != nil {
		return nil, err
	}
	return s.annualizer.FinalPay(*domainIn, in.Items)
}

// translateAnnual rebuilds domain history rows from posted row values.
func (s *Service) translateAnnual(in AnnualInput) (*payroll.AnnualInput, error) {
	emp, err := s.translateEmployee(in.Employee)
	if err != nil {
		return nil, err
	}

	history := make([]*payroll.OutputRow, 0, len(in.History))
	for i, h := range in.History {
		start, err := parseDate(h.PeriodStart)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("history[%d]: period_start: %v", i, err))
		}
		end, err := parseDate(h.PeriodEnd)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("history[%d]: period_end: %v", i, err))
		}
		row := payroll.NewOutputRow(emp, payroll.PeriodLabel(start, end), start, end)
		names := make([]string, 0, len(h.Values))
		for name := range h.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			row.Set(name, h.Values[name])
		}
		history = append(history, row)
	}

	components := make(map[string]payroll.ComponentCategory, len(in.Components))
	for name, cat := range in.Components {
		components[name] = payroll.ComponentCategory(cat)
	}

	return &payroll.AnnualInput{
		Employee:         *emp,
		History:          history,
		TaxTable:         in.TaxTable,
		Config:           s.defaults,
		Components:       components,
		PreviousEmployer: in.PreviousEmployer,
	}, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}
