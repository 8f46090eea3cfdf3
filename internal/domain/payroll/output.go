package payroll

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Canonical column names. Output rows carry these plus any number of
// tenant-specific component columns; the column set varies per tenant so
// rows are an ordered name->amount mapping rather than a fixed struct.
const (
	ColBasicPay           = "BASIC PAY"
	ColGrossPay           = "GROSS PAY"
	ColNetPay             = "NET PAY"
	ColTaxableIncome      = "TAXABLE INCOME"
	ColWithholdingTax     = "WITHHOLDING TAX"
	ColSSSEmployee        = "SSS EE"
	ColSSSEmployer        = "SSS ER"
	ColSSSProvidentEE     = "SSS MPF EE"
	ColSSSProvidentER     = "SSS MPF ER"
	ColSSSCompensation    = "SSS EC"
	ColPhilHealthEmployee = "PHILHEALTH EE"
	ColPhilHealthEmployer = "PHILHEALTH ER"
	ColPagIBIGEmployee    = "PAG-IBIG EE"
	ColPagIBIGEmployer    = "PAG-IBIG ER"
	ColAbsence            = "ABSENCE"
	ColTardiness          = "TARDINESS"
	ColOvertime           = "OVERTIME"
	ColSalaryAdjustment   = "SALARY ADJUSTMENT"
	ColThirteenthMonth    = "13TH MONTH PAY"
)

// systemColumns maps normalized statutory line-item names to their canonical
// output columns. Adjustments with these names are system adjustments: they
// post directly to the statutory column instead of being earnings.
var systemColumns = map[string]string{
	ColWithholdingTax:     ColWithholdingTax,
	ColSSSEmployee:        ColSSSEmployee,
	ColSSSEmployer:        ColSSSEmployer,
	ColSSSProvidentEE:     ColSSSProvidentEE,
	ColSSSProvidentER:     ColSSSProvidentER,
	ColSSSCompensation:    ColSSSCompensation,
	ColPhilHealthEmployee: ColPhilHealthEmployee,
	ColPhilHealthEmployer: ColPhilHealthEmployer,
	ColPagIBIGEmployee:    ColPagIBIGEmployee,
	ColPagIBIGEmployer:    ColPagIBIGEmployer,
}

// SystemColumn resolves a component name to the statutory column it posts
// to, if any.
func SystemColumn(name string) (string, bool) {
	col, ok := systemColumns[NormalizeName(name)]
	return col, ok
}

// employerColumns are skipped by YTD rollups: they are employer cost, not
// employee income or deduction.
var employerColumns = map[string]bool{
	ColSSSEmployer:        true,
	ColSSSProvidentER:     true,
	ColSSSCompensation:    true,
	ColPhilHealthEmployer: true,
	ColPagIBIGEmployer:    true,
}

// derivedColumns are recomputed totals, never summed by rollups.
var derivedColumns = map[string]bool{
	ColGrossPay:      true,
	ColNetPay:        true,
	ColTaxableIncome: true,
}

// OutputRow is one employee's fully computed result for a run: canonical
// metadata plus an ordered set of named amount columns. Immutable once the
// run that produced it returns.
type OutputRow struct {
	EmployeeID   uuid.UUID
	EmployeeCode string
	EmployeeName string
	PeriodLabel  string
	PeriodStart  time.Time
	PeriodEnd    time.Time

	order  []string
	values map[string]decimal.Decimal
}

// NewOutputRow creates an empty row for the employee and period.
func NewOutputRow(e *EmployeeRecord, label string, start, end time.Time) *OutputRow {
	return &OutputRow{
		EmployeeID:   e.ID,
		EmployeeCode: e.Code,
		EmployeeName: e.Name,
		PeriodLabel:  label,
		PeriodStart:  start,
		PeriodEnd:    end,
		values:       make(map[string]decimal.Decimal),
	}
}

// Set assigns a column value, registering the column on first use.
func (r *OutputRow) Set(name string, amount decimal.Decimal) {
	key := NormalizeName(name)
	if _, ok := r.values[key]; !ok {
		r.order = append(r.order, key)
	}
	r.values[key] = amount
}

// Add accumulates into a column, registering it on first use.
func (r *OutputRow) Add(name string, amount decimal.Decimal) {
	key := NormalizeName(name)
	if _, ok := r.values[key]; !ok {
		r.order = append(r.order, key)
	}
	r.values[key] = r.values[key].Add(amount)
}

// Get returns the column value, zero when absent.
func (r *OutputRow) Get(name string) decimal.Decimal {
	return r.values[NormalizeName(name)]
}

// Has reports whether a column was ever set on the row.
func (r *OutputRow) Has(name string) bool {
	_, ok := r.values[NormalizeName(name)]
	return ok
}

// Columns returns the column names in insertion order.
func (r *OutputRow) Columns() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// MarshalJSON renders the row with columns keyed by name.
func (r *OutputRow) MarshalJSON() ([]byte, error) {
	cols := make(map[string]decimal.Decimal, len(r.values))
	for k, v := range r.values {
		cols[k] = v
	}
	return json.Marshal(struct {
		EmployeeID   uuid.UUID                  `json:"employee_id"`
		EmployeeCode string                     `json:"employee_code"`
		EmployeeName string                     `json:"employee_name"`
		PeriodLabel  string                     `json:"period_label"`
		PeriodStart  time.Time                  `json:"period_start"`
		PeriodEnd    time.Time                  `json:"period_end"`
		Columns      []string                   `json:"columns"`
		Values       map[string]decimal.Decimal `json:"values"`
	}{
		EmployeeID:   r.EmployeeID,
		EmployeeCode: r.EmployeeCode,
		EmployeeName: r.EmployeeName,
		PeriodLabel:  r.PeriodLabel,
		PeriodStart:  r.PeriodStart,
		PeriodEnd:    r.PeriodEnd,
		Columns:      r.Columns(),
		Values:       cols,
	})
}

// RunTotals aggregates a run for its consumers.
type RunTotals struct {
	EmployeeCount int             `json:"employee_count"`
	TotalGross    decimal.Decimal `json:"total_gross"`
	TotalNet      decimal.Decimal `json:"total_net"`
}

// Warning is a degraded-but-continue signal surfaced for auditability.
type Warning struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	EmployeeCode string `json:"employee_code,omitempty"`
}

// Warning codes.
const (
	WarnBracketCeiling     = "BRACKET_CEILING_FALLBACK"
	WarnBelowMinimumBase   = "BELOW_MINIMUM_BRACKET"
	WarnHeuristicComponent = "HEURISTIC_CLASSIFICATION"
	WarnUnclassified       = "UNCLASSIFIED_COMPONENT"
)
