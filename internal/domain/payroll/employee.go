package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayBasis determines how the base pay of an employee is interpreted.
type PayBasis string

const (
	PayBasisMonthly PayBasis = "Monthly"
	PayBasisDaily   PayBasis = "Daily"
)

// ContractType distinguishes regular employees from consultants.
// Consultants are taxed at a flat rate and never period-split.
type ContractType string

const (
	ContractEmployee   ContractType = "Employee"
	ContractConsultant ContractType = "Consultant"
)

// EmployeeStatus is the employment status carried on the master record.
type EmployeeStatus string

const (
	StatusActive    EmployeeStatus = "Active"
	StatusInactive  EmployeeStatus = "Inactive"
	StatusSeparated EmployeeStatus = "Separated"
)

// EmployeeRecord is the read-only master record of one worker or contractor.
// The engine never mutates it; HR workflows own its lifecycle.
type EmployeeRecord struct {
	ID           uuid.UUID
	Code         string
	Name         string
	Status       EmployeeStatus
	ContractType ContractType
	PayBasis     PayBasis

	// BasePay is the monthly salary for monthly-basis employees and the
	// daily rate for daily-basis employees.
	BasePay decimal.Decimal

	// ComputedBasicPay, when set, fixes the basic pay for a period
	// regardless of attendance or apportionment.
	ComputedBasicPay *decimal.Decimal

	// WorkingDaysPerYear drives the daily/monthly rate conversion.
	// Zero falls back to DefaultWorkingDaysPerYear.
	WorkingDaysPerYear int

	IsPWD         bool
	IsMinimumWage bool

	// AppliedForRetirement stops social-insurance contributions on both
	// sides once the employee has filed for retirement.
	AppliedForRetirement bool

	Nationality string

	// ConsultantTaxRate is the flat withholding rate for consultants,
	// expressed as a fraction (0.10 for 10%).
	ConsultantTaxRate decimal.Decimal

	HireDate       time.Time
	SeparationDate *time.Time

	// RecurringPay holds tenant-defined recurring components from the
	// masterfile, keyed by component name with monthly intended amounts.
	RecurringPay map[string]decimal.Decimal
}

// DefaultWorkingDaysPerYear is used when the master record carries none.
const DefaultWorkingDaysPerYear = 261

// IsConsultant reports whether the record is a flat-taxed consultant.
func (e *EmployeeRecord) IsConsultant() bool {
	return e.ContractType == ContractConsultant
}

// WorkingDays returns the effective working days per year.
func (e *EmployeeRecord) WorkingDays() int {
	if e.WorkingDaysPerYear > 0 {
		return e.WorkingDaysPerYear
	}
	return DefaultWorkingDaysPerYear
}

// HasIdentity reports whether the record carries the identity fields a run
// requires. Records without them are skipped, not errored.
func (e *EmployeeRecord) HasIdentity() bool {
	return e.ID != uuid.Nil && e.Code != "" && e.Name != ""
}

// EmployedDuring reports whether the employment window overlaps the given
// period. A run whose range falls entirely outside hire/separation skips
// the employee.
func (e *EmployeeRecord) EmployedDuring(start, end time.Time) bool {
	if !e.HireDate.IsZero() && e.HireDate.After(end) {
		return false
	}
	if e.SeparationDate != nil && e.SeparationDate.Before(start) {
		return false
	}
	return true
}
