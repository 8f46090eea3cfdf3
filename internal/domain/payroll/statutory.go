package payroll

import (
	"github.com/shopspring/decimal"
)

// StatutoryConfig carries the tenant rate constants the calculators need.
// It is passed explicitly into every calculator and runner call; the engine
// keeps no ambient configuration state.
type StatutoryConfig struct {
	// Health-insurance premium: clamp(base, Min, Max) x Rate, split evenly.
	HealthRate    decimal.Decimal
	HealthMinBase decimal.Decimal
	HealthMaxBase decimal.Decimal

	// Housing-fund contribution: min(base, BaseCap) x side-specific rate.
	HousingEmployeeRate decimal.Decimal
	HousingEmployerRate decimal.Decimal
	HousingBaseCap      decimal.Decimal

	// HousingMonthlyFloor is the minimum monthly housing-fund contribution;
	// half-period deductions enforce half of it.
	HousingMonthlyFloor decimal.Decimal

	// BenefitExemptionCeiling is the annual tax-exempt ceiling for
	// 13th-month and other benefits.
	BenefitExemptionCeiling decimal.Decimal

	// CitizenNationality is the nationality exempt from nothing; employees
	// with any other non-empty nationality are exempt from the housing fund.
	CitizenNationality string

	// OvertimeMultipliers overrides the default multiplier table when set.
	OvertimeMultipliers map[OvertimeType]decimal.Decimal

	// CutoffsPerYear is the number of pay cutoffs in a year for the regular
	// cycle (24 for semi-monthly).
	CutoffsPerYear int

	// WorkingDaysPerYear is the rate-conversion divisor applied to master
	// records that carry none of their own.
	WorkingDaysPerYear int
}

// DefaultStatutoryConfig returns the statutory constants in force when the
// tenant overrides none.
func DefaultStatutoryConfig() StatutoryConfig {
	return StatutoryConfig{
		HealthRate:              decimal.NewFromFloat(0.05),
		HealthMinBase:           decimal.NewFromInt(10000),
		HealthMaxBase:           decimal.NewFromInt(100000),
		HousingEmployeeRate:     decimal.NewFromFloat(0.02),
		HousingEmployerRate:     decimal.NewFromFloat(0.02),
		HousingBaseCap:          decimal.NewFromInt(10000),
		HousingMonthlyFloor:     decimal.NewFromInt(100),
		BenefitExemptionCeiling: decimal.NewFromInt(90000),
		CitizenNationality:      "Filipino",
		CutoffsPerYear:          24,
		WorkingDaysPerYear:      DefaultWorkingDaysPerYear,
	}
}

// IsNonCitizen reports whether the employee's nationality exempts them from
// the housing fund. Empty nationality is treated as citizen.
func (c StatutoryConfig) IsNonCitizen(e *EmployeeRecord) bool {
	if e.Nationality == "" {
		return false
	}
	return NormalizeName(e.Nationality) != NormalizeName(c.CitizenNationality)
}
