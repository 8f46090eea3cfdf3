package payroll

import (
	"github.com/shopspring/decimal"
)

// OvertimeType identifies an overtime multiplier entry.
type OvertimeType string

const (
	OvertimeRegular           OvertimeType = "regular"
	OvertimeNightDifferential OvertimeType = "night_differential"
	OvertimeRestDay           OvertimeType = "rest_day"
	OvertimeRegularHoliday    OvertimeType = "regular_holiday"
	OvertimeRestDayRegHoliday OvertimeType = "rest_day_regular_holiday"
)

// DefaultOvertimeMultipliers is the fallback multiplier set applied when the
// tenant configures none.
func DefaultOvertimeMultipliers() map[OvertimeType]decimal.Decimal {
	return map[OvertimeType]decimal.Decimal{
		OvertimeRegular:           decimal.NewFromFloat(1.25),
		OvertimeNightDifferential: decimal.NewFromFloat(0.10),
		OvertimeRestDay:           decimal.NewFromFloat(1.30),
		OvertimeRegularHoliday:    decimal.NewFromFloat(2.00),
		OvertimeRestDayRegHoliday: decimal.NewFromFloat(2.60),
	}
}

// RateConverter derives per-day, per-hour and per-minute rates from a base
// pay and pay basis. Each derivation step is rounded half-up to two decimals
// so chained conversions reproduce stored rates exactly.
type RateConverter struct {
	basePay     decimal.Decimal
	basis       PayBasis
	workingDays int
	multipliers map[OvertimeType]decimal.Decimal
}

// NewRateConverter builds a converter for an employee record. A nil or empty
// multiplier table falls back to the default set.
func NewRateConverter(e *EmployeeRecord, multipliers map[OvertimeType]decimal.Decimal) *RateConverter {
	if len(multipliers) == 0 {
		multipliers = DefaultOvertimeMultipliers()
	}
	return &RateConverter{
		basePay:     e.BasePay,
		basis:       e.PayBasis,
		workingDays: e.WorkingDays(),
		multipliers: multipliers,
	}
}

// DailyRate returns the per-day rate: monthly x 12 / workingDays for
// monthly-basis employees, the base pay itself for daily-basis.
func (r *RateConverter) DailyRate() decimal.Decimal {
	if r.basis == PayBasisDaily {
		return Round2(r.basePay)
	}
	days := decimal.NewFromInt(int64(r.workingDays))
	if days.IsZero() {
		return decimal.Zero
	}
	return Round2(r.basePay.Mul(twelve).Div(days))
}

// MonthlyRate returns the per-month rate: the inverse conversion for
// daily-basis employees, the base pay itself for monthly-basis.
func (r *RateConverter) MonthlyRate() decimal.Decimal {
	if r.basis == PayBasisMonthly {
		return Round2(r.basePay)
	}
	days := decimal.NewFromInt(int64(r.workingDays))
	return Round2(r.basePay.Mul(days).Div(twelve))
}

// HourlyRate returns the per-hour rate over an 8-hour day.
func (r *RateConverter) HourlyRate() decimal.Decimal {
	return Round2(r.DailyRate().Div(decimal.NewFromInt(8)))
}

// MinuteRate returns the per-minute rate.
func (r *RateConverter) MinuteRate() decimal.Decimal {
	return Round2(r.HourlyRate().Div(decimal.NewFromInt(60)))
}

// OvertimePay computes hourly rate x type multiplier x hours, rounded
// half-up. Unknown overtime types yield zero.
func (r *RateConverter) OvertimePay(otType OvertimeType, hours decimal.Decimal) decimal.Decimal {
	mult, ok := r.multipliers[otType]
	if !ok {
		return decimal.Zero
	}
	return Round2(r.HourlyRate().Mul(mult).Mul(hours))
}

// AbsenceDeduction is the negative of daily rate x days absent.
func (r *RateConverter) AbsenceDeduction(days decimal.Decimal) decimal.Decimal {
	return Round2(r.DailyRate().Mul(days)).Neg()
}

// TardinessDeduction is the negative of minute rate x minutes late.
func (r *RateConverter) TardinessDeduction(minutes decimal.Decimal) decimal.Decimal {
	return Round2(r.MinuteRate().Mul(minutes)).Neg()
}
