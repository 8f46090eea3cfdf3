package payroll

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweldo/engine/internal/domain/shared"
)

func activeEmployee(code string, monthly int64) EmployeeRecord {
	return EmployeeRecord{
		ID:           uuid.New(),
		Code:         code,
		Name:         "Employee " + code,
		Status:       StatusActive,
		ContractType: ContractEmployee,
		PayBasis:     PayBasisMonthly,
		BasePay:      decimal.NewFromInt(monthly),
	}
}

func baseRunRequest(employees ...EmployeeRecord) RunRequest {
	return RunRequest{
		RunID:             uuid.New(),
		PeriodStart:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:         time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Employees:         employees,
		TaxTable:          testTaxTable(),
		ContributionTable: testContributionTable(),
		Ledger:            NewPriorTakenLedger(),
		Config:            DefaultStatutoryConfig(),
	}
}

func TestRunRegularHalfA(t *testing.T) {
	engine := NewEngine(nil)
	req := baseRunRequest(activeEmployee("E-001", 30000))
	req.Half = HalfA

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Equal(t, "E-001", row.EmployeeCode)
	assert.Equal(t, "Jan 1 - Jan 15, 2026", row.PeriodLabel)

	assertAmount(t, "15000", row.Get(ColBasicPay), "basic pay")
	assertAmount(t, "-675", row.Get(ColSSSEmployee), "SSS EE")
	assertAmount(t, "-112.50", row.Get(ColSSSProvidentEE), "SSS MPF EE")
	assertAmount(t, "-375", row.Get(ColPhilHealthEmployee), "PhilHealth EE")
	assertAmount(t, "-100", row.Get(ColPagIBIGEmployee), "Pag-IBIG EE")

	// Employer shares defer to Half B.
	assert.True(t, row.Get(ColSSSEmployer).IsZero())
	assert.True(t, row.Get(ColPhilHealthEmployer).IsZero())
	assert.True(t, row.Get(ColPagIBIGEmployer).IsZero())

	assertAmount(t, "13737.50", row.Get(ColTaxableIncome), "taxable income")
	assertAmount(t, "-498.08", row.Get(ColWithholdingTax), "withholding tax")
	assertAmount(t, "15000", row.Get(ColGrossPay), "gross pay")
	assertAmount(t, "13239.42", row.Get(ColNetPay), "net pay")

	assert.Equal(t, 1, result.Totals.EmployeeCount)
	assertAmount(t, "15000", result.Totals.TotalGross, "total gross")
	assertAmount(t, "13239.42", result.Totals.TotalNet, "total net")
}

func TestRunRegularRequiresHalf(t *testing.T) {
	engine := NewEngine(nil)
	req := baseRunRequest(activeEmployee("E-001", 30000))

	_, err := engine.RunRegular(req)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestRunValidation(t *testing.T) {
	engine := NewEngine(nil)

	t.Run("inverted period", func(t *testing.T) {
		req := baseRunRequest(activeEmployee("E-001", 30000))
		req.Half = HalfA
		req.PeriodStart, req.PeriodEnd = req.PeriodEnd, req.PeriodStart

		_, err := engine.RunRegular(req)
		assert.ErrorIs(t, err, shared.ErrEmptyRunPeriod)
	})

	t.Run("no employees", func(t *testing.T) {
		req := baseRunRequest()
		req.Half = HalfA

		_, err := engine.RunRegular(req)
		assert.ErrorIs(t, err, shared.ErrNoEmployees)
	})

	t.Run("tax table does not cover the period", func(t *testing.T) {
		req := baseRunRequest(activeEmployee("E-001", 30000))
		req.Half = HalfA
		req.TaxTable.EffectiveFrom = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

		_, err := engine.RunRegular(req)
		assert.ErrorIs(t, err, shared.ErrNoBracketTable)
	})

	t.Run("unpublished contribution table", func(t *testing.T) {
		req := baseRunRequest(activeEmployee("E-001", 30000))
		req.Half = HalfA
		req.ContributionTable.Published = false

		_, err := engine.RunRegular(req)
		assert.ErrorIs(t, err, shared.ErrNoBracketTable)
	})

	t.Run("adjustment for unknown employee", func(t *testing.T) {
		req := baseRunRequest(activeEmployee("E-001", 30000))
		req.Half = HalfA
		req.Adjustments = []Adjustment{{
			EmployeeID: uuid.Nil,
			Component:  "Transportation Allowance",
			Amount:     decimal.NewFromInt(500),
		}}

		_, err := engine.RunRegular(req)
		assert.ErrorIs(t, err, shared.ErrUnknownEmployee)
	})
}

func TestRunSkipsIneligibleEmployees(t *testing.T) {
	engine := NewEngine(nil)

	inactive := activeEmployee("E-INACTIVE", 30000)
	inactive.Status = StatusInactive

	hiredLater := activeEmployee("E-FUTURE", 30000)
	hiredLater.HireDate = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	separated := activeEmployee("E-GONE", 30000)
	gone := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	separated.SeparationDate = &gone

	nameless := activeEmployee("E-NONAME", 30000)
	nameless.Name = ""

	req := baseRunRequest(activeEmployee("E-001", 30000), inactive, hiredLater, separated, nameless)
	req.Half = HalfA

	result, err := engine.RunRegular(req)
	require.NoError(t, err)

	assert.Len(t, result.Rows, 1)
	assert.ElementsMatch(t, []string{"E-INACTIVE", "E-FUTURE", "E-GONE", "E-NONAME"}, result.Skipped)
}

func TestSplitConservation(t *testing.T) {
	engine := NewEngine(nil)
	emp := activeEmployee("E-001", 30000)

	// Half A on an empty ledger.
	reqA := baseRunRequest(emp)
	reqA.Half = HalfA
	resultA, err := engine.RunRegular(reqA)
	require.NoError(t, err)
	rowA := resultA.Rows[0]

	// Post Half A into the month ledger the way the caller would.
	ledger := NewPriorTakenLedger()
	for _, col := range rowA.Columns() {
		ledger.RecordMonth(emp.ID, col, rowA.Get(col))
	}

	reqB := baseRunRequest(emp)
	reqB.Half = HalfB
	reqB.PeriodStart = time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	reqB.PeriodEnd = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	reqB.Ledger = ledger
	resultB, err := engine.RunRegular(reqB)
	require.NoError(t, err)
	rowB := resultB.Rows[0]

	// The reference: one monthly run over the same compensation.
	reqM := baseRunRequest(activeEmployee("E-REF", 30000))
	reqM.PeriodEnd = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	resultM, err := engine.RunMonthly(reqM)
	require.NoError(t, err)
	rowM := resultM.Rows[0]

	conserved := []string{
		ColBasicPay,
		ColSSSEmployee,
		ColSSSProvidentEE,
		ColPhilHealthEmployee,
		ColPagIBIGEmployee,
		ColWithholdingTax,
		ColGrossPay,
	}
	for _, col := range conserved {
		sum := rowA.Get(col).Add(rowB.Get(col))
		assert.True(t, SameAmount(sum, rowM.Get(col)),
			"%s: A %s + B %s = %s, monthly %s",
			col, rowA.Get(col), rowB.Get(col), sum, rowM.Get(col))
	}

	// Half B carries the deferred employer shares in full.
	assertAmount(t, "2550", rowB.Get(ColSSSEmployer), "SSS ER")
	assertAmount(t, "450", rowB.Get(ColSSSProvidentER), "SSS MPF ER")
	assertAmount(t, "30", rowB.Get(ColSSSCompensation), "SSS EC")
	assertAmount(t, "750", rowB.Get(ColPhilHealthEmployer), "PhilHealth ER")
	assertAmount(t, "200", rowB.Get(ColPagIBIGEmployer), "Pag-IBIG ER")

	// The Half B true-up: monthly tax 996.30 minus the 498.08 A withheld.
	assertAmount(t, "-498.22", rowB.Get(ColWithholdingTax), "Half B tax")
}

func TestRunMonthly(t *testing.T) {
	engine := NewEngine(nil)
	req := baseRunRequest(activeEmployee("E-001", 30000))
	req.PeriodEnd = time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	result, err := engine.RunMonthly(req)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assertAmount(t, "30000", row.Get(ColBasicPay), "basic pay")
	assertAmount(t, "-1350", row.Get(ColSSSEmployee), "SSS EE")
	assertAmount(t, "-225", row.Get(ColSSSProvidentEE), "SSS MPF EE")
	assertAmount(t, "-750", row.Get(ColPhilHealthEmployee), "PhilHealth EE")
	assertAmount(t, "-200", row.Get(ColPagIBIGEmployee), "Pag-IBIG EE")
	assertAmount(t, "2550", row.Get(ColSSSEmployer), "SSS ER")
	assertAmount(t, "27475", row.Get(ColTaxableIncome), "taxable income")
	assertAmount(t, "-996.30", row.Get(ColWithholdingTax), "withholding tax")
	assertAmount(t, "26478.70", row.Get(ColNetPay), "net pay")
}

func TestRunSpecial(t *testing.T) {
	engine := NewEngine(nil)
	emp := activeEmployee("E-001", 30000)

	req := baseRunRequest(emp)
	req.RunCode = "13TH-2026"
	req.Adjustments = []Adjustment{{
		EmployeeID: emp.ID,
		Component:  "13th Month Pay",
		Amount:     decimal.NewFromInt(100000),
	}}

	result, err := engine.RunSpecial(req)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	row := result.Rows[0]
	assert.Contains(t, row.PeriodLabel, "13TH-2026")

	// Special runs have no masterfile basic pay.
	assert.False(t, row.Has(ColBasicPay))
	assertAmount(t, "100000", row.Get("13TH MONTH PAY"), "13th month")
	assertAmount(t, "100000", row.Get(ColGrossPay), "gross pay")

	// Contributions mirror Half A; no regular taxable income remains.
	assertAmount(t, "-675", row.Get(ColSSSEmployee), "SSS EE")
	assert.True(t, row.Get(ColTaxableIncome).IsZero())

	// With no regular income this period, the projection falls back to the
	// masterfile rate: 30000 x 12 = 360000 sits in the 15% annual bracket,
	// so the 10000 over the 90000 ceiling is taxed at that marginal rate.
	assertAmount(t, "-1500", row.Get(ColWithholdingTax), "withholding tax")
	assertAmount(t, "97237.50", row.Get(ColNetPay), "net pay")
}

func TestRunSpecialBenefitExcessNeverEscapesTax(t *testing.T) {
	engine := NewEngine(nil)
	emp := activeEmployee("E-001", 30000)

	req := baseRunRequest(emp)
	req.RunCode = "13TH-2026"
	req.Adjustments = []Adjustment{{
		EmployeeID: emp.ID,
		Component:  "13th Month Pay",
		Amount:     decimal.NewFromInt(100000),
	}}

	result, err := engine.RunSpecial(req)
	require.NoError(t, err)

	// Even with an empty YTD, the excess over the exemption ceiling must
	// carry withholding: the marginal rate comes from the employee's
	// annualized monthly rate, never from the period's zero income.
	row := result.Rows[0]
	assert.True(t, row.Get(ColWithholdingTax).IsNegative(),
		"benefit excess left untaxed: %s", row.Get(ColWithholdingTax))
}

func TestRunSpecialRequiresCode(t *testing.T) {
	engine := NewEngine(nil)
	req := baseRunRequest(activeEmployee("E-001", 30000))

	_, err := engine.RunSpecial(req)

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestRunDailyBasisHalfA(t *testing.T) {
	engine := NewEngine(nil)

	emp := activeEmployee("E-002", 0)
	emp.PayBasis = PayBasisDaily
	emp.BasePay = decimal.NewFromInt(800)

	req := baseRunRequest(emp)
	req.Half = HalfA
	req.Attendance = map[uuid.UUID]AttendanceRecord{
		emp.ID: {DaysWorked: decimal.NewFromInt(10)},
	}

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	row := result.Rows[0]

	// Basic pay is attendance-driven: 800 x 10.
	assertAmount(t, "8000", row.Get(ColBasicPay), "basic pay")

	// Monthly equivalent 17400 lands in the middle bracket; insurance
	// programs collect in full up front, employer shares included.
	assertAmount(t, "-900", row.Get(ColSSSEmployee), "SSS EE")
	assertAmount(t, "-435", row.Get(ColPhilHealthEmployee), "PhilHealth EE")
	assertAmount(t, "-100", row.Get(ColPagIBIGEmployee), "Pag-IBIG EE")
	assertAmount(t, "1830", row.Get(ColSSSEmployer), "SSS ER")
	assertAmount(t, "435", row.Get(ColPhilHealthEmployer), "PhilHealth ER")

	assertAmount(t, "6565", row.Get(ColTaxableIncome), "taxable income")
	assert.True(t, row.Get(ColWithholdingTax).IsZero())
	assertAmount(t, "6565", row.Get(ColNetPay), "net pay")
}

func TestRunRetirementAppliedStopsSocialInsurance(t *testing.T) {
	engine := NewEngine(nil)

	emp := activeEmployee("E-009", 30000)
	emp.AppliedForRetirement = true

	req := baseRunRequest(emp)
	req.Half = HalfA

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	row := result.Rows[0]

	// Social-insurance contributions stop after the retirement filing;
	// health and housing continue unchanged.
	assert.True(t, row.Get(ColSSSEmployee).IsZero())
	assert.True(t, row.Get(ColSSSProvidentEE).IsZero())
	assertAmount(t, "-375", row.Get(ColPhilHealthEmployee), "PhilHealth EE")
	assertAmount(t, "-100", row.Get(ColPagIBIGEmployee), "Pag-IBIG EE")

	// Taxable income is reduced only by the shares still collected:
	// 15000 - 475 = 14525, taxed at 15% over the 10417 threshold.
	assertAmount(t, "14525", row.Get(ColTaxableIncome), "taxable income")
	assertAmount(t, "-616.20", row.Get(ColWithholdingTax), "withholding tax")
}

func TestRunAttendanceAndRecurringPay(t *testing.T) {
	engine := NewEngine(nil)

	emp := activeEmployee("E-003", 22000)
	emp.RecurringPay = map[string]decimal.Decimal{
		"Transportation Allowance": decimal.NewFromInt(1000),
	}

	req := baseRunRequest(emp)
	req.Half = HalfA
	req.Attendance = map[uuid.UUID]AttendanceRecord{
		emp.ID: {
			AbsentDays:   decimal.NewFromInt(1),
			TardyMinutes: decimal.NewFromInt(30),
			OvertimeHours: map[OvertimeType]decimal.Decimal{
				OvertimeRegular: decimal.NewFromInt(2),
			},
		},
	}
	req.Adjustments = []Adjustment{{
		EmployeeID: emp.ID,
		Component:  "Mystery Component",
		Amount:     decimal.NewFromInt(200),
	}}

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	row := result.Rows[0]

	assertAmount(t, "11000", row.Get(ColBasicPay), "basic pay")
	assertAmount(t, "500", row.Get("TRANSPORTATION ALLOWANCE"), "allowance split")
	assertAmount(t, "316.10", row.Get(ColOvertime), "overtime")
	assertAmount(t, "-1011.49", row.Get(ColAbsence), "absence")
	assertAmount(t, "-63.30", row.Get(ColTardiness), "tardiness")
	assertAmount(t, "200", row.Get("MYSTERY COMPONENT"), "unclassified adjustment")

	// Unworked time reduces gross; the unclassified component is
	// conservatively taxable.
	assertAmount(t, "10941.31", row.Get(ColGrossPay), "gross pay")
	assertAmount(t, "10129.74", row.Get(ColTaxableIncome), "taxable income")

	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, WarnHeuristicComponent)
	assert.Contains(t, codes, WarnUnclassified)
}

func TestRunComponentModes(t *testing.T) {
	engine := NewEngine(nil)

	newReq := func(mode ComponentMode, half PeriodHalf) RunRequest {
		emp := activeEmployee("E-004", 20000)
		emp.RecurringPay = map[string]decimal.Decimal{
			"Internet Allowance": decimal.NewFromInt(1000),
		}
		req := baseRunRequest(emp)
		req.Half = half
		req.Components = map[string]ComponentCategory{
			"Internet Allowance": CategoryNonTaxableOther,
		}
		req.ComponentModes = map[string]ComponentMode{
			"INTERNET ALLOWANCE": mode,
		}
		return req
	}

	t.Run("first mode pays everything in Half A", func(t *testing.T) {
		result, err := engine.RunRegular(newReq(ModeFirst, HalfA))
		require.NoError(t, err)
		assertAmount(t, "1000", result.Rows[0].Get("INTERNET ALLOWANCE"), "allowance")
	})

	t.Run("first mode pays nothing in Half B", func(t *testing.T) {
		result, err := engine.RunRegular(newReq(ModeFirst, HalfB))
		require.NoError(t, err)
		assert.False(t, result.Rows[0].Has("INTERNET ALLOWANCE"))
	})

	t.Run("second mode pays nothing in Half A", func(t *testing.T) {
		result, err := engine.RunRegular(newReq(ModeSecond, HalfA))
		require.NoError(t, err)
		assert.False(t, result.Rows[0].Has("INTERNET ALLOWANCE"))
	})

	t.Run("second mode pays everything in Half B", func(t *testing.T) {
		result, err := engine.RunRegular(newReq(ModeSecond, HalfB))
		require.NoError(t, err)
		assertAmount(t, "1000", result.Rows[0].Get("INTERNET ALLOWANCE"), "allowance")
	})
}

func TestRunSystemAdjustments(t *testing.T) {
	engine := NewEngine(nil)
	emp := activeEmployee("E-005", 30000)

	req := baseRunRequest(emp)
	req.Half = HalfA
	req.Adjustments = []Adjustment{{
		EmployeeID: emp.ID,
		Component:  "SSS EE",
		Amount:     decimal.NewFromInt(-50),
	}}

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	row := result.Rows[0]

	// The adjustment posts to the statutory column, not as an earning.
	assertAmount(t, "-725", row.Get(ColSSSEmployee), "SSS EE with adjustment")
	assertAmount(t, "15000", row.Get(ColGrossPay), "gross pay unchanged")

	// The extra 50 reduces taxable income before the bracket lookup.
	assertAmount(t, "13687.50", row.Get(ColTaxableIncome), "taxable income")
	assertAmount(t, "-490.58", row.Get(ColWithholdingTax), "withholding tax")
}

func TestRunConsultant(t *testing.T) {
	engine := NewEngine(nil)

	emp := activeEmployee("C-001", 50000)
	emp.ContractType = ContractConsultant
	emp.ConsultantTaxRate = decimal.RequireFromString("0.10")

	req := baseRunRequest(emp)
	req.Half = HalfA

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	row := result.Rows[0]

	// Consultants carry no statutory contributions.
	assert.True(t, row.Get(ColSSSEmployee).IsZero())
	assert.True(t, row.Get(ColPhilHealthEmployee).IsZero())
	assert.True(t, row.Get(ColPagIBIGEmployee).IsZero())

	assertAmount(t, "25000", row.Get(ColBasicPay), "basic pay")
	assertAmount(t, "-2500", row.Get(ColWithholdingTax), "flat withholding")
	assertAmount(t, "22500", row.Get(ColNetPay), "net pay")
}

func TestRunMinimumWageEarner(t *testing.T) {
	engine := NewEngine(nil)

	emp := activeEmployee("E-006", 15000)
	emp.IsMinimumWage = true

	req := baseRunRequest(emp)
	req.Half = HalfA

	result, err := engine.RunRegular(req)
	require.NoError(t, err)
	row := result.Rows[0]

	assert.True(t, row.Get(ColWithholdingTax).IsZero())
	// Contributions still apply.
	assert.True(t, row.Get(ColSSSEmployee).IsNegative())
}

func TestRunRecomputationIsIdempotent(t *testing.T) {
	engine := NewEngine(nil)
	emp := activeEmployee("E-007", 30000)

	build := func() RunRequest {
		req := baseRunRequest(emp)
		req.Half = HalfA
		req.Attendance = map[uuid.UUID]AttendanceRecord{
			emp.ID: {TardyMinutes: decimal.NewFromInt(15)},
		}
		return req
	}

	first, err := engine.RunRegular(build())
	require.NoError(t, err)
	second, err := engine.RunRegular(build())
	require.NoError(t, err)

	require.Len(t, second.Rows, len(first.Rows))
	for i, row := range first.Rows {
		other := second.Rows[i]
		assert.Equal(t, row.Columns(), other.Columns())
		for _, col := range row.Columns() {
			assert.True(t, row.Get(col).Equal(other.Get(col)),
				"%s: %s vs %s", col, row.Get(col), other.Get(col))
		}
	}
}

func TestRunProgressReporting(t *testing.T) {
	engine := NewEngine(nil)
	req := baseRunRequest(
		activeEmployee("E-001", 30000),
		activeEmployee("E-002", 20000),
	)
	req.Half = HalfA

	var percents []int
	req.Progress = func(percent int, message string) {
		percents = append(percents, percent)
	}

	_, err := engine.RunRegular(req)
	require.NoError(t, err)

	require.Len(t, percents, 2)
	assert.Equal(t, 50, percents[0])
	assert.Equal(t, 100, percents[1])
}
