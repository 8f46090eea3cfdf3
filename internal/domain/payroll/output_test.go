package payroll

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow() *OutputRow {
	emp := &EmployeeRecord{
		ID:   uuid.New(),
		Code: "E-001",
		Name: "Test Employee",
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	return NewOutputRow(emp, PeriodLabel(start, end), start, end)
}

func TestOutputRowSetGet(t *testing.T) {
	row := testRow()

	row.Set(ColBasicPay, decimal.NewFromInt(15000))

	assert.True(t, row.Get(ColBasicPay).Equal(decimal.NewFromInt(15000)))
	assert.True(t, row.Get("basic   pay").Equal(decimal.NewFromInt(15000)))
	assert.True(t, row.Get("UNKNOWN").IsZero())
	assert.True(t, row.Has(ColBasicPay))
	assert.False(t, row.Has("UNKNOWN"))
}

func TestOutputRowAddAccumulates(t *testing.T) {
	row := testRow()

	row.Add(ColOvertime, decimal.NewFromInt(300))
	row.Add(ColOvertime, decimal.NewFromInt(200))

	assert.True(t, row.Get(ColOvertime).Equal(decimal.NewFromInt(500)))
}

func TestOutputRowColumnOrder(t *testing.T) {
	row := testRow()

	row.Set(ColBasicPay, decimal.NewFromInt(15000))
	row.Add("Transportation Allowance", decimal.NewFromInt(500))
	row.Set(ColGrossPay, decimal.NewFromInt(15500))
	// Re-setting an existing column must not reorder it.
	row.Set(ColBasicPay, decimal.NewFromInt(16000))

	assert.Equal(t, []string{ColBasicPay, "TRANSPORTATION ALLOWANCE", ColGrossPay}, row.Columns())
}

func TestOutputRowMarshalJSON(t *testing.T) {
	row := testRow()
	row.Set(ColBasicPay, decimal.NewFromInt(15000))
	row.Set(ColNetPay, decimal.RequireFromString("13239.42"))

	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded struct {
		EmployeeCode string                     `json:"employee_code"`
		Columns      []string                   `json:"columns"`
		Values       map[string]decimal.Decimal `json:"values"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "E-001", decoded.EmployeeCode)
	assert.Equal(t, []string{ColBasicPay, ColNetPay}, decoded.Columns)
	assert.True(t, decoded.Values[ColNetPay].Equal(decimal.RequireFromString("13239.42")))
}

func TestSystemColumn(t *testing.T) {
	t.Run("statutory names resolve to their columns", func(t *testing.T) {
		col, ok := SystemColumn("sss ee")
		assert.True(t, ok)
		assert.Equal(t, ColSSSEmployee, col)

		col, ok = SystemColumn("Withholding Tax")
		assert.True(t, ok)
		assert.Equal(t, ColWithholdingTax, col)
	})

	t.Run("ordinary components do not", func(t *testing.T) {
		_, ok := SystemColumn("Transportation Allowance")
		assert.False(t, ok)
		_, ok = SystemColumn(ColBasicPay)
		assert.False(t, ok)
	})
}
