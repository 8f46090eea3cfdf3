package payroll

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriorTakenLedger records how much of each component has already been
// disbursed for an employee, scoped to the whole month and to the current
// half-period. The caller builds it from previously posted rows before a run
// starts; the engine only reads it. An empty ledger is valid and means
// nothing has been taken yet.
type PriorTakenLedger struct {
	month map[uuid.UUID]map[string]decimal.Decimal
	half  map[uuid.UUID]map[string]decimal.Decimal
}

// NewPriorTakenLedger returns an empty ledger.
func NewPriorTakenLedger() *PriorTakenLedger {
	return &PriorTakenLedger{
		month: make(map[uuid.UUID]map[string]decimal.Decimal),
		half:  make(map[uuid.UUID]map[string]decimal.Decimal),
	}
}

// RecordMonth accumulates an amount already taken within the month scope.
func (l *PriorTakenLedger) RecordMonth(employee uuid.UUID, component string, amount decimal.Decimal) {
	record(l.month, employee, component, amount)
}

// RecordHalf accumulates an amount already taken within the current half.
func (l *PriorTakenLedger) RecordHalf(employee uuid.UUID, component string, amount decimal.Decimal) {
	record(l.half, employee, component, amount)
}

func record(scope map[uuid.UUID]map[string]decimal.Decimal, employee uuid.UUID, component string, amount decimal.Decimal) {
	key := NormalizeName(component)
	if scope[employee] == nil {
		scope[employee] = make(map[string]decimal.Decimal)
	}
	scope[employee][key] = scope[employee][key].Add(amount)
}

// MonthTaken returns the amount of a component already disbursed this month.
func (l *PriorTakenLedger) MonthTaken(employee uuid.UUID, component string) decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	return l.month[employee][NormalizeName(component)]
}

// HalfTaken returns the amount of a component already disbursed this half.
func (l *PriorTakenLedger) HalfTaken(employee uuid.UUID, component string) decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	return l.half[employee][NormalizeName(component)]
}

// MonthComponents returns a copy of all month-scope component amounts for an
// employee. The regular runner uses it to rebuild the Half B PhilHealth base
// from Half A's basic-related disbursements.
func (l *PriorTakenLedger) MonthComponents(employee uuid.UUID) map[string]decimal.Decimal {
	if l == nil {
		return nil
	}
	src := l.month[employee]
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]decimal.Decimal, len(src))
	for name, amount := range src {
		out[name] = amount
	}
	return out
}
