package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierTableFirst(t *testing.T) {
	classifier := NewClassifier(map[string]ComponentCategory{
		"Rice Subsidy": CategoryNonTaxableDeMin,
		// Table entry overrides the OVERTIME heuristic.
		"Overtime Meal": CategoryNonTaxableOther,
	})

	t.Run("table lookup is case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, CategoryNonTaxableDeMin, classifier.Classify("  rice   subsidy "))
		assert.Equal(t, CategoryNonTaxableDeMin, classifier.Classify("RICE SUBSIDY"))
	})

	t.Run("table wins over heuristics", func(t *testing.T) {
		assert.Equal(t, CategoryNonTaxableOther, classifier.Classify("Overtime Meal"))
	})
}

func TestClassifierHeuristics(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		name     string
		expected ComponentCategory
	}{
		{"De Minimis Laundry", CategoryNonTaxableDeMin},
		{"13th Month Pay", CategoryThirteenthMonth},
		{"Other Benefits", CategoryThirteenthMonth},
		{"Non-Taxable Allowance", CategoryNonTaxableOther},
		{"SSS Loan", CategoryDeduction},
		{"Cash Advance", CategoryDeduction},
		{"HMO Premium", CategoryDeduction},
		{"Salary Adjustment", CategoryBasicPayRelated},
		{"Overtime Pay", CategoryTaxableEarning},
		{"Night Diff", CategoryTaxableEarning},
		{"Transportation Allowance", CategoryTaxableEarning},
		{"Sales Commission", CategoryTaxableEarning},
		{"Expense Reimbursement", CategoryAddition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifier.Classify(tt.name))
		})
	}
}

func TestClassifierOrderMatters(t *testing.T) {
	classifier := NewClassifier(nil)

	// "NON-TAXABLE ALLOWANCE" matches both the NON-TAX and ALLOWANCE rules;
	// the earlier non-taxable rule must win.
	assert.Equal(t, CategoryNonTaxableOther, classifier.Classify("Non-Taxable Allowance"))
}

func TestClassifierUnclassified(t *testing.T) {
	classifier := NewClassifier(nil)

	assert.Equal(t, CategoryUnclassified, classifier.Classify("Mystery Component"))
}

func TestClassifyHeuristic(t *testing.T) {
	classifier := NewClassifier(map[string]ComponentCategory{
		"Rice Subsidy": CategoryNonTaxableDeMin,
	})

	t.Run("table hit is not heuristic", func(t *testing.T) {
		cat, heuristic := classifier.ClassifyHeuristic("Rice Subsidy")
		assert.Equal(t, CategoryNonTaxableDeMin, cat)
		assert.False(t, heuristic)
	})

	t.Run("pattern hit is heuristic", func(t *testing.T) {
		cat, heuristic := classifier.ClassifyHeuristic("Overtime Pay")
		assert.Equal(t, CategoryTaxableEarning, cat)
		assert.True(t, heuristic)
	})

	t.Run("no match is not heuristic", func(t *testing.T) {
		cat, heuristic := classifier.ClassifyHeuristic("Mystery Component")
		assert.Equal(t, CategoryUnclassified, cat)
		assert.False(t, heuristic)
	})
}

func TestCategoryIsEarning(t *testing.T) {
	earning := []ComponentCategory{
		CategoryBasicPayRelated,
		CategoryTaxableEarning,
		CategoryNonTaxableDeMin,
		CategoryNonTaxableOther,
		CategoryThirteenthMonth,
	}
	for _, cat := range earning {
		assert.True(t, cat.IsEarning(), "%s should be an earning", cat)
	}

	assert.False(t, CategoryDeduction.IsEarning())
	assert.False(t, CategoryAddition.IsEarning())
	assert.False(t, CategoryUnclassified.IsEarning())
}

func TestCategoryIsTaxable(t *testing.T) {
	assert.True(t, CategoryBasicPayRelated.IsTaxable())
	assert.True(t, CategoryTaxableEarning.IsTaxable())
	// Unclassified components are conservatively taxable.
	assert.True(t, CategoryUnclassified.IsTaxable())

	assert.False(t, CategoryNonTaxableDeMin.IsTaxable())
	assert.False(t, CategoryNonTaxableOther.IsTaxable())
	assert.False(t, CategoryThirteenthMonth.IsTaxable())
	assert.False(t, CategoryDeduction.IsTaxable())
}
