package payroll

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentCategory is the semantic bucket of a named pay line item. It
// governs tax treatment, gross-pay inclusion and contribution-base handling.
type ComponentCategory string

const (
	CategoryBasicPayRelated ComponentCategory = "BASIC_PAY_RELATED"
	CategoryTaxableEarning  ComponentCategory = "TAXABLE_EARNING"
	CategoryNonTaxableDeMin ComponentCategory = "NON_TAXABLE_DE_MINIMIS"
	CategoryNonTaxableOther ComponentCategory = "NON_TAXABLE_OTHER"
	CategoryThirteenthMonth ComponentCategory = "THIRTEENTH_MONTH_OTHER_BENEFITS"
	CategoryDeduction       ComponentCategory = "DEDUCTION"
	CategoryAddition        ComponentCategory = "ADDITION"
	CategoryUnclassified    ComponentCategory = ""
)

// ComponentMode determines how a monthly intended amount is apportioned
// across the two halves of a semi-monthly cycle.
type ComponentMode string

const (
	ModeSplit  ComponentMode = "split"  // half in A, true-up in B
	ModeFirst  ComponentMode = "first"  // full amount in A only
	ModeSecond ComponentMode = "second" // full amount in B only
)

// Adjustment is a named signed amount an employee receives or owes for one
// period. Category may be pre-assigned by the adjustment workflow; when
// empty the classifier decides.
type Adjustment struct {
	EmployeeID uuid.UUID
	Component  string
	Amount     decimal.Decimal
	Category   ComponentCategory
}

// classifierRule pairs an ordered fallback predicate with its category.
type classifierRule struct {
	pattern  *regexp.Regexp
	category ComponentCategory
}

// defaultRules are the ordered heuristics applied when the tenant table has
// no entry for a component name. Order matters: the first match wins.
var defaultRules = []classifierRule{
	{regexp.MustCompile(`DE\s*MINIMIS`), CategoryNonTaxableDeMin},
	{regexp.MustCompile(`13TH\s*MONTH|OTHER\s*BENEFIT`), CategoryThirteenthMonth},
	{regexp.MustCompile(`NON[\s-]*TAX`), CategoryNonTaxableOther},
	{regexp.MustCompile(`LOAN|DEDUCTION|ADVANCE|HMO`), CategoryDeduction},
	{regexp.MustCompile(`BASIC\s*PAY|SALARY\s*ADJ`), CategoryBasicPayRelated},
	{regexp.MustCompile(`OVERTIME|HOLIDAY\s*PAY|NIGHT\s*DIFF`), CategoryTaxableEarning},
	{regexp.MustCompile(`ALLOWANCE|COMMISSION|INCENTIVE`), CategoryTaxableEarning},
	{regexp.MustCompile(`REIMBURSE`), CategoryAddition},
}

// Classifier resolves component names to categories: tenant-supplied table
// first, ordered regex heuristics second. It is pure and safe for
// concurrent use once built.
type Classifier struct {
	table map[string]ComponentCategory
	rules []classifierRule
}

// NewClassifier builds a classifier over a tenant name table. Keys are
// normalized so lookups are case- and whitespace-insensitive.
func NewClassifier(table map[string]ComponentCategory) *Classifier {
	normalized := make(map[string]ComponentCategory, len(table))
	for name, cat := range table {
		normalized[NormalizeName(name)] = cat
	}
	return &Classifier{table: normalized, rules: defaultRules}
}

// Classify returns the category of a component name, or
// CategoryUnclassified when neither the table nor the heuristics match.
// Callers must treat unclassified components conservatively (taxable).
func (c *Classifier) Classify(name string) ComponentCategory {
	key := NormalizeName(name)
	if cat, ok := c.table[key]; ok {
		return cat
	}
	for _, rule := range c.rules {
		if rule.pattern.MatchString(key) {
			return rule.category
		}
	}
	return CategoryUnclassified
}

// ClassifyHeuristic reports whether the returned category came from the
// fallback heuristics rather than the tenant table. Runs surface this as a
// warning for auditability.
func (c *Classifier) ClassifyHeuristic(name string) (ComponentCategory, bool) {
	key := NormalizeName(name)
	if cat, ok := c.table[key]; ok {
		return cat, false
	}
	for _, rule := range c.rules {
		if rule.pattern.MatchString(key) {
			return rule.category, true
		}
	}
	return CategoryUnclassified, false
}

// IsEarning reports whether the category contributes to gross pay.
func (cat ComponentCategory) IsEarning() bool {
	switch cat {
	case CategoryBasicPayRelated, CategoryTaxableEarning,
		CategoryNonTaxableDeMin, CategoryNonTaxableOther,
		CategoryThirteenthMonth:
		return true
	}
	return false
}

// IsTaxable reports whether the category enters periodic taxable income.
// Unclassified components are conservatively taxable.
func (cat ComponentCategory) IsTaxable() bool {
	switch cat {
	case CategoryBasicPayRelated, CategoryTaxableEarning, CategoryUnclassified:
		return true
	}
	return false
}
