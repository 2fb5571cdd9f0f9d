/*
concept.go - Compensation rule definitions and the read-only catalog

PURPOSE:
  A Concept is a configurable compensation rule (earning, deduction, or tax)
  with a calculation strategy. The ConceptCatalog is the read-only registry
  the calculator resolves concepts from; catalog maintenance (CRUD) is owned
  by separate tooling out of scope here.

CALCULATION STRATEGIES:
  fixed:      defaultValue * quantity
  percentage: (baseAmount * rate / 100) * quantity
  rate:       rate * quantity
  formula:    restricted expression over {baseAmount, rate, quantity,
              defaultAmount, defaultRate}

CLAMP AND ROUND ORDER:
  compute -> clamp to [minimumAmount, maximumAmount] -> round half-up to 2
  places. This exact order is load-bearing for numeric determinism: a raw
  30000 under a 50000 minimum yields exactly 50000.

FAIL-CLOSED FORMULAS:
  An unparseable or unsafe formula contributes zero for that single concept.
  The failure is logged with the concept code and raw expression for audit
  and does NOT abort the enclosing payroll calculation.

VERSIONING:
  Concepts referenced by a finalized payroll are immutable; retirement is
  soft-deactivation (Active=false), never deletion, preserving historical
  auditability.

SEE ALSO:
  - formula.go: Expression compiler and evaluator
  - calculator.go: Resolves concepts per payroll run
*/
package payroll

import (
	"log"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONCEPT - A single compensation rule
// =============================================================================

type Concept struct {
	Code ConceptCode
	Name string
	Type ConceptType

	CalculationType CalculationType
	DefaultValue    Money
	DefaultRate     Money

	// Formula is compiled once, at definition time. Nil unless
	// CalculationType == CalcFormula.
	Formula *Formula

	// Clamp bounds; nil means no clamp on that side.
	MinimumAmount *Money
	MaximumAmount *Money

	IsTaxable   bool
	IsMandatory bool
	Active      bool
}

// Deactivate returns a retired copy. Concepts are never hard-deleted.
func (c Concept) Deactivate() Concept {
	c.Active = false
	return c
}

// =============================================================================
// AMOUNT CALCULATION - Strategy dispatch + clamp + round
// =============================================================================

// CalculateAmount computes the concept's contribution for the given inputs.
// The result is always clamped then rounded. Formula failures fail closed to
// zero with an audit log line; they never propagate.
func (c Concept) CalculateAmount(baseAmount, rate, quantity Money) Money {
	raw := c.rawAmount(baseAmount, rate, quantity)
	return RoundMoney(c.clamp(raw))
}

func (c Concept) rawAmount(baseAmount, rate, quantity Money) Money {
	switch c.CalculationType {
	case CalcFixed:
		return c.DefaultValue.Mul(quantity)

	case CalcPercentage:
		return baseAmount.Mul(rate).Div(hundred).Mul(quantity)

	case CalcRate:
		return rate.Mul(quantity)

	case CalcFormula:
		if c.Formula == nil {
			log.Printf("payroll: concept %s has formula type but no compiled formula", c.Code)
			return decimal.Zero
		}
		result, err := c.Formula.Evaluate(FormulaVars{
			BaseAmount:    baseAmount,
			Rate:          rate,
			Quantity:      quantity,
			DefaultAmount: c.DefaultValue,
			DefaultRate:   c.DefaultRate,
		})
		if err != nil {
			// Fail closed: zero contribution, audited, calculation continues.
			log.Printf("payroll: formula evaluation failed for concept %s expression %q: %v",
				c.Code, c.Formula.Source, err)
			return decimal.Zero
		}
		return result

	default:
		log.Printf("payroll: concept %s has unknown calculation type %q", c.Code, c.CalculationType)
		return decimal.Zero
	}
}

func (c Concept) clamp(amount Money) Money {
	if c.MinimumAmount != nil && amount.LessThan(*c.MinimumAmount) {
		return *c.MinimumAmount
	}
	if c.MaximumAmount != nil && amount.GreaterThan(*c.MaximumAmount) {
		return *c.MaximumAmount
	}
	return amount
}

// =============================================================================
// CATALOG - Read-only registry
// =============================================================================

// ConceptCatalog is a read-only, code-keyed registry of concepts.
// Safe for concurrent readers.
type ConceptCatalog struct {
	mu       sync.RWMutex
	concepts map[ConceptCode]Concept
}

func NewCatalog(concepts ...Concept) *ConceptCatalog {
	c := &ConceptCatalog{concepts: make(map[ConceptCode]Concept, len(concepts))}
	for _, concept := range concepts {
		c.concepts[concept.Code] = concept
	}
	return c
}

// Register adds or replaces a concept definition. Intended for catalog
// loading at startup, not for mid-calculation mutation.
func (c *ConceptCatalog) Register(concept Concept) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.concepts[concept.Code] = concept
}

// Get returns the concept for a code.
func (c *ConceptCatalog) Get(code ConceptCode) (Concept, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	concept, ok := c.concepts[code]
	if !ok {
		return Concept{}, ErrConceptNotFound
	}
	return concept, nil
}

// ConceptFilter narrows catalog listings. Nil fields match everything;
// explicit filter parameters replace any implicit scope-style filtering.
type ConceptFilter struct {
	Type          *ConceptType
	Active        *bool
	MandatoryOnly bool
}

// List returns concepts matching the filter, ordered by code for
// deterministic iteration.
func (c *ConceptCatalog) List(filter ConceptFilter) []Concept {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []Concept
	for _, concept := range c.concepts {
		if filter.Type != nil && concept.Type != *filter.Type {
			continue
		}
		if filter.Active != nil && concept.Active != *filter.Active {
			continue
		}
		if filter.MandatoryOnly && !concept.IsMandatory {
			continue
		}
		result = append(result, concept)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

// =============================================================================
// DEFAULT CATALOG - Statutory concept set used by fixtures and cmd/server
// =============================================================================

// DefaultCatalog returns the statutory concept set the engine ships with:
// a fixed transport allowance earning, 4% health and 4% pension deductions
// computed against gross earnings, and a formula-based solidarity fund tax.
func DefaultCatalog() *ConceptCatalog {
	return NewCatalog(
		Concept{
			Code:            "TRANSPORT",
			Name:            "Transport allowance",
			Type:            ConceptEarning,
			CalculationType: CalcFixed,
			DefaultValue:    NewMoneyFromInt(140606),
			IsTaxable:       false,
			Active:          true,
		},
		Concept{
			Code:            "HEALTH",
			Name:            "Health contribution",
			Type:            ConceptDeduction,
			CalculationType: CalcPercentage,
			DefaultRate:     NewMoneyFromInt(4),
			IsMandatory:     true,
			Active:          true,
		},
		Concept{
			Code:            "PENSION",
			Name:            "Pension contribution",
			Type:            ConceptDeduction,
			CalculationType: CalcPercentage,
			DefaultRate:     NewMoneyFromInt(4),
			IsMandatory:     true,
			Active:          true,
		},
		Concept{
			Code:            "SOLIDARITY",
			Name:            "Solidarity fund",
			Type:            ConceptTax,
			CalculationType: CalcFormula,
			DefaultRate:     NewMoneyFromInt(1),
			Formula:         mustCompile("baseAmount * defaultRate / 100"),
			IsMandatory:     false,
			Active:          true,
		},
	)
}

func mustCompile(expression string) *Formula {
	f, err := CompileFormula(expression)
	if err != nil {
		panic(err)
	}
	return f
}
