// formula.go - Restricted arithmetic expression evaluator
//
// PURPOSE:
//   Evaluates concept formulas against a small fixed variable set. This is a
//   safety boundary: the evaluator can never execute arbitrary code. Concepts
//   are compiled to a typed AST at definition time and interpreted by a pure
//   evaluator with no side effects and no external calls.
//
// GRAMMAR:
//   expr    := term (('+' | '-') term)*
//   term    := factor (('*' | '/') factor)*
//   factor  := number | variable | '(' expr ')' | '-' factor
//
// VARIABLES:
//   baseAmount, rate, quantity, defaultAmount, defaultRate
//
// SAFETY CONTRACT:
//   After variable substitution the expression may contain only
//   [0-9+\-*/().\s]. The compiler enforces the equivalent property up front:
//   any token that is not a numeric literal, an operator, a parenthesis, or one
//   of the five known variables is rejected. A malformed or unsafe expression
//   fails closed - the catalog contributes zero for that concept and logs the
//   concept code with the raw expression for audit (see concept.go). The
//   failure never aborts the enclosing payroll calculation.
//
// EXAMPLE:
//   f, err := payroll.CompileFormula("baseAmount * defaultRate / 100")
//   amount, err := f.Evaluate(payroll.FormulaVars{...})
//
// SEE ALSO:
//   - concept.go: CalcFormula strategy delegates here and applies fail-closed
package payroll

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VARIABLES
// =============================================================================

// FormulaVars is the complete variable set visible to formulas.
type FormulaVars struct {
	BaseAmount    Money
	Rate          Money
	Quantity      Money
	DefaultAmount Money
	DefaultRate   Money
}

func (v FormulaVars) lookup(name string) (Money, bool) {
	switch name {
	case "baseAmount":
		return v.BaseAmount, true
	case "rate":
		return v.Rate, true
	case "quantity":
		return v.Quantity, true
	case "defaultAmount":
		return v.DefaultAmount, true
	case "defaultRate":
		return v.DefaultRate, true
	default:
		return decimal.Zero, false
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// FormulaError reports a compile or evaluation failure for one expression.
type FormulaError struct {
	Expression string
	Position   int
	Message    string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: %s (at %d)", e.Expression, e.Message, e.Position)
}

// =============================================================================
// AST
// =============================================================================

type formulaNode interface {
	eval(vars FormulaVars) (Money, error)
}

type literalNode struct{ value Money }

func (n literalNode) eval(FormulaVars) (Money, error) { return n.value, nil }

type variableNode struct{ name string }

func (n variableNode) eval(vars FormulaVars) (Money, error) {
	value, ok := vars.lookup(n.name)
	if !ok {
		return decimal.Zero, &FormulaError{Message: "unknown variable " + n.name}
	}
	return value, nil
}

type binaryNode struct {
	op          byte
	left, right formulaNode
}

func (n binaryNode) eval(vars FormulaVars) (Money, error) {
	left, err := n.left.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	right, err := n.right.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	switch n.op {
	case '+':
		return left.Add(right), nil
	case '-':
		return left.Sub(right), nil
	case '*':
		return left.Mul(right), nil
	case '/':
		if right.IsZero() {
			return decimal.Zero, &FormulaError{Message: "division by zero"}
		}
		return left.Div(right), nil
	}
	return decimal.Zero, &FormulaError{Message: "unknown operator"}
}

type negateNode struct{ operand formulaNode }

func (n negateNode) eval(vars FormulaVars) (Money, error) {
	value, err := n.operand.eval(vars)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Neg(), nil
}

// =============================================================================
// FORMULA - Compiled expression
// =============================================================================

// Formula is a compiled, reusable expression. Compile once at concept
// definition time; Evaluate is pure and deterministic.
type Formula struct {
	Source string
	root   formulaNode
}

// CompileFormula parses the expression into a typed AST. Any token outside
// the whitelist (numeric literals, the four operators, parentheses, and the
// five known variables) is rejected.
func CompileFormula(expression string) (*Formula, error) {
	p := &formulaParser{src: expression}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected character %q", p.src[p.pos])
	}
	return &Formula{Source: expression, root: root}, nil
}

// Evaluate interprets the formula against the variable set.
func (f *Formula) Evaluate(vars FormulaVars) (Money, error) {
	result, err := f.root.eval(vars)
	if err != nil {
		if fe, ok := err.(*FormulaError); ok && fe.Expression == "" {
			fe.Expression = f.Source
		}
		return decimal.Zero, err
	}
	return result, nil
}

// =============================================================================
// PARSER - Recursive descent
// =============================================================================

type formulaParser struct {
	src string
	pos int
}

func (p *formulaParser) errorf(format string, args ...any) error {
	return &FormulaError{
		Expression: p.src,
		Position:   p.pos,
		Message:    fmt.Sprintf(format, args...),
	}
}

func (p *formulaParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *formulaParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *formulaParser) parseExpr() (formulaNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *formulaParser) parseTerm() (formulaNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *formulaParser) parseFactor() (formulaNode, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil

	case c == '-':
		p.pos++
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return negateNode{operand: operand}, nil

	case c >= '0' && c <= '9', c == '.':
		return p.parseNumber()

	case isIdentStart(c):
		return p.parseVariable()

	case c == 0:
		return nil, p.errorf("unexpected end of expression")

	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *formulaParser) parseNumber() (formulaNode, error) {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
		p.pos++
	}
	value, err := decimal.NewFromString(p.src[start:p.pos])
	if err != nil {
		return nil, p.errorf("invalid number %q", p.src[start:p.pos])
	}
	return literalNode{value: value}, nil
}

func (p *formulaParser) parseVariable() (formulaNode, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if _, ok := (FormulaVars{}).lookup(name); !ok {
		p.pos = start
		return nil, p.errorf("unknown variable %q", name)
	}
	return variableNode{name: name}, nil
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// ValidateSubstituted enforces the post-substitution charset contract
// directly: after variables are replaced with numbers, nothing outside
// [0-9+\-*/().\s] may remain. Exposed for audit tooling that receives raw
// substituted expressions from outside the compiler.
func ValidateSubstituted(expression string) error {
	for i, r := range expression {
		if r >= '0' && r <= '9' || strings.ContainsRune("+-*/(). \t\n\r", r) {
			continue
		}
		return &FormulaError{Expression: expression, Position: i,
			Message: fmt.Sprintf("illegal character %q", r)}
	}
	return nil
}
