// Package expr holds the symbolic scalar expressions that appear in
// dynamics, guards, invariants and resets of a hybrid automaton.
//
// Expressions are immutable values and may be shared freely between the
// modes and transitions of different automata.
package expr

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/stateforward/go-hybrid/pkg/set"
)

var (
	ErrUnbound        = errors.New("unbound variable")
	ErrDivisionByZero = errors.New("division by zero")
)

// Valuation assigns values to variables by name.
type Valuation map[string]float64

type Expr interface {
	String() string
	Eval(valuation Valuation) (float64, error)
	collect(variables set.Set[string], parameters map[string]Parameter)
}

/******* Constant *******/

type Constant float64

func Const(value float64) Constant {
	return Constant(value)
}

func (c Constant) String() string {
	return strconv.FormatFloat(float64(c), 'g', -1, 64)
}

func (c Constant) Eval(Valuation) (float64, error) {
	return float64(c), nil
}

func (Constant) collect(set.Set[string], map[string]Parameter) {}

/******* Variable *******/

// Variable is a continuous quantity referenced by name. Whether it is read
// or driven is decided by the automaton that declares it.
type Variable struct {
	name string
}

func Var(name string) Variable {
	return Variable{name: name}
}

func (v Variable) Name() string {
	return v.name
}

func (v Variable) String() string {
	return v.name
}

func (v Variable) Eval(valuation Valuation) (float64, error) {
	value, ok := valuation[v.name]
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrUnbound, v.name)
	}
	return value, nil
}

func (v Variable) collect(variables set.Set[string], _ map[string]Parameter) {
	variables.Add(v.name)
}

/******* Parameter *******/

// Parameter is a named constant.
type Parameter struct {
	name  string
	value float64
}

func Param(name string, value float64) Parameter {
	return Parameter{name: name, value: value}
}

func (p Parameter) Name() string {
	return p.name
}

func (p Parameter) Value() float64 {
	return p.value
}

func (p Parameter) String() string {
	return p.name
}

func (p Parameter) Eval(Valuation) (float64, error) {
	return p.value, nil
}

// collect keeps the first binding of a name.
func (p Parameter) collect(_ set.Set[string], parameters map[string]Parameter) {
	if _, ok := parameters[p.name]; !ok {
		parameters[p.name] = p
	}
}

/******* Operators *******/

type binary struct {
	op    byte
	left  Expr
	right Expr
}

func (b binary) String() string {
	return "(" + b.left.String() + " " + string(b.op) + " " + b.right.String() + ")"
}

func (b binary) Eval(valuation Valuation) (float64, error) {
	left, err := b.left.Eval(valuation)
	if err != nil {
		return 0, err
	}
	right, err := b.right.Eval(valuation)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case '+':
		return left + right, nil
	case '-':
		return left - right, nil
	case '*':
		return left * right, nil
	case '/':
		if right == 0 {
			return 0, fmt.Errorf("%w in %s", ErrDivisionByZero, b)
		}
		return left / right, nil
	}
	return 0, fmt.Errorf("unknown operator %q", b.op)
}

func (b binary) collect(variables set.Set[string], parameters map[string]Parameter) {
	b.left.collect(variables, parameters)
	b.right.collect(variables, parameters)
}

type negation struct {
	operand Expr
}

func (n negation) String() string {
	return "-" + n.operand.String()
}

func (n negation) Eval(valuation Valuation) (float64, error) {
	value, err := n.operand.Eval(valuation)
	return -value, err
}

func (n negation) collect(variables set.Set[string], parameters map[string]Parameter) {
	n.operand.collect(variables, parameters)
}

func fold(op byte, first Expr, rest []Expr) Expr {
	result := first
	for _, next := range rest {
		result = binary{op: op, left: result, right: next}
	}
	return result
}

func Add(a, b Expr, more ...Expr) Expr {
	return fold('+', a, append([]Expr{b}, more...))
}

func Sub(a, b Expr) Expr {
	return binary{op: '-', left: a, right: b}
}

func Mul(a, b Expr, more ...Expr) Expr {
	return fold('*', a, append([]Expr{b}, more...))
}

func Div(a, b Expr) Expr {
	return binary{op: '/', left: a, right: b}
}

func Neg(a Expr) Expr {
	return negation{operand: a}
}

// Variables returns the names of the variables the expressions read, sorted.
func Variables(exprs ...Expr) []string {
	variables := set.New[string]()
	parameters := map[string]Parameter{}
	for _, e := range exprs {
		if e != nil {
			e.collect(variables, parameters)
		}
	}
	return set.Sorted(variables)
}

// Parameters returns the parameters the expressions reference, sorted by name.
func Parameters(exprs ...Expr) []Parameter {
	variables := set.New[string]()
	parameters := map[string]Parameter{}
	for _, e := range exprs {
		if e != nil {
			e.collect(variables, parameters)
		}
	}
	names := make([]string, 0, len(parameters))
	for name := range parameters {
		names = append(names, name)
	}
	slices.Sort(names)
	result := make([]Parameter, 0, len(names))
	for _, name := range names {
		result = append(result, parameters[name])
	}
	return result
}

/******* Predicate *******/

// Predicate is a conjunction of atoms, each of which holds when it
// evaluates to a non-negative value. The zero Predicate is true.
type Predicate struct {
	atoms []Expr
}

// AtLeastZero is the predicate e >= 0.
func AtLeastZero(e Expr) Predicate {
	return Predicate{atoms: []Expr{e}}
}

// GEQ is the predicate a >= b.
func GEQ(a, b Expr) Predicate {
	return AtLeastZero(Sub(a, b))
}

// LEQ is the predicate a <= b.
func LEQ(a, b Expr) Predicate {
	return AtLeastZero(Sub(b, a))
}

func (p Predicate) And(others ...Predicate) Predicate {
	atoms := append([]Expr{}, p.atoms...)
	for _, other := range others {
		atoms = append(atoms, other.atoms...)
	}
	return Predicate{atoms: atoms}
}

func (p Predicate) IsTrue() bool {
	return len(p.atoms) == 0
}

func (p Predicate) Atoms() []Expr {
	return append([]Expr{}, p.atoms...)
}

func (p Predicate) Variables() []string {
	return Variables(p.atoms...)
}

func (p Predicate) Holds(valuation Valuation) (bool, error) {
	for _, atom := range p.atoms {
		value, err := atom.Eval(valuation)
		if err != nil {
			return false, err
		}
		if value < 0 {
			return false, nil
		}
	}
	return true, nil
}

func (p Predicate) String() string {
	if p.IsTrue() {
		return "true"
	}
	parts := make([]string, len(p.atoms))
	for i, atom := range p.atoms {
		parts[i] = AtomString(atom)
	}
	return strings.Join(parts, " && ")
}

// AtomString renders a single predicate atom.
func AtomString(atom Expr) string {
	return atom.String() + " >= 0"
}
