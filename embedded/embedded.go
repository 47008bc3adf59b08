package embedded

import (
	"github.com/stateforward/go-hybrid/expr"
)

type Element interface {
	Kind() uint64
	Id() string
}

type NamedElement interface {
	Element
	Name() string
}

type Mode interface {
	NamedElement
	Location() string
	Dynamics() map[string]expr.Expr
	Invariant() expr.Predicate
}

type Transition interface {
	NamedElement
	Event() string
	Source() string
	Target() string
	Guard() expr.Predicate
	Resets() map[string]expr.Expr
	Forced() bool
}

// Automaton is the read-only view of a finished component that renderers
// and exporters work against. Every slice is in a deterministic order.
type Automaton interface {
	NamedElement
	InputVariables() []string
	OutputVariables() []string
	InputEvents() []string
	OutputEvents() []string
	InternalEvents() []string
	Parameters() []expr.Parameter
	Modes() []Mode
	Transitions() []Transition
}
