// Package hybrid assembles hybrid input/output automata: components with
// continuous dynamics per discrete location and a discrete event interface.
// Components are built once through the builder methods below, or produced
// by Compose and Fold, and are not modified afterwards.
package hybrid

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/stateforward/go-hybrid/embedded"
	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/kinds"
	"github.com/stateforward/go-hybrid/pkg/set"
)

type (
	Variable  = expr.Variable
	Parameter = expr.Parameter
	Element   = embedded.Element
)

/******* Element *******/

type element struct {
	kind uint64
	name string
	id   string
}

func (element *element) Kind() uint64 {
	if element == nil {
		return 0
	}
	return element.kind
}

func (element *element) Id() string {
	if element == nil {
		return ""
	}
	return element.id
}

func (element *element) Name() string {
	if element == nil {
		return ""
	}
	return element.name
}

/******* Mode *******/

type Mode struct {
	element
	dynamics  map[string]expr.Expr
	invariant expr.Predicate
}

func (mode *Mode) Location() string {
	return mode.name
}

// Dynamics maps each driven variable to its time derivative in this mode.
func (mode *Mode) Dynamics() map[string]expr.Expr {
	return maps.Clone(mode.dynamics)
}

func (mode *Mode) Dynamic(variable string) (expr.Expr, bool) {
	e, ok := mode.dynamics[variable]
	return e, ok
}

func (mode *Mode) Invariant() expr.Predicate {
	return mode.invariant
}

func (mode *Mode) String() string {
	return "DiscreteMode( location=" + mode.name +
		", dynamics=" + renderMap(mode.dynamics) +
		", invariant=" + mode.invariant.String() + " )"
}

/******* Transition *******/

type Transition struct {
	element
	event  string
	source string
	target string
	guard  expr.Predicate
	resets map[string]expr.Expr
}

// Assignment is one entry of a transition reset.
type Assignment struct {
	Variable Variable
	Value    expr.Expr
}

func Assign(variable Variable, value expr.Expr) Assignment {
	return Assignment{Variable: variable, Value: value}
}

func (transition *Transition) Event() string {
	return transition.event
}

func (transition *Transition) Source() string {
	return transition.source
}

func (transition *Transition) Target() string {
	return transition.target
}

func (transition *Transition) Guard() expr.Predicate {
	return transition.guard
}

func (transition *Transition) Resets() map[string]expr.Expr {
	return maps.Clone(transition.resets)
}

// Forced transitions are taken as soon as their guard holds.
func (transition *Transition) Forced() bool {
	return kinds.IsKind(transition.kind, kinds.Forced)
}

func (transition *Transition) String() string {
	return "DiscreteTransition( event=" + transition.event +
		", source=" + transition.source +
		", target=" + transition.target +
		", guard=" + transition.guard.String() +
		", reset=" + renderMap(transition.resets) +
		", kind=" + kinds.String(transition.kind) + " )"
}

/******* Component *******/

// Component is a hybrid input/output automaton.
type Component struct {
	element
	variables   map[string]uint64
	events      map[string]uint64
	modes       []*Mode
	locations   map[string]*Mode
	transitions []*Transition
}

func New(name string) *Component {
	return newComponent(name, kinds.Automaton)
}

func newComponent(name string, kind uint64) *Component {
	return &Component{
		element:   element{kind: kind, name: name, id: uuid.NewString()},
		variables: map[string]uint64{},
		events:    map[string]uint64{},
		locations: map[string]*Mode{},
	}
}

func (component *Component) fail(op string, err error, names ...string) {
	e := newError(op, component.name, err, names...)
	slog.Error("invalid automaton definition", "component", component.name, "op", op, "names", names, "error", err)
	panic(e)
}

func (component *Component) declare(table map[string]uint64, op string, name string, kind uint64) {
	if existing, ok := table[name]; ok && existing != kind {
		component.fail(op, ErrRoleConflict, name)
	}
	table[name] = kind
}

func (component *Component) AddInputVar(variables ...Variable) {
	for _, variable := range variables {
		component.declare(component.variables, "add input variable", variable.Name(), kinds.InputVariable)
	}
}

func (component *Component) AddOutputVar(variables ...Variable) {
	for _, variable := range variables {
		component.declare(component.variables, "add output variable", variable.Name(), kinds.OutputVariable)
	}
}

func (component *Component) AddInputEvent(events ...string) {
	for _, event := range events {
		component.declare(component.events, "add input event", event, kinds.InputEvent)
	}
}

func (component *Component) AddOutputEvent(events ...string) {
	for _, event := range events {
		component.declare(component.events, "add output event", event, kinds.OutputEvent)
	}
}

func (component *Component) AddInternalEvent(events ...string) {
	for _, event := range events {
		component.declare(component.events, "add internal event", event, kinds.InternalEvent)
	}
}

// NewMode registers a location. Every location must be registered before
// dynamics, invariants or transitions refer to it.
func (component *Component) NewMode(location string) *Mode {
	if _, ok := component.locations[location]; ok {
		component.fail("new mode", ErrDuplicateLocation, location)
	}
	return component.addMode(location)
}

func (component *Component) addMode(location string) *Mode {
	mode := &Mode{
		element:  element{kind: kinds.Mode, name: location},
		dynamics: map[string]expr.Expr{},
	}
	component.modes = append(component.modes, mode)
	component.locations[location] = mode
	return mode
}

func (component *Component) mode(op string, location string) *Mode {
	mode, ok := component.locations[location]
	if !ok {
		component.fail(op, ErrUnknownLocation, location)
	}
	return mode
}

func (component *Component) inScope(op string, exprs ...expr.Expr) {
	for _, name := range expr.Variables(exprs...) {
		if _, ok := component.variables[name]; !ok {
			component.fail(op, ErrUndeclaredVariable, name)
		}
	}
}

func (component *Component) driven(op string, variable string) {
	kind, ok := component.variables[variable]
	if !ok {
		component.fail(op, ErrUndeclaredVariable, variable)
	}
	if kind != kinds.OutputVariable {
		component.fail(op, ErrRoleConflict, variable)
	}
}

func (component *Component) SetDynamics(location string, variable Variable, dynamic expr.Expr) {
	const op = "set dynamics"
	mode := component.mode(op, location)
	component.driven(op, variable.Name())
	component.inScope(op, dynamic)
	mode.dynamics[variable.Name()] = dynamic
}

// NewInvariant conjoins predicate with the invariant of location.
func (component *Component) NewInvariant(location string, predicate expr.Predicate) {
	const op = "new invariant"
	mode := component.mode(op, location)
	component.inScope(op, predicate.Atoms()...)
	mode.invariant = mode.invariant.And(predicate)
}

func (component *Component) NewForcedTransition(event, source, target string, guard expr.Predicate, resets ...Assignment) *Transition {
	return component.newTransition("new forced transition", kinds.Forced, event, source, target, guard, resets)
}

func (component *Component) NewUnforcedTransition(event, source, target string, guard expr.Predicate, resets ...Assignment) *Transition {
	return component.newTransition("new unforced transition", kinds.Unforced, event, source, target, guard, resets)
}

func (component *Component) newTransition(op string, kind uint64, event, source, target string, guard expr.Predicate, assignments []Assignment) *Transition {
	if _, ok := component.events[event]; !ok {
		component.fail(op, ErrUndeclaredEvent, event)
	}
	component.mode(op, source)
	component.mode(op, target)
	component.inScope(op, guard.Atoms()...)
	resets := make(map[string]expr.Expr, len(assignments))
	for _, assignment := range assignments {
		component.driven(op, assignment.Variable.Name())
		component.inScope(op, assignment.Value)
		resets[assignment.Variable.Name()] = assignment.Value
	}
	return component.addTransition(kind, event, source, target, guard, resets)
}

func (component *Component) addTransition(kind uint64, event, source, target string, guard expr.Predicate, resets map[string]expr.Expr) *Transition {
	transition := &Transition{
		element: element{kind: kind, name: event + "(" + source + "->" + target + ")"},
		event:   event,
		source:  source,
		target:  target,
		guard:   guard,
		resets:  resets,
	}
	component.transitions = append(component.transitions, transition)
	return transition
}

/******* Queries *******/

func declared(table map[string]uint64, kind uint64) []string {
	result := set.New[string]()
	for name, k := range table {
		if k == kind {
			result.Add(name)
		}
	}
	return set.Sorted(result)
}

func (component *Component) InputVariables() []string {
	return declared(component.variables, kinds.InputVariable)
}

func (component *Component) OutputVariables() []string {
	return declared(component.variables, kinds.OutputVariable)
}

// VariableKind reports whether variable is an input or an output of the component.
func (component *Component) VariableKind(variable string) (uint64, bool) {
	kind, ok := component.variables[variable]
	return kind, ok
}

func (component *Component) InputEvents() []string {
	return declared(component.events, kinds.InputEvent)
}

func (component *Component) OutputEvents() []string {
	return declared(component.events, kinds.OutputEvent)
}

func (component *Component) InternalEvents() []string {
	return declared(component.events, kinds.InternalEvent)
}

func (component *Component) EventKind(event string) (uint64, bool) {
	kind, ok := component.events[event]
	return kind, ok
}

// Modes returns the modes in registration order. For a composed component
// the first mode is the location composition started from.
func (component *Component) Modes() []embedded.Mode {
	modes := make([]embedded.Mode, len(component.modes))
	for i, mode := range component.modes {
		modes[i] = mode
	}
	return modes
}

func (component *Component) Mode(location string) (*Mode, bool) {
	mode, ok := component.locations[location]
	return mode, ok
}

func (component *Component) HasMode(location string) bool {
	_, ok := component.locations[location]
	return ok
}

func (component *Component) Locations() []string {
	locations := make([]string, len(component.modes))
	for i, mode := range component.modes {
		locations[i] = mode.name
	}
	return locations
}

func (component *Component) Transitions() []embedded.Transition {
	transitions := make([]embedded.Transition, len(component.transitions))
	for i, transition := range component.transitions {
		transitions[i] = transition
	}
	return transitions
}

func (component *Component) TransitionsFrom(location string) []*Transition {
	var transitions []*Transition
	for _, transition := range component.transitions {
		if transition.source == location {
			transitions = append(transitions, transition)
		}
	}
	return transitions
}

// Enabled returns the transitions leaving location whose guard holds under
// valuation.
func (component *Component) Enabled(location string, valuation expr.Valuation) ([]*Transition, error) {
	if !component.HasMode(location) {
		return nil, newError("enabled", component.name, ErrUnknownLocation, location)
	}
	var enabled []*Transition
	for _, transition := range component.TransitionsFrom(location) {
		holds, err := transition.guard.Holds(valuation)
		if err != nil {
			return nil, err
		}
		if holds {
			enabled = append(enabled, transition)
		}
	}
	return enabled, nil
}

// Parameters returns every parameter referenced by the component's
// expressions, sorted by name.
func (component *Component) Parameters() []expr.Parameter {
	var exprs []expr.Expr
	for _, mode := range component.modes {
		exprs = append(exprs, inKeyOrder(mode.dynamics)...)
		exprs = append(exprs, mode.invariant.Atoms()...)
	}
	for _, transition := range component.transitions {
		exprs = append(exprs, transition.guard.Atoms()...)
		exprs = append(exprs, inKeyOrder(transition.resets)...)
	}
	return expr.Parameters(exprs...)
}

func inKeyOrder(exprs map[string]expr.Expr) []expr.Expr {
	result := make([]expr.Expr, 0, len(exprs))
	for _, key := range slices.Sorted(maps.Keys(exprs)) {
		result = append(result, exprs[key])
	}
	return result
}

func (component *Component) String() string {
	modes := make([]string, len(component.modes))
	for i, mode := range component.modes {
		modes[i] = mode.String()
	}
	transitions := make([]string, len(component.transitions))
	for i, transition := range component.transitions {
		transitions[i] = transition.String()
	}
	return "HybridAutomaton( name=" + component.name +
		", input_variables=" + renderList(component.InputVariables()) +
		", output_variables=" + renderList(component.OutputVariables()) +
		", input_events=" + renderList(component.InputEvents()) +
		", output_events=" + renderList(component.OutputEvents()) +
		", internal_events=" + renderList(component.InternalEvents()) +
		", modes=" + renderList(modes) +
		", transitions=" + renderList(transitions) + " )"
}

func renderList(items []string) string {
	return "[" + strings.Join(items, Separator) + "]"
}

func renderMap(m map[string]expr.Expr) string {
	keys := slices.Sorted(maps.Keys(m))
	entries := make([]string, len(keys))
	for i, key := range keys {
		entries[i] = key + ": " + m[key].String()
	}
	return "{" + strings.Join(entries, Separator) + "}"
}
