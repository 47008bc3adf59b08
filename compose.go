package hybrid

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/kinds"
	"github.com/stateforward/go-hybrid/pkg/set"
	"github.com/stateforward/go-hybrid/pkg/telemetry"
	"github.com/stateforward/go-hybrid/queue"
)

// LocationSeparator joins the atomic locations of a compound location.
const LocationSeparator = ","

// Compound names the location of a system whose constituents are at the
// given locations, in composition order.
func Compound(locations ...string) string {
	return strings.Join(locations, LocationSeparator)
}

type locationPair struct {
	a string
	b string
}

func (p locationPair) String() string {
	return Compound(p.a, p.b)
}

// Compose synchronizes a and b into a new component named name, starting
// from the pair of locations (locA, locB).
//
// Events declared by both operands synchronize: the result may only take
// them when both sides have an enabled transition, and an output/input pair
// becomes internal. Events declared by one operand only are taken
// unilaterally. Modes are registered for every compound location reachable
// from Compound(locA, locB), which is always the first mode of the result.
// Neither operand is modified.
func Compose(name string, a, b *Component, locA, locB string, maybeOptions ...Option) (result *Component, err error) {
	const op = "compose"
	o := makeOptions(maybeOptions)
	_, span := telemetry.Start(o.ctx, o.tracer, "Compose",
		attribute.String("hybrid.name", name),
		attribute.String("hybrid.location", Compound(locA, locB)),
	)
	defer func() { telemetry.End(span, err) }()

	if a == nil || b == nil {
		return nil, newError(op, name, ErrEmptySystem)
	}
	if !a.HasMode(locA) {
		return nil, newError(op, name, ErrLocationMismatch, a.Name(), locA)
	}
	if !b.HasMode(locB) {
		return nil, newError(op, name, ErrLocationMismatch, b.Name(), locB)
	}

	outputsA := set.New(a.OutputVariables()...)
	outputsB := set.New(b.OutputVariables()...)
	if overlap := outputsA.Intersection(outputsB); overlap.Size() > 0 {
		return nil, newError(op, name, ErrOutputConflict, set.Sorted(overlap)...)
	}
	if clashes := parameterClashes(a.Parameters(), b.Parameters()); len(clashes) > 0 {
		return nil, newError(op, name, ErrParameterConflict, clashes...)
	}

	result = newComponent(name, kinds.Compound)
	outputs := outputsA.Union(outputsB)
	inputs := set.New(a.InputVariables()...).Union(set.New(b.InputVariables()...)).Difference(outputs)
	for variable := range outputs {
		result.variables[variable] = kinds.OutputVariable
	}
	for variable := range inputs {
		result.variables[variable] = kinds.InputVariable
	}

	synchronized, err := mergeEvents(result, a, b)
	if err != nil {
		return nil, err
	}

	start := locationPair{a: locA, b: locB}
	visited := set.New(start)
	worklist := queue.New[locationPair]()
	worklist.Push(start)
	visit := func(next locationPair) string {
		if !visited.Contains(next) {
			visited.Add(next)
			worklist.Push(next)
		}
		return next.String()
	}
	for current, ok := worklist.Pop(); ok; current, ok = worklist.Pop() {
		source := current.String()
		modeA, modeB := a.locations[current.a], b.locations[current.b]
		mode := result.addMode(source)
		for variable, dynamic := range modeA.dynamics {
			mode.dynamics[variable] = dynamic
		}
		for variable, dynamic := range modeB.dynamics {
			mode.dynamics[variable] = dynamic
		}
		mode.invariant = modeA.invariant.And(modeB.invariant)

		fromA, fromB := a.TransitionsFrom(current.a), b.TransitionsFrom(current.b)
		for _, transition := range fromA {
			if synchronized.Contains(transition.event) {
				continue
			}
			target := visit(locationPair{a: transition.target, b: current.b})
			result.addTransition(transition.kind, transition.event, source, target, transition.guard, transition.resets)
		}
		for _, transition := range fromB {
			if synchronized.Contains(transition.event) {
				continue
			}
			target := visit(locationPair{a: current.a, b: transition.target})
			result.addTransition(transition.kind, transition.event, source, target, transition.guard, transition.resets)
		}
		for _, left := range fromA {
			if !synchronized.Contains(left.event) {
				continue
			}
			for _, right := range fromB {
				if right.event != left.event {
					continue
				}
				kind := kinds.Unforced
				if left.Forced() || right.Forced() {
					kind = kinds.Forced
				}
				resets := make(map[string]expr.Expr, len(left.resets)+len(right.resets))
				for variable, value := range left.resets {
					resets[variable] = value
				}
				for variable, value := range right.resets {
					resets[variable] = value
				}
				target := visit(locationPair{a: left.target, b: right.target})
				result.addTransition(kind, left.event, source, target, left.guard.And(right.guard), resets)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("hybrid.modes", len(result.modes)),
		attribute.Int("hybrid.transitions", len(result.transitions)),
	)
	o.logger.Debug("composed automaton",
		"name", name,
		"left", a.Name(),
		"right", b.Name(),
		"location", Compound(locA, locB),
		"modes", len(result.modes),
		"transitions", len(result.transitions),
		"synchronized", set.Sorted(synchronized),
	)
	return result, nil
}

// mergeEvents declares the events of a and b on result and returns the
// events both operands share.
func mergeEvents(result, a, b *Component) (set.Set[string], error) {
	synchronized := set.New[string]()
	var conflicts []string
	all := set.New[string]()
	for event := range a.events {
		all.Add(event)
	}
	for event := range b.events {
		all.Add(event)
	}
	for _, event := range set.Sorted(all) {
		kindA, inA := a.events[event]
		kindB, inB := b.events[event]
		switch {
		case inA && inB:
			switch {
			case kindA == kinds.InternalEvent || kindB == kinds.InternalEvent,
				kindA == kinds.OutputEvent && kindB == kinds.OutputEvent:
				conflicts = append(conflicts, event)
			case kindA == kinds.InputEvent && kindB == kinds.InputEvent:
				result.events[event] = kinds.InputEvent
			default:
				result.events[event] = kinds.InternalEvent
			}
			synchronized.Add(event)
		case inA:
			result.events[event] = kindA
		default:
			result.events[event] = kindB
		}
	}
	if len(conflicts) > 0 {
		return nil, newError("compose", result.name, ErrEventConflict, conflicts...)
	}
	return synchronized, nil
}

// parameterClashes names the parameters both lists bind to different values.
func parameterClashes(a, b []expr.Parameter) []string {
	values := make(map[string]float64, len(a))
	for _, parameter := range a {
		values[parameter.Name()] = parameter.Value()
	}
	var clashes []string
	for _, parameter := range b {
		if value, ok := values[parameter.Name()]; ok && value != parameter.Value() {
			clashes = append(clashes, parameter.Name())
		}
	}
	return clashes
}
