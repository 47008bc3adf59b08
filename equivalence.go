package hybrid

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/stateforward/go-hybrid/embedded"
	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/queue"
)

// Canonicalize sorts the atomic locations of a compound location, so that
// systems folded in different orders name the same configuration alike.
func Canonicalize(location string) string {
	tokens := strings.Split(location, LocationSeparator)
	slices.Sort(tokens)
	return Compound(tokens...)
}

// Form is the structure of an automaton with its name and the order of its
// constituents factored out.
type Form struct {
	InputVariables  []string
	OutputVariables []string
	InputEvents     []string
	OutputEvents    []string
	InternalEvents  []string
	Modes           map[string]ModeForm
	Transitions     []TransitionForm
}

type ModeForm struct {
	Dynamics  map[string]string
	Invariant []string
}

type TransitionForm struct {
	Event  string
	Source string
	Target string
	Guard  []string
	Resets map[string]string
	Forced bool
}

func atoms(predicate expr.Predicate) []string {
	rendered := make([]string, 0, len(predicate.Atoms()))
	for _, atom := range predicate.Atoms() {
		rendered = append(rendered, expr.AtomString(atom))
	}
	slices.Sort(rendered)
	return rendered
}

func rendered(m map[string]expr.Expr) map[string]string {
	result := make(map[string]string, len(m))
	for key, value := range m {
		result[key] = value.String()
	}
	return result
}

func forcedKey(forced bool) int {
	if forced {
		return 1
	}
	return 0
}

func resetKey(resets map[string]string) string {
	keys := slices.Sorted(maps.Keys(resets))
	for i, key := range keys {
		keys[i] = key + " := " + resets[key]
	}
	return strings.Join(keys, Separator)
}

func CanonicalForm(automaton embedded.Automaton) Form {
	form := Form{
		InputVariables:  automaton.InputVariables(),
		OutputVariables: automaton.OutputVariables(),
		InputEvents:     automaton.InputEvents(),
		OutputEvents:    automaton.OutputEvents(),
		InternalEvents:  automaton.InternalEvents(),
		Modes:           map[string]ModeForm{},
	}
	for _, mode := range automaton.Modes() {
		form.Modes[Canonicalize(mode.Location())] = ModeForm{
			Dynamics:  rendered(mode.Dynamics()),
			Invariant: atoms(mode.Invariant()),
		}
	}
	for _, transition := range automaton.Transitions() {
		form.Transitions = append(form.Transitions, TransitionForm{
			Event:  transition.Event(),
			Source: Canonicalize(transition.Source()),
			Target: Canonicalize(transition.Target()),
			Guard:  atoms(transition.Guard()),
			Resets: rendered(transition.Resets()),
			Forced: transition.Forced(),
		})
	}
	slices.SortFunc(form.Transitions, func(x, y TransitionForm) int {
		return cmp.Or(
			cmp.Compare(x.Source, y.Source),
			cmp.Compare(x.Event, y.Event),
			cmp.Compare(x.Target, y.Target),
			cmp.Compare(strings.Join(x.Guard, Separator), strings.Join(y.Guard, Separator)),
			cmp.Compare(forcedKey(x.Forced), forcedKey(y.Forced)),
			cmp.Compare(resetKey(x.Resets), resetKey(y.Resets)),
		)
	})
	return form
}

// Equivalent reports whether a and b have the same canonical form, and
// otherwise describes how they differ.
func Equivalent(a, b embedded.Automaton) (bool, string) {
	diff := gocmp.Diff(CanonicalForm(a), CanonicalForm(b), cmpopts.EquateEmpty())
	return diff == "", diff
}

// Reachable returns the locations reachable from location through the
// discrete transition graph, guards ignored, in breadth-first order.
func Reachable(automaton embedded.Automaton, location string) []string {
	successors := map[string][]string{}
	for _, transition := range automaton.Transitions() {
		successors[transition.Source()] = append(successors[transition.Source()], transition.Target())
	}
	known := false
	for _, mode := range automaton.Modes() {
		if mode.Location() == location {
			known = true
			break
		}
	}
	if !known {
		return nil
	}
	reached := []string{location}
	seen := map[string]bool{location: true}
	worklist := queue.New[string]()
	worklist.Push(location)
	for current, ok := worklist.Pop(); ok; current, ok = worklist.Pop() {
		for _, next := range successors[current] {
			if !seen[next] {
				seen[next] = true
				reached = append(reached, next)
				worklist.Push(next)
			}
		}
	}
	return reached
}
