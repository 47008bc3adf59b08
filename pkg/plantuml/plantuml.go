package plantuml

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/stateforward/go-hybrid/embedded"
	"github.com/stateforward/go-hybrid/expr"
)

func idFromLocation(location string) string {
	return strings.NewReplacer(",", "__", "-", "_", ".", "_", " ", "_").Replace(location)
}

func generateMode(builder *strings.Builder, depth int, mode embedded.Mode) {
	id := idFromLocation(mode.Location())
	indent := strings.Repeat(" ", depth*2)
	if id == mode.Location() {
		fmt.Fprintf(builder, "%sstate %s\n", indent, id)
	} else {
		fmt.Fprintf(builder, "%sstate \"%s\" as %s\n", indent, mode.Location(), id)
	}
	dynamics := mode.Dynamics()
	for _, variable := range slices.Sorted(maps.Keys(dynamics)) {
		fmt.Fprintf(builder, "%sstate %s: d%s/dt = %s\n", indent, id, variable, dynamics[variable])
	}
	if invariant := mode.Invariant(); !invariant.IsTrue() {
		fmt.Fprintf(builder, "%sstate %s: invariant %s\n", indent, id, invariant)
	}
}

func resets(r map[string]expr.Expr) string {
	assignments := make([]string, 0, len(r))
	for _, variable := range slices.Sorted(maps.Keys(r)) {
		assignments = append(assignments, variable+" := "+r[variable].String())
	}
	return strings.Join(assignments, "; ")
}

func generateTransition(builder *strings.Builder, depth int, transition embedded.Transition) {
	label := transition.Event()
	if guard := transition.Guard(); !guard.IsTrue() {
		label = fmt.Sprintf("%s [%s]", label, guard)
	}
	if reset := resets(transition.Resets()); reset != "" {
		label = fmt.Sprintf("%s / %s", label, reset)
	}
	arrow := "-->"
	if transition.Forced() {
		arrow = "-[bold]->"
	}
	indent := strings.Repeat(" ", depth*2)
	fmt.Fprintf(builder, "%s%s %s %s : %s\n", indent, idFromLocation(transition.Source()), arrow, idFromLocation(transition.Target()), label)
}

// Generate writes a PlantUML state diagram of automaton. The first mode is
// drawn as the initial state and forced transitions are drawn in bold.
func Generate(writer io.Writer, automaton embedded.Automaton) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "@startuml %s\n", automaton.Name())
	modes := automaton.Modes()
	for _, mode := range modes {
		generateMode(&builder, 1, mode)
	}
	if len(modes) > 0 {
		fmt.Fprintf(&builder, "[*] --> %s\n", idFromLocation(modes[0].Location()))
	}
	for _, transition := range automaton.Transitions() {
		generateTransition(&builder, 0, transition)
	}
	fmt.Fprintln(&builder, "@enduml")
	_, err := writer.Write([]byte(builder.String()))
	return err
}
