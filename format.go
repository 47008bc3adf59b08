package hybrid

import "strings"

// Separator separates the elements of a rendered automaton.
const Separator = ", "

// EasyRead puts every element of a rendered automaton on its own line.
// Compound locations are joined without a space and stay on one line.
func EasyRead(rendered string) string {
	return strings.ReplaceAll(rendered, Separator, "\n")
}
