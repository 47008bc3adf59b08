// Package export encodes finished automata for consumers outside this
// module: YAML for people and diffs, msgpack for engines.
package export

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/stateforward/go-hybrid/embedded"
	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/kinds"
)

type Parameter struct {
	Name  string  `yaml:"name" msgpack:"name"`
	Value float64 `yaml:"value" msgpack:"value"`
}

type Mode struct {
	Location  string            `yaml:"location" msgpack:"location"`
	Dynamics  map[string]string `yaml:"dynamics,omitempty" msgpack:"dynamics,omitempty"`
	Invariant []string          `yaml:"invariant,omitempty" msgpack:"invariant,omitempty"`
}

type Transition struct {
	Event  string            `yaml:"event" msgpack:"event"`
	Source string            `yaml:"source" msgpack:"source"`
	Target string            `yaml:"target" msgpack:"target"`
	Guard  []string          `yaml:"guard,omitempty" msgpack:"guard,omitempty"`
	Resets map[string]string `yaml:"resets,omitempty" msgpack:"resets,omitempty"`
	Kind   string            `yaml:"kind" msgpack:"kind"`
}

// Document is the serialized form of an automaton. Expressions are kept in
// their rendered form and guard atoms read "e >= 0".
type Document struct {
	Name            string       `yaml:"name" msgpack:"name"`
	InputVariables  []string     `yaml:"input_variables,omitempty" msgpack:"input_variables,omitempty"`
	OutputVariables []string     `yaml:"output_variables,omitempty" msgpack:"output_variables,omitempty"`
	InputEvents     []string     `yaml:"input_events,omitempty" msgpack:"input_events,omitempty"`
	OutputEvents    []string     `yaml:"output_events,omitempty" msgpack:"output_events,omitempty"`
	InternalEvents  []string     `yaml:"internal_events,omitempty" msgpack:"internal_events,omitempty"`
	Parameters      []Parameter  `yaml:"parameters,omitempty" msgpack:"parameters,omitempty"`
	Modes           []Mode       `yaml:"modes" msgpack:"modes"`
	Transitions     []Transition `yaml:"transitions,omitempty" msgpack:"transitions,omitempty"`
}

func rendered(m map[string]expr.Expr) map[string]string {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]string, len(m))
	for key, value := range m {
		result[key] = value.String()
	}
	return result
}

func atoms(predicate expr.Predicate) []string {
	var result []string
	for _, atom := range predicate.Atoms() {
		result = append(result, expr.AtomString(atom))
	}
	return result
}

func names(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return list
}

// FromAutomaton converts automaton into a Document. Empty sections are nil
// so that a decoded document compares equal to the one it was encoded from.
func FromAutomaton(automaton embedded.Automaton) Document {
	document := Document{
		Name:            automaton.Name(),
		InputVariables:  names(automaton.InputVariables()),
		OutputVariables: names(automaton.OutputVariables()),
		InputEvents:     names(automaton.InputEvents()),
		OutputEvents:    names(automaton.OutputEvents()),
		InternalEvents:  names(automaton.InternalEvents()),
	}
	for _, parameter := range automaton.Parameters() {
		document.Parameters = append(document.Parameters, Parameter{Name: parameter.Name(), Value: parameter.Value()})
	}
	for _, mode := range automaton.Modes() {
		document.Modes = append(document.Modes, Mode{
			Location:  mode.Location(),
			Dynamics:  rendered(mode.Dynamics()),
			Invariant: atoms(mode.Invariant()),
		})
	}
	for _, transition := range automaton.Transitions() {
		document.Transitions = append(document.Transitions, Transition{
			Event:  transition.Event(),
			Source: transition.Source(),
			Target: transition.Target(),
			Guard:  atoms(transition.Guard()),
			Resets: rendered(transition.Resets()),
			Kind:   kinds.String(transition.Kind()),
		})
	}
	return document
}

func YAML(writer io.Writer, automaton embedded.Automaton) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(FromAutomaton(automaton)); err != nil {
		return err
	}
	return encoder.Close()
}

func DecodeYAML(reader io.Reader) (Document, error) {
	var document Document
	err := yaml.NewDecoder(reader).Decode(&document)
	return document, err
}

func MsgPack(automaton embedded.Automaton) ([]byte, error) {
	return msgpack.Marshal(FromAutomaton(automaton))
}

func DecodeMsgPack(data []byte) (Document, error) {
	var document Document
	err := msgpack.Unmarshal(data, &document)
	return document, err
}
