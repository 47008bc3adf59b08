// Package analysis describes what a reachability or safety engine needs
// besides a finished automaton: where it starts, where it may go, what must
// hold, and how hard to try. No engine lives here.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/stateforward/go-hybrid/embedded"
	"github.com/stateforward/go-hybrid/expr"
)

var (
	ErrEmptyInterval     = errors.New("interval lower bound above upper bound")
	ErrDimension         = errors.New("box dimension does not match the automaton")
	ErrUnknownLocation   = errors.New("location not registered in automaton")
	ErrUnknownVariable   = errors.New("variable is not an output of the automaton")
	ErrUnknownParameter  = errors.New("parameter does not appear in the automaton")
	ErrInvalidSettings   = errors.New("invalid analysis settings")
	ErrMissingInitialSet = errors.New("no initial set")
)

/******* Interval *******/

// Interval is the closed interval [Lower, Upper].
type Interval struct {
	Lower float64 `yaml:"lower" mapstructure:"lower"`
	Upper float64 `yaml:"upper" mapstructure:"upper"`
}

func Point(value float64) Interval {
	return Interval{Lower: value, Upper: value}
}

func (i Interval) Validate() error {
	if math.IsNaN(i.Lower) || math.IsNaN(i.Upper) || i.Lower > i.Upper {
		return fmt.Errorf("%w: [%g, %g]", ErrEmptyInterval, i.Lower, i.Upper)
	}
	return nil
}

func (i Interval) Contains(value float64) bool {
	return i.Lower <= value && value <= i.Upper
}

func (i Interval) Centre() float64 {
	return i.Lower + (i.Upper-i.Lower)/2
}

func (i Interval) String() string {
	return fmt.Sprintf("[%g, %g]", i.Lower, i.Upper)
}

/******* Box *******/

// Box is a product of intervals, one per output variable of an automaton in
// lexicographic order.
type Box []Interval

func (b Box) Validate() error {
	for _, interval := range b {
		if err := interval.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (b Box) Centre() []float64 {
	centre := make([]float64, len(b))
	for i, interval := range b {
		centre[i] = interval.Centre()
	}
	return centre
}

func checkDimension(automaton embedded.Automaton, box Box) error {
	if want := len(automaton.OutputVariables()); len(box) != want {
		return fmt.Errorf("%w: %s has %d variables, box has %d", ErrDimension, automaton.Name(), want, len(box))
	}
	return box.Validate()
}

/******* InitialSet *******/

// InitialSet assigns a box of starting values to locations of an automaton.
type InitialSet struct {
	automaton embedded.Automaton
	boxes     map[string]Box
}

func NewInitialSet(automaton embedded.Automaton) *InitialSet {
	return &InitialSet{automaton: automaton, boxes: map[string]Box{}}
}

func hasLocation(automaton embedded.Automaton, location string) bool {
	for _, mode := range automaton.Modes() {
		if mode.Location() == location {
			return true
		}
	}
	return false
}

func (s *InitialSet) Set(location string, box Box) error {
	if !hasLocation(s.automaton, location) {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, location)
	}
	if err := checkDimension(s.automaton, box); err != nil {
		return err
	}
	s.boxes[location] = slices.Clone(box)
	return nil
}

func (s *InitialSet) Box(location string) (Box, bool) {
	box, ok := s.boxes[location]
	return slices.Clone(box), ok
}

func (s *InitialSet) Locations() []string {
	locations := make([]string, 0, len(s.boxes))
	for location := range s.boxes {
		locations = append(locations, location)
	}
	slices.Sort(locations)
	return locations
}

func (s *InitialSet) Empty() bool {
	return len(s.boxes) == 0
}

/******* Settings *******/

type Settings struct {
	MaximumStepSize       float64       `mapstructure:"maximum_step_size"`
	EvolutionTime         float64       `mapstructure:"evolution_time"`
	MaximumEvents         int           `mapstructure:"maximum_events"`
	Accuracy              int           `mapstructure:"accuracy"`
	MaximumParameterDepth int           `mapstructure:"maximum_parameter_depth"`
	TTL                   time.Duration `mapstructure:"ttl"`
}

func DefaultSettings() Settings {
	return Settings{
		MaximumStepSize:       0.6,
		EvolutionTime:         8.0,
		MaximumEvents:         3,
		Accuracy:              5,
		MaximumParameterDepth: 3,
		TTL:                   140 * time.Second,
	}
}

func (s Settings) Validate() error {
	switch {
	case !(s.MaximumStepSize > 0):
		return fmt.Errorf("%w: maximum step size must be positive", ErrInvalidSettings)
	case !(s.EvolutionTime > 0):
		return fmt.Errorf("%w: evolution time must be positive", ErrInvalidSettings)
	case s.MaximumEvents <= 0:
		return fmt.Errorf("%w: maximum events must be positive", ErrInvalidSettings)
	case s.Accuracy <= 0:
		return fmt.Errorf("%w: accuracy must be positive", ErrInvalidSettings)
	case s.MaximumParameterDepth <= 0:
		return fmt.Errorf("%w: maximum parameter depth must be positive", ErrInvalidSettings)
	case s.TTL <= 0:
		return fmt.Errorf("%w: ttl must be positive", ErrInvalidSettings)
	}
	return nil
}

/******* Constraints *******/

// ParameterSplit lets a parametric verification range a parameter over an
// interval instead of its nominal value. The interval is bisected up to
// Settings.MaximumParameterDepth times.
type ParameterSplit struct {
	Parameter string
	Interval  Interval
}

// SafetyConstraint requires Variable to stay within Interval in every
// location.
type SafetyConstraint struct {
	Variable string
	Interval Interval
}

/******* Request *******/

type Request struct {
	Automaton  embedded.Automaton
	Initial    *InitialSet
	Domain     Box
	Safety     []SafetyConstraint
	Parameters []ParameterSplit
	Settings   Settings
}

// NewRequest checks every part of a request against automaton. Domain may
// be nil for finite time evolution only.
func NewRequest(automaton embedded.Automaton, initial *InitialSet, domain Box, safety []SafetyConstraint, parameters []ParameterSplit, settings Settings) (*Request, error) {
	if initial == nil || initial.Empty() {
		return nil, ErrMissingInitialSet
	}
	if domain != nil {
		if err := checkDimension(automaton, domain); err != nil {
			return nil, err
		}
	}
	outputs := automaton.OutputVariables()
	for _, constraint := range safety {
		if !slices.Contains(outputs, constraint.Variable) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, constraint.Variable)
		}
		if err := constraint.Interval.Validate(); err != nil {
			return nil, err
		}
	}
	declared := automaton.Parameters()
	for _, split := range parameters {
		if !slices.ContainsFunc(declared, func(p expr.Parameter) bool { return p.Name() == split.Parameter }) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, split.Parameter)
		}
		if err := split.Interval.Validate(); err != nil {
			return nil, err
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Request{
		Automaton:  automaton,
		Initial:    initial,
		Domain:     slices.Clone(domain),
		Safety:     slices.Clone(safety),
		Parameters: slices.Clone(parameters),
		Settings:   settings,
	}, nil
}

/******* Engine *******/

type Semantics int

const (
	Upper Semantics = iota
	Lower
)

func (s Semantics) String() string {
	if s == Lower {
		return "lower"
	}
	return "upper"
}

// Enclosure is a box of reached values in one location.
type Enclosure struct {
	Location string
	Box      Box
}

type Verdict int

const (
	Indeterminate Verdict = iota
	Safe
	Unsafe
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	default:
		return "indeterminate"
	}
}

// Outcome is the verdict for one cell of the split parameter space. An
// unsplit verification has a single outcome with no parameters.
type Outcome struct {
	Parameters map[string]Interval
	Verdict    Verdict
}

// Engine is an evolution and verification backend consuming a Request.
type Engine interface {
	Evolve(ctx context.Context, request *Request, semantics Semantics) ([]Enclosure, error)
	Verify(ctx context.Context, request *Request) ([]Outcome, error)
}
