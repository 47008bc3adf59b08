package watertank

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/stateforward/go-hybrid"
	"github.com/stateforward/go-hybrid/analysis"
	"github.com/stateforward/go-hybrid/expr"
)

// Strategy is the order in which System folds its components.
type Strategy int

const (
	// Together folds tanks, valves and controllers in one pass.
	Together Strategy = iota
	// ByType folds each kind of component on its own, then the three results.
	ByType
	// Subsystems folds every tank with its valve and controller, then the
	// resulting modules.
	Subsystems
)

var strategies = map[Strategy]string{
	Together:   "together",
	ByType:     "by-type",
	Subsystems: "subsystems",
}

func (s Strategy) String() string {
	if name, ok := strategies[s]; ok {
		return name
	}
	return "unknown"
}

func ParseStrategy(name string) (Strategy, error) {
	for strategy, n := range strategies {
		if strings.EqualFold(n, name) {
			return strategy, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Config holds the physical parameters of the three tank network: two side
// tanks above one bottom tank, a valve on top of each tank and a controller
// per valve.
type Config struct {
	Inflows     []float64 `mapstructure:"inflows"`
	Outflows    []float64 `mapstructure:"outflows"`
	OpeningTime float64   `mapstructure:"opening_time"`
	HMin        float64   `mapstructure:"hmin"`
	HMax        float64   `mapstructure:"hmax"`
	Delta       float64   `mapstructure:"delta"`
	Urgent      bool      `mapstructure:"urgent"`

	InitialValveLevel float64 `mapstructure:"initial_valve_level"`
	InitialWaterLevel float64 `mapstructure:"initial_water_level"`
}

const Tanks = 3

func DefaultConfig() Config {
	return Config{
		Inflows:           []float64{0.5, 0.5},
		Outflows:          []float64{0.04, 0.04, 0.04},
		OpeningTime:       4,
		HMin:              5.75,
		HMax:              7.75,
		Delta:             0.002,
		Urgent:            true,
		InitialValveLevel: 1,
		InitialWaterLevel: 7,
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Inflows) != 2 {
		errs = append(errs, fmt.Errorf("expected 2 inflows, got %d", len(c.Inflows)))
	}
	if len(c.Outflows) != Tanks {
		errs = append(errs, fmt.Errorf("expected %d outflows, got %d", Tanks, len(c.Outflows)))
	}
	if !(c.OpeningTime > 0) {
		errs = append(errs, errors.New("opening time must be positive"))
	}
	if !(c.HMin < c.HMax) {
		errs = append(errs, fmt.Errorf("hmin %g must be below hmax %g", c.HMin, c.HMax))
	}
	if c.Delta < 0 {
		errs = append(errs, errors.New("delta must not be negative"))
	}
	for i, flow := range c.Inflows {
		if flow < 0 {
			errs = append(errs, fmt.Errorf("inflow %d must not be negative", i))
		}
	}
	for i, flow := range c.Outflows {
		if flow < 0 {
			errs = append(errs, fmt.Errorf("outflow %d must not be negative", i))
		}
	}
	if c.InitialValveLevel < 0 || c.InitialValveLevel > 1 {
		errs = append(errs, errors.New("initial valve level must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

// Components builds the tanks, valves and controllers of the network, each
// paired with its initial location.
func Components(c Config) (tanks, valves, controllers []hybrid.Pair, err error) {
	if err := c.Validate(); err != nil {
		return nil, nil, nil, err
	}
	inflow := func(k int) expr.Parameter { return expr.Param("w"+strconv.Itoa(k)+"in", c.Inflows[k]) }
	outflow := func(k int) expr.Parameter { return expr.Param("tankOutputFlow"+strconv.Itoa(k), c.Outflows[k]) }

	for k := range 2 {
		tank := SideTank(WaterLevel(k), ValveLevel(k), ValveLevel(2), inflow(k), outflow(k), k)
		tanks = append(tanks, hybrid.Pair{Component: tank, Location: Flow(k)})
	}
	bottom := BottomTank(WaterLevel(2), WaterLevel(0), WaterLevel(1), ValveLevel(2), outflow(0), outflow(1), outflow(2), 2)
	tanks = append(tanks, hybrid.Pair{Component: bottom, Location: Flow(2)})

	openingTime := expr.Param("T", c.OpeningTime)
	for k := range Tanks {
		valves = append(valves, hybrid.Pair{Component: Valve(openingTime, ValveLevel(k), k), Location: Idle(k)})
	}

	hmin, hmax, delta := expr.Param("hmin", c.HMin), expr.Param("hmax", c.HMax), expr.Param("delta", c.Delta)
	for k := range Tanks {
		var controller *hybrid.Component
		if c.Urgent {
			controller, err = UrgentController(WaterLevel(k), hmin, hmax, valves[k].Component, k)
		} else {
			controller, err = Controller(WaterLevel(k), hmin, hmax, delta, valves[k].Component, k)
		}
		if err != nil {
			return nil, nil, nil, err
		}
		controllers = append(controllers, hybrid.Pair{Component: controller, Location: Rising(k)})
	}
	return tanks, valves, controllers, nil
}

func withPrefix(opts []hybrid.Option, prefix string) []hybrid.Option {
	return append(slices.Clip(opts), hybrid.WithNamePrefix(prefix))
}

// System composes the whole network into one automaton and returns it with
// its initial location.
func System(c Config, strategy Strategy, opts ...hybrid.Option) (*hybrid.Component, string, error) {
	tanks, valves, controllers, err := Components(c)
	if err != nil {
		return nil, "", err
	}
	switch strategy {
	case Together:
		return hybrid.Fold(slices.Concat(tanks, valves, controllers), withPrefix(opts, "system")...)
	case ByType:
		groups := make([]hybrid.Pair, 0, 3)
		for _, group := range []struct {
			prefix string
			pairs  []hybrid.Pair
		}{{"tanks", tanks}, {"valves", valves}, {"controllers", controllers}} {
			system, location, err := hybrid.Fold(group.pairs, withPrefix(opts, group.prefix)...)
			if err != nil {
				return nil, "", err
			}
			groups = append(groups, hybrid.Pair{Component: system, Location: location})
		}
		return hybrid.Fold(groups, withPrefix(opts, "system")...)
	case Subsystems:
		modules := make([]hybrid.Pair, 0, Tanks)
		for k := range Tanks {
			module, location, err := hybrid.Fold(
				[]hybrid.Pair{tanks[k], valves[k], controllers[k]},
				withPrefix(opts, "module"+strconv.Itoa(k))...,
			)
			if err != nil {
				return nil, "", err
			}
			modules = append(modules, hybrid.Pair{Component: module, Location: location})
		}
		return hybrid.Fold(modules, withPrefix(opts, "system")...)
	default:
		return nil, "", fmt.Errorf("unknown strategy %d", int(strategy))
	}
}

func isValveLevel(variable string) bool {
	return strings.HasPrefix(variable, "valveLevel")
}

// InitialSet starts every valve at the configured opening and every tank at
// the configured level, in location.
func InitialSet(system *hybrid.Component, location string, c Config) (*analysis.InitialSet, error) {
	variables := system.OutputVariables()
	box := make(analysis.Box, len(variables))
	for i, variable := range variables {
		if isValveLevel(variable) {
			box[i] = analysis.Point(c.InitialValveLevel)
		} else {
			box[i] = analysis.Point(c.InitialWaterLevel)
		}
	}
	initial := analysis.NewInitialSet(system)
	if err := initial.Set(location, box); err != nil {
		return nil, err
	}
	return initial, nil
}

// Domain bounds the valves to [0, 1] and the tanks to [4.5, 9].
func Domain(system *hybrid.Component) analysis.Box {
	variables := system.OutputVariables()
	box := make(analysis.Box, len(variables))
	for i, variable := range variables {
		if isValveLevel(variable) {
			box[i] = analysis.Interval{Lower: 0, Upper: 1}
		} else {
			box[i] = analysis.Interval{Lower: 4.5, Upper: 9}
		}
	}
	return box
}

// Safety requires every tank level to stay within [5.25, 8.25].
func Safety(system *hybrid.Component) []analysis.SafetyConstraint {
	var constraints []analysis.SafetyConstraint
	for _, variable := range system.OutputVariables() {
		if !isValveLevel(variable) {
			constraints = append(constraints, analysis.SafetyConstraint{
				Variable: variable,
				Interval: analysis.Interval{Lower: 5.25, Upper: 8.25},
			})
		}
	}
	return constraints
}

// Splits ranges the controller thresholds for parametric verification.
func Splits() []analysis.ParameterSplit {
	return []analysis.ParameterSplit{
		{Parameter: "hmin", Interval: analysis.Interval{Lower: 5, Upper: 6}},
		{Parameter: "hmax", Interval: analysis.Interval{Lower: 7.5, Upper: 8.5}},
	}
}

// Request bundles the network with its initial set, domain, safety
// constraints and threshold splits.
func Request(system *hybrid.Component, location string, c Config, settings analysis.Settings) (*analysis.Request, error) {
	initial, err := InitialSet(system, location, c)
	if err != nil {
		return nil, err
	}
	return analysis.NewRequest(system, initial, Domain(system), Safety(system), Splits(), settings)
}
