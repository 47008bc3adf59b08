// Package watertank provides the component templates of a network of water
// tanks fed and drained through valves, each valve driven by a hysteresis
// controller on the level of its tank.
package watertank

import (
	"strconv"

	"github.com/stateforward/go-hybrid"
	"github.com/stateforward/go-hybrid/expr"
)

func Flow(k int) string    { return "flow" + strconv.Itoa(k) }
func Idle(k int) string    { return "idle_" + strconv.Itoa(k) }
func Opening(k int) string { return "opening_" + strconv.Itoa(k) }
func Closing(k int) string { return "closing_" + strconv.Itoa(k) }
func Rising(k int) string  { return "rising" + strconv.Itoa(k) }
func Falling(k int) string { return "falling" + strconv.Itoa(k) }

func OpenEvent(k int) string  { return "e_open_" + strconv.Itoa(k) }
func CloseEvent(k int) string { return "e_close_" + strconv.Itoa(k) }
func IdleEvent(k int) string  { return "e_idle_" + strconv.Itoa(k) }

func WaterLevel(k int) expr.Variable { return expr.Var("waterLevel" + strconv.Itoa(k)) }
func ValveLevel(k int) expr.Variable { return expr.Var("valveLevel" + strconv.Itoa(k)) }

var half = expr.Const(2)

// Tank is a single tank filled through valve and drained in proportion to
// its own level.
func Tank(level, valve expr.Variable, inflow, outflow expr.Parameter, k int) *hybrid.Component {
	tank := hybrid.New("tank" + strconv.Itoa(k))
	tank.AddInputVar(valve)
	tank.AddOutputVar(level)
	tank.NewMode(Flow(k))
	tank.SetDynamics(Flow(k), level, expr.Sub(expr.Mul(inflow, valve), expr.Mul(outflow, level)))
	return tank
}

// SideTank is an upper tank filled through upperValve. It drains into the
// bottom tank through lowerValve, which it shares with its sibling.
func SideTank(level, upperValve, lowerValve expr.Variable, inflow, outflow expr.Parameter, k int) *hybrid.Component {
	tank := hybrid.New("tank" + strconv.Itoa(k))
	tank.AddInputVar(upperValve, lowerValve)
	tank.AddOutputVar(level)
	tank.NewMode(Flow(k))
	tank.SetDynamics(Flow(k), level, expr.Add(
		expr.Mul(expr.Neg(outflow), expr.Div(lowerValve, half), level),
		expr.Mul(inflow, upperValve),
	))
	return tank
}

// BottomTank is fed by the two side tanks through upperValve and drains
// freely.
func BottomTank(level, left, right, upperValve expr.Variable, leftOutflow, rightOutflow, outflow expr.Parameter, k int) *hybrid.Component {
	tank := hybrid.New("tank" + strconv.Itoa(k))
	tank.AddInputVar(upperValve, left, right)
	tank.AddOutputVar(level)
	tank.NewMode(Flow(k))
	tank.SetDynamics(Flow(k), level, expr.Add(
		expr.Neg(expr.Mul(outflow, level)),
		expr.Mul(leftOutflow, expr.Div(upperValve, half), left),
		expr.Mul(rightOutflow, expr.Div(upperValve, half), right),
	))
	return tank
}

// Valve moves its opening level between 0 and 1 in openingTime. It opens
// and closes on request and returns to idle by itself once fully open or
// fully closed.
func Valve(openingTime expr.Parameter, level expr.Variable, k int) *hybrid.Component {
	valve := hybrid.New("valve" + strconv.Itoa(k))
	valve.AddOutputVar(level)
	valve.AddInputEvent(OpenEvent(k), CloseEvent(k))
	valve.AddInternalEvent(IdleEvent(k))

	idle, opening, closing := Idle(k), Opening(k), Closing(k)
	valve.NewMode(idle)
	valve.NewMode(opening)
	valve.NewMode(closing)

	rate := expr.Div(expr.Const(1), openingTime)
	valve.SetDynamics(idle, level, expr.Const(0))
	valve.SetDynamics(opening, level, rate)
	valve.SetDynamics(closing, level, expr.Neg(rate))

	valve.NewForcedTransition(IdleEvent(k), opening, idle,
		expr.GEQ(level, expr.Const(1)), hybrid.Assign(level, expr.Const(1)))
	valve.NewForcedTransition(IdleEvent(k), closing, idle,
		expr.AtLeastZero(expr.Neg(level)), hybrid.Assign(level, expr.Const(0)))
	valve.NewUnforcedTransition(OpenEvent(k), idle, opening, expr.Predicate{})
	valve.NewUnforcedTransition(CloseEvent(k), idle, closing, expr.Predicate{})
	return valve
}

// valveEvents returns the close and open requests accepted by valve. The
// input events are taken in lexicographic order, the first one closes the
// valve and the second one opens it.
func valveEvents(name string, valve *hybrid.Component) (closeEvent, openEvent string, err error) {
	events := valve.InputEvents()
	if len(events) < 2 {
		return "", "", &hybrid.Error{Op: "controller", Component: name, Names: events, Err: hybrid.ErrMissingEvents}
	}
	return events[0], events[1], nil
}

// Controller closes valve when level reaches hmax and opens it when level
// falls to hmin, both within delta. The requests are optional, and the
// invariants bound how late they may come.
func Controller(level expr.Variable, hmin, hmax, delta expr.Parameter, valve *hybrid.Component, k int) (*hybrid.Component, error) {
	name := "controller" + strconv.Itoa(k)
	closeEvent, openEvent, err := valveEvents(name, valve)
	if err != nil {
		return nil, err
	}
	controller := hybrid.New(name)
	controller.AddInputVar(level)
	controller.AddOutputEvent(closeEvent, openEvent)

	rising, falling := Rising(k), Falling(k)
	controller.NewMode(rising)
	controller.NewMode(falling)

	controller.NewInvariant(rising, expr.LEQ(level, expr.Add(hmax, delta)))
	controller.NewInvariant(falling, expr.GEQ(level, expr.Sub(hmin, delta)))
	controller.NewUnforcedTransition(closeEvent, rising, falling, expr.GEQ(level, expr.Sub(hmax, delta)))
	controller.NewUnforcedTransition(openEvent, falling, rising, expr.LEQ(level, expr.Add(hmin, delta)))
	return controller, nil
}

// UrgentController requests the valve to close exactly at hmax and to open
// exactly at hmin.
func UrgentController(level expr.Variable, hmin, hmax expr.Parameter, valve *hybrid.Component, k int) (*hybrid.Component, error) {
	name := "controller" + strconv.Itoa(k)
	closeEvent, openEvent, err := valveEvents(name, valve)
	if err != nil {
		return nil, err
	}
	controller := hybrid.New(name)
	controller.AddInputVar(level)
	controller.AddOutputEvent(closeEvent, openEvent)

	rising, falling := Rising(k), Falling(k)
	controller.NewMode(rising)
	controller.NewMode(falling)

	controller.NewForcedTransition(closeEvent, rising, falling, expr.GEQ(level, hmax))
	controller.NewForcedTransition(openEvent, falling, rising, expr.LEQ(level, hmin))
	return controller, nil
}
