package hybrid_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-hybrid"
	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/kinds"
	"github.com/stateforward/go-hybrid/pkg/telemetry"
	"github.com/stateforward/go-hybrid/watertank"
)

func tank(k int) *hybrid.Component {
	return watertank.Tank(watertank.WaterLevel(k), watertank.ValveLevel(k), expr.Param("w0in", 0.5), expr.Param("tankOutputFlow0", 0.04), k)
}

func valve(k int) *hybrid.Component {
	return watertank.Valve(expr.Param("T", 4), watertank.ValveLevel(k), k)
}

func controller(t *testing.T, k int, v *hybrid.Component) *hybrid.Component {
	t.Helper()
	c, err := watertank.Controller(watertank.WaterLevel(k), expr.Param("hmin", 5.75), expr.Param("hmax", 7.75), expr.Param("delta", 0.002), v, k)
	require.NoError(t, err)
	return c
}

func TestComposeTankValve(t *testing.T) {
	tank0, valve0 := tank(0), valve(0)
	before := tank0.String() + valve0.String()

	system, err := hybrid.Compose("tank0,valve0", tank0, valve0, "flow0", "idle_0")
	require.NoError(t, err)

	assert.Equal(t, kinds.Compound, system.Kind())
	assert.Empty(t, system.InputVariables())
	assert.Equal(t, []string{"valveLevel0", "waterLevel0"}, system.OutputVariables())
	assert.Equal(t, []string{"e_close_0", "e_open_0"}, system.InputEvents())
	assert.Equal(t, []string{"e_idle_0"}, system.InternalEvents())
	assert.Equal(t, []string{"flow0,idle_0", "flow0,opening_0", "flow0,closing_0"}, system.Locations())

	mode, ok := system.Mode("flow0,opening_0")
	require.True(t, ok)
	dynamics := mode.Dynamics()
	assert.Len(t, dynamics, 2)
	assert.Equal(t, "((w0in * valveLevel0) - (tankOutputFlow0 * waterLevel0))", dynamics["waterLevel0"].String())
	assert.Equal(t, "(1 / T)", dynamics["valveLevel0"].String())

	var sources []string
	for _, transition := range system.Transitions() {
		sources = append(sources, transition.Event()+"@"+transition.Source()+"->"+transition.Target())
	}
	assert.ElementsMatch(t, []string{
		"e_open_0@flow0,idle_0->flow0,opening_0",
		"e_close_0@flow0,idle_0->flow0,closing_0",
		"e_idle_0@flow0,opening_0->flow0,idle_0",
		"e_idle_0@flow0,closing_0->flow0,idle_0",
	}, sources)

	assert.Equal(t, before, tank0.String()+valve0.String(), "operands must not change")
}

func TestComposeSynchronizesOutputWithInput(t *testing.T) {
	valve0 := valve(0)
	controller0 := controller(t, 0, valve0)

	system, err := hybrid.Compose("valve0,controller0", valve0, controller0, "idle_0", "rising0")
	require.NoError(t, err)

	assert.Equal(t, []string{"waterLevel0"}, system.InputVariables())
	assert.Empty(t, system.InputEvents())
	assert.Empty(t, system.OutputEvents())
	assert.Equal(t, []string{"e_close_0", "e_idle_0", "e_open_0"}, system.InternalEvents())
	assert.Equal(t, "idle_0,rising0", system.Locations()[0])

	closing := system.TransitionsFrom("idle_0,rising0")
	require.Len(t, closing, 1, "e_open_0 needs the controller to be falling")
	assert.Equal(t, "e_close_0", closing[0].Event())
	assert.Equal(t, "closing_0,falling0", closing[0].Target())
	assert.False(t, closing[0].Forced())
	assert.Equal(t, "(waterLevel0 - (hmax - delta)) >= 0", closing[0].Guard().String())

	mode, ok := system.Mode("idle_0,rising0")
	require.True(t, ok)
	assert.Equal(t, "((hmax + delta) - waterLevel0) >= 0", mode.Invariant().String())

	assert.ElementsMatch(t, []string{
		"idle_0,rising0",
		"closing_0,falling0",
		"idle_0,falling0",
		"opening_0,rising0",
	}, system.Locations())
}

func TestComposeUrgentSynchronizationIsForced(t *testing.T) {
	valve0 := valve(0)
	urgent, err := watertank.UrgentController(watertank.WaterLevel(0), expr.Param("hmin", 5.75), expr.Param("hmax", 7.75), valve0, 0)
	require.NoError(t, err)

	system, err := hybrid.Compose("valve0,controller0", valve0, urgent, "idle_0", "rising0")
	require.NoError(t, err)
	for _, transition := range system.Transitions() {
		assert.True(t, transition.Forced(), transition.Name())
	}
}

func TestComposeInputsSynchronize(t *testing.T) {
	left, right := valve(0), hybrid.New("monitor0")
	right.AddInputEvent("e_open_0")
	right.NewMode("watching0")
	right.NewUnforcedTransition("e_open_0", "watching0", "watching0", expr.Predicate{})

	system, err := hybrid.Compose("valve0,monitor0", left, right, "idle_0", "watching0")
	require.NoError(t, err)
	assert.Equal(t, []string{"e_close_0", "e_open_0"}, system.InputEvents())

	opening := 0
	for _, transition := range system.Transitions() {
		if transition.Event() == "e_open_0" {
			opening++
			assert.Equal(t, "opening_0,watching0", transition.Target())
		}
	}
	assert.Equal(t, 1, opening)
}

func TestComposeErrors(t *testing.T) {
	rival := hybrid.New("rival0")
	rival.AddOutputVar(watertank.WaterLevel(0))
	rival.NewMode("flow0")

	chatty := hybrid.New("chatty0")
	chatty.AddInternalEvent("e_open_0")
	chatty.NewMode("talking0")

	loud := hybrid.New("loud0")
	loud.AddOutputEvent("e_idle_9")
	loud.NewMode("talking0")
	echo := hybrid.New("echo0")
	echo.AddOutputEvent("e_idle_9")
	echo.NewMode("talking0")

	left := hybrid.New("left0")
	left.AddOutputVar(expr.Var("x"))
	left.NewMode("m0")
	left.SetDynamics("m0", expr.Var("x"), expr.Param("k", 1))
	right := hybrid.New("right0")
	right.AddOutputVar(expr.Var("y"))
	right.NewMode("m0")
	right.SetDynamics("m0", expr.Var("y"), expr.Param("k", 2))

	tests := []struct {
		name       string
		a, b       *hybrid.Component
		locA, locB string
		err        error
		names      []string
	}{
		{name: "shared output", a: tank(0), b: rival, locA: "flow0", locB: "flow0", err: hybrid.ErrOutputConflict, names: []string{"waterLevel0"}},
		{name: "unknown left location", a: tank(0), b: valve(0), locA: "flow1", locB: "idle_0", err: hybrid.ErrLocationMismatch, names: []string{"tank0", "flow1"}},
		{name: "unknown right location", a: tank(0), b: valve(0), locA: "flow0", locB: "idle_1", err: hybrid.ErrLocationMismatch, names: []string{"valve0", "idle_1"}},
		{name: "internal event shared", a: valve(0), b: chatty, locA: "idle_0", locB: "talking0", err: hybrid.ErrEventConflict, names: []string{"e_open_0"}},
		{name: "output event shared", a: loud, b: echo, locA: "talking0", locB: "talking0", err: hybrid.ErrEventConflict, names: []string{"e_idle_9"}},
		{name: "parameter bound twice", a: left, b: right, locA: "m0", locB: "m0", err: hybrid.ErrParameterConflict, names: []string{"k"}},
		{name: "missing operand", a: tank(0), b: nil, locA: "flow0", locB: "idle_0", err: hybrid.ErrEmptySystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system, err := hybrid.Compose("system_1", tt.a, tt.b, tt.locA, tt.locB,
				hybrid.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
				hybrid.WithTracer(telemetry.Disabled()),
			)
			require.ErrorIs(t, err, tt.err)
			assert.Nil(t, system)
			assert.True(t, hybrid.IsConflict(err))
			var failure *hybrid.Error
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, "compose", failure.Op)
			assert.Equal(t, tt.names, failure.Names)
		})
	}
}

func TestComposeSharedParameter(t *testing.T) {
	system, err := hybrid.Compose("system_1", tank(0), tank(1), "flow0", "flow1")
	require.NoError(t, err)
	parameters := system.Parameters()
	require.Len(t, parameters, 2)
	assert.Equal(t, "tankOutputFlow0", parameters[0].Name())
	assert.Equal(t, 0.04, parameters[0].Value())
}
