package hybrid_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-hybrid"
	"github.com/stateforward/go-hybrid/expr"
	"github.com/stateforward/go-hybrid/watertank"
)

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "flow0,idle_0,rising0", hybrid.Canonicalize("rising0,flow0,idle_0"))
	assert.Equal(t, "flow0", hybrid.Canonicalize("flow0"))
}

func TestFoldOrderDoesNotMatter(t *testing.T) {
	valve0 := valve(0)
	tank0, controller0 := tank(0), controller(t, 0, valve0)

	first, firstLocation, err := hybrid.Fold([]hybrid.Pair{
		{Component: tank0, Location: "flow0"},
		{Component: valve0, Location: "idle_0"},
		{Component: controller0, Location: "rising0"},
	})
	require.NoError(t, err)
	second, secondLocation, err := hybrid.Fold([]hybrid.Pair{
		{Component: valve0, Location: "idle_0"},
		{Component: tank0, Location: "flow0"},
		{Component: controller0, Location: "rising0"},
	})
	require.NoError(t, err)
	third, thirdLocation, err := hybrid.Fold([]hybrid.Pair{
		{Component: controller0, Location: "rising0"},
		{Component: valve0, Location: "idle_0"},
		{Component: tank0, Location: "flow0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "idle_0,flow0,rising0", secondLocation)
	assert.Equal(t, hybrid.Canonicalize(firstLocation), hybrid.Canonicalize(secondLocation))
	assert.Equal(t, hybrid.Canonicalize(firstLocation), hybrid.Canonicalize(thirdLocation))

	equivalent, diff := hybrid.Equivalent(first, second)
	assert.True(t, equivalent, diff)
	equivalent, diff = hybrid.Equivalent(first, third)
	assert.True(t, equivalent, diff)
	assert.NotEqual(t, first.String(), second.String())
}

func TestEquivalentReportsDifferences(t *testing.T) {
	valve0 := valve(0)
	urgent, err := watertank.UrgentController(watertank.WaterLevel(0), expr.Param("hmin", 5.75), expr.Param("hmax", 7.75), valve0, 0)
	require.NoError(t, err)

	plain, _, err := hybrid.Fold([]hybrid.Pair{{Component: valve0, Location: "idle_0"}, {Component: controller(t, 0, valve0), Location: "rising0"}})
	require.NoError(t, err)
	forced, _, err := hybrid.Fold([]hybrid.Pair{{Component: valve0, Location: "idle_0"}, {Component: urgent, Location: "rising0"}})
	require.NoError(t, err)

	equivalent, diff := hybrid.Equivalent(plain, forced)
	assert.False(t, equivalent)
	assert.NotEmpty(t, diff)

	form := hybrid.CanonicalForm(forced)
	assert.Len(t, form.Modes, 4)
	assert.Empty(t, form.Modes["idle_0,rising0"].Invariant)
	assert.True(t, slices.IsSortedFunc(form.Transitions, func(a, b hybrid.TransitionForm) int {
		if a.Source < b.Source {
			return -1
		}
		if a.Source > b.Source {
			return 1
		}
		return 0
	}))
}

func TestReachable(t *testing.T) {
	valve0 := valve(0)
	assert.Equal(t, []string{"idle_0", "opening_0", "closing_0"}, hybrid.Reachable(valve0, "idle_0"))
	assert.Equal(t, []string{"opening_0", "idle_0", "closing_0"}, hybrid.Reachable(valve0, "opening_0"))
	assert.Nil(t, hybrid.Reachable(valve0, "stuck_0"))

	system, location, err := hybrid.Fold([]hybrid.Pair{
		{Component: valve0, Location: "idle_0"},
		{Component: controller(t, 0, valve0), Location: "rising0"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, system.Locations(), hybrid.Reachable(system, location))
}

func TestEquivalentIgnoresTransitionOrder(t *testing.T) {
	build := func(forcedFirst bool) *hybrid.Component {
		c := hybrid.New("switch0")
		x := expr.Var("x")
		c.AddOutputVar(x)
		c.AddInternalEvent("e")
		c.NewMode("m")
		c.NewMode("n")
		forced := func() { c.NewForcedTransition("e", "m", "n", expr.Predicate{}) }
		unforced := func() { c.NewUnforcedTransition("e", "m", "n", expr.Predicate{}, hybrid.Assign(x, expr.Const(0))) }
		if forcedFirst {
			forced()
			unforced()
		} else {
			unforced()
			forced()
		}
		return c
	}
	for range 20 {
		equivalent, diff := hybrid.Equivalent(build(true), build(false))
		assert.True(t, equivalent, diff)
	}
}
