package hybrid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforward/go-hybrid"
)

func TestFold(t *testing.T) {
	valve0 := valve(0)
	pairs := []hybrid.Pair{
		{Component: tank(0), Location: "flow0"},
		{Component: valve0, Location: "idle_0"},
		{Component: controller(t, 0, valve0), Location: "rising0"},
	}

	system, location, err := hybrid.Fold(pairs)
	require.NoError(t, err)
	assert.Equal(t, "flow0,idle_0,rising0", location)
	assert.Equal(t, "system_2", system.Name())
	assert.Equal(t, location, system.Modes()[0].Location())
	assert.Empty(t, system.InputVariables())
	assert.Equal(t, []string{"valveLevel0", "waterLevel0"}, system.OutputVariables())
	assert.Empty(t, system.InputEvents())
	assert.Empty(t, system.OutputEvents())
	assert.Equal(t, []string{"e_close_0", "e_idle_0", "e_open_0"}, system.InternalEvents())

	for _, mode := range system.Modes() {
		assert.Len(t, mode.Dynamics(), 2, mode.Location())
	}
	for _, transition := range system.Transitions() {
		assert.True(t, system.HasMode(transition.Target()), transition.Name())
	}

	named, _, err := hybrid.Fold(pairs, hybrid.WithNamePrefix("plant"))
	require.NoError(t, err)
	assert.Equal(t, "plant_2", named.Name())
}

func TestFoldSingle(t *testing.T) {
	tank0 := tank(0)
	system, location, err := hybrid.Fold([]hybrid.Pair{{Component: tank0, Location: "flow0"}})
	require.NoError(t, err)
	assert.Same(t, tank0, system)
	assert.Equal(t, "flow0", location)
}

func TestFoldErrors(t *testing.T) {
	_, _, err := hybrid.Fold(nil)
	require.ErrorIs(t, err, hybrid.ErrEmptySystem)

	_, _, err = hybrid.Fold([]hybrid.Pair{{Component: tank(0), Location: "flow1"}})
	require.ErrorIs(t, err, hybrid.ErrLocationMismatch)

	_, _, err = hybrid.Fold([]hybrid.Pair{
		{Component: tank(0), Location: "flow0"},
		{Component: valve(0), Location: "opening_1"},
	})
	require.ErrorIs(t, err, hybrid.ErrLocationMismatch)

	_, _, err = hybrid.Fold([]hybrid.Pair{
		{Component: valve(0), Location: "idle_0"},
		{Component: valve(0), Location: "idle_0"},
	})
	require.ErrorIs(t, err, hybrid.ErrOutputConflict)
}
