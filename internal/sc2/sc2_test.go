package sc2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRace(t *testing.T) {
	r, err := ParseRace("Terran")
	require.NoError(t, err)
	assert.Equal(t, RaceTerran, r)

	_, err = ParseRace("kerrigan")
	assert.Error(t, err)
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("very_easy")
	require.NoError(t, err)
	assert.Equal(t, DifficultyVeryEasy, d)
	assert.Equal(t, "very_easy", d.String())

	_, err = ParseDifficulty("impossible")
	assert.Error(t, err)
}

func TestAgentSpecHasObservation(t *testing.T) {
	spec := AgentSpec{ObservationFields: []string{FieldPlayer, FieldRawUnits}}
	assert.True(t, spec.HasObservation(FieldRawUnits))
	assert.False(t, spec.HasObservation(FieldFeatureScreen))
}

func TestConstructorsCopyUnitTags(t *testing.T) {
	units := []UnitTag{1, 2}
	a := AttackPoint(true, units, Point2D{X: 3, Y: 4})
	units[0] = 99

	require.NotNil(t, a.UnitCommand)
	assert.Equal(t, []UnitTag{1, 2}, a.UnitCommand.UnitTags)
	assert.Equal(t, AbilityAttack, a.UnitCommand.AbilityID)
	assert.True(t, a.UnitCommand.QueueCommand)
	assert.Equal(t, TargetWorldSpacePos{Pos: Point2D{X: 3, Y: 4}}, a.UnitCommand.Target)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "no_op()", NoOp().String())
	assert.True(t, NoOp().IsNoOp())

	a := HarvestGatherUnit(true, []UnitTag{3}, 5)
	assert.Equal(t, "ability=3666 queued units=[3] target_unit=5", a.String())
}
