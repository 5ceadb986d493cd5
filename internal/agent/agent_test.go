package agent

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/sc2agent/internal/encoder"
	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/policy"
	"github.com/cartridge/sc2agent/internal/sc2"
)

type fixedPolicy struct {
	in  intent.Intent
	err error
}

func (p fixedPolicy) SelectAction(context.Context, obs.Observation) (intent.Intent, error) {
	return p.in, p.err
}

var rawSpec = sc2.AgentSpec{ObservationFields: []string{sc2.FieldPlayer, sc2.FieldRawUnits}}

func barracksStep(stepType sc2.StepType) sc2.TimeStep {
	return sc2.TimeStep{
		StepType: stepType,
		Reward:   0.5,
		Observation: sc2.RawObservation{
			Player:   &sc2.PlayerCommon{Minerals: 200},
			RawUnits: []sc2.RawUnit{{Tag: 7, UnitType: sc2.UnitTypeBarracks, Alliance: sc2.AllianceSelf, BuildProgress: 1}},
		},
	}
}

func TestSetup_RequiresRawUnits(t *testing.T) {
	a := NewLocal("demo", policy.NoOp{})

	err := a.Setup(sc2.AgentSpec{ObservationFields: []string{sc2.FieldFeatureScreen}})
	assert.ErrorIs(t, err, ErrCapabilityMismatch)

	_, err = a.Step(context.Background(), barracksStep(sc2.StepFirst))
	assert.Error(t, err, "step before a successful setup must fail")

	assert.NoError(t, a.Setup(rawSpec))
}

func TestSetup_KeepsSpec(t *testing.T) {
	var logs bytes.Buffer
	a := NewLocal("demo", policy.NoOp{}, WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	spec := sc2.AgentSpec{
		ObservationFields: []string{sc2.FieldRawUnits},
		ActionModes:       []string{"raw"},
	}

	require.NoError(t, a.Setup(spec))
	assert.Equal(t, spec, a.Spec())
	assert.Contains(t, logs.String(), `"action_modes":["raw"]`)
	assert.Contains(t, logs.String(), `"player":"demo"`)

	assert.Error(t, a.Setup(sc2.AgentSpec{}))
	assert.Equal(t, spec, a.Spec(), "a rejected descriptor must not replace the accepted one")
}

func TestStep_Heuristic(t *testing.T) {
	a := NewLocal("demo", policy.NewHeuristic())
	require.NoError(t, a.Setup(rawSpec))

	action, err := a.Step(context.Background(), barracksStep(sc2.StepFirst))
	require.NoError(t, err)
	require.NotNil(t, action.UnitCommand)
	assert.Equal(t, sc2.AbilityTrainMarine, action.UnitCommand.AbilityID)
	assert.Equal(t, []sc2.UnitTag{7}, action.UnitCommand.UnitTags)
	assert.True(t, action.UnitCommand.QueueCommand)

	last := a.LastDecision()
	assert.Equal(t, intent.KindTrainUnit, last.Intent.Kind)
	assert.Equal(t, uint32(200), last.Observation.Minerals)
}

func TestStep_NoOp(t *testing.T) {
	a := NewLocal("ostrich", policy.NoOp{})
	require.NoError(t, a.Setup(rawSpec))

	action, err := a.Step(context.Background(), barracksStep(sc2.StepFirst))
	require.NoError(t, err)
	assert.True(t, action.IsNoOp())
}

func TestStep_Counters(t *testing.T) {
	a := NewLocal("demo", policy.NoOp{})
	require.NoError(t, a.Setup(rawSpec))
	ctx := context.Background()

	for _, st := range []sc2.StepType{sc2.StepFirst, sc2.StepMid, sc2.StepLast} {
		_, err := a.Step(ctx, barracksStep(st))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, a.Episodes())
	assert.Equal(t, 3, a.Steps())
	assert.InDelta(t, 1.5, a.Reward(), 1e-6)

	_, err := a.Step(ctx, barracksStep(sc2.StepFirst))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Episodes())
	assert.Equal(t, 1, a.Steps())
}

func TestStep_InvalidIntent(t *testing.T) {
	bad := intent.Intent{Kind: intent.KindMove, Units: []sc2.UnitTag{3}}
	a := NewLocal("demo", fixedPolicy{in: bad})
	require.NoError(t, a.Setup(rawSpec))

	action, err := a.Step(context.Background(), barracksStep(sc2.StepFirst))
	assert.ErrorIs(t, err, encoder.ErrInvalidIntent)
	assert.True(t, action.IsNoOp())
}

func TestStep_RemoteFailure(t *testing.T) {
	unavailable := errors.New("controller unavailable")
	a := NewRemote("Player 1", fixedPolicy{err: unavailable})
	require.NoError(t, a.Setup(rawSpec))
	assert.True(t, a.Remote())

	_, err := a.Step(context.Background(), barracksStep(sc2.StepFirst))
	assert.ErrorIs(t, err, unavailable)
}
