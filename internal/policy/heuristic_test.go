package policy

import (
	"context"
	"math/rand"
	"testing"

	"github.com/cartridge/sc2agent/internal/encoder"
	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/sc2"
)

func unit(tag sc2.UnitTag, unitType sc2.UnitTypeID, alliance sc2.Alliance) obs.Unit {
	return obs.Unit{Tag: tag, UnitType: unitType, Player: alliance, Health: 45, Progress: 1}
}

func forced(b Behavior) *Heuristic {
	h := NewHeuristicWithRand(rand.New(rand.NewSource(1)))
	h.pick = func() Behavior { return b }
	return h
}

func TestHeuristic_TrainsWhenBarracksAndMinerals(t *testing.T) {
	h := NewHeuristic()
	o := obs.Observation{
		Minerals: 200,
		Friendly: []obs.Unit{unit(7, sc2.UnitTypeBarracks, sc2.AllianceSelf)},
	}

	// No randomness in this branch: every call must train.
	for i := 0; i < 50; i++ {
		got, err := h.SelectAction(context.Background(), o)
		if err != nil {
			t.Fatalf("Failed to select action: %v", err)
		}
		if got.Kind != intent.KindTrainUnit {
			t.Fatalf("Expected train_unit, got %s", got)
		}
		if len(got.Units) != 1 || got.Units[0] != 7 {
			t.Fatalf("Expected unit 7, got %v", got.Units)
		}
		if got.Timing != intent.TimingQueued {
			t.Errorf("Expected queued timing, got %s", got.Timing)
		}
	}
	if !h.TrainedUnit() {
		t.Error("Expected trained-unit flag to be recorded")
	}
}

func TestHeuristic_BarracksBelowThresholdFallsThrough(t *testing.T) {
	h := forced(BehaviorHarvest)
	o := obs.Observation{
		Minerals: TrainThreshold - 1,
		Friendly: []obs.Unit{
			unit(7, sc2.UnitTypeBarracks, sc2.AllianceSelf),
			unit(3, sc2.UnitTypeSCV, sc2.AllianceSelf),
		},
		Neutral: []obs.Unit{unit(5, sc2.UnitTypeMineralField, sc2.AllianceNeutral)},
	}

	got, _ := h.SelectAction(context.Background(), o)
	if got.Kind != intent.KindHarvest {
		t.Fatalf("Expected harvest, got %s", got)
	}
	if got.Target != intent.UnitTarget(5) {
		t.Errorf("Expected mineral field 5 as target, got %+v", got.Target)
	}
}

func TestHeuristic_BuildBelowThresholdIsNoOp(t *testing.T) {
	h := forced(BehaviorBuild)
	o := obs.Observation{
		Minerals: BuildThreshold - 1,
		Friendly: []obs.Unit{unit(3, sc2.UnitTypeSCV, sc2.AllianceSelf)},
	}

	got, _ := h.SelectAction(context.Background(), o)
	if got.Kind != intent.KindNoOp {
		t.Fatalf("Expected no_op, got %s", got)
	}
	if h.BuiltStructure() {
		t.Error("Built-structure flag should not be set")
	}
}

func TestHeuristic_BuildsAtFixedPoint(t *testing.T) {
	h := forced(BehaviorBuild)
	o := obs.Observation{
		Minerals: BuildThreshold,
		Friendly: []obs.Unit{unit(3, sc2.UnitTypeSCV, sc2.AllianceSelf)},
	}

	got, _ := h.SelectAction(context.Background(), o)
	if got.Kind != intent.KindBuildStructure {
		t.Fatalf("Expected build_structure, got %s", got)
	}
	if got.Target.Point != BuildPoint {
		t.Errorf("Expected build point %v, got %v", BuildPoint, got.Target.Point)
	}
	if !h.BuiltStructure() {
		t.Error("Expected built-structure flag to be recorded")
	}
}

func TestHeuristic_AttackWithoutEnemyIsNoOp(t *testing.T) {
	h := forced(BehaviorAttack)
	o := obs.Observation{Friendly: []obs.Unit{unit(3, sc2.UnitTypeSCV, sc2.AllianceSelf)}}

	got, _ := h.SelectAction(context.Background(), o)
	if got.Kind != intent.KindNoOp {
		t.Fatalf("Expected no_op, got %s", got)
	}
}

func TestHeuristic_NoWorkersIsNoOp(t *testing.T) {
	for _, b := range behaviors {
		h := forced(b)
		o := obs.Observation{
			Minerals: 500,
			Enemy:    []obs.Unit{unit(9, sc2.UnitTypeZealot, sc2.AllianceEnemy)},
			Neutral:  []obs.Unit{unit(5, sc2.UnitTypeMineralField, sc2.AllianceNeutral)},
		}
		got, _ := h.SelectAction(context.Background(), o)
		if got.Kind != intent.KindNoOp {
			t.Errorf("%s without workers: expected no_op, got %s", b, got)
		}
	}
}

func TestHeuristic_EndToEndTrain(t *testing.T) {
	o := obs.Observation{
		Minerals: 200,
		Friendly: []obs.Unit{unit(7, sc2.UnitTypeBarracks, sc2.AllianceSelf)},
	}

	in, err := NewHeuristic().SelectAction(context.Background(), o)
	if err != nil {
		t.Fatalf("Failed to select action: %v", err)
	}
	action, err := encoder.Encode(in)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", in, err)
	}

	cmd := action.UnitCommand
	if cmd == nil || cmd.AbilityID != sc2.AbilityTrainMarine {
		t.Fatalf("Expected train marine command, got %s", action)
	}
	if len(cmd.UnitTags) != 1 || cmd.UnitTags[0] != 7 || !cmd.QueueCommand {
		t.Errorf("Expected queued command for unit 7, got %s", action)
	}
}

func TestHeuristic_EndToEndAttack(t *testing.T) {
	h := forced(BehaviorAttack)
	o := obs.Observation{
		Minerals: 10,
		Friendly: []obs.Unit{unit(3, sc2.UnitTypeSCV, sc2.AllianceSelf)},
		Enemy:    []obs.Unit{unit(9, sc2.UnitTypeZealot, sc2.AllianceEnemy)},
		Neutral:  []obs.Unit{unit(5, sc2.UnitTypeMineralField, sc2.AllianceNeutral)},
	}

	in, _ := h.SelectAction(context.Background(), o)
	if in.Kind != intent.KindAttack || in.Target != intent.UnitTarget(9) {
		t.Fatalf("Expected attack on unit 9, got %s", in)
	}

	action, err := encoder.Encode(in)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", in, err)
	}
	if action.UnitCommand.AbilityID != sc2.AbilityAttack {
		t.Errorf("Expected attack ability, got %d", action.UnitCommand.AbilityID)
	}
	if action.UnitCommand.Target != (sc2.TargetUnitTag{Tag: 9}) {
		t.Errorf("Expected unit-targeted attack, got %s", action)
	}
	if action.UnitCommand.UnitTags[0] != 3 {
		t.Errorf("Expected worker 3 to attack, got %v", action.UnitCommand.UnitTags)
	}
}

func TestHeuristic_RandomBranchVariety(t *testing.T) {
	h := NewHeuristicWithRand(rand.New(rand.NewSource(42)))
	o := obs.Observation{
		Minerals: BuildThreshold,
		Friendly: []obs.Unit{unit(3, sc2.UnitTypeSCV, sc2.AllianceSelf)},
		Enemy:    []obs.Unit{unit(9, sc2.UnitTypeZealot, sc2.AllianceEnemy)},
		Neutral:  []obs.Unit{unit(5, sc2.UnitTypeMineralField, sc2.AllianceNeutral)},
	}

	kinds := make(map[intent.Kind]bool)
	for i := 0; i < 100; i++ {
		got, _ := h.SelectAction(context.Background(), o)
		kinds[got.Kind] = true
	}

	for _, k := range []intent.Kind{intent.KindHarvest, intent.KindBuildStructure, intent.KindAttack} {
		if !kinds[k] {
			t.Errorf("Expected %s to be chosen at least once in 100 steps", k)
		}
	}
}
