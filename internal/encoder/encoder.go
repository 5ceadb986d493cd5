// Package encoder converts policy intents into native engine commands.
package encoder

import (
	"errors"
	"fmt"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/sc2"
)

// ErrInvalidIntent is returned when an intent cannot be mapped to a command
var ErrInvalidIntent = errors.New("invalid intent")

type commandKey struct {
	kind   intent.Kind
	target intent.TargetKind
}

type constructor func(queued bool, units []sc2.UnitTag, t intent.Target) sc2.Action

func unitCtor(fn func(bool, []sc2.UnitTag, sc2.UnitTag) sc2.Action) constructor {
	return func(queued bool, units []sc2.UnitTag, t intent.Target) sc2.Action {
		return fn(queued, units, t.Tag)
	}
}

func pointCtor(fn func(bool, []sc2.UnitTag, sc2.Point2D) sc2.Action) constructor {
	return func(queued bool, units []sc2.UnitTag, t intent.Target) sc2.Action {
		return fn(queued, units, t.Point)
	}
}

func quickCtor(fn func(bool, []sc2.UnitTag) sc2.Action) constructor {
	return func(queued bool, units []sc2.UnitTag, _ intent.Target) sc2.Action {
		return fn(queued, units)
	}
}

// commands is the complete set of accepted (kind, target kind) pairs.
var commands = map[commandKey]constructor{
	{intent.KindMove, intent.TargetUnit}:            unitCtor(sc2.MoveUnit),
	{intent.KindMove, intent.TargetPoint}:           pointCtor(sc2.MovePoint),
	{intent.KindPatrol, intent.TargetUnit}:          unitCtor(sc2.PatrolUnit),
	{intent.KindPatrol, intent.TargetPoint}:         pointCtor(sc2.PatrolPoint),
	{intent.KindAttack, intent.TargetUnit}:          unitCtor(sc2.AttackUnit),
	{intent.KindAttack, intent.TargetPoint}:         pointCtor(sc2.AttackPoint),
	{intent.KindHarvest, intent.TargetUnit}:         harvest,
	{intent.KindBuildStructure, intent.TargetPoint}: pointCtor(sc2.BuildBarracksPoint),
	{intent.KindTrainUnit, intent.TargetNone}:       quickCtor(sc2.TrainMarineQuick),
	{intent.KindCancel, intent.TargetNone}:          quickCtor(sc2.StopQuick),
}

// Harvest orders are always queued so a worker finishes its current trip.
func harvest(_ bool, units []sc2.UnitTag, t intent.Target) sc2.Action {
	return sc2.HarvestGatherUnit(true, units, t.Tag)
}

// Encode converts an intent into the engine's native command
func Encode(in intent.Intent) (sc2.Action, error) {
	if in.Kind == intent.KindNoOp {
		return sc2.NoOp(), nil
	}
	if !in.Kind.Known() {
		return sc2.Action{}, fmt.Errorf("%w: unsupported action kind %s", ErrInvalidIntent, in.Kind)
	}

	switch in.Target.Kind {
	case intent.TargetNone, intent.TargetUnit, intent.TargetPoint:
	default:
		return sc2.Action{}, fmt.Errorf("%w: %s has invalid target type %s, must be unit or point",
			ErrInvalidIntent, in.Kind, in.Target.Kind)
	}

	ctor, ok := commands[commandKey{in.Kind, in.Target.Kind}]
	if !ok {
		if in.Kind.IsMovement() && in.Target.Kind == intent.TargetNone {
			return sc2.Action{}, fmt.Errorf("%w: %s requires a target", ErrInvalidIntent, in.Kind)
		}
		return sc2.Action{}, fmt.Errorf("%w: %s does not accept a %s target",
			ErrInvalidIntent, in.Kind, in.Target.Kind)
	}

	if len(in.Units) == 0 {
		return sc2.Action{}, fmt.Errorf("%w: %s has no units selected", ErrInvalidIntent, in.Kind)
	}

	return ctor(in.Timing == intent.TimingQueued, in.Units, in.Target), nil
}
