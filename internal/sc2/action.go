package sc2

import (
	"fmt"
	"strings"
)

// Action is the native command handed back to the engine for one agent on
// one tick. A nil UnitCommand is a no-op.
type Action struct {
	UnitCommand *UnitCommand
}

// UnitCommand orders a set of units to use an ability, optionally against a
// target. QueueCommand appends the order to each unit's queue instead of
// replacing it.
type UnitCommand struct {
	AbilityID    AbilityID
	UnitTags     []UnitTag
	QueueCommand bool
	Target       CommandTarget
}

// CommandTarget is either TargetWorldSpacePos, TargetUnitTag or nil
type CommandTarget interface {
	isCommandTarget()
}

// TargetWorldSpacePos targets a map position
type TargetWorldSpacePos struct {
	Pos Point2D
}

// TargetUnitTag targets another unit
type TargetUnitTag struct {
	Tag UnitTag
}

func (TargetWorldSpacePos) isCommandTarget() {}
func (TargetUnitTag) isCommandTarget()       {}

// IsNoOp reports whether the action carries no command
func (a Action) IsNoOp() bool { return a.UnitCommand == nil }

func (a Action) String() string {
	if a.UnitCommand == nil {
		return "no_op()"
	}
	c := a.UnitCommand
	timing := "now"
	if c.QueueCommand {
		timing = "queued"
	}
	tags := make([]string, len(c.UnitTags))
	for i, t := range c.UnitTags {
		tags[i] = fmt.Sprintf("%d", t)
	}
	s := fmt.Sprintf("ability=%d %s units=[%s]", c.AbilityID, timing, strings.Join(tags, ","))
	switch t := c.Target.(type) {
	case TargetUnitTag:
		s += fmt.Sprintf(" target_unit=%d", t.Tag)
	case TargetWorldSpacePos:
		s += fmt.Sprintf(" target_pos=(%.2f,%.2f)", t.Pos.X, t.Pos.Y)
	}
	return s
}

// NoOp returns the empty action
func NoOp() Action { return Action{} }

func quick(ability AbilityID, queued bool, units []UnitTag) Action {
	return Action{UnitCommand: &UnitCommand{
		AbilityID:    ability,
		UnitTags:     append([]UnitTag(nil), units...),
		QueueCommand: queued,
	}}
}

func onPoint(ability AbilityID, queued bool, units []UnitTag, pos Point2D) Action {
	a := quick(ability, queued, units)
	a.UnitCommand.Target = TargetWorldSpacePos{Pos: pos}
	return a
}

func onUnit(ability AbilityID, queued bool, units []UnitTag, target UnitTag) Action {
	a := quick(ability, queued, units)
	a.UnitCommand.Target = TargetUnitTag{Tag: target}
	return a
}

// MoveUnit moves units to follow another unit
func MoveUnit(queued bool, units []UnitTag, target UnitTag) Action {
	return onUnit(AbilityMove, queued, units, target)
}

// MovePoint moves units to a position
func MovePoint(queued bool, units []UnitTag, pos Point2D) Action {
	return onPoint(AbilityMove, queued, units, pos)
}

// PatrolUnit patrols between the units' position and another unit
func PatrolUnit(queued bool, units []UnitTag, target UnitTag) Action {
	return onUnit(AbilityPatrol, queued, units, target)
}

// PatrolPoint patrols between the units' position and a point
func PatrolPoint(queued bool, units []UnitTag, pos Point2D) Action {
	return onPoint(AbilityPatrol, queued, units, pos)
}

// AttackUnit attacks a specific unit
func AttackUnit(queued bool, units []UnitTag, target UnitTag) Action {
	return onUnit(AbilityAttack, queued, units, target)
}

// AttackPoint attack-moves to a position
func AttackPoint(queued bool, units []UnitTag, pos Point2D) Action {
	return onPoint(AbilityAttack, queued, units, pos)
}

// HarvestGatherUnit sends workers to gather from a resource node
func HarvestGatherUnit(queued bool, units []UnitTag, target UnitTag) Action {
	return onUnit(AbilityHarvestGather, queued, units, target)
}

// BuildBarracksPoint orders a worker to build a Barracks at a position
func BuildBarracksPoint(queued bool, units []UnitTag, pos Point2D) Action {
	return onPoint(AbilityBuildBarracks, queued, units, pos)
}

// TrainMarineQuick trains a Marine from a Barracks
func TrainMarineQuick(queued bool, units []UnitTag) Action {
	return quick(AbilityTrainMarine, queued, units)
}

// StopQuick stops units and clears their command queue
func StopQuick(queued bool, units []UnitTag) Action {
	return quick(AbilityStop, queued, units)
}
