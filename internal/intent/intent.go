// Package intent defines the decision a policy makes on each tick, before it
// is encoded into an engine command.
package intent

import (
	"fmt"

	"github.com/cartridge/sc2agent/internal/sc2"
)

// Kind enumerates the supported actions
type Kind int

const (
	KindNoOp Kind = iota
	KindMove
	KindPatrol
	KindAttack
	KindHarvest
	KindBuildStructure
	KindTrainUnit
	KindCancel
)

var kindNames = map[Kind]string{
	KindNoOp:           "no_op",
	KindMove:           "move",
	KindPatrol:         "patrol",
	KindAttack:         "attack",
	KindHarvest:        "harvest",
	KindBuildStructure: "build_structure",
	KindTrainUnit:      "train_unit",
	KindCancel:         "cancel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Known reports whether k is one of the declared kinds
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// IsMovement reports whether k is Move, Patrol or Attack
func (k Kind) IsMovement() bool {
	return k == KindMove || k == KindPatrol || k == KindAttack
}

// Timing selects immediate execution or appending to the unit's queue
type Timing int

const (
	TimingNow Timing = iota
	TimingQueued
)

func (t Timing) String() string {
	if t == TimingQueued {
		return "queued"
	}
	return "now"
}

// TargetKind tells which field of a Target is meaningful
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetUnit
	TargetPoint
)

func (k TargetKind) String() string {
	switch k {
	case TargetNone:
		return "none"
	case TargetUnit:
		return "unit"
	case TargetPoint:
		return "point"
	default:
		return fmt.Sprintf("target(%d)", int(k))
	}
}

// Target is the object of an action: nothing, a unit or a map point
type Target struct {
	Kind  TargetKind
	Tag   sc2.UnitTag
	Point sc2.Point2D
}

// UnitTarget targets the unit with the given tag
func UnitTarget(tag sc2.UnitTag) Target {
	return Target{Kind: TargetUnit, Tag: tag}
}

// PointTarget targets a map position
func PointTarget(x, y float32) Target {
	return Target{Kind: TargetPoint, Point: sc2.Point2D{X: x, Y: y}}
}

// Intent is a policy's decision for one tick
type Intent struct {
	Kind   Kind
	Units  []sc2.UnitTag
	Target Target
	Timing Timing
}

func (i Intent) String() string {
	s := fmt.Sprintf("%s(units=%v, timing=%s", i.Kind, i.Units, i.Timing)
	switch i.Target.Kind {
	case TargetUnit:
		s += fmt.Sprintf(", target=unit %d", i.Target.Tag)
	case TargetPoint:
		s += fmt.Sprintf(", target=(%.2f, %.2f)", i.Target.Point.X, i.Target.Point.Y)
	}
	return s + ")"
}

// NoOp does nothing this tick
func NoOp() Intent { return Intent{Kind: KindNoOp} }

// Move moves units toward a target
func Move(units []sc2.UnitTag, target Target, timing Timing) Intent {
	return Intent{Kind: KindMove, Units: units, Target: target, Timing: timing}
}

// Patrol patrols units toward a target
func Patrol(units []sc2.UnitTag, target Target, timing Timing) Intent {
	return Intent{Kind: KindPatrol, Units: units, Target: target, Timing: timing}
}

// Attack attacks a unit or attack-moves to a point
func Attack(units []sc2.UnitTag, target Target, timing Timing) Intent {
	return Intent{Kind: KindAttack, Units: units, Target: target, Timing: timing}
}

// Harvest sends workers to a resource node. Harvest orders are always
// queued by the encoder whatever timing is given here.
func Harvest(units []sc2.UnitTag, node sc2.UnitTag, timing Timing) Intent {
	return Intent{Kind: KindHarvest, Units: units, Target: UnitTarget(node), Timing: timing}
}

// BuildStructure orders a worker to build at a point
func BuildStructure(units []sc2.UnitTag, x, y float32, timing Timing) Intent {
	return Intent{Kind: KindBuildStructure, Units: units, Target: PointTarget(x, y), Timing: timing}
}

// TrainUnit trains a unit from a producer structure
func TrainUnit(units []sc2.UnitTag, timing Timing) Intent {
	return Intent{Kind: KindTrainUnit, Units: units, Timing: timing}
}

// Cancel stops the selected units
func Cancel(units []sc2.UnitTag, timing Timing) Intent {
	return Intent{Kind: KindCancel, Units: units, Timing: timing}
}
