package policy

import (
	"context"
	"math/rand"
	"time"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/sc2"
)

const (
	// TrainThreshold is the mineral count needed to queue a unit
	TrainThreshold = 50
	// BuildThreshold is the mineral count needed to start a structure
	BuildThreshold = 150
)

// BuildPoint is where the heuristic places its structure
var BuildPoint = sc2.Point2D{X: 12.5, Y: 15.5}

// Behavior is one of the heuristic's randomly chosen worker actions
type Behavior int

const (
	BehaviorHarvest Behavior = iota
	BehaviorBuild
	BehaviorAttack
)

func (b Behavior) String() string {
	switch b {
	case BehaviorHarvest:
		return "harvest"
	case BehaviorBuild:
		return "build_structure"
	case BehaviorAttack:
		return "attack"
	default:
		return "unknown"
	}
}

var behaviors = []Behavior{BehaviorHarvest, BehaviorBuild, BehaviorAttack}

// Heuristic gathers minerals, builds a barracks, trains marines and attacks.
//
// When a barracks exists and minerals allow, it always queues a marine.
// Otherwise it picks one worker behavior uniformly at random; a behavior that
// cannot run this tick yields a no-op rather than a retry.
type Heuristic struct {
	pick func() Behavior

	// Recorded when the corresponding intent is emitted. The decision rule
	// does not read them.
	builtStructure bool
	trainedUnit    bool
}

// NewHeuristic creates a heuristic policy seeded from the clock
func NewHeuristic() *Heuristic {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return NewHeuristicWithRand(rng)
}

// NewHeuristicWithRand creates a heuristic policy drawing from rng
func NewHeuristicWithRand(rng *rand.Rand) *Heuristic {
	return &Heuristic{
		pick: func() Behavior { return behaviors[rng.Intn(len(behaviors))] },
	}
}

// BuiltStructure reports whether a build intent has been emitted
func (h *Heuristic) BuiltStructure() bool { return h.builtStructure }

// TrainedUnit reports whether a train intent has been emitted
func (h *Heuristic) TrainedUnit() bool { return h.trainedUnit }

// SelectAction implements Policy
func (h *Heuristic) SelectAction(_ context.Context, o obs.Observation) (intent.Intent, error) {
	barracks := obs.OfType(o.Friendly, sc2.UnitTypeBarracks)
	if len(barracks) > 0 && o.Minerals >= TrainThreshold {
		h.trainedUnit = true
		return intent.TrainUnit([]sc2.UnitTag{barracks[0].Tag}, intent.TimingQueued), nil
	}

	workers := obs.OfType(o.Friendly, sc2.UnitTypeSCV)
	if len(workers) == 0 {
		return intent.NoOp(), nil
	}
	worker := []sc2.UnitTag{workers[0].Tag}

	switch h.pick() {
	case BehaviorHarvest:
		fields := obs.OfType(o.Neutral, sc2.UnitTypeMineralField)
		if len(fields) > 0 {
			return intent.Harvest(worker, fields[0].Tag, intent.TimingNow), nil
		}

	case BehaviorBuild:
		if o.Minerals >= BuildThreshold {
			h.builtStructure = true
			return intent.BuildStructure(worker, BuildPoint.X, BuildPoint.Y, intent.TimingNow), nil
		}

	case BehaviorAttack:
		if len(o.Enemy) > 0 {
			return intent.Attack(worker, intent.UnitTarget(o.Enemy[0].Tag), intent.TimingNow), nil
		}
	}

	return intent.NoOp(), nil
}
