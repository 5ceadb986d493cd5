package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cartridge/sc2agent/internal/sc2"
)

func TestKind(t *testing.T) {
	assert.True(t, KindAttack.IsMovement())
	assert.False(t, KindHarvest.IsMovement())
	assert.True(t, KindCancel.Known())
	assert.False(t, Kind(99).Known())
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestConstructors(t *testing.T) {
	h := Harvest([]sc2.UnitTag{3}, 5, TimingNow)
	assert.Equal(t, KindHarvest, h.Kind)
	assert.Equal(t, UnitTarget(5), h.Target)

	b := BuildStructure([]sc2.UnitTag{3}, 12.5, 15.5, TimingNow)
	assert.Equal(t, TargetPoint, b.Target.Kind)
	assert.Equal(t, sc2.Point2D{X: 12.5, Y: 15.5}, b.Target.Point)

	tr := TrainUnit([]sc2.UnitTag{7}, TimingQueued)
	assert.Equal(t, TargetNone, tr.Target.Kind)
	assert.Equal(t, "train_unit(units=[7], timing=queued)", tr.String())
}
