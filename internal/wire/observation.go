package wire

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/sc2"
)

// EncodeObservation builds the sc2bridge.v1.Observation sent to a remote
// controller.
func EncodeObservation(o obs.Observation) *dynamicpb.Message {
	m := NewMessage(ObservationMessage)
	set(m, "mineral_count", uint32Of(o.Minerals))
	set(m, "food_cap", uint32Of(o.FoodCap))
	set(m, "food_used", uint32Of(o.FoodUsed))
	encodeUnits(list(m, "friendly_units"), o.Friendly)
	encodeUnits(list(m, "enemy_units"), o.Enemy)
	encodeUnits(list(m, "neutral_units"), o.Neutral)
	return m
}

func encodeUnits(l protoreflect.List, units []obs.Unit) {
	for _, u := range units {
		um := appendMessage(l)
		set(um, "unit_tag", uint64Of(uint64(u.Tag)))
		set(um, "unit_type", uint32Of(uint32(u.UnitType)))
		set(um, "player", int32Of(int32(u.Player)))
		set(um, "health", float32Of(u.Health))
		set(um, "shields", float32Of(u.Shield))
		set(um, "x", float32Of(u.X))
		set(um, "y", float32Of(u.Y))
		set(um, "progress", float32Of(u.Progress))
	}
}

// DecodeObservation reads an sc2bridge.v1.Observation
func DecodeObservation(msg proto.Message) (obs.Observation, error) {
	m, err := expect(msg, ObservationMessage)
	if err != nil {
		return obs.Observation{}, err
	}
	return obs.Observation{
		Minerals: uint32(get(m, "mineral_count").Uint()),
		FoodCap:  uint32(get(m, "food_cap").Uint()),
		FoodUsed: uint32(get(m, "food_used").Uint()),
		Friendly: decodeUnits(get(m, "friendly_units").List()),
		Enemy:    decodeUnits(get(m, "enemy_units").List()),
		Neutral:  decodeUnits(get(m, "neutral_units").List()),
	}, nil
}

func decodeUnits(l protoreflect.List) []obs.Unit {
	if l.Len() == 0 {
		return nil
	}
	units := make([]obs.Unit, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		um := l.Get(i).Message()
		units = append(units, obs.Unit{
			Tag:      sc2.UnitTag(get(um, "unit_tag").Uint()),
			UnitType: sc2.UnitTypeID(get(um, "unit_type").Uint()),
			Player:   sc2.Alliance(get(um, "player").Int()),
			Health:   float32(get(um, "health").Float()),
			Shield:   float32(get(um, "shields").Float()),
			X:        float32(get(um, "x").Float()),
			Y:        float32(get(um, "y").Float()),
			Progress: float32(get(um, "progress").Float()),
		})
	}
	return units
}
