// Package obs turns raw engine observations into the simplified,
// player-partitioned snapshot that policies consume.
package obs

import "github.com/cartridge/sc2agent/internal/sc2"

// Unit is a simplified representation of a unit
type Unit struct {
	Tag      sc2.UnitTag
	UnitType sc2.UnitTypeID
	Player   sc2.Alliance
	Health   float32
	Shield   float32
	X        float32
	Y        float32
	Progress float32
}

// Observation is a simplified representation of one tick's observation
type Observation struct {
	Minerals uint32
	FoodCap  uint32
	FoodUsed uint32

	Friendly []Unit
	Enemy    []Unit
	Neutral  []Unit
}

// ParseUnit converts a raw unit record into a Unit
func ParseUnit(u sc2.RawUnit) Unit {
	return Unit{
		Tag:      u.Tag,
		UnitType: u.UnitType,
		Player:   u.Alliance,
		Health:   u.Health,
		Shield:   u.Shield,
		X:        u.Pos.X,
		Y:        u.Pos.Y,
		Progress: u.BuildProgress,
	}
}

// Translate builds an Observation from a raw engine observation. Units keep
// the engine's enumeration order within each partition; units whose
// alliance is neither self, enemy nor neutral are dropped.
func Translate(raw sc2.RawObservation) Observation {
	var o Observation
	if raw.Player != nil {
		o.Minerals = raw.Player.Minerals
		o.FoodCap = raw.Player.FoodCap
		o.FoodUsed = raw.Player.FoodUsed
	}

	for _, ru := range raw.RawUnits {
		u := ParseUnit(ru)
		switch u.Player {
		case sc2.AllianceSelf:
			o.Friendly = append(o.Friendly, u)
		case sc2.AllianceEnemy:
			o.Enemy = append(o.Enemy, u)
		case sc2.AllianceNeutral:
			o.Neutral = append(o.Neutral, u)
		}
	}
	return o
}

// OfType returns the units of the given type, in order
func OfType(units []Unit, unitType sc2.UnitTypeID) []Unit {
	var out []Unit
	for _, u := range units {
		if u.UnitType == unitType {
			out = append(out, u)
		}
	}
	return out
}

// Tags returns the tags of units, in order
func Tags(units []Unit) []sc2.UnitTag {
	tags := make([]sc2.UnitTag, len(units))
	for i, u := range units {
		tags[i] = u.Tag
	}
	return tags
}
