// Package sc2 holds the engine-side types exchanged with the StarCraft II host:
// raw per-tick observations, capability descriptors, player setups and the
// native raw unit command.
package sc2

import (
	"fmt"
	"strings"
)

// UnitTag uniquely identifies a unit for the lifetime of a game
type UnitTag uint64

// UnitTypeID identifies a unit or structure type
type UnitTypeID uint32

// AbilityID identifies an engine ability
type AbilityID uint32

// Alliance is the relation of a unit's owner to the observing player
type Alliance int32

const (
	AllianceSelf    Alliance = 1
	AllianceAlly    Alliance = 2
	AllianceNeutral Alliance = 3
	AllianceEnemy   Alliance = 4
)

func (a Alliance) String() string {
	switch a {
	case AllianceSelf:
		return "self"
	case AllianceAlly:
		return "ally"
	case AllianceNeutral:
		return "neutral"
	case AllianceEnemy:
		return "enemy"
	default:
		return fmt.Sprintf("alliance(%d)", int32(a))
	}
}

// Point2D is a position in world space
type Point2D struct {
	X float32
	Y float32
}

// RawUnit is one unit record as reported by the engine
type RawUnit struct {
	Tag           UnitTag
	UnitType      UnitTypeID
	Alliance      Alliance
	Health        float32
	Shield        float32
	Pos           Point2D
	BuildProgress float32
}

// PlayerCommon carries the observing player's counters
type PlayerCommon struct {
	Minerals uint32
	FoodCap  uint32
	FoodUsed uint32
}

// RawObservation is the engine observation for one agent on one tick
type RawObservation struct {
	GameLoop uint32
	Player   *PlayerCommon
	RawUnits []RawUnit
}

// StepType marks where a timestep sits in its episode
type StepType int32

const (
	StepFirst StepType = 0
	StepMid   StepType = 1
	StepLast  StepType = 2
)

// TimeStep is what an agent receives each tick
type TimeStep struct {
	StepType    StepType
	Reward      float32
	Discount    float32
	Observation RawObservation
}

// First reports whether this is the first step of an episode
func (t TimeStep) First() bool { return t.StepType == StepFirst }

// Last reports whether this is the final step of an episode
func (t TimeStep) Last() bool { return t.StepType == StepLast }

// Observation fields an engine may advertise in an AgentSpec
const (
	FieldRawUnits      = "raw_units"
	FieldPlayer        = "player"
	FieldFeatureScreen = "feature_screen"
	FieldFeatureMap    = "feature_minimap"
)

// AgentSpec is the capability descriptor negotiated for one agent: which
// observation fields the engine will fill and which action modes it accepts.
type AgentSpec struct {
	ObservationFields []string
	ActionModes       []string
}

// HasObservation reports whether the engine provides the named observation field
func (s AgentSpec) HasObservation(field string) bool {
	for _, f := range s.ObservationFields {
		if f == field {
			return true
		}
	}
	return false
}

// Race of a player
type Race int32

const (
	RaceUnspecified Race = 0
	RaceTerran      Race = 1
	RaceZerg        Race = 2
	RaceProtoss     Race = 3
	RaceRandom      Race = 4
)

var raceNames = map[Race]string{
	RaceTerran:  "terran",
	RaceZerg:    "zerg",
	RaceProtoss: "protoss",
	RaceRandom:  "random",
}

func (r Race) String() string {
	if name, ok := raceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("race(%d)", int32(r))
}

// ParseRace converts a race name such as "terran" to a Race
func ParseRace(s string) (Race, error) {
	for r, name := range raceNames {
		if strings.EqualFold(s, name) {
			return r, nil
		}
	}
	return RaceUnspecified, fmt.Errorf("unknown race %q", s)
}

// Difficulty of a built-in computer opponent
type Difficulty int32

const (
	DifficultyUnspecified Difficulty = 0
	DifficultyVeryEasy    Difficulty = 1
	DifficultyEasy        Difficulty = 2
	DifficultyMedium      Difficulty = 3
	DifficultyMediumHard  Difficulty = 4
	DifficultyHard        Difficulty = 5
	DifficultyHarder      Difficulty = 6
	DifficultyVeryHard    Difficulty = 7
	DifficultyCheatVision Difficulty = 8
	DifficultyCheatMoney  Difficulty = 9
	DifficultyCheatInsane Difficulty = 10
)

var difficultyNames = map[Difficulty]string{
	DifficultyVeryEasy:    "very_easy",
	DifficultyEasy:        "easy",
	DifficultyMedium:      "medium",
	DifficultyMediumHard:  "medium_hard",
	DifficultyHard:        "hard",
	DifficultyHarder:      "harder",
	DifficultyVeryHard:    "very_hard",
	DifficultyCheatVision: "cheat_vision",
	DifficultyCheatMoney:  "cheat_money",
	DifficultyCheatInsane: "cheat_insane",
}

func (d Difficulty) String() string {
	if name, ok := difficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", int32(d))
}

// ParseDifficulty converts a difficulty name such as "easy" to a Difficulty
func ParseDifficulty(s string) (Difficulty, error) {
	for d, name := range difficultyNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return DifficultyUnspecified, fmt.Errorf("unknown difficulty %q", s)
}

// PlayerType distinguishes agents driven by this process from built-in bots
type PlayerType int32

const (
	PlayerTypeUnspecified PlayerType = 0
	PlayerTypeParticipant PlayerType = 1
	PlayerTypeComputer    PlayerType = 2
)

// PlayerSetup declares one player slot to the engine
type PlayerSetup struct {
	Type       PlayerType
	Race       Race
	Difficulty Difficulty
	Name       string
}

// InterfaceFormat selects which observation and action modes agents use
type InterfaceFormat struct {
	UseRawUnits    bool
	UseRawActions  bool
	FeatureScreen  uint32
	FeatureMinimap uint32
}

// GameSetup is everything the engine needs to start a game
type GameSetup struct {
	MapName             string
	MapPath             string
	Players             []PlayerSetup
	Interface           InterfaceFormat
	StepMul             uint32
	GameStepsPerEpisode uint32
	ScoreIndex          int32
	Realtime            bool
	DisableFog          bool
	Visualize           bool
}

// EnvSpec is returned by the engine after a game is created. Agents holds one
// capability descriptor per participant, in setup order.
type EnvSpec struct {
	SessionID string
	Agents    []AgentSpec
}

// StepResult is the engine's reply to Reset and Step. Outcome is only
// meaningful when HasOutcome is set; it holds one value per agent
// (1 victory, 0 tie, -1 defeat).
type StepResult struct {
	TimeSteps  []TimeStep
	Outcome    []int32
	HasOutcome bool
}
