package sc2

// Unit type IDs used by the bundled policies
const (
	UnitTypeCommandCenter UnitTypeID = 19
	UnitTypeBarracks      UnitTypeID = 21
	UnitTypeSCV           UnitTypeID = 45
	UnitTypeMarine        UnitTypeID = 48
	UnitTypePylon         UnitTypeID = 60
	UnitTypeZealot        UnitTypeID = 73
	UnitTypeMineralField  UnitTypeID = 341
)

// Ability IDs for the raw commands this bridge issues. Movement, attack,
// gather and stop use the general (unit-agnostic) abilities.
const (
	AbilityAttack        AbilityID = 3674
	AbilityMove          AbilityID = 3794
	AbilityPatrol        AbilityID = 3795
	AbilityHarvestGather AbilityID = 3666
	AbilityStop          AbilityID = 3665
	AbilityBuildBarracks AbilityID = 321
	AbilityTrainMarine   AbilityID = 560
)
