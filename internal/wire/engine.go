package wire

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/cartridge/sc2agent/internal/sc2"
)

// EncodeGameSetup builds a sc2bridge.engine.v1.GameSetup
func EncodeGameSetup(g sc2.GameSetup) *dynamicpb.Message {
	m := NewMessage(GameSetupMessage)
	set(m, "map_name", stringOf(g.MapName))
	set(m, "map_path", stringOf(g.MapPath))

	players := list(m, "players")
	for _, p := range g.Players {
		pm := appendMessage(players)
		set(pm, "type", enumOf(p.Type))
		set(pm, "race", enumOf(p.Race))
		set(pm, "difficulty", enumOf(p.Difficulty))
		set(pm, "name", stringOf(p.Name))
	}

	iface := mutable(m, "interface")
	set(iface, "use_raw_units", boolOf(g.Interface.UseRawUnits))
	set(iface, "use_raw_actions", boolOf(g.Interface.UseRawActions))
	set(iface, "feature_screen", uint32Of(g.Interface.FeatureScreen))
	set(iface, "feature_minimap", uint32Of(g.Interface.FeatureMinimap))

	set(m, "step_mul", uint32Of(g.StepMul))
	set(m, "game_steps_per_episode", uint32Of(g.GameStepsPerEpisode))
	set(m, "score_index", int32Of(g.ScoreIndex))
	set(m, "realtime", boolOf(g.Realtime))
	set(m, "disable_fog", boolOf(g.DisableFog))
	set(m, "visualize", boolOf(g.Visualize))
	return m
}

// DecodeGameSetup reads a sc2bridge.engine.v1.GameSetup
func DecodeGameSetup(msg proto.Message) (sc2.GameSetup, error) {
	m, err := expect(msg, GameSetupMessage)
	if err != nil {
		return sc2.GameSetup{}, err
	}

	g := sc2.GameSetup{
		MapName:             get(m, "map_name").String(),
		MapPath:             get(m, "map_path").String(),
		StepMul:             uint32(get(m, "step_mul").Uint()),
		GameStepsPerEpisode: uint32(get(m, "game_steps_per_episode").Uint()),
		ScoreIndex:          int32(get(m, "score_index").Int()),
		Realtime:            get(m, "realtime").Bool(),
		DisableFog:          get(m, "disable_fog").Bool(),
		Visualize:           get(m, "visualize").Bool(),
	}

	players := get(m, "players").List()
	for i := 0; i < players.Len(); i++ {
		pm := players.Get(i).Message()
		g.Players = append(g.Players, sc2.PlayerSetup{
			Type:       sc2.PlayerType(get(pm, "type").Enum()),
			Race:       sc2.Race(get(pm, "race").Enum()),
			Difficulty: sc2.Difficulty(get(pm, "difficulty").Enum()),
			Name:       get(pm, "name").String(),
		})
	}

	if has(m, "interface") {
		iface := get(m, "interface").Message()
		g.Interface = sc2.InterfaceFormat{
			UseRawUnits:    get(iface, "use_raw_units").Bool(),
			UseRawActions:  get(iface, "use_raw_actions").Bool(),
			FeatureScreen:  uint32(get(iface, "feature_screen").Uint()),
			FeatureMinimap: uint32(get(iface, "feature_minimap").Uint()),
		}
	}
	return g, nil
}

// EncodeEnvSpec builds a sc2bridge.engine.v1.EnvSpec
func EncodeEnvSpec(spec sc2.EnvSpec) *dynamicpb.Message {
	m := NewMessage(EnvSpecMessage)
	set(m, "session_id", stringOf(spec.SessionID))
	agents := list(m, "agents")
	for _, a := range spec.Agents {
		am := appendMessage(agents)
		appendStrings(list(am, "observation_fields"), a.ObservationFields)
		appendStrings(list(am, "action_modes"), a.ActionModes)
	}
	return m
}

// DecodeEnvSpec reads a sc2bridge.engine.v1.EnvSpec
func DecodeEnvSpec(msg proto.Message) (sc2.EnvSpec, error) {
	m, err := expect(msg, EnvSpecMessage)
	if err != nil {
		return sc2.EnvSpec{}, err
	}
	spec := sc2.EnvSpec{SessionID: get(m, "session_id").String()}
	agents := get(m, "agents").List()
	for i := 0; i < agents.Len(); i++ {
		am := agents.Get(i).Message()
		spec.Agents = append(spec.Agents, sc2.AgentSpec{
			ObservationFields: readStrings(get(am, "observation_fields").List()),
			ActionModes:       readStrings(get(am, "action_modes").List()),
		})
	}
	return spec, nil
}

// EncodeSessionRequest builds one of the requests that carry only a session
// id: ResetRequest or CloseRequest.
func EncodeSessionRequest(name, sessionID string) *dynamicpb.Message {
	m := NewMessage(name)
	set(m, "session_id", stringOf(sessionID))
	return m
}

// DecodeSessionRequest reads the session id from a ResetRequest or CloseRequest
func DecodeSessionRequest(msg proto.Message, name string) (string, error) {
	m, err := expect(msg, name)
	if err != nil {
		return "", err
	}
	return get(m, "session_id").String(), nil
}

// EncodeStepRequest builds a sc2bridge.engine.v1.StepRequest with one action
// per agent.
func EncodeStepRequest(sessionID string, actions []sc2.Action) *dynamicpb.Message {
	m := NewMessage(StepRequestMessage)
	set(m, "session_id", stringOf(sessionID))
	l := list(m, "actions")
	for _, a := range actions {
		am := appendMessage(l)
		if a.UnitCommand != nil {
			encodeUnitCommand(mutable(am, "unit_command"), a.UnitCommand)
		}
	}
	return m
}

func encodeUnitCommand(m protoreflect.Message, c *sc2.UnitCommand) {
	set(m, "ability_id", uint32Of(uint32(c.AbilityID)))
	tags := list(m, "unit_tags")
	for _, t := range c.UnitTags {
		tags.Append(uint64Of(uint64(t)))
	}
	set(m, "queue_command", boolOf(c.QueueCommand))
	switch t := c.Target.(type) {
	case sc2.TargetUnitTag:
		set(m, "target_unit_tag", uint64Of(uint64(t.Tag)))
	case sc2.TargetWorldSpacePos:
		p := mutable(m, "target_world_space_pos")
		set(p, "x", float32Of(t.Pos.X))
		set(p, "y", float32Of(t.Pos.Y))
	}
}

// DecodeStepRequest reads a sc2bridge.engine.v1.StepRequest
func DecodeStepRequest(msg proto.Message) (string, []sc2.Action, error) {
	m, err := expect(msg, StepRequestMessage)
	if err != nil {
		return "", nil, err
	}
	l := get(m, "actions").List()
	actions := make([]sc2.Action, l.Len())
	for i := range actions {
		am := l.Get(i).Message()
		if has(am, "unit_command") {
			actions[i].UnitCommand = decodeUnitCommand(get(am, "unit_command").Message())
		}
	}
	return get(m, "session_id").String(), actions, nil
}

func decodeUnitCommand(m protoreflect.Message) *sc2.UnitCommand {
	c := &sc2.UnitCommand{
		AbilityID:    sc2.AbilityID(get(m, "ability_id").Uint()),
		QueueCommand: get(m, "queue_command").Bool(),
	}
	tags := get(m, "unit_tags").List()
	for i := 0; i < tags.Len(); i++ {
		c.UnitTags = append(c.UnitTags, sc2.UnitTag(tags.Get(i).Uint()))
	}
	switch whichOneof(m, "target") {
	case "target_unit_tag":
		c.Target = sc2.TargetUnitTag{Tag: sc2.UnitTag(get(m, "target_unit_tag").Uint())}
	case "target_world_space_pos":
		c.Target = sc2.TargetWorldSpacePos{Pos: readPoint(get(m, "target_world_space_pos").Message())}
	}
	return c
}

// EncodeStepResponse builds a sc2bridge.engine.v1.StepResponse
func EncodeStepResponse(r sc2.StepResult) *dynamicpb.Message {
	m := NewMessage(StepResponseMessage)
	steps := list(m, "timesteps")
	for _, ts := range r.TimeSteps {
		tm := appendMessage(steps)
		set(tm, "step_type", enumOf(ts.StepType))
		set(tm, "reward", float32Of(ts.Reward))
		set(tm, "discount", float32Of(ts.Discount))
		encodeRawObservation(mutable(tm, "observation"), ts.Observation)
	}
	outcome := list(m, "outcome")
	for _, o := range r.Outcome {
		outcome.Append(int32Of(o))
	}
	set(m, "has_outcome", boolOf(r.HasOutcome))
	return m
}

func encodeRawObservation(m protoreflect.Message, o sc2.RawObservation) {
	set(m, "game_loop", uint32Of(o.GameLoop))
	if o.Player != nil {
		p := mutable(m, "player")
		set(p, "minerals", uint32Of(o.Player.Minerals))
		set(p, "food_cap", uint32Of(o.Player.FoodCap))
		set(p, "food_used", uint32Of(o.Player.FoodUsed))
	}
	units := list(m, "raw_units")
	for _, u := range o.RawUnits {
		um := appendMessage(units)
		set(um, "tag", uint64Of(uint64(u.Tag)))
		set(um, "unit_type", uint32Of(uint32(u.UnitType)))
		set(um, "alliance", int32Of(int32(u.Alliance)))
		set(um, "health", float32Of(u.Health))
		set(um, "shield", float32Of(u.Shield))
		pos := mutable(um, "pos")
		set(pos, "x", float32Of(u.Pos.X))
		set(pos, "y", float32Of(u.Pos.Y))
		set(um, "build_progress", float32Of(u.BuildProgress))
	}
}

// DecodeStepResponse reads a sc2bridge.engine.v1.StepResponse
func DecodeStepResponse(msg proto.Message) (sc2.StepResult, error) {
	m, err := expect(msg, StepResponseMessage)
	if err != nil {
		return sc2.StepResult{}, err
	}

	var r sc2.StepResult
	steps := get(m, "timesteps").List()
	for i := 0; i < steps.Len(); i++ {
		tm := steps.Get(i).Message()
		stepType := sc2.StepType(get(tm, "step_type").Enum())
		if stepType < sc2.StepFirst || stepType > sc2.StepLast {
			return sc2.StepResult{}, fmt.Errorf("timestep %d: unknown step type %d", i, stepType)
		}
		r.TimeSteps = append(r.TimeSteps, sc2.TimeStep{
			StepType:    stepType,
			Reward:      float32(get(tm, "reward").Float()),
			Discount:    float32(get(tm, "discount").Float()),
			Observation: decodeRawObservation(get(tm, "observation").Message()),
		})
	}

	outcome := get(m, "outcome").List()
	for i := 0; i < outcome.Len(); i++ {
		r.Outcome = append(r.Outcome, int32(outcome.Get(i).Int()))
	}
	r.HasOutcome = get(m, "has_outcome").Bool()
	return r, nil
}

func decodeRawObservation(m protoreflect.Message) sc2.RawObservation {
	o := sc2.RawObservation{GameLoop: uint32(get(m, "game_loop").Uint())}
	if has(m, "player") {
		p := get(m, "player").Message()
		o.Player = &sc2.PlayerCommon{
			Minerals: uint32(get(p, "minerals").Uint()),
			FoodCap:  uint32(get(p, "food_cap").Uint()),
			FoodUsed: uint32(get(p, "food_used").Uint()),
		}
	}
	units := get(m, "raw_units").List()
	for i := 0; i < units.Len(); i++ {
		um := units.Get(i).Message()
		o.RawUnits = append(o.RawUnits, sc2.RawUnit{
			Tag:           sc2.UnitTag(get(um, "tag").Uint()),
			UnitType:      sc2.UnitTypeID(get(um, "unit_type").Uint()),
			Alliance:      sc2.Alliance(get(um, "alliance").Int()),
			Health:        float32(get(um, "health").Float()),
			Shield:        float32(get(um, "shield").Float()),
			Pos:           readPoint(get(um, "pos").Message()),
			BuildProgress: float32(get(um, "build_progress").Float()),
		})
	}
	return o
}

// EncodeSaveReplayRequest builds a sc2bridge.engine.v1.SaveReplayRequest
func EncodeSaveReplayRequest(sessionID, prefix, directory string) *dynamicpb.Message {
	m := NewMessage(SaveReplayRequestMessage)
	set(m, "session_id", stringOf(sessionID))
	set(m, "prefix", stringOf(prefix))
	set(m, "directory", stringOf(directory))
	return m
}

// DecodeSaveReplayRequest returns the session id, prefix and directory
func DecodeSaveReplayRequest(msg proto.Message) (sessionID, prefix, directory string, err error) {
	m, err := expect(msg, SaveReplayRequestMessage)
	if err != nil {
		return "", "", "", err
	}
	return get(m, "session_id").String(), get(m, "prefix").String(), get(m, "directory").String(), nil
}

// EncodeSaveReplayResponse builds a sc2bridge.engine.v1.SaveReplayResponse
func EncodeSaveReplayResponse(path string) *dynamicpb.Message {
	m := NewMessage(SaveReplayResponseMessage)
	set(m, "path", stringOf(path))
	return m
}

// DecodeSaveReplayResponse returns the path the replay was written to
func DecodeSaveReplayResponse(msg proto.Message) (string, error) {
	m, err := expect(msg, SaveReplayResponseMessage)
	if err != nil {
		return "", err
	}
	return get(m, "path").String(), nil
}

func readPoint(m protoreflect.Message) sc2.Point2D {
	return sc2.Point2D{X: float32(get(m, "x").Float()), Y: float32(get(m, "y").Float())}
}

func appendStrings(l protoreflect.List, values []string) {
	for _, v := range values {
		l.Append(stringOf(v))
	}
}

func readStrings(l protoreflect.List) []string {
	if l.Len() == 0 {
		return nil
	}
	out := make([]string, l.Len())
	for i := range out {
		out[i] = l.Get(i).String()
	}
	return out
}
