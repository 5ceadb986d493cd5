package wire

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/sc2"
)

// Wire Timing values
const (
	timingNow    = 0
	timingQueued = 1
)

// EncodeAction builds the sc2bridge.v1.Action a controller returns. The
// ActionType number is the intent kind's number.
func EncodeAction(in intent.Intent) (*dynamicpb.Message, error) {
	m := NewMessage(ActionMessage)
	set(m, "action_type", enumOf(in.Kind))

	tags := list(m, "unit_tags")
	for _, t := range in.Units {
		tags.Append(uint64Of(uint64(t)))
	}

	switch in.Target.Kind {
	case intent.TargetNone:
	case intent.TargetUnit:
		set(m, "target_tag", uint64Of(uint64(in.Target.Tag)))
	case intent.TargetPoint:
		p := mutable(m, "target_point")
		set(p, "x", float32Of(in.Target.Point.X))
		set(p, "y", float32Of(in.Target.Point.Y))
	default:
		return nil, fmt.Errorf("cannot encode %s target", in.Target.Kind)
	}

	if in.Timing == intent.TimingQueued {
		set(m, "timing", enumOf(timingQueued))
	}
	return m, nil
}

// DecodeAction reads an sc2bridge.v1.Action. Unknown action types come back as
// unknown kinds and are left for the encoder to reject.
func DecodeAction(msg proto.Message) (intent.Intent, error) {
	m, err := expect(msg, ActionMessage)
	if err != nil {
		return intent.Intent{}, err
	}

	in := intent.Intent{Kind: intent.Kind(get(m, "action_type").Enum())}

	tags := get(m, "unit_tags").List()
	if tags.Len() > 0 {
		in.Units = make([]sc2.UnitTag, tags.Len())
		for i := range in.Units {
			in.Units[i] = sc2.UnitTag(tags.Get(i).Uint())
		}
	}

	switch whichOneof(m, "target") {
	case "target_tag":
		in.Target = intent.UnitTarget(sc2.UnitTag(get(m, "target_tag").Uint()))
	case "target_point":
		p := get(m, "target_point").Message()
		in.Target = intent.PointTarget(float32(get(p, "x").Float()), float32(get(p, "y").Float()))
	}

	switch timing := get(m, "timing").Enum(); timing {
	case timingNow:
		in.Timing = intent.TimingNow
	case timingQueued:
		in.Timing = intent.TimingQueued
	default:
		return intent.Intent{}, fmt.Errorf("unknown timing %d", timing)
	}
	return in, nil
}
