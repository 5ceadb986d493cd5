package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ErrMessageType is returned when a decoder is handed a message of the wrong type
var ErrMessageType = errors.New("unexpected message type")

// expect returns the reflection view of m after checking its full name
func expect(m proto.Message, name string) (protoreflect.Message, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: got nil, want %s", ErrMessageType, name)
	}
	r := m.ProtoReflect()
	if got := r.Descriptor().FullName(); string(got) != name {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrMessageType, got, name)
	}
	return r, nil
}

// fd looks a field up by name. Field names are fixed by the embedded schema, so
// a miss is a programming error.
func fd(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	f := m.Descriptor().Fields().ByName(name)
	if f == nil {
		panic(fmt.Sprintf("wire: %s has no field %q", m.Descriptor().FullName(), name))
	}
	return f
}

func set(m protoreflect.Message, name protoreflect.Name, v protoreflect.Value) {
	m.Set(fd(m, name), v)
}

func get(m protoreflect.Message, name protoreflect.Name) protoreflect.Value {
	return m.Get(fd(m, name))
}

func has(m protoreflect.Message, name protoreflect.Name) bool {
	return m.Has(fd(m, name))
}

// mutable returns the nested message stored in name, allocating it if unset
func mutable(m protoreflect.Message, name protoreflect.Name) protoreflect.Message {
	return m.Mutable(fd(m, name)).Message()
}

// list returns the writable repeated field stored in name
func list(m protoreflect.Message, name protoreflect.Name) protoreflect.List {
	return m.Mutable(fd(m, name)).List()
}

// appendMessage adds a new element to a repeated message field and returns it
// for the caller to fill in.
func appendMessage(l protoreflect.List) protoreflect.Message {
	v := l.NewElement()
	l.Append(v)
	return v.Message()
}

// whichOneof returns the name of the populated member of a oneof, or "" when
// none is set.
func whichOneof(m protoreflect.Message, oneof protoreflect.Name) protoreflect.Name {
	od := m.Descriptor().Oneofs().ByName(oneof)
	if od == nil {
		panic(fmt.Sprintf("wire: %s has no oneof %q", m.Descriptor().FullName(), oneof))
	}
	if f := m.WhichOneof(od); f != nil {
		return f.Name()
	}
	return ""
}

func uint32Of(v uint32) protoreflect.Value   { return protoreflect.ValueOfUint32(v) }
func uint64Of(v uint64) protoreflect.Value   { return protoreflect.ValueOfUint64(v) }
func int32Of(v int32) protoreflect.Value     { return protoreflect.ValueOfInt32(v) }
func float32Of(v float32) protoreflect.Value { return protoreflect.ValueOfFloat32(v) }
func boolOf(v bool) protoreflect.Value       { return protoreflect.ValueOfBool(v) }
func stringOf(v string) protoreflect.Value   { return protoreflect.ValueOfString(v) }
func enumOf[T ~int32 | ~int](v T) protoreflect.Value {
	return protoreflect.ValueOfEnum(protoreflect.EnumNumber(v))
}
