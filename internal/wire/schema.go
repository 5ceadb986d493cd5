// Package wire holds the protobuf schemas spoken with the engine host and with
// remote controllers, and converts between wire messages and the agent's own
// types.
//
// The .proto sources are embedded and compiled at startup; messages are
// dynamic, so no generated code is checked in.
package wire

import (
	"context"
	"embed"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

//go:embed schema
var schemaFS embed.FS

const (
	ControllerProto = "sc2bridge/v1/controller.proto"
	EngineProto     = "sc2bridge/engine/v1/engine.proto"
)

// Fully qualified names of the services and messages used by this module
const (
	ControllerService  = "sc2bridge.v1.Controller"
	UnitMessage        = "sc2bridge.v1.Unit"
	ObservationMessage = "sc2bridge.v1.Observation"
	ActionMessage      = "sc2bridge.v1.Action"

	EngineService             = "sc2bridge.engine.v1.Engine"
	GameSetupMessage          = "sc2bridge.engine.v1.GameSetup"
	EnvSpecMessage            = "sc2bridge.engine.v1.EnvSpec"
	ResetRequestMessage       = "sc2bridge.engine.v1.ResetRequest"
	StepRequestMessage        = "sc2bridge.engine.v1.StepRequest"
	StepResponseMessage       = "sc2bridge.engine.v1.StepResponse"
	SaveReplayRequestMessage  = "sc2bridge.engine.v1.SaveReplayRequest"
	SaveReplayResponseMessage = "sc2bridge.engine.v1.SaveReplayResponse"
	CloseRequestMessage       = "sc2bridge.engine.v1.CloseRequest"
	CloseResponseMessage      = "sc2bridge.engine.v1.CloseResponse"
)

// Schema is the compiled set of embedded proto files
type Schema struct {
	files linker.Files
}

var (
	loadOnce sync.Once
	loaded   *Schema
	loadErr  error
)

// Load compiles the embedded schema once and registers it with the global
// protobuf registry so gRPC reflection can describe the services.
func Load() (*Schema, error) {
	loadOnce.Do(func() {
		loaded, loadErr = compile(context.Background())
		if loadErr != nil {
			return
		}
		for _, f := range loaded.files {
			if _, err := protoregistry.GlobalFiles.FindFileByPath(f.Path()); err == nil {
				continue
			}
			if err := protoregistry.GlobalFiles.RegisterFile(f); err != nil {
				loadErr = fmt.Errorf("failed to register %s: %w", f.Path(), err)
				return
			}
		}
	})
	return loaded, loadErr
}

// MustLoad is like Load but panics if the embedded schema is broken
func MustLoad() *Schema {
	s, err := Load()
	if err != nil {
		panic(fmt.Sprintf("wire: embedded schema: %v", err))
	}
	return s
}

func compile(ctx context.Context) (*Schema, error) {
	compiler := protocompile.Compiler{
		Resolver: &protocompile.SourceResolver{
			Accessor: func(name string) (io.ReadCloser, error) {
				return schemaFS.Open(path.Join("schema", name))
			},
		},
	}

	files, err := compiler.Compile(ctx, ControllerProto, EngineProto)
	if err != nil {
		return nil, err
	}
	return &Schema{files: files}, nil
}

func (s *Schema) findDescriptor(name string) (protoreflect.Descriptor, error) {
	fullName := protoreflect.FullName(name)
	if !fullName.IsValid() {
		return nil, fmt.Errorf("%q is not a valid protobuf name", name)
	}
	for _, f := range s.files {
		if d := f.FindDescriptorByName(fullName); d != nil {
			return d, nil
		}
	}
	return nil, fmt.Errorf("can't find descriptor %q", fullName)
}

// FindMessageDescriptor looks up a message by its fully qualified name
func (s *Schema) FindMessageDescriptor(name string) (protoreflect.MessageDescriptor, error) {
	d, err := s.findDescriptor(name)
	if err != nil {
		return nil, err
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%q is not a message name", name)
	}
	return md, nil
}

// FindServiceDescriptor looks up a service by its fully qualified name
func (s *Schema) FindServiceDescriptor(name string) (protoreflect.ServiceDescriptor, error) {
	d, err := s.findDescriptor(name)
	if err != nil {
		return nil, err
	}
	sd, ok := d.(protoreflect.ServiceDescriptor)
	if !ok {
		return nil, fmt.Errorf("%q is not a service name", name)
	}
	return sd, nil
}

// NewMessage creates an empty message of the named type
func (s *Schema) NewMessage(name string) (*dynamicpb.Message, error) {
	md, err := s.FindMessageDescriptor(name)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(md), nil
}

// NewMessage creates an empty message of the named type from the embedded
// schema. It panics on unknown names, which are programming errors.
func NewMessage(name string) *dynamicpb.Message {
	m, err := MustLoad().NewMessage(name)
	if err != nil {
		panic(fmt.Sprintf("wire: %v", err))
	}
	return m
}
