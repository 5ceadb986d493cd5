// Package engine talks to the host that runs StarCraft II over the
// sc2bridge.engine.v1.Engine gRPC service.
package engine

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/cartridge/sc2agent/internal/wire"
)

const (
	createGameMethod = "/" + wire.EngineService + "/CreateGame"
	resetMethod      = "/" + wire.EngineService + "/Reset"
	stepMethod       = "/" + wire.EngineService + "/Step"
	saveReplayMethod = "/" + wire.EngineService + "/SaveReplay"
	closeMethod      = "/" + wire.EngineService + "/Close"
)

// EngineServer is the server API for the Engine service. It is implemented by
// game hosts; this module only serves it in tests.
type EngineServer interface {
	CreateGame(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	Reset(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	Step(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	SaveReplay(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
	Close(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error)
}

type serverMethod func(EngineServer, context.Context, *dynamicpb.Message) (*dynamicpb.Message, error)

// unaryHandler adapts one EngineServer method to grpc's handler signature
func unaryHandler(fullMethod, request string, call serverMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := wire.NewMessage(request)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EngineServer), ctx, req.(*dynamicpb.Message))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the Engine service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.EngineService,
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateGame", Handler: unaryHandler(createGameMethod, wire.GameSetupMessage, EngineServer.CreateGame)},
		{MethodName: "Reset", Handler: unaryHandler(resetMethod, wire.ResetRequestMessage, EngineServer.Reset)},
		{MethodName: "Step", Handler: unaryHandler(stepMethod, wire.StepRequestMessage, EngineServer.Step)},
		{MethodName: "SaveReplay", Handler: unaryHandler(saveReplayMethod, wire.SaveReplayRequestMessage, EngineServer.SaveReplay)},
		{MethodName: "Close", Handler: unaryHandler(closeMethod, wire.CloseRequestMessage, EngineServer.Close)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: wire.EngineProto,
}

// Register attaches srv to s
func Register(s grpc.ServiceRegistrar, srv EngineServer) {
	wire.MustLoad()
	s.RegisterService(&ServiceDesc, srv)
}
