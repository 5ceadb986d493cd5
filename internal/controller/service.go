// Package controller implements the remote bridge: a gRPC Controller service
// that picks one action per observation, and a client that lets an agent
// delegate its decisions to such a service.
package controller

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/cartridge/sc2agent/internal/wire"
)

const getActionMethod = "/" + wire.ControllerService + "/GetAction"

// ControllerServer is the server API for the Controller service. Requests are
// sc2bridge.v1.Observation messages and replies sc2bridge.v1.Action messages.
type ControllerServer interface {
	GetAction(ctx context.Context, obs *dynamicpb.Message) (*dynamicpb.Message, error)
}

// ServiceDesc describes the Controller service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ControllerService,
	HandlerType: (*ControllerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetAction",
			Handler:    getActionHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: wire.ControllerProto,
}

// Register attaches srv to s. The embedded schema is loaded first so that
// requests can be decoded and reflection can describe the service.
func Register(s grpc.ServiceRegistrar, srv ControllerServer) {
	wire.MustLoad()
	s.RegisterService(&ServiceDesc, srv)
}

func getActionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := wire.NewMessage(wire.ObservationMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControllerServer).GetAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: getActionMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ControllerServer).GetAction(ctx, req.(*dynamicpb.Message))
	}
	return interceptor(ctx, in, info, handler)
}
