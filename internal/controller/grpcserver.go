package controller

import (
	"context"
	"fmt"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

func codeToLevel(code codes.Code) zerolog.Level {
	switch code {
	case codes.OK:
		return zerolog.DebugLevel
	case codes.Canceled, codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.Unauthenticated:
		return zerolog.InfoLevel
	case codes.DeadlineExceeded, codes.PermissionDenied, codes.ResourceExhausted, codes.FailedPrecondition, codes.Aborted, codes.OutOfRange, codes.Unavailable:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// loggingInterceptor logs gRPC requests
func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		event := logger.WithLevel(codeToLevel(code)).
			Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("duration", time.Since(start))
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("gRPC call")
		return resp, err
	}
}

// NewGRPCServer creates a gRPC server with services registered on it. Calls
// are logged, handler panics become Internal errors and call metrics are
// exported to reg.
func NewGRPCServer(logger zerolog.Logger, reg prometheus.Registerer, enableReflection bool, services ...func(grpc.ServiceRegistrar)) *grpc.Server {
	serverMetrics := grpc_prometheus.NewServerMetrics()
	serverMetrics.EnableHandlingTimeHistogram()
	reg.MustRegister(serverMetrics)

	recoveryOpts := []grpc_recovery.Option{
		grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
			logger.Error().Interface("panic", p).Msg("Recovered from handler panic")
			return status.Error(codes.Internal, fmt.Sprintf("panic: %v", p))
		}),
	}

	server := grpc.NewServer(
		grpc_middleware.WithUnaryServerChain(
			serverMetrics.UnaryServerInterceptor(),
			loggingInterceptor(logger),
			grpc_recovery.UnaryServerInterceptor(recoveryOpts...),
		),
		grpc_middleware.WithStreamServerChain(
			serverMetrics.StreamServerInterceptor(),
			grpc_recovery.StreamServerInterceptor(recoveryOpts...),
		),
	)

	for _, register := range services {
		register(server)
	}
	serverMetrics.InitializeMetrics(server)

	if enableReflection {
		reflection.Register(server)
		logger.Debug().Msg("gRPC reflection enabled")
	}
	return server
}
