package controller

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/policy"
)

func dialServer(t *testing.T, server *grpc.Server) *grpc.ClientConn {
	t.Helper()
	listener := bufconn.Listen(1024 * 1024)
	go func() {
		_ = server.Serve(listener)
	}()

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		server.Stop()
	})
	return conn
}

func handledCount(t *testing.T, reg *prometheus.Registry, code codes.Code) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "grpc_server_handled_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "grpc_code" && label.GetValue() == code.String() {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewGRPCServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	server := NewGRPCServer(zerolog.Nop(), reg, true, func(s grpc.ServiceRegistrar) {
		Register(s, NewServer(policy.NoOp{}, zerolog.Nop(), nil))
	})
	conn := dialServer(t, server)

	_, err := NewClient(conn).SelectAction(context.Background(), sampleObservation)
	require.NoError(t, err)

	assert.Equal(t, float64(1), handledCount(t, reg, codes.OK))
	assert.Equal(t, float64(0), handledCount(t, reg, codes.Internal))
}

func TestNewGRPCServer_RecoversPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	panicking := policyFunc(func(context.Context, obs.Observation) (intent.Intent, error) {
		panic("policy exploded")
	})
	server := NewGRPCServer(zerolog.Nop(), reg, false, func(s grpc.ServiceRegistrar) {
		Register(s, NewServer(panicking, zerolog.Nop(), nil))
	})
	conn := dialServer(t, server)

	_, err := NewClient(conn).SelectAction(context.Background(), sampleObservation)
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(errors.Unwrap(err)))
	assert.Equal(t, float64(1), handledCount(t, reg, codes.Internal))

	// the server keeps serving after a panic
	_, err = NewClient(conn).SelectAction(context.Background(), sampleObservation)
	assert.Error(t, err)
}

func TestCodeToLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, codeToLevel(codes.OK))
	assert.Equal(t, zerolog.InfoLevel, codeToLevel(codes.InvalidArgument))
	assert.Equal(t, zerolog.WarnLevel, codeToLevel(codes.DeadlineExceeded))
	assert.Equal(t, zerolog.ErrorLevel, codeToLevel(codes.Internal))
}
