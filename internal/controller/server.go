package controller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/metrics"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/policy"
	"github.com/cartridge/sc2agent/internal/wire"
)

// Server answers GetAction by running a policy on the decoded observation.
// Calls are serialized because policies keep per-game state.
type Server struct {
	mu      sync.Mutex
	policy  policy.Policy
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewServer creates a Controller service backed by p. collector may be nil.
func NewServer(p policy.Policy, logger zerolog.Logger, collector *metrics.Collector) *Server {
	return &Server{
		policy:  p,
		logger:  logger,
		metrics: collector,
	}
}

// GetAction implements ControllerServer
func (s *Server) GetAction(ctx context.Context, req *dynamicpb.Message) (*dynamicpb.Message, error) {
	o, err := wire.DecodeObservation(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad observation: %v", err)
	}

	start := time.Now()
	in, err := s.selectAction(ctx, o)
	if err != nil {
		s.metrics.DecisionFailed(metrics.SourceController, err)
		return nil, status.Errorf(codes.Internal, "policy failed: %v", err)
	}
	s.metrics.ActionSelected(metrics.SourceController, in.Kind, time.Since(start))

	resp, err := wire.EncodeAction(in)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "unable to encode %s: %v", in, err)
	}

	s.logger.Debug().
		Uint32("minerals", o.Minerals).
		Int("friendly", len(o.Friendly)).
		Int("enemy", len(o.Enemy)).
		Stringer("action", in).
		Msg("Action selected")
	return resp, nil
}

func (s *Server) selectAction(ctx context.Context, o obs.Observation) (intent.Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.SelectAction(ctx, o)
}
