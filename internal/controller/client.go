package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/metrics"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/wire"
)

// Client asks a remote Controller for each decision. It satisfies
// policy.Policy, so a remote agent is a local agent with a different policy.
//
// There is no retry. By default a failed call is returned to the caller; with
// fallback enabled it is logged and replaced by a no-op.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn

	timeout  time.Duration
	fallback bool
	logger   zerolog.Logger
	metrics  *metrics.Collector
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTimeout bounds each call. Zero means no bound.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithFallback substitutes a no-op when a call fails
func WithFallback(enabled bool) ClientOption {
	return func(c *Client) { c.fallback = enabled }
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics records decisions in collector
func WithMetrics(collector *metrics.Collector) ClientOption {
	return func(c *Client) { c.metrics = collector }
}

// Dial connects to a Controller at addr
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	if _, err := wire.Load(); err != nil {
		return nil, fmt.Errorf("failed to load wire schema: %w", err)
	}
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to controller at %s: %w", addr, err)
	}
	c := NewClient(conn, opts...)
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. Close does not close cc.
func NewClient(cc grpc.ClientConnInterface, opts ...ClientOption) *Client {
	c := &Client{
		cc:     cc,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SelectAction implements policy.Policy
func (c *Client) SelectAction(ctx context.Context, o obs.Observation) (intent.Intent, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	in, err := c.getAction(ctx, o)
	if err != nil {
		c.metrics.DecisionFailed(metrics.SourceRemote, err)
		if !c.fallback {
			return intent.Intent{}, err
		}
		c.logger.Warn().Err(err).Msg("Remote controller failed, substituting no-op")
		c.metrics.RemoteFallback()
		return intent.NoOp(), nil
	}
	c.metrics.ActionSelected(metrics.SourceRemote, in.Kind, time.Since(start))
	return in, nil
}

func (c *Client) getAction(ctx context.Context, o obs.Observation) (intent.Intent, error) {
	resp := wire.NewMessage(wire.ActionMessage)
	if err := c.cc.Invoke(ctx, getActionMethod, wire.EncodeObservation(o), resp); err != nil {
		return intent.Intent{}, fmt.Errorf("remote GetAction failed: %w", err)
	}
	in, err := wire.DecodeAction(resp)
	if err != nil {
		return intent.Intent{}, fmt.Errorf("bad action from controller: %w", err)
	}
	return in, nil
}

// Close releases the connection if the client opened it
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
