package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/cartridge/sc2agent/internal/sc2"
	"github.com/cartridge/sc2agent/internal/wire"
)

// Client drives one game session on an engine host
type Client struct {
	cc     grpc.ClientConnInterface
	conn   *grpc.ClientConn
	logger zerolog.Logger

	sessionID string
}

// Dial connects to the engine host at addr
func Dial(addr string, logger zerolog.Logger) (*Client, error) {
	if _, err := wire.Load(); err != nil {
		return nil, fmt.Errorf("failed to load wire schema: %w", err)
	}
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine at %s: %w", addr, err)
	}
	c := NewClient(conn, logger)
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. Close does not close cc.
func NewClient(cc grpc.ClientConnInterface, logger zerolog.Logger) *Client {
	return &Client{cc: cc, logger: logger}
}

// SessionID returns the session opened by CreateGame, or "" before that
func (c *Client) SessionID() string { return c.sessionID }

// CreateGame starts a game and returns one capability descriptor per
// participant.
func (c *Client) CreateGame(ctx context.Context, setup sc2.GameSetup) (sc2.EnvSpec, error) {
	resp := wire.NewMessage(wire.EnvSpecMessage)
	if err := c.cc.Invoke(ctx, createGameMethod, wire.EncodeGameSetup(setup), resp); err != nil {
		return sc2.EnvSpec{}, fmt.Errorf("failed to create game on %s: %w", setup.MapName, err)
	}
	spec, err := wire.DecodeEnvSpec(resp)
	if err != nil {
		return sc2.EnvSpec{}, err
	}
	c.sessionID = spec.SessionID

	c.logger.Info().
		Str("session_id", spec.SessionID).
		Str("map", setup.MapName).
		Int("agents", len(spec.Agents)).
		Msg("Game created")
	return spec, nil
}

// Reset starts a new episode
func (c *Client) Reset(ctx context.Context) (sc2.StepResult, error) {
	return c.step(ctx, resetMethod, wire.EncodeSessionRequest(wire.ResetRequestMessage, c.sessionID))
}

// Step sends one action per agent and returns the next timesteps
func (c *Client) Step(ctx context.Context, actions []sc2.Action) (sc2.StepResult, error) {
	return c.step(ctx, stepMethod, wire.EncodeStepRequest(c.sessionID, actions))
}

func (c *Client) step(ctx context.Context, method string, req proto.Message) (sc2.StepResult, error) {
	resp := wire.NewMessage(wire.StepResponseMessage)
	if err := c.cc.Invoke(ctx, method, req, resp); err != nil {
		return sc2.StepResult{}, fmt.Errorf("engine %s failed: %w", method, err)
	}
	return wire.DecodeStepResponse(resp)
}

// SaveReplay asks the host to write a replay and returns its path
func (c *Client) SaveReplay(ctx context.Context, prefix, directory string) (string, error) {
	resp := wire.NewMessage(wire.SaveReplayResponseMessage)
	req := wire.EncodeSaveReplayRequest(c.sessionID, prefix, directory)
	if err := c.cc.Invoke(ctx, saveReplayMethod, req, resp); err != nil {
		return "", fmt.Errorf("failed to save replay: %w", err)
	}
	return wire.DecodeSaveReplayResponse(resp)
}

// Close ends the session and releases the connection if the client opened it
func (c *Client) Close(ctx context.Context) error {
	var err error
	if c.sessionID != "" {
		resp := wire.NewMessage(wire.CloseResponseMessage)
		req := wire.EncodeSessionRequest(wire.CloseRequestMessage, c.sessionID)
		if err = c.cc.Invoke(ctx, closeMethod, req, resp); err != nil {
			err = fmt.Errorf("failed to close session %s: %w", c.sessionID, err)
		}
		c.sessionID = ""
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
