// Package actor runs games: it creates the game on the engine host, steps
// every agent once per tick until the episode ends, records what the agents
// did and reports the outcome.
package actor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"

	"github.com/cartridge/sc2agent/internal/agent"
	"github.com/cartridge/sc2agent/internal/config"
	"github.com/cartridge/sc2agent/internal/replay"
	"github.com/cartridge/sc2agent/internal/sc2"
	"github.com/cartridge/sc2agent/internal/wire"
)

// Agent interface settings requested for every game
const (
	featureScreen  = 84
	featureMinimap = 32
)

// Env is the engine session driven by the actor
type Env interface {
	CreateGame(ctx context.Context, setup sc2.GameSetup) (sc2.EnvSpec, error)
	Reset(ctx context.Context) (sc2.StepResult, error)
	Step(ctx context.Context, actions []sc2.Action) (sc2.StepResult, error)
	SaveReplay(ctx context.Context, prefix, directory string) (string, error)
}

// Actor plays the configured number of episodes with one roster
type Actor struct {
	cfg    *config.Config
	env    Env
	roster *Roster

	recorder replay.Backend
	logger   zerolog.Logger
	out      io.Writer

	sessionID        string
	episodeCount     int
	totalFrames      int
	outcome          []int32
	hasOutcome       bool
	transitionBuffer []*replay.Transition
}

// Option configures an Actor
type Option func(*Actor)

// WithRecorder records one transition per agent per tick into backend
func WithRecorder(backend replay.Backend) Option {
	return func(a *Actor) { a.recorder = backend }
}

// WithLogger sets the actor logger
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Actor) { a.logger = logger }
}

// WithOutput sets where the final scores are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *Actor) { a.out = w }
}

// New creates an actor for roster on env
func New(cfg *config.Config, env Env, roster *Roster, opts ...Option) *Actor {
	a := &Actor{
		cfg:    cfg,
		env:    env,
		roster: roster,
		logger: zerolog.Nop(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.transitionBuffer = make([]*replay.Transition, 0, cfg.BatchSize)
	return a
}

// Outcome returns the per-player outcome reported by the engine, if any
func (a *Actor) Outcome() ([]int32, bool) { return a.outcome, a.hasOutcome }

// Episodes returns the number of episodes started
func (a *Actor) Episodes() int { return a.episodeCount }

// Close flushes recorded transitions and releases remote connections
func (a *Actor) Close() error {
	var flushErr error
	if len(a.transitionBuffer) > 0 {
		if flushErr = a.flushBuffer(context.Background()); flushErr != nil {
			a.logger.Error().Err(flushErr).Msg("Failed to flush transitions on close")
		}
	}
	if err := a.roster.Close(); err != nil {
		return err
	}
	return flushErr
}

// Run creates the game and plays it. Any agent error ends the run. On
// success the scores are printed and, if configured, a replay is saved.
func (a *Actor) Run(ctx context.Context) error {
	if err := a.setup(ctx); err != nil {
		return err
	}

	for a.cfg.MaxEpisodes == 0 || a.episodeCount < a.cfg.MaxEpisodes {
		done, err := a.runEpisode(ctx)
		if err != nil {
			return fmt.Errorf("episode %d failed: %w", a.episodeCount, err)
		}
		if done {
			a.logger.Info().Int("max_frames", a.cfg.MaxFrames).Msg("Reached maximum frames, stopping")
			break
		}
	}

	if err := a.flushBuffer(ctx); err != nil {
		return err
	}

	a.printScores()

	if a.cfg.SaveReplay {
		prefix := a.cfg.Players[0].Name
		path, err := a.env.SaveReplay(ctx, prefix, a.cfg.ReplayDir)
		if err != nil {
			return err
		}
		a.logger.Info().Str("path", path).Msg("Replay saved")
	}
	return nil
}

func (a *Actor) setup(ctx context.Context) error {
	m, err := config.LookupMap(a.cfg.MapName)
	if err != nil {
		return err
	}

	spec, err := a.env.CreateGame(ctx, sc2.GameSetup{
		MapName: m.Name,
		MapPath: m.Path(),
		Players: a.roster.Players,
		Interface: sc2.InterfaceFormat{
			UseRawUnits:    true,
			UseRawActions:  true,
			FeatureScreen:  featureScreen,
			FeatureMinimap: featureMinimap,
		},
		StepMul:             a.cfg.StepMul,
		GameStepsPerEpisode: m.GameStepsPerEpisode,
		ScoreIndex:          -1,
		Realtime:            a.cfg.Realtime,
		DisableFog:          a.cfg.DisableFog,
		Visualize:           a.cfg.Visualize,
	})
	if err != nil {
		return err
	}
	a.sessionID = spec.SessionID

	if len(spec.Agents) != len(a.roster.Agents) {
		return fmt.Errorf("%w: engine described %d agents, roster has %d",
			agent.ErrCapabilityMismatch, len(spec.Agents), len(a.roster.Agents))
	}
	for i, ag := range a.roster.Agents {
		if err := ag.Setup(spec.Agents[i]); err != nil {
			return err
		}
	}

	a.logger.Info().
		Str("session_id", a.sessionID).
		Str("map", m.Name).
		Int("agents", len(a.roster.Agents)).
		Int("players", len(a.roster.Players)).
		Msg("Game ready")
	return nil
}

// runEpisode plays one episode. It reports done when the frame limit was
// reached and no further episode should start.
func (a *Actor) runEpisode(ctx context.Context) (bool, error) {
	a.episodeCount++
	episodeID := uuid.New().String()
	start := time.Now()

	result, err := a.env.Reset(ctx)
	if err != nil {
		return false, err
	}
	a.noteOutcome(result)

	for step := uint32(0); ; step++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if len(result.TimeSteps) != len(a.roster.Agents) {
			return false, fmt.Errorf("engine returned %d timesteps for %d agents",
				len(result.TimeSteps), len(a.roster.Agents))
		}

		a.totalFrames++
		actions := make([]sc2.Action, len(a.roster.Agents))
		for i, ag := range a.roster.Agents {
			ts := result.TimeSteps[i]
			action, err := ag.Step(ctx, ts)
			if err != nil {
				return false, err
			}
			actions[i] = action
			if err := a.record(ctx, episodeID, step, ag, ts); err != nil {
				return false, err
			}
		}

		if a.cfg.MaxFrames > 0 && a.totalFrames >= a.cfg.MaxFrames {
			return true, nil
		}
		if result.TimeSteps[0].Last() {
			break
		}

		result, err = a.env.Step(ctx, actions)
		if err != nil {
			return false, err
		}
		a.noteOutcome(result)
	}

	a.logger.Info().
		Str("episode_id", episodeID).
		Int("episode", a.episodeCount).
		Int("frames", a.totalFrames).
		Dur("elapsed", time.Since(start)).
		Msg("Episode completed")
	return false, nil
}

func (a *Actor) noteOutcome(result sc2.StepResult) {
	if result.HasOutcome {
		a.outcome = result.Outcome
		a.hasOutcome = true
	}
}

// record buffers the agent's latest decision and flushes full batches
func (a *Actor) record(ctx context.Context, episodeID string, step uint32, ag *agent.Agent, ts sc2.TimeStep) error {
	if a.recorder == nil {
		return nil
	}

	d := ag.LastDecision()
	observation, err := proto.Marshal(wire.EncodeObservation(d.Observation))
	if err != nil {
		return fmt.Errorf("failed to encode observation: %w", err)
	}
	msg, err := wire.EncodeAction(d.Intent)
	if err != nil {
		return err
	}
	action, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}

	a.transitionBuffer = append(a.transitionBuffer, &replay.Transition{
		SessionID:   a.sessionID,
		EpisodeID:   episodeID,
		Player:      ag.Name(),
		StepNumber:  step,
		Observation: observation,
		Action:      action,
		Reward:      ts.Reward,
		Done:        ts.Last(),
		Metadata:    map[string]string{"map": a.cfg.MapName},
	})

	if len(a.transitionBuffer) >= a.cfg.BatchSize {
		return a.flushBuffer(ctx)
	}
	return nil
}

// flushBuffer sends accumulated transitions to the recorder
func (a *Actor) flushBuffer(ctx context.Context) error {
	if a.recorder == nil || len(a.transitionBuffer) == 0 {
		return nil
	}

	a.logger.Debug().Int("transitions", len(a.transitionBuffer)).Msg("Flushing transitions")

	if _, err := a.recorder.StoreBatch(ctx, a.transitionBuffer); err != nil {
		return fmt.Errorf("failed to store batch: %w", err)
	}
	a.transitionBuffer = a.transitionBuffer[:0]
	return nil
}

func (a *Actor) printScores() {
	if !a.hasOutcome {
		fmt.Fprintln(a.out, "Scores: Outcome not available.")
		return
	}
	fmt.Fprintln(a.out, "Scores:")
	for i, p := range a.cfg.Players {
		score := "N/A"
		if i < len(a.outcome) {
			score = fmt.Sprintf("%d", a.outcome[i])
		}
		fmt.Fprintf(a.out, "  %s: %s\n", p.Name, score)
	}
}
