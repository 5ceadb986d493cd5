// Package agent adapts a policy to the engine's per-agent step contract:
// capability negotiation at setup, then one native action per timestep.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/sc2agent/internal/encoder"
	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/metrics"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/policy"
	"github.com/cartridge/sc2agent/internal/sc2"
)

// ErrCapabilityMismatch is returned by Setup when the engine will not provide
// the raw unit observations the agent decides on.
var ErrCapabilityMismatch = errors.New("capability mismatch")

// Agent owns one player slot. It is driven by a single goroutine.
type Agent struct {
	name    string
	policy  policy.Policy
	source  string
	logger  zerolog.Logger
	metrics *metrics.Collector

	spec     sc2.AgentSpec
	ready    bool
	last     Decision
	steps    int
	episodes int
	reward   float32
}

// Option configures an Agent
type Option func(*Agent)

// WithLogger sets the agent logger
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) { a.logger = logger.With().Str("player", a.name).Logger() }
}

// WithMetrics records decisions and episodes in collector
func WithMetrics(collector *metrics.Collector) Option {
	return func(a *Agent) { a.metrics = collector }
}

// NewLocal creates an agent that decides with an in-process policy
func NewLocal(name string, p policy.Policy, opts ...Option) *Agent {
	return newAgent(name, p, metrics.SourceLocal, opts)
}

// NewRemote creates an agent that delegates each decision to a remote
// controller. The client is expected to be a controller.Client.
func NewRemote(name string, client policy.Policy, opts ...Option) *Agent {
	return newAgent(name, client, metrics.SourceRemote, opts)
}

func newAgent(name string, p policy.Policy, source string, opts []Option) *Agent {
	a := &Agent{
		name:   name,
		policy: p,
		source: source,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the player name
func (a *Agent) Name() string { return a.name }

// Remote reports whether decisions are made by a remote controller
func (a *Agent) Remote() bool { return a.source == metrics.SourceRemote }

// Steps returns the number of steps taken in the current episode
func (a *Agent) Steps() int { return a.steps }

// Episodes returns the number of episodes started
func (a *Agent) Episodes() int { return a.episodes }

// Reward returns the reward accumulated in the current episode
func (a *Agent) Reward() float32 { return a.reward }

// Decision is what the agent saw and chose on its latest step
type Decision struct {
	Observation obs.Observation
	Intent      intent.Intent
}

// LastDecision returns the decision made by the latest successful Step
func (a *Agent) LastDecision() Decision { return a.last }

// Setup checks the engine's capability descriptor for this agent
func (a *Agent) Setup(spec sc2.AgentSpec) error {
	if !spec.HasObservation(sc2.FieldRawUnits) {
		return fmt.Errorf("%w: player %s needs %q observations, engine offers %v",
			ErrCapabilityMismatch, a.name, sc2.FieldRawUnits, spec.ObservationFields)
	}
	a.spec = spec
	a.ready = true
	a.logger.Debug().
		Str("player", a.name).
		Strs("observation_fields", spec.ObservationFields).
		Strs("action_modes", spec.ActionModes).
		Msg("Agent ready")
	return nil
}

// Spec returns the capability descriptor accepted by the last successful Setup
func (a *Agent) Spec() sc2.AgentSpec { return a.spec }

// Reset starts a new episode
func (a *Agent) Reset() {
	a.episodes++
	a.steps = 0
	a.reward = 0
}

// Step turns one timestep into a native action. Errors from the policy or
// the encoder are returned as is; the caller decides whether they are fatal.
func (a *Agent) Step(ctx context.Context, ts sc2.TimeStep) (sc2.Action, error) {
	if !a.ready {
		return sc2.Action{}, fmt.Errorf("player %s stepped before setup", a.name)
	}
	if ts.First() {
		a.Reset()
	}
	a.steps++
	a.reward += ts.Reward

	o := obs.Translate(ts.Observation)

	start := time.Now()
	in, err := a.policy.SelectAction(ctx, o)
	if err != nil {
		if a.source == metrics.SourceLocal {
			a.metrics.DecisionFailed(a.source, err)
		}
		return sc2.Action{}, fmt.Errorf("player %s: %w", a.name, err)
	}
	// The remote client records its own decisions, fallbacks included.
	if a.source == metrics.SourceLocal {
		a.metrics.ActionSelected(a.source, in.Kind, time.Since(start))
	}

	action, err := encoder.Encode(in)
	if err != nil {
		return sc2.Action{}, fmt.Errorf("player %s: %w", a.name, err)
	}

	a.last = Decision{Observation: o, Intent: in}
	a.logger.Debug().
		Int("step", a.steps).
		Stringer("intent", in).
		Stringer("action", action).
		Msg("Step")

	if ts.Last() {
		a.metrics.EpisodeFinished(a.name, a.steps, a.reward)
	}
	return action, nil
}
