package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/cartridge/sc2agent/internal/intent"
)

// Sources of a decision
const (
	SourceLocal      = "local"
	SourceRemote     = "remote"
	SourceController = "controller"
)

// Collector records decision and episode metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	logger zerolog.Logger

	actions   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	failures  *prometheus.CounterVec
	fallbacks prometheus.Counter
	episodes  *prometheus.CounterVec
	steps     *prometheus.HistogramVec
}

// NewCollector creates a collector and registers its series with reg
func NewCollector(logger zerolog.Logger, reg prometheus.Registerer) *Collector {
	c := &Collector{
		logger: logger,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sc2agent",
			Name:      "actions_total",
			Help:      "Intents selected, by source and action kind.",
		}, []string{"source", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sc2agent",
			Name:      "decision_seconds",
			Help:      "Time spent choosing an intent.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sc2agent",
			Name:      "decision_failures_total",
			Help:      "Decisions that returned an error.",
		}, []string{"source"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sc2agent",
			Name:      "remote_fallbacks_total",
			Help:      "Remote failures replaced by a no-op.",
		}),
		episodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sc2agent",
			Name:      "episodes_total",
			Help:      "Finished episodes, by player.",
		}, []string{"player"}),
		steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sc2agent",
			Name:      "episode_steps",
			Help:      "Agent steps per finished episode.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 12),
		}, []string{"player"}),
	}
	reg.MustRegister(c.actions, c.latency, c.failures, c.fallbacks, c.episodes, c.steps)
	return c
}

// ActionSelected tracks one successful decision
func (c *Collector) ActionSelected(source string, kind intent.Kind, latency time.Duration) {
	if c == nil {
		return
	}
	c.actions.WithLabelValues(source, kind.String()).Inc()
	c.latency.WithLabelValues(source).Observe(latency.Seconds())
	c.logger.Debug().
		Str("metric", "action_selected").
		Str("source", source).
		Stringer("kind", kind).
		Dur("latency", latency).
		Msg("Action metric")
}

// DecisionFailed tracks a decision that returned an error
func (c *Collector) DecisionFailed(source string, err error) {
	if c == nil {
		return
	}
	c.failures.WithLabelValues(source).Inc()
	c.logger.Warn().
		Str("metric", "decision_failed").
		Str("source", source).
		Err(err).
		Msg("Decision failure metric")
}

// RemoteFallback tracks a remote failure that was replaced by a no-op
func (c *Collector) RemoteFallback() {
	if c == nil {
		return
	}
	c.fallbacks.Inc()
}

// EpisodeFinished tracks the end of one player's episode
func (c *Collector) EpisodeFinished(player string, steps int, reward float32) {
	if c == nil {
		return
	}
	c.episodes.WithLabelValues(player).Inc()
	c.steps.WithLabelValues(player).Observe(float64(steps))
	c.logger.Info().
		Str("metric", "episode_finished").
		Str("player", player).
		Int("steps", steps).
		Float32("reward", reward).
		Msg("Episode metric")
}
