// Package replay records the (observation, action) pairs agents produce, one
// transition per agent per tick.
package replay

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownEpisode is returned when an episode has no stored transitions
var ErrUnknownEpisode = errors.New("unknown episode")

// Transition is one agent step. Observation and Action hold the
// sc2bridge.v1 wire encoding of what the agent saw and decided.
type Transition struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	EpisodeID   string            `json:"episode_id"`
	Player      string            `json:"player"`
	StepNumber  uint32            `json:"step_number"`
	Observation []byte            `json:"observation"`
	Action      []byte            `json:"action"`
	Reward      float32           `json:"reward"`
	Done        bool              `json:"done"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata"`
}

// Stats summarizes what a backend holds
type Stats struct {
	TotalTransitions    uint64
	TotalEpisodes       uint64
	TransitionsByPlayer map[string]uint64
	OldestTimestamp     *time.Time
	NewestTimestamp     *time.Time
	StorageBytes        uint64
}

// add counts t into every total except TotalEpisodes
func (s *Stats) add(t *Transition) {
	s.TotalTransitions++
	s.StorageBytes += transitionBytes(t)
	s.TransitionsByPlayer[t.Player]++
	ts := t.Timestamp
	if s.OldestTimestamp == nil || ts.Before(*s.OldestTimestamp) {
		s.OldestTimestamp = &ts
	}
	if s.NewestTimestamp == nil || ts.After(*s.NewestTimestamp) {
		s.NewestTimestamp = &ts
	}
}

// Backend stores transitions
type Backend interface {
	// Store a single transition, filling ID and Timestamp when unset
	Store(ctx context.Context, transition *Transition) error

	// Store multiple transitions; returns the IDs stored before any failure
	StoreBatch(ctx context.Context, transitions []*Transition) ([]string, error)

	// Episode returns an episode's transitions in the order they were stored
	Episode(ctx context.Context, episodeID string) ([]*Transition, error)

	// Stats for one player, or all players when player is "". Every total,
	// episodes included, only counts the selected player's transitions.
	Stats(ctx context.Context, player string) (*Stats, error)

	Close() error
}

func transitionBytes(t *Transition) uint64 {
	return uint64(len(t.Observation) + len(t.Action) + 100)
}
