package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryBackend keeps transitions in memory, evicting the oldest once maxSize
// is exceeded. A maxSize of 0 means unbounded.
type MemoryBackend struct {
	mu          sync.RWMutex
	transitions map[string]*Transition // ID -> Transition
	episodes    map[string][]string    // EpisodeID -> TransitionIDs
	order       []string               // TransitionIDs in insertion order
	maxSize     uint64
}

// NewMemoryBackend creates a new in-memory backend
func NewMemoryBackend(maxSize uint64) *MemoryBackend {
	return &MemoryBackend{
		transitions: make(map[string]*Transition),
		episodes:    make(map[string][]string),
		maxSize:     maxSize,
	}
}

// Store implements Backend.Store
func (m *MemoryBackend) Store(_ context.Context, transition *Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transitions == nil {
		return fmt.Errorf("backend is closed")
	}
	if transition.ID == "" {
		transition.ID = uuid.New().String()
	}
	if transition.Timestamp.IsZero() {
		transition.Timestamp = time.Now()
	}
	if _, exists := m.transitions[transition.ID]; exists {
		return fmt.Errorf("transition %s already stored", transition.ID)
	}

	m.transitions[transition.ID] = transition
	if transition.EpisodeID != "" {
		m.episodes[transition.EpisodeID] = append(m.episodes[transition.EpisodeID], transition.ID)
	}
	m.order = append(m.order, transition.ID)

	m.evictIfNeeded()
	return nil
}

// StoreBatch implements Backend.StoreBatch
func (m *MemoryBackend) StoreBatch(ctx context.Context, transitions []*Transition) ([]string, error) {
	ids := make([]string, 0, len(transitions))
	for _, transition := range transitions {
		if err := m.Store(ctx, transition); err != nil {
			return ids, err
		}
		ids = append(ids, transition.ID)
	}
	return ids, nil
}

// Episode implements Backend.Episode
func (m *MemoryBackend) Episode(_ context.Context, episodeID string) ([]*Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.episodes[episodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEpisode, episodeID)
	}
	out := make([]*Transition, len(ids))
	for i, id := range ids {
		out[i] = m.transitions[id]
	}
	return out, nil
}

// Stats implements Backend.Stats
func (m *MemoryBackend) Stats(_ context.Context, player string) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{TransitionsByPlayer: make(map[string]uint64)}
	episodes := make(map[string]struct{})
	for _, id := range m.order {
		t := m.transitions[id]
		if player != "" && t.Player != player {
			continue
		}
		stats.add(t)
		if t.EpisodeID != "" {
			episodes[t.EpisodeID] = struct{}{}
		}
	}
	stats.TotalEpisodes = uint64(len(episodes))
	return stats, nil
}

// Close implements Backend.Close
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transitions = nil
	m.episodes = nil
	m.order = nil
	return nil
}

func (m *MemoryBackend) evictIfNeeded() {
	for m.maxSize > 0 && uint64(len(m.transitions)) > m.maxSize {
		oldestID := m.order[0]
		m.order = m.order[1:]
		m.deleteTransition(oldestID)
	}
}

func (m *MemoryBackend) deleteTransition(id string) {
	transition, exists := m.transitions[id]
	if !exists {
		return
	}
	delete(m.transitions, id)

	if transition.EpisodeID != "" {
		m.episodes[transition.EpisodeID] = removeString(m.episodes[transition.EpisodeID], id)
		if len(m.episodes[transition.EpisodeID]) == 0 {
			delete(m.episodes, transition.EpisodeID)
		}
	}
}

func removeString(slice []string, item string) []string {
	for i, s := range slice {
		if s == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
