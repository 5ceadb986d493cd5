package replay

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBolt(t *testing.T) *BoltBackend {
	t.Helper()
	b, err := NewBoltBackend(filepath.Join(t.TempDir(), "transitions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func backends(t *testing.T) map[string]Backend {
	return map[string]Backend{
		"memory": NewMemoryBackend(1000),
		"bolt":   newBolt(t),
	}
}

func sampleEpisode() []*Transition {
	return []*Transition{
		{SessionID: "s1", EpisodeID: "ep-1", Player: "demo", StepNumber: 0, Observation: []byte{1}, Action: []byte{2}},
		{SessionID: "s1", EpisodeID: "ep-1", Player: "Player 1", StepNumber: 0, Observation: []byte{3}, Action: []byte{4}},
		{SessionID: "s1", EpisodeID: "ep-1", Player: "demo", StepNumber: 1, Observation: []byte{5}, Action: []byte{6}, Reward: 1, Done: true},
	}
}

func TestBackend_StoreBatchAndEpisode(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ids, err := backend.StoreBatch(ctx, sampleEpisode())
			require.NoError(t, err)
			require.Len(t, ids, 3)
			for _, id := range ids {
				assert.NotEmpty(t, id)
			}

			got, err := backend.Episode(ctx, "ep-1")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, ids[0], got[0].ID)
			assert.Equal(t, []byte{5}, got[2].Observation)
			assert.True(t, got[2].Done)
			assert.False(t, got[2].Timestamp.IsZero())

			_, err = backend.Episode(ctx, "ep-404")
			assert.ErrorIs(t, err, ErrUnknownEpisode)
		})
	}
}

func TestBackend_Stats(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.StoreBatch(ctx, sampleEpisode())
			require.NoError(t, err)
			require.NoError(t, backend.Store(ctx, &Transition{EpisodeID: "ep-2", Player: "demo"}))

			stats, err := backend.Stats(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, uint64(4), stats.TotalTransitions)
			assert.Equal(t, uint64(2), stats.TotalEpisodes)
			assert.Equal(t, uint64(3), stats.TransitionsByPlayer["demo"])
			assert.Equal(t, uint64(1), stats.TransitionsByPlayer["Player 1"])
			require.NotNil(t, stats.OldestTimestamp)
			assert.False(t, stats.NewestTimestamp.Before(*stats.OldestTimestamp))

			stats, err = backend.Stats(ctx, "Player 1")
			require.NoError(t, err)
			assert.Equal(t, map[string]uint64{"Player 1": 1}, stats.TransitionsByPlayer)
			assert.Equal(t, uint64(1), stats.TotalTransitions)
			assert.Equal(t, uint64(1), stats.TotalEpisodes)

			stats, err = backend.Stats(ctx, "demo")
			require.NoError(t, err)
			assert.Equal(t, uint64(3), stats.TotalTransitions)
			assert.Equal(t, uint64(2), stats.TotalEpisodes)

			stats, err = backend.Stats(ctx, "nobody")
			require.NoError(t, err)
			assert.Zero(t, stats.TotalTransitions)
			assert.Zero(t, stats.TotalEpisodes)
			assert.Zero(t, stats.StorageBytes)
			assert.Nil(t, stats.OldestTimestamp)
		})
	}
}

func TestMemoryBackend_Eviction(t *testing.T) {
	backend := NewMemoryBackend(2)
	defer backend.Close()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 3; i++ {
		tr := &Transition{EpisodeID: "ep-1", StepNumber: uint32(i), Timestamp: base.Add(time.Duration(i) * time.Second)}
		require.NoError(t, backend.Store(ctx, tr))
	}

	got, err := backend.Episode(ctx, "ep-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].StepNumber)
	assert.Equal(t, uint32(2), got[1].StepNumber)
}

func TestMemoryBackend_DuplicateID(t *testing.T) {
	backend := NewMemoryBackend(0)
	ctx := context.Background()

	require.NoError(t, backend.Store(ctx, &Transition{ID: "a"}))
	ids, err := backend.StoreBatch(ctx, []*Transition{{ID: "b"}, {ID: "a"}, {ID: "c"}})
	assert.Error(t, err)
	assert.Equal(t, []string{"b"}, ids)

	require.NoError(t, backend.Close())
	assert.Error(t, backend.Store(ctx, &Transition{}))
}

func TestBoltBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transitions.db")
	ctx := context.Background()

	b, err := NewBoltBackend(path)
	require.NoError(t, err)
	_, err = b.StoreBatch(ctx, sampleEpisode())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = NewBoltBackend(path)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Episode(ctx, "ep-1")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
