package replay

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket structure is
//
//	episodes > {episode_id} > {sequence} > {gob Transition}
//
// Transitions without an episode are filed under the episode
// bucket "-".
var episodesBucketName = []byte("episodes")

const noEpisode = "-"

func serializeSeq(seq uint64) []byte {
	// Fixed width keeps bolt's byte ordering equal to insertion order
	return []byte(fmt.Sprintf("%016x", seq))
}

func serializeTransition(t *Transition) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, fmt.Errorf("unable to serialize transition %s: %w", t.ID, err)
	}
	return buf.Bytes(), nil
}

func deserializeTransition(v []byte) (*Transition, error) {
	t := &Transition{}
	if err := gob.NewDecoder(bytes.NewReader(v)).Decode(t); err != nil {
		return nil, fmt.Errorf("unable to deserialize transition: %w", err)
	}
	return t, nil
}

// BoltBackend stores transitions in a bbolt file
type BoltBackend struct {
	db       *bolt.DB
	filePath string
}

// NewBoltBackend opens or creates the file at filePath
func NewBoltBackend(filePath string) (*BoltBackend, error) {
	db, err := bolt.Open(filePath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", filePath, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(episodesBucketName); err != nil {
			return fmt.Errorf("unable to create the episodes bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltBackend{db: db, filePath: filePath}, nil
}

// Store implements Backend.Store
func (b *BoltBackend) Store(ctx context.Context, transition *Transition) error {
	_, err := b.StoreBatch(ctx, []*Transition{transition})
	return err
}

// StoreBatch implements Backend.StoreBatch. The batch is written in a single
// transaction, so either every transition is stored or none is.
func (b *BoltBackend) StoreBatch(_ context.Context, transitions []*Transition) ([]string, error) {
	ids := make([]string, 0, len(transitions))
	err := b.db.Update(func(tx *bolt.Tx) error {
		episodes := tx.Bucket(episodesBucketName)
		for _, t := range transitions {
			if t.ID == "" {
				t.ID = uuid.New().String()
			}
			if t.Timestamp.IsZero() {
				t.Timestamp = time.Now()
			}

			name := t.EpisodeID
			if name == "" {
				name = noEpisode
			}
			episode, err := episodes.CreateBucketIfNotExists([]byte(name))
			if err != nil {
				return fmt.Errorf("unable to create bucket for episode %s: %w", name, err)
			}
			seq, err := episode.NextSequence()
			if err != nil {
				return err
			}
			v, err := serializeTransition(t)
			if err != nil {
				return err
			}
			if err := episode.Put(serializeSeq(seq), v); err != nil {
				return err
			}
			ids = append(ids, t.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Episode implements Backend.Episode
func (b *BoltBackend) Episode(_ context.Context, episodeID string) ([]*Transition, error) {
	var out []*Transition
	err := b.db.View(func(tx *bolt.Tx) error {
		episode := tx.Bucket(episodesBucketName).Bucket([]byte(episodeID))
		if episode == nil {
			return fmt.Errorf("%w: %s", ErrUnknownEpisode, episodeID)
		}
		return episode.ForEach(func(_, v []byte) error {
			t, err := deserializeTransition(v)
			if err != nil {
				return err
			}
			out = append(out, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats implements Backend.Stats
func (b *BoltBackend) Stats(_ context.Context, player string) (*Stats, error) {
	stats := &Stats{TransitionsByPlayer: make(map[string]uint64)}
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(episodesBucketName).ForEach(func(name, _ []byte) error {
			episode := tx.Bucket(episodesBucketName).Bucket(name)
			if episode == nil {
				return nil
			}
			counted := string(name) == noEpisode
			return episode.ForEach(func(_, v []byte) error {
				t, err := deserializeTransition(v)
				if err != nil {
					return err
				}
				if player != "" && t.Player != player {
					return nil
				}
				if !counted {
					stats.TotalEpisodes++
					counted = true
				}
				stats.add(t)
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close implements Backend.Close
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
