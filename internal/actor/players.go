package actor

import (
	"errors"
	"fmt"

	"github.com/cartridge/sc2agent/internal/agent"
	"github.com/cartridge/sc2agent/internal/config"
	"github.com/cartridge/sc2agent/internal/policy"
	"github.com/cartridge/sc2agent/internal/sc2"
)

// RemotePolicy is a policy backed by a connection that must be released
type RemotePolicy interface {
	policy.Policy
	Close() error
}

// RemoteDialer opens the remote controller connection for one player
type RemoteDialer func(player config.PlayerConfig) (RemotePolicy, error)

// Roster is the result of BuildPlayers: the agents this process drives, in
// order, and the engine-side declaration of every player slot.
type Roster struct {
	Agents  []*agent.Agent
	Players []sc2.PlayerSetup

	remotes []RemotePolicy
}

// BuildPlayers instantiates an agent for every local and remote player. Bots
// only produce a player setup.
func BuildPlayers(configs []config.PlayerConfig, dial RemoteDialer, opts ...agent.Option) (*Roster, error) {
	r := &Roster{}
	for _, cfg := range configs {
		race, err := cfg.SC2Race()
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("%w: player %q: %v", config.ErrConfig, cfg.Name, err)
		}

		switch cfg.Type {
		case config.PlayerBot:
			difficulty, err := cfg.SC2Difficulty()
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("%w: player %q: %v", config.ErrConfig, cfg.Name, err)
			}
			r.Players = append(r.Players, sc2.PlayerSetup{
				Type:       sc2.PlayerTypeComputer,
				Race:       race,
				Difficulty: difficulty,
				Name:       cfg.Name,
			})
			continue

		case config.PlayerLocal:
			if cfg.Policy == "" {
				r.Close()
				return nil, fmt.Errorf("%w: local player %q requires a policy", config.ErrConfig, cfg.Name)
			}
			p, err := policy.New(cfg.Policy)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("%w: player %q: %v", config.ErrConfig, cfg.Name, err)
			}
			r.Agents = append(r.Agents, agent.NewLocal(cfg.Name, p, opts...))

		case config.PlayerRemote:
			if dial == nil {
				r.Close()
				return nil, fmt.Errorf("%w: remote player %q but no controller configured", config.ErrConfig, cfg.Name)
			}
			client, err := dial(cfg)
			if err != nil {
				r.Close()
				return nil, fmt.Errorf("player %q: %w", cfg.Name, err)
			}
			r.remotes = append(r.remotes, client)
			r.Agents = append(r.Agents, agent.NewRemote(cfg.Name, client, opts...))

		default:
			r.Close()
			return nil, fmt.Errorf("%w: player %q: unknown type %q", config.ErrConfig, cfg.Name, cfg.Type)
		}

		r.Players = append(r.Players, sc2.PlayerSetup{
			Type: sc2.PlayerTypeParticipant,
			Race: race,
			Name: cfg.Name,
		})
	}
	return r, nil
}

// Close releases remote controller connections
func (r *Roster) Close() error {
	var errs []error
	for _, c := range r.remotes {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.remotes = nil
	return errors.Join(errs...)
}
