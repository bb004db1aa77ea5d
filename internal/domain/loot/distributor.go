package loot

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

const defaultRandomSeed = 97

// Option applies a configuration option to the Distributor.
type Option func(*Distributor)

// WithRand sets the random source used for weighted draws.
func WithRand(rng *rand.Rand) Option {
	return func(d *Distributor) {
		if rng != nil {
			d.rng = rng
		}
	}
}

// Grant records one delivered reward.
type Grant struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Reward      Reward `json:"reward"`
}

// Failure records one recipient whose delivery failed. The drawn reward is
// kept so the player still sees what they earned; delivery is recovered
// out-of-band.
type Failure struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Reward      Reward `json:"reward"`
	Err         string `json:"error"`
}

// Report aggregates the outcome of one distribution batch.
type Report struct {
	RaidID  string    `json:"raid_id"`
	Granted []Grant   `json:"granted"`
	Failed  []Failure `json:"failed"`
}

// Distributor draws and delivers rewards for a completed raid. Safe for
// concurrent use across raids; the rng is guarded.
type Distributor struct {
	catalog Catalog
	granter Granter
	mu      sync.Mutex
	rng     *rand.Rand
}

// NewDistributor creates a distributor over the given catalog and granter.
func NewDistributor(catalog Catalog, granter Granter, opts ...Option) *Distributor {
	d := &Distributor{
		catalog: catalog,
		granter: granter,
		rng:     rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // reward draws need no crypto entropy
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Distribute draws one reward per eligible recipient and delivers it.
// Failures never abort the batch: each failed recipient is recorded in the
// report and the rest continue. A cancelled context fails the remaining
// recipients without losing their entries.
func (d *Distributor) Distribute(ctx context.Context, raid *model.Raid) Report {
	report := Report{RaidID: raid.ID}

	recipients := Recipients(raid)
	for i, p := range recipients {
		if err := ctx.Err(); err != nil {
			for _, rest := range recipients[i:] {
				report.Failed = append(report.Failed, Failure{
					UserID:      rest.UserID,
					CharacterID: rest.CharacterID,
					Name:        rest.Name,
					Err:         fmt.Sprintf("distribution cancelled: %v", err),
				})
			}
			break
		}

		reward, err := d.drawFor(ctx, p)
		if err != nil {
			report.Failed = append(report.Failed, Failure{
				UserID:      p.UserID,
				CharacterID: p.CharacterID,
				Name:        p.Name,
				Err:         err.Error(),
			})
			continue
		}

		if err := d.granter.Grant(ctx, p.UserID, p.CharacterID, reward); err != nil {
			report.Failed = append(report.Failed, Failure{
				UserID:      p.UserID,
				CharacterID: p.CharacterID,
				Name:        p.Name,
				Reward:      reward,
				Err:         err.Error(),
			})
			continue
		}

		report.Granted = append(report.Granted, Grant{
			UserID:      p.UserID,
			CharacterID: p.CharacterID,
			Name:        p.Name,
			Reward:      reward,
		})
	}

	return report
}

// drawFor fetches the pool for the recipient's rarity floor and draws one
// reward by weight.
func (d *Distributor) drawFor(ctx context.Context, p model.Participant) (Reward, error) {
	floor := FloorFor(p.Damage)
	pool, err := d.catalog.Rewards(ctx, floor)
	if err != nil {
		return Reward{}, fmt.Errorf("fetching reward pool at floor %s: %w", floor, err)
	}

	reward, ok := d.draw(pool)
	if !ok {
		return Reward{}, fmt.Errorf("%w at floor %s", ErrEmptyPool, floor)
	}
	return reward, nil
}

// draw picks one reward from the pool, weighted by Reward.Weight. Entries
// with non-positive weight never win.
func (d *Distributor) draw(pool []Reward) (Reward, bool) {
	total := 0
	for _, r := range pool {
		if r.Weight > 0 {
			total += r.Weight
		}
	}
	if total <= 0 {
		return Reward{}, false
	}

	d.mu.Lock()
	n := d.rng.Intn(total)
	d.mu.Unlock()
	for _, r := range pool {
		if r.Weight <= 0 {
			continue
		}
		n -= r.Weight
		if n < 0 {
			return r, true
		}
	}
	return Reward{}, false
}
