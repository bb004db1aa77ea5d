// Package combat defines the contract for resolving raid attack turns.
package combat

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

// Default resolver configuration constants.
const (
	defaultRandomSeed = 42
	maxRoll           = 100
	criticalBand      = 90
	solidBand         = 70
	glancingBand      = 45
	stalemateBand     = 25
)

// Option applies a configuration option to the TierResolver.
type Option func(*TierResolver)

// WithRand sets the random source used to pick narrative variants.
func WithRand(rng *rand.Rand) Option {
	return func(r *TierResolver) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// Outcome describes the result of one resolved attack turn.
type Outcome struct {
	DamageToMonster   int
	DamageToCharacter int
	Narrative         string
}

// Resolver turns a character, a monster tier, and an adjusted roll into
// damage in both directions. Implementations own their tier tables; the
// caller applies the party penalty to the roll before delegating.
type Resolver interface {
	// Resolve resolves a single attack turn, honoring ctx for cancellation.
	Resolve(ctx context.Context, ch model.Character, tier, roll int) (Outcome, error)
}

// TierResolver implements Resolver with banded d100 outcome tables.
// Safe for concurrent use; the rng is guarded.
type TierResolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewTierResolver creates a resolver with configuration options.
func NewTierResolver(opts ...Option) *TierResolver {
	r := &TierResolver{
		rng: rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible narratives
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Narrative variants per band; the rng picks one.
var (
	criticalLines  = []string{"lands a devastating blow", "strikes a weak point dead-on", "unleashes a perfect strike"}
	solidLines     = []string{"lands a solid hit", "connects with a heavy swing"}
	glancingLines  = []string{"lands a glancing blow", "scratches the hide"}
	stalemateLines = []string{"trades blows to no effect", "circles without an opening"}
	counterLines   = []string{"is caught off guard and takes a hit", "is knocked back by a counterattack"}
)

// Resolve resolves one attack turn. The character's attack stat raises the
// effective roll; the defense stat blunts counterattacks. Higher tiers hit
// back harder on failed attacks.
func (r *TierResolver) Resolve(ctx context.Context, ch model.Character, tier, roll int) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("combat resolution cancelled: %w", err)
	}

	effective := roll + ch.Attack
	if effective > maxRoll {
		effective = maxRoll
	}

	switch {
	case effective >= criticalBand:
		return Outcome{DamageToMonster: 4, Narrative: r.pick(criticalLines)}, nil
	case effective >= solidBand:
		return Outcome{DamageToMonster: 2, Narrative: r.pick(solidLines)}, nil
	case effective >= glancingBand:
		return Outcome{DamageToMonster: 1, Narrative: r.pick(glancingLines)}, nil
	case effective >= stalemateBand:
		return Outcome{Narrative: r.pick(stalemateLines)}, nil
	default:
		return Outcome{
			DamageToCharacter: counterDamage(tier, ch.Defense),
			Narrative:         r.pick(counterLines),
		}, nil
	}
}

func (r *TierResolver) pick(lines []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lines[r.rng.Intn(len(lines))]
}

// counterDamage returns the hearts a failed attack costs: one heart, one
// more per five tiers, less one per ten points of defense, never below one.
func counterDamage(tier, defense int) int {
	dmg := 1 + tier/5 - defense/10
	if dmg < 1 {
		dmg = 1
	}
	return dmg
}
