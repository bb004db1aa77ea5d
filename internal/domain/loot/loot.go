// Package loot computes reward eligibility and distributes rewards after a
// raid victory.
package loot

import (
	"context"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

// Rarity tiers, lowest to highest.
type Rarity string

// Rarities.
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// rank orders rarities for floor filtering.
func (r Rarity) rank() int {
	switch r {
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether the rarity meets the given floor.
func (r Rarity) AtLeast(floor Rarity) bool {
	return r.rank() >= floor.rank()
}

// Damage thresholds for rarity floors.
const (
	legendaryDamage = 8
	epicDamage      = 6
	rareDamage      = 4
	uncommonDamage  = 2
)

// FloorFor returns the minimum reward rarity a recipient's cumulative
// damage earns.
func FloorFor(damage int) Rarity {
	switch {
	case damage >= legendaryDamage:
		return RarityLegendary
	case damage >= epicDamage:
		return RarityEpic
	case damage >= rareDamage:
		return RarityRare
	case damage >= uncommonDamage:
		return RarityUncommon
	default:
		return RarityCommon
	}
}

// Reward is one entry in a weighted reward pool.
type Reward struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Rarity Rarity `json:"rarity"`
	Weight int    `json:"weight"`
}

// Catalog supplies the weighted reward pool for a rarity floor. The
// content catalog behind it is a separate subsystem.
type Catalog interface {
	// Rewards returns the pool filtered to rarities at or above floor.
	Rewards(ctx context.Context, floor Rarity) ([]Reward, error)
}

// Granter delivers a drawn reward to a player. Delivery is a separate
// resource from the raid record; failures are isolated per recipient.
type Granter interface {
	Grant(ctx context.Context, userID, characterID string, reward Reward) error
}

// Recipients returns the reward set for a completed raid: live eligible
// participants plus the removed-but-eligible snapshot.
func Recipients(r *model.Raid) []model.Participant {
	out := make([]model.Participant, 0, len(r.Participants)+len(r.LootEligibleRemoved))
	for _, p := range r.Participants {
		if p.LootEligible() {
			out = append(out, p)
		}
	}
	out = append(out, r.LootEligibleRemoved...)
	return out
}
