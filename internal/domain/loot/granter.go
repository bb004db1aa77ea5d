package loot

import (
	"context"
	"sync"
)

// MemoryGranter delivers rewards into an in-memory inventory. It stands in
// for the economy subsystem in local runs and tests.
type MemoryGranter struct {
	mu        sync.Mutex
	inventory map[string][]Reward // keyed by character id
}

// NewMemoryGranter creates an empty in-memory granter.
func NewMemoryGranter() *MemoryGranter {
	return &MemoryGranter{inventory: make(map[string][]Reward)}
}

// Grant records the reward against the character's inventory.
func (g *MemoryGranter) Grant(ctx context.Context, userID, characterID string, reward Reward) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inventory[characterID] = append(g.inventory[characterID], reward)
	return nil
}

// Grants returns the rewards delivered to a character so far.
func (g *MemoryGranter) Grants(characterID string) []Reward {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Reward, len(g.inventory[characterID]))
	copy(out, g.inventory[characterID])
	return out
}
