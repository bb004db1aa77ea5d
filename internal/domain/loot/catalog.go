package loot

import "context"

// StaticCatalog is a fixed, in-process reward table. A real deployment
// points Catalog at the content-catalog service instead.
type StaticCatalog struct {
	pool []Reward
}

// NewStaticCatalog creates a catalog over the default reward table.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{pool: defaultPool}
}

// NewStaticCatalogWithPool creates a catalog over a custom pool.
func NewStaticCatalogWithPool(pool []Reward) *StaticCatalog {
	return &StaticCatalog{pool: pool}
}

// Rewards returns the entries at or above the given rarity floor.
func (c *StaticCatalog) Rewards(ctx context.Context, floor Rarity) ([]Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Reward, 0, len(c.pool))
	for _, r := range c.pool {
		if r.Rarity.AtLeast(floor) {
			out = append(out, r)
		}
	}
	return out, nil
}

// defaultPool is the built-in reward table. Weights skew common items
// heavy so higher floors feel earned.
var defaultPool = []Reward{
	{ItemID: "palm-fruit", Name: "Palm Fruit", Rarity: RarityCommon, Weight: 40},
	{ItemID: "amber", Name: "Amber", Rarity: RarityCommon, Weight: 30},
	{ItemID: "monster-horn", Name: "Monster Horn", Rarity: RarityCommon, Weight: 30},
	{ItemID: "opal", Name: "Opal", Rarity: RarityUncommon, Weight: 24},
	{ItemID: "monster-guts", Name: "Monster Guts", Rarity: RarityUncommon, Weight: 16},
	{ItemID: "ruby", Name: "Ruby", Rarity: RarityRare, Weight: 12},
	{ItemID: "sapphire", Name: "Sapphire", Rarity: RarityRare, Weight: 8},
	{ItemID: "diamond", Name: "Diamond", Rarity: RarityEpic, Weight: 5},
	{ItemID: "giant-ancient-core", Name: "Giant Ancient Core", Rarity: RarityEpic, Weight: 3},
	{ItemID: "star-fragment", Name: "Star Fragment", Rarity: RarityLegendary, Weight: 2},
	{ItemID: "spirit-orb", Name: "Spirit Orb", Rarity: RarityLegendary, Weight: 1},
}
