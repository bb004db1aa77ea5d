package simulate

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
)

// namePool seeds character names; parties larger than the pool get
// numbered entries.
var namePool = []string{
	"Tetra", "Ravio", "Impa", "Ashei", "Romani", "Malon",
	"Beedle", "Groose", "Karane", "Medli", "Linebeck", "Nabooru",
}

// villages the roster draws home villages from.
var villages = []string{"rudania", "inariko", "vhintl"}

// archetype is one stat band characters are rolled from.
type archetype struct {
	name       string
	heartsMin  int
	heartsMax  int
	attackMin  int
	attackMax  int
	defenseMin int
	defenseMax int
}

// Stat bands, weighted equally. Bruisers soak counterattacks, glass
// cannons race the clock, wildcards roll across the full range.
var archetypes = []archetype{
	{name: "bruiser", heartsMin: 14, heartsMax: 18, attackMin: 2, attackMax: 4, defenseMin: 4, defenseMax: 6},
	{name: "duelist", heartsMin: 10, heartsMax: 13, attackMin: 4, attackMax: 6, defenseMin: 2, defenseMax: 4},
	{name: "glass cannon", heartsMin: 6, heartsMax: 9, attackMin: 6, attackMax: 9, defenseMin: 0, defenseMax: 2},
	{name: "veteran", heartsMin: 12, heartsMax: 16, attackMin: 5, attackMax: 8, defenseMin: 3, defenseMax: 5},
	{name: "recruit", heartsMin: 6, heartsMax: 8, attackMin: 1, attackMax: 3, defenseMin: 0, defenseMax: 2},
	{name: "wildcard", heartsMin: 6, heartsMax: 18, attackMin: 1, attackMax: 9, defenseMin: 0, defenseMax: 6},
}

// randomInt returns a random int in [min, max] using crypto/rand.
func randomInt(minVal, maxVal int) int {
	if maxVal <= minVal {
		return minVal
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(maxVal-minVal+1)))
	return minVal + int(n.Int64())
}

// generateRoster creates the party: every character gets a unique user so
// the one-character-per-user rule never rejects a join.
func generateRoster(ctx context.Context, config *Config) []Character {
	logger.Get().Info(ctx, "generating party roster", logger.Int("partySize", config.PartySize))

	roster := make([]Character, config.PartySize)
	for i := range roster {
		roster[i] = generateSingleCharacter(i)
	}

	logger.Get().Info(ctx, "roster generated", logger.Int("count", len(roster)))
	return roster
}

// generateSingleCharacter rolls one character from a random archetype.
func generateSingleCharacter(index int) Character {
	arch := archetypes[randomInt(0, len(archetypes)-1)]

	name := namePool[index%len(namePool)]
	if index >= len(namePool) {
		name = fmt.Sprintf("%s %d", name, index/len(namePool)+1)
	}

	hearts := randomInt(arch.heartsMin, arch.heartsMax)

	return Character{
		UserID:    uuid.New().String(),
		Name:      name,
		Village:   villages[index%len(villages)],
		Hearts:    hearts,
		MaxHearts: hearts,
		Attack:    randomInt(arch.attackMin, arch.attackMax),
		Defense:   randomInt(arch.defenseMin, arch.defenseMax),
	}
}
