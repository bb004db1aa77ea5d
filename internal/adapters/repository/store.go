// Package repository defines the raid engine's persistence interfaces and
// the optimistic-concurrency update loop around them.
package repository

import (
	"context"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/loot"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
)

// RaidFilter narrows ListRaids. Zero values mean "any".
type RaidFilter struct {
	Village string
	Status  model.Status
	Limit   int
}

// RaidStore provides read/write access to raid records.
//
// SaveRaid is a conditional write: it succeeds only when the caller
// presents the version it read, returning ErrVersionConflict otherwise.
// On success the raid's Version is bumped in place.
type RaidStore interface {
	// CreateRaid persists a new raid at version 1.
	CreateRaid(ctx context.Context, r *model.Raid) error
	// GetRaid returns a copy of the raid, or ErrRaidNotFound.
	GetRaid(ctx context.Context, id string) (*model.Raid, error)
	// SaveRaid conditionally writes the raid against its read version.
	SaveRaid(ctx context.Context, r *model.Raid) error
	// ListRaids returns raids matching the filter, newest first.
	ListRaids(ctx context.Context, f RaidFilter) ([]*model.Raid, error)
	// CountRaids counts raids with the given status ("" counts all).
	CountRaids(ctx context.Context, status model.Status) (int, error)
}

// CharacterStore provides character state. Characters are a separate
// resource from the raid record with their own unconditional writes, so a
// raid-level retry never double-applies health changes.
type CharacterStore interface {
	// CreateCharacter persists a new character.
	CreateCharacter(ctx context.Context, c *model.Character) error
	// GetCharacter returns a copy of the character, or ErrCharacterNotFound.
	GetCharacter(ctx context.Context, id string) (*model.Character, error)
	// SaveCharacter overwrites the character record.
	SaveCharacter(ctx context.Context, c *model.Character) error
}

// LootFailureStore persists failed loot deliveries for out-of-band
// recovery.
type LootFailureStore interface {
	// RecordLootFailures appends the failed deliveries of one raid.
	RecordLootFailures(ctx context.Context, raidID string, failures []loot.Failure) error
	// ListLootFailures returns the recorded failures for a raid.
	ListLootFailures(ctx context.Context, raidID string) ([]loot.Failure, error)
}

// Store bundles every persistence concern of the engine.
type Store interface {
	RaidStore
	CharacterStore
	LootFailureStore
}
