package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/loot"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// MemoryStore is the in-memory Store implementation. It backs tests and
// local runs; the version discipline matches the SQLite store exactly so
// concurrency behavior does not change between backends.
type MemoryStore struct {
	mu           sync.RWMutex
	raids        map[string]*model.Raid
	characters   map[string]*model.Character
	lootFailures map[string][]loot.Failure
	now          func() time.Time
}

// NewMemoryStore constructs an empty in-memory store with options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		raids:        make(map[string]*model.Raid),
		characters:   make(map[string]*model.Character),
		lootFailures: make(map[string][]loot.Failure),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateRaid persists a new raid at version 1.
func (s *MemoryStore) CreateRaid(ctx context.Context, r *model.Raid) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.raids[r.ID]; ok {
		return ErrDuplicateID
	}

	now := s.now()
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now
	s.raids[r.ID] = r.Clone()
	return nil
}

// GetRaid returns a copy of the raid.
func (s *MemoryStore) GetRaid(ctx context.Context, id string) (*model.Raid, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.raids[id]
	if !ok {
		return nil, ErrRaidNotFound
	}
	return r.Clone(), nil
}

// SaveRaid writes the raid if the caller's version matches the stored one,
// bumping the version in place on success.
func (s *MemoryStore) SaveRaid(ctx context.Context, r *model.Raid) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.raids[r.ID]
	if !ok {
		return ErrRaidNotFound
	}
	if current.Version != r.Version {
		return ErrVersionConflict
	}

	r.Version++
	r.UpdatedAt = s.now()
	s.raids[r.ID] = r.Clone()
	return nil
}

// ListRaids returns raids matching the filter, newest first.
func (s *MemoryStore) ListRaids(ctx context.Context, f RaidFilter) ([]*model.Raid, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Raid, 0, len(s.raids))
	for _, r := range s.raids {
		if f.Village != "" && r.Village != f.Village {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, r.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// CountRaids counts raids with the given status ("" counts all).
func (s *MemoryStore) CountRaids(ctx context.Context, status model.Status) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if status == "" {
		return len(s.raids), nil
	}
	n := 0
	for _, r := range s.raids {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

// CreateCharacter persists a new character.
func (s *MemoryStore) CreateCharacter(ctx context.Context, c *model.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.characters[c.ID]; ok {
		return ErrDuplicateID
	}

	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	s.characters[c.ID] = &cp
	return nil
}

// GetCharacter returns a copy of the character.
func (s *MemoryStore) GetCharacter(ctx context.Context, id string) (*model.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.characters[id]
	if !ok {
		return nil, ErrCharacterNotFound
	}
	cp := *c
	return &cp, nil
}

// SaveCharacter overwrites the character record.
func (s *MemoryStore) SaveCharacter(ctx context.Context, c *model.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.characters[c.ID]; !ok {
		return ErrCharacterNotFound
	}

	c.UpdatedAt = s.now()
	cp := *c
	s.characters[c.ID] = &cp
	return nil
}

// RecordLootFailures appends the failed deliveries of one raid.
func (s *MemoryStore) RecordLootFailures(ctx context.Context, raidID string, failures []loot.Failure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failures) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lootFailures[raidID] = append(s.lootFailures[raidID], failures...)
	return nil
}

// ListLootFailures returns the recorded failures for a raid.
func (s *MemoryStore) ListLootFailures(ctx context.Context, raidID string) ([]loot.Failure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]loot.Failure, len(s.lootFailures[raidID]))
	copy(out, s.lootFailures[raidID])
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
