package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository/migrations"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/loot"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// SQLiteStore is the durable Store implementation. Raids persist as one
// JSON document per record beside indexed columns; the version column
// drives the conditional write.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// Open opens the engine database at path and applies embedded migrations.
// The same handle backs the scheduler's job table and the activity
// counters; see DB.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// DB exposes the underlying handle so the scheduler and counter stores can
// share the single engine database.
func (s *SQLiteStore) DB() *sql.DB {
	return s.sqlDB
}

// CreateRaid persists a new raid at version 1.
func (s *SQLiteStore) CreateRaid(ctx context.Context, r *model.Raid) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal raid: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO raids (id, village, status, expires_at, version, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		r.ID,
		r.Village,
		string(r.Status),
		r.ExpiresAt.UTC().UnixMilli(),
		r.Version,
		string(doc),
		now.UnixMilli(),
		now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert raid: %w", err)
	}
	return nil
}

// GetRaid returns the raid document, or ErrRaidNotFound.
func (s *SQLiteStore) GetRaid(ctx context.Context, id string) (*model.Raid, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc string
	var version int64
	row := s.sqlDB.QueryRowContext(ctx, `SELECT doc, version FROM raids WHERE id = ?`, id)
	if err := row.Scan(&doc, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRaidNotFound
		}
		return nil, fmt.Errorf("query raid: %w", err)
	}

	var r model.Raid
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("unmarshal raid %s: %w", id, err)
	}
	// The column is authoritative for the concurrency token.
	r.Version = version
	return &r, nil
}

// SaveRaid writes the raid if the caller's version matches the stored one,
// bumping the version in place on success.
func (s *SQLiteStore) SaveRaid(ctx context.Context, r *model.Raid) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	readVersion := r.Version
	r.Version = readVersion + 1
	r.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(r)
	if err != nil {
		r.Version = readVersion
		return fmt.Errorf("marshal raid: %w", err)
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE raids
SET village = ?, status = ?, expires_at = ?, version = ?, doc = ?, updated_at = ?
WHERE id = ? AND version = ?
`,
		r.Village,
		string(r.Status),
		r.ExpiresAt.UTC().UnixMilli(),
		r.Version,
		string(doc),
		r.UpdatedAt.UnixMilli(),
		r.ID,
		readVersion,
	)
	if err != nil {
		r.Version = readVersion
		return fmt.Errorf("update raid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		r.Version = readVersion
		return fmt.Errorf("update raid result: %w", err)
	}
	if affected == 0 {
		r.Version = readVersion
		var exists int
		row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM raids WHERE id = ?`, r.ID)
		if scanErr := row.Scan(&exists); scanErr == sql.ErrNoRows {
			return ErrRaidNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// ListRaids returns raids matching the filter, newest first.
func (s *SQLiteStore) ListRaids(ctx context.Context, f RaidFilter) ([]*model.Raid, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT doc, version FROM raids`
	var conds []string
	var args []interface{}
	if f.Village != "" {
		conds = append(conds, "village = ?")
		args = append(args, f.Village)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list raids: %w", err)
	}
	defer rows.Close()

	var out []*model.Raid
	for rows.Next() {
		var doc string
		var version int64
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scan raid: %w", err)
		}
		var r model.Raid
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("unmarshal raid: %w", err)
		}
		r.Version = version
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raids: %w", err)
	}
	return out, nil
}

// CountRaids counts raids with the given status ("" counts all).
func (s *SQLiteStore) CountRaids(ctx context.Context, status model.Status) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM raids`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}

	var n int
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count raids: %w", err)
	}
	return n, nil
}

// CreateCharacter persists a new character.
func (s *SQLiteStore) CreateCharacter(ctx context.Context, c *model.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO characters (id, user_id, name, village, hearts, max_hearts, attack, defense, blight_stage, mod, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		c.ID, c.UserID, c.Name, c.Village,
		c.Hearts, c.MaxHearts, c.Attack, c.Defense, c.BlightStage,
		boolToInt(c.Mod),
		now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert character: %w", err)
	}
	return nil
}

// GetCharacter returns the character, or ErrCharacterNotFound.
func (s *SQLiteStore) GetCharacter(ctx context.Context, id string) (*model.Character, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, name, village, hearts, max_hearts, attack, defense, blight_stage, mod, created_at, updated_at
FROM characters WHERE id = ?
`, id)

	var c model.Character
	var mod int
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Village,
		&c.Hearts, &c.MaxHearts, &c.Attack, &c.Defense, &c.BlightStage,
		&mod, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("query character: %w", err)
	}

	c.Mod = mod != 0
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &c, nil
}

// SaveCharacter overwrites the character record.
func (s *SQLiteStore) SaveCharacter(ctx context.Context, c *model.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.UpdatedAt = time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE characters
SET user_id = ?, name = ?, village = ?, hearts = ?, max_hearts = ?, attack = ?, defense = ?, blight_stage = ?, mod = ?, updated_at = ?
WHERE id = ?
`,
		c.UserID, c.Name, c.Village,
		c.Hearts, c.MaxHearts, c.Attack, c.Defense, c.BlightStage,
		boolToInt(c.Mod),
		c.UpdatedAt.UnixMilli(),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update character result: %w", err)
	}
	if affected == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// RecordLootFailures appends the failed deliveries of one raid.
func (s *SQLiteStore) RecordLootFailures(ctx context.Context, raidID string, failures []loot.Failure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failures) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin loot failure tx: %w", err)
	}

	now := time.Now().UTC().UnixMilli()
	for _, f := range failures {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO loot_failures (raid_id, user_id, character_id, character_name, item_id, item_name, rarity, error, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			raidID, f.UserID, f.CharacterID, f.Name,
			f.Reward.ItemID, f.Reward.Name, string(f.Reward.Rarity),
			f.Err, now,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert loot failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit loot failures: %w", err)
	}
	return nil
}

// ListLootFailures returns the recorded failures for a raid.
func (s *SQLiteStore) ListLootFailures(ctx context.Context, raidID string) ([]loot.Failure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT user_id, character_id, character_name, item_id, item_name, rarity, error
FROM loot_failures WHERE raid_id = ? ORDER BY id ASC
`, raidID)
	if err != nil {
		return nil, fmt.Errorf("list loot failures: %w", err)
	}
	defer rows.Close()

	var out []loot.Failure
	for rows.Next() {
		var f loot.Failure
		var rarity string
		if err := rows.Scan(&f.UserID, &f.CharacterID, &f.Name,
			&f.Reward.ItemID, &f.Reward.Name, &rarity, &f.Err); err != nil {
			return nil, fmt.Errorf("scan loot failure: %w", err)
		}
		f.Reward.Rarity = loot.Rarity(rarity)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loot failures: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether the error is a primary-key clash.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}

var _ Store = (*SQLiteStore)(nil)
