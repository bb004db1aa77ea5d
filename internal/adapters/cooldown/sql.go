package cooldown

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLCounter persists counters in the activity_counters table so that
// windows survive restarts and are shared across processes.
type SQLCounter struct {
	db  *sql.DB
	now func() time.Time
}

// SQLOption configures a SQLCounter.
type SQLOption func(*SQLCounter)

// WithSQLClock overrides the counter's clock. Used in tests.
func WithSQLClock(now func() time.Time) SQLOption {
	return func(c *SQLCounter) {
		c.now = now
	}
}

// NewSQLCounter creates a counter over an existing database handle.
func NewSQLCounter(db *sql.DB, opts ...SQLOption) *SQLCounter {
	c := &SQLCounter{
		db:  db,
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Incr bumps key's count inside one transaction. A missing or lapsed row
// restarts the window at count 1 with a fresh expiry.
func (c *SQLCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	now := c.now()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning counter update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		count     int64
		expiresAt int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT count, expires_at FROM activity_counters WHERE key = ?`, key,
	).Scan(&count, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		count = 0
	case err != nil:
		return 0, fmt.Errorf("reading counter: %w", err)
	case expiresAt <= now.UnixMilli():
		count = 0
	}

	count++
	if count == 1 {
		expiresAt = now.Add(ttl).UnixMilli()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity_counters (key, count, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			count      = excluded.count,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		key, count, expiresAt, now.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("writing counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing counter update: %w", err)
	}
	return count, nil
}

// Get returns key's live count, or zero when the row is missing or lapsed.
func (c *SQLCounter) Get(ctx context.Context, key string) (int64, error) {
	var (
		count     int64
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT count, expires_at FROM activity_counters WHERE key = ?`, key,
	).Scan(&count, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}
	if expiresAt <= c.now().UnixMilli() {
		return 0, nil
	}
	return count, nil
}

// PurgeExpired deletes lapsed rows and returns how many were removed.
func (c *SQLCounter) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM activity_counters WHERE expires_at <= ?`, c.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging counters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged rows: %w", err)
	}
	return int(n), nil
}
