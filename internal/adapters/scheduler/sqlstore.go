package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLStore is the durable Store implementation over the engine database's
// raid_jobs table. It shares the repository's SQLite handle; jobs armed
// before a process restart are claimed by the first poll after it.
type SQLStore struct {
	sqlDB *sql.DB
}

// NewSQLStore wraps an open engine database.
func NewSQLStore(sqlDB *sql.DB) *SQLStore {
	return &SQLStore{sqlDB: sqlDB}
}

// Schedule cancels any pending job of the same kind for the raid and
// inserts the new one, inside a single transaction.
func (s *SQLStore) Schedule(ctx context.Context, job *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule tx: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
UPDATE raid_jobs SET status = ?, updated_at = ?
WHERE raid_id = ? AND kind = ? AND status = ?
`,
		string(StatusCancelled), now.UnixMilli(),
		job.RaidID, string(job.Kind), string(StatusPending),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("cancel pending jobs: %w", err)
	}

	job.Status = StatusPending
	job.CreatedAt = now
	job.UpdatedAt = now
	if _, err := tx.ExecContext(ctx, `
INSERT INTO raid_jobs (id, kind, raid_id, character_id, scheduled_at, fire_at, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		job.ID, string(job.Kind), job.RaidID, job.CharacterID,
		job.ScheduledAt.UTC().UnixMilli(), job.FireAt.UTC().UnixMilli(),
		string(StatusPending), now.UnixMilli(), now.UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule: %w", err)
	}
	return nil
}

// Cancel marks the raid's pending jobs of the given kind cancelled.
func (s *SQLStore) Cancel(ctx context.Context, raidID string, kind Kind) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE raid_jobs SET status = ?, updated_at = ?
WHERE raid_id = ? AND kind = ? AND status = ?
`,
		string(StatusCancelled), time.Now().UTC().UnixMilli(),
		raidID, string(kind), string(StatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("cancel jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel jobs result: %w", err)
	}
	return int(n), nil
}

// CancelAll marks every pending job for the raid cancelled.
func (s *SQLStore) CancelAll(ctx context.Context, raidID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
UPDATE raid_jobs SET status = ?, updated_at = ?
WHERE raid_id = ? AND status = ?
`,
		string(StatusCancelled), time.Now().UTC().UnixMilli(),
		raidID, string(StatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("cancel raid jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel raid jobs result: %w", err)
	}
	return int(n), nil
}

// ClaimDue selects due pending jobs and flips each to done with a
// conditional update. A job whose flip reports zero affected rows was
// claimed by another runner and is skipped, so every job fires at most
// once even with several processes polling the same table.
func (s *SQLStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultClaimBatch
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, kind, raid_id, character_id, scheduled_at, fire_at, created_at
FROM raid_jobs
WHERE status = ? AND fire_at <= ?
ORDER BY fire_at ASC, id ASC
LIMIT ?
`,
		string(StatusPending), now.UTC().UnixMilli(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select due jobs: %w", err)
	}

	var candidates []Job
	for rows.Next() {
		var j Job
		var kind string
		var scheduledAt, fireAt, createdAt int64
		if err := rows.Scan(&j.ID, &kind, &j.RaidID, &j.CharacterID, &scheduledAt, &fireAt, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Kind = Kind(kind)
		j.ScheduledAt = time.UnixMilli(scheduledAt).UTC()
		j.FireAt = time.UnixMilli(fireAt).UTC()
		j.CreatedAt = time.UnixMilli(createdAt).UTC()
		candidates = append(candidates, j)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate due jobs: %w", err)
	}
	_ = rows.Close()

	stamp := time.Now().UTC()
	claimed := make([]Job, 0, len(candidates))
	for _, j := range candidates {
		res, err := s.sqlDB.ExecContext(ctx, `
UPDATE raid_jobs SET status = ?, updated_at = ?
WHERE id = ? AND status = ?
`,
			string(StatusDone), stamp.UnixMilli(), j.ID, string(StatusPending),
		)
		if err != nil {
			return claimed, fmt.Errorf("claim job %s: %w", j.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return claimed, fmt.Errorf("claim job %s result: %w", j.ID, err)
		}
		if affected == 0 {
			continue // lost the claim to another runner
		}
		j.Status = StatusDone
		j.UpdatedAt = stamp
		claimed = append(claimed, j)
	}
	return claimed, nil
}

// PendingCount returns the number of pending jobs.
func (s *SQLStore) PendingCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM raid_jobs WHERE status = ?`, string(StatusPending),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending jobs: %w", err)
	}
	return n, nil
}

var _ Store = (*SQLStore)(nil)
