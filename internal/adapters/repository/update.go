package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// MaxUpdateAttempts bounds the reload-and-reapply loop. Exceeding it is a
// fatal concurrency failure surfaced to the caller.
const MaxUpdateAttempts = 3

// UpdateRaid is the compare-and-swap combinator every raid mutation goes
// through. It loads the raid, lets apply mutate it, and conditionally
// writes it back; on a version conflict it reloads the latest record and
// reapplies the delta, up to MaxUpdateAttempts times.
//
// apply runs against freshly loaded state on every attempt, so validation
// inside it never acts on stale turn ownership. apply may return
// ErrNoChange to skip the write; any other error aborts with no write.
func UpdateRaid(ctx context.Context, store RaidStore, raidID string, apply func(*model.Raid) error) (*model.Raid, error) {
	var lastErr error

	for attempt := 1; attempt <= MaxUpdateAttempts; attempt++ {
		raid, err := store.GetRaid(ctx, raidID)
		if err != nil {
			return nil, err
		}

		if err := apply(raid); err != nil {
			if errors.Is(err, ErrNoChange) {
				return raid, nil
			}
			return nil, err
		}

		err = store.SaveRaid(ctx, raid)
		if err == nil {
			return raid, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}

		metrics.RecordVersionConflict()
		lastErr = err
	}

	metrics.RecordConflictExhausted()
	return nil, fmt.Errorf("updating raid %s after %d attempts (%v): %w", raidID, MaxUpdateAttempts, lastErr, ErrConflictExhausted)
}
