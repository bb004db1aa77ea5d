// Package cooldown tracks short-lived activity tallies behind the raid
// engine: per-character turn counts and per-raid forced-skip counts. Each
// counter lives inside a TTL window and resets once the window lapses. The
// SQL variant persists counters so restarts and sibling processes agree.
package cooldown

import (
	"context"
	"time"
)

// Counter is a keyed tally with a TTL window.
//
// Incr bumps the key's count and returns the new value. The first
// increment of a window fixes its expiry at now+ttl; later increments
// reuse the remaining window. An expired key restarts at 1.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Get(ctx context.Context, key string) (int64, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// TurnKey is the counter key for a character's recent turn activity.
func TurnKey(characterID string) string {
	return "turns:" + characterID
}

// SkipKey is the counter key for forced skips charged to a character
// within one raid.
func SkipKey(raidID, characterID string) string {
	return "skips:" + raidID + ":" + characterID
}
