// Package notify carries raid notices out of the engine: a bounded
// in-memory queue drained by a small dispatcher pool posting to a Channel.
// Enqueue is non-blocking and delivery is best-effort; a slow or broken
// channel never holds up a raid state transition.
package notify

import (
	"context"
	"time"
)

// Kind classifies a notice.
type Kind string

// Notice kinds.
const (
	KindRaidStarted   Kind = "raid_started"
	KindRaidJoined    Kind = "raid_joined"
	KindRaidLeft      Kind = "raid_left"
	KindTurnResolved  Kind = "turn_resolved"
	KindTurnSkipped   Kind = "turn_skipped"
	KindRaidCompleted Kind = "raid_completed"
	KindRaidFailed    Kind = "raid_failed"
	KindLootReport    Kind = "loot_report"
)

// Notice is one outbound message about a raid.
type Notice struct {
	Kind      Kind      `json:"kind"`
	RaidID    string    `json:"raid_id"`
	Village   string    `json:"village,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Channel delivers notices to their destination.
type Channel interface {
	Post(ctx context.Context, n Notice) error
}
