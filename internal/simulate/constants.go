package simulate

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusConflict = 409
)

// Runner configuration constants.
const (
	// SettleDelay is how long the runner waits after the fight ends before
	// reading the final record, so async loot delivery can finish.
	SettleDelay          = 2 * time.Second
	PercentageMultiplier = 100

	// HeartsPerTier sizes the monster when no heart count is given.
	HeartsPerTier = 10
)
