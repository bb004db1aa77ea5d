package loot

import "errors"

// Sentinel kinds for loot errors.
var (
	ErrEmptyPool = errors.New("reward pool is empty")
)
