package repository

import "errors"

// Sentinel kinds for raid store errors.
var (
	ErrRaidNotFound      = errors.New("raid not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrDuplicateID       = errors.New("record already exists")
	ErrVersionConflict   = errors.New("raid version conflict")
	ErrConflictExhausted = errors.New("raid update retries exhausted")

	// ErrNoChange is returned by an UpdateRaid apply func to signal that
	// the loaded raid needs no write; UpdateRaid treats it as success.
	ErrNoChange = errors.New("no change")
)
