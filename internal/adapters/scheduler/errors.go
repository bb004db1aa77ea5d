package scheduler

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrDuplicateJob = errors.New("job already exists")
	ErrStoreClosed  = errors.New("job store closed")
)
