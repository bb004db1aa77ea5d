package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store implementation backing tests and
// ephemeral runs. Claim semantics match the SQLite store: one status flip
// per job, under one lock.
type MemoryStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the time source used for record timestamps.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore constructs an empty in-memory job store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		jobs: make(map[string]*Job),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Schedule cancels any pending job of the same kind for the raid, then
// inserts the new job as pending. Both happen under one lock.
func (s *MemoryStore) Schedule(ctx context.Context, job *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return ErrDuplicateJob
	}

	now := s.now()
	for _, j := range s.jobs {
		if j.Status == StatusPending && j.RaidID == job.RaidID && j.Kind == job.Kind {
			j.Status = StatusCancelled
			j.UpdatedAt = now
		}
	}

	job.Status = StatusPending
	job.CreatedAt = now
	job.UpdatedAt = now
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

// Cancel marks the raid's pending jobs of the given kind cancelled.
func (s *MemoryStore) Cancel(ctx context.Context, raidID string, kind Kind) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for _, j := range s.jobs {
		if j.Status == StatusPending && j.RaidID == raidID && j.Kind == kind {
			j.Status = StatusCancelled
			j.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// CancelAll marks every pending job for the raid cancelled.
func (s *MemoryStore) CancelAll(ctx context.Context, raidID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := s.now()
	for _, j := range s.jobs {
		if j.Status == StatusPending && j.RaidID == raidID {
			j.Status = StatusCancelled
			j.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// ClaimDue flips due pending jobs to done and returns them, oldest first.
func (s *MemoryStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Job
	for _, j := range s.jobs {
		if j.Status == StatusPending && !j.FireAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if !due[i].FireAt.Equal(due[k].FireAt) {
			return due[i].FireAt.Before(due[k].FireAt)
		}
		return due[i].ID < due[k].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	out := make([]Job, 0, len(due))
	stamp := s.now()
	for _, j := range due {
		j.Status = StatusDone
		j.UpdatedAt = stamp
		out = append(out, *j)
	}
	return out, nil
}

// PendingCount returns the number of pending jobs.
func (s *MemoryStore) PendingCount(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, j := range s.jobs {
		if j.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

// Pending returns the raid's pending jobs, for inspection in tests and
// the stats endpoint.
func (s *MemoryStore) Pending(raidID string) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Job
	for _, j := range s.jobs {
		if j.Status == StatusPending && (raidID == "" || j.RaidID == raidID) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].FireAt.Before(out[k].FireAt) })
	return out
}

var _ Store = (*MemoryStore)(nil)
