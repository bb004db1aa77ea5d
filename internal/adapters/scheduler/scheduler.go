// Package scheduler provides durable delayed jobs for raid deadlines: a
// persisted job table polled by a runner, with cancel-before-reschedule
// discipline and at-most-once claiming.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// Kind identifies what a delayed job does when it fires.
type Kind string

// Job kinds.
const (
	// KindRaidExpiration closes a raid whose deadline has passed. Armed
	// once at raid creation.
	KindRaidExpiration Kind = "raid_expiration"
	// KindTurnSkip force-advances a stalled turn. Re-armed whenever a
	// non-exempt participant becomes the turn holder.
	KindTurnSkip Kind = "turn_skip"
)

// Status is a job's lifecycle state. Claiming a job flips it pending ->
// done exactly once; cancelled jobs never fire.
type Status string

// Job statuses.
const (
	StatusPending   Status = "pending"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
)

// Job is one durable delayed task. ScheduledAt records the wall-clock
// instant the window started, so handlers can recompute true elapsed time
// at fire time instead of trusting the scheduler's clock.
type Job struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	RaidID      string    `json:"raid_id"`
	CharacterID string    `json:"character_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	FireAt      time.Time `json:"fire_at"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Elapsed returns how much of the job's window has truly passed at now.
func (j Job) Elapsed(now time.Time) time.Duration {
	return now.Sub(j.ScheduledAt)
}

// Handler consumes claimed jobs. A returned error is logged and counted;
// the job is not retried (the periodic sweep is the correctness backstop).
type Handler interface {
	HandleJob(ctx context.Context, job Job) error
}

// Store is the durable job table.
//
// Schedule must cancel any pending job of the same kind for the same raid
// before inserting, atomically, so at most one job per kind is ever
// outstanding per raid. ClaimDue must flip each returned job pending ->
// done in the same operation, so a job fires at most once even with
// several runners polling the same table.
type Store interface {
	Schedule(ctx context.Context, job *Job) error
	Cancel(ctx context.Context, raidID string, kind Kind) (int, error)
	CancelAll(ctx context.Context, raidID string) (int, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]Job, error)
	PendingCount(ctx context.Context) (int, error)
}

// Default runner configuration.
const (
	defaultPollInterval = 500 * time.Millisecond
	defaultClaimBatch   = 32
	runnerStopTimeout   = 5 * time.Second
)

// Scheduler arms, cancels, and fires delayed jobs against a Store.
type Scheduler struct {
	store    Store
	interval time.Duration
	batch    int
	now      func() time.Time
	logger   logger.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	jobs    sync.WaitGroup
}

// New creates a scheduler over the given job store.
func New(store Store, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		interval: defaultPollInterval,
		batch:    defaultClaimBatch,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ArmExpiration schedules the raid's one expiration job, firing at the
// raid deadline.
func (s *Scheduler) ArmExpiration(ctx context.Context, raidID string, fireAt time.Time) error {
	now := s.now()
	return s.schedule(ctx, &Job{
		ID:          uuid.NewString(),
		Kind:        KindRaidExpiration,
		RaidID:      raidID,
		ScheduledAt: now,
		FireAt:      fireAt,
	})
}

// ArmTurnSkip schedules the skip job for the raid's current turn holder.
// Any pending skip job for the raid is cancelled first, keeping at most
// one outstanding skip job per raid.
func (s *Scheduler) ArmTurnSkip(ctx context.Context, raidID, characterID string, window time.Duration) error {
	now := s.now()
	return s.schedule(ctx, &Job{
		ID:          uuid.NewString(),
		Kind:        KindTurnSkip,
		RaidID:      raidID,
		CharacterID: characterID,
		ScheduledAt: now,
		FireAt:      now.Add(window),
	})
}

// Rearm reschedules a claimed job for a new fire time, preserving the
// original ScheduledAt so the true window survives early fires.
func (s *Scheduler) Rearm(ctx context.Context, job Job, fireAt time.Time) error {
	metrics.RecordJobRearmed()
	return s.schedule(ctx, &Job{
		ID:          uuid.NewString(),
		Kind:        job.Kind,
		RaidID:      job.RaidID,
		CharacterID: job.CharacterID,
		ScheduledAt: job.ScheduledAt,
		FireAt:      fireAt,
	})
}

func (s *Scheduler) schedule(ctx context.Context, job *Job) error {
	job.Status = StatusPending
	if err := s.store.Schedule(ctx, job); err != nil {
		return err
	}
	metrics.RecordJobScheduled()
	s.updatePendingGauge(ctx)
	return nil
}

// CancelTurnSkip cancels the raid's pending skip job, if any.
func (s *Scheduler) CancelTurnSkip(ctx context.Context, raidID string) error {
	_, err := s.store.Cancel(ctx, raidID, KindTurnSkip)
	s.updatePendingGauge(ctx)
	return err
}

// CancelExpiration cancels the raid's pending expiration job, if any.
func (s *Scheduler) CancelExpiration(ctx context.Context, raidID string) error {
	_, err := s.store.Cancel(ctx, raidID, KindRaidExpiration)
	s.updatePendingGauge(ctx)
	return err
}

// CancelAll cancels every pending job for the raid. Used when a raid
// reaches a terminal state.
func (s *Scheduler) CancelAll(ctx context.Context, raidID string) error {
	_, err := s.store.CancelAll(ctx, raidID)
	s.updatePendingGauge(ctx)
	return err
}

// PendingCount returns the number of pending jobs in the store.
func (s *Scheduler) PendingCount(ctx context.Context) (int, error) {
	return s.store.PendingCount(ctx)
}

// Start launches the polling runner, dispatching claimed jobs to h. Jobs
// armed before a restart are picked up by the first poll after it.
func (s *Scheduler) Start(ctx context.Context, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}

	go s.run(ctx, h)
}

// Stop signals the runner to exit and waits for in-flight handlers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.stopCh)
	s.mu.Unlock()

	select {
	case <-s.doneCh:
	case <-time.After(runnerStopTimeout):
		s.logger.Warn(context.Background(), "scheduler stop timed out")
	}
}

func (s *Scheduler) run(ctx context.Context, h Handler) {
	defer close(s.doneCh)
	defer s.jobs.Wait()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.poll(ctx, h)
		}
	}
}

// poll claims due jobs and dispatches each to the handler. Claiming is
// the at-most-once point; handler errors are logged, not retried.
func (s *Scheduler) poll(ctx context.Context, h Handler) {
	due, err := s.store.ClaimDue(ctx, s.now(), s.batch)
	if err != nil {
		s.logger.Error(ctx, "claiming due jobs failed", logger.Error(err))
		return
	}

	for _, job := range due {
		metrics.RecordJobFired()
		s.jobs.Add(1)
		go func(job Job) {
			defer s.jobs.Done()
			if err := h.HandleJob(ctx, job); err != nil {
				metrics.RecordJobFailed()
				s.logger.Error(ctx, "job handler failed",
					logger.String("job_id", job.ID),
					logger.String("kind", string(job.Kind)),
					logger.String("raid_id", job.RaidID),
					logger.Error(err),
				)
			}
		}(job)
	}

	if len(due) > 0 {
		s.updatePendingGauge(ctx)
	}
}

func (s *Scheduler) updatePendingGauge(ctx context.Context) {
	if n, err := s.store.PendingCount(ctx); err == nil {
		metrics.UpdateJobsPending(n)
	}
}
