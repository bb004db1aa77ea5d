// Package service provides the raid engine behind the HTTP API: encounter
// lifecycle, turn resolution, durable timers, and loot distribution, all
// serialized through optimistic-concurrency updates on the raid record.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/cooldown"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/notify"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/scheduler"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/combat"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/loot"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// Engine defaults, overridable via options.
const (
	defaultTurnWindow    = 60 * time.Second
	defaultSweepInterval = 30 * time.Second
	defaultActivityTTL   = time.Hour

	// rollSides is the die every attack turn rolls before the party
	// penalty is applied.
	rollSides = 100
)

// Service is the raid engine. Construct with New, then Start before use.
type Service struct {
	mu sync.RWMutex

	// Persistence and timers.
	store    repository.Store
	jobStore scheduler.Store
	sched    *scheduler.Scheduler
	counter  cooldown.Counter

	// Domain collaborators.
	resolver    combat.Resolver
	catalog     loot.Catalog
	granter     loot.Granter
	distributor *loot.Distributor
	villages    VillageService
	expeditions ExpeditionService

	// Notices.
	queue      *notify.Queue
	dispatcher *notify.Dispatcher
	channel    notify.Channel

	// Tunables.
	turnWindow     time.Duration
	sweepInterval  time.Duration
	activityTTL    time.Duration
	pollInterval   time.Duration
	noticeCapacity int
	noticeWorkers  int

	// Clock and dice, injectable for tests.
	now  func() time.Time
	roll func() int

	// State
	started bool
	stopCh  chan struct{}
	sweeps  sync.WaitGroup

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the raid/character/loot-failure store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithJobStore sets the durable job table backing the scheduler.
func WithJobStore(store scheduler.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.jobStore = store
		}
	}
}

// WithCounter sets the TTL activity counter.
func WithCounter(c cooldown.Counter) Option {
	return func(s *Service) {
		if c != nil {
			s.counter = c
		}
	}
}

// WithResolver sets the combat resolver.
func WithResolver(r combat.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithCatalog sets the reward catalog.
func WithCatalog(c loot.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithGranter sets the reward granter.
func WithGranter(g loot.Granter) Option {
	return func(s *Service) {
		if g != nil {
			s.granter = g
		}
	}
}

// WithChannel sets the notice delivery channel.
func WithChannel(c notify.Channel) Option {
	return func(s *Service) {
		if c != nil {
			s.channel = c
		}
	}
}

// WithVillageService sets the village collaborator.
func WithVillageService(v VillageService) Option {
	return func(s *Service) {
		if v != nil {
			s.villages = v
		}
	}
}

// WithExpeditionService sets the expedition collaborator.
func WithExpeditionService(e ExpeditionService) Option {
	return func(s *Service) {
		if e != nil {
			s.expeditions = e
		}
	}
}

// WithTurnWindow sets how long the turn holder has before being skipped.
func WithTurnWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.turnWindow = d
		}
	}
}

// WithSweepInterval sets how often the expiration backstop runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithActivityTTL sets the window for per-character turn counters.
func WithActivityTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.activityTTL = d
		}
	}
}

// WithPollInterval sets the scheduler poll cadence.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithNoticeCapacity bounds the notice queue.
func WithNoticeCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.noticeCapacity = n
		}
	}
}

// WithNoticeWorkers sets the notice dispatcher pool size.
func WithNoticeWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.noticeWorkers = n
		}
	}
}

// WithClock sets the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRoll sets the die. Used in tests.
func WithRoll(roll func() int) Option {
	return func(s *Service) {
		if roll != nil {
			s.roll = roll
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a new Service with default configuration. Components left
// unset are filled with in-memory defaults at Start.
func New(opts ...Option) *Service {
	s := &Service{
		turnWindow:    defaultTurnWindow,
		sweepInterval: defaultSweepInterval,
		activityTTL:   defaultActivityTTL,
		now:           time.Now,
		roll:          func() int { return rand.Intn(rollSides) + 1 }, //nolint:gosec // game dice, not crypto
		stopCh:        make(chan struct{}),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the engine components: the job runner, the
// notice dispatcher, and the expiration sweep.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.log == nil {
		s.log = logger.Get().Named("raid")
	}

	s.log.Info(ctx, "starting raid engine...")

	// Fill in-memory defaults for anything not injected.
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.log.Info(ctx, "using in-memory raid store")
	}
	if s.jobStore == nil {
		s.jobStore = scheduler.NewMemoryStore()
	}
	if s.counter == nil {
		s.counter = cooldown.NewMemoryCounter()
	}
	if s.resolver == nil {
		s.resolver = combat.NewTierResolver()
	}
	if s.catalog == nil {
		s.catalog = loot.NewStaticCatalog()
	}
	if s.granter == nil {
		s.granter = loot.NewMemoryGranter()
	}
	if s.villages == nil {
		s.villages = NewLoggingVillageService()
	}
	if s.expeditions == nil {
		s.expeditions = NewOpenExpeditionService()
	}
	if s.channel == nil {
		s.channel = notify.NewLogChannel()
	}

	s.distributor = loot.NewDistributor(s.catalog, s.granter)

	var queueOpts []notify.QueueOption
	if s.noticeCapacity > 0 {
		queueOpts = append(queueOpts, notify.WithCapacity(s.noticeCapacity))
	}
	s.queue = notify.NewQueue(queueOpts...)

	var dispatchOpts []notify.DispatcherOption
	if s.noticeWorkers > 0 {
		dispatchOpts = append(dispatchOpts, notify.WithWorkers(s.noticeWorkers))
	}
	s.dispatcher = notify.NewDispatcher(s.queue, s.channel, dispatchOpts...)
	s.dispatcher.Start(ctx)

	var schedOpts []scheduler.Option
	if s.pollInterval > 0 {
		schedOpts = append(schedOpts, scheduler.WithPollInterval(s.pollInterval))
	}
	s.sched = scheduler.New(s.jobStore, schedOpts...)
	s.sched.Start(ctx, s)

	s.sweeps.Add(1)
	go s.runSweep(ctx)

	s.started = true
	s.log.Info(ctx, "raid engine started",
		logger.Duration("turnWindow", s.turnWindow),
		logger.Duration("sweepInterval", s.sweepInterval),
	)

	return nil
}

// Stop gracefully shuts down the engine: the sweep first, then the job
// runner, then the notice dispatcher (draining queued notices), then the
// store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.log.Info(ctx, "stopping raid engine...")

	// Signal the sweep loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}
	s.sweeps.Wait()

	if s.sched != nil {
		s.sched.Stop()
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Shutdown(ctx); err != nil {
			s.log.Warn(ctx, "notice dispatcher shutdown", logger.Error(err))
		}
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.log.Warn(ctx, "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.log.Info(ctx, "raid engine stopped")
}

// GetRaid returns a single raid by id.
func (s *Service) GetRaid(ctx context.Context, raidID string) (*model.Raid, error) {
	r, err := s.store.GetRaid(ctx, raidID)
	if err != nil {
		return nil, raidError(err, raidID)
	}
	return r, nil
}

// ListRaids returns raids matching the filter, newest first.
func (s *Service) ListRaids(ctx context.Context, f repository.RaidFilter) ([]*model.Raid, error) {
	return s.store.ListRaids(ctx, f)
}

// CreateCharacter persists a new character, filling defaults for optional
// fields. This is the seed path used by admin tooling and the simulator.
func (s *Service) CreateCharacter(ctx context.Context, ch *model.Character) error {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.UserID == "" {
		ch.UserID = ch.ID
	}
	if ch.MaxHearts <= 0 {
		ch.MaxHearts = ch.Hearts
	}
	if ch.Hearts > ch.MaxHearts {
		ch.Hearts = ch.MaxHearts
	}
	return s.store.CreateCharacter(ctx, ch)
}

// GetCharacter returns a single character by id.
func (s *Service) GetCharacter(ctx context.Context, characterID string) (*model.Character, error) {
	ch, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			return nil, model.NewValidation(model.ReasonUnknownCharacter, "character %s does not exist", characterID)
		}
		return nil, err
	}
	return ch, nil
}

// ListLootFailures returns the failed loot deliveries recorded for a raid.
func (s *Service) ListLootFailures(ctx context.Context, raidID string) ([]loot.Failure, error) {
	return s.store.ListLootFailures(ctx, raidID)
}

// TurnActivity returns how many turns the character has taken inside the
// current activity window.
func (s *Service) TurnActivity(ctx context.Context, characterID string) (int64, error) {
	return s.counter.Get(ctx, cooldown.TurnKey(characterID))
}

// GetStats returns engine statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"turnWindowSec":  int(s.turnWindow / time.Second),
		"activityTTLSec": int(s.activityTTL / time.Second),
	}

	if !s.started {
		return stats
	}

	ctx := context.Background()

	if n, err := s.store.CountRaids(ctx, model.StatusActive); err == nil {
		stats["activeRaids"] = n
		metrics.UpdateActiveRaids(n)
	}
	if n, err := s.store.CountRaids(ctx, ""); err == nil {
		stats["totalRaids"] = n
	}
	if n, err := s.sched.PendingCount(ctx); err == nil {
		stats["pendingJobs"] = n
		metrics.UpdateJobsPending(n)
	}
	stats["noticeQueue"] = s.queue.Len(ctx)

	return stats
}

// notice enqueues a notice stamped with the engine clock. Delivery is
// best-effort; drops are logged and never fail the operation that produced
// them.
func (s *Service) notice(ctx context.Context, n notify.Notice) {
	n.CreatedAt = s.now()
	if !s.queue.Enqueue(ctx, n) {
		s.log.Warn(ctx, "notice dropped",
			logger.String("kind", string(n.Kind)),
			logger.String("raidID", n.RaidID),
		)
	}
}

// updateActiveRaids refreshes the active-raid gauge after a lifecycle change.
func (s *Service) updateActiveRaids(ctx context.Context) {
	if n, err := s.store.CountRaids(ctx, model.StatusActive); err == nil {
		metrics.UpdateActiveRaids(n)
	}
}

// armSkipForHolder arms the skip clock for the raid's current turn holder.
// Exempt holders play outside the clock; nothing is armed for them.
func (s *Service) armSkipForHolder(ctx context.Context, r *model.Raid) {
	if r.Status != model.StatusActive {
		return
	}
	holder, ok := r.CurrentParticipant()
	if !ok || holder.Exempt() {
		return
	}
	if err := s.sched.ArmTurnSkip(ctx, r.ID, holder.CharacterID, s.turnWindow); err != nil {
		s.log.Error(ctx, "arming turn-skip job failed",
			logger.String("raidID", r.ID),
			logger.String("characterID", holder.CharacterID),
			logger.Error(err),
		)
	}
}

// raidError converts store sentinels into caller-facing validation errors.
func raidError(err error, raidID string) error {
	if errors.Is(err, repository.ErrRaidNotFound) {
		return model.NewValidation(model.ReasonNotFound, "raid %s does not exist", raidID)
	}
	return err
}

var _ scheduler.Handler = (*Service)(nil)

// HandleJob dispatches a claimed scheduler job to its lifecycle handler.
func (s *Service) HandleJob(ctx context.Context, job scheduler.Job) error {
	switch job.Kind {
	case scheduler.KindRaidExpiration:
		return s.CheckExpiration(ctx, job.RaidID)
	case scheduler.KindTurnSkip:
		return s.handleTurnSkip(ctx, job)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
