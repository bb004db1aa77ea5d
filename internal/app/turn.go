package service

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// TurnResult describes one resolved attack turn.
type TurnResult struct {
	Raid              *model.Raid  `json:"raid"`
	CharacterID       string       `json:"character_id"`
	Roll              int          `json:"roll"`
	AdjustedRoll      int          `json:"adjusted_roll"`
	DamageToMonster   int          `json:"damage_to_monster"`
	DamageToCharacter int          `json:"damage_to_character"`
	Narrative         string       `json:"narrative"`
	MonsterDefeated   bool         `json:"monster_defeated"`
	Loot              *loot.Report `json:"loot,omitempty"`
}

// TakeTurn resolves one attack by the turn holder or an exempt participant.
// The dice are rolled once: a version conflict reapplies the same outcome to
// fresh state instead of rerolling, so concurrent turns cannot inflate or
// erase each other's damage.
func (s *Service) TakeTurn(ctx context.Context, raidID, characterID string) (*TurnResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordTurnLatency(float64(time.Since(start).Milliseconds()))
	}()

	ch, err := s.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}

	// The first read fixes the combat inputs: party size and tier feed the
	// roll penalty before the resolver runs.
	initial, err := s.store.GetRaid(ctx, raidID)
	if err != nil {
		return nil, raidError(err, raidID)
	}
	if err := validateTurn(initial, characterID); err != nil {
		return nil, err
	}

	roll := s.roll()
	adjusted := combat.AdjustRoll(roll, len(initial.Participants), initial.Monster.Tier)

	outcome, err := s.resolver.Resolve(ctx, *ch, initial.Monster.Tier, adjusted)
	if err != nil {
		return nil, fmt.Errorf("resolving turn: %w", err)
	}

	var (
		applied   int
		wasHolder bool
		killed    bool
	)
	raid, err := repository.UpdateRaid(ctx, s.store, raidID, func(r *model.Raid) error {
		applied, wasHolder, killed = 0, false, false

		// Revalidated on every attempt: the holder may have been skipped
		// or the raid ended while we were resolving.
		if err := validateTurn(r, characterID); err != nil {
			return err
		}

		idx := r.FindParticipant(characterID)
		p := &r.Participants[idx]
		wasHolder = idx == r.CurrentTurn

		applied = outcome.DamageToMonster
		if applied > r.Monster.CurrentHearts {
			applied = r.Monster.CurrentHearts
		}
		r.Monster.CurrentHearts -= applied
		p.Damage += applied
		p.Rounds++
		r.Analytics.TotalDamage += applied

		if r.Monster.CurrentHearts == 0 {
			r.Status = model.StatusCompleted
			r.Analytics.EndTime = s.now()
			killed = true
			return nil
		}

		// Holder turns advance the rotation, including a holder who
		// happens to be exempt. Out-of-band exempt turns leave it alone.
		if wasHolder {
			r.CurrentTurn = (r.CurrentTurn + 1) % len(r.Participants)
		}
		return nil
	})
	if err != nil {
		return nil, raidError(err, raidID)
	}

	metrics.RecordTurnTaken()
	metrics.RecordDamage(applied)

	// Character hearts are a separate resource written once per resolved
	// turn, never inside the retry loop.
	if outcome.DamageToCharacter > 0 {
		ch.ApplyDamage(outcome.DamageToCharacter)
		if err := s.store.SaveCharacter(ctx, ch); err != nil {
			s.log.Error(ctx, "saving character damage failed",
				logger.String("characterID", ch.ID),
				logger.Error(err),
			)
		}
	}

	if _, err := s.counter.Incr(ctx, cooldown.TurnKey(characterID), s.activityTTL); err != nil {
		s.log.Warn(ctx, "bumping turn counter failed", logger.Error(err))
	}

	result := &TurnResult{
		Raid:              raid,
		CharacterID:       characterID,
		Roll:              roll,
		AdjustedRoll:      adjusted,
		DamageToMonster:   applied,
		DamageToCharacter: outcome.DamageToCharacter,
		Narrative:         outcome.Narrative,
		MonsterDefeated:   killed,
	}

	switch {
	case killed:
		result.Loot = s.finalizeVictory(ctx, raid)
	case wasHolder:
		s.rotateSkipClock(ctx, raid)
	}

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindTurnResolved,
		RaidID:  raid.ID,
		Village: raid.Village,
		Message: fmt.Sprintf("%s: %s (%d/%d hearts left)",
			ch.Name, outcome.Narrative, raid.Monster.CurrentHearts, raid.Monster.MaxHearts),
	})

	s.log.Info(ctx, "turn resolved",
		logger.String("raidID", raid.ID),
		logger.String("characterID", characterID),
		logger.Int("roll", roll),
		logger.Int("adjustedRoll", adjusted),
		logger.Int("damage", applied),
		logger.Bool("defeated", killed),
	)

	return result, nil
}

// validateTurn checks that the raid is live and the character may act right
// now: either the current turn holder or an exempt participant.
func validateTurn(r *model.Raid, characterID string) error {
	if r.Status != model.StatusActive {
		return model.NewValidation(model.ReasonNotActive, "raid %s is %s", r.ID, r.Status)
	}
	idx := r.FindParticipant(characterID)
	if idx < 0 {
		return model.NewValidation(model.ReasonUnknownCharacter, "character %s is not fighting in raid %s", characterID, r.ID)
	}
	if idx != r.CurrentTurn && !r.Participants[idx].Exempt() {
		holder, _ := r.CurrentParticipant()
		return model.NewValidation(model.ReasonNotYourTurn, "it is %s's turn, not %s's", holder.Name, r.Participants[idx].Name)
	}
	return nil
}

// rotateSkipClock repoints the skip clock after the rotation moved. Arming
// replaces the previous pending job in one transaction; a holderless or
// exempt-held rotation just clears it.
func (s *Service) rotateSkipClock(ctx context.Context, r *model.Raid) {
	holder, ok := r.CurrentParticipant()
	if r.Status == model.StatusActive && ok && !holder.Exempt() {
		s.armSkipForHolder(ctx, r)
		return
	}
	if err := s.sched.CancelTurnSkip(ctx, r.ID); err != nil {
		s.log.Error(ctx, "cancelling turn-skip job failed",
			logger.String("raidID", r.ID),
			logger.Error(err),
		)
	}
}

// finalizeVictory runs the side effects of a kill: timers cancelled, loot
// distributed, notices posted. Only the update winner gets here; a racing
// turn sees a completed raid and is rejected before it can mutate anything,
// which is what makes loot single-shot.
func (s *Service) finalizeVictory(ctx context.Context, r *model.Raid) *loot.Report {
	if err := s.sched.CancelAll(ctx, r.ID); err != nil {
		s.log.Error(ctx, "cancelling jobs after victory failed",
			logger.String("raidID", r.ID),
			logger.Error(err),
		)
	}

	metrics.RecordRaidCompleted(string(model.OutcomeDefeated))
	s.updateActiveRaids(ctx)

	report := s.distributor.Distribute(ctx, r)
	for _, g := range report.Granted {
		metrics.RecordLootGranted(string(g.Reward.Rarity))
	}
	for _, p := range r.Participants {
		if !p.LootEligible() {
			metrics.RecordLootIneligible()
		}
	}

	if len(report.Failed) > 0 {
		for range report.Failed {
			metrics.RecordLootFailure()
		}
		if err := s.store.RecordLootFailures(ctx, r.ID, report.Failed); err != nil {
			s.log.Error(ctx, "recording loot failures failed",
				logger.String("raidID", r.ID),
				logger.Error(err),
			)
		}
		s.notice(ctx, notify.Notice{
			Kind:    notify.KindLootReport,
			RaidID:  r.ID,
			Village: r.Village,
			Message: fmt.Sprintf("%d reward deliveries failed and need moderator recovery", len(report.Failed)),
		})
	}

	if r.ExpeditionID != "" {
		if err := s.expeditions.NotifyOutcome(ctx, r.ExpeditionID, model.OutcomeDefeated); err != nil {
			s.log.Error(ctx, "expedition outcome notification failed",
				logger.String("expeditionID", r.ExpeditionID),
				logger.Error(err),
			)
		}
	}

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindRaidCompleted,
		RaidID:  r.ID,
		Village: r.Village,
		Message: fmt.Sprintf("%s has been defeated! %d rewards granted", r.Monster.Name, len(report.Granted)),
	})

	s.log.Info(ctx, "raid completed",
		logger.String("raidID", r.ID),
		logger.Int("granted", len(report.Granted)),
		logger.Int("failed", len(report.Failed)),
	)

	return &report
}

// CheckExpiration fails a raid whose deadline has passed. It is idempotent:
// terminal raids and raids still inside their window are no-ops, so the
// expiration job and the sweep can both call it safely.
func (s *Service) CheckExpiration(ctx context.Context, raidID string) error {
	var (
		transitioned bool
		fighters     []model.Participant
	)
	raid, err := repository.UpdateRaid(ctx, s.store, raidID, func(r *model.Raid) error {
		transitioned = false
		if r.Status.Terminal() || !r.Expired(s.now()) {
			return repository.ErrNoChange
		}

		r.Status = model.StatusFailed
		r.Analytics.EndTime = s.now()
		fighters = append([]model.Participant(nil), r.Participants...)
		transitioned = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrRaidNotFound) {
			return nil
		}
		return err
	}
	if !transitioned {
		return nil
	}

	outcome := model.OutcomeTimeout
	if len(fighters) == 0 {
		outcome = model.OutcomeFled
	}

	if err := s.sched.CancelAll(ctx, raid.ID); err != nil {
		s.log.Error(ctx, "cancelling jobs after expiry failed",
			logger.String("raidID", raid.ID),
			logger.Error(err),
		)
	}

	metrics.RecordRaidCompleted(string(outcome))
	s.updateActiveRaids(ctx)

	// Everyone still in the fight goes down with it. Character hearts are
	// their own resource; per-character failures are logged, not fatal.
	for _, p := range fighters {
		if err := s.koCharacter(ctx, p.CharacterID); err != nil {
			s.log.Error(ctx, "knocking out character after raid loss failed",
				logger.String("raidID", raid.ID),
				logger.String("characterID", p.CharacterID),
				logger.Error(err),
			)
		}
	}

	if err := s.villages.ApplyDamage(ctx, raid.Village, raid.Monster); err != nil {
		s.log.Error(ctx, "applying village damage failed",
			logger.String("village", raid.Village),
			logger.Error(err),
		)
	}

	if raid.ExpeditionID != "" {
		if err := s.expeditions.NotifyOutcome(ctx, raid.ExpeditionID, outcome); err != nil {
			s.log.Error(ctx, "expedition outcome notification failed",
				logger.String("expeditionID", raid.ExpeditionID),
				logger.Error(err),
			)
		}
	}

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindRaidFailed,
		RaidID:  raid.ID,
		Village: raid.Village,
		Message: fmt.Sprintf("%s was not stopped in time and rampages through %s", raid.Monster.Name, raid.Village),
	})

	s.log.Info(ctx, "raid failed",
		logger.String("raidID", raid.ID),
		logger.String("outcome", string(outcome)),
		logger.Int("fighters", len(fighters)),
	)

	return nil
}

// koCharacter zeroes a character's hearts after a lost raid.
func (s *Service) koCharacter(ctx context.Context, characterID string) error {
	ch, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		return err
	}
	if ch.Hearts == 0 {
		return nil
	}
	ch.Hearts = 0
	return s.store.SaveCharacter(ctx, ch)
}

// handleTurnSkip force-advances a stalled rotation. The job's window start
// is wall clock: a job claimed early is re-armed for the remainder instead
// of acting, and a fire against a holder who already acted or left is a
// stale no-op.
func (s *Service) handleTurnSkip(ctx context.Context, job scheduler.Job) error {
	if job.Elapsed(s.now()) < s.turnWindow {
		return s.sched.Rearm(ctx, job, job.ScheduledAt.Add(s.turnWindow))
	}

	var (
		skipped     bool
		skippedName string
	)
	raid, err := repository.UpdateRaid(ctx, s.store, job.RaidID, func(r *model.Raid) error {
		skipped = false
		if r.Status != model.StatusActive || len(r.Participants) == 0 {
			metrics.RecordJobStale()
			return repository.ErrNoChange
		}
		holder, ok := r.CurrentParticipant()
		if !ok || holder.CharacterID != job.CharacterID {
			// The targeted holder already acted or left.
			metrics.RecordJobStale()
			return repository.ErrNoChange
		}

		// A forced advance earns the skipped player no round credit.
		skippedName = holder.Name
		r.CurrentTurn = (r.CurrentTurn + 1) % len(r.Participants)
		skipped = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrRaidNotFound) {
			metrics.RecordJobStale()
			return nil
		}
		return err
	}
	if !skipped {
		return nil
	}

	metrics.RecordTurnSkipped()

	count, err := s.counter.Incr(ctx, cooldown.SkipKey(job.RaidID, job.CharacterID), model.Window(raid.Monster.Tier))
	if err != nil {
		s.log.Warn(ctx, "bumping skip counter failed", logger.Error(err))
	}

	s.rotateSkipClock(ctx, raid)

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindTurnSkipped,
		RaidID:  raid.ID,
		Village: raid.Village,
		Message: fmt.Sprintf("%s hesitated and forfeited the turn (%d skipped this raid)", skippedName, count),
	})

	s.log.Info(ctx, "turn skipped",
		logger.String("raidID", raid.ID),
		logger.String("characterID", job.CharacterID),
		logger.Int64("skipCount", count),
	)

	return nil
}

// runSweep periodically fails overdue raids and prunes lapsed activity
// counters. It is the durability backstop for lost expiration jobs.
func (s *Service) runSweep(ctx context.Context) {
	defer s.sweeps.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepExpired(ctx)
			if _, err := s.counter.PurgeExpired(ctx); err != nil {
				s.log.Debug(ctx, "purging activity counters failed", logger.Error(err))
			}
		}
	}
}

func (s *Service) sweepExpired(ctx context.Context) {
	raids, err := s.store.ListRaids(ctx, repository.RaidFilter{Status: model.StatusActive})
	if err != nil {
		s.log.Error(ctx, "sweep: listing active raids failed", logger.Error(err))
		return
	}

	expired := 0
	now := s.now()
	for _, r := range raids {
		if !r.Expired(now) {
			continue
		}
		if err := s.CheckExpiration(ctx, r.ID); err != nil {
			s.log.Error(ctx, "sweep: failing overdue raid",
				logger.String("raidID", r.ID),
				logger.Error(err),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		metrics.RecordSweepExpired(expired)
		s.log.Info(ctx, "sweep failed overdue raids", logger.Int("count", expired))
	}
}
