package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/notify"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/scaling"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/metrics"
)

// StartRaid creates a new encounter against the given monster and arms its
// expiration timer. The monster's max hearts anchor party scaling for the
// whole raid; the deadline follows the tier window.
func (s *Service) StartRaid(ctx context.Context, monster model.Monster, village, expeditionID string) (*model.Raid, error) {
	now := s.now()

	base := monster.MaxHearts
	if base <= 0 {
		base = monster.CurrentHearts
	}

	raid := &model.Raid{
		ID:      uuid.NewString(),
		Village: village,
		Monster: model.Monster{
			Name:          monster.Name,
			Tier:          monster.Tier,
			CurrentHearts: base,
			MaxHearts:     base,
		},
		Participants: []model.Participant{},
		CurrentTurn:  0,
		Status:       model.StatusActive,
		ExpiresAt:    now.Add(model.Window(monster.Tier)),
		Analytics: model.Analytics{
			BaseMonsterHearts: base,
			StartTime:         now,
		},
		ExpeditionID: expeditionID,
	}

	if err := s.store.CreateRaid(ctx, raid); err != nil {
		return nil, fmt.Errorf("creating raid: %w", err)
	}

	metrics.RecordRaidStarted()
	s.updateActiveRaids(ctx)

	// A lost expiration job is not fatal: the sweep is the backstop.
	if err := s.sched.ArmExpiration(ctx, raid.ID, raid.ExpiresAt); err != nil {
		s.log.Error(ctx, "arming expiration job failed",
			logger.String("raidID", raid.ID),
			logger.Error(err),
		)
	}

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindRaidStarted,
		RaidID:  raid.ID,
		Village: raid.Village,
		Message: fmt.Sprintf("a tier %d %s threatens %s", raid.Monster.Tier, raid.Monster.Name, raid.Village),
	})

	s.log.Info(ctx, "raid started",
		logger.String("raidID", raid.ID),
		logger.String("village", raid.Village),
		logger.String("monster", raid.Monster.Name),
		logger.Int("tier", raid.Monster.Tier),
	)

	return raid, nil
}

// Join adds a character to an active raid. Validations run in a fixed order
// against fresh state on every update attempt; any rejection is hard and
// leaves the raid untouched.
func (s *Service) Join(ctx context.Context, raidID, characterID string) (*model.Raid, error) {
	ch, err := s.GetCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}

	var first bool
	raid, err := repository.UpdateRaid(ctx, s.store, raidID, func(r *model.Raid) error {
		first = false
		if err := s.validateJoin(ctx, r, ch); err != nil {
			return err
		}

		r.Participants = append(r.Participants, model.Participant{
			UserID:      ch.UserID,
			CharacterID: ch.ID,
			Name:        ch.Name,
			Capability:  ch.RaidCapability(),
			JoinedAt:    s.now(),
		})
		scaling.Rescale(r)

		first = len(r.Participants) == 1
		return nil
	})
	if err != nil {
		return nil, raidError(err, raidID)
	}

	metrics.RecordPartyJoin()

	// The skip clock is armed once the raid has its first fighter. Later
	// joiners never touch it: the pending job belongs to the holder.
	if first {
		s.armSkipForHolder(ctx, raid)
	}

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindRaidJoined,
		RaidID:  raid.ID,
		Village: raid.Village,
		Message: fmt.Sprintf("%s joined the fight against %s (%d/%d hearts)",
			ch.Name, raid.Monster.Name, raid.Monster.CurrentHearts, raid.Monster.MaxHearts),
	})

	s.log.Info(ctx, "character joined raid",
		logger.String("raidID", raid.ID),
		logger.String("characterID", ch.ID),
		logger.Int("partySize", len(raid.Participants)),
	)

	return raid, nil
}

// validateJoin runs the ordered join checks. Order matters: earlier
// rejections mask later ones.
func (s *Service) validateJoin(ctx context.Context, r *model.Raid, ch *model.Character) error {
	if r.Status != model.StatusActive {
		return model.NewValidation(model.ReasonNotActive, "raid %s is %s", r.ID, r.Status)
	}

	// A KO'd character may not start the fight alone.
	if ch.KO() && len(r.Participants) == 0 {
		return model.NewValidation(model.ReasonSoloKO, "%s is unconscious and cannot face %s alone", ch.Name, r.Monster.Name)
	}

	if r.ExpeditionID != "" {
		member, err := s.expeditions.IsMember(ctx, r.ExpeditionID, ch.ID)
		if err != nil {
			return fmt.Errorf("checking expedition membership: %w", err)
		}
		if !member {
			return model.NewValidation(model.ReasonExpedition, "%s is not part of expedition %s", ch.Name, r.ExpeditionID)
		}
	}

	if ch.Village != r.Village {
		return model.NewValidation(model.ReasonWrongVillage, "%s is in %s, the raid is in %s", ch.Name, ch.Village, r.Village)
	}

	if ch.BlightImmune() {
		return model.NewValidation(model.ReasonBlightImmune, "stage %d blight locks %s out of raids", ch.BlightStage, ch.Name)
	}

	// The cap counts standard participants only, and exempt joiners are
	// not subject to it at all.
	if ch.RaidCapability() != model.CapabilityExempt && r.StandardCount() >= model.MaxStandardParticipants {
		return model.NewValidation(model.ReasonCapExceeded, "raid %s already has %d fighters", r.ID, model.MaxStandardParticipants)
	}

	if r.HasUser(ch.UserID) {
		return model.NewValidation(model.ReasonDuplicateJoin, "user %s already has a character in this raid", ch.UserID)
	}

	return nil
}

// Leave removes the character from the live turn sequence. Damage already
// dealt stands, and loot eligibility is frozen as of the moment of leaving.
func (s *Service) Leave(ctx context.Context, raidID, characterID string) (*model.Raid, error) {
	var (
		removed  model.Participant
		heldTurn bool
	)
	raid, err := repository.UpdateRaid(ctx, s.store, raidID, func(r *model.Raid) error {
		if r.Status != model.StatusActive {
			return model.NewValidation(model.ReasonNotActive, "raid %s is %s", r.ID, r.Status)
		}

		idx := r.FindParticipant(characterID)
		if idx < 0 {
			return model.NewValidation(model.ReasonUnknownCharacter, "character %s is not fighting in raid %s", characterID, r.ID)
		}

		removed = r.Participants[idx]
		heldTurn = idx == r.CurrentTurn

		if removed.LootEligible() {
			r.LootEligibleRemoved = append(r.LootEligibleRemoved, removed)
		}

		r.Participants = append(r.Participants[:idx], r.Participants[idx+1:]...)

		// The holder is unchanged when someone earlier in the order
		// leaves; a departing holder hands the turn to whoever now sits
		// at their index, wrapping from the tail.
		switch {
		case len(r.Participants) == 0:
			r.CurrentTurn = 0
		case idx < r.CurrentTurn:
			r.CurrentTurn--
		case r.CurrentTurn >= len(r.Participants):
			r.CurrentTurn = 0
		}

		scaling.Rescale(r)
		return nil
	})
	if err != nil {
		return nil, raidError(err, raidID)
	}

	metrics.RecordPartyLeave()

	// Only a departing holder moves the clock to a new fighter.
	if heldTurn {
		s.rotateSkipClock(ctx, raid)
	}

	s.notice(ctx, notify.Notice{
		Kind:    notify.KindRaidLeft,
		RaidID:  raid.ID,
		Village: raid.Village,
		Message: fmt.Sprintf("%s left the fight against %s", removed.Name, raid.Monster.Name),
	})

	s.log.Info(ctx, "character left raid",
		logger.String("raidID", raid.ID),
		logger.String("characterID", characterID),
		logger.Int("partySize", len(raid.Participants)),
		logger.Bool("heldTurn", heldTurn),
	)

	return raid, nil
}
