package service

import (
	"context"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
)

// VillageService absorbs collateral damage when a raid is lost. The village
// economy is a separate subsystem; the engine only reports the hit.
type VillageService interface {
	ApplyDamage(ctx context.Context, village string, monster model.Monster) error
}

// ExpeditionService gates expedition-bound raids and hears how they ended.
type ExpeditionService interface {
	// IsMember reports whether the character belongs to the expedition.
	IsMember(ctx context.Context, expeditionID, characterID string) (bool, error)
	// NotifyOutcome reports the raid outcome to the expedition.
	NotifyOutcome(ctx context.Context, expeditionID string, outcome model.Outcome) error
}

// LoggingVillageService is the default VillageService: it records the hit
// and moves on.
type LoggingVillageService struct {
	log logger.Logger
}

// NewLoggingVillageService creates the default village collaborator.
func NewLoggingVillageService() *LoggingVillageService {
	return &LoggingVillageService{log: logger.Get().Named("village")}
}

func (v *LoggingVillageService) ApplyDamage(ctx context.Context, village string, monster model.Monster) error {
	v.log.Info(ctx, "village takes damage from unbeaten monster",
		logger.String("village", village),
		logger.String("monster", monster.Name),
		logger.Int("tier", monster.Tier),
	)
	return nil
}

// OpenExpeditionService is the default ExpeditionService: every character is
// a member and outcomes are just logged.
type OpenExpeditionService struct {
	log logger.Logger
}

// NewOpenExpeditionService creates the default expedition collaborator.
func NewOpenExpeditionService() *OpenExpeditionService {
	return &OpenExpeditionService{log: logger.Get().Named("expedition")}
}

func (e *OpenExpeditionService) IsMember(ctx context.Context, expeditionID, characterID string) (bool, error) {
	return true, nil
}

func (e *OpenExpeditionService) NotifyOutcome(ctx context.Context, expeditionID string, outcome model.Outcome) error {
	e.log.Info(ctx, "expedition raid resolved",
		logger.String("expedition_id", expeditionID),
		logger.String("outcome", string(outcome)),
	)
	return nil
}
