package simulate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ruutuli/Tinglebot2.0-sub010/pkg/logger"
)

// Run executes one complete simulated raid.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting raid simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("partySize", config.PartySize),
		logger.Int("tier", config.Tier),
		logger.String("monster", config.MonsterName),
		logger.String("village", config.Village),
		logger.Int("maxRounds", config.MaxRounds),
		logger.Bool("contend", config.Contend),
		logger.String("timeout", config.Timeout.String()))

	client := newClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate and register the party
	roster := generateRoster(ctx, config)
	party, err := createParty(ctx, client, roster, stats)
	if err != nil {
		return fmt.Errorf("party creation failed: %w", err)
	}

	// Step 3: Start the encounter
	hearts := config.MonsterHearts
	if hearts <= 0 {
		hearts = config.Tier * HeartsPerTier
	}
	raid, err := client.startRaid(ctx, config.Village, Monster{
		Name:          config.MonsterName,
		Tier:          config.Tier,
		CurrentHearts: hearts,
		MaxHearts:     hearts,
	})
	if err != nil {
		return fmt.Errorf("starting raid failed: %w", err)
	}
	logger.Get().Info(ctx, "raid started",
		logger.String("raidID", raid.ID),
		logger.Int("monsterHearts", raid.Monster.MaxHearts),
		logger.String("expiresAt", raid.ExpiresAt.Format(time.RFC3339)))

	// Step 4: Join the party
	fighters := joinParty(ctx, client, raid.ID, party, stats)
	if len(fighters) == 0 {
		return errors.New("no character managed to join the raid")
	}

	// Step 5: Play rounds until the fight ends
	if err := playRounds(ctx, client, config, raid.ID, stats); err != nil {
		return fmt.Errorf("playing rounds failed: %w", err)
	}

	// Step 6: Let async loot delivery settle, then read the final record
	logger.Get().Info(ctx, "waiting for loot delivery to settle")
	time.Sleep(SettleDelay)

	final, err := client.getRaid(ctx, raid.ID)
	if err != nil {
		return fmt.Errorf("reading final raid failed: %w", err)
	}
	failures, err := client.lootFailures(ctx, raid.ID)
	if err != nil {
		return fmt.Errorf("reading loot failures failed: %w", err)
	}
	stats.FinalStatus = final.Status
	stats.LootFailed = len(failures)

	// Step 7: Verify the record against the turns we landed
	if err := verifyOutcome(ctx, config, final, failures, stats); err != nil {
		return fmt.Errorf("outcome verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *Client) error {
	logger.Get().Info(ctx, "checking service health")
	if err := client.checkHealth(ctx); err != nil {
		return err
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// createParty registers the roster and returns the created characters.
// Registration failures are fatal: a partial party skews every later check.
func createParty(ctx context.Context, client *Client, roster []Character, stats *Stats) ([]Character, error) {
	party := make([]Character, 0, len(roster))
	for _, ch := range roster {
		created, err := client.createCharacter(ctx, ch)
		if err != nil {
			return nil, fmt.Errorf("creating character %q: %w", ch.Name, err)
		}
		party = append(party, *created)
	}
	stats.CharactersCreated = len(party)
	logger.Get().Info(ctx, "party registered", logger.Int("count", len(party)))
	return party, nil
}

// joinParty joins every character and returns the ones the engine accepted.
// Cap rejections are expected for oversized parties and only counted.
func joinParty(ctx context.Context, client *Client, raidID string, party []Character, stats *Stats) []Character {
	fighters := make([]Character, 0, len(party))
	for _, ch := range party {
		if _, err := client.joinRaid(ctx, raidID, ch.ID); err != nil {
			var rej *Rejection
			if errors.As(err, &rej) {
				stats.JoinsRejected++
				logger.Get().Warn(ctx, "join rejected",
					logger.String("character", ch.Name),
					logger.String("code", rej.Code))
				continue
			}
			stats.RequestsFailed++
			logger.Get().Error(ctx, "join request failed",
				logger.String("character", ch.Name),
				logger.Error(err))
			continue
		}
		stats.JoinsAccepted++
		fighters = append(fighters, ch)
	}
	logger.Get().Info(ctx, "party joined",
		logger.Int("accepted", stats.JoinsAccepted),
		logger.Int("rejected", stats.JoinsRejected))
	return fighters
}

// playRounds drives the fight until the raid leaves the active state or
// MaxRounds runs out. When rounds run out the party retreats.
func playRounds(ctx context.Context, client *Client, config *Config, raidID string, stats *Stats) error {
	for round := 1; round <= config.MaxRounds; round++ {
		raid, err := client.getRaid(ctx, raidID)
		if err != nil {
			return fmt.Errorf("reading raid before round %d: %w", round, err)
		}
		if raid.Status != "active" {
			stats.MonsterDefeated = raid.Monster.CurrentHearts <= 0
			logger.Get().Info(ctx, "fight is over",
				logger.String("status", raid.Status),
				logger.Int("rounds", stats.RoundsPlayed))
			return nil
		}
		if len(raid.Participants) == 0 {
			logger.Get().Info(ctx, "party wiped", logger.Int("rounds", stats.RoundsPlayed))
			return nil
		}

		stats.RoundsPlayed = round

		var defeated bool
		if config.Contend {
			defeated, err = playContendedRound(ctx, client, config, raid, stats)
		} else {
			defeated, err = playOrderedRound(ctx, client, config, raid, stats)
		}
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}
		if defeated {
			stats.MonsterDefeated = true
			return nil
		}

		if !config.Verbose {
			fmt.Printf("\rround %d/%d - monster hearts %d/%d",
				round, config.MaxRounds, raid.Monster.CurrentHearts, raid.Monster.MaxHearts)
		}
	}
	if !config.Verbose {
		fmt.Println()
	}

	// Out of rounds: retreat so the record shows a clean exit.
	return retreat(ctx, client, raidID, stats)
}

// playOrderedRound plays one turn as the current holder.
func playOrderedRound(ctx context.Context, client *Client, config *Config, raid *Raid, stats *Stats) (bool, error) {
	if raid.CurrentTurn < 0 || raid.CurrentTurn >= len(raid.Participants) {
		return false, fmt.Errorf("turn index %d out of range for %d participants", raid.CurrentTurn, len(raid.Participants))
	}
	holder := raid.Participants[raid.CurrentTurn]

	stats.TurnsAttempted++
	result, err := client.takeTurn(ctx, raid.ID, holder.CharacterID)
	if err != nil {
		var rej *Rejection
		if errors.As(err, &rej) {
			// The holder may have been skipped or KO'd between the read
			// and the attack; the next round re-reads the rotation.
			stats.TurnsRejected++
			logger.Get().Warn(ctx, "turn rejected",
				logger.String("character", holder.Name),
				logger.String("code", rej.Code))
			return false, nil
		}
		stats.RequestsFailed++
		return false, err
	}

	recordTurn(ctx, config, result, stats)
	return result.MonsterDefeated, nil
}

// playContendedRound fires an attack from every participant at once.
// The engine must let exactly the rotation through: everything else comes
// back as a rejection, never as a double-applied turn.
func playContendedRound(ctx context.Context, client *Client, config *Config, raid *Raid, stats *Stats) (bool, error) {
	var (
		mu       sync.Mutex
		landed   []*TurnResult
		rejected int64
		failed   int64
	)

	var wg sync.WaitGroup
	for _, p := range raid.Participants {
		wg.Add(1)
		go func(characterID string) {
			defer wg.Done()
			result, err := client.takeTurn(ctx, raid.ID, characterID)
			if err != nil {
				var rej *Rejection
				if errors.As(err, &rej) {
					atomic.AddInt64(&rejected, 1)
					return
				}
				atomic.AddInt64(&failed, 1)
				return
			}
			mu.Lock()
			landed = append(landed, result)
			mu.Unlock()
		}(p.CharacterID)
	}
	wg.Wait()

	stats.TurnsAttempted += len(raid.Participants)
	stats.TurnsRejected += int(atomic.LoadInt64(&rejected))
	stats.RequestsFailed += int(atomic.LoadInt64(&failed))

	defeated := false
	for _, result := range landed {
		recordTurn(ctx, config, result, stats)
		defeated = defeated || result.MonsterDefeated
	}

	if len(landed) == 0 && failed > 0 {
		return false, errors.New("every attack in the burst failed at transport level")
	}
	return defeated, nil
}

// recordTurn folds one landed turn into the stats and logs it.
func recordTurn(ctx context.Context, config *Config, result *TurnResult, stats *Stats) {
	stats.TurnsLanded++
	stats.DamageDealt += result.DamageToMonster

	if config.Verbose {
		logger.Get().Info(ctx, "turn landed",
			logger.String("character", result.CharacterID),
			logger.Int("roll", result.Roll),
			logger.Int("adjustedRoll", result.AdjustedRoll),
			logger.Int("damageToMonster", result.DamageToMonster),
			logger.Int("damageToCharacter", result.DamageToCharacter),
			logger.String("narrative", result.Narrative))
	}

	if result.MonsterDefeated {
		granted, failedDeliveries := 0, 0
		if result.Loot != nil {
			granted = len(result.Loot.Granted)
			failedDeliveries = len(result.Loot.Failed)
		}
		stats.LootGranted = granted
		logger.Get().Info(ctx, "monster defeated",
			logger.String("character", result.CharacterID),
			logger.Int("lootGranted", granted),
			logger.Int("lootFailed", failedDeliveries))
	}
}

// retreat makes every remaining participant leave the raid.
func retreat(ctx context.Context, client *Client, raidID string, stats *Stats) error {
	raid, err := client.getRaid(ctx, raidID)
	if err != nil {
		return fmt.Errorf("reading raid before retreat: %w", err)
	}
	if raid.Status != "active" {
		return nil
	}

	logger.Get().Info(ctx, "out of rounds, party retreats",
		logger.Int("remaining", len(raid.Participants)))
	for _, p := range raid.Participants {
		if err := client.action(ctx, raidID, "leave", p.CharacterID, nil); err != nil {
			var rej *Rejection
			if errors.As(err, &rej) {
				logger.Get().Warn(ctx, "leave rejected",
					logger.String("character", p.Name),
					logger.String("code", rej.Code))
				continue
			}
			stats.RequestsFailed++
			return err
		}
	}
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var landRate, turnsPerSecond float64

	if stats.TurnsAttempted > 0 {
		landRate = float64(stats.TurnsLanded) / float64(stats.TurnsAttempted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		turnsPerSecond = float64(stats.TurnsAttempted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("charactersCreated", stats.CharactersCreated),
		logger.Int("joinsAccepted", stats.JoinsAccepted),
		logger.Int("joinsRejected", stats.JoinsRejected),
		logger.Int("roundsPlayed", stats.RoundsPlayed),
		logger.Int("turnsAttempted", stats.TurnsAttempted),
		logger.Int("turnsLanded", stats.TurnsLanded),
		logger.Int("turnsRejected", stats.TurnsRejected),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("damageDealt", stats.DamageDealt),
		logger.Bool("monsterDefeated", stats.MonsterDefeated),
		logger.String("finalStatus", stats.FinalStatus),
		logger.Int("lootGranted", stats.LootGranted),
		logger.Int("lootFailed", stats.LootFailed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("turnLandRate", landRate),
		logger.Float64("turnsPerSecond", turnsPerSecond))
}
