// Package simulate drives a live raid engine over HTTP: it seeds a party of
// characters, starts an encounter, plays turns in rotation until the fight
// ends, and verifies the final record against the turns it actually landed.
package simulate

import "time"

// Config holds configuration for one simulated raid.
type Config struct {
	BaseURL       string        // Base URL of the service
	PartySize     int           // Number of characters to create and join
	Tier          int           // Monster tier for the encounter
	MonsterName   string        // Monster display name
	MonsterHearts int           // Monster hearts; 0 derives from tier
	Village       string        // Village hosting the raid
	MaxRounds     int           // Rounds to play before giving up
	Contend       bool          // Every member attacks each round; only the holder lands
	Timeout       time.Duration // HTTP request timeout
	LogFile       string        // Log file for simulation output
	Verbose       bool          // Enable verbose logging
}

// Character mirrors the character resource served by the API.
type Character struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Village     string `json:"village"`
	Hearts      int    `json:"hearts"`
	MaxHearts   int    `json:"max_hearts"`
	Attack      int    `json:"attack"`
	Defense     int    `json:"defense"`
	BlightStage int    `json:"blight_stage"`
	Mod         bool   `json:"mod"`
}

// Monster mirrors the monster block inside a raid resource.
type Monster struct {
	Name          string `json:"name"`
	Tier          int    `json:"tier"`
	CurrentHearts int    `json:"current_hearts"`
	MaxHearts     int    `json:"max_hearts"`
}

// Participant mirrors one party slot inside a raid resource.
type Participant struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Damage      int    `json:"damage"`
	Rounds      int    `json:"rounds"`
	Capability  string `json:"capability"`
}

// Analytics mirrors the encounter totals inside a raid resource.
type Analytics struct {
	BaseMonsterHearts int `json:"base_monster_hearts"`
	TotalDamage       int `json:"total_damage"`
}

// Raid mirrors the raid resource served by the API.
type Raid struct {
	ID           string        `json:"id"`
	Village      string        `json:"village"`
	Monster      Monster       `json:"monster"`
	Participants []Participant `json:"participants"`
	CurrentTurn  int           `json:"current_turn"`
	Status       string        `json:"status"`
	ExpiresAt    time.Time     `json:"expires_at"`
	Analytics    Analytics     `json:"analytics"`
	Version      int64         `json:"version"`
}

// LootGrant mirrors one delivered reward inside a turn result.
type LootGrant struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Reward      struct {
		ItemID string `json:"item_id"`
		Name   string `json:"name"`
		Rarity string `json:"rarity"`
	} `json:"reward"`
}

// LootFailure mirrors one failed delivery served by the API.
type LootFailure struct {
	UserID      string `json:"user_id"`
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	Err         string `json:"error"`
}

// LootReport mirrors the distribution summary inside a turn result.
type LootReport struct {
	RaidID  string        `json:"raid_id"`
	Granted []LootGrant   `json:"granted"`
	Failed  []LootFailure `json:"failed"`
}

// TurnResult mirrors the response of POST /raids/{id}/turn.
type TurnResult struct {
	Raid              *Raid       `json:"raid"`
	CharacterID       string      `json:"character_id"`
	Roll              int         `json:"roll"`
	AdjustedRoll      int         `json:"adjusted_roll"`
	DamageToMonster   int         `json:"damage_to_monster"`
	DamageToCharacter int         `json:"damage_to_character"`
	Narrative         string      `json:"narrative"`
	MonsterDefeated   bool        `json:"monster_defeated"`
	Loot              *LootReport `json:"loot,omitempty"`
}

// apiError mirrors the error envelope served by the API.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds simulation statistics.
type Stats struct {
	CharactersCreated int
	JoinsAccepted     int
	JoinsRejected     int
	RoundsPlayed      int
	TurnsAttempted    int
	TurnsLanded       int
	TurnsRejected     int
	RequestsFailed    int
	DamageDealt       int
	MonsterDefeated   bool
	FinalStatus       string
	LootGranted       int
	LootFailed        int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
