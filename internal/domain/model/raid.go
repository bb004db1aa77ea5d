// Package model contains domain models passed between layers.
package model

import "time"

// Status is the lifecycle state of a raid.
type Status string

// Raid statuses. Completed and failed are terminal.
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Capability is a participant's privilege variant. Exempt participants
// bypass turn order and the participant cap.
type Capability string

// Participant capabilities.
const (
	CapabilityStandard Capability = "standard"
	CapabilityExempt   Capability = "exempt"
)

// Outcome is reported to the expedition service when a raid ends.
type Outcome string

// Raid outcomes.
const (
	OutcomeDefeated Outcome = "defeated" // monster killed before the deadline
	OutcomeFled     Outcome = "fled"     // deadline passed with nobody left fighting
	OutcomeTimeout  Outcome = "timeout"  // deadline passed mid-fight
)

// MaxStandardParticipants is the participant cap. It counts standard
// participants only; exempt participants join above the cap.
const MaxStandardParticipants = 10

// Monster is the shared scaling boss of a raid.
type Monster struct {
	Name          string `json:"name"`
	Tier          int    `json:"tier"`
	CurrentHearts int    `json:"current_hearts"`
	MaxHearts     int    `json:"max_hearts"`
}

// Participant binds a character to a raid. Slice order in
// Raid.Participants defines turn order; new joiners append to the end.
type Participant struct {
	UserID      string     `json:"user_id"`
	CharacterID string     `json:"character_id"`
	Name        string     `json:"name"`
	Damage      int        `json:"damage"`
	Rounds      int        `json:"rounds"`
	Capability  Capability `json:"capability"`
	JoinedAt    time.Time  `json:"joined_at"`
}

// Exempt reports whether the participant bypasses turn order and cap rules.
func (p Participant) Exempt() bool {
	return p.Capability == CapabilityExempt
}

// LootEligible reports whether the participant has earned a reward claim:
// at least one heart of damage, or three rounds of presence.
func (p Participant) LootEligible() bool {
	return p.Damage >= 1 || p.Rounds >= 3
}

// Analytics carries the fixed and accumulated encounter numbers.
// BaseMonsterHearts is set once at creation and anchors party scaling.
type Analytics struct {
	BaseMonsterHearts int       `json:"base_monster_hearts"`
	TotalDamage       int       `json:"total_damage"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
}

// Raid is the aggregate root and the sole unit of concurrency control for
// encounter state. Version is bumped by every store write; writers present
// the version they read and lose on mismatch.
type Raid struct {
	ID                  string        `json:"id"`
	Village             string        `json:"village"`
	Monster             Monster       `json:"monster"`
	Participants        []Participant `json:"participants"`
	CurrentTurn         int           `json:"current_turn"`
	Status              Status        `json:"status"`
	ExpiresAt           time.Time     `json:"expires_at"`
	Analytics           Analytics     `json:"analytics"`
	ExpeditionID        string        `json:"expedition_id,omitempty"`
	LootEligibleRemoved []Participant `json:"loot_eligible_removed,omitempty"`
	Version             int64         `json:"version"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Raid window by monster tier.
const (
	baseWindow       = 10 * time.Minute
	extraPerTier     = 2 * time.Minute
	maxWindow        = 20 * time.Minute
	windowScaleStart = 5
)

// Window returns how long a raid against a monster of the given tier stays
// open: 10 minutes through tier 5, two more minutes per tier above that,
// capped at 20 minutes from tier 10 up.
func Window(tier int) time.Duration {
	if tier <= windowScaleStart {
		return baseWindow
	}
	w := baseWindow + time.Duration(tier-windowScaleStart)*extraPerTier
	if w > maxWindow {
		return maxWindow
	}
	return w
}

// CurrentParticipant returns the turn holder, or false when the raid has
// no participants yet.
func (r *Raid) CurrentParticipant() (Participant, bool) {
	if len(r.Participants) == 0 || r.CurrentTurn < 0 || r.CurrentTurn >= len(r.Participants) {
		return Participant{}, false
	}
	return r.Participants[r.CurrentTurn], true
}

// FindParticipant returns the index of the participant playing the given
// character, or -1 when the character is not in the raid.
func (r *Raid) FindParticipant(characterID string) int {
	for i, p := range r.Participants {
		if p.CharacterID == characterID {
			return i
		}
	}
	return -1
}

// HasUser reports whether the user already has a participant in the raid.
func (r *Raid) HasUser(userID string) bool {
	for _, p := range r.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// StandardCount returns the number of non-exempt participants, the set the
// participant cap applies to.
func (r *Raid) StandardCount() int {
	n := 0
	for _, p := range r.Participants {
		if !p.Exempt() {
			n++
		}
	}
	return n
}

// Expired reports whether the raid deadline has passed at the given instant.
func (r *Raid) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// DamageDealt returns the hearts already taken off the monster.
func (r *Raid) DamageDealt() int {
	return r.Monster.MaxHearts - r.Monster.CurrentHearts
}

// Clone returns a deep copy of the raid. Stores hand out clones so callers
// can mutate freely before a conditional write.
func (r *Raid) Clone() *Raid {
	out := *r
	out.Participants = append([]Participant(nil), r.Participants...)
	out.LootEligibleRemoved = append([]Participant(nil), r.LootEligibleRemoved...)
	return &out
}
