package model

import "time"

// BlightImmunityStage is the blight stage at which a character becomes
// immune to raid encounters and may no longer participate.
const BlightImmunityStage = 4

// Character is a player character. Character state is a separate resource
// from the raid record with its own store operations, so a raid-level
// retry never double-applies health changes.
type Character struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Village     string    `json:"village"`
	Hearts      int       `json:"hearts"`
	MaxHearts   int       `json:"max_hearts"`
	Attack      int       `json:"attack"`
	Defense     int       `json:"defense"`
	BlightStage int       `json:"blight_stage"`
	Mod         bool      `json:"mod"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KO reports whether the character is knocked out (zero hearts).
func (c Character) KO() bool {
	return c.Hearts <= 0
}

// BlightImmune reports whether the character's blight stage locks them out
// of raid encounters.
func (c Character) BlightImmune() bool {
	return c.BlightStage >= BlightImmunityStage
}

// RaidCapability returns the participant capability the character joins with.
func (c Character) RaidCapability() Capability {
	if c.Mod {
		return CapabilityExempt
	}
	return CapabilityStandard
}

// ApplyDamage subtracts hearts, clamping at zero.
func (c *Character) ApplyDamage(hearts int) {
	if hearts <= 0 {
		return
	}
	c.Hearts -= hearts
	if c.Hearts < 0 {
		c.Hearts = 0
	}
}
