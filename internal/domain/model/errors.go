package model

import (
	"errors"
	"fmt"
)

// Reason identifies why a raid action was rejected.
type Reason string

// Rejection reasons. Each maps to a hard, side-effect-free failure.
const (
	ReasonNotFound         Reason = "not_found"
	ReasonNotActive        Reason = "not_active"
	ReasonWrongVillage     Reason = "wrong_village"
	ReasonCapExceeded      Reason = "cap_exceeded"
	ReasonDuplicateJoin    Reason = "duplicate_join"
	ReasonSoloKO           Reason = "solo_ko"
	ReasonExpedition       Reason = "expedition_membership"
	ReasonBlightImmune     Reason = "blight_immune"
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonUnknownCharacter Reason = "unknown_character"
)

// ValidationError rejects a raid action before any state is mutated.
type ValidationError struct {
	Reason Reason
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.Msg == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
}

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(reason Reason, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// AsValidation extracts a ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
