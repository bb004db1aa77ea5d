// Package scaling adjusts the monster's health pool as the party changes size.
package scaling

import "github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"

// Scaling constants.
const (
	// Party sizes above this threshold grow the monster's health pool.
	freePartySize = 5
	// Hearts added per participant above the threshold.
	heartsPerExtra = 2
)

// ScaledMax returns the monster's max hearts for a party of the given
// size: the base pool through five participants, plus two hearts for each
// participant above that.
func ScaledMax(base, partySize int) int {
	if partySize <= freePartySize {
		return base
	}
	return base + heartsPerExtra*(partySize-freePartySize)
}

// Rescale recomputes the monster's health bounds for the raid's current
// party size. Damage already dealt is preserved regardless of the
// party-size change. Invoked after every successful join and leave; never
// mid-turn.
func Rescale(r *model.Raid) {
	dealt := r.Monster.MaxHearts - r.Monster.CurrentHearts
	newMax := ScaledMax(r.Analytics.BaseMonsterHearts, len(r.Participants))
	newCur := newMax - dealt
	if newCur < 0 {
		newCur = 0
	}
	if newCur > newMax {
		newCur = newMax
	}
	r.Monster.MaxHearts = newMax
	r.Monster.CurrentHearts = newCur
}
