package combat

// Penalty cap and tier knee for the pre-roll handicap.
const (
	maxPenalty       = 15.0
	penaltyTierStart = 5
)

// Penalty returns the pre-roll handicap for a party of the given size
// fighting a monster of the given tier: one point per extra party member
// plus half a point per tier above five, capped at 15. Larger, higher-tier
// fights leave less room for a clean hit.
func Penalty(partySize, tier int) float64 {
	p := float64(partySize - 1)
	if p < 0 {
		p = 0
	}
	if tier > penaltyTierStart {
		p += 0.5 * float64(tier-penaltyTierStart)
	}
	if p > maxPenalty {
		p = maxPenalty
	}
	return p
}

// AdjustRoll subtracts the party penalty from a raw d100 roll. Fractional
// penalties round the result down; the adjusted roll never drops below 1.
func AdjustRoll(roll, partySize, tier int) int {
	adjusted := int(float64(roll) - Penalty(partySize, tier))
	if adjusted < 1 {
		adjusted = 1
	}
	return adjusted
}
