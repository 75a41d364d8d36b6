package fetch

import "fmt"

// Tier is a catalog quality tier. Tiers are ranked by fidelity, not by
// numeric value: 5 < 6 < 7 < 27.
type Tier int

const (
	TierMP3     Tier = 5
	TierCD      Tier = 6
	TierHiRes   Tier = 7
	TierHiRes96 Tier = 27
)

// tierOrder lists tiers from highest fidelity to lowest; fallback walks
// this order starting below the requested tier.
var tierOrder = []Tier{TierHiRes96, TierHiRes, TierCD, TierMP3}

func (t Tier) Valid() bool {
	for _, known := range tierOrder {
		if t == known {
			return true
		}
	}
	return false
}

func (t Tier) String() string {
	switch t {
	case TierMP3:
		return "5 - MP3 320"
	case TierCD:
		return "6 - 16 bit, 44.1kHz"
	case TierHiRes:
		return "7 - 24 bit, <96kHz"
	case TierHiRes96:
		return "27 - 24 bit, >96kHz"
	default:
		return fmt.Sprintf("unknown tier %d", int(t))
	}
}

// FallbackOrder returns the requested tier followed by every lower tier
// in descending fidelity order.
func FallbackOrder(requested Tier) []Tier {
	order := []Tier{}
	seen := false
	for _, tier := range tierOrder {
		if tier == requested {
			seen = true
		}
		if seen {
			order = append(order, tier)
		}
	}
	if !seen {
		// Unknown tier: attempt it verbatim, then everything we know.
		return append([]Tier{requested}, tierOrder...)
	}
	return order
}

func ParseTier(raw int) (Tier, error) {
	tier := Tier(raw)
	if !tier.Valid() {
		return 0, fmt.Errorf("unknown quality tier %d (expected 5, 6, 7 or 27)", raw)
	}
	return tier, nil
}
