// Package escape resolves a target's attempt to flee from its attacker.
package escape

import "github.com/cryptopia-com/cryptopia-world/internal/random"

// rollIndex is the only draw an escape attempt makes.
const rollIndex = 0

// Params tunes the escape calculation. All scores are in random.Precision
// units.
type Params struct {
	// Threshold is the minimum score for a successful escape.
	Threshold uint64
	// MobilityScale converts one point of mobility difference into score.
	MobilityScale uint64
	// MaxMobilityInfluence caps the mobility term.
	MaxMobilityInfluence uint64
	// LuckScale converts one point of luck difference into score.
	LuckScale uint64
	// MaxLuckInfluence caps the luck term; kept well below the mobility cap.
	MaxLuckInfluence uint64
}

// DefaultParams returns the production tuning: 50% threshold, mobility worth
// up to 25% and luck up to 10%.
func DefaultParams() Params {
	return Params{
		Threshold:            random.Precision / 2,
		MobilityScale:        50,
		MaxMobilityInfluence: 2_500,
		LuckScale:            20,
		MaxLuckInfluence:     1_000,
	}
}

// Ship carries the stats that matter for an escape.
type Ship struct {
	Mobility uint64
	Luck     uint64
}

// Result is the outcome of an escape attempt.
type Result struct {
	Score   uint64
	Success bool
}

// Resolve scores an escape of fleeing from pursuing.
func Resolve(params Params, fleeing, pursuing Ship, roller random.Roller) Result {
	score := roller.ValueAt(rollIndex)
	score = adjust(score, fleeing.Mobility, pursuing.Mobility, params.MobilityScale, params.MaxMobilityInfluence)
	score = adjust(score, fleeing.Luck, pursuing.Luck, params.LuckScale, params.MaxLuckInfluence)
	return Result{Score: score, Success: score >= params.Threshold}
}

// adjust adds the capped advantage of the fleeing ship or subtracts the capped
// advantage of the pursuer, never going below zero.
func adjust(score, fleeing, pursuing, scale, ceiling uint64) uint64 {
	switch {
	case fleeing > pursuing:
		return score + min((fleeing-pursuing)*scale, ceiling)
	case pursuing > fleeing:
		penalty := min((pursuing-fleeing)*scale, ceiling)
		if penalty >= score {
			return 0
		}
		return score - penalty
	default:
		return score
	}
}
