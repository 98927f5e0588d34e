package confrontation

import (
	"fmt"
	"time"
)

// Rules are the tunable timings and costs of confrontations.
type Rules struct {
	// ResponseTimeout is how long the target has to respond.
	ResponseTimeout time.Duration
	// ExpirationWindow extends past the deadline; within it the attacker may
	// force a battle.
	ExpirationWindow time.Duration
	PlunderTimeout   time.Duration
	// BountyWindow keeps the attacker frozen after looting so bounty hunters
	// can respond.
	BountyWindow time.Duration

	InterceptFuel uint64
	EscapeFuel    uint64

	AttackerWinXP        uint64
	AttackerWinAlignment int
	TargetWinXP          uint64
	TargetWinAlignment   int
}

// DefaultRules returns the production rules.
func DefaultRules() Rules {
	return Rules{
		ResponseTimeout:      10 * time.Minute,
		ExpirationWindow:     10 * time.Minute,
		PlunderTimeout:       10 * time.Minute,
		BountyWindow:         30 * time.Minute,
		InterceptFuel:        25,
		EscapeFuel:           25,
		AttackerWinXP:        100,
		AttackerWinAlignment: -1,
		TargetWinXP:          100,
		TargetWinAlignment:   1,
	}
}

// Validate rejects rules that would break the deadline ordering.
func (r Rules) Validate() error {
	if r.ResponseTimeout <= 0 {
		return fmt.Errorf("response timeout must be positive")
	}
	if r.ExpirationWindow <= 0 {
		return fmt.Errorf("expiration window must be positive")
	}
	if r.PlunderTimeout <= 0 {
		return fmt.Errorf("plunder timeout must be positive")
	}
	if r.BountyWindow < 0 {
		return fmt.Errorf("bounty window must not be negative")
	}
	return nil
}

func (r Rules) interceptFuel(routeIndex *int) uint64 {
	if routeIndex == nil {
		return r.InterceptFuel
	}
	return r.InterceptFuel * uint64(*routeIndex+1)
}
