package confrontation

import (
	"time"
)

// Outcome records how a confrontation concluded.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeNegotiated  Outcome = "negotiated"
	OutcomeEscaped     Outcome = "escaped"
	OutcomeTargetWon   Outcome = "target_won"
	OutcomeAttackerWon Outcome = "attacker_won"
)

// Confrontation is the encounter record of one target. The row is reused when
// the target is intercepted again.
type Confrontation struct {
	Attacker string
	Target   string
	// Location is the tile where the interception happened.
	Location int
	// Arrival identifies the intercepted voyage leg.
	Arrival         time.Time
	Deadline        time.Time
	Expiration      time.Time
	EscapeAttempted bool
	CreatedAt       time.Time
	ConcludedAt     *time.Time
	Outcome         Outcome
}

// Active reports whether the confrontation still binds both parties at now.
func (c Confrontation) Active(now time.Time) bool {
	return c.ConcludedAt == nil && c.Expiration.After(now)
}

// EffectiveExpiration returns the expiration, or the zero time once
// concluded.
func (c Confrontation) EffectiveExpiration() time.Time {
	if c.ConcludedAt != nil {
		return time.Time{}
	}
	return c.Expiration
}

// State derives the lifecycle state at now.
func (c Confrontation) State(now time.Time) State {
	switch {
	case !c.Active(now):
		return StateConcluded
	case now.After(c.Deadline):
		return StateExpiredPendingBattle
	default:
		return StateActive
	}
}

func (c Confrontation) conclude(now time.Time, outcome Outcome) Confrontation {
	concluded := now
	c.ConcludedAt = &concluded
	c.Outcome = outcome
	return c
}

// State is the lazily derived lifecycle state of a confrontation.
type State string

const (
	StateNone                 State = "none"
	StateActive               State = "active"
	StateExpiredPendingBattle State = "expired_pending_battle"
	StateConcluded            State = "concluded"
)

// Plunder is an attacker's right to loot a target after winning a battle.
type Plunder struct {
	Attacker  string
	Target    string
	Deadline  time.Time
	LootHash  []byte
	LootedAt  *time.Time
	CreatedAt time.Time
}

// Available reports whether the plunder can still be executed at now.
func (p Plunder) Available(now time.Time) bool {
	return p.LootedAt == nil && !now.After(p.Deadline)
}

// State derives the plunder state at now.
func (p Plunder) State(now time.Time) PlunderState {
	switch {
	case p.LootedAt != nil:
		return PlunderLooted
	case now.After(p.Deadline):
		return PlunderLapsed
	default:
		return PlunderLootAvailable
	}
}

// PlunderState is the lazily derived state of a plunder right.
type PlunderState string

const (
	PlunderNone          PlunderState = "none"
	PlunderLootAvailable PlunderState = "loot_available"
	PlunderLooted        PlunderState = "looted"
	PlunderLapsed        PlunderState = "lapsed"
)

// Nonce is a single-use authorization nonce scoped to its signing subject.
type Nonce struct {
	Subject string
	Value   string
}

// Change is everything one transition persists. The store applies it
// atomically.
type Change struct {
	Confrontation *Confrontation
	Plunder       *Plunder
	Nonce         *Nonce
}

// View is a read-only snapshot of a target's confrontation.
type View struct {
	State         State
	Confrontation *Confrontation
}

// PlunderView is a read-only snapshot of a plunder right.
type PlunderView struct {
	State   PlunderState
	Plunder *Plunder
}
