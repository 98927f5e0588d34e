// Package battle resolves quick battles between two ships.
//
// Resolution is a pure function of the combatants, the tile safety rating and
// two random draws: each side's effective attack is scaled by the defender's
// defence, the area safety (read with opposite polarity by attackers and
// defenders) and a ±10% effectiveness swing. The side that needs fewer turns
// to sink the other wins; ties go to side 1, the initiator of the battle.
package battle

import (
	"errors"
	"math"
	"math/bits"

	"github.com/cryptopia-com/cryptopia-world/internal/random"
)

// Side identifies a combatant in a battle.
type Side int

const (
	// SideUnspecified is the zero value.
	SideUnspecified Side = iota
	// Side1 is the battle initiator.
	Side1
	// Side2 is the responder.
	Side2
)

func (s Side) String() string {
	switch s {
	case Side1:
		return "side_1"
	case Side2:
		return "side_2"
	default:
		return "unspecified"
	}
}

// Mode selects how health is read before resolving.
type Mode int

const (
	// ModeLiteral uses the combatants' health and damage as given.
	ModeLiteral Mode = iota
	// ModeFixedRange rescales health to 0..FixedRangeHealth first. Kept for
	// ships whose stats were recorded by the legacy calculator.
	ModeFixedRange
)

const (
	// MaxSafety is the highest tile safety rating.
	MaxSafety = 100
	// FixedRangeHealth is the health ceiling used by ModeFixedRange.
	FixedRangeHealth = 250

	effectivenessBase  = 90
	effectivenessSwing = 20
	scale              = 100
)

// Random indexes drawn per battle; no two draws share an index.
const (
	rollIndexSide1 = 0
	rollIndexSide2 = 1
)

// ErrInvalidCombatant indicates a combatant has non-positive attack, defence
// or health, or more damage than health.
var ErrInvalidCombatant = errors.New("combatant must have positive attack, defence and health and damage within health")

// ErrInvalidSafety indicates a tile safety rating outside 0..100.
var ErrInvalidSafety = errors.New("tile safety must be between 0 and 100")

// Combatant carries the combat stats of one ship.
type Combatant struct {
	Attack  uint64
	Defence uint64
	Health  uint64
	// Damage is the damage already taken before this battle.
	Damage uint64
	// TileSafetyInverted makes the side benefit from low area safety.
	TileSafetyInverted bool
}

// Remaining returns the health left before the battle.
func (c Combatant) Remaining() uint64 {
	if c.Damage >= c.Health {
		return 0
	}
	return c.Health - c.Damage
}

func (c Combatant) validate() error {
	if c.Attack == 0 || c.Defence == 0 || c.Health == 0 || c.Damage > c.Health {
		return ErrInvalidCombatant
	}
	return nil
}

// SideOutcome is the computed result for one side.
type SideOutcome struct {
	EffectiveAttack uint64
	TurnsUntilWin   uint64
	DamageTaken     uint64
}

// Outcome is the result of a battle. It is never persisted.
type Outcome struct {
	Side1  SideOutcome
	Side2  SideOutcome
	Victor Side
}

// Request describes a battle to resolve.
type Request struct {
	Side1      Combatant
	Side2      Combatant
	TileSafety uint64
	Mode       Mode
}

// Resolve computes the outcome of a battle using roller for the two
// effectiveness draws.
func Resolve(request Request, roller random.Roller) (Outcome, error) {
	if err := request.Side1.validate(); err != nil {
		return Outcome{}, err
	}
	if err := request.Side2.validate(); err != nil {
		return Outcome{}, err
	}
	if request.TileSafety > MaxSafety {
		return Outcome{}, ErrInvalidSafety
	}

	side1, side2 := request.Side1, request.Side2
	if request.Mode == ModeFixedRange {
		side1, side2 = toFixedRange(side1), toFixedRange(side2)
	}

	eff1 := EffectiveAttack(side1.Attack, side2.Defence, SafetyFactor(request.TileSafety, side1.TileSafetyInverted), Effectiveness(roller.ValueAt(rollIndexSide1)))
	eff2 := EffectiveAttack(side2.Attack, side1.Defence, SafetyFactor(request.TileSafety, side2.TileSafetyInverted), Effectiveness(roller.ValueAt(rollIndexSide2)))

	remaining1, remaining2 := side1.Remaining(), side2.Remaining()
	turns1 := TurnsUntilWin(remaining2, eff1)
	turns2 := TurnsUntilWin(remaining1, eff2)

	outcome := Outcome{
		Side1: SideOutcome{EffectiveAttack: eff1, TurnsUntilWin: turns1},
		Side2: SideOutcome{EffectiveAttack: eff2, TurnsUntilWin: turns2},
	}

	// Ties favor the initiator.
	if turns1 <= turns2 {
		outcome.Victor = Side1
		outcome.Side2.DamageTaken = remaining2
		outcome.Side1.DamageTaken = min(saturatingMul(turns1, eff2), remaining1)
	} else {
		outcome.Victor = Side2
		outcome.Side1.DamageTaken = remaining1
		outcome.Side2.DamageTaken = min(saturatingMul(turns2, eff1), remaining2)
	}
	return outcome, nil
}

// SafetyFactor returns the tile safety as read by one side.
func SafetyFactor(tileSafety uint64, inverted bool) uint64 {
	if tileSafety > MaxSafety {
		tileSafety = MaxSafety
	}
	if inverted {
		return MaxSafety - tileSafety
	}
	return tileSafety
}

// Effectiveness maps a roll in [0, Precision) to a percentage in [90, 110).
func Effectiveness(roll uint64) uint64 {
	return effectivenessBase + effectivenessSwing*roll/random.Precision
}

// EffectiveAttack scales attack by the opponent's defence, the safety factor
// and the effectiveness percentage. The result is at least 1 so the number of
// turns is always defined, even on a tile whose safety nullifies a side.
// The product is kept in 128 bits; a result past uint64 saturates.
func EffectiveAttack(attack, opponentDefence, safetyFactor, effectiveness uint64) uint64 {
	hi, lo := bits.Mul64(attack, safetyFactor*effectiveness)
	// divide by defence first, then by scale: floor(floor(x/d)/s) == floor(x/(d*s))
	qhi := hi / opponentDefence
	qlo, _ := bits.Div64(hi%opponentDefence, lo, opponentDefence)
	if qhi >= scale {
		return math.MaxUint64
	}
	value, _ := bits.Div64(qhi, qlo, scale)
	if value == 0 {
		return 1
	}
	return value
}

// TurnsUntilWin returns the ceiling of remaining/effectiveAttack.
func TurnsUntilWin(remaining, effectiveAttack uint64) uint64 {
	if effectiveAttack == 0 {
		effectiveAttack = 1
	}
	turns := remaining / effectiveAttack
	if remaining%effectiveAttack != 0 {
		turns++
	}
	return turns
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

func toFixedRange(c Combatant) Combatant {
	hi, lo := bits.Mul64(c.Damage, FixedRangeHealth)
	// Damage <= Health, so the quotient fits.
	c.Damage, _ = bits.Div64(hi, lo, c.Health)
	c.Health = FixedRangeHealth
	return c
}
