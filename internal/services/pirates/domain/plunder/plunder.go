// Package plunder computes what an attacker actually receives from a target,
// either through a negotiated offer or by looting after a won battle.
//
// Deducted amounts never reach the attacker: they are routed to a neutral
// sink (the treasury). Neither mode owns state; the caller moves the assets
// and records the loot commitment.
package plunder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"

	"golang.org/x/crypto/sha3"

	"github.com/cryptopia-com/cryptopia-world/internal/random"
)

// Kind distinguishes fungible resources from unique items.
type Kind int

const (
	// KindFungible items carry an amount.
	KindFungible Kind = iota
	// KindNonFungible items carry a token id and always move as a whole.
	KindNonFungible
)

func (k Kind) String() string {
	if k == KindNonFungible {
		return "non_fungible"
	}
	return "fungible"
}

// Item is one inventory slot offered or looted.
type Item struct {
	Asset   string
	Kind    Kind
	Slot    uint32
	Amount  uint64
	TokenID uint64
}

// Disposition records where a slot ended up.
type Disposition int

const (
	// DispositionTransferred means the full amount reached the attacker.
	DispositionTransferred Disposition = iota
	// DispositionReduced means part of the amount was diverted to the sink.
	DispositionReduced
	// DispositionSunk means the slot dropped in the ocean: nothing reached
	// the attacker and the item went to the sink.
	DispositionSunk
	// DispositionRetained means the item stayed with the target.
	DispositionRetained
)

func (d Disposition) String() string {
	switch d {
	case DispositionTransferred:
		return "transferred"
	case DispositionReduced:
		return "reduced"
	case DispositionSunk:
		return "sunk"
	case DispositionRetained:
		return "retained"
	default:
		return "unknown"
	}
}

// SlotOutcome is the settlement of one item.
type SlotOutcome struct {
	Item        Item
	Score       uint64
	Disposition Disposition
	Transferred uint64
	Diverted    uint64
}

// Settlement is the adjusted transfer list for a whole offer or loot.
type Settlement struct {
	Slots []SlotOutcome
}

// Transfers returns the items that reach the attacker, with adjusted amounts.
func (s Settlement) Transfers() []Item {
	var items []Item
	for _, slot := range s.Slots {
		if slot.Transferred == 0 {
			continue
		}
		item := slot.Item
		item.Amount = slot.Transferred
		items = append(items, item)
	}
	return items
}

// Diversions returns the items routed to the sink, with diverted amounts.
func (s Settlement) Diversions() []Item {
	var items []Item
	for _, slot := range s.Slots {
		if slot.Diverted == 0 {
			continue
		}
		item := slot.Item
		item.Amount = slot.Diverted
		items = append(items, item)
	}
	return items
}

// TotalDiverted sums every amount routed to the sink.
func (s Settlement) TotalDiverted() uint64 {
	var total uint64
	for _, slot := range s.Slots {
		total += slot.Diverted
	}
	return total
}

// Params tunes both settlement modes.
type Params struct {
	MaxCharisma        uint64
	BaseDeduction      uint64
	DeductionPrecision uint64
	LuckScale          uint64
	// Threshold is the loot score under which unique items change hands.
	// Fungible deduction reaches BaseDeduction once Precision-score is at
	// least Threshold.
	Threshold uint64
}

// DefaultParams returns the production tuning.
func DefaultParams() Params {
	return Params{
		MaxCharisma:        100,
		BaseDeduction:      50,
		DeductionPrecision: 100,
		LuckScale:          50,
		Threshold:          random.Precision / 2,
	}
}

// ErrInvalidItems indicates an empty, malformed or duplicated item list.
var ErrInvalidItems = errors.New("invalid plunder items")

// Validate checks items and returns them normalized (unique items always
// carry an amount of 1).
func Validate(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items", ErrInvalidItems)
	}
	seen := make(map[uint32]struct{}, len(items))
	normalized := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Asset == "" {
			return nil, fmt.Errorf("%w: slot %d has no asset", ErrInvalidItems, item.Slot)
		}
		if _, ok := seen[item.Slot]; ok {
			return nil, fmt.Errorf("%w: slot %d listed twice", ErrInvalidItems, item.Slot)
		}
		seen[item.Slot] = struct{}{}
		switch item.Kind {
		case KindFungible:
			if item.Amount == 0 {
				return nil, fmt.Errorf("%w: slot %d has no amount", ErrInvalidItems, item.Slot)
			}
		case KindNonFungible:
			item.Amount = 1
		default:
			return nil, fmt.Errorf("%w: slot %d has unknown kind", ErrInvalidItems, item.Slot)
		}
		normalized = append(normalized, item)
	}
	return normalized, nil
}

// Negotiate settles an offer the attacker accepted. Charisma below the
// maximum shrinks what the attacker receives from each fungible item; the
// target still gives up the full amount.
func Negotiate(params Params, items []Item, charisma uint64) (Settlement, error) {
	items, err := Validate(items)
	if err != nil {
		return Settlement{}, err
	}

	settlement := Settlement{Slots: make([]SlotOutcome, 0, len(items))}
	for _, item := range items {
		outcome := SlotOutcome{Item: item, Disposition: DispositionTransferred, Transferred: item.Amount}
		if item.Kind == KindFungible && charisma < params.MaxCharisma {
			deduction := min(
				mulDiv(item.Amount, params.BaseDeduction*(params.MaxCharisma+1-charisma), params.MaxCharisma*params.DeductionPrecision),
				maxDeduction(params, item.Amount),
			)
			outcome = reduce(outcome, deduction)
		}
		settlement.Slots = append(settlement.Slots, outcome)
	}
	return settlement, nil
}

// Loot settles a forced plunder. Each slot draws its own score, raised by the
// target's luck; a score past random.Precision sinks the slot, which lets a
// lucky target deny specific items to the attacker entirely.
func Loot(params Params, items []Item, luck uint64, roller random.Roller) (Settlement, error) {
	items, err := Validate(items)
	if err != nil {
		return Settlement{}, err
	}

	settlement := Settlement{Slots: make([]SlotOutcome, 0, len(items))}
	for i, item := range items {
		score := roller.ValueAt(i) + luck*params.LuckScale
		outcome := SlotOutcome{Item: item, Score: score}

		switch {
		case score > random.Precision:
			outcome.Disposition = DispositionSunk
			outcome.Diverted = item.Amount
		case item.Kind == KindNonFungible:
			if score < params.Threshold {
				outcome.Disposition = DispositionTransferred
				outcome.Transferred = item.Amount
			} else {
				outcome.Disposition = DispositionRetained
			}
		default:
			outcome.Disposition = DispositionTransferred
			outcome.Transferred = item.Amount
			deduction := min(
				mulDiv(item.Amount, params.BaseDeduction*(random.Precision-score), params.Threshold*params.DeductionPrecision),
				maxDeduction(params, item.Amount),
			)
			outcome = reduce(outcome, deduction)
		}
		settlement.Slots = append(settlement.Slots, outcome)
	}
	return settlement, nil
}

// DeductionRatio returns the negotiated deduction for charisma in
// DeductionPrecision units, for display.
func DeductionRatio(params Params, charisma uint64) uint64 {
	if charisma >= params.MaxCharisma {
		return 0
	}
	return min(
		params.BaseDeduction*(params.MaxCharisma+1-charisma)/params.MaxCharisma,
		params.BaseDeduction,
	)
}

// Commitment hashes the exact items taken from target by attacker so the
// loot cannot be disputed later.
func Commitment(attacker, target string, items []Item) []byte {
	h := sha3.NewLegacyKeccak256()
	writeString(h, attacker)
	writeString(h, target)
	var buf [8]byte
	for _, item := range items {
		writeString(h, item.Asset)
		binary.BigEndian.PutUint64(buf[:], item.Amount)
		h.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], item.TokenID)
		h.Write(buf[:])
	}
	return h.Sum(nil)
}

func writeString(h io.Writer, value string) {
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(value)))
	h.Write(size[:])
	h.Write([]byte(value))
}

func maxDeduction(params Params, amount uint64) uint64 {
	return mulDiv(amount, params.BaseDeduction, params.DeductionPrecision)
}

// mulDiv returns a*b/c on a 128-bit intermediate. A quotient that does not
// fit saturates at math.MaxUint64; callers cap it against a smaller bound.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c)
	return q
}

func reduce(outcome SlotOutcome, deduction uint64) SlotOutcome {
	if deduction == 0 {
		return outcome
	}
	outcome.Disposition = DispositionReduced
	outcome.Transferred -= deduction
	outcome.Diverted += deduction
	return outcome
}
