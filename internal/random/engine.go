package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Precision is the exclusive upper bound of every derived value; 10 000
// represents 0–100.00%.
const Precision uint64 = 10_000

// SeedSize is the byte length of a Seed.
const SeedSize = 32

// Seed is a call-unique value from which indexed sub-values are derived.
type Seed [SeedSize]byte

// Roller yields one value in [0, Precision) per index.
type Roller interface {
	ValueAt(index int) uint64
}

// EntropySource supplies fresh environmental entropy, e.g. the latest world
// tick hash.
type EntropySource interface {
	Entropy() ([]byte, error)
}

// CryptoSource reads entropy from crypto/rand.
type CryptoSource struct{}

// Entropy returns 32 bytes from crypto/rand, prefixed with a NewSeed draw.
func (CryptoSource) Entropy() ([]byte, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8+SeedSize)
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	if _, err := crand.Read(buf[8:]); err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return buf, nil
}

// FixedSource returns the same entropy on every call.
type FixedSource []byte

// Entropy returns a copy of the fixed bytes.
func (s FixedSource) Entropy() ([]byte, error) {
	return append([]byte(nil), s...), nil
}

// Engine produces seeds. It is safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	source      EntropySource
	accumulator Seed
}

// NewEngine builds an engine over source; a nil source uses CryptoSource.
func NewEngine(source EntropySource) *Engine {
	if source == nil {
		source = CryptoSource{}
	}
	return &Engine{source: source}
}

// GenerateSeed derives a fresh seed for caller and advances the accumulator,
// so consecutive calls diverge even when the entropy source repeats.
func (e *Engine) GenerateSeed(caller string) (Seed, error) {
	entropy, err := e.source.Entropy()
	if err != nil {
		return Seed{}, fmt.Errorf("generate seed: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	h := sha3.NewLegacyKeccak256()
	h.Write(entropy)
	h.Write([]byte(caller))
	h.Write(e.accumulator[:])

	var seed Seed
	copy(seed[:], h.Sum(nil))
	e.accumulator = seed
	return seed, nil
}

// Roll returns a fresh seed for caller as a Roller.
func (e *Engine) Roll(caller string) (Roller, error) {
	seed, err := e.GenerateSeed(caller)
	if err != nil {
		return nil, err
	}
	return seed, nil
}

// ValueAt derives the sub-value for index.
func (s Seed) ValueAt(index int) uint64 {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(index))

	h := sha3.NewLegacyKeccak256()
	h.Write(s[:])
	h.Write(idx[:])
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[len(sum)-8:]) % Precision
}

// ValuePairAt derives the sub-values for i and j.
func (s Seed) ValuePairAt(i, j int) (uint64, uint64) {
	return s.ValueAt(i), s.ValueAt(j)
}

// Fixed is a Roller over preset values; index i yields Fixed[i mod len].
// An empty Fixed yields 0.
type Fixed []uint64

// ValueAt returns the preset value for index reduced into [0, Precision).
func (f Fixed) ValueAt(index int) uint64 {
	if len(f) == 0 || index < 0 {
		return 0
	}
	return f[index%len(f)] % Precision
}
