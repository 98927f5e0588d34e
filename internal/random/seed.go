// Package random provides the pseudo-random primitives shared by the
// confrontation resolvers.
//
// Seeds are derived from an injectable entropy source, the caller identity and
// a rolling accumulator, then hashed with keccak-256. Sub-values are derived
// from a seed by index, so a single seed feeds every draw of one transition
// and fixing the entropy source in tests yields fixed outputs.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
