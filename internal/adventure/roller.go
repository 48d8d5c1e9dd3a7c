package adventure

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Roller is the engine's randomness seam. *math/rand.Rand satisfies it;
// tests inject fixed rollers to pin outcomes.
type Roller interface {
	Float64() float64
	Intn(n int) int
}

// NewRoller seeds a pseudo-random source from crypto/rand. Callers only
// need statistical fairness, not determinism, so a bad entropy read falls
// back to a fixed seed rather than failing.
func NewRoller() Roller {
	var b [8]byte
	seed := int64(1)
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}
