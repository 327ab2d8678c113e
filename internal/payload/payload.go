package payload

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"time"
)

// Charset is the set of printable symbols payload bytes are drawn from.
const Charset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ!@#$%^&*()"

// Generate returns size bytes drawn uniformly from Charset using rng.
// A non-positive size yields an empty buffer. rng must be non-nil; each
// worker supplies its own from NewRand.
func Generate(size int, rng *rand.Rand) []byte {
	if size <= 0 {
		return []byte{}
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = Charset[rng.IntN(len(Charset))]
	}
	return buf
}

// NewRand returns a ChaCha8 generator seeded from crypto/rand with the
// worker index folded into the seed.
func NewRand(worker int) *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		binary.LittleEndian.PutUint64(seed[0:8], uint64(time.Now().UnixNano()))
	}
	tail := binary.LittleEndian.Uint64(seed[24:32])
	binary.LittleEndian.PutUint64(seed[24:32], tail^uint64(worker)*0x9e3779b97f4a7c15)
	return rand.New(rand.NewChaCha8(seed))
}
