// Package rand generates the short request ids used to correlate RPC
// responses with their requests.
package rand

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	charsetLen = len(charset)

	mu  sync.Mutex
	rng = seededRNG()
)

func seededRNG() *rand.Rand {
	seed := make([]byte, 16)
	if _, err := cryptorand.Read(seed); err != nil {
		panic("unreachable")
	}
	//nolint:gosec // request ids are correlation tokens, not secrets
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

// NewRequestID returns a random base62 string of the given length.
func NewRequestID(length int) string {
	buf := make([]byte, length)
	mu.Lock()
	for i := range buf {
		buf[i] = charset[rng.IntN(charsetLen)]
	}
	mu.Unlock()
	return string(buf)
}
