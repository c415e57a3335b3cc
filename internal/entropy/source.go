// Package entropy supplies the pseudo-random draws that drive meme mutation
// and breakthrough checks.
//
// Draws are derived by hashing observable simulation context: the operation
// timestamp, the caller identity, a per-call seed, and either the rolling
// journal digest (entanglement draws) or the subject character and experience
// hash (consciousness draws). This makes draws reproducible and auditable,
// and it also makes them predictable: anyone who can read the journal tail
// and estimate the clock can compute the next draw. That is inherited
// behavior, kept intact on purpose. Do not reach for this package where real
// unpredictability matters; use crypto/rand directly.
package entropy

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Context carries the environment inputs a single draw is derived from.
//
// Entanglement draws fill Time, Caller, CallSeed and ChainDigest.
// Consciousness draws fill Time, Caller, CallSeed, CharacterID and Salt
// (the SHA-256 of the experience text) instead of the chain digest.
// Nonce distinguishes successive draws within one operation.
type Context struct {
	Time        time.Time
	Caller      string
	CallSeed    uint64
	ChainDigest []byte
	CharacterID uint64
	Salt        []byte
	Nonce       uint64
}

// Source yields pseudo-random values for simulation decisions.
// Implementations must be safe for concurrent use.
type Source interface {
	Draw(c Context) uint64
}

// ChainSource is the production Source: a SHA-256 over the draw context.
// Variable-length inputs are pre-hashed to fixed-width digests before
// folding, so field boundaries stay unambiguous.
type ChainSource struct{}

// NewChainSource returns the production chain-context source.
func NewChainSource() *ChainSource {
	return &ChainSource{}
}

// Draw derives a value from the context. The same context always yields the
// same value.
func (s *ChainSource) Draw(c Context) uint64 {
	h := sha256.New()

	h.Write(packUint64(uint64(c.Time.UnixNano())))

	callerDigest := sha256.Sum256([]byte(c.Caller))
	h.Write(callerDigest[:])

	h.Write(packUint64(c.CallSeed))

	if len(c.ChainDigest) > 0 {
		h.Write(c.ChainDigest)
	}

	if len(c.Salt) > 0 {
		h.Write(packUint64(c.CharacterID))
		h.Write(c.Salt)
	}

	h.Write(packUint64(c.Nonce))

	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// ExperienceSalt hashes an experience text for use as a draw salt.
func ExperienceSalt(experience string) []byte {
	sum := sha256.Sum256([]byte(experience))
	return sum[:]
}

// NewCallSeed generates a per-call seed using crypto/rand.
// Callers that receive a seed from their environment should pass that
// through instead; this helper exists for entry points that have none.
func NewCallSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}

// Fixed is a scripted Source for tests. Draws return the queued values in
// order; once the script is exhausted, draws repeat the final value.
type Fixed struct {
	mu     sync.Mutex
	values []uint64
	idx    int
}

// NewFixed returns a Source that replays the given values.
// At least one value must be supplied.
func NewFixed(values ...uint64) *Fixed {
	if len(values) == 0 {
		values = []uint64{0}
	}
	return &Fixed{values: values}
}

// Draw returns the next scripted value, ignoring the context.
func (f *Fixed) Draw(Context) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := f.values[f.idx]
	if f.idx < len(f.values)-1 {
		f.idx++
	}
	return v
}

// Seeded is a deterministic Source backed by math/rand.
// Scripted scenario runs use it to get reproducible outcomes from a single
// seed without involving chain context.
type Seeded struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeeded returns a Source that draws from a seeded generator.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewSource(seed))}
}

// Draw returns the generator's next value, ignoring the context.
func (s *Seeded) Draw(Context) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Uint64()
}

// packUint64 encodes a value big-endian for hash folding.
func packUint64(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
