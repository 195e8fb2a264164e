package bitio

import "github.com/minio/sha256-simd"

// Seedable is the PRNG surface HashableBufferBitWriter needs: it can be
// reseeded from a 32-byte digest, and asked for 32 fresh bytes to become
// the next rolling chain state. internal/prng.PRNG implements this.
type Seedable interface {
	SetSeedFromRandom(seed [32]byte)
	RandomBytes(n int) []byte
}

// HashableBufferBitWriter is a BufferBitWriter that can additionally
// produce Fiat-Shamir challenges at any point via HashSeed, as if only the
// bits written so far (including a not-yet-full trailing byte) had been
// hashed. Each call's digest depends on the entire prior transcript through
// a 32-byte rolling chain state, per spec.md §4.C / §9 ("the rolling
// transcript must hash all bits seen so far, including the partial final
// byte and a bit-count").
type HashableBufferBitWriter struct {
	w            *BufferBitWriter
	chainState   []byte // nil before the first HashSeed call
	consumedUpTo int    // index into w.bytes already folded into chainState
}

func NewHashableBufferBitWriter() *HashableBufferBitWriter {
	return &HashableBufferBitWriter{w: NewBufferBitWriter()}
}

func (h *HashableBufferBitWriter) PutBit(b bool) { h.w.PutBit(b) }

func (h *HashableBufferBitWriter) Flush() []byte { return h.w.Flush() }

// Drain flushes and returns the written bytes, matching BufferBitWriter.
func (h *HashableBufferBitWriter) Drain() []byte { return h.w.Drain() }

// HashSeed hashes chain_state || bytes-written-since-last-call ||
// partial-byte || bit-count, reseeds gen from the digest, and refreshes the
// chain state from gen's own output so the next call's digest depends on
// this one's.
func (h *HashableBufferBitWriter) HashSeed(gen Seedable) {
	hasher := sha256.New()
	if h.chainState != nil {
		hasher.Write(h.chainState)
	}
	if h.consumedUpTo < len(h.w.bytes) {
		hasher.Write(h.w.bytes[h.consumedUpTo:])
	}
	hasher.Write([]byte{h.w.pending})
	hasher.Write([]byte{byte(h.w.bitIdx)})

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))

	gen.SetSeedFromRandom(digest)
	h.chainState = gen.RandomBytes(32)
	h.consumedUpTo = len(h.w.bytes)
}
