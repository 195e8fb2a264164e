// Package prng implements the project's seeded keystream generator: AES-128
// in counter mode, refilled PIPELINES blocks at a time, as specified by
// spec.md §4.A. It provides the PRNG contract every other package (field
// sampling, Fiat-Shamir reseeding, commit-then-open coin flipping) draws
// randomness through.
package prng

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"math"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Pipelines is the number of AES blocks refilled per keystream batch,
// matching the reference implementation's PIPELINES=8.
const Pipelines = 8

const blockSize = aes.BlockSize // 16 bytes
const bufSize = Pipelines * blockSize

// PRNG is a seeded AES-CTR keystream generator. It is a per-party value
// object: instances are never shared between goroutines or parties.
type PRNG struct {
	block   cipher.Block
	counter uint64
	buf     [bufSize]byte
	pos     int

	hardwareAES bool
}

var hwAESOnce sync.Once
var hwAES bool

func hardwareAESAvailable() bool {
	hwAESOnce.Do(func() {
		hwAES = cpuid.CPU.Supports(cpuid.AESNI) && cpuid.CPU.Supports(cpuid.CLMUL)
	})
	return hwAES
}

// New constructs an unseeded PRNG; callers must call SeedFrom,
// NewFromEntropy, or NewDeterministic before drawing any output.
func New() *PRNG {
	return &PRNG{hardwareAES: hardwareAESAvailable()}
}

// SeedFrom absorbs a 32-byte seed: the low 16 bytes key the AES schedule (a
// single crypto/aes.Block is already constant-time and selects the
// AES-NI/PCLMULQDQ path automatically on amd64/arm64 when available, the
// same hardware-vs-software dichotomy spec.md §4.A and §9 call for; the
// high 16 bytes are discarded the way the reference's 16-byte AES-128 key
// schedule only consumes the first half of its 32-byte seed), and the
// counter resets to zero.
func (p *PRNG) SeedFrom(seed [32]byte) {
	block, err := aes.NewCipher(seed[:16])
	if err != nil {
		panic(err) // aes.NewCipher only errors on wrong key length, impossible here
	}
	p.block = block
	p.counter = 0
	p.pos = bufSize // force refill on next draw
}

// SetSeedFromRandom reseeds p from another PRNG's 32 bytes of output,
// matching the reference's PRNG::SetSeedFromRandom / this project's
// bitio.Seedable contract used by the Fiat-Shamir transcript.
func (p *PRNG) SetSeedFromRandom(seed [32]byte) {
	p.SeedFrom(seed)
}

// NewFromEntropy builds a PRNG reseeded from system entropy with the given
// thread/party id XORed into the first four bytes, matching
// PRNG::ReSeed(thread_id) in the reference implementation.
func NewFromEntropy(partyID uint32) (*PRNG, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	xorID(&seed, partyID)
	p := New()
	p.SeedFrom(seed)
	return p, nil
}

// NewDeterministic builds a PRNG from an all-zero seed with the party id
// XORed in, matching the reference's #ifdef DETERMINISTIC escape hatch used
// for reproducible test runs. It must never be used outside tests.
func NewDeterministic(partyID uint32) *PRNG {
	var seed [32]byte
	xorID(&seed, partyID)
	p := New()
	p.SeedFrom(seed)
	return p
}

func xorID(seed *[32]byte, id uint32) {
	var idBytes [4]byte
	binary.LittleEndian.PutUint32(idBytes[:], id)
	for i := 0; i < 4; i++ {
		seed[i] ^= idBytes[i]
	}
}

func (p *PRNG) refill() {
	for i := 0; i < Pipelines; i++ {
		var ctrBlock [blockSize]byte
		binary.LittleEndian.PutUint64(ctrBlock[:8], p.counter)
		p.counter++
		p.block.Encrypt(ctrBlock[:], ctrBlock[:])
		copy(p.buf[i*blockSize:(i+1)*blockSize], ctrBlock[:])
	}
	p.pos = 0
}

// RandomBytes returns n fresh pseudorandom bytes.
func (p *PRNG) RandomBytes(n int) []byte {
	out := make([]byte, n)
	p.fill(out)
	return out
}

func (p *PRNG) fill(out []byte) {
	for len(out) > 0 {
		if p.pos >= bufSize {
			p.refill()
		}
		k := copy(out, p.buf[p.pos:])
		p.pos += k
		out = out[k:]
	}
}

// Uint64 draws 8 pseudorandom bytes as a little-endian uint64; it is the
// RandomSource surface internal/field.Field.Random consumes.
func (p *PRNG) Uint64() uint64 {
	var b [8]byte
	p.fill(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Uint32 draws a little-endian uint32 (random_u32 in the reference).
func (p *PRNG) Uint32() uint32 {
	var b [4]byte
	p.fill(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// Uint128 draws 16 pseudorandom bytes as a little-endian 128-bit value
// (random_u128 in the reference), returned as its two 64-bit halves.
func (p *PRNG) Uint128() (lo, hi uint64) {
	var b [16]byte
	p.fill(b[:])
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])
}

// Double returns a uniform value in [0,1) from a 32-bit integer divided by
// 2^32, matching the reference's get_double.
func (p *PRNG) Double() float64 {
	return float64(p.Uint32()) / math.Exp2(32)
}
