package bitio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	w := NewBufferBitWriter()
	pattern := []bool{true, false, true, true, false, false, true, false, true, true}
	for _, b := range pattern {
		w.PutBit(b)
	}
	data := w.Flush()
	require.Len(t, data, 2) // 10 bits -> 2 bytes, last 6 bits zero-padded

	r := NewBufferBitReader(data)
	for i, want := range pattern {
		got, err := r.GetBit()
		require.NoError(t, err)
		require.Equal(t, want, got, "bit %d mismatch", i)
	}
	for i := len(pattern); i < 16; i++ {
		got, err := r.GetBit()
		require.NoError(t, err)
		require.False(t, got, "padding bit %d should be zero", i)
	}
}

func TestFlushZeroesOnReuse(t *testing.T) {
	w := NewBufferBitWriter()
	w.PutBit(true)
	w.PutBit(true)
	w.PutBit(true)
	first := w.Flush()
	require.Equal(t, byte(0b0000_0111), first[0])

	w.PutBit(false)
	second := w.Flush()
	require.Equal(t, []byte{0b0000_0000}, second, "reused writer must not leak bits from before the previous flush")
}

type fakePRNG struct {
	seed  [32]byte
	calls int
}

func (f *fakePRNG) SetSeedFromRandom(seed [32]byte) { f.seed = seed; f.calls++ }
func (f *fakePRNG) RandomBytes(n int) []byte        { return make([]byte, n) }

func TestHashSeedDeterministic(t *testing.T) {
	w1 := NewHashableBufferBitWriter()
	w2 := NewHashableBufferBitWriter()
	for _, b := range []bool{true, false, true, true, false} {
		w1.PutBit(b)
		w2.PutBit(b)
	}

	g1, g2 := &fakePRNG{}, &fakePRNG{}
	w1.HashSeed(g1)
	w2.HashSeed(g2)
	require.Equal(t, g1.seed, g2.seed, "identical writer states must hash_seed identically")
}
