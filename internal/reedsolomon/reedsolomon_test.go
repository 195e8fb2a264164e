package reedsolomon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/prng"
)

func testField(t *testing.T) *field.Field {
	t.Helper()
	f, err := field.New(8)
	require.NoError(t, err)
	return f
}

func distinctPoints(f *field.Field, n int) []field.Elem {
	xs := make([]field.Elem, n)
	for i := 0; i < n; i++ {
		xs[i] = f.FromUint64(uint64(i + 1))
	}
	return xs
}

func TestPolyEvalAndEncode(t *testing.T) {
	f := testField(t)
	msg := []field.Elem{f.FromUint64(3), f.FromUint64(5), f.FromUint64(1)} // degree 2
	xs := distinctPoints(f, 5)
	shares := Encode(xs, msg)
	for i, x := range xs {
		require.True(t, shares[i].Equal(PolyEval(msg, x)))
	}
}

func TestInterpolateRecoversPolynomial(t *testing.T) {
	f := testField(t)
	msg := []field.Elem{f.FromUint64(7), f.FromUint64(2), f.FromUint64(9)}
	xs := distinctPoints(f, 3)
	ys := Encode(xs, msg)

	for i := 3; i < 6; i++ {
		x := f.FromUint64(uint64(i))
		got := Interpolate(xs, ys, x)
		want := PolyEval(msg, x)
		require.True(t, got.Equal(want))
	}
}

func TestPolyDivExact(t *testing.T) {
	f := testField(t)
	g := []field.Elem{f.One(), f.FromUint64(4)} // g(x) = 1 + 4x, degree 1
	q := []field.Elem{f.FromUint64(3), f.FromUint64(6)}
	prod := PolyMul(q, g)

	got, err := PolyDiv(prod, g, 1)
	require.NoError(t, err)
	require.True(t, got[0].Equal(q[0]))
	require.True(t, got[1].Equal(q[1]))
}

func TestPolyDivRejectsNonZeroRemainder(t *testing.T) {
	f := testField(t)
	g := []field.Elem{f.One(), f.FromUint64(4)}
	bad := []field.Elem{f.FromUint64(2), f.FromUint64(3), f.FromUint64(1)}
	_, err := PolyDiv(bad, g, 1)
	require.ErrorIs(t, err, ErrNonZeroRemainder)
}

func TestPolyDivRejectsZeroDivisor(t *testing.T) {
	f := testField(t)
	zero := []field.Elem{f.Zero(), f.Zero()}
	num := []field.Elem{f.One(), f.FromUint64(2)}
	_, err := PolyDiv(num, zero, 1)
	require.ErrorIs(t, err, ErrDivisionByZeroPolynomial)
}

func TestPolyDivRejectsOutputDegreeTooLarge(t *testing.T) {
	f := testField(t)
	g := []field.Elem{f.One()}
	num := []field.Elem{f.FromUint64(1), f.FromUint64(2), f.FromUint64(3)}
	_, err := PolyDiv(num, g, 1)
	require.ErrorIs(t, err, ErrOutputDegreeTooLarge)
}

// TestDecodeRoundTripNoErrors checks exact decoding when no shares are
// corrupted.
func TestDecodeRoundTripNoErrors(t *testing.T) {
	f := testField(t)
	degree, maxErrors := 2, 1
	msg := []field.Elem{f.FromUint64(3), f.FromUint64(5), f.FromUint64(1)}
	xs := distinctPoints(f, degree+2*maxErrors+1)
	shares := Encode(xs, msg)

	got, cheaters, err := Decode(xs, shares, degree, maxErrors)
	require.NoError(t, err)
	require.Empty(t, cheaters)
	for i := range msg {
		require.True(t, got[i].Equal(msg[i]))
	}
}

// TestDecodeWithOneCheater corrupts a single share and checks that
// Berlekamp-Welch still recovers the original polynomial and flags the
// corrupted player (1-indexed).
func TestDecodeWithOneCheater(t *testing.T) {
	f := testField(t)
	degree, maxErrors := 2, 1
	msg := []field.Elem{f.FromUint64(3), f.FromUint64(5), f.FromUint64(1)}
	xs := distinctPoints(f, degree+2*maxErrors+1)
	shares := Encode(xs, msg)

	cheatIdx := 2
	shares[cheatIdx] = shares[cheatIdx].Add(f.One())

	got, cheaters, err := Decode(xs, shares, degree, maxErrors)
	require.NoError(t, err)
	require.Equal(t, []int{cheatIdx + 1}, cheaters)
	for i := range msg {
		require.True(t, got[i].Equal(msg[i]))
	}
}

// TestDecodeLiteralVector pins the concrete N=4, T=1, K=4 scenario: the
// degree-1 polynomial (3, 7) shared at xcoords 1..4, with the share at
// xcoord 2 flipped to another value, decodes back to (3, 7) with exactly
// that share reported as the cheater.
func TestDecodeLiteralVector(t *testing.T) {
	f, err := field.New(4)
	require.NoError(t, err)

	msg := []field.Elem{f.FromUint64(3), f.FromUint64(7)}
	xs := distinctPoints(f, 4)
	shares := Encode(xs, msg)
	for i, x := range xs {
		require.True(t, shares[i].Equal(msg[0].Add(msg[1].Mul(x))))
	}

	shares[1] = shares[1].Add(f.One()) // the share at xcoord 2

	got, cheaters, err := Decode(xs, shares, 1, 1)
	require.NoError(t, err)
	require.True(t, got[0].Equal(msg[0]))
	require.True(t, got[1].Equal(msg[1]))
	require.Equal(t, []int{2}, cheaters)
}

// TestDecodeFuzz exercises encode/corrupt/decode round trips across random
// seeds, message degrees, and error counts up to the correctable bound.
func TestDecodeFuzz(t *testing.T) {
	f := testField(t)
	for seed := uint32(0); seed < 20; seed++ {
		rng := prng.NewDeterministic(seed)
		degree := 1 + int(rng.Uint32()%4)
		maxErrors := 1 + int(rng.Uint32()%2)
		n := degree + 2*maxErrors + 1

		msg := make([]field.Elem, degree+1)
		for i := range msg {
			msg[i] = f.Random(rng)
		}
		xs := distinctPoints(f, n)
		shares := Encode(xs, msg)

		nErrors := int(rng.Uint32() % uint32(maxErrors+1))
		corrupted := map[int]bool{}
		for len(corrupted) < nErrors {
			idx := int(rng.Uint32() % uint32(n))
			if corrupted[idx] {
				continue
			}
			corrupted[idx] = true
			var bump field.Elem
			for {
				bump = f.Random(rng)
				if !bump.IsZero() {
					break
				}
			}
			shares[idx] = shares[idx].Add(bump)
		}

		got, cheaters, err := Decode(xs, shares, degree, maxErrors)
		require.NoError(t, err)
		require.Len(t, cheaters, nErrors)
		for i := range msg {
			require.Truef(t, got[i].Equal(msg[i]), "seed=%d degree=%d maxErrors=%d nErrors=%d", seed, degree, maxErrors, nErrors)
		}
	}
}
