package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type xorshiftSource struct{ state uint64 }

func (s *xorshiftSource) Uint64() uint64 {
	s.state ^= s.state << 13
	s.state ^= s.state >> 7
	s.state ^= s.state << 17
	if s.state == 0 {
		s.state = 0x9E3779B97F4A7C15
	}
	return s.state
}

func TestFieldSanityVector(t *testing.T) {
	f, err := New(8)
	require.NoError(t, err)

	a := f.FromUint64(0x53)
	b := f.FromUint64(0xCA)
	one := f.FromUint64(0x01)

	require.True(t, a.Mul(b).Equal(one), "0x53 * 0xCA should equal 0x01 under p_8")
	require.True(t, a.Inv().Equal(b), "inv(0x53) should equal 0xCA")
}

func TestAdditiveGroupLaws(t *testing.T) {
	src := &xorshiftSource{state: 1}
	for _, k := range []int{2, 3, 4, 5, 7, 8, 16, 31, 64, 91, 128} {
		f, err := New(k)
		require.NoError(t, err)
		a := f.Random(src)
		b := f.Random(src)
		c := f.Random(src)

		require.True(t, a.Add(a).IsZero(), "k=%d: a+a != 0", k)
		require.True(t, a.Add(f.Zero()).Equal(a), "k=%d: a+0 != a", k)
		require.True(t, a.Add(b).Add(c).Equal(a.Add(b.Add(c))), "k=%d: addition not associative", k)
	}
}

func TestMultiplicativeGroupLaws(t *testing.T) {
	src := &xorshiftSource{state: 42}
	for _, k := range []int{2, 3, 4, 5, 7, 8, 16, 31, 64, 91, 128} {
		f, err := New(k)
		require.NoError(t, err)
		a := f.Random(src)
		b := f.Random(src)

		require.True(t, a.Mul(f.One()).Equal(a), "k=%d: a*1 != a", k)
		require.True(t, a.Mul(f.Zero()).IsZero(), "k=%d: a*0 != 0", k)
		require.True(t, a.Mul(b).Equal(b.Mul(a)), "k=%d: multiplication not commutative", k)

		if !a.IsZero() {
			require.True(t, a.Mul(a.Inv()).Equal(f.One()), "k=%d: a*inv(a) != 1", k)
		}
	}
}

func TestBitsRoundTrip(t *testing.T) {
	src := &xorshiftSource{state: 7}
	for _, k := range []int{2, 3, 8, 27, 87, 128} {
		f, err := New(k)
		require.NoError(t, err)
		a := f.Random(src)
		bits := a.ToBits()
		require.Len(t, bits, k)
		require.True(t, f.FromBits(bits).Equal(a), "k=%d: ToBits/FromBits round trip failed", k)
	}
}

func TestLiftIdentityAndHomomorphism(t *testing.T) {
	sub, err := New(4)
	require.NoError(t, err)
	ext, err := New(8)
	require.NoError(t, err)
	lb, err := NewLiftBasis(sub, ext)
	require.NoError(t, err)

	require.True(t, lb.Lift(sub.One()).Equal(ext.One()), "lift(1) should be 1")

	for x := uint64(0); x < 16; x++ {
		for y := uint64(0); y < 16; y++ {
			xe := sub.FromUint64(x)
			ye := sub.FromUint64(y)
			lhsMul := lb.Lift(xe.Mul(ye))
			rhsMul := lb.Lift(xe).Mul(lb.Lift(ye))
			require.True(t, lhsMul.Equal(rhsMul), "lift(x*y) != lift(x)*lift(y) for x=%d y=%d", x, y)

			lhsAdd := lb.Lift(xe.Add(ye))
			rhsAdd := lb.Lift(xe).Add(lb.Lift(ye))
			require.True(t, lhsAdd.Equal(rhsAdd), "lift(x+y) != lift(x)+lift(y) for x=%d y=%d", x, y)
		}
	}
}

func TestLiftForProtocolFields(t *testing.T) {
	sub, err := New(3)
	require.NoError(t, err)
	ext, err := New(87)
	require.NoError(t, err)
	lb, err := NewLiftBasis(sub, ext)
	require.NoError(t, err)
	require.True(t, lb.Lift(sub.One()).Equal(ext.One()))
}
