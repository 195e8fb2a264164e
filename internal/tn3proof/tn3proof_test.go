package tn3proof_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/hash"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/tn3proof"
)

// threeANDCircuit computes ((a&b) ^ (c&d)) ^ (e&f), 6 single-bit inputs,
// 3 AND gates, single output bit. With a=b=c=d=1, e=f=0 the output is
// (1^1)^0 == 0, a satisfied witness.
const threeANDCircuit = `5 11
6 1 1 1 1 1 1
1 1
2 1 0 1 6 AND
2 1 2 3 7 AND
2 1 4 5 8 AND
2 1 6 7 9 XOR
2 1 9 8 10 XOR
`

func parseSorted(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, c.Sort())
	return c
}

func testParams(t *testing.T) tn3proof.Params {
	t.Helper()
	return tn3proof.Params{N: 4, T: 1, Field: field.MustNew(16)}
}

func zeroPreprocessing(f *field.Field, n int) []byte {
	w := bitio.NewBufferBitWriter()
	gw := bitio.NewGFWriter(f, w)
	for i := 0; i < n; i++ {
		gw.Next(f.Zero())
	}
	return w.Drain()
}

func bitsReader(bits ...bool) bitio.BitReader {
	w := bitio.NewBufferBitWriter()
	for _, b := range bits {
		w.PutBit(b)
	}
	return bitio.NewBufferBitReader(w.Drain())
}

// TestProveAndVerifyInvariantHolds runs both sides of the protocol against
// the same (zero, so masks cancel cleanly) preprocessing stream and
// checks the actual soundness invariant open_all_and_check verifies: the
// output wire share is zero, and every repetition's P(zeta) equals the
// sum of its batches' randomized operand products.
func TestProveAndVerifyInvariantHolds(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, threeANDCircuit)
	const n2 = 2

	// 6 input masks + 3 AND masks + ts padding (2*n1*FULL*SZ, n1=2) +
	// part2 (FULL*(n2+2*SZ)).
	n1 := 2
	nShare := 6 + 3
	nTs := 2 * n1 * tn3proof.FullRepetitions * tn3proof.SZRepetitions
	nPart2 := tn3proof.FullRepetitions * (n2 + 2*tn3proof.SZRepetitions)
	total := nShare + nTs + nPart2

	preBytes := zeroPreprocessing(params.Field, total)
	priv := bitsReader(true, true, true, true, false, false)
	part1, part2, err := tn3proof.Prove(c, priv, params, n2, bitio.NewBufferBitReader(preBytes))
	require.NoError(t, err)

	preReader := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(preBytes))
	proof1 := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(part1))
	proof2 := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(part2))

	oShare, A, B, C, err := tn3proof.EvaluateCircuit(c, preReader, proof1)
	require.NoError(t, err)
	require.True(t, oShare.IsZero())

	gotN1 := (len(A) + n2 - 1) / n2
	require.Equal(t, n1, gotN1)
	for len(A) < n1*n2 {
		A = append(A, params.Field.Zero())
		B = append(B, params.Field.Zero())
		C = append(C, params.Field.Zero())
	}

	ts := make([]field.Elem, nTs)
	for i := range ts {
		mask, err := preReader.Next()
		require.NoError(t, err)
		diff, err := proof1.Next()
		require.NoError(t, err)
		ts[i] = mask.Sub(diff)
	}

	seed := hash.Sum(part1)
	rsGen := prng.New()
	rsGen.SetSeedFromRandom(seed)
	rs := make([]field.Elem, n1*tn3proof.FullRepetitions)
	for i := range rs {
		rs[i] = params.Field.Random(rsGen)
	}

	zeta := params.Field.FromUint64(uint64(n2)) // satisfies the >= n2 ZK constraint
	for full := 0; full < tn3proof.FullRepetitions; full++ {
		ps, err := tn3proof.GetP(C, rs, proof2, preReader, n1, n2, full)
		require.NoError(t, err)
		res := tn3proof.Verification(A, B, ps, rs, ts, n1, n2, full, zeta)
		require.Len(t, res, 1+2*n1)
		sum := params.Field.Zero()
		for j := 0; j < n1; j++ {
			sum = sum.Add(res[1+2*j].Mul(res[2+2*j]))
		}
		require.Truef(t, res[0].Equal(sum), "repetition %d: P(zeta)=%v != sum=%v", full, res[0], sum)
	}
}

func TestProveUnsatisfiedWitnessFails(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, threeANDCircuit)
	const n2 = 2
	total := 6 + 3 + 2*2*tn3proof.FullRepetitions*tn3proof.SZRepetitions + tn3proof.FullRepetitions*(n2+2*tn3proof.SZRepetitions)
	preBytes := zeroPreprocessing(params.Field, total)
	priv := bitsReader(true, true, true, false, false, false) // c&d now 0: output becomes 1
	_, _, err := tn3proof.Prove(c, priv, params, n2, bitio.NewBufferBitReader(preBytes))
	require.Error(t, err)
}
