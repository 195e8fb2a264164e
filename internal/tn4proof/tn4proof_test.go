package tn4proof_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/tn4proof"
)

// threeANDCircuit computes ((a&b) ^ (c&d)) ^ (e&f). With a=b=c=d=1,
// e=f=0 the output is (1^1)^0 == 0, a satisfied witness.
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

func testParams(t *testing.T) tn4proof.Params {
	t.Helper()
	f := field.MustNew(16)
	return tn4proof.Params{N: 5, T: 1, Repetitions: tn4proof.DefaultRepetitions(f), Field: f}
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

// TestProveAndReconstructionInvariantHolds runs Prove against a zero
// preprocessing stream (so every mask cancels cleanly) and then replays
// the exact arithmetic compute_combinations performs — reconstructing
// each wire from mask-diff, folding every AND gate's operands into
// Repetitions random linear combinations — without involving a player
// network. On a satisfied witness the circuit output share must be zero
// and, for every repetition, A_j must exactly equal C_j, since beta*(ab-c)
// is zero whenever ab == c.
func TestProveAndReconstructionInvariantHolds(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, threeANDCircuit)

	total := 6 + 3 // 6 input masks + 3 AND-gate masks
	preBytes := zeroPreprocessing(params.Field, total)
	priv := bitsReader(true, true, true, true, false, false)

	proofRaw, err := tn4proof.Prove(c, priv, params, bitio.NewBufferBitReader(preBytes))
	require.NoError(t, err)

	preReader := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(preBytes))
	proof := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(proofRaw))

	gen := prng.New()
	gen.SetSeedFromRandom([32]byte{1, 2, 3})

	wires := make([]field.Elem, 0, c.NWires)
	for i := 0; i < c.NumInputs(); i++ {
		for j := 0; j < c.NumIWires(i); j++ {
			mask, err := preReader.Next()
			require.NoError(t, err)
			diff, err := proof.Next()
			require.NoError(t, err)
			wires = append(wires, mask.Sub(diff))
		}
	}

	A := make([]field.Elem, params.Repetitions)
	C := make([]field.Elem, params.Repetitions)
	for i := range A {
		A[i] = params.Field.Zero()
		C[i] = params.Field.Zero()
	}

	circOut, err := circuit.EvalCustom(c, wires,
		func(a, b field.Elem) field.Elem { return a.Add(b) },
		func(a, b field.Elem) field.Elem {
			mask, err := preReader.Next()
			require.NoError(t, err)
			diff, err := proof.Next()
			require.NoError(t, err)
			cc := mask.Sub(diff)
			ab := a.Mul(b)
			for j := 0; j < params.Repetitions; j++ {
				beta := params.Field.Random(gen)
				A[j] = A[j].Add(beta.Mul(ab))
				C[j] = C[j].Add(beta.Mul(cc))
			}
			return cc
		},
		func(a field.Elem) field.Elem { return a.Add(a.Field().One()) },
	)
	require.NoError(t, err)
	require.True(t, circOut.IsZero())

	for j := 0; j < params.Repetitions; j++ {
		require.Truef(t, A[j].Equal(C[j]), "repetition %d: A=%v != C=%v", j, A[j], C[j])
	}
}

func TestProveUnsatisfiedWitnessFails(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, threeANDCircuit)
	preBytes := zeroPreprocessing(params.Field, 6+3)
	priv := bitsReader(true, true, true, false, false, false) // c&d now 0: output becomes 1
	_, err := tn4proof.Prove(c, priv, params, bitio.NewBufferBitReader(preBytes))
	require.Error(t, err)
}
