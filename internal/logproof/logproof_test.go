package logproof_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/logproof"
	"github.com/feta-zk/feta/internal/netmesh/nettest"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/preprocessing"
	"github.com/feta-zk/feta/internal/prng"
)

// equalityCircuit is `out = a XOR b` with no AND gates: it evaluates to 0
// (satisfied) exactly when a == b.
const equalityCircuit = `1 3
2 1 1
1 1
2 1 0 1 2 XOR
`

func parseSorted(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := circuit.Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, c.Sort())
	return c
}

func testParams(t *testing.T) logproof.Params {
	t.Helper()
	share := field.MustNew(4)
	check := field.MustNew(8)
	lift, err := field.NewLiftBasis(share, check)
	require.NoError(t, err)
	return logproof.Params{N: 4, T: 1, ShareField: share, CheckField: check, Lift: lift}
}

// zeroPreprocessing builds a preprocessing byte stream that supplies
// nShare zero-valued ShareField elements followed by nCheck zero-valued
// CheckField elements, matching the exact order Prove reads them in for a
// circuit with no AND gates: the two input masks, then the three
// zero-knowledge triple masks.
func zeroPreprocessing(share, check *field.Field, nShare, nCheck int) []byte {
	w := bitio.NewBufferBitWriter()
	shareW := bitio.NewGFWriter(share, w)
	for i := 0; i < nShare; i++ {
		shareW.Next(share.Zero())
	}
	checkW := bitio.NewGFWriter(check, w)
	for i := 0; i < nCheck; i++ {
		checkW.Next(check.Zero())
	}
	return w.Drain()
}

func TestProveSatisfiedWitnessSucceeds(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, equalityCircuit)

	w := bitio.NewBufferBitWriter()
	w.PutBit(true)
	w.PutBit(true)
	privBits := bitio.NewBufferBitReader(w.Drain())

	preBytes := zeroPreprocessing(params.ShareField, params.CheckField, 2, 3)
	proof, err := logproof.Prove(c, privBits, params, bitio.NewBufferBitReader(preBytes))
	require.NoError(t, err)
	require.NotEmpty(t, proof)
}

func TestProveUnsatisfiedWitnessFails(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, equalityCircuit)

	w := bitio.NewBufferBitWriter()
	w.PutBit(true)
	w.PutBit(false)
	privBits := bitio.NewBufferBitReader(w.Drain())

	preBytes := zeroPreprocessing(params.ShareField, params.CheckField, 2, 3)
	_, err := logproof.Prove(c, privBits, params, bitio.NewBufferBitReader(preBytes))
	require.Error(t, err)
}

func TestRandomizeToInnerProductMatchesDotProduct(t *testing.T) {
	f := field.MustNew(8)
	gen := prng.NewDeterministic(0)
	xs := []field.Elem{f.FromUint64(3), f.FromUint64(5), f.FromUint64(9)}
	ys := []field.Elem{f.FromUint64(11), f.FromUint64(13), f.FromUint64(17)}
	zs := make([]field.Elem, len(xs))
	for i := range xs {
		zs[i] = xs[i].Mul(ys[i])
	}

	sum := logproof.RandomizeToInnerProduct(xs, zs, gen)

	// Each triple satisfies z_i = x_i*y_i and xs is rescaled in place by
	// r_i, so the returned sum of r_i*z_i must equal the inner product of
	// the rescaled xs with the untouched ys.
	total := f.Zero()
	for i := range xs {
		total = total.Add(xs[i].Mul(ys[i]))
	}
	require.True(t, sum.Equal(total))
}

func TestCommitAndCompressSingleBlockMatchesDirectProduct(t *testing.T) {
	check := field.MustNew(8)
	xs := []field.Elem{check.FromUint64(3), check.FromUint64(5)}
	ys := []field.Elem{check.FromUint64(7), check.FromUint64(9)}

	preBytes := zeroPreprocessing(check, check, 0, 2*logproof.Compression-2)
	preReader := bitio.NewGFReader(check, bitio.NewBufferBitReader(preBytes))
	outWriter := bitio.NewHashableBufferBitWriter()
	outGF := bitio.NewGFWriter(check, outWriter)
	gen := prng.NewDeterministic(0)

	z, newxs, newys, err := logproof.CommitAndCompress(xs, ys, preReader, outGF, outWriter, gen)
	require.NoError(t, err)
	require.Len(t, newxs, 1)
	require.Len(t, newys, 1)
	// With exactly Compression points in one block, the degree-1
	// interpolated polynomials' product evaluated at r is exactly the
	// product of their two evaluations at r.
	require.True(t, z.Equal(newxs[0].Mul(newys[0])))
}

// threeANDCircuit computes ((a&b) ^ (c&d)) ^ (e&f): with a=b=c=d=1,
// e=f=0 the output is 0, a satisfied witness. Three AND gates plus the
// zero-knowledge triple give four multiplication triples, so the
// compression loop runs for two full rounds before a single pair remains.
const threeANDCircuit = `5 11
6 1 1 1 1 1 1
1 1
2 1 0 1 6 AND
2 1 2 3 7 AND
2 1 4 5 8 AND
2 1 6 7 9 XOR
2 1 9 8 10 XOR
`

// TestVerifierMirrorsProverThroughCompression replays the verifier's whole
// arithmetic path (circuit replay, zero-knowledge triple recovery,
// inner-product randomization, every compression round) against a proof
// produced over an all-zero preprocessing stream. With zero masks a
// verifier's "share" of each value is the value itself, so the final
// invariants open_all_and_check would confirm across the mesh must hold
// here exactly: A*B equals the compressed inner product, and the circuit
// output is zero.
func TestVerifierMirrorsProverThroughCompression(t *testing.T) {
	params := testParams(t)
	c := parseSorted(t, threeANDCircuit)

	nShare, nCheck := logproof.RequiredCounts(c)
	require.Equal(t, 9, nShare)  // 6 input bits + 3 AND gates
	require.Equal(t, 7, nCheck)  // 3 ZK-triple masks + 2 coefficients x 2 rounds

	preBytes := zeroPreprocessing(params.ShareField, params.CheckField, nShare, nCheck)

	w := bitio.NewBufferBitWriter()
	for _, b := range []bool{true, true, true, true, false, false} {
		w.PutBit(b)
	}
	priv := bitio.NewBufferBitReader(w.Drain())

	proofRaw, err := logproof.Prove(c, priv, params, bitio.NewBufferBitReader(preBytes))
	require.NoError(t, err)

	preReader := bitio.NewBufferBitReader(preBytes)
	preprocessing := bitio.NewGFReader(params.ShareField, preReader)
	preprocessingC := bitio.NewGFReader(params.CheckField, preReader)
	proof := logproof.NewFSProofStream(params.ShareField, params.CheckField, proofRaw)

	circOut, A, B, C, err := logproof.EvaluateCircuit(c, proof, preprocessing, params.Lift)
	require.NoError(t, err)
	require.True(t, circOut.IsZero())

	for i := 0; i < 3; i++ {
		mask, err := preprocessingC.Next()
		require.NoError(t, err)
		diff, err := proof.NextC()
		require.NoError(t, err)
		v := mask.Sub(diff)
		switch i {
		case 0:
			A = append(A, v)
		case 1:
			B = append(B, v)
		case 2:
			C = append(C, v)
		}
	}

	gen := prng.NewDeterministic(0) // overwritten by the first HashSeed
	proof.HashSeed(gen)
	innerprod := logproof.RandomizeToInnerProduct(A, C, gen)
	for len(A) > 1 {
		innerprod, A, B, err = logproof.AddCheckAndCompress(innerprod, A, B, proof, preprocessingC, gen)
		require.NoError(t, err)
	}

	require.True(t, A[0].Mul(B[0]).Equal(innerprod),
		"final multiplication check must hold on an honest transcript")
}

// shareStream re-encodes a party's preprocessing output (base-field
// elements first, then extension-field ones) as the flat bit stream
// Prove/Verify consume, the way the driver binaries re-flatten an unsealed
// share file.
func shareStream(share, check *field.Field, base, ext []field.Elem) bitio.BitReader {
	w := bitio.NewBufferBitWriter()
	bw := bitio.NewGFWriter(share, w)
	for _, e := range base {
		bw.Next(e)
	}
	ew := bitio.NewGFWriter(check, w)
	for _, e := range ext {
		ew.Next(e)
	}
	return bitio.NewBufferBitReader(w.Drain())
}

// runEndToEnd stands up a real N=4, T=1 TLS mesh, runs the offline
// preprocessing phase in both fields on every party, has player 0 prove
// the three-AND circuit on a satisfying witness (optionally flipping one
// proof bit before broadcast), and returns each verifier's verdict.
func runEndToEnd(t *testing.T, tamper bool) []bool {
	t.Helper()
	const n, tt = 4, 1
	share := field.MustNew(3)
	check := field.MustNew(6)
	lift, err := field.NewLiftBasis(share, check)
	require.NoError(t, err)
	params := logproof.Params{N: n, T: tt, ShareField: share, CheckField: check, Lift: lift}

	c := parseSorted(t, threeANDCircuit)
	nShare, nCheck := logproof.RequiredCounts(c)
	preParams := preprocessing.Params{N: n, T: tt, Repetitions: 2}

	accepted := make([]bool, n+1)
	errs, err := nettest.RunMesh(t.TempDir(), n, func(idx int, p *player.Player) error {
		gen := prng.NewDeterministic(uint32(idx))
		base, err := preprocessing.Run(p, gen, share, preParams, nShare, preprocessing.BaseXCoords(share, n), nil)
		if err != nil {
			return err
		}
		ext, err := preprocessing.Run(p, gen, check, preParams, nCheck, preprocessing.ExtXCoords(lift, n), nil)
		if err != nil {
			return err
		}
		stream := shareStream(share, check, base, ext)

		if idx == 0 {
			w := bitio.NewBufferBitWriter()
			for _, b := range []bool{true, true, true, true, false, false} {
				w.PutBit(b)
			}
			proof, err := logproof.Prove(c, bitio.NewBufferBitReader(w.Drain()), params, stream)
			if err != nil {
				return err
			}
			if tamper {
				proof[0] ^= 1 // first bit of the first masked input
			}
			return p.SendAll(proof, false, -1)
		}

		proofRaw, err := p.RecvFrom(0, false)
		if err != nil {
			return err
		}
		ok, err := logproof.Verify(c, params, proofRaw, stream, p, zap.NewNop())
		if err != nil {
			return err
		}
		accepted[idx] = ok
		return nil
	})
	require.NoError(t, err)
	for i, e := range errs {
		require.NoErrorf(t, e, "party %d", i)
	}
	return accepted[1:]
}

func TestEndToEndProofAccepted(t *testing.T) {
	for i, ok := range runEndToEnd(t, false) {
		require.Truef(t, ok, "verifier %d rejected an honest proof", i+1)
	}
}

func TestEndToEndTamperedProofRejected(t *testing.T) {
	for i, ok := range runEndToEnd(t, true) {
		require.Falsef(t, ok, "verifier %d accepted a tampered proof", i+1)
	}
}

func TestFSProofStreamInterleavesShareAndCheckWidths(t *testing.T) {
	share := field.MustNew(4)
	check := field.MustNew(8)

	w := bitio.NewHashableBufferBitWriter()
	shareW := bitio.NewGFWriter(share, w)
	checkW := bitio.NewGFWriter(check, w)

	a := share.FromUint64(5)
	b := check.FromUint64(200)
	c := share.FromUint64(9)
	shareW.Next(a)
	checkW.Next(b)
	shareW.Next(c)

	stream := logproof.NewFSProofStream(share, check, w.Drain())
	gotA, err := stream.Next()
	require.NoError(t, err)
	require.True(t, gotA.Equal(a))
	gotB, err := stream.NextC()
	require.NoError(t, err)
	require.True(t, gotB.Equal(b))
	gotC, err := stream.Next()
	require.NoError(t, err)
	require.True(t, gotC.Equal(c))
}
