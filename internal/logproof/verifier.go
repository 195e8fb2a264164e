package logproof

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/cheatlog"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// EvaluateCircuit replays the circuit using this verifier's own
// preprocessing share and the masked differences the prover published,
// recovering its share of every wire along the way. It returns its share of
// the (lifted) circuit output plus the per-AND-gate operand shares the
// multiplication check needs.
//
// Grounded on log/verifier.cpp's evaluate_circuit.
func EvaluateCircuit(c *circuit.Circuit, proof *FSProofStream, preprocessing *bitio.GFReader, lift *field.LiftBasis) (field.Elem, []field.Elem, []field.Elem, []field.Elem, error) {
	f := lift.Sub
	wires := make([]field.Elem, 0, c.NWires)
	for i := 0; i < c.NumInputs(); i++ {
		for j := 0; j < c.NumIWires(i); j++ {
			mask, err := preprocessing.Next()
			if err != nil {
				return field.Elem{}, nil, nil, nil, err
			}
			diff, err := proof.Next()
			if err != nil {
				return field.Elem{}, nil, nil, nil, err
			}
			wires = append(wires, mask.Sub(diff))
		}
	}

	var A, B, C []field.Elem
	var evalErr error
	result, err := circuit.EvalCustom(c, wires,
		func(a, b field.Elem) field.Elem { return a.Add(b) },
		func(a, b field.Elem) field.Elem {
			mask, err := preprocessing.Next()
			if err != nil {
				evalErr = err
				return field.Elem{}
			}
			diff, err := proof.Next()
			if err != nil {
				evalErr = err
				return field.Elem{}
			}
			and := mask.Sub(diff)
			A = append(A, lift.Lift(a))
			B = append(B, lift.Lift(b))
			C = append(C, lift.Lift(and))
			return and
		},
		func(a field.Elem) field.Elem { return a.Add(f.One()) },
	)
	if err != nil {
		return field.Elem{}, nil, nil, nil, err
	}
	if evalErr != nil {
		return field.Elem{}, nil, nil, nil, evalErr
	}
	return lift.Lift(result), A, B, C, nil
}

// AddCheckAndCompress is the verifier's mirror of CommitAndCompress: it
// reads its share of every published product-polynomial coefficient from
// the masked values the prover committed (rather than computing them from
// a witness it doesn't have), recovers the one unpublished leading
// coefficient from the running sum invariant, draws the same Fiat-Shamir
// challenge r, and halves its own operand shares the same way the prover
// did.
//
// Grounded on log/verifier.cpp's add_check_and_compress.
func AddCheckAndCompress(sum field.Elem, xs, ys []field.Elem, proof *FSProofStream, preprocessing *bitio.GFReader, gen *prng.PRNG) (field.Elem, []field.Elem, []field.Elem, error) {
	f := xs[0].Field()
	productPoly := make([]field.Elem, 2*Compression-1)
	for i := 0; i < len(productPoly)-1; i++ {
		pre, err := preprocessing.Next()
		if err != nil {
			return field.Elem{}, nil, nil, err
		}
		diff, err := proof.NextC()
		if err != nil {
			return field.Elem{}, nil, nil, err
		}
		productPoly[i] = pre.Sub(diff)
	}
	// sum == poly(0) + poly(1) + ... + poly(Compression-1); solve for the
	// leading (only still-unknown) coefficient.
	productPoly[len(productPoly)-1] = recoverFinalCoefficient(productPoly, sum)

	proof.HashSeed(gen)
	r := f.Random(gen)

	numElem := len(xs)
	var newxs, newys []field.Elem
	preproc := reedsolomon.InterpolatePreprocess([]field.Elem{f.Zero(), f.One()}, r)
	i := 0
	for ; i+Compression <= numElem; i += Compression {
		nx := reedsolomon.InterpolateWithPreprocessing(preproc, xs[i:i+Compression])
		ny := reedsolomon.InterpolateWithPreprocessing(preproc, ys[i:i+Compression])
		newxs = append(newxs, nx)
		newys = append(newys, ny)
	}
	if i < numElem {
		xPts := append([]field.Elem(nil), xs[i:]...)
		for len(xPts) < Compression {
			xPts = append(xPts, f.Zero())
		}
		yPts := append([]field.Elem(nil), ys[i:]...)
		for len(yPts) < Compression {
			yPts = append(yPts, f.Zero())
		}
		nx := reedsolomon.InterpolateWithPreprocessing(preproc, xPts)
		ny := reedsolomon.InterpolateWithPreprocessing(preproc, yPts)
		newxs = append(newxs, nx)
		newys = append(newys, ny)
	}

	z := reedsolomon.PolyEval(productPoly, r)
	return z, newxs, newys, nil
}

// OpenAndCheck broadcasts this verifier's final shares to every other
// verifier, Berlekamp-Welch decodes each of the four openings it needs
// (the final compression round's two operands, their product, and the
// circuit output), and checks the decoded multiplication and the decoded
// output being zero. Any player whose share disagreed with the decoded
// value is logged, not treated as fatal, per spec.md §7.
//
// Grounded on log/verifier.cpp's open_all_and_check.
func OpenAndCheck(p *player.Player, params Params, myOutput []byte, log *zap.Logger) (bool, error) {
	// The prover (player 0) takes no part in the opening round and may
	// already have left the mesh, so it is skipped on both sides.
	if err := p.SendAll(myOutput, false, 0); err != nil {
		return false, err
	}
	rawShares, err := p.RecvFromAll(false, 0)
	if err != nil {
		return false, err
	}
	rawShares[p.Idx] = myOutput

	readers := make([]*bitio.GFReader, params.N)
	for i := 1; i <= params.N; i++ {
		readers[i-1] = bitio.NewGFReader(params.CheckField, bitio.NewBufferBitReader(rawShares[i]))
	}
	xcoords := params.XCoords()

	// An unreadable share stream is fatal (I/O class), but a sharing the
	// decoder rejects is only evidence of cheating: it is logged, the
	// opening counts as failed, and the remaining openings still run.
	decodeOne := func(label string) (field.Elem, bool, error) {
		shares := make([]field.Elem, params.N)
		for j, r := range readers {
			e, err := r.Next()
			if err != nil {
				return field.Elem{}, false, fmt.Errorf("logproof: reading %s shares: %w", label, err)
			}
			shares[j] = e
		}
		poly, cheaters, err := reedsolomon.Decode(xcoords, shares, params.T, params.T)
		if err != nil {
			log.Warn("invalid sharing", zap.String("context", label), zap.Error(err))
			return field.Elem{}, false, nil
		}
		cheatlog.Report(log, label, cheaters)
		return poly[0], true, nil
	}

	valA, okA, err := decodeOne("final multiplication operand A")
	if err != nil {
		return false, err
	}
	valB, okB, err := decodeOne("final multiplication operand B")
	if err != nil {
		return false, err
	}
	valC, okC, err := decodeOne("final multiplication operand C")
	if err != nil {
		return false, err
	}
	ok := okA && okB && okC && valA.Mul(valB).Equal(valC)
	circOut, okO, err := decodeOne("circuit output")
	if err != nil {
		return false, err
	}
	return ok && okO && circOut.IsZero(), nil
}

// Verify replays a proof against this verifier's own preprocessing share
// and, via p, the other verifiers' shares of the final opening, returning
// whether the circuit was satisfied without ever reconstructing the
// prover's witness.
//
// Grounded on log/verifier.cpp's main().
func Verify(c *circuit.Circuit, params Params, proofRaw []byte, preproc bitio.BitReader, p *player.Player, log *zap.Logger) (bool, error) {
	proof := NewFSProofStream(params.ShareField, params.CheckField, proofRaw)
	preprocessing := bitio.NewGFReader(params.ShareField, preproc)
	preprocessingC := bitio.NewGFReader(params.CheckField, preproc)

	circOut, A, B, C, err := EvaluateCircuit(c, proof, preprocessing, params.Lift)
	if err != nil {
		return false, err
	}

	seed, err := deriveZKSeed(c.Fingerprint(), params.N, params.T, params.ShareField.K, params.CheckField.K)
	if err != nil {
		return false, err
	}
	gen := prng.New()
	gen.SeedFrom(seed)

	maskA, err := preprocessingC.Next()
	if err != nil {
		return false, err
	}
	diffA, err := proof.NextC()
	if err != nil {
		return false, err
	}
	a := maskA.Sub(diffA)

	maskB, err := preprocessingC.Next()
	if err != nil {
		return false, err
	}
	diffB, err := proof.NextC()
	if err != nil {
		return false, err
	}
	b := maskB.Sub(diffB)

	maskC, err := preprocessingC.Next()
	if err != nil {
		return false, err
	}
	diffC, err := proof.NextC()
	if err != nil {
		return false, err
	}
	ab := maskC.Sub(diffC)

	A = append(A, a)
	B = append(B, b)
	C = append(C, ab)

	proof.HashSeed(gen)
	innerprod := RandomizeToInnerProduct(A, C, gen)
	for len(A) > 1 {
		var err error
		innerprod, A, B, err = AddCheckAndCompress(innerprod, A, B, proof, preprocessingC, gen)
		if err != nil {
			return false, err
		}
	}

	finalWriter := bitio.NewBufferBitWriter()
	finalOut := bitio.NewGFWriter(params.CheckField, finalWriter)
	finalOut.Next(A[0])
	finalOut.Next(B[0])
	finalOut.Next(innerprod)
	finalOut.Next(circOut)

	return OpenAndCheck(p, params, finalWriter.Drain(), log)
}
