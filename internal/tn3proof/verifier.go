package tn3proof

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/cheatlog"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/hash"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// EvaluateCircuit replays circ using this verifier's own preprocessing
// share and the masked differences the prover published in part1,
// recovering its share of every wire and every AND gate's two operands
// plus their product share.
//
// Grounded on tn3/verifier.cpp's eval_circuit.
func EvaluateCircuit(c *circuit.Circuit, preprocessing, proof *bitio.GFReader) (field.Elem, []field.Elem, []field.Elem, []field.Elem, error) {
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
			cc := mask.Sub(diff)
			A = append(A, a)
			B = append(B, b)
			C = append(C, cc)
			return cc
		},
		func(a field.Elem) field.Elem { return a.Add(a.Field().One()) },
	)
	if err != nil {
		return field.Elem{}, nil, nil, nil, err
	}
	if evalErr != nil {
		return field.Elem{}, nil, nil, nil, evalErr
	}
	return result, A, B, C, nil
}

// GetP reads the per-repetition check polynomial evaluations for one full
// repetition from preprocessing/part2, and folds in this verifier's share
// of every batch's random linear combination rs[full*n1+j] * C[batch j].
//
// Grounded on tn3/verifier.cpp's get_P.
func GetP(C, rs []field.Elem, part2, preprocessing *bitio.GFReader, n1, n2, full int) ([]field.Elem, error) {
	ps := make([]field.Elem, 2*n2+2*SZRepetitions)
	f := C[0].Field()
	for i := range ps {
		ps[i] = f.Zero()
	}
	for i, c := range C {
		idx := i % n2
		ps[idx] = ps[idx].Add(rs[full*n1+i/n2].Mul(c))
	}
	for i := 0; i < n2+2*SZRepetitions; i++ {
		pre, err := preprocessing.Next()
		if err != nil {
			return nil, err
		}
		diff, err := part2.Next()
		if err != nil {
			return nil, err
		}
		ps[n2+i] = pre.Sub(diff)
	}
	return ps, nil
}

// Verification evaluates, for a single Schwartz-Zippel point zeta, the
// running check polynomial P at zeta plus every batch's two randomized
// operand interpolations at zeta, returning the list of values this
// verifier will open and the others will use to confirm P(zeta) equals
// the sum of those operands' products.
//
// Grounded on tn3/verifier.cpp's verification.
func Verification(A, B, ps, rs, ts []field.Elem, n1, n2, full int, zeta field.Elem) []field.Elem {
	domain := domainPoints(zeta.Field(), n2+SZRepetitions)
	lambdas := reedsolomon.InterpolatePreprocess(domain, zeta)
	res := make([]field.Elem, 0, 1+2*n1)
	res = append(res, reedsolomon.InterpolateWithPreprocessing(reedsolomon.InterpolatePreprocess(domainPoints(zeta.Field(), len(ps)), zeta), ps))
	for j := 0; j < n1; j++ {
		ptsA := append([]field.Elem(nil), A[j*n2:(j+1)*n2]...)
		r := rs[full*n1+j]
		for i := range ptsA {
			ptsA[i] = ptsA[i].Mul(r)
		}
		for k := 0; k < SZRepetitions; k++ {
			ptsA = append(ptsA, ts[full*2*n1*SZRepetitions+j*2*SZRepetitions+k])
		}
		ptsB := append([]field.Elem(nil), B[j*n2:(j+1)*n2]...)
		for k := 0; k < SZRepetitions; k++ {
			ptsB = append(ptsB, ts[full*2*n1*SZRepetitions+(2*j+1)*SZRepetitions+k])
		}
		res = append(res, reedsolomon.InterpolateWithPreprocessing(lambdas, ptsA))
		res = append(res, reedsolomon.InterpolateWithPreprocessing(lambdas, ptsB))
	}
	return res
}

// OpenAndCheck broadcasts this verifier's opened values to every other
// verifier, Berlekamp-Welch decodes the circuit output share plus, for
// every (repetition, Schwartz-Zippel point) pair, P and every batch's two
// randomized operands, and checks the output decoded to zero and that
// every decoded P equals the sum of its batches' decoded operand
// products. Disagreeing shares are logged, not treated as fatal.
//
// Grounded on tn3/verifier.cpp's open_all_and_check.
func OpenAndCheck(p *player.Player, params Params, myShares []byte, n1 int, log *zap.Logger) (bool, error) {
	if err := p.SendAll(myShares, false, 0); err != nil {
		return false, err
	}
	raw, err := p.RecvFromAll(false, 0)
	if err != nil {
		return false, err
	}
	raw[p.Idx] = myShares

	readers := make([]*bitio.GFReader, params.N)
	for i := 1; i <= params.N; i++ {
		readers[i-1] = bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(raw[i]))
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
				return field.Elem{}, false, fmt.Errorf("tn3proof: reading %s shares: %w", label, err)
			}
			shares[j] = e
		}
		poly, cheaters, err := reedsolomon.Decode(xcoords, shares, params.T, params.T)
		if err != nil {
			log.Warn("invalid sharing", zap.String("context", label), zap.Error(err))
			return params.Field.Zero(), false, nil
		}
		cheatlog.Report(log, label, cheaters)
		return poly[0], true, nil
	}

	outWire, okOut, err := decodeOne("output wire")
	if err != nil {
		return false, err
	}
	ok := okOut && outWire.IsZero()

	for i := 0; i < FullRepetitions*SZRepetitions; i++ {
		pVal, okP, err := decodeOne("P")
		if err != nil {
			return false, err
		}
		abVerif := params.Field.Zero()
		for j := 0; j < n1; j++ {
			aVal, okA, err := decodeOne("A(zeta)")
			if err != nil {
				return false, err
			}
			bVal, okB, err := decodeOne("B(zeta)")
			if err != nil {
				return false, err
			}
			okP = okP && okA && okB
			abVerif = abVerif.Add(aVal.Mul(bVal))
		}
		ok = ok && okP && pVal.Equal(abVerif)
	}
	return ok, nil
}

// Verify runs one verifier's side of the TN3 protocol against part1 and
// part2 of the prover's broadcast proof and this verifier's own
// preprocessing share, coordinating the final opening round over p.
//
// Grounded on tn3/verifier.cpp's main().
func Verify(c *circuit.Circuit, params Params, n2 int, part1, part2 []byte, preproc bitio.BitReader, p *player.Player, log *zap.Logger) (bool, error) {
	preprocessing := bitio.NewGFReader(params.Field, preproc)

	gen, err := prng.NewFromEntropy(uint32(p.Idx))
	if err != nil {
		return false, err
	}
	if err := p.CommitOpenSeed(gen, 0); err != nil {
		return false, err
	}
	zetas := make([]field.Elem, FullRepetitions*SZRepetitions)
	for i := range zetas {
		for {
			zetas[i] = params.Field.Random(gen)
			if zetas[i].Uint64() >= uint64(n2) {
				break
			}
		}
	}

	seed := hash.Sum(part1)
	proof1 := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(part1))
	proof2 := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(part2))

	oShare, A, B, C, err := EvaluateCircuit(c, preprocessing, proof1)
	if err != nil {
		return false, err
	}
	n1 := (len(A) + n2 - 1) / n2
	for len(A) < n1*n2 {
		A = append(A, params.Field.Zero())
		B = append(B, params.Field.Zero())
		C = append(C, params.Field.Zero())
	}

	ts := make([]field.Elem, 2*n1*FullRepetitions*SZRepetitions)
	for i := range ts {
		mask, err := preprocessing.Next()
		if err != nil {
			return false, err
		}
		diff, err := proof1.Next()
		if err != nil {
			return false, err
		}
		ts[i] = mask.Sub(diff)
	}

	rsGen := prng.New()
	rsGen.SetSeedFromRandom(seed)
	rs := make([]field.Elem, n1*FullRepetitions)
	for i := range rs {
		rs[i] = params.Field.Random(rsGen)
	}

	openWriter := bitio.NewBufferBitWriter()
	open := bitio.NewGFWriter(params.Field, openWriter)
	open.Next(oShare)

	for full := 0; full < FullRepetitions; full++ {
		ps, err := GetP(C, rs, proof2, preprocessing, n1, n2, full)
		if err != nil {
			return false, err
		}
		for z := 0; z < SZRepetitions; z++ {
			for _, pt := range Verification(A, B, ps, rs, ts, n1, n2, full, zetas[full*SZRepetitions+z]) {
				open.Next(pt)
			}
		}
	}

	return OpenAndCheck(p, params, openWriter.Drain(), n1, log)
}
