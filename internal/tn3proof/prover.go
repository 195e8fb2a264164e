package tn3proof

import (
	"fmt"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/hash"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// Prove evaluates circ on privateInput, masking every input bit and
// AND-gate output against a fresh preprocessing share, then batches the
// resulting AND operand pairs into groups of n2 and runs FullRepetitions
// independent Schwartz-Zippel consistency checks over them.
//
// It returns the proof in the same two pieces the reference sends to every
// verifier: part1 (sent immediately; its hash seeds the rs challenge) and
// part2 (sent once the rs-dependent check values are computed). Splitting
// the return this way — rather than one combined slice — lets the caller
// replicate the reference's send-before-fully-done pipelining if desired;
// a caller that doesn't care can simply send both before receiving
// anything, as this repo's own cmd/prove-tn3 does (it sends both parts in
// one length-prefixed message).
//
// Grounded on tn3/prover.cpp's main().
func Prove(c *circuit.Circuit, privateInput bitio.BitReader, params Params, n2 int, preproc bitio.BitReader) (part1, part2 []byte, err error) {
	if n2 <= 0 {
		return nil, nil, fmt.Errorf("tn3proof: batch size must be positive, got %d", n2)
	}

	preprocessing := bitio.NewGFReader(params.Field, preproc)
	part1Writer := bitio.NewBufferBitWriter()
	output := bitio.NewGFWriter(params.Field, part1Writer)

	wires := make([]bool, 0, c.NWires)
	for i := 0; i < c.NumInputs(); i++ {
		for j := 0; j < c.NumIWires(i); j++ {
			bit, err := privateInput.GetBit()
			if err != nil {
				return nil, nil, fmt.Errorf("tn3proof: reading private input: %w", err)
			}
			mask, err := preprocessing.Next()
			if err != nil {
				return nil, nil, err
			}
			inpElem := params.Field.Zero()
			if bit {
				inpElem = params.Field.One()
			}
			output.Next(mask.Sub(inpElem))
			wires = append(wires, bit)
		}
	}

	toElem := func(bb bool) field.Elem {
		if bb {
			return params.Field.One()
		}
		return params.Field.Zero()
	}

	var A, B []field.Elem
	var evalErr error
	result, err := circuit.EvalCustom(c, wires,
		func(a, b bool) bool { return a != b },
		func(a, b bool) bool {
			mask, err := preprocessing.Next()
			if err != nil {
				evalErr = err
				return false
			}
			and := a && b
			output.Next(mask.Sub(toElem(and)))
			A = append(A, toElem(a))
			B = append(B, toElem(b))
			return and
		},
		func(a bool) bool { return !a },
	)
	if err != nil {
		return nil, nil, err
	}
	if evalErr != nil {
		return nil, nil, evalErr
	}
	if result {
		return nil, nil, fmt.Errorf("tn3proof: circuit did not evaluate to 0 on this witness")
	}

	n1 := (len(A) + n2 - 1) / n2
	for len(A) < n1*n2 {
		A = append(A, params.Field.Zero())
		B = append(B, params.Field.Zero())
	}

	// Extra Schwartz-Zippel evaluation points, masked the same way the
	// real operands were, padding every per-batch interpolation.
	tsGen, err := prng.NewFromEntropy(0)
	if err != nil {
		return nil, nil, err
	}
	ts := make([]field.Elem, 2*n1*FullRepetitions*SZRepetitions)
	for i := range ts {
		ts[i] = params.Field.Random(tsGen)
		mask, err := preprocessing.Next()
		if err != nil {
			return nil, nil, err
		}
		output.Next(mask.Sub(ts[i]))
	}

	part1 = part1Writer.Drain()
	seed := hash.Sum(part1)
	rsGen := prng.New()
	rsGen.SetSeedFromRandom(seed)
	rs := make([]field.Elem, n1*FullRepetitions)
	for i := range rs {
		rs[i] = params.Field.Random(rsGen)
	}

	domain := domainPoints(params.Field, n2+SZRepetitions)
	lambdas := make([][]field.Elem, n2+2*SZRepetitions)
	for i := range lambdas {
		lambdas[i] = reedsolomon.InterpolatePreprocess(domain, params.Field.FromUint64(uint64(n2+i)))
	}

	part2Writer := bitio.NewBufferBitWriter()
	output2 := bitio.NewGFWriter(params.Field, part2Writer)
	for full := 0; full < FullRepetitions; full++ {
		ps := make([]field.Elem, n2+2*SZRepetitions)
		for i := range ps {
			ps[i] = params.Field.Zero()
		}
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
			for i := 0; i < n2+2*SZRepetitions; i++ {
				va := reedsolomon.InterpolateWithPreprocessing(lambdas[i], ptsA)
				vb := reedsolomon.InterpolateWithPreprocessing(lambdas[i], ptsB)
				ps[i] = ps[i].Add(va.Mul(vb))
			}
		}
		for _, p := range ps {
			pre, err := preprocessing.Next()
			if err != nil {
				return nil, nil, err
			}
			output2.Next(pre.Sub(p))
		}
	}

	return part1, part2Writer.Drain(), nil
}
