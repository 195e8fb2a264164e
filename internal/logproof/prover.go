package logproof

import (
	"fmt"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// CommitAndCompress halves a batch of multiplication-triple operands: it
// interpolates each consecutive pair of (x,y) points into a degree-1
// polynomial, multiplies the two polynomials to get a degree-2 product
// polynomial per pair, sums those into one combined product polynomial,
// masks every coefficient but the leading one against
// preprocessing and writes the masked values to output, draws a
// Fiat-Shamir challenge r over everything written so far, and returns the
// product polynomial evaluated at r along with the two halved point sets
// (the new operands for the next round). The last pair is zero-padded when
// the batch size is odd.
//
// Grounded on log/prover.cpp's commit_and_compress.
func CommitAndCompress(xs, ys []field.Elem, preprocessing *bitio.GFReader, output *bitio.GFWriter, outwriter *bitio.HashableBufferBitWriter, gen *prng.PRNG) (field.Elem, []field.Elem, []field.Elem, error) {
	f := xs[0].Field()
	numElem := len(xs)
	productPoly := make([]field.Elem, 2*Compression-1)
	for i := range productPoly {
		productPoly[i] = f.Zero()
	}
	addProduct := func(xPts, yPts [Compression]field.Elem) {
		px := interpolatePoly2(xPts)
		py := interpolatePoly2(yPts)
		prod := reedsolomon.PolyMul(px[:], py[:])
		for i, v := range prod {
			productPoly[i] = productPoly[i].Add(v)
		}
	}
	i := 0
	for ; i+Compression <= numElem; i += Compression {
		var xPts, yPts [Compression]field.Elem
		copy(xPts[:], xs[i:i+Compression])
		copy(yPts[:], ys[i:i+Compression])
		addProduct(xPts, yPts)
	}
	if i < numElem {
		var xPts, yPts [Compression]field.Elem
		for j := 0; i+j < numElem; j++ {
			xPts[j] = xs[i+j]
			yPts[j] = ys[i+j]
		}
		for j := numElem - i; j < Compression; j++ {
			xPts[j] = f.Zero()
			yPts[j] = f.Zero()
		}
		addProduct(xPts, yPts)
	}

	// The first 2*Compression-2 coefficients cross the wire, masked; the
	// leading one stays implicit — the verifier recovers it from the
	// running sum invariant sum_{e<Compression} poly(e) == z. (In
	// characteristic 2 that invariant cancels the constant coefficient,
	// so the constant term cannot be left implicit as well.)
	for i := 0; i < len(productPoly)-1; i++ {
		pre, err := preprocessing.Next()
		if err != nil {
			return field.Elem{}, nil, nil, err
		}
		output.Next(pre.Sub(productPoly[i]))
	}

	outwriter.HashSeed(gen)
	r := f.Random(gen)

	var newxs, newys []field.Elem
	preproc := reedsolomon.InterpolatePreprocess([]field.Elem{f.Zero(), f.One()}, r)
	i = 0
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

// Prove evaluates circ on privateInput, masking every input bit and AND-gate
// output against a fresh preprocessing share, then collapses the resulting
// batch of multiplication triples (one per AND gate, plus one random
// zero-knowledge triple) to a single pair via repeated CommitAndCompress
// rounds. The returned bytes are everything a verifier needs beyond its own
// preprocessing share and the circuit itself.
//
// Grounded on log/prover.cpp's main().
func Prove(c *circuit.Circuit, privateInput bitio.BitReader, params Params, preproc bitio.BitReader) ([]byte, error) {
	preprocessing := bitio.NewGFReader(params.ShareField, preproc)
	preprocessingC := bitio.NewGFReader(params.CheckField, preproc)
	outputWriter := bitio.NewHashableBufferBitWriter()
	output := bitio.NewGFWriter(params.ShareField, outputWriter)

	wires := make([]bool, 0, c.NWires)
	for i := 0; i < c.NumInputs(); i++ {
		for j := 0; j < c.NumIWires(i); j++ {
			bit, err := privateInput.GetBit()
			if err != nil {
				return nil, fmt.Errorf("logproof: reading private input: %w", err)
			}
			mask, err := preprocessing.Next()
			if err != nil {
				return nil, err
			}
			inpElem := params.ShareField.Zero()
			if bit {
				inpElem = params.ShareField.One()
			}
			output.Next(mask.Sub(inpElem))
			wires = append(wires, bit)
		}
	}

	var A, B, C []field.Elem
	var evalErr error
	toCheck := func(bb bool) field.Elem {
		if bb {
			return params.CheckField.One()
		}
		return params.CheckField.Zero()
	}
	result, err := circuit.EvalCustom(c, wires,
		func(a, b bool) bool { return a != b },
		func(a, b bool) bool {
			mask, err := preprocessing.Next()
			if err != nil {
				evalErr = err
				return false
			}
			and := a && b
			andElem := params.ShareField.Zero()
			if and {
				andElem = params.ShareField.One()
			}
			output.Next(mask.Sub(andElem))
			A = append(A, toCheck(a))
			B = append(B, toCheck(b))
			C = append(C, toCheck(and))
			return and
		},
		func(a bool) bool { return !a },
	)
	if err != nil {
		return nil, err
	}
	if evalErr != nil {
		return nil, evalErr
	}
	if result {
		return nil, fmt.Errorf("logproof: circuit did not evaluate to 0 on this witness")
	}

	checkwriter := bitio.NewGFWriter(params.CheckField, outputWriter)
	seed, err := deriveZKSeed(c.Fingerprint(), params.N, params.T, params.ShareField.K, params.CheckField.K)
	if err != nil {
		return nil, err
	}
	gen := prng.New()
	gen.SeedFrom(seed)

	// A single extra random triple hides the real last triple behind noise
	// once the compression rounds collapse everything to one pair.
	a := params.CheckField.Random(gen)
	b := params.CheckField.Random(gen)
	ab := a.Mul(b)
	preA, err := preprocessingC.Next()
	if err != nil {
		return nil, err
	}
	checkwriter.Next(preA.Sub(a))
	preB, err := preprocessingC.Next()
	if err != nil {
		return nil, err
	}
	checkwriter.Next(preB.Sub(b))
	preC, err := preprocessingC.Next()
	if err != nil {
		return nil, err
	}
	checkwriter.Next(preC.Sub(ab))
	A = append(A, a)
	B = append(B, b)
	C = append(C, ab)

	outputWriter.HashSeed(gen)
	RandomizeToInnerProduct(A, C, gen)
	for len(A) > 1 {
		_, newA, newB, err := CommitAndCompress(A, B, preprocessingC, checkwriter, outputWriter, gen)
		if err != nil {
			return nil, err
		}
		A, B = newA, newB
	}

	return outputWriter.Drain(), nil
}
