package tn4proof

import (
	"go.uber.org/zap"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/cheatlog"
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// ComputeCombinations reconstructs this verifier's share of every wire
// from its own preprocessing and the prover's masked proof, then, for
// every AND gate, folds that gate's operand shares into Repetitions
// independent random linear combinations using a seed every verifier
// agrees on via a commit-then-reveal coin flip. It returns the circuit
// output share followed by each repetition's (A - C) share, the two
// quantities the final opening round checks are both zero.
//
// Grounded on tn4/verifier.cpp's compute_combinations.
func ComputeCombinations(p *player.Player, c *circuit.Circuit, proof, preprocessing *bitio.GFReader, params Params) ([]field.Elem, error) {
	gen, err := prng.NewFromEntropy(uint32(p.Idx))
	if err != nil {
		return nil, err
	}
	if err := p.CommitOpenSeed(gen, 0); err != nil {
		return nil, err
	}

	wires := make([]field.Elem, 0, c.NWires)
	for i := 0; i < c.NumInputs(); i++ {
		for j := 0; j < c.NumIWires(i); j++ {
			mask, err := preprocessing.Next()
			if err != nil {
				return nil, err
			}
			diff, err := proof.Next()
			if err != nil {
				return nil, err
			}
			wires = append(wires, mask.Sub(diff))
		}
	}

	A := make([]field.Elem, params.Repetitions)
	C := make([]field.Elem, params.Repetitions)
	for i := range A {
		A[i] = params.Field.Zero()
		C[i] = params.Field.Zero()
	}

	var evalErr error
	circOut, err := circuit.EvalCustom(c, wires,
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
	if err != nil {
		return nil, err
	}
	if evalErr != nil {
		return nil, evalErr
	}

	res := make([]field.Elem, 0, 1+params.Repetitions)
	res = append(res, circOut)
	for j := 0; j < params.Repetitions; j++ {
		res = append(res, A[j].Sub(C[j]))
	}
	return res, nil
}

// Validate broadcasts myShares to every other verifier, Berlekamp-Welch
// decodes the circuit output (degree T, consistent with a plain share)
// and each repetition's (A - C) value (degree 2T, since it combines two
// multiplied shares), and checks both decode to zero. Disagreeing shares
// are logged, not treated as fatal.
//
// Grounded on tn4/verifier.cpp's validate.
func Validate(p *player.Player, params Params, myShares []field.Elem, log *zap.Logger) (bool, error) {
	w := bitio.NewBufferBitWriter()
	gw := bitio.NewGFWriter(params.Field, w)
	for _, e := range myShares {
		gw.Next(e)
	}
	myBytes := w.Drain()

	if err := p.SendAll(myBytes, false, 0); err != nil {
		return false, err
	}
	raw, err := p.RecvFromAll(false, 0)
	if err != nil {
		return false, err
	}
	raw[p.Idx] = myBytes

	readers := make([]*bitio.GFReader, params.N)
	for i := 1; i <= params.N; i++ {
		readers[i-1] = bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(raw[i]))
	}
	xcoords := params.XCoords()

	populate := func() ([]field.Elem, error) {
		shares := make([]field.Elem, params.N)
		for j, r := range readers {
			e, err := r.Next()
			if err != nil {
				return nil, err
			}
			shares[j] = e
		}
		return shares, nil
	}

	// A sharing the decoder rejects is only evidence of cheating: it is
	// logged, the opening counts as failed, and the remaining openings
	// still run. Unreadable share streams stay fatal (I/O class).
	ok := true
	outShares, err := populate()
	if err != nil {
		return false, err
	}
	circOut, cheaters, err := reedsolomon.Decode(xcoords, outShares, params.T, params.T)
	if err != nil {
		log.Warn("invalid sharing", zap.String("context", "output reconstruction"), zap.Error(err))
		ok = false
	} else {
		cheatlog.Report(log, "output reconstruction", cheaters)
		ok = ok && circOut[0].IsZero()
	}

	for j := 0; j < params.Repetitions; j++ {
		shares, err := populate()
		if err != nil {
			return false, err
		}
		amc, cheaters, err := reedsolomon.Decode(xcoords, shares, 2*params.T, params.T)
		if err != nil {
			log.Warn("invalid sharing", zap.String("context", "reconstruction of (A - C)"), zap.Error(err))
			ok = false
			continue
		}
		cheatlog.Report(log, "reconstruction of (A - C)", cheaters)
		ok = ok && amc[0].IsZero()
	}
	return ok, nil
}

// Verify runs one verifier's side of the TN4 protocol against the
// prover's broadcast proof and this verifier's own preprocessing share,
// coordinating the final opening round over p.
//
// Grounded on tn4/verifier.cpp's main().
func Verify(c *circuit.Circuit, params Params, proofRaw []byte, preproc bitio.BitReader, p *player.Player, log *zap.Logger) (bool, error) {
	preprocessing := bitio.NewGFReader(params.Field, preproc)
	proof := bitio.NewGFReader(params.Field, bitio.NewBufferBitReader(proofRaw))
	toCheck, err := ComputeCombinations(p, c, proof, preprocessing, params)
	if err != nil {
		return false, err
	}
	return Validate(p, params, toCheck, log)
}
