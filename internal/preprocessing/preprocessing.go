// Package preprocessing implements the offline correlated-randomness phase
// shared by all three proof flavours, per spec.md §4.J: every party jointly
// samples SECRETS_TO_SAMPLE random degree-T polynomials per field, checks
// consistency via random linear combinations opened through Berlekamp-Welch
// style interpolation, and extends the surviving secrets with a Vandermonde
// matrix into the final per-player share file.
//
// Grounded on original_source/preprocessing.cpp (sample_shares,
// check_linear_combinations, compute_Vandermonde, main).
package preprocessing

import (
	"fmt"

	"github.com/feta-zk/feta/internal/bitio"
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/player"
	"github.com/feta-zk/feta/internal/prng"
	"github.com/feta-zk/feta/internal/reedsolomon"
)

// Params carries the compile-time constants the reference fixes at build
// time (N, T and the number of linear-combination repetitions for whichever
// field is currently being processed).
type Params struct {
	N, T, Repetitions int
}

// SampleShares has every party other than the prover sample numSamples
// random degree-T polynomials; the constant term goes (signed) to the
// prover, and player p's evaluation at xcoords[p-1] goes to player p. The
// prover only ever receives. Returns secrets[sample][playerIdx-1].
//
// The exchange order (send to lower, receive from higher, send to higher
// descending, receive from lower skipping the prover) is the deadlock-free
// pattern spec.md §4.J/§5 requires for genuine all-to-all exchange.
func SampleShares(p *player.Player, gen *prng.PRNG, f *field.Field, params Params, numSamples int, xcoords []field.Elem) ([][]field.Elem, error) {
	secrets := make([][]field.Elem, numSamples)
	for i := range secrets {
		secrets[i] = make([]field.Elem, params.N)
		for j := range secrets[i] {
			secrets[i][j] = f.Zero()
		}
	}

	doReceive := func(from int) error {
		raw, err := p.RecvFrom(from, true)
		if err != nil {
			return fmt.Errorf("preprocessing: receiving shares from player %d: %w", from, err)
		}
		reader := bitio.NewGFReader(f, bitio.NewBufferBitReader(raw))
		for i := 0; i < numSamples; i++ {
			e, err := reader.Next()
			if err != nil {
				return err
			}
			secrets[i][from-1] = e
		}
		return nil
	}

	if p.Idx == 0 {
		for pl := 1; pl <= params.N; pl++ {
			if err := doReceive(pl); err != nil {
				return nil, err
			}
		}
		return secrets, nil
	}

	writers := make([]*bitio.BufferBitWriter, params.N+1)
	gfWriters := make([]*bitio.GFWriter, params.N+1)
	for i := range writers {
		writers[i] = bitio.NewBufferBitWriter()
		gfWriters[i] = bitio.NewGFWriter(f, writers[i])
	}

	for i := 0; i < numSamples; i++ {
		poly := make([]field.Elem, params.T+1)
		for j := range poly {
			poly[j] = f.Random(gen)
		}
		gfWriters[0].Next(poly[0])

		shares := reedsolomon.Encode(xcoords, poly)
		for pl := 1; pl <= params.N; pl++ {
			if pl == p.Idx {
				secrets[i][pl-1] = shares[pl-1]
			} else {
				gfWriters[pl].Next(shares[pl-1])
			}
		}
	}

	for pl := 0; pl < p.Idx; pl++ {
		if err := p.SendTo(pl, writers[pl].Drain(), true); err != nil {
			return nil, fmt.Errorf("preprocessing: sending shares to player %d: %w", pl, err)
		}
	}
	for pl := p.Idx + 1; pl <= params.N; pl++ {
		if err := doReceive(pl); err != nil {
			return nil, err
		}
	}
	for pl := params.N; pl > p.Idx; pl-- {
		if err := p.SendTo(pl, writers[pl].Drain(), true); err != nil {
			return nil, fmt.Errorf("preprocessing: sending shares to player %d: %w", pl, err)
		}
	}
	for pl := 1; pl < p.Idx; pl++ {
		if err := doReceive(pl); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// CheckLinearCombinations runs the commit-then-open coin flip, has every
// party broadcast params.Repetitions random linear combinations of its
// sampled secrets, and has every verifier reconstruct each combination from
// the first T+1 shares, cross-checking it against the remaining N-T-1
// shares and against the prover's own broadcast combination.
//
// onInconsistent, if non-nil, is called (not treated as fatal, per spec.md
// §7 class 4) whenever a verifier's share of a combination disagrees with
// the T+1-share reconstruction.
func CheckLinearCombinations(p *player.Player, gen *prng.PRNG, f *field.Field, params Params, secrets [][]field.Elem, secretsToSample int, xcoords []field.Elem, onInconsistent func(repetition int)) (bool, error) {
	if err := p.CommitOpenSeed(gen, -1); err != nil {
		return false, err
	}

	lincombWriter := bitio.NewBufferBitWriter()
	lincombs := bitio.NewGFWriter(f, lincombWriter)
	for r := 0; r < params.Repetitions; r++ {
		comb := f.Zero()
		for i := 0; i < secretsToSample; i++ {
			for j := 1; j <= params.N; j++ {
				coeff := f.Random(gen)
				comb = comb.Add(coeff.Mul(secrets[i][j-1]))
			}
		}
		lincombs.Next(comb)
	}
	myCombinations := lincombWriter.Drain()

	if err := p.SendAll(myCombinations, false, -1); err != nil {
		return false, err
	}
	sharesRaw, err := p.RecvFromAll(false, 0)
	if err != nil {
		return false, err
	}

	var expectedRaw []byte
	if p.Idx == 0 {
		expectedRaw = myCombinations
	} else {
		expectedRaw, err = p.RecvFrom(0, false)
		if err != nil {
			return false, err
		}
		sharesRaw[p.Idx] = myCombinations
	}

	shares := make([]*bitio.GFReader, params.N)
	for pl := 1; pl <= params.N; pl++ {
		shares[pl-1] = bitio.NewGFReader(f, bitio.NewBufferBitReader(sharesRaw[pl]))
	}
	expectedReader := bitio.NewGFReader(f, bitio.NewBufferBitReader(expectedRaw))

	interpXcoords := xcoords[:params.T+1]
	interpPre := make([][]field.Elem, 0, params.N-params.T)
	for i := params.T + 1; i < params.N; i++ {
		interpPre = append(interpPre, reedsolomon.InterpolatePreprocess(interpXcoords, xcoords[i]))
	}
	interpPre = append(interpPre, reedsolomon.InterpolatePreprocess(interpXcoords, f.Zero()))

	ok := true
	for i := 0; i < params.Repetitions; i++ {
		d := make([]field.Elem, params.T+1)
		for pl := 0; pl < params.T+1; pl++ {
			e, err := shares[pl].Next()
			if err != nil {
				return false, err
			}
			d[pl] = e
		}
		for pl := params.T + 1; pl < params.N; pl++ {
			toCheck, err := shares[pl].Next()
			if err != nil {
				return false, err
			}
			recon := reedsolomon.InterpolateWithPreprocessing(interpPre[pl-params.T-1], d)
			if !toCheck.Equal(recon) && onInconsistent != nil {
				onInconsistent(i)
			}
		}
		opened := reedsolomon.InterpolateWithPreprocessing(interpPre[len(interpPre)-1], d)
		expected, err := expectedReader.Next()
		if err != nil {
			return false, err
		}
		if !opened.Equal(expected) {
			ok = false
		}
	}
	return ok, nil
}

// ComputeVandermonde extends the N per-sample secrets into (N-T)*numSamples
// pseudorandom outputs via the fixed Vandermonde combination
// res[i*(N-T)+j] = sum_{l=1}^{N} (j+1)^l * secrets[i][l-1].
func ComputeVandermonde(f *field.Field, secrets [][]field.Elem, numSamples, n, t int) []field.Elem {
	res := make([]field.Elem, (n-t)*numSamples)
	for i := range res {
		res[i] = f.Zero()
	}
	for i := 0; i < numSamples; i++ {
		for j := 0; j < n-t; j++ {
			coeff := f.FromUint64(uint64(j + 1))
			for _, s := range secrets[i] {
				res[i*(n-t)+j] = res[i*(n-t)+j].Add(coeff.Mul(s))
				coeff = coeff.Mul(f.FromUint64(uint64(j + 1)))
			}
		}
	}
	return res
}

// Run executes the full per-field preprocessing pipeline (sample, check,
// extend) and returns the first nout final output elements.
func Run(p *player.Player, gen *prng.PRNG, f *field.Field, params Params, nout int, xcoords []field.Elem, onInconsistent func(int)) ([]field.Elem, error) {
	secretsToSample := (nout + params.Repetitions + (params.N - params.T - 1)) / (params.N - params.T)

	secrets, err := SampleShares(p, gen, f, params, secretsToSample, xcoords)
	if err != nil {
		return nil, err
	}
	ok, err := CheckLinearCombinations(p, gen, f, params, secrets, secretsToSample, xcoords, onInconsistent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("preprocessing: linear combinations are incorrect")
	}
	out := ComputeVandermonde(f, secrets, secretsToSample, params.N, params.T)
	if len(out) > nout {
		out = out[:nout]
	}
	return out, nil
}

// BaseXCoords returns {lift(1), ..., lift(n)} for the base field itself
// (the identity lift, since the base field is its own coordinate space).
func BaseXCoords(f *field.Field, n int) []field.Elem {
	xs := make([]field.Elem, n)
	for i := range xs {
		xs[i] = f.FromUint64(uint64(i + 1))
	}
	return xs
}

// ExtXCoords returns {lift(1), ..., lift(n)} embedded into the extension
// field via lb, matching coord_for_ext in preprocessing.cpp's main().
func ExtXCoords(lb *field.LiftBasis, n int) []field.Elem {
	xs := make([]field.Elem, n)
	for i := range xs {
		xs[i] = lb.Lift(lb.Sub.FromUint64(uint64(i + 1)))
	}
	return xs
}
