// Package tn3proof implements the "TN3" proof flavour: the prover batches
// its AND-gate operands into groups of a caller-chosen size n2, then proves
// consistency of each batch's pairwise products via Schwartz-Zippel checks
// over FullRepetitions independent random linear combinations, each sampled
// at SZRepetitions random evaluation points. Unlike the Log flavour, a
// single field width carries both shares and checks — there is no lift
// into an extension field. Grounded on
// original_source/tn3/{config.h,prover.cpp,verifier.cpp}.
package tn3proof

import (
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
)

const (
	// FullRepetitions is the number of independent random linear
	// combinations (rho in the reference) taken of each batch.
	FullRepetitions = 3
	// SZRepetitions is the number of Schwartz-Zippel evaluation points
	// (sigma in the reference) sampled per repetition.
	SZRepetitions = 2
)

// Params fixes the network size, corruption threshold, and the single
// field every share and check operates in — the reference's compile-time
// N, T, K become ordinary runtime values, per spec.md §9.
type Params struct {
	N, T  int
	Field *field.Field
}

// XCoords returns {1, ..., N}, the fixed coordinate convention the final
// opening's Berlekamp-Welch decode uses.
func (p Params) XCoords() []field.Elem {
	xs := make([]field.Elem, p.N)
	for i := range xs {
		xs[i] = p.Field.FromUint64(uint64(i + 1))
	}
	return xs
}

// RequiredCount returns the number of Field elements Prove/Verify consume
// from the preprocessing stream for circuit c and batch size n2: one mask
// per input bit and per AND gate, then 2*n1*FullRepetitions*SZRepetitions
// zero-knowledge padding masks (n1 = ceil(numAND/n2), each padding point
// masked as if it were its own (x, y) operand pair), then
// FullRepetitions*(n2+2*SZRepetitions) masks for the per-repetition check
// polynomial coefficients.
func RequiredCount(c *circuit.Circuit, n2 int) int {
	inputBits := 0
	for i := 0; i < c.NumInputs(); i++ {
		inputBits += c.NumIWires(i)
	}
	numAND := c.NumAND()
	n1 := (numAND + n2 - 1) / n2
	if n1 == 0 {
		n1 = 1
	}
	return inputBits + numAND + 2*n1*FullRepetitions*SZRepetitions + FullRepetitions*(n2+2*SZRepetitions)
}

// domainPoints returns {0, 1, ..., n-1}, the implicit interpolation domain
// the reference's single-argument interpolate()/interpolate_preprocess()
// overloads assume.
func domainPoints(f *field.Field, n int) []field.Elem {
	xs := make([]field.Elem, n)
	for i := range xs {
		xs[i] = f.FromUint64(uint64(i))
	}
	return xs
}
