// Package tn4proof implements the "TN4" proof flavour: the simplest of
// the three, and the only one that needs no Schwartz-Zippel batching or
// logarithmic compression — every AND gate's masked operands are opened
// by folding them into REPETITIONS independent random linear
// combinations in a single pass, at the cost of needing N >= 4T+1
// verifiers rather than 3T+1. Grounded on
// original_source/tn4/{config.h,prover.cpp,verifier.cpp}.
package tn4proof

import (
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
)

// Params fixes the network size, corruption threshold, and the field
// every share and check operates in, plus the number of independent
// random linear combinations to fold each AND gate's consistency check
// into. The reference ties this to a fixed statistical security target
// (40 bits) divided by the field's bit width at compile time
// ((40+K-1)/K); DefaultRepetitions computes the same thing at runtime
// for a field of any width, since Go can't parametrize a type by K the
// way the reference's templates do.
type Params struct {
	N, T, Repetitions int
	Field             *field.Field
}

// DefaultRepetitions returns the number of repetitions needed for roughly
// 40 bits of statistical security when each repetition contributes K
// bits, matching the reference's REPETITIONS = (40+K-1)/K.
func DefaultRepetitions(f *field.Field) int {
	const securityBits = 40
	return (securityBits + f.K - 1) / f.K
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

// RequiredCount returns the number of Field elements Prove/ComputeCombinations
// consume from the preprocessing stream for circuit c: one mask per input
// bit and one per AND gate, with no batching or padding.
func RequiredCount(c *circuit.Circuit) int {
	inputBits := 0
	for i := 0; i < c.NumInputs(); i++ {
		inputBits += c.NumIWires(i)
	}
	return inputBits + c.NumAND()
}
