// Package logproof implements the "Log" proof flavour: the prover reduces
// its whole batch of multiplication triples to a single inner-product claim
// via Fiat-Shamir randomization, then repeatedly halves the batch by
// committing to and compressing a product polynomial, in O(log(batch size))
// communication rounds — the scheme's namesake. Grounded on
// original_source/log/{config.h,common.cpp,prover.cpp,verifier.cpp}.
package logproof

import (
	"github.com/feta-zk/feta/internal/circuit"
	"github.com/feta-zk/feta/internal/field"
)

// Compression is the number of multiplication-triple terms the compress
// round combines at a time. The reference only implements the
// COMPRESSION==2 case — recover_final_coefficient has no general solution
// for larger values, "needs solving a linear system in the general case" —
// so this is kept as a package constant rather than a Params field, exactly
// matching the reference's fixed choice.
const Compression = 2

// Params fixes the network size, corruption threshold, and the two field
// widths one proof run operates over: ShareField for masked circuit wires,
// CheckField (a strict extension of ShareField, reached via Lift) for the
// multiplication-consistency checks. This replaces the reference's
// compile-time template parameters N, T, K, K_EXT — Go generics cannot be
// parametrized over integers the way C++ templates are, so these become
// ordinary runtime values, per spec.md §9.
type Params struct {
	N, T                   int
	ShareField, CheckField *field.Field
	Lift                   *field.LiftBasis // embeds ShareField into CheckField
}

// XCoords returns {lift(1), ..., lift(N)}, the fixed coordinate convention
// both prover-side preprocessing and the final opening share Berlekamp-
// Welch decode.
func (p Params) XCoords() []field.Elem {
	xs := make([]field.Elem, p.N)
	for i := range xs {
		xs[i] = p.Lift.Lift(p.ShareField.FromUint64(uint64(i + 1)))
	}
	return xs
}

// RequiredCounts returns the number of ShareField and CheckField elements
// Prove/Verify will consume from the preprocessing stream for circuit c:
// one ShareField mask per input bit and per AND gate, plus 3 CheckField
// masks for the zero-knowledge triple and 2*Compression-2 more per
// compression round, one per published product-polynomial coefficient
// (each round halves the AND-gate-plus-ZK-triple batch, Compression at a
// time, until a single pair remains). A driver reads exactly this many
// elements out of a party's share file before handing the rest of the
// stream to another proof run.
func RequiredCounts(c *circuit.Circuit) (nShare, nCheck int) {
	inputBits := 0
	for i := 0; i < c.NumInputs(); i++ {
		inputBits += c.NumIWires(i)
	}
	numAND := c.NumAND()
	nShare = inputBits + numAND

	numTriples := numAND + 1
	rounds := 0
	for numTriples > 1 {
		numTriples = (numTriples + Compression - 1) / Compression
		rounds++
	}
	nCheck = 3 + (2*Compression-2)*rounds
	return nShare, nCheck
}
