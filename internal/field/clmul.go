package field

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// This file implements carry-less (GF(2)[x]) polynomial multiplication and
// reduction. The product of two k-bit operands is assembled into a 256-bit
// uint256.Int buffer: a single 64x64 carry-less multiply when k <= 64, or
// the four 64x64 multiplies of the (a0 + a1*X)(b0 + b1*X) decomposition
// (X = x^64) when k > 64. No CLMUL hardware instruction is reachable from
// pure Go without cgo, so the 64x64 primitive is a bit-sliced loop; it is
// functionally identical to the hardware path.

// clmul64 returns the 128-bit carry-less product of a and b.
func clmul64(a, b uint64) (hi, lo uint64) {
	for ; b != 0; b &= b - 1 {
		sh := uint(bits.TrailingZeros64(b))
		lo ^= a << sh
		if sh != 0 {
			hi ^= a >> (64 - sh)
		}
	}
	return hi, lo
}

// mulReduce multiplies two k-bit operands (each split into low/high words)
// and reduces the product modulo x^k + sum(x^a for a in reduction) + 1.
// Reduction folds the top half down through the identity
// x^k = 1 + sum(x^a) until nothing overflows: the first fold can itself
// overflow k by up to max(a) bits, so a second pass may be needed; for
// the low-weight polynomials in use two passes settle it. A final mask
// enforces the storage invariant that bits >= k are zero.
func mulReduce(k int, reduction []int, alo, ahi, blo, bhi uint64) (lo, hi uint64) {
	prod := new(uint256.Int)
	if k <= 64 {
		h, l := clmul64(alo, blo)
		prod[0], prod[1] = l, h
	} else {
		h, l := clmul64(alo, blo)
		prod[0] ^= l
		prod[1] ^= h
		h, l = clmul64(alo, bhi)
		prod[1] ^= l
		prod[2] ^= h
		h, l = clmul64(ahi, blo)
		prod[1] ^= l
		prod[2] ^= h
		h, l = clmul64(ahi, bhi)
		prod[2] ^= l
		prod[3] ^= h
	}

	mask := lowBitsMask(k)
	top := new(uint256.Int)
	shifted := new(uint256.Int)
	for {
		top.Rsh(prod, uint(k))
		if top.IsZero() {
			break
		}
		prod.And(prod, mask)
		prod.Xor(prod, top) // the constant term of the reduction polynomial
		for _, a := range reduction {
			prod.Xor(prod, shifted.Lsh(top, uint(a)))
		}
	}
	prod.And(prod, mask)
	return prod[0], prod[1]
}

// lowBitsMask returns a uint256 with the low k bits set.
func lowBitsMask(k int) *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), uint(k))
	return m.SubUint64(m, 1)
}
