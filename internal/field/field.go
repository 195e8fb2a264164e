// Package field implements binary extension field arithmetic GF(2^k) for
// 2 <= k <= 128. Elements are polynomials over GF(2) reduced modulo a fixed
// irreducible polynomial p_k of degree k; addition and subtraction are XOR,
// multiplication is carry-less product followed by modular reduction.
package field

import (
	"fmt"
	"math/big"
	"sync"
)

// Field describes GF(2^k): its width and reduction polynomial, plus any
// precomputed tables needed to make arithmetic fast.
type Field struct {
	K int // field degree, 2 <= K <= 128

	// reduction holds the exponents of the nonzero terms of p_K(x) strictly
	// between 0 and K (i.e. not including x^K or the constant 1, both of
	// which are always present). A trinomial has one entry, a pentanomial
	// three.
	reduction []int

	// small holds precomputed mult/inverse tables for K <= 8. small.mul is
	// indexed [a][b]; small.inv is indexed [a] (inv[0] is unused/undefined).
	small *smallTables
}

type smallTables struct {
	mul [][]uint8
	inv []uint8
}

var (
	cacheMu sync.Mutex
	cache   = map[int]*Field{}
)

// New returns the field GF(2^k), building and memoizing its reduction
// polynomial and (for k<=8) its lookup tables on first use.
func New(k int) (*Field, error) {
	if k < 2 || k > 128 {
		return nil, fmt.Errorf("field: k=%d out of supported range [2,128]", k)
	}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if f, ok := cache[k]; ok {
		return f, nil
	}
	f := &Field{K: k, reduction: reductionExponents(k)}
	if k <= 8 {
		f.small = buildSmallTables(k, f.reduction)
	}
	cache[k] = f
	return f, nil
}

// MustNew is New but panics on error; used for package-level field constants
// whose k is a compile-time literal known to be valid.
func MustNew(k int) *Field {
	f, err := New(k)
	if err != nil {
		panic(err)
	}
	return f
}

// ReductionPoly returns p_K(x) = x^K + sum_{a in exponents} x^a + 1 as a
// big.Int bitmask (bit i set means x^i has coefficient 1), including the
// x^K and constant terms.
func (f *Field) ReductionPoly() *big.Int {
	p := new(big.Int)
	p.SetBit(p, f.K, 1)
	p.SetBit(p, 0, 1)
	for _, a := range f.reduction {
		p.SetBit(p, a, 1)
	}
	return p
}

func (f *Field) String() string {
	return fmt.Sprintf("GF(2^%d)", f.K)
}
