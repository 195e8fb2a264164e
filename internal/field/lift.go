package field

import (
	"fmt"
	"math/big"
)

// LiftBasis holds the precomputed images of the standard basis of a
// subfield GF(2^Sub.K) inside an extension GF(2^Ext.K), used to embed
// elements of Sub into Ext via Lift. Building a LiftBasis is the Go
// equivalent of the reference implementation's gflifttables.h: a table of
// basis images, computed once and reused for every Lift call.
type LiftBasis struct {
	Sub, Ext *Field
	images   []Elem // images[i] = lift of the subfield element with bit i set
}

// NewLiftBasis computes the canonical GF(2)-linear embedding of Sub into
// Ext. It requires Sub.K to divide Ext.K.
//
// Construction: find a generator g of Ext's multiplicative group (order
// 2^Ext.K - 1), then r = g^((2^Ext.K-1)/(2^Sub.K-1)) generates the unique
// subgroup of order 2^Sub.K - 1, whose elements (plus zero) form the
// canonical copy of GF(2^Sub.K) inside GF(2^Ext.K). Among the powers of r,
// exactly Sub.K are roots of Sub's own reduction polynomial; the embedding
// must send x to one of those roots, not to an arbitrary subgroup
// generator, or it would fail to commute with Sub's reduction and so fail
// to preserve multiplication. The basis images are then rho^0, rho^1, ...,
// rho^(Sub.K-1) for the first such root rho (rho^0 = 1 lifts the
// subfield's own identity, matching the identity-lift testable property).
func NewLiftBasis(sub, ext *Field) (*LiftBasis, error) {
	if ext.K%sub.K != 0 {
		return nil, fmt.Errorf("field: lift requires sub.K | ext.K, got %d and %d", sub.K, ext.K)
	}
	if sub.K == ext.K {
		images := make([]Elem, sub.K)
		for i := range images {
			bits := make([]bool, sub.K)
			bits[i] = true
			images[i] = ext.FromBits(bits)
		}
		return &LiftBasis{Sub: sub, Ext: ext, images: images}, nil
	}

	order := new(big.Int).Lsh(big.NewInt(1), uint(ext.K))
	order.Sub(order, big.NewInt(1)) // 2^Ext.K - 1

	subOrder := new(big.Int).Lsh(big.NewInt(1), uint(sub.K))
	subOrder.Sub(subOrder, big.NewInt(1)) // 2^Sub.K - 1

	g, err := findGenerator(ext, order)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).Div(order, subOrder)
	r := powBig(g, exp)

	rho, err := findSubfieldRoot(sub, ext, r, subOrder)
	if err != nil {
		return nil, err
	}

	images := make([]Elem, sub.K)
	acc := ext.One()
	for i := 0; i < sub.K; i++ {
		images[i] = acc
		acc = acc.Mul(rho)
	}
	return &LiftBasis{Sub: sub, Ext: ext, images: images}, nil
}

// findSubfieldRoot walks the subgroup generated by r (order 2^sub.K - 1)
// looking for a root of sub's reduction polynomial p_sub. Exactly sub.K of
// the subgroup's elements are roots, so the walk always terminates well
// before exhausting the subgroup for the small sub.K values the protocol
// flavours use.
func findSubfieldRoot(sub, ext *Field, r Elem, subOrder *big.Int) (Elem, error) {
	p := sub.ReductionPoly()
	cand := r
	for j := new(big.Int).SetInt64(1); j.Cmp(subOrder) < 0; j.Add(j, big.NewInt(1)) {
		if evalPolyAt(p, cand, ext).IsZero() {
			return cand, nil
		}
		cand = cand.Mul(r)
	}
	return Elem{}, fmt.Errorf("field: no root of GF(2^%d)'s reduction polynomial in GF(2^%d)", sub.K, ext.K)
}

// evalPolyAt evaluates the GF(2)-coefficient polynomial p (a big.Int
// bitmask) at the extension-field element x.
func evalPolyAt(p *big.Int, x Elem, ext *Field) Elem {
	acc := ext.Zero()
	for i := p.BitLen() - 1; i >= 0; i-- {
		acc = acc.Mul(x)
		if p.Bit(i) == 1 {
			acc = acc.Add(ext.One())
		}
	}
	return acc
}

// Lift embeds e (an element of lb.Sub) into lb.Ext.
func (lb *LiftBasis) Lift(e Elem) Elem {
	res := lb.Ext.Zero()
	bits := e.ToBits()
	for i, b := range bits {
		if b {
			res = res.Add(lb.images[i])
		}
	}
	return res
}

// findGenerator finds an element of Ext whose multiplicative order is
// exactly `order` (= 2^Ext.K - 1), by trial small integers and checking
// g^(order/q) != 1 for every prime factor q of order found via trial
// division up to a bound. A cofactor left after the bound is treated as a
// (possibly composite) prime for the purpose of this check; in the worst
// case this accepts an element of order a proper divisor of `order` sharing
// all tested factors, which would only matter if that cofactor itself
// shares a factor with order/cofactor - vanishingly unlikely for the
// Mersenne-like numbers 2^k-1 relevant here and immaterial since NewLiftBasis
// only ever builds the specific (sub,ext) pairs this project's protocol
// flavours use.
func findGenerator(f *Field, order *big.Int) (Elem, error) {
	factors := trialFactors(new(big.Int).Set(order), 1<<20)
	for candidate := uint64(2); candidate < 1<<16; candidate++ {
		g := f.FromUint64(candidate)
		if g.IsZero() {
			continue
		}
		ok := true
		for _, q := range factors {
			exp := new(big.Int).Div(order, q)
			if powBig(g, exp).Equal(f.One()) {
				ok = false
				break
			}
		}
		if ok {
			return g, nil
		}
	}
	return Elem{}, fmt.Errorf("field: failed to find a generator of GF(2^%d)*", f.K)
}

// trialFactors returns the distinct prime factors of n discoverable by
// trial division up to bound, plus the remaining cofactor (if > 1) as a
// final "factor" even when it may itself be composite.
func trialFactors(n *big.Int, bound int64) []*big.Int {
	var factors []*big.Int
	d := big.NewInt(2)
	for d.Int64() < bound {
		q, r := new(big.Int), new(big.Int)
		q.DivMod(n, d, r)
		if r.Sign() == 0 {
			factors = append(factors, new(big.Int).Set(d))
			for r.Sign() == 0 {
				n = q
				q, r = new(big.Int), new(big.Int)
				q.DivMod(n, d, r)
			}
		}
		d.Add(d, big.NewInt(1))
	}
	if n.Cmp(big.NewInt(1)) > 0 {
		factors = append(factors, n)
	}
	return factors
}

func powBig(e Elem, n *big.Int) Elem {
	result := e.f.One()
	base := e
	bit := 0
	for bit < n.BitLen() {
		if n.Bit(bit) == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		bit++
	}
	return result
}
