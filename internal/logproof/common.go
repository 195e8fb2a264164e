package logproof

import (
	"github.com/feta-zk/feta/internal/field"
	"github.com/feta-zk/feta/internal/prng"
)

// RandomizeToInnerProduct turns a batch of multiplication triples
// x_i*y_i=z_i into the single inner-product claim <{r_i x_i}, {y_i}> = sum
// r_i z_i, for fresh r_i drawn from gen (already reseeded via Fiat-Shamir by
// the caller). xs is rescaled in place; the combined value is returned.
//
// Grounded on log/common.cpp's randomize_to_inner_product.
func RandomizeToInnerProduct(xs, zs []field.Elem, gen *prng.PRNG) field.Elem {
	f := xs[0].Field()
	res := f.Zero()
	for i := range xs {
		r := f.Random(gen)
		xs[i] = xs[i].Mul(r)
		res = res.Add(zs[i].Mul(r))
	}
	return res
}

func interpolatePoly2(vals [Compression]field.Elem) [Compression]field.Elem {
	return [Compression]field.Elem{vals[0], vals[1].Sub(vals[0])}
}

// recoverFinalCoefficient recovers the leading coefficient of the degree
// 2*Compression-2 product polynomial from the claimed sum
// poly(0) + poly(1) + ... + poly(Compression-1) == sum, knowing every other
// coefficient. Only the Compression==2 case is solved in closed form here,
// matching log/verifier.cpp's recover_final_coefficient.
func recoverFinalCoefficient(poly []field.Elem, sum field.Elem) field.Elem {
	return sum.Sub(poly[1])
}
