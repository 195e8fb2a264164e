// Package reedsolomon implements polynomial evaluation, encoding,
// Lagrange interpolation (with preprocessing), polynomial division, and
// Berlekamp-Welch decoding over a field.Field, per spec.md §4.E/§4.F.
package reedsolomon

import (
	"errors"

	"github.com/feta-zk/feta/internal/field"
)

// Errors mirror the reference's invalid_sharing cases (§4.F), each
// recoverable at the protocol level per spec.md §7 item 4.
var (
	ErrLinearSystemInconsistent = errors.New("reedsolomon: linear system is inconsistent")
	ErrDivisionByZeroPolynomial = errors.New("reedsolomon: division by zero polynomial")
	ErrOutputDegreeTooLarge     = errors.New("reedsolomon: output degree too large")
	ErrNonZeroRemainder         = errors.New("reedsolomon: non-zero remainder after polynomial division")
)

// PolyEval evaluates poly (coefficient i is the coefficient of x^i) at x via
// Horner's method, left to right from the highest-degree coefficient.
func PolyEval(poly []field.Elem, x field.Elem) field.Elem {
	if len(poly) == 0 {
		panic("reedsolomon: PolyEval on empty polynomial")
	}
	f := poly[0].Field()
	acc := f.Zero()
	for i := len(poly) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(poly[i])
	}
	return acc
}

// Encode evaluates the degree-D polynomial msg (len(msg) == D+1) at every
// point in xs.
func Encode(xs []field.Elem, msg []field.Elem) []field.Elem {
	out := make([]field.Elem, len(xs))
	for i, x := range xs {
		out[i] = PolyEval(msg, x)
	}
	return out
}

// InterpolatePreprocess computes, for a fixed set of x-coordinates xs and a
// target point x, the Lagrange basis coefficients
// lambda_i = prod_{j!=i} (x - xs_j) / (xs_i - xs_j).
// Splitting this from InterpolateWithPreprocessing lets callers reuse the
// same lambda vector across many y-vectors sharing xs and x (as the proof
// flavours do once per verification point).
func InterpolatePreprocess(xs []field.Elem, x field.Elem) []field.Elem {
	f := xs[0].Field()
	lambdas := make([]field.Elem, len(xs))
	for i, xi := range xs {
		num := f.One()
		den := f.One()
		for j, xj := range xs {
			if i == j {
				continue
			}
			num = num.Mul(x.Sub(xj))
			den = den.Mul(xi.Sub(xj))
		}
		lambdas[i] = num.Mul(den.Inv())
	}
	return lambdas
}

// InterpolateWithPreprocessing returns sum_i lambda_i * ys_i.
func InterpolateWithPreprocessing(lambdas, ys []field.Elem) field.Elem {
	f := ys[0].Field()
	acc := f.Zero()
	for i, l := range lambdas {
		acc = acc.Add(l.Mul(ys[i]))
	}
	return acc
}

// Interpolate evaluates the unique degree-(len(xs)-1) polynomial through
// (xs_i, ys_i) at x, without reusing a precomputed lambda vector.
func Interpolate(xs, ys []field.Elem, x field.Elem) field.Elem {
	return InterpolateWithPreprocessing(InterpolatePreprocess(xs, x), ys)
}

func trueDegree(p []field.Elem) int {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsZero() {
			return i
		}
	}
	return -1
}

// PolyDiv divides f by g (both coefficient-i-is-coeff-of-x^i), returning
// the quotient. maxQuotientDegree bounds the expected output degree (the
// reference's "Output degree too large" check): if f's true degree exceeds
// g's true degree by more than maxQuotientDegree, division is rejected
// before it is attempted.
func PolyDiv(f, g []field.Elem, maxQuotientDegree int) ([]field.Elem, error) {
	gd := trueDegree(g)
	if gd < 0 {
		return nil, ErrDivisionByZeroPolynomial
	}
	fd := trueDegree(f)
	if fd < 0 {
		zero := make([]field.Elem, maxQuotientDegree+1)
		for i := range zero {
			zero[i] = g[0].Field().Zero()
		}
		return zero, nil
	}
	if fd < gd {
		return nil, ErrNonZeroRemainder
	}
	if fd-gd > maxQuotientDegree {
		return nil, ErrOutputDegreeTooLarge
	}

	fl := g[0].Field()
	remainder := make([]field.Elem, fd+1)
	copy(remainder, f[:fd+1])
	quotient := make([]field.Elem, maxQuotientDegree+1)
	for i := range quotient {
		quotient[i] = fl.Zero()
	}

	invLead := g[gd].Inv()
	for d := fd; d >= gd; d-- {
		if remainder[d].IsZero() {
			continue
		}
		coeff := remainder[d].Mul(invLead)
		quotient[d-gd] = coeff
		for i := 0; i <= gd; i++ {
			remainder[d-gd+i] = remainder[d-gd+i].Sub(coeff.Mul(g[i]))
		}
	}
	for i := 0; i < gd; i++ {
		if !remainder[i].IsZero() {
			return nil, ErrNonZeroRemainder
		}
	}
	return quotient, nil
}

// PolyMul returns the product of a and b as a slice of len(a)+len(b)-1
// coefficients.
func PolyMul(a, b []field.Elem) []field.Elem {
	f := a[0].Field()
	out := make([]field.Elem, len(a)+len(b)-1)
	for i := range out {
		out[i] = f.Zero()
	}
	for i, av := range a {
		if av.IsZero() {
			continue
		}
		for j, bv := range b {
			out[i+j] = out[i+j].Add(av.Mul(bv))
		}
	}
	return out
}
