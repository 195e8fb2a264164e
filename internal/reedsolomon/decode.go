package reedsolomon

import "github.com/feta-zk/feta/internal/field"

// Decode runs Berlekamp-Welch decoding to recover the unique degree-D
// polynomial consistent with at least len(xs)-e of the (xs, shares) pairs,
// where e <= maxErrors. It returns the recovered coefficients (index i is
// the coefficient of x^i, length D+1) and the 1-indexed player numbers
// whose shares disagree with the recovered polynomial (the detected
// cheaters): player p holds the share at xs[p-1], so a mismatch at slice
// index i names player i+1, the convention cheatlog.Report expects.
//
// Unlike the reference implementation, xs is always an explicit argument:
// there is no package-level "xcoords_init" cache keyed by N, matching
// spec.md §9's redesign note that the default-xcoords global must become a
// per-call argument.
func Decode(xs, shares []field.Elem, degree, maxErrors int) (poly []field.Elem, cheaters []int, err error) {
	need := degree + 2*maxErrors + 1
	if len(xs) < need || len(shares) < need {
		return nil, nil, ErrLinearSystemInconsistent
	}

	f1, f2, err := berlekampWelchSolve(xs[:need], shares[:need], degree, maxErrors)
	if err != nil {
		return nil, nil, err
	}

	poly, err = PolyDiv(f1, f2, degree)
	if err != nil {
		return nil, nil, err
	}

	for i, x := range xs {
		if !PolyEval(poly, x).Equal(shares[i]) {
			cheaters = append(cheaters, i+1)
		}
	}
	return poly, cheaters, nil
}

// berlekampWelchSolve builds and solves the Berlekamp-Welch linear system
// for unknowns f1_0..f1_{D+E} and f2_1..f2_E (f2_0 is fixed to 1), per
// spec.md §4.F:
//
//	f1(x_i) - y_i * sum_{j=1}^E f2_j x_i^j = y_i   for each sample i.
func berlekampWelchSolve(xs, ys []field.Elem, degree, maxErrors int) (f1, f2 []field.Elem, err error) {
	n := degree + 2*maxErrors + 1
	fl := xs[0].Field()

	a := make([][]field.Elem, n)
	b := make([]field.Elem, n)
	for i := 0; i < n; i++ {
		row := make([]field.Elem, n)
		xi := xs[i]
		yi := ys[i]

		pow := fl.One()
		for j := 0; j <= degree+maxErrors; j++ {
			row[j] = pow
			pow = pow.Mul(xi)
		}

		pow = xi // start at x_i^1
		for j := 1; j <= maxErrors; j++ {
			row[degree+maxErrors+j] = yi.Mul(pow)
			pow = pow.Mul(xi)
		}

		a[i] = row
		b[i] = yi
	}

	sol, err := solveLinearSystem(a, b)
	if err != nil {
		return nil, nil, err
	}

	f1 = sol[:degree+maxErrors+1]
	f2 = make([]field.Elem, maxErrors+1)
	f2[0] = fl.One()
	copy(f2[1:], sol[degree+maxErrors+1:])
	return f1, f2, nil
}
