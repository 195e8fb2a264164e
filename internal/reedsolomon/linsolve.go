package reedsolomon

import "github.com/feta-zk/feta/internal/field"

// solveLinearSystem solves the square system a*x = b via Gauss-Jordan
// elimination with partial pivoting (the reference's detail::solve),
// returning ErrLinearSystemInconsistent if no pivot can be found in some
// column (degenerate or contradictory system) rather than attempting a
// least-squares-style fallback, matching the protocol's treatment of a bad
// decode as a detected cheat rather than an approximate answer.
func solveLinearSystem(a [][]field.Elem, b []field.Elem) ([]field.Elem, error) {
	n := len(a)
	if n == 0 {
		return nil, nil
	}

	// Work on a mutable augmented copy; row i has n coefficients plus the
	// rhs appended at index n.
	m := make([][]field.Elem, n)
	for i := range a {
		row := make([]field.Elem, n+1)
		copy(row, a[i])
		row[n] = b[i]
		m[i] = row
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for row := col; row < n; row++ {
			if !m[row][col].IsZero() {
				pivot = row
				break
			}
		}
		if pivot < 0 {
			return nil, ErrLinearSystemInconsistent
		}
		m[col], m[pivot] = m[pivot], m[col]

		invPivot := m[col][col].Inv()
		for j := col; j <= n; j++ {
			m[col][j] = m[col][j].Mul(invPivot)
		}

		for row := 0; row < n; row++ {
			if row == col || m[row][col].IsZero() {
				continue
			}
			factor := m[row][col]
			for j := col; j <= n; j++ {
				m[row][j] = m[row][j].Sub(factor.Mul(m[col][j]))
			}
		}
	}

	x := make([]field.Elem, n)
	for i := 0; i < n; i++ {
		x[i] = m[i][n]
	}
	return x, nil
}
