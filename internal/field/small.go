package field

// buildSmallTables precomputes the full multiplication and inverse tables
// for GF(2^k), k <= 8, the "small k" path the spec calls for. The tables
// are built once per field (via the generic multiply/reduce routine) and
// memoized in the Field returned by New.
func buildSmallTables(k int, reduction []int) *smallTables {
	n := 1 << uint(k)
	mul := make([][]uint8, n)
	for a := 0; a < n; a++ {
		mul[a] = make([]uint8, n)
		for b := 0; b < n; b++ {
			lo, _ := mulReduce(k, reduction, uint64(a), 0, uint64(b), 0)
			mul[a][b] = uint8(lo)
		}
	}
	inv := make([]uint8, n)
	for a := 1; a < n; a++ {
		for b := 1; b < n; b++ {
			if mul[a][b] == 1 {
				inv[a] = uint8(b)
				break
			}
		}
	}
	return &smallTables{mul: mul, inv: inv}
}
