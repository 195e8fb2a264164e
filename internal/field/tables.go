package field

import (
	"math/big"
	"sync"
)

// knownReductions hardcodes the canonical low-weight reduction polynomials
// for the small widths K=2..8 (among them K=3, K=4 for the TN4/Log share
// fields and the lift-identity test vectors, and K=8 to match the literal
// test vector in the project's field-sanity property). Wider widths, such
// as K=27/K_EXT=87 for TN3/Log, are not listed here and come from the
// lowest-weight search. Entries are the exponents strictly between 0 and K
// that carry a coefficient of 1, in descending order.
//
// K=8 is pinned to x^8+x^4+x^3+x+1 (the AES modulus, 0x11B) rather than a
// blind lowest-weight search result: the field-sanity property
// 0x53 * 0xCA = 0x01 under inv(0x53) = 0xCA holds against exactly this
// polynomial, the same entry the reference's reduction_polynomial table
// carries at k=8.
var knownReductions = map[int][]int{
	2: {1},
	3: {1},
	4: {1},
	5: {2},
	6: {1},
	7: {1},
	8: {4, 3, 1},
}

// reductionExponents returns the degree-k irreducible reduction polynomial's
// interior exponents, either from the hardcoded table above or, for any
// other k, by searching ascending trinomials then pentanomials and testing
// irreducibility via Rabin's algorithm. The search is deterministic and
// memoized per k by the caller (Field.New holds the field-level cache; this
// function additionally caches across Field instances that share a k).
func reductionExponents(k int) []int {
	if e, ok := knownReductions[k]; ok {
		return e
	}

	exponentCacheMu.Lock()
	if e, ok := exponentCache[k]; ok {
		exponentCacheMu.Unlock()
		return e
	}
	exponentCacheMu.Unlock()

	var found []int
	for a := 1; a < k && found == nil; a++ {
		if isIrreducible(k, []int{a}) {
			found = []int{a}
		}
	}
	if found == nil {
		for a := 1; a < k && found == nil; a++ {
			for b := a + 1; b < k && found == nil; b++ {
				for c := b + 1; c < k && found == nil; c++ {
					if isIrreducible(k, []int{c, b, a}) {
						found = []int{c, b, a}
					}
				}
			}
		}
	}
	if found == nil {
		// Every field degree has an irreducible pentanomial or better; this
		// should not happen for k <= 128.
		panic("field: no low-weight irreducible polynomial found for k=" + itoa(k))
	}

	exponentCacheMu.Lock()
	exponentCache[k] = found
	exponentCacheMu.Unlock()
	return found
}

var (
	exponentCacheMu sync.Mutex
	exponentCache   = map[int][]int{}
)

func itoa(n int) string {
	return big.NewInt(int64(n)).String()
}

// isIrreducible tests, via Rabin's irreducibility criterion, whether
// x^k + sum(x^exponents) + 1 is irreducible over GF(2):
//
//  1. x^(2^k) ≡ x (mod f)
//  2. for every prime q dividing k, gcd(x^(2^(k/q)) - x, f) = 1
func isIrreducible(k int, exponents []int) bool {
	f := polyFromExponents(k, exponents)
	xk := polyPowXModPow2(k, f) // x^(2^k) mod f
	x := new(big.Int).SetInt64(2)
	if xk.Cmp(x) != 0 {
		return false
	}
	for _, q := range primeFactors(k) {
		xq := polyPowXModPow2(k/q, f)
		diff := new(big.Int).Xor(xq, x)
		if polyGCDDegree(diff, f) != 0 {
			return false
		}
	}
	return true
}

func polyFromExponents(k int, exponents []int) *big.Int {
	p := new(big.Int)
	p.SetBit(p, k, 1)
	p.SetBit(p, 0, 1)
	for _, a := range exponents {
		p.SetBit(p, a, 1)
	}
	return p
}

// polyPowXModPow2 computes x^(2^e) mod f via e repeated squarings of the
// running value, starting from x.
func polyPowXModPow2(e int, f *big.Int) *big.Int {
	v := new(big.Int).SetInt64(2) // x
	for i := 0; i < e; i++ {
		v = polyMulMod(v, v, f)
	}
	return v
}

func polyMulMod(a, b, f *big.Int) *big.Int {
	prod := polyMul(a, b)
	return polyMod(prod, f)
}

func polyMul(a, b *big.Int) *big.Int {
	res := new(big.Int)
	for i := 0; i <= b.BitLen(); i++ {
		if b.Bit(i) == 1 {
			shifted := new(big.Int).Lsh(a, uint(i))
			res.Xor(res, shifted)
		}
	}
	return res
}

func polyMod(a, f *big.Int) *big.Int {
	a = new(big.Int).Set(a)
	deg := f.BitLen() - 1
	for a.BitLen()-1 >= deg {
		shift := (a.BitLen() - 1) - deg
		shifted := new(big.Int).Lsh(f, uint(shift))
		a.Xor(a, shifted)
	}
	return a
}

func polyGCDDegree(a, b *big.Int) int {
	a = new(big.Int).Set(a)
	b = new(big.Int).Set(b)
	for b.Sign() != 0 {
		a = polyMod(a, b)
		a, b = b, a
	}
	if a.Sign() == 0 {
		return -1
	}
	return a.BitLen() - 1
}

func primeFactors(n int) []int {
	var fs []int
	d := 2
	for d*d <= n {
		if n%d == 0 {
			fs = append(fs, d)
			for n%d == 0 {
				n /= d
			}
		}
		d++
	}
	if n > 1 {
		fs = append(fs, n)
	}
	return fs
}
