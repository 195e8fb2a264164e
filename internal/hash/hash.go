// Package hash provides the one-shot SHA-256 digest used throughout the
// protocol (Fiat-Shamir seeding outside the rolling bitio transcript, and
// the tn3 flavour's whole-message hash), per spec.md §4.B.
package hash

import "github.com/minio/sha256-simd"

// Size is the digest length in bytes.
const Size = sha256.Size

// Sum returns SHA-256(data).
func Sum(data []byte) [Size]byte {
	return sha256.Sum256(data)
}
