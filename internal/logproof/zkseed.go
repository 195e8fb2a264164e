package logproof

import (
	"crypto/rand"
	"encoding/binary"

	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"github.com/minio/sha256-simd"
)

// deriveZKSeed derives the seed for the masking multiplication triple added
// on top of the real ones so the final opening hides the genuine last
// compression round's operands behind a random one, per spec.md's
// zero-knowledge requirement. It binds the circuit's fingerprint and the
// run's parameters into a Fiat-Shamir transcript — domain-separating this
// seed from every other challenge drawn over the course of the protocol —
// then folds in fresh OS randomness so the seed is only predictable to
// someone who already knew it.
func deriveZKSeed(fingerprint string, n, t, k, kExt int) ([32]byte, error) {
	ts := fiatshamir.NewTranscript(sha256.New(), "zk-mask")
	params := make([]byte, 16)
	binary.BigEndian.PutUint32(params[0:4], uint32(n))
	binary.BigEndian.PutUint32(params[4:8], uint32(t))
	binary.BigEndian.PutUint32(params[8:12], uint32(k))
	binary.BigEndian.PutUint32(params[12:16], uint32(kExt))
	if err := ts.Bind("zk-mask", []byte(fingerprint)); err != nil {
		return [32]byte{}, err
	}
	if err := ts.Bind("zk-mask", params); err != nil {
		return [32]byte{}, err
	}
	challenge, err := ts.ComputeChallenge("zk-mask")
	if err != nil {
		return [32]byte{}, err
	}
	var entropy [32]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return [32]byte{}, err
	}
	var seed [32]byte
	for i := range seed {
		seed[i] = entropy[i] ^ challenge[i%len(challenge)]
	}
	return seed, nil
}
