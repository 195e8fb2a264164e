// Package publicinput commits a proof run's public parameters — the
// circuit's content fingerprint, the player count, the corruption
// threshold, and the declared batch size — to a single BLS12-381 KZG blob commitment, so a verifier can pin
// down exactly which run a transcript belongs to with one short opening
// instead of trusting an out-of-band argument list.
//
// This is a [SUPPLEMENT]: the original protocol (original_source/main.cpp)
// takes N, T, K and the circuit path as bare command-line arguments with no
// binding commitment. Grounded on the donor kzg4844/contract.go precompile's
// exact go-kzg-4844 API shape (Blob/Scalar encoding, Context4096,
// BlobToKZGCommitment, ComputeKZGProof, VerifyKZGProof), see DESIGN.md and
// SPEC_FULL.md's DOMAIN STACK.
package publicinput

import (
	"encoding/binary"
	"fmt"

	gokzg4844 "github.com/crate-crypto/go-kzg-4844"
)

// ctx holds the trusted setup; it's process-global because building it is
// expensive and the setup itself is public, fixed, content-addressed data,
// mirroring the donor precompile's package-level kzgContext.
var ctx *gokzg4844.Context

func init() {
	var err error
	ctx, err = gokzg4844.NewContext4096Secure()
	if err != nil {
		ctx = nil
	}
}

// Params is the public input vector for one proof run.
type Params struct {
	// Fingerprint is the circuit's content fingerprint, as returned by
	// circuit.Circuit.Fingerprint.
	Fingerprint string
	// N is the number of verifiers (players 1..N; player 0 is the prover).
	N int
	// T is the corruption threshold.
	T int
	// BatchSize is the declared batch size: the TN3 flavour's n2 (AND-gate
	// operand pairs per batch), zero for the unbatched flavours.
	BatchSize int
}

// encode packs Params into the leading field elements of a blob. The blob
// is a flat array of 4096 32-byte big-endian scalars; each packed value
// leaves its scalar's top byte zero, keeping it safely below the BLS12-381
// scalar modulus. Scalar 0 carries the fingerprint, scalars 1-3 carry N, T
// and the batch size.
func encode(p Params) gokzg4844.Blob {
	var blob gokzg4844.Blob

	fp := []byte(p.Fingerprint)
	if len(fp) > 31 {
		fp = fp[:31]
	}
	copy(blob[1:1+len(fp)], fp)

	binary.BigEndian.PutUint64(blob[1*32+24:2*32], uint64(p.N))
	binary.BigEndian.PutUint64(blob[2*32+24:3*32], uint64(p.T))
	binary.BigEndian.PutUint64(blob[3*32+24:4*32], uint64(p.BatchSize))

	return blob
}

// Commitment is a sealed public-input commitment: the blob itself (needed to
// reproduce openings) plus its KZG commitment.
type Commitment struct {
	Blob       gokzg4844.Blob
	Commitment gokzg4844.KZGCommitment
}

// Commit builds the blob encoding of p and commits to it.
func Commit(p Params) (Commitment, error) {
	if ctx == nil {
		return Commitment{}, fmt.Errorf("publicinput: KZG trusted setup unavailable")
	}
	blob := encode(p)
	commitment, err := ctx.BlobToKZGCommitment(&blob, 0)
	if err != nil {
		return Commitment{}, fmt.Errorf("publicinput: committing blob: %w", err)
	}
	return Commitment{Blob: blob, Commitment: commitment}, nil
}

// Open produces a KZG opening proof that Commitment.Blob's polynomial
// evaluates to y at point z, which a verifier can check against the
// commitment alone without the whole blob. y depends on every packed value
// at once; no choice of z reads back a single packed field on its own.
func (c Commitment) Open(z gokzg4844.Scalar) (proof gokzg4844.KZGProof, y gokzg4844.Scalar, err error) {
	if ctx == nil {
		return gokzg4844.KZGProof{}, gokzg4844.Scalar{}, fmt.Errorf("publicinput: KZG trusted setup unavailable")
	}
	proof, y, err = ctx.ComputeKZGProof(&c.Blob, z, 0)
	if err != nil {
		return gokzg4844.KZGProof{}, gokzg4844.Scalar{}, fmt.Errorf("publicinput: computing opening proof: %w", err)
	}
	return proof, y, nil
}

// BlobProof computes the whole-blob KZG proof VerifyBlob checks, as
// distinct from Open's single-point evaluation proof.
func (c Commitment) BlobProof() (gokzg4844.KZGProof, error) {
	if ctx == nil {
		return gokzg4844.KZGProof{}, fmt.Errorf("publicinput: KZG trusted setup unavailable")
	}
	proof, err := ctx.ComputeBlobKZGProof(&c.Blob, c.Commitment, 0)
	if err != nil {
		return gokzg4844.KZGProof{}, fmt.Errorf("publicinput: computing blob proof: %w", err)
	}
	return proof, nil
}

// VerifyOpen checks an opening proof against a standalone commitment (the
// verifier's side: it never needs the full blob, only the commitment).
func VerifyOpen(commitment gokzg4844.KZGCommitment, z, y gokzg4844.Scalar, proof gokzg4844.KZGProof) error {
	if ctx == nil {
		return fmt.Errorf("publicinput: KZG trusted setup unavailable")
	}
	if err := ctx.VerifyKZGProof(commitment, z, y, proof); err != nil {
		return fmt.Errorf("publicinput: opening does not verify: %w", err)
	}
	return nil
}

// VerifyBlob checks that commitment is the correct KZG commitment to the
// full blob (the prover's self-check, or a verifier given the blob
// out-of-band).
func VerifyBlob(blob gokzg4844.Blob, commitment gokzg4844.KZGCommitment, proof gokzg4844.KZGProof) error {
	if ctx == nil {
		return fmt.Errorf("publicinput: KZG trusted setup unavailable")
	}
	if err := ctx.VerifyBlobKZGProof(&blob, commitment, proof); err != nil {
		return fmt.Errorf("publicinput: blob does not match commitment: %w", err)
	}
	return nil
}

// FieldIndexFingerprint, FieldIndexN, FieldIndexT and FieldIndexBatchSize
// are convenience evaluation points (the small integers 0..3, encoded as
// big-endian scalars) for Open/VerifyOpen: they don't target any particular
// packed field directly (the blob's polynomial mixes all of it at any z),
// but fixing one canonical point per logical field lets prover and verifier
// agree on which opening they're exchanging without extra bookkeeping.
var (
	FieldIndexFingerprint = zFromUint64(0)
	FieldIndexN           = zFromUint64(1)
	FieldIndexT           = zFromUint64(2)
	FieldIndexBatchSize   = zFromUint64(3)
)

func zFromUint64(v uint64) gokzg4844.Scalar {
	var z gokzg4844.Scalar
	binary.BigEndian.PutUint64(z[24:32], v)
	return z
}
