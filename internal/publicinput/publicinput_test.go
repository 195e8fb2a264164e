package publicinput_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feta-zk/feta/internal/publicinput"
)

func TestCommitOpenVerifyRoundTrip(t *testing.T) {
	params := publicinput.Params{
		Fingerprint: "deadbeef",
		N:           4,
		T:           1,
		BatchSize:   128,
	}

	commitment, err := publicinput.Commit(params)
	require.NoError(t, err)

	proof, y, err := commitment.Open(publicinput.FieldIndexN)
	require.NoError(t, err)

	require.NoError(t, publicinput.VerifyOpen(commitment.Commitment, publicinput.FieldIndexN, y, proof))

	blobProof, err := commitment.BlobProof()
	require.NoError(t, err)
	require.NoError(t, publicinput.VerifyBlob(commitment.Blob, commitment.Commitment, blobProof))
}

func TestDifferentParamsProduceDifferentCommitments(t *testing.T) {
	a, err := publicinput.Commit(publicinput.Params{Fingerprint: "aa", N: 4, T: 1, BatchSize: 8})
	require.NoError(t, err)
	b, err := publicinput.Commit(publicinput.Params{Fingerprint: "aa", N: 5, T: 1, BatchSize: 8})
	require.NoError(t, err)
	require.NotEqual(t, a.Commitment, b.Commitment)
}
