package commitment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/commitment"
)

func TestCommitVerifyRoundTrip(t *testing.T) {
	payload := []byte("seed material")
	digest, c, err := commitment.Commit(payload)
	require.NoError(t, err)
	require.Equal(t, digest, c.Digest)
	require.True(t, commitment.Verify(digest, c.Payload, c.Nonce))
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	digest, c, err := commitment.Commit([]byte("seed material"))
	require.NoError(t, err)
	require.False(t, commitment.Verify(digest, []byte("different"), c.Nonce))
}

func TestDigestEnvelopeRoundTrip(t *testing.T) {
	var cs []commitment.Commitment
	for _, p := range [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")} {
		_, c, err := commitment.Commit(p)
		require.NoError(t, err)
		cs = append(cs, c)
	}

	buf, err := commitment.MarshalDigests(cs)
	require.NoError(t, err)
	digests, err := commitment.UnmarshalDigests(buf)
	require.NoError(t, err)
	require.Len(t, digests, 3)
	for i, c := range cs {
		require.Equal(t, c.Digest, digests[i])
	}
}

func TestOpeningEnvelopeRoundTrip(t *testing.T) {
	var cs []commitment.Commitment
	for _, p := range [][]byte{[]byte("seed-a"), []byte("seed-bb")} {
		_, c, err := commitment.Commit(p)
		require.NoError(t, err)
		cs = append(cs, c)
	}

	buf, err := commitment.MarshalOpenings(cs)
	require.NoError(t, err)
	openings, err := commitment.UnmarshalOpenings(buf)
	require.NoError(t, err)
	require.Len(t, openings, 2)
	for i, c := range cs {
		require.Equal(t, c.Payload, openings[i].Payload)
		require.Equal(t, c.Nonce, openings[i].Nonce)
		require.True(t, commitment.Verify(c.Digest, openings[i].Payload, openings[i].Nonce))
	}
}
