// Package commitment implements the hash commitment scheme used by PRF
// setup (spec 4.1) and coin-tossing (spec 4.9): commit to a payload with a
// fresh nonce, open later, and let the verifier recompute and compare.
package commitment

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// NonceSize is the size, in bytes, of the fresh randomness mixed into every
// commitment.
const NonceSize = 32

// Commitment is the value broadcast in the first round of a commit-open
// exchange; Nonce and Payload are only revealed in the opening round.
type Commitment struct {
	Digest  [32]byte
	Nonce   [NonceSize]byte
	Payload []byte
}

// Commit hashes payload together with a freshly sampled nonce, returning
// the digest to broadcast now and the full Commitment to keep for the
// opening round.
func Commit(payload []byte) (digest [32]byte, c Commitment, err error) {
	var nonce [NonceSize]byte
	if _, err = rand.Read(nonce[:]); err != nil {
		return digest, c, fmt.Errorf("commitment: sampling nonce: %w", err)
	}
	d := digestOf(payload, nonce[:])
	c = Commitment{Digest: d, Nonce: nonce, Payload: append([]byte(nil), payload...)}
	return d, c, nil
}

// Verify recomputes the digest of (payload, nonce) and compares it in
// constant time against the previously broadcast digest. A mismatch is the
// InvalidCommitment error condition of spec 7, attributed by the caller to
// the specific party whose opening failed.
func Verify(broadcastDigest [32]byte, payload []byte, nonce [NonceSize]byte) bool {
	got := digestOf(payload, nonce[:])
	return subtle.ConstantTimeCompare(got[:], broadcastDigest[:]) == 1
}

func digestOf(payload, nonce []byte) [32]byte {
	h := blake3.New()
	_, _ = h.Write(payload)
	_, _ = h.Write(nonce)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Opening is the payload/nonce pair a commitment's second round reveals.
type Opening struct {
	Payload []byte
	Nonce   [NonceSize]byte
}

// digestEnvelope and openingEnvelope are the cbor wire forms of a batch of
// independent commitments broadcast together (pkg/corrprf's three PRF
// seeds): encoding the whole batch as one structured message avoids the
// hand-rolled fixed-offset slicing a flat byte concatenation would need.
type digestEnvelope struct {
	Digests [][32]byte
}

type openingEnvelope struct {
	Payloads [][]byte
	Nonces   [][NonceSize]byte
}

// MarshalDigests cbor-encodes the digests of a batch of commitments for
// broadcast in a commit-open exchange's first round.
func MarshalDigests(cs []Commitment) ([]byte, error) {
	env := digestEnvelope{Digests: make([][32]byte, len(cs))}
	for i, c := range cs {
		env.Digests[i] = c.Digest
	}
	buf, err := cbor.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("commitment: encoding digest envelope: %w", err)
	}
	return buf, nil
}

// UnmarshalDigests decodes a batch of digests produced by MarshalDigests.
func UnmarshalDigests(buf []byte) ([][32]byte, error) {
	var env digestEnvelope
	if err := cbor.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("commitment: decoding digest envelope: %w", err)
	}
	return env.Digests, nil
}

// MarshalOpenings cbor-encodes the openings of a batch of commitments for a
// commit-open exchange's second round.
func MarshalOpenings(cs []Commitment) ([]byte, error) {
	env := openingEnvelope{
		Payloads: make([][]byte, len(cs)),
		Nonces:   make([][NonceSize]byte, len(cs)),
	}
	for i, c := range cs {
		env.Payloads[i] = c.Payload
		env.Nonces[i] = c.Nonce
	}
	buf, err := cbor.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("commitment: encoding opening envelope: %w", err)
	}
	return buf, nil
}

// UnmarshalOpenings decodes a batch of openings produced by MarshalOpenings.
func UnmarshalOpenings(buf []byte) ([]Opening, error) {
	var env openingEnvelope
	if err := cbor.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("commitment: decoding opening envelope: %w", err)
	}
	if len(env.Payloads) != len(env.Nonces) {
		return nil, fmt.Errorf("commitment: opening envelope has mismatched payload/nonce counts")
	}
	out := make([]Opening, len(env.Payloads))
	for i := range out {
		out[i] = Opening{Payload: env.Payloads[i], Nonce: env.Nonces[i]}
	}
	return out, nil
}
