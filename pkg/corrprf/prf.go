// Package corrprf implements the correlated-randomness PRF subsystem (spec
// 3.4, 4.1): three keyed streams per party (one shared with the next party,
// one shared with the previous party, one shared publicly by all three),
// set up once via a commit-open exchange and then read for the lifetime of
// the session.
package corrprf

import (
	"crypto/cipher"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/irisprotocol/iris3pc/pkg/commitment"
	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
)

const seedSize = chacha20.KeySize // 32 bytes

// PRF bundles the three keyed streams a party can draw from after setup.
type PRF struct {
	self   party.ID
	next   cipher.Stream // shared with self.Next()
	prev   cipher.Stream // shared with self.Prev()
	public cipher.Stream // shared by all three
}

// Setup runs the commit-open exchange of spec 4.1: each party samples three
// fresh seeds (one per stream it contributes to), broadcasts commitments,
// then broadcasts openings; the final seed of each stream is the XOR of its
// contributors' openings. An opening that doesn't match its earlier
// commitment is attributed to the offending party via InvalidCommitment.
func Setup(net network.Network) (*PRF, error) {
	self := net.ID()

	var seedToNext, seedToPrev, seedPublic [seedSize]byte
	if err := randRead(seedToNext[:]); err != nil {
		return nil, err
	}
	if err := randRead(seedToPrev[:]); err != nil {
		return nil, err
	}
	if err := randRead(seedPublic[:]); err != nil {
		return nil, err
	}

	// Round 1: broadcast commitments to (seedToNext, seedToPrev, seedPublic).
	_, cNext, err := commitment.Commit(seedToNext[:])
	if err != nil {
		return nil, err
	}
	_, cPrev, err := commitment.Commit(seedToPrev[:])
	if err != nil {
		return nil, err
	}
	_, cPub, err := commitment.Commit(seedPublic[:])
	if err != nil {
		return nil, err
	}

	digests, err := broadcastCommitments(net, [3]commitment.Commitment{cNext, cPrev, cPub})
	if err != nil {
		return nil, err
	}

	// Round 2: broadcast the openings.
	openings, err := broadcastOpenings(net, [3]commitment.Commitment{cNext, cPrev, cPub})
	if err != nil {
		return nil, err
	}

	for _, id := range party.All() {
		if id == self {
			continue
		}
		for slot := 0; slot < 3; slot++ {
			op := openings[id][slot]
			if !commitment.Verify(digests[id][slot], op.Payload, op.Nonce) {
				return nil, mpcerr.Newf(mpcerr.ErrInvalidCommitment, []party.ID{id},
					"opening for slot %d did not match its commitment", slot)
			}
		}
	}

	// Combine: stream(self, self.Next()) = self's seedToNext XOR next's seedToPrev.
	// stream(self.Prev(), self) = self's seedToPrev XOR prev's seedToNext.
	// public stream = XOR of all three seedPublic contributions.
	nextSeed := xor(seedToNext[:], openings[self.Next()][1].Payload)
	prevSeed := xor(seedToPrev[:], openings[self.Prev()][0].Payload)
	pubSeed := xor(xor(seedPublic[:], openings[self.Next()][2].Payload), openings[self.Prev()][2].Payload)

	nextStream, err := newStream(nextSeed)
	if err != nil {
		return nil, err
	}
	prevStream, err := newStream(prevSeed)
	if err != nil {
		return nil, err
	}
	pubStream, err := newStream(pubSeed)
	if err != nil {
		return nil, err
	}

	return &PRF{self: self, next: nextStream, prev: prevStream, public: pubStream}, nil
}

// openingSlots mirrors the three seeds each party opens, in the order
// (seedToNext, seedToPrev, seedPublic).
type openingSlots = [3]commitment.Commitment

func broadcastCommitments(net network.Network, mine openingSlots) (map[party.ID]openingSlots, error) {
	payload, err := commitment.MarshalDigests(mine[:])
	if err != nil {
		return nil, err
	}
	got, err := net.Broadcast(payload)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]openingSlots, 3)
	for id, buf := range got {
		digests, err := commitment.UnmarshalDigests(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: commitment broadcast from %s: %s", mpcerr.ErrInvalidMessageSize, id, err)
		}
		if len(digests) != 3 {
			return nil, fmt.Errorf("%w: commitment broadcast from %s", mpcerr.ErrInvalidMessageSize, id)
		}
		var slots openingSlots
		for i := 0; i < 3; i++ {
			slots[i].Digest = digests[i]
		}
		out[id] = slots
	}
	return out, nil
}

func broadcastOpenings(net network.Network, mine openingSlots) (map[party.ID]openingSlots, error) {
	payload, err := commitment.MarshalOpenings(mine[:])
	if err != nil {
		return nil, err
	}
	got, err := net.Broadcast(payload)
	if err != nil {
		return nil, err
	}
	out := make(map[party.ID]openingSlots, 3)
	for id, buf := range got {
		openings, err := commitment.UnmarshalOpenings(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: opening broadcast from %s: %s", mpcerr.ErrInvalidMessageSize, id, err)
		}
		if len(openings) != 3 {
			return nil, fmt.Errorf("%w: opening broadcast from %s", mpcerr.ErrInvalidMessageSize, id)
		}
		var slots openingSlots
		for i := 0; i < 3; i++ {
			slots[i].Payload = openings[i].Payload
			slots[i].Nonce = openings[i].Nonce
		}
		out[id] = slots
	}
	return out, nil
}

func newStream(seed []byte) (cipher.Stream, error) {
	var nonce [chacha20.NonceSize]byte
	s, err := chacha20.NewUnauthenticatedCipher(seed, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("corrprf: building stream: %w", err)
	}
	return s, nil
}

func xor(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func draw(s cipher.Stream, w ringelem.Width) ringelem.Element {
	n := w.Bytes()
	buf := make([]byte, n)
	s.XORKeyStream(buf, buf)
	e, err := ringelem.Unmarshal(w, buf)
	if err != nil {
		panic(err) // n is always exactly w.Bytes(), so this cannot fail
	}
	return e
}

// Gen1 draws a ring element from the stream shared with the next party.
func (p *PRF) Gen1(w ringelem.Width) ringelem.Element { return draw(p.next, w) }

// Gen2 draws a ring element from the stream shared with the previous party.
func (p *PRF) Gen2(w ringelem.Width) ringelem.Element { return draw(p.prev, w) }

// GenPublic draws a ring element from the all-three public stream.
func (p *PRF) GenPublic(w ringelem.Width) ringelem.Element { return draw(p.public, w) }

// ZeroShareAdditive returns this party's component of a fresh additive
// zero-share: r_i - r_{i-1}, which sums to zero across the three parties
// once every party has drawn its own Gen1/Gen2 pair for this round (spec
// 3.4 gen_zero_share).
func (p *PRF) ZeroShareAdditive(w ringelem.Width) ringelem.Element {
	return p.Gen1(w).Sub(p.Gen2(w))
}

// ZeroShareXOR returns the XOR analog of ZeroShareAdditive, used when
// re-randomizing bit shares after a local AND (spec 3.4).
func (p *PRF) ZeroShareXOR(w ringelem.Width) ringelem.Element {
	return p.Gen1(w).Xor(p.Gen2(w))
}
