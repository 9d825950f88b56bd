package commitment

import (
	"crypto/rand"
	"fmt"

	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
)

// CoinToss runs the one-round commit-open exchange of spec 4.9: each party
// samples a fresh ring element, broadcasts a commitment to it, then
// broadcasts the opening; the agreed challenge is the XOR of all three
// contributions. corrprf.Setup runs the identical shape to combine PRF
// seeds (three slots per party instead of the one this needs) — this is
// the same commit-open pattern applied to a single Fiat-Shamir-style
// challenge rather than a stream key. An opening that doesn't match its
// earlier commitment is attributed to the offending party via
// InvalidCommitment, same as corrprf.Setup.
func CoinToss(net network.Network, w ringelem.Width) (ringelem.Element, error) {
	self := net.ID()

	buf := make([]byte, w.Bytes())
	if _, err := rand.Read(buf); err != nil {
		return ringelem.Element{}, fmt.Errorf("commitment: sampling coin toss contribution: %w", err)
	}
	mine, err := ringelem.Unmarshal(w, buf)
	if err != nil {
		return ringelem.Element{}, err
	}

	_, c, err := Commit(mine.MarshalBinary())
	if err != nil {
		return ringelem.Element{}, err
	}

	digestPayload, err := MarshalDigests([]Commitment{c})
	if err != nil {
		return ringelem.Element{}, err
	}
	digestsByParty, err := net.Broadcast(digestPayload)
	if err != nil {
		return ringelem.Element{}, err
	}
	digests := make(map[party.ID][32]byte, len(digestsByParty))
	for id, raw := range digestsByParty {
		ds, err := UnmarshalDigests(raw)
		if err != nil || len(ds) != 1 {
			return ringelem.Element{}, fmt.Errorf("%w: coin-toss commitment from %s", mpcerr.ErrInvalidMessageSize, id)
		}
		digests[id] = ds[0]
	}

	openingPayload, err := MarshalOpenings([]Commitment{c})
	if err != nil {
		return ringelem.Element{}, err
	}
	openingsByParty, err := net.Broadcast(openingPayload)
	if err != nil {
		return ringelem.Element{}, err
	}

	result := ringelem.Zero(w)
	for _, id := range party.All() {
		raw, ok := openingsByParty[id]
		if !ok {
			return ringelem.Element{}, fmt.Errorf("%w: coin-toss missing opening from %s", mpcerr.ErrInvalidMessageSize, id)
		}
		openings, err := UnmarshalOpenings(raw)
		if err != nil || len(openings) != 1 {
			return ringelem.Element{}, fmt.Errorf("%w: coin-toss opening from %s", mpcerr.ErrInvalidMessageSize, id)
		}
		op := openings[0]
		if id != self && !Verify(digests[id], op.Payload, op.Nonce) {
			return ringelem.Element{}, mpcerr.Newf(mpcerr.ErrInvalidCommitment, []party.ID{id}, "coin-toss opening did not match its commitment")
		}
		contribution, err := ringelem.Unmarshal(w, op.Payload)
		if err != nil {
			return ringelem.Element{}, err
		}
		result = result.Xor(contribution)
	}
	return result, nil
}
