// Package engineb implements ENGINE-B (spec 3.3, 4.2, 4.3, 4.8): the
// malicious-secure replicated engine built on jointly-authenticated send
// (JMP), ABY3-style multiplication re-injected through ENGINE-A, and
// distributed zero-knowledge proofs of every AND/MUL/DOT gate.
package engineb

import (
	"bytes"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"

	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
)

// JMP implements jointly-authenticated send (spec 4.2): two parties who both
// hold a value v deliver it to a third party with only one of them putting
// it on the wire; the other queues it into a running hash that is compared
// against the receiver's own running hash at the next jmp_verify
// checkpoint. This buys malicious security for "open a value" at the cost
// of one hash comparison per peer per checkpoint, instead of redundantly
// sending every value twice.
type JMP struct {
	self party.ID
	net  network.Network

	// outgoing[p] hashes values this party silently vouches for, destined
	// to peer p as the quiet second sender.
	outgoing map[party.ID]hash.Hash
	// incoming[p] hashes values this party received claiming peer p was
	// the quiet second sender.
	incoming map[party.ID]hash.Hash
}

// NewJMP constructs a JMP instance bound to net, with fresh empty buffers.
func NewJMP(net network.Network) *JMP {
	j := &JMP{
		self:     net.ID(),
		net:      net,
		outgoing: make(map[party.ID]hash.Hash, 2),
		incoming: make(map[party.ID]hash.Hash, 2),
	}
	j.reset()
	return j
}

func (j *JMP) reset() {
	for _, p := range j.self.Other() {
		j.outgoing[p] = blake3.New()
		j.incoming[p] = blake3.New()
	}
}

// Deliver runs one jmp_send (spec 4.2): senders s1 and s2 both claim to
// know v and want receiver to learn it. The caller plays exactly one of
// the three roles every time (self is always one of s1, s2, or receiver,
// since there are only three parties); v is required at s1 and s2 and
// ignored (nil) at receiver. All three calls return the now-common value.
func (j *JMP) Deliver(s1, s2, receiver party.ID, v *ringelem.Element, w ringelem.Width) (ringelem.Element, error) {
	switch j.self {
	case s1:
		if err := j.net.Send(receiver, v.MarshalBinary()); err != nil {
			return ringelem.Element{}, err
		}
		return *v, nil
	case s2:
		j.outgoing[receiver].Write(v.MarshalBinary())
		return *v, nil
	case receiver:
		buf, err := j.net.Recv(s1)
		if err != nil {
			return ringelem.Element{}, err
		}
		got, err := ringelem.Unmarshal(w, buf)
		if err != nil {
			return ringelem.Element{}, err
		}
		j.incoming[s2].Write(got.MarshalBinary())
		return got, nil
	}
	return ringelem.Element{}, fmt.Errorf("jmp: party %s is neither sender nor receiver", j.self)
}

// DeliverMany batches N jmp_send calls sharing the same (s1, s2, receiver)
// roles into a single network message.
func (j *JMP) DeliverMany(s1, s2, receiver party.ID, vs []ringelem.Element, w ringelem.Width, n int) ([]ringelem.Element, error) {
	switch j.self {
	case s1:
		if err := j.net.Send(receiver, ringelem.MarshalVector(vs)); err != nil {
			return nil, err
		}
		return vs, nil
	case s2:
		for _, v := range vs {
			j.outgoing[receiver].Write(v.MarshalBinary())
		}
		return vs, nil
	case receiver:
		buf, err := j.net.Recv(s1)
		if err != nil {
			return nil, err
		}
		got, err := ringelem.UnmarshalVector(w, buf, n)
		if err != nil {
			return nil, err
		}
		for _, v := range got {
			j.incoming[s2].Write(v.MarshalBinary())
		}
		return got, nil
	}
	return nil, fmt.Errorf("jmp: party %s is neither sender nor receiver", j.self)
}

// Verify is the jmp_verify checkpoint (spec 4.2): every party hashes and
// flushes its outgoing buffer toward each peer, sends the digest, then
// compares its incoming buffer's hash against what that peer sends back.
// Any mismatch is a JmpVerifyError naming the offending peer.
func (j *JMP) Verify() error {
	peers := j.self.Other()
	for _, p := range peers {
		digest := j.outgoing[p].Sum(nil)
		if err := j.net.Send(p, digest); err != nil {
			return err
		}
	}
	for _, p := range peers {
		theirDigest, err := j.net.Recv(p)
		if err != nil {
			return err
		}
		mine := j.incoming[p].Sum(nil)
		if !bytes.Equal(mine, theirDigest) {
			return mpcerr.Newf(mpcerr.ErrJmpVerify, []party.ID{p}, "jmp verify mismatch with %s", p)
		}
	}
	j.reset()
	return nil
}
