package binary_test

import (
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/binary"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// idealAndRequest/idealAndOracle simulate the network round that a real
// AndMany needs (reconstruct, multiply, reshare) with an ideal
// functionality, so the adder/A2B/OR-tree math can be exercised without a
// full ENGINE-A or ENGINE-B instance. Each of the three parties submits its
// local operand vectors for a gate; the oracle reconstructs both operands,
// computes their AND, and reshares the result onto party 0 (Mine) / party 1
// (Prev), matching the single-owner convention used by splitToAddends.
type idealAndRequest struct {
	lhs, rhs []mpcshare.A
}

type idealAndOracle struct {
	in  [3]chan idealAndRequest
	out [3]chan []mpcshare.A
}

func newIdealAndOracle() *idealAndOracle {
	o := &idealAndOracle{}
	for i := range o.in {
		o.in[i] = make(chan idealAndRequest)
		o.out[i] = make(chan []mpcshare.A)
	}
	go o.run()
	return o
}

func reconstructBit(shares [3]mpcshare.A) ringelem.Element {
	return shares[0].Mine.Xor(shares[1].Mine).Xor(shares[2].Mine)
}

func (o *idealAndOracle) run() {
	for {
		var reqs [3]idealAndRequest
		for i := 0; i < 3; i++ {
			reqs[i] = <-o.in[i]
		}
		n := len(reqs[0].lhs)
		results := [3][]mpcshare.A{make([]mpcshare.A, n), make([]mpcshare.A, n), make([]mpcshare.A, n)}
		for lane := 0; lane < n; lane++ {
			var xShares, yShares [3]mpcshare.A
			for p := 0; p < 3; p++ {
				xShares[p] = reqs[p].lhs[lane]
				yShares[p] = reqs[p].rhs[lane]
			}
			x := reconstructBit(xShares)
			y := reconstructBit(yShares)
			z := x.And(y)
			w := z.Width()
			results[0][lane] = mpcshare.A{Mine: z, Prev: ringelem.Zero(w)}
			results[1][lane] = mpcshare.A{Mine: ringelem.Zero(w), Prev: z}
			results[2][lane] = mpcshare.A{Mine: ringelem.Zero(w), Prev: ringelem.Zero(w)}
		}
		for i := 0; i < 3; i++ {
			o.out[i] <- results[i]
		}
	}
}

func (o *idealAndOracle) andManyFor(self party.ID) binary.AndMany[mpcshare.A] {
	return func(lhs, rhs []mpcshare.A) ([]mpcshare.A, error) {
		o.in[self] <- idealAndRequest{lhs: lhs, rhs: rhs}
		return <-o.out[self], nil
	}
}

// shareValue splits a plaintext value v into a valid replicated ENGINE-A
// share: party 0 holds it as Mine, party 1 holds it as Prev, party 2 holds
// neither (the same single-owner convention the oracle above reshares
// into), so x = Mine_0 xor/plus Mine_1 xor/plus Mine_2 reconstructs v.
func shareValue(v ringelem.Element) [3]mpcshare.A {
	w := v.Width()
	zero := ringelem.Zero(w)
	return [3]mpcshare.A{
		{Mine: v, Prev: zero},
		{Mine: zero, Prev: v},
		{Mine: zero, Prev: zero},
	}
}

func shareBool(b bool) [3]mpcshare.A {
	var v ringelem.Element
	if b {
		v = ringelem.FromUint64(ringelem.W1, 1)
	} else {
		v = ringelem.Zero(ringelem.W1)
	}
	return shareValue(v)
}

func reconstructValue(shares [3]mpcshare.A) ringelem.Element {
	return shares[0].Mine.Add(shares[1].Mine).Add(shares[2].Mine)
}
