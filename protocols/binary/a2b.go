package binary

import (
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// ZeroBit is the canonical zero 1-bit ENGINE-A share.
var ZeroBit = mpcshare.A{Mine: ringelem.Zero(ringelem.W1), Prev: ringelem.Zero(ringelem.W1)}

func zeroOf(w ringelem.Width) mpcshare.A {
	return mpcshare.A{Mine: ringelem.Zero(w), Prev: ringelem.Zero(w)}
}

// splitToAddends implements the "Split" half of spec 4.4: given party
// self's ENGINE-A share x=(Mine,Prev) of a w-bit value, construct the three
// binary-shared addends whose arithmetic sum (via the adder below) is x.
// Addend j is the replicated binary share of the j-th party's additive
// component: only party j (who holds it as Mine) and party j.Next() (who
// holds it as Prev) contribute non-zero bits; the third party's slice for
// that addend is identically zero, mirroring the single-value A share
// layout at every bit position.
func splitToAddends(self party.ID, w ringelem.Width, x mpcshare.A) [3][]mpcshare.A {
	var out [3][]mpcshare.A
	mineBitsLSB := x.Mine.Decompose()
	prevBitsLSB := x.Prev.Decompose()
	for _, owner := range party.All() {
		bits := make([]mpcshare.A, w)
		for i := 0; i < int(w); i++ {
			mineBit, prevBit := ringelem.Zero(ringelem.W1), ringelem.Zero(ringelem.W1)
			if self == owner {
				mineBit = mineBitsLSB[i]
			}
			if self == owner.Next() {
				prevBit = prevBitsLSB[i]
			}
			bits[i] = mpcshare.A{Mine: mineBit, Prev: prevBit}
		}
		out[owner] = bits
	}
	return out
}

// ArithmeticToBinary converts an ENGINE-A share of a w-bit ring value into
// a w-bit replicated binary share via the two-phase adder of spec 4.4: a
// single-AND-layer 3-to-2 reduction followed by a Kogge-Stone carry-propagate
// adder. andMany must batch independent ANDs of the same width into one
// network round.
func ArithmeticToBinary(self party.ID, w ringelem.Width, x mpcshare.A, andMany AndMany[mpcshare.A]) ([]mpcshare.A, error) {
	addends := splitToAddends(self, w, x)
	sum, carry2, err := FullAdder3to2(addends[0], addends[1], addends[2], ZeroBit, andMany)
	if err != nil {
		return nil, err
	}
	return KoggeStoneAdd(sum, carry2, ZeroBit, andMany)
}

// MSB converts x to binary and returns only its top bit share (spec 4.4:
// "The MSB of the final binary share is the required Boolean share").
func MSB(self party.ID, w ringelem.Width, x mpcshare.A, andMany AndMany[mpcshare.A]) (mpcshare.A, error) {
	bits, err := ArithmeticToBinary(self, w, x, andMany)
	if err != nil {
		return mpcshare.A{}, err
	}
	return bits[w-1], nil
}

// MSBMany is the "many-variant" of spec 4.4: it transposes M independent
// w-bit A2B conversions into w parallel lane-words (up to 128 values per
// word) so that every AND layer processes up to 128 comparisons in one
// batched network round, instead of running M independent adders.
func MSBMany(self party.ID, w ringelem.Width, xs []mpcshare.A, andMany AndMany[mpcshare.A]) ([]mpcshare.A, error) {
	const maxLanes = 128
	out := make([]mpcshare.A, len(xs))
	for start := 0; start < len(xs); start += maxLanes {
		end := start + maxLanes
		if end > len(xs) {
			end = len(xs)
		}
		batch := xs[start:end]
		msbs, err := msbBatch(self, w, batch, andMany)
		if err != nil {
			return nil, err
		}
		copy(out[start:end], msbs)
	}
	return out, nil
}

func laneWidth(n int) ringelem.Width {
	switch {
	case n <= 1:
		return ringelem.W1
	case n <= 8:
		return ringelem.W8
	case n <= 16:
		return ringelem.W16
	case n <= 32:
		return ringelem.W32
	case n <= 64:
		return ringelem.W64
	default:
		return ringelem.W128
	}
}

func msbBatch(self party.ID, w ringelem.Width, xs []mpcshare.A, andMany AndMany[mpcshare.A]) ([]mpcshare.A, error) {
	lw := laneWidth(len(xs))
	var addends [3][]mpcshare.A
	for owner := 0; owner < 3; owner++ {
		addends[owner] = make([]mpcshare.A, w)
		for i := range addends[owner] {
			addends[owner][i] = zeroOf(lw)
		}
	}
	for lane, x := range xs {
		perLane := splitToAddends(self, w, x)
		for owner := 0; owner < 3; owner++ {
			for i := 0; i < int(w); i++ {
				bit := perLane[owner][i]
				addends[owner][i] = mpcshare.A{
					Mine: addends[owner][i].Mine.Or(bit.Mine.WidenAt(lw, uint(lane))),
					Prev: addends[owner][i].Prev.Or(bit.Prev.WidenAt(lw, uint(lane))),
				}
			}
		}
	}

	zeroLane := zeroOf(lw)
	sum, carry2, err := FullAdder3to2(addends[0], addends[1], addends[2], zeroLane, andMany)
	if err != nil {
		return nil, err
	}
	final, err := KoggeStoneAdd(sum, carry2, zeroLane, andMany)
	if err != nil {
		return nil, err
	}
	msbWord := final[w-1]

	out := make([]mpcshare.A, len(xs))
	for lane := range xs {
		out[lane] = mpcshare.A{
			Mine: msbWord.Mine.Shr(uint(lane)).Narrow(ringelem.W1),
			Prev: msbWord.Prev.Shr(uint(lane)).Narrow(ringelem.W1),
		}
	}
	return out, nil
}
