package binary

import (
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// orPairwise computes xs[i] OR ys[i] for every lane using the identity
// a|b = a^b^(a&b), batching the AND term into one network round.
func orPairwise(xs, ys []mpcshare.A, andMany AndMany[mpcshare.A]) ([]mpcshare.A, error) {
	prod, err := andMany(xs, ys)
	if err != nil {
		return nil, err
	}
	out := make([]mpcshare.A, len(xs))
	for i := range out {
		out[i] = xs[i].Xor(ys[i]).Xor(prod[i])
	}
	return out, nil
}

// orTree pairwise-OR-reduces xs (all the same width) down to a single
// element in ceil(log2 len(xs)) rounds, forwarding an unpaired leftover
// element unchanged to the next round (spec 4.5).
func orTree(xs []mpcshare.A, andMany AndMany[mpcshare.A]) (mpcshare.A, error) {
	for len(xs) > 1 {
		half := len(xs) / 2
		reduced, err := orPairwise(xs[:half], xs[half:2*half], andMany)
		if err != nil {
			return mpcshare.A{}, err
		}
		if len(xs)%2 == 1 {
			reduced = append(reduced, xs[len(xs)-1])
		}
		xs = reduced
	}
	return xs[0], nil
}

// foldWord ORs the low and high halves of a wide word together, halving its
// width (spec 4.5 "128->64->32->16->8 via OR-between-halves").
func foldWord(w mpcshare.A, half ringelem.Width, andMany AndMany[mpcshare.A]) (mpcshare.A, error) {
	lo := w.Narrow(half)
	hi := mpcshare.A{
		Mine: w.Mine.Shr(uint(half)).Narrow(half),
		Prev: w.Prev.Shr(uint(half)).Narrow(half),
	}
	reduced, err := orPairwise([]mpcshare.A{lo}, []mpcshare.A{hi}, andMany)
	if err != nil {
		return mpcshare.A{}, err
	}
	return reduced[0], nil
}

// decomposeA splits a w-wide packed word into w separate one-bit shares,
// least significant first.
func decomposeA(word mpcshare.A, w ringelem.Width) []mpcshare.A {
	mineBits := word.Mine.Narrow(w).Decompose()
	prevBits := word.Prev.Narrow(w).Decompose()
	out := make([]mpcshare.A, w)
	for i := range out {
		out[i] = mpcshare.A{Mine: mineBits[i], Prev: prevBits[i]}
	}
	return out
}

// packIntoWords groups bits into chunks of chunkSize lanes and packs each
// chunk into one lw-wide word via WidenAt; a partial final chunk leaves the
// unused high lanes zero, which is the OR identity (spec 4.5 "pack N
// boolean shares into 128-bit words").
func packIntoWords(bits []mpcshare.A, lw ringelem.Width, chunkSize int) []mpcshare.A {
	nWords := (len(bits) + chunkSize - 1) / chunkSize
	words := make([]mpcshare.A, nWords)
	for wi := 0; wi < nWords; wi++ {
		word := zeroOf(lw)
		start := wi * chunkSize
		end := start + chunkSize
		if end > len(bits) {
			end = len(bits)
		}
		for lane := start; lane < end; lane++ {
			b := bits[lane]
			word = mpcshare.A{
				Mine: word.Mine.Or(b.Mine.WidenAt(lw, uint(lane-start))),
				Prev: word.Prev.Or(b.Prev.WidenAt(lw, uint(lane-start))),
			}
		}
		words[wi] = word
	}
	return words
}

var foldWidths = []ringelem.Width{ringelem.W64, ringelem.W32, ringelem.W16, ringelem.W8}

// OrReduce ORs together an arbitrary number of boolean shares using the
// two-stage OR-tree of spec 4.5: the bits are first packed chunkSize-at-a-
// time into words (capped at 128 lanes per word, the carrier ring's widest
// defined size) and pairwise-OR-reduced across words, then the single
// surviving word is folded in half repeatedly (128->64->32->16->8) and its
// final byte reduced bit-by-bit in three more OR layers (8->4->2->1) down
// to the one boolean result.
func OrReduce(bits []mpcshare.A, chunkSize int, andMany AndMany[mpcshare.A]) (mpcshare.A, error) {
	if len(bits) == 0 {
		return ZeroBit, nil
	}
	if chunkSize <= 0 || chunkSize > 128 {
		chunkSize = 128
	}
	lw := laneWidth(chunkSize)
	words := packIntoWords(bits, lw, chunkSize)
	word, err := orTree(words, andMany)
	if err != nil {
		return mpcshare.A{}, err
	}

	for _, half := range foldWidths {
		if word.Mine.Width() <= half {
			continue
		}
		word, err = foldWord(word, half, andMany)
		if err != nil {
			return mpcshare.A{}, err
		}
	}

	if word.Mine.Width() == ringelem.W1 {
		return word, nil
	}
	finalBits := decomposeA(word, word.Mine.Width())
	return orTree(finalBits, andMany)
}

// OrReduceDefault runs OrReduce with the full 128-lane packing width.
func OrReduceDefault(bits []mpcshare.A, andMany AndMany[mpcshare.A]) (mpcshare.A, error) {
	return OrReduce(bits, 128, andMany)
}
