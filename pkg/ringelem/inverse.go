package ringelem

import (
	"errors"
	"math/big"

	"github.com/cronokirby/saferith"
)

// ErrNoInverse is returned when asked for the multiplicative inverse of an
// even ring element (spec 3.1, 7: NoInverseError).
var ErrNoInverse = errors.New("ringelem: no inverse for even element")

// nextWidth returns the "next-larger ring" (spec 3.1) that Inverse lifts an
// element of width w into; W128 has no larger ring and maps to itself.
func nextWidth(w Width) Width {
	switch w {
	case W1:
		return W8
	case W8:
		return W16
	case W16:
		return W32
	case W32:
		return W64
	case W64:
		return W128
	default:
		return W128
	}
}

// Inverse computes the multiplicative inverse of an odd element e modulo
// 2^k, via extended GCD carried out in the next-larger ring so that
// intermediate Bezout coefficients never wrap. saferith.Nat is used as the
// wide-integer carrier between this ring and math/big, which performs the
// actual extended-Euclidean computation.
func (e Element) Inverse() (Element, error) {
	if !e.IsOdd() {
		return Element{}, ErrNoInverse
	}

	wide := nextWidth(e.w)
	modBits := uint(wide)

	// Lift e into the wide Nat carrier.
	eNat := new(saferith.Nat).SetBytes(e.MarshalBinary())
	eBig := new(big.Int).SetBytes(eNat.Bytes())

	modulus := new(big.Int).Lsh(big.NewInt(1), modBits)
	invBig := new(big.Int).ModInverse(eBig, modulus)
	if invBig == nil {
		return Element{}, ErrNoInverse
	}

	invNat := new(saferith.Nat).SetBytes(invBig.Bytes())
	invBytes := invNat.Bytes()

	// Re-encode at the original width w (the inverse of an odd element mod
	// 2^k is itself odd and uniquely determined mod 2^k, i.e. the low k
	// bits of the wide inverse are the answer).
	padded := make([]byte, wide.Bytes())
	copy(padded[len(padded)-len(invBytes):], invBytes)
	full, err := Unmarshal(wide, padded)
	if err != nil {
		return Element{}, err
	}
	lowBytes := full.MarshalBinary()
	lowBytes = lowBytes[len(lowBytes)-e.w.Bytes():]
	return Unmarshal(e.w, lowBytes)
}
