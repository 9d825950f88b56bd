// Package irisio implements the plaintext iris-code bitmap (spec 3.5, 6.2):
// a fixed-length code bitmap paired with a mask bitmap, little-endian within
// each 64-bit word. The generator/perturbation half that produces these
// bitmaps from a camera pipeline is an external collaborator; this package
// only covers bit access, popcount, masked distance, and the byte codec a
// database row or a network message needs.
package irisio

import (
	"encoding/binary"
	"math/bits"

	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
)

// IrisCodeSize is the fixed bit length of both the code and mask bitmaps
// (spec 3.5, 6.2: IRIS_CODE_SIZE).
const IrisCodeSize = 12800

// MaskThresholdRatio is the minimum fraction of mask bits that must be set
// for a comparison to be meaningful (spec 3.5, 6.2: MASK_THRESHOLD_RATIO).
const MaskThresholdRatio = 0.70

// MatchThresholdRatio scales the combined mask popcount down to the
// Hamming-distance cutoff a match must stay under (spec 3.5, 6.2:
// MATCH_THRESHOLD_RATIO).
const MatchThresholdRatio = 0.34

// MaskThreshold is floor(MaskThresholdRatio * IrisCodeSize), the minimum
// popcount a combined mask needs (spec 3.5).
const MaskThreshold = int(MaskThresholdRatio * IrisCodeSize)

const numWords = IrisCodeSize / 64

// Bitmap is a fixed-length bit vector of IrisCodeSize bits, stored
// little-endian within each 64-bit word (spec 6.2).
type Bitmap [numWords]uint64

// NewBitmap returns the all-zero bitmap.
func NewBitmap() Bitmap { return Bitmap{} }

// Bit returns bit i (0 = least significant bit of word 0).
func (b Bitmap) Bit(i int) bool {
	return b[i/64]&(uint64(1)<<uint(i%64)) != 0
}

// SetBit sets or clears bit i.
func (b *Bitmap) SetBit(i int, v bool) {
	mask := uint64(1) << uint(i%64)
	if v {
		b[i/64] |= mask
	} else {
		b[i/64] &^= mask
	}
}

// And returns the bitwise AND of b and o.
func (b Bitmap) And(o Bitmap) Bitmap {
	var out Bitmap
	for i := range b {
		out[i] = b[i] & o[i]
	}
	return out
}

// Xor returns the bitwise XOR of b and o.
func (b Bitmap) Xor(o Bitmap) Bitmap {
	var out Bitmap
	for i := range b {
		out[i] = b[i] ^ o[i]
	}
	return out
}

// Popcount returns the number of set bits.
func (b Bitmap) Popcount() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// MarshalBinary serializes b as IrisCodeSize/8 little-endian bytes (spec
// 6.2: "byte serialization of the raw backing store is little-endian").
func (b Bitmap) MarshalBinary() []byte {
	buf := make([]byte, numWords*8)
	for i, w := range b {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return buf
}

// UnmarshalBitmap parses the byte form MarshalBinary produces.
func UnmarshalBitmap(buf []byte) (Bitmap, error) {
	if len(buf) != numWords*8 {
		return Bitmap{}, mpcerr.Newf(mpcerr.ErrInvalidCodeSize, nil, "iris bitmap: want %d bytes, got %d", numWords*8, len(buf))
	}
	var b Bitmap
	for i := range b {
		b[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return b, nil
}

// IrisCode pairs a code bitmap with its mask (spec 3.5, 6.2).
type IrisCode struct {
	Code Bitmap
	Mask Bitmap
}

// MaskedHammingDistance returns the Hamming weight of (a.Code XOR b.Code)
// restricted to positions both masks agree are valid (spec 3.5).
func MaskedHammingDistance(a, b IrisCode) int {
	combinedMask := a.Mask.And(b.Mask)
	diff := a.Code.Xor(b.Code).And(combinedMask)
	return diff.Popcount()
}

// IsMatch reports whether a and b are declared a match: the combined mask
// must clear MaskThreshold, and the masked Hamming distance must fall
// strictly under floor(popcount(combinedMask) * MatchThresholdRatio) (spec
// 3.5). ok is false when the combined mask is too sparse to compare; no
// error or reason is returned in that case.
func IsMatch(a, b IrisCode) (match bool, ok bool) {
	combinedMask := a.Mask.And(b.Mask)
	hw := combinedMask.Popcount()
	if hw < MaskThreshold {
		return false, false
	}
	dist := a.Code.Xor(b.Code).And(combinedMask).Popcount()
	threshold := int(float64(hw) * MatchThresholdRatio)
	return dist < threshold, true
}
