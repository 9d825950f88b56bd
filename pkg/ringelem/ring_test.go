package ringelem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/ringelem"
)

func TestAddSubNeg(t *testing.T) {
	for _, w := range []ringelem.Width{ringelem.W8, ringelem.W16, ringelem.W32, ringelem.W64, ringelem.W128} {
		a := ringelem.FromUint64(w, 200)
		b := ringelem.FromUint64(w, 57)
		sum := a.Add(b)
		assert.True(t, sum.Sub(b).Equal(a))
		assert.True(t, a.Add(a.Neg()).Equal(ringelem.Zero(w)))
	}
}

func TestMulWrapsMod2k(t *testing.T) {
	a := ringelem.FromUint64(ringelem.W8, 200)
	b := ringelem.FromUint64(ringelem.W8, 3)
	// 200*3 = 600 = 2*256 + 88
	assert.Equal(t, uint64(88), a.Mul(b).Uint64())
}

func TestShiftAndMSB(t *testing.T) {
	e := ringelem.FromUint64(ringelem.W8, 0x80)
	assert.Equal(t, uint64(1), e.MSB())
	assert.Equal(t, uint64(0), ringelem.FromUint64(ringelem.W8, 0x7f).MSB())
	assert.True(t, ringelem.FromUint64(ringelem.W8, 1).Shl(7).Equal(e))
	assert.True(t, e.Shr(7).Equal(ringelem.FromUint64(ringelem.W8, 1)))
}

func TestDecomposeRecompose(t *testing.T) {
	e := ringelem.FromUint64(ringelem.W16, 0xBEEF)
	bitsLSB := e.Decompose()
	require.Len(t, bitsLSB, 16)
	got := ringelem.Recompose(ringelem.W16, bitsLSB)
	assert.True(t, got.Equal(e))
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, w := range []ringelem.Width{ringelem.W1, ringelem.W8, ringelem.W16, ringelem.W32, ringelem.W64, ringelem.W128} {
		e := ringelem.FromUint64(w, 0xABCD1234)
		buf := e.MarshalBinary()
		assert.Len(t, buf, w.Bytes())
		got, err := ringelem.Unmarshal(w, buf)
		require.NoError(t, err)
		assert.True(t, got.Equal(e))
	}
}

func TestVectorMarshal(t *testing.T) {
	els := []ringelem.Element{
		ringelem.FromUint64(ringelem.W32, 1),
		ringelem.FromUint64(ringelem.W32, 2),
		ringelem.FromUint64(ringelem.W32, 3),
	}
	buf := ringelem.MarshalVector(els)
	got, err := ringelem.UnmarshalVector(ringelem.W32, buf, 3)
	require.NoError(t, err)
	for i := range els {
		assert.True(t, els[i].Equal(got[i]))
	}
}

func TestInverse(t *testing.T) {
	e := ringelem.FromUint64(ringelem.W16, 12345) // odd
	inv, err := e.Inverse()
	require.NoError(t, err)
	assert.True(t, e.Mul(inv).Equal(ringelem.FromUint64(ringelem.W16, 1)))

	_, err = ringelem.FromUint64(ringelem.W16, 12344).Inverse() // even
	assert.ErrorIs(t, err, ringelem.ErrNoInverse)
}
