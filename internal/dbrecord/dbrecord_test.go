package dbrecord_test

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/internal/dbrecord"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

func shareBit(v uint64, w ringelem.Width) [3]mpcshare.A {
	var buf [8]byte
	rand.Read(buf[:])
	x0 := ringelem.FromUint64(w, binary.LittleEndian.Uint64(buf[:]))
	rand.Read(buf[:])
	x1 := ringelem.FromUint64(w, binary.LittleEndian.Uint64(buf[:]))
	x2 := ringelem.FromUint64(w, v).Sub(x0).Sub(x1)
	return [3]mpcshare.A{
		{Mine: x0, Prev: x2},
		{Mine: x1, Prev: x0},
		{Mine: x2, Prev: x1},
	}
}

func shareCode(bm irisio.Bitmap, w ringelem.Width) [3]iris.SharedCode[mpcshare.A] {
	var out [3]iris.SharedCode[mpcshare.A]
	for p := range out {
		out[p] = make(iris.SharedCode[mpcshare.A], irisio.IrisCodeSize)
	}
	for i := 0; i < irisio.IrisCodeSize; i++ {
		var v uint64
		if bm.Bit(i) {
			v = 1
		}
		shares := shareBit(v, w)
		for p := 0; p < 3; p++ {
			out[p][i] = shares[p]
		}
	}
	return out
}

func reconstruct(shares [3]iris.SharedCode[mpcshare.A]) irisio.Bitmap {
	var bm irisio.Bitmap
	for i := 0; i < irisio.IrisCodeSize; i++ {
		sum := shares[0][i].Mine.Add(shares[1][i].Mine).Add(shares[2][i].Mine)
		bm.SetBit(i, sum.Uint64() == 1)
	}
	return bm
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	w := ringelem.W16
	var code irisio.Bitmap
	code.SetBit(3, true)
	code.SetBit(4200, true)
	shares := shareCode(code, w)

	a, b, c, err := dbrecord.EncodeShares(shares)
	require.NoError(t, err)
	rec := dbrecord.Record{ID: "subj-1", Code: code, ShareA: a, ShareB: b, ShareC: c}

	var decoded [3]iris.SharedCode[mpcshare.A]
	for _, id := range party.All() {
		s, err := dbrecord.DecodeShare(rec, id, w)
		require.NoError(t, err)
		decoded[id] = s
	}
	require.Equal(t, code, reconstruct(decoded))
}

func TestDecodeShareUsesOnlyOwnedColumns(t *testing.T) {
	w := ringelem.W16
	var code irisio.Bitmap
	shares := shareCode(code, w)
	a, b, c, err := dbrecord.EncodeShares(shares)
	require.NoError(t, err)

	rec := dbrecord.Record{ID: "subj-2", ShareA: a, ShareB: b, ShareC: c}
	// Party 0 reads share_a (mine) and share_c (prev); it never looks at
	// share_b, so corrupting it (even to the wrong length) must not affect
	// party 0's decode.
	rec.ShareB = []byte("not a valid share vector")

	got, err := dbrecord.DecodeShare(rec, party.Zero, w)
	require.NoError(t, err)
	require.Equal(t, shares[0][0].Mine, got[0].Mine)
	require.Equal(t, shares[0][0].Prev, got[0].Prev)
}

func TestToDBEntry(t *testing.T) {
	w := ringelem.W16
	var code, mask irisio.Bitmap
	mask.SetBit(0, true)
	shares := shareCode(code, w)
	a, b, c, err := dbrecord.EncodeShares(shares)
	require.NoError(t, err)
	rec := dbrecord.Record{ID: "subj-3", Mask: mask, ShareA: a, ShareB: b, ShareC: c}

	entry, err := dbrecord.ToDBEntry(rec, party.One, w)
	require.NoError(t, err)
	require.Equal(t, mask, entry.Mask)
	require.Len(t, entry.Code, irisio.IrisCodeSize)
}
