package iris_test

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/enginea"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
	"github.com/irisprotocol/iris3pc/protocols/plaintext"
)

func fullMask() irisio.Bitmap {
	var m irisio.Bitmap
	for i := 0; i < irisio.IrisCodeSize; i++ {
		m.SetBit(i, true)
	}
	return m
}

func codeFromBitmap(bm irisio.Bitmap, w ringelem.Width) iris.SharedCode[ringelem.Element] {
	out := make(iris.SharedCode[ringelem.Element], irisio.IrisCodeSize)
	for i := range out {
		var v uint64
		if bm.Bit(i) {
			v = 1
		}
		out[i] = ringelem.FromUint64(w, v)
	}
	return out
}

func TestNewRejectsNarrowRing(t *testing.T) {
	e := plaintext.New()
	_, err := iris.New[ringelem.Element](e, ringelem.W8)
	require.Error(t, err)

	_, err = iris.New[ringelem.Element](e, ringelem.W16)
	require.NoError(t, err)
}

func TestMatchInDBPlaintextGroundTruth(t *testing.T) {
	w := ringelem.W16
	m, err := iris.New[ringelem.Element](plaintext.New(), w)
	require.NoError(t, err)

	mask := fullMask()
	var queryBits irisio.Bitmap
	queryBits.SetBit(10, true)
	queryBits.SetBit(20, true)
	query := codeFromBitmap(queryBits, w)

	entryIdentical := iris.DBEntry[ringelem.Element]{Code: codeFromBitmap(queryBits, w), Mask: mask}

	var farBits irisio.Bitmap
	for i := 0; i < irisio.IrisCodeSize/2; i++ {
		farBits.SetBit(i, true)
	}
	entryFar := iris.DBEntry[ringelem.Element]{Code: codeFromBitmap(farBits, w), Mask: mask}

	ctx := context.Background()
	found, err := m.MatchInDB(ctx, query, mask, []iris.DBEntry[ringelem.Element]{entryFar, entryIdentical}, 1, 0)
	require.NoError(t, err)
	require.True(t, found)

	notFound, err := m.MatchInDB(ctx, query, mask, []iris.DBEntry[ringelem.Element]{entryFar}, 1, 0)
	require.NoError(t, err)
	require.False(t, notFound)
}

func TestMatchInDBSkipsSparseMaskEntries(t *testing.T) {
	w := ringelem.W16
	m, err := iris.New[ringelem.Element](plaintext.New(), w)
	require.NoError(t, err)

	mask := fullMask()
	var sparseMask irisio.Bitmap
	for i := 0; i < irisio.IrisCodeSize/2; i++ {
		sparseMask.SetBit(i, true)
	}

	var queryBits irisio.Bitmap
	query := codeFromBitmap(queryBits, w)
	sparseEntry := iris.DBEntry[ringelem.Element]{Code: codeFromBitmap(queryBits, w), Mask: sparseMask}

	ctx := context.Background()
	found, err := m.MatchInDB(ctx, query, mask, []iris.DBEntry[ringelem.Element]{sparseEntry}, 1, 0)
	require.NoError(t, err)
	require.False(t, found)

	_, err = m.ComparePair(ctx, query, mask, sparseEntry)
	require.Error(t, err)
}

// shareBit splits plaintext bit v into three ENGINE-A additive pieces and
// assembles them into the (Mine, Prev) pairs each of the three parties
// holds, bypassing the Input protocol entirely: the spec's database record
// (6.3) is pre-shared by an external collaborator, not re-shared live, so
// tests construct shares the same way.
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

func TestMatchInDBOverEngineA(t *testing.T) {
	w := ringelem.W16
	mt := network.NewMemTransports()
	var engines [3]*enginea.Engine
	for i := range mt {
		engines[i] = enginea.New(mt[i])
	}
	require.NoError(t, network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		return engines[id].Preprocess(ctx)
	}))

	mask := fullMask()
	var queryBits irisio.Bitmap
	queryBits.SetBit(42, true)
	queryBits.SetBit(4200, true)

	queryShares := shareCode(queryBits, w)
	entryShares := shareCode(queryBits, w) // identical code: exact match

	var results [3]bool
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		matcher, err := iris.New[mpcshare.A](engines[id], w)
		if err != nil {
			return err
		}
		entry := iris.DBEntry[mpcshare.A]{Code: entryShares[id], Mask: mask}
		found, err := matcher.MatchInDB(ctx, queryShares[id], mask, []iris.DBEntry[mpcshare.A]{entry}, 256, 128)
		results[id] = found
		return err
	})
	require.NoError(t, err)
	for i := range results {
		require.True(t, results[i])
	}
}
