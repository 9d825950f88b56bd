package iris_test

import (
	"context"
	"crypto/rand"
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/enginea"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

func ginkgoShareBit(v uint64, w ringelem.Width) [3]mpcshare.A {
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

func ginkgoShareCode(bm irisio.Bitmap, w ringelem.Width) [3]iris.SharedCode[mpcshare.A] {
	var out [3]iris.SharedCode[mpcshare.A]
	for p := range out {
		out[p] = make(iris.SharedCode[mpcshare.A], irisio.IrisCodeSize)
	}
	for i := 0; i < irisio.IrisCodeSize; i++ {
		var v uint64
		if bm.Bit(i) {
			v = 1
		}
		shares := ginkgoShareBit(v, w)
		for p := 0; p < 3; p++ {
			out[p][i] = shares[p]
		}
	}
	return out
}

// matchAcrossParties runs the three simulated ENGINE-A parties to completion
// on the given query/db pair and returns every party's result; all three are
// expected to agree (the any-match bit is opened identically to each).
func matchAcrossParties(query, dbEntry irisio.Bitmap, mask irisio.Bitmap, w ringelem.Width) ([3]bool, error) {
	mt := network.NewMemTransports()
	var engines [3]*enginea.Engine
	for i := range mt {
		engines[i] = enginea.New(mt[i])
	}

	queryShares := ginkgoShareCode(query, w)
	entryShares := ginkgoShareCode(dbEntry, w)

	var results [3]bool
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		if err := engines[id].Preprocess(ctx); err != nil {
			return err
		}
		m, err := iris.New[mpcshare.A](engines[id], w)
		if err != nil {
			return err
		}
		db := []iris.DBEntry[mpcshare.A]{{Code: entryShares[id], Mask: mask}}
		found, err := m.MatchInDB(ctx, queryShares[id], mask, db, 1, 1)
		if err != nil {
			return err
		}
		results[id] = found
		return nil
	})
	return results, err
}

// This suite drives the end-to-end three-party exchange the way the
// teacher's lss_integration_test.go drives a full keygen/sign round trip:
// parties actually preprocess and compare locally pre-split shares over the
// in-memory transport rather than calling the matcher's internals directly.
var _ = Describe("iris matcher, end to end over ENGINE-A", func() {
	w := ringelem.W16

	It("reports a match when the query equals the enrolled code", func() {
		var code irisio.Bitmap
		code.SetBit(10, true)
		code.SetBit(5000, true)

		var mask irisio.Bitmap
		for i := 0; i < irisio.IrisCodeSize; i++ {
			mask.SetBit(i, true)
		}

		results, err := matchAcrossParties(code, code, mask, w)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[party.Zero]).To(BeTrue())
		Expect(results[party.One]).To(Equal(results[party.Zero]))
		Expect(results[party.Two]).To(Equal(results[party.Zero]))
	})

	It("reports no match when the codes differ beyond threshold", func() {
		var query, entry irisio.Bitmap
		for i := 0; i < 6000; i++ {
			query.SetBit(i, true)
		}
		for i := 6000; i < 12800; i++ {
			entry.SetBit(i, true)
		}

		var mask irisio.Bitmap
		for i := 0; i < irisio.IrisCodeSize; i++ {
			mask.SetBit(i, true)
		}

		results, err := matchAcrossParties(query, entry, mask, w)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[party.Zero]).To(BeFalse())
	})
})
