package main

import (
	"context"

	"github.com/irisprotocol/iris3pc/pkg/engine"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/iris"
)

// shareOwned has every party call Input for the same bitmap with party.Zero
// as the declared owner, each contributing the real plaintext only when it
// is party.Zero itself (the rest pass nil, Input's contract for a
// non-owning caller). This stands in for ENGINE-B and authenticated
// ENGINE-A records, which spec 6.3's persisted schema does not define a
// share format for (only plain ENGINE-A additive shares are specified at
// rest): a real deployment would run a dedicated share-conversion step
// instead of re-inputting plaintext at query time.
func shareOwned[S any](ctx context.Context, id party.ID, eng engine.Engine[S], bm irisio.Bitmap, w ringelem.Width) (iris.SharedCode[S], error) {
	out := make(iris.SharedCode[S], irisio.IrisCodeSize)
	for i := 0; i < irisio.IrisCodeSize; i++ {
		var valPtr *ringelem.Element
		if id == party.Zero {
			v := uint64(0)
			if bm.Bit(i) {
				v = 1
			}
			elem := ringelem.FromUint64(w, v)
			valPtr = &elem
		}
		s, err := eng.Input(ctx, valPtr, party.Zero, w)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// runMatchViaInput builds query and database shares by re-inputting each
// record's stored plaintext code through eng.Input (see shareOwned), then
// runs the match. It is used for engines whose persisted share format
// spec 6.3 does not define at rest (ENGINE-A authenticated, ENGINE-B).
func runMatchViaInput[S any](ctx context.Context, engines [3]engine.Engine[S], w ringelem.Width,
	query irisio.IrisCode, store *demoStore) ([3]bool, error) {
	var results [3]bool
	err := network.RunParties(ctx, func(ctx context.Context, id party.ID) error {
		if err := engines[id].Preprocess(ctx); err != nil {
			return err
		}
		qs, err := shareOwned(ctx, id, engines[id], query.Code, w)
		if err != nil {
			return err
		}
		db := make([]iris.DBEntry[S], len(store.Records))
		for i, rec := range store.Records {
			cs, err := shareOwned(ctx, id, engines[id], rec.Code, w)
			if err != nil {
				return err
			}
			db[i] = iris.DBEntry[S]{Code: cs, Mask: rec.Mask}
		}
		m, err := iris.New[S](engines[id], w)
		if err != nil {
			return err
		}
		found, err := m.MatchInDB(ctx, qs, query.Mask, db, 256, 128)
		if err != nil {
			return err
		}
		results[id] = found
		return nil
	})
	return results, err
}
