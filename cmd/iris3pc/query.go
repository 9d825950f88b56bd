package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irisprotocol/iris3pc/internal/dbrecord"
	"github.com/irisprotocol/iris3pc/pkg/engine"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/enginea"
	"github.com/irisprotocol/iris3pc/protocols/engineb"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// runMatch drives the three simulated parties through Preprocess and
// MatchInDB concurrently against whichever engine.Engine[S] each already
// holds, returning each party's view of the any-match result (all three
// must agree, since the bit is opened identically to each of them).
func runMatch[S any](ctx context.Context, engines [3]engine.Engine[S], w ringelem.Width,
	queryShares [3]iris.SharedCode[S], queryMask irisio.Bitmap, dbEntries [3][]iris.DBEntry[S]) ([3]bool, error) {
	var results [3]bool
	err := network.RunParties(ctx, func(ctx context.Context, id party.ID) error {
		if err := engines[id].Preprocess(ctx); err != nil {
			return err
		}
		m, err := iris.New[S](engines[id], w)
		if err != nil {
			return err
		}
		found, err := m.MatchInDB(ctx, queryShares[id], queryMask, dbEntries[id], 256, 128)
		if err != nil {
			return err
		}
		results[id] = found
		return nil
	})
	return results, err
}

func runQuery(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	genuine, _ := cmd.Flags().GetBool("genuine")

	w, err := resolveRingWidth()
	if err != nil {
		return err
	}
	engineDesc, err := describeEngine(engineName)
	if err != nil {
		return err
	}

	store, err := loadStore(storePath)
	if err != nil {
		return err
	}
	if len(store.Records) == 0 {
		return fmt.Errorf("iris3pc: store %s has no enrolled subjects; run enroll first", storePath)
	}

	query := randomIrisCode()
	if genuine {
		query = irisio.IrisCode{Code: store.Records[0].Code, Mask: store.Records[0].Mask}
	}

	fmt.Printf("running query against %d record(s) using %s, ring width %d\n",
		len(store.Records), engineDesc, w)

	ctx := context.Background()
	var found [3]bool

	switch engineName {
	case "a":
		mts := network.NewMemTransports()
		var engines [3]engine.Engine[mpcshare.A]
		for i := range mts {
			engines[i] = enginea.New(mts[i])
		}
		queryShares := shareCode(query.Code, w)
		var qs [3]iris.SharedCode[mpcshare.A]
		var db [3][]iris.DBEntry[mpcshare.A]
		for _, id := range party.All() {
			qs[id] = queryShares[id]
			entries := make([]iris.DBEntry[mpcshare.A], len(store.Records))
			for i, rec := range store.Records {
				entry, err := dbrecord.ToDBEntry(rec, id, w)
				if err != nil {
					return err
				}
				entries[i] = entry
			}
			db[id] = entries
		}
		found, err = runMatch(ctx, engines, w, qs, query.Mask, db)

	case "auth":
		mts := network.NewMemTransports()
		var engines [3]engine.Engine[enginea.AuthShare]
		for i := range mts {
			engines[i] = enginea.NewAuth(mts[i])
		}
		found, err = runMatchViaInput(ctx, engines, w, query, store)

	case "b":
		mts := network.NewMemTransports()
		var engines [3]engine.Engine[mpcshare.B]
		for i := range mts {
			engines[i] = engineb.New(mts[i])
		}
		found, err = runMatchViaInput(ctx, engines, w, query, store)

	default:
		return fmt.Errorf("iris3pc: unknown engine %q", engineName)
	}
	if err != nil {
		return err
	}

	if found[0] != found[1] || found[1] != found[2] {
		return fmt.Errorf("iris3pc: parties disagree on match result: %v", found)
	}
	fmt.Printf("match: %v\n", found[0])
	return nil
}
