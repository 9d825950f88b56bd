package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/irisprotocol/iris3pc/internal/dbrecord"
	"github.com/irisprotocol/iris3pc/pkg/engine"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/scanstats"
	"github.com/irisprotocol/iris3pc/protocols/enginea"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// runBench times a full ENGINE-A scan of the demo store against a random
// query and reports the wall-clock cost alongside a plaintext
// distance-distribution summary. The plaintext distances are computed
// directly from the store's recorded code/mask columns, never from the
// shares the 3PC scan itself touches: this is operator diagnostic tooling
// run against a demo store whose plaintext is already on disk, not a leak
// out of the live protocol (pkg/scanstats carries the same restriction).
func runBench(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")

	w, err := resolveRingWidth()
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

	ctx := context.Background()
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

	start := time.Now()
	found, err := runMatch(ctx, engines, w, qs, query.Mask, db)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}

	distances := make([]int, len(store.Records))
	for i, rec := range store.Records {
		distances[i] = irisio.MaskedHammingDistance(query, irisio.IrisCode{Code: rec.Code, Mask: rec.Mask})
	}
	summary, err := scanstats.Summarize(distances)
	if err != nil {
		return err
	}

	fmt.Printf("scanned %d record(s) in %s (match=%v)\n", len(store.Records), elapsed, found[0])
	fmt.Printf("distance distribution: mean=%.2f stddev=%.2f min=%.0f max=%.0f\n",
		summary.Mean, summary.StdDev, summary.Min, summary.Max)
	return nil
}
