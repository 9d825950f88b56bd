package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/irisprotocol/iris3pc/internal/dbrecord"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// shareBit splits plaintext bit v into three ENGINE-A additive pieces, the
// way an enrollment authority splits a fresh code before handing each
// party its two assigned columns (spec 6.3: shares are "pre-computed and
// distributed", not produced by the live protocol's Input).
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

func runEnroll(cmd *cobra.Command, args []string) error {
	storePath, _ := cmd.Flags().GetString("store")
	count, _ := cmd.Flags().GetInt("count")

	w, err := resolveRingWidth()
	if err != nil {
		return err
	}

	store, err := loadStore(storePath)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		subject := randomIrisCode()
		shares := shareCode(subject.Code, w)
		a, b, c, err := dbrecord.EncodeShares(shares)
		if err != nil {
			return fmt.Errorf("iris3pc: encoding shares: %w", err)
		}
		id := fmt.Sprintf("subject-%d", len(store.Records)+1)
		store.Records = append(store.Records, dbrecord.Record{
			ID:     id,
			Code:   subject.Code,
			Mask:   subject.Mask,
			ShareA: a,
			ShareB: b,
			ShareC: c,
		})
		if verbose {
			fmt.Printf("enrolled %s\n", id)
		}
	}

	if err := store.save(storePath); err != nil {
		return err
	}
	fmt.Printf("enrolled %d subject(s) into %s (%d total)\n", count, storePath, len(store.Records))
	return nil
}
