// Package dbrecord defines the persisted database record schema (spec
// section 6.3): one row per enrolled iris code, carrying its plaintext mask
// alongside the three pre-computed ENGINE-A share vectors, plus the
// authenticated variant's MAC columns and the singleton MAC-key-share row.
// Persistence itself — the SQLite storage layer that reads and writes these
// rows — is an external collaborator; this package only defines the row
// shape and the codec each party uses to decode its own two assigned share
// columns out of the three.
package dbrecord

import (
	"fmt"

	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/iris"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// Record is one persisted database row: a plaintext code/mask pair (kept
// for re-enrollment and offline auditing) plus the three ENGINE-A share
// vectors for the code, each a MarshalVector-encoded sequence of
// irisio.IrisCodeSize ring elements.
type Record struct {
	ID     string
	Code   irisio.Bitmap
	Mask   irisio.Bitmap
	ShareA []byte
	ShareB []byte
	ShareC []byte
}

// AuthRecord extends Record with the MAC share columns the authenticated
// variant verifies at open time (spec 4.7, 6.3).
type AuthRecord struct {
	Record
	MACA []byte
	MACB []byte
	MACC []byte
}

// MACKeyShares is the singleton row holding each party's share of the
// session's global MAC key (spec 6.3).
type MACKeyShares struct {
	A []byte
	B []byte
	C []byte
}

// Columns reports the (mine, prev) share columns party id is configured to
// read, matching mpcshare.A's (Mine, Prev) storage layout: party i holds
// (x_i, x_{i-1}) (spec 3.3).
func Columns(id party.ID) (mine, prev string, err error) {
	switch id {
	case party.Zero:
		return "share_a_bytes", "share_c_bytes", nil
	case party.One:
		return "share_b_bytes", "share_a_bytes", nil
	case party.Two:
		return "share_c_bytes", "share_b_bytes", nil
	}
	return "", "", &mpcerr.IDError{ID: id}
}

func columnBytes(rec Record, name string) ([]byte, error) {
	switch name {
	case "share_a_bytes":
		return rec.ShareA, nil
	case "share_b_bytes":
		return rec.ShareB, nil
	case "share_c_bytes":
		return rec.ShareC, nil
	}
	return nil, fmt.Errorf("dbrecord: unknown share column %q", name)
}

// DecodeShare reconstructs the mpcshare.A vector party id owns for rec's
// code, reading only the two columns its configuration names and ignoring
// the third (spec 6.3: "the core reads only its two assigned columns plus
// the mask").
func DecodeShare(rec Record, id party.ID, w ringelem.Width) (iris.SharedCode[mpcshare.A], error) {
	mineCol, prevCol, err := Columns(id)
	if err != nil {
		return nil, err
	}
	mineBytes, err := columnBytes(rec, mineCol)
	if err != nil {
		return nil, err
	}
	prevBytes, err := columnBytes(rec, prevCol)
	if err != nil {
		return nil, err
	}
	mine, err := ringelem.UnmarshalVector(w, mineBytes, irisio.IrisCodeSize)
	if err != nil {
		return nil, fmt.Errorf("dbrecord: decoding %s for record %s: %w", mineCol, rec.ID, err)
	}
	prev, err := ringelem.UnmarshalVector(w, prevBytes, irisio.IrisCodeSize)
	if err != nil {
		return nil, fmt.Errorf("dbrecord: decoding %s for record %s: %w", prevCol, rec.ID, err)
	}
	out := make(iris.SharedCode[mpcshare.A], irisio.IrisCodeSize)
	for i := range out {
		out[i] = mpcshare.A{Mine: mine[i], Prev: prev[i]}
	}
	return out, nil
}

// EncodeShares builds the three share columns for a fresh enrollment row
// from a party-indexed array of mpcshare.A vectors, the inverse of what
// three independent DecodeShare calls (one per party) would read back.
func EncodeShares(shares [3]iris.SharedCode[mpcshare.A]) (a, b, c []byte, err error) {
	for _, s := range shares {
		if len(s) != irisio.IrisCodeSize {
			return nil, nil, nil, mpcerr.Newf(mpcerr.ErrInvalidCodeSize, nil,
				"dbrecord: share vector length %d, want %d", len(s), irisio.IrisCodeSize)
		}
	}
	mineOf := func(s iris.SharedCode[mpcshare.A]) []ringelem.Element {
		out := make([]ringelem.Element, len(s))
		for i, x := range s {
			out[i] = x.Mine
		}
		return out
	}
	return ringelem.MarshalVector(mineOf(shares[0])),
		ringelem.MarshalVector(mineOf(shares[1])),
		ringelem.MarshalVector(mineOf(shares[2])),
		nil
}

// ToDBEntry assembles a DB row and a party's decoded share into the
// protocols/iris input shape for one scan candidate.
func ToDBEntry(rec Record, id party.ID, w ringelem.Width) (iris.DBEntry[mpcshare.A], error) {
	share, err := DecodeShare(rec, id, w)
	if err != nil {
		return iris.DBEntry[mpcshare.A]{}, err
	}
	return iris.DBEntry[mpcshare.A]{Code: share, Mask: rec.Mask}, nil
}
