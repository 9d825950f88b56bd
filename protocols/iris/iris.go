// Package iris implements the iris-code matcher (spec 4.6): masked Hamming
// distance between a shared query code and a shared database of codes,
// threshold comparison, and OR-tree reduction across the scan, all written
// generically against pkg/engine's unified Engine[S] interface so the same
// matcher runs unchanged over ENGINE-A or ENGINE-B.
package iris

import (
	"context"
	"math/bits"

	"github.com/irisprotocol/iris3pc/pkg/engine"
	"github.com/irisprotocol/iris3pc/pkg/irisio"
	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// SharedCode is a shared iris code: one arithmetic share per code bit,
// each holding 0 or 1 in the engine's native ring width (spec 4.6's A_i /
// B_j_i vectors fed to masked_dot_many).
type SharedCode[S any] []S

// DBEntry is one database row: a shared code plus its public mask (spec
// 6.3 — the code/mac columns and their persistence are internal/dbrecord's
// concern, not this matcher's).
type DBEntry[S any] struct {
	Code SharedCode[S]
	Mask irisio.Bitmap
}

// Matcher runs the iris-in-DB protocol against one engine instance.
type Matcher[S any] struct {
	eng   engine.Engine[S]
	width ringelem.Width
}

// requiredRingBits is ceil_log2(IrisCodeSize) + 1: enough headroom for a
// Hamming distance in [0, IrisCodeSize] to survive the hwd = sA+sB-2d
// combination and a subsequent threshold subtraction without wrapping
// around the ring and corrupting the sign bit MSB extraction reads (spec
// 4.6 constructor check).
func requiredRingBits() int {
	return bits.Len(uint(irisio.IrisCodeSize-1)) + 1
}

// New constructs a Matcher bound to eng, operating at ring width w. It
// fails with ConfigError if w cannot safely hold a signed distance value
// (spec 4.6: "constructor check... guards against distance overflow").
func New[S any](eng engine.Engine[S], w ringelem.Width) (*Matcher[S], error) {
	if !w.Valid() {
		return nil, mpcerr.Newf(mpcerr.ErrConfig, nil, "iris matcher: invalid ring width %d", w)
	}
	if int(w) < requiredRingBits() {
		return nil, mpcerr.Newf(mpcerr.ErrConfig, nil,
			"iris matcher: ring width %d too narrow for iris code size %d, need at least %d bits",
			w, irisio.IrisCodeSize, requiredRingBits())
	}
	return &Matcher[S]{eng: eng, width: w}, nil
}

// combinedMask ANDs query and entry masks and reports their popcount
// alongside a MaskHWError when it falls under MaskThreshold (spec 3.5,
// 4.6 step 1).
func combinedMask(queryMask, entryMask irisio.Bitmap) (irisio.Bitmap, int, error) {
	m := queryMask.And(entryMask)
	hw := m.Popcount()
	if hw < irisio.MaskThreshold {
		return m, hw, mpcerr.Newf(mpcerr.ErrMaskHW, nil,
			"iris matcher: combined mask popcount %d below threshold %d", hw, irisio.MaskThreshold)
	}
	return m, hw, nil
}

// thresholdShare runs spec 4.6 steps 1-4 for one query/entry pair: mask
// combine, masked dot, Hamming via hwd = sA+sB-2d, and threshold
// subtraction. The result is the pre-MSB shared value whose sign encodes
// the match predicate; it still needs MSB extraction (left to the caller
// so a DB scan can batch many pairs' MSBs into one round).
func (m *Matcher[S]) thresholdShare(ctx context.Context, query SharedCode[S], queryMask irisio.Bitmap, entry DBEntry[S]) (S, error) {
	var zero S
	if len(query) != irisio.IrisCodeSize || len(entry.Code) != irisio.IrisCodeSize {
		return zero, mpcerr.Newf(mpcerr.ErrInvalidCodeSize, nil,
			"iris matcher: code length %d/%d, want %d", len(query), len(entry.Code), irisio.IrisCodeSize)
	}
	mask, hw, err := combinedMask(queryMask, entry.Mask)
	if err != nil {
		return zero, err
	}

	maskBools := make([]bool, irisio.IrisCodeSize)
	for i := 0; i < irisio.IrisCodeSize; i++ {
		maskBools[i] = mask.Bit(i)
	}

	dots, err := m.eng.MaskedDotMany(ctx, [][]S{query}, [][]S{entry.Code}, [][]bool{maskBools})
	if err != nil {
		return zero, err
	}
	d := dots[0]

	sA := maskedSum(m.eng, query, maskBools)
	sB := maskedSum(m.eng, entry.Code, maskBools)

	hwd := m.eng.Sub(m.eng.Add(sA, sB), m.eng.MulConst(d, ringelem.FromUint64(m.width, 2)))
	threshold := uint64(float64(hw) * irisio.MatchThresholdRatio)
	return m.eng.SubConst(hwd, ringelem.FromUint64(m.width, threshold)), nil
}

// maskedSum locally adds the shares at positions where mask is set; public
// masks carry no secret, so this never touches the network.
func maskedSum[S any](eng engine.Engine[S], xs SharedCode[S], mask []bool) S {
	var acc S
	started := false
	for i, x := range xs {
		if !mask[i] {
			continue
		}
		if !started {
			acc = x
			started = true
			continue
		}
		acc = eng.Add(acc, x)
	}
	return acc
}

// ComparePair runs spec 4.6 steps 1-4 for a single pair and extracts the
// shared "is-match" bit (step 4's MSB). Unlike MatchInDB, it propagates
// MaskHWError to the caller instead of swallowing it — a caller invoking
// this on one known pair wants to see that failure, not have it silently
// skipped (spec 7 Propagation reserves the swallow-and-continue behavior
// for the full DB scan).
func (m *Matcher[S]) ComparePair(ctx context.Context, query SharedCode[S], queryMask irisio.Bitmap, entry DBEntry[S]) (mpcshare.A, error) {
	share, err := m.thresholdShare(ctx, query, queryMask, entry)
	if err != nil {
		return mpcshare.A{}, err
	}
	return m.eng.MSB(ctx, share, m.width)
}

// MatchInDB runs the full iris-in-db protocol (spec 4.6) over db, scanning
// in blocks of dbChunk entries to cap memory, then OR-reducing every
// surviving match bit with orChunk lanes per batched AND round, verifying,
// and opening the result (spec 4.6 step 6). Entries whose combined mask
// falls below MaskThreshold are rejected and skipped rather than aborting
// the scan (spec 7 Propagation).
func (m *Matcher[S]) MatchInDB(ctx context.Context, query SharedCode[S], queryMask irisio.Bitmap, db []DBEntry[S], dbChunk, orChunk int) (bool, error) {
	if dbChunk <= 0 {
		dbChunk = 256
	}

	var allBits []mpcshare.A
	for start := 0; start < len(db); start += dbChunk {
		end := start + dbChunk
		if end > len(db) {
			end = len(db)
		}
		shares := make([]S, 0, end-start)
		for _, entry := range db[start:end] {
			share, err := m.thresholdShare(ctx, query, queryMask, entry)
			if err != nil {
				if mpcerr.IsMaskHW(err) {
					continue
				}
				return false, err
			}
			shares = append(shares, share)
		}
		if len(shares) == 0 {
			continue
		}
		msbs, err := m.eng.MSBMany(ctx, shares, m.width)
		if err != nil {
			return false, err
		}
		allBits = append(allBits, msbs...)
	}

	result, err := m.eng.ReduceBinaryOr(ctx, allBits, orChunk)
	if err != nil {
		return false, err
	}
	if err := m.eng.Verify(ctx); err != nil {
		return false, err
	}
	return m.eng.OpenBit(ctx, result)
}
