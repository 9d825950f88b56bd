// Package engine declares the unified MPC engine interface the iris matcher
// (protocols/iris) builds on, implemented separately by the semi-honest
// ENGINE-A family (protocols/enginea) and the malicious-secure ENGINE-B
// family (protocols/engineb) (spec 6.4).
//
// The interface is generic over the arithmetic share type S so that the two
// engines — whose wire-level share layouts differ (plain ENGINE-A pairs,
// MAC-authenticated ENGINE-A pairs, or public-beta ENGINE-B triples) — can
// all satisfy it without a shared concrete share struct. Boolean results
// (MSB, OR-tree, open_bit) always live in the binary-circuit's own
// mpcshare.A layout regardless of which arithmetic engine produced them,
// since arithmetic-to-binary conversion always projects through that layout
// (spec 4.3, 4.4).
package engine

import (
	"context"

	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// Engine is the operation set exposed upward to the iris matcher (spec 6.4).
type Engine[S any] interface {
	Preprocess(ctx context.Context) error

	Input(ctx context.Context, value *ringelem.Element, owner party.ID, w ringelem.Width) (S, error)
	Open(ctx context.Context, s S) (ringelem.Element, error)
	OpenMany(ctx context.Context, ss []S) ([]ringelem.Element, error)

	Add(x, y S) S
	Sub(x, y S) S
	AddConst(x S, c ringelem.Element) S
	SubConst(x S, c ringelem.Element) S
	MulConst(x S, c ringelem.Element) S

	Mul(ctx context.Context, x, y S) (S, error)
	MulMany(ctx context.Context, xs, ys []S) ([]S, error)
	Dot(ctx context.Context, xs, ys []S) (S, error)
	DotMany(ctx context.Context, xss, yss [][]S) ([]S, error)
	MaskedDotMany(ctx context.Context, xss, yss [][]S, masks [][]bool) ([]S, error)

	MSB(ctx context.Context, x S, w ringelem.Width) (mpcshare.A, error)
	MSBMany(ctx context.Context, xs []S, w ringelem.Width) ([]mpcshare.A, error)
	ReduceBinaryOr(ctx context.Context, bits []mpcshare.A, chunk int) (mpcshare.A, error)
	OpenBit(ctx context.Context, bit mpcshare.A) (bool, error)
	OpenBitMany(ctx context.Context, bits []mpcshare.A) ([]bool, error)

	Verify(ctx context.Context) error
	Finish() error
}
