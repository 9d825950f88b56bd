// Package plaintext implements a reference engine.Engine[ringelem.Element]
// (spec 4.6's "plaintext reference engine"): every operation runs directly
// on the ring value with no sharing, no network round, and no party
// boundary. It exists to give protocols/iris's tests a ground truth to
// check ENGINE-A/ENGINE-B results against, and to let the iris matcher run
// once, cheaply, outside any multi-party setup.
package plaintext

import (
	"context"

	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// Engine is the stateless plaintext reference implementation.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Preprocess(ctx context.Context) error { return nil }

// Input just returns value: there is no owner/peer distinction without a
// network, so every caller is expected to supply its own value.
func (e *Engine) Input(ctx context.Context, value *ringelem.Element, owner party.ID, w ringelem.Width) (ringelem.Element, error) {
	if value == nil {
		return ringelem.Element{}, mpcerr.Newf(mpcerr.ErrValue, nil, "plaintext input: no value supplied")
	}
	return *value, nil
}

func (e *Engine) Open(ctx context.Context, s ringelem.Element) (ringelem.Element, error) { return s, nil }

func (e *Engine) OpenMany(ctx context.Context, ss []ringelem.Element) ([]ringelem.Element, error) {
	return ss, nil
}

func (e *Engine) Add(x, y ringelem.Element) ringelem.Element { return x.Add(y) }
func (e *Engine) Sub(x, y ringelem.Element) ringelem.Element { return x.Sub(y) }
func (e *Engine) AddConst(x, c ringelem.Element) ringelem.Element { return x.Add(c) }
func (e *Engine) SubConst(x, c ringelem.Element) ringelem.Element { return x.Sub(c) }
func (e *Engine) MulConst(x, c ringelem.Element) ringelem.Element { return x.Mul(c) }

func (e *Engine) Mul(ctx context.Context, x, y ringelem.Element) (ringelem.Element, error) {
	return x.Mul(y), nil
}

func (e *Engine) MulMany(ctx context.Context, xs, ys []ringelem.Element) ([]ringelem.Element, error) {
	out := make([]ringelem.Element, len(xs))
	for i := range xs {
		out[i] = xs[i].Mul(ys[i])
	}
	return out, nil
}

func (e *Engine) dotLocal(xs, ys []ringelem.Element) ringelem.Element {
	sum := ringelem.Zero(xs[0].Width())
	for i := range xs {
		sum = sum.Add(xs[i].Mul(ys[i]))
	}
	return sum
}

func (e *Engine) Dot(ctx context.Context, xs, ys []ringelem.Element) (ringelem.Element, error) {
	return e.dotLocal(xs, ys), nil
}

func (e *Engine) DotMany(ctx context.Context, xss, yss [][]ringelem.Element) ([]ringelem.Element, error) {
	out := make([]ringelem.Element, len(xss))
	for i := range xss {
		out[i] = e.dotLocal(xss[i], yss[i])
	}
	return out, nil
}

func (e *Engine) MaskedDotMany(ctx context.Context, xss, yss [][]ringelem.Element, masks [][]bool) ([]ringelem.Element, error) {
	out := make([]ringelem.Element, len(xss))
	for i := range xss {
		sum := ringelem.Zero(xss[i][0].Width())
		for j, x := range xss[i] {
			if masks[i][j] {
				sum = sum.Add(x.Mul(yss[i][j]))
			}
		}
		out[i] = sum
	}
	return out, nil
}

// bitShare wraps a plaintext boolean into the mpcshare.A layout MSB and
// OpenBit operate on uniformly across engines (Prev left zero: there is no
// second party to hold it).
func bitShare(bit uint64) mpcshare.A {
	return mpcshare.A{Mine: ringelem.FromUint64(ringelem.W1, bit), Prev: ringelem.Zero(ringelem.W1)}
}

func (e *Engine) MSB(ctx context.Context, x ringelem.Element, w ringelem.Width) (mpcshare.A, error) {
	return bitShare(x.MSB()), nil
}

func (e *Engine) MSBMany(ctx context.Context, xs []ringelem.Element, w ringelem.Width) ([]mpcshare.A, error) {
	out := make([]mpcshare.A, len(xs))
	for i, x := range xs {
		out[i] = bitShare(x.MSB())
	}
	return out, nil
}

func (e *Engine) ReduceBinaryOr(ctx context.Context, bits []mpcshare.A, chunk int) (mpcshare.A, error) {
	var acc uint64
	for _, b := range bits {
		if b.Mine.Xor(b.Prev).Uint64() == 1 {
			acc = 1
			break
		}
	}
	return bitShare(acc), nil
}

func (e *Engine) OpenBit(ctx context.Context, bit mpcshare.A) (bool, error) {
	return bit.Mine.Xor(bit.Prev).Uint64() == 1, nil
}

func (e *Engine) OpenBitMany(ctx context.Context, bits []mpcshare.A) ([]bool, error) {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b.Mine.Xor(b.Prev).Uint64() == 1
	}
	return out, nil
}

func (e *Engine) Verify(ctx context.Context) error { return nil }

func (e *Engine) Finish() error { return nil }
