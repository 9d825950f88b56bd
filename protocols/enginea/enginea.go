// Package enginea implements ENGINE-A (spec 3.3, 4.3): the semi-honest
// replicated-additive three-party engine, plus (in auth.go) its
// MAC-authenticated extension (spec 4.7).
package enginea

import (
	"context"
	"fmt"

	"github.com/irisprotocol/iris3pc/pkg/corrprf"
	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/binary"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// Engine is the semi-honest ENGINE-A implementation of engine.Engine[mpcshare.A].
type Engine struct {
	self party.ID
	net  network.Network
	prf  *corrprf.PRF
}

// New constructs an ENGINE-A instance bound to net; call Preprocess before
// any other operation.
func New(net network.Network) *Engine {
	return &Engine{self: net.ID(), net: net}
}

func (e *Engine) Preprocess(ctx context.Context) error {
	prf, err := corrprf.Setup(e.net)
	if err != nil {
		return err
	}
	e.prf = prf
	return nil
}

// Input implements the fresh-sharing protocol: owner draws its two
// correlated-randomness pieces (shared with Next and Prev respectively),
// keeps their difference from the plaintext value as its own share
// component, and sends each of the two peers exactly the one value it
// cannot derive locally (spec leaves Input's wire protocol unspecified
// beyond "value only at owner_id -> shared value"; this is the standard
// ABY3 joint-input pattern built on the PRF streams of spec 3.4/4.1).
func (e *Engine) Input(ctx context.Context, value *ringelem.Element, owner party.ID, w ringelem.Width) (mpcshare.A, error) {
	next, prev := e.self.Next(), e.self.Prev()
	switch e.self {
	case owner:
		if value == nil {
			return mpcshare.A{}, mpcerr.Newf(mpcerr.ErrValue, []party.ID{e.self}, "input: owner %s supplied no value", owner)
		}
		r1 := e.prf.Gen1(w) // shared with next
		r2 := e.prf.Gen2(w) // shared with prev
		mine := value.Sub(r1).Sub(r2)
		if err := e.net.Send(next, mine.MarshalBinary()); err != nil {
			return mpcshare.A{}, err
		}
		if err := e.net.Send(prev, r1.MarshalBinary()); err != nil {
			return mpcshare.A{}, err
		}
		return mpcshare.A{Mine: mine, Prev: r2}, nil

	case next: // owner.Next() == e.self
		mine := e.prf.Gen2(w) // shared with owner, matches owner's Gen1
		buf, err := e.net.RecvPrev()
		if err != nil {
			return mpcshare.A{}, err
		}
		prevVal, err := ringelem.Unmarshal(w, buf)
		if err != nil {
			return mpcshare.A{}, err
		}
		return mpcshare.A{Mine: mine, Prev: prevVal}, nil

	case prev: // owner.Prev() == e.self, so owner == e.self.Next()
		mine := e.prf.Gen1(w) // shared with owner, matches owner's Gen2
		buf, err := e.net.RecvNext()
		if err != nil {
			return mpcshare.A{}, err
		}
		prevVal, err := ringelem.Unmarshal(w, buf)
		if err != nil {
			return mpcshare.A{}, err
		}
		return mpcshare.A{Mine: mine, Prev: prevVal}, nil
	}
	return mpcshare.A{}, mpcerr.Newf(mpcerr.ErrConfig, nil, "input: unreachable party routing for owner %s", owner)
}

// exchangeMissing fills in the one additive component a party's (Mine,
// Prev) pair never carries: every party sends its own Mine to Prev and
// receives the missing piece (its Next's Mine) in return.
func (e *Engine) exchangeMissing(mine ringelem.Element) (ringelem.Element, error) {
	if err := e.net.SendPrev(mine.MarshalBinary()); err != nil {
		return ringelem.Element{}, err
	}
	buf, err := e.net.RecvNext()
	if err != nil {
		return ringelem.Element{}, err
	}
	return ringelem.Unmarshal(mine.Width(), buf)
}

func (e *Engine) exchangeMissingMany(mine []ringelem.Element) ([]ringelem.Element, error) {
	w := mine[0].Width()
	if err := e.net.SendPrev(ringelem.MarshalVector(mine)); err != nil {
		return nil, err
	}
	buf, err := e.net.RecvNext()
	if err != nil {
		return nil, err
	}
	return ringelem.UnmarshalVector(w, buf, len(mine))
}

func (e *Engine) Open(ctx context.Context, s mpcshare.A) (ringelem.Element, error) {
	missing, err := e.exchangeMissing(s.Mine)
	if err != nil {
		return ringelem.Element{}, err
	}
	return s.Mine.Add(s.Prev).Add(missing), nil
}

func (e *Engine) OpenMany(ctx context.Context, ss []mpcshare.A) ([]ringelem.Element, error) {
	mines := make([]ringelem.Element, len(ss))
	for i, s := range ss {
		mines[i] = s.Mine
	}
	missing, err := e.exchangeMissingMany(mines)
	if err != nil {
		return nil, err
	}
	out := make([]ringelem.Element, len(ss))
	for i, s := range ss {
		out[i] = s.Mine.Add(s.Prev).Add(missing[i])
	}
	return out, nil
}

func (e *Engine) OpenBit(ctx context.Context, s mpcshare.A) (bool, error) {
	missing, err := e.exchangeMissing(s.Mine)
	if err != nil {
		return false, err
	}
	v := s.Mine.Xor(s.Prev).Xor(missing)
	return v.Uint64() == 1, nil
}

func (e *Engine) OpenBitMany(ctx context.Context, ss []mpcshare.A) ([]bool, error) {
	mines := make([]ringelem.Element, len(ss))
	for i, s := range ss {
		mines[i] = s.Mine
	}
	missing, err := e.exchangeMissingMany(mines)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(ss))
	for i, s := range ss {
		out[i] = s.Mine.Xor(s.Prev).Xor(missing[i]).Uint64() == 1
	}
	return out, nil
}

func (e *Engine) Add(x, y mpcshare.A) mpcshare.A { return x.Add(y) }
func (e *Engine) Sub(x, y mpcshare.A) mpcshare.A { return x.Sub(y) }
// AddConst adds a public constant exactly once to the decomposition: party
// 0 owns it (adds to Mine), party 1 = 0.Next() mirrors it into the Prev
// slot that caches party 0's Mine, and party 2 is untouched — the fixed,
// data-independent convention matching mpcshare.A.AddConstMine/AddConstPrev.
func (e *Engine) AddConst(x mpcshare.A, c ringelem.Element) mpcshare.A {
	switch e.self {
	case party.Zero:
		return x.AddConstMine(c)
	case party.Zero.Next():
		return x.AddConstPrev(c)
	default:
		return x
	}
}
func (e *Engine) SubConst(x mpcshare.A, c ringelem.Element) mpcshare.A {
	return e.AddConst(x, c.Neg())
}
func (e *Engine) MulConst(x mpcshare.A, c ringelem.Element) mpcshare.A { return x.MulConst(c) }

// reshareMany is the network half of every multiplication/AND: each party
// masks its local degree-2 contribution with a fresh PRF zero-share, then
// ships the masked value to Prev and learns the Next party's masked value
// in return, completing a valid new ENGINE-A share in one round (spec 4.3).
func (e *Engine) reshareMany(masked []ringelem.Element) ([]mpcshare.A, error) {
	prevVals, err := e.exchangeMissingMany(masked)
	if err != nil {
		return nil, err
	}
	out := make([]mpcshare.A, len(masked))
	for i := range out {
		out[i] = mpcshare.A{Mine: masked[i], Prev: prevVals[i]}
	}
	return out, nil
}

func (e *Engine) MulMany(ctx context.Context, xs, ys []mpcshare.A) ([]mpcshare.A, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: mul_many operand length mismatch %d/%d", mpcerr.ErrInvalidSize, len(xs), len(ys))
	}
	masked := make([]ringelem.Element, len(xs))
	for i := range masked {
		pp := mpcshare.MulLocal(xs[i], ys[i])
		masked[i] = pp.Value.Add(e.prf.ZeroShareAdditive(pp.Value.Width()))
	}
	return e.reshareMany(masked)
}

func (e *Engine) Mul(ctx context.Context, x, y mpcshare.A) (mpcshare.A, error) {
	out, err := e.MulMany(ctx, []mpcshare.A{x}, []mpcshare.A{y})
	if err != nil {
		return mpcshare.A{}, err
	}
	return out[0], nil
}

func (e *Engine) dotLocal(xs, ys []mpcshare.A) (ringelem.Element, error) {
	if len(xs) != len(ys) || len(xs) == 0 {
		return ringelem.Element{}, fmt.Errorf("%w: dot operand length mismatch %d/%d", mpcerr.ErrInvalidSize, len(xs), len(ys))
	}
	w := xs[0].Mine.Width()
	sum := ringelem.Zero(w)
	for i := range xs {
		sum = sum.Add(mpcshare.MulLocal(xs[i], ys[i]).Value)
	}
	return sum.Add(e.prf.ZeroShareAdditive(w)), nil
}

func (e *Engine) Dot(ctx context.Context, xs, ys []mpcshare.A) (mpcshare.A, error) {
	masked, err := e.dotLocal(xs, ys)
	if err != nil {
		return mpcshare.A{}, err
	}
	out, err := e.reshareMany([]ringelem.Element{masked})
	if err != nil {
		return mpcshare.A{}, err
	}
	return out[0], nil
}

func (e *Engine) DotMany(ctx context.Context, xss, yss [][]mpcshare.A) ([]mpcshare.A, error) {
	masked := make([]ringelem.Element, len(xss))
	for i := range xss {
		m, err := e.dotLocal(xss[i], yss[i])
		if err != nil {
			return nil, err
		}
		masked[i] = m
	}
	return e.reshareMany(masked)
}

// MaskedDotMany is DotMany restricted, per inner product, to the positions
// where the corresponding public mask bit is set (spec 4.6 masked_dot_many);
// masks are plaintext booleans known identically to all three parties, not
// shared values, so skipping unmasked positions is a purely local
// optimization.
func (e *Engine) MaskedDotMany(ctx context.Context, xss, yss [][]mpcshare.A, masks [][]bool) ([]mpcshare.A, error) {
	if len(xss) != len(masks) {
		return nil, fmt.Errorf("%w: masked_dot_many mask count mismatch %d/%d", mpcerr.ErrInvalidSize, len(xss), len(masks))
	}
	masked := make([]ringelem.Element, len(xss))
	for i := range xss {
		xs, ys, mask := xss[i], yss[i], masks[i]
		if len(xs) != len(ys) || len(xs) != len(mask) {
			return nil, fmt.Errorf("%w: masked_dot_many row %d length mismatch", mpcerr.ErrInvalidSize, i)
		}
		w := xs[0].Mine.Width()
		sum := ringelem.Zero(w)
		for j := range xs {
			if !mask[j] {
				continue
			}
			sum = sum.Add(mpcshare.MulLocal(xs[j], ys[j]).Value)
		}
		masked[i] = sum.Add(e.prf.ZeroShareAdditive(w))
	}
	return e.reshareMany(masked)
}

// AndMany is the binary.AndMany[mpcshare.A] callback the Kogge-Stone adder
// and OR-tree reductions run against (protocols/binary): bitwise local AND,
// XOR zero-share mask, same reshare round as MulMany.
func (e *Engine) AndMany(xs, ys []mpcshare.A) ([]mpcshare.A, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: and_many operand length mismatch %d/%d", mpcerr.ErrInvalidSize, len(xs), len(ys))
	}
	masked := make([]ringelem.Element, len(xs))
	for i := range masked {
		pp := mpcshare.AndLocal(xs[i], ys[i])
		masked[i] = pp.Value.Xor(e.prf.ZeroShareXOR(pp.Value.Width()))
	}
	return e.reshareMany(masked)
}

func (e *Engine) MSB(ctx context.Context, x mpcshare.A, w ringelem.Width) (mpcshare.A, error) {
	return binary.MSB(e.self, w, x, e.AndMany)
}

func (e *Engine) MSBMany(ctx context.Context, xs []mpcshare.A, w ringelem.Width) ([]mpcshare.A, error) {
	return binary.MSBMany(e.self, w, xs, e.AndMany)
}

func (e *Engine) ReduceBinaryOr(ctx context.Context, bits []mpcshare.A, chunk int) (mpcshare.A, error) {
	return binary.OrReduce(bits, chunk, e.AndMany)
}

// Verify is a no-op for plain ENGINE-A: semi-honest security has nothing to
// check. The authenticated variant (auth.go) overrides this.
func (e *Engine) Verify(ctx context.Context) error { return nil }

func (e *Engine) Finish() error {
	e.net.Shutdown()
	return nil
}
