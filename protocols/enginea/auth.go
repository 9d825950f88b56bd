package enginea

import (
	"context"

	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/pkg/sharable"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// AuthShare pairs an ENGINE-A value share (width w) with a share of
// r*widen(value) for the session's global MAC key r (spec 4.7). The mac
// component lives in sharable.VerifyRing(w), not in w itself: running the
// check in the same ring as the value (the earlier, broken shape of this
// type) gives no margin above the forging adversary's 2^-w guessing
// probability, so a corrupted value of the right form always passes. Spec
// 3.2/4.7 require the wider C2 ring precisely so the check's soundness
// error is bounded by 2^-40 regardless of w.
type AuthShare struct {
	Value mpcshare.A
	Mac   mpcshare.A
}

// AuthEngine wraps a plain ENGINE-A instance with the MAC-authenticated
// extension of spec 4.7. It is not a subclass of Engine: operations either
// delegate straight to the inner engine (local ops) or drive it twice — once
// for the value, once for the mac — batching same-ring work together but
// never mixing the two, since they now live in different rings.
type AuthEngine struct {
	inner   *Engine
	macKeys map[ringelem.Width]mpcshare.A // one per sharable.VerificationRings() entry
	queue   []AuthShare
}

// NewAuth constructs the authenticated engine. Preprocess must be called
// before use; it derives one macKey per verification ring as a fresh
// ENGINE-A share of a random element known to no single party.
func NewAuth(net network.Network) *AuthEngine {
	return &AuthEngine{inner: New(net)}
}

func (e *AuthEngine) Preprocess(ctx context.Context) error {
	if err := e.inner.Preprocess(ctx); err != nil {
		return err
	}
	// Each macKey is a value nobody knows: a PRF-with-next draw (known to
	// two parties, never all three) reshared into one ENGINE-A share, the
	// same way a random unowned value is always jointly generated here.
	// One such key is provisioned per C2 verification ring up front, since
	// Input/Mul/Dot all need the key at whatever ring the value in hand
	// promotes to.
	e.macKeys = make(map[ringelem.Width]mpcshare.A, len(sharable.VerificationRings()))
	for _, v := range sharable.VerificationRings() {
		piece := e.inner.prf.Gen1(v)
		shared, err := e.inner.reshareMany([]ringelem.Element{piece})
		if err != nil {
			return err
		}
		e.macKeys[v] = shared[0]
	}
	return nil
}

func (e *AuthEngine) track(s AuthShare) AuthShare {
	e.queue = append(e.queue, s)
	return s
}

func (e *AuthEngine) Input(ctx context.Context, value *ringelem.Element, owner party.ID, w ringelem.Width) (AuthShare, error) {
	v, err := e.inner.Input(ctx, value, owner, w)
	if err != nil {
		return AuthShare{}, err
	}
	ring := sharable.VerifyRing(w)
	mac, err := e.inner.Mul(ctx, e.macKeyAt(ring), widenShare(v, ring))
	if err != nil {
		return AuthShare{}, err
	}
	return e.track(AuthShare{Value: v, Mac: mac}), nil
}

// macKeyAt returns the provisioned MAC key living in verification ring v.
func (e *AuthEngine) macKeyAt(v ringelem.Width) mpcshare.A {
	return e.macKeys[v]
}

// widenShare lifts both components of an ENGINE-A share into the wider
// ring v by zero-extension — mpcshare.A.WidenAt already does exactly this
// per-component zero-extend-and-shift for packing bit shares into a carrier
// word (protocols/binary), so the mac-ring promotion here is the same
// primitive at shift 0, not a new one.
func widenShare(s mpcshare.A, v ringelem.Width) mpcshare.A {
	return s.WidenAt(v, 0)
}

func (e *AuthEngine) Add(x, y AuthShare) AuthShare {
	return AuthShare{Value: e.inner.Add(x.Value, y.Value), Mac: e.inner.Add(x.Mac, y.Mac)}
}

func (e *AuthEngine) Sub(x, y AuthShare) AuthShare {
	return AuthShare{Value: e.inner.Sub(x.Value, y.Value), Mac: e.inner.Sub(x.Mac, y.Mac)}
}

// AddConst adds a public constant c to the value and widen(c)*r to the
// mac — a local scalar multiple of the already-shared verification-ring mac
// key, so no network round is introduced (spec 4.7: "Additive ...
// operations extend trivially to both components"). c itself is widened
// into the mac's ring before the scalar multiply, matching the ring the mac
// component already lives in.
func (e *AuthEngine) AddConst(x AuthShare, c ringelem.Element) AuthShare {
	ring := sharable.VerifyRing(c.Width())
	return AuthShare{
		Value: e.inner.AddConst(x.Value, c),
		Mac:   e.inner.Add(x.Mac, e.macKeyAt(ring).MulConst(sharable.Widen(c, ring))),
	}
}

func (e *AuthEngine) SubConst(x AuthShare, c ringelem.Element) AuthShare {
	return e.AddConst(x, c.Neg())
}

// MulConst scales the value by c and the mac by widen(c): mac(c*x) =
// r*widen(c*x) = widen(c)*r*widen(x) = widen(c)*mac(x), a local operation
// in the mac's own ring.
func (e *AuthEngine) MulConst(x AuthShare, c ringelem.Element) AuthShare {
	ring := x.Mac.Mine.Width()
	return AuthShare{Value: e.inner.MulConst(x.Value, c), Mac: e.inner.MulConst(x.Mac, sharable.Widen(c, ring))}
}

// Mul computes the value product in its own ring and the mac product
// mac(x)*widen(y) in the wider verification ring, as two separate batched
// rounds (the two multiplications no longer share a ring, so they can no
// longer be concatenated into the single MulMany call the value-ring-only
// shape of this type used before — spec 4.7/3.2's "at least 40 bit wider"
// requirement is exactly what makes that concatenation invalid).
func (e *AuthEngine) Mul(ctx context.Context, x, y AuthShare) (AuthShare, error) {
	outs, err := e.MulMany(ctx, []AuthShare{x}, []AuthShare{y})
	if err != nil {
		return AuthShare{}, err
	}
	return outs[0], nil
}

func (e *AuthEngine) MulMany(ctx context.Context, xs, ys []AuthShare) ([]AuthShare, error) {
	n := len(xs)
	ring := xs[0].Mac.Mine.Width()

	values := make([]mpcshare.A, n)
	yValues := make([]mpcshare.A, n)
	for i := range xs {
		values[i] = xs[i].Value
		yValues[i] = ys[i].Value
	}
	outValues, err := e.inner.MulMany(ctx, values, yValues)
	if err != nil {
		return nil, err
	}

	macLhs := make([]mpcshare.A, n)
	macRhs := make([]mpcshare.A, n)
	for i := range xs {
		macLhs[i] = xs[i].Mac
		macRhs[i] = widenShare(ys[i].Value, ring)
	}
	outMacs, err := e.inner.MulMany(ctx, macLhs, macRhs)
	if err != nil {
		return nil, err
	}

	results := make([]AuthShare, n)
	for i := range results {
		results[i] = e.track(AuthShare{Value: outValues[i], Mac: outMacs[i]})
	}
	return results, nil
}

func (e *AuthEngine) Dot(ctx context.Context, xs, ys []AuthShare) (AuthShare, error) {
	out, err := e.DotMany(ctx, [][]AuthShare{xs}, [][]AuthShare{ys})
	if err != nil {
		return AuthShare{}, err
	}
	return out[0], nil
}

func (e *AuthEngine) DotMany(ctx context.Context, xss, yss [][]AuthShare) ([]AuthShare, error) {
	ring := xss[0][0].Mac.Mine.Width()

	valXs := make([][]mpcshare.A, len(xss))
	valYs := make([][]mpcshare.A, len(xss))
	macXs := make([][]mpcshare.A, len(xss))
	macYs := make([][]mpcshare.A, len(xss))
	for i := range xss {
		values := make([]mpcshare.A, len(xss[i]))
		macs := make([]mpcshare.A, len(xss[i]))
		ys := make([]mpcshare.A, len(xss[i]))
		widenedYs := make([]mpcshare.A, len(xss[i]))
		for j := range xss[i] {
			values[j] = xss[i][j].Value
			macs[j] = xss[i][j].Mac
			ys[j] = yss[i][j].Value
			widenedYs[j] = widenShare(yss[i][j].Value, ring)
		}
		valXs[i], valYs[i] = values, ys
		macXs[i], macYs[i] = macs, widenedYs
	}

	outValues, err := e.inner.DotMany(ctx, valXs, valYs)
	if err != nil {
		return nil, err
	}
	outMacs, err := e.inner.DotMany(ctx, macXs, macYs)
	if err != nil {
		return nil, err
	}

	results := make([]AuthShare, len(xss))
	for i := range results {
		results[i] = e.track(AuthShare{Value: outValues[i], Mac: outMacs[i]})
	}
	return results, nil
}

func (e *AuthEngine) MaskedDotMany(ctx context.Context, xss, yss [][]AuthShare, masks [][]bool) ([]AuthShare, error) {
	ring := xss[0][0].Mac.Mine.Width()

	valXs := make([][]mpcshare.A, len(xss))
	valYs := make([][]mpcshare.A, len(xss))
	macXs := make([][]mpcshare.A, len(xss))
	macYs := make([][]mpcshare.A, len(xss))
	for i := range xss {
		values := make([]mpcshare.A, len(xss[i]))
		macs := make([]mpcshare.A, len(xss[i]))
		ys := make([]mpcshare.A, len(xss[i]))
		widenedYs := make([]mpcshare.A, len(xss[i]))
		for j := range xss[i] {
			values[j] = xss[i][j].Value
			macs[j] = xss[i][j].Mac
			ys[j] = yss[i][j].Value
			widenedYs[j] = widenShare(yss[i][j].Value, ring)
		}
		valXs[i], valYs[i] = values, ys
		macXs[i], macYs[i] = macs, widenedYs
	}

	outValues, err := e.inner.MaskedDotMany(ctx, valXs, valYs, masks)
	if err != nil {
		return nil, err
	}
	outMacs, err := e.inner.MaskedDotMany(ctx, macXs, macYs, masks)
	if err != nil {
		return nil, err
	}

	results := make([]AuthShare, len(xss))
	for i := range results {
		results[i] = e.track(AuthShare{Value: outValues[i], Mac: outMacs[i]})
	}
	return results, nil
}

// MSB projects onto the plain value share (bits are never MAC'd — spec 4.7
// requires verification before this exact point, since bit-level ops would
// destroy MAC consistency) and runs the ordinary A2B conversion.
func (e *AuthEngine) MSB(ctx context.Context, x AuthShare, w ringelem.Width) (mpcshare.A, error) {
	if err := e.Verify(ctx); err != nil {
		return mpcshare.A{}, err
	}
	return e.inner.MSB(ctx, x.Value, w)
}

func (e *AuthEngine) MSBMany(ctx context.Context, xs []AuthShare, w ringelem.Width) ([]mpcshare.A, error) {
	if err := e.Verify(ctx); err != nil {
		return nil, err
	}
	values := make([]mpcshare.A, len(xs))
	for i := range xs {
		values[i] = xs[i].Value
	}
	return e.inner.MSBMany(ctx, values, w)
}

func (e *AuthEngine) ReduceBinaryOr(ctx context.Context, bits []mpcshare.A, chunk int) (mpcshare.A, error) {
	return e.inner.ReduceBinaryOr(ctx, bits, chunk)
}

func (e *AuthEngine) OpenBit(ctx context.Context, bit mpcshare.A) (bool, error) {
	return e.inner.OpenBit(ctx, bit)
}

func (e *AuthEngine) OpenBitMany(ctx context.Context, bits []mpcshare.A) ([]bool, error) {
	return e.inner.OpenBitMany(ctx, bits)
}

func (e *AuthEngine) Open(ctx context.Context, x AuthShare) (ringelem.Element, error) {
	e.track(x)
	if err := e.Verify(ctx); err != nil {
		return ringelem.Element{}, err
	}
	return e.inner.Open(ctx, x.Value)
}

func (e *AuthEngine) OpenMany(ctx context.Context, xs []AuthShare) ([]ringelem.Element, error) {
	for _, x := range xs {
		e.track(x)
	}
	if err := e.Verify(ctx); err != nil {
		return nil, err
	}
	values := make([]mpcshare.A, len(xs))
	for i, x := range xs {
		values[i] = x.Value
	}
	return e.inner.OpenMany(ctx, values)
}

// Verify drains the MAC verification queue (spec 4.7): group the queue by
// value width (each width has its own verification ring and mac key), then
// for each group take a random public linear combination of every
// outstanding (value, mac) pair, open the combined value, locally recompute
// what its mac should be against the (still shared) verification-ring mac
// key, and open the difference — any nonzero opening is a VerifyError.
func (e *AuthEngine) Verify(ctx context.Context) error {
	if len(e.queue) == 0 {
		return nil
	}
	groups := make(map[ringelem.Width][]AuthShare)
	for _, entry := range e.queue {
		w := entry.Value.Mine.Width()
		groups[w] = append(groups[w], entry)
	}
	e.queue = e.queue[:0]

	for w, entries := range groups {
		if err := e.verifyGroup(ctx, w, entries); err != nil {
			return err
		}
	}
	return nil
}

func (e *AuthEngine) verifyGroup(ctx context.Context, w ringelem.Width, entries []AuthShare) error {
	ring := sharable.VerifyRing(w)
	combinedVal := mpcshare.A{Mine: ringelem.Zero(w), Prev: ringelem.Zero(w)}
	combinedMac := mpcshare.A{Mine: ringelem.Zero(ring), Prev: ringelem.Zero(ring)}
	for _, entry := range entries {
		coeff := e.inner.prf.GenPublic(w)
		combinedVal = combinedVal.Add(entry.Value.MulConst(coeff))
		combinedMac = combinedMac.Add(entry.Mac.MulConst(sharable.Widen(coeff, ring)))
	}

	v, err := e.inner.Open(ctx, combinedVal)
	if err != nil {
		return err
	}
	expectedMac := e.macKeyAt(ring).MulConst(sharable.Widen(v, ring))
	diffShare := combinedMac.Sub(expectedMac)
	diff, err := e.inner.Open(ctx, diffShare)
	if err != nil {
		return err
	}
	if !diff.Equal(ringelem.Zero(ring)) {
		return mpcerr.Newf(mpcerr.ErrVerify, nil, "authenticated MAC check failed (verification ring %d)", ring)
	}
	return nil
}

func (e *AuthEngine) Finish() error { return e.inner.Finish() }
