package engineb

import (
	"context"
	"fmt"

	"github.com/irisprotocol/iris3pc/pkg/commitment"
	"github.com/irisprotocol/iris3pc/pkg/corrprf"
	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/binary"
	"github.com/irisprotocol/iris3pc/protocols/dzkp"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

// Engine is the malicious-secure ENGINE-B implementation of
// engine.Engine[mpcshare.B] (spec 3.3, 4.2, 4.3, 4.8).
type Engine struct {
	self party.ID
	net  network.Network
	prf  *corrprf.PRF
	jmp  *JMP

	andProof *dzkp.Proof
	mulProof *dzkp.Proof
	dotProof *dzkp.Proof
}

func New(net network.Network) *Engine {
	return &Engine{
		self:     net.ID(),
		net:      net,
		andProof: dzkp.NewProof("and"),
		mulProof: dzkp.NewProof("mul"),
		dotProof: dzkp.NewProof("dot"),
	}
}

func (e *Engine) Preprocess(ctx context.Context) error {
	prf, err := corrprf.Setup(e.net)
	if err != nil {
		return err
	}
	e.prf = prf
	e.jmp = NewJMP(e.net)
	return nil
}

// Input shares value (known only at owner) into an ENGINE-B share: every
// party locally draws its own alpha/alphaPrev pair (same Gen1/Gen2
// convention as everywhere else in this codebase), owner collects the one
// alpha piece it cannot derive locally and computes the public beta, then
// delivers beta to both peers directly, each cross-forwarding what it
// received to the other so a dishonest owner sending inconsistent betas is
// caught immediately rather than carried forward (spec leaves ENGINE-B's
// input wire protocol unspecified beyond "owner supplies the value").
func (e *Engine) Input(ctx context.Context, value *ringelem.Element, owner party.ID, w ringelem.Width) (mpcshare.B, error) {
	alpha := e.prf.Gen1(w)
	alphaPrev := e.prf.Gen2(w)

	var beta ringelem.Element
	switch e.self {
	case owner:
		if value == nil {
			return mpcshare.B{}, mpcerr.Newf(mpcerr.ErrValue, []party.ID{e.self}, "input: owner %s supplied no value", owner)
		}
		buf, err := e.net.RecvNext()
		if err != nil {
			return mpcshare.B{}, err
		}
		alphaNext, err := ringelem.Unmarshal(w, buf)
		if err != nil {
			return mpcshare.B{}, err
		}
		beta = value.Add(alpha).Add(alphaPrev).Add(alphaNext)
		if err := e.net.SendNext(beta.MarshalBinary()); err != nil {
			return mpcshare.B{}, err
		}
		if err := e.net.SendPrev(beta.MarshalBinary()); err != nil {
			return mpcshare.B{}, err
		}
	case owner.Next():
		if err := e.net.SendPrev(alpha.MarshalBinary()); err != nil {
			return mpcshare.B{}, err
		}
		buf, err := e.net.RecvPrev()
		if err != nil {
			return mpcshare.B{}, err
		}
		beta, err = ringelem.Unmarshal(w, buf)
		if err != nil {
			return mpcshare.B{}, err
		}
	default: // owner.Prev()
		buf, err := e.net.RecvNext()
		if err != nil {
			return mpcshare.B{}, err
		}
		var err2 error
		beta, err2 = ringelem.Unmarshal(w, buf)
		if err2 != nil {
			return mpcshare.B{}, err2
		}
	}

	if e.self != owner {
		other := owner.Next()
		if e.self == other {
			other = owner.Prev()
		}
		if err := e.net.Send(other, beta.MarshalBinary()); err != nil {
			return mpcshare.B{}, err
		}
		buf, err := e.net.Recv(other)
		if err != nil {
			return mpcshare.B{}, err
		}
		forwarded, err := ringelem.Unmarshal(w, buf)
		if err != nil {
			return mpcshare.B{}, err
		}
		if !forwarded.Equal(beta) {
			return mpcshare.B{}, mpcerr.Newf(mpcerr.ErrJmpVerify, []party.ID{owner}, "input: inconsistent beta broadcast from %s", owner)
		}
	}

	return mpcshare.NewB(alpha, alphaPrev, beta), nil
}

func (e *Engine) Add(x, y mpcshare.B) mpcshare.B { return x.Add(y) }
func (e *Engine) Sub(x, y mpcshare.B) mpcshare.B { return x.Sub(y) }
func (e *Engine) AddConst(x mpcshare.B, c ringelem.Element) mpcshare.B { return x.AddConst(c) }
func (e *Engine) SubConst(x mpcshare.B, c ringelem.Element) mpcshare.B { return x.AddConst(c.Neg()) }
func (e *Engine) MulConst(x mpcshare.B, c ringelem.Element) mpcshare.B { return x.MulConst(c) }

// exchangeMissingMany mirrors enginea's reshare round: send mine to Next,
// receive Prev's mine in return, so the result is the Prev component of a
// (Mine, Prev) ENGINE-A share.
func (e *Engine) exchangeMissingMany(mine []ringelem.Element) ([]ringelem.Element, error) {
	w := mine[0].Width()
	if err := e.net.SendNext(ringelem.MarshalVector(mine)); err != nil {
		return nil, err
	}
	buf, err := e.net.RecvPrev()
	if err != nil {
		return nil, err
	}
	return ringelem.UnmarshalVector(w, buf, len(mine))
}

// mulAWithProof runs one ENGINE-A-style multiplication of two slices of
// projected ENGINE-A shares (spec 4.3 step 2) and records every gate's
// transcript into proof for later DZKP verification.
func (e *Engine) mulAWithProof(xs, ys []mpcshare.A, proof *dzkp.Proof) ([]mpcshare.A, error) {
	n := len(xs)
	w := xs[0].Mine.Width()
	masked := make([]ringelem.Element, n)
	r0s := make([]ringelem.Element, n)
	r1s := make([]ringelem.Element, n)
	for i := range xs {
		pp := mpcshare.MulLocal(xs[i], ys[i])
		r0, r1 := e.prf.Gen1(w), e.prf.Gen2(w)
		r0s[i], r1s[i] = r0, r1
		masked[i] = pp.Value.Add(r0).Sub(r1)
	}
	prevVals, err := e.exchangeMissingMany(masked)
	if err != nil {
		return nil, err
	}
	out := make([]mpcshare.A, n)
	for i := range xs {
		out[i] = mpcshare.A{Mine: masked[i], Prev: prevVals[i]}
		proof.Record(dzkp.GateRecord{
			A0: xs[i].Mine, A1: xs[i].Prev,
			B0: ys[i].Mine, B1: ys[i].Prev,
			R0: r0s[i], R1: r1s[i],
			S0: out[i].Mine, S1: out[i].Prev,
		})
	}
	return out, nil
}

// jointPieceSum delivers, for every j in {0,1,2}, pieces[owned by j] from
// senders {j, j.Next()} to receiver j.Next().Next() (spec 4.3 step 3's
// "two JMP sends and one jshare"), then sums the three deliveries so every
// party ends up with the same public total.
func (e *Engine) jointPieceSum(pieceMine, piecePrev []ringelem.Element, w ringelem.Width) ([]ringelem.Element, error) {
	n := len(pieceMine)
	sums := make([]ringelem.Element, n)
	for i := range sums {
		sums[i] = ringelem.Zero(w)
	}
	for _, j := range party.All() {
		s1, s2, receiver := j, j.Next(), j.Next().Next()
		var vs []ringelem.Element
		switch e.self {
		case s1:
			vs = pieceMine
		case s2:
			vs = piecePrev
		}
		got, err := e.jmp.DeliverMany(s1, s2, receiver, vs, w, n)
		if err != nil {
			return nil, err
		}
		for i := range sums {
			sums[i] = sums[i].Add(got[i])
		}
	}
	return sums, nil
}

// MulMany re-injects an ENGINE-B multiplication through ENGINE-A (spec
// 4.3): project both operands onto their alpha components, run one
// ENGINE-A multiplication (recording its transcript for DZKP), then combine
// the publicly-computable beta*beta term with the per-party cross terms and
// the shared product to reconstruct a fresh public beta for the result.
func (e *Engine) MulMany(ctx context.Context, xs, ys []mpcshare.B) ([]mpcshare.B, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: mul_many operand length mismatch %d/%d", mpcerr.ErrInvalidSize, len(xs), len(ys))
	}
	n := len(xs)
	w := xs[0].Alpha.Width()

	d := make([]mpcshare.A, n)
	f := make([]mpcshare.A, n)
	for i := range xs {
		d[i] = xs[i].ToA()
		f[i] = ys[i].ToA()
	}
	deShares, err := e.mulAWithProof(d, f, e.mulProof)
	if err != nil {
		return nil, err
	}

	pieceMine := make([]ringelem.Element, n)
	piecePrev := make([]ringelem.Element, n)
	for i := range xs {
		localMine := xs[i].Beta.Mul(ys[i].Alpha).Neg().Sub(ys[i].Beta.Mul(xs[i].Alpha))
		localPrev := xs[i].Beta.Mul(ys[i].AlphaPrev).Neg().Sub(ys[i].Beta.Mul(xs[i].AlphaPrev))
		pieceMine[i] = localMine.Add(deShares[i].Mine)
		piecePrev[i] = localPrev.Add(deShares[i].Prev)
		if e.self == party.Zero {
			pieceMine[i] = pieceMine[i].Add(xs[i].Beta.Mul(ys[i].Beta))
		}
		if e.self == party.Zero.Next() {
			piecePrev[i] = piecePrev[i].Add(xs[i].Beta.Mul(ys[i].Beta))
		}
	}

	alphaNew := make([]ringelem.Element, n)
	alphaNewPrev := make([]ringelem.Element, n)
	for i := range xs {
		alphaNew[i] = e.prf.Gen1(w)
		alphaNewPrev[i] = e.prf.Gen2(w)
		pieceMine[i] = pieceMine[i].Add(alphaNew[i])
		piecePrev[i] = piecePrev[i].Add(alphaNewPrev[i])
	}

	betas, err := e.jointPieceSum(pieceMine, piecePrev, w)
	if err != nil {
		return nil, err
	}

	out := make([]mpcshare.B, n)
	for i := range xs {
		out[i] = mpcshare.NewB(alphaNew[i], alphaNewPrev[i], betas[i])
	}
	return out, nil
}

func (e *Engine) Mul(ctx context.Context, x, y mpcshare.B) (mpcshare.B, error) {
	out, err := e.MulMany(ctx, []mpcshare.B{x}, []mpcshare.B{y})
	if err != nil {
		return mpcshare.B{}, err
	}
	return out[0], nil
}

func (e *Engine) Dot(ctx context.Context, xs, ys []mpcshare.B) (mpcshare.B, error) {
	out, err := e.DotMany(ctx, [][]mpcshare.B{xs}, [][]mpcshare.B{ys})
	if err != nil {
		return mpcshare.B{}, err
	}
	return out[0], nil
}

// DotMany runs one multiplication per row and sums the results — ENGINE-B
// does not batch the degree-2 reduction across a whole row the way
// ENGINE-A's dot_local does, since each cross term still needs its own
// DZKP-recorded ENGINE-A gate.
func (e *Engine) DotMany(ctx context.Context, xss, yss [][]mpcshare.B) ([]mpcshare.B, error) {
	flatXs, flatYs, offsets := flattenRows(xss, yss)
	products, err := e.MulMany(ctx, flatXs, flatYs)
	if err != nil {
		return nil, err
	}
	out := make([]mpcshare.B, len(xss))
	for i := range xss {
		sum := mpcshare.NewB(ringelem.Zero(products[0].Alpha.Width()), ringelem.Zero(products[0].Alpha.Width()), ringelem.Zero(products[0].Alpha.Width()))
		for _, p := range products[offsets[i]:offsets[i+1]] {
			sum = sum.Add(p)
		}
		out[i] = sum
	}
	return out, nil
}

func (e *Engine) MaskedDotMany(ctx context.Context, xss, yss [][]mpcshare.B, masks [][]bool) ([]mpcshare.B, error) {
	maskedXs := make([][]mpcshare.B, len(xss))
	maskedYs := make([][]mpcshare.B, len(yss))
	for i := range xss {
		mx, my := make([]mpcshare.B, 0, len(xss[i])), make([]mpcshare.B, 0, len(yss[i]))
		for j := range xss[i] {
			if masks[i][j] {
				mx = append(mx, xss[i][j])
				my = append(my, yss[i][j])
			}
		}
		maskedXs[i], maskedYs[i] = mx, my
	}
	return e.DotMany(ctx, maskedXs, maskedYs)
}

func flattenRows(xss, yss [][]mpcshare.B) (flatXs, flatYs []mpcshare.B, offsets []int) {
	offsets = make([]int, len(xss)+1)
	for i := range xss {
		offsets[i+1] = offsets[i] + len(xss[i])
		flatXs = append(flatXs, xss[i]...)
		flatYs = append(flatYs, yss[i]...)
	}
	return flatXs, flatYs, offsets
}

// toFullA lifts a B share to a genuine ENGINE-A share of x itself, not of
// x-beta: x.ToA() alone only reconstructs to x-beta (spec 4.3 step 1), so
// the public beta term still needs folding in once, using the same
// AddConstMine/AddConstPrev convention enginea.Engine.AddConst applies (spec
// 4.4's A2B conversion and OR-tree run entirely in ENGINE-A share space on
// the result, so they need a true A share of x to work with).
func (e *Engine) toFullA(x mpcshare.B) mpcshare.A {
	a := x.ToA()
	switch e.self {
	case party.Zero:
		return a.AddConstMine(x.Beta)
	case party.Zero.Next():
		return a.AddConstPrev(x.Beta)
	default:
		return a
	}
}

// andAWithProof is the binary.AndMany[mpcshare.A] callback ENGINE-B's
// boolean circuits run against (spec 4.4's adder, spec 4.5's OR-tree):
// bitwise local AND (mpcshare.AndLocal) masked by a PRF pair and reshared
// exactly like enginea's own AndMany, except every gate is recorded into
// proof so the Verify checkpoint can catch a cheating local AND. Every
// caller in this file only ever invokes it at bit width 1 (see MSB/MSBMany/
// ReduceBinaryOr below), where XOR coincides with ring addition and AND
// with ring multiplication — exactly the algebra dzkp.GateRecord's
// v1Part/v2Part already check, so no separate bitwise proof shape is
// needed.
func (e *Engine) andAWithProof(xs, ys []mpcshare.A, proof *dzkp.Proof) ([]mpcshare.A, error) {
	n := len(xs)
	w := xs[0].Mine.Width()
	masked := make([]ringelem.Element, n)
	r0s := make([]ringelem.Element, n)
	r1s := make([]ringelem.Element, n)
	for i := range xs {
		pp := mpcshare.AndLocal(xs[i], ys[i])
		r0, r1 := e.prf.Gen1(w), e.prf.Gen2(w)
		r0s[i], r1s[i] = r0, r1
		masked[i] = pp.Value.Xor(r0).Xor(r1)
	}
	prevVals, err := e.exchangeMissingMany(masked)
	if err != nil {
		return nil, err
	}
	out := make([]mpcshare.A, n)
	for i := range xs {
		out[i] = mpcshare.A{Mine: masked[i], Prev: prevVals[i]}
		proof.Record(dzkp.GateRecord{
			A0: xs[i].Mine, A1: xs[i].Prev,
			B0: ys[i].Mine, B1: ys[i].Prev,
			R0: r0s[i], R1: r1s[i],
			S0: out[i].Mine, S1: out[i].Prev,
		})
	}
	return out, nil
}

func (e *Engine) andAProof(xs, ys []mpcshare.A) ([]mpcshare.A, error) {
	return e.andAWithProof(xs, ys, e.andProof)
}

func (e *Engine) MSB(ctx context.Context, x mpcshare.B, w ringelem.Width) (mpcshare.A, error) {
	out, err := e.MSBMany(ctx, []mpcshare.B{x}, w)
	if err != nil {
		return mpcshare.A{}, err
	}
	return out[0], nil
}

// MSBMany converts each x to a full ENGINE-A share and runs the ordinary
// (unbatched) A2B conversion once per value rather than protocols/binary's
// lane-packed MSBMany: packing several independent MSB computations into one
// wide ring word would make andAWithProof's gates wider than 1 bit, where
// AND/XOR no longer line up with the ring's multiply/add that the DZKP check
// relies on (see andAWithProof). Processing one at a time keeps every
// authenticated AND gate at the bit width the proof check is sound for. The
// result stays in mpcshare.A form: every boolean circuit output, regardless
// of which engine produced it, lives in that one layout, which is what lets
// ReduceBinaryOr and OpenBit below take results from either engine uniformly.
func (e *Engine) MSBMany(ctx context.Context, xs []mpcshare.B, w ringelem.Width) ([]mpcshare.A, error) {
	msbs := make([]mpcshare.A, len(xs))
	for i, x := range xs {
		a := e.toFullA(x)
		msb, err := binary.MSB(e.self, w, a, e.andAProof)
		if err != nil {
			return nil, err
		}
		msbs[i] = msb
	}
	return msbs, nil
}

// ReduceBinaryOr always runs protocols/binary's OrReduce at chunk size 1:
// any larger packing width would, like MSBMany, widen andAWithProof's gates
// past the single bit the DZKP check is grounded on.
func (e *Engine) ReduceBinaryOr(ctx context.Context, bits []mpcshare.A, chunk int) (mpcshare.A, error) {
	return binary.OrReduce(bits, 1, e.andAProof)
}

// openABits reconstructs boolean ENGINE-A shares (Mine/Prev pairs at bit
// width 1) via JMP delivery the same way Open/OpenMany reconstruct an
// ENGINE-B value: for each owner j, the piece only j and j.Next() hold is
// delivered to j.Next().Next(), and the three deliveries combine into the
// plaintext bit. At width 1 ring addition and XOR coincide, so jointPieceSum
// (written for additive reconstruction) is exact here too.
func (e *Engine) openABits(bits []mpcshare.A) ([]bool, error) {
	n := len(bits)
	w := ringelem.W1
	pieceMine := make([]ringelem.Element, n)
	piecePrev := make([]ringelem.Element, n)
	for i, b := range bits {
		pieceMine[i] = b.Mine
		piecePrev[i] = b.Prev
	}
	sums, err := e.jointPieceSum(pieceMine, piecePrev, w)
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = sums[i].Uint64() == 1
	}
	return out, nil
}

func (e *Engine) OpenBit(ctx context.Context, bit mpcshare.A) (bool, error) {
	out, err := e.OpenBitMany(ctx, []mpcshare.A{bit})
	if err != nil {
		return false, err
	}
	return out[0], nil
}

func (e *Engine) OpenBitMany(ctx context.Context, bits []mpcshare.A) ([]bool, error) {
	return e.openABits(bits)
}

// Open reconstructs a full ring element the same way OpenBit does, but over
// additive (not XOR) reconstruction: beta is public, so open is
// beta - (alpha0+alpha1+alpha2), the alphas collected via JMP.
func (e *Engine) Open(ctx context.Context, s mpcshare.B) (ringelem.Element, error) {
	vs, err := e.OpenMany(ctx, []mpcshare.B{s})
	if err != nil {
		return ringelem.Element{}, err
	}
	return vs[0], nil
}

func (e *Engine) OpenMany(ctx context.Context, ss []mpcshare.B) ([]ringelem.Element, error) {
	w := ss[0].Alpha.Width()
	alphaMine := make([]ringelem.Element, len(ss))
	alphaPrev := make([]ringelem.Element, len(ss))
	for i, s := range ss {
		alphaMine[i] = s.Alpha
		alphaPrev[i] = s.AlphaPrev
	}
	alphaSums, err := e.jointPieceSum(alphaMine, alphaPrev, w)
	if err != nil {
		return nil, err
	}
	out := make([]ringelem.Element, len(ss))
	for i, s := range ss {
		out[i] = s.Beta.Sub(alphaSums[i])
	}
	return out, nil
}

// crossVerify runs the two-verifier half-check of spec 4.8 step 6 for one
// proof, once per possible prover: the prover's Next() and Prev() each
// independently compute their half of the combined polynomial evaluation
// and exchange it directly (not via JMP — both already hold only their own
// half, there is nothing to re-deliver), aborting with DZKPVerifyError on a
// nonzero sum.
func (e *Engine) crossVerify(proof *dzkp.Proof, r ringelem.Element) error {
	if proof.Len() == 0 {
		return nil
	}
	for _, prover := range party.All() {
		v1, v2 := prover.Next(), prover.Prev()
		if e.self != v1 && e.self != v2 {
			continue
		}
		var mine ringelem.Element
		var partner party.ID
		if e.self == v1 {
			mine, partner = proof.V1Eval(r), v2
		} else {
			mine, partner = proof.V2Eval(r), v1
		}
		if err := e.net.Send(partner, mine.MarshalBinary()); err != nil {
			return err
		}
		buf, err := e.net.Recv(partner)
		if err != nil {
			return err
		}
		theirs, err := ringelem.Unmarshal(mine.Width(), buf)
		if err != nil {
			return err
		}
		if !dzkp.CheckSum(mine, theirs) {
			return dzkp.VerifyErrorFor(prover, proof.Kind())
		}
	}
	return nil
}

// Verify runs the jmp_verify checkpoint followed by the three DZKP
// cross-checks, then flushes every transcript (spec 4.8, 4.10).
//
// Each proof draws its own challenge by commitment.CoinToss (spec 4.9), not
// from the correlated PRF: e.prf.GenPublic gives every party the same value
// by construction (it is, deliberately, a shared stream), so a corrupt
// prover who also controls that PRF setup could predict r and tailor a
// forged transcript to it. CoinToss's commit-then-open round forces every
// party's contribution to be fixed before any other party's is revealed, so
// no party can bias the final challenge. The challenge is drawn in the
// proof's own verification ring (sharable.VerifyRing of its gates' value
// ring, C2) rather than a fixed W64, since andProof's gates live at W1 —
// a same-ring challenge there would only ever take one of two values.
func (e *Engine) Verify(ctx context.Context) error {
	if err := e.jmp.Verify(); err != nil {
		return err
	}
	for _, proof := range []*dzkp.Proof{e.andProof, e.mulProof, e.dotProof} {
		w, ok := proof.VerifyWidth()
		if !ok {
			continue
		}
		r, err := commitment.CoinToss(e.net, w)
		if err != nil {
			return err
		}
		if err := e.crossVerify(proof, r); err != nil {
			return err
		}
		proof.Reset()
	}
	return nil
}

func (e *Engine) Finish() error {
	e.net.Shutdown()
	return nil
}
