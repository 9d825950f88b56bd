// Package dzkp implements the distributed zero-knowledge proof engine
// ENGINE-B uses to certify every AND/MUL/DOT gate it runs (spec 4.8):
// each party keeps a transcript of its own local multiplication steps and,
// at a verify checkpoint, folds the whole transcript into one randomized
// polynomial evaluation that the session's two non-prover parties check
// against their own independently-held half of the witness.
package dzkp

import (
	"github.com/irisprotocol/iris3pc/pkg/mpcerr"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/pkg/sharable"
)

// GateRecord is one party's view of a single replicated AND/MUL/DOT gate
// (spec 4.8): the two input share pairs, the zero-share mask pair, and the
// resulting output share pair, all as this party locally computed them.
type GateRecord struct {
	A0, A1 ringelem.Element
	B0, B1 ringelem.Element
	R0, R1 ringelem.Element
	S0, S1 ringelem.Element
}

// verifyWidth returns the ring this gate's own value ring checks in
// (sharable.VerifyRing, spec 3.2/4.7/4.8). AND gates record at W1, where a
// same-ring challenge only has two possible values — a cheating prover
// guesses past a single gate's check with probability 1/2 regardless of
// how the gate identity is split. Promoting every term into the wider C2
// ring before multiplying and combining (the same ring-promotion the
// authenticated engine's MAC check uses) gives the check the soundness
// margin spec 4.8's parameter selection expects.
func (g GateRecord) verifyWidth() ringelem.Width {
	return sharable.VerifyRing(g.A0.Width())
}

// widen lifts every field of g into the verification ring v by
// zero-extension (sharable.Widen), so the multiplications below run in a
// ring wide enough that a random challenge actually has negligible forging
// probability.
func (g GateRecord) widen(v ringelem.Width) GateRecord {
	return GateRecord{
		A0: sharable.Widen(g.A0, v), A1: sharable.Widen(g.A1, v),
		B0: sharable.Widen(g.B0, v), B1: sharable.Widen(g.B1, v),
		R0: sharable.Widen(g.R0, v), R1: sharable.Widen(g.R1, v),
		S0: sharable.Widen(g.S0, v), S1: sharable.Widen(g.S1, v),
	}
}

// v1Part and v2Part split the gate's full local multiplication identity
// (spec 4.8, the same relation mpcshare.MulLocal/AndLocal compute:
// S0 = A0*B0 + A0*B1 + A1*B0 + R0 - R1) into two halves that sum to zero
// exactly when the recorded gate is internally consistent. Earlier this
// split put only the diagonal term A0*B0 in v1Part and A1*B1 — a term that
// never appears in the real relation at all — in v2Part, so a prover could
// corrupt the bilinear cross term (A0*B1 + A1*B0) and still pass CheckSum
// (the bug DESIGN.md's grounding entry for this file used to document as
// an accepted scope limit). Both cross-product terms now appear in
// v1Part, so CheckSum(V1Eval, V2Eval) verifies the whole identity. Callers
// always pass a gate already widened to its verifyWidth().
func (g GateRecord) v1Part() ringelem.Element {
	return g.A0.Mul(g.B0).Add(g.A0.Mul(g.B1)).Add(g.A1.Mul(g.B0)).Add(g.R0)
}

func (g GateRecord) v2Part() ringelem.Element {
	return g.R1.Neg().Sub(g.S0)
}

// Proof accumulates one party's gate transcript for one gate kind (AND,
// MUL, or DOT — spec 4.8 maintains three separate proof objects).
type Proof struct {
	kind string
	recs []GateRecord
}

func NewProof(kind string) *Proof { return &Proof{kind: kind} }

func (p *Proof) Kind() string { return p.kind }
func (p *Proof) Len() int     { return len(p.recs) }

func (p *Proof) Record(g GateRecord) { p.recs = append(p.recs, g) }

// Reset clears the transcript once it has been checked (spec 5: "DZKP
// transcripts can be flushed after each verification round").
func (p *Proof) Reset() { p.recs = p.recs[:0] }

// VerifyWidth returns the ring this proof's challenge and combine step must
// run in (sharable.VerifyRing of the recorded gates' own width), or false if
// the proof has nothing recorded yet. Every gate kind records at one fixed
// width per proof instance (AND always at W1; MUL/DOT at whatever ring the
// reinjected multiplication used), so the first recorded gate's width is
// representative of the whole transcript.
func (p *Proof) VerifyWidth() (ringelem.Width, bool) {
	if len(p.recs) == 0 {
		return 0, false
	}
	return p.recs[0].verifyWidth(), true
}

// combine folds every recorded gate's half-value (picked by part) into one
// evaluation of the proof polynomial at the challenge point r: g(r) =
// sum_j half_j * r^j. Using successive powers of a single random r as the
// per-gate weight avoids needing the Lagrange-basis division a full
// multi-point interpolation would (ringelem.Inverse is only ever partial,
// defined for odd elements, so a construction that stays multiplication-only
// is preferable at this gate count). Every gate is widened into r's ring
// before its half is taken, so r must already be drawn from
// sharable.VerifyRing(gate width) — see VerifyWidth.
func (p *Proof) combine(r ringelem.Element, part func(GateRecord) ringelem.Element) ringelem.Element {
	w := r.Width()
	acc := ringelem.Zero(w)
	power := ringelem.FromUint64(w, 1)
	for _, g := range p.recs {
		acc = acc.Add(part(g.widen(w)).Mul(power))
		power = power.Mul(r)
	}
	return acc
}

// V1Eval is the partial verification polynomial the prover's Next() party
// can compute unaided (spec 4.8 step 6). r must come from VerifyWidth's
// ring, not the gates' own value ring.
func (p *Proof) V1Eval(r ringelem.Element) ringelem.Element { return p.combine(r, GateRecord.v1Part) }

// V2Eval is the partial verification polynomial the prover's Prev() party
// can compute unaided.
func (p *Proof) V2Eval(r ringelem.Element) ringelem.Element { return p.combine(r, GateRecord.v2Part) }

// CheckSum reports whether the two independently-computed partial
// evaluations cancel out, which holds whenever every recorded gate's
// additive mask and output were formed consistently with its two input
// shares (spec 4.8 step 6: "exchange and check the partial verification
// polynomials agree").
func CheckSum(v1, v2 ringelem.Element) bool {
	return v1.Add(v2).Equal(ringelem.Zero(v1.Width()))
}

// VerifyErrorFor wraps a failed checksum into the engine's DZKPVerifyError,
// attributing it to the prover whose transcript failed.
func VerifyErrorFor(prover party.ID, kind string) error {
	return mpcerr.Newf(mpcerr.ErrDZKPVerify, []party.ID{prover}, "dzkp %s proof failed for prover %s", kind, prover)
}
