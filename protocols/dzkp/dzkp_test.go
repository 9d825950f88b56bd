package dzkp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/dzkp"
)

// gate builds a GateRecord whose S0 is the real local-multiplication output
// mpcshare.MulLocal/AndLocal produce: A0*B0 + A0*B1 + A1*B0 + R0 - R1. This
// is the same relation the corrected v1Part/v2Part split checks, including
// both bilinear cross-product terms.
func gate(w ringelem.Width, a0, a1, b0, b1, r0, r1 uint64) dzkp.GateRecord {
	A0, A1 := ringelem.FromUint64(w, a0), ringelem.FromUint64(w, a1)
	B0, B1 := ringelem.FromUint64(w, b0), ringelem.FromUint64(w, b1)
	R0, R1 := ringelem.FromUint64(w, r0), ringelem.FromUint64(w, r1)
	s0 := A0.Mul(B0).Add(A0.Mul(B1)).Add(A1.Mul(B0)).Add(R0).Sub(R1)
	return dzkp.GateRecord{A0: A0, A1: A1, B0: B0, B1: B1, R0: R0, R1: R1, S0: s0}
}

func TestProofCheckSumAcceptsHonestGates(t *testing.T) {
	w := ringelem.W32
	p := dzkp.NewProof("and")
	p.Record(gate(w, 1, 0, 1, 0, 5, 9))
	p.Record(gate(w, 0, 1, 1, 1, 2, 2))
	p.Record(gate(w, 1, 1, 0, 1, 7, 3))
	require.Equal(t, 3, p.Len())

	r := ringelem.FromUint64(w, 42)
	require.True(t, dzkp.CheckSum(p.V1Eval(r), p.V2Eval(r)))
}

func TestProofCheckSumRejectsTamperedGate(t *testing.T) {
	w := ringelem.W32
	p := dzkp.NewProof("mul")
	g := gate(w, 3, 2, 4, 1, 11, 6)
	g.S0 = g.S0.Add(ringelem.FromUint64(w, 1)) // tamper with the masked output
	p.Record(g)

	r := ringelem.FromUint64(w, 17)
	require.False(t, dzkp.CheckSum(p.V1Eval(r), p.V2Eval(r)))
}

// TestProofCheckSumRejectsCorruptedCrossTerm pins the specific bug this
// package used to have: a prover that corrupts one of its two non-diagonal
// input shares (A1 here, one factor of the A1*B0 cross term) without
// updating S0 to match must fail CheckSum. Under the old v1Part/v2Part
// split (A0*B0 in v1Part, A1*B1 in v2Part) this case passed, since neither
// half ever multiplied A1 against B0 at all.
func TestProofCheckSumRejectsCorruptedCrossTerm(t *testing.T) {
	w := ringelem.W32
	p := dzkp.NewProof("and")
	g := gate(w, 3, 2, 4, 1, 11, 6)
	g.A1 = g.A1.Add(ringelem.FromUint64(w, 1)) // corrupt a cross-term factor only
	p.Record(g)

	r := ringelem.FromUint64(w, 17)
	require.False(t, dzkp.CheckSum(p.V1Eval(r), p.V2Eval(r)))
}

func TestProofResetClearsTranscript(t *testing.T) {
	w := ringelem.W32
	p := dzkp.NewProof("dot")
	p.Record(gate(w, 1, 1, 1, 1, 1, 1))
	require.Equal(t, 1, p.Len())
	p.Reset()
	require.Equal(t, 0, p.Len())

	r := ringelem.FromUint64(w, 9)
	require.True(t, dzkp.CheckSum(p.V1Eval(r), p.V2Eval(r)))
}
