// Package sharable implements the C2 verification-ring mapping (spec 3.2,
// 4.7, 4.8): for a given share width, which wider ring a MAC or DZKP check
// on that share must run in to keep the check's soundness error below
// 2^-40. This mirrors the original crate's per-type Sharable trait
// (iris-mpc/src/types/sharable.rs), whose VerificationShare associated type
// fixes exactly this pairing: u8/u16/u32 verify in u64, u64 verifies in
// u128, and u128 — its widest type — verifies in itself, since no wider
// ring exists above it. This package carries the same ceiling for our
// widest supported width, W128.
package sharable

import "github.com/irisprotocol/iris3pc/pkg/ringelem"

// VerifyRing returns the ring width a MAC or DZKP check on a width-w share
// must run in. The margin matches the original's per-type choice exactly,
// including its one underprovisioned case: W32 only gets a 32-bit margin
// (not the full 40) because W64 is the next ring up and the original's own
// u32 -> u64 pairing has the identical shortfall.
func VerifyRing(w ringelem.Width) ringelem.Width {
	switch w {
	case ringelem.W1, ringelem.W8, ringelem.W16, ringelem.W32:
		return ringelem.W64
	case ringelem.W64:
		return ringelem.W128
	default: // W128: no wider ring is available, verify in place.
		return ringelem.W128
	}
}

// VerificationRings lists the distinct ring widths VerifyRing can return,
// so a caller provisioning one MAC (or DZKP ring-promotion) key per ring up
// front doesn't need to enumerate every possible share width.
func VerificationRings() []ringelem.Width {
	return []ringelem.Width{ringelem.W64, ringelem.W128}
}

// Widen lifts a ring-w element into the wider verification ring v by
// zero-extension: the Go analogue of the original's to_verificationtype
// cast (RingElement(a.0 as VerificationShare)), a reinterpretation of the
// same bit pattern in a larger modulus rather than a value-preserving
// conversion across the narrower ring's wraparound. Applying this to each
// party's local share (not to a reconstructed value) is what the original
// does too — the MAC/DZKP check's soundness bound accounts for the ring
// promotion happening at the share level.
func Widen(e ringelem.Element, v ringelem.Width) ringelem.Element {
	return e.WidenAt(v, 0)
}
