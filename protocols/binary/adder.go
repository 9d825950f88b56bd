// Package binary implements the replicated binary-circuit core shared by
// both engines (spec 4.4): the 3-to-2 full-adder reduction, the Kogge-Stone
// prefix adder that finishes a 2-to-1 carry-propagate addition, and (in
// a2b.go / ortree.go) the arithmetic-to-binary conversion and OR-tree built
// on top of them.
//
// The adder is written once, generically, against the minimal capability a
// bit share needs to support (XOR is local; AND needs one batched network
// round and is supplied by the caller) — the capability-protocol style the
// spec's Design Notes call for, so that ENGINE-A and ENGINE-B each provide
// their own AndMany without duplicating the adder logic.
package binary

import "fmt"

// Xorer is the minimal capability a bit-share type must expose for the
// adder: local XOR. AND is supplied out-of-band via AndMany because it
// always requires a network round.
type Xorer[S any] interface {
	Xor(S) S
}

// AndMany batches N independent AND gates (one per lane) into a single
// network round, returning x[i] AND y[i] for each i.
type AndMany[S any] func(x, y []S) ([]S, error)

func ceilLog2(n int) int {
	l := 0
	for (1 << l) < n {
		l++
	}
	return l
}

// FullAdder3to2 reduces three same-width bit vectors to (sum, 2*carry)
// using exactly one AND layer (spec 4.4): sum is computed locally via XOR,
// and the majority-carry ab^bc^ca needs a single batched AND call over the
// three pairwise products (all independent, so they pack into one round).
func FullAdder3to2[S Xorer[S]](x1, x2, x3 []S, zero S, andMany AndMany[S]) (sum, carry2 []S, err error) {
	n := len(x1)
	if len(x2) != n || len(x3) != n {
		return nil, nil, fmt.Errorf("binary: mismatched operand lengths %d/%d/%d", n, len(x2), len(x3))
	}
	sum = make([]S, n)
	for i := range sum {
		sum[i] = x1[i].Xor(x2[i]).Xor(x3[i])
	}

	// Batch (x1&x2), (x2&x3), (x3&x1) into one AndMany call.
	lhs := make([]S, 0, 3*n)
	rhs := make([]S, 0, 3*n)
	lhs = append(lhs, x1...)
	lhs = append(lhs, x2...)
	lhs = append(lhs, x3...)
	rhs = append(rhs, x2...)
	rhs = append(rhs, x3...)
	rhs = append(rhs, x1...)
	prod, err := andMany(lhs, rhs)
	if err != nil {
		return nil, nil, err
	}
	ab, bc, ca := prod[0:n], prod[n:2*n], prod[2*n:3*n]

	carry := make([]S, n)
	for i := range carry {
		carry[i] = ab[i].Xor(bc[i]).Xor(ca[i])
	}
	carry2 = shiftLeft1(carry, zero)
	return sum, carry2, nil
}

// shiftLeft1 returns bitsLSB shifted left by one bit position (i.e.
// multiplied by 2), dropping the top bit and inserting zero at position 0.
func shiftLeft1[S any](bitsLSB []S, zero S) []S {
	n := len(bitsLSB)
	out := make([]S, n)
	out[0] = zero
	copy(out[1:], bitsLSB[:n-1])
	return out
}

// KoggeStoneAdd performs a k-bit carry-propagate addition of a and b (both
// LSB-first bit-share vectors of length k) using a logarithmic-depth
// parallel-prefix network (spec 4.4, GLOSSARY "Kogge-Stone adder"):
// ceil(log2 k) levels, each combining a propagate lane and a generate lane
// with one batched AND call per level (2 AND-gate invocations per level,
// packed into a single round as the spec's §4.4 "many-variant" describes).
func KoggeStoneAdd[S Xorer[S]](a, b []S, zero S, andMany AndMany[S]) ([]S, error) {
	k := len(a)
	if len(b) != k {
		return nil, fmt.Errorf("binary: mismatched operand lengths %d/%d", k, len(b))
	}

	p := make([]S, k)
	for i := range p {
		p[i] = a[i].Xor(b[i])
	}
	g, err := andMany(a, b)
	if err != nil {
		return nil, err
	}

	levels := ceilLog2(k)
	for d := 0; d < levels; d++ {
		shift := 1 << d
		if shift >= k {
			break
		}
		sub := k - shift
		pHi, pLo := p[shift:], p[:sub]
		gHi, gLo := g[shift:], g[:sub]

		// Batch the propagate-AND and generate-AND into one round.
		lhs := make([]S, 0, 2*sub)
		rhs := make([]S, 0, 2*sub)
		lhs = append(lhs, pHi...)
		lhs = append(lhs, pHi...)
		rhs = append(rhs, pLo...)
		rhs = append(rhs, gLo...)
		prod, err := andMany(lhs, rhs)
		if err != nil {
			return nil, err
		}
		newP, newG := prod[0:sub], prod[sub:2*sub]
		for i := 0; i < sub; i++ {
			g[shift+i] = gHi[i].Xor(newG[i])
			p[shift+i] = newP[i]
		}
	}

	result := make([]S, k)
	result[0] = p[0] // = a[0] xor b[0]; the zero-th propagate lane doubles as the sum bit
	for i := 1; i < k; i++ {
		xorAB := a[i].Xor(b[i])
		result[i] = xorAB.Xor(g[i-1])
	}
	return result, nil
}
