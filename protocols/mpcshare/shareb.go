package mpcshare

import "github.com/irisprotocol/iris3pc/pkg/ringelem"

// B holds an ENGINE-B share: party i holds (Alpha, AlphaPrev, Beta), where
// Beta = x + Alpha0 + Alpha1 + Alpha2 is public and identical at all three
// parties (spec 3.3). A mismatch in Beta across parties is an abort
// condition enforced by the engine's JMP layer, not by this type.
type B struct {
	Alpha     ringelem.Element // alpha_i
	AlphaPrev ringelem.Element // alpha_{i-1}
	Beta      ringelem.Element // public: x + sum(alpha)
}

func NewB(alpha, alphaPrev, beta ringelem.Element) B {
	return B{Alpha: alpha, AlphaPrev: alphaPrev, Beta: beta}
}

// Reconstruct reconstructs x = beta - alpha0 - alpha1 - alpha2 given all three
// alpha contributions (the caller is responsible for collecting them via
// JMP, see protocols/engineb).
func (s B) Reconstruct(alpha0, alpha1, alpha2 ringelem.Element) ringelem.Element {
	return s.Beta.Sub(alpha0).Sub(alpha1).Sub(alpha2)
}

// Add is local: alpha shares add, beta (public) adds.
func (s B) Add(o B) B {
	return B{Alpha: s.Alpha.Add(o.Alpha), AlphaPrev: s.AlphaPrev.Add(o.AlphaPrev), Beta: s.Beta.Add(o.Beta)}
}

func (s B) Sub(o B) B {
	return B{Alpha: s.Alpha.Sub(o.Alpha), AlphaPrev: s.AlphaPrev.Sub(o.AlphaPrev), Beta: s.Beta.Sub(o.Beta)}
}

func (s B) Neg() B {
	return B{Alpha: s.Alpha.Neg(), AlphaPrev: s.AlphaPrev.Neg(), Beta: s.Beta.Neg()}
}

// AddConst adds a public constant to beta only — alpha is unaffected since
// adding a public value doesn't change how much of it any party must hide.
func (s B) AddConst(c ringelem.Element) B {
	return B{Alpha: s.Alpha, AlphaPrev: s.AlphaPrev, Beta: s.Beta.Add(c)}
}

// MulConst multiplies alpha and beta by a public constant (local, both
// components scale linearly).
func (s B) MulConst(c ringelem.Element) B {
	return B{Alpha: s.Alpha.Mul(c), AlphaPrev: s.AlphaPrev.Mul(c), Beta: s.Beta.Mul(c)}
}

// Xor / AndConst are the bitwise analogs for bit shares.
func (s B) Xor(o B) B {
	return B{Alpha: s.Alpha.Xor(o.Alpha), AlphaPrev: s.AlphaPrev.Xor(o.AlphaPrev), Beta: s.Beta.Xor(o.Beta)}
}

func (s B) AndConst(c ringelem.Element) B {
	return B{Alpha: s.Alpha.And(c), AlphaPrev: s.AlphaPrev.And(c), Beta: s.Beta.And(c)}
}

// ToA projects an ENGINE-B share into an ENGINE-A pair suitable for
// ABY3-style multiplication (spec 4.3 step 1): party i's ENGINE-A "Mine" is
// -alpha_i and "Prev" is -alpha_{i-1}; beta is public and handled
// separately by the caller (it contributes x's public offset once, not
// per-party, so it is added back after the ENGINE-A multiplication
// completes via the degree-2 cross terms the caller computes explicitly).
func (s B) ToA() A {
	return A{Mine: s.Alpha.Neg(), Prev: s.AlphaPrev.Neg()}
}
