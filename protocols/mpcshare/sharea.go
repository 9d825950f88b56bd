// Package mpcshare defines the two replicated share carrier layouts used by
// ENGINE-A and ENGINE-B (spec 3.3), plus the algebraic operators that are
// purely local (no network round). Multiplication's non-local completion
// ("reshare") lives with each engine, not here: spec's Design Notes call
// for two explicitly named functions, mul_local and reshare, rather than an
// overloaded operator that returns different share shapes.
package mpcshare

import "github.com/irisprotocol/iris3pc/pkg/ringelem"

// A holds an ENGINE-A (ABY3-style) share: party i holds (Mine, Prev), its
// own additive piece and the piece belonging to the previous party. Any two
// parties' pairs reconstruct x = x0+x1+x2; a single party learns nothing.
type A struct {
	Mine ringelem.Element // x_i
	Prev ringelem.Element // x_{i-1}
}

func NewA(mine, prev ringelem.Element) A { return A{Mine: mine, Prev: prev} }

// Add is local: componentwise addition of the two share pairs.
func (s A) Add(o A) A {
	return A{Mine: s.Mine.Add(o.Mine), Prev: s.Prev.Add(o.Prev)}
}

// Sub is local: componentwise subtraction.
func (s A) Sub(o A) A {
	return A{Mine: s.Mine.Sub(o.Mine), Prev: s.Prev.Sub(o.Prev)}
}

// AddConstMine adds a public constant c to the Mine component only, and
// AddConstPrev to the Prev component only. A constant must enter the
// reconstruction sum exactly once, and any single convention works as long
// as every party applies it identically — the engines (enginea.Engine.AddConst,
// engineb's toFullA) have party 0 add it to Mine, party 1 add it to Prev (the
// slot caching party 0's Mine), and party 2 leave its share unchanged.
func (s A) AddConstMine(c ringelem.Element) A {
	return A{Mine: s.Mine.Add(c), Prev: s.Prev}
}

func (s A) AddConstPrev(c ringelem.Element) A {
	return A{Mine: s.Mine, Prev: s.Prev.Add(c)}
}

// Neg negates both components.
func (s A) Neg() A {
	return A{Mine: s.Mine.Neg(), Prev: s.Prev.Neg()}
}

// MulConst multiplies both components by a public constant c (local).
func (s A) MulConst(c ringelem.Element) A {
	return A{Mine: s.Mine.Mul(c), Prev: s.Prev.Mul(c)}
}

// Xor is the bitwise analog of Add, used for bit shares.
func (s A) Xor(o A) A {
	return A{Mine: s.Mine.Xor(o.Mine), Prev: s.Prev.Xor(o.Prev)}
}

// AndConst is the bitwise analog of MulConst.
func (s A) AndConst(c ringelem.Element) A {
	return A{Mine: s.Mine.And(c), Prev: s.Prev.And(c)}
}

// PartialProduct is the degree-2, zero-second-component share produced by
// local multiplication of two ENGINE-A shares (spec 4.3): each party
// computes a_i*b_i + a_i*b_{i-1} + a_{i-1}*b_i locally, which sums (across
// all three parties) to x*y but is not yet a valid share of it — a
// PRF-derived zero-share must be mixed in and one ring element sent to the
// next party before it is a completed A share (see enginea's reshareMany and
// engineb's mulAWithProof).
type PartialProduct struct {
	Value ringelem.Element
}

// MulLocal computes the local, pre-reshare component of x*y given two
// ENGINE-A share pairs (spec 4.3, Design Notes "mul_local / reshare").
func MulLocal(x, y A) PartialProduct {
	v := x.Mine.Mul(y.Mine).Add(x.Mine.Mul(y.Prev)).Add(x.Prev.Mul(y.Mine))
	return PartialProduct{Value: v}
}

// AndLocal is the bitwise analog of MulLocal, used for bit-share ANDs in
// the binary-adder core.
func AndLocal(x, y A) PartialProduct {
	v := x.Mine.And(y.Mine).Xor(x.Mine.And(y.Prev)).Xor(x.Prev.And(y.Mine))
	return PartialProduct{Value: v}
}

// Narrow reinterprets both components of s at the narrower width w,
// keeping only their low w bits (spec 4.5 OR-tree width halving).
func (s A) Narrow(w ringelem.Width) A {
	return A{Mine: s.Mine.Narrow(w), Prev: s.Prev.Narrow(w)}
}

// WidenAt zero-extends both components to width w and shifts them left by
// shift bits, for packing independent bit shares into one wide word (spec
// 4.5 "pack into words of the carrier ring").
func (s A) WidenAt(w ringelem.Width, shift uint) A {
	return A{Mine: s.Mine.WidenAt(w, shift), Prev: s.Prev.WidenAt(w, shift)}
}
