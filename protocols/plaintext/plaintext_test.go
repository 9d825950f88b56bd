package plaintext_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/plaintext"
)

func TestEngineArithmetic(t *testing.T) {
	e := plaintext.New()
	ctx := context.Background()
	w := ringelem.W16

	x, err := e.Input(ctx, ptr(ringelem.FromUint64(w, 11)), 0, w)
	require.NoError(t, err)
	y, err := e.Input(ctx, ptr(ringelem.FromUint64(w, 13)), 0, w)
	require.NoError(t, err)

	prod, err := e.Mul(ctx, x, y)
	require.NoError(t, err)
	opened, err := e.Open(ctx, prod)
	require.NoError(t, err)
	require.Equal(t, uint64(11*13), opened.Uint64())

	sum := e.Add(x, y)
	require.Equal(t, uint64(24), sum.Uint64())
}

func TestEngineDotProduct(t *testing.T) {
	e := plaintext.New()
	ctx := context.Background()
	w := ringelem.W16

	n := 1000
	a := make([]ringelem.Element, n)
	b := make([]ringelem.Element, n)
	want := ringelem.Zero(w)
	for i := 0; i < n; i++ {
		a[i] = ringelem.FromUint64(w, uint64(i+1))
		b[i] = ringelem.FromUint64(w, uint64(n-i))
		want = want.Add(a[i].Mul(b[i]))
	}

	d, err := e.Dot(ctx, a, b)
	require.NoError(t, err)
	require.Equal(t, want.Uint64(), d.Uint64())
}

func TestEngineMSBAndOpenBit(t *testing.T) {
	e := plaintext.New()
	ctx := context.Background()
	w := ringelem.W8

	highBit, err := e.MSB(ctx, ringelem.FromUint64(w, 200), w)
	require.NoError(t, err)
	got, err := e.OpenBit(ctx, highBit)
	require.NoError(t, err)
	require.True(t, got)

	lowBit, err := e.MSB(ctx, ringelem.FromUint64(w, 5), w)
	require.NoError(t, err)
	got, err = e.OpenBit(ctx, lowBit)
	require.NoError(t, err)
	require.False(t, got)
}

func TestEngineReduceBinaryOr(t *testing.T) {
	e := plaintext.New()
	ctx := context.Background()
	w := ringelem.W8

	allZero, err := e.MSBMany(ctx, []ringelem.Element{
		ringelem.FromUint64(w, 1), ringelem.FromUint64(w, 2), ringelem.FromUint64(w, 3),
	}, w)
	require.NoError(t, err)
	result, err := e.ReduceBinaryOr(ctx, allZero, 0)
	require.NoError(t, err)
	got, err := e.OpenBit(ctx, result)
	require.NoError(t, err)
	require.False(t, got)

	withHigh, err := e.MSBMany(ctx, []ringelem.Element{
		ringelem.FromUint64(w, 1), ringelem.FromUint64(w, 200),
	}, w)
	require.NoError(t, err)
	result, err = e.ReduceBinaryOr(ctx, withHigh, 0)
	require.NoError(t, err)
	got, err = e.OpenBit(ctx, result)
	require.NoError(t, err)
	require.True(t, got)
}

func ptr(e ringelem.Element) *ringelem.Element { return &e }
