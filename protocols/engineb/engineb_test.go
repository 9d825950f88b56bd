package engineb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/engineb"
	"github.com/irisprotocol/iris3pc/protocols/mpcshare"
)

func newEngines(t *testing.T) [3]*engineb.Engine {
	t.Helper()
	mt := network.NewMemTransports()
	var engines [3]*engineb.Engine
	for i := range mt {
		engines[i] = engineb.New(mt[i])
	}
	require.NoError(t, network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		return engines[id].Preprocess(ctx)
	}))
	return engines
}

func inputAt(t *testing.T, engines [3]*engineb.Engine, owner party.ID, w ringelem.Width, v ringelem.Element) [3]mpcshare.B {
	t.Helper()
	var shares [3]mpcshare.B
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		var vp *ringelem.Element
		if id == owner {
			vp = &v
		}
		s, err := engines[id].Input(ctx, vp, owner, w)
		shares[id] = s
		return err
	})
	require.NoError(t, err)
	return shares
}

func openAll(t *testing.T, engines [3]*engineb.Engine, shares [3]mpcshare.B) [3]ringelem.Element {
	t.Helper()
	var opened [3]ringelem.Element
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		o, err := engines[id].Open(ctx, shares[id])
		opened[id] = o
		return err
	})
	require.NoError(t, err)
	return opened
}

func TestEngineBInputOpenRoundTrip(t *testing.T) {
	engines := newEngines(t)
	w := ringelem.W32
	v := ringelem.FromUint64(w, 123456)

	shares := inputAt(t, engines, party.One, w, v)
	opened := openAll(t, engines, shares)
	for i := range opened {
		require.Equal(t, v.Uint64(), opened[i].Uint64())
	}
}

func TestEngineBMulProducesProduct(t *testing.T) {
	engines := newEngines(t)
	w := ringelem.W32
	x, y := ringelem.FromUint64(w, 11), ringelem.FromUint64(w, 13)

	xs := inputAt(t, engines, party.Zero, w, x)
	ys := inputAt(t, engines, party.One, w, y)

	var products [3]mpcshare.B
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		p, err := engines[id].Mul(ctx, xs[id], ys[id])
		products[id] = p
		return err
	})
	require.NoError(t, err)

	opened := openAll(t, engines, products)
	for i := range opened {
		require.Equal(t, uint64(11*13), opened[i].Uint64())
	}

	require.NoError(t, network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		return engines[id].Verify(ctx)
	}))
}

func TestEngineBMSBAndReduceBinaryOr(t *testing.T) {
	engines := newEngines(t)
	w := ringelem.W8
	v := ringelem.FromUint64(w, 200) // top bit set

	shares := inputAt(t, engines, party.Zero, w, v)

	var msbBits [3]mpcshare.A
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		b, err := engines[id].MSB(ctx, shares[id], w)
		msbBits[id] = b
		return err
	})
	require.NoError(t, err)

	var orResult [3]mpcshare.A
	err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		r, err := engines[id].ReduceBinaryOr(ctx, []mpcshare.A{msbBits[id]}, 1)
		orResult[id] = r
		return err
	})
	require.NoError(t, err)

	var opened [3]bool
	err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		b, err := engines[id].OpenBit(ctx, orResult[id])
		opened[id] = b
		return err
	})
	require.NoError(t, err)
	for i := range opened {
		require.True(t, opened[i])
	}

	require.NoError(t, network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		return engines[id].Verify(ctx)
	}))
}

func TestEngineBMSBZero(t *testing.T) {
	engines := newEngines(t)
	w := ringelem.W8
	v := ringelem.FromUint64(w, 5) // top bit clear

	shares := inputAt(t, engines, party.Two, w, v)

	var msbBits [3]mpcshare.A
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		b, err := engines[id].MSB(ctx, shares[id], w)
		msbBits[id] = b
		return err
	})
	require.NoError(t, err)

	var opened [3]bool
	err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		b, err := engines[id].OpenBit(ctx, msbBits[id])
		opened[id] = b
		return err
	})
	require.NoError(t, err)
	for i := range opened {
		require.False(t, opened[i])
	}
}
