package enginea_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
	"github.com/irisprotocol/iris3pc/pkg/ringelem"
	"github.com/irisprotocol/iris3pc/protocols/enginea"
)

func newAuthEngines(t *testing.T) [3]*enginea.AuthEngine {
	t.Helper()
	mt := network.NewMemTransports()
	var engines [3]*enginea.AuthEngine
	for i := range mt {
		engines[i] = enginea.NewAuth(mt[i])
	}
	require.NoError(t, network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		return engines[id].Preprocess(ctx)
	}))
	return engines
}

func TestAuthInputMulOpenVerifies(t *testing.T) {
	engines := newAuthEngines(t)
	w := ringelem.W32
	x, y := ringelem.FromUint64(w, 6), ringelem.FromUint64(w, 7)

	var xs, ys [3]enginea.AuthShare
	err := network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		var xv, yv *ringelem.Element
		if id == party.Zero {
			xv = &x
		}
		if id == party.Two {
			yv = &y
		}
		var err error
		xs[id], err = engines[id].Input(ctx, xv, party.Zero, w)
		if err != nil {
			return err
		}
		ys[id], err = engines[id].Input(ctx, yv, party.Two, w)
		return err
	})
	require.NoError(t, err)

	var products [3]enginea.AuthShare
	err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		p, err := engines[id].Mul(ctx, xs[id], ys[id])
		products[id] = p
		return err
	})
	require.NoError(t, err)

	var opened [3]ringelem.Element
	err = network.RunParties(context.Background(), func(ctx context.Context, id party.ID) error {
		o, err := engines[id].Open(ctx, products[id])
		opened[id] = o
		return err
	})
	require.NoError(t, err)
	for i := range opened {
		require.Equal(t, uint64(42), opened[i].Uint64())
	}
}
