package network

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/irisprotocol/iris3pc/pkg/party"
)

// memLink is the one-directional channel carrying framed messages from one
// party to another.
type memLink chan []byte

// memFabric wires up the six directed channels (one per ordered pair)
// backing a three-party in-memory Network; byte counters live on each
// endpoint, not here.
type memFabric struct {
	links [party.NumParties][party.NumParties]memLink // links[from][to]
}

func newMemFabric(bufSize int) *memFabric {
	f := &memFabric{}
	for from := range f.links {
		for to := range f.links[from] {
			if from == to {
				continue
			}
			f.links[from][to] = make(memLink, bufSize)
		}
	}
	return f
}

// MemTransport is the in-memory Network implementation used throughout this
// repository's tests, grounded in the teacher's habit of testing round
// protocols against a fully local three-party fixture (protocols/lss's
// test_helpers.go) rather than a real socket.
type MemTransport struct {
	self   party.ID
	fabric *memFabric

	mu    sync.Mutex
	stats Stats

	closed atomic.Bool
}

// NewMemTransports builds the three endpoints of an in-memory fabric, ready
// for immediate use; no further setup round is required.
func NewMemTransports() [party.NumParties]*MemTransport {
	fabric := newMemFabric(64)
	var out [party.NumParties]*MemTransport
	for _, id := range party.All() {
		out[id] = &MemTransport{
			self:   id,
			fabric: fabric,
			stats: Stats{
				SentBytes: make(map[party.ID]uint64),
				RecvBytes: make(map[party.ID]uint64),
			},
		}
	}
	return out
}

func (m *MemTransport) ID() party.ID    { return m.self }
func (m *MemTransport) NumParties() int { return party.NumParties }

func (m *MemTransport) Send(to party.ID, payload []byte) error {
	if !to.Valid() {
		return fmt.Errorf("network: %w", &idErr{to})
	}
	if m.closed.Load() {
		return fmt.Errorf("network: send after shutdown")
	}
	m.mu.Lock()
	m.stats.SentBytes[to] += uint64(len(payload))
	m.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.fabric.links[m.self][to] <- buf
	return nil
}

func (m *MemTransport) Recv(from party.ID) ([]byte, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("network: %w", &idErr{from})
	}
	buf, ok := <-m.fabric.links[from][m.self]
	if !ok {
		return nil, fmt.Errorf("network: connection aborted by %s", from)
	}
	m.mu.Lock()
	m.stats.RecvBytes[from] += uint64(len(buf))
	m.mu.Unlock()
	return buf, nil
}

func (m *MemTransport) SendNext(payload []byte) error { return m.Send(m.self.Next(), payload) }
func (m *MemTransport) SendPrev(payload []byte) error { return m.Send(m.self.Prev(), payload) }
func (m *MemTransport) RecvNext() ([]byte, error)     { return m.Recv(m.self.Next()) }
func (m *MemTransport) RecvPrev() ([]byte, error)     { return m.Recv(m.self.Prev()) }

// Broadcast sends payload to both other parties, then receives theirs,
// issuing both sends before either receive (spec 5: batched operations
// issue all sends before any receives so the three parties' messages cross
// in flight).
func (m *MemTransport) Broadcast(payload []byte) (map[party.ID][]byte, error) {
	others := m.self.Other()
	for _, to := range others {
		if err := m.Send(to, payload); err != nil {
			return nil, err
		}
	}
	out := map[party.ID][]byte{m.self: payload}
	for _, from := range others {
		v, err := m.Recv(from)
		if err != nil {
			return nil, err
		}
		out[from] = v
	}
	return out, nil
}

func (m *MemTransport) Shutdown() error {
	m.closed.Store(true)
	return nil
}

func (m *MemTransport) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := Stats{SentBytes: make(map[party.ID]uint64), RecvBytes: make(map[party.ID]uint64)}
	for k, v := range m.stats.SentBytes {
		out.SentBytes[k] = v
	}
	for k, v := range m.stats.RecvBytes {
		out.RecvBytes[k] = v
	}
	return out
}

type idErr struct{ id party.ID }

func (e *idErr) Error() string { return fmt.Sprintf("invalid party id %d", uint8(e.id)) }

// RunParties drives fn concurrently for all three parties over an errgroup,
// returning the first error encountered (or nil). This is the three
// concurrent party tasks of spec 5, collapsed onto one cooperative
// scheduler for tests.
func RunParties(ctx context.Context, fn func(ctx context.Context, id party.ID) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range party.All() {
		id := id
		g.Go(func() error { return fn(ctx, id) })
	}
	return g.Wait()
}
