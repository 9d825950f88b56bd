// Package network defines the pairwise byte-channel abstraction the core
// consumes (spec 6.1) and a synchronous in-memory implementation used by
// every protocol's tests. A production transport (QUIC with TLS certificate
// pinning) is an external collaborator; internal/quictransport implements
// this interface over TLS-over-TCP connections with certificate pinning.
package network

import (
	"fmt"
	"io"

	"github.com/irisprotocol/iris3pc/pkg/party"
)

// Network is the pairwise byte-channel every engine is built against.
// Implementations must guarantee in-order, reliable, authenticated delivery
// on each pairwise channel (spec 1, "assumes a reliable, ordered,
// authenticated pairwise byte channel between each pair of the three
// parties"). Every method is a suspension point (spec 5): it must not
// return until the corresponding I/O has completed.
type Network interface {
	ID() party.ID
	NumParties() int

	Send(to party.ID, payload []byte) error
	Recv(from party.ID) ([]byte, error)

	SendNext(payload []byte) error
	SendPrev(payload []byte) error
	RecvNext() ([]byte, error)
	RecvPrev() ([]byte, error)

	// Broadcast delivers payload to both other parties and returns all
	// three parties' payloads indexed by party.ID, self-inclusive: the
	// caller's own payload occupies its own slot without a round trip.
	Broadcast(payload []byte) (map[party.ID][]byte, error)

	// Shutdown tears down the transport; idempotent.
	Shutdown() error

	// Stats returns a snapshot of per-peer byte counters.
	Stats() Stats
}

// Stats holds monotonically increasing per-peer byte counters (spec 6.1
// print_connection_stats, spec 8 "byte accounting" invariant).
type Stats struct {
	SentBytes map[party.ID]uint64
	RecvBytes map[party.ID]uint64
}

// Print renders the stats in the same per-peer table shape the teacher's
// CLI tooling prints connection/round diagnostics in.
func (s Stats) Print(w io.Writer) {
	ids := party.All()
	for _, id := range ids {
		fmt.Fprintf(w, "peer %s: sent=%d recv=%d\n", id, s.SentBytes[id], s.RecvBytes[id])
	}
}

// FrameLenPrefix returns payload wrapped in the wire format spec 6.1
// mandates for a byte-stream transport: a 4-byte big-endian length prefix
// followed by the payload. The in-memory test transport does not need this
// (channels already preserve message boundaries) but a stream-oriented
// production transport (internal/quictransport) does.
func FrameLenPrefix(payload []byte) []byte {
	n := len(payload)
	out := make([]byte, 4+n)
	out[0] = byte(n >> 24)
	out[1] = byte(n >> 16)
	out[2] = byte(n >> 8)
	out[3] = byte(n)
	copy(out[4:], payload)
	return out
}

// UnframeLenPrefix parses the wire format produced by FrameLenPrefix.
func UnframeLenPrefix(framed []byte) ([]byte, error) {
	if len(framed) < 4 {
		return nil, fmt.Errorf("network: frame too short: %d bytes", len(framed))
	}
	n := int(framed[0])<<24 | int(framed[1])<<16 | int(framed[2])<<8 | int(framed[3])
	if len(framed) != 4+n {
		return nil, fmt.Errorf("network: frame length mismatch: header says %d, have %d", n, len(framed)-4)
	}
	return framed[4:], nil
}
