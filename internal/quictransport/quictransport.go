// Package quictransport implements pkg/network.Network over mutually
// authenticated TLS connections between the three parties. The spec names
// QUIC with TLS certificate pinning as the production transport and treats
// it as an external collaborator ("specify only their interfaces"); no QUIC
// client library appears anywhere in the retrieved reference pack, so
// rather than fabricate a dependency this package is built on crypto/tls
// over TCP, which is the transport-layer primitive QUIC's own handshake is
// built on and gives the same certificate-pinning security property this
// package documents. Swapping the dialer/listener for a real QUIC stack
// later only touches the two constructors below; every other method is
// already written against the plain net.Conn Read/Write interface.
package quictransport

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/irisprotocol/iris3pc/pkg/network"
	"github.com/irisprotocol/iris3pc/pkg/party"
)

// PeerConfig names where to dial a peer and which certificate to pin for it
// (spec: "QUIC transport with TLS certificate pinning").
type PeerConfig struct {
	Address    string
	PinnedCert *x509.Certificate
}

// Config is one party's full transport configuration: its own listen
// address and TLS identity, plus where to find and how to authenticate
// each of the other two parties.
type Config struct {
	Self        party.ID
	ListenAddr  string
	Certificate tls.Certificate
	Peers       map[party.ID]PeerConfig
}

// Transport is a pkg/network.Network implementation backed by one
// persistent TLS connection per peer. Connections are established once at
// Dial and reused for the session's lifetime; each is guarded by its own
// mutex so concurrent Send calls to different peers never block each
// other.
type Transport struct {
	self  party.ID
	conns map[party.ID]*peerConn

	mu    sync.Mutex
	stats network.Stats
}

type peerConn struct {
	mu   sync.Mutex
	conn net.Conn
}

// pinnedVerifier builds a tls.Config that accepts a peer's certificate only
// if it is byte-identical to pinned, rather than relying on a CA chain —
// the certificate-pinning behavior the spec asks for.
func pinnedVerifier(cert tls.Certificate, pinned *x509.Certificate) *tls.Config {
	return &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: true, // chain verification is replaced by VerifyPeerCertificate below.
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return fmt.Errorf("quictransport: peer presented no certificate")
			}
			peerCert, err := x509.ParseCertificate(rawCerts[0])
			if err != nil {
				return fmt.Errorf("quictransport: parsing peer certificate: %w", err)
			}
			if !peerCert.Equal(pinned) {
				return fmt.Errorf("quictransport: peer certificate does not match pinned certificate")
			}
			return nil
		},
	}
}

// Listen opens the TLS listener on which a party later accepts its inbound
// peer connections; the accepting itself happens in Dial (the convention
// this package uses: party i accepts connections from every party j > i,
// and dials every party j < i, so exactly one side of each pair
// initiates).
func Listen(cfg Config) (net.Listener, error) {
	tlsCfg := &tls.Config{Certificates: []tls.Certificate{cfg.Certificate}, ClientAuth: tls.RequireAnyClientCert}
	ln, err := tls.Listen("tcp", cfg.ListenAddr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("quictransport: listening on %s: %w", cfg.ListenAddr, err)
	}
	return ln, nil
}

// Dial establishes the transport's connection to every peer with a lower
// party.ID than cfg.Self (the dialing side of the convention Listen
// documents), accepting the remaining inbound connections from ln.
func Dial(cfg Config, ln net.Listener) (*Transport, error) {
	t := &Transport{
		self:  cfg.Self,
		conns: make(map[party.ID]*peerConn, 2),
		stats: network.Stats{SentBytes: map[party.ID]uint64{}, RecvBytes: map[party.ID]uint64{}},
	}

	toDial := make([]party.ID, 0, 2)
	toAccept := 0
	for _, id := range cfg.Self.Other() {
		if id < cfg.Self {
			toDial = append(toDial, id)
		} else {
			toAccept++
		}
	}

	for _, id := range toDial {
		peer, ok := cfg.Peers[id]
		if !ok {
			return nil, fmt.Errorf("quictransport: no peer config for %s", id)
		}
		conn, err := tls.Dial("tcp", peer.Address, pinnedVerifier(cfg.Certificate, peer.PinnedCert))
		if err != nil {
			return nil, fmt.Errorf("quictransport: dialing %s at %s: %w", id, peer.Address, err)
		}
		if err := sendID(conn, cfg.Self); err != nil {
			return nil, err
		}
		t.conns[id] = &peerConn{conn: conn}
	}

	for i := 0; i < toAccept; i++ {
		conn, err := ln.Accept()
		if err != nil {
			return nil, fmt.Errorf("quictransport: accepting peer connection: %w", err)
		}
		id, err := recvID(conn)
		if err != nil {
			return nil, err
		}
		peer, ok := cfg.Peers[id]
		tlsConn, isTLS := conn.(*tls.Conn)
		if !ok || !isTLS {
			return nil, fmt.Errorf("quictransport: no pinned certificate for inbound %s", id)
		}
		certs := tlsConn.ConnectionState().PeerCertificates
		if len(certs) == 0 || !certs[0].Equal(peer.PinnedCert) {
			return nil, fmt.Errorf("quictransport: inbound %s certificate does not match pinned certificate", id)
		}
		t.conns[id] = &peerConn{conn: conn}
	}

	return t, nil
}

func sendID(conn net.Conn, id party.ID) error {
	_, err := conn.Write([]byte{byte(id)})
	return err
}

func recvID(conn net.Conn) (party.ID, error) {
	var buf [1]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return 0, fmt.Errorf("quictransport: reading peer identity: %w", err)
	}
	id := party.ID(buf[0])
	if !id.Valid() {
		return 0, &invalidPartyError{id: buf[0]}
	}
	return id, nil
}

type invalidPartyError struct{ id byte }

func (e *invalidPartyError) Error() string {
	return fmt.Sprintf("quictransport: peer announced invalid party id %d", e.id)
}

func (t *Transport) ID() party.ID    { return t.self }
func (t *Transport) NumParties() int { return party.NumParties }

func (t *Transport) peer(id party.ID) (*peerConn, error) {
	pc, ok := t.conns[id]
	if !ok {
		return nil, &partyNoConnError{id: id}
	}
	return pc, nil
}

type partyNoConnError struct{ id party.ID }

func (e *partyNoConnError) Error() string {
	return fmt.Sprintf("quictransport: no connection to party %s", e.id)
}

func (t *Transport) Send(to party.ID, payload []byte) error {
	pc, err := t.peer(to)
	if err != nil {
		return err
	}
	framed := network.FrameLenPrefix(payload)
	pc.mu.Lock()
	_, err = pc.conn.Write(framed)
	pc.mu.Unlock()
	if err != nil {
		return fmt.Errorf("quictransport: writing to %s: %w", to, err)
	}
	t.mu.Lock()
	t.stats.SentBytes[to] += uint64(len(framed))
	t.mu.Unlock()
	return nil
}

func (t *Transport) Recv(from party.ID) ([]byte, error) {
	pc, err := t.peer(from)
	if err != nil {
		return nil, err
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()

	var lenBuf [4]byte
	if _, err := io.ReadFull(pc.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("quictransport: reading length prefix from %s: %w", from, err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	payload := make([]byte, n)
	if _, err := io.ReadFull(pc.conn, payload); err != nil {
		return nil, fmt.Errorf("quictransport: reading payload from %s: %w", from, err)
	}
	t.mu.Lock()
	t.stats.RecvBytes[from] += uint64(4 + n)
	t.mu.Unlock()
	return payload, nil
}

func (t *Transport) SendNext(payload []byte) error { return t.Send(t.self.Next(), payload) }
func (t *Transport) SendPrev(payload []byte) error { return t.Send(t.self.Prev(), payload) }
func (t *Transport) RecvNext() ([]byte, error)     { return t.Recv(t.self.Next()) }
func (t *Transport) RecvPrev() ([]byte, error)     { return t.Recv(t.self.Prev()) }

func (t *Transport) Broadcast(payload []byte) (map[party.ID][]byte, error) {
	out := make(map[party.ID][]byte, 3)
	out[t.self] = payload
	for _, id := range t.self.Other() {
		if err := t.Send(id, payload); err != nil {
			return nil, err
		}
	}
	for _, id := range t.self.Other() {
		got, err := t.Recv(id)
		if err != nil {
			return nil, err
		}
		out[id] = got
	}
	return out, nil
}

func (t *Transport) Shutdown() error {
	var firstErr error
	for _, pc := range t.conns {
		if err := pc.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *Transport) Stats() network.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	sent := make(map[party.ID]uint64, len(t.stats.SentBytes))
	recv := make(map[party.ID]uint64, len(t.stats.RecvBytes))
	for k, v := range t.stats.SentBytes {
		sent[k] = v
	}
	for k, v := range t.stats.RecvBytes {
		recv[k] = v
	}
	return network.Stats{SentBytes: sent, RecvBytes: recv}
}
