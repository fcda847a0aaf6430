// Package simbus is a loopback CAN bus for hosts without a physical
// controller: CI, and multi-node integration tests that want several
// gttcan.Core instances talking to each other in one test binary or
// across processes on one machine. The spec scopes the physical bus out
// of the core entirely (§1); this package stands in for it.
//
// Frames are carried as QUIC datagrams (github.com/quic-go/quic-go) over
// a Hub that every Node dials and that rebroadcasts each received
// datagram to every other connected Node, so every frame a Node
// transmits is heard by all other Nodes without needing one-to-one links
// between them. A Node does not receive its own transmissions back.
package simbus

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"
	"math/big"
	"sync"
	"time"

	quic "github.com/quic-go/quic-go"

	"github.com/cpslab-gu/gttcan-go/gttcan"
	"github.com/cpslab-gu/gttcan-go/internal/xerrors"
)

// wireFrameSize is 4 bytes of idField plus 8 bytes of payload.
const wireFrameSize = 12

// Whiteboard is the host data store a Node's gttcan.Core reads from and
// writes to; see internal/socketcan's identical interface for why the
// core never sees this directly.
type Whiteboard interface {
	Read(dataID uint16) uint64
	Write(dataID uint16, value uint64)
}

// Hub accepts QUIC connections from Nodes and rebroadcasts every
// datagram it receives from one connection to all the others,
// simulating a shared multi-drop CAN bus.
type Hub struct {
	listener *quic.Listener

	mu    sync.Mutex
	conns map[*quic.Conn]struct{}

	closed chan struct{}
}

// ListenHub starts a Hub on addr (e.g. "127.0.0.1:0"; Addr() reports the
// resolved port). The returned Hub must be served by calling Serve in a
// goroutine.
func ListenHub(addr string) (*Hub, error) {
	tlsConf, err := generateBusTLSConfig()
	if err != nil {
		return nil, xerrors.TransportUnavailable("simbus", "tls: "+err.Error())
	}

	l, err := quic.ListenAddr(addr, tlsConf, &quic.Config{EnableDatagrams: true})
	if err != nil {
		return nil, xerrors.TransportUnavailable("simbus", "listen: "+err.Error())
	}

	return &Hub{
		listener: l,
		conns:    make(map[*quic.Conn]struct{}),
		closed:   make(chan struct{}),
	}, nil
}

// Addr returns the hub's bound UDP address as a string.
func (h *Hub) Addr() string {
	return h.listener.Addr().String()
}

// Serve accepts connections and relays datagrams until Close is called.
// Callers run it in its own goroutine.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		conn, err := h.listener.Accept(ctx)
		if err != nil {
			select {
			case <-h.closed:
				return nil
			default:
				return xerrors.TransportUnavailable("simbus", "accept: "+err.Error())
			}
		}

		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()

		go h.relay(ctx, conn)
	}
}

func (h *Hub) relay(ctx context.Context, conn *quic.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
	}()

	for {
		msg, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			return
		}

		h.broadcast(ctx, conn, msg)
	}
}

func (h *Hub) broadcast(ctx context.Context, from *quic.Conn, msg []byte) {
	h.mu.Lock()
	peers := make([]*quic.Conn, 0, len(h.conns))
	for c := range h.conns {
		if c != from {
			peers = append(peers, c)
		}
	}
	h.mu.Unlock()

	for _, peer := range peers {
		_ = peer.SendDatagram(msg)
	}
}

// Close shuts the hub down, closing every connection it accepted.
func (h *Hub) Close() error {
	close(h.closed)

	h.mu.Lock()
	for c := range h.conns {
		_ = c.CloseWithError(0, "hub closing")
	}
	h.mu.Unlock()

	return h.listener.Close()
}

// Node dials a Hub and implements gttcan.Callbacks over it: Transmit and
// the frames the bus rebroadcasts stand in for the CAN controller,
// while SetTimer is backed by a software time.Timer rather than a
// hardware peripheral (this package is a test/simulation transport, not
// the timing-accurate one spec §1 is written against).
type Node struct {
	conn       *quic.Conn
	whiteboard Whiteboard
	core       *gttcan.Core

	mu    sync.Mutex // serializes RX and timer ISR-equivalents, per spec §5
	timer *time.Timer

	cancel context.CancelFunc
}

// DialNode connects to a Hub at addr as one simulated bus node.
func DialNode(ctx context.Context, addr string, whiteboard Whiteboard) (*Node, error) {
	tlsConf := &tls.Config{InsecureSkipVerify: true, NextProtos: []string{"gttcan-simbus"}}

	conn, err := quic.DialAddr(ctx, addr, tlsConf, &quic.Config{EnableDatagrams: true})
	if err != nil {
		return nil, xerrors.TransportUnavailable("simbus", "dial: "+err.Error())
	}

	nctx, cancel := context.WithCancel(ctx)

	n := &Node{conn: conn, whiteboard: whiteboard, cancel: cancel}

	go n.rxLoop(nctx)

	return n, nil
}

// Bind installs core as the protocol instance this node drives; Init
// must already have been called on core with this Node as its
// gttcan.Callbacks.
func (n *Node) Bind(core *gttcan.Core) {
	n.core = core
}

// Close disconnects from the hub and stops any armed timer.
func (n *Node) Close() error {
	n.cancel()

	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()

	return n.conn.CloseWithError(0, "node closing")
}

func (n *Node) rxLoop(ctx context.Context) {
	for {
		msg, err := n.conn.ReceiveDatagram(ctx)
		if err != nil {
			return
		}

		if len(msg) != wireFrameSize {
			continue
		}

		idField := binary.BigEndian.Uint32(msg[0:4])
		data := binary.BigEndian.Uint64(msg[4:12])

		n.mu.Lock()
		n.core.OnFrameReceived(idField, data, 0)
		n.mu.Unlock()
	}
}

// Transmit implements gttcan.Callbacks by broadcasting a wire frame to
// the hub, which relays it to every other connected Node.
func (n *Node) Transmit(idField uint32, data uint64) {
	buf := make([]byte, wireFrameSize)
	binary.BigEndian.PutUint32(buf[0:4], idField)
	binary.BigEndian.PutUint64(buf[4:12], data)

	_ = n.conn.SendDatagram(buf)
}

// SetTimer implements gttcan.Callbacks with a software timer, replacing
// any previously armed one exactly as a hardware one-shot timer would.
//
// Callers always reach this with n.mu already held: rxLoop and the
// time.AfterFunc trampoline below both hold it for the duration of the
// gttcan.Core call that may turn around and invoke SetTimer, so this
// method must not lock n.mu itself — only Close, which runs outside
// that call chain, acquires it directly.
func (n *Node) SetTimer(deltaNUT uint32) {
	if n.timer != nil {
		n.timer.Stop()
	}

	d := time.Duration(deltaNUT) * gttcan.NUT * time.Nanosecond
	n.timer = time.AfterFunc(d, func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		n.core.OnTimerExpired()
	})
}

// ReadValue implements gttcan.Callbacks by delegating to the bound
// Whiteboard.
func (n *Node) ReadValue(dataID uint16) uint64 { return n.whiteboard.Read(dataID) }

// WriteValue implements gttcan.Callbacks by delegating to the bound
// Whiteboard.
func (n *Node) WriteValue(dataID uint16, value uint64) { n.whiteboard.Write(dataID, value) }

// generateBusTLSConfig builds an in-memory self-signed certificate for
// the hub; simbus is a closed simulation transport, so clients dial
// with InsecureSkipVerify rather than trusting a CA.
func generateBusTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"gttcan-simbus"},
	}, nil
}
