package transport

import (
	"crypto/tls"
	"net"
)

// kind tags which transport a ConnStream wraps. Hand-written dispatch
// per kind, not an interface plus dynamic dispatch, since a generic Go
// interface would hide exactly the platform-dependent UNIX arm this
// type needs to special-case.
type kind int

const (
	kindTCP kind = iota
	kindTLS
	kindUnix
)

// Report exposes negotiated protocol information for a connection: TCP
// has nothing to add; TLS reports whether ALPN settled on h2; UNIX
// reports the default, "no negotiation", value.
type Report struct {
	NegotiatedHTTP2 bool
}

// ConnStream is the tagged union over TCP, TLS-over-TCP, and UNIX-domain
// streams, unifying them behind one read/write/close capability plus a
// Report. The zero value is not usable; obtain one from a Connector.
type ConnStream struct {
	kind    kind
	conn    net.Conn
	tlsConn *tls.Conn // set only when kind == kindTLS
}

func newTCPStream(c net.Conn) *ConnStream  { return &ConnStream{kind: kindTCP, conn: c} }
func newUnixStream(c net.Conn) *ConnStream { return &ConnStream{kind: kindUnix, conn: c} }
func newTLSStream(c *tls.Conn) *ConnStream { return &ConnStream{kind: kindTLS, conn: c, tlsConn: c} }

// Read forwards to the underlying transport. ConnStream exposes no deadline
// setter, so a blocked Read returns only when the transport does (data,
// EOF, an error, or Close).
func (s *ConnStream) Read(p []byte) (int, error) { return s.conn.Read(p) }

// Write forwards to the underlying transport.
func (s *ConnStream) Write(p []byte) (int, error) { return s.conn.Write(p) }

// Flush is a no-op: none of the three transports buffer writes in user
// space, so there is nothing to flush. The method exists so callers can
// treat all three variants uniformly without a type switch.
func (s *ConnStream) Flush() error { return nil }

// halfCloser is satisfied by *net.TCPConn, *net.UnixConn and *tls.Conn.
type halfCloser interface {
	CloseWrite() error
}

// Shutdown half-closes the write side through the transport's CloseWrite:
// TCP and UNIX shut down the socket's write half; TLS sends a close_notify
// alert and leaves the underlying TCP connection open. A transport without
// CloseWrite is fully closed instead. Dropping a ConnStream without
// calling Shutdown still closes its file descriptor via Close.
func (s *ConnStream) Shutdown() error {
	if hc, ok := s.conn.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return s.conn.Close()
}

// Close releases the underlying file descriptor. A ConnStream owns it
// exclusively; closing is safe to call more than once on most transports
// but callers should treat it as a one-shot operation.
func (s *ConnStream) Close() error { return s.conn.Close() }

// ConnectionReport returns the negotiated-protocol report for this stream.
func (s *ConnStream) ConnectionReport() Report {
	if s.kind != kindTLS {
		return Report{}
	}
	state := s.tlsConn.ConnectionState()
	return Report{NegotiatedHTTP2: state.NegotiatedProtocol == "h2"}
}
