// Package transport implements the multi-transport connector: a connection
// factory that dispatches on URL scheme to plain TCP, TLS-over-TCP, or
// UNIX-domain-socket, unifying all three behind a single stream capability
// a generic HTTP client can drive uniformly.
package transport

// Error is the closed, user-visible error taxonomy. It is a
// string-backed sentinel type in the style of io.EOF: each value is declared
// once as a package-level constant and compared with errors.Is, not type
// assertion.
type Error string

func (e Error) Error() string { return string(e) }

// The closed set of errors a Connector or ConnStream can return.
const (
	ErrInvalidURL                   Error = "invalid url"
	ErrOperationTimedOut            Error = "operation timed out"
	ErrUnixSocketUnsupported        Error = "unix sockets unsupported on this platform"
	ErrCannotEstablishTLSConnection Error = "cannot establish requested secure TLS connection"
	ErrNoValidCertificateRootsFound Error = "native tls couldn't find any valid certificate roots"
)
