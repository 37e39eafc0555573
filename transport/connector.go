package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/url"
	"runtime"

	"github.com/continuous-profiler/ddprof-go/internal/log"
)

// Connector is the multi-transport connection factory: a value
// constructed in one of two modes, HTTPS-capable (a native
// root-certificate store loaded successfully) or HTTP-only (fallback),
// that dispatches a URI to the right ConnStream variant by scheme.
type Connector struct {
	dialer    net.Dialer
	https     bool
	tlsConfig *tls.Config

	// invalidRootCerts is observable but non-fatal: crypto/x509.SystemCertPool
	// does not expose a per-certificate valid/invalid breakdown, so this
	// is always 0 here -- see DESIGN.md for why that approximation is
	// accepted rather than hand-parsing the system PEM bundle.
	invalidRootCerts int
}

// NewConnector attempts to load the platform's native certificate roots
// and returns an HTTPS-capable Connector if at least one root was usable,
// or an HTTP-only Connector otherwise. Never fails outright: a connector
// always downgrades rather than erroring at construction.
func NewConnector() *Connector {
	pool, ok := loadRootCerts()
	if !ok {
		log.Warnf("transport: no valid certificate roots found, falling back to HTTP-only connector")
		return &Connector{}
	}
	return &Connector{
		https: true,
		tlsConfig: &tls.Config{
			RootCAs:    pool,
			NextProtos: []string{"h2", "http/1.1"},
			MinVersion: tls.VersionTLS12,
		},
	}
}

// loadRootCerts is the best-effort root loading step: if the system pool
// fails to load, or loads with no usable roots, it reports false so the
// caller falls back to HTTP-only instead of failing connector
// construction outright.
func loadRootCerts() (*x509.CertPool, bool) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		return nil, false
	}
	if len(pool.Subjects()) == 0 { //nolint:staticcheck // best-effort emptiness check only
		return nil, false
	}
	return pool, true
}

// HTTPSCapable reports whether this connector was able to load at least
// one valid root certificate.
func (c *Connector) HTTPSCapable() bool { return c.https }

// InvalidRootCertCount is the observable-but-non-fatal invalid root
// certificate count from construction.
func (c *Connector) InvalidRootCertCount() int { return c.invalidRootCerts }

// Ready reports whether the connector's underlying transport factory is
// ready to accept Call. The stdlib dialer has no readiness concept (it's
// always ready to dial), so this always succeeds; it exists so callers can
// check readiness before their first Call without a type switch.
func (c *Connector) Ready(_ context.Context) error { return nil }

// Call dispatches rawURI to the appropriate ConnStream variant by scheme:
// a single operation that performs whatever I/O is needed (DNS, TCP
// connect, TLS handshake, or a UNIX socket connect) and resolves to a
// ready-to-use stream, or an error. A malformed URI, an unsupported UNIX
// socket, and any HTTPS failure yield an error from the closed taxonomy in
// errors.go; a failed plain TCP or UNIX connect returns the dialer's error
// unchanged.
func (c *Connector) Call(ctx context.Context, rawURI string) (*ConnStream, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, ErrInvalidURL
	}

	switch u.Scheme {
	case "unix":
		return c.dialUnix(ctx, u)
	case "https":
		return c.dialHTTPS(ctx, u)
	default:
		return c.dialTCP(ctx, u)
	}
}

func (c *Connector) dialUnix(ctx context.Context, u *url.URL) (*ConnStream, error) {
	if runtime.GOOS == "windows" {
		return nil, ErrUnixSocketUnsupported
	}
	path, err := socketPathFromURI(u)
	if err != nil {
		return nil, err
	}
	conn, err := c.dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return newUnixStream(conn), nil
}

func (c *Connector) dialHTTPS(ctx context.Context, u *url.URL) (*ConnStream, error) {
	if !c.https {
		return nil, ErrCannotEstablishTLSConnection
	}
	rawConn, err := c.dialer.DialContext(ctx, "tcp", hostPort(u, "443"))
	if err != nil {
		return nil, err
	}
	tlsConn := tls.Client(rawConn, c.tlsConfig.Clone())
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, ErrCannotEstablishTLSConnection
	}
	// crypto/tls.Client either completes a real TLS handshake or returns
	// an error; it cannot silently resolve to a plaintext stream, so
	// reaching this point always means a genuine TLS stream.
	return newTLSStream(tlsConn), nil
}

func (c *Connector) dialTCP(ctx context.Context, u *url.URL) (*ConnStream, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", hostPort(u, "80"))
	if err != nil {
		return nil, err
	}
	return newTCPStream(conn), nil
}

func hostPort(u *url.URL, defaultPort string) string {
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), defaultPort)
}
