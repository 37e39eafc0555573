package transport

import (
	"context"
	"net/url"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6 -- https rejected under HTTP-only: a connector with no TLS config
// resolves a https:// call to CannotEstablishTlsConnection without
// opening a socket.
func TestHTTPOnlyConnectorRejectsHTTPS(t *testing.T) {
	c := &Connector{} // zero value: https == false, the HTTP-only mode
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := c.Call(ctx, "https://example.invalid")
	assert.ErrorIs(t, err, ErrCannotEstablishTLSConnection)
}

func TestConnectorUnixOnWindowsIsUnsupported(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("only meaningful on windows")
	}
	c := &Connector{}
	u, err := url.Parse("unix://2f")
	require.NoError(t, err)
	_, err = c.dialUnix(context.Background(), u)
	assert.ErrorIs(t, err, ErrUnixSocketUnsupported)
}

func TestConnectorCallRejectsMalformedURI(t *testing.T) {
	c := &Connector{}
	_, err := c.Call(context.Background(), "://not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestConnectorReadyAlwaysSucceeds(t *testing.T) {
	c := &Connector{}
	require.NoError(t, c.Ready(context.Background()))
}
