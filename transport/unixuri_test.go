package transport

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 -- round-trip unix path.
func TestSocketPathRoundTripAbsolute(t *testing.T) {
	path := "/path/to/a/socket.sock"
	u := socketPathToURI(path)

	assert.Equal(t, "unix", u.Scheme)
	assert.Equal(t, "2f706174682f746f2f612f736f636b65742e736f636b", u.Host)

	got, err := socketPathFromURI(u)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestSocketPathRoundTripRelative(t *testing.T) {
	for _, path := range []string{
		"relative/path/to/a/socket.sock",
		"./relative/path/to/a/socket.sock",
	} {
		u := socketPathToURI(path)
		got, err := socketPathFromURI(u)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	}
}

func TestSocketPathFromURIRejectsWrongScheme(t *testing.T) {
	u := &url.URL{Scheme: "http", Host: "2f"}
	_, err := socketPathFromURI(u)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestSocketPathFromURIRejectsInvalidHex(t *testing.T) {
	u := &url.URL{Scheme: "unix", Host: "not-hex!"}
	_, err := socketPathFromURI(u)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestSocketPathFromURIRejectsOpaque(t *testing.T) {
	u := &url.URL{Scheme: "unix", Opaque: "2f"}
	_, err := socketPathFromURI(u)
	assert.ErrorIs(t, err, ErrInvalidURL)
}
