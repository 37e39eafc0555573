package transport

import (
	"encoding/hex"
	"net/url"
)

// socketPathToURI encodes a filesystem path as a synthetic unix:// URI:
// scheme "unix", authority the lowercase hex encoding of the path's
// bytes, empty path and query. Hex-encoding the authority sidesteps
// special characters (spaces, colons, percent signs) that would
// otherwise need URL-escaping in an authority component.
func socketPathToURI(path string) *url.URL {
	return &url.URL{
		Scheme: "unix",
		Host:   hex.EncodeToString([]byte(path)),
	}
}

// socketPathFromURI reverses socketPathToURI. Any scheme mismatch, missing
// authority, or invalid hex yields ErrInvalidURL.
func socketPathFromURI(u *url.URL) (string, error) {
	if u.Scheme != "unix" || u.Opaque != "" || u.Host == "" {
		return "", ErrInvalidURL
	}
	decoded, err := hex.DecodeString(u.Host)
	if err != nil {
		return "", ErrInvalidURL
	}
	return string(decoded), nil
}
