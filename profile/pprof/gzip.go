package pprof

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Gzip compresses an encoded pprof buffer. Most pprof consumers (the
// pprof tool included) accept either raw or gzip-compressed payloads;
// callers that ship over HTTP typically prefer the smaller, compressed
// form, matching cloudwego-goref/pkg/proc/protobuf.go's own
// gzip.Writer-wrapped output.
func Gzip(buf []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(buf); err != nil {
		return nil, fmt.Errorf("pprof: gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pprof: gzip close: %w", err)
	}
	return out.Bytes(), nil
}

// Gunzip reverses Gzip.
func Gunzip(buf []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("pprof: gzip reader: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("pprof: gzip read: %w", err)
	}
	return data, nil
}
