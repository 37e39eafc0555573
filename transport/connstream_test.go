package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnStreamTCPReadWrite(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		conn.Read(buf)
		conn.Write(buf)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	stream := newTCPStream(client)
	defer stream.Close()

	_, err = stream.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, stream.Flush())

	buf := make([]byte, 5)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	<-serverDone
}

func TestConnStreamReportDefaultsForTCP(t *testing.T) {
	stream := &ConnStream{kind: kindTCP}
	report := stream.ConnectionReport()
	assert.False(t, report.NegotiatedHTTP2)
}

func TestConnStreamReportDefaultsForUnix(t *testing.T) {
	stream := &ConnStream{kind: kindUnix}
	report := stream.ConnectionReport()
	assert.False(t, report.NegotiatedHTTP2)
}
