package cmds

import (
	"bufio"
	"net/http"

	"github.com/continuous-profiler/ddprof-go/transport"
)

// singleStreamTransport adapts one already-connected transport.ConnStream
// into an http.RoundTripper, so a caller that already dialed through the
// connector (to get at its ConnectionReport, or because it needs a UNIX
// socket net/http can't dial on its own) can still drive the request with
// the standard library's HTTP/1.1 request writer and response parser.
// It is good for exactly one request; build a fresh one per call as
// sendOne does.
type singleStreamTransport struct {
	stream *transport.ConnStream
}

func (t *singleStreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Write(t.stream); err != nil {
		return nil, err
	}
	if err := t.stream.Flush(); err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(t.stream), req)
}
