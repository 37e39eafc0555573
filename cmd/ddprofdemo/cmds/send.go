package cmds

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/continuous-profiler/ddprof-go/api"
	"github.com/continuous-profiler/ddprof-go/internal/log"
	"github.com/continuous-profiler/ddprof-go/profile"
	"github.com/continuous-profiler/ddprof-go/profile/pprof"
	"github.com/continuous-profiler/ddprof-go/transport"
)

// buildDemoProfile records n synthetic CPU samples across two fabricated
// call stacks, exercising the aggregation engine (intern/dedup/Add) the
// way a real sampling hook would.
func buildDemoProfile(n int) (*profile.Profile, error) {
	p := profile.New(
		[]api.ValueType{{Type: "samples", Unit: "count"}},
		&api.Period{Type: api.ValueType{Type: "cpu", Unit: "nanoseconds"}, Value: 10_000_000},
	)

	mapping := api.Mapping{MemoryStart: 0x400000, MemoryLimit: 0x800000, Filename: "ddprofdemo"}
	stacks := [][]api.Location{
		{
			{Mapping: mapping, Address: 0x401000, Lines: []api.Line{{Function: api.Function{Name: "main.work", Filename: "main.go"}, Line: 42}}},
			{Mapping: mapping, Address: 0x401200, Lines: []api.Line{{Function: api.Function{Name: "main.main", Filename: "main.go"}, Line: 10}}},
		},
		{
			{Mapping: mapping, Address: 0x402000, Lines: []api.Line{{Function: api.Function{Name: "main.helper", Filename: "helper.go"}, Line: 7}}},
			{Mapping: mapping, Address: 0x401200, Lines: []api.Line{{Function: api.Function{Name: "main.main", Filename: "main.go"}, Line: 11}}},
		},
	}

	for i := 0; i < n; i++ {
		stack := stacks[i%len(stacks)]
		if _, err := p.Add(api.Sample{
			Locations: stack,
			Values:    []int64{1},
			Labels:    []api.Label{{Key: "thread", Str: "worker-0"}},
		}); err != nil {
			return nil, fmt.Errorf("record sample %d: %w", i, err)
		}
	}
	return p, nil
}

// sendOne serializes buf through the connector to one agent URL, using an
// http.Client whose transport dials exclusively through the ConnStream
// the connector returns, so TCP, TLS, and UNIX destinations all go
// through the same generic HTTP client code path.
func sendOne(ctx context.Context, connector *transport.Connector, agentURL string, buf []byte) error {
	stream, err := connector.Call(ctx, agentURL)
	if err != nil {
		return fmt.Errorf("%s: connect: %w", agentURL, err)
	}
	defer stream.Close()

	client := &http.Client{
		Transport: &singleStreamTransport{stream: stream},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", agentURL, err)
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	if stream.ConnectionReport().NegotiatedHTTP2 {
		req.Header.Set("X-Negotiated-Protocol", "h2")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request: %w", agentURL, err)
	}
	defer resp.Body.Close()

	log.Infof("ddprofdemo: sent %d bytes to %s (status %s)", len(buf), agentURL, resp.Status)
	return nil
}

// runSend fans the same encoded profile out to every agent URL
// concurrently, stopping at the first failure (errgroup's standard
// fail-fast semantics).
func runSend(ctx context.Context, urls []string, n int, gzipIt bool) error {
	p, err := buildDemoProfile(n)
	if err != nil {
		return err
	}

	encoded, err := p.Serialize()
	if err != nil {
		return fmt.Errorf("serialize profile: %w", err)
	}

	buf := encoded.Buffer
	if gzipIt {
		buf, err = pprof.Gzip(buf)
		if err != nil {
			return fmt.Errorf("gzip profile: %w", err)
		}
	}

	connector := transport.NewConnector()
	if !connector.HTTPSCapable() {
		log.Warnf("ddprofdemo: no HTTPS-capable connector, https:// URLs will fail")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range urls {
		u := u
		g.Go(func() error { return sendOne(gctx, connector, u, buf) })
	}
	return g.Wait()
}
