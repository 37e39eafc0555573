// Package reporter ties the aggregation engine, the connector, and the
// telemetry payloads together into the periodic reporting loop a caller
// actually runs: accumulate samples into a profile.Profile, and on every
// tick, Reset it, serialize the snapshot, and ship it through a
// transport.Connector, using a ticker-plus-jitter-plus-stopSignal loop.
package reporter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"

	"github.com/continuous-profiler/ddprof-go/api"
	"github.com/continuous-profiler/ddprof-go/internal/agentconfig"
	"github.com/continuous-profiler/ddprof-go/internal/log"
	"github.com/continuous-profiler/ddprof-go/profile"
	"github.com/continuous-profiler/ddprof-go/profile/pprof"
	"github.com/continuous-profiler/ddprof-go/telemetry"
	"github.com/continuous-profiler/ddprof-go/transport"
)

// TraceHash identifies a stack trace's shape (its locations, independent
// of sample count).
type TraceHash uint64

// HashLocations derives a TraceHash from a stack's mapping/address/line
// shape, using xxh3, the fastest of the available hash functions for
// short byte keys.
func HashLocations(locations []api.Location) TraceHash {
	var b bytes.Buffer
	for _, loc := range locations {
		fmt.Fprintf(&b, "%s|%x|", loc.Mapping.Filename, loc.Address)
		for _, ln := range loc.Lines {
			fmt.Fprintf(&b, "%s:%d;", ln.Function.Name, ln.Line)
		}
		b.WriteByte('\n')
	}
	return TraceHash(xxh3.Hash(b.Bytes()))
}

func hashTraceHash(h TraceHash) uint32 { return uint32(h) ^ uint32(h>>32) }

// Metrics reports the reporter's own operating counters.
type Metrics struct {
	ReportsSent   uint64
	ReportsFailed uint64
	BytesSent     uint64
}

// Reporter accumulates samples into a profile.Profile and periodically
// ships a serialized snapshot to one agent URL. The zero value is not
// usable; construct one with New.
type Reporter struct {
	cfg       agentconfig.Config
	connector *transport.Connector

	mu      sync.Mutex
	current *profile.Profile

	// traceCache remembers the locations belonging to a previously seen
	// TraceHash, so a hot repeating stack can be re-reported by hash alone
	// via ReportCount instead of rebuilding its api.Location slice on
	// every sample.
	traceCache *lru.SyncedLRU[TraceHash, []api.Location]

	stopSignal chan struct{}
	stopOnce   sync.Once

	seq     uint64
	metrics Metrics
}

// New builds a Reporter bound to cfg and connector. cacheSize bounds the
// trace-shape cache.
func New(cfg agentconfig.Config, connector *transport.Connector, cacheSize uint32) (*Reporter, error) {
	traceCache, err := lru.NewSynced[TraceHash, []api.Location](cacheSize, hashTraceHash)
	if err != nil {
		return nil, fmt.Errorf("reporter: build trace cache: %w", err)
	}

	return &Reporter{
		cfg:        cfg,
		connector:  connector,
		current:    profile.New([]api.ValueType{{Type: "samples", Unit: "count"}}, nil),
		traceCache: traceCache,
		stopSignal: make(chan struct{}),
	}, nil
}

// CacheTrace remembers locations under hash, ahead of its sample counts
// arriving through ReportCount.
func (r *Reporter) CacheTrace(hash TraceHash, locations []api.Location) {
	r.traceCache.Add(hash, locations)
}

// ReportCount folds one observation of hash (previously cached via
// CacheTrace) into the current profile. It returns profile.ErrFull
// unchanged if the profile's dedup containers are saturated; the caller
// decides whether to force an early Reset.
func (r *Reporter) ReportCount(hash TraceHash, value int64, labels ...api.Label) error {
	locations, ok := r.traceCache.Get(hash)
	if !ok {
		return fmt.Errorf("reporter: unknown trace hash %x, call CacheTrace first", uint64(hash))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.current.Add(api.Sample{
		Locations: locations,
		Values:    []int64{value},
		Labels:    labels,
	})
	return err
}

// Start launches the background reporting loop and returns immediately.
// Stop (or cancelling ctx) ends the loop.
func (r *Reporter) Start(ctx context.Context) {
	go func() {
		tick := time.NewTicker(r.cfg.ReportPeriod)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopSignal:
				return
			case <-tick.C:
				if err := r.reportOnce(ctx); err != nil {
					log.Errorf("reporter: report failed: %v", err)
				}
				tick.Reset(agentconfig.Jitter(r.cfg.ReportPeriod, 0.2, jitterSeed()))
			}
		}
	}()
}

// Stop triggers a graceful shutdown; safe to call more than once.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.stopSignal) })
}

// GetMetrics returns a snapshot of the reporter's operating counters.
func (r *Reporter) GetMetrics() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics
}

func (r *Reporter) reportOnce(ctx context.Context) error {
	r.mu.Lock()
	snapshot := r.current.Reset()
	r.mu.Unlock()
	if snapshot == nil {
		return fmt.Errorf("reporter: could not reset profile (string table corrupt)")
	}

	encoded, err := snapshot.Serialize()
	if err != nil {
		return fmt.Errorf("reporter: serialize: %w", err)
	}
	buf, err := pprof.Gzip(encoded.Buffer)
	if err != nil {
		return fmt.Errorf("reporter: gzip: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	if err := r.send(reqCtx, buf); err != nil {
		r.mu.Lock()
		r.metrics.ReportsFailed++
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.metrics.ReportsSent++
	r.metrics.BytesSent += uint64(len(buf))
	r.mu.Unlock()
	return nil
}

func (r *Reporter) send(ctx context.Context, buf []byte) error {
	stream, err := r.connector.Call(ctx, r.cfg.AgentURL)
	if err != nil {
		return fmt.Errorf("reporter: connect: %w", err)
	}
	defer stream.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.AgentURL, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("reporter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "gzip")
	if r.cfg.APIKey != "" {
		req.Header.Set("DD-API-KEY", r.cfg.APIKey)
	}
	if stream.ConnectionReport().NegotiatedHTTP2 {
		req.Header.Set("X-Negotiated-Protocol", "h2")
	}

	if err := req.Write(stream); err != nil {
		return fmt.Errorf("reporter: write request: %w", err)
	}
	return nil
}

// jitterSeed is deliberately not a crypto/rand draw: this only needs to
// avoid thundering-herd alignment across a fleet, not resist an adversary.
func jitterSeed() float64 {
	return float64(time.Now().UnixNano()%1000) / 1000
}

// NewTelemetryEvent builds a telemetry payload carrying the next value of
// this reporter's sequence counter. Its RuntimeID comes from
// telemetry.NewPayload, which generates a new one on every call, so
// successive events from one Reporter do not share a RuntimeID.
func (r *Reporter) NewTelemetryEvent(requestType telemetry.RequestType) telemetry.Payload {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()
	return telemetry.NewPayload(requestType, seq)
}
