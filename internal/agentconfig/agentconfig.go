// Package agentconfig holds the tunables a caller of ddprof-go needs to
// drive a reporting loop: where to send profiles, how often, and how long
// to wait. This is a plain struct rather than a package-level config
// singleton, since supporting multiple independent profiles and
// connectors at once rules out a mutable package-level global.
package agentconfig

import "time"

// Config is constructed once by the caller (or by a CLI's flag parsing,
// see cmd/ddprofdemo) and passed explicitly to whatever reporting loop
// uses it.
type Config struct {
	// AgentURL is the destination the pprof payload is shipped to: an
	// http(s):// URL or a synthetic unix:// URI (transport.socketPathToURI).
	AgentURL string

	// APIKey is sent as an authentication header; empty disables it.
	APIKey string

	// Hostname names the reporting host. No package in this module reads
	// it; telemetry.Payload has no hostname field.
	Hostname string

	// ReportPeriod is how often the reporting loop serializes and ships
	// the current profile before resetting it.
	ReportPeriod time.Duration

	// RequestTimeout bounds a single outbound HTTP request. Timeouts are
	// imposed by the caller, never by the connector itself, so this is
	// threaded into a context.WithTimeout at the call site rather than
	// baked into transport.Connector.
	RequestTimeout time.Duration
}

// DefaultReportPeriod is a typical profiling cadence.
const DefaultReportPeriod = 10 * time.Second

// DefaultRequestTimeout is a conservative bound for a single upload.
const DefaultRequestTimeout = 30 * time.Second

// Jitter returns d adjusted by up to +/- frac, to avoid every agent in a
// fleet waking on the same tick.
func Jitter(d time.Duration, frac float64, random float64) time.Duration {
	if frac <= 0 {
		return d
	}
	// random is expected in [0, 1); callers that don't care about
	// reproducibility can pass rand.Float64().
	offset := float64(d) * frac * (2*random - 1)
	return d + time.Duration(offset)
}
