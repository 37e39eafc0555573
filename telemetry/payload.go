// Package telemetry implements the telemetry data model: small
// JSON-encoded events sent over the same transports as the profile
// payload. The request builder -- deciding when and whether to push a
// payload -- lives with the caller; this package only defines the wire
// shapes, styled after DataDog-dd-trace-go/appsec/internal/intake/api/api.go's
// JSON event/builder-function pattern.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// RequestType names one of the Payload envelope's variants; it is the
// externally tagged discriminant (request_type selects the payload's
// shape).
type RequestType string

const (
	RequestTypeAppStarted            RequestType = "app-started"
	RequestTypeAppDependenciesLoaded RequestType = "app-dependencies-loaded"
	RequestTypeAppIntegrationsChange RequestType = "app-integrations-change"
	RequestTypeAppHeartbeat          RequestType = "app-heartbeat"
	RequestTypeAppClosing            RequestType = "app-closing"
	RequestTypeGenerateMetrics       RequestType = "generate-metrics"
	RequestTypeLogs                  RequestType = "logs"
)

// Payload is one telemetry event envelope. RequestType selects which of
// the typed fields is populated; exactly one should be non-nil/non-empty
// for any given RequestType. Go has no native tagged-union JSON encoding,
// so this is a flat struct with one optional field per variant rather
// than an externally tagged sum type.
type Payload struct {
	RequestType RequestType `json:"request_type"`
	RuntimeID   string      `json:"runtime_id"`
	TracerTime  int64       `json:"tracer_time"`
	SeqID       uint64      `json:"seq_id"`

	AppStarted            *AppStarted            `json:"app-started,omitempty"`
	AppDependenciesLoaded *AppDependenciesLoaded `json:"app-dependencies-loaded,omitempty"`
	AppIntegrationsChange *AppIntegrationsChange `json:"app-integrations-change,omitempty"`
	GenerateMetrics       *GenerateMetrics       `json:"generate-metrics,omitempty"`
	Logs                  []Log                  `json:"logs,omitempty"`
}

// AppStarted is sent once, the first time a tracked process reports in.
type AppStarted struct {
	Configuration []ConfigKeyValue `json:"configuration,omitempty"`
}

// ConfigKeyValue is one entry of an AppStarted configuration dump.
type ConfigKeyValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Dependency describes one loaded library/module.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// AppDependenciesLoaded reports the dependency set observed at startup.
type AppDependenciesLoaded struct {
	Dependencies []Dependency `json:"dependencies"`
}

// Integration describes whether a framework/library integration is active.
type Integration struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	AutoEnabled bool   `json:"auto_enabled"`
	Error       string `json:"error,omitempty"`
}

// AppIntegrationsChange reports a change in the set of active integrations.
type AppIntegrationsChange struct {
	Integrations []Integration `json:"integrations"`
}

// GenerateMetrics carries a batch of Metric points.
type GenerateMetrics struct {
	Namespace string   `json:"namespace"`
	Series    []Metric `json:"series"`
}

// LogLevel is the severity of a Log entry.
type LogLevel string

const (
	LogLevelError LogLevel = "ERROR"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelDebug LogLevel = "DEBUG"
)

// Log is one log-line telemetry event.
type Log struct {
	Message    string   `json:"message"`
	Level      LogLevel `json:"level"`
	Tags       string   `json:"tags,omitempty"`
	StackTrace string   `json:"stack_trace,omitempty"`
	Count      int      `json:"count,omitempty"`
}

// NewPayload builds the envelope common to every request type: a fresh
// runtime id, the current tracer time, and a caller-supplied sequence
// number (telemetry requests must be strictly ordered per runtime id).
func NewPayload(requestType RequestType, seqID uint64) Payload {
	return Payload{
		RequestType: requestType,
		RuntimeID:   uuid.NewString(),
		TracerTime:  time.Now().Unix(),
		SeqID:       seqID,
	}
}
