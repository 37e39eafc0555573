package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayloadPopulatesEnvelope(t *testing.T) {
	p := NewPayload(RequestTypeAppStarted, 1)
	assert.Equal(t, RequestTypeAppStarted, p.RequestType)
	assert.NotEmpty(t, p.RuntimeID)
	assert.Equal(t, uint64(1), p.SeqID)
	assert.Greater(t, p.TracerTime, int64(0))
}

func TestPayloadJSONRoundTrip(t *testing.T) {
	p := NewPayload(RequestTypeGenerateMetrics, 7)
	p.GenerateMetrics = &GenerateMetrics{
		Namespace: "profiler",
		Series:    []Metric{NewGauge("cpu.samples", 123, 4.5, []string{"env:prod"})},
	}

	buf, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(buf, &decoded))
	assert.Equal(t, p.RequestType, decoded.RequestType)
	require.NotNil(t, decoded.GenerateMetrics)
	require.Len(t, decoded.GenerateMetrics.Series, 1)
	assert.Equal(t, "cpu.samples", decoded.GenerateMetrics.Series[0].Metric)
}

func TestPointMarshalsAsTuple(t *testing.T) {
	buf, err := json.Marshal(Point{Timestamp: 100, Value: 2.5})
	require.NoError(t, err)
	assert.JSONEq(t, `[100, 2.5]`, string(buf))
}
