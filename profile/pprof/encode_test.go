package pprof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A hand-built Profile with a single sample type and one
// mapping/location/function/sample must encode to a non-trivial buffer
// and decode back to the same shape.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := &Profile{
		SampleType: []ValueType{{Type: 1, Unit: 2}},
		Mapping: []Mapping{
			{ID: 1, MemoryStart: 0x1000, MemoryLimit: 0x2000, FileOffset: 0, Filename: 3, BuildID: 0},
		},
		Function: []Function{
			{ID: 1, Name: 4, SystemName: 4, Filename: 3, StartLine: 10},
		},
		Location: []Location{
			{ID: 1, MappingID: 1, Address: 0x1234, Line: []Line{{FunctionID: 1, Line: 10}}},
		},
		Sample: []Sample{
			{LocationID: []uint64{1}, Value: []int64{42}},
		},
		StringTable:   []string{"", "samples", "count", "/bin/php", "main"},
		TimeNanos:     1000,
		DurationNanos: 500,
		Period:        100,
		PeriodType:    &ValueType{Type: 1, Unit: 2},
	}

	buf, err := Encode(p)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(buf), 20)

	decoded, err := Decode(buf)
	require.NoError(t, err)

	require.Len(t, decoded.SampleType, 1)
	assert.EqualValues(t, 1, decoded.SampleType[0].Type)
	assert.EqualValues(t, 2, decoded.SampleType[0].Unit)

	require.Len(t, decoded.Mapping, 1)
	assert.EqualValues(t, 1, decoded.Mapping[0].ID)
	assert.EqualValues(t, 0x1000, decoded.Mapping[0].MemoryStart)

	require.Len(t, decoded.Location, 1)
	assert.EqualValues(t, 1, decoded.Location[0].MappingID)
	require.Len(t, decoded.Location[0].Line, 1)
	assert.EqualValues(t, 1, decoded.Location[0].Line[0].FunctionID)

	require.Len(t, decoded.Function, 1)
	assert.EqualValues(t, 10, decoded.Function[0].StartLine)

	require.Len(t, decoded.Sample, 1)
	assert.Equal(t, []int64{42}, decoded.Sample[0].Value)
	assert.Equal(t, []uint64{1}, decoded.Sample[0].LocationID)

	assert.Equal(t, p.StringTable, decoded.StringTable)
	assert.EqualValues(t, 1000, decoded.TimeNanos)
	assert.EqualValues(t, 500, decoded.DurationNanos)
	assert.EqualValues(t, 100, decoded.Period)
	require.NotNil(t, decoded.PeriodType)
	assert.EqualValues(t, 1, decoded.PeriodType.Type)
}

func TestEncodePackedRepeatedFields(t *testing.T) {
	p := &Profile{
		Sample: []Sample{
			{LocationID: []uint64{1, 2, 3, 4}, Value: []int64{10, 20, 30}},
		},
		StringTable: []string{""},
	}
	buf, err := Encode(p)
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, decoded.Sample, 1)
	assert.Equal(t, []uint64{1, 2, 3, 4}, decoded.Sample[0].LocationID)
	assert.Equal(t, []int64{10, 20, 30}, decoded.Sample[0].Value)
}

func TestGzipRoundTrip(t *testing.T) {
	p := &Profile{StringTable: []string{""}}
	buf, err := Encode(p)
	require.NoError(t, err)

	gz, err := Gzip(buf)
	require.NoError(t, err)
	assert.NotEqual(t, buf, gz)

	back, err := Gunzip(gz)
	require.NoError(t, err)
	assert.Equal(t, buf, back)
}
