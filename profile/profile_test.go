package profile

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/continuous-profiler/ddprof-go/api"
	"github.com/continuous-profiler/ddprof-go/profile/pprof"
)

func sampleTypes() []api.ValueType {
	return []api.ValueType{{Type: "samples", Unit: "count"}}
}

func phpSample(value int64) api.Sample {
	return api.Sample{
		Locations: []api.Location{
			{
				Mapping: api.Mapping{Filename: "php"},
				Lines: []api.Line{
					{
						Function: api.Function{
							Name:       "{main}",
							SystemName: "{main}",
							Filename:   "index.php",
							StartLine:  0,
						},
						Line: 0,
					},
				},
			},
		},
		Values: []int64{value},
		Labels: []api.Label{{Key: "pid", Num: 101}},
	}
}

// S2 -- sample aggregation: adding the same sample twice returns the same
// id and sums the values in place.
func TestAddDuplicateSampleSumsValues(t *testing.T) {
	p := New(sampleTypes(), nil)

	id1, err := p.Add(phpSample(1))
	require.NoError(t, err)
	id2, err := p.Add(phpSample(1))
	require.NoError(t, err)

	assert.Equal(t, PProfID(1), id1)
	assert.Equal(t, PProfID(1), id2)
	require.Len(t, p.sampleValues, 1)
	assert.Equal(t, []int64{2}, p.sampleValues[0])
}

func TestAddValueCountMismatchReturnsSentinel(t *testing.T) {
	p := New(sampleTypes(), nil)
	id, err := p.Add(api.Sample{Values: []int64{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, PProfID(0), id)
	assert.Equal(t, 0, len(p.sampleOrder))
}

// S3 -- distinct locations: two samples whose function names differ but
// share a mapping produce one mapping, two locations, two functions, two
// samples.
func TestDistinctLocationsProduceDistinctEntries(t *testing.T) {
	p := New(sampleTypes(), nil)

	build := func(name string) api.Sample {
		return api.Sample{
			Locations: []api.Location{
				{
					Mapping: api.Mapping{Filename: "php"},
					Lines: []api.Line{
						{Function: api.Function{Name: name, SystemName: name, Filename: "index.php"}},
					},
				},
			},
			Values: []int64{1},
		}
	}

	id1, err := p.Add(build("{main}"))
	require.NoError(t, err)
	id2, err := p.Add(build("test"))
	require.NoError(t, err)

	assert.Equal(t, PProfID(1), id1)
	assert.Equal(t, PProfID(2), id2)
	assert.Equal(t, 1, p.mappings.len())
	assert.Equal(t, 2, p.locations.len())
	assert.Equal(t, 2, p.functions.len())
	assert.Equal(t, 2, len(p.sampleOrder))
}

// S4 -- reset preserves schema: the post-reset profile carries the same
// period and period-type strings but no samples/locations/mappings/functions.
func TestResetPreservesSchema(t *testing.T) {
	period := &api.Period{
		Type:  api.ValueType{Type: "wall-time", Unit: "nanoseconds"},
		Value: 10000,
	}
	p := New(sampleTypes(), period)

	_, err := p.Add(phpSample(1))
	require.NoError(t, err)

	previous := p.Reset()
	require.NotNil(t, previous)

	assert.Equal(t, int64(10000), p.period)
	assert.Equal(t, previous.period, p.period)

	prevType, ok := previous.GetString(previous.periodType.typ)
	require.True(t, ok)
	newType, ok := p.GetString(p.periodType.typ)
	require.True(t, ok)
	assert.Equal(t, prevType, newType)

	assert.Equal(t, 0, p.mappings.len())
	assert.Equal(t, 0, p.functions.len())
	assert.Equal(t, 0, p.locations.len())
	assert.Equal(t, 0, len(p.sampleOrder))

	assert.Equal(t, 1, previous.mappings.len())
	assert.Equal(t, 1, len(previous.sampleOrder))
}

func TestResetReturnsNilWhenStringIDUnresolvable(t *testing.T) {
	p := New(sampleTypes(), nil)
	p.sampleTypes[0].typ = PProfID(999)
	assert.Nil(t, p.Reset())
}

// S3/property 6 -- after serialization, re-parsing the buffer yields ids
// equal to index+1 for mapping/location/function.
func TestSerializeRoundTripIDsAreOneBased(t *testing.T) {
	p := New(sampleTypes(), nil)
	build := func(name string) api.Sample {
		return api.Sample{
			Locations: []api.Location{
				{
					Mapping: api.Mapping{Filename: "php"},
					Lines: []api.Line{
						{Function: api.Function{Name: name, SystemName: name, Filename: "index.php"}},
					},
				},
			},
			Values: []int64{1},
		}
	}
	_, err := p.Add(build("{main}"))
	require.NoError(t, err)
	_, err = p.Add(build("test"))
	require.NoError(t, err)

	enc, err := p.Serialize()
	require.NoError(t, err)
	require.NotEmpty(t, enc.Buffer)

	decoded, err := pprof.Decode(enc.Buffer)
	require.NoError(t, err)

	require.Len(t, decoded.Mapping, 1)
	require.Len(t, decoded.Location, 2)
	require.Len(t, decoded.Function, 2)
	require.Len(t, decoded.Sample, 2)

	for i, m := range decoded.Mapping {
		assert.EqualValues(t, i+1, m.ID)
	}
	for i, l := range decoded.Location {
		assert.EqualValues(t, i+1, l.ID)
	}
	for i, f := range decoded.Function {
		assert.EqualValues(t, i+1, f.ID)
	}
}

func TestGetStringZeroIsEmpty(t *testing.T) {
	p := New(sampleTypes(), nil)
	s, ok := p.GetString(0)
	require.True(t, ok)
	assert.Equal(t, "", s)
}

func TestStartLineClamp(t *testing.T) {
	assert.Equal(t, int64(0), clampStartLine(-5))
	assert.Equal(t, int64(7), clampStartLine(7))
}

// TestGzipRoundTripPreservesWireShape checks that gzipping and
// ungzipping a serialized profile is lossless by structurally diffing
// the decoded wire message before and after, rather than comparing raw
// bytes (the message has no canonical byte encoding, only a canonical
// decoded shape).
func TestGzipRoundTripPreservesWireShape(t *testing.T) {
	p := New(sampleTypes(), nil)
	_, err := p.Add(phpSample(3))
	require.NoError(t, err)

	enc, err := p.Serialize()
	require.NoError(t, err)

	before, err := pprof.Decode(enc.Buffer)
	require.NoError(t, err)

	gz, err := pprof.Gzip(enc.Buffer)
	require.NoError(t, err)
	plain, err := pprof.Gunzip(gz)
	require.NoError(t, err)

	after, err := pprof.Decode(plain)
	require.NoError(t, err)

	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("decoded profile changed across a gzip round trip (-before +after):\n%s", diff)
	}
}
