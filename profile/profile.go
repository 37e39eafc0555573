// Package profile implements the aggregation engine: a content-addressed,
// interning store that folds a stream of api.Sample observations into a
// normalized pprof graph, and hands the result to package pprof to encode.
//
// A *Profile is synchronous and single-threaded: Add, Reset, and Serialize
// must not be called concurrently on the same Profile, though independent
// Profiles may be used from different goroutines freely.
package profile

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/continuous-profiler/ddprof-go/api"
	"github.com/continuous-profiler/ddprof-go/profile/pprof"
)

// PProfID is the id type exposed across the profile/pprof boundary. For
// strings, 0 is the empty string. For every other entity (mapping,
// function, location, sample), 0 means "unset" and a real entry's id is
// its 0-based insertion index plus one. The shift happens in exactly two
// places: right after each dedup set reports an insertion index (addMapping,
// addFunction, addLocation, Add), and in toWire, which assigns each exported
// mapping/function/location its index plus one.
type PProfID uint64

// pprofID is the internal, unshifted id used for string-table lookups,
// which are never shifted.
type pprofID = PProfID

type mapping struct {
	memoryStart uint64
	memoryLimit uint64
	fileOffset  uint64
	filename    PProfID
	buildID     PProfID
}

type function struct {
	name       PProfID
	systemName PProfID
	filename   PProfID
	startLine  int64
}

type line struct {
	functionID PProfID
	lineNumber int64
}

type location struct {
	mappingID PProfID
	address   uint64
	lines     []line
	isFolded  bool
}

type label struct {
	key     PProfID
	str     PProfID
	num     int64
	numUnit PProfID
}

type sampleEntry struct {
	locations []PProfID
	labels    []label
}

func locationKey(l location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%t", l.mappingID, l.address, l.isFolded)
	for _, ln := range l.lines {
		fmt.Fprintf(&b, "|%d:%d", ln.functionID, ln.lineNumber)
	}
	return b.String()
}

func sampleKey(s sampleEntry) string {
	var b strings.Builder
	b.WriteByte('L')
	for _, id := range s.locations {
		fmt.Fprintf(&b, ":%d", id)
	}
	b.WriteString("|B")
	for _, lb := range s.labels {
		fmt.Fprintf(&b, ":%d,%d,%d,%d", lb.key, lb.str, lb.num, lb.numUnit)
	}
	return b.String()
}

type valueType struct {
	typ  PProfID
	unit PProfID
}

// Profile is the in-memory normalized pprof graph. The zero
// value is not usable; construct one with New.
type Profile struct {
	sampleTypes []valueType
	periodType  *valueType
	period      int64

	strings   *stringTable
	mappings  *orderedSet[mapping]
	functions *orderedSet[function]
	locations *keyedSet[location]

	sampleIndex  map[string]int
	sampleOrder  []sampleEntry
	sampleValues [][]int64

	startTime time.Time
	startedAt time.Time // monotonic reference for duration_nanos
}

// New builds an empty Profile with the given sample types and optional
// sampling period. period may be nil for event-based (non-periodic)
// profiles.
func New(sampleTypes []api.ValueType, period *api.Period) *Profile {
	p := &Profile{
		strings:     newStringTable(),
		mappings:    newOrderedSet[mapping](),
		functions:   newOrderedSet[function](),
		locations:   newKeyedSet[location](),
		sampleIndex: make(map[string]int),
		startTime:   time.Now(),
		startedAt:   time.Now(),
	}
	p.sampleTypes = make([]valueType, len(sampleTypes))
	for i, vt := range sampleTypes {
		t, _ := p.strings.intern(vt.Type)
		u, _ := p.strings.intern(vt.Unit)
		p.sampleTypes[i] = valueType{typ: t, unit: u}
	}
	if period != nil {
		t, _ := p.strings.intern(period.Type.Type)
		u, _ := p.strings.intern(period.Type.Unit)
		p.periodType = &valueType{typ: t, unit: u}
		p.period = period.Value
	}
	return p
}

// GetString resolves a string-table id back to its value. Exported for
// callers that need to round-trip period/sample-type strings (e.g. Reset).
func (p *Profile) GetString(id PProfID) (string, bool) {
	return p.strings.get(id)
}

func clampStartLine(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func (p *Profile) addMapping(m *api.Mapping) (PProfID, error) {
	filename, err := p.strings.intern(m.Filename)
	if err != nil {
		return 0, err
	}
	buildID, err := p.strings.intern(m.BuildID)
	if err != nil {
		return 0, err
	}
	idx, err := p.mappings.dedup(mapping{
		memoryStart: m.MemoryStart,
		memoryLimit: m.MemoryLimit,
		fileOffset:  m.FileOffset,
		filename:    filename,
		buildID:     buildID,
	})
	if err != nil {
		return 0, err
	}
	return PProfID(idx + 1), nil
}

func (p *Profile) addFunction(f *api.Function) (PProfID, error) {
	name, err := p.strings.intern(f.Name)
	if err != nil {
		return 0, err
	}
	systemName, err := p.strings.intern(f.SystemName)
	if err != nil {
		return 0, err
	}
	filename, err := p.strings.intern(f.Filename)
	if err != nil {
		return 0, err
	}
	idx, err := p.functions.dedup(function{
		name:       name,
		systemName: systemName,
		filename:   filename,
		startLine:  clampStartLine(f.StartLine),
	})
	if err != nil {
		return 0, err
	}
	return PProfID(idx + 1), nil
}

func (p *Profile) addLocation(loc location) (PProfID, error) {
	key := locationKey(loc)
	idx, err := p.locations.dedup(key, func() location { return loc })
	if err != nil {
		return 0, err
	}
	return PProfID(idx + 1), nil
}

// internLabel interns the optional str/num_unit strings of a label; an
// empty string is never interned and instead reports id 0, matching the
// "0 means unset" convention (interning "" would also yield 0, but skipping
// the call avoids growing the string table for labels that never use it).
func (p *Profile) internLabel(l api.Label) (label, error) {
	key, err := p.strings.intern(l.Key)
	if err != nil {
		return label{}, err
	}
	var str, numUnit PProfID
	if l.Str != "" {
		if str, err = p.strings.intern(l.Str); err != nil {
			return label{}, err
		}
	}
	if l.NumUnit != "" {
		if numUnit, err = p.strings.intern(l.NumUnit); err != nil {
			return label{}, err
		}
	}
	return label{key: key, str: str, num: l.Num, numUnit: numUnit}, nil
}

// Add folds one observation into the profile.
//
// If len(sample.Values) != len(sample types), it returns sample-id 0 (the
// mismatch sentinel) and mutates nothing -- this is a shape error, not a
// fatal one. Any dedup container reaching maxContainerSize returns ErrFull;
// the profile remains usable but cannot grow further until Reset.
func (p *Profile) Add(sample api.Sample) (PProfID, error) {
	if len(sample.Values) != len(p.sampleTypes) {
		return 0, nil
	}

	locIDs := make([]PProfID, len(sample.Locations))
	for i, loc := range sample.Locations {
		mappingID, err := p.addMapping(&loc.Mapping)
		if err != nil {
			return 0, err
		}
		lines := make([]line, len(loc.Lines))
		for j, ln := range loc.Lines {
			fnID, err := p.addFunction(&ln.Function)
			if err != nil {
				return 0, err
			}
			lines[j] = line{functionID: fnID, lineNumber: ln.Line}
		}
		locID, err := p.addLocation(location{
			mappingID: mappingID,
			address:   loc.Address,
			lines:     lines,
			isFolded:  loc.IsFolded,
		})
		if err != nil {
			return 0, err
		}
		locIDs[i] = locID
	}

	labels := make([]label, len(sample.Labels))
	for i, l := range sample.Labels {
		lb, err := p.internLabel(l)
		if err != nil {
			return 0, err
		}
		labels[i] = lb
	}

	entry := sampleEntry{locations: locIDs, labels: labels}
	key := sampleKey(entry)

	if idx, ok := p.sampleIndex[key]; ok {
		vals := p.sampleValues[idx]
		for i := range vals {
			vals[i] += sample.Values[i]
		}
		return PProfID(idx + 1), nil
	}

	if len(p.sampleOrder) >= maxContainerSize {
		return 0, ErrFull
	}
	idx := len(p.sampleOrder)
	p.sampleOrder = append(p.sampleOrder, entry)
	values := make([]int64, len(sample.Values))
	copy(values, sample.Values)
	p.sampleValues = append(p.sampleValues, values)
	p.sampleIndex[key] = idx
	return PProfID(idx + 1), nil
}

// Reset atomically swaps this profile for a freshly built one carrying the
// same sample types and period (re-interned into a new string table), and
// returns the previous profile by value semantics (a standalone *Profile
// safe to serialize independently). Returns nil if any sample-type or
// period-type string id fails to resolve against the current string
// table -- this should never happen on a profile built through New/Add
// alone.
func (p *Profile) Reset() *Profile {
	sampleTypes := make([]api.ValueType, len(p.sampleTypes))
	for i, vt := range p.sampleTypes {
		t, ok := p.strings.get(vt.typ)
		if !ok {
			return nil
		}
		u, ok := p.strings.get(vt.unit)
		if !ok {
			return nil
		}
		sampleTypes[i] = api.ValueType{Type: t, Unit: u}
	}

	var period *api.Period
	if p.periodType != nil {
		t, ok := p.strings.get(p.periodType.typ)
		if !ok {
			return nil
		}
		u, ok := p.strings.get(p.periodType.unit)
		if !ok {
			return nil
		}
		period = &api.Period{Type: api.ValueType{Type: t, Unit: u}, Value: p.period}
	}

	fresh := New(sampleTypes, period)
	previous := *p
	*p = *fresh
	return &previous
}

// EncodedProfile is the result of Serialize: a pprof-encoded buffer plus
// the wall-clock window it covers.
type EncodedProfile struct {
	Start  time.Time
	End    time.Time
	Buffer []byte
}

// Serialize projects the profile into the pprof wire schema
// and encodes it. Non-destructive: the profile is unchanged afterwards.
func (p *Profile) Serialize() (*EncodedProfile, error) {
	wire := p.toWire()
	buf, err := pprof.Encode(wire)
	if err != nil {
		return nil, fmt.Errorf("profile: encode: %w", err)
	}
	return &EncodedProfile{
		Start:  p.startTime,
		End:    time.Now(),
		Buffer: buf,
	}, nil
}

func (p *Profile) toWire() *pprof.Profile {
	w := &pprof.Profile{
		StringTable: append([]string(nil), p.strings.set.items...),
	}

	w.SampleType = make([]pprof.ValueType, len(p.sampleTypes))
	for i, vt := range p.sampleTypes {
		w.SampleType[i] = pprof.ValueType{Type: int64(vt.typ), Unit: int64(vt.unit)}
	}
	if p.periodType != nil {
		w.PeriodType = &pprof.ValueType{Type: int64(p.periodType.typ), Unit: int64(p.periodType.unit)}
		w.Period = p.period
	}

	w.Mapping = make([]pprof.Mapping, p.mappings.len())
	for i, m := range p.mappings.items {
		w.Mapping[i] = pprof.Mapping{
			ID:          uint64(i + 1),
			MemoryStart: m.memoryStart,
			MemoryLimit: m.memoryLimit,
			FileOffset:  m.fileOffset,
			Filename:    int64(m.filename),
			BuildID:     int64(m.buildID),
		}
	}

	w.Function = make([]pprof.Function, p.functions.len())
	for i, f := range p.functions.items {
		w.Function[i] = pprof.Function{
			ID:         uint64(i + 1),
			Name:       int64(f.name),
			SystemName: int64(f.systemName),
			Filename:   int64(f.filename),
			StartLine:  f.startLine,
		}
	}

	w.Location = make([]pprof.Location, p.locations.len())
	for i, loc := range p.locations.items {
		wl := pprof.Location{
			ID:        uint64(i + 1),
			MappingID: uint64(loc.mappingID),
			Address:   loc.address,
			IsFolded:  loc.isFolded,
		}
		wl.Line = make([]pprof.Line, len(loc.lines))
		for j, ln := range loc.lines {
			wl.Line[j] = pprof.Line{FunctionID: uint64(ln.functionID), Line: ln.lineNumber}
		}
		w.Location[i] = wl
	}

	w.Sample = make([]pprof.Sample, len(p.sampleOrder))
	for i, s := range p.sampleOrder {
		ws := pprof.Sample{
			LocationID: make([]uint64, len(s.locations)),
			Value:      append([]int64(nil), p.sampleValues[i]...),
			Label:      make([]pprof.Label, len(s.labels)),
		}
		for j, id := range s.locations {
			ws.LocationID[j] = uint64(id)
		}
		for j, lb := range s.labels {
			ws.Label[j] = pprof.Label{
				Key:     int64(lb.key),
				Str:     int64(lb.str),
				Num:     lb.num,
				NumUnit: int64(lb.numUnit),
			}
		}
		w.Sample[i] = ws
	}

	w.TimeNanos = timeNanos(p.startTime)
	w.DurationNanos = durationNanos(p.startedAt)
	return w
}

// timeNanos is nanoseconds since the Unix epoch, saturating to 0 rather
// than wrapping on underflow/overflow.
func timeNanos(t time.Time) int64 {
	n := t.UnixNano()
	if t.Before(time.Unix(0, 0)) || t.After(time.Unix(0, math.MaxInt64)) {
		return 0
	}
	return n
}

// durationNanos is the monotonic elapsed time since startedAt, saturating
// at 0 for a clock that somehow runs backwards.
func durationNanos(startedAt time.Time) int64 {
	d := time.Since(startedAt)
	if d < 0 {
		return 0
	}
	return d.Nanoseconds()
}
