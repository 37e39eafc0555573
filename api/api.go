// Package api defines the input shapes the profile aggregation engine
// consumes from an external producer (an instrumentation hook, an FFI
// caller, or a test). These mirror ddprof-exporter's `api` module from the
// original Rust implementation (see _examples/original_source), translated
// to plain Go value types: callers build one of these per observation and
// hand it to profile.Profile.Add, which copies every string out by
// interning it, so the caller is free to reuse or discard the buffers
// immediately afterwards.
package api

// ValueType names one column of a sample's values, e.g. {"samples", "count"}
// or {"alloc-space", "bytes"}.
type ValueType struct {
	Type string
	Unit string
}

// Period describes the sampling period for periodic (non-event) profile
// types, e.g. a CPU profiler sampling every 10ms.
type Period struct {
	Type  ValueType
	Value int64
}

// Mapping is a memory range loaded from a binary image. The zero value is
// the "no mapping" mapping and is a legal input.
type Mapping struct {
	MemoryStart uint64
	MemoryLimit uint64
	FileOffset  uint64
	Filename    string
	BuildID     string
}

// Function identifies a function definition. StartLine must be
// non-negative; the engine clamps negative values to 0 per spec.
type Function struct {
	Name       string
	SystemName string
	Filename   string
	StartLine  int64
}

// Line is one entry of a Location's inlined call chain; the last entry is
// the outermost (least-inlined) caller.
type Line struct {
	Function Function
	Line     int64
}

// Location is one frame of a stack trace.
type Location struct {
	Mapping  Mapping
	Address  uint64
	Lines    []Line
	IsFolded bool
}

// Label attaches context to a Sample, e.g. a thread id or allocation size.
// At most one of Str and Num/NumUnit should be set; both are represented
// so the zero value (key only) is a legal, meaningful Label.
type Label struct {
	Key     string
	Str     string
	Num     int64
	NumUnit string
}

// Sample is one observation: a stack trace (leaf-first) with one value per
// profile sample type, plus optional labels.
type Sample struct {
	Locations []Location
	Values    []int64
	Labels    []Label
}
