// Package pprof projects the aggregation engine's in-memory model into the
// public pprof protobuf schema and writes the binary encoding. The encoder
// is hand-rolled rather than generated from pprof.proto via
// google.golang.org/protobuf: a profile's wire shape is small and fixed
// enough that a generated message type buys nothing but an extra
// dependency.
package pprof

// ValueType mirrors pprof.proto's ValueType message: a pair of string-table
// ids naming one column of sample values (e.g. {"samples","count"}).
type ValueType struct {
	Type int64
	Unit int64
}

// Label mirrors pprof.proto's Label message.
type Label struct {
	Key     int64
	Str     int64
	Num     int64
	NumUnit int64
}

// Line mirrors pprof.proto's Line message: one frame of an inlined call
// chain.
type Line struct {
	FunctionID uint64
	Line       int64
}

// Sample mirrors pprof.proto's Sample message.
type Sample struct {
	LocationID []uint64
	Value      []int64
	Label      []Label
}

// Mapping mirrors pprof.proto's Mapping message.
type Mapping struct {
	ID          uint64
	MemoryStart uint64
	MemoryLimit uint64
	FileOffset  uint64
	Filename    int64
	BuildID     int64
}

// Location mirrors pprof.proto's Location message.
type Location struct {
	ID        uint64
	MappingID uint64
	Address   uint64
	Line      []Line
	IsFolded  bool
}

// Function mirrors pprof.proto's Function message.
type Function struct {
	ID         uint64
	Name       int64
	SystemName int64
	Filename   int64
	StartLine  int64
}

// Profile mirrors pprof.proto's top-level Profile message: the exact shape
// Encode serializes and Decode parses back.
type Profile struct {
	SampleType    []ValueType
	Sample        []Sample
	Mapping       []Mapping
	Location      []Location
	Function      []Function
	StringTable   []string
	TimeNanos     int64
	DurationNanos int64
	Period        int64
	PeriodType    *ValueType
}
