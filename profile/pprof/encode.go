package pprof

// protobuf is a minimal protocol buffer encoder, forked in spirit from
// runtime/pprof's own internal encoder (see cloudwego-goref's
// pkg/proc/protobuf.go, itself a direct fork of that file): varint, a
// length-delimited tag header, and a startMessage/endMessage pair that
// reserves no space up front and instead splices the length prefix in
// after the fact by rotating the newly written bytes into place.
type protobuf struct {
	data []byte
	tmp  [16]byte
}

func (b *protobuf) varint(x uint64) {
	for x >= 128 {
		b.data = append(b.data, byte(x)|0x80)
		x >>= 7
	}
	b.data = append(b.data, byte(x))
}

func (b *protobuf) length(tag, n int) {
	b.varint(uint64(tag)<<3 | 2)
	b.varint(uint64(n))
}

func (b *protobuf) uint64Field(tag int, x uint64) {
	b.varint(uint64(tag) << 3)
	b.varint(x)
}

func (b *protobuf) uint64Opt(tag int, x uint64) {
	if x == 0 {
		return
	}
	b.uint64Field(tag, x)
}

func (b *protobuf) int64Field(tag int, x int64) {
	b.uint64Field(tag, uint64(x))
}

func (b *protobuf) int64Opt(tag int, x int64) {
	if x == 0 {
		return
	}
	b.int64Field(tag, x)
}

// uint64s packs a repeated uint64 field. pprof consumers (including the
// reference google/pprof implementation) accept both packed and unpacked
// repeated scalars; packed is smaller and is what this encoder always
// emits for 3+ elements.
func (b *protobuf) uint64s(tag int, x []uint64) {
	if len(x) > 2 {
		b.packedVarints(tag, func() {
			for _, u := range x {
				b.varint(u)
			}
		})
		return
	}
	for _, u := range x {
		b.uint64Field(tag, u)
	}
}

func (b *protobuf) int64s(tag int, x []int64) {
	if len(x) > 2 {
		b.packedVarints(tag, func() {
			for _, v := range x {
				b.varint(uint64(v))
			}
		})
		return
	}
	for _, v := range x {
		b.int64Field(tag, v)
	}
}

// packedVarints writes write() into b.data, then retroactively splices a
// length-delimited tag header in front of the bytes it wrote -- the same
// rotate-into-place trick startMessage/endMessage use for submessages.
func (b *protobuf) packedVarints(tag int, write func()) {
	n1 := len(b.data)
	write()
	n2 := len(b.data)
	b.length(tag, n2-n1)
	n3 := len(b.data)
	b.spliceHeader(n1, n2, n3)
}

func (b *protobuf) spliceHeader(n1, n2, n3 int) {
	copy(b.tmp[:], b.data[n2:n3])
	copy(b.data[n1+(n3-n2):], b.data[n1:n2])
	copy(b.data[n1:], b.tmp[:n3-n2])
}

func (b *protobuf) stringField(tag int, x string) {
	b.length(tag, len(x))
	b.data = append(b.data, x...)
}

func (b *protobuf) stringsField(tag int, x []string) {
	for _, s := range x {
		b.stringField(tag, s)
	}
}

func (b *protobuf) boolField(tag int, x bool) {
	if x {
		b.uint64Field(tag, 1)
	} else {
		b.uint64Field(tag, 0)
	}
}

type msgOffset int

func (b *protobuf) startMessage() msgOffset {
	return msgOffset(len(b.data))
}

func (b *protobuf) endMessage(tag int, start msgOffset) {
	n1 := int(start)
	n2 := len(b.data)
	b.length(tag, n2-n1)
	n3 := len(b.data)
	b.spliceHeader(n1, n2, n3)
}

// Field tags from the public pprof.proto schema.
const (
	tagProfileSampleType    = 1
	tagProfileSample        = 2
	tagProfileMapping       = 3
	tagProfileLocation      = 4
	tagProfileFunction      = 5
	tagProfileStringTable   = 6
	tagProfileTimeNanos     = 9
	tagProfileDurationNanos = 10
	tagProfilePeriodType    = 11
	tagProfilePeriod        = 12

	tagValueTypeType = 1
	tagValueTypeUnit = 2

	tagSampleLocation = 1
	tagSampleValue    = 2
	tagSampleLabel    = 3

	tagLabelKey     = 1
	tagLabelStr     = 2
	tagLabelNum     = 3
	tagLabelNumUnit = 4

	tagMappingID       = 1
	tagMappingStart    = 2
	tagMappingLimit    = 3
	tagMappingOffset   = 4
	tagMappingFilename = 5
	tagMappingBuildID  = 6

	tagLocationID        = 1
	tagLocationMappingID = 2
	tagLocationAddress   = 3
	tagLocationLine      = 4
	tagLocationIsFolded  = 5

	tagLineFunctionID = 1
	tagLineLine       = 2

	tagFunctionID         = 1
	tagFunctionName       = 2
	tagFunctionSystemName = 3
	tagFunctionFilename   = 4
	tagFunctionStartLine  = 5
)

// Encode writes p as a binary pprof protobuf message. Deterministic given
// equal insertion order: every repeated field is emitted in slice order,
// and ids in the output are whatever the caller already assigned (profile
// builds them as index+1 before handing the model here).
func Encode(p *Profile) ([]byte, error) {
	b := &protobuf{}

	for _, st := range p.SampleType {
		writeValueType(b, tagProfileSampleType, st)
	}
	for _, s := range p.Sample {
		writeSample(b, s)
	}
	for _, m := range p.Mapping {
		writeMapping(b, m)
	}
	for _, l := range p.Location {
		writeLocation(b, l)
	}
	for _, f := range p.Function {
		writeFunction(b, f)
	}
	b.stringsField(tagProfileStringTable, p.StringTable)
	b.int64Opt(tagProfileTimeNanos, p.TimeNanos)
	b.int64Opt(tagProfileDurationNanos, p.DurationNanos)
	if p.PeriodType != nil {
		writeValueType(b, tagProfilePeriodType, *p.PeriodType)
	}
	b.int64Opt(tagProfilePeriod, p.Period)

	return b.data, nil
}

func writeValueType(b *protobuf, tag int, vt ValueType) {
	start := b.startMessage()
	b.int64Opt(tagValueTypeType, vt.Type)
	b.int64Opt(tagValueTypeUnit, vt.Unit)
	b.endMessage(tag, start)
}

func writeSample(b *protobuf, s Sample) {
	start := b.startMessage()
	b.uint64s(tagSampleLocation, s.LocationID)
	b.int64s(tagSampleValue, s.Value)
	for _, l := range s.Label {
		writeLabel(b, l)
	}
	b.endMessage(tagProfileSample, start)
}

func writeLabel(b *protobuf, l Label) {
	start := b.startMessage()
	b.int64Opt(tagLabelKey, l.Key)
	b.int64Opt(tagLabelStr, l.Str)
	b.int64Opt(tagLabelNum, l.Num)
	b.int64Opt(tagLabelNumUnit, l.NumUnit)
	b.endMessage(tagSampleLabel, start)
}

func writeMapping(b *protobuf, m Mapping) {
	start := b.startMessage()
	b.uint64Opt(tagMappingID, m.ID)
	b.uint64Opt(tagMappingStart, m.MemoryStart)
	b.uint64Opt(tagMappingLimit, m.MemoryLimit)
	b.uint64Opt(tagMappingOffset, m.FileOffset)
	b.int64Opt(tagMappingFilename, m.Filename)
	b.int64Opt(tagMappingBuildID, m.BuildID)
	b.endMessage(tagProfileMapping, start)
}

func writeLocation(b *protobuf, l Location) {
	start := b.startMessage()
	b.uint64Opt(tagLocationID, l.ID)
	b.uint64Opt(tagLocationMappingID, l.MappingID)
	b.uint64Opt(tagLocationAddress, l.Address)
	for _, ln := range l.Line {
		writeLine(b, ln)
	}
	if l.IsFolded {
		b.boolField(tagLocationIsFolded, l.IsFolded)
	}
	b.endMessage(tagProfileLocation, start)
}

func writeLine(b *protobuf, l Line) {
	start := b.startMessage()
	b.uint64Opt(tagLineFunctionID, l.FunctionID)
	b.int64Opt(tagLineLine, l.Line)
	b.endMessage(tagLocationLine, start)
}

func writeFunction(b *protobuf, f Function) {
	start := b.startMessage()
	b.uint64Opt(tagFunctionID, f.ID)
	b.int64Opt(tagFunctionName, f.Name)
	b.int64Opt(tagFunctionSystemName, f.SystemName)
	b.int64Opt(tagFunctionFilename, f.Filename)
	b.int64Opt(tagFunctionStartLine, f.StartLine)
	b.endMessage(tagProfileFunction, start)
}
