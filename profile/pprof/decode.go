package pprof

import (
	"encoding/binary"
	"fmt"
)

// Decode parses a binary pprof protobuf message produced by Encode. It
// exists for this repository's own tests (testable property 6: re-parsed
// mapping/location/function ids must equal index+1) -- it is deliberately
// not a general-purpose pprof reader. Unrecognized top-level fields, and
// unrecognized varint fields inside submessages, are skipped; an
// unrecognized non-varint field inside a Label, Mapping, Location, Line or
// Function is reported as an error.
func Decode(data []byte) (*Profile, error) {
	p := &Profile{}
	r := wireReader{data: data}
	for !r.done() {
		tag, wireType, err := r.tagHeader()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagProfileSampleType:
			msg, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			vt, err := decodeValueType(msg)
			if err != nil {
				return nil, err
			}
			p.SampleType = append(p.SampleType, vt)
		case tagProfileSample:
			msg, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			s, err := decodeSample(msg)
			if err != nil {
				return nil, err
			}
			p.Sample = append(p.Sample, s)
		case tagProfileMapping:
			msg, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			m, err := decodeMapping(msg)
			if err != nil {
				return nil, err
			}
			p.Mapping = append(p.Mapping, m)
		case tagProfileLocation:
			msg, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			l, err := decodeLocation(msg)
			if err != nil {
				return nil, err
			}
			p.Location = append(p.Location, l)
		case tagProfileFunction:
			msg, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			f, err := decodeFunction(msg)
			if err != nil {
				return nil, err
			}
			p.Function = append(p.Function, f)
		case tagProfileStringTable:
			s, err := r.stringField()
			if err != nil {
				return nil, err
			}
			p.StringTable = append(p.StringTable, s)
		case tagProfileTimeNanos:
			v, err := r.varintField(wireType)
			if err != nil {
				return nil, err
			}
			p.TimeNanos = int64(v)
		case tagProfileDurationNanos:
			v, err := r.varintField(wireType)
			if err != nil {
				return nil, err
			}
			p.DurationNanos = int64(v)
		case tagProfilePeriodType:
			msg, err := r.bytesField()
			if err != nil {
				return nil, err
			}
			vt, err := decodeValueType(msg)
			if err != nil {
				return nil, err
			}
			p.PeriodType = &vt
		case tagProfilePeriod:
			v, err := r.varintField(wireType)
			if err != nil {
				return nil, err
			}
			p.Period = int64(v)
		default:
			if err := r.skip(wireType); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func decodeValueType(data []byte) (ValueType, error) {
	var vt ValueType
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return vt, err
		}
		switch tag {
		case tagValueTypeType:
			v, err := r.varintField(wt)
			if err != nil {
				return vt, err
			}
			vt.Type = int64(v)
		case tagValueTypeUnit:
			v, err := r.varintField(wt)
			if err != nil {
				return vt, err
			}
			vt.Unit = int64(v)
		default:
			if err := r.skip(wt); err != nil {
				return vt, err
			}
		}
	}
	return vt, nil
}

func decodeSample(data []byte) (Sample, error) {
	var s Sample
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return s, err
		}
		switch tag {
		case tagSampleLocation:
			ids, err := r.packedOrSingleUint64(wt)
			if err != nil {
				return s, err
			}
			s.LocationID = append(s.LocationID, ids...)
		case tagSampleValue:
			vals, err := r.packedOrSingleInt64(wt)
			if err != nil {
				return s, err
			}
			s.Value = append(s.Value, vals...)
		case tagSampleLabel:
			msg, err := r.bytesField()
			if err != nil {
				return s, err
			}
			l, err := decodeLabel(msg)
			if err != nil {
				return s, err
			}
			s.Label = append(s.Label, l)
		default:
			if err := r.skip(wt); err != nil {
				return s, err
			}
		}
	}
	return s, nil
}

func decodeLabel(data []byte) (Label, error) {
	var l Label
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return l, err
		}
		v, err := r.varintField(wt)
		if err != nil {
			return l, err
		}
		switch tag {
		case tagLabelKey:
			l.Key = int64(v)
		case tagLabelStr:
			l.Str = int64(v)
		case tagLabelNum:
			l.Num = int64(v)
		case tagLabelNumUnit:
			l.NumUnit = int64(v)
		}
	}
	return l, nil
}

func decodeMapping(data []byte) (Mapping, error) {
	var m Mapping
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return m, err
		}
		v, err := r.varintField(wt)
		if err != nil {
			return m, err
		}
		switch tag {
		case tagMappingID:
			m.ID = v
		case tagMappingStart:
			m.MemoryStart = v
		case tagMappingLimit:
			m.MemoryLimit = v
		case tagMappingOffset:
			m.FileOffset = v
		case tagMappingFilename:
			m.Filename = int64(v)
		case tagMappingBuildID:
			m.BuildID = int64(v)
		}
	}
	return m, nil
}

func decodeLocation(data []byte) (Location, error) {
	var l Location
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return l, err
		}
		switch tag {
		case tagLocationLine:
			msg, err := r.bytesField()
			if err != nil {
				return l, err
			}
			ln, err := decodeLine(msg)
			if err != nil {
				return l, err
			}
			l.Line = append(l.Line, ln)
		default:
			v, err := r.varintField(wt)
			if err != nil {
				return l, err
			}
			switch tag {
			case tagLocationID:
				l.ID = v
			case tagLocationMappingID:
				l.MappingID = v
			case tagLocationAddress:
				l.Address = v
			case tagLocationIsFolded:
				l.IsFolded = v != 0
			}
		}
	}
	return l, nil
}

func decodeLine(data []byte) (Line, error) {
	var ln Line
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return ln, err
		}
		v, err := r.varintField(wt)
		if err != nil {
			return ln, err
		}
		switch tag {
		case tagLineFunctionID:
			ln.FunctionID = v
		case tagLineLine:
			ln.Line = int64(v)
		}
	}
	return ln, nil
}

func decodeFunction(data []byte) (Function, error) {
	var f Function
	r := wireReader{data: data}
	for !r.done() {
		tag, wt, err := r.tagHeader()
		if err != nil {
			return f, err
		}
		v, err := r.varintField(wt)
		if err != nil {
			return f, err
		}
		switch tag {
		case tagFunctionID:
			f.ID = v
		case tagFunctionName:
			f.Name = int64(v)
		case tagFunctionSystemName:
			f.SystemName = int64(v)
		case tagFunctionFilename:
			f.Filename = int64(v)
		case tagFunctionStartLine:
			f.StartLine = int64(v)
		}
	}
	return f, nil
}

// wireReader is a minimal, sequential protobuf wire-format reader: enough
// to walk tag/wiretype/value triples and recurse into length-delimited
// submessages, which is all a pprof message ever contains.
type wireReader struct {
	data []byte
	pos  int
}

func (r *wireReader) done() bool { return r.pos >= len(r.data) }

func (r *wireReader) varint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("pprof: malformed varint at offset %d", r.pos)
	}
	r.pos += n
	return v, nil
}

func (r *wireReader) tagHeader() (tag int, wireType int, err error) {
	v, err := r.varint()
	if err != nil {
		return 0, 0, err
	}
	return int(v >> 3), int(v & 0x7), nil
}

func (r *wireReader) bytesField() ([]byte, error) {
	n, err := r.varint()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("pprof: length-delimited field overruns buffer")
	}
	b := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *wireReader) stringField() (string, error) {
	b, err := r.bytesField()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// varintField reads a scalar of the given wire type as a raw uint64; only
// wire type 0 (varint) is expected for this schema's scalar fields.
func (r *wireReader) varintField(wireType int) (uint64, error) {
	if wireType != 0 {
		return 0, fmt.Errorf("pprof: unexpected wire type %d for scalar field", wireType)
	}
	return r.varint()
}

func (r *wireReader) packedOrSingleUint64(wireType int) ([]uint64, error) {
	if wireType == 2 {
		msg, err := r.bytesField()
		if err != nil {
			return nil, err
		}
		sub := wireReader{data: msg}
		var out []uint64
		for !sub.done() {
			v, err := sub.varint()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	v, err := r.varintField(wireType)
	if err != nil {
		return nil, err
	}
	return []uint64{v}, nil
}

func (r *wireReader) packedOrSingleInt64(wireType int) ([]int64, error) {
	vals, err := r.packedOrSingleUint64(wireType)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out, nil
}

func (r *wireReader) skip(wireType int) error {
	switch wireType {
	case 0:
		_, err := r.varint()
		return err
	case 1:
		if r.pos+8 > len(r.data) {
			return fmt.Errorf("pprof: fixed64 field overruns buffer")
		}
		r.pos += 8
		return nil
	case 2:
		_, err := r.bytesField()
		return err
	case 5:
		if r.pos+4 > len(r.data) {
			return fmt.Errorf("pprof: fixed32 field overruns buffer")
		}
		r.pos += 4
		return nil
	default:
		return fmt.Errorf("pprof: unsupported wire type %d", wireType)
	}
}
