// Package codec implements the engine's standard message codec: a tagged
// binary encoding of null, booleans, numbers, strings, typed lists, lists and
// maps. Multi-byte values are little endian; float64 scalars and typed lists
// are padded to their element alignment relative to the start of the message.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrTruncated         = errors.New("codec: message truncated")
	ErrUnknownKind       = errors.New("codec: unknown value kind")
	ErrTrailingBytes     = errors.New("codec: trailing bytes after value")
	ErrTooDeep           = errors.New("codec: nesting too deep")
	ErrUnsupportedGoType = errors.New("codec: unsupported go type")
)

// MaxDepth bounds list/map nesting on decode.
const MaxDepth = 64

var le = binary.LittleEndian

// Encode serializes v. Encode(Null()) is the single byte 0x00.
func Encode(v Value) []byte {
	e := encoder{buf: make([]byte, 0, 16)}
	e.value(v)
	return e.buf
}

// Decode parses exactly one value from b. An empty message decodes to null.
func Decode(b []byte) (Value, error) {
	if len(b) == 0 {
		return Null(), nil
	}
	d := decoder{buf: b}
	v, err := d.value(0)
	if err != nil {
		return Value{}, err
	}
	if d.pos != len(b) {
		return Value{}, fmt.Errorf("%w: %d of %d consumed", ErrTrailingBytes, d.pos, len(b))
	}
	return v, nil
}

type encoder struct {
	buf []byte
}

func (e *encoder) size(n int) {
	switch {
	case n < 254:
		e.buf = append(e.buf, byte(n))
	case n <= math.MaxUint16:
		e.buf = append(e.buf, 254)
		e.buf = le.AppendUint16(e.buf, uint16(n))
	default:
		e.buf = append(e.buf, 255)
		e.buf = le.AppendUint32(e.buf, uint32(n))
	}
}

func (e *encoder) align(n int) {
	for len(e.buf)%n != 0 {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) value(v Value) {
	e.buf = append(e.buf, byte(v.kind))
	switch v.kind {
	case KindNull, KindTrue, KindFalse:
	case KindInt32:
		e.buf = le.AppendUint32(e.buf, uint32(int32(v.i)))
	case KindInt64:
		e.buf = le.AppendUint64(e.buf, uint64(v.i))
	case KindFloat64:
		e.align(8)
		e.buf = le.AppendUint64(e.buf, math.Float64bits(v.f))
	case KindString:
		e.size(len(v.s))
		e.buf = append(e.buf, v.s...)
	case KindUint8List:
		e.size(len(v.raw))
		e.buf = append(e.buf, v.raw...)
	case KindInt32List:
		e.size(len(v.i32s))
		e.align(4)
		for _, x := range v.i32s {
			e.buf = le.AppendUint32(e.buf, uint32(x))
		}
	case KindInt64List:
		e.size(len(v.i64s))
		e.align(8)
		for _, x := range v.i64s {
			e.buf = le.AppendUint64(e.buf, uint64(x))
		}
	case KindFloat64List:
		e.size(len(v.f64s))
		e.align(8)
		for _, x := range v.f64s {
			e.buf = le.AppendUint64(e.buf, math.Float64bits(x))
		}
	case KindFloat32List:
		e.size(len(v.f32s))
		e.align(4)
		for _, x := range v.f32s {
			e.buf = le.AppendUint32(e.buf, math.Float32bits(x))
		}
	case KindList:
		e.size(len(v.list))
		for _, item := range v.list {
			e.value(item)
		}
	case KindMap:
		e.size(len(v.m))
		for _, entry := range v.m {
			e.value(entry.Key)
			e.value(entry.Val)
		}
	}
}

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.pos < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, d.pos)
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) align(n int) error {
	if pad := d.pos % n; pad != 0 {
		_, err := d.take(n - pad)
		return err
	}
	return nil
}

func (d *decoder) size() (int, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	switch b[0] {
	case 254:
		w, err := d.take(2)
		if err != nil {
			return 0, err
		}
		return int(le.Uint16(w)), nil
	case 255:
		w, err := d.take(4)
		if err != nil {
			return 0, err
		}
		return int(le.Uint32(w)), nil
	default:
		return int(b[0]), nil
	}
}

// remaining guards element counts against the bytes left so a corrupt size
// cannot force a huge allocation.
func (d *decoder) remaining(n, elemSize int) error {
	if n > (len(d.buf)-d.pos)/elemSize {
		return fmt.Errorf("%w: %d elements at offset %d", ErrTruncated, n, d.pos)
	}
	return nil
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, ErrTooDeep
	}
	tag, err := d.take(1)
	if err != nil {
		return Value{}, err
	}
	kind := Kind(tag[0])
	switch kind {
	case KindNull:
		return Null(), nil
	case KindTrue:
		return Bool(true), nil
	case KindFalse:
		return Bool(false), nil
	case KindInt32:
		b, err := d.take(4)
		if err != nil {
			return Value{}, err
		}
		return Int32(int32(le.Uint32(b))), nil
	case KindInt64:
		b, err := d.take(8)
		if err != nil {
			return Value{}, err
		}
		return Int64(int64(le.Uint64(b))), nil
	case KindFloat64:
		if err := d.align(8); err != nil {
			return Value{}, err
		}
		b, err := d.take(8)
		if err != nil {
			return Value{}, err
		}
		return Float64(math.Float64frombits(le.Uint64(b))), nil
	case KindString, KindUint8List:
		n, err := d.size()
		if err != nil {
			return Value{}, err
		}
		b, err := d.take(n)
		if err != nil {
			return Value{}, err
		}
		if kind == KindString {
			return String(string(b)), nil
		}
		out := make([]byte, n)
		copy(out, b)
		return Uint8List(out), nil
	case KindInt32List, KindFloat32List:
		n, err := d.size()
		if err != nil {
			return Value{}, err
		}
		if err := d.align(4); err != nil {
			return Value{}, err
		}
		b, err := d.take(4 * n)
		if err != nil {
			return Value{}, err
		}
		if kind == KindFloat32List {
			out := make([]float32, n)
			for i := range out {
				out[i] = math.Float32frombits(le.Uint32(b[i*4:]))
			}
			return Float32List(out), nil
		}
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(le.Uint32(b[i*4:]))
		}
		return Int32List(out), nil
	case KindInt64List, KindFloat64List:
		n, err := d.size()
		if err != nil {
			return Value{}, err
		}
		if err := d.align(8); err != nil {
			return Value{}, err
		}
		b, err := d.take(8 * n)
		if err != nil {
			return Value{}, err
		}
		if kind == KindInt64List {
			out := make([]int64, n)
			for i := range out {
				out[i] = int64(le.Uint64(b[i*8:]))
			}
			return Int64List(out), nil
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(b[i*8:]))
		}
		return Float64List(out), nil
	case KindList:
		n, err := d.size()
		if err != nil {
			return Value{}, err
		}
		if err := d.remaining(n, 1); err != nil {
			return Value{}, err
		}
		items := make([]Value, n)
		for i := range items {
			if items[i], err = d.value(depth + 1); err != nil {
				return Value{}, err
			}
		}
		return List(items...), nil
	case KindMap:
		n, err := d.size()
		if err != nil {
			return Value{}, err
		}
		if err := d.remaining(n, 2); err != nil {
			return Value{}, err
		}
		entries := make([]Entry, n)
		for i := range entries {
			if entries[i].Key, err = d.value(depth + 1); err != nil {
				return Value{}, err
			}
			if entries[i].Val, err = d.value(depth + 1); err != nil {
				return Value{}, err
			}
		}
		return Map(entries...), nil
	}
	return Value{}, fmt.Errorf("%w: %d at offset %d", ErrUnknownKind, tag[0], d.pos-1)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
