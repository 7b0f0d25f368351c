package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// HeaderLen is the per-field prefix: id u16, type u8, length u32.
const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrTypeMismatch     = errors.New("tlv: field type mismatch")
	ErrInvalidLength    = errors.New("tlv: invalid value length")
)

// Wire type tags. Record and channel fields use the signed, float, string
// and bytes tags; the rest stay reserved so older peers decode cleanly.
const (
	TypeU8     uint8 = 1
	TypeU16    uint8 = 2
	TypeU32    uint8 = 3
	TypeU64    uint8 = 4
	TypeBool   uint8 = 5
	TypeString uint8 = 6
	TypeBytes  uint8 = 7
	TypeI32    uint8 = 8
	TypeI64    uint8 = 9
	TypeF64    uint8 = 10
)

type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

// AppendField encodes f onto dst.
func AppendField(dst []byte, f Field) []byte {
	dst = binary.BigEndian.AppendUint16(dst, f.ID)
	dst = append(dst, f.Type)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(f.Value)))
	return append(dst, f.Value...)
}

func EncodeFields(fields []Field) []byte {
	n := 0
	for _, f := range fields {
		n += HeaderLen + len(f.Value)
	}
	out := make([]byte, 0, n)
	for _, f := range fields {
		out = AppendField(out, f)
	}
	return out
}

// DecodeFields splits payload into fields in wire order. Values are copied
// out of payload; duplicates are kept and GetField returns the first.
func DecodeFields(payload []byte) ([]Field, error) {
	var fields []Field
	for rest := payload; len(rest) > 0; {
		if len(rest) < HeaderLen {
			return nil, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrShortFieldHeader, len(rest), len(payload)-len(rest))
		}
		f := Field{ID: binary.BigEndian.Uint16(rest), Type: rest[2]}
		size := binary.BigEndian.Uint32(rest[3:])
		rest = rest[HeaderLen:]
		if uint64(size) > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: field %d wants %d bytes, %d left", ErrShortFieldValue, f.ID, size, len(rest))
		}
		f.Value = append([]byte(nil), rest[:size]...)
		rest = rest[size:]
		fields = append(fields, f)
	}
	return fields, nil
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func MustType(f Field, expected uint8) error {
	if f.Type != expected {
		return fmt.Errorf("%w: field %d got %d want %d", ErrTypeMismatch, f.ID, f.Type, expected)
	}
	return nil
}

func U8(id uint16, v uint8) Field {
	return Field{ID: id, Type: TypeU8, Value: []byte{v}}
}

func U32(id uint16, v uint32) Field {
	return Field{ID: id, Type: TypeU32, Value: binary.BigEndian.AppendUint32(nil, v)}
}

func I32(id uint16, v int32) Field {
	return Field{ID: id, Type: TypeI32, Value: binary.BigEndian.AppendUint32(nil, uint32(v))}
}

func I64(id uint16, v int64) Field {
	return Field{ID: id, Type: TypeI64, Value: binary.BigEndian.AppendUint64(nil, uint64(v))}
}

func F64(id uint16, v float64) Field {
	return Field{ID: id, Type: TypeF64, Value: binary.BigEndian.AppendUint64(nil, math.Float64bits(v))}
}

func String(id uint16, v string) Field {
	return Field{ID: id, Type: TypeString, Value: []byte(v)}
}

// Bytes copies v so later edits by the caller do not reach the field.
func Bytes(id uint16, v []byte) Field {
	return Field{ID: id, Type: TypeBytes, Value: append([]byte{}, v...)}
}

func (f Field) AsU8() (uint8, error) {
	if err := f.check(TypeU8, 1); err != nil {
		return 0, err
	}
	return f.Value[0], nil
}

func (f Field) AsU32() (uint32, error) {
	if err := f.check(TypeU32, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(f.Value), nil
}

func (f Field) AsI32() (int32, error) {
	if err := f.check(TypeI32, 4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(f.Value)), nil
}

func (f Field) AsI64() (int64, error) {
	if err := f.check(TypeI64, 8); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(f.Value)), nil
}

func (f Field) AsF64() (float64, error) {
	if err := f.check(TypeF64, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(f.Value)), nil
}

func (f Field) AsString() (string, error) {
	if err := MustType(f, TypeString); err != nil {
		return "", err
	}
	return string(f.Value), nil
}

func (f Field) check(typ uint8, size int) error {
	if err := MustType(f, typ); err != nil {
		return err
	}
	if len(f.Value) != size {
		return fmt.Errorf("%w: field %d len=%d want %d", ErrInvalidLength, f.ID, len(f.Value), size)
	}
	return nil
}

// PackI32s packs an id list (children, custom actions) into a bytes value.
func PackI32s(vs []int32) []byte {
	out := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		out = binary.BigEndian.AppendUint32(out, uint32(v))
	}
	return out
}

func UnpackI32s(b []byte) ([]int32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: i32 list len=%d", ErrInvalidLength, len(b))
	}
	out := make([]int32, 0, len(b)/4)
	for ; len(b) > 0; b = b[4:] {
		out = append(out, int32(binary.BigEndian.Uint32(b)))
	}
	return out, nil
}

// PackF64s packs a fixed float group (rect, transform) into a bytes value.
func PackF64s(vs ...float64) []byte {
	out := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		out = binary.BigEndian.AppendUint64(out, math.Float64bits(v))
	}
	return out
}

// UnpackF64s decodes exactly n floats.
func UnpackF64s(b []byte, n int) ([]float64, error) {
	if len(b) != 8*n {
		return nil, fmt.Errorf("%w: f64 group len=%d want %d", ErrInvalidLength, len(b), 8*n)
	}
	out := make([]float64, 0, n)
	for ; len(b) > 0; b = b[8:] {
		out = append(out, math.Float64frombits(binary.BigEndian.Uint64(b)))
	}
	return out, nil
}
