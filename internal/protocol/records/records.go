// Package records maps semantics node records to TLV fields and node-update
// batches to frame payloads.
package records

import (
	"errors"
	"fmt"

	"github.com/danmuck/a11ybridge/internal/protocol/schema"
	"github.com/danmuck/a11ybridge/internal/protocol/tlv"
	"github.com/danmuck/a11ybridge/internal/semantics"
)

var (
	ErrChildOrderMismatch = errors.New("records: child orderings differ in length")
	ErrTextDirectionRange = errors.New("records: text direction out of range")
)

const (
	rectLen      = 4
	transformLen = 9
)

// RecordError identifies the batch position of a record that failed to decode.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("records: record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// EncodeNode converts a raw node into record fields in field-id order.
func EncodeNode(raw semantics.RawNode) ([]tlv.Field, error) {
	if len(raw.ChildrenInTraversalOrder) != len(raw.ChildrenInHitTestOrder) {
		return nil, fmt.Errorf("%w: node %d traversal=%d hit_test=%d",
			ErrChildOrderMismatch, raw.ID, len(raw.ChildrenInTraversalOrder), len(raw.ChildrenInHitTestOrder))
	}
	if raw.TextDirection < 0 || raw.TextDirection > 0xff {
		return nil, fmt.Errorf("%w: %d", ErrTextDirectionRange, raw.TextDirection)
	}
	r, m := raw.Rect, raw.Transform
	return []tlv.Field{
		tlv.I32(schema.FieldID, raw.ID),
		tlv.U32(schema.FieldFlags, raw.Flags),
		tlv.U32(schema.FieldActions, raw.Actions),
		tlv.I32(schema.FieldTextSelectionBase, raw.TextSelectionBase),
		tlv.I32(schema.FieldTextSelectionExtent, raw.TextSelectionExtent),
		tlv.I32(schema.FieldScrollChildCount, raw.ScrollChildCount),
		tlv.I32(schema.FieldScrollIndex, raw.ScrollIndex),
		tlv.F64(schema.FieldScrollPosition, raw.ScrollPosition),
		tlv.F64(schema.FieldScrollExtentMax, raw.ScrollExtentMax),
		tlv.F64(schema.FieldScrollExtentMin, raw.ScrollExtentMin),
		tlv.F64(schema.FieldElevation, raw.Elevation),
		tlv.F64(schema.FieldThickness, raw.Thickness),
		tlv.String(schema.FieldLabel, raw.Label),
		tlv.String(schema.FieldHint, raw.Hint),
		tlv.String(schema.FieldValue, raw.Value),
		tlv.String(schema.FieldIncreasedValue, raw.IncreasedValue),
		tlv.String(schema.FieldDecreasedValue, raw.DecreasedValue),
		tlv.U8(schema.FieldTextDirection, uint8(raw.TextDirection)),
		tlv.Bytes(schema.FieldRect, tlv.PackF64s(r.Left, r.Top, r.Right, r.Bottom)),
		tlv.Bytes(schema.FieldTransform, tlv.PackF64s(
			m.ScaleX, m.SkewX, m.TransX,
			m.SkewY, m.ScaleY, m.TransY,
			m.Pers0, m.Pers1, m.Pers2,
		)),
		tlv.Bytes(schema.FieldChildrenTraversal, tlv.PackI32s(raw.ChildrenInTraversalOrder)),
		tlv.Bytes(schema.FieldChildrenHitTest, tlv.PackI32s(raw.ChildrenInHitTestOrder)),
		tlv.Bytes(schema.FieldCustomActions, tlv.PackI32s(raw.CustomActions)),
		tlv.I64(schema.FieldPlatformViewID, raw.PlatformViewID),
	}, nil
}

// DecodeNode validates record fields and rebuilds the raw node. Unknown
// field ids are ignored. A record whose id is the batch-end marker only needs
// the id field; the rest of it is never read.
func DecodeNode(fields []tlv.Field) (semantics.RawNode, error) {
	if isBatchEnd(fields) {
		return BatchEnd(), nil
	}
	if err := schema.Validate(schema.RecordNode, fields); err != nil {
		return semantics.RawNode{}, err
	}
	rd := fieldReader{fields: fields}
	raw := semantics.RawNode{
		ID:                  rd.i32(schema.FieldID),
		Flags:               rd.u32(schema.FieldFlags),
		Actions:             rd.u32(schema.FieldActions),
		TextSelectionBase:   rd.i32(schema.FieldTextSelectionBase),
		TextSelectionExtent: rd.i32(schema.FieldTextSelectionExtent),
		ScrollChildCount:    rd.i32(schema.FieldScrollChildCount),
		ScrollIndex:         rd.i32(schema.FieldScrollIndex),
		ScrollPosition:      rd.f64(schema.FieldScrollPosition),
		ScrollExtentMax:     rd.f64(schema.FieldScrollExtentMax),
		ScrollExtentMin:     rd.f64(schema.FieldScrollExtentMin),
		Elevation:           rd.f64(schema.FieldElevation),
		Thickness:           rd.f64(schema.FieldThickness),
		Label:               rd.str(schema.FieldLabel),
		Hint:                rd.str(schema.FieldHint),
		Value:               rd.str(schema.FieldValue),
		IncreasedValue:      rd.str(schema.FieldIncreasedValue),
		DecreasedValue:      rd.str(schema.FieldDecreasedValue),
		TextDirection:       semantics.TextDirection(rd.u8(schema.FieldTextDirection)),
		PlatformViewID:      rd.i64(schema.FieldPlatformViewID),
	}
	if rect := rd.f64s(schema.FieldRect, rectLen); rect != nil {
		raw.Rect = semantics.Rect{Left: rect[0], Top: rect[1], Right: rect[2], Bottom: rect[3]}
	}
	if m := rd.f64s(schema.FieldTransform, transformLen); m != nil {
		raw.Transform = semantics.Transform{
			ScaleX: m[0], SkewX: m[1], TransX: m[2],
			SkewY: m[3], ScaleY: m[4], TransY: m[5],
			Pers0: m[6], Pers1: m[7], Pers2: m[8],
		}
	}
	raw.ChildrenInTraversalOrder = rd.i32s(schema.FieldChildrenTraversal)
	raw.ChildrenInHitTestOrder = rd.i32s(schema.FieldChildrenHitTest)
	raw.CustomActions = rd.i32s(schema.FieldCustomActions)
	if rd.err != nil {
		return semantics.RawNode{}, rd.err
	}
	if len(raw.ChildrenInTraversalOrder) != len(raw.ChildrenInHitTestOrder) {
		return semantics.RawNode{}, fmt.Errorf("%w: node %d traversal=%d hit_test=%d",
			ErrChildOrderMismatch, raw.ID, len(raw.ChildrenInTraversalOrder), len(raw.ChildrenInHitTestOrder))
	}
	return raw, nil
}

// EncodeBatch packs nodes into a semantics-update payload. A batch-end
// record is appended when withBatchEnd is set.
func EncodeBatch(nodes []semantics.RawNode, withBatchEnd bool) ([]byte, error) {
	fields := make([]tlv.Field, 0, len(nodes)+1)
	for _, n := range nodes {
		rec, err := EncodeNode(n)
		if err != nil {
			return nil, err
		}
		fields = append(fields, tlv.Bytes(schema.FieldNodeRecord, tlv.EncodeFields(rec)))
	}
	if withBatchEnd {
		rec, err := EncodeNode(BatchEnd())
		if err != nil {
			return nil, err
		}
		fields = append(fields, tlv.Bytes(schema.FieldNodeRecord, tlv.EncodeFields(rec)))
	}
	return tlv.EncodeFields(fields), nil
}

// DecodeBatch unpacks a semantics-update payload. Records that fail to decode
// are reported as *RecordError values in errs and skipped; the remaining
// records are returned in wire order.
func DecodeBatch(payload []byte) (nodes []semantics.RawNode, errs []error, err error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return nil, nil, err
	}
	if err := schema.Validate(schema.MsgSemanticsUpdate, fields); err != nil {
		return nil, nil, err
	}
	index := 0
	for _, f := range fields {
		if f.ID != schema.FieldNodeRecord {
			continue
		}
		raw, recErr := decodeRecord(f)
		if recErr != nil {
			errs = append(errs, &RecordError{Index: index, Err: recErr})
		} else {
			nodes = append(nodes, raw)
		}
		index++
	}
	return nodes, errs, nil
}

func decodeRecord(f tlv.Field) (semantics.RawNode, error) {
	if err := tlv.MustType(f, tlv.TypeBytes); err != nil {
		return semantics.RawNode{}, err
	}
	rec, err := tlv.DecodeFields(f.Value)
	if err != nil {
		return semantics.RawNode{}, err
	}
	return DecodeNode(rec)
}

// BatchEnd returns the raw record the engine sends to close a generation.
func BatchEnd() semantics.RawNode {
	return semantics.RawNode{
		ID:                  semantics.BatchEndID,
		TextSelectionBase:   -1,
		TextSelectionExtent: -1,
		Transform:           semantics.Identity,
		PlatformViewID:      -1,
	}
}

func isBatchEnd(fields []tlv.Field) bool {
	f, ok := tlv.GetField(fields, schema.FieldID)
	if !ok {
		return false
	}
	id, err := f.AsI32()
	return err == nil && id == semantics.BatchEndID
}

// fieldReader reads validated fields and keeps the first length error.
type fieldReader struct {
	fields []tlv.Field
	err    error
}

func (r *fieldReader) field(id uint16) tlv.Field {
	f, _ := tlv.GetField(r.fields, id)
	return f
}

func (r *fieldReader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *fieldReader) u8(id uint16) uint8 {
	v, err := r.field(id).AsU8()
	r.keep(err)
	return v
}

func (r *fieldReader) u32(id uint16) uint32 {
	v, err := r.field(id).AsU32()
	r.keep(err)
	return v
}

func (r *fieldReader) i32(id uint16) int32 {
	v, err := r.field(id).AsI32()
	r.keep(err)
	return v
}

func (r *fieldReader) i64(id uint16) int64 {
	v, err := r.field(id).AsI64()
	r.keep(err)
	return v
}

func (r *fieldReader) f64(id uint16) float64 {
	v, err := r.field(id).AsF64()
	r.keep(err)
	return v
}

func (r *fieldReader) str(id uint16) string {
	v, err := r.field(id).AsString()
	r.keep(err)
	return v
}

func (r *fieldReader) f64s(id uint16, n int) []float64 {
	v, err := tlv.UnpackF64s(r.field(id).Value, n)
	r.keep(err)
	return v
}

func (r *fieldReader) i32s(id uint16) []int32 {
	v, err := tlv.UnpackI32s(r.field(id).Value)
	r.keep(err)
	if len(v) == 0 {
		return nil
	}
	return v
}
