package records

import (
	"errors"
	"math"
	"testing"

	"github.com/danmuck/a11ybridge/internal/protocol/schema"
	"github.com/danmuck/a11ybridge/internal/protocol/tlv"
	"github.com/danmuck/a11ybridge/internal/semantics"
	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleNode(id int32) semantics.RawNode {
	return semantics.RawNode{
		ID:                       id,
		Flags:                    uint32(semantics.FlagIsButton) | 1<<19,
		Actions:                  uint32(semantics.ActionTap),
		TextSelectionBase:        -1,
		TextSelectionExtent:      -1,
		ScrollChildCount:         3,
		ScrollPosition:           math.NaN(),
		ScrollExtentMax:          120,
		ScrollExtentMin:          math.NaN(),
		Elevation:                1,
		Label:                    "OK",
		Hint:                     "confirm",
		TextDirection:            semantics.TextDirectionRTL,
		Rect:                     semantics.Rect{Left: 1, Top: 2, Right: 3, Bottom: 4},
		Transform:                semantics.Transform{ScaleX: 1, SkewX: 0.1, TransX: 9, SkewY: 0.2, ScaleY: 1, TransY: 8, Pers2: 1},
		ChildrenInTraversalOrder: []int32{id + 1, id + 2},
		ChildrenInHitTestOrder:   []int32{id + 2, id + 1},
		CustomActions:            []int32{77},
		PlatformViewID:           -1,
	}
}

func replaceField(fields []tlv.Field, f tlv.Field) []tlv.Field {
	out := make([]tlv.Field, 0, len(fields))
	for _, existing := range fields {
		if existing.ID == f.ID {
			out = append(out, f)
			continue
		}
		out = append(out, existing)
	}
	return out
}

func TestNodeRecordRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := sampleNode(10)
	fields, err := EncodeNode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeNode(fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, out, cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("record mismatch (-in +out):\n%s", diff)
	}
}

func TestDecodeNodeIgnoresUnknownFields(t *testing.T) {
	testlog.Start(t)
	fields, err := EncodeNode(sampleNode(1))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	fields = append(fields, tlv.String(999, "from a newer engine"))
	if _, err := DecodeNode(fields); err != nil {
		t.Fatalf("unknown field should be ignored: %v", err)
	}
}

func TestDecodeNodeMissingField(t *testing.T) {
	testlog.Start(t)
	fields, _ := EncodeNode(sampleNode(1))
	trimmed := fields[:0:0]
	for _, f := range fields {
		if f.ID != schema.FieldFlags {
			trimmed = append(trimmed, f)
		}
	}
	_, err := DecodeNode(trimmed)
	var vErr schema.ValidationError
	if !errors.As(err, &vErr) || vErr.FieldID != schema.FieldFlags {
		t.Fatalf("expected validation error for flags, got %v", err)
	}
}

func TestDecodeNodeBadGeometryLength(t *testing.T) {
	testlog.Start(t)
	fields, _ := EncodeNode(sampleNode(1))
	fields = replaceField(fields, tlv.Bytes(schema.FieldRect, tlv.PackF64s(1, 2, 3)))
	if _, err := DecodeNode(fields); !errors.Is(err, tlv.ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestChildOrderMismatch(t *testing.T) {
	testlog.Start(t)
	bad := sampleNode(1)
	bad.ChildrenInHitTestOrder = bad.ChildrenInHitTestOrder[:1]
	if _, err := EncodeNode(bad); !errors.Is(err, ErrChildOrderMismatch) {
		t.Fatalf("encode should reject mismatch, got %v", err)
	}

	fields, _ := EncodeNode(sampleNode(1))
	fields = replaceField(fields, tlv.Bytes(schema.FieldChildrenHitTest, tlv.PackI32s([]int32{5})))
	if _, err := DecodeNode(fields); !errors.Is(err, ErrChildOrderMismatch) {
		t.Fatalf("decode should reject mismatch, got %v", err)
	}
}

func TestBatchRoundTripWithBatchEnd(t *testing.T) {
	testlog.Start(t)
	in := []semantics.RawNode{sampleNode(1), sampleNode(4)}
	payload, err := EncodeBatch(in, true)
	if err != nil {
		t.Fatalf("encode batch: %v", err)
	}
	out, errs, err := DecodeBatch(payload)
	if err != nil || len(errs) != 0 {
		t.Fatalf("decode batch: err=%v record errs=%v", err, errs)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if diff := cmp.Diff(in, out[:2], cmpopts.EquateNaNs()); diff != "" {
		t.Fatalf("batch mismatch (-in +out):\n%s", diff)
	}
	if _, end := semantics.Decode(out[2]); !end {
		t.Fatalf("last record should be the batch end marker")
	}
}

func TestDecodeBatchSkipsBadRecord(t *testing.T) {
	testlog.Start(t)
	good, _ := EncodeNode(sampleNode(1))
	bad, _ := EncodeNode(sampleNode(2))
	bad = replaceField(bad, tlv.Bytes(schema.FieldChildrenTraversal, nil))
	payload := tlv.EncodeFields([]tlv.Field{
		tlv.Bytes(schema.FieldNodeRecord, tlv.EncodeFields(bad)),
		tlv.Bytes(schema.FieldNodeRecord, tlv.EncodeFields(good)),
		tlv.Bytes(schema.FieldNodeRecord, []byte{0, 1}),
	})
	nodes, errs, err := DecodeBatch(payload)
	if err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != 1 {
		t.Fatalf("expected only node 1, got %+v", nodes)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 record errors, got %v", errs)
	}
	var recErr *RecordError
	if !errors.As(errs[0], &recErr) || recErr.Index != 0 || !errors.Is(errs[0], ErrChildOrderMismatch) {
		t.Fatalf("unexpected first record error %v", errs[0])
	}
	if !errors.As(errs[1], &recErr) || recErr.Index != 2 || !errors.Is(errs[1], tlv.ErrShortFieldHeader) {
		t.Fatalf("unexpected second record error %v", errs[1])
	}
}

func TestDecodeBatchAcceptsBareBatchEnd(t *testing.T) {
	testlog.Start(t)
	good, _ := EncodeNode(sampleNode(3))
	payload := tlv.EncodeFields([]tlv.Field{
		tlv.Bytes(schema.FieldNodeRecord, tlv.EncodeFields(good)),
		tlv.Bytes(schema.FieldNodeRecord, tlv.EncodeFields([]tlv.Field{
			tlv.I32(schema.FieldID, semantics.BatchEndID),
		})),
	})
	nodes, errs, err := DecodeBatch(payload)
	if err != nil || len(errs) != 0 {
		t.Fatalf("decode batch: err=%v record errs=%v", err, errs)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 records, got %d", len(nodes))
	}
	if diff := cmp.Diff(BatchEnd(), nodes[1]); diff != "" {
		t.Fatalf("batch end mismatch (-want +got):\n%s", diff)
	}
	if _, end := semantics.Decode(nodes[1]); !end {
		t.Fatalf("id-only record should end the generation")
	}
}

func TestDecodeNodeWidenedBatchEndIDStillValidated(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeNode([]tlv.Field{tlv.I64(schema.FieldID, int64(semantics.BatchEndID))})
	var vErr schema.ValidationError
	if !errors.As(err, &vErr) || vErr.FieldID != schema.FieldID {
		t.Fatalf("expected validation error for id, got %v", err)
	}
}

func TestDecodeBatchMalformedPayload(t *testing.T) {
	testlog.Start(t)
	if _, _, err := DecodeBatch([]byte{0, 1, 7}); !errors.Is(err, tlv.ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}
