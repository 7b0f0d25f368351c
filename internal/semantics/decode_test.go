package semantics

import (
	"math"
	"strings"
	"testing"

	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

// blankRaw is a record with every optional field at its sentinel.
func blankRaw(id int32) RawNode {
	return RawNode{
		ID:                  id,
		TextSelectionBase:   -1,
		TextSelectionExtent: -1,
		ScrollPosition:      math.NaN(),
		ScrollExtentMax:     math.NaN(),
		ScrollExtentMin:     math.NaN(),
		Transform:           Identity,
		PlatformViewID:      -1,
	}
}

func ptr[T any](v T) *T { return &v }

func TestDecodeBatchEnd(t *testing.T) {
	testlog.Start(t)
	raw := blankRaw(BatchEndID)
	raw.Label = "ignored"
	node, end := Decode(raw)
	if !end {
		t.Fatalf("expected batch end")
	}
	if diff := cmp.Diff(Node{}, node); diff != "" {
		t.Fatalf("batch end should produce no node (-want +got):\n%s", diff)
	}
}

func TestDecodeAllSentinelsAbsent(t *testing.T) {
	testlog.Start(t)
	node, end := Decode(blankRaw(3))
	if end {
		t.Fatalf("unexpected batch end")
	}
	want := Node{ID: 3}
	if diff := cmp.Diff(want, node); diff != "" {
		t.Fatalf("sentinel record should decode to defaults (-want +got):\n%s", diff)
	}
}

func TestDecodeFullRecord(t *testing.T) {
	testlog.Start(t)
	raw := RawNode{
		ID:                       12,
		Flags:                    uint32(FlagIsButton|FlagIsEnabled|FlagHasEnabledState) | 1<<19,
		Actions:                  uint32(ActionTap|ActionLongPress) | 1<<25,
		TextSelectionBase:        0,
		TextSelectionExtent:      4,
		ScrollChildCount:         10,
		ScrollIndex:              2,
		ScrollPosition:           0,
		ScrollExtentMax:          500.5,
		ScrollExtentMin:          0,
		Elevation:                2,
		Thickness:                1.5,
		Label:                    "Submit",
		Hint:                     "Double tap to submit",
		Value:                    "v",
		IncreasedValue:           "v+",
		DecreasedValue:           "v-",
		TextDirection:            TextDirectionLTR,
		Rect:                     Rect{Left: 0, Top: 10, Right: 100, Bottom: 40},
		Transform:                Transform{ScaleX: 2, ScaleY: 2, TransX: 5, Pers2: 1},
		ChildrenInTraversalOrder: []int32{13, 14},
		ChildrenInHitTestOrder:   []int32{14, 13},
		CustomActions:            []int32{900},
		PlatformViewID:           0,
	}
	want := Node{
		ID:                  12,
		Flags:               Flags{FlagIsButton, FlagHasEnabledState, FlagIsEnabled},
		UnknownFlags:        1 << 19,
		Actions:             Actions{ActionTap, ActionLongPress},
		UnknownActions:      1 << 25,
		TextSelectionBase:   ptr(int32(0)),
		TextSelectionExtent: ptr(int32(4)),
		Scroll: Scroll{
			ChildCount: ptr(int32(10)),
			Index:      ptr(int32(2)),
			Position:   ptr(0.0),
			ExtentMax:  ptr(500.5),
			ExtentMin:  ptr(0.0),
		},
		Elevation:                ptr(2.0),
		Thickness:                ptr(1.5),
		Label:                    "Submit",
		Hint:                     "Double tap to submit",
		Value:                    "v",
		IncreasedValue:           "v+",
		DecreasedValue:           "v-",
		TextDirection:            TextDirectionLTR,
		Rect:                     Rect{Left: 0, Top: 10, Right: 100, Bottom: 40},
		Transform:                &Transform{ScaleX: 2, ScaleY: 2, TransX: 5, Pers2: 1},
		ChildrenInTraversalOrder: []int32{13, 14},
		ChildrenInHitTestOrder:   []int32{14, 13},
		CustomActions:            []int32{900},
		PlatformViewID:           ptr(int64(0)),
	}
	node, end := Decode(raw)
	if end {
		t.Fatalf("unexpected batch end")
	}
	if diff := cmp.Diff(want, node); diff != "" {
		t.Fatalf("decode mismatch (-want +got):\n%s", diff)
	}
	if !node.HasUnknownBits() {
		t.Fatalf("expected unknown bits to be reported")
	}
}

func TestDecodeSentinelBoundaries(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name    string
		mutate  func(*RawNode)
		present func(Node) bool
	}{
		{"selection base 0", func(r *RawNode) { r.TextSelectionBase = 0 }, func(n Node) bool { return n.TextSelectionBase != nil }},
		{"selection base -2", func(r *RawNode) { r.TextSelectionBase = -2 }, func(n Node) bool { return n.TextSelectionBase != nil }},
		{"selection extent 0", func(r *RawNode) { r.TextSelectionExtent = 0 }, func(n Node) bool { return n.TextSelectionExtent != nil }},
		{"scroll child count 1", func(r *RawNode) { r.ScrollChildCount = 1 }, func(n Node) bool { return n.Scroll.ChildCount != nil }},
		{"scroll child count -1", func(r *RawNode) { r.ScrollChildCount = -1 }, func(n Node) bool { return n.Scroll.ChildCount != nil }},
		{"scroll index 1", func(r *RawNode) { r.ScrollIndex = 1 }, func(n Node) bool { return n.Scroll.Index != nil }},
		{"scroll position 0", func(r *RawNode) { r.ScrollPosition = 0 }, func(n Node) bool { return n.Scroll.Position != nil }},
		{"scroll extent max inf", func(r *RawNode) { r.ScrollExtentMax = math.Inf(1) }, func(n Node) bool { return n.Scroll.ExtentMax != nil }},
		{"scroll extent min -inf", func(r *RawNode) { r.ScrollExtentMin = math.Inf(-1) }, func(n Node) bool { return n.Scroll.ExtentMin != nil }},
		{"elevation tiny", func(r *RawNode) { r.Elevation = math.SmallestNonzeroFloat64 }, func(n Node) bool { return n.Elevation != nil }},
		{"thickness negative", func(r *RawNode) { r.Thickness = -1 }, func(n Node) bool { return n.Thickness != nil }},
		{"platform view 0", func(r *RawNode) { r.PlatformViewID = 0 }, func(n Node) bool { return n.PlatformViewID != nil }},
		{"platform view -2", func(r *RawNode) { r.PlatformViewID = -2 }, func(n Node) bool { return n.PlatformViewID != nil }},
		{"transform pers2 only", func(r *RawNode) { r.Transform.Pers2 = 0.5 }, func(n Node) bool { return n.Transform != nil }},
	}
	for _, tc := range cases {
		raw := blankRaw(1)
		tc.mutate(&raw)
		node, _ := Decode(raw)
		if !tc.present(node) {
			t.Fatalf("%s: value adjacent to sentinel must be present", tc.name)
		}
	}
}

func TestDecodeCopiesChildSlices(t *testing.T) {
	testlog.Start(t)
	raw := blankRaw(1)
	raw.ChildrenInTraversalOrder = []int32{2, 3}
	raw.ChildrenInHitTestOrder = []int32{3, 2}
	node, _ := Decode(raw)
	raw.ChildrenInTraversalOrder[0] = 99
	if node.ChildrenInTraversalOrder[0] != 2 {
		t.Fatalf("decoded node shares memory with raw record")
	}
}

func TestDumpWritesPresentFieldsOnly(t *testing.T) {
	testlog.Start(t)
	raw := blankRaw(7)
	raw.Flags = uint32(FlagIsHeader) | 1<<19
	raw.Actions = uint32(ActionScrollUp)
	raw.Label = "Title"
	raw.Transform = Transform{ScaleX: 1, ScaleY: 1, TransX: 3, TransY: 4, Pers2: 1}
	raw.TextDirection = TextDirection(9)
	node, _ := Decode(raw)
	out := node.String()
	for _, want := range []string{
		"  id: 7\n",
		"  flags: IsHeader 0x80000\n",
		"  actions: ScrollUp\n",
		"  label: Title\n",
		"  text_direction: 9\n",
		"  transform: translate(3, 4)\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
	for _, absent := range []string{"hint:", "scroll_", "platform_view_id", "elevation", "children_"} {
		if strings.Contains(out, absent) {
			t.Fatalf("dump should not contain %q:\n%s", absent, out)
		}
	}
}
