package semantics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/danmuck/a11ybridge/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
)

func TestNodeJSONNonFiniteFloats(t *testing.T) {
	testlog.Start(t)
	raw := blankRaw(7)
	raw.ScrollPosition = 12.5
	raw.ScrollExtentMax = math.Inf(1)
	raw.ScrollExtentMin = math.Inf(-1)
	raw.Elevation = math.NaN()
	raw.Rect = Rect{Left: 0, Top: 0, Right: math.Inf(1), Bottom: 4}
	raw.Transform = Transform{ScaleX: math.NaN(), ScaleY: 1, Pers2: 1}
	node, _ := Decode(raw)

	b, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("output is not valid json: %v\n%s", err, b)
	}
	want := map[string]any{
		"id": float64(7),
		"scroll": map[string]any{
			"position":   12.5,
			"extent_max": "+Inf",
			"extent_min": "-Inf",
		},
		"elevation":      "NaN",
		"text_direction": "unknown",
		"rect":           map[string]any{"left": float64(0), "top": float64(0), "right": "+Inf", "bottom": float64(4)},
		"transform": map[string]any{
			"scale_x": "NaN", "skew_x": float64(0), "trans_x": float64(0),
			"skew_y": float64(0), "scale_y": float64(1), "trans_y": float64(0),
			"pers0": float64(0), "pers1": float64(0), "pers2": float64(1),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected json (-want +got):\n%s", diff)
	}
}

func TestNodeJSONOmitsAbsentValues(t *testing.T) {
	testlog.Start(t)
	node, _ := Decode(blankRaw(3))
	b, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":3,"scroll":{},"text_direction":"unknown","rect":{"left":0,"top":0,"right":0,"bottom":0}}`
	if string(b) != want {
		t.Fatalf("unexpected json\n got %s\nwant %s", b, want)
	}
}

func TestInvalidUTF8Fields(t *testing.T) {
	testlog.Start(t)
	raw := blankRaw(4)
	raw.Label = "ok"
	raw.Hint = "bad\xff"
	raw.DecreasedValue = "\xc3"
	node, _ := Decode(raw)
	if node.Hint != "bad\xff" {
		t.Fatalf("hint bytes should be kept as sent, got %q", node.Hint)
	}
	if diff := cmp.Diff([]string{"hint", "decreased_value"}, node.InvalidUTF8Fields()); diff != "" {
		t.Fatalf("unexpected invalid fields (-want +got):\n%s", diff)
	}
	if got := (Node{Label: "héllo"}).InvalidUTF8Fields(); got != nil {
		t.Fatalf("valid text reported as invalid: %v", got)
	}
}
