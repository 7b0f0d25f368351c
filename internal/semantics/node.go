// Package semantics decodes engine semantics-node records into immutable node
// snapshots and keeps the latest snapshot per node id.
//
// Ownership boundary:
// - flag/action bitmask decoding with unknown-bit residuals
// - sentinel normalization of optional fields
// - node registry
package semantics

import (
	"strconv"
	"unicode/utf8"
)

// BatchEndID marks the end of one semantics update generation. It is never a
// node id.
const BatchEndID int32 = -1

// TextDirection is the reading direction of a node's text.
type TextDirection int32

const (
	TextDirectionUnknown TextDirection = 0
	TextDirectionRTL     TextDirection = 1
	TextDirectionLTR     TextDirection = 2
)

func (d TextDirection) String() string {
	switch d {
	case TextDirectionUnknown:
		return "unknown"
	case TextDirectionRTL:
		return "rtl"
	case TextDirectionLTR:
		return "ltr"
	default:
		return strconv.Itoa(int(d))
	}
}

func (d TextDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Rect is a node bounding box in its local coordinate space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Transform is a 3x3 matrix mapping node space into its parent's space.
type Transform struct {
	ScaleX float64 `json:"scale_x"`
	SkewX  float64 `json:"skew_x"`
	TransX float64 `json:"trans_x"`
	SkewY  float64 `json:"skew_y"`
	ScaleY float64 `json:"scale_y"`
	TransY float64 `json:"trans_y"`
	Pers0  float64 `json:"pers0"`
	Pers1  float64 `json:"pers1"`
	Pers2  float64 `json:"pers2"`
}

// Identity is the transform that means "no transform".
var Identity = Transform{ScaleX: 1, ScaleY: 1, Pers2: 1}

func (t Transform) IsIdentity() bool {
	return t == Identity
}

// RawNode is one record exactly as the engine sends it. Absent values are
// carried as their sentinels.
type RawNode struct {
	ID                       int32
	Flags                    uint32
	Actions                  uint32
	TextSelectionBase        int32
	TextSelectionExtent      int32
	ScrollChildCount         int32
	ScrollIndex              int32
	ScrollPosition           float64
	ScrollExtentMax          float64
	ScrollExtentMin          float64
	Elevation                float64
	Thickness                float64
	Label                    string
	Hint                     string
	Value                    string
	IncreasedValue           string
	DecreasedValue           string
	TextDirection            TextDirection
	Rect                     Rect
	Transform                Transform
	ChildrenInTraversalOrder []int32
	ChildrenInHitTestOrder   []int32
	CustomActions            []int32
	PlatformViewID           int64
}

// Scroll holds the scroll metrics of a scrollable node. Nil means unset.
type Scroll struct {
	ChildCount *int32   `json:"child_count,omitempty"`
	Index      *int32   `json:"index,omitempty"`
	Position   *float64 `json:"position,omitempty"`
	ExtentMax  *float64 `json:"extent_max,omitempty"`
	ExtentMin  *float64 `json:"extent_min,omitempty"`
}

// Node is the decoded snapshot of one UI element. Optional values are nil
// when the engine sent their sentinel; text fields are empty when absent.
// Text is kept byte for byte as the engine sent it, including invalid UTF-8.
type Node struct {
	ID             int32   `json:"id"`
	Flags          Flags   `json:"flags,omitempty"`
	UnknownFlags   uint32  `json:"unknown_flags,omitempty"`
	Actions        Actions `json:"actions,omitempty"`
	UnknownActions uint32  `json:"unknown_actions,omitempty"`

	TextSelectionBase   *int32   `json:"text_selection_base,omitempty"`
	TextSelectionExtent *int32   `json:"text_selection_extent,omitempty"`
	Scroll              Scroll   `json:"scroll"`
	Elevation           *float64 `json:"elevation,omitempty"`
	Thickness           *float64 `json:"thickness,omitempty"`

	Label          string        `json:"label,omitempty"`
	Hint           string        `json:"hint,omitempty"`
	Value          string        `json:"value,omitempty"`
	IncreasedValue string        `json:"increased_value,omitempty"`
	DecreasedValue string        `json:"decreased_value,omitempty"`
	TextDirection  TextDirection `json:"text_direction"`

	Rect                     Rect       `json:"rect"`
	Transform                *Transform `json:"transform,omitempty"`
	ChildrenInTraversalOrder []int32    `json:"children_traversal,omitempty"`
	ChildrenInHitTestOrder   []int32    `json:"children_hit_test,omitempty"`
	CustomActions            []int32    `json:"custom_actions,omitempty"`
	PlatformViewID           *int64     `json:"platform_view_id,omitempty"`
}

// HasUnknownBits reports whether the record carried flag or action bits this
// decoder does not enumerate.
func (n Node) HasUnknownBits() bool {
	return n.UnknownFlags != 0 || n.UnknownActions != 0
}

// InvalidUTF8Fields names the text fields whose bytes are not valid UTF-8, in
// field order. It returns nil when every text field is valid.
func (n Node) InvalidUTF8Fields() []string {
	var bad []string
	for _, f := range []struct {
		name, text string
	}{
		{"label", n.Label},
		{"hint", n.Hint},
		{"value", n.Value},
		{"increased_value", n.IncreasedValue},
		{"decreased_value", n.DecreasedValue},
	} {
		if !utf8.ValidString(f.text) {
			bad = append(bad, f.name)
		}
	}
	return bad
}
