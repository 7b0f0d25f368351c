package semantics

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a human-readable multi-line description of n. Only present
// optional fields are written.
func Dump(w io.Writer, n Node) {
	fmt.Fprintf(w, "semantics node\n")
	fmt.Fprintf(w, "  id: %d\n", n.ID)
	if len(n.Flags) > 0 || n.UnknownFlags != 0 {
		fmt.Fprintf(w, "  flags: %s\n", joinBits([]Flag(n.Flags), n.UnknownFlags, knownFlags))
	}
	if len(n.Actions) > 0 || n.UnknownActions != 0 {
		fmt.Fprintf(w, "  actions: %s\n", joinBits([]Action(n.Actions), n.UnknownActions, knownActions))
	}
	if n.TextSelectionBase != nil {
		fmt.Fprintf(w, "  text_selection_base: %d\n", *n.TextSelectionBase)
	}
	if n.TextSelectionExtent != nil {
		fmt.Fprintf(w, "  text_selection_extent: %d\n", *n.TextSelectionExtent)
	}
	if n.Scroll.ChildCount != nil {
		fmt.Fprintf(w, "  scroll_child_count: %d\n", *n.Scroll.ChildCount)
	}
	if n.Scroll.Index != nil {
		fmt.Fprintf(w, "  scroll_index: %d\n", *n.Scroll.Index)
	}
	if n.Scroll.Position != nil {
		fmt.Fprintf(w, "  scroll_position: %g\n", *n.Scroll.Position)
	}
	if n.Scroll.ExtentMax != nil {
		fmt.Fprintf(w, "  scroll_extent_max: %g\n", *n.Scroll.ExtentMax)
	}
	if n.Scroll.ExtentMin != nil {
		fmt.Fprintf(w, "  scroll_extent_min: %g\n", *n.Scroll.ExtentMin)
	}
	if n.Elevation != nil {
		fmt.Fprintf(w, "  elevation: %g\n", *n.Elevation)
	}
	if n.Thickness != nil {
		fmt.Fprintf(w, "  thickness: %g\n", *n.Thickness)
	}
	for _, tf := range []struct{ key, val string }{
		{"label", n.Label},
		{"hint", n.Hint},
		{"value", n.Value},
		{"increased_value", n.IncreasedValue},
		{"decreased_value", n.DecreasedValue},
	} {
		if tf.val != "" {
			fmt.Fprintf(w, "  %s: %s\n", tf.key, tf.val)
		}
	}
	if n.TextDirection != TextDirectionUnknown {
		fmt.Fprintf(w, "  text_direction: %s\n", n.TextDirection)
	}
	fmt.Fprintf(w, "  rect: l=%g t=%g r=%g b=%g\n", n.Rect.Left, n.Rect.Top, n.Rect.Right, n.Rect.Bottom)
	if n.Transform != nil {
		fmt.Fprintf(w, "  transform:%s\n", describeTransform(*n.Transform))
	}
	if len(n.ChildrenInTraversalOrder) > 0 {
		fmt.Fprintf(w, "  children_in_traversal_order: %s\n", joinIDs(n.ChildrenInTraversalOrder))
		fmt.Fprintf(w, "  children_in_hit_test_order: %s\n", joinIDs(n.ChildrenInHitTestOrder))
	}
	if len(n.CustomActions) > 0 {
		fmt.Fprintf(w, "  custom_actions: %s\n", joinIDs(n.CustomActions))
	}
	if n.PlatformViewID != nil {
		fmt.Fprintf(w, "  platform_view_id: %d\n", *n.PlatformViewID)
	}
}

// String is Dump into a string.
func (n Node) String() string {
	var b strings.Builder
	Dump(&b, n)
	return b.String()
}

func describeTransform(t Transform) string {
	var b strings.Builder
	if t.TransX != 0 || t.TransY != 0 {
		fmt.Fprintf(&b, " translate(%g, %g)", t.TransX, t.TransY)
	}
	if t.ScaleX != 1 || t.ScaleY != 1 {
		fmt.Fprintf(&b, " scale(%g, %g)", t.ScaleX, t.ScaleY)
	}
	if t.SkewX != 0 || t.SkewY != 0 {
		fmt.Fprintf(&b, " skew(%g, %g)", t.SkewX, t.SkewY)
	}
	if t.Pers0 != 0 || t.Pers1 != 0 || t.Pers2 != 1 {
		fmt.Fprintf(&b, " perspective(%g, %g, %g)", t.Pers0, t.Pers1, t.Pers2)
	}
	return b.String()
}

func joinIDs(ids []int32) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " ")
}
