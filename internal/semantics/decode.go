package semantics

import "math"

// Decode turns one raw record into a node snapshot. It reports batchEnd=true
// for the batch-end marker, in which case the returned node is empty.
func Decode(raw RawNode) (node Node, batchEnd bool) {
	if raw.ID == BatchEndID {
		return Node{}, true
	}

	node = Node{
		ID:             raw.ID,
		Label:          raw.Label,
		Hint:           raw.Hint,
		Value:          raw.Value,
		IncreasedValue: raw.IncreasedValue,
		DecreasedValue: raw.DecreasedValue,
		TextDirection:  raw.TextDirection,
		Rect:           raw.Rect,
	}
	node.Flags, node.UnknownFlags = DecodeFlags(raw.Flags)
	node.Actions, node.UnknownActions = DecodeActions(raw.Actions)

	node.TextSelectionBase = unlessEqual(raw.TextSelectionBase, -1)
	node.TextSelectionExtent = unlessEqual(raw.TextSelectionExtent, -1)

	node.Scroll = Scroll{
		ChildCount: unlessEqual(raw.ScrollChildCount, 0),
		Index:      unlessEqual(raw.ScrollIndex, 0),
		Position:   unlessNaN(raw.ScrollPosition),
		ExtentMax:  unlessNaN(raw.ScrollExtentMax),
		ExtentMin:  unlessNaN(raw.ScrollExtentMin),
	}
	node.Elevation = unlessEqual(raw.Elevation, 0)
	node.Thickness = unlessEqual(raw.Thickness, 0)

	if !raw.Transform.IsIdentity() {
		t := raw.Transform
		node.Transform = &t
	}

	node.ChildrenInTraversalOrder = cloneIDs(raw.ChildrenInTraversalOrder)
	node.ChildrenInHitTestOrder = cloneIDs(raw.ChildrenInHitTestOrder)
	node.CustomActions = cloneIDs(raw.CustomActions)

	node.PlatformViewID = unlessEqual(raw.PlatformViewID, -1)
	return node, false
}

func unlessEqual[T comparable](v, sentinel T) *T {
	if v == sentinel {
		return nil
	}
	return &v
}

func unlessNaN(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func cloneIDs(ids []int32) []int32 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int32, len(ids))
	copy(out, ids)
	return out
}
