package semantics

import (
	"encoding/json"
	"math"
	"strconv"
)

// Number is a float64 that survives JSON encoding when it is not finite.
// NaN and the infinities are written as the strings "NaN", "+Inf" and "-Inf";
// every other value is a plain JSON number.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	v := float64(n)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func numberPtr(v *float64) *Number {
	if v == nil {
		return nil
	}
	n := Number(*v)
	return &n
}

func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Left   Number `json:"left"`
		Top    Number `json:"top"`
		Right  Number `json:"right"`
		Bottom Number `json:"bottom"`
	}{Number(r.Left), Number(r.Top), Number(r.Right), Number(r.Bottom)})
}

func (t Transform) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ScaleX Number `json:"scale_x"`
		SkewX  Number `json:"skew_x"`
		TransX Number `json:"trans_x"`
		SkewY  Number `json:"skew_y"`
		ScaleY Number `json:"scale_y"`
		TransY Number `json:"trans_y"`
		Pers0  Number `json:"pers0"`
		Pers1  Number `json:"pers1"`
		Pers2  Number `json:"pers2"`
	}{
		Number(t.ScaleX), Number(t.SkewX), Number(t.TransX),
		Number(t.SkewY), Number(t.ScaleY), Number(t.TransY),
		Number(t.Pers0), Number(t.Pers1), Number(t.Pers2),
	})
}

func (s Scroll) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ChildCount *int32  `json:"child_count,omitempty"`
		Index      *int32  `json:"index,omitempty"`
		Position   *Number `json:"position,omitempty"`
		ExtentMax  *Number `json:"extent_max,omitempty"`
		ExtentMin  *Number `json:"extent_min,omitempty"`
	}{
		ChildCount: s.ChildCount,
		Index:      s.Index,
		Position:   numberPtr(s.Position),
		ExtentMax:  numberPtr(s.ExtentMax),
		ExtentMin:  numberPtr(s.ExtentMin),
	})
}

// nodeJSON drops Node's methods so MarshalJSON can embed it.
type nodeJSON Node

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		nodeJSON
		Elevation *Number `json:"elevation,omitempty"`
		Thickness *Number `json:"thickness,omitempty"`
	}{
		nodeJSON:  nodeJSON(n),
		Elevation: numberPtr(n.Elevation),
		Thickness: numberPtr(n.Thickness),
	})
}
