package model

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle in page space. The origin is the
// top-left corner of the page and Y grows downward, matching the
// orientation of a rendered page image.
type Rect struct {
	X0, Y0 float64 // top-left
	X1, Y1 float64 // bottom-right
}

// NewRect creates a rectangle from two corners, normalising their order.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

// Width returns the horizontal extent
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the vertical extent
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Intersects reports whether r and other share a region of positive area.
// Empty rectangles never intersect anything.
func (r Rect) Intersects(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.X0 < other.X1 && other.X0 < r.X1 &&
		r.Y0 < other.Y1 && other.Y0 < r.Y1
}

// Union returns the smallest rectangle containing both rectangles.
// An empty rectangle contributes nothing.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, other.X0),
		Y0: math.Min(r.Y0, other.Y0),
		X1: math.Max(r.X1, other.X1),
		Y1: math.Max(r.Y1, other.Y1),
	}
}

// Clip returns the intersection of r and bounds. The result may be empty.
func (r Rect) Clip(bounds Rect) Rect {
	c := Rect{
		X0: math.Max(r.X0, bounds.X0),
		Y0: math.Max(r.Y0, bounds.Y0),
		X1: math.Min(r.X1, bounds.X1),
		Y1: math.Min(r.Y1, bounds.Y1),
	}
	if c.IsEmpty() {
		return Rect{}
	}
	return c
}

// ShrinkVertical scales the vertical extent toward its midpoint by factor.
// Horizontal bounds are unchanged.
func (r Rect) ShrinkVertical(factor float64) Rect {
	m := (r.Y0 + r.Y1) / 2
	return Rect{
		X0: r.X0,
		Y0: m - factor*(m-r.Y0),
		X1: r.X1,
		Y1: m + factor*(r.Y1-m),
	}
}

// RGB is an 8-bit per channel colour triple.
type RGB struct {
	R, G, B uint8
}

// RGBFromFloats converts colour components in the range 0..1 to an RGB
// triple, rounding to the nearest integer and clamping out-of-range input.
func RGBFromFloats(r, g, b float64) RGB {
	return RGB{R: channel(r), G: channel(g), B: channel(b)}
}

func channel(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// String formats the colour as "(r, g, b)".
func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}
