// Package annotation holds the image-space rectangles marked for restoration.
package annotation

import (
	"image"
	"math"
)

// MinSize is the exclusive lower bound on both sides of a committed rectangle.
const MinSize = 5.0

// Rect is an axis-aligned rectangle in image coordinates with its origin at
// the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Normalize builds a Rect from two arbitrary corners.
func Normalize(x0, y0, x1, y1 float64) Rect {
	return Rect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// Committable reports whether r is large enough to keep.
func (r Rect) Committable() bool {
	return r.Width > MinSize && r.Height > MinSize
}

// Box returns r as an integer rectangle, flooring the origin and truncating
// the size.
func (r Rect) Box() image.Rectangle {
	x := int(math.Floor(r.X))
	y := int(math.Floor(r.Y))
	return image.Rect(x, y, x+int(r.Width), y+int(r.Height))
}

// Store is an ordered list of committed rectangles. The zero value is ready
// to use. Store is not safe for concurrent use.
type Store struct {
	rects []Rect
}

// Append adds r at the end of the list.
func (s *Store) Append(r Rect) {
	s.rects = append(s.rects, r)
}

// RemoveLast drops the most recently appended rectangle. It reports false
// when the store is empty.
func (s *Store) RemoveLast() bool {
	if len(s.rects) == 0 {
		return false
	}
	s.rects = s.rects[:len(s.rects)-1]
	return true
}

// Clear removes every rectangle.
func (s *Store) Clear() {
	s.rects = nil
}

// All returns a copy of the rectangles in insertion order.
func (s *Store) All() []Rect {
	out := make([]Rect, len(s.rects))
	copy(out, s.rects)
	return out
}

// Len returns the number of rectangles.
func (s *Store) Len() int { return len(s.rects) }
