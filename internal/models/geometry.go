package models

import (
	"image"
	"math"
)

// Contour is a closed polygon in pixel coordinates; the last point connects
// back to the first.
type Contour []image.Point

// Area returns the enclosed area using the shoelace formula.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// Perimeter returns the closed polyline length.
func (c Contour) Perimeter() float64 {
	if len(c) < 2 {
		return 0
	}
	var total float64
	for i := range c {
		j := (i + 1) % len(c)
		dx := float64(c[j].X - c[i].X)
		dy := float64(c[j].Y - c[i].Y)
		total += math.Hypot(dx, dy)
	}
	return total
}

// Bounds returns the inclusive-exclusive bounding rectangle.
func (c Contour) Bounds() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// Translate returns a shifted copy.
func (c Contour) Translate(d image.Point) Contour {
	out := make(Contour, len(c))
	for i, p := range c {
		out[i] = p.Add(d)
	}
	return out
}

// Footprint is the ground-contact description of a silhouette.
type Footprint struct {
	// CenterX, CenterY are the rounded first-moment centroid of the mask.
	CenterX int `json:"center_x"`
	CenterY int `json:"center_y"`

	// LowestY is the largest y among the contour points.
	LowestY int `json:"lowest_y"`

	// LeftX, RightX bound the contour points inside the margin band above LowestY.
	LeftX  int `json:"left_x"`
	RightX int `json:"right_x"`

	// Area is the foreground pixel count the centroid was computed from.
	Area float64 `json:"area"`
}

// Anchor is the point a pedestal hangs from: the centroid column at the lowest row.
func (f Footprint) Anchor() image.Point {
	return image.Pt(f.CenterX, f.LowestY)
}
