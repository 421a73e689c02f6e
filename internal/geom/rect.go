package geom

import "github.com/go-gl/mathgl/mgl32"

// Rect is an axis-aligned rectangle on the ground plane. X maps to world X,
// Y maps to world Z.
type Rect struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

// NewRect builds a rectangle from its minimum corner and size.
func NewRect(x, z, width, depth float32) Rect {
	return Rect{Min: mgl32.Vec2{x, z}, Max: mgl32.Vec2{x + width, z + depth}}
}

func (r Rect) Width() float32 { return r.Max[0] - r.Min[0] }
func (r Rect) Depth() float32 { return r.Max[1] - r.Min[1] }
func (r Rect) Empty() bool    { return r.Width() <= 0 || r.Depth() <= 0 }

func (r Rect) Center() mgl32.Vec2 {
	return r.Min.Add(r.Max).Mul(0.5)
}

// Contains reports whether p lies inside r, min edges inclusive.
func (r Rect) Contains(p mgl32.Vec2) bool {
	return p[0] >= r.Min[0] && p[0] < r.Max[0] && p[1] >= r.Min[1] && p[1] < r.Max[1]
}

// Quadrants splits r into four equal parts ordered
// (-x,-z), (+x,-z), (-x,+z), (+x,+z).
func (r Rect) Quadrants() [4]Rect {
	c := r.Center()
	return [4]Rect{
		{Min: r.Min, Max: c},
		{Min: mgl32.Vec2{c[0], r.Min[1]}, Max: mgl32.Vec2{r.Max[0], c[1]}},
		{Min: mgl32.Vec2{r.Min[0], c[1]}, Max: mgl32.Vec2{c[0], r.Max[1]}},
		{Min: c, Max: r.Max},
	}
}
