package terrain

import (
	"flight-terrain/internal/noise"
)

// HeightField is a chunk's elevation grid plus per-tile min/max summaries.
// One tile corresponds to one quadtree leaf.
type HeightField struct {
	Grid  *noise.Grid
	Tiles noise.TileSummary
}

// NewHeightField summarizes grid into tilesPerSide x tilesPerSide tiles.
func NewHeightField(grid *noise.Grid, tilesPerSide int) *HeightField {
	return &HeightField{Grid: grid, Tiles: grid.Summarize(tilesPerSide, tilesPerSide)}
}

// HeightAt interpolates the elevation at world position (x, z). Positions
// outside the footprint clamp to its edge.
func (h *HeightField) HeightAt(x, z float32) float32 {
	u, v := h.uv(x, z)
	return h.Grid.Bilinear(u, v)
}

func (h *HeightField) uv(x, z float32) (float64, float64) {
	a := h.Grid.Area
	var u, v float64
	if w := a.Width(); w > 0 {
		u = float64((x - a.Min[0]) / w)
	}
	if d := a.Depth(); d > 0 {
		v = float64((z - a.Min[1]) / d)
	}
	return u, v
}

// Range returns the lowest and highest tile bounds.
func (h *HeightField) Range() (float32, float32) {
	if len(h.Tiles.Min) == 0 {
		return 0, 0
	}
	lo, hi := h.Tiles.Min[0], h.Tiles.Max[0]
	for i := range h.Tiles.Min {
		lo = min(lo, h.Tiles.Min[i])
		hi = max(hi, h.Tiles.Max[i])
	}
	return lo, hi
}

// Texture encodes the tile summaries as interleaved (min, max) pairs,
// row-major, for upload as a two-channel height texture.
func (h *HeightField) Texture() []float32 {
	out := make([]float32, 0, 2*len(h.Tiles.Min))
	for i := range h.Tiles.Min {
		out = append(out, h.Tiles.Min[i], h.Tiles.Max[i])
	}
	return out
}
