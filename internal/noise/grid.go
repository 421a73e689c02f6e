package noise

import (
	"context"
	"math"
	"runtime"

	"flight-terrain/internal/geom"

	"golang.org/x/sync/errgroup"
)

// Grid is a row-major buffer of samples covering a world rectangle. Samples
// sit on the rectangle's edges inclusively, so neighbouring grids rendered
// over adjacent rectangles share their border samples.
type Grid struct {
	Area   geom.Rect
	Width  int
	Height int
	Values []float32
}

// NewGrid allocates an empty grid.
func NewGrid(area geom.Rect, width, height int) *Grid {
	width = max(width, 0)
	height = max(height, 0)
	return &Grid{Area: area, Width: width, Height: height, Values: make([]float32, width*height)}
}

// At returns the sample at column x, row y.
func (g *Grid) At(x, y int) float32 {
	return g.Values[y*g.Width+x]
}

// Set stores a sample at column x, row y.
func (g *Grid) Set(x, y int, v float32) {
	g.Values[y*g.Width+x] = v
}

// Position returns the world-space (x, z) of sample (col, row).
func (g *Grid) Position(col, row int) (float64, float64) {
	return axis(g.Area.Min[0], g.Area.Max[0], col, g.Width), axis(g.Area.Min[1], g.Area.Max[1], row, g.Height)
}

func axis(lo, hi float32, i, n int) float64 {
	if n <= 1 {
		return float64(lo)
	}
	return float64(lo) + float64(hi-lo)*float64(i)/float64(n-1)
}

// Bilinear samples the grid at normalized coordinates u, v in [0, 1].
func (g *Grid) Bilinear(u, v float64) float32 {
	if g.Width == 0 || g.Height == 0 {
		return 0
	}
	fx := Clamp01(u) * float64(g.Width-1)
	fy := Clamp01(v) * float64(g.Height-1)
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := min(x0+1, g.Width-1)
	y1 := min(y0+1, g.Height-1)
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	top := g.At(x0, y0) + (g.At(x1, y0)-g.At(x0, y0))*tx
	bottom := g.At(x0, y1) + (g.At(x1, y1)-g.At(x0, y1))*tx
	return top + (bottom-top)*ty
}

// Render samples s over area into a width x height grid. Rows are filled in
// parallel; each row is written by exactly one goroutine.
func Render(ctx context.Context, s Sampler, area geom.Rect, width, height int) (*Grid, error) {
	g := NewGrid(area, width, height)
	if len(g.Values) == 0 {
		return g, nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for row := 0; row < g.Height; row++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			base := row * g.Width
			for col := 0; col < g.Width; col++ {
				x, z := g.Position(col, row)
				g.Values[base+col] = float32(s.Sample(x, z))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// TileSummary holds per-tile minimum and maximum sample values for a grid
// partitioned into TilesX x TilesY tiles.
type TileSummary struct {
	TilesX int
	TilesY int
	Min    []float32
	Max    []float32
}

// Summarize scans the grid in tiles. Tile (tx, ty) covers the samples from
// its first row/column up to and including the first row/column of the next
// tile, so adjacent tiles agree on their shared edge.
func (g *Grid) Summarize(tilesX, tilesY int) TileSummary {
	ts := TileSummary{TilesX: max(tilesX, 0), TilesY: max(tilesY, 0)}
	ts.Min = make([]float32, ts.TilesX*ts.TilesY)
	ts.Max = make([]float32, ts.TilesX*ts.TilesY)
	if g.Width == 0 || g.Height == 0 {
		return ts
	}

	for ty := 0; ty < ts.TilesY; ty++ {
		y0, y1 := tileSpan(ty, ts.TilesY, g.Height)
		for tx := 0; tx < ts.TilesX; tx++ {
			x0, x1 := tileSpan(tx, ts.TilesX, g.Width)
			lo := float32(math.Inf(1))
			hi := float32(math.Inf(-1))
			for y := y0; y <= y1; y++ {
				for x := x0; x <= x1; x++ {
					v := g.At(x, y)
					lo = min(lo, v)
					hi = max(hi, v)
				}
			}
			ts.Min[ty*ts.TilesX+tx] = lo
			ts.Max[ty*ts.TilesX+tx] = hi
		}
	}
	return ts
}

func tileSpan(t, tiles, samples int) (int, int) {
	cells := samples - 1
	if cells <= 0 {
		return 0, 0
	}
	lo := t * cells / tiles
	hi := (t + 1) * cells / tiles
	return lo, min(hi, samples-1)
}

// MinMax returns the summary for tile (tx, ty).
func (ts TileSummary) MinMax(tx, ty int) (float32, float32) {
	i := ty*ts.TilesX + tx
	return ts.Min[i], ts.Max[i]
}
