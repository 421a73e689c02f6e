// Package preview renders chunk heightfields and biome tables to images for
// offline inspection.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/noise"
	"flight-terrain/internal/terrain"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrReleased is returned when previewing a chunk whose data was freed.
var ErrReleased = errors.New("preview: chunk released")

// GridImage maps every sample of g to a gray level, lo black and hi white.
func GridImage(g *noise.Grid, lo, hi float32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			img.SetGray(col, row, color.Gray{Y: level(g.At(col, row), lo, hi)})
		}
	}
	return img
}

// TileImage renders the per-tile maximum heights, one pixel per tile.
func TileImage(hf *terrain.HeightField) *image.Gray {
	ts := hf.Tiles
	lo, hi := hf.Range()
	img := image.NewGray(image.Rect(0, 0, ts.TilesX, ts.TilesY))
	for ty := 0; ty < ts.TilesY; ty++ {
		for tx := 0; tx < ts.TilesX; tx++ {
			_, top := ts.MinMax(tx, ty)
			img.SetGray(tx, ty, color.Gray{Y: level(top, lo, hi)})
		}
	}
	return img
}

func level(v, lo, hi float32) uint8 {
	if hi <= lo {
		return 0
	}
	t := (v - lo) / (hi - lo)
	return uint8(math.Round(float64(min(max(t, 0), 1)) * 255))
}

// MaterialsImage renders the materials texture, one pixel per cell, with a
// distinct color per material ID.
func MaterialsImage(t biome.MaterialsTexture) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	n := 0
	for _, id := range t.IDs {
		n = max(n, id+1)
	}
	for row := 0; row < t.Height; row++ {
		for col := 0; col < t.Width; col++ {
			img.SetRGBA(col, row, MaterialColor(t.At(col, row), n))
		}
	}
	return img
}

// MaterialColor spreads n material IDs around the hue circle.
func MaterialColor(id, n int) color.RGBA {
	if n <= 0 {
		n = 1
	}
	h := float64(id%n) / float64(n) * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	var r, g, b float64
	switch int(h) {
	case 0:
		r, g = 1, x
	case 1:
		r, g = x, 1
	case 2:
		g, b = 1, x
	case 3:
		g, b = x, 1
	case 4:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	return color.RGBA{R: uint8(r * 230), G: uint8(g * 230), B: uint8(b * 230), A: 255}
}

// Resize scales src to width x height. Smooth selects Catmull-Rom filtering;
// otherwise nearest neighbour keeps tile edges crisp.
func Resize(src image.Image, width, height int, smooth bool) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	var s xdraw.Scaler = xdraw.NearestNeighbor
	if smooth {
		s = xdraw.CatmullRom
	}
	s.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// Label draws text in the top-left corner of img.
func Label(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 255, G: 32, B: 32, A: 255}),
		Face: face,
		Dot:  fixed.P(2, face.Metrics().Ascent.Ceil()+1),
	}
	d.DrawString(text)
}

// Chunk renders a labelled height preview of c at size x size pixels.
func Chunk(c *terrain.Chunk, size int) (*image.RGBA, error) {
	if c.Released() || c.Heights() == nil {
		return nil, fmt.Errorf("chunk %d,%d: %w", c.ID.X, c.ID.Z, ErrReleased)
	}
	hf := c.Heights()
	lo, hi := hf.Range()
	img := Resize(GridImage(hf.Grid, lo, hi), size, size, true)
	Label(img, fmt.Sprintf("%d,%d", c.ID.X, c.ID.Z))
	return img, nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// WriteFile encodes img to path.
func WriteFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
