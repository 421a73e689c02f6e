package preview

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/geom"
	"flight-terrain/internal/noise"
	"flight-terrain/internal/terrain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampGrid() *noise.Grid {
	g := noise.NewGrid(geom.NewRect(0, 0, 8, 8), 9, 9)
	for row := 0; row < 9; row++ {
		for col := 0; col < 9; col++ {
			g.Set(col, row, float32(col*10))
		}
	}
	return g
}

func TestGridImageLevels(t *testing.T) {
	img := GridImage(rampGrid(), 0, 80)
	assert.Equal(t, uint8(0), img.GrayAt(0, 4).Y)
	assert.Equal(t, uint8(255), img.GrayAt(8, 4).Y)
	for col := 1; col < 9; col++ {
		assert.Greater(t, img.GrayAt(col, 0).Y, img.GrayAt(col-1, 0).Y)
	}

	flat := GridImage(rampGrid(), 5, 5)
	assert.Equal(t, uint8(0), flat.GrayAt(8, 8).Y)
}

func TestTileImage(t *testing.T) {
	hf := terrain.NewHeightField(rampGrid(), 4)
	img := TileImage(hf)
	require.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, uint8(255), img.GrayAt(3, 0).Y, "highest tile is white")
	assert.Less(t, img.GrayAt(0, 0).Y, img.GrayAt(3, 0).Y)
}

func TestMaterialsImage(t *testing.T) {
	reg := biome.NewRegistry()
	require.NoError(t, biome.RegisterDefaults(reg))
	tex, err := reg.MaterialsTexture()
	require.NoError(t, err)

	img := MaterialsImage(tex)
	require.Equal(t, tex.Width, img.Bounds().Dx())
	require.Equal(t, tex.Height, img.Bounds().Dy())
	for row := 0; row < tex.Height; row++ {
		for col := 1; col < tex.Width; col++ {
			same := tex.At(col, row) == tex.At(col-1, row)
			assert.Equal(t, same, img.RGBAAt(col, row) == img.RGBAAt(col-1, row), "cell %d,%d", col, row)
		}
	}
}

func TestResizeAndEncode(t *testing.T) {
	img := Resize(GridImage(rampGrid(), 0, 80), 64, 32, false)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img))
	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)

	path := filepath.Join(t.TempDir(), "ramp.png")
	require.NoError(t, WriteFile(path, img))
	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "x.png"), img))
}

func TestChunkReleased(t *testing.T) {
	c := &terrain.Chunk{ID: terrain.ChunkID{X: 1, Z: 2}}
	c.Release()
	_, err := Chunk(c, 32)
	assert.ErrorIs(t, err, ErrReleased)
}
