package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500*time.Millisecond, cfg.Streaming.UpdateInterval)
	assert.Equal(t, 1, cfg.Streaming.CreationsPerTick)
	assert.Equal(t, 1, cfg.Streaming.EvictionsPerTick)
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.yaml")
	doc := `
seed: 42
chunk:
  size: 512
  height_resolution: 65
  max_depth: 3
noise:
  height:
    frequency: 0.001
    octaves: 4
    amplitude: 200
erosion:
  enabled: false
  iterations: 500
streaming:
  max_chunks: 9
  update_interval: 250ms
  async: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, float32(512), cfg.Chunk.Size)
	assert.Equal(t, 65, cfg.Chunk.HeightResolution)
	assert.Equal(t, 4, cfg.Noise.Height.Octaves)
	assert.Equal(t, 200.0, cfg.Noise.Height.Amplitude)
	assert.False(t, cfg.Erosion.Enabled)
	assert.Equal(t, 500, cfg.Erosion.Iterations)
	assert.Equal(t, 250*time.Millisecond, cfg.Streaming.UpdateInterval)
	assert.True(t, cfg.Streaming.Async)
	assert.Equal(t, 9, cfg.Streaming.MaxChunks)

	// untouched sections keep their defaults
	assert.Equal(t, Default().Noise.Biome, cfg.Noise.Biome)
	assert.Equal(t, Default().Foliage, cfg.Foliage)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("streaming:\n  max_chunks: 0\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, os.WriteFile(path, []byte("chunk: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"table size", func(c *Config) { c.Noise.GradientTableSize = 100 }, "noise.gradient_table_size"},
		{"zero depth", func(c *Config) { c.Chunk.MaxDepth = 0 }, "chunk.max_depth"},
		{"max chunks", func(c *Config) { c.Streaming.MaxChunks = 0 }, "streaming.max_chunks"},
		{"creations", func(c *Config) { c.Streaming.CreationsPerTick = 0 }, "streaming.creations_per_tick"},
		{"camera", func(c *Config) { c.Camera.Far = c.Camera.Near }, "camera.near"},
		{"resolution divisibility", func(c *Config) { c.Chunk.HeightResolution = 100 }, "resolution-1"},
		{"erosion", func(c *Config) { c.Erosion.BrushRadius = 0 }, "brush_radius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDisabledErosionSkipsValidation(t *testing.T) {
	cfg := Default()
	cfg.Erosion.Enabled = false
	cfg.Erosion.BrushRadius = 0
	assert.NoError(t, cfg.Validate())
}
