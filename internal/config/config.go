package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"time"

	"flight-terrain/internal/erosion"
	"flight-terrain/internal/noise"
	"flight-terrain/internal/terrain"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config holds every tunable consumed at world construction time.
type Config struct {
	Seed      int64         `yaml:"seed"`
	Chunk     ChunkConfig   `yaml:"chunk"`
	Noise     NoiseConfig   `yaml:"noise"`
	Erosion   ErosionConfig `yaml:"erosion"`
	Foliage   FoliageConfig `yaml:"foliage"`
	Streaming StreamConfig  `yaml:"streaming"`
	Camera    CameraConfig  `yaml:"camera"`
}

// ChunkConfig describes the chunk grid and quadtree.
type ChunkConfig struct {
	Size             float32 `yaml:"size"`
	HeightResolution int     `yaml:"height_resolution"`
	MaxDepth         int     `yaml:"max_depth"`
}

// ChannelConfig configures one octave noise channel.
type ChannelConfig struct {
	Frequency float64 `yaml:"frequency"`
	Octaves   int     `yaml:"octaves"`
	Amplitude float64 `yaml:"amplitude"`
}

// Params converts to the noise package's form.
func (c ChannelConfig) Params() noise.ChannelParams {
	return noise.ChannelParams{Frequency: c.Frequency, Octaves: c.Octaves, Amplitude: c.Amplitude}
}

// DensityConfig configures the foliage density channel. A zero frequency
// disables it.
type DensityConfig struct {
	Frequency float64 `yaml:"frequency"`
}

// NoiseConfig groups the noise channels.
type NoiseConfig struct {
	GradientTableSize int           `yaml:"gradient_table_size"`
	Height            ChannelConfig `yaml:"height"`
	Biome             ChannelConfig `yaml:"biome"`
	Randomness        ChannelConfig `yaml:"randomness"`
	Density           DensityConfig `yaml:"density"`
}

// ErosionConfig wraps the simulator tunables with an on/off switch.
type ErosionConfig struct {
	Enabled        bool `yaml:"enabled"`
	erosion.Params `yaml:",inline"`
}

// FoliageConfig controls foliage placement inside quadtree leaves.
type FoliageConfig struct {
	CellsPerLeaf int     `yaml:"cells_per_leaf"`
	Density      float64 `yaml:"density"`
	HeightBias   float32 `yaml:"height_bias"`
	ScaleJitter  float32 `yaml:"scale_jitter"`
	WaterLevel   float32 `yaml:"water_level"`
}

// StreamConfig controls the chunk streamer.
type StreamConfig struct {
	MaxChunks        int           `yaml:"max_chunks"`
	UpdateInterval   time.Duration `yaml:"update_interval"`
	CreationsPerTick int           `yaml:"creations_per_tick"`
	EvictionsPerTick int           `yaml:"evictions_per_tick"`
	Async            bool          `yaml:"async"`
	Workers          int           `yaml:"workers"`
	// SlowTick is the tick duration above which the world logs its top
	// profiling buckets. Zero disables the notice.
	SlowTick time.Duration `yaml:"slow_tick"`
}

// CameraConfig describes the projection used by the headless simulator.
type CameraConfig struct {
	FovY   float32 `yaml:"fov_y"`
	Aspect float32 `yaml:"aspect"`
	Near   float32 `yaml:"near"`
	Far    float32 `yaml:"far"`
}

// Default returns the stock flight-terrain configuration.
func Default() *Config {
	tp := terrain.DefaultParams()
	return &Config{
		Seed: 1337,
		Chunk: ChunkConfig{
			Size:             tp.ChunkSize,
			HeightResolution: tp.Resolution,
			MaxDepth:         tp.MaxDepth,
		},
		Noise: NoiseConfig{
			GradientTableSize: noise.DefaultTableSize,
			Height:            ChannelConfig{Frequency: 1.0 / 4096, Octaves: 6, Amplitude: 600},
			Biome:             ChannelConfig{Frequency: 1.0 / 8192, Octaves: 3, Amplitude: 1},
			Randomness:        ChannelConfig{Frequency: 1.0 / 64, Octaves: 2, Amplitude: 1},
			Density:           DensityConfig{Frequency: 1.0 / 1024},
		},
		Erosion: ErosionConfig{Enabled: true, Params: erosion.DefaultParams()},
		Foliage: FoliageConfig{
			CellsPerLeaf: tp.FoliageCellsPerLeaf,
			Density:      tp.FoliageDensity,
			HeightBias:   tp.FoliageHeightBias,
			ScaleJitter:  tp.ScaleJitter,
			WaterLevel:   tp.WaterLevel,
		},
		Streaming: StreamConfig{
			MaxChunks:        16,
			UpdateInterval:   500 * time.Millisecond,
			CreationsPerTick: 1,
			EvictionsPerTick: 1,
			SlowTick:         50 * time.Millisecond,
		},
		Camera: CameraConfig{FovY: 60, Aspect: 16.0 / 9.0, Near: 1, Far: 20000},
	}
}

// Load reads a YAML file on top of Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TerrainParams converts the chunk and foliage sections.
func (c *Config) TerrainParams() terrain.Params {
	return terrain.Params{
		ChunkSize:           c.Chunk.Size,
		Resolution:          c.Chunk.HeightResolution,
		MaxDepth:            c.Chunk.MaxDepth,
		FoliageCellsPerLeaf: c.Foliage.CellsPerLeaf,
		FoliageDensity:      c.Foliage.Density,
		FoliageHeightBias:   c.Foliage.HeightBias,
		ScaleJitter:         c.Foliage.ScaleJitter,
		WaterLevel:          c.Foliage.WaterLevel,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	invalid := func(field, rule string) error {
		return fmt.Errorf("%w: %s must %s", ErrInvalid, field, rule)
	}
	switch {
	case c.Chunk.Size <= 0:
		return invalid("chunk.size", "be positive")
	case c.Chunk.MaxDepth < 1:
		return invalid("chunk.max_depth", "be at least 1")
	case c.Chunk.HeightResolution < 2:
		return invalid("chunk.height_resolution", "be at least 2")
	case c.Noise.GradientTableSize <= 0 || bits.OnesCount(uint(c.Noise.GradientTableSize)) != 1:
		return invalid("noise.gradient_table_size", "be a power of two")
	case c.Noise.Height.Octaves < 0:
		return invalid("noise.height.octaves", "not be negative")
	case c.Noise.Biome.Octaves < 0:
		return invalid("noise.biome.octaves", "not be negative")
	case c.Noise.Randomness.Octaves < 0:
		return invalid("noise.randomness.octaves", "not be negative")
	case c.Noise.Density.Frequency < 0:
		return invalid("noise.density.frequency", "not be negative")
	case c.Streaming.MaxChunks < 1:
		return invalid("streaming.max_chunks", "be at least 1")
	case c.Streaming.UpdateInterval < 0:
		return invalid("streaming.update_interval", "not be negative")
	case c.Streaming.CreationsPerTick < 1:
		return invalid("streaming.creations_per_tick", "be at least 1")
	case c.Streaming.EvictionsPerTick < 1:
		return invalid("streaming.evictions_per_tick", "be at least 1")
	case c.Streaming.Workers < 0:
		return invalid("streaming.workers", "not be negative")
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return invalid("camera.near", "be positive and below camera.far")
	}
	if err := c.TerrainParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Erosion.Enabled {
		if err := c.Erosion.Params.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}
