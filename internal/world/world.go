package world

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/config"
	"flight-terrain/internal/erosion"
	"flight-terrain/internal/geom"
	"flight-terrain/internal/noise"
	"flight-terrain/internal/profiling"
	"flight-terrain/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer receives the world's textures and each frame's visible geometry.
// All calls arrive on the tick goroutine; slices are only valid for the
// duration of the call.
type Renderer interface {
	// UploadMaterials receives the biome materials table once, at world
	// construction.
	UploadMaterials(tex biome.MaterialsTexture)
	// UploadHeightTiles receives a chunk's per-tile (min, max) heights,
	// row-major, when the chunk becomes live.
	UploadHeightTiles(id terrain.ChunkID, tilesPerSide int, tiles []float32)
	// ReleaseHeightTiles is called when a chunk is evicted.
	ReleaseHeightTiles(id terrain.ChunkID)

	DrawTerrain(patches []geom.Rect)
	DrawFoliage(id biome.FoliageID, model biome.FoliageModel, instances []terrain.Instance)
}

// Stats is a snapshot of world activity.
type Stats struct {
	LiveChunks int
	Pending    int
	Created    uint64
	Evicted    uint64
	Dropped    uint64
	Center     terrain.ChunkID

	// Per-frame counts from the last Tick.
	Patches   int
	Instances int
	TickTime  time.Duration
}

// World ties the streamer, the live chunk set and per-frame culling
// together. It is driven from a single goroutine.
type World struct {
	cfg      *config.Config
	registry *biome.Registry
	builder  ChunkBuilder
	store    *ChunkStore
	streamer *ChunkStreamer
	renderer Renderer
	logger   *log.Logger
	profiler *profiling.Profiler

	frame  *terrain.VisibleSet
	stats  Stats
	closed bool
}

// Option customizes a World.
type Option func(*World)

// WithLogger sets the logger; the default discards output.
func WithLogger(l *log.Logger) Option { return func(w *World) { w.logger = l } }

// WithProfiler sets the profiler; the default is profiling.Default.
func WithProfiler(p *profiling.Profiler) Option { return func(w *World) { w.profiler = p } }

// WithRenderer sets the frame consumer.
func WithRenderer(r Renderer) Option { return func(w *World) { w.renderer = r } }

// WithBuilder replaces the noise-backed chunk builder.
func WithBuilder(b ChunkBuilder) Option { return func(w *World) { w.builder = b } }

// New validates cfg and the biome registry and assembles a world. The
// registry must hold at least one biome and be finalized, and must not be
// changed afterwards: chunk builds fail with biome.ErrNotFinalized if it is.
func New(cfg *config.Config, reg *biome.Registry, opts ...Option) (*World, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil || reg.Len() == 0 {
		return nil, fmt.Errorf("world: %w", biome.ErrNoBiomes)
	}
	if !reg.Finalized() {
		return nil, fmt.Errorf("world: %w", biome.ErrNotFinalized)
	}

	w := &World{
		cfg:      cfg,
		registry: reg,
		store:    NewChunkStore(),
		logger:   log.New(io.Discard, "", 0),
		profiler: profiling.Default,
		frame:    terrain.NewVisibleSet(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.builder == nil {
		b, err := NewTerrainBuilder(cfg, reg)
		if err != nil {
			return nil, err
		}
		w.builder = b
	}

	s := cfg.Streaming
	w.streamer = NewChunkStreamer(w.store, w.builder, StreamParams{
		ChunkSize:        cfg.Chunk.Size,
		MaxChunks:        s.MaxChunks,
		UpdateInterval:   s.UpdateInterval,
		CreationsPerTick: s.CreationsPerTick,
		EvictionsPerTick: s.EvictionsPerTick,
		Async:            s.Async,
		Workers:          s.Workers,
	}, w.logger, w.profiler)

	if w.renderer != nil {
		tex, err := reg.MaterialsTexture()
		if err != nil {
			w.streamer.Close()
			return nil, fmt.Errorf("world materials: %w", err)
		}
		w.renderer.UploadMaterials(tex)
		w.streamer.onInstall = w.uploadChunk
		w.streamer.onEvict = w.renderer.ReleaseHeightTiles
	}
	return w, nil
}

func (w *World) uploadChunk(c *terrain.Chunk) {
	hf := c.Heights()
	if hf == nil {
		return
	}
	w.renderer.UploadHeightTiles(c.ID, hf.Tiles.TilesX, c.TileTexture())
}

// NewTerrainBuilder wires the noise channels, the optional erosion pass and
// the biome registry into a terrain.Builder.
func NewTerrainBuilder(cfg *config.Config, reg *biome.Registry) (*terrain.Builder, error) {
	n := cfg.Noise
	height, err := noise.NewChannel(cfg.Seed, noise.ChannelHeight, n.GradientTableSize, n.Height.Params())
	if err != nil {
		return nil, fmt.Errorf("height channel: %w", err)
	}
	biomes, err := noise.NewChannel(cfg.Seed, noise.ChannelBiome, n.GradientTableSize, n.Biome.Params())
	if err != nil {
		return nil, fmt.Errorf("biome channel: %w", err)
	}
	randomness, err := noise.NewChannel(cfg.Seed, noise.ChannelRandomness, n.GradientTableSize, n.Randomness.Params())
	if err != nil {
		return nil, fmt.Errorf("randomness channel: %w", err)
	}
	src := terrain.Sources{
		Height:     height,
		Biome:      biomes,
		Randomness: randomness,
		Biomes:     reg,
	}
	if n.Density.Frequency > 0 {
		src.Density = noise.NewDensityField(cfg.Seed, n.Density.Frequency)
	}
	if cfg.Erosion.Enabled {
		sim, err := erosion.New(cfg.Erosion.Params)
		if err != nil {
			return nil, fmt.Errorf("erosion: %w", err)
		}
		src.Erosion = sim
	}
	return terrain.NewBuilder(cfg.Seed, cfg.TerrainParams(), src)
}

// Tick advances the simulation by dt: it streams chunks around the camera,
// culls every live chunk against the camera frustum, and submits the merged
// visible set to the renderer. The returned set is valid until the next
// Tick.
func (w *World) Tick(ctx context.Context, dt time.Duration, cam geom.Camera) (*terrain.VisibleSet, error) {
	if w.closed {
		return nil, fmt.Errorf("world: tick after close")
	}
	start := time.Now()
	w.profiler.ResetFrame()
	defer w.profiler.Track("world.Tick")()

	if _, err := w.streamer.Tick(ctx, dt, cam.Position); err != nil {
		return nil, err
	}

	stopCull := w.profiler.Track("world.Cull")
	frustum := cam.Frustum()
	w.frame.Reset()
	for _, chunk := range w.store.All() {
		w.frame.Append(chunk.Update(&frustum, cam.Position))
	}
	w.frame.ApplyLOD(w.registry)
	w.frame.SortBackToFront()
	stopCull()

	if w.renderer != nil {
		stopDraw := w.profiler.Track("world.Submit")
		w.renderer.DrawTerrain(w.frame.Patches)
		for _, id := range w.foliageIDs() {
			w.renderer.DrawFoliage(id, w.registry.Foliage(id), w.frame.Foliage[id])
		}
		stopDraw()
	}

	w.stats.Patches = len(w.frame.Patches)
	w.stats.Instances = w.frame.InstanceCount()
	w.stats.TickTime = time.Since(start)
	if slow := w.cfg.Streaming.SlowTick; slow > 0 && w.stats.TickTime > slow {
		w.logger.Printf("slow tick %v: %s", w.stats.TickTime, w.profiler.TopN(4))
	}
	return w.frame, nil
}

func (w *World) foliageIDs() []biome.FoliageID {
	ids := make([]biome.FoliageID, 0, len(w.frame.Foliage))
	for id, list := range w.frame.Foliage {
		if len(list) > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Stats returns current counters.
func (w *World) Stats() Stats {
	s := w.stats
	s.LiveChunks = w.store.Len()
	s.Pending = w.streamer.Pending()
	s.Created, s.Evicted, s.Dropped = w.streamer.Totals()
	s.Center = w.streamer.Center()
	return s
}

// Chunks returns the live chunks in ID order.
func (w *World) Chunks() []*terrain.Chunk { return w.store.All() }

// Chunk returns the live chunk for id, or nil.
func (w *World) Chunk(id terrain.ChunkID) *terrain.Chunk { return w.store.Get(id) }

// HeightAt returns the terrain elevation at (x, z) if the chunk covering it
// is live.
func (w *World) HeightAt(x, z float32) (float32, bool) {
	id := CameraChunk(mgl32.Vec3{x, 0, z}, w.cfg.Chunk.Size)
	c := w.store.Get(id)
	if c == nil || c.Heights() == nil {
		return 0, false
	}
	return c.Heights().HeightAt(x, z), true
}

// Registry returns the world's biome registry.
func (w *World) Registry() *biome.Registry { return w.registry }

// Close stops background builds and releases every live chunk.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.closed = true
	w.streamer.Close()
	if w.renderer != nil {
		for _, id := range w.store.IDs() {
			w.renderer.ReleaseHeightTiles(id)
		}
	}
	n := w.store.Clear()
	w.logger.Printf("world closed, released %d chunks", n)
}
