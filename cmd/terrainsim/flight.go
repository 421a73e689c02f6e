package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/config"
	"flight-terrain/internal/geom"
	"flight-terrain/internal/preview"
	"flight-terrain/internal/profiling"
	"flight-terrain/internal/terrain"
	"flight-terrain/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Flight flies a camera over the world along a slow S-curve, holding a
// fixed height above the ground.
type Flight struct {
	world      *world.World
	renderer   *countingRenderer
	camera     config.CameraConfig
	dt         time.Duration
	speed      float32
	altitude   float32
	statsEvery int
	logger     *log.Logger

	position mgl32.Vec3
	yaw      float32
	elapsed  time.Duration
}

// Run simulates frames ticks, or until ctx is cancelled.
func (f *Flight) Run(ctx context.Context, frames int) error {
	f.position = mgl32.Vec3{0, f.altitude, 0}
	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := f.tick(ctx, i); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	s := f.world.Stats()
	f.logger.Printf("flew %d frames in %v: %d chunks created, %d evicted, %d dropped, %d draw calls",
		frames, time.Since(start).Round(time.Millisecond), s.Created, s.Evicted, s.Dropped, f.renderer.draws)
	return nil
}

func (f *Flight) tick(ctx context.Context, frame int) error {
	f.advance()

	cam := geom.NewCamera(f.position, f.yaw, -20, f.camera.FovY, f.camera.Aspect, f.camera.Near, f.camera.Far)
	f.renderer.reset()
	if _, err := f.world.Tick(ctx, f.dt, cam); err != nil {
		return err
	}

	if f.statsEvery > 0 && frame%f.statsEvery == 0 {
		s := f.world.Stats()
		f.logger.Printf("frame %d pos=(%.0f,%.0f,%.0f) center=%d,%d live=%d pending=%d patches=%d instances=%d tick=%v [%s]",
			frame, f.position.X(), f.position.Y(), f.position.Z(), s.Center.X, s.Center.Z,
			s.LiveChunks, s.Pending, s.Patches, s.Instances, s.TickTime.Round(time.Microsecond), profiling.TopN(3))
	}
	return nil
}

// advance moves the camera one frame along its path.
func (f *Flight) advance() {
	f.elapsed += f.dt
	secs := float32(f.elapsed.Seconds())
	f.yaw = 20 * float32(math.Sin(float64(secs)/8))

	step := f.speed * float32(f.dt.Seconds())
	f.position = f.position.Add(geom.FrontVector(f.yaw, 0).Mul(step))

	ground, ok := f.world.HeightAt(f.position.X(), f.position.Z())
	if !ok {
		ground = 0
	}
	target := ground + f.altitude
	// ease toward the target height to avoid jumps at chunk borders
	f.position[1] += (target - f.position[1]) * 0.1
}

// countingRenderer stands in for a GPU backend and tallies submissions.
type countingRenderer struct {
	draws     int
	patches   int
	instances int
	lods      map[int]int

	materials   int
	tileUploads int
	liveTiles   map[terrain.ChunkID]int
}

func (r *countingRenderer) UploadMaterials(tex biome.MaterialsTexture) {
	r.materials++
}

func (r *countingRenderer) UploadHeightTiles(id terrain.ChunkID, tilesPerSide int, tiles []float32) {
	if r.liveTiles == nil {
		r.liveTiles = make(map[terrain.ChunkID]int)
	}
	r.tileUploads++
	r.liveTiles[id] = len(tiles)
}

func (r *countingRenderer) ReleaseHeightTiles(id terrain.ChunkID) {
	delete(r.liveTiles, id)
}

func (r *countingRenderer) reset() {
	r.patches, r.instances = 0, 0
	clear(r.lods)
}

func (r *countingRenderer) DrawTerrain(patches []geom.Rect) {
	r.draws++
	r.patches += len(patches)
}

func (r *countingRenderer) DrawFoliage(id biome.FoliageID, model biome.FoliageModel, instances []terrain.Instance) {
	if r.lods == nil {
		r.lods = make(map[int]int)
	}
	r.draws++
	r.instances += len(instances)
	for _, in := range instances {
		r.lods[in.LOD]++
	}
}

// writePreviews saves a height preview and a tile-bounds preview per live
// chunk, plus the biome materials table.
func writePreviews(dir string, w *world.World) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	for _, c := range w.Chunks() {
		img, err := preview.Chunk(c, 256)
		if err != nil {
			return err
		}
		name := filepath.Join(dir, fmt.Sprintf("chunk_%d_%d.png", c.ID.X, c.ID.Z))
		if err := preview.WriteFile(name, img); err != nil {
			return err
		}
		tiles := preview.Resize(preview.TileImage(c.Heights()), 128, 128, false)
		name = filepath.Join(dir, fmt.Sprintf("tiles_%d_%d.png", c.ID.X, c.ID.Z))
		if err := preview.WriteFile(name, tiles); err != nil {
			return err
		}
	}
	tex, err := w.Registry().MaterialsTexture()
	if err != nil {
		return err
	}
	img := preview.Resize(preview.MaterialsImage(tex), tex.Width*16, tex.Height*16, false)
	return preview.WriteFile(filepath.Join(dir, "materials.png"), img)
}
