package terrain

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/erosion"
	"flight-terrain/internal/geom"
	"flight-terrain/internal/noise"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidParams is wrapped by Params.Validate.
var ErrInvalidParams = errors.New("terrain: invalid parameters")

// Params controls chunk construction.
type Params struct {
	// ChunkSize is the world-space width of a chunk; chunks are laid out
	// with this stride and chunk (0,0) is centred on the origin.
	ChunkSize float32
	// Resolution is the number of height samples per chunk side. Resolution-1
	// must be divisible by the number of leaves per side.
	Resolution int
	MaxDepth   int

	FoliageCellsPerLeaf int
	// FoliageDensity is the chance that a foliage sub-cell receives an instance.
	FoliageDensity float64
	// FoliageHeightBias raises leaf bounds so tall foliage is culled correctly.
	FoliageHeightBias float32
	// ScaleJitter is the relative scale variation driven by the randomness channel.
	ScaleJitter float32
	WaterLevel  float32
}

// DefaultParams returns the stock chunk layout.
func DefaultParams() Params {
	return Params{
		ChunkSize:           2048,
		Resolution:          129,
		MaxDepth:            5,
		FoliageCellsPerLeaf: 16,
		FoliageDensity:      1.0 / 40.0,
		FoliageHeightBias:   40,
		ScaleJitter:         0.25,
		WaterLevel:          -60,
	}
}

// LeavesPerSide is the number of quadtree leaves along a chunk edge.
func (p Params) LeavesPerSide() int {
	return 1 << (max(p.MaxDepth, 1) - 1)
}

// Validate checks parameter consistency.
func (p Params) Validate() error {
	switch {
	case p.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidParams)
	case p.MaxDepth < 1 || p.MaxDepth > 12:
		return fmt.Errorf("%w: max depth must be within [1,12]", ErrInvalidParams)
	case p.Resolution < 2:
		return fmt.Errorf("%w: resolution must be at least 2", ErrInvalidParams)
	case (p.Resolution-1)%p.LeavesPerSide() != 0:
		return fmt.Errorf("%w: resolution-1 (%d) must be divisible by %d leaves per side", ErrInvalidParams, p.Resolution-1, p.LeavesPerSide())
	case p.FoliageCellsPerLeaf < 0:
		return fmt.Errorf("%w: foliage cells per leaf cannot be negative", ErrInvalidParams)
	case p.FoliageDensity < 0 || p.FoliageDensity > 1:
		return fmt.Errorf("%w: foliage density must be within [0,1]", ErrInvalidParams)
	}
	return nil
}

// Footprint returns the world rectangle covered by chunk id.
func (p Params) Footprint(id ChunkID) geom.Rect {
	half := p.ChunkSize / 2
	return geom.NewRect(float32(id.X)*p.ChunkSize-half, float32(id.Z)*p.ChunkSize-half, p.ChunkSize, p.ChunkSize)
}

// Sources are the generators a Builder draws from.
type Sources struct {
	Height     *noise.Channel
	Biome      *noise.Channel
	Randomness *noise.Channel
	Density    *noise.DensityField
	// Erosion is optional; nil skips the erosion pass.
	Erosion *erosion.Simulator
	Biomes  *biome.Registry
}

// Builder constructs chunks: noise, erosion, tile summaries, quadtree and
// foliage placement. A Builder is safe for concurrent Build calls.
type Builder struct {
	seed   int64
	params Params
	src    Sources
}

// NewBuilder validates the configuration. The biome registry must already be
// finalized.
func NewBuilder(seed int64, params Params, src Sources) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if src.Height == nil || src.Biome == nil || src.Randomness == nil {
		return nil, fmt.Errorf("%w: height, biome and randomness channels are required", ErrInvalidParams)
	}
	if src.Biomes == nil {
		return nil, fmt.Errorf("%w: biome registry is required", ErrInvalidParams)
	}
	if !src.Biomes.Finalized() {
		return nil, fmt.Errorf("terrain builder: %w", biome.ErrNotFinalized)
	}
	return &Builder{seed: seed, params: params, src: src}, nil
}

// Params returns the builder's chunk parameters.
func (b *Builder) Params() Params { return b.params }

// Build constructs chunk id. The result depends only on the seed, the
// parameters and id.
func (b *Builder) Build(ctx context.Context, id ChunkID) (*Chunk, error) {
	p := b.params
	if !b.src.Biomes.Finalized() {
		return nil, fmt.Errorf("chunk %v foliage: %w", id, biome.ErrNotFinalized)
	}
	area := p.Footprint(id)

	heights, err := noise.Render(ctx, b.src.Height, area, p.Resolution, p.Resolution)
	if err != nil {
		return nil, fmt.Errorf("chunk %v heights: %w", id, err)
	}
	if b.src.Erosion != nil {
		seed := noise.DeriveSeed(b.src.Erosion.Params().Seed, int64(id.X), int64(id.Z))
		if _, err := b.src.Erosion.RunSeeded(ctx, heights.Values, p.Resolution, seed); err != nil {
			return nil, fmt.Errorf("chunk %v erosion: %w", id, err)
		}
	}
	biomes, err := noise.Render(ctx, b.src.Biome.NormalizedSampler(), area, p.Resolution, p.Resolution)
	if err != nil {
		return nil, fmt.Errorf("chunk %v biomes: %w", id, err)
	}

	hf := NewHeightField(heights, p.LeavesPerSide())
	pl := &placer{
		b:       b,
		heights: hf,
		biomes:  biomes,
		rng:     rand.New(rand.NewSource(noise.DeriveSeed(b.seed, int64(id.X), int64(id.Z)))),
	}
	tree := BuildQuadTree(area, p.MaxDepth, hf.Tiles, p.FoliageHeightBias, pl.place)
	if pl.err != nil {
		return nil, fmt.Errorf("chunk %v foliage: %w", id, pl.err)
	}

	return &Chunk{
		ID:        id,
		Footprint: area,
		heights:   hf,
		biomes:    biomes,
		tree:      tree,
		visible:   VisibleSet{Foliage: make(map[biome.FoliageID][]Instance)},
	}, nil
}

// placer chooses foliage for one chunk. Leaves are visited in a fixed order
// and share one seeded generator, so placement is deterministic per chunk.
// The first registry error stops placement and fails the build.
type placer struct {
	b       *Builder
	heights *HeightField
	biomes  *noise.Grid
	rng     *rand.Rand
	err     error
}

func (pl *placer) place(rect geom.Rect) []FoliageBatch {
	p := pl.b.params
	cells := p.FoliageCellsPerLeaf
	if cells == 0 || p.FoliageDensity == 0 || pl.err != nil {
		return nil
	}
	cellW := rect.Width() / float32(cells)
	cellD := rect.Depth() / float32(cells)
	amplitude := float32(pl.b.src.Height.Params().Amplitude)

	var batches []FoliageBatch
	index := make(map[biome.FoliageID]int)
	for cz := 0; cz < cells; cz++ {
		for cx := 0; cx < cells; cx++ {
			x := rect.Min[0] + (float32(cx)+pl.rng.Float32())*cellW
			z := rect.Min[1] + (float32(cz)+pl.rng.Float32())*cellD
			gate := pl.rng.Float64()
			if gate >= p.FoliageDensity*pl.b.src.Density.Value(float64(x), float64(z)) {
				continue
			}

			h := pl.heights.HeightAt(x, z)
			u, v := pl.heights.uv(x, z)
			bc := float64(pl.biomes.Bilinear(u, v))
			nh := 0.5
			if amplitude > 0 {
				nh = noise.Clamp01(0.5 + 0.5*float64(h/amplitude))
			}

			cands, err := pl.b.src.Biomes.SelectFoliage(nh, bc, h < p.WaterLevel)
			if err != nil {
				pl.err = err
				return nil
			}
			set, ok := cands.Pick(pl.rng.Float32())
			if !ok {
				continue
			}
			model, ok := pl.b.src.Biomes.PickModel(set, pl.rng.Float32())
			if !ok {
				continue
			}

			jitter := float32(2*pl.b.src.Randomness.Normalized(float64(x), float64(z)) - 1)
			placement := Placement{
				Position: mgl32.Vec3{x, h, z},
				Scale:    max(0.05, 1+p.ScaleJitter*jitter),
			}
			i, ok := index[model]
			if !ok {
				i = len(batches)
				index[model] = i
				batches = append(batches, FoliageBatch{Model: model})
			}
			batches[i].Placements = append(batches[i].Placements, placement)
		}
	}
	return batches
}
