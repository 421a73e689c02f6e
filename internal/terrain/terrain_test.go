package terrain

import (
	"context"
	"math/rand"
	"testing"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/erosion"
	"flight-terrain/internal/geom"
	"flight-terrain/internal/noise"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		ChunkSize:           256,
		Resolution:          33,
		MaxDepth:            4,
		FoliageCellsPerLeaf: 4,
		FoliageDensity:      0.5,
		FoliageHeightBias:   40,
		ScaleJitter:         0.25,
		WaterLevel:          -30,
	}
}

func testBuilder(t testing.TB, p Params, withErosion bool) *Builder {
	t.Helper()
	const seed = 2024
	ch := func(id int, freq float64, octaves int, amp float64) *noise.Channel {
		c, err := noise.NewChannel(seed, id, noise.DefaultTableSize, noise.ChannelParams{Frequency: freq, Octaves: octaves, Amplitude: amp})
		require.NoError(t, err)
		return c
	}
	reg := biome.NewRegistry()
	require.NoError(t, biome.RegisterDefaults(reg))

	src := Sources{
		Height:     ch(noise.ChannelHeight, 1.0/200, 5, 100),
		Biome:      ch(noise.ChannelBiome, 1.0/600, 2, 1),
		Randomness: ch(noise.ChannelRandomness, 1.0/10, 1, 1),
		Density:    noise.NewDensityField(seed, 0),
		Biomes:     reg,
	}
	if withErosion {
		ep := erosion.DefaultParams()
		ep.Iterations = 300
		sim, err := erosion.New(ep)
		require.NoError(t, err)
		src.Erosion = sim
	}
	b, err := NewBuilder(seed, p, src)
	require.NoError(t, err)
	return b
}

func buildChunk(t testing.TB, b *Builder, id ChunkID) *Chunk {
	t.Helper()
	c, err := b.Build(context.Background(), id)
	require.NoError(t, err)
	return c
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero chunk size", func(p *Params) { p.ChunkSize = 0 }},
		{"zero depth", func(p *Params) { p.MaxDepth = 0 }},
		{"tiny resolution", func(p *Params) { p.Resolution = 1 }},
		{"resolution not divisible", func(p *Params) { p.Resolution = 30 }},
		{"negative cells", func(p *Params) { p.FoliageCellsPerLeaf = -1 }},
		{"density above one", func(p *Params) { p.FoliageDensity = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParams)
		})
	}
	assert.NoError(t, testParams().Validate())
	assert.NoError(t, DefaultParams().Validate())
}

func TestNewBuilderRequiresFinalizedRegistry(t *testing.T) {
	reg := biome.NewRegistry()
	c, err := noise.NewChannel(1, noise.ChannelHeight, 64, noise.ChannelParams{Frequency: 1, Octaves: 1, Amplitude: 1})
	require.NoError(t, err)
	_, err = NewBuilder(1, testParams(), Sources{Height: c, Biome: c, Randomness: c, Biomes: reg})
	assert.ErrorIs(t, err, biome.ErrNotFinalized)

	_, err = NewBuilder(1, testParams(), Sources{Height: c, Biomes: reg})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestBuildFailsWhenRegistryChangesAfterSetup(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	chunk := buildChunk(t, b, ChunkID{0, 0})

	_, err := b.src.Biomes.Add(biome.Biome{
		Name:   "late",
		Levels: []biome.TerrainLevel{{Material: &biome.Material{Name: "mud"}}},
	})
	require.NoError(t, err)

	_, err = b.Build(context.Background(), ChunkID{1, 0})
	require.ErrorIs(t, err, biome.ErrNotFinalized)
	assert.Contains(t, err.Error(), "foliage")

	// The placer itself stops at the first registry error.
	pl := &placer{b: b, heights: chunk.Heights(), biomes: chunk.Biomes(), rng: rand.New(rand.NewSource(7))}
	assert.Nil(t, pl.place(chunk.Footprint))
	assert.ErrorIs(t, pl.err, biome.ErrNotFinalized)
	assert.Nil(t, pl.place(chunk.Footprint))
}

func TestFootprintCentersChunkZero(t *testing.T) {
	p := testParams()
	r := p.Footprint(ChunkID{0, 0})
	assert.Equal(t, mgl32.Vec2{-128, -128}, r.Min)
	assert.Equal(t, mgl32.Vec2{128, 128}, r.Max)
	n := p.Footprint(ChunkID{1, -1})
	assert.Equal(t, mgl32.Vec2{128, -384}, n.Min)
}

func TestBuildIsDeterministic(t *testing.T) {
	b := testBuilder(t, testParams(), true)
	a := buildChunk(t, b, ChunkID{3, -2})
	c := buildChunk(t, b, ChunkID{3, -2})

	assert.Equal(t, a.Heights().Grid.Values, c.Heights().Grid.Values)
	require.Equal(t, a.Tree().Len(), c.Tree().Len())
	for i := 0; i < a.Tree().Len(); i++ {
		assert.Equal(t, a.Tree().Node(NodeIndex(i)).Foliage, c.Tree().Node(NodeIndex(i)).Foliage, "node %d", i)
	}

	other := buildChunk(t, b, ChunkID{4, -2})
	assert.NotEqual(t, a.Heights().Grid.Values, other.Heights().Grid.Values)
}

func TestNeighbouringChunksShareEdges(t *testing.T) {
	b := testBuilder(t, testParams(), true)
	left := buildChunk(t, b, ChunkID{0, 0}).Heights().Grid
	right := buildChunk(t, b, ChunkID{1, 0}).Heights().Grid
	for row := 0; row < left.Height; row++ {
		assert.Equal(t, left.At(left.Width-1, row), right.At(0, row), "row %d", row)
	}
}

func TestQuadTreeShape(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	c := buildChunk(t, b, ChunkID{0, 0})
	tree := c.Tree()

	// 1 + 4 + 16 + 64
	require.Equal(t, 85, tree.Len())
	leaves := 0
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(NodeIndex(i))
		if n.Leaf {
			leaves++
			assert.Equal(t, tree.MaxDepth()-1, n.Depth)
			for _, ch := range n.Children {
				assert.Equal(t, NoNode, ch)
			}
			continue
		}
		assert.Empty(t, n.Foliage, "interior node %d carries foliage", i)
		for _, ch := range n.Children {
			require.NotEqual(t, NoNode, ch)
			assert.Equal(t, n.Depth+1, tree.Node(ch).Depth)
		}
	}
	assert.Equal(t, 64, leaves)
}

func collectLeaves(tree *QuadTree, i NodeIndex, out *[]*Node) {
	n := tree.Node(i)
	if n.Leaf {
		*out = append(*out, n)
		return
	}
	for _, c := range n.Children {
		collectLeaves(tree, c, out)
	}
}

func TestBoundingVolumeContainment(t *testing.T) {
	p := testParams()
	b := testBuilder(t, p, true)
	c := buildChunk(t, b, ChunkID{-1, 2})
	tree := c.Tree()

	const eps = 1e-3
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(NodeIndex(i))
		if n.Leaf {
			continue
		}
		var leaves []*Node
		collectLeaves(tree, NodeIndex(i), &leaves)
		for _, l := range leaves {
			assert.LessOrEqual(t, n.Bounds.MinY(), l.Bounds.MinY()+eps, "node %d", i)
			assert.GreaterOrEqual(t, n.Bounds.MaxY()+eps, l.Bounds.MaxY(), "node %d", i)
		}
	}

	// leaves enclose every sample and every placement inside them
	grid := c.Heights().Grid
	var leaves []*Node
	collectLeaves(tree, 0, &leaves)
	for _, l := range leaves {
		for row := 0; row < grid.Height; row++ {
			for col := 0; col < grid.Width; col++ {
				x, z := grid.Position(col, row)
				pt := mgl32.Vec2{float32(x), float32(z)}
				if !l.Rect.Contains(pt) {
					continue
				}
				h := grid.At(col, row)
				assert.GreaterOrEqual(t, h+eps, l.Bounds.MinY())
				assert.LessOrEqual(t, h, l.Bounds.MaxY()-p.FoliageHeightBias+eps)
			}
		}
		for _, fb := range l.Foliage {
			for _, pl := range fb.Placements {
				assert.True(t, pl.Position[0] >= l.Rect.Min[0] && pl.Position[0] <= l.Rect.Max[0])
				assert.True(t, pl.Position[2] >= l.Rect.Min[1] && pl.Position[2] <= l.Rect.Max[1])
				assert.GreaterOrEqual(t, pl.Position[1]+eps, l.Bounds.MinY())
				assert.LessOrEqual(t, pl.Position[1], l.Bounds.MaxY()+eps)
			}
		}
	}
}

func TestFoliageIsPlaced(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	c := buildChunk(t, b, ChunkID{0, 0})
	assert.Greater(t, c.Tree().PlacementCount(), 0)

	p := testParams()
	p.FoliageDensity = 0
	bare := buildChunk(t, testBuilder(t, p, false), ChunkID{0, 0})
	assert.Zero(t, bare.Tree().PlacementCount())
}

func overheadCamera() geom.Camera {
	return geom.NewCamera(mgl32.Vec3{0, 3000, 0}, -90, -89, 90, 1, 1, 10000)
}

func TestFillVisibleSetWholeChunk(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	c := buildChunk(t, b, ChunkID{0, 0})
	cam := overheadCamera()
	f := cam.Frustum()

	vs := c.Update(&f, cam.Position)
	assert.Len(t, vs.Patches, 64)
	assert.Equal(t, c.Tree().PlacementCount(), vs.InstanceCount())

	// a second update replaces rather than accumulates
	vs = c.Update(&f, cam.Position)
	assert.Len(t, vs.Patches, 64)
}

func TestFillVisibleSetCullsChunkBehindCamera(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	c := buildChunk(t, b, ChunkID{0, 0})
	cam := geom.NewCamera(mgl32.Vec3{0, 50, 2000}, 90, 0, 60, 1.5, 1, 10000)
	f := cam.Frustum()

	vs := c.Update(&f, cam.Position)
	assert.Empty(t, vs.Patches)
	assert.Zero(t, vs.InstanceCount())
}

func TestFillVisibleSetPartial(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	c := buildChunk(t, b, ChunkID{0, 0})
	// west of the chunk looking east and down through a narrow lens
	cam := geom.NewCamera(mgl32.Vec3{-200, 300, 0}, 0, -45, 20, 1, 1, 10000)
	f := cam.Frustum()

	vs := c.Update(&f, cam.Position)
	assert.NotEmpty(t, vs.Patches)
	assert.Less(t, len(vs.Patches), 64)
}

func TestVisibleSetSortAndLOD(t *testing.T) {
	reg := biome.NewRegistry()
	id := reg.Intern(biome.FoliageModel{Chance: 1, LODs: []biome.FoliageLOD{
		{Mesh: "a", MaxDistance: 10},
		{Mesh: "b", MaxDistance: 100},
	}})

	vs := NewVisibleSet()
	eye := mgl32.Vec3{}
	for _, d := range []float32{5, 50, 500, 20, 1} {
		vs.addInstance(id, Placement{Position: mgl32.Vec3{d, 0, 0}, Scale: 1}, eye)
	}
	vs.ApplyLOD(reg)
	vs.SortBackToFront()

	list := vs.Foliage[id]
	require.Len(t, list, 4)
	want := []float32{50, 20, 5, 1}
	for i, in := range list {
		assert.InDelta(t, want[i], in.Distance, 1e-4)
		assert.Equal(t, want[i], in.Transform.Col(3).X())
	}
	assert.Equal(t, 1, list[0].LOD)
	assert.Equal(t, 0, list[3].LOD)
}

func TestPlacementTransform(t *testing.T) {
	p := Placement{Position: mgl32.Vec3{1, 2, 3}, Scale: 2}
	m := p.Transform()
	got := m.Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	assert.Equal(t, mgl32.Vec4{3, 4, 5, 1}, got)
}

func TestChunkReleaseOnce(t *testing.T) {
	b := testBuilder(t, testParams(), false)
	c := buildChunk(t, b, ChunkID{0, 0})
	assert.Len(t, c.TileTexture(), 2*64)

	assert.True(t, c.Release())
	assert.False(t, c.Release())
	assert.True(t, c.Released())
	assert.Nil(t, c.Tree())
	assert.Nil(t, c.TileTexture())

	cam := overheadCamera()
	f := cam.Frustum()
	assert.Empty(t, c.Update(&f, cam.Position).Patches)
}

func BenchmarkBuildChunk(b *testing.B) {
	builder := testBuilder(b, DefaultParams(), true)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := builder.Build(context.Background(), ChunkID{i, 0}); err != nil {
			b.Fatal(err)
		}
	}
}
