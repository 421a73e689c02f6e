package biome

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepGradientEndpoints(t *testing.T) {
	for n := 1; n <= 7; n++ {
		idx, blend := StepGradient(n, 0)
		assert.Equal(t, 0, idx, "n=%d t=0", n)
		assert.Zero(t, blend, "n=%d t=0", n)

		idx, blend = StepGradient(n, 1)
		assert.Equal(t, n-1, idx, "n=%d t=1", n)
		assert.Zero(t, blend, "n=%d t=1", n)
	}
}

func TestStepGradientRecoversInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for n := 2; n <= 6; n++ {
		intervals := float64(2*(n-1) + 1)
		width := 1 / intervals
		for i := 0; i < 2000; i++ {
			tv := rng.Float64()
			idx, blend := StepGradient(n, tv)
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, n)
			require.GreaterOrEqual(t, blend, 0.0)
			require.Less(t, blend, 1.0)

			lower := float64(idx*2) / intervals
			assert.LessOrEqual(t, lower, tv+1e-12)
			if blend == 0 {
				assert.Less(t, tv-lower, width+1e-12, "n=%d t=%f", n, tv)
			} else {
				// odd interval: the blend is the position inside it
				assert.InDelta(t, tv, lower+width*(1+blend), 1e-9, "n=%d t=%f", n, tv)
			}
		}
	}
}

func TestStepGradientAlternates(t *testing.T) {
	// n=3 -> 5 intervals: snap 0, blend 0->1, snap 1, blend 1->2, snap 2
	cases := []struct {
		t     float64
		idx   int
		blend float64
	}{
		{0.1, 0, 0},
		{0.3, 0, 0.5},
		{0.5, 1, 0},
		{0.7, 1, 0.5},
		{0.9, 2, 0},
	}
	for _, c := range cases {
		idx, blend := StepGradient(3, c.t)
		assert.Equal(t, c.idx, idx, "t=%v", c.t)
		assert.InDelta(t, c.blend, blend, 1e-9, "t=%v", c.t)
	}
}

func TestLCM(t *testing.T) {
	sets := [][]int{{5, 2, 3}, {4, 6}, {1}, {7, 7, 7}, {2, 3, 4, 5, 6}}
	for _, s := range sets {
		l := LCM(s...)
		for _, c := range s {
			assert.Zero(t, l%c, "LCM(%v)=%d not divisible by %d", s, l, c)
		}
	}
	assert.Equal(t, 30, LCM(5, 2, 3))
	assert.Equal(t, 12, LCM(4, 6))
	assert.Equal(t, 1, LCM())
}

func TestRouletteSelection(t *testing.T) {
	w := []float32{1, 1, 1, 1}
	assert.Equal(t, 3, RouletteWeights(w, 0.999))
	assert.Equal(t, 0, RouletteWeights(w, 0))
	assert.Equal(t, 1, RouletteWeights(w, 0.5), "threshold 2.0 is reached exactly by the second item")
	assert.Equal(t, -1, RouletteWeights(nil, 0.5))
	assert.Equal(t, -1, RouletteWeights([]float32{0, 0}, 0.5))
	assert.Equal(t, 1, RouletteWeights([]float32{0, 2, 0}, 0), "zero weight never wins, even on a zero draw")
	assert.Equal(t, 1, RouletteWeights([]float32{0, 2, 0}, 0.999))
	assert.Equal(t, 2, RouletteWeights([]float32{-1, 0, 1}, 0))

	rng := rand.New(rand.NewSource(8))
	weights := []float32{0.5, 3, 0, 1.5, 2}
	var total float32
	for _, x := range weights {
		total += x
	}
	for i := 0; i < 1000; i++ {
		r := rng.Float32()
		got := RouletteWeights(weights, r)
		var before float32
		for _, x := range weights[:got] {
			before += x
		}
		assert.Less(t, before, r*total+1e-6, "picked %d with cumulative %f below threshold %f", got, before, r*total)
		assert.GreaterOrEqual(t, before+weights[got], r*total)
	}
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, RegisterDefaults(r))
	return r
}

func TestMaterialsTextureTiling(t *testing.T) {
	r := testRegistry(t)
	tex, err := r.MaterialsTexture()
	require.NoError(t, err)

	levelCounts := []int{5, 2, 3}
	require.Equal(t, LCM(levelCounts...), tex.Width)
	require.Equal(t, 3, tex.Height)

	for row, c := range levelCounts {
		repeat := tex.Width / c
		for col := 0; col < tex.Width; col++ {
			first := tex.At((col/repeat)*repeat, row)
			assert.Equal(t, first, tex.At(col, row), "row %d col %d breaks the run", row, col)
		}
		for lvl := 0; lvl+1 < c; lvl++ {
			assert.NotEqual(t, tex.At(lvl*repeat, row), tex.At((lvl+1)*repeat, row), "row %d levels %d/%d", row, lvl, lvl+1)
		}
	}
	for _, v := range tex.Normalized {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestMaterialIDsAreDenseAndShared(t *testing.T) {
	r := testRegistry(t)
	mats, err := r.MaterialsList()
	require.NoError(t, err)
	// sand, grass, dirt, rock, snow, dune
	require.Len(t, mats, 6)
	names := make(map[string]bool)
	for _, m := range mats {
		assert.False(t, names[m.Name], "material %s listed twice", m.Name)
		names[m.Name] = true
	}

	tex, _ := r.MaterialsTexture()
	// alpine rock and temperate rock share an ID
	temperateRock := tex.At(3*(tex.Width/5), 0)
	alpineRock := tex.At(1*(tex.Width/3), 2)
	assert.Equal(t, temperateRock, alpineRock)
	assert.Equal(t, "rock", mats[temperateRock].Name)
}

func TestFoliageDeduplicatesByValue(t *testing.T) {
	r := NewRegistry()
	a := shrub("bush", 1, 2)
	b := shrub("bush", 1, 2)
	c := shrub("bush", 1, 3)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, r.Intern(a), r.Intern(b))
	assert.NotEqual(t, r.Intern(a), r.Intern(c))
	assert.Equal(t, 2, r.FoliageCount())
}

func TestRegistryRequiresFinalize(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Finalize(), ErrNoBiomes)

	_, err := r.MaterialsTexture()
	assert.ErrorIs(t, err, ErrNotFinalized)
	_, err = r.SelectFoliage(0.5, 0.5, false)
	assert.ErrorIs(t, err, ErrNotFinalized)

	_, err = r.Add(Biome{Name: "void"})
	assert.ErrorIs(t, err, ErrEmptyBiome)
	_, err = r.Add(Biome{Name: "broken", Levels: []TerrainLevel{{}}})
	assert.Error(t, err)

	require.NoError(t, RegisterDefaults(r))
	assert.True(t, r.Finalized())

	// a change invalidates derived data until the next Finalize
	_, err = r.Add(Biome{Name: "tundra", Levels: []TerrainLevel{{Material: material("ice")}}})
	require.NoError(t, err)
	_, err = r.MaterialsList()
	assert.ErrorIs(t, err, ErrNotFinalized)
	require.NoError(t, r.Finalize())
	tex, err := r.MaterialsTexture()
	require.NoError(t, err)
	assert.Equal(t, 4, tex.Height)
}

func TestSelectFoliageWeights(t *testing.T) {
	r := testRegistry(t)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		c, err := r.SelectFoliage(rng.Float64(), rng.Float64(), false)
		require.NoError(t, err)
		require.LessOrEqual(t, c.Len(), 4)
		var sum float32
		for _, s := range c.Slice() {
			assert.Greater(t, s.Weight, float32(0))
			assert.NotEmpty(t, s.Models)
			sum += s.Weight
		}
		assert.LessOrEqual(t, sum, float32(1.0001))
	}
}

func TestSelectFoliageSnapsInsideCells(t *testing.T) {
	r := testRegistry(t)
	// biome 0 (temperate) is snapped for biome coordinate 0; height 0 is the sand level
	c, err := r.SelectFoliage(0, 0, false)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, float32(1), c.At(0).Weight)
	require.Len(t, c.At(0).Models, 1)
	assert.Equal(t, "models/reeds.obj", r.Foliage(c.At(0).Models[0]).LODs[0].Mesh)

	under, err := r.SelectFoliage(0, 0, true)
	require.NoError(t, err)
	require.Equal(t, 1, under.Len())
	assert.Equal(t, "models/kelp.obj", r.Foliage(under.At(0).Models[0]).LODs[0].Mesh)

	// snow has no foliage
	top, err := r.SelectFoliage(1, 0, false)
	require.NoError(t, err)
	assert.Zero(t, top.Len())
}

func TestPickModelFollowsChance(t *testing.T) {
	r := NewRegistry()
	rare := r.Intern(shrub("rare", 1, 1))
	common := r.Intern(shrub("common", 1, 3))
	set := Candidate{Weight: 1, Models: []FoliageID{rare, common}}

	id, ok := r.PickModel(set, 0.1)
	require.True(t, ok)
	assert.Equal(t, rare, id)
	id, ok = r.PickModel(set, 0.5)
	require.True(t, ok)
	assert.Equal(t, common, id)

	_, ok = r.PickModel(Candidate{}, 0.5)
	assert.False(t, ok)
}

func TestFoliageLOD(t *testing.T) {
	m := tree("pine", 1, 1)
	assert.Equal(t, 0, m.LODFor(10))
	assert.Equal(t, 1, m.LODFor(1000))
	assert.Equal(t, 2, m.LODFor(6000))
	assert.Equal(t, -1, m.LODFor(6001))
	assert.Equal(t, float32(6000), m.MaxDistance())
}
