package biome

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBiomes is returned when deriving artifacts from an empty registry.
	ErrNoBiomes = errors.New("biome: no biomes registered")
	// ErrNotFinalized is returned by queries made before Finalize, or after
	// the registry changed since the last Finalize.
	ErrNotFinalized = errors.New("biome: registry not finalized")
	// ErrEmptyBiome is returned when adding a biome without levels.
	ErrEmptyBiome = errors.New("biome: biome has no levels")
)

type level struct {
	material   int
	foliage    []FoliageID
	underwater []FoliageID
}

type entry struct {
	name   string
	levels []level
}

// MaterialsTexture maps (biome, column) to a material. Every biome row is
// Width wide, Width being the LCM of all biomes' level counts; each level
// of a biome with c levels occupies Width/c contiguous columns.
type MaterialsTexture struct {
	Width  int
	Height int
	// IDs holds dense material IDs, row-major.
	IDs []int
	// Normalized holds IDs scaled into [0, 1] for sampling on the GPU.
	Normalized []float32
}

// At returns the material ID at (column, biome row).
func (t MaterialsTexture) At(col, row int) int {
	return t.IDs[row*t.Width+col]
}

// Registry is the catalog of biomes for one world. Biomes are added during
// world setup; Finalize then derives the materials texture and list.
type Registry struct {
	biomes []entry

	materialIDs map[*Material]int
	materials   []*Material

	foliageIDs map[string]FoliageID
	foliage    []FoliageModel

	finalized bool
	columns   int
	texture   MaterialsTexture
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		materialIDs: make(map[*Material]int),
		foliageIDs:  make(map[string]FoliageID),
	}
}

// Add registers a biome and returns its index. Adding invalidates any
// previously derived artifacts until Finalize is called again.
func (r *Registry) Add(b Biome) (int, error) {
	if len(b.Levels) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrEmptyBiome, b.Name)
	}
	e := entry{name: b.Name, levels: make([]level, len(b.Levels))}
	for i, l := range b.Levels {
		if l.Material == nil {
			return 0, fmt.Errorf("biome %q level %d: material is nil", b.Name, i)
		}
		e.levels[i] = level{
			material:   r.materialID(l.Material),
			foliage:    r.internAll(l.Foliage),
			underwater: r.internAll(l.UnderwaterFoliage),
		}
	}
	r.biomes = append(r.biomes, e)
	r.finalized = false
	return len(r.biomes) - 1, nil
}

func (r *Registry) materialID(m *Material) int {
	if id, ok := r.materialIDs[m]; ok {
		return id
	}
	id := len(r.materials)
	r.materialIDs[m] = id
	r.materials = append(r.materials, m)
	return id
}

// Intern returns the identity of model, registering it on first sight.
func (r *Registry) Intern(model FoliageModel) FoliageID {
	key := model.Key()
	if id, ok := r.foliageIDs[key]; ok {
		return id
	}
	id := FoliageID(len(r.foliage))
	r.foliageIDs[key] = id
	model.LODs = append([]FoliageLOD(nil), model.LODs...)
	r.foliage = append(r.foliage, model)
	return id
}

func (r *Registry) internAll(models []FoliageModel) []FoliageID {
	if len(models) == 0 {
		return nil
	}
	ids := make([]FoliageID, len(models))
	for i, m := range models {
		ids[i] = r.Intern(m)
	}
	return ids
}

// Finalize derives the materials texture from the full registry.
func (r *Registry) Finalize() error {
	if len(r.biomes) == 0 {
		return ErrNoBiomes
	}
	counts := make([]int, len(r.biomes))
	for i, b := range r.biomes {
		counts[i] = len(b.levels)
	}
	width := LCM(counts...)

	tex := MaterialsTexture{
		Width:      width,
		Height:     len(r.biomes),
		IDs:        make([]int, width*len(r.biomes)),
		Normalized: make([]float32, width*len(r.biomes)),
	}
	scale := float32(0)
	if len(r.materials) > 1 {
		scale = 1 / float32(len(r.materials)-1)
	}
	for row, b := range r.biomes {
		repeat := width / len(b.levels)
		for col := 0; col < width; col++ {
			id := b.levels[col/repeat].material
			tex.IDs[row*width+col] = id
			tex.Normalized[row*width+col] = float32(id) * scale
		}
	}

	r.columns = width
	r.texture = tex
	r.finalized = true
	return nil
}

// Finalized reports whether derived artifacts reflect the current registry.
func (r *Registry) Finalized() bool { return r.finalized }

// Len returns the number of registered biomes.
func (r *Registry) Len() int { return len(r.biomes) }

// Name returns the name of biome i.
func (r *Registry) Name(i int) string { return r.biomes[i].name }

// MaterialsTexture returns the derived (biome, level) to material table.
func (r *Registry) MaterialsTexture() (MaterialsTexture, error) {
	if !r.finalized {
		return MaterialsTexture{}, ErrNotFinalized
	}
	return r.texture, nil
}

// MaterialsList returns materials ordered by their dense ID.
func (r *Registry) MaterialsList() ([]*Material, error) {
	if !r.finalized {
		return nil, ErrNotFinalized
	}
	return append([]*Material(nil), r.materials...), nil
}

// Foliage returns the model registered under id.
func (r *Registry) Foliage(id FoliageID) FoliageModel {
	return r.foliage[id]
}

// FoliageCount returns the number of distinct foliage models.
func (r *Registry) FoliageCount() int { return len(r.foliage) }

// SelectFoliage blends the foliage sets of the four (biome, level) cells
// surrounding the normalized coordinates. Both axes go through StepGradient,
// so far from a boundary a single cell carries all the weight.
func (r *Registry) SelectFoliage(height, biome float64, underwater bool) (Candidates, error) {
	var c Candidates
	if !r.finalized {
		return c, ErrNotFinalized
	}
	col, u := StepGradient(r.columns, height)
	row, v := StepGradient(len(r.biomes), biome)
	col1 := min(col+1, r.columns-1)
	row1 := min(row+1, len(r.biomes)-1)

	fu, fv := float32(u), float32(v)
	c.add((1-fu)*(1-fv), r.cellFoliage(row, col, underwater))
	c.add(fu*(1-fv), r.cellFoliage(row, col1, underwater))
	c.add((1-fu)*fv, r.cellFoliage(row1, col, underwater))
	c.add(fu*fv, r.cellFoliage(row1, col1, underwater))
	return c, nil
}

func (r *Registry) cellFoliage(row, col int, underwater bool) []FoliageID {
	b := r.biomes[row]
	l := b.levels[col/(r.columns/len(b.levels))]
	if underwater {
		return l.underwater
	}
	return l.foliage
}

// PickModel roulette-selects a model from a candidate set by Chance.
func (r *Registry) PickModel(set Candidate, draw float32) (FoliageID, bool) {
	i := Roulette(set.Models, func(id FoliageID) float32 { return r.foliage[id].Chance }, draw)
	if i < 0 {
		return 0, false
	}
	return set.Models[i], true
}

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of values. Non-positive values are
// ignored; an empty input yields 1.
func LCM(values ...int) int {
	l := 1
	for _, v := range values {
		if v <= 0 {
			continue
		}
		l = l / GCD(l, v) * v
	}
	return l
}
