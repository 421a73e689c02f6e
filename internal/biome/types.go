package biome

import (
	"strconv"
	"strings"
)

// Material is a terrain material handle supplied by the asset loader. The
// terrain core only carries the texture references; it never decodes them.
type Material struct {
	Name     string
	Diffuse  string
	Normal   string
	Specular string
}

// FoliageLOD is one level-of-detail variant of a foliage model.
type FoliageLOD struct {
	Mesh        string
	Material    string
	Scale       float32
	MaxDistance float32
}

// FoliageModel is a weighted choice among LOD variants. Two models with the
// same LODs and Chance are the same model.
type FoliageModel struct {
	LODs   []FoliageLOD
	Chance float32
}

// Key returns a string that is equal for equal models.
func (m FoliageModel) Key() string {
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(float64(m.Chance), 'g', -1, 32))
	for _, l := range m.LODs {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(l.Mesh))
		b.WriteByte(',')
		b.WriteString(strconv.Quote(l.Material))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(float64(l.Scale), 'g', -1, 32))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(float64(l.MaxDistance), 'g', -1, 32))
	}
	return b.String()
}

// Equal compares models by value.
func (m FoliageModel) Equal(o FoliageModel) bool {
	if m.Chance != o.Chance || len(m.LODs) != len(o.LODs) {
		return false
	}
	for i := range m.LODs {
		if m.LODs[i] != o.LODs[i] {
			return false
		}
	}
	return true
}

// LODFor returns the index of the first LOD whose MaxDistance covers dist,
// or -1 when the instance is beyond every LOD.
func (m FoliageModel) LODFor(dist float32) int {
	for i, l := range m.LODs {
		if dist <= l.MaxDistance {
			return i
		}
	}
	return -1
}

// MaxDistance is the draw distance of the coarsest LOD.
func (m FoliageModel) MaxDistance() float32 {
	var d float32
	for _, l := range m.LODs {
		d = max(d, l.MaxDistance)
	}
	return d
}

// FoliageID is the dense identity a registry assigns to a distinct model.
type FoliageID int32

// TerrainLevel is one elevation band of a biome.
type TerrainLevel struct {
	Material          *Material
	Foliage           []FoliageModel
	UnderwaterFoliage []FoliageModel
}

// Biome is an elevation-ordered sequence of terrain levels, lowest first.
type Biome struct {
	Name   string
	Levels []TerrainLevel
}
