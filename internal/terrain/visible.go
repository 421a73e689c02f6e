package terrain

import (
	"sort"

	"flight-terrain/internal/biome"
	"flight-terrain/internal/geom"

	"github.com/go-gl/mathgl/mgl32"
)

// Instance is one foliage instance queued for instanced drawing.
type Instance struct {
	Transform mgl32.Mat4
	Distance  float32
	LOD       int
}

// VisibleSet is the per-frame output of frustum traversal. It is transient
// and rebuilt every tick.
type VisibleSet struct {
	Patches []geom.Rect
	Foliage map[biome.FoliageID][]Instance
}

// NewVisibleSet returns an empty set.
func NewVisibleSet() *VisibleSet {
	return &VisibleSet{Foliage: make(map[biome.FoliageID][]Instance)}
}

// Reset empties the set, keeping allocated capacity.
func (v *VisibleSet) Reset() {
	v.Patches = v.Patches[:0]
	if v.Foliage == nil {
		v.Foliage = make(map[biome.FoliageID][]Instance)
	}
	for id, list := range v.Foliage {
		v.Foliage[id] = list[:0]
	}
}

func (v *VisibleSet) addInstance(id biome.FoliageID, p Placement, eye mgl32.Vec3) {
	v.Foliage[id] = append(v.Foliage[id], Instance{
		Transform: p.Transform(),
		Distance:  p.Position.Sub(eye).Len(),
	})
}

// Append merges o into v.
func (v *VisibleSet) Append(o *VisibleSet) {
	v.Patches = append(v.Patches, o.Patches...)
	for id, list := range o.Foliage {
		if len(list) == 0 {
			continue
		}
		v.Foliage[id] = append(v.Foliage[id], list...)
	}
}

// ApplyLOD assigns each instance the first LOD that covers its distance and
// drops instances beyond the model's draw distance.
func (v *VisibleSet) ApplyLOD(reg *biome.Registry) {
	for id, list := range v.Foliage {
		model := reg.Foliage(id)
		kept := list[:0]
		for _, in := range list {
			lod := model.LODFor(in.Distance)
			if lod < 0 {
				continue
			}
			in.LOD = lod
			kept = append(kept, in)
		}
		v.Foliage[id] = kept
	}
}

// SortBackToFront orders every instance list far to near so transparent
// billboards blend correctly.
func (v *VisibleSet) SortBackToFront() {
	for _, list := range v.Foliage {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Distance > list[j].Distance })
	}
}

// InstanceCount returns the total number of foliage instances.
func (v *VisibleSet) InstanceCount() int {
	n := 0
	for _, list := range v.Foliage {
		n += len(list)
	}
	return n
}
