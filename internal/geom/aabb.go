package geom

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding volume stored as center and half extents.
type AABB struct {
	Center  mgl32.Vec3
	Extents mgl32.Vec3
}

// AABBFromMinMax builds a volume spanning [min, max].
func AABBFromMinMax(min, max mgl32.Vec3) AABB {
	return AABB{
		Center:  min.Add(max).Mul(0.5),
		Extents: max.Sub(min).Mul(0.5),
	}
}

// AABBFromRect extrudes a ground rectangle over the vertical range [minY, maxY].
func AABBFromRect(r Rect, minY, maxY float32) AABB {
	return AABBFromMinMax(
		mgl32.Vec3{r.Min[0], minY, r.Min[1]},
		mgl32.Vec3{r.Max[0], maxY, r.Max[1]},
	)
}

func (b AABB) Min() mgl32.Vec3 { return b.Center.Sub(b.Extents) }
func (b AABB) Max() mgl32.Vec3 { return b.Center.Add(b.Extents) }

// MinY and MaxY return the vertical range of the volume.
func (b AABB) MinY() float32 { return b.Center[1] - b.Extents[1] }
func (b AABB) MaxY() float32 { return b.Center[1] + b.Extents[1] }

// Union returns the smallest volume enclosing both b and o.
func (b AABB) Union(o AABB) AABB {
	bmin, bmax := b.Min(), b.Max()
	omin, omax := o.Min(), o.Max()
	return AABBFromMinMax(
		mgl32.Vec3{min(bmin[0], omin[0]), min(bmin[1], omin[1]), min(bmin[2], omin[2])},
		mgl32.Vec3{max(bmax[0], omax[0]), max(bmax[1], omax[1]), max(bmax[2], omax[2])},
	)
}
