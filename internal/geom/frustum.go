package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a half-space {p : Normal·p - Distance >= 0}. Normal is unit length
// and points into the frustum.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// NewPlane builds a plane through point with the given (not necessarily unit) normal.
func NewPlane(point, normal mgl32.Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, Distance: n.Dot(point)}
}

// SignedDistance is positive on the inner side of the plane.
func (p Plane) SignedDistance(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) - p.Distance
}

// OnOrForward reports whether any part of b lies on the inner side of p.
func (p Plane) OnOrForward(b AABB) bool {
	r := b.Extents[0]*abs32(p.Normal[0]) +
		b.Extents[1]*abs32(p.Normal[1]) +
		b.Extents[2]*abs32(p.Normal[2])
	return -r <= p.SignedDistance(b.Center)
}

// Frustum plane indices.
const (
	PlaneNear = iota
	PlaneFar
	PlaneLeft
	PlaneRight
	PlaneTop
	PlaneBottom
)

// Frustum is the camera's visible volume as six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromCamera derives the six planes from the camera basis and lens.
func FrustumFromCamera(c Camera) Frustum {
	halfV := c.Far * float32(math.Tan(float64(c.FovY)*0.5))
	halfH := halfV * c.Aspect
	farVec := c.Front.Mul(c.Far)

	var f Frustum
	f.Planes[PlaneNear] = NewPlane(c.Position.Add(c.Front.Mul(c.Near)), c.Front)
	f.Planes[PlaneFar] = NewPlane(c.Position.Add(farVec), c.Front.Mul(-1))
	f.Planes[PlaneLeft] = NewPlane(c.Position, farVec.Sub(c.Right.Mul(halfH)).Cross(c.Up))
	f.Planes[PlaneRight] = NewPlane(c.Position, c.Up.Cross(farVec.Add(c.Right.Mul(halfH))))
	f.Planes[PlaneTop] = NewPlane(c.Position, farVec.Add(c.Up.Mul(halfV)).Cross(c.Right))
	f.Planes[PlaneBottom] = NewPlane(c.Position, c.Right.Cross(farVec.Sub(c.Up.Mul(halfV))))
	return f
}

// FrustumFromMatrix extracts the planes from a combined projection*view matrix.
func FrustumFromMatrix(clip mgl32.Mat4) Frustum {
	// mgl32 matrices are column-major
	r0 := mgl32.Vec4{clip[0], clip[4], clip[8], clip[12]}
	r1 := mgl32.Vec4{clip[1], clip[5], clip[9], clip[13]}
	r2 := mgl32.Vec4{clip[2], clip[6], clip[10], clip[14]}
	r3 := mgl32.Vec4{clip[3], clip[7], clip[11], clip[15]}

	var f Frustum
	f.Planes[PlaneLeft] = planeFromCoefficients(r3.Add(r0))
	f.Planes[PlaneRight] = planeFromCoefficients(r3.Sub(r0))
	f.Planes[PlaneBottom] = planeFromCoefficients(r3.Add(r1))
	f.Planes[PlaneTop] = planeFromCoefficients(r3.Sub(r1))
	f.Planes[PlaneNear] = planeFromCoefficients(r3.Add(r2))
	f.Planes[PlaneFar] = planeFromCoefficients(r3.Sub(r2))
	return f
}

func planeFromCoefficients(c mgl32.Vec4) Plane {
	n := c.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), Distance: -c[3] / l}
}

// Visible reports whether b passes all six plane tests. Failing any single
// plane culls the volume.
func (f *Frustum) Visible(b AABB) bool {
	for i := range f.Planes {
		if !f.Planes[i].OnOrForward(b) {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
