package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera is a read-only view description. The terrain core never mutates it.
type Camera struct {
	Position mgl32.Vec3
	Front    mgl32.Vec3
	Up       mgl32.Vec3
	Right    mgl32.Vec3

	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32
}

// NewCamera builds a camera looking along yaw/pitch (degrees).
func NewCamera(position mgl32.Vec3, yaw, pitch, fovDeg, aspect, near, far float32) Camera {
	c := Camera{
		Position: position,
		FovY:     mgl32.DegToRad(fovDeg),
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
	c.SetFront(FrontVector(yaw, pitch))
	return c
}

// FrontVector converts yaw/pitch in degrees into a unit view direction.
func FrontVector(yaw, pitch float32) mgl32.Vec3 {
	y := float64(mgl32.DegToRad(yaw))
	p := float64(mgl32.DegToRad(pitch))
	return mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
}

// SetFront replaces the view direction and rebuilds the right/up basis.
func (c *Camera) SetFront(front mgl32.Vec3) {
	c.Front = front.Normalize()
	c.Right = c.Front.Cross(worldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}

// ViewMatrix returns the world-to-view transform.
func (c Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

// ProjectionMatrix returns the perspective projection.
func (c Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
}

// Frustum derives the view frustum for this camera.
func (c Camera) Frustum() Frustum {
	return FrustumFromCamera(c)
}

// ReflectAcrossPlane mirrors the camera across the horizontal plane y = height,
// as used for rendering water reflections.
func ReflectAcrossPlane(c Camera, height float32) Camera {
	r := c
	r.Position[1] = 2*height - c.Position[1]
	front := c.Front
	front[1] = -front[1]
	r.SetFront(front)
	return r
}
