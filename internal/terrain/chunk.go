package terrain

import (
	"flight-terrain/internal/geom"
	"flight-terrain/internal/noise"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkID is a chunk's integer grid coordinate.
type ChunkID struct {
	X, Z int
}

// DistanceSq returns the squared grid distance between two chunks.
func (id ChunkID) DistanceSq(o ChunkID) int {
	dx := id.X - o.X
	dz := id.Z - o.Z
	return dx*dx + dz*dz
}

// Neighbors returns the four edge-adjacent chunk IDs.
func (id ChunkID) Neighbors() [4]ChunkID {
	return [4]ChunkID{
		{id.X + 1, id.Z},
		{id.X - 1, id.Z},
		{id.X, id.Z + 1},
		{id.X, id.Z - 1},
	}
}

// Chunk is the unit of streaming: one heightfield and one quadtree, built
// once and immutable afterwards apart from the per-frame visible set.
type Chunk struct {
	ID        ChunkID
	Footprint geom.Rect

	heights *HeightField
	biomes  *noise.Grid
	tree    *QuadTree

	visible  VisibleSet
	released bool
}

// Heights returns the chunk's heightfield.
func (c *Chunk) Heights() *HeightField { return c.heights }

// Biomes returns the normalized biome-coordinate grid.
func (c *Chunk) Biomes() *noise.Grid { return c.biomes }

// Tree returns the chunk's quadtree.
func (c *Chunk) Tree() *QuadTree { return c.tree }

// Update rebuilds the chunk's visible set for this frame.
func (c *Chunk) Update(f *geom.Frustum, eye mgl32.Vec3) *VisibleSet {
	c.visible.Reset()
	if c.tree != nil {
		c.tree.FillVisibleSet(f, eye, &c.visible)
	}
	return &c.visible
}

// Visible returns the visible set computed by the last Update.
func (c *Chunk) Visible() *VisibleSet { return &c.visible }

// TileTexture returns the per-tile (min, max) height pairs.
func (c *Chunk) TileTexture() []float32 {
	if c.heights == nil {
		return nil
	}
	return c.heights.Texture()
}

// Release frees the chunk's node arena and sample buffers. It reports false
// if the chunk had already been released.
func (c *Chunk) Release() bool {
	if c.released {
		return false
	}
	c.released = true
	if c.tree != nil {
		c.tree.release()
	}
	c.tree = nil
	c.heights = nil
	c.biomes = nil
	c.visible = VisibleSet{}
	return true
}

// Released reports whether Release has been called.
func (c *Chunk) Released() bool { return c.released }
