package terrain

import (
	"flight-terrain/internal/biome"
	"flight-terrain/internal/geom"
	"flight-terrain/internal/noise"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeIndex addresses a node in a QuadTree arena.
type NodeIndex int32

// NoNode marks an absent child.
const NoNode NodeIndex = -1

// Placement is a foliage instance chosen at build time.
type Placement struct {
	Position mgl32.Vec3
	Scale    float32
}

// Transform returns the instance matrix (translation and uniform scale).
func (p Placement) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(mgl32.Scale3D(p.Scale, p.Scale, p.Scale))
}

// FoliageBatch groups a leaf's placements of one model.
type FoliageBatch struct {
	Model      biome.FoliageID
	Placements []Placement
}

// Node is a quadtree node. Interior nodes own exactly four children; only
// leaves carry foliage.
type Node struct {
	Depth    int
	Rect     geom.Rect
	Bounds   geom.AABB
	Leaf     bool
	Children [4]NodeIndex
	Foliage  []FoliageBatch
}

// LeafFoliageFunc decides the foliage placements of a leaf footprint.
type LeafFoliageFunc func(rect geom.Rect) []FoliageBatch

// QuadTree is a chunk's spatial partition stored as a flat node arena. The
// root is node 0; dropping the arena frees the whole tree.
type QuadTree struct {
	nodes    []Node
	maxDepth int
}

// BuildQuadTree partitions area down to maxDepth levels. Leaves take their
// vertical extent from tiles (one tile per leaf, tiles per side must be
// 2^(maxDepth-1)) raised by foliageBias; interior nodes take the union of
// their children.
func BuildQuadTree(area geom.Rect, maxDepth int, tiles noise.TileSummary, foliageBias float32, place LeafFoliageFunc) *QuadTree {
	maxDepth = max(maxDepth, 1)
	leaves := 1 << (maxDepth - 1)
	t := &QuadTree{
		nodes:    make([]Node, 0, (4*leaves*leaves-1)/3),
		maxDepth: maxDepth,
	}
	t.build(0, area, 0, 0, tiles, foliageBias, place)
	return t
}

func (t *QuadTree) build(depth int, rect geom.Rect, tx, ty int, tiles noise.TileSummary, bias float32, place LeafFoliageFunc) NodeIndex {
	idx := NodeIndex(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		Depth:    depth,
		Rect:     rect,
		Children: [4]NodeIndex{NoNode, NoNode, NoNode, NoNode},
	})

	if depth == t.maxDepth-1 {
		lo, hi := tiles.MinMax(tx, ty)
		n := &t.nodes[idx]
		n.Leaf = true
		n.Bounds = geom.AABBFromRect(rect, lo, hi+bias)
		if place != nil {
			n.Foliage = place(rect)
		}
		return idx
	}

	var children [4]NodeIndex
	for i, q := range rect.Quadrants() {
		children[i] = t.build(depth+1, q, 2*tx+i%2, 2*ty+i/2, tiles, bias, place)
	}

	n := &t.nodes[idx]
	n.Children = children
	n.Bounds = t.nodes[children[0]].Bounds
	for _, c := range children[1:] {
		n.Bounds = n.Bounds.Union(t.nodes[c].Bounds)
	}
	return idx
}

// Len returns the number of nodes.
func (t *QuadTree) Len() int { return len(t.nodes) }

// Node returns node i.
func (t *QuadTree) Node(i NodeIndex) *Node { return &t.nodes[i] }

// Root returns the root node, or nil for a released tree.
func (t *QuadTree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[0]
}

// MaxDepth returns the configured depth.
func (t *QuadTree) MaxDepth() int { return t.maxDepth }

// FillVisibleSet walks the tree depth first, pruning subtrees whose bounds
// fail the frustum, and appends visible leaf patches and foliage to out.
func (t *QuadTree) FillVisibleSet(f *geom.Frustum, eye mgl32.Vec3, out *VisibleSet) {
	if len(t.nodes) == 0 {
		return
	}
	t.visit(0, f, eye, out)
}

func (t *QuadTree) visit(i NodeIndex, f *geom.Frustum, eye mgl32.Vec3, out *VisibleSet) {
	n := &t.nodes[i]
	if !f.Visible(n.Bounds) {
		return
	}
	if !n.Leaf {
		for _, c := range n.Children {
			t.visit(c, f, eye, out)
		}
		return
	}
	out.Patches = append(out.Patches, n.Rect)
	for _, b := range n.Foliage {
		for _, p := range b.Placements {
			out.addInstance(b.Model, p, eye)
		}
	}
}

// PlacementCount returns the number of foliage placements in the tree.
func (t *QuadTree) PlacementCount() int {
	n := 0
	for i := range t.nodes {
		for _, b := range t.nodes[i].Foliage {
			n += len(b.Placements)
		}
	}
	return n
}

func (t *QuadTree) release() {
	t.nodes = nil
}
