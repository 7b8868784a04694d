package bvh

import (
	"fmt"
	"math"

	"github.com/gekko3d/meshrt/meshrt/rt/core"
)

type NodeKind uint8

const (
	Leaf NodeKind = iota
	Internal
)

// TreeNode is one node of the transient build tree. Internal nodes use Left
// and Right, leaves use First and Count; the other pair is always zero.
type TreeNode struct {
	Bounds core.AABB
	Kind   NodeKind
	Depth  int

	// Arena indices of the children (Internal).
	Left, Right int

	// Range into Tree.Refs (Leaf).
	First, Count int
}

func (n *TreeNode) IsLeaf() bool {
	return n.Kind == Leaf
}

// Stats summarises a build. Fallbacks count splits where the policy could
// not separate centroids; DepthCapLeaves count leaves that were forced at
// the depth limit while still holding more than LeafThreshold triangles.
type Stats struct {
	Triangles      int
	Nodes          int
	Leaves         int
	MaxDepth       int
	MaxLeafSize    int
	Fallbacks      int
	DepthCapLeaves int
}

// Tree is the arena form of the hierarchy. Nodes[0] is the root and every
// node owns the subtrees at its child indices exclusively.
type Tree struct {
	Nodes []TreeNode
	// Refs in leaf order: each leaf owns Refs[First:First+Count].
	Refs   []TriangleRef
	Config Config
	Stats  Stats
}

func (t *Tree) Root() *TreeNode {
	return &t.Nodes[0]
}

// NonEmpty reports whether the mesh the tree was built from had triangles.
func (t *Tree) NonEmpty() bool {
	return t.Stats.Triangles > 0
}

// LeafRefs returns the references owned by a leaf node.
func (t *Tree) LeafRefs(n *TreeNode) []TriangleRef {
	return t.Refs[n.First : n.First+n.Count]
}

type builder struct {
	cfg   Config
	refs  []TriangleRef
	nodes []TreeNode
	part  *Partitioner
	stats Stats
}

// Build constructs the hierarchy over a triangle mesh. A mesh without
// triangles yields a single empty leaf. The only errors are an out of range
// vertex index and a mesh too large for the node encoding.
func Build(vertices []core.Vertex, indices []core.TriangleIndexData, cfg Config) (*Tree, error) {
	if len(indices) > math.MaxInt32 {
		return nil, fmt.Errorf("%d triangles: %w", len(indices), ErrEncodingOverflow)
	}
	refs, err := NewTriangleRefs(vertices, indices)
	if err != nil {
		return nil, err
	}
	return BuildRefs(refs, cfg), nil
}

// BuildRefs builds over precomputed references, taking ownership of refs.
func BuildRefs(refs []TriangleRef, cfg Config) *Tree {
	cfg = cfg.normalized()
	b := &builder{
		cfg:  cfg,
		refs: refs,
		// A binary tree with leaves of at least one triangle has at most
		// 2n-1 nodes.
		nodes: make([]TreeNode, 0, max(1, 2*len(refs)-1)),
		part:  NewPartitioner(cfg.Policy, cfg.Bins),
		stats: Stats{Triangles: len(refs)},
	}
	b.build(0, len(refs), 0)
	return &Tree{
		Nodes:  b.nodes,
		Refs:   b.refs,
		Config: cfg,
		Stats:  b.stats,
	}
}

func (b *builder) build(first, count, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Depth: depth})
	b.stats.Nodes++
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	refs := b.refs[first : first+count]
	if count <= b.cfg.LeafThreshold || depth >= b.cfg.MaxDepth {
		if count > b.cfg.LeafThreshold {
			b.stats.DepthCapLeaves++
		}
		b.stats.Leaves++
		b.stats.MaxLeafSize = max(b.stats.MaxLeafSize, count)
		b.nodes[idx] = TreeNode{
			Bounds: refsBounds(refs),
			Kind:   Leaf,
			Depth:  depth,
			First:  first,
			Count:  count,
		}
		return idx
	}

	split := b.part.Partition(refs)
	if split.Fallback {
		b.stats.Fallbacks++
	}

	left := b.build(first, split.Mid, depth+1)
	right := b.build(first+split.Mid, count-split.Mid, depth+1)
	b.nodes[idx] = TreeNode{
		Bounds: core.Union(b.nodes[left].Bounds, b.nodes[right].Bounds),
		Kind:   Internal,
		Depth:  depth,
		Left:   left,
		Right:  right,
	}
	return idx
}
