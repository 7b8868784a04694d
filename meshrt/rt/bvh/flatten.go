package bvh

import (
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/meshrt/meshrt/rt/core"
)

// FlatNode is the traversal form of a node. Its descriptor follows the
// kernel contract:
//
//	internal: Offset >= 2 is the index of the right child; the left child
//	          is the next node. Count is 0.
//	leaf:     Offset < 0 holds ^first, the complement of the first triangle
//	          of the leaf in the reordered index array. Count is the number
//	          of triangles, possibly 0 for an empty mesh.
type FlatNode struct {
	Bounds core.AABB
	Offset int32
	Count  uint32
}

func (n FlatNode) IsLeaf() bool {
	return n.Offset < 0
}

// Leaf decodes the triangle window of a leaf node.
func (n FlatNode) Leaf() (first, count int) {
	return int(^n.Offset), int(n.Count)
}

// RightChild decodes the right child index of an internal node.
func (n FlatNode) RightChild() int {
	return int(n.Offset)
}

// EncodeInternal returns the descriptor of an internal node whose right
// child sits at index right.
func EncodeInternal(right int) (int32, error) {
	if right < 2 {
		return 0, fmt.Errorf("bvh: right child index %d precedes its left sibling", right)
	}
	if right > math.MaxInt32 {
		return 0, fmt.Errorf("right child %d: %w", right, ErrEncodingOverflow)
	}
	return int32(right), nil
}

// EncodeLeaf returns the descriptor and count of a leaf covering triangles
// [first, first+count) of the reordered index array.
func EncodeLeaf(first, count int) (int32, uint32, error) {
	if first < 0 || count < 0 {
		return 0, 0, fmt.Errorf("bvh: negative leaf window (%d, %d)", first, count)
	}
	if first > math.MaxInt32-count {
		return 0, 0, fmt.Errorf("leaf window (%d, %d): %w", first, count, ErrEncodingOverflow)
	}
	return ^int32(first), uint32(count), nil
}

// FlatBVH is the pointer-free form uploaded to the GPU.
type FlatBVH struct {
	// Nodes in depth-first pre-order; Nodes[0] is the root.
	Nodes []FlatNode
	// Indices is the triangle index buffer permuted so every leaf's
	// triangles are contiguous.
	Indices []core.TriangleIndexData
	// Order[i] is the original triangle id stored at Indices[i].
	Order []uint32
}

func (f *FlatBVH) Root() FlatNode {
	return f.Nodes[0]
}

func (f *FlatBVH) Bounds() core.AABB {
	return f.Nodes[0].Bounds
}

func (f *FlatBVH) TriangleCount() int {
	return len(f.Indices)
}

type flattener struct {
	tree    *Tree
	indices []core.TriangleIndexData
	out     *FlatBVH
}

// Flatten linearises tree in depth-first pre-order. The left subtree of an
// internal node follows it directly and its Offset records the index just
// past that subtree, so a traversal can skip a missed subtree in one jump.
// indices must be the buffer the tree was built from; it is not modified.
func Flatten(tree *Tree, indices []core.TriangleIndexData) (*FlatBVH, error) {
	if tree == nil || len(tree.Nodes) == 0 {
		return nil, errors.New("bvh: flatten called without a tree")
	}
	if len(indices) != tree.Stats.Triangles {
		return nil, fmt.Errorf("bvh: tree holds %d triangles, index buffer %d", tree.Stats.Triangles, len(indices))
	}
	if len(tree.Nodes) > math.MaxInt32 {
		return nil, fmt.Errorf("%d nodes: %w", len(tree.Nodes), ErrEncodingOverflow)
	}

	f := &flattener{
		tree:    tree,
		indices: indices,
		out: &FlatBVH{
			Nodes:   make([]FlatNode, 0, len(tree.Nodes)),
			Indices: make([]core.TriangleIndexData, 0, len(indices)),
			Order:   make([]uint32, 0, len(indices)),
		},
	}
	if err := f.emit(0); err != nil {
		return nil, err
	}
	return f.out, nil
}

// BuildFlat builds and flattens in one step.
func BuildFlat(vertices []core.Vertex, indices []core.TriangleIndexData, cfg Config) (*FlatBVH, Stats, error) {
	tree, err := Build(vertices, indices, cfg)
	if err != nil {
		return nil, Stats{}, err
	}
	flat, err := Flatten(tree, indices)
	if err != nil {
		return nil, tree.Stats, err
	}
	return flat, tree.Stats, nil
}

func (f *flattener) emit(n int) error {
	node := &f.tree.Nodes[n]
	pos := len(f.out.Nodes)
	f.out.Nodes = append(f.out.Nodes, FlatNode{Bounds: node.Bounds})

	if node.IsLeaf() {
		first := len(f.out.Indices)
		offset, count, err := EncodeLeaf(first, node.Count)
		if err != nil {
			return err
		}
		for _, ref := range f.tree.LeafRefs(node) {
			if int(ref.Triangle) >= len(f.indices) {
				return fmt.Errorf("leaf %d references triangle %d: %w", pos, ref.Triangle, ErrIndexOutOfRange)
			}
			f.out.Indices = append(f.out.Indices, f.indices[ref.Triangle])
			f.out.Order = append(f.out.Order, ref.Triangle)
		}
		f.out.Nodes[pos].Offset = offset
		f.out.Nodes[pos].Count = count
		return nil
	}

	if err := f.emit(node.Left); err != nil {
		return err
	}
	offset, err := EncodeInternal(len(f.out.Nodes))
	if err != nil {
		return err
	}
	f.out.Nodes[pos].Offset = offset
	return f.emit(node.Right)
}
