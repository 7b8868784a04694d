package bvh

import (
	"errors"
	"fmt"

	"github.com/gekko3d/meshrt/meshrt/rt/core"
)

var ErrInvalidStructure = errors.New("bvh: invalid flat structure")

// Depth walks the flat node array and returns the depth of its deepest
// node; the root is at depth 0.
func Depth(nodes []FlatNode) int {
	if len(nodes) == 0 {
		return 0
	}
	type item struct{ node, depth int }
	stack := []item{{0, 0}}
	deepest := 0
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		deepest = max(deepest, it.depth)
		n := nodes[it.node]
		if n.IsLeaf() {
			continue
		}
		stack = append(stack, item{n.RightChild(), it.depth + 1}, item{it.node + 1, it.depth + 1})
	}
	return deepest
}

// Validate checks every property a traversal of flat relies on, against the
// mesh it was built from:
//
//   - node 0 is the root and each subtree occupies a contiguous range starting
//     at its root, with an internal node's left child directly after it and its
//     right child at the stored offset;
//   - every node box contains its children's boxes, and every leaf box
//     contains its triangles;
//   - leaf windows lie in the reordered index array, follow each other without
//     gaps or overlap, and together cover each original triangle exactly once.
func Validate(flat *FlatBVH, vertices []core.Vertex, indices []core.TriangleIndexData) error {
	if flat == nil || len(flat.Nodes) == 0 {
		return fmt.Errorf("no nodes: %w", ErrInvalidStructure)
	}
	if len(flat.Indices) != len(indices) || len(flat.Order) != len(indices) {
		return fmt.Errorf("%d reordered triangles and %d ids for %d triangles: %w",
			len(flat.Indices), len(flat.Order), len(indices), ErrInvalidStructure)
	}

	seen := make([]bool, len(indices))
	for i, id := range flat.Order {
		if int(id) >= len(indices) || seen[id] {
			return fmt.Errorf("reordered slot %d holds triangle %d twice or out of range: %w", i, id, ErrInvalidStructure)
		}
		seen[id] = true
		if flat.Indices[i] != indices[id] {
			return fmt.Errorf("reordered slot %d %v does not match triangle %d %v: %w", i, flat.Indices[i], id, indices[id], ErrInvalidStructure)
		}
	}

	type span struct{ node, end int }
	stack := []span{{0, len(flat.Nodes)}}
	nextTriangle := 0
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := flat.Nodes[s.node]

		if n.IsLeaf() {
			if s.end != s.node+1 {
				return fmt.Errorf("leaf %d owns nodes up to %d: %w", s.node, s.end, ErrInvalidStructure)
			}
			first, count := n.Leaf()
			if first != nextTriangle || first+count > len(flat.Indices) {
				return fmt.Errorf("leaf %d window (%d, %d), expected start %d: %w", s.node, first, count, nextTriangle, ErrInvalidStructure)
			}
			for i := first; i < first+count; i++ {
				a, b, c := core.TrianglePositions(vertices, flat.Indices[i])
				if !n.Bounds.ContainsBox(core.TriangleAABB(a, b, c)) {
					return fmt.Errorf("leaf %d box does not contain triangle %d: %w", s.node, flat.Order[i], ErrInvalidStructure)
				}
			}
			nextTriangle += count
			continue
		}

		left, right := s.node+1, n.RightChild()
		if right <= left || right >= s.end {
			return fmt.Errorf("node %d right child %d outside (%d, %d): %w", s.node, right, left, s.end, ErrInvalidStructure)
		}
		if !n.Bounds.ContainsBox(flat.Nodes[left].Bounds) || !n.Bounds.ContainsBox(flat.Nodes[right].Bounds) {
			return fmt.Errorf("node %d box does not contain its children: %w", s.node, ErrInvalidStructure)
		}
		// Left is popped first so leaves are visited in array order.
		stack = append(stack, span{right, s.end}, span{left, right})
	}

	if nextTriangle != len(flat.Indices) {
		return fmt.Errorf("leaves cover %d of %d triangles: %w", nextTriangle, len(flat.Indices), ErrInvalidStructure)
	}
	return nil
}
