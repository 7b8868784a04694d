package bvh

import (
	"github.com/gekko3d/meshrt/meshrt/rt/core"
)

// Twice the deepest tree the builder produces, so hand-assembled inputs that
// pass Validate still fit.
const traversalStackSize = 2 * maxStackDepth

type Hit struct {
	// Triangle is the id in the original index buffer.
	Triangle uint32
	T        float32
	U, V     float32
}

type stackEntry struct {
	node  int
	enter float32
}

// Intersect returns the closest hit closer than tMax. It walks the flat
// arrays the same way the GPU kernel does: a fixed size stack, no recursion
// and child links decoded from the node descriptor only.
func Intersect(flat *FlatBVH, vertices []core.Vertex, ray core.Ray, tMax float32) (Hit, bool) {
	var hit Hit
	found := false
	if flat == nil || len(flat.Nodes) == 0 {
		return hit, false
	}
	nodes := flat.Nodes
	if _, ok := nodes[0].Bounds.IntersectRay(ray, 0, tMax); !ok {
		return hit, false
	}

	var stack [traversalStackSize]stackEntry
	sp := 0
	closest := tMax
	node := 0
	for {
		n := nodes[node]
		if n.IsLeaf() {
			first, count := n.Leaf()
			for i := first; i < first+count; i++ {
				a, b, c := core.TrianglePositions(vertices, flat.Indices[i])
				if t, u, v, ok := core.IntersectTriangle(ray, a, b, c, closest); ok {
					closest = t
					hit = Hit{Triangle: flat.Order[i], T: t, U: u, V: v}
					found = true
				}
			}
		} else {
			left, right := node+1, n.RightChild()
			tl, hl := nodes[left].Bounds.IntersectRay(ray, 0, closest)
			tr, hr := nodes[right].Bounds.IntersectRay(ray, 0, closest)
			switch {
			case hl && hr:
				near, far, farEnter := left, right, tr
				if tr < tl {
					near, far, farEnter = right, left, tl
				}
				if sp == len(stack) {
					panic("bvh: traversal stack overflow")
				}
				stack[sp] = stackEntry{node: far, enter: farEnter}
				sp++
				node = near
				continue
			case hl:
				node = left
				continue
			case hr:
				node = right
				continue
			}
		}

		// Pop the next subtree that can still hold a closer hit.
		next := -1
		for sp > 0 {
			sp--
			if stack[sp].enter <= closest {
				next = stack[sp].node
				break
			}
		}
		if next < 0 {
			return hit, found
		}
		node = next
	}
}

// IntersectBruteForce tests every triangle and returns the closest hit. On
// exact ties the lowest triangle id wins.
func IntersectBruteForce(vertices []core.Vertex, indices []core.TriangleIndexData, ray core.Ray, tMax float32) (Hit, bool) {
	var hit Hit
	found := false
	closest := tMax
	for i, tri := range indices {
		a, b, c := core.TrianglePositions(vertices, tri)
		if t, u, v, ok := core.IntersectTriangle(ray, a, b, c, closest); ok {
			closest = t
			hit = Hit{Triangle: uint32(i), T: t, U: u, V: v}
			found = true
		}
	}
	return hit, found
}
