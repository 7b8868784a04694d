package bvh

import (
	"fmt"

	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// TriangleRef is the build-time stand-in for one triangle.
type TriangleRef struct {
	Triangle uint32
	Bounds   core.AABB
	Centroid mgl32.Vec3
}

// NewTriangleRefs computes bounds and centroids for every triangle, in input
// order.
func NewTriangleRefs(vertices []core.Vertex, indices []core.TriangleIndexData) ([]TriangleRef, error) {
	refs := make([]TriangleRef, len(indices))
	for i, tri := range indices {
		if !core.TriangleInRange(tri, len(vertices)) {
			return nil, fmt.Errorf("triangle %d %v with %d vertices: %w", i, tri, len(vertices), ErrIndexOutOfRange)
		}
		a, b, c := core.TrianglePositions(vertices, tri)
		refs[i] = TriangleRef{
			Triangle: uint32(i),
			Bounds:   core.TriangleAABB(a, b, c),
			Centroid: a.Add(b).Add(c).Mul(1.0 / 3.0),
		}
	}
	return refs, nil
}

func refsBounds(refs []TriangleRef) core.AABB {
	box := core.EmptyAABB()
	for i := range refs {
		box = core.Union(box, refs[i].Bounds)
	}
	return box
}

func centroidBounds(refs []TriangleRef) core.AABB {
	box := core.EmptyAABB()
	for i := range refs {
		box = box.Extend(refs[i].Centroid)
	}
	return box
}
