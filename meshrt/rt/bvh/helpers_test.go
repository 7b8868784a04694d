package bvh

import (
	"math/rand"

	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// randomSoup scatters n small triangles through the unit cube.
func randomSoup(n int, size float32, seed int64) ([]core.Vertex, []core.TriangleIndexData) {
	rng := rand.New(rand.NewSource(seed))
	vertices := make([]core.Vertex, 0, 3*n)
	indices := make([]core.TriangleIndexData, 0, n)
	for i := 0; i < n; i++ {
		center := mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
		base := uint32(len(vertices))
		for k := 0; k < 3; k++ {
			offset := mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}.Mul(size)
			vertices = append(vertices, core.Vertex{Position: center.Add(offset)})
		}
		indices = append(indices, core.TriangleIndexData{base, base + 1, base + 2})
	}
	return vertices, indices
}

func unitSquare() ([]core.Vertex, []core.TriangleIndexData) {
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{1, 1, 0}},
		{Position: mgl32.Vec3{0, 1, 0}},
	}
	indices := []core.TriangleIndexData{{0, 1, 2}, {0, 2, 3}}
	return vertices, indices
}

var allPolicies = []SplitPolicy{SplitSAH, SplitMiddle, SplitMedian}

func configFor(policy SplitPolicy) Config {
	cfg := DefaultConfig()
	cfg.Policy = policy
	return cfg
}
