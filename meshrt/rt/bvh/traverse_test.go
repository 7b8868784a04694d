package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inf = float32(math.Inf(1))

func TestIntersectUnitSquare(t *testing.T) {
	vertices, indices := unitSquare()
	ray := core.NewRay(mgl32.Vec3{0.5, 0.5, 1}, mgl32.Vec3{0, 0, -1})

	for _, threshold := range []int{1, 4} {
		cfg := DefaultConfig()
		cfg.LeafThreshold = threshold
		flat, _, err := BuildFlat(vertices, indices, cfg)
		require.NoError(t, err)

		assert.Equal(t, mgl32.Vec3{0, 0, 0}, flat.Bounds().Min)
		assert.Equal(t, mgl32.Vec3{1, 1, 0}, flat.Bounds().Max)

		hit, ok := Intersect(flat, vertices, ray, inf)
		require.True(t, ok)
		assert.InDelta(t, 1.0, hit.T, 1e-6)
		assert.Contains(t, []uint32{0, 1}, hit.Triangle)
	}

	// Misses beside the square and behind the ray.
	flat, _, err := BuildFlat(vertices, indices, DefaultConfig())
	require.NoError(t, err)
	_, ok := Intersect(flat, vertices, core.NewRay(mgl32.Vec3{1.5, 0.5, 1}, mgl32.Vec3{0, 0, -1}), inf)
	assert.False(t, ok)
	_, ok = Intersect(flat, vertices, core.NewRay(mgl32.Vec3{0.5, 0.5, 1}, mgl32.Vec3{0, 0, 1}), inf)
	assert.False(t, ok)
	_, ok = Intersect(flat, vertices, ray, 0.5)
	assert.False(t, ok)
}

func TestIntersectEmptyMesh(t *testing.T) {
	flat, _, err := BuildFlat(nil, nil, DefaultConfig())
	require.NoError(t, err)

	_, ok := Intersect(flat, nil, core.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}), inf)
	assert.False(t, ok)
	_, ok = Intersect(nil, nil, core.NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}), inf)
	assert.False(t, ok)
}

// The flat structure must report the same closest hit as testing every
// triangle.
func TestIntersectMatchesBruteForce(t *testing.T) {
	vertices, indices := randomSoup(2000, 0.12, 21)
	rng := rand.New(rand.NewSource(99))

	for _, policy := range allPolicies {
		t.Run(policy.String(), func(t *testing.T) {
			flat, _, err := BuildFlat(vertices, indices, configFor(policy))
			require.NoError(t, err)

			hits := 0
			for i := 0; i < 500; i++ {
				origin := mgl32.Vec3{rng.Float32()*4 - 1.5, rng.Float32()*4 - 1.5, rng.Float32()*4 - 1.5}
				target := mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
				ray := core.NewRay(origin, target.Sub(origin).Normalize())

				want, wantOK := IntersectBruteForce(vertices, indices, ray, inf)
				got, gotOK := Intersect(flat, vertices, ray, inf)
				require.Equal(t, wantOK, gotOK, "ray %d", i)
				if !wantOK {
					continue
				}
				hits++
				require.InDelta(t, want.T, got.T, 1e-5, "ray %d", i)
				if want.Triangle != got.Triangle {
					// Equal distance hits on two triangles; both answers are valid.
					a, b, c := core.TrianglePositions(vertices, indices[got.Triangle])
					tGot, _, _, ok := core.IntersectTriangle(ray, a, b, c, inf)
					require.True(t, ok)
					require.InDelta(t, want.T, tGot, 1e-5)
				}
			}
			assert.Greater(t, hits, 100)
		})
	}
}

func TestIntersectRespectsTMax(t *testing.T) {
	vertices, indices := randomSoup(500, 0.1, 4)
	flat, _, err := BuildFlat(vertices, indices, DefaultConfig())
	require.NoError(t, err)

	// Aim at the centroid of a triangle so something is hit.
	a, b, c := core.TrianglePositions(vertices, indices[0])
	target := a.Add(b).Add(c).Mul(1.0 / 3.0)
	origin := mgl32.Vec3{0.5, 0.5, -2}
	ray := core.NewRay(origin, target.Sub(origin).Normalize())
	full, ok := Intersect(flat, vertices, ray, inf)
	require.True(t, ok)

	_, ok = Intersect(flat, vertices, ray, full.T)
	assert.False(t, ok)
	_, ok = IntersectBruteForce(vertices, indices, ray, full.T)
	assert.False(t, ok)
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth(nil))

	leaf := FlatNode{Offset: -1}
	assert.Equal(t, 0, Depth([]FlatNode{leaf}))

	// root -> (leaf, internal -> (leaf, leaf))
	nodes := []FlatNode{
		{Offset: 2},
		{Offset: ^int32(0), Count: 1},
		{Offset: 4},
		{Offset: ^int32(1), Count: 1},
		{Offset: ^int32(2), Count: 1},
	}
	assert.Equal(t, 2, Depth(nodes))
}
