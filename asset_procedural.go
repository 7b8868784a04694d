package meshrt

import (
	"fmt"
	"math/rand"

	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Upper bounds for procedural parameters, well inside the node encoding.
const (
	maxGridSide      = 1 << 12
	maxSoupTriangles = 1 << 26
)

// Geometry builds the procedural mesh described by d.
//
//	quad: [size]             default 1
//	box:  [sx, sy, sz]       default 1, 1, 1
//	grid: [nx, ny, spacing]  default 8, 8, 1
//	soup: [count, size]      default 1000, 0.05
func (d ProceduralDef) Geometry() ([]core.Vertex, []core.TriangleIndexData, error) {
	param := func(i int, def float32) float32 {
		if i < len(d.Params) {
			return d.Params[i]
		}
		return def
	}
	switch d.Type {
	case "quad":
		v, i := CreateQuad(param(0, 1))
		return v, i, nil
	case "box":
		v, i := CreateBox(mgl32.Vec3{}, mgl32.Vec3{param(0, 1), param(1, 1), param(2, 1)})
		return v, i, nil
	case "grid":
		nx, ny := param(0, 8), param(1, 8)
		if !(nx >= 1 && ny >= 1 && nx <= maxGridSide && ny <= maxGridSide) {
			return nil, nil, fmt.Errorf("meshrt: grid of %v x %v cells is outside [1, %d]", nx, ny, maxGridSide)
		}
		v, i := CreateGrid(int(nx), int(ny), param(2, 1))
		return v, i, nil
	case "soup":
		count := param(0, 1000)
		if !(count >= 0 && count <= maxSoupTriangles) {
			return nil, nil, fmt.Errorf("meshrt: soup of %v triangles is outside [0, %d]", count, maxSoupTriangles)
		}
		v, i := CreateTriangleSoup(int(count), param(1, 0.05), d.Seed)
		return v, i, nil
	}
	return nil, nil, fmt.Errorf("meshrt: unknown procedural mesh %q", d.Type)
}

// CreateQuad returns a square of the given size in the z=0 plane with its
// corner at the origin, split along the (0,0)-(size,size) diagonal.
func CreateQuad(size float32) ([]core.Vertex, []core.TriangleIndexData) {
	n := mgl32.Vec3{0, 0, 1}
	vertices := []core.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, Normal: n, TexCoord: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{size, 0, 0}, Normal: n, TexCoord: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{size, size, 0}, Normal: n, TexCoord: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{0, size, 0}, Normal: n, TexCoord: mgl32.Vec2{0, 1}},
	}
	indices := []core.TriangleIndexData{{0, 1, 2}, {0, 2, 3}}
	return vertices, indices
}

// CreateBox returns the 12 triangles of an axis aligned box with flat
// per-face normals.
func CreateBox(min, max mgl32.Vec3) ([]core.Vertex, []core.TriangleIndexData) {
	type face struct {
		normal  mgl32.Vec3
		corners [4]mgl32.Vec3
	}
	x0, y0, z0 := min.X(), min.Y(), min.Z()
	x1, y1, z1 := max.X(), max.Y(), max.Z()
	faces := []face{
		{mgl32.Vec3{1, 0, 0}, [4]mgl32.Vec3{{x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}, {x1, y0, z1}}},
		{mgl32.Vec3{-1, 0, 0}, [4]mgl32.Vec3{{x0, y1, z0}, {x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}}},
		{mgl32.Vec3{0, 1, 0}, [4]mgl32.Vec3{{x1, y1, z0}, {x0, y1, z0}, {x0, y1, z1}, {x1, y1, z1}}},
		{mgl32.Vec3{0, -1, 0}, [4]mgl32.Vec3{{x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}, {x0, y0, z1}}},
		{mgl32.Vec3{0, 0, 1}, [4]mgl32.Vec3{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}},
		{mgl32.Vec3{0, 0, -1}, [4]mgl32.Vec3{{x0, y1, z0}, {x1, y1, z0}, {x1, y0, z0}, {x0, y0, z0}}},
	}
	uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]core.TriangleIndexData, 0, 12)
	for _, f := range faces {
		base := uint32(len(vertices))
		for k, c := range f.corners {
			vertices = append(vertices, core.Vertex{Position: c, Normal: f.normal, TexCoord: uvs[k]})
		}
		indices = append(indices,
			core.TriangleIndexData{base, base + 1, base + 2},
			core.TriangleIndexData{base, base + 2, base + 3},
		)
	}
	return vertices, indices
}

// CreateGrid returns nx*ny quads in the z=0 plane. Every centroid shares one
// z value, which exercises the builder on coplanar geometry.
func CreateGrid(nx, ny int, spacing float32) ([]core.Vertex, []core.TriangleIndexData) {
	nx, ny = max(nx, 1), max(ny, 1)
	n := mgl32.Vec3{0, 0, 1}
	vertices := make([]core.Vertex, 0, (nx+1)*(ny+1))
	for y := 0; y <= ny; y++ {
		for x := 0; x <= nx; x++ {
			vertices = append(vertices, core.Vertex{
				Position: mgl32.Vec3{float32(x) * spacing, float32(y) * spacing, 0},
				Normal:   n,
				TexCoord: mgl32.Vec2{float32(x) / float32(nx), float32(y) / float32(ny)},
			})
		}
	}

	row := uint32(nx + 1)
	indices := make([]core.TriangleIndexData, 0, 2*nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := uint32(y)*row + uint32(x)
			indices = append(indices,
				core.TriangleIndexData{i, i + 1, i + row + 1},
				core.TriangleIndexData{i, i + row + 1, i + row},
			)
		}
	}
	return vertices, indices
}

// CreateTriangleSoup scatters count independent triangles through the unit
// cube. The same seed always yields the same mesh. A negative count yields
// an empty mesh.
func CreateTriangleSoup(count int, size float32, seed int64) ([]core.Vertex, []core.TriangleIndexData) {
	count = max(count, 0)
	rng := rand.New(rand.NewSource(seed))
	vertices := make([]core.Vertex, 0, 3*count)
	indices := make([]core.TriangleIndexData, 0, count)
	for i := 0; i < count; i++ {
		center := mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
		var corners [3]mgl32.Vec3
		for k := range corners {
			corners[k] = center.Add(mgl32.Vec3{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}.Mul(size))
		}
		normal := corners[1].Sub(corners[0]).Cross(corners[2].Sub(corners[0]))
		if normal.Len() > 0 {
			normal = normal.Normalize()
		}
		base := uint32(len(vertices))
		for _, c := range corners {
			vertices = append(vertices, core.Vertex{Position: c, Normal: normal})
		}
		indices = append(indices, core.TriangleIndexData{base, base + 1, base + 2})
	}
	return vertices, indices
}
