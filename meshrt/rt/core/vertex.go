package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex matches the loader output: position, normal and the first UV set.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// TriangleIndexData holds three indices into the vertex array.
type TriangleIndexData [3]uint32

// TrianglePositions returns the three corner positions of tri.
// Callers are expected to have validated the indices.
func TrianglePositions(vertices []Vertex, tri TriangleIndexData) (a, b, c mgl32.Vec3) {
	return vertices[tri[0]].Position, vertices[tri[1]].Position, vertices[tri[2]].Position
}

// TriangleInRange reports whether all three indices of tri address vertices.
func TriangleInRange(tri TriangleIndexData, vertexCount int) bool {
	n := uint64(vertexCount)
	return uint64(tri[0]) < n && uint64(tri[1]) < n && uint64(tri[2]) < n
}
