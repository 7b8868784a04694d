package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Determinants below this are treated as a ray parallel to the triangle.
	detEpsilon float32 = 1e-12
	// Hits closer than this are discarded to avoid self intersection.
	hitEpsilon float32 = 1e-6
)

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parametric distance t.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectTriangle is a double sided Moller-Trumbore test. It returns the
// parametric distance and the barycentric coordinates of the hit. Edges are
// inclusive so rays through a shared edge hit at least one of its triangles.
func IntersectTriangle(r Ray, a, b, c mgl32.Vec3, tMax float32) (t, u, v float32, ok bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if det > -detEpsilon && det < detEpsilon {
		return 0, 0, 0, false
	}
	inv := 1 / det

	s := r.Origin.Sub(a)
	u = s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v = r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * inv
	if t <= hitEpsilon || t >= tMax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
