package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Extents below this are clamped when a box is used as a split cost proxy.
const costEpsilon float32 = 1e-6

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// AABB is an axis-aligned bounding box. The zero value is the degenerate box
// at the origin; use EmptyAABB for the identity of Union.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns the box that contains nothing and absorbs under Union.
func EmptyAABB() AABB {
	return AABB{
		Min: mgl32.Vec3{posInf, posInf, posInf},
		Max: mgl32.Vec3{negInf, negInf, negInf},
	}
}

// PointAABB returns the zero-volume box around p.
func PointAABB(p mgl32.Vec3) AABB {
	return AABB{Min: p, Max: p}
}

// TriangleAABB returns the tight box around three points.
func TriangleAABB(a, b, c mgl32.Vec3) AABB {
	return PointAABB(a).Extend(b).Extend(c)
}

func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Union returns the smallest box containing both a and b.
func Union(a, b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(a.Min[0], b.Min[0]), min(a.Min[1], b.Min[1]), min(a.Min[2], b.Min[2])},
		Max: mgl32.Vec3{max(a.Max[0], b.Max[0]), max(a.Max[1], b.Max[1]), max(a.Max[2], b.Max[2])},
	}
}

func (b AABB) Union(o AABB) AABB {
	return Union(b, o)
}

// Extend grows the box to include p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	return Union(b, PointAABB(p))
}

// Extent is Max-Min, or zero for an empty box.
func (b AABB) Extent() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// LargestAxis returns the axis with the greatest extent. Ties resolve to the
// lower axis index.
func (b AABB) LargestAxis() int {
	e := b.Extent()
	axis := 0
	if e[1] > e[axis] {
		axis = 1
	}
	if e[2] > e[axis] {
		axis = 2
	}
	return axis
}

// SurfaceArea returns 2*(dx*dy + dy*dz + dz*dx). Empty boxes have zero area.
func (b AABB) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Max.Sub(b.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

// CostArea is SurfaceArea with every extent clamped to a small epsilon so
// flat or point-like boxes still produce a positive split cost.
func (b AABB) CostArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	d := b.Max.Sub(b.Min)
	dx, dy, dz := max(d[0], costEpsilon), max(d[1], costEpsilon), max(d[2], costEpsilon)
	return 2 * (dx*dy + dy*dz + dz*dx)
}

// Contains reports whether p lies inside the box, boundary included.
func (b AABB) Contains(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// ContainsBox reports whether o lies entirely inside b. Every box contains
// the empty box.
func (b AABB) ContainsBox(o AABB) bool {
	if o.IsEmpty() {
		return true
	}
	return b.Contains(o.Min) && b.Contains(o.Max)
}

// IntersectRay clips the ray against the box using the slab method and
// returns the entry distance. Axes the ray runs parallel to are handled
// without dividing by zero.
func (b AABB) IntersectRay(r Ray, tMin, tMax float32) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		if d == 0 {
			if o < b.Min[axis] || o > b.Max[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / d
		t0 := (b.Min[axis] - o) * inv
		t1 := (b.Max[axis] - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = max(tMin, t0)
		tMax = min(tMax, t1)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}
