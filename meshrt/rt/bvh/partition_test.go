package bvh

import (
	"testing"

	"github.com/gekko3d/meshrt/meshrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refAt(id uint32, c mgl32.Vec3) TriangleRef {
	half := mgl32.Vec3{0.05, 0.05, 0.05}
	return TriangleRef{
		Triangle: id,
		Bounds:   core.AABB{Min: c.Sub(half), Max: c.Add(half)},
		Centroid: c,
	}
}

func TestPartitionSeparatesClusters(t *testing.T) {
	for _, policy := range allPolicies {
		t.Run(policy.String(), func(t *testing.T) {
			// Two clusters along Y, interleaved in input order.
			var refs []TriangleRef
			for i := 0; i < 8; i++ {
				y := float32(0)
				if i%2 == 1 {
					y = 10
				}
				refs = append(refs, refAt(uint32(i), mgl32.Vec3{float32(i) * 0.01, y, 0}))
			}

			p := NewPartitioner(policy, DefaultBins)
			s := p.Partition(refs)

			assert.Equal(t, 1, s.Axis)
			assert.Equal(t, 4, s.Mid)
			assert.False(t, s.Fallback)
			for i, r := range refs {
				if i < s.Mid {
					assert.Equal(t, float32(0), r.Centroid[1])
				} else {
					assert.Equal(t, float32(10), r.Centroid[1])
				}
			}
			// Arrival order is kept on each side.
			assert.Equal(t, []uint32{0, 2, 4, 6}, ids(refs[:s.Mid]))
			assert.Equal(t, []uint32{1, 3, 5, 7}, ids(refs[s.Mid:]))
		})
	}
}

func TestPartitionFallsBackOnCoincidentCentroids(t *testing.T) {
	for _, policy := range allPolicies {
		refs := make([]TriangleRef, 5)
		for i := range refs {
			refs[i] = refAt(uint32(4-i), mgl32.Vec3{1, 1, 1})
		}

		s := NewPartitioner(policy, DefaultBins).Partition(refs)
		assert.True(t, s.Fallback, policy.String())
		assert.Equal(t, 2, s.Mid, policy.String())
		// Ties are ordered by triangle id.
		assert.Equal(t, []uint32{0, 1, 2, 3, 4}, ids(refs), policy.String())
	}
}

func TestPartitionSAHPrefersCheaperSplit(t *testing.T) {
	// One far outlier on X. The middle split isolates it, which is also the
	// cheapest SAH split; the median split cuts the dense cluster instead.
	var refs []TriangleRef
	for i := 0; i < 9; i++ {
		refs = append(refs, refAt(uint32(i), mgl32.Vec3{float32(i) * 0.1, 0, 0}))
	}
	refs = append(refs, refAt(9, mgl32.Vec3{100, 0, 0}))

	sah := append([]TriangleRef(nil), refs...)
	s := NewPartitioner(SplitSAH, DefaultBins).Partition(sah)
	assert.Equal(t, 0, s.Axis)
	assert.Equal(t, 9, s.Mid)
	assert.Equal(t, uint32(9), sah[9].Triangle)

	median := append([]TriangleRef(nil), refs...)
	s = NewPartitioner(SplitMedian, DefaultBins).Partition(median)
	assert.Equal(t, 5, s.Mid)
}

func TestPartitionTwoRefs(t *testing.T) {
	for _, policy := range allPolicies {
		refs := []TriangleRef{
			refAt(0, mgl32.Vec3{0, 0, 1}),
			refAt(1, mgl32.Vec3{0, 0, 0}),
		}
		s := NewPartitioner(policy, 0).Partition(refs)
		require.Equal(t, 1, s.Mid, policy.String())
		assert.Equal(t, 2, s.Axis)
		assert.Equal(t, uint32(1), refs[0].Triangle)
		assert.Equal(t, uint32(0), refs[1].Triangle)
	}
}

func ids(refs []TriangleRef) []uint32 {
	out := make([]uint32, len(refs))
	for i, r := range refs {
		out[i] = r.Triangle
	}
	return out
}
