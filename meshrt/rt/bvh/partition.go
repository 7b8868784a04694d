package bvh

import (
	"cmp"
	"slices"

	"github.com/gekko3d/meshrt/meshrt/rt/core"
)

// Split describes how Partition divided a set of references.
type Split struct {
	Axis int
	// Position of the split plane along Axis. For median splits it is the
	// centroid of the first reference on the right.
	Position float32
	// refs[:Mid] went left, refs[Mid:] went right.
	Mid int
	// Fallback is set when the policy could not separate the centroids and
	// the median split was used instead.
	Fallback bool
}

type sahBin struct {
	bounds core.AABB
	count  int
}

// Partitioner divides triangle references into two non-empty subsets. It
// keeps scratch buffers between calls, so one Partitioner must not be shared
// by concurrent builds.
type Partitioner struct {
	Policy SplitPolicy
	Bins   int

	scratch []TriangleRef
	bins    []sahBin
	rights  []core.AABB
}

func NewPartitioner(policy SplitPolicy, bins int) *Partitioner {
	if bins < 2 {
		bins = DefaultBins
	}
	return &Partitioner{Policy: policy, Bins: bins}
}

// Partition reorders refs in place so both halves are contiguous and keep
// their arrival order, and reports where it split. refs must hold at least
// two references; both sides of the result are always non-empty.
func (p *Partitioner) Partition(refs []TriangleRef) Split {
	cb := centroidBounds(refs)
	axis := cb.LargestAxis()
	extent := cb.Extent()[axis]
	if extent <= 0 {
		s := p.medianSplit(refs, axis)
		s.Fallback = true
		return s
	}

	var s Split
	ok := false
	switch p.Policy {
	case SplitMedian:
		return p.medianSplit(refs, axis)
	case SplitMiddle:
		s, ok = p.middleSplit(refs, axis, cb.Center()[axis])
	default:
		s, ok = p.sahSplit(refs, axis, cb.Min[axis], extent)
	}
	if !ok {
		s = p.medianSplit(refs, axis)
		s.Fallback = true
	}
	return s
}

func (p *Partitioner) middleSplit(refs []TriangleRef, axis int, pos float32) (Split, bool) {
	mid := p.stablePartition(refs, func(r *TriangleRef) bool {
		return r.Centroid[axis] < pos
	})
	if mid == 0 || mid == len(refs) {
		return Split{}, false
	}
	return Split{Axis: axis, Position: pos, Mid: mid}, true
}

func (p *Partitioner) sahSplit(refs []TriangleRef, axis int, lo, extent float32) (Split, bool) {
	n := p.Bins
	if cap(p.bins) < n {
		p.bins = make([]sahBin, n)
		p.rights = make([]core.AABB, n)
	}
	bins := p.bins[:n]
	rights := p.rights[:n]
	for i := range bins {
		bins[i] = sahBin{bounds: core.EmptyAABB()}
	}

	binOf := func(r *TriangleRef) int {
		b := int(float32(n) * (r.Centroid[axis] - lo) / extent)
		return min(max(b, 0), n-1)
	}
	for i := range refs {
		b := binOf(&refs[i])
		bins[b].count++
		bins[b].bounds = core.Union(bins[b].bounds, refs[i].Bounds)
	}

	// rights[i] bounds bins i..n-1.
	acc := core.EmptyAABB()
	for i := n - 1; i >= 0; i-- {
		acc = core.Union(acc, bins[i].bounds)
		rights[i] = acc
	}

	best := -1
	var bestCost float32
	left := core.EmptyAABB()
	leftCount := 0
	for i := 0; i < n-1; i++ {
		left = core.Union(left, bins[i].bounds)
		leftCount += bins[i].count
		rightCount := len(refs) - leftCount
		if leftCount == 0 || rightCount == 0 {
			continue
		}
		cost := left.CostArea()*float32(leftCount) + rights[i+1].CostArea()*float32(rightCount)
		if best < 0 || cost < bestCost {
			best = i
			bestCost = cost
		}
	}
	if best < 0 {
		return Split{}, false
	}

	mid := p.stablePartition(refs, func(r *TriangleRef) bool {
		return binOf(r) <= best
	})
	if mid == 0 || mid == len(refs) {
		return Split{}, false
	}
	pos := lo + extent*float32(best+1)/float32(n)
	return Split{Axis: axis, Position: pos, Mid: mid}, true
}

// medianSplit orders refs by centroid along axis and cuts them in half by
// count. Ties keep triangle order, so the result is deterministic even for
// coincident centroids.
func (p *Partitioner) medianSplit(refs []TriangleRef, axis int) Split {
	slices.SortStableFunc(refs, func(a, b TriangleRef) int {
		if c := cmp.Compare(a.Centroid[axis], b.Centroid[axis]); c != 0 {
			return c
		}
		return cmp.Compare(a.Triangle, b.Triangle)
	})
	mid := len(refs) / 2
	return Split{Axis: axis, Position: refs[mid].Centroid[axis], Mid: mid}
}

// stablePartition moves refs matching goLeft to the front, preserving the
// relative order on both sides, and returns the number moved.
func (p *Partitioner) stablePartition(refs []TriangleRef, goLeft func(*TriangleRef) bool) int {
	p.scratch = append(p.scratch[:0], refs...)
	mid := 0
	for i := range p.scratch {
		if goLeft(&p.scratch[i]) {
			refs[mid] = p.scratch[i]
			mid++
		}
	}
	k := mid
	for i := range p.scratch {
		if !goLeft(&p.scratch[i]) {
			refs[k] = p.scratch[i]
			k++
		}
	}
	return mid
}
