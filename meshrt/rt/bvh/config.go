package bvh

import "fmt"

// SplitPolicy selects how an internal node's triangles are divided.
type SplitPolicy uint8

const (
	// SplitSAH evaluates binned surface area heuristic candidates along the
	// axis of greatest centroid extent.
	SplitSAH SplitPolicy = iota
	// SplitMiddle splits at the midpoint of the centroid bounds.
	SplitMiddle
	// SplitMedian splits by count at the centroid median.
	SplitMedian
)

func (p SplitPolicy) String() string {
	switch p {
	case SplitSAH:
		return "sah"
	case SplitMiddle:
		return "middle"
	case SplitMedian:
		return "median"
	}
	return fmt.Sprintf("SplitPolicy(%d)", uint8(p))
}

// ParseSplitPolicy maps a policy name as printed by String back to its value.
func ParseSplitPolicy(name string) (SplitPolicy, error) {
	switch name {
	case "sah", "":
		return SplitSAH, nil
	case "middle":
		return SplitMiddle, nil
	case "median":
		return SplitMedian, nil
	}
	return 0, fmt.Errorf("bvh: unknown split policy %q", name)
}

const (
	DefaultLeafThreshold = 4
	DefaultMaxDepth      = 64
	DefaultBins          = 12

	// Traversal keeps one stack slot per level, so builds never exceed it.
	maxStackDepth = 64
)

type Config struct {
	// Nodes with at most this many triangles become leaves.
	LeafThreshold int
	// Nodes at this depth become leaves regardless of their size.
	MaxDepth int
	Policy   SplitPolicy
	// Number of SAH buckets. Ignored by the other policies.
	Bins int
}

func DefaultConfig() Config {
	return Config{
		LeafThreshold: DefaultLeafThreshold,
		MaxDepth:      DefaultMaxDepth,
		Policy:        SplitSAH,
		Bins:          DefaultBins,
	}
}

// normalized fills unset fields with defaults and clamps the rest into the
// range the builder and traversal support.
func (c Config) normalized() Config {
	if c.LeafThreshold <= 0 {
		c.LeafThreshold = DefaultLeafThreshold
	}
	if c.MaxDepth <= 0 || c.MaxDepth > maxStackDepth {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Bins < 2 {
		c.Bins = DefaultBins
	}
	return c
}
