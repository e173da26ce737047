package bvh

import (
	"time"
)

// Statistics collected while building a tree.
type BuildStats struct {
	MaxDepth  int
	NodeCount int
	LeafCount int

	// Smallest and largest number of payloads stored in a single leaf.
	MinLeafPayloads int
	MaxLeafPayloads int

	BuildTime time.Duration
}

func (s *BuildStats) recordLeaf(depth, count int) {
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
	if s.LeafCount == 0 || count < s.MinLeafPayloads {
		s.MinLeafPayloads = count
	}
	if count > s.MaxLeafPayloads {
		s.MaxLeafPayloads = count
	}
	s.LeafCount++
}

// Build the tree. Any previous tree is discarded.
//
// The payload array is partitioned in place so its order changes. Degenerate
// inputs (no payloads, a single payload, coincident points) produce a valid
// tree with fewer leaves; Build never fails. An unknown split method is
// logged and replaced by HalfLongestAxis.
func (b *BVH[P]) Build(settings BuildSettings) BuildStats {
	switch settings.SplitMethod {
	case HalfLongestAxis, OptimalSAH:
	default:
		b.logger.Warningf("unknown split method %s; falling back to %s", settings.SplitMethod, HalfLongestAxis)
		settings.SplitMethod = HalfLongestAxis
	}
	b.settings = settings
	b.nodes = b.nodes[:0]
	b.nodes = append(b.nodes, Node{
		Bounds: EmptyAABB(),
		Left:   0,
		Count:  uint32(len(b.payloads)),
	})

	var stats BuildStats
	start := time.Now()
	b.split(0, 0, &stats)
	stats.NodeCount = len(b.nodes)
	stats.BuildTime = time.Since(start)
	b.built = true

	b.logger.Debugf(
		"BVH tree build time: %d ms, payloads: %d, method: %s, maxDepth: %d, nodes: %d, leafs: %d, leaf payloads: %d-%d",
		stats.BuildTime.Nanoseconds()/1e6, len(b.payloads), settings.SplitMethod,
		stats.MaxDepth, stats.NodeCount, stats.LeafCount,
		stats.MinLeafPayloads, stats.MaxLeafPayloads,
	)
	return stats
}

// Recursively split the node at nodeIndex.
func (b *BVH[P]) split(nodeIndex uint32, depth int, stats *BuildStats) {
	node := &b.nodes[nodeIndex]
	first := int(node.Left)
	count := int(node.Count)

	// Refresh node bounds from its payload range
	if count > 0 {
		bounds := EmptyAABB()
		for i := first; i < first+count; i++ {
			bounds.ExpandToFitAABB(b.payloads[i].Bounds())
		}
		node.Bounds = bounds
	}

	if depth == b.settings.MaxDepth {
		stats.recordLeaf(depth, count)
		return
	}

	var plane Split
	switch b.settings.SplitMethod {
	case HalfLongestAxis:
		plane = splitHalfLongestAxis(node.Bounds)
	case OptimalSAH:
		plane = splitOptimalSAH(b.payloads[first:first+count], node.Bounds)
	}

	// Partition payloads in place so that the ones on the left side of the
	// plane end up in [first, mid).
	i := first
	j := first + count - 1
	for i <= j {
		if GetSide(b.payloads[i].Point(), plane) {
			i++
		} else {
			b.payloads[i], b.payloads[j] = b.payloads[j], b.payloads[i]
			j--
		}
	}
	mid := i

	leftCount := mid - first
	rightCount := count - leftCount
	minCount := b.settings.MinPayloadsPerNode
	if leftCount == 0 || leftCount == count || leftCount <= minCount || rightCount <= minCount {
		stats.recordLeaf(depth, count)
		return
	}

	// Children are appended as a contiguous pair. Appending may reallocate
	// the node array so node must not be used past this point.
	leftIndex := uint32(len(b.nodes))
	b.nodes = append(b.nodes,
		Node{Bounds: EmptyAABB(), Left: uint32(first), Count: uint32(leftCount)},
		Node{Bounds: EmptyAABB(), Left: uint32(mid), Count: uint32(rightCount)},
	)
	b.nodes[nodeIndex].Left = leftIndex
	b.nodes[nodeIndex].Count = 0

	b.split(leftIndex, depth+1, stats)
	b.split(leftIndex+1, depth+1, stats)
}
