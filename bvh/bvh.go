// Package bvh implements a bounding volume hierarchy over arbitrary payload
// primitives together with a nearest-hit ray traversal.
//
// The tree is stored as a flat node array. Build reorders the payload array
// in place; payload indices captured before a build are invalidated by it.
//
// Build requires exclusive access to the tree. Once Build returns, Traverse
// only reads the tree and may be called concurrently from multiple
// goroutines as long as no Build runs at the same time.
package bvh

import (
	"github.com/whoJake/fluidsim/log"
)

// A BVH node. Count == 0 marks an internal node whose children are stored at
// Left and Left+1. Count > 0 marks a leaf owning payloads [Left, Left+Count).
// The root of a tree built over no payloads is a leaf with Count == 0 and
// Left == 0. Children are always appended after their parent so an internal
// node never has Left == 0.
type Node struct {
	Bounds AABB
	Left   uint32
	Count  uint32
}

// Returns true if the node is an internal node.
func (n *Node) IsInternal() bool {
	return n.Count == 0 && n.Left != 0
}

// Build configuration.
type BuildSettings struct {
	// Nodes at this depth always become leaves. The root is at depth 0. A
	// negative value disables the depth limit.
	MaxDepth int

	// Splits producing a side with this many payloads or fewer are rejected.
	MinPayloadsPerNode int

	// The split plane selection algorithm.
	SplitMethod SplitMethod
}

// Get the default build settings.
func DefaultBuildSettings() BuildSettings {
	return BuildSettings{
		MaxDepth:           32,
		MinPayloadsPerNode: 5,
		SplitMethod:        HalfLongestAxis,
	}
}

// A bounding volume hierarchy over payloads of type P. Payloads are stored
// by value.
type BVH[P Payload] struct {
	logger log.Logger

	payloads []P
	nodes    []Node

	settings BuildSettings
	built    bool
}

// Create a BVH that owns a copy of the supplied payloads. Build must be
// called before the tree can be traversed.
func New[P Payload](payloads []P) *BVH[P] {
	owned := make([]P, len(payloads))
	copy(owned, payloads)

	return &BVH[P]{
		logger:   log.New("bvh"),
		payloads: owned,
	}
}

// Get the number of indexed payloads.
func (b *BVH[P]) Len() int {
	return len(b.payloads)
}

// Get the payload array. Its order reflects the last build; leaf nodes
// reference contiguous runs of it. Callers must not modify it.
func (b *BVH[P]) Payloads() []P {
	return b.payloads
}

// Get the flat node array. The root is node 0. Callers must not modify it.
func (b *BVH[P]) Nodes() []Node {
	return b.nodes
}

// Get the bounds of the root node. An unbuilt or empty tree returns
// EmptyAABB.
func (b *BVH[P]) Bounds() AABB {
	if len(b.nodes) == 0 {
		return EmptyAABB()
	}
	return b.nodes[0].Bounds
}

// Get the settings used by the last build.
func (b *BVH[P]) Settings() BuildSettings {
	return b.settings
}
