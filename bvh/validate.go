package bvh

import (
	"errors"
	"fmt"
)

var (
	ErrNotBuilt          = errors.New("bvh: tree has not been built")
	ErrNodeOutOfRange    = errors.New("bvh: child node index out of range")
	ErrPayloadOutOfRange = errors.New("bvh: leaf payload range out of bounds")
	ErrPayloadCoverage   = errors.New("bvh: payload not covered by exactly one leaf")
	ErrBoundsMismatch    = errors.New("bvh: node bounds do not contain payload bounds")
	ErrLeafTooSmall      = errors.New("bvh: leaf payload count violates min payloads per node")
)

// Check the structural invariants of the tree. Validate walks the whole tree
// and is meant for tests and diagnostics, not for the hot path.
func (b *BVH[P]) Validate() error {
	if !b.built || len(b.nodes) == 0 {
		return ErrNotBuilt
	}

	// An empty tree consists of a single empty root leaf.
	if len(b.payloads) == 0 {
		if len(b.nodes) != 1 || b.nodes[0].Count != 0 {
			return fmt.Errorf("%w: empty tree with %d nodes", ErrNodeOutOfRange, len(b.nodes))
		}
		return nil
	}

	coverage := make([]int, len(b.payloads))
	if err := b.validateNode(0, coverage); err != nil {
		return err
	}

	for index, count := range coverage {
		if count != 1 {
			return fmt.Errorf("%w: payload %d referenced by %d leaves", ErrPayloadCoverage, index, count)
		}
	}
	return nil
}

func (b *BVH[P]) validateNode(nodeIndex uint32, coverage []int) error {
	node := &b.nodes[nodeIndex]

	if node.IsInternal() {
		// Children are always appended after their parent
		if node.Left <= nodeIndex || int(node.Left)+1 >= len(b.nodes) {
			return fmt.Errorf("%w: node %d points to children %d, %d (node count %d)",
				ErrNodeOutOfRange, nodeIndex, node.Left, node.Left+1, len(b.nodes))
		}
		for child := node.Left; child <= node.Left+1; child++ {
			childNode := &b.nodes[child]
			if !node.Bounds.ContainsAABB(childNode.Bounds) {
				return fmt.Errorf("%w: node %d does not contain child %d", ErrBoundsMismatch, nodeIndex, child)
			}
			if err := b.validateNode(child, coverage); err != nil {
				return err
			}
		}
		return nil
	}

	last := int(node.Left) + int(node.Count)
	if last > len(b.payloads) {
		return fmt.Errorf("%w: node %d covers [%d, %d) but only %d payloads exist",
			ErrPayloadOutOfRange, nodeIndex, node.Left, last, len(b.payloads))
	}

	if nodeIndex != 0 && int(node.Count) <= b.settings.MinPayloadsPerNode {
		return fmt.Errorf("%w: leaf %d holds %d payloads (min %d)",
			ErrLeafTooSmall, nodeIndex, node.Count, b.settings.MinPayloadsPerNode)
	}

	for i := int(node.Left); i < last; i++ {
		coverage[i]++
		if !node.Bounds.ContainsAABB(b.payloads[i].Bounds()) {
			return fmt.Errorf("%w: leaf %d, payload %d", ErrBoundsMismatch, nodeIndex, i)
		}
	}
	return nil
}

// Estimate the expected cost of intersecting a random ray with the tree.
// Each node contributes its surface area relative to the root; leaves
// additionally weigh in the Cost of the payloads they hold.
func (b *BVH[P]) SAHCost() float32 {
	if len(b.nodes) == 0 || len(b.payloads) == 0 {
		return 0
	}

	rootArea := b.nodes[0].Bounds.SurfaceArea()
	if rootArea <= 0 {
		return 0
	}

	var total float32
	for index := range b.nodes {
		node := &b.nodes[index]
		prob := node.Bounds.SurfaceArea() / rootArea
		if node.IsInternal() {
			total += prob
			continue
		}

		var leafCost float32
		for i := node.Left; i < node.Left+node.Count; i++ {
			leafCost += b.payloads[i].Cost()
		}
		total += prob * leafCost
	}
	return total
}
