package bvh

import (
	"github.com/chewxy/math32"
)

// Traversal options. MaxBounces is reserved for callers that spawn secondary
// rays; the traversal itself ignores it.
type TraverseOptions struct {
	MaxBounces uint32
}

// The result of a traversal. Payload is nil and Distance is MaxFloat32 when
// the ray hits nothing.
type TraverseOutput[P Payload] struct {
	// Points into the tree's payload array.
	Payload  *P
	Distance float32
	Hit      RayHitInfo
}

// Returns true if the ray hit a payload.
func (o *TraverseOutput[P]) IsHit() bool {
	return o.Payload != nil
}

// Counters collected during traversal.
type TraverseStats struct {
	NodesVisited   int
	PayloadsTested int
}

// Accumulate counters from other.
func (s *TraverseStats) Add(other TraverseStats) {
	s.NodesVisited += other.NodesVisited
	s.PayloadsTested += other.PayloadsTested
}

// Find the closest payload hit by the ray.
//
// Traverse does not modify the tree. It must not be called before Build or
// while a Build is in progress.
func (b *BVH[P]) Traverse(ray Ray, opts TraverseOptions) (TraverseOutput[P], TraverseStats) {
	out := TraverseOutput[P]{Distance: math32.MaxFloat32}
	var stats TraverseStats

	if len(b.payloads) == 0 || len(b.nodes) == 0 {
		return out, stats
	}

	b.traverseNode(0, &ray, &out, &stats)
	return out, stats
}

// Adapt Traverse to callers that only need the hit information.
func (b *BVH[P]) Intersect(ray Ray, opts TraverseOptions) (RayHitInfo, TraverseStats, bool) {
	out, stats := b.Traverse(ray, opts)
	return out.Hit, stats, out.IsHit()
}

func (b *BVH[P]) traverseNode(nodeIndex uint32, ray *Ray, out *TraverseOutput[P], stats *TraverseStats) {
	node := &b.nodes[nodeIndex]
	stats.NodesVisited++

	tmin, ok := intersectAABB(ray, &node.Bounds)
	if !ok || tmin > out.Distance {
		return
	}

	if !node.IsInternal() {
		last := node.Left + node.Count
		for i := node.Left; i < last; i++ {
			stats.PayloadsTested++
			if hit, ok := b.payloads[i].CheckRay(*ray); ok && hit.Distance < out.Distance {
				out.Payload = &b.payloads[i]
				out.Distance = hit.Distance
				out.Hit = hit
			}
		}
		return
	}

	near, far := node.Left, node.Left+1
	nearDist := entryDistance(ray, &b.nodes[near].Bounds)
	farDist := entryDistance(ray, &b.nodes[far].Bounds)
	if farDist < nearDist {
		near, far = far, near
	}

	b.traverseNode(near, ray, out, stats)
	b.traverseNode(far, ray, out, stats)
}

// Get the distance at which the ray enters the box or MaxFloat32 if the ray
// misses it.
func entryDistance(ray *Ray, bounds *AABB) float32 {
	if tmin, ok := intersectAABB(ray, bounds); ok {
		return tmin
	}
	return math32.MaxFloat32
}

// Slab test. Returns the entry distance along the ray and whether the ray
// hits the box. The entry distance is negative when the ray starts inside
// the box.
//
// Infinite InvDirection components are intentionally not special-cased.
func intersectAABB(ray *Ray, bounds *AABB) (float32, bool) {
	t1 := (bounds.Min[0] - ray.Position[0]) * ray.InvDirection[0]
	t2 := (bounds.Max[0] - ray.Position[0]) * ray.InvDirection[0]
	t3 := (bounds.Min[1] - ray.Position[1]) * ray.InvDirection[1]
	t4 := (bounds.Max[1] - ray.Position[1]) * ray.InvDirection[1]
	t5 := (bounds.Min[2] - ray.Position[2]) * ray.InvDirection[2]
	t6 := (bounds.Max[2] - ray.Position[2]) * ray.InvDirection[2]

	tmin := math32.Max(math32.Max(math32.Min(t1, t2), math32.Min(t3, t4)), math32.Min(t5, t6))
	tmax := math32.Min(math32.Min(math32.Max(t1, t2), math32.Max(t3, t4)), math32.Max(t5, t6))

	if tmax < tmin || tmax < 0 {
		return tmin, false
	}
	return tmin, true
}

// Find the closest payload hit by the ray using a linear scan. Returns the
// index of the hit payload or -1.
func BruteForce[P Payload](payloads []P, ray Ray) (int, RayHitInfo) {
	best := -1
	bestHit := RayHitInfo{Distance: math32.MaxFloat32}

	for i := range payloads {
		if hit, ok := payloads[i].CheckRay(ray); ok && hit.Distance < bestHit.Distance {
			best = i
			bestHit = hit
		}
	}
	return best, bestHit
}
