package bvh

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/types"
)

// An axis-aligned bounding box. Boxes computed from real geometry satisfy
// Min <= Max on every axis.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create an empty box. The empty box uses the largest finite float values
// (not infinities) so that arithmetic on it stays finite. It is the identity
// element for ExpandToFit folds.
func EmptyAABB() AABB {
	return AABB{
		Min: types.Splat(math32.MaxFloat32),
		Max: types.Splat(-math32.MaxFloat32),
	}
}

// Create a box from two corner points in any order.
func NewAABB(p1, p2 types.Vec3) AABB {
	return AABB{
		Min: types.MinVec3(p1, p2),
		Max: types.MaxVec3(p1, p2),
	}
}

// Returns true if no point has been folded into the box.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Get the box center.
func (b AABB) Centre() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the box side lengths.
func (b AABB) Size() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Get the box half side lengths.
func (b AABB) Extent() types.Vec3 {
	return b.Size().Mul(0.5)
}

// Get the axis along which the box is longest.
func (b AABB) LongestAxis() types.Axis {
	return b.Size().MaxAxis()
}

// Check if the box contains a point. Points on the box faces are inside.
func (b AABB) Contains(p types.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Check if a sphere with the given center and radius touches the box.
func (b AABB) ContainsSphere(p types.Vec3, radius float32) bool {
	var dist float32
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] {
			delta := p[axis] - b.Min[axis]
			dist += delta * delta
		} else if p[axis] > b.Max[axis] {
			delta := p[axis] - b.Max[axis]
			dist += delta * delta
		}
	}
	return dist <= radius*radius
}

// Check if other lies completely inside the box.
func (b AABB) ContainsAABB(other AABB) bool {
	return b.Contains(other.Min) && b.Contains(other.Max)
}

// Check if the two boxes overlap. Touching boxes intersect.
func (b AABB) Intersects(other AABB) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// Grow the box so that it includes p.
func (b *AABB) ExpandToFit(p types.Vec3) {
	b.Min = types.MinVec3(b.Min, p)
	b.Max = types.MaxVec3(b.Max, p)
}

// Grow the box so that it includes other.
func (b *AABB) ExpandToFitAABB(other AABB) {
	b.Min = types.MinVec3(b.Min, other.Min)
	b.Max = types.MaxVec3(b.Max, other.Max)
}

// Get the total area of the box faces.
func (b AABB) SurfaceArea() float32 {
	side := b.Size()
	return 2 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Get the SAH cost of the box. Only half of the box faces are visible from
// a given ray direction so the cost is half of the surface area.
func (b AABB) SAHCost() float32 {
	return b.SurfaceArea() * 0.5
}

// Sample a point inside the box. Each axis is sampled uniformly.
func (b AABB) RandomPointInside(rng *rand.Rand) types.Vec3 {
	return types.Vec3{
		b.Min[0] + rng.Float32()*(b.Max[0]-b.Min[0]),
		b.Min[1] + rng.Float32()*(b.Max[1]-b.Min[1]),
		b.Min[2] + rng.Float32()*(b.Max[2]-b.Min[2]),
	}
}
