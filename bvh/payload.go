package bvh

import "github.com/whoJake/fluidsim/types"

// The Payload interface is implemented by all primitives that can be indexed
// by the BVH. All methods are pure queries.
type Payload interface {
	// Exact bounding box of the primitive.
	Bounds() AABB

	// A representative point (e.g. sphere center or triangle centroid) that
	// is used as the partitioning key when splitting nodes.
	Point() types.Vec3

	// SAH cost contribution of the primitive; typically the half surface
	// area of its bounding box.
	Cost() float32

	// Test the ray against the primitive. The returned hit info is only
	// meaningful when the second return value is true.
	CheckRay(ray Ray) (RayHitInfo, bool)
}

// A ray with a precomputed direction reciprocal.
//
// InvDirection must be computed once per ray (see NewRay). A zero direction
// component yields an infinite reciprocal; the slab test tolerates this by
// relying on IEEE-754 min/max semantics.
type Ray struct {
	Position     types.Vec3
	Direction    types.Vec3
	InvDirection types.Vec3
}

// Create a ray. The direction is normalized so hit distances are expressed
// in world units.
func NewRay(position, direction types.Vec3) Ray {
	dir := direction.Normalize()
	return Ray{
		Position:     position,
		Direction:    dir,
		InvDirection: dir.Recip(),
	}
}

// Get the point at distance t along the ray.
func (r Ray) At(t float32) types.Vec3 {
	return r.Position.Add(r.Direction.Mul(t))
}

// Information about a successful payload-ray intersection.
type RayHitInfo struct {
	Distance float32
	Diffuse  types.Vec3
	Normal   types.Vec3
}
