// Package primitive provides the concrete payload types that can be indexed
// by a BVH.
package primitive

import (
	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/types"
)

// Hits closer than this distance are ignored to avoid self intersections
// when rays are spawned from a surface.
const MinHitDistance float32 = 1e-4

// A solid colored sphere.
type Sphere struct {
	Center types.Vec3
	Radius float32
	Color  types.Vec3
}

func (s Sphere) Bounds() bvh.AABB {
	r := types.Splat(s.Radius)
	return bvh.AABB{
		Min: s.Center.Sub(r),
		Max: s.Center.Add(r),
	}
}

func (s Sphere) Point() types.Vec3 {
	return s.Center
}

func (s Sphere) Cost() float32 {
	return s.Bounds().SAHCost()
}

// Ray-sphere intersection. The ray direction must be normalized.
func (s Sphere) CheckRay(ray bvh.Ray) (bvh.RayHitInfo, bool) {
	oc := ray.Position.Sub(s.Center)
	b := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return bvh.RayHitInfo{}, false
	}

	sq := math32.Sqrt(disc)
	t := -b - sq
	if t < MinHitDistance {
		// Ray starts inside the sphere
		t = -b + sq
		if t < MinHitDistance {
			return bvh.RayHitInfo{}, false
		}
	}

	return bvh.RayHitInfo{
		Distance: t,
		Diffuse:  s.Color,
		Normal:   ray.At(t).Sub(s.Center).Mul(1 / s.Radius),
	}, true
}
