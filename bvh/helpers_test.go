package bvh

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/types"
)

// A minimal sphere payload. The primitive package cannot be imported here
// as it depends on bvh.
type testSphere struct {
	center types.Vec3
	radius float32
	id     int
}

func (s testSphere) Bounds() AABB {
	r := types.Splat(s.radius)
	return AABB{Min: s.center.Sub(r), Max: s.center.Add(r)}
}

func (s testSphere) Point() types.Vec3 {
	return s.center
}

func (s testSphere) Cost() float32 {
	return s.Bounds().SAHCost()
}

func (s testSphere) CheckRay(ray Ray) (RayHitInfo, bool) {
	oc := ray.Position.Sub(s.center)
	b := oc.Dot(ray.Direction)
	disc := b*b - (oc.Dot(oc) - s.radius*s.radius)
	if disc < 0 {
		return RayHitInfo{}, false
	}
	sq := math32.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
		if t < 0 {
			return RayHitInfo{}, false
		}
	}
	return RayHitInfo{
		Distance: t,
		Diffuse:  types.XYZ(float32(s.id), 0, 0),
		Normal:   ray.At(t).Sub(s.center).Normalize(),
	}, true
}

func randomTestSpheres(rng *rand.Rand, count int, extent, maxRadius float32) []testSphere {
	bounds := NewAABB(types.Splat(-extent), types.Splat(extent))
	spheres := make([]testSphere, count)
	for i := range spheres {
		spheres[i] = testSphere{
			center: bounds.RandomPointInside(rng),
			radius: 0.01 + rng.Float32()*maxRadius,
			id:     i,
		}
	}
	return spheres
}

// Spheres placed on the x axis at x = 0, 1, 2, ...
func lineOfSpheres(count int, radius float32) []testSphere {
	spheres := make([]testSphere, count)
	for i := range spheres {
		spheres[i] = testSphere{center: types.XYZ(float32(i), 0, 0), radius: radius, id: i}
	}
	return spheres
}
