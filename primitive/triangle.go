package primitive

import (
	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/types"
)

// Determinants below this threshold are treated as rays parallel to the
// triangle plane.
const parallelEpsilon float32 = 1e-8

// A triangle with per-vertex normals.
type Triangle struct {
	Vertices [3]types.Vec3
	Normals  [3]types.Vec3
	Color    types.Vec3
}

// Create a triangle whose vertex normals all match the face normal.
func NewTriangle(v0, v1, v2, color types.Vec3) Triangle {
	tri := Triangle{
		Vertices: [3]types.Vec3{v0, v1, v2},
		Color:    color,
	}
	n := tri.FaceNormal()
	tri.Normals = [3]types.Vec3{n, n, n}
	return tri
}

// Get the geometric normal following counter-clockwise winding.
func (t Triangle) FaceNormal() types.Vec3 {
	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])
	return e1.Cross(e2).Normalize()
}

// Get the triangle centroid.
func (t Triangle) Centroid() types.Vec3 {
	return t.Vertices[0].Add(t.Vertices[1]).Add(t.Vertices[2]).Mul(1.0 / 3.0)
}

func (t Triangle) Bounds() bvh.AABB {
	return bvh.AABB{
		Min: types.MinVec3(t.Vertices[0], types.MinVec3(t.Vertices[1], t.Vertices[2])),
		Max: types.MaxVec3(t.Vertices[0], types.MaxVec3(t.Vertices[1], t.Vertices[2])),
	}
}

func (t Triangle) Point() types.Vec3 {
	return t.Centroid()
}

func (t Triangle) Cost() float32 {
	return t.Bounds().SAHCost()
}

// Möller–Trumbore ray-triangle intersection. Both faces are hittable.
func (t Triangle) CheckRay(ray bvh.Ray) (bvh.RayHitInfo, bool) {
	e1 := t.Vertices[1].Sub(t.Vertices[0])
	e2 := t.Vertices[2].Sub(t.Vertices[0])

	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < parallelEpsilon {
		return bvh.RayHitInfo{}, false
	}
	invDet := 1 / det

	s := ray.Position.Sub(t.Vertices[0])
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return bvh.RayHitInfo{}, false
	}

	q := s.Cross(e1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return bvh.RayHitInfo{}, false
	}

	dist := e2.Dot(q) * invDet
	if dist < MinHitDistance {
		return bvh.RayHitInfo{}, false
	}

	w := 1 - u - v
	normal := t.Normals[0].Mul(w).Add(t.Normals[1].Mul(u)).Add(t.Normals[2].Mul(v)).Normalize()
	if normal == (types.Vec3{}) {
		normal = e1.Cross(e2).Normalize()
	}

	return bvh.RayHitInfo{
		Distance: dist,
		Diffuse:  t.Color,
		Normal:   normal,
	}, true
}
