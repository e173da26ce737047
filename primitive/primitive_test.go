package primitive

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/types"
)

func TestSingleSphereScenario(t *testing.T) {
	sphere := Sphere{Center: types.XYZ(0, 0, 0), Radius: 1.5, Color: types.XYZ(1, 0, 0)}
	tree := bvh.New([]Sphere{sphere})
	stats := tree.Build(bvh.DefaultBuildSettings())

	if stats.NodeCount != 1 || stats.LeafCount != 1 {
		t.Fatalf("expected a single root leaf; got %d nodes, %d leafs", stats.NodeCount, stats.LeafCount)
	}

	out, _ := tree.Traverse(bvh.NewRay(types.XYZ(0, 0, -10), types.XYZ(0, 0, 1)), bvh.TraverseOptions{})
	if !out.IsHit() {
		t.Fatal("expected ray towards the sphere to hit")
	}
	if math32.Abs(out.Distance-8.5) > 1e-4 {
		t.Fatalf("expected hit distance 8.5; got %f", out.Distance)
	}
	if !types.ApproxEqual(out.Hit.Normal, types.XYZ(0, 0, -1), 1e-4) {
		t.Fatalf("expected normal (0, 0, -1); got %v", out.Hit.Normal)
	}
	if out.Hit.Diffuse != sphere.Color {
		t.Fatalf("expected diffuse %v; got %v", sphere.Color, out.Hit.Diffuse)
	}

	out, _ = tree.Traverse(bvh.NewRay(types.XYZ(0, 0, -10), types.XYZ(1, 0, 0)), bvh.TraverseOptions{})
	if out.IsHit() || out.Distance != math32.MaxFloat32 {
		t.Fatalf("expected parallel offset ray to miss; got %+v", out)
	}
}

func TestSphereRayFromInside(t *testing.T) {
	sphere := Sphere{Center: types.XYZ(1, 1, 1), Radius: 2}

	hit, ok := sphere.CheckRay(bvh.NewRay(types.XYZ(1, 1, 1), types.XYZ(0, 1, 0)))
	if !ok {
		t.Fatal("expected ray starting inside the sphere to hit its far side")
	}
	if math32.Abs(hit.Distance-2) > 1e-5 {
		t.Fatalf("expected hit distance 2; got %f", hit.Distance)
	}
}

func TestCheckRayMiss(t *testing.T) {
	ray := bvh.NewRay(types.XYZ(0, 10, 0), types.XYZ(0, 1, 0))

	payloads := []bvh.Payload{
		Sphere{Center: types.XYZ(0, 0, 0), Radius: 1},
		NewTriangle(types.XYZ(-1, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 0, 1), types.XYZ(1, 1, 1)),
	}
	for index, p := range payloads {
		if hit, ok := p.CheckRay(ray); ok {
			t.Fatalf("[payload %d] expected miss; got hit at %f", index, hit.Distance)
		}
	}
}

func TestTriangleQueries(t *testing.T) {
	tri := NewTriangle(types.XYZ(0, 0, 0), types.XYZ(3, 0, 0), types.XYZ(0, 3, 0), types.XYZ(0, 1, 0))

	if exp := types.XYZ(1, 1, 0); tri.Point() != exp {
		t.Fatalf("expected centroid %v; got %v", exp, tri.Point())
	}
	if exp := (bvh.AABB{Min: types.XYZ(0, 0, 0), Max: types.XYZ(3, 3, 0)}); tri.Bounds() != exp {
		t.Fatalf("expected bounds %v; got %v", exp, tri.Bounds())
	}
	if exp := float32(9); tri.Cost() != exp {
		t.Fatalf("expected cost %f; got %f", exp, tri.Cost())
	}
	if exp := types.XYZ(0, 0, 1); tri.FaceNormal() != exp {
		t.Fatalf("expected face normal %v; got %v", exp, tri.FaceNormal())
	}

	hit, ok := tri.CheckRay(bvh.NewRay(types.XYZ(1, 1, 5), types.XYZ(0, 0, -1)))
	if !ok {
		t.Fatal("expected ray through the centroid to hit")
	}
	if math32.Abs(hit.Distance-5) > 1e-5 || hit.Normal != types.XYZ(0, 0, 1) {
		t.Fatalf("expected hit at distance 5 with normal (0, 0, 1); got %+v", hit)
	}

	// Outside the triangle but inside its bounding box
	if _, ok = tri.CheckRay(bvh.NewRay(types.XYZ(2.5, 2.5, 5), types.XYZ(0, 0, -1))); ok {
		t.Fatal("expected ray outside the triangle edge to miss")
	}
}

func TestTriangleInterpolatedNormal(t *testing.T) {
	tri := Triangle{
		Vertices: [3]types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:  [3]types.Vec3{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	}

	hit, ok := tri.CheckRay(bvh.NewRay(types.XYZ(1.0/3.0, 1.0/3.0, 1), types.XYZ(0, 0, -1)))
	if !ok {
		t.Fatal("expected hit")
	}
	exp := types.XYZ(1, 1, 1).Normalize()
	if !types.ApproxEqual(hit.Normal, exp, 1e-4) {
		t.Fatalf("expected interpolated normal %v; got %v", exp, hit.Normal)
	}

	// Zero vertex normals fall back to the geometric normal
	tri.Normals = [3]types.Vec3{}
	if hit, ok = tri.CheckRay(bvh.NewRay(types.XYZ(0.25, 0.25, 1), types.XYZ(0, 0, -1))); !ok {
		t.Fatal("expected hit")
	}
	if !types.ApproxEqual(hit.Normal, types.XYZ(0, 0, 1), 1e-5) {
		t.Fatalf("expected geometric normal; got %v", hit.Normal)
	}
}

func randomTriangles(rng *rand.Rand, count int) []Triangle {
	volume := bvh.NewAABB(types.Splat(-20), types.Splat(20))
	tris := make([]Triangle, count)
	for i := range tris {
		c := volume.RandomPointInside(rng)
		jitter := func() types.Vec3 {
			return types.XYZ(rng.Float32()*2-1, rng.Float32()*2-1, rng.Float32()*2-1).Mul(1.5)
		}
		tris[i] = NewTriangle(c.Add(jitter()), c.Add(jitter()), c.Add(jitter()), types.XYZ(float32(i), 0, 0))
	}
	return tris
}

func randomSpheres(rng *rand.Rand, count int) []Sphere {
	volume := bvh.NewAABB(types.Splat(-20), types.Splat(20))
	spheres := make([]Sphere, count)
	for i := range spheres {
		spheres[i] = Sphere{
			Center: volume.RandomPointInside(rng),
			Radius: 0.1 + rng.Float32(),
			Color:  types.XYZ(float32(i), 0, 0),
		}
	}
	return spheres
}

func checkAgainstBruteForce[P bvh.Payload](t *testing.T, name string, payloads []P, rng *rand.Rand) {
	t.Helper()
	for _, method := range []bvh.SplitMethod{bvh.HalfLongestAxis, bvh.OptimalSAH} {
		tree := bvh.New(payloads)
		tree.Build(bvh.BuildSettings{MaxDepth: 32, MinPayloadsPerNode: 2, SplitMethod: method})
		if err := tree.Validate(); err != nil {
			t.Fatalf("[%s/%s] %v", name, method, err)
		}

		hits := 0
		for i := 0; i < 400; i++ {
			origin := bvh.NewAABB(types.Splat(-40), types.Splat(40)).RandomPointInside(rng)
			target := bvh.NewAABB(types.Splat(-20), types.Splat(20)).RandomPointInside(rng)
			ray := bvh.NewRay(origin, target.Sub(origin))

			out, _ := tree.Traverse(ray, bvh.TraverseOptions{})
			expIndex, expHit := bvh.BruteForce(tree.Payloads(), ray)
			if expIndex < 0 {
				if out.IsHit() {
					t.Fatalf("[%s/%s] ray %d: expected miss; got hit at %f", name, method, i, out.Distance)
				}
				continue
			}

			hits++
			if out.Payload != &tree.Payloads()[expIndex] {
				t.Fatalf("[%s/%s] ray %d: expected payload %d to be hit first", name, method, i, expIndex)
			}
			if math32.Abs(out.Distance-expHit.Distance) > 1e-5 {
				t.Fatalf("[%s/%s] ray %d: expected distance %f; got %f", name, method, i, expHit.Distance, out.Distance)
			}
		}
		if hits == 0 {
			t.Fatalf("[%s/%s] expected some rays to hit", name, method)
		}
	}
}

func TestTraverseMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	checkAgainstBruteForce(t, "spheres", randomSpheres(rng, 300), rng)
	checkAgainstBruteForce(t, "triangles", randomTriangles(rng, 300), rng)

	// Mixed payload types share a tree through the interface type
	var mixed []bvh.Payload
	for _, s := range randomSpheres(rng, 100) {
		mixed = append(mixed, s)
	}
	for _, tri := range randomTriangles(rng, 100) {
		mixed = append(mixed, tri)
	}
	checkAgainstBruteForce(t, "mixed", mixed, rng)
}

func TestNoFalseMisses(t *testing.T) {
	rng := rand.New(rand.NewSource(77))
	spheres := randomSpheres(rng, 250)
	tris := randomTriangles(rng, 250)

	sphereTree := bvh.New(spheres)
	sphereTree.Build(bvh.DefaultBuildSettings())
	for i, s := range sphereTree.Payloads() {
		origin := s.Center.Add(types.XYZ(rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5).Normalize().Mul(100))
		out, _ := sphereTree.Traverse(bvh.NewRay(origin, s.Center.Sub(origin)), bvh.TraverseOptions{})
		if !out.IsHit() {
			t.Fatalf("expected ray through the center of sphere %d to hit", i)
		}
	}

	triTree := bvh.New(tris)
	triTree.Build(bvh.BuildSettings{MaxDepth: 32, MinPayloadsPerNode: 1, SplitMethod: bvh.OptimalSAH})
	for i, tri := range triTree.Payloads() {
		origin := tri.Centroid().Add(tri.FaceNormal().Mul(100))
		out, _ := triTree.Traverse(bvh.NewRay(origin, tri.Centroid().Sub(origin)), bvh.TraverseOptions{})
		if !out.IsHit() {
			t.Fatalf("expected ray through the centroid of triangle %d to hit", i)
		}
	}
}
