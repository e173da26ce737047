package reader

import (
	"errors"
	"math/rand"

	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/primitive"
	"github.com/whoJake/fluidsim/types"
)

var ErrInvalidSphereOptions = errors.New("reader: invalid sphere options")

// Options for generating a random sphere scene.
type SphereOptions struct {
	Count int

	// Seed for the random generator. The same seed always yields the same
	// spheres.
	Seed int64

	// Sphere centers are placed uniformly inside [-Extent, Extent]^3.
	Extent float32

	MinRadius float32
	MaxRadius float32
}

// Get options for a scene of count spheres scattered inside a 20 unit cube.
func DefaultSphereOptions(count int, seed int64) SphereOptions {
	return SphereOptions{
		Count:     count,
		Seed:      seed,
		Extent:    10,
		MinRadius: 0.05,
		MaxRadius: 0.5,
	}
}

// Generate randomly placed and colored spheres.
func GenerateSpheres(opts SphereOptions) ([]primitive.Sphere, error) {
	if opts.Count < 0 || opts.Extent <= 0 || opts.MinRadius <= 0 || opts.MaxRadius < opts.MinRadius {
		return nil, ErrInvalidSphereOptions
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	volume := bvh.NewAABB(types.Splat(-opts.Extent), types.Splat(opts.Extent))
	spheres := make([]primitive.Sphere, opts.Count)
	for i := range spheres {
		spheres[i] = primitive.Sphere{
			Center: volume.RandomPointInside(rng),
			Radius: opts.MinRadius + rng.Float32()*(opts.MaxRadius-opts.MinRadius),
			Color:  types.XYZ(0.2+0.8*rng.Float32(), 0.2+0.8*rng.Float32(), 0.2+0.8*rng.Float32()),
		}
	}
	return spheres, nil
}
