package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"github.com/whoJake/fluidsim/bvh"
)

var errTraversalMismatch = errors.New("traversal results differ from brute force")

type verifyResult struct {
	Rays       int
	Hits       int
	Mismatches int

	Traversal bvh.TraverseStats

	// Payload tests needed by the linear scan.
	BruteForceTests int
}

// Fire random rays at the tree and compare the nearest hit against a linear
// scan over all payloads. Ray origins are placed in a box three times the
// size of the scene bounds and aimed at points inside the scene.
func verifyTree[P bvh.Payload](tree *bvh.BVH[P], numRays int, rng *rand.Rand) verifyResult {
	var res verifyResult
	if tree.Len() == 0 {
		return res
	}

	bounds := tree.Bounds()
	size := bounds.Size()
	outer := bvh.NewAABB(bounds.Min.Sub(size), bounds.Max.Add(size))
	payloads := tree.Payloads()

	for i := 0; i < numRays; i++ {
		origin := outer.RandomPointInside(rng)
		target := bounds.RandomPointInside(rng)
		ray := bvh.NewRay(origin, target.Sub(origin))

		out, stats := tree.Traverse(ray, bvh.TraverseOptions{})
		res.Traversal.Add(stats)
		res.Rays++

		expIndex, expHit := bvh.BruteForce(payloads, ray)
		res.BruteForceTests += len(payloads)

		switch {
		case expIndex < 0 && !out.IsHit():
		case expIndex < 0 || !out.IsHit():
			res.Mismatches++
		default:
			res.Hits++
			// Equidistant payloads may legitimately resolve to either one
			if out.Payload != &payloads[expIndex] && math32.Abs(out.Distance-expHit.Distance) > 1e-5 {
				res.Mismatches++
			}
		}
	}
	return res
}

// Build the scene and compare traversal results against a linear scan.
func VerifyScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	if sc.index.Len() == 0 {
		return errors.New("scene contains no payloads")
	}
	if err = sc.index.Validate(); err != nil {
		return err
	}

	res := sc.verify(ctx.Int("rays"), rand.New(rand.NewSource(ctx.Int64("seed"))))
	displayVerifyResult(res)

	if res.Mismatches != 0 {
		return fmt.Errorf("%w: %d of %d rays", errTraversalMismatch, res.Mismatches, res.Rays)
	}
	return nil
}

func displayVerifyResult(res verifyResult) {
	perRay := func(v int) string {
		return fmt.Sprintf("%.1f", float64(v)/float64(res.Rays))
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Rays", "Hits", "Mismatches", "Nodes / ray", "Payload tests / ray", "Brute force tests / ray"})
	table.Append([]string{
		fmt.Sprintf("%d", res.Rays),
		fmt.Sprintf("%d", res.Hits),
		fmt.Sprintf("%d", res.Mismatches),
		perRay(res.Traversal.NodesVisited),
		perRay(res.Traversal.PayloadsTested),
		perRay(res.BruteForceTests),
	})
	table.Render()
	logger.Noticef("verification results\n%s", buf.String())
}
