package bvh

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/types"
)

var ErrUnknownSplitMethod = errors.New("bvh: unknown split method")

// The algorithm used for selecting node split planes.
type SplitMethod uint8

const (
	// Split at the middle of the longest node axis.
	HalfLongestAxis SplitMethod = iota

	// Brute-force surface area heuristic search over all payload points.
	OptimalSAH
)

func (m SplitMethod) String() string {
	switch m {
	case HalfLongestAxis:
		return "half-longest-axis"
	case OptimalSAH:
		return "sah"
	}
	return fmt.Sprintf("split-method(%d)", uint8(m))
}

// Parse a split method name as returned by String.
func ParseSplitMethod(name string) (SplitMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "half-longest-axis", "half":
		return HalfLongestAxis, nil
	case "sah", "optimal-sah":
		return OptimalSAH, nil
	}
	return HalfLongestAxis, fmt.Errorf("%w %q", ErrUnknownSplitMethod, name)
}

// A split plane.
type Split struct {
	Axis  types.Axis
	Value float32
}

// Returns true if p lies on the left (lower) side of the split plane.
func GetSide(p types.Vec3, split Split) bool {
	return p[split.Axis] < split.Value
}

// Split at the midpoint of the axis along which bounds has the greatest extent.
func splitHalfLongestAxis(bounds AABB) Split {
	axis := bounds.LongestAxis()
	return Split{
		Axis:  axis,
		Value: bounds.Min[axis] + bounds.Size()[axis]*0.5,
	}
}

// Evaluate every payload point coordinate on every axis as a split candidate
// and return the one with the lowest SAH cost:
//
// left bbox SAH cost * left count + right bbox SAH cost * right count.
//
// Splits that leave one side empty score MaxFloat32 so they are never
// selected. If no candidate improves on that, the returned split sends all
// payloads to the right side.
func splitOptimalSAH[P Payload](payloads []P, bounds AABB) Split {
	best := Split{Axis: types.XAxis, Value: bounds.Min[types.XAxis]}
	bestCost := float32(math32.MaxFloat32)

	for _, candidate := range payloads {
		point := candidate.Point()
		for axis := types.XAxis; axis <= types.ZAxis; axis++ {
			split := Split{Axis: axis, Value: point[axis]}
			if cost := evaluateSAH(payloads, split); cost < bestCost {
				bestCost = cost
				best = split
			}
		}
	}

	return best
}

func evaluateSAH[P Payload](payloads []P, split Split) float32 {
	left, right := EmptyAABB(), EmptyAABB()
	var leftCount, rightCount int

	for i := range payloads {
		if GetSide(payloads[i].Point(), split) {
			leftCount++
			left.ExpandToFitAABB(payloads[i].Bounds())
		} else {
			rightCount++
			right.ExpandToFitAABB(payloads[i].Bounds())
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return math32.MaxFloat32
	}

	cost := left.SAHCost()*float32(leftCount) + right.SAHCost()*float32(rightCount)
	if cost > 0 {
		return cost
	}
	return math32.MaxFloat32
}
