package tracer

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/types"
)

var ErrInvalidCamera = errors.New("tracer: invalid camera setup")

// Ray directions through the four corners of the image plane (top-left,
// top-right, bottom-left, bottom-right). Primary rays are generated by
// interpolating between them.
type Frustrum [4]types.Vec3

func (fr Frustrum) String() string {
	return fmt.Sprintf(
		"Frustrum Rays:\nTL : (%3.3f, %3.3f, %3.3f)\nTR : (%3.3f, %3.3f, %3.3f)\nBL : (%3.3f, %3.3f, %3.3f)\nBR : (%3.3f, %3.3f, %3.3f)",
		fr[0][0], fr[0][1], fr[0][2],
		fr[1][0], fr[1][1], fr[1][2],
		fr[2][0], fr[2][1], fr[2][2],
		fr[3][0], fr[3][1], fr[3][2],
	)
}

// A pinhole camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	Frustrum Frustrum

	aspect float32
}

// Create a camera at the origin looking down the -Z axis.
func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.XYZ(0, 0, 0),
		LookAt:   types.XYZ(0, 0, -1),
		Up:       types.XYZ(0, 1, 0),
		FOV:      fov,
		aspect:   1,
	}
}

// Set the width/height ratio of the image plane and update the frustrum.
func (c *Camera) SetupProjection(aspect float32) error {
	if aspect <= 0 {
		return fmt.Errorf("%w: aspect ratio %f", ErrInvalidCamera, aspect)
	}
	c.aspect = aspect
	return c.Update()
}

// Rotate the camera around its look-at point. Yaw rotates around the up
// vector and pitch around the camera's right vector; both are in radians.
func (c *Camera) Orbit(yaw, pitch float32) error {
	offset := c.Position.Sub(c.LookAt)
	right := c.LookAt.Sub(c.Position).Cross(c.Up).Normalize()

	yawQuat := types.QuatFromAxisAngle(c.Up, yaw)
	pitchQuat := types.QuatFromAxisAngle(right, pitch)
	orientQuat := yawQuat.Mul(pitchQuat).Normalize()

	c.Position = c.LookAt.Add(orientQuat.Rotate(offset))
	return c.Update()
}

// Recalculate the frustrum corner rays.
func (c *Camera) Update() error {
	dir := c.LookAt.Sub(c.Position)
	if dir.Len() == 0 {
		return fmt.Errorf("%w: position and look-at point coincide", ErrInvalidCamera)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("%w: fov %f", ErrInvalidCamera, c.FOV)
	}

	forward := dir.Normalize()
	right := forward.Cross(c.Up).Normalize()
	if right.Len() == 0 {
		return fmt.Errorf("%w: up vector is parallel to the view direction", ErrInvalidCamera)
	}
	up := right.Cross(forward)

	halfH := math32.Tan(c.FOV * math32.Pi / 360)
	halfW := halfH * c.aspect
	vx := right.Mul(halfW)
	vy := up.Mul(halfH)

	c.Frustrum[0] = forward.Sub(vx).Add(vy)
	c.Frustrum[1] = forward.Add(vx).Add(vy)
	c.Frustrum[2] = forward.Sub(vx).Sub(vy)
	c.Frustrum[3] = forward.Add(vx).Sub(vy)
	return nil
}

// Generate the primary ray through the center of pixel (x, y) of a
// frameW x frameH image. Row 0 is the top of the image.
func (c *Camera) Ray(x, y, frameW, frameH uint32) bvh.Ray {
	u := (float32(x) + 0.5) / float32(frameW)
	v := (float32(y) + 0.5) / float32(frameH)

	top := c.Frustrum[0].Lerp(c.Frustrum[1], u)
	bottom := c.Frustrum[2].Lerp(c.Frustrum[3], u)
	return bvh.NewRay(c.Position, top.Lerp(bottom, v))
}
