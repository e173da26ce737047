// Package reader loads triangle geometry from scene files.
package reader

import (
	"fmt"

	"github.com/whoJake/fluidsim/asset"
	"github.com/whoJake/fluidsim/primitive"
	"github.com/whoJake/fluidsim/types"
)

// Default diffuse color for surfaces without a material.
var DefaultColor = types.XYZ(0.7, 0.7, 0.7)

// Camera placement that may optionally be embedded in a scene file.
type CameraSetup struct {
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3

	// Vertical field of view in degrees.
	FOV float32
}

// The result of reading a scene file.
type Scene struct {
	Triangles []primitive.Triangle

	// Nil if the scene file does not define a camera.
	Camera *CameraSetup
}

// The Reader interface is implemented by all scene readers.
type Reader interface {
	// Read scene definition from a resource.
	Read(*asset.Resource) (*Scene, error)
}

// Read scene from a local file or a http(s) URL. The reader is selected
// based on the file extension.
func ReadScene(pathToScene string) (*Scene, error) {
	res, err := asset.NewResource(pathToScene, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	reader, err := readerFor(res)
	if err != nil {
		return nil, err
	}
	return reader.Read(res)
}

// Read the triangles of a scene file, ignoring any other scene data.
func ReadTriangles(pathToScene string) ([]primitive.Triangle, error) {
	sc, err := ReadScene(pathToScene)
	if err != nil {
		return nil, err
	}
	return sc.Triangles, nil
}

func readerFor(res *asset.Resource) (Reader, error) {
	switch res.Ext() {
	case ".obj":
		return newWavefrontReader(), nil
	case ".gltf", ".glb":
		return newGltfReader(), nil
	}
	return nil, fmt.Errorf("reader: unsupported file format %q", res.Ext())
}
