package reader

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/whoJake/fluidsim/asset"
	"github.com/whoJake/fluidsim/log"
	"github.com/whoJake/fluidsim/primitive"
	"github.com/whoJake/fluidsim/types"
)

type gltfSceneReader struct {
	logger log.Logger
}

func newGltfReader() *gltfSceneReader {
	return &gltfSceneReader{
		logger: log.New("gltf reader"),
	}
}

// Read a glTF or GLB document. Local files are opened with gltf.Open so
// that external buffers can be resolved; remote documents must embed their
// buffers.
func (r *gltfSceneReader) Read(sceneRes *asset.Resource) (*Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	var doc *gltf.Document
	var err error
	if sceneRes.IsRemote() {
		doc = new(gltf.Document)
		err = gltf.NewDecoder(sceneRes).Decode(doc)
	} else {
		doc, err = gltf.Open(filepath.Clean(sceneRes.Path()))
	}
	if err != nil {
		return nil, fmt.Errorf("gltf reader: could not decode %s: %w", sceneRes.Path(), err)
	}

	tris, err := r.triangles(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf reader: %s: %w", sceneRes.Path(), err)
	}

	r.logger.Noticef("parsed %d triangles in %d ms", len(tris), time.Since(start).Milliseconds())
	return &Scene{Triangles: tris}, nil
}

// Collect the triangles of every mesh in the document. Node transforms are
// not applied.
func (r *gltfSceneReader) triangles(doc *gltf.Document) ([]primitive.Triangle, error) {
	var tris []primitive.Triangle
	for meshIndex, mesh := range doc.Meshes {
		for primIndex, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				r.logger.Warningf("skipping primitive %d of mesh %q with mode %v", primIndex, mesh.Name, prim.Mode)
				continue
			}

			primTris, err := primitiveTriangles(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIndex, err)
			}
			tris = append(tris, primTris...)
		}
	}
	return tris, nil
}

func primitiveTriangles(doc *gltf.Document, prim *gltf.Primitive) ([]primitive.Triangle, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("missing %s attribute", gltf.POSITION)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}

	color := materialColor(doc, prim.Material)
	tris := make([]primitive.Triangle, 0, len(indices)/3)
	for i := 0; i < len(indices); i += 3 {
		var v [3]types.Vec3
		for j := 0; j < 3; j++ {
			idx := int(indices[i+j])
			if idx >= len(positions) {
				return nil, fmt.Errorf("index %d out of range; %d positions defined", idx, len(positions))
			}
			v[j] = types.Vec3(positions[idx])
		}

		tri := primitive.NewTriangle(v[0], v[1], v[2], color)
		if len(normals) == len(positions) {
			for j := 0; j < 3; j++ {
				tri.Normals[j] = types.Vec3(normals[indices[i+j]])
			}
		}
		tris = append(tris, tri)
	}
	return tris, nil
}

// Get the base color factor of a material, ignoring alpha.
func materialColor(doc *gltf.Document, matIdx *int) types.Vec3 {
	if matIdx == nil || *matIdx >= len(doc.Materials) {
		return DefaultColor
	}
	pbr := doc.Materials[*matIdx].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return DefaultColor
	}
	f := pbr.BaseColorFactor
	return types.XYZ(float32(f[0]), float32(f[1]), float32(f[2]))
}
