package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/whoJake/fluidsim/asset"
	"github.com/whoJake/fluidsim/log"
	"github.com/whoJake/fluidsim/primitive"
	"github.com/whoJake/fluidsim/types"
)

type wavefrontSceneReader struct {
	logger log.Logger

	scene *Scene

	// Diffuse color of each material defined by the loaded libraries.
	materials map[string]types.Vec3

	// Color applied to faces; switched by usemtl.
	curColor types.Vec3

	vertexList []types.Vec3
	normalList []types.Vec3

	// Frames describing the include chain (call/mtllib) of the file being
	// parsed; appended to error messages.
	errStack []string
}

func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:    log.New("wavefront reader"),
		scene:     &Scene{},
		materials: make(map[string]types.Vec3),
		curColor:  DefaultColor,
	}
}

// Read a wavefront object file and any files it references.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	if err := r.parse(sceneRes); err != nil {
		return nil, err
	}

	r.logger.Noticef("parsed %d triangles in %d ms", len(r.scene.Triangles), time.Since(start).Milliseconds())
	return r.scene, nil
}

// Generate an error message that also includes the include chain.
func (r *wavefrontSceneReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return errors.New(strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontSceneReader) camera() *CameraSetup {
	if r.scene.Camera == nil {
		r.scene.Camera = &CameraSetup{Up: types.XYZ(0, 1, 0), FOV: 45}
	}
	return r.scene.Camera
}

func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	var lineNum int
	var err error

	// Positive indices in included files are relative to the coordinates
	// defined by that file.
	relVertexOffset := len(r.vertexList)
	relNormalOffset := len(r.normalList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))
			if err = r.include(lineTokens[0], lineTokens[1], res); err != nil {
				return err
			}
			r.popFrame()
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			color, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `undefined material with name "%s"`, lineTokens[1])
			}
			r.curColor = color
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.vertexList = append(r.vertexList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.normalList = append(r.normalList, v)
		case "f":
			tris, err := r.parseFace(lineTokens, relVertexOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.scene.Triangles = append(r.scene.Triangles, tris...)
		case "camera_fov":
			r.camera().FOV, err = parseFloat32(lineTokens)
		case "camera_eye":
			r.camera().Eye, err = parseVec3(lineTokens)
		case "camera_look":
			r.camera().Look, err = parseVec3(lineTokens)
		case "camera_up":
			r.camera().Up, err = parseVec3(lineTokens)
		default:
			// vt, o, g, s and friends carry nothing we can use
			continue
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, "%s", err)
		}
	}

	if err = scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err)
	}
	return nil
}

func (r *wavefrontSceneReader) include(directive, target string, parent *asset.Resource) error {
	incRes, err := asset.NewResource(target, parent)
	if err != nil {
		return fmt.Errorf("%s\n%s", err.Error(), strings.Join(r.errStack, "\n"))
	}
	defer incRes.Close()

	if directive == "call" {
		return r.parse(incRes)
	}
	return r.parseMaterials(incRes)
}

// Parse a face definition into one or more triangles. Each face argument
// uses one of the following formats:
// - v
// - v/vt
// - v//vn
// - v/vt/vn
//
// Indices start from 1 and may be negative to select coordinates from the
// end of the list. Polygons with more than 3 vertices are triangulated as a
// fan around the first vertex.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relNormalOffset int) ([]primitive.Triangle, error) {
	if len(lineTokens) < 4 {
		return nil, fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	argCount := len(lineTokens) - 1
	vertices := make([]types.Vec3, argCount)
	normals := make([]types.Vec3, argCount)
	expIndices := 0
	hasNormals := false
	for arg := 0; arg < argCount; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return nil, fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		offset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return nil, fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		vertices[arg] = r.vertexList[offset]

		if expIndices > 2 && vTokens[2] != "" {
			offset, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset)
			if err != nil {
				return nil, fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
			normals[arg] = r.normalList[offset]
			hasNormals = true
		}
	}

	tris := make([]primitive.Triangle, 0, argCount-2)
	for i := 1; i+1 < argCount; i++ {
		tri := primitive.NewTriangle(vertices[0], vertices[i], vertices[i+1], r.curColor)
		if hasNormals {
			tri.Normals = [3]types.Vec3{normals[0], normals[i], normals[i+1]}
		}
		tris = append(tris, tri)
	}
	return tris, nil
}

// Parse a material library. Only the diffuse color of each material is
// retained.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	var lineNum int
	var matName string

	r.logger.Infof(`parsing material library "%s"`, res.Path())

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "newmtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			matName = lineTokens[1]
			if _, exists := r.materials[matName]; exists {
				return r.emitError(res.Path(), lineNum, `material "%s" already defined`, matName)
			}
			r.materials[matName] = DefaultColor
		case "Kd":
			if matName == "" {
				return r.emitError(res.Path(), lineNum, `got "%s" without a "newmtl"`, lineTokens[0])
			}

			kd, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err)
			}
			r.materials[matName] = kd
		}
	}

	return scanner.Err()
}

// Given an index for a face coord type calculate the offset into the coord
// list. Negative indices reference elements from the end of the list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var offset int
	if index < 0 {
		offset = coordListLen + int(index)
	} else {
		offset = relOffset + int(index-1)
	}
	if offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return offset, nil
}

func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
