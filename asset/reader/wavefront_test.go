package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/whoJake/fluidsim/asset"
	"github.com/whoJake/fluidsim/types"
)

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestWavefrontReader(t *testing.T) {
	dir := writeFixtures(t, map[string]string{
		"scene.obj": `# test scene
mtllib materials.mtl
camera_eye 0 1 -5
camera_look 0 0 0
camera_fov 60

o floor
v -1 0 -1
v 1 0 -1
v 1 0 1
v -1 0 1
vn 0 1 0
usemtl red
f 1//1 2//1 3//1 4//1

call tri.obj
`,
		"materials.mtl": `newmtl red
Kd 1 0 0
newmtl blue
Kd 0 0 1
`,
		"tri.obj": `v 0 2 0
v 1 2 0
v 0 3 0
vt 0 0
f 1/1 2/1 3/1
usemtl blue
f -3 -2 -1
`,
	})

	sc, err := ReadScene(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	if len(sc.Triangles) != 4 {
		t.Fatalf("expected 4 triangles; got %d", len(sc.Triangles))
	}

	// Quad is fan-triangulated around its first vertex
	expFan := [][3]types.Vec3{
		{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}},
		{{-1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
	}
	for index, exp := range expFan {
		tri := sc.Triangles[index]
		if tri.Vertices != exp {
			t.Fatalf("[tri %d] expected vertices %v; got %v", index, exp, tri.Vertices)
		}
		if tri.Color != types.XYZ(1, 0, 0) {
			t.Fatalf("[tri %d] expected red color; got %v", index, tri.Color)
		}
		if tri.Normals[0] != types.XYZ(0, 1, 0) {
			t.Fatalf("[tri %d] expected explicit vertex normal; got %v", index, tri.Normals[0])
		}
	}

	// Indices in the included file are relative to the included file
	called := sc.Triangles[2]
	if called.Vertices[0] != types.XYZ(0, 2, 0) || called.Color != types.XYZ(1, 0, 0) {
		t.Fatalf("unexpected triangle from included file: %+v", called)
	}
	if called.Normals[0] != called.FaceNormal() {
		t.Fatalf("expected flat normals for faces without vn; got %v", called.Normals)
	}
	if sc.Triangles[3].Vertices != called.Vertices || sc.Triangles[3].Color != types.XYZ(0, 0, 1) {
		t.Fatalf("expected negative indices to select the same vertices in blue; got %+v", sc.Triangles[3])
	}

	if sc.Camera == nil {
		t.Fatal("expected camera to be defined")
	}
	if sc.Camera.Eye != types.XYZ(0, 1, -5) || sc.Camera.FOV != 60 || sc.Camera.Up != types.XYZ(0, 1, 0) {
		t.Fatalf("unexpected camera setup: %+v", sc.Camera)
	}
}

func TestWavefrontDefaultColor(t *testing.T) {
	res := asset.NewResourceFromStream("inline.obj", strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	sc, err := newWavefrontReader().Read(res)
	if err != nil {
		t.Fatal(err)
	}
	if len(sc.Triangles) != 1 || sc.Triangles[0].Color != DefaultColor {
		t.Fatalf("expected a single triangle with the default color; got %+v", sc.Triangles)
	}
	if sc.Camera != nil {
		t.Fatalf("expected no camera; got %+v", sc.Camera)
	}
}

func TestWavefrontErrors(t *testing.T) {
	type spec struct {
		input  string
		expErr string
	}
	specs := []spec{
		{"v 1 2\n", `[inline.obj: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
		{"v 0 0 0\nf 1 2\n", `[inline.obj: 2] error: unsupported syntax for "f"; expected at least 3 arguments; got 2`},
		{"v 0 0 0\nf 1 1 4\n", `[inline.obj: 2] error: could not parse vertex coord for face argument 2: index out of bounds`},
		{"v 0 0 0\nf 1 1/1 1\n", `[inline.obj: 2] error: expected each face argument to contain 1 indices; arg 1 contains 2 indices`},
		{"usemtl missing\n", `[inline.obj: 1] error: undefined material with name "missing"`},
		{"mtllib\n", `[inline.obj: 1] error: unsupported syntax for "mtllib"; expected 1 argument; got 0`},
	}

	for index, s := range specs {
		res := asset.NewResourceFromStream("inline.obj", strings.NewReader(s.input))
		_, err := newWavefrontReader().Read(res)
		if err == nil || err.Error() != s.expErr {
			t.Fatalf("[spec %d] expected error:\n%s\ngot:\n%v", index, s.expErr, err)
		}
	}
}

func TestWavefrontIncludeErrorFrames(t *testing.T) {
	dir := writeFixtures(t, map[string]string{
		"scene.obj": "call broken.obj\n",
		"broken.obj": "v 0 0 0\nv a b c\n",
	})
	scenePath := filepath.Join(dir, "scene.obj")

	_, err := ReadScene(scenePath)
	if err == nil {
		t.Fatal("expected error")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected error with an include frame; got %q", err.Error())
	}
	if !strings.HasPrefix(lines[0], "[") || !strings.Contains(lines[0], "broken.obj: 2] error:") {
		t.Fatalf("expected error to point at broken.obj:2; got %q", lines[0])
	}
	if lines[1] != "referenced from "+scenePath+":1 [call]" {
		t.Fatalf("unexpected include frame %q", lines[1])
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	dir := writeFixtures(t, map[string]string{"scene.ply": "ply\n"})
	if _, err := ReadScene(filepath.Join(dir, "scene.ply")); err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}
