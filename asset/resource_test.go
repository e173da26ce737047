package asset

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	_, thisFile, _, _ := runtime.Caller(0)
	res, err := NewResource(thisFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource")
	}
	if res.Name() != "resource_test.go" || res.Ext() != ".go" {
		t.Fatalf("expected name resource_test.go with ext .go; got %s / %s", res.Name(), res.Ext())
	}

	sibling, err := NewResource("resource.go", res)
	if err != nil {
		t.Fatal(err)
	}
	defer sibling.Close()
	if filepath.Dir(sibling.Path()) != filepath.Dir(thisFile) {
		t.Fatalf("expected sibling to resolve next to %s; got %s", thisFile, sibling.Path())
	}
}

func TestHttpResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/cube.OBJ", "/models/cube.mtl":
			w.Write([]byte("OK"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	res, err := NewResource(server.URL+"/models/cube.OBJ", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if !res.IsRemote() || res.Name() != "cube.OBJ" || res.Ext() != ".obj" {
		t.Fatalf("unexpected remote resource metadata: %s %s %v", res.Name(), res.Ext(), res.IsRemote())
	}
	data, err := io.ReadAll(res)
	if err != nil || string(data) != "OK" {
		t.Fatalf("expected body OK; got %q (%v)", data, err)
	}

	// Relative paths resolve against the parent URL
	mtl, err := NewResource("cube.mtl", res)
	if err != nil {
		t.Fatal(err)
	}
	mtl.Close()

	missing := server.URL + "/models/missing.obj"
	_, err = NewResource(missing, nil)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected 404 error for %s; got %v", missing, err)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	_, err := NewResource("gopher://digging.obj", nil)
	if !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme; got %v", err)
	}
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("inline/scene.gltf", strings.NewReader("{}"))
	defer res.Close()

	if res.Ext() != ".gltf" || res.IsRemote() {
		t.Fatalf("unexpected stream resource metadata: %s %v", res.Ext(), res.IsRemote())
	}
}
