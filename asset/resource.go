// Package asset provides access to scene files stored locally or served over
// http(s).
package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrUnsupportedScheme = errors.New("resource: unsupported scheme")

// A Resource is a readable stream backed by a local file or a remote URL.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Get the full path or URL of this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Get the file name of this resource without any leading directories.
func (r *Resource) Name() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return filepath.Base(r.url.Path)
}

// Get the lower-case file extension (including the leading dot).
func (r *Resource) Ext() string {
	return strings.ToLower(path.Ext(r.url.Path))
}

// Returns true if the resource is fetched over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource. Paths without a scheme are resolved relative to the
// directory of relTo when it is not nil. Remote resources are fetched with
// http.Get. Callers must close the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	loc, err := url.Parse(strings.ReplaceAll(pathToResource, `\`, `/`))
	if err != nil {
		return nil, fmt.Errorf("resource: invalid path %q: %w", pathToResource, err)
	}

	if loc.Scheme == "" && relTo != nil {
		loc, err = resolveRelative(loc.Path, relTo)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch loc.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(loc.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(loc.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", loc.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", loc.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("%w '%s'", ErrUnsupportedScheme, loc.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        loc,
	}, nil
}

func resolveRelative(relPath string, relTo *Resource) (*url.URL, error) {
	base, _ := url.Parse(relTo.url.String())
	if base.Scheme != "" {
		base.Path = path.Join(path.Dir(base.Path), relPath)
		return base, nil
	}

	abs, err := filepath.Abs(relTo.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.url.String(), err)
	}
	base.Path = filepath.Join(filepath.Dir(abs), relPath)
	return base, nil
}

// Wrap an in-memory stream as a resource. The name is used for extension
// detection and error messages.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	loc, err := url.Parse(name)
	if err != nil {
		loc = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        loc,
	}
}
