// Package shader loads GLSL sources, compiles and links them into programs,
// and watches the source files so edits can be picked up while rendering.
package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Stage identifies a shader pipeline stage.
type Stage int

const (
	Vertex Stage = iota
	Fragment
)

func (s Stage) String() string {
	switch s {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ErrNotFound is returned when a shader source file does not exist.
var ErrNotFound = errors.New("shader source not found")

// ErrEmpty is returned for a source file with no code in it.
var ErrEmpty = errors.New("shader source is empty")

//go:embed defaults/volume.vert defaults/volume.frag
var defaults embed.FS

// Default file names, used by WriteDefaults.
const (
	DefaultVertexName   = "volume.vert"
	DefaultFragmentName = "volume.frag"
)

// DefaultSource returns the bundled source for stage.
func DefaultSource(stage Stage) string {
	name := DefaultVertexName
	if stage == Fragment {
		name = DefaultFragmentName
	}
	data, err := defaults.ReadFile("defaults/" + name)
	if err != nil {
		// embedded at build time
		panic(err)
	}
	return string(data)
}

// LoadSource reads a shader stage from path.
func LoadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return "", fmt.Errorf("error reading shader: %w", err)
	}
	src := string(data)
	if strings.TrimSpace(src) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, path)
	}
	return src, nil
}

// WriteDefaults writes the bundled shaders into dir, keeping any file that
// already exists. It returns the paths of the files it wrote.
func WriteDefaults(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating shader directory: %w", err)
	}

	var written []string
	for _, stage := range []Stage{Vertex, Fragment} {
		name := DefaultVertexName
		if stage == Fragment {
			name = DefaultFragmentName
		}
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(DefaultSource(stage)), 0644); err != nil {
			return written, fmt.Errorf("error writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// cString terminates src for the GL API.
func cString(src string) string {
	if strings.HasSuffix(src, "\x00") {
		return src
	}
	return src + "\x00"
}
