package shader

import (
	"fmt"
	"sort"
	"strings"
)

// CompileError reports a stage that the driver refused to compile.
type CompileError struct {
	Stage Stage
	Path  string
	Log   string
}

func (e *CompileError) Error() string {
	var path string
	if e.Path != "" {
		path = " " + e.Path
	}
	return fmt.Sprintf("compile %s shader%s: %s", e.Stage, path, strings.TrimRight(e.Log, "\x00\n "))
}

// LinkError reports a program that failed to link.
type LinkError struct {
	Log string
}

func (e *LinkError) Error() string {
	return "link program: " + strings.TrimRight(e.Log, "\x00\n ")
}

// UniformTypeError reports a uniform declared with a type the renderer does
// not upload. Setting it would fail with GL_INVALID_OPERATION on every frame.
type UniformTypeError struct {
	Name      string
	Want, Got uint32
}

func (e *UniformTypeError) Error() string {
	return fmt.Sprintf("uniform %s has type 0x%04x, want 0x%04x", e.Name, e.Got, e.Want)
}

func checkUniformTypes(active, want map[string]uint32) error {
	names := make([]string, 0, len(want))
	for name := range want {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		got, ok := active[name]
		if ok && got != want[name] {
			return &UniformTypeError{Name: name, Want: want[name], Got: got}
		}
	}
	return nil
}
