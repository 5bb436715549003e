package render

import (
	"errors"
	"fmt"
	"log/slog"

	"volumerender/pkg/atlas"
	"volumerender/pkg/normals"
	"volumerender/pkg/shader"
)

// Options configures the window and shader sources.
type Options struct {
	Width  int
	Height int
	Title  string
	VSync  bool

	VertexPath   string
	FragmentPath string

	// WatchShaders rebuilds the program when either source file changes.
	WatchShaders bool
}

// Renderer is the rendering context: the window, the GL objects and the
// user-controlled state. Create it with New and start it with Run.
type Renderer struct {
	opts     Options
	logger   *slog.Logger
	controls *Controls

	volume  *atlas.Atlas
	normals *normals.Map

	// window state
	win           window
	width, height int
	resized       bool
	quit          bool
	reload        bool

	// GL objects
	vertexArray  uint32
	vertexBuffer uint32
	uvBuffer     uint32
	volumeTex    uint32
	normalsTex   uint32
	program      shaderProgram
	watcher      *shader.Watcher

	// lastGLError is the error code reported by the previous frame
	lastGLError uint32
}

// shaderProgram is the part of *shader.Program the renderer drives.
type shaderProgram interface {
	Reload() error
	Use()
	Uniform(name string) int32
	Delete()
}

// window is the part of the native window the renderer needs while drawing.
type window interface {
	SwapBuffers()
	ShouldClose() bool
}

// New creates a renderer for the two atlases. No window or GL state is
// created until Run.
func New(opts Options, volume *atlas.Atlas, normalMap *normals.Map, logger *slog.Logger) (*Renderer, error) {
	if volume == nil || normalMap == nil {
		return nil, errors.New("render: volume and normal atlases are required")
	}
	if volume.Width != normalMap.Width || volume.Height != normalMap.Height {
		return nil, errors.New("render: volume and normal atlases differ in size")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		opts:     opts,
		logger:   logger,
		controls: NewControls(),
		volume:   volume,
		normals:  normalMap,
		width:    opts.Width,
		height:   opts.Height,
	}, nil
}

// Controls exposes the user-controlled state.
func (r *Renderer) Controls() *Controls {
	return r.controls
}

// Size returns the last framebuffer size reported to OnResize.
func (r *Renderer) Size() (width, height int) {
	return r.width, r.height
}

// Quitting reports whether the user asked to close the window.
func (r *Renderer) Quitting() bool {
	return r.quit
}

// OnKey implements Handler.
func (r *Renderer) OnKey(key Key) {
	r.logger.Debug("key pressed", "key", key.String())

	switch r.controls.Key(key) {
	case CommandQuit:
		r.quit = true
	case CommandReload:
		r.reload = true
	case CommandToggleMode:
		r.logger.Info("display mode", "mode", r.controls.Mode.String())
	case CommandSpace:
		r.logger.Info("spacebar pressed")
	}
}

// OnMouseButton implements Handler.
func (r *Renderer) OnMouseButton(button MouseButton, action Action, x, y float64) {
	r.logger.Debug("mouse button "+action.String(), "button", button.String(), "x", x, "y", y)
	r.controls.MouseButton(button, action, x, y)
}

// OnMouseMove implements Handler. Motion is only reported while a button is
// held; the light follows left-button drags.
func (r *Renderer) OnMouseMove(x, y float64) {
	if !r.controls.ButtonHeld() {
		return
	}
	r.logger.Debug("mouse is at", "x", x, "y", y)
	if r.controls.MouseMove(x, y) {
		d := r.controls.LightDirection
		r.logger.Debug("light direction", "x", d.X(), "y", d.Y(), "z", d.Z())
	}
}

// OnResize implements Handler. The viewport is updated before the next frame.
func (r *Renderer) OnResize(width, height int) {
	r.logger.Debug("resizing window", "width", width, "height", height)
	r.width, r.height = width, height
	r.resized = true
}

// reloadIfRequested rebuilds the program after an r key press or a source
// change. It reports whether a new program is in use; on failure the
// previous one keeps drawing.
func (r *Renderer) reloadIfRequested() bool {
	if r.watcher != nil && r.watcher.Pending() {
		r.reload = true
	}
	if !r.reload {
		return false
	}
	r.reload = false

	err := r.program.Reload()
	switch {
	case errors.Is(err, shader.ErrNoSources):
		r.logger.Info("bundled shaders in use, nothing to reload")
		return false
	case err != nil:
		r.logger.Error("shader reload failed, keeping previous program", "err", err)
		return false
	}
	r.logger.Info("shaders reloaded")
	return true
}

// reportGLError logs a GL error raised while drawing. A code repeated on
// consecutive frames is logged once.
func (r *Renderer) reportGLError(code uint32) {
	if code == r.lastGLError {
		return
	}
	r.lastGLError = code
	if code != 0 {
		r.logger.Error("OpenGL error while drawing", "code", fmt.Sprintf("0x%04x", code))
	}
}
