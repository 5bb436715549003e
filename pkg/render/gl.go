package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"volumerender/pkg/shader"
)

// Run opens the window, uploads geometry and textures, builds the shader
// program and dispatches events until the window is closed. It must be
// called from the main goroutine locked to its OS thread.
func (r *Renderer) Run() error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)

	win, err := glfw.CreateWindow(r.opts.Width, r.opts.Height, r.opts.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer win.Destroy()
	win.MakeContextCurrent()
	r.win = win

	if r.opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.logger.Info("OpenGL context",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)))

	if err := r.loadShaders(); err != nil {
		return err
	}
	r.createGeometry()
	if err := r.loadTextures(); err != nil {
		r.cleanUp()
		return err
	}
	defer r.cleanUp()

	r.registerCallbacks(win)
	fbw, fbh := win.GetFramebufferSize()
	r.OnResize(fbw, fbh)

	for !win.ShouldClose() && !r.quit {
		if err := r.OnFrame(); err != nil {
			return err
		}
		glfw.PollEvents()
	}
	return nil
}

// registerCallbacks forwards window events to the Handler methods.
func (r *Renderer) registerCallbacks(win *glfw.Window) {
	var h Handler = r

	win.SetCharCallback(func(w *glfw.Window, char rune) {
		h.OnKey(Key(char))
	})
	win.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			h.OnKey(KeyEscape)
		}
	})
	win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		var b MouseButton
		switch button {
		case glfw.MouseButtonLeft:
			b = MouseLeft
		case glfw.MouseButtonRight:
			b = MouseRight
		case glfw.MouseButtonMiddle:
			b = MouseMiddle
		default:
			return
		}
		a := Press
		if action == glfw.Release {
			a = Release
		}
		x, y := w.GetCursorPos()
		h.OnMouseButton(b, a, x, y)
	})
	win.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		h.OnMouseMove(x, y)
	})
	win.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		h.OnResize(width, height)
	})
}

// uniformTypes are the GL types OnFrame uploads for each uniform.
var uniformTypes = map[string]uint32{
	UniformVolumeSampler:  gl.SAMPLER_2D,
	UniformNormalsSampler: gl.SAMPLER_2D,
	UniformDisplayMode:    gl.INT,
	UniformLightDirection: gl.FLOAT_VEC3,
}

// loadShaders builds the program from the configured files. When either
// file is missing the bundled shaders are used instead.
func (r *Renderer) loadShaders() error {
	p, err := shader.NewProgram(r.opts.VertexPath, r.opts.FragmentPath)
	if errors.Is(err, shader.ErrNotFound) {
		r.logger.Warn("shader sources not found, using bundled shaders",
			"vertex", r.opts.VertexPath, "fragment", r.opts.FragmentPath, "err", err)
		p, err = shader.NewDefaultProgram()
		if err != nil {
			return fmt.Errorf("failed to build bundled shaders: %w", err)
		}
		r.program = p
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to build shaders: %w", err)
	}
	if err := p.CheckUniforms(uniformTypes); err != nil {
		p.Delete()
		return fmt.Errorf("failed to build shaders: %w", err)
	}
	p.UniformTypes = uniformTypes
	r.program = p

	if r.opts.WatchShaders {
		w, err := shader.NewWatcher(r.logger, r.opts.VertexPath, r.opts.FragmentPath)
		if err != nil {
			r.logger.Warn("shader hot reload disabled", "err", err)
		} else {
			r.watcher = w
		}
	}
	return nil
}

// createGeometry uploads the full-screen quad.
func (r *Renderer) createGeometry() {
	vertices := QuadVertices()
	uvs := QuadUVs()

	gl.GenVertexArrays(1, &r.vertexArray)
	gl.BindVertexArray(r.vertexArray)

	gl.GenBuffers(1, &r.vertexBuffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vertexBuffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(attribPosition)
	gl.VertexAttribPointerWithOffset(attribPosition, 2, gl.FLOAT, false, 0, 0)

	gl.GenBuffers(1, &r.uvBuffer)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.uvBuffer)
	gl.BufferData(gl.ARRAY_BUFFER, len(uvs)*4, gl.Ptr(uvs), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(attribUV)
	gl.VertexAttribPointerWithOffset(attribUV, 2, gl.FLOAT, false, 0, 0)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// loadTextures uploads the volume and normal atlases.
func (r *Renderer) loadTextures() error {
	var maxSize int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	if r.volume.Width > int(maxSize) || r.volume.Height > int(maxSize) {
		return fmt.Errorf("atlas %dx%d exceeds the maximum texture size %d",
			r.volume.Width, r.volume.Height, maxSize)
	}

	r.volumeTex = uploadRGB(r.volume.Width, r.volume.Height, r.volume.RGB)
	r.normalsTex = uploadRGB(r.normals.Width, r.normals.Height, r.normals.RGB)
	return nil
}

func uploadRGB(width, height int, pix []uint8) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	// rows are tightly packed
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8, int32(width), int32(height), 0,
		gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(pix))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// OnFrame implements Handler. GL errors raised while drawing are logged and
// do not stop the loop, so a shader being edited cannot end the session.
func (r *Renderer) OnFrame() error {
	r.reloadIfRequested()
	if r.resized {
		gl.Viewport(0, 0, int32(r.width), int32(r.height))
		r.resized = false
	}

	// Dark background
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	r.program.Use()

	// volume in unit 0, normals in unit 1
	gl.ActiveTexture(gl.TEXTURE0 + unitVolume)
	gl.BindTexture(gl.TEXTURE_2D, r.volumeTex)
	gl.Uniform1i(r.program.Uniform(UniformVolumeSampler), unitVolume)

	gl.ActiveTexture(gl.TEXTURE0 + unitNormals)
	gl.BindTexture(gl.TEXTURE_2D, r.normalsTex)
	gl.Uniform1i(r.program.Uniform(UniformNormalsSampler), unitNormals)

	// user-controlled variables
	gl.Uniform1i(r.program.Uniform(UniformDisplayMode), int32(r.controls.Mode))
	light := r.controls.LightDirection
	gl.Uniform3f(r.program.Uniform(UniformLightDirection), light.X(), light.Y(), light.Z())

	gl.BindVertexArray(r.vertexArray)
	gl.DrawArrays(gl.TRIANGLES, 0, quadVertexCount)
	gl.BindVertexArray(0)

	code := gl.GetError()
	if code != gl.NO_ERROR {
		// drain the remaining flags
		for gl.GetError() != gl.NO_ERROR {
		}
	}
	r.reportGLError(code)

	r.win.SwapBuffers()
	return nil
}

// cleanUp releases every GL object and stops the shader watcher.
func (r *Renderer) cleanUp() {
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	if r.program != nil {
		r.program.Delete()
	}
	textures := []uint32{r.volumeTex, r.normalsTex}
	gl.DeleteTextures(int32(len(textures)), &textures[0])
	gl.DeleteBuffers(1, &r.vertexBuffer)
	gl.DeleteBuffers(1, &r.uvBuffer)
	gl.DeleteVertexArrays(1, &r.vertexArray)
}
