package shader

import (
	"errors"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ErrNoSources is returned by Reload for a program built from the bundled
// shaders, which have no files to reload from.
var ErrNoSources = errors.New("program has no source files")

// Program is a linked GL program built from two source files. All methods
// must be called on the thread that owns the GL context.
type Program struct {
	ID           uint32
	VertexPath   string
	FragmentPath string

	// UniformTypes, when set, maps uniform names to the GL type the caller
	// uploads. Reload rejects sources that declare any of them differently.
	UniformTypes map[string]uint32

	uniforms map[string]int32
}

// NewProgram loads, compiles and links the vertex and fragment sources.
func NewProgram(vertexPath, fragmentPath string) (*Program, error) {
	vsSrc, err := LoadSource(vertexPath)
	if err != nil {
		return nil, err
	}
	fsSrc, err := LoadSource(fragmentPath)
	if err != nil {
		return nil, err
	}

	id, err := build(vsSrc, vertexPath, fsSrc, fragmentPath)
	if err != nil {
		return nil, err
	}
	return &Program{
		ID:           id,
		VertexPath:   vertexPath,
		FragmentPath: fragmentPath,
		uniforms:     make(map[string]int32),
	}, nil
}

// NewDefaultProgram builds the bundled shaders.
func NewDefaultProgram() (*Program, error) {
	id, err := build(DefaultSource(Vertex), "", DefaultSource(Fragment), "")
	if err != nil {
		return nil, err
	}
	return &Program{ID: id, uniforms: make(map[string]int32)}, nil
}

func build(vsSrc, vsPath, fsSrc, fsPath string) (uint32, error) {
	vs, err := Compile(Vertex, vsSrc)
	if err != nil {
		if ce, ok := err.(*CompileError); ok {
			ce.Path = vsPath
		}
		return 0, err
	}
	defer gl.DeleteShader(vs)

	fs, err := Compile(Fragment, fsSrc)
	if err != nil {
		if ce, ok := err.(*CompileError); ok {
			ce.Path = fsPath
		}
		return 0, err
	}
	defer gl.DeleteShader(fs)

	return Link(vs, fs)
}

// Compile compiles one stage. On failure the returned error is a
// *CompileError carrying the driver's info log.
func Compile(stage Stage, source string) (uint32, error) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == Fragment {
		kind = gl.FRAGMENT_SHADER
	}
	sh := gl.CreateShader(kind)

	csources, free := gl.Strs(cString(source))
	gl.ShaderSource(sh, 1, csources, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(sh, logLength, nil, &log[0])
		gl.DeleteShader(sh)
		return 0, &CompileError{Stage: stage, Log: string(log)}
	}

	return sh, nil
}

// Link links compiled stages into a program. On failure the returned error
// is a *LinkError.
func Link(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, sh := range shaders {
		gl.AttachShader(program, sh)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, &LinkError{Log: string(log)}
	}

	for _, sh := range shaders {
		gl.DetachShader(program, sh)
	}
	return program, nil
}

// Reload rebuilds the program from its source files. On failure the
// current program is left in place and stays usable.
func (p *Program) Reload() error {
	if p.VertexPath == "" || p.FragmentPath == "" {
		return ErrNoSources
	}
	next, err := NewProgram(p.VertexPath, p.FragmentPath)
	if err != nil {
		return err
	}
	if err := next.CheckUniforms(p.UniformTypes); err != nil {
		next.Delete()
		return err
	}
	p.Delete()
	p.ID = next.ID
	p.uniforms = next.uniforms
	return nil
}

// Use makes p the current program.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Uniform returns the location of a uniform, -1 when the program does not
// use it. Locations are cached.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.ID, gl.Str(cString(name)))
	p.uniforms[name] = loc
	return loc
}

// Delete releases the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// ActiveUniforms returns the type of every uniform the linked program uses.
func (p *Program) ActiveUniforms() map[string]uint32 {
	var count, maxLen int32
	gl.GetProgramiv(p.ID, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(p.ID, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)

	active := make(map[string]uint32, count)
	name := make([]uint8, maxLen+1)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(p.ID, uint32(i), maxLen+1, &length, &size, &xtype, &name[0])
		active[string(name[:length])] = xtype
	}
	return active
}

// CheckUniforms reports the first uniform in want that the program declares
// with another type. Uniforms the program does not use are fine.
func (p *Program) CheckUniforms(want map[string]uint32) error {
	if len(want) == 0 {
		return nil
	}
	return checkUniformTypes(p.ActiveUniforms(), want)
}
