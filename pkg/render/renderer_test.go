package render

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volumerender/pkg/atlas"
	"volumerender/pkg/normals"
	"volumerender/pkg/shader"
)

var testLayout = atlas.Layout{SliceWidth: 4, SliceHeight: 4, Columns: 2, Rows: 2, Depth: 4}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	a, err := atlas.New(testLayout)
	require.NoError(t, err)
	m, err := normals.Estimate(a, 2)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := New(Options{Width: 320, Height: 240}, a, m, logger)
	require.NoError(t, err)
	return r
}

func TestNewValidation(t *testing.T) {
	a, err := atlas.New(testLayout)
	require.NoError(t, err)
	m, err := normals.Estimate(a, 1)
	require.NoError(t, err)

	_, err = New(Options{}, nil, m, nil)
	assert.Error(t, err)

	_, err = New(Options{}, a, nil, nil)
	assert.Error(t, err)

	other, err := atlas.New(atlas.Layout{SliceWidth: 2, SliceHeight: 2, Columns: 2, Rows: 2, Depth: 4})
	require.NoError(t, err)
	_, err = New(Options{}, other, m, nil)
	assert.Error(t, err)

	r, err := New(Options{Width: 10, Height: 20}, a, m, nil)
	require.NoError(t, err)
	w, h := r.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)
}

func TestRendererKeys(t *testing.T) {
	r := newTestRenderer(t)
	assert.False(t, r.Quitting())

	r.OnKey('n')
	assert.Equal(t, ShowNormals, r.Controls().Mode)

	r.OnKey('r')
	assert.True(t, r.reload)

	r.OnKey(' ')
	assert.False(t, r.Quitting())

	r.OnKey('q')
	assert.True(t, r.Quitting())
}

func TestRendererEscapeQuits(t *testing.T) {
	r := newTestRenderer(t)
	r.OnKey(KeyEscape)
	assert.True(t, r.Quitting())
}

func TestRendererResize(t *testing.T) {
	r := newTestRenderer(t)
	r.OnResize(800, 600)

	w, h := r.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.True(t, r.resized)
}

func TestRendererMouse(t *testing.T) {
	r := newTestRenderer(t)
	start := r.Controls().LightDirection

	r.OnMouseMove(50, 50)
	assert.Equal(t, start, r.Controls().LightDirection)

	r.OnMouseButton(MouseLeft, Press, 50, 50)
	r.OnMouseMove(80, 40)
	assert.NotEqual(t, start, r.Controls().LightDirection)

	r.OnMouseButton(MouseLeft, Release, 80, 40)
	moved := r.Controls().LightDirection
	r.OnMouseMove(200, 200)
	assert.Equal(t, moved, r.Controls().LightDirection)
}

func TestRendererLogsRightDrag(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	r.logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	start := r.Controls().LightDirection

	r.OnMouseMove(10, 10)
	assert.NotContains(t, buf.String(), "mouse is at")

	r.OnMouseButton(MouseRight, Press, 10, 10)
	r.OnMouseMove(30, 10)
	assert.Contains(t, buf.String(), "mouse is at")

	// only the left button moves the light
	assert.Equal(t, start, r.Controls().LightDirection)

	r.OnMouseButton(MouseRight, Release, 30, 10)
	buf.Reset()
	r.OnMouseMove(50, 10)
	assert.Empty(t, buf.String())
}

// fakeProgram stands in for a linked program without a GL context.
type fakeProgram struct {
	reloadErr error
	reloads   int
	deleted   bool
}

func (p *fakeProgram) Reload() error {
	p.reloads++
	return p.reloadErr
}

func (p *fakeProgram) Use() {}

func (p *fakeProgram) Uniform(name string) int32 { return -1 }

func (p *fakeProgram) Delete() { p.deleted = true }

func newReloadRenderer(t *testing.T, p *fakeProgram) (*Renderer, *bytes.Buffer) {
	t.Helper()
	r := newTestRenderer(t)
	var buf bytes.Buffer
	r.logger = slog.New(slog.NewTextHandler(&buf, nil))
	r.program = p
	return r, &buf
}

func TestReloadOnlyWhenRequested(t *testing.T) {
	p := &fakeProgram{}
	r, _ := newReloadRenderer(t, p)

	assert.False(t, r.reloadIfRequested())
	assert.Equal(t, 0, p.reloads)

	r.OnKey('r')
	assert.True(t, r.reloadIfRequested())
	assert.Equal(t, 1, p.reloads)

	// the request is consumed
	assert.False(t, r.reloadIfRequested())
	assert.Equal(t, 1, p.reloads)
}

func TestReloadFailureKeepsProgram(t *testing.T) {
	p := &fakeProgram{reloadErr: &shader.UniformTypeError{Name: UniformDisplayMode, Want: 0x1404, Got: 0x1406}}
	r, buf := newReloadRenderer(t, p)

	r.OnKey('r')
	assert.False(t, r.reloadIfRequested())
	assert.Same(t, p, r.program)
	assert.False(t, p.deleted)
	assert.Contains(t, buf.String(), "keeping previous program")
	assert.Contains(t, buf.String(), UniformDisplayMode)

	// a later edit can still succeed
	p.reloadErr = nil
	r.OnKey('r')
	assert.True(t, r.reloadIfRequested())
	assert.Contains(t, buf.String(), "shaders reloaded")
}

func TestReloadBundledShaders(t *testing.T) {
	p := &fakeProgram{reloadErr: shader.ErrNoSources}
	r, buf := newReloadRenderer(t, p)

	r.OnKey('R')
	assert.False(t, r.reloadIfRequested())
	assert.Contains(t, buf.String(), "nothing to reload")
	assert.NotContains(t, buf.String(), "shaders reloaded")
}

func TestReportGLError(t *testing.T) {
	r, buf := newReloadRenderer(t, &fakeProgram{})
	count := func() int { return strings.Count(buf.String(), "OpenGL error") }

	r.reportGLError(0)
	assert.Equal(t, 0, count())

	// GL_INVALID_OPERATION repeated on every frame is logged once
	for i := 0; i < 3; i++ {
		r.reportGLError(0x0502)
	}
	assert.Equal(t, 1, count())
	assert.Contains(t, buf.String(), "0x0502")

	// a clean frame re-arms the report
	r.reportGLError(0)
	r.reportGLError(0x0502)
	assert.Equal(t, 2, count())

	assert.False(t, r.Quitting())
}
