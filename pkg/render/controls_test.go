package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestKeyCommands(t *testing.T) {
	tests := []struct {
		key  Key
		want Command
	}{
		{'q', CommandQuit},
		{'Q', CommandQuit},
		{KeyEscape, CommandQuit},
		{'r', CommandReload},
		{'n', CommandToggleMode},
		{' ', CommandSpace},
		{'x', CommandNone},
		{'1', CommandNone},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			c := NewControls()
			assert.Equal(t, tt.want, c.Key(tt.key))
		})
	}
}

func TestDisplayModeCycles(t *testing.T) {
	c := NewControls()
	assert.Equal(t, ShowVolume, c.Mode)

	c.Key('n')
	assert.Equal(t, ShowNormals, c.Mode)
	assert.Equal(t, "normals", c.Mode.String())

	c.Key('N')
	assert.Equal(t, ShowVolume, c.Mode)

	// other keys leave the mode alone
	c.Key('r')
	c.Key('q')
	assert.Equal(t, ShowVolume, c.Mode)
}

func TestDragRotatesLight(t *testing.T) {
	c := NewControls()
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, c.LightDirection)

	// moving without the button held does nothing
	assert.False(t, c.MouseMove(100, 100))
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, c.LightDirection)

	c.MouseButton(MouseLeft, Press, 0, 0)
	assert.True(t, c.Dragging())

	// a quarter turn about y swings the light from +z to +x
	quarter := math.Pi / 2 / dragSensitivity
	assert.True(t, c.MouseMove(quarter, 0))
	d := c.LightDirection
	assert.InDelta(t, 1, d.X(), 1e-4)
	assert.InDelta(t, 0, d.Y(), 1e-4)
	assert.InDelta(t, 0, d.Z(), 1e-4)

	// no travel, no rotation
	assert.False(t, c.MouseMove(quarter, 0))

	c.MouseButton(MouseLeft, Release, quarter, 0)
	assert.False(t, c.Dragging())
	assert.False(t, c.MouseMove(0, 0))
}

func TestDragKeepsUnitLength(t *testing.T) {
	c := NewControls()
	c.MouseButton(MouseLeft, Press, 0, 0)

	x, y := 0.0, 0.0
	for i := 0; i < 200; i++ {
		x += float64(i%7) * 3
		y -= float64(i%5) * 2
		c.MouseMove(x, y)
		assert.InDelta(t, 1, c.LightDirection.Len(), 1e-5)
	}
}

func TestOtherButtonsDoNotDrag(t *testing.T) {
	c := NewControls()
	c.MouseButton(MouseRight, Press, 0, 0)
	c.MouseButton(MouseMiddle, Press, 0, 0)
	assert.False(t, c.Dragging())
	assert.True(t, c.ButtonHeld())

	c.MouseButton(MouseRight, Release, 0, 0)
	assert.True(t, c.ButtonHeld())
	c.MouseButton(MouseMiddle, Release, 0, 0)
	assert.False(t, c.ButtonHeld())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "Escape", KeyEscape.String())
	assert.Equal(t, "a", Key('a').String())
	assert.Equal(t, "pressed", Press.String())
	assert.Equal(t, "released", Release.String())
	assert.Equal(t, "Left", MouseLeft.String())
	assert.Equal(t, "MouseButton(9)", MouseButton(9).String())
	assert.Equal(t, "volume", ShowVolume.String())
}

func TestLegend(t *testing.T) {
	legend := Legend()
	assert.NotEmpty(t, legend)
	assert.Contains(t, legend[0], "quit")
}
