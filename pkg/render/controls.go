package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Key is a character typed in the window. Non-printing keys the renderer
// cares about use their ASCII control codes.
type Key rune

// KeyEscape is the Escape key.
const KeyEscape Key = 0x1b

func (k Key) String() string {
	if k == KeyEscape {
		return "Escape"
	}
	return string(rune(k))
}

// Action is a button state change.
type Action int

const (
	Press Action = iota
	Release
)

func (a Action) String() string {
	if a == Press {
		return "pressed"
	}
	return "released"
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "Left"
	case MouseRight:
		return "Right"
	case MouseMiddle:
		return "Middle"
	}
	return fmt.Sprintf("MouseButton(%d)", int(b))
}

// DisplayMode selects what the bundled fragment shader shows.
type DisplayMode int32

const (
	ShowVolume DisplayMode = iota
	ShowNormals

	displayModeCount
)

func (m DisplayMode) String() string {
	switch m {
	case ShowVolume:
		return "volume"
	case ShowNormals:
		return "normals"
	}
	return fmt.Sprintf("DisplayMode(%d)", int(m))
}

// Command is what a key press asks the renderer to do.
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandReload
	CommandToggleMode
	CommandSpace
)

// dragSensitivity is the light rotation in radians per pixel of mouse travel.
const dragSensitivity = 0.01

// Controls holds the user-controlled state sent to the shader. It has no GL
// dependency, so all input handling can be exercised without a window.
type Controls struct {
	Mode           DisplayMode
	LightDirection mgl32.Vec3

	held         uint8
	dragging     bool
	lastX, lastY float64
}

// NewControls returns controls showing the volume, lit from the viewer.
func NewControls() *Controls {
	return &Controls{
		Mode:           ShowVolume,
		LightDirection: mgl32.Vec3{0, 0, 1},
	}
}

// Key applies a key press and returns the command it maps to.
func (c *Controls) Key(k Key) Command {
	switch k {
	case 'q', 'Q', KeyEscape:
		return CommandQuit
	case 'r', 'R':
		return CommandReload
	case 'n', 'N':
		c.Mode = (c.Mode + 1) % displayModeCount
		return CommandToggleMode
	case ' ':
		return CommandSpace
	}
	return CommandNone
}

// MouseButton records a button change at (x, y). Holding the left button
// drags the light.
func (c *Controls) MouseButton(b MouseButton, a Action, x, y float64) {
	if a == Press {
		c.held |= 1 << uint(b)
	} else {
		c.held &^= 1 << uint(b)
	}
	if b != MouseLeft {
		return
	}
	c.dragging = a == Press
	c.lastX, c.lastY = x, y
}

// ButtonHeld reports whether any mouse button is held.
func (c *Controls) ButtonHeld() bool {
	return c.held != 0
}

// Dragging reports whether the left button is held.
func (c *Controls) Dragging() bool {
	return c.dragging
}

// MouseMove rotates the light while dragging: horizontal travel turns it
// about the y axis, vertical travel about the x axis. It reports whether the
// light moved.
func (c *Controls) MouseMove(x, y float64) bool {
	if !c.dragging {
		return false
	}
	dx := float32(x-c.lastX) * dragSensitivity
	dy := float32(y-c.lastY) * dragSensitivity
	c.lastX, c.lastY = x, y
	if dx == 0 && dy == 0 {
		return false
	}

	rot := mgl32.QuatRotate(dx, mgl32.Vec3{0, 1, 0}).Mul(mgl32.QuatRotate(dy, mgl32.Vec3{1, 0, 0}))
	c.LightDirection = rot.Rotate(c.LightDirection).Normalize()
	return true
}

// Legend lists the key bindings for the startup banner.
func Legend() []string {
	return []string{
		"[q]     - quit",
		"[n]     - toggle volume / normal atlas",
		"[r]     - reload shaders",
		"[mouse] - left drag rotates the light",
	}
}
