// Package render draws the volume and normal atlases through a user-supplied
// shader over a full-screen quad.
//
// A Renderer owns every GL object it creates and the window they live in.
// The window system's callbacks are forwarded to the Handler methods on the
// thread that runs the event loop.
package render

// Handler receives window events. Every method is called synchronously from
// the event loop on the GL thread.
type Handler interface {
	// OnKey is called when a character or Escape is pressed.
	OnKey(key Key)

	// OnMouseButton is called when a mouse button changes state at (x, y).
	OnMouseButton(button MouseButton, action Action, x, y float64)

	// OnMouseMove is called whenever the cursor moves.
	OnMouseMove(x, y float64)

	// OnResize is called with the new framebuffer size in pixels.
	OnResize(width, height int)

	// OnFrame draws and presents one frame.
	OnFrame() error
}

var _ Handler = (*Renderer)(nil)
