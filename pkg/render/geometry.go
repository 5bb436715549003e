package render

// Vertex attribute locations; they must match the layout qualifiers of the
// vertex shader.
const (
	attribPosition = 0
	attribUV       = 1
)

// Texture units the atlases are bound to.
const (
	unitVolume  = 0
	unitNormals = 1
)

// Uniform names looked up in the shader program.
const (
	UniformVolumeSampler  = "myTextureSamplerVolume"
	UniformNormalsSampler = "myTextureSamplerNormals"
	UniformDisplayMode    = "displayMode"
	UniformLightDirection = "lightDirection"
)

// quadVertexCount is the number of vertices of the two-triangle quad.
const quadVertexCount = 6

// QuadVertices returns the clip-space positions (x, y) of a quad covering the
// whole screen, as two triangles. The GL screen spans [-1, 1] on both axes.
func QuadVertices() []float32 {
	return []float32{
		// bottom right triangle
		-1, -1,
		1, -1,
		1, 1,
		// top left triangle
		-1, -1,
		1, 1,
		-1, 1,
	}
}

// QuadUVs returns the texture coordinates (u, v) matching QuadVertices. The
// quad covers [0, 1] x [0, 1] with v running downwards, so texel row 0 is at
// the top of the window.
func QuadUVs() []float32 {
	return []float32{
		// bottom right triangle
		0, 1,
		1, 1,
		1, 0,
		// top left triangle
		0, 1,
		1, 0,
		0, 0,
	}
}
