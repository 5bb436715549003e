// Package normals estimates per-voxel surface normals from the intensity
// gradient of an atlas volume and stores them as a colour atlas with the same
// layout as the volume.
package normals

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"volumerender/pkg/atlas"
)

// Map is a normal atlas: three bytes per texel holding the encoded normal of
// the voxel stored at the same texel of the volume atlas. Texels that belong
// to no voxel are zero.
type Map struct {
	Layout atlas.Layout
	Width  int
	Height int
	RGB    []uint8
}

// Gradient returns the central-difference gradient of the volume at voxel
// (x, y, z):
//
//	Gx = (V(x+1,y,z) - V(x-1,y,z)) / 2
//
// and likewise along y and z. Neighbours outside the volume are clamped to its
// edge, so the difference is one-sided on the boundary.
func Gradient(a *atlas.Atlas, x, y, z int) r3.Vec {
	sample := func(x, y, z int) float64 {
		return float64(a.Voxel(x, y, z))
	}
	return r3.Vec{
		X: (sample(x+1, y, z) - sample(x-1, y, z)) / 2,
		Y: (sample(x, y+1, z) - sample(x, y-1, z)) / 2,
		Z: (sample(x, y, z+1) - sample(x, y, z-1)) / 2,
	}
}

// Normal returns N = -G/|G| at voxel (x, y, z). When the gradient vanishes
// the normal is undefined and the zero vector is returned with ok == false.
func Normal(a *atlas.Atlas, x, y, z int) (n r3.Vec, ok bool) {
	g := Gradient(a, x, y, z)
	if r3.Norm(g) == 0 {
		return r3.Vec{}, false
	}
	return r3.Unit(r3.Scale(-1, g)), true
}

// Encode maps each component from [-1, 1] to [0, 255].
func Encode(n r3.Vec) [3]uint8 {
	return [3]uint8{quantize(n.X), quantize(n.Y), quantize(n.Z)}
}

// Decode is the inverse of Encode, up to quantization.
func Decode(c [3]uint8) r3.Vec {
	return r3.Vec{
		X: float64(c[0])/255*2 - 1,
		Y: float64(c[1])/255*2 - 1,
		Z: float64(c[2])/255*2 - 1,
	}
}

func quantize(c float64) uint8 {
	c = math.Max(-1, math.Min(1, c))
	return uint8(math.Round((c + 1) / 2 * 255))
}

// Estimate computes the normal of every voxel of a and returns them as a
// normal atlas. Slices are distributed over workers goroutines; each slice
// occupies its own grid cell so the goroutines never write the same texel.
func Estimate(a *atlas.Atlas, workers int) (*Map, error) {
	if a == nil {
		return nil, errors.New("nil atlas")
	}
	if err := a.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("cannot estimate normals: %w", err)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > a.Layout.Depth {
		workers = a.Layout.Depth
	}

	m := &Map{
		Layout: a.Layout,
		Width:  a.Width,
		Height: a.Height,
		RGB:    make([]uint8, a.Width*a.Height*3),
	}

	slices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for z := range slices {
				m.estimateSlice(a, z)
			}
		}()
	}

	for z := 0; z < a.Layout.Depth; z++ {
		slices <- z
	}
	close(slices)
	wg.Wait()

	return m, nil
}

func (m *Map) estimateSlice(a *atlas.Atlas, z int) {
	l := m.Layout
	for y := 0; y < l.SliceHeight; y++ {
		for x := 0; x < l.SliceWidth; x++ {
			n, _ := Normal(a, x, y, z)
			c := Encode(n)
			u, v := l.PixelCoordinate(x, y, z)
			idx := (v*m.Width + u) * 3
			m.RGB[idx] = c[0]
			m.RGB[idx+1] = c[1]
			m.RGB[idx+2] = c[2]
		}
	}
}

// At returns the encoded normal of voxel (x, y, z), clamped to the volume.
func (m *Map) At(x, y, z int) [3]uint8 {
	l := m.Layout
	x = max(0, min(x, l.SliceWidth-1))
	y = max(0, min(y, l.SliceHeight-1))
	z = max(0, min(z, l.Depth-1))
	u, v := l.PixelCoordinate(x, y, z)
	idx := (v*m.Width + u) * 3
	return [3]uint8{m.RGB[idx], m.RGB[idx+1], m.RGB[idx+2]}
}

// Image returns the normal atlas as a top-down RGBA image, matching the
// orientation of the source bitmap.
func (m *Map) Image() *image.RGBA {
	return atlas.RGBImage(m.Width, m.Height, m.RGB)
}
