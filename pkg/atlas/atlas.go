package atlas

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"golang.org/x/image/bmp"

	"volumerender/internal/models"
)

var (
	// ErrNotFound is returned when the atlas file does not exist.
	ErrNotFound = errors.New("atlas file not found")

	// ErrMalformed is returned when the atlas file is not a decodable bitmap.
	ErrMalformed = errors.New("malformed atlas bitmap")

	// ErrSizeMismatch is returned when the decoded bitmap does not have the
	// dimensions required by the layout.
	ErrSizeMismatch = errors.New("atlas size does not match layout")
)

// Atlas holds the decoded volume atlas.
//
// Rows are stored bottom-up, which is the order BMP files use on disk and the
// order OpenGL expects for a texture upload, so texel (u, v) lives at row v of
// both Intensity and RGB.
type Atlas struct {
	Layout Layout

	// Width and Height are the atlas dimensions in texels
	Width  int
	Height int

	// Intensity is the red channel of every texel, one byte per texel
	Intensity []uint8

	// RGB holds three bytes per texel, tightly packed, ready for upload
	RGB []uint8
}

// New returns an all-zero atlas for the layout.
func New(layout Layout) (*Atlas, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	w, h := layout.AtlasSize()
	return &Atlas{
		Layout:    layout,
		Width:     w,
		Height:    h,
		Intensity: make([]uint8, w*h),
		RGB:       make([]uint8, w*h*3),
	}, nil
}

// Load reads a BMP atlas from path.
func Load(path string, layout Layout) (*Atlas, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, fmt.Errorf("error opening atlas: %w", err)
	}
	defer file.Close()

	a, err := Decode(file, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Decode reads a BMP atlas from r.
func Decode(r io.Reader, layout Layout) (*Atlas, error) {
	img, err := bmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return FromImage(img, layout)
}

// FromImage converts a decoded image into an atlas. The image is in the usual
// top-down orientation; rows are flipped on the way in.
func FromImage(img image.Image, layout Layout) (*Atlas, error) {
	a, err := New(layout)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() != a.Width || bounds.Dy() != a.Height {
		return nil, fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrSizeMismatch, bounds.Dx(), bounds.Dy(), a.Width, a.Height)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < a.Height; y++ {
			off := rgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			src := rgba.Pix[off : off+a.Width*4]
			row := a.Height - 1 - y
			for x := 0; x < a.Width; x++ {
				a.setRGB(x, row, src[x*4], src[x*4+1], src[x*4+2])
			}
		}
		return a, nil
	}

	for y := 0; y < a.Height; y++ {
		row := a.Height - 1 - y
		for x := 0; x < a.Width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			a.setRGB(x, row, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return a, nil
}

func (a *Atlas) setRGB(u, v int, r, g, b uint8) {
	idx := v*a.Width + u
	a.Intensity[idx] = r
	a.RGB[idx*3] = r
	a.RGB[idx*3+1] = g
	a.RGB[idx*3+2] = b
}

// Texel returns the intensity at atlas texel (u, v), clamped to the atlas.
func (a *Atlas) Texel(u, v int) uint8 {
	u = clamp(u, 0, a.Width-1)
	v = clamp(v, 0, a.Height-1)
	return a.Intensity[v*a.Width+u]
}

// Voxel returns the intensity of voxel (x, y, z). Coordinates outside the
// volume are clamped to its edge.
func (a *Atlas) Voxel(x, y, z int) uint8 {
	x = clamp(x, 0, a.Layout.SliceWidth-1)
	y = clamp(y, 0, a.Layout.SliceHeight-1)
	z = clamp(z, 0, a.Layout.Depth-1)
	u, v := a.Layout.PixelCoordinate(x, y, z)
	return a.Intensity[v*a.Width+u]
}

// SetVoxel writes a grey value to voxel (x, y, z). Out-of-range voxels are
// ignored.
func (a *Atlas) SetVoxel(x, y, z int, value uint8) {
	if !a.Layout.Contains(x, y, z) {
		return
	}
	u, v := a.Layout.PixelCoordinate(x, y, z)
	a.setRGB(u, v, value, value, value)
}

// Image returns the atlas as a top-down RGBA image.
func (a *Atlas) Image() *image.RGBA {
	return RGBImage(a.Width, a.Height, a.RGB)
}

// RGBImage converts bottom-up, tightly packed RGB rows into a top-down
// opaque RGBA image.
func RGBImage(width, height int, rgb []uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for v := 0; v < height; v++ {
		dst := img.Pix[(height-1-v)*img.Stride:]
		src := rgb[v*width*3:]
		for u := 0; u < width; u++ {
			dst[u*4] = src[u*3]
			dst[u*4+1] = src[u*3+1]
			dst[u*4+2] = src[u*3+2]
			dst[u*4+3] = 0xFF
		}
	}
	return img
}

// Volume unpacks the atlas into a flattened float volume with values in
// [0, 1], indexed z*width*height + y*width + x.
func (a *Atlas) Volume() *models.Volume {
	l := a.Layout
	vol := &models.Volume{
		Data:   make([]float64, l.SliceWidth*l.SliceHeight*l.Depth),
		Width:  l.SliceWidth,
		Height: l.SliceHeight,
		Depth:  l.Depth,
	}

	for z := 0; z < l.Depth; z++ {
		for y := 0; y < l.SliceHeight; y++ {
			for x := 0; x < l.SliceWidth; x++ {
				u, v := l.PixelCoordinate(x, y, z)
				vol.Data[vol.Index(x, y, z)] = float64(a.Intensity[v*a.Width+u]) / 255.0
			}
		}
	}
	return vol
}
