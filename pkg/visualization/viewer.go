package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"volumerender/internal/models"
)

// Viewer extracts orthogonal slices and sub-regions from a volume unpacked
// from an atlas, for inspecting the dataset outside the renderer.
type Viewer struct {
	// volume holds the 3D volume data
	volume *models.Volume
}

// NewViewer creates a new viewer over vol
func NewViewer(vol *models.Volume) *Viewer {
	return &Viewer{volume: vol}
}

// gray converts a [0,1] sample to an 8-bit grey level
func gray(value float64) color.Gray {
	return color.Gray{Y: uint8(math.Round(math.Max(0, math.Min(1, value)) * 255))}
}

// ExtractSlice extracts a 2D slice from the 3D volume perpendicular to axis
func (v *Viewer) ExtractSlice(axis models.Axis, position int) (*image.Gray, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	vol := v.volume
	var img *image.Gray

	switch axis {
	case models.AxisX:
		// Extract slice along YZ plane
		if position >= vol.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, vol.Width)
		}

		img = image.NewGray(image.Rect(0, 0, vol.Depth, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for z := 0; z < vol.Depth; z++ {
				img.SetGray(z, y, gray(vol.At(position, y, z)))
			}
		}

	case models.AxisY:
		// Extract slice along XZ plane
		if position >= vol.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, vol.Height)
		}

		img = image.NewGray(image.Rect(0, 0, vol.Width, vol.Depth))
		for z := 0; z < vol.Depth; z++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray(x, z, gray(vol.At(x, position, z)))
			}
		}

	case models.AxisZ:
		// Extract slice along XY plane
		if position >= vol.Depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, vol.Depth)
		}

		img = image.NewGray(image.Rect(0, 0, vol.Width, vol.Height))
		for y := 0; y < vol.Height; y++ {
			for x := 0; x < vol.Width; x++ {
				img.SetGray(x, y, gray(vol.At(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %v", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice perpendicular to axis
func (v *Viewer) SaveSliceSequence(axis models.Axis, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case models.AxisX:
		maxPos = v.volume.Width
	case models.AxisY:
		maxPos = v.volume.Height
	case models.AxisZ:
		maxPos = v.volume.Depth
	default:
		return fmt.Errorf("invalid axis: %v", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
