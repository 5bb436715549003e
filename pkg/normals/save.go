package normals

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// Save writes the normal atlas to path. The format follows the extension:
// ".bmp" for BMP, ".png" for PNG.
func (m *Map) Save(path string) error {
	return SaveImage(m.Image(), path)
}

// SaveImage writes img as BMP or PNG depending on the extension of path,
// creating parent directories as needed.
func SaveImage(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".bmp" && ext != ".png" {
		return fmt.Errorf("unsupported image format %q (use .bmp or .png)", ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating image file: %w", err)
	}

	switch ext {
	case ".bmp":
		err = bmp.Encode(file, img)
	case ".png":
		err = png.Encode(file, img)
	}
	if err != nil {
		file.Close()
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	return file.Close()
}
