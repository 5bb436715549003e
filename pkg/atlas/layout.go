// Package atlas maps voxels of a 3D volume onto a 2D texture atlas and loads
// atlas bitmaps from disk.
//
// The atlas packs the slices of a volume into a grid: slice z is stored in
// grid cell (z mod Columns, z div Columns), each cell being SliceWidth x
// SliceHeight texels. This is how volumes are fed to hardware without native
// 3D texture support.
package atlas

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned when a Layout cannot describe a volume.
var ErrInvalidLayout = errors.New("invalid atlas layout")

// Layout describes how a volume of SliceWidth x SliceHeight x Depth voxels is
// arranged in an atlas of Columns x Rows slices.
type Layout struct {
	// SliceWidth is the width of one slice in texels (volume x extent)
	SliceWidth int `yaml:"sliceWidth"`

	// SliceHeight is the height of one slice in texels (volume y extent)
	SliceHeight int `yaml:"sliceHeight"`

	// Columns is the number of slices per atlas row
	Columns int `yaml:"columns"`

	// Rows is the number of slice rows in the atlas
	Rows int `yaml:"rows"`

	// Depth is the number of slices actually stored (volume z extent)
	Depth int `yaml:"depth"`
}

// DefaultLayout is the CT head dataset: 256x256x100 voxels in a 10x10 grid,
// giving a 2560x2560 atlas.
var DefaultLayout = Layout{
	SliceWidth:  256,
	SliceHeight: 256,
	Columns:     10,
	Rows:        10,
	Depth:       100,
}

// Validate checks that all dimensions are positive and that the grid has room
// for every slice.
func (l Layout) Validate() error {
	if l.SliceWidth <= 0 || l.SliceHeight <= 0 {
		return fmt.Errorf("%w: slice size %dx%d", ErrInvalidLayout, l.SliceWidth, l.SliceHeight)
	}
	if l.Columns <= 0 || l.Rows <= 0 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidLayout, l.Columns, l.Rows)
	}
	if l.Depth <= 0 {
		return fmt.Errorf("%w: depth %d", ErrInvalidLayout, l.Depth)
	}
	if l.Depth > l.Columns*l.Rows {
		return fmt.Errorf("%w: depth %d exceeds %dx%d grid", ErrInvalidLayout, l.Depth, l.Columns, l.Rows)
	}
	return nil
}

// AtlasSize returns the atlas dimensions in texels.
func (l Layout) AtlasSize() (width, height int) {
	return l.SliceWidth * l.Columns, l.SliceHeight * l.Rows
}

// Contains reports whether (x, y, z) is a voxel of the volume.
func (l Layout) Contains(x, y, z int) bool {
	return x >= 0 && x < l.SliceWidth &&
		y >= 0 && y < l.SliceHeight &&
		z >= 0 && z < l.Depth
}

// SliceCoordinate returns the grid cell (i, j) holding slice z, with
// i = z mod Columns and j = z div Columns, each clamped to the grid.
//
// For the default layout, z = 82 gives (2, 8).
func (l Layout) SliceCoordinate(z int) (i, j int) {
	j = z / l.Columns
	i = z - l.Columns*j

	i = clamp(i, 0, l.Columns-1)
	j = clamp(j, 0, l.Rows-1)
	return i, j
}

// PixelCoordinate returns the atlas texel (u, v) storing voxel (x, y, z).
// Both coordinates are clamped to the atlas; out-of-range voxels are never
// rejected.
//
// For the default layout, (10, 20, 82) gives (522, 2068).
func (l Layout) PixelCoordinate(x, y, z int) (u, v int) {
	i, j := l.SliceCoordinate(z)

	u = x + i*l.SliceWidth
	v = y + j*l.SliceHeight

	w, h := l.AtlasSize()
	u = clamp(u, 0, w-1)
	v = clamp(v, 0, h-1)
	return u, v
}

// SliceCoordinate is DefaultLayout.SliceCoordinate.
func SliceCoordinate(z int) (i, j int) {
	return DefaultLayout.SliceCoordinate(z)
}

// PixelCoordinate is DefaultLayout.PixelCoordinate.
func PixelCoordinate(x, y, z int) (u, v int) {
	return DefaultLayout.PixelCoordinate(x, y, z)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
