package atlas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the voxel intensities of an atlas. Values are in [0, 1].
type Stats struct {
	// Voxels is the number of voxels sampled (padding texels excluded)
	Voxels int

	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// Entropy is the Shannon entropy of the 256-bin intensity histogram in bits
	Entropy float64

	// Occupancy is the fraction of voxels with a non-zero intensity
	Occupancy float64
}

// Stats computes intensity statistics over the voxels of the volume.
func (a *Atlas) Stats() Stats {
	l := a.Layout
	values := make([]float64, 0, l.SliceWidth*l.SliceHeight*l.Depth)
	hist := make([]float64, 256)
	nonZero := 0

	for z := 0; z < l.Depth; z++ {
		for y := 0; y < l.SliceHeight; y++ {
			for x := 0; x < l.SliceWidth; x++ {
				value := a.Voxel(x, y, z)
				hist[value]++
				if value != 0 {
					nonZero++
				}
				values = append(values, float64(value)/255.0)
			}
		}
	}

	s := Stats{Voxels: len(values)}
	if len(values) == 0 {
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	if math.IsNaN(s.StdDev) {
		// single sample
		s.StdDev = 0
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Occupancy = float64(nonZero) / float64(len(values))

	floats.Scale(1/float64(len(values)), hist)
	s.Entropy = stat.Entropy(hist) / math.Ln2

	return s
}
