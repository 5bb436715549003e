// Package preprocess prepares the textures the renderer needs: it loads the
// volume atlas, summarises it, estimates the normal atlas and optionally
// writes every stage to disk for inspection.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"volumerender/pkg/atlas"
	"volumerender/pkg/normals"
)

// Params holds the preprocessing configuration.
type Params struct {
	// AtlasPath is the BMP file holding the volume atlas.
	AtlasPath string

	// Layout describes how the volume slices are packed in the atlas.
	Layout atlas.Layout

	// NumCores specifies how many goroutines estimate normals in parallel.
	NumCores int

	// NormalsOut is where the normal atlas is written. Empty disables it.
	NormalsOut string

	// SaveIntermediaryResults determines whether to save intermediary processing results.
	SaveIntermediaryResults bool

	// IntermediaryDir is the directory where intermediary results will be saved.
	// Only used when SaveIntermediaryResults is true.
	IntermediaryDir string
}

// Preprocessor runs the texture preparation pipeline:
//  1. Loading the volume atlas
//  2. Computing intensity statistics
//  3. Estimating the normal atlas from the volume gradient
//  4. Saving the normal atlas when requested
type Preprocessor struct {
	params *Params
	logger *slog.Logger

	atlas   *atlas.Atlas
	normals *normals.Map
	stats   atlas.Stats
	elapsed time.Duration
}

// NewPreprocessor creates a preprocessor. A nil logger selects slog.Default().
func NewPreprocessor(params *Params, logger *slog.Logger) *Preprocessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preprocessor{
		params: params,
		logger: logger,
	}
}

// Process runs the complete pipeline
func (p *Preprocessor) Process() error {
	start := time.Now()

	// Create intermediary directory if needed
	if p.params.SaveIntermediaryResults {
		if err := os.MkdirAll(p.params.IntermediaryDir, 0755); err != nil {
			return fmt.Errorf("failed to create intermediary directory: %w", err)
		}
	}

	// Step 1: Load the atlas
	p.logger.Info("Step 1: loading volume atlas", "path", p.params.AtlasPath)
	a, err := atlas.Load(p.params.AtlasPath, p.params.Layout)
	if err != nil {
		return fmt.Errorf("failed to load atlas: %w", err)
	}
	p.atlas = a
	p.logger.Info("loaded atlas",
		"width", a.Width, "height", a.Height,
		"volume", fmt.Sprintf("%dx%dx%d", a.Layout.SliceWidth, a.Layout.SliceHeight, a.Layout.Depth))

	if p.params.SaveIntermediaryResults {
		if err := p.saveIntermediaryResult("01_volume_atlas", a.Image(), 0); err != nil {
			p.logger.Warn("failed to save volume atlas", "err", err)
		}
	}

	// Step 2: Statistics
	p.logger.Info("Step 2: computing intensity statistics")
	p.stats = a.Stats()
	p.logger.Info("volume statistics",
		"mean", p.stats.Mean, "stddev", p.stats.StdDev,
		"entropy", p.stats.Entropy, "occupancy", p.stats.Occupancy)

	if p.params.SaveIntermediaryResults {
		if err := p.saveIntermediaryResult("02_statistics", p.stats, 0); err != nil {
			p.logger.Warn("failed to save statistics", "err", err)
		}
	}

	// Step 3: Normals
	p.logger.Info("Step 3: estimating normals", "workers", p.params.NumCores)
	m, err := normals.Estimate(a, p.params.NumCores)
	if err != nil {
		return fmt.Errorf("failed to estimate normals: %w", err)
	}
	p.normals = m

	if p.params.SaveIntermediaryResults {
		if err := p.saveIntermediaryResult("03_normal_atlas", m.Image(), 0); err != nil {
			p.logger.Warn("failed to save normal atlas", "err", err)
		}

		// Save a sample of slices (first, middle, last)
		depth := a.Layout.Depth
		for _, z := range []int{0, depth / 2, depth - 1} {
			if err := p.saveIntermediaryResult("04_normal_slices", normalSlice(m, z), z); err != nil {
				p.logger.Warn("failed to save normal slice", "z", z, "err", err)
			}
		}
	}

	// Step 4: Export
	if p.params.NormalsOut != "" {
		p.logger.Info("Step 4: saving normal atlas", "path", p.params.NormalsOut)
		if err := m.Save(p.params.NormalsOut); err != nil {
			return fmt.Errorf("failed to save normal atlas: %w", err)
		}
	}

	p.elapsed = time.Since(start)
	p.logger.Info("preprocessing complete", "elapsed", p.elapsed)
	return nil
}

// Atlas returns the loaded volume atlas, nil before Process succeeds
func (p *Preprocessor) Atlas() *atlas.Atlas {
	return p.atlas
}

// Normals returns the estimated normal atlas, nil before Process succeeds
func (p *Preprocessor) Normals() *normals.Map {
	return p.normals
}

// Stats returns the intensity statistics computed by Process
func (p *Preprocessor) Stats() atlas.Stats {
	return p.stats
}

// Elapsed returns how long the last Process call took
func (p *Preprocessor) Elapsed() time.Duration {
	return p.elapsed
}

// normalSlice renders the encoded normals of slice z as an image
func normalSlice(m *normals.Map, z int) image.Image {
	l := m.Layout
	img := image.NewRGBA(image.Rect(0, 0, l.SliceWidth, l.SliceHeight))
	for y := 0; y < l.SliceHeight; y++ {
		for x := 0; x < l.SliceWidth; x++ {
			c := m.At(x, y, z)
			img.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xFF})
		}
	}
	return img
}

// saveIntermediaryResult saves an intermediary result of the pipeline.
// Images are written as PNG, anything else as YAML.
func (p *Preprocessor) saveIntermediaryResult(stage string, data interface{}, index int) error {
	// Skip if saving intermediary results is disabled
	if !p.params.SaveIntermediaryResults {
		return nil
	}

	stageDir := filepath.Join(p.params.IntermediaryDir, stage)
	if err := os.MkdirAll(stageDir, 0755); err != nil {
		return fmt.Errorf("failed to create intermediary directory: %w", err)
	}

	switch v := data.(type) {
	case image.Image:
		filename := filepath.Join(stageDir, fmt.Sprintf("%03d.png", index))
		file, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("failed to create image file: %w", err)
		}
		defer file.Close()

		if err := png.Encode(file, v); err != nil {
			return fmt.Errorf("failed to encode image: %w", err)
		}

	default:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %T: %w", v, err)
		}
		filename := filepath.Join(stageDir, fmt.Sprintf("%03d.yaml", index))
		if err := os.WriteFile(filename, out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
	}

	return nil
}
