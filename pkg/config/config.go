// Package config provides configuration loading and management for volumerender.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"volumerender/internal/models"
	"volumerender/pkg/atlas"
)

// ErrInvalid is returned by Validate for unusable configurations
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration loaded from YAML
type Config struct {
	// Window parameters
	Window struct {
		// Width and Height are the initial window size in screen coordinates
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Title is shown in the window decoration
		Title string `yaml:"title"`

		// VSync synchronises buffer swaps with the display refresh
		VSync bool `yaml:"vsync"`
	} `yaml:"window"`

	// Volume dataset parameters
	Volume struct {
		// AtlasPath is the BMP file holding the slice atlas
		AtlasPath string `yaml:"atlasPath"`

		// Layout describes how slices are packed into the atlas
		Layout atlas.Layout `yaml:"layout"`
	} `yaml:"volume"`

	// Shader parameters
	Shaders struct {
		// VertexPath and FragmentPath are the two shader stage sources
		VertexPath   string `yaml:"vertexPath"`
		FragmentPath string `yaml:"fragmentPath"`

		// Watch recompiles the program whenever a source file changes
		Watch bool `yaml:"watch"`
	} `yaml:"shaders"`

	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores to use for normal estimation
		NumCores int `yaml:"numCores"`

		// NormalsOut, when set, is where the normal atlas is written (.bmp or .png)
		NormalsOut string `yaml:"normalsOut"`

		// SaveIntermediaryResults determines whether to save intermediary processing results
		SaveIntermediaryResults bool `yaml:"saveIntermediaryResults"`

		// IntermediaryDir is where intermediary results are written
		IntermediaryDir string `yaml:"intermediaryDir"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// Verbose enables debug logging, including every input event
		Verbose bool `yaml:"verbose"`

		// ExtractSlices saves orthogonal slices of the volume along every axis
		ExtractSlices bool `yaml:"extractSlices"`

		// SlicesDir is the directory extracted slices are written to
		SlicesDir string `yaml:"slicesDir"`

		// Axes lists the axes ("x", "y", "z") slices are extracted along
		Axes []string `yaml:"axes"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default window parameters
	cfg.Window.Width = 512
	cfg.Window.Height = 512
	cfg.Window.Title = "Volume Renderer"
	cfg.Window.VSync = true

	// Set default volume parameters
	cfg.Volume.AtlasPath = filepath.Join("images", "cthead_assembled.bmp")
	cfg.Volume.Layout = atlas.DefaultLayout

	// Set default shader parameters
	cfg.Shaders.VertexPath = filepath.Join("shaders", "volume.vert")
	cfg.Shaders.FragmentPath = filepath.Join("shaders", "volume.frag")
	cfg.Shaders.Watch = true

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default
	cfg.Processing.NormalsOut = ""
	cfg.Processing.SaveIntermediaryResults = false
	cfg.Processing.IntermediaryDir = "intermediary_results"

	// Set default output parameters
	cfg.Output.Verbose = false
	cfg.Output.ExtractSlices = false
	cfg.Output.SlicesDir = "extracted_slices"
	cfg.Output.Axes = []string{"x", "y", "z"}

	return cfg
}

// Validate reports the first problem that would prevent the renderer from starting
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Volume.AtlasPath == "" {
		return fmt.Errorf("%w: volume.atlasPath is empty", ErrInvalid)
	}
	if err := c.Volume.Layout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Shaders.VertexPath == "" || c.Shaders.FragmentPath == "" {
		return fmt.Errorf("%w: both shader paths are required", ErrInvalid)
	}
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("%w: processing.numCores must be at least 1", ErrInvalid)
	}
	if _, err := c.SliceAxes(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// SliceAxes parses output.axes
func (c *Config) SliceAxes() ([]models.Axis, error) {
	axes := make([]models.Axis, 0, len(c.Output.Axes))
	for _, name := range c.Output.Axes {
		axis, err := models.ParseAxis(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		axes = append(axes, axis)
	}
	return axes, nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
