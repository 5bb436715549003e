package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volumerender/internal/models"
	"volumerender/pkg/atlas"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 512, cfg.Window.Width)
	assert.Equal(t, 512, cfg.Window.Height)
	assert.Equal(t, atlas.DefaultLayout, cfg.Volume.Layout)
	assert.Equal(t, filepath.Join("images", "cthead_assembled.bmp"), cfg.Volume.AtlasPath)
	assert.GreaterOrEqual(t, cfg.Processing.NumCores, 1)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Window.Title = "CT head"
	cfg.Volume.Layout.Depth = 64
	cfg.Shaders.Watch = false
	cfg.Processing.NumCores = 3
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("window:\n  width: 1024\nvolume:\n  layout:\n    depth: 50\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	// keys present in the file override, the rest keep their defaults
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 512, cfg.Window.Height)
	assert.Equal(t, 50, cfg.Volume.Layout.Depth)
	assert.Equal(t, 256, cfg.Volume.Layout.SliceWidth)
	assert.Equal(t, "Volume Renderer", cfg.Window.Title)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [unterminated"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }},
		{"empty atlas path", func(c *Config) { c.Volume.AtlasPath = "" }},
		{"depth beyond grid", func(c *Config) { c.Volume.Layout.Depth = 101 }},
		{"no fragment shader", func(c *Config) { c.Shaders.FragmentPath = "" }},
		{"no cores", func(c *Config) { c.Processing.NumCores = 0 }},
		{"unknown axis", func(c *Config) { c.Output.Axes = []string{"x", "w"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := DefaultConfig()
	cfg.Volume.Layout.Columns = 0
	assert.ErrorIs(t, cfg.Validate(), atlas.ErrInvalidLayout)
}

func TestSliceAxes(t *testing.T) {
	cfg := DefaultConfig()
	axes, err := cfg.SliceAxes()
	require.NoError(t, err)
	assert.Equal(t, models.Axes, axes)

	cfg.Output.Axes = []string{" Z ", "x"}
	axes, err = cfg.SliceAxes()
	require.NoError(t, err)
	assert.Equal(t, []models.Axis{models.AxisZ, models.AxisX}, axes)

	cfg.Output.Axes = nil
	axes, err = cfg.SliceAxes()
	require.NoError(t, err)
	assert.Empty(t, axes)

	cfg.Output.Axes = []string{"q"}
	_, err = cfg.SliceAxes()
	assert.Error(t, err)
}
