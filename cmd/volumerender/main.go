package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"volumerender/pkg/config"
	"volumerender/pkg/preprocess"
	"volumerender/pkg/render"
	"volumerender/pkg/shader"
	"volumerender/pkg/visualization"
)

func init() {
	// GLFW and OpenGL calls must come from the main thread
	runtime.LockOSThread()
}

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "volumerender.yaml", "YAML configuration file (defaults are used when missing)")
	atlasPath := flag.String("atlas", "", "BMP volume atlas (overrides volume.atlasPath)")
	vertexPath := flag.String("vertex", "", "Vertex shader source (overrides shaders.vertexPath)")
	fragmentPath := flag.String("fragment", "", "Fragment shader source (overrides shaders.fragmentPath)")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use for normal estimation (default: all available)")
	normalsOut := flag.String("normals-out", "", "Write the normal atlas to this .bmp or .png file")
	extractSlices := flag.Bool("extract-slices", false, "Extract and save volume slices along -axes")
	slicesDir := flag.String("slices-dir", "", "Directory to save extracted slices")
	axes := flag.String("axes", "", "Comma-separated axes to extract slices along (default: x,y,z)")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during preprocessing")
	intermediaryDir := flag.String("intermediary-dir", "", "Directory to save intermediary results")
	verbose := flag.Bool("verbose", false, "Log every input event")
	watch := flag.Bool("watch", true, "Reload shaders when their source files change")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	initShaders := flag.String("init-shaders", "", "Write the bundled shaders into this directory and exit")
	noWindow := flag.Bool("no-window", false, "Preprocess only, do not open the render window")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Default configuration written to: %s\n", *configPath)
		return
	}

	if *initShaders != "" {
		written, err := shader.WriteDefaults(*initShaders)
		if err != nil {
			log.Fatalf("Failed to write shaders: %v", err)
		}
		for _, path := range written {
			fmt.Printf("Wrote %s\n", path)
		}
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags take precedence over the configuration file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "atlas":
			cfg.Volume.AtlasPath = *atlasPath
		case "vertex":
			cfg.Shaders.VertexPath = *vertexPath
		case "fragment":
			cfg.Shaders.FragmentPath = *fragmentPath
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "normals-out":
			cfg.Processing.NormalsOut = *normalsOut
		case "save-intermediary":
			cfg.Processing.SaveIntermediaryResults = *saveIntermediary
		case "intermediary-dir":
			cfg.Processing.IntermediaryDir = *intermediaryDir
		case "extract-slices":
			cfg.Output.ExtractSlices = *extractSlices
		case "slices-dir":
			cfg.Output.SlicesDir = *slicesDir
		case "axes":
			cfg.Output.Axes = strings.Split(*axes, ",")
		case "verbose":
			cfg.Output.Verbose = *verbose
		case "watch":
			cfg.Shaders.Watch = *watch
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	fmt.Println("================================")
	fmt.Println("CT VOLUME RENDERER")
	fmt.Println("Slice atlas + gradient normals on a full-screen quad")
	fmt.Println("================================")

	params := &preprocess.Params{
		AtlasPath:               cfg.Volume.AtlasPath,
		Layout:                  cfg.Volume.Layout,
		NumCores:                cfg.Processing.NumCores,
		NormalsOut:              cfg.Processing.NormalsOut,
		SaveIntermediaryResults: cfg.Processing.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Processing.IntermediaryDir,
	}
	pre := preprocess.NewPreprocessor(params, logger)

	fmt.Println("Preparing textures with parallel processing...")
	if err := pre.Process(); err != nil {
		log.Fatalf("Preprocessing failed: %v", err)
	}

	stats := pre.Stats()
	fmt.Printf("\nPreprocessing completed in %.2f seconds using %d cores\n", pre.Elapsed().Seconds(), cfg.Processing.NumCores)
	fmt.Printf("Volume Statistics:\n")
	fmt.Printf("==================\n")
	fmt.Printf("Voxels: %d\n", stats.Voxels)
	fmt.Printf("Mean intensity: %.4f\n", stats.Mean)
	fmt.Printf("Standard deviation: %.4f\n", stats.StdDev)
	fmt.Printf("Range: [%.4f, %.4f]\n", stats.Min, stats.Max)
	fmt.Printf("Entropy: %.3f bits\n", stats.Entropy)
	fmt.Printf("Occupancy: %.2f%%\n", stats.Occupancy*100)
	if cfg.Processing.NormalsOut != "" {
		fmt.Printf("Normal atlas saved to: %s\n", cfg.Processing.NormalsOut)
	}

	// Extract and save slices if requested
	if cfg.Output.ExtractSlices {
		fmt.Println("\nExtracting volume slices...")
		viewer := visualization.NewViewer(pre.Atlas().Volume())

		// Validate already parsed these
		sliceAxes, _ := cfg.SliceAxes()
		for _, axis := range sliceAxes {
			axisDir := filepath.Join(cfg.Output.SlicesDir, axis.String())
			fmt.Printf("Saving %s-axis slices to: %s\n", axis, axisDir)

			if err := viewer.SaveSliceSequence(axis, axisDir); err != nil {
				log.Printf("Warning: Failed to save %s-axis slices: %v", axis, err)
			}
		}

		fmt.Println("Slice extraction completed!")
	}

	if cfg.Processing.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", cfg.Processing.IntermediaryDir)
		fmt.Println("The following stages were saved:")
		fmt.Println("- 01_volume_atlas: The atlas as loaded")
		fmt.Println("- 02_statistics: Intensity statistics")
		fmt.Println("- 03_normal_atlas: The estimated normal atlas")
		fmt.Println("- 04_normal_slices: First, middle and last normal slices")
	}

	if *noWindow {
		return
	}

	fmt.Println("\nControls:")
	for _, line := range render.Legend() {
		fmt.Println(line)
	}

	opts := render.Options{
		Width:        cfg.Window.Width,
		Height:       cfg.Window.Height,
		Title:        cfg.Window.Title,
		VSync:        cfg.Window.VSync,
		VertexPath:   cfg.Shaders.VertexPath,
		FragmentPath: cfg.Shaders.FragmentPath,
		WatchShaders: cfg.Shaders.Watch,
	}
	r, err := render.New(opts, pre.Atlas(), pre.Normals(), logger)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}
	if err := r.Run(); err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
}
