// Command wilderness generates a procedural heightmap, optionally erodes
// it, and writes PNG/raw output.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/habib256/wilderness/erosion"
	"github.com/habib256/wilderness/export"
	"github.com/habib256/wilderness/generators"
	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

func main() {
	var (
		size          = flag.Int("size", 1024, "heightmap edge length")
		seed          = flag.Int64("seed", 42, "generation seed")
		output        = flag.String("output", "output/heightmap.png", "16-bit PNG output path")
		rawOutput     = flag.String("raw", "", "optional raw float32 output path")
		input         = flag.String("input", "", "erode an existing heightmap (PNG or raw) instead of generating")
		dsRoughness   = flag.Float64("ds-roughness", 0.6, "diamond-square roughness in [0,1]")
		fbmOctaves    = flag.Int("fbm-octaves", 6, "perlin fBm octave count")
		fbmFrequency  = flag.Float64("fbm-frequency", 0.005, "perlin fBm base frequency")
		fbmGain       = flag.Float64("fbm-gain", 0.5, "perlin fBm gain per octave")
		fbmLacunarity = flag.Float64("fbm-lacunarity", 2.0, "perlin fBm lacunarity")
		noiseBackend  = flag.String("noise-backend", "", "noise backend: fast or portable (default fast)")
		blendRatio    = flag.Float64("blend-ratio", 0.7, "diamond-square vs fBm blend ratio")
		erosionMode   = flag.String("erosion", "none", "erosion simulator: none, droplet or grid")
		intensity     = flag.String("intensity", "medium", "droplet erosion preset: light, medium or heavy")
		iterations    = flag.Int("iterations", 0, "override erosion iteration/droplet count")
		stats         = flag.Bool("stats", false, "print field statistics")
		noProgress    = flag.Bool("no-progress", false, "disable the console progress bar")
	)
	flag.Parse()

	var sink progress.Sink = progress.Nop()
	if !*noProgress {
		sink = progress.NewConsoleSink(nil)
	}
	tr := progress.NewTracker(sink)

	field, err := makeField(*input, *size, *seed, *dsRoughness, *fbmOctaves,
		*fbmFrequency, *fbmGain, *fbmLacunarity, *noiseBackend, *blendRatio, tr)
	if err != nil {
		log.Fatalf("wilderness: %v", err)
	}
	if *stats {
		printStats("base", field)
	}

	field, err = applyErosion(field, *erosionMode, *intensity, *iterations, *seed, tr)
	if err != nil {
		log.Fatalf("wilderness: %v", err)
	}
	if *stats && *erosionMode != "none" {
		printStats("eroded", field)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		log.Fatalf("wilderness: %v", err)
	}
	if err := export.SavePNG16(field, *output, tr); err != nil {
		log.Fatalf("wilderness: saving %s: %v", *output, err)
	}
	if *rawOutput != "" {
		if err := export.SaveRaw(field, *rawOutput, tr); err != nil {
			log.Fatalf("wilderness: saving %s: %v", *rawOutput, err)
		}
	}
	fmt.Printf("\nwrote %s (%dx%d)\n", *output, field.Size, field.Size)
}

func makeField(input string, size int, seed int64, dsRoughness float64,
	octaves int, frequency, gain, lacunarity float64, backend string,
	blendRatio float64, tr *progress.Tracker) (*heightfield.Field, error) {

	if input != "" {
		switch filepath.Ext(input) {
		case ".raw", ".r32":
			return export.LoadRaw(input)
		}
		return export.LoadPNG(input)
	}

	pipeline, err := generators.NewComposite(generators.CompositeConfig{
		Size:          size,
		Seed:          seed,
		DSRoughness:   dsRoughness,
		FBMOctaves:    octaves,
		FBMFrequency:  frequency,
		FBMGain:       gain,
		FBMLacunarity: lacunarity,
		NoiseBackend:  backend,
		BlendRatio:    blendRatio,
	})
	if err != nil {
		return nil, err
	}
	return pipeline.Generate(tr)
}

func applyErosion(field *heightfield.Field, mode, intensity string,
	iterations int, seed int64, tr *progress.Tracker) (*heightfield.Field, error) {

	switch mode {
	case "none":
		return field, nil
	case "droplet":
		params, err := erosion.DropletPreset(intensity)
		if err != nil {
			return nil, err
		}
		if iterations > 0 {
			params.Iterations = iterations
		}
		params.Seed = seed
		eroder, err := erosion.NewDropletEroder(params)
		if err != nil {
			return nil, err
		}
		return eroder.Erode(field, tr), nil
	case "grid":
		params := erosion.DefaultHydroThermalParams()
		if iterations > 0 {
			params.Iterations = iterations
		}
		params.Seed = seed
		eroder, err := erosion.NewHydroThermalEroder(params)
		if err != nil {
			return nil, err
		}
		field, metrics, err := eroder.Erode(field, tr)
		if err != nil {
			return nil, err
		}
		fmt.Printf("\nerosion metrics: %s\n", metrics)
		return field, nil
	}
	return nil, fmt.Errorf("unknown erosion mode %q", mode)
}

func printStats(name string, f *heightfield.Field) {
	s := f.Summarize()
	fmt.Printf("\n%s field %dx%d: min=%.4f max=%.4f mean=%.4f stddev=%.4f\n",
		name, f.Size, f.Size, s.Min, s.Max, s.Mean, s.StdDev)
}
