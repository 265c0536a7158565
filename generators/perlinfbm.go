package generators

import (
	"fmt"
	"log"

	"github.com/aquilax/go-perlin"
	"github.com/dgravesa/go-parallel/parallel"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// Noise backend identifiers. BackendAuto picks the fast path; an unknown
// identifier is logged and silently downgraded to the portable fallback.
const (
	BackendAuto     = ""
	BackendFast     = "fast"
	BackendPortable = "portable"
)

// PerlinFBMConfig parametrizes multi-octave coherent noise. Octave i
// contributes amplitude Gain^i at frequency Frequency*Lacunarity^i.
type PerlinFBMConfig struct {
	Size       int
	Seed       int64
	Octaves    int
	Frequency  float64
	Gain       float64
	Lacunarity float64
	Backend    string
}

// PerlinFBM generates fractional Brownian motion noise. The backend is a
// strategy fixed at construction: a fast coherent-noise evaluator or a
// portable coarse-grid fallback with identical octave semantics.
type PerlinFBM struct {
	cfg     PerlinFBMConfig
	backend noiseBackend
}

type noiseBackend interface {
	fill(f *heightfield.Field, tr *progress.Tracker)
	name() string
}

// NewPerlinFBM validates the configuration and selects the backend.
func NewPerlinFBM(cfg PerlinFBMConfig) (*PerlinFBM, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, cfg.Size)
	}
	if cfg.Octaves < 1 {
		return nil, fmt.Errorf("generators: octaves must be >= 1, got %d", cfg.Octaves)
	}
	if cfg.Frequency <= 0 {
		return nil, fmt.Errorf("generators: frequency must be positive, got %v", cfg.Frequency)
	}
	if cfg.Gain <= 0 || cfg.Gain >= 1 {
		return nil, fmt.Errorf("generators: gain must be in (0,1), got %v", cfg.Gain)
	}
	if cfg.Lacunarity < 1 {
		return nil, fmt.Errorf("generators: lacunarity must be >= 1, got %v", cfg.Lacunarity)
	}

	g := &PerlinFBM{cfg: cfg}
	switch cfg.Backend {
	case BackendAuto, BackendFast:
		g.backend = newFastBackend(cfg)
	case BackendPortable:
		g.backend = newPortableBackend(cfg)
	default:
		log.Printf("generators: noise backend %q unavailable, falling back to portable", cfg.Backend)
		g.backend = newPortableBackend(cfg)
	}
	return g, nil
}

// Name returns the generator identifier.
func (g *PerlinFBM) Name() string { return "perlin_fbm" }

// Backend returns the name of the selected backend.
func (g *PerlinFBM) Backend() string { return g.backend.name() }

// Generate fills a size x size grid with fBm noise normalized to [0,1].
// Output is deterministic per seed for a given backend.
func (g *PerlinFBM) Generate(tr *progress.Tracker) (*heightfield.Field, error) {
	size := g.cfg.Size
	tr.Start(progress.StagePerlinFBM,
		fmt.Sprintf("perlin fBm %dx%d, %d octaves (%s backend)", size, size, g.cfg.Octaves, g.backend.name()))

	field, err := heightfield.New(size)
	if err != nil {
		tr.Fail(err)
		return nil, err
	}
	g.backend.fill(field, tr)

	tr.Update(0.95, "normalizing", nil)
	field.Normalize()
	tr.Update(1, "perlin fBm complete", nil)
	tr.Complete()
	return field, nil
}

// fastBackend evaluates every pixel through a coherent-noise library whose
// fBm weighting matches the configured gain/lacunarity semantics.
type fastBackend struct {
	cfg   PerlinFBMConfig
	noise *perlin.Perlin
}

func newFastBackend(cfg PerlinFBMConfig) *fastBackend {
	// go-perlin weights octave i by alpha^-i and scales frequency by
	// beta^i, so alpha = 1/gain and beta = lacunarity.
	return &fastBackend{
		cfg:   cfg,
		noise: perlin.NewPerlin(1/cfg.Gain, cfg.Lacunarity, int32(cfg.Octaves), cfg.Seed),
	}
}

func (b *fastBackend) name() string { return BackendFast }

func (b *fastBackend) fill(f *heightfield.Field, tr *progress.Tracker) {
	size := f.Size
	freq := b.cfg.Frequency
	// Rows are independent: each pixel is a pure function of its
	// coordinates, so the fill parallelizes without affecting output.
	parallel.For(size, func(y, _ int) {
		fy := float64(y) * freq
		row := f.Data[y*size : (y+1)*size]
		for x := range row {
			row[x] = b.noise.Noise2D(float64(x)*freq, fy)
		}
	})
	tr.Update(0.9, "noise evaluation complete", progress.Extras{"pixels": size * size})
}

// portableBackend accumulates per-octave coarse random grids upsampled
// bilinearly to the full resolution. Slower, but dependency-free in the
// numeric path and reproducible anywhere.
type portableBackend struct {
	cfg PerlinFBMConfig
}

func newPortableBackend(cfg PerlinFBMConfig) *portableBackend {
	return &portableBackend{cfg: cfg}
}

func (b *portableBackend) name() string { return BackendPortable }

func (b *portableBackend) fill(f *heightfield.Field, tr *progress.Tracker) {
	size := f.Size
	amplitude := 1.0
	frequency := b.cfg.Frequency
	totalAmplitude := 0.0

	for octave := 0; octave < b.cfg.Octaves; octave++ {
		tr.Update(0.1+0.8*float64(octave)/float64(b.cfg.Octaves),
			fmt.Sprintf("octave %d/%d", octave+1, b.cfg.Octaves),
			progress.Extras{"frequency": frequency, "amplitude": amplitude})

		layer := b.octaveLayer(size, frequency, octave)
		for i := range f.Data {
			f.Data[i] += layer.Data[i] * amplitude
		}

		totalAmplitude += amplitude
		amplitude *= b.cfg.Gain
		frequency *= b.cfg.Lacunarity
	}

	if totalAmplitude > 0 {
		for i := range f.Data {
			f.Data[i] /= totalAmplitude
		}
	}
}

// octaveLayer draws a coarse uniform grid from a seed offset by the octave
// index and upsamples it to the target resolution. The coarse resolution
// tracks the octave frequency with a 4x4 floor, which band-limits each
// layer to its octave.
func (b *portableBackend) octaveLayer(size int, frequency float64, octave int) *heightfield.Field {
	gridSize := int(float64(size) * frequency)
	if gridSize < 4 {
		gridSize = 4
	}
	if gridSize > size {
		gridSize = size
	}

	rng := heightfield.NewRNG(b.cfg.Seed + int64(octave))
	coarse, _ := heightfield.New(gridSize)
	for i := range coarse.Data {
		coarse.Data[i] = rng.Uniform(-1, 1)
	}

	layer, _ := coarse.Resample(size)
	return layer
}
