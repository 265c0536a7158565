package generators

import (
	"fmt"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// CompositeConfig drives the full synthesis pipeline: diamond-square for
// large-scale structure, Perlin fBm for detail, blended and renormalized.
type CompositeConfig struct {
	Size int
	Seed int64

	DSRoughness   float64
	FBMOctaves    int
	FBMFrequency  float64
	FBMGain       float64
	FBMLacunarity float64
	NoiseBackend  string

	// BlendRatio weights diamond-square against fBm: 1 is pure
	// diamond-square, 0 pure noise.
	BlendRatio float64
}

// DefaultCompositeConfig returns the tuned defaults for the pipeline.
func DefaultCompositeConfig(size int, seed int64) CompositeConfig {
	return CompositeConfig{
		Size:          size,
		Seed:          seed,
		DSRoughness:   0.6,
		FBMOctaves:    6,
		FBMFrequency:  0.005,
		FBMGain:       0.5,
		FBMLacunarity: 2.0,
		BlendRatio:    0.7,
	}
}

// Composite runs both generators and blends their output.
type Composite struct {
	cfg CompositeConfig
	ds  *DiamondSquare
	fbm *PerlinFBM
}

// NewComposite validates the configuration and constructs both stages.
// The fBm stage is seeded at an offset so the two generators never share
// a random stream.
func NewComposite(cfg CompositeConfig) (*Composite, error) {
	if cfg.BlendRatio < 0 || cfg.BlendRatio > 1 {
		return nil, fmt.Errorf("generators: blend ratio must be in [0,1], got %v", cfg.BlendRatio)
	}
	ds, err := NewDiamondSquare(DiamondSquareConfig{
		Size:      cfg.Size,
		Seed:      cfg.Seed,
		Roughness: cfg.DSRoughness,
	})
	if err != nil {
		return nil, err
	}
	fbm, err := NewPerlinFBM(PerlinFBMConfig{
		Size:       cfg.Size,
		Seed:       cfg.Seed + 1000,
		Octaves:    cfg.FBMOctaves,
		Frequency:  cfg.FBMFrequency,
		Gain:       cfg.FBMGain,
		Lacunarity: cfg.FBMLacunarity,
		Backend:    cfg.NoiseBackend,
	})
	if err != nil {
		return nil, err
	}
	return &Composite{cfg: cfg, ds: ds, fbm: fbm}, nil
}

// Name returns the generator identifier.
func (c *Composite) Name() string { return "composite" }

// Generate produces the blended base field at the requested size. The
// diamond-square stage may run at the next 2^k+1 size; Blend resamples it
// back down to the requested resolution.
func (c *Composite) Generate(tr *progress.Tracker) (*heightfield.Field, error) {
	tr.Start(progress.StageInitialization,
		fmt.Sprintf("synthesis %dx%d, seed %d", c.cfg.Size, c.cfg.Size, c.cfg.Seed))
	tr.Update(1, "pipeline configured", nil)
	tr.Complete()

	base, err := c.ds.Generate(tr)
	if err != nil {
		return nil, err
	}
	detail, err := c.fbm.Generate(tr)
	if err != nil {
		return nil, err
	}

	tr.Start(progress.StageBlending,
		fmt.Sprintf("blend %.0f%% diamond-square + %.0f%% fBm",
			c.cfg.BlendRatio*100, (1-c.cfg.BlendRatio)*100))
	blended, err := heightfield.Blend(base, detail, c.cfg.BlendRatio)
	if err != nil {
		tr.Fail(err)
		return nil, err
	}
	tr.Update(1, "blend complete", nil)
	tr.Complete()
	return blended, nil
}
