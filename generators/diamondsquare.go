package generators

import (
	"fmt"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// DiamondSquareConfig parametrizes fractal subdivision. Roughness controls
// how fast the displacement amplitude decays per level: 0 is smooth, 1
// keeps full amplitude at every level.
type DiamondSquareConfig struct {
	Size      int
	Seed      int64
	Roughness float64
}

// DiamondSquare builds a self-similar base grid by iterative midpoint
// displacement over a 2^k+1 lattice.
type DiamondSquare struct {
	cfg DiamondSquareConfig
}

// NewDiamondSquare validates the configuration. A requested size that is
// not 2^k+1 is rounded up to the smallest valid size.
func NewDiamondSquare(cfg DiamondSquareConfig) (*DiamondSquare, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSize, cfg.Size)
	}
	if cfg.Roughness < 0 || cfg.Roughness > 1 {
		return nil, fmt.Errorf("generators: roughness must be in [0,1], got %v", cfg.Roughness)
	}
	cfg.Size = NextValidSize(cfg.Size)
	return &DiamondSquare{cfg: cfg}, nil
}

// Name returns the generator identifier.
func (ds *DiamondSquare) Name() string { return "diamond_square" }

// Size returns the effective grid size after 2^k+1 rounding.
func (ds *DiamondSquare) Size() int { return ds.cfg.Size }

// IsValidSize reports whether n has the form 2^k+1, k >= 1.
func IsValidSize(n int) bool {
	return n >= 3 && (n-1)&(n-2) == 0
}

// NextValidSize returns the smallest 2^k+1 that is >= n.
func NextValidSize(n int) int {
	power := 2
	for power+1 < n {
		power *= 2
	}
	return power + 1
}

// Generate runs the subdivision. Random draws consume a single stream in a
// fixed order (four corners, then per level every diamond cell row-major,
// then every square cell row-major) so a seed pins the output exactly.
func (ds *DiamondSquare) Generate(tr *progress.Tracker) (*heightfield.Field, error) {
	size := ds.cfg.Size
	tr.Start(progress.StageDiamondSquare, fmt.Sprintf("diamond-square %dx%d", size, size))

	field, err := heightfield.New(size)
	if err != nil {
		tr.Fail(err)
		return nil, err
	}
	rng := heightfield.NewRNG(ds.cfg.Seed)

	last := size - 1
	field.Set(0, 0, rng.Uniform(-1, 1))
	field.Set(last, 0, rng.Uniform(-1, 1))
	field.Set(0, last, rng.Uniform(-1, 1))
	field.Set(last, last, rng.Uniform(-1, 1))

	totalLevels := 0
	for step := last; step > 1; step /= 2 {
		totalLevels++
	}

	step := last
	scale := 1.0
	level := 0
	for step > 1 {
		half := step / 2

		tr.Update(float64(level)/float64(totalLevels),
			fmt.Sprintf("diamond phase, step %d", step),
			progress.Extras{"step": step, "level": level})
		ds.diamondPhase(field, rng, step, half, scale)

		tr.Update((float64(level)+0.5)/float64(totalLevels),
			fmt.Sprintf("square phase, step %d", step),
			progress.Extras{"step": step, "level": level})
		ds.squarePhase(field, rng, step, half, scale)

		step = half
		scale *= ds.cfg.Roughness
		level++
	}

	tr.Update(0.95, "normalizing", nil)
	field.Normalize()
	tr.Update(1, "diamond-square complete", nil)
	tr.Complete()
	return field, nil
}

// diamondPhase fills the centre of every square with the average of its
// four corners plus uniform noise in [-scale,scale].
func (ds *DiamondSquare) diamondPhase(f *heightfield.Field, rng *heightfield.RNG, step, half int, scale float64) {
	size := f.Size
	for y := half; y < size; y += step {
		for x := half; x < size; x += step {
			avg := (f.At(x-half, y-half) +
				f.At(x+half, y-half) +
				f.At(x-half, y+half) +
				f.At(x+half, y+half)) / 4
			f.Set(x, y, avg+rng.Uniform(-scale, scale))
		}
	}
}

// squarePhase fills the remaining offset cells with the average of their
// in-bounds cardinal neighbours plus uniform noise. Out-of-bounds
// neighbours are excluded from the average, not zero-filled.
func (ds *DiamondSquare) squarePhase(f *heightfield.Field, rng *heightfield.RNG, step, half int, scale float64) {
	size := f.Size
	for y := 0; y < size; y += half {
		for x := (y + half) % step; x < size; x += step {
			var sum float64
			var count int
			if y-half >= 0 {
				sum += f.At(x, y-half)
				count++
			}
			if y+half < size {
				sum += f.At(x, y+half)
				count++
			}
			if x-half >= 0 {
				sum += f.At(x-half, y)
				count++
			}
			if x+half < size {
				sum += f.At(x+half, y)
				count++
			}
			if count > 0 {
				f.Set(x, y, sum/float64(count)+rng.Uniform(-scale, scale))
			}
		}
	}
}
