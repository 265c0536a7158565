// Package generators produces base heightfields: a fractal subdivision
// grid (diamond-square) and multi-octave coherent noise (Perlin fBm),
// plus the composite pipeline that blends the two.
package generators

import (
	"errors"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// ErrInvalidSize is returned when a generator is asked for a non-positive
// grid size.
var ErrInvalidSize = errors.New("generators: size must be positive")

// Generator is the contract every heightfield source satisfies. The
// returned field is normalized to [0,1] and owned by the caller.
type Generator interface {
	Generate(tr *progress.Tracker) (*heightfield.Field, error)
	Name() string
}
