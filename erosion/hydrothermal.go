package erosion

import (
	"fmt"
	"math"
	"time"

	"github.com/dgravesa/go-parallel/parallel"

	"github.com/habib256/wilderness/heightfield"
	"github.com/habib256/wilderness/progress"
)

// Fraction of a cell's sediment pushed to its downhill neighbour per
// hydraulic step.
const sedimentTransferFraction = 0.1

// HydroThermalEroder runs the whole-grid model: per iteration a hydraulic
// step (rainfall, slope-driven erosion/deposition, sediment transfer,
// evaporation) followed by a thermal talus step. Water and sediment maps
// persist across iterations of one run and reset at the start of the next.
type HydroThermalEroder struct {
	params HydroThermalParams
}

// NewHydroThermalEroder validates the parameters.
func NewHydroThermalEroder(params HydroThermalParams) (*HydroThermalEroder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &HydroThermalEroder{params: params}, nil
}

// hydroState owns the per-run grids. Steps read a snapshot of the prior
// grid and write fresh buffers, so per-cell work is data-parallel; the
// scatter passes that push material to neighbours run serially in
// row-major order to keep results deterministic.
type hydroState struct {
	size               int
	height, nextHeight []float64
	sediment, nextSed  []float64
	water              []float64
	gradX, gradY       []float64
	transfer           []float64
	transferTarget     []int
	criticalSlope      float64
}

func newHydroState(f *heightfield.Field, criticalSlope float64) *hydroState {
	n := len(f.Data)
	s := &hydroState{
		size:           f.Size,
		height:         f.Data,
		nextHeight:     make([]float64, n),
		sediment:       make([]float64, n),
		nextSed:        make([]float64, n),
		water:          make([]float64, n),
		gradX:          make([]float64, n),
		gradY:          make([]float64, n),
		transfer:       make([]float64, n),
		transferTarget: make([]int, n),
		criticalSlope:  criticalSlope,
	}
	return s
}

// Erode runs the configured number of iterations over the field, mutating
// it in place, and returns the field together with run metrics.
func (e *HydroThermalEroder) Erode(f *heightfield.Field, tr *progress.Tracker) (*heightfield.Field, Metrics, error) {
	p := e.params
	tr.Start(progress.StageErosion,
		fmt.Sprintf("hydro-thermal erosion, %d iterations over %dx%d", p.Iterations, f.Size, f.Size))

	if f.Size < 3 {
		// No interior cells to simulate.
		tr.Complete()
		return f, newMetrics(f.Sum(), f.Sum(), f.Sum(), f.Sum(), 0, p.Iterations, f.Size), nil
	}

	state := newHydroState(f, math.Tan(p.ThermalAngleDegrees*math.Pi/180))

	initialVolume := f.Sum()
	initialMass := initialVolume // sediment maps start empty
	start := time.Now()

	for i := 0; i < p.Iterations; i++ {
		e.hydraulicStep(state)
		e.thermalStep(state)
		tr.Update(float64(i+1)/float64(p.Iterations),
			fmt.Sprintf("iteration %d/%d", i+1, p.Iterations),
			progress.Extras{"iteration": i + 1})
	}

	elapsed := time.Since(start)
	f.Data = state.height

	finalVolume := f.Sum()
	finalMass := finalVolume + sum(state.sediment)
	metrics := newMetrics(initialVolume, finalVolume, initialMass, finalMass,
		elapsed, p.Iterations, f.Size)

	tr.Complete()
	return f, metrics, nil
}

// hydraulicStep performs rainfall, slope-driven erosion/deposition,
// directional sediment transfer, and evaporation.
func (e *HydroThermalEroder) hydraulicStep(s *hydroState) {
	p := e.params
	size := s.size

	for i := range s.water {
		s.water[i] += p.RainRate
	}

	computeGradients(s)

	copy(s.nextHeight, s.height)
	copy(s.nextSed, s.sediment)

	// Erode or deposit per interior cell. Reads only snapshot buffers
	// and writes only the cell's own slot, so rows split cleanly.
	parallel.For(size-2, func(row, _ int) {
		y := row + 1
		for x := 1; x < size-1; x++ {
			i := y*size + x
			slopeX, slopeY := s.gradX[i], s.gradY[i]
			mag := math.Sqrt(slopeX*slopeX + slopeY*slopeY)
			if mag == 0 {
				continue
			}
			velocity := mag * s.water[i] * p.Gravity
			capacity := p.SedimentCapacity * velocity * mag

			if s.sediment[i] < capacity {
				// Dissolve, bounded so height never goes negative.
				erode := math.Min((capacity-s.sediment[i])*p.DissolveRate, s.nextHeight[i])
				s.nextHeight[i] -= erode
				s.nextSed[i] += erode
			} else {
				deposit := (s.sediment[i] - capacity) * p.DepositRate
				s.nextHeight[i] += deposit
				s.nextSed[i] -= deposit
			}
		}
	})

	// Push a fixed fraction of each cell's sediment one cell downhill
	// along the dominant gradient axis. Scatter pass: serial, row-major.
	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			i := y*size + x
			slopeX, slopeY := s.gradX[i], s.gradY[i]
			mag := math.Sqrt(slopeX*slopeX + slopeY*slopeY)
			if mag == 0 {
				continue
			}
			dirX := -slopeX / mag
			dirY := -slopeY / mag

			var target int
			if math.Abs(dirX) > math.Abs(dirY) {
				tx := x + sign(dirX)
				if tx <= 0 || tx >= size {
					continue
				}
				target = y*size + tx
			} else {
				ty := y + sign(dirY)
				if ty <= 0 || ty >= size {
					continue
				}
				target = ty*size + x
			}
			if target == i {
				continue
			}
			transfer := s.nextSed[i] * sedimentTransferFraction
			s.nextSed[i] -= transfer
			s.nextSed[target] += transfer
		}
	}

	evap := 1 - p.EvaporationRate
	for i := range s.water {
		s.water[i] *= evap
	}

	s.height, s.nextHeight = s.nextHeight, s.height
	s.sediment, s.nextSed = s.nextSed, s.sediment
}

// thermalStep relaxes slopes above the critical angle by moving material
// from each offending cell to its single lowest neighbour. Detection is
// data-parallel over a snapshot; the transfers commit serially.
func (e *HydroThermalEroder) thermalStep(s *hydroState) {
	p := e.params
	size := s.size

	parallel.For(size-2, func(row, _ int) {
		y := row + 1
		for x := 1; x < size-1; x++ {
			i := y*size + x
			s.transfer[i] = 0

			center := s.height[i]
			maxSlope := 0.0
			minHeight := center
			target := i
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					n := (y+dy)*size + (x + dx)
					h := s.height[n]
					slope := (center - h) / math.Sqrt(float64(dx*dx+dy*dy))
					if slope > maxSlope {
						maxSlope = slope
					}
					if h < minHeight {
						minHeight = h
						target = n
					}
				}
			}
			if maxSlope > s.criticalSlope && target != i {
				s.transfer[i] = 0.5 * p.ThermalRate * (center - minHeight)
				s.transferTarget[i] = target
			}
		}
	})

	copy(s.nextHeight, s.height)
	for y := 1; y < size-1; y++ {
		for x := 1; x < size-1; x++ {
			i := y*size + x
			if t := s.transfer[i]; t != 0 {
				s.nextHeight[i] -= t
				s.nextHeight[s.transferTarget[i]] += t
			}
		}
	}
	s.height, s.nextHeight = s.nextHeight, s.height
}

// computeGradients fills gradX/gradY with centered finite differences over
// interior cells and one-sided differences at the edges.
func computeGradients(s *hydroState) {
	size := s.size
	parallel.For(size, func(y, _ int) {
		for x := 0; x < size; x++ {
			i := y*size + x
			switch {
			case x == 0:
				s.gradX[i] = s.height[i+1] - s.height[i]
			case x == size-1:
				s.gradX[i] = s.height[i] - s.height[i-1]
			default:
				s.gradX[i] = (s.height[i+1] - s.height[i-1]) / 2
			}
			switch {
			case y == 0:
				s.gradY[i] = s.height[i+size] - s.height[i]
			case y == size-1:
				s.gradY[i] = s.height[i] - s.height[i-size]
			default:
				s.gradY[i] = (s.height[i+size] - s.height[i-size]) / 2
			}
		}
	})
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func sum(data []float64) float64 {
	var total float64
	for _, v := range data {
		total += v
	}
	return total
}
