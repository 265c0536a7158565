package erosion

import (
	"fmt"
	"time"
)

// Metrics summarizes one whole-grid erosion run. Computed once from
// before/after mass sums; informational only, never used for control flow.
type Metrics struct {
	VolumeTransported       float64
	MassConservationPercent float64
	NumericalLoss           float64
	Elapsed                 time.Duration
	Iterations              int
	GridSize                string
}

func newMetrics(initialVolume, finalVolume, initialMass, finalMass float64,
	elapsed time.Duration, iterations, size int) Metrics {

	loss := finalMass - initialMass
	if loss < 0 {
		loss = -loss
	}
	percent := 0.0
	if initialMass != 0 {
		percent = loss / initialMass * 100
	}
	transported := finalVolume - initialVolume
	if transported < 0 {
		transported = -transported
	}
	return Metrics{
		VolumeTransported:       transported,
		MassConservationPercent: percent,
		NumericalLoss:           loss,
		Elapsed:                 elapsed,
		Iterations:              iterations,
		GridSize:                fmt.Sprintf("%dx%d", size, size),
	}
}

// String renders the metrics for logs.
func (m Metrics) String() string {
	return fmt.Sprintf("grid=%s iterations=%d transported=%.6f conservation=%.6f%% loss=%.3g elapsed=%s",
		m.GridSize, m.Iterations, m.VolumeTransported, m.MassConservationPercent, m.NumericalLoss, m.Elapsed)
}
