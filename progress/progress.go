// Package progress reports stage and fraction events from the generation
// and erosion pipeline. Sinks are threaded explicitly through every call;
// there is no ambient global tracker.
package progress

import "time"

// Stage identifies a pipeline phase.
type Stage string

const (
	StageInitialization Stage = "initialization"
	StageDiamondSquare  Stage = "diamond_square"
	StagePerlinFBM      Stage = "perlin_fbm"
	StageBlending       Stage = "blending"
	StageNormalization  Stage = "normalization"
	StageErosion        Stage = "erosion"
	StageSaving         Stage = "saving"
)

// Extras carries optional key/value details alongside an update.
type Extras map[string]interface{}

// Sink receives progress events. Implementations must be cheap and must
// not block: simulators fire events and continue immediately.
type Sink interface {
	StartStage(stage Stage, description string)
	Update(stage Stage, fraction float64, message string, extras Extras)
	CompleteStage(stage Stage, elapsed time.Duration)
	Error(stage Stage, err error)
}

type nopSink struct{}

func (nopSink) StartStage(Stage, string)              {}
func (nopSink) Update(Stage, float64, string, Extras) {}
func (nopSink) CompleteStage(Stage, time.Duration)    {}
func (nopSink) Error(Stage, error)                    {}

// Nop returns a sink that discards every event.
func Nop() Sink { return nopSink{} }

type multiSink []Sink

func (m multiSink) StartStage(s Stage, d string) {
	for _, sink := range m {
		sink.StartStage(s, d)
	}
}

func (m multiSink) Update(s Stage, f float64, msg string, e Extras) {
	for _, sink := range m {
		sink.Update(s, f, msg, e)
	}
}

func (m multiSink) CompleteStage(s Stage, elapsed time.Duration) {
	for _, sink := range m {
		sink.CompleteStage(s, elapsed)
	}
}

func (m multiSink) Error(s Stage, err error) {
	for _, sink := range m {
		sink.Error(s, err)
	}
}

// Multi fans events out to every given sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
