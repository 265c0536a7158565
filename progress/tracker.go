package progress

import "time"

// Tracker pairs a sink with the currently running stage so components can
// report fractions without repeating stage bookkeeping. A nil *Tracker is
// valid and discards everything, so callers never need nil checks.
type Tracker struct {
	sink    Sink
	stage   Stage
	started time.Time
}

// NewTracker wraps a sink. A nil sink behaves like Nop().
func NewTracker(sink Sink) *Tracker {
	if sink == nil {
		sink = Nop()
	}
	return &Tracker{sink: sink}
}

// Start opens a new stage, implicitly closing any prior one.
func (t *Tracker) Start(stage Stage, description string) {
	if t == nil {
		return
	}
	t.stage = stage
	t.started = time.Now()
	t.sink.StartStage(stage, description)
}

// Update reports a fraction in [0,1] for the current stage.
func (t *Tracker) Update(fraction float64, message string, extras Extras) {
	if t == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	t.sink.Update(t.stage, fraction, message, extras)
}

// Complete closes the current stage with its elapsed wall time.
func (t *Tracker) Complete() {
	if t == nil {
		return
	}
	t.sink.CompleteStage(t.stage, time.Since(t.started))
}

// Fail reports an error against the current stage.
func (t *Tracker) Fail(err error) {
	if t == nil {
		return
	}
	t.sink.Error(t.stage, err)
}
