package progress

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink captures events for assertions.
type recordSink struct {
	events []string
	last   float64
}

func (r *recordSink) StartStage(s Stage, d string) { r.events = append(r.events, "start:"+string(s)) }
func (r *recordSink) Update(s Stage, f float64, msg string, e Extras) {
	r.events = append(r.events, "update:"+string(s))
	r.last = f
}
func (r *recordSink) CompleteStage(s Stage, elapsed time.Duration) {
	r.events = append(r.events, "complete:"+string(s))
}
func (r *recordSink) Error(s Stage, err error) { r.events = append(r.events, "error:"+string(s)) }

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	tr.Start(StageErosion, "noop")
	tr.Update(0.5, "noop", nil)
	tr.Complete()
	tr.Fail(errors.New("ignored"))
}

func TestTrackerRoutesToSink(t *testing.T) {
	rec := &recordSink{}
	tr := NewTracker(rec)

	tr.Start(StageDiamondSquare, "subdivision")
	tr.Update(0.25, "halfway there", Extras{"step": 16})
	tr.Complete()
	tr.Start(StageErosion, "droplets")
	tr.Fail(errors.New("boom"))

	assert.Equal(t, []string{
		"start:diamond_square",
		"update:diamond_square",
		"complete:diamond_square",
		"start:erosion",
		"error:erosion",
	}, rec.events)
}

func TestTrackerClampsFraction(t *testing.T) {
	rec := &recordSink{}
	tr := NewTracker(rec)
	tr.Start(StageBlending, "blend")

	tr.Update(-0.5, "below", nil)
	assert.Equal(t, 0.0, rec.last)

	tr.Update(1.5, "above", nil)
	assert.Equal(t, 1.0, rec.last)
}

func TestNewTrackerNilSinkBehavesLikeNop(t *testing.T) {
	tr := NewTracker(nil)
	tr.Start(StagePerlinFBM, "noise")
	tr.Update(0.5, "noop", nil)
	tr.Complete()
}

func TestMultiFansOutAndSkipsNil(t *testing.T) {
	a := &recordSink{}
	b := &recordSink{}
	m := Multi(a, nil, b)

	m.StartStage(StageSaving, "export")
	m.Update(StageSaving, 1, "written", nil)
	m.CompleteStage(StageSaving, time.Second)

	require.Equal(t, a.events, b.events)
	assert.Len(t, a.events, 3)
}

func TestConsoleSinkOutput(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	sink.StartStage(StageErosion, "droplet erosion")
	sink.Update(StageErosion, 1, "finished", nil)
	sink.CompleteStage(StageErosion, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "erosion: droplet erosion")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "done in 1.50s")
}

func TestConsoleSinkThrottlesUpdates(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	sink.StartStage(StageErosion, "droplets")

	for i := 0; i < 100; i++ {
		sink.Update(StageErosion, float64(i)/200, "tick", nil)
	}

	// 100 immediate updates inside one throttle window collapse to one.
	lines := strings.Count(buf.String(), "\r")
	assert.LessOrEqual(t, lines, 2)
}

func TestConsoleSinkReportsErrors(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	sink.StartStage(StageSaving, "export")
	sink.Error(StageSaving, errors.New("disk full"))

	assert.Contains(t, buf.String(), "saving failed: disk full")
}
