package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	barWidth       = 40
	updateInterval = 100 * time.Millisecond
)

// ConsoleSink renders a single-line progress bar per stage, throttled so
// hot loops do not flood the terminal.
type ConsoleSink struct {
	mu         sync.Mutex
	out        io.Writer
	lastUpdate time.Time
	started    time.Time
}

// NewConsoleSink writes progress to w; stdout when w is nil.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{out: w}
}

func (c *ConsoleSink) StartStage(stage Stage, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = time.Now()
	c.lastUpdate = time.Time{}
	fmt.Fprintf(c.out, "\n=> %s: %s\n", stage, description)
}

func (c *ConsoleSink) Update(stage Stage, fraction float64, message string, extras Extras) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.Sub(c.lastUpdate) < updateInterval && fraction < 1 {
		return
	}
	c.lastUpdate = now

	filled := int(fraction * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)

	elapsed := now.Sub(c.started).Seconds()
	eta := ""
	if fraction > 0.01 && fraction < 1 {
		remaining := elapsed/fraction - elapsed
		eta = fmt.Sprintf(" | ETA %.1fs", remaining)
	}
	fmt.Fprintf(c.out, "\r[%s] %5.1f%% | %s | %.1fs%s", bar, fraction*100, message, elapsed, eta)
}

func (c *ConsoleSink) CompleteStage(stage Stage, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n   %s done in %.2fs\n", stage, elapsed.Seconds())
}

func (c *ConsoleSink) Error(stage Stage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n   %s failed: %v\n", stage, err)
}
