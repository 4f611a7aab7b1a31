package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker shows progress through a fixed number of steps, such as the
// package manager invocations of an install.
type Tracker struct {
	bar       *progressbar.ProgressBar
	out       io.Writer
	total     int64
	current   atomic.Int64
	startTime time.Time
}

// New creates a tracker that renders to out. A nil out disables rendering
// but still counts steps.
func New(out io.Writer) *Tracker {
	if out == nil {
		out = io.Discard
	}
	return &Tracker{
		out:       out,
		startTime: time.Now(),
	}
}

// SetTotal sets the number of steps and starts rendering.
func (t *Tracker) SetTotal(total int64, description string) {
	t.total = total
	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// Describe changes the label shown next to the bar.
func (t *Tracker) Describe(description string) {
	if t.bar != nil {
		t.bar.Describe(description)
	}
}

// Step marks one step as done.
func (t *Tracker) Step() {
	t.current.Add(1)
	if t.bar != nil {
		t.bar.Add(1)
	}
}

// Current returns the number of completed steps.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Total returns the number of steps set by SetTotal.
func (t *Tracker) Total() int64 {
	return t.total
}

// Finish clears the bar and prints a one-line summary.
func (t *Tracker) Finish(summary string) {
	if t.bar != nil {
		t.bar.Finish()
	}

	elapsed := time.Since(t.startTime)
	fmt.Fprintf(t.out, "%s in %s\n", summary, elapsed.Round(100*time.Millisecond))
}

// Abort clears the bar without printing a summary. Used when a step fails
// and an error is about to be shown.
func (t *Tracker) Abort() {
	if t.bar != nil {
		t.bar.Clear()
	}
}
