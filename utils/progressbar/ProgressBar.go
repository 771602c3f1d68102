// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uilive"
)

// ProgressBar implements a progress bar that must be manually managed.
// The bar is redrawn in place each time Display is called.
//
// ProgressBar does not use concurrency.
type ProgressBar struct {
	width   int
	max     int
	current int
	status  string
	start   time.Time

	writer *uilive.Writer
}

// New returns a new ProgressBar that is width characters wide, writes
// to out, and reaches 100% after max Increment() calls.
func New(out io.Writer, width, max int) *ProgressBar {
	writer := uilive.New()
	writer.Out = out

	return &ProgressBar{
		width:  width,
		max:    max,
		start:  time.Now(),
		writer: writer,
	}
}

// Increment increments the internal progress counter
func (p *ProgressBar) Increment() {
	p.Set(p.current + 1)
}

// Set sets the internal progress counter, clipped to [0, max]
func (p *ProgressBar) Set(progress int) {
	if progress > p.max {
		progress = p.max
	} else if progress < 0 {
		progress = 0
	}
	p.current = progress
}

// SetStatus sets a status message printed after the bar
func (p *ProgressBar) SetStatus(status string) {
	p.status = status
}

// Progress returns the fraction of progress made
func (p *ProgressBar) Progress() float64 {
	if p.max <= 0 {
		return 1.0
	}
	return float64(p.current) / float64(p.max)
}

// Display redraws the progress bar
func (p *ProgressBar) Display() error {
	fmt.Fprintln(p.writer, p.String())
	return p.writer.Flush()
}

func (p *ProgressBar) String() string {
	filled := int(p.Progress() * float64(p.width))

	var bar strings.Builder
	bar.WriteString("|")
	bar.WriteString(strings.Repeat("█", filled))
	bar.WriteString(strings.Repeat(" ", p.width-filled))
	bar.WriteString(fmt.Sprintf("| [%.2f%% | elapsed: %v]", p.Progress()*100,
		time.Since(p.start).Truncate(time.Second)))

	if p.status != "" {
		bar.WriteString(" " + p.status)
	}
	return bar.String()
}
