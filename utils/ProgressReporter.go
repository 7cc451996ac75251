package utils

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter tracks how many reports have been processed.
type ProgressReporter interface {
	SetTotal(total int)
	Increment()
}

// BarProgressReporter renders progress as a terminal bar.
type BarProgressReporter struct {
	description string
	writer      io.Writer
	bar         *progressbar.ProgressBar
}

func NewBarProgressReporter(total int, description string) *BarProgressReporter {
	p := &BarProgressReporter{description: description, writer: os.Stderr}
	p.SetTotal(total)
	return p
}

// SetTotal restarts the bar with a new total.
func (p *BarProgressReporter) SetTotal(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(p.description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100e6),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(p.writer, "\n") }),
	)
}

func (p *BarProgressReporter) Increment() {
	_ = p.bar.Add(1)
}

// NoopProgressReporter discards progress, for non-interactive runs.
type NoopProgressReporter struct{}

func (NoopProgressReporter) SetTotal(int) {}

func (NoopProgressReporter) Increment() {}
