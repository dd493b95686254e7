package main

import (
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/policy-extract/internal/batch"
)

// progressReporter advances one step per task reaching a terminal state.
type progressReporter struct {
	bar *progressbar.ProgressBar
}

func newProgressReporter(total int) *progressReporter {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			_, _ = os.Stderr.WriteString("\n")
		}),
	)
	return &progressReporter{bar: bar}
}

func (p *progressReporter) Listener() batch.Listener {
	return func(ev batch.Event) {
		if ev.To.Terminal() {
			_ = p.bar.Add(1)
		}
	}
}

func (p *progressReporter) Finish() {
	_ = p.bar.Finish()
}
