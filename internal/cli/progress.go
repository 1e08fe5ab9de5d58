package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/deepwiki-go/deepwiki/internal/indexer"
)

// progressReporter drives a terminal progress bar from indexer.Progress
// events; quiet suppresses all output (set by --quiet).
type progressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

func newProgressReporter(quiet bool) *progressReporter {
	return &progressReporter{quiet: quiet}
}

func (p *progressReporter) onProgress(ev indexer.Progress) {
	if p.quiet {
		return
	}
	if p.bar == nil || p.bar.GetMax() != ev.TotalFiles {
		p.bar = progressbar.NewOptions(ev.TotalFiles,
			progressbar.OptionSetDescription("Indexing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files/s"),
		)
	}
	p.bar.Set(ev.FilesProcessed) //nolint:errcheck
	if ev.CurrentFile != "" {
		p.bar.Describe(fmt.Sprintf("Indexing %s", ev.CurrentFile))
	}
}

func (p *progressReporter) finish() {
	if p.bar != nil {
		p.bar.Finish() //nolint:errcheck
	}
}
