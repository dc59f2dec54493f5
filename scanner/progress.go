package scanner

import (
	"os"
	"time"

	"imagedup/logging"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// ProgressTracker counts hashing results and drives the progress bar
type ProgressTracker struct {
	bar       *progressbar.ProgressBar
	processed int
	errors    int
}

// NewProgressTracker creates a tracker for total files. The bar is only
// drawn when enabled and stderr is a terminal.
func NewProgressTracker(total int, enabled bool) *ProgressTracker {
	tracker := &ProgressTracker{}
	if enabled && total > 0 && isTerminal(os.Stderr) {
		tracker.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Hashing images"),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	return tracker
}

// Record accounts for one result
func (p *ProgressTracker) Record(result HashResult) {
	p.processed++
	if result.Err != nil {
		p.errors++
		logging.LogImageProcessed(result.Identity.Path, false, result.Err.Error())
	} else {
		logging.LogImageProcessed(result.Identity.Path, true, "")
	}

	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Stop finishes the progress bar
func (p *ProgressTracker) Stop() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
