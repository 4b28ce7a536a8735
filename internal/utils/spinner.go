package utils

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// spinInterval is how often the spinner advances one frame.
const spinInterval = 100 * time.Millisecond

// Spinner animates an indeterminate progress bar for steps with no known
// length (camera warm-up, model inference) until Stop is called.
type Spinner struct {
	bar  *progressbar.ProgressBar
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSpinner draws the description immediately and starts animating it.
func NewSpinner(w io.Writer, description string) *Spinner {
	s := &Spinner{
		bar: progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		),
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.spin()
	return s
}

func (s *Spinner) spin() {
	defer s.wg.Done()
	ticker := time.NewTicker(spinInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_ = s.bar.Add(1)
		}
	}
}

// Stop halts the animation and clears the line. Safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		_ = s.bar.Finish()
	})
}
