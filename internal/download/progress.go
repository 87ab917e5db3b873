// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kpeez/neuromorphopy/pkg/types"
)

// Reporter prints periodic progress lines for a batch download. Counters
// are atomic so Observe stays cheap; the display writes from its own
// update loop.
type Reporter struct {
	out      io.Writer
	total    int
	interval time.Duration

	written atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewReporter creates a progress reporter for total tasks writing to out.
func NewReporter(out io.Writer, total int, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Reporter{
		out:      out,
		total:    total,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic display.
func (r *Reporter) Start() {
	go r.updateLoop()
}

// Stop ends the display and prints the final summary line.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.doneCh
	})
}

// Observe records one completed task. Satisfies download.Observer.
func (r *Reporter) Observe(ev Event) {
	switch ev.Status {
	case types.StatusWritten:
		r.written.Add(1)
	case types.StatusSkipped:
		r.skipped.Add(1)
	case types.StatusFailed:
		r.failed.Add(1)
	}
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.printLine("\r")
		case <-r.stopCh:
			r.printLine("\r")
			fmt.Fprintln(r.out)
			return
		}
	}
}

func (r *Reporter) printLine(prefix string) {
	written := r.written.Load()
	skipped := r.skipped.Load()
	failed := r.failed.Load()
	done := written + skipped + failed
	fmt.Fprintf(r.out, "%sdownloading [%d/%d] written=%d skipped=%d failed=%d",
		prefix, done, r.total, written, skipped, failed)
}
