package ingest

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress tracks chunk embedding progress and reports it to a writer.
// Safe for concurrent use by pipeline workers.
type Progress struct {
	writer         io.Writer
	total          int
	processed      int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgress creates a progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: total number of chunks to embed
// reportInterval: report progress every N chunks
func NewProgress(writer io.Writer, total, reportInterval int) *Progress {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &Progress{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.processed = 0
	p.failed = 0
	p.lastReported = 0
}

// Add records n successfully embedded chunks.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(&p.processed, n)
}

// Fail records n chunks whose embedding failed.
func (p *Progress) Fail(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(&p.failed, n)
}

// advance bumps a counter and reports when a report interval is crossed.
// Must be called with the lock held.
func (p *Progress) advance(counter *int, n int) {
	if !p.started {
		return
	}

	*counter += n
	done := p.processed + p.failed
	if done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = done
	}
}

// Counts returns the processed and failed totals so far.
func (p *Progress) Counts() (processed, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed, p.failed
}

// Finish prints the final progress line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time elapsed since Start was called.
func (p *Progress) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with the lock held.
func (p *Progress) report() {
	done := p.processed + p.failed

	rate := 0.0
	if seconds := time.Since(p.startTime).Seconds(); seconds > 0 {
		rate = float64(done) / seconds
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(done) / float64(p.total) * 100.0
	}

	line := fmt.Sprintf("\rEmbedding: %d/%d (%.1f%%) - %.1f chunks/s",
		done, p.total, percentage, rate)
	if p.failed > 0 {
		line += fmt.Sprintf(" - %d failed", p.failed)
	}
	if remaining := p.total - done; remaining > 0 && rate > 0 {
		eta := time.Duration(float64(remaining) / rate * float64(time.Second)).Round(time.Second)
		line += " - ETA " + eta.String()
	}

	fmt.Fprint(p.writer, line)
}
