package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker renders index.ProgressFunc callbacks as a single
// carriage-return terminated status line.
type ProgressTracker struct {
	mu      sync.Mutex
	out     io.Writer
	every   int
	began   time.Time
	done    int
	total   int
	printed int
}

// NewProgressTracker prints to out after every `every` products.
func NewProgressTracker(out io.Writer, every int) *ProgressTracker {
	return &ProgressTracker{out: out, every: max(every, 1)}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.began = time.Now()
	p.done, p.total, p.printed = 0, 0, 0
}

// Report records that done of total products were vectorized. It matches
// index.ProgressFunc. Calls before Start are ignored.
func (p *ProgressTracker) Report(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.began.IsZero() {
		return
	}
	p.done, p.total = done, total
	if done-p.printed >= p.every || done == total {
		p.print()
	}
}

// Finish prints the last line and a newline. It prints nothing when no
// product was vectorized, as when the index came from the cache.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.began.IsZero() || p.total == 0 {
		return
	}
	if p.printed != p.done {
		p.print()
	}
	fmt.Fprintln(p.out)
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.began.IsZero() {
		return 0
	}
	return time.Since(p.began)
}

func (p *ProgressTracker) print() {
	p.printed = p.done
	rate := float64(p.done) / time.Since(p.began).Seconds()
	fmt.Fprintf(p.out, "\rIndexing: %d/%d (%.1f%%) - %.1f products/s",
		p.done, p.total, float64(p.done)/float64(p.total)*100, rate)
}
