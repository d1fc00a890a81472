package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress displays completed operations of a running workload.
type Progress struct {
	w     io.Writer
	title string
	total int64
	done  int64
	width int
	start time.Time
	mu    sync.Mutex
}

// NewProgress creates a progress line. total <= 0 shows a plain counter.
func NewProgress(w io.Writer, title string, total int64) *Progress {
	return &Progress{
		w:     w,
		title: title,
		total: total,
		width: 30,
		start: time.Now(),
	}
}

// Set records the number of completed operations and redraws.
func (p *Progress) Set(done int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = done
	p.render()
}

// Add counts n more completed operations and redraws.
func (p *Progress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	p.render()
}

// Finish draws the final state and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		p.done = p.total
	}
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) rate() float64 {
	elapsed := time.Since(p.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(p.done) / elapsed
}

func (p *Progress) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d ops (%s/s)", p.title, p.done, humanCount(p.rate()))
		return
	}

	frac := float64(p.done) / float64(p.total)
	frac = min(max(frac, 0), 1)
	filled := int(float64(p.width) * frac)

	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% %d/%d (%s/s)",
		p.title,
		strings.Repeat("#", filled),
		strings.Repeat(".", p.width-filled),
		frac*100,
		p.done, p.total,
		humanCount(p.rate()),
	)
}

// humanCount formats a rate with k/M/G suffixes.
func humanCount(n float64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.1fG", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.1fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fk", n/1e3)
	}
	return fmt.Sprintf("%.0f", n)
}
