// Package progress renders a terminal progress bar for batch runs.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// Bar is a simple terminal progress bar with a per-item label.
type Bar struct {
	total     int
	current   int
	label     string
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a new progress bar
func New(total int) *Bar {
	return &Bar{
		total:     total,
		startTime: time.Now(),
		lastPrint: time.Now(),
	}
}

// Set moves the bar to current and shows the label of the item just
// processed. Safe to call from batch workers.
func (b *Bar) Set(current int, label string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current > b.current {
		b.current = current
	}
	b.label = label

	// Update display every 500ms or when complete
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish marks the progress as complete
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.current = b.total
		b.render()
		fmt.Println() // New line after completion
		b.done = true
	}
}

// render displays the progress bar
func (b *Bar) render() {
	if b.done || b.total == 0 {
		return
	}

	percentage := float64(b.current) / float64(b.total) * 100
	elapsed := time.Since(b.startTime)

	// Calculate ETA
	var eta time.Duration
	if b.current > 0 {
		avgTime := elapsed / time.Duration(b.current)
		remaining := b.total - b.current
		eta = avgTime * time.Duration(remaining)
	}

	barWidth := 30
	filled := int(float64(barWidth) * float64(b.current) / float64(b.total))

	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}

	label := b.label
	if len(label) > 24 {
		label = label[:21] + "..."
	}

	fmt.Printf("\r[%s] %d/%d (%.1f%%) %-24s ETA: %s   ",
		bar,
		b.current,
		b.total,
		percentage,
		label,
		formatDuration(eta),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
