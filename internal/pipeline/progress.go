package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives progress updates during multi-image processing.
// Implementations must be safe for concurrent use.
type ProgressCallback interface {
	OnStart(total int)
	OnProgress(current, total int)
	OnComplete()
	OnError(current int, err error)
}

// NoOpProgressCallback discards all progress updates.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(total int)              {}
func (NoOpProgressCallback) OnProgress(current, total int)  {}
func (NoOpProgressCallback) OnComplete()                    {}
func (NoOpProgressCallback) OnError(current int, err error) {}

// ConsoleProgressCallback renders a textual progress bar to a writer.
type ConsoleProgressCallback struct {
	mu         sync.Mutex
	writer     io.Writer
	prefix     string
	width      int
	started    time.Time
	lastUpdate time.Time
	interval   time.Duration
}

// NewConsoleProgressCallback creates a console progress bar.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	return &ConsoleProgressCallback{
		writer:   writer,
		prefix:   prefix,
		width:    30,
		interval: 100 * time.Millisecond,
	}
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = time.Now()
	c.lastUpdate = time.Time{}
}

func (c *ConsoleProgressCallback) OnProgress(current, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if current < total && now.Sub(c.lastUpdate) < c.interval {
		return
	}
	c.lastUpdate = now

	filled := 0
	if total > 0 {
		filled = current * c.width / total
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", c.width-filled)
	fmt.Fprintf(c.writer, "\r%s[%s] %d/%d", c.prefix, bar, current, total)
}

func (c *ConsoleProgressCallback) OnComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, " done in %s\n", time.Since(c.started).Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) OnError(current int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, "\n%simage %d failed: %v\n", c.prefix, current, err)
}

// LogProgressCallback reports progress through structured logging at a fixed
// image interval.
type LogProgressCallback struct {
	logger   *slog.Logger
	interval int
	mu       sync.Mutex
	started  time.Time
}

// NewLogProgressCallback creates a logging progress reporter. With interval
// n, every n-th image produces a log line.
func NewLogProgressCallback(logger *slog.Logger, interval int) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10
	}
	return &LogProgressCallback{logger: logger, interval: interval}
}

func (l *LogProgressCallback) OnStart(total int) {
	l.mu.Lock()
	l.started = time.Now()
	l.mu.Unlock()
	l.logger.Info("Processing started", "total_images", total)
}

func (l *LogProgressCallback) OnProgress(current, total int) {
	if current != total && current%l.interval != 0 {
		return
	}
	l.logger.Info("Processing progress", "current", current, "total", total)
}

func (l *LogProgressCallback) OnComplete() {
	l.mu.Lock()
	elapsed := time.Since(l.started)
	l.mu.Unlock()
	l.logger.Info("Processing complete", "elapsed", elapsed.Round(time.Millisecond))
}

func (l *LogProgressCallback) OnError(current int, err error) {
	l.logger.Warn("Image processing failed", "index", current, "error", err)
}
