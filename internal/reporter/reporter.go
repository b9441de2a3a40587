// Package reporter provides advisory-only background progress logging
// for long customization runs (spec §5). It samples named counters on a
// fixed tick and logs a one-line summary; it never affects correctness,
// and a caller that never starts a Reporter (or cancels its context
// immediately) gets identical query and customization results.
package reporter

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const defaultInterval = 3 * time.Second

// Counter is a named, atomically updated progress counter (e.g. "ranks
// processed", "triangles relaxed").
type Counter struct {
	name  string
	value *atomic.Uint64
}

// NewCounter wraps value under name for periodic reporting.
func NewCounter(name string, value *atomic.Uint64) Counter {
	return Counter{name: name, value: value}
}

// Reporter logs a snapshot of a set of counters on a fixed interval until
// its context is canceled.
type Reporter struct {
	logger   *log.Logger
	counters []Counter
	interval time.Duration
	total    uint64
}

// New creates a Reporter. total, if nonzero, is used to log a percentage
// alongside the first counter's raw value.
func New(logger *log.Logger, total uint64, counters ...Counter) *Reporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Reporter{logger: logger, counters: counters, interval: defaultInterval, total: total}
}

// Run blocks, logging a progress line every interval, until ctx is
// canceled. It is meant to be started in its own goroutine.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logOnce()
		}
	}
}

func (r *Reporter) logOnce() {
	fields := make([]interface{}, 0, len(r.counters)*2)
	names := append([]Counter(nil), r.counters...)
	sort.Slice(names, func(i, j int) bool { return names[i].name < names[j].name })
	for _, c := range names {
		fields = append(fields, c.name, c.value.Load())
	}
	if r.total > 0 && len(r.counters) > 0 {
		done := r.counters[0].value.Load()
		pct := float64(done) / float64(r.total) * 100
		fields = append(fields, "percent", pct)
	}
	r.logger.Info("customization progress", fields...)
}
