package jobs

import (
	"context"
	"os"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/logger"
)

// Janitor evicts finished jobs from the in-memory table after the retention
// window and removes their files from the downloads directory. Persisted
// rows stay behind as history; the tracker reads through to them.
type Janitor struct {
	tracker   *Tracker
	log       *logger.Logger
	retention time.Duration
	interval  time.Duration
}

func NewJanitor(tracker *Tracker, log *logger.Logger, retention, interval time.Duration) *Janitor {
	return &Janitor{
		tracker:   tracker,
		log:       log,
		retention: retention,
		interval:  interval,
	}
}

// Run blocks until ctx is cancelled. Call it in its own goroutine.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	cutoff := time.Now().Add(-j.retention)
	evicted := j.tracker.EvictTerminalBefore(cutoff)

	for _, job := range evicted {
		if job.FilePath != "" {
			if err := os.Remove(job.FilePath); err != nil && !os.IsNotExist(err) {
				j.log.Warn("janitor: could not remove %s: %v", job.FilePath, err)
			}
		}
		j.log.Info("janitor: evicted job %s (%s)", job.ID, job.Status)
	}
}
