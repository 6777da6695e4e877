package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/logger"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/ytdlp"
)

// Runner abstracts the yt-dlp process so the orchestrator can be
// exercised without the binary on PATH.
type Runner interface {
	Run(ctx context.Context, url, quality, outDir string, onEvent func(ytdlp.Event)) error
}

// Orchestrator owns the download lifecycle: it accepts requests, spawns one
// bounded background goroutine per job, drives yt-dlp and
// writes every observation into the Tracker.
type Orchestrator struct {
	tracker     *Tracker
	runner      Runner
	log         *logger.Logger
	downloadDir string
	slotWait    time.Duration

	slots chan struct{}
	wg    sync.WaitGroup
}

func NewOrchestrator(tracker *Tracker, runner Runner, log *logger.Logger, downloadDir string, maxConcurrent int, slotWait time.Duration) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{
		tracker:     tracker,
		runner:      runner,
		log:         log,
		downloadDir: downloadDir,
		slotWait:    slotWait,
		slots:       make(chan struct{}, maxConcurrent),
	}
}

// Start accepts a download request and returns immediately with the job in
// its starting state. All waiting, including for a worker slot, happens in
// the background goroutine so the request path never blocks.
func (o *Orchestrator) Start(ctx context.Context, url, videoID, quality string) domain.Job {
	id := domain.NewJobID(videoID, quality, time.Now())
	job := o.tracker.Create(id, videoID, quality)

	o.wg.Add(1)
	go o.run(ctx, id, url, quality)

	return job
}

// Wait blocks until every in-flight job goroutine has finished. Used during
// graceful shutdown after the root context is cancelled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, id, url, quality string) {
	defer o.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("job %s panicked: %v", id, r)
			o.fail(id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	// Rate limiting: a slot must free up within the grace period or the
	// request is refused rather than queued without bound.
	select {
	case o.slots <- struct{}{}:
		defer func() { <-o.slots }()
	case <-time.After(o.slotWait):
		o.log.Warn("job %s refused: no worker slot within %s", id, o.slotWait)
		o.fail(id, "Server busy, try again later")
		return
	case <-ctx.Done():
		o.fail(id, "Download cancelled")
		return
	}

	if err := os.MkdirAll(o.downloadDir, 0755); err != nil {
		o.log.Error("job %s: cannot create download dir: %v", id, err)
		o.fail(id, err.Error())
		return
	}

	var started domain.JobPatch
	started.SetStatus(domain.StatusDownloading)
	o.tracker.Update(id, started)
	o.log.Info("job %s: downloading %s (%s)", id, url, quality)

	var filename string
	onEvent := func(ev ytdlp.Event) {
		switch ev.Type {
		case ytdlp.EventDestination:
			filename = ev.Filename
			var patch domain.JobPatch
			patch.SetFilename(ev.Filename)
			patch.SetTitle(ytdlp.TitleFromFilename(ev.Filename, quality))
			o.tracker.Update(id, patch)
		case ytdlp.EventProgress:
			var patch domain.JobPatch
			patch.SetPercentage(ev.Percentage)
			o.tracker.Update(id, patch)
		}
	}

	err := o.runner.Run(ctx, url, quality, o.downloadDir, onEvent)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			o.log.Info("job %s cancelled", id)
			o.fail(id, "Download cancelled")
			return
		}
		// The tool's detail goes to the log; the user gets the generic
		// message the status endpoint exposes.
		o.log.Error("job %s failed: %v", id, err)
		o.fail(id, "Download failed")
		return
	}

	name, path := o.resolveFile(filename, quality)
	var done domain.JobPatch
	done.SetStatus(domain.StatusCompleted)
	done.SetPercentage(100)
	if name != "" {
		done.SetFilename(name)
		done.SetFilePath(path)
	}
	o.tracker.Update(id, done)
	o.log.Info("job %s completed: %s", id, name)
}

func (o *Orchestrator) fail(id, msg string) {
	var patch domain.JobPatch
	patch.SetStatus(domain.StatusError)
	patch.SetError(msg)
	o.tracker.Update(id, patch)
}

// resolveFile locates the produced file. The filename recorded from the
// destination line is checked first; post-processing can rename it (mp3
// extraction does), so the fallback scans the downloads directory for
// anything carrying the quality or audio suffix.
func (o *Orchestrator) resolveFile(filename, quality string) (name, path string) {
	if filename != "" {
		candidate := filepath.Join(o.downloadDir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return filename, candidate
		}
	}

	marker := quality
	if quality == ytdlp.QualityAudio {
		marker = "audio"
	}

	entries, err := os.ReadDir(o.downloadDir)
	if err != nil {
		return "", ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), marker) {
			return entry.Name(), filepath.Join(o.downloadDir, entry.Name())
		}
	}

	return "", ""
}
