package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/logger"
	"github.com/tracyhilton810-ctrl/tubefetch/internal/ytdlp"
)

type fakeRunner struct {
	events []ytdlp.Event
	err    error
	delay  time.Duration

	// produce is called with the output dir before returning, e.g. to drop
	// a file the way the real tool would.
	produce func(outDir string)
}

func (f *fakeRunner) Run(ctx context.Context, url, quality, outDir string, onEvent func(ytdlp.Event)) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, ev := range f.events {
		onEvent(ev)
	}
	if f.produce != nil {
		f.produce(outDir)
	}
	return f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(filepath.Join(t.TempDir(), "test.log"), logger.LevelDebug, false)
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func waitForTerminal(t *testing.T, tr *Tracker, id string) domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := tr.Get(id); ok && job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return domain.Job{}
}

func TestOrchestratorHappyPath(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(nil)
	runner := &fakeRunner{
		events: []ytdlp.Event{
			{Type: ytdlp.EventDestination, Filename: "My_Video_720p.mp4"},
			{Type: ytdlp.EventProgress, Percentage: 12.5},
			{Type: ytdlp.EventProgress, Percentage: 80},
		},
		produce: func(outDir string) {
			os.WriteFile(filepath.Join(outDir, "My_Video_720p.mp4"), []byte("video"), 0644)
		},
	}
	o := NewOrchestrator(tr, runner, testLogger(t), dir, 2, time.Second)

	job := o.Start(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "720p")

	if job.Status != domain.StatusStarting {
		t.Errorf("initial status = %q, want starting", job.Status)
	}
	wantPrefix := "dQw4w9WgXcQ_720p_"
	if len(job.ID) <= len(wantPrefix) || job.ID[:len(wantPrefix)] != wantPrefix {
		t.Errorf("job ID %q does not match <videoID>_<quality>_<timestamp>", job.ID)
	}

	final := waitForTerminal(t, tr, job.ID)
	if final.Status != domain.StatusCompleted {
		t.Fatalf("final status = %q (%s), want completed", final.Status, final.Error)
	}
	if final.Percentage != 100 {
		t.Errorf("final percentage = %v, want 100", final.Percentage)
	}
	if final.Title != "My_Video" {
		t.Errorf("title = %q, want My_Video", final.Title)
	}
	if final.Filename != "My_Video_720p.mp4" {
		t.Errorf("filename = %q", final.Filename)
	}
	if final.FilePath != filepath.Join(dir, "My_Video_720p.mp4") {
		t.Errorf("file path = %q", final.FilePath)
	}
}

func TestOrchestratorToolFailure(t *testing.T) {
	tr := NewTracker(nil)
	runner := &fakeRunner{err: errors.New("yt-dlp: Video unavailable")}
	o := NewOrchestrator(tr, runner, testLogger(t), t.TempDir(), 2, time.Second)

	job := o.Start(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "720p")

	final := waitForTerminal(t, tr, job.ID)
	if final.Status != domain.StatusError {
		t.Fatalf("final status = %q, want error", final.Status)
	}
	if final.Error == "" {
		t.Error("error message must be set")
	}
}

func TestOrchestratorServerBusy(t *testing.T) {
	tr := NewTracker(nil)
	blocked := &fakeRunner{delay: time.Hour}
	o := NewOrchestrator(tr, blocked, testLogger(t), t.TempDir(), 1, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := o.Start(ctx, "https://youtu.be/aaaaaaaaaaa", "aaaaaaaaaaa", "720p")
	// Give the first job time to claim the only slot
	time.Sleep(20 * time.Millisecond)
	second := o.Start(ctx, "https://youtu.be/bbbbbbbbbbb", "bbbbbbbbbbb", "720p")

	final := waitForTerminal(t, tr, second.ID)
	if final.Status != domain.StatusError {
		t.Fatalf("second job status = %q, want error", final.Status)
	}

	if job, _ := tr.Get(first.ID); job.Status.IsTerminal() {
		t.Errorf("first job should still be running, got %q", job.Status)
	}
}

func TestOrchestratorCancellation(t *testing.T) {
	tr := NewTracker(nil)
	blocked := &fakeRunner{delay: time.Hour}
	o := NewOrchestrator(tr, blocked, testLogger(t), t.TempDir(), 1, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	job := o.Start(ctx, "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "720p")

	time.Sleep(20 * time.Millisecond)
	cancel()
	o.Wait()

	final, _ := tr.Get(job.ID)
	if final.Status != domain.StatusError {
		t.Errorf("cancelled job status = %q, want error", final.Status)
	}
}

func TestOrchestratorLifecycleOrder(t *testing.T) {
	// The job must pass through downloading before its terminal state and
	// must never be observed reverting.
	dir := t.TempDir()
	tr := NewTracker(nil)
	runner := &fakeRunner{
		events: []ytdlp.Event{{Type: ytdlp.EventProgress, Percentage: 50}},
		delay:  50 * time.Millisecond,
	}
	o := NewOrchestrator(tr, runner, testLogger(t), dir, 1, time.Second)

	job := o.Start(context.Background(), "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", "480p")

	sawDownloading := false
	var last float64
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		cur, ok := tr.Get(job.ID)
		if !ok {
			t.Fatal("job disappeared")
		}
		if cur.Status == domain.StatusDownloading {
			sawDownloading = true
		}
		if cur.Percentage < last {
			t.Fatalf("percentage went backwards: %v -> %v", last, cur.Percentage)
		}
		last = cur.Percentage
		if cur.Status.IsTerminal() {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	if !sawDownloading {
		t.Error("job never observed in downloading state")
	}
	final, _ := tr.Get(job.ID)
	if final.Status != domain.StatusCompleted {
		t.Errorf("final status = %q, want completed", final.Status)
	}
}

func TestResolveFileFallbackScan(t *testing.T) {
	dir := t.TempDir()
	// Destination announced an .m4a, post-processing produced an .mp3
	os.WriteFile(filepath.Join(dir, "My_Track_audio.mp3"), []byte("x"), 0644)

	tr := NewTracker(nil)
	o := NewOrchestrator(tr, &fakeRunner{}, testLogger(t), dir, 1, time.Second)

	name, path := o.resolveFile("My_Track_audio.m4a", "audio")
	if name != "My_Track_audio.mp3" {
		t.Errorf("resolved name = %q, want the scanned mp3", name)
	}
	if path != filepath.Join(dir, "My_Track_audio.mp3") {
		t.Errorf("resolved path = %q", path)
	}
}

func TestNewJobIDShape(t *testing.T) {
	now := time.Unix(1700000000, 0)
	got := domain.NewJobID("dQw4w9WgXcQ", "720p", now)
	want := fmt.Sprintf("dQw4w9WgXcQ_720p_%d", now.Unix())
	if got != want {
		t.Errorf("NewJobID = %q, want %q", got, want)
	}
}
