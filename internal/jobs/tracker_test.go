package jobs

import (
	"testing"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
)

func TestTrackerCreateInitialState(t *testing.T) {
	tr := NewTracker(nil)

	job := tr.Create("dQw4w9WgXcQ_720p_1700000000", "dQw4w9WgXcQ", "720p")

	if job.Status != domain.StatusStarting {
		t.Errorf("Status = %q, want %q", job.Status, domain.StatusStarting)
	}
	if job.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", job.Percentage)
	}
	if job.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder", job.Title)
	}
}

func TestTrackerGetUnknown(t *testing.T) {
	tr := NewTracker(nil)
	tr.Create("known_720p_1", "known", "720p")

	if _, ok := tr.Get("never-created"); ok {
		t.Error("Get on a never-created ID must report not found")
	}
}

func TestTrackerUpdateMergesPartialState(t *testing.T) {
	tr := NewTracker(nil)
	tr.Create("id1", "vid", "720p")

	var p1 domain.JobPatch
	p1.SetStatus(domain.StatusDownloading)
	tr.Update("id1", p1)

	var p2 domain.JobPatch
	p2.SetPercentage(42.5)
	job, ok := tr.Update("id1", p2)
	if !ok {
		t.Fatal("expected job to exist")
	}

	if job.Status != domain.StatusDownloading {
		t.Errorf("status lost by percentage patch: %q", job.Status)
	}
	if job.Percentage != 42.5 {
		t.Errorf("Percentage = %v, want 42.5", job.Percentage)
	}
}

func TestTrackerTerminalStatesFrozen(t *testing.T) {
	tests := []struct {
		name     string
		terminal domain.JobStatus
	}{
		{"completed stays completed", domain.StatusCompleted},
		{"error stays error", domain.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(nil)
			tr.Create("id1", "vid", "720p")

			var toTerminal domain.JobPatch
			toTerminal.SetStatus(tt.terminal)
			tr.Update("id1", toTerminal)

			var back domain.JobPatch
			back.SetStatus(domain.StatusDownloading)
			back.SetPercentage(55)
			job, _ := tr.Update("id1", back)

			if job.Status != tt.terminal {
				t.Errorf("terminal status changed to %q", job.Status)
			}
			if job.Percentage == 55 {
				t.Error("percentage changed after terminal state")
			}
		})
	}
}

func TestTrackerNeverRevertsToStarting(t *testing.T) {
	tr := NewTracker(nil)
	tr.Create("id1", "vid", "720p")

	var dl domain.JobPatch
	dl.SetStatus(domain.StatusDownloading)
	tr.Update("id1", dl)

	var revert domain.JobPatch
	revert.SetStatus(domain.StatusStarting)
	job, _ := tr.Update("id1", revert)

	if job.Status != domain.StatusDownloading {
		t.Errorf("job reverted to %q", job.Status)
	}
}

func TestTrackerTerminalPercentageApplied(t *testing.T) {
	tr := NewTracker(nil)
	tr.Create("id1", "vid", "720p")

	var done domain.JobPatch
	done.SetStatus(domain.StatusCompleted)
	done.SetPercentage(100)
	job, _ := tr.Update("id1", done)

	if job.Percentage != 100 {
		t.Errorf("Percentage = %v, want 100", job.Percentage)
	}
}

func TestTrackerEvictTerminalBefore(t *testing.T) {
	tr := NewTracker(nil)
	tr.Create("old-done", "vid", "720p")
	tr.Create("active", "vid", "480p")

	var done domain.JobPatch
	done.SetStatus(domain.StatusCompleted)
	tr.Update("old-done", done)

	evicted := tr.EvictTerminalBefore(time.Now().Add(time.Minute))

	if len(evicted) != 1 || evicted[0].ID != "old-done" {
		t.Fatalf("evicted = %+v, want just old-done", evicted)
	}
	if _, ok := tr.Get("active"); !ok {
		t.Error("active job must survive eviction")
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

type fakeStore struct {
	saved map[string]domain.Job
}

func newFakeStore() *fakeStore { return &fakeStore{saved: make(map[string]domain.Job)} }

func (f *fakeStore) SaveJob(job *domain.Job) error {
	f.saved[job.ID] = *job
	return nil
}

func (f *fakeStore) GetJob(id string) (*domain.Job, error) {
	job, ok := f.saved[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func TestTrackerReadsThroughStoreAfterEviction(t *testing.T) {
	st := newFakeStore()
	tr := NewTracker(st)
	tr.Create("id1", "vid", "720p")

	var done domain.JobPatch
	done.SetStatus(domain.StatusCompleted)
	tr.Update("id1", done)

	tr.EvictTerminalBefore(time.Now().Add(time.Minute))

	job, ok := tr.Get("id1")
	if !ok {
		t.Fatal("evicted job should still resolve via the store")
	}
	if job.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
}
