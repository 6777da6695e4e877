package jobs

import (
	"sync"
	"time"

	"github.com/tracyhilton810-ctrl/tubefetch/internal/domain"
)

// PlaceholderTitle is shown until the first destination line names the file.
const PlaceholderTitle = "Getting video info..."

// JobStore is the persistence the tracker reads through to on a miss. The
// orchestrator writes through it on every status transition.
type JobStore interface {
	SaveJob(job *domain.Job) error
	GetJob(id string) (*domain.Job, error)
}

// Tracker is the in-memory job table: one writer per job (its owning
// goroutine), arbitrarily many polling readers. It hands out copies, never
// pointers into the map.
type Tracker struct {
	mu    sync.RWMutex
	jobs  map[string]*domain.Job
	store JobStore
}

// NewTracker builds a tracker. store may be nil (CLI mode, tests); then
// evicted and restarted state is simply gone.
func NewTracker(store JobStore) *Tracker {
	return &Tracker{
		jobs:  make(map[string]*domain.Job),
		store: store,
	}
}

// Create initializes a job in the starting state and persists the record.
func (t *Tracker) Create(id, videoID, quality string) domain.Job {
	now := time.Now()
	job := &domain.Job{
		ID:        id,
		VideoID:   videoID,
		Quality:   quality,
		Status:    domain.StatusStarting,
		Title:     PlaceholderTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.jobs[id] = job
	t.mu.Unlock()

	t.persist(job)
	return *job
}

// Get returns a copy of the job's current state. On a miss it falls back to
// the store, so terminal states outlive janitor eviction and restarts.
func (t *Tracker) Get(id string) (domain.Job, bool) {
	t.mu.RLock()
	job, ok := t.jobs[id]
	if ok {
		snapshot := *job
		t.mu.RUnlock()
		return snapshot, true
	}
	t.mu.RUnlock()

	if t.store != nil {
		if stored, err := t.store.GetJob(id); err == nil && stored != nil {
			return *stored, true
		}
	}

	return domain.Job{}, false
}

// Update merges the patch into the job's state. Terminal states are frozen:
// once a job is completed or error, further status changes are dropped, and
// nothing ever moves a job back to starting.
func (t *Tracker) Update(id string, patch domain.JobPatch) (domain.Job, bool) {
	t.mu.Lock()
	job, ok := t.jobs[id]
	if !ok {
		t.mu.Unlock()
		return domain.Job{}, false
	}

	statusChanged := false
	if patch.Status != nil && *patch.Status != job.Status {
		allowed := !job.Status.IsTerminal() && *patch.Status != domain.StatusStarting
		if allowed {
			job.Status = *patch.Status
			statusChanged = true
		}
	}
	// A percentage arriving with the terminal transition itself (the final
	// 100) is applied; stray ticks after a job is frozen are not.
	if patch.Percentage != nil && (!job.Status.IsTerminal() || statusChanged) {
		job.Percentage = *patch.Percentage
	}
	if patch.Title != nil {
		job.Title = *patch.Title
	}
	if patch.Filename != nil {
		job.Filename = *patch.Filename
	}
	if patch.FilePath != nil {
		job.FilePath = *patch.FilePath
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	job.UpdatedAt = time.Now()

	snapshot := *job
	t.mu.Unlock()

	// Percentage ticks arrive many times a second; only transitions are
	// worth a disk write.
	if statusChanged {
		t.persist(&snapshot)
	}

	return snapshot, true
}

// EvictTerminalBefore removes terminal jobs last touched before the cutoff
// and returns copies so the janitor can clean their files. Active jobs are
// never evicted.
func (t *Tracker) EvictTerminalBefore(cutoff time.Time) []domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []domain.Job
	for id, job := range t.jobs {
		if job.Status.IsTerminal() && job.UpdatedAt.Before(cutoff) {
			evicted = append(evicted, *job)
			delete(t.jobs, id)
		}
	}
	return evicted
}

// Len reports the number of live entries.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

func (t *Tracker) persist(job *domain.Job) {
	if t.store != nil {
		_ = t.store.SaveJob(job)
	}
}
