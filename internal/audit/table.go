package audit

import (
	"sync"
	"time"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Table is the in-memory registry of audit jobs. A single table-wide lock
// guards every job; callers only ever see deep copies.
type Table struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{jobs: make(map[string]*models.Job)}
}

// Create registers a pending job admitted at now.
func (t *Table) Create(id string, now time.Time) (models.Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.jobs[id]; exists {
		return models.Job{}, ErrDuplicateJob
	}
	job := &models.Job{
		ID:         id,
		Status:     models.JobStatusPending,
		TotalSteps: models.TotalSteps,
		CreatedAt:  now,
	}
	t.jobs[id] = job
	return job.Clone(), nil
}

// Mutate applies fn to the job under the exclusive lock. fn must not retain
// the pointer or call back into the table.
func (t *Table) Mutate(id string, fn func(*models.Job)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	return nil
}

// Snapshot returns a copy of the job.
func (t *Table) Snapshot(id string) (models.Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok {
		return models.Job{}, ErrJobNotFound
	}
	return job.Clone(), nil
}

// ForEach calls fn with a copy of every job under the read lock.
func (t *Table) ForEach(fn func(models.Job)) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, job := range t.jobs {
		fn(job.Clone())
	}
}

// Remove deletes the job if present.
func (t *Table) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

// RemoveWhere deletes every job matching pred in one critical section and
// returns how many were removed.
func (t *Table) RemoveWhere(pred func(*models.Job) bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, job := range t.jobs {
		if pred(job) {
			delete(t.jobs, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}
