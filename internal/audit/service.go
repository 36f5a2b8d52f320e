package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

const (
	idLength   = 8
	idAttempts = 5
)

// Options configures a Service.
type Options struct {
	RetentionTTL  time.Duration
	MaxConcurrent int
	TopK          int
	JudgeTimeout  time.Duration
}

// Stats is a point-in-time view of the service load.
type Stats struct {
	Active   int `json:"active"`
	Capacity int `json:"capacity"`
	Tracked  int `json:"tracked"`
}

// Service admits audit requests and serves their status.
type Service struct {
	table *Table
	gate  *Gate
	exec  *Executor
	ttl   time.Duration

	now   func() time.Time
	newID func() string
	wg    sync.WaitGroup
}

// NewService wires a Service around the given stage collaborators.
func NewService(deps Collaborators, opts Options) *Service {
	table := NewTable()
	return &Service{
		table: table,
		gate:  NewGate(opts.MaxConcurrent),
		exec:  NewExecutor(table, deps, opts.TopK, opts.JudgeTimeout),
		ttl:   opts.RetentionTTL,
		now:   time.Now,
		newID: func() string { return uuid.NewString()[:idLength] },
	}
}

// Submit admits a new audit for url and starts it in the background.
// Returns ErrCapacityExhausted without recording anything when no slot is free.
func (s *Service) Submit(ctx context.Context, url string) (models.Job, error) {
	s.sweep()

	slot, ok := s.gate.TryAcquire()
	if !ok {
		return models.Job{}, ErrCapacityExhausted
	}

	job, err := s.create()
	if err != nil {
		slot.Release()
		return models.Job{}, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.exec.Run(context.WithoutCancel(ctx), job.ID, url, slot)
	}()

	slog.Info("audit admitted", "job_id", job.ID, "url", url)
	return job, nil
}

func (s *Service) create() (models.Job, error) {
	for range idAttempts {
		job, err := s.table.Create(s.newID(), s.now())
		if errors.Is(err, ErrDuplicateJob) {
			continue
		}
		return job, err
	}
	return models.Job{}, fmt.Errorf("allocate job id: %w", ErrDuplicateJob)
}

// Status returns a snapshot of job id, or ErrJobNotFound.
func (s *Service) Status(id string) (models.Job, error) {
	s.sweep()
	return s.table.Snapshot(id)
}

// Stats reports current admission usage and table size.
func (s *Service) Stats() Stats {
	return Stats{
		Active:   s.gate.InUse(),
		Capacity: s.gate.Capacity(),
		Tracked:  s.table.Len(),
	}
}

// Wait blocks until every started run has returned or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) sweep() {
	if n := Sweep(s.table, s.now(), s.ttl); n > 0 {
		slog.Info("swept expired audits", "count", n)
	}
}
