package audit

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// fakeStages implements every stage collaborator with overridable funcs.
type fakeStages struct {
	fetchFunc      func(ctx context.Context, url string) (string, error)
	transcribeFunc func(ctx context.Context, path string) (string, error)
	extractFunc    func(ctx context.Context, path string) ([]string, error)
	retrieveFunc   func(ctx context.Context, query string, k int) ([]string, error)

	mu      sync.Mutex
	queries []string
}

func (f *fakeStages) Fetch(ctx context.Context, url string) (string, error) {
	if f.fetchFunc != nil {
		return f.fetchFunc(ctx, url)
	}
	return "/tmp/video.mp4", nil
}

func (f *fakeStages) Transcribe(ctx context.Context, path string) (string, error) {
	if f.transcribeFunc != nil {
		return f.transcribeFunc(ctx, path)
	}
	return "guaranteed weight loss in seven days", nil
}

func (f *fakeStages) ExtractText(ctx context.Context, path string) ([]string, error) {
	if f.extractFunc != nil {
		return f.extractFunc(ctx, path)
	}
	return []string{"LIMITED OFFER"}, nil
}

func (f *fakeStages) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.retrieveFunc != nil {
		return f.retrieveFunc(ctx, query, k)
	}
	return []string{"[Source: health.md, Chunk 1]\nWeight loss claims must be substantiated."}, nil
}

func (f *fakeStages) collaborators(judge models.AIProvider) Collaborators {
	return Collaborators{
		Fetcher:     f,
		Transcriber: f,
		Extractor:   f,
		Retriever:   f,
		Judge:       judge,
	}
}

// transitions records every job state the executor publishes.
type transitions struct {
	mu   sync.Mutex
	jobs []models.Job
	hook func(models.Job)
}

func (tr *transitions) record(j models.Job) {
	tr.mu.Lock()
	tr.jobs = append(tr.jobs, j)
	hook := tr.hook
	tr.mu.Unlock()
	if hook != nil {
		hook(j)
	}
}

func (tr *transitions) statuses() []models.JobStatus {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]models.JobStatus, 0, len(tr.jobs))
	for _, j := range tr.jobs {
		out = append(out, j.Status)
	}
	return out
}

func (tr *transitions) steps() []int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]int, 0, len(tr.jobs))
	for _, j := range tr.jobs {
		out = append(out, j.Step)
	}
	return out
}
