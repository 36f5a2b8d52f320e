package mock

import (
	"context"
	"sync"

	"github.com/kiranshivaraju/brandguard/internal/ai"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

const compliantVerdict = `{"violation": false, "severity": "none", "violated_rules": [], "explanation": "No claims in the content conflict with the retrieved rules.", "confidence": 0.9}`

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_     string
	JudgeFunc func(ctx context.Context, req models.JudgeRequest) (string, error)
	PingFunc  func(ctx context.Context) error

	mu       sync.Mutex
	requests []models.JudgeRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Judge(ctx context.Context, req models.JudgeRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.JudgeFunc != nil {
		return m.JudgeFunc(ctx, req)
	}
	return "", nil
}

func (m *MockProvider) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Requests returns a copy of every request Judge has received.
func (m *MockProvider) Requests() []models.JudgeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.JudgeRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// NewMockProvider returns a MockProvider that always answers with a
// well-formed compliant verdict.
func NewMockProvider() *MockProvider {
	return NewScriptedProvider(compliantVerdict)
}

// NewScriptedProvider returns a MockProvider whose Judge returns raw verbatim.
func NewScriptedProvider(raw string) *MockProvider {
	return &MockProvider{
		Name_: "mock",
		JudgeFunc: func(_ context.Context, _ models.JudgeRequest) (string, error) {
			return raw, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_: "mock-failing",
		JudgeFunc: func(_ context.Context, _ models.JudgeRequest) (string, error) {
			return "", err
		},
		PingFunc: func(_ context.Context) error { return err },
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_: "mock-timeout",
		JudgeFunc: func(ctx context.Context, _ models.JudgeRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

// Compile-time check that MockProvider implements AIProvider.
var _ models.AIProvider = (*MockProvider)(nil)
