// Package models contains shared data models used across the brandguard codebase.
package models

import "context"

// AIProvider is the interface every generative model backend implements.
// Never call specific providers directly, always inject this interface.
type AIProvider interface {
	// Judge sends the evidence bundle to the model and returns its raw text answer.
	Judge(ctx context.Context, req JudgeRequest) (string, error)
	// Ping reports whether the backend is reachable and serving.
	Ping(ctx context.Context) error
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// JudgeRequest is the evidence handed to the model for one audit.
type JudgeRequest struct {
	Transcript   string
	OnScreenText []string
	// Rules holds the retrieved regulatory passages, best match first.
	Rules []string
}
