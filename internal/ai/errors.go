package ai

import "github.com/kiranshivaraju/brandguard/internal/ai/transport"

// Provider failures, shared with the provider packages through transport.
var (
	ErrProviderUnavailable = transport.ErrProviderUnavailable
	ErrInferenceTimeout    = transport.ErrInferenceTimeout
	ErrInvalidResponse     = transport.ErrInvalidResponse
)
