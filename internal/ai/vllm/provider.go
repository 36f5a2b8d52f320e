package vllm

import (
	"strings"

	"github.com/kiranshivaraju/brandguard/internal/ai/openai"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Provider implements models.AIProvider using vLLM's OpenAI-compatible server.
type Provider struct {
	*openai.Provider
}

func NewProvider(cfg config.VLLMConfig, gen config.GenerationConfig) *Provider {
	base := strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	return &Provider{Provider: openai.NewCompatible("vllm", base, "", cfg.Model, gen)}
}

var _ models.AIProvider = (*Provider)(nil)
