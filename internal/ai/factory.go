package ai

import (
	"fmt"

	"github.com/kiranshivaraju/brandguard/internal/ai/anthropic"
	"github.com/kiranshivaraju/brandguard/internal/ai/ollama"
	"github.com/kiranshivaraju/brandguard/internal/ai/openai"
	"github.com/kiranshivaraju/brandguard/internal/ai/vllm"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// NewProvider constructs the judge backend named by cfg.Provider.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama, cfg.Generation), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM, cfg.Generation), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI, cfg.Generation), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, cfg.Generation), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic", cfg.Provider)
	}
}
