package ollama

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/brandguard/internal/ai/prompt"
	"github.com/kiranshivaraju/brandguard/internal/ai/transport"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Provider implements models.AIProvider using Ollama's generate endpoint.
type Provider struct {
	cfg  config.OllamaConfig
	gen  config.GenerationConfig
	http *transport.Client
}

func NewProvider(cfg config.OllamaConfig, gen config.GenerationConfig) *Provider {
	return &Provider{
		cfg:  cfg,
		gen:  gen,
		http: transport.New(cfg.BaseURL, nil),
	}
}

func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (p *Provider) Judge(ctx context.Context, req models.JudgeRequest) (string, error) {
	var resp generateResponse
	err := p.http.PostJSON(ctx, "/api/generate", generateRequest{
		Model:  p.cfg.Model,
		Prompt: prompt.User(req),
		System: prompt.System,
		Stream: false,
		Options: generateOptions{
			Temperature: p.gen.Temperature,
			NumPredict:  p.gen.MaxTokens,
		},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("ollama generate (%s): %w", p.cfg.Model, err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: %s", transport.ErrInvalidResponse, resp.Error)
	}
	return resp.Response, nil
}

// Ping lists local models, which succeeds only when the daemon is serving.
func (p *Provider) Ping(ctx context.Context) error {
	return p.http.Get(ctx, "/api/tags")
}

var _ models.AIProvider = (*Provider)(nil)
