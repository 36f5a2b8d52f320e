package openai

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/brandguard/internal/ai/prompt"
	"github.com/kiranshivaraju/brandguard/internal/ai/transport"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

// Provider implements models.AIProvider against any OpenAI-compatible
// chat completions API.
type Provider struct {
	name  string
	model string
	gen   config.GenerationConfig
	http  *transport.Client
}

func NewProvider(cfg config.OpenAIConfig, gen config.GenerationConfig) *Provider {
	return NewCompatible("openai", cfg.BaseURL, cfg.APIKey, cfg.Model, gen)
}

// NewCompatible builds a Provider for an OpenAI-compatible server rooted at
// baseURL (the path prefix up to and including /v1).
func NewCompatible(name, baseURL, apiKey, model string, gen config.GenerationConfig) *Provider {
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	return &Provider{
		name:  name,
		model: model,
		gen:   gen,
		http:  transport.New(baseURL, headers),
	}
}

func (p *Provider) Name() string { return p.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (p *Provider) Judge(ctx context.Context, req models.JudgeRequest) (string, error) {
	var resp chatResponse
	err := p.http.PostJSON(ctx, "/chat/completions", chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User(req)},
		},
		Temperature:    p.gen.Temperature,
		MaxTokens:      p.gen.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("%s chat completion (%s): %w", p.name, p.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", transport.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.http.Get(ctx, "/models")
}

var _ models.AIProvider = (*Provider)(nil)
