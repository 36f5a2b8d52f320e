package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/brandguard/internal/ai/prompt"
	"github.com/kiranshivaraju/brandguard/internal/ai/transport"
	"github.com/kiranshivaraju/brandguard/internal/config"
	"github.com/kiranshivaraju/brandguard/pkg/models"
)

const apiVersion = "2023-06-01"

// Provider implements models.AIProvider using the Anthropic Messages API.
type Provider struct {
	cfg  config.AnthropicConfig
	gen  config.GenerationConfig
	http *transport.Client
}

func NewProvider(cfg config.AnthropicConfig, gen config.GenerationConfig) *Provider {
	return &Provider{
		cfg: cfg,
		gen: gen,
		http: transport.New(cfg.BaseURL, map[string]string{
			"x-api-key":         cfg.APIKey,
			"anthropic-version": apiVersion,
		}),
	}
}

func (p *Provider) Name() string { return "anthropic" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (p *Provider) Judge(ctx context.Context, req models.JudgeRequest) (string, error) {
	maxTokens := p.gen.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	var resp messagesResponse
	err := p.http.PostJSON(ctx, "/v1/messages", messagesRequest{
		Model:       p.cfg.Model,
		MaxTokens:   maxTokens,
		System:      prompt.System,
		Temperature: p.gen.Temperature,
		Messages:    []message{{Role: "user", Content: prompt.User(req)}},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("anthropic messages (%s): %w", p.cfg.Model, err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text content (stop_reason %q)", transport.ErrInvalidResponse, resp.StopReason)
	}
	return b.String(), nil
}

func (p *Provider) Ping(ctx context.Context) error {
	return p.http.Get(ctx, "/v1/models")
}

var _ models.AIProvider = (*Provider)(nil)
