package narration

import (
	"context"

	"github.com/cardiorisk/cardiorisk/pkg/anthropic"
	"github.com/cardiorisk/cardiorisk/pkg/gemini"
)

// GeminiGenerator adapts a gemini.Client.
type GeminiGenerator struct {
	client gemini.Client
}

// NewGeminiGenerator wraps client.
func NewGeminiGenerator(client gemini.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	temp := p.Temperature
	req := gemini.GenerateContentRequest{
		Contents:         []gemini.Content{{Role: "user", Parts: []gemini.Part{{Text: p.User}}}},
		GenerationConfig: &gemini.GenerationConfig{Temperature: &temp},
	}
	if p.System != "" {
		req.SystemInstruction = &gemini.Content{Parts: []gemini.Part{{Text: p.System}}}
	}
	if p.WebSearch {
		req.Tools = []gemini.Tool{gemini.GoogleSearchTool()}
	}

	resp, err := g.client.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// AnthropicGenerator adapts an anthropic.Client. The Messages API has no
// built-in web search here, so Prompt.WebSearch is ignored.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicGenerator wraps client. An empty model uses the client default.
func NewAnthropicGenerator(client anthropic.Client, model string, maxTokens int64) *AnthropicGenerator {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AnthropicGenerator{client: client, model: model, maxTokens: maxTokens}
}

// Name implements Generator.
func (g *AnthropicGenerator) Name() string { return "anthropic" }

// Generate implements Generator.
func (g *AnthropicGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	temp := p.Temperature
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      p.System,
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(resp.Model, "narration")
	return resp.Text(), nil
}
