// Package llm calls a hosted language model to produce rewrite text.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"liveResume/internal/rewrite"
)

const DefaultModel = "gemini-1.5-flash"

// Config selects the model used for generation.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
}

// Generator implements rewrite.Generator on top of Gemini.
type Generator struct {
	client *genai.Client
	model  string
	temp   float32
}

var _ rewrite.Generator = (*Generator)(nil)

func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("llm api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model, temp: cfg.Temperature}, nil
}

// Generate returns the model's text with any code fence removed. The text is
// not validated here; callers parse it with rewrite.ParseResponse.
func (g *Generator) Generate(ctx context.Context, req rewrite.Request) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temp)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(req)))
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %v", rewrite.ErrRewriteRequest, err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rewrite.ErrRewriteRequest, err)
	}
	return rewrite.CleanJSONBlock(text), nil
}

func (g *Generator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
