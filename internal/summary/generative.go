package summary

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator satisfies Generator using the Gemini API.
type GeminiGenerator struct {
	apiKey string
	model  string
}

// NewGeminiGenerator creates a Gemini-backed Generator. The key comes from
// the environment (GEMINI_API_KEY); model is the config's generative_model.
func NewGeminiGenerator(apiKey, model string) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey, model: model}
}

// Generate sends one prompt and returns the completion text. Any error is
// returned to the Summarizer, which owns the fallback policy.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
