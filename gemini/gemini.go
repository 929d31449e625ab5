// Package gemini generates acknowledgement text with Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-flash-latest"

// Config is the required properties to use the Gemini API.
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL    string
	HTTPClient *http.Client
}

// Generator implements leadform.TextGenerator.
type Generator struct {
	client *genai.Client
	model  string
}

// New creates a Generator.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Generator{
		client: client,
		model:  model,
	}, nil
}

// Generate returns the model's text for prompt. A response without text
// yields "" and no error.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
