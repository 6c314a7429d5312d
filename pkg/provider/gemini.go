package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiClient implements Client using the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini client. BaseURL overrides the API
// endpoint when set.
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// Generate sends the conversation as a single text prompt. Prior turns are
// rendered as a "User:"/"Assistant:" transcript.
func (c *GeminiClient) Generate(ctx context.Context, turns []Turn) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(geminiTranscript(turns), genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return text.String(), nil
}

// ListModels returns the available model names without their "models/"
// resource prefix.
func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
	}
	return models, nil
}

func geminiTranscript(turns []Turn) string {
	if len(turns) == 1 {
		return turns[0].Content
	}

	var b strings.Builder
	for _, t := range turns[:len(turns)-1] {
		speaker := "Assistant"
		if t.Role == RoleUser {
			speaker = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, t.Content)
	}
	fmt.Fprintf(&b, "User: %s\nAssistant:", turns[len(turns)-1].Content)
	return b.String()
}
