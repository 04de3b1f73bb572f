package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"contentforge/internal/model"
)

// GenAI generates variations with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
}

func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Name() string {
	return "genai:" + g.model
}

func (g *GenAI) Generate(ctx context.Context, req Request) ([]model.Variation, error) {
	const op = "genai generate"

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](openAITemperature),
		MaxOutputTokens:   openAIMaxTokens,
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(UserPrompt(req)), config)
	if err != nil {
		return nil, newError(op, "request failed", err)
	}

	text := result.Text()
	if text == "" {
		return nil, newError(op, "empty reply", nil)
	}

	variations, err := ParseVariations(text)
	if err != nil {
		return nil, newError(op, "unreadable reply", err)
	}
	return variations, nil
}
