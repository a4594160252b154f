package notes

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

type geminiModel struct {
	client *genai.Client
	model  string
}

func newGeminiModel(ctx context.Context, apiKey, model string) (*geminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing gemini api key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &geminiModel{client: client, model: model}, nil
}

func (m *geminiModel) generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       genai.Ptr[float32](0.2),
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}
