package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"taskflow/internal/domain"
)

// OllamaProvider calls the local Ollama API. No API key required.
type OllamaProvider struct {
	model       string
	client      *http.Client
	baseURL     string
	marshalFunc func(v interface{}) ([]byte, error) // for testing
}

// NewOllamaProvider returns an Ollama-backed LLMProvider.
func NewOllamaProvider(model string) *OllamaProvider {
	return &OllamaProvider{
		model:       model,
		client:      &http.Client{},
		baseURL:     "http://localhost:11434/api",
		marshalFunc: json.Marshal,
	}
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Generate implements domain.LLMProvider.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body := ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
	}
	raw, err := p.marshalFunc(body)
	if err != nil {
		return "", fmt.Errorf("ollama marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/generate", bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama api: %s", resp.Status)
	}
	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama decode: %w", err)
	}
	return out.Response, nil
}

var _ domain.LLMProvider = (*OllamaProvider)(nil)
