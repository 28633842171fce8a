package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"taskflow/internal/domain"
)

// GroqProvider calls the Groq OpenAI-compatible Chat Completions API.
type GroqProvider struct {
	apiKey      string
	model       string
	client      *http.Client
	baseURL     string
	marshalFunc func(v interface{}) ([]byte, error) // for testing
}

// NewGroqProvider returns a Groq-backed LLMProvider.
func NewGroqProvider(apiKey, model string) *GroqProvider {
	return &GroqProvider{
		apiKey:      apiKey,
		model:       model,
		client:      &http.Client{},
		baseURL:     "https://api.groq.com/openai/v1/chat/completions",
		marshalFunc: json.Marshal,
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

// Generate implements domain.LLMProvider. Low temperature keeps the model on
// the JSON function-call contract.
func (p *GroqProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body := groqRequest{
		Model: p.model,
		Messages: []groqMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   512,
		Temperature: 0.1,
	}
	raw, err := p.marshalFunc(body)
	if err != nil {
		return "", fmt.Errorf("groq marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq api: %s", resp.Status)
	}
	var out groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("groq decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("groq: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

var _ domain.LLMProvider = (*GroqProvider)(nil)
