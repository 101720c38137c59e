package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/classchat/classchat/types"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIResponder talks to any chat-completions compatible endpoint.
type OpenAIResponder struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIResponder(apiKey, baseURL, model string, timeout time.Duration) *OpenAIResponder {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIResponder{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *OpenAIResponder) IsAvailable() bool { return r.apiKey != "" }

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (r *OpenAIResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if !r.IsAvailable() {
		return "", ErrNotConfigured
	}
	reqBody, err := json.Marshal(chatCompletionRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %v: %w", err, types.ErrResponderUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion returned status %d: %w", resp.StatusCode, types.ErrResponderUnavailable)
	}
	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("malformed chat completion reply: %v: %w", err, types.ErrResponderUnavailable)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion reply: %w", types.ErrResponderUnavailable)
	}
	return parsed.Choices[0].Message.Content, nil
}
