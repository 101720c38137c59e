// Package bot contains the automated responder: the command and greeting
// logic that decides when the assistant speaks, and the pluggable backends
// that actually generate a reply. Backend failures never leave this package
// as errors the session layer has to handle.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/types"
)

var ErrNotConfigured = fmt.Errorf("no responder configured: %w", types.ErrResponderUnavailable)

// Responder turns plain text into a reply. Respond may take up to the
// configured timeout and may fail; IsAvailable lets callers short-circuit
// without waiting on a doomed call.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
	IsAvailable() bool
}

const systemPrompt = `You are a helpful, friendly AI assistant inside an educational chat application.

Your responsibilities:
- Answer questions about programming, technology and education
- Be concise and clear (three paragraphs at most)
- Use friendly, professional language
- Provide examples where appropriate
- Admit when you do not know something`

// NewResponder selects the responder backend from the configuration.
func NewResponder(cfg *config.Config) Responder {
	timeout := time.Duration(cfg.BotConfig.TimeoutSeconds) * time.Second
	switch cfg.BotConfig.Provider {
	case "openai":
		return NewOpenAIResponder(cfg.BotConfig.APIKey, cfg.BotConfig.BaseURL, cfg.BotConfig.Model, timeout)

	case "ollama":
		return NewOllamaResponder(cfg.BotConfig.BaseURL, cfg.BotConfig.Model, timeout)

	default:
		return noResponder{}
	}
}

// noResponder is the backend when no provider is configured: permanently
// unavailable, which the chatbot converts into canned replies.
type noResponder struct{}

func (noResponder) Respond(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (noResponder) IsAvailable() bool { return false }
