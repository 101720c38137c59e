package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/classchat/classchat/globals"
)

const unavailableMessage = "The AI assistant is temporarily unavailable. Please try again later."

const unknownCommandMessage = "Unknown command. Type /help to see the available commands."

const helpMessage = `AI assistant commands:

Questions:
- /ask [question] - ask a question
- /explain [topic] - explain a concept
- /code [description] - generate a code example

Information:
- /help - show this help
- /about - about this chat

Examples:
- /ask How does JWT authentication work?
- /explain goroutines
- /code function to validate an email address`

const aboutMessage = `classchat - real-time classroom messaging.

- Group and direct rooms with searchable history
- Presence and typing indicators
- Built-in AI assistant (type /help)`

// Chatbot decides when and how the assistant speaks: slash commands are
// dispatched to the responder, plain messages run through a deterministic
// greeting matcher. Every path returns a ready-to-post reply, responder
// failures included.
type Chatbot struct {
	responder Responder
}

func NewChatbot(responder Responder) *Chatbot {
	return &Chatbot{responder: responder}
}

// IsCommand reports whether the message body addresses the assistant.
func (b *Chatbot) IsCommand(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "/")
}

// HandleCommand turns a command-prefixed message into the assistant's reply.
// It never fails: unrecognized commands and responder errors become canned
// replies that are persisted and broadcast like any other bot message.
func (b *Chatbot) HandleCommand(ctx context.Context, body, senderName string) string {
	trimmed := strings.TrimSpace(body)
	command := strings.ToLower(trimmed)

	switch {
	case command == "/help":
		return helpMessage

	case command == "/about":
		return aboutMessage

	case strings.HasPrefix(command, "/ask "):
		question := argumentText(trimmed)
		return b.dispatch(ctx, fmt.Sprintf("%s asked: %s", senderName, question))

	case strings.HasPrefix(command, "/explain "):
		topic := argumentText(trimmed)
		return b.dispatch(ctx, fmt.Sprintf("Explain clearly and concisely: %s", topic))

	case strings.HasPrefix(command, "/code "):
		request := argumentText(trimmed)
		return b.dispatch(ctx, fmt.Sprintf("Generate a code example for: %s", request))

	default:
		return unknownCommandMessage
	}
}

// argumentText is everything after the command name.
func argumentText(trimmed string) string {
	return strings.TrimSpace(trimmed[strings.Index(trimmed, " ")+1:])
}

func (b *Chatbot) dispatch(ctx context.Context, prompt string) string {
	if !b.responder.IsAvailable() {
		return unavailableMessage
	}
	reply, err := b.responder.Respond(ctx, prompt)
	if err != nil {
		globals.AppLogger.Error("responder failed", "error", err)
		return unavailableMessage
	}
	return reply
}

var greetings = map[string]struct{}{
	"oi": {}, "olá": {}, "ola": {}, "hey": {}, "hi": {}, "hello": {},
}

// AutoResponse runs the deterministic keyword matcher against a plain (non
// command) message. At most one canned reply per inbound message.
func (b *Chatbot) AutoResponse(body string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(body))

	if _, ok := greetings[lower]; ok {
		return "Hi there! How can I help? Type /help to see the available commands.", true
	}
	if strings.Contains(lower, "thank") || strings.Contains(lower, "obrigad") || strings.Contains(lower, "valeu") {
		return "You're welcome! Happy to help!", true
	}
	if strings.Contains(lower, "help") || strings.Contains(lower, "ajuda") {
		return helpMessage, true
	}
	return "", false
}
