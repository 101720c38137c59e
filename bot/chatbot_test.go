package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponder struct {
	reply     string
	err       error
	available bool
	prompts   []string
}

func (s *stubResponder) Respond(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubResponder) IsAvailable() bool { return s.available }

func TestIsCommand(t *testing.T) {
	b := NewChatbot(noResponder{})

	assert.True(t, b.IsCommand("/help"))
	assert.True(t, b.IsCommand("  /ask something"))
	assert.False(t, b.IsCommand("hello"))
	assert.False(t, b.IsCommand("half / half"))
}

func TestHandleCommandHelpAndAbout(t *testing.T) {
	b := NewChatbot(noResponder{})

	assert.Equal(t, helpMessage, b.HandleCommand(context.Background(), "/help", "alice"))
	assert.Equal(t, helpMessage, b.HandleCommand(context.Background(), "  /HELP  ", "alice"))
	assert.Equal(t, aboutMessage, b.HandleCommand(context.Background(), "/about", "alice"))
}

func TestHandleCommandUnknown(t *testing.T) {
	b := NewChatbot(noResponder{})

	assert.Equal(t, unknownCommandMessage, b.HandleCommand(context.Background(), "/frobnicate", "alice"))
	// bare /ask without an argument is not a recognized form
	assert.Equal(t, unknownCommandMessage, b.HandleCommand(context.Background(), "/ask", "alice"))
}

func TestHandleCommandDispatchesToResponder(t *testing.T) {
	stub := &stubResponder{reply: "the answer", available: true}
	b := NewChatbot(stub)

	reply := b.HandleCommand(context.Background(), "/ask why is the sky blue?", "alice")
	assert.Equal(t, "the answer", reply)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "alice")
	assert.Contains(t, stub.prompts[0], "why is the sky blue?")

	b.HandleCommand(context.Background(), "/explain monads", "alice")
	require.Len(t, stub.prompts, 2)
	assert.Contains(t, stub.prompts[1], "monads")

	b.HandleCommand(context.Background(), "/code email validation", "alice")
	require.Len(t, stub.prompts, 3)
	assert.Contains(t, stub.prompts[2], "email validation")
}

func TestHandleCommandResponderUnavailable(t *testing.T) {
	stub := &stubResponder{available: false}
	b := NewChatbot(stub)

	reply := b.HandleCommand(context.Background(), "/ask anything", "alice")
	assert.Equal(t, unavailableMessage, reply)
	assert.Empty(t, stub.prompts, "unavailable responder must be short-circuited")
}

func TestHandleCommandResponderFailureIsRecovered(t *testing.T) {
	stub := &stubResponder{err: errors.New("upstream timeout"), available: true}
	b := NewChatbot(stub)

	reply := b.HandleCommand(context.Background(), "/ask anything", "alice")
	assert.Equal(t, unavailableMessage, reply)
}

func TestAutoResponse(t *testing.T) {
	b := NewChatbot(noResponder{})

	reply, ok := b.AutoResponse("oi")
	assert.True(t, ok)
	assert.NotEmpty(t, reply)

	_, ok = b.AutoResponse("Hello")
	assert.True(t, ok)

	reply, ok = b.AutoResponse("thanks a lot")
	assert.True(t, ok)
	assert.NotEmpty(t, reply)

	reply, ok = b.AutoResponse("can somebody help me")
	assert.True(t, ok)
	assert.Equal(t, helpMessage, reply)

	_, ok = b.AutoResponse("the homework is due tomorrow")
	assert.False(t, ok, "plain non-matching message must yield no bot response")
}
