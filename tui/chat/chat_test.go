package chat

import (
	"testing"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leetmentor/llm"
	"leetmentor/pubsub"
	"leetmentor/rag"
)

func progress(event rag.Event) pubsub.Event[rag.Event] {
	return pubsub.Event[rag.Event]{Type: pubsub.ProgressEvent, Payload: event}
}

func streamingModel() Model {
	return Model{viewport: viewport.New(80, 20), streaming: true}
}

// Bubbletea hands a fresh copy of the model to every Update call, so token
// accumulation must survive the model being copied between events.
func TestApplyEventAccumulatesTokensAcrossModelCopies(t *testing.T) {
	m := streamingModel()

	m = m.applyEvent(progress(rag.Event{Type: rag.EventToken, Token: "Use a "}))
	copied := m
	copied = copied.applyEvent(progress(rag.Event{Type: rag.EventToken, Token: "hash map."}))

	assert.Equal(t, "Use a hash map.", copied.partial)
	assert.True(t, copied.streaming)
}

func TestApplyEventEndFinishesAnswer(t *testing.T) {
	m := streamingModel()
	m = m.applyEvent(progress(rag.Event{Type: rag.EventToken, Token: "Use a hash map."}))
	m = m.applyEvent(progress(rag.Event{
		Type:     rag.EventEnd,
		Response: &llm.ChatResponse{Success: true, Answer: "Use a hash map.", Summary: "- hash map"},
	}))

	assert.False(t, m.streaming)
	assert.Empty(t, m.partial)
	require.Len(t, m.transcript, 1)
	assert.Contains(t, m.transcript[0], "Use a hash map.")
	require.Len(t, m.history, 1)
	assert.Equal(t, llm.RoleAssistant, m.history[0].Role)
}

func TestApplyEventErrorResetsStream(t *testing.T) {
	m := streamingModel()
	m = m.applyEvent(progress(rag.Event{Type: rag.EventToken, Token: "partial answer"}))
	m = m.applyEvent(progress(rag.Event{Type: rag.EventError, Error: "upstream reset"}))

	assert.False(t, m.streaming)
	assert.Empty(t, m.partial)
	require.Len(t, m.transcript, 1)
	assert.Contains(t, m.transcript[0], "upstream reset")
}
