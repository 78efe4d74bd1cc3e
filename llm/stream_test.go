package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStream(t *testing.T, body string) *Stream {
	t.Helper()
	return NewStream(context.Background(), io.NopCloser(strings.NewReader(body)))
}

// drain consumes a stream until its terminal outcome.
func drain(t *testing.T, s *Stream) ([]Event, error) {
	t.Helper()
	var events []Event
	for {
		ev, err := s.Next()
		if err != nil {
			return events, err
		}
		if ev.Type == EventDone {
			return events, nil
		}
		events = append(events, ev)
	}
}

func TestStreamReassemblesContent(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n" +
		"data: [DONE]\n"
	events, err := drain(t, newTestStream(t, body))
	require.NoError(t, err)

	var content strings.Builder
	for _, ev := range events {
		require.Equal(t, EventContentDelta, ev.Type)
		content.WriteString(ev.Content)
	}
	assert.Equal(t, "Hello", content.String())
}

func TestStreamSingleCharacterDeltas(t *testing.T) {
	var body strings.Builder
	for _, ch := range "streaming" {
		fmt.Fprintf(&body, "data: {\"choices\":[{\"delta\":{\"content\":\"%c\"}}]}\n", ch)
	}
	body.WriteString("data: [DONE]\n")

	events, err := drain(t, newTestStream(t, body.String()))
	require.NoError(t, err)
	var content strings.Builder
	for _, ev := range events {
		content.WriteString(ev.Content)
	}
	assert.Equal(t, "streaming", content.String())
}

func TestStreamDropsMalformedFrames(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n" +
		"data: {this is not json\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n" +
		"data: [DONE]\n"
	events, err := drain(t, newTestStream(t, body))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ok", events[0].Content)
	assert.Equal(t, "!", events[1].Content)
}

func TestStreamIgnoresNonDataLines(t *testing.T) {
	body := ": keep-alive\n" +
		"event: message\n" +
		"\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n" +
		"\n" +
		"data: [DONE]\n"
	events, err := drain(t, newTestStream(t, body))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "hi", events[0].Content)
}

func TestStreamEndsOnEOFWithoutSentinel(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"cut\"}}]}\n"
	events, err := drain(t, newTestStream(t, body))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "cut", events[0].Content)
}

func TestStreamToolCallFragments(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_1\",\"function\":{\"name\":\"calculate\",\"arguments\":\"\"}}]}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"{\\\"expression\\\":\"}}]}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"\\\"2+2\\\"}\"}}]}}]}\n" +
		"data: [DONE]\n"
	events, err := drain(t, newTestStream(t, body))
	require.NoError(t, err)
	require.Len(t, events, 3)

	var args strings.Builder
	for _, ev := range events {
		require.Equal(t, EventToolCallDelta, ev.Type)
		assert.Equal(t, 0, ev.ToolCall.Index)
		args.WriteString(ev.ToolCall.Arguments)
	}
	assert.Equal(t, "call_1", events[0].ToolCall.ID)
	assert.Equal(t, "calculate", events[0].ToolCall.Name)
	assert.Equal(t, `{"expression":"2+2"}`, args.String())
}

func TestStreamContentAndToolDeltaInOneFrame(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"x\",\"tool_calls\":[{\"index\":0,\"id\":\"c\",\"function\":{\"name\":\"f\",\"arguments\":\"{}\"}}]}}]}\n" +
		"data: [DONE]\n"
	events, err := drain(t, newTestStream(t, body))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventContentDelta, events[0].Type)
	assert.Equal(t, EventToolCallDelta, events[1].Type)
}

type failingReader struct {
	prefix io.Reader
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.prefix != nil {
		n, err := r.prefix.Read(p)
		if err == io.EOF {
			r.prefix = nil
			err = nil
		}
		if n > 0 || err != nil {
			return n, err
		}
	}
	return 0, fmt.Errorf("connection reset")
}

func TestStreamTransportError(t *testing.T) {
	prefix := strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n")
	s := NewStream(context.Background(), io.NopCloser(&failingReader{prefix: prefix}))

	ev, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "par", ev.Content)

	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// The terminal outcome is sticky.
	_, err2 := s.Next()
	assert.Equal(t, err, err2)
}

func TestStreamDoneIsSticky(t *testing.T) {
	s := newTestStream(t, "data: [DONE]\n")
	ev, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, EventDone, ev.Type)

	ev, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, EventDone, ev.Type)
}

func TestStreamCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStream(ctx, io.NopCloser(strings.NewReader("data: [DONE]\n")))
	_, err := s.Next()
	require.Error(t, err)
}
