package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/chaterm/chaterm/errors"
)

// EventType discriminates the events a Stream produces.
type EventType int

const (
	// EventContentDelta carries an increment of assistant text.
	EventContentDelta EventType = iota
	// EventToolCallDelta carries a fragment of a tool call in progress.
	EventToolCallDelta
	// EventDone is the single terminal event of a successful stream.
	EventDone
)

// ToolCallDelta is one fragment of a tool call. The model may split a call
// across many frames: the first usually carries ID and Name, later ones
// carry Arguments fragments. Fragments for the same Index concatenate in
// arrival order.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Event is one unit of the parsed response stream.
type Event struct {
	Type     EventType
	Content  string
	ToolCall ToolCallDelta
}

// chunk mirrors the JSON payload of one SSE data line.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// doneSentinel is the literal payload marking normal end of stream.
const doneSentinel = "[DONE]"

// Stream parses a server-sent-event response body into a forward-only
// sequence of events. Lines with a "data:" prefix carry JSON payloads;
// everything else (comments, keep-alives, other SSE fields) is ignored. A
// line whose payload is not valid JSON is dropped rather than failing the
// stream: one corrupt frame must never abort an otherwise complete answer.
//
// Exactly one terminal outcome is produced: an EventDone when the sentinel
// is seen or the source ends, or an error when the transport fails.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	reader  *bufio.Reader
	pending []Event
	done    bool
	err     error
}

// NewStream wraps a response body. The context is checked before every
// read so an interrupted request stops promptly.
func NewStream(ctx context.Context, body io.ReadCloser) *Stream {
	return &Stream{
		ctx:    ctx,
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Next returns the next event. After the terminal outcome it keeps
// returning that same outcome.
func (s *Stream) Next() (Event, error) {
	if s.err != nil {
		return Event{}, s.err
	}
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}
	if s.done {
		return Event{Type: EventDone}, nil
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.err = errors.Wrap(err, "stream cancelled")
			return Event{}, s.err
		}

		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			s.err = errors.Wrap(err, "stream read failed")
			return Event{}, s.err
		}

		if events, terminal := s.parseLine(line); len(events) > 0 || terminal {
			if terminal {
				s.done = true
			}
			if len(events) > 0 {
				s.pending = append(s.pending, events...)
				ev := s.pending[0]
				s.pending = s.pending[1:]
				return ev, nil
			}
			return Event{Type: EventDone}, nil
		}

		// Source ended without a sentinel: treat as normal completion.
		if err == io.EOF {
			s.done = true
			return Event{Type: EventDone}, nil
		}
	}
}

// parseLine turns one SSE line into zero or more events and reports
// whether the line terminates the stream.
func (s *Stream) parseLine(line string) ([]Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "data:") {
		// Blank separators, comments and other SSE fields.
		return nil, false
	}
	payload := strings.TrimSpace(line[len("data:"):])
	if payload == doneSentinel {
		return nil, true
	}

	var c chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		// Malformed frame: drop it and keep parsing.
		return nil, false
	}
	if len(c.Choices) == 0 {
		return nil, false
	}

	var events []Event
	delta := c.Choices[0].Delta
	if delta.Content != "" {
		events = append(events, Event{Type: EventContentDelta, Content: delta.Content})
	}
	for _, tc := range delta.ToolCalls {
		events = append(events, Event{
			Type: EventToolCallDelta,
			ToolCall: ToolCallDelta{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return events, false
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}
