// Package llm talks to an OpenAI-compatible chat completion endpoint and
// exposes the streamed response as a lazy sequence of parser events.
package llm

import (
	"context"

	"github.com/chaterm/chaterm/session"
	"github.com/chaterm/chaterm/tools"
)

// Request describes one streaming chat completion call. Turns is the full
// transcript including the system prompt; the client converts it to the
// wire shape.
type Request struct {
	Model       string
	Turns       []session.Turn
	Temperature float64
	MaxTokens   int
	Tools       []tools.Declaration
}

// Model is one entry of the endpoint's model listing. Only ID matters to
// the client; the rest is carried for display.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// Client is the interface the chat engine uses to reach the endpoint.
type Client interface {
	// StreamChat starts a streaming completion. The returned stream must be
	// consumed until its terminal event and then closed.
	StreamChat(ctx context.Context, req Request) (*Stream, error)

	// ListModels fetches the ids the endpoint advertises. Used only to
	// populate the model selection display.
	ListModels(ctx context.Context) ([]Model, error)
}
