package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/chaterm/chaterm/config"
	"github.com/chaterm/chaterm/llm"
	"github.com/chaterm/chaterm/session"
	"github.com/chaterm/chaterm/tools"
)

// Callbacks let the front-end observe engine events. Any field may be nil.
// This is the only place a response is observably incremental: content
// deltas are surfaced as they arrive, everything else after the fact.
type Callbacks struct {
	// OnContentDelta receives each increment of assistant text while a
	// response streams.
	OnContentDelta func(text string)
	// OnAnswer receives the complete settled answer.
	OnAnswer func(text string)
	// OnToolCall fires before a model-requested tool runs.
	OnToolCall func(inv tools.Invocation)
	// OnToolResult fires after a tool produced its result.
	OnToolResult func(inv tools.Invocation, result string)
	// OnInfo receives informational command output.
	OnInfo func(text string)
	// OnWarning receives recoverable problems (validation failures,
	// unknown commands).
	OnWarning func(text string)
	// OnError receives reported failures; the session continues.
	OnError func(err error)
	// OnThemeChange fires when /theme switched to a new valid theme.
	OnThemeChange func(name string)
}

// Engine drives one interactive chat session: it classifies input lines as
// commands or messages, runs the request/stream/tool-round loop until the
// model settles on a plain answer, and persists the transcript.
//
// The engine is single-threaded and cooperative: exactly one
// request/stream/tool cycle is in flight at a time.
type Engine struct {
	settings config.Settings
	client   llm.Client
	registry *tools.Registry
	store    *session.Store
	sess     *session.Session
	cb       Callbacks

	saveConfig     func(config.Settings) error
	writeClipboard func(string) error
	themes         []string
	trace          func(string)

	exiting bool
	dirty   bool
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithSession starts the engine on an existing (resumed) session instead
// of a fresh one.
func WithSession(s *session.Session) Option {
	return func(e *Engine) { e.sess = s }
}

// WithSaveConfig sets the collaborator that persists settings changed at
// runtime via commands.
func WithSaveConfig(save func(config.Settings) error) Option {
	return func(e *Engine) { e.saveConfig = save }
}

// WithThemes sets the theme names /theme validates against. Without it,
// theme validation is skipped.
func WithThemes(names []string) Option {
	return func(e *Engine) { e.themes = names }
}

// WithClipboard replaces the clipboard writer used by /copy.
func WithClipboard(write func(string) error) Option {
	return func(e *Engine) { e.writeClipboard = write }
}

// WithTrace installs a trace sink for engine state transitions.
func WithTrace(trace func(string)) Option {
	return func(e *Engine) { e.trace = trace }
}

// New creates an engine over the given collaborators.
func New(settings config.Settings, client llm.Client, registry *tools.Registry,
	store *session.Store, cb Callbacks, opts ...Option) *Engine {
	e := &Engine{
		settings:       settings,
		client:         client,
		registry:       registry,
		store:          store,
		sess:           session.New(),
		cb:             cb,
		writeClipboard: clipboard.WriteAll,
		trace:          func(string) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the live transcript.
func (e *Engine) Session() *session.Session { return e.sess }

// Settings returns the current runtime settings.
func (e *Engine) Settings() config.Settings { return e.settings }

// Exiting reports whether an exit command was processed.
func (e *Engine) Exiting() bool { return e.exiting }

// NeedsSave reports whether the transcript has turns that are not yet
// persisted and history is enabled. The front-end uses this for the
// save-before-exit offer.
func (e *Engine) NeedsSave() bool {
	return e.dirty && e.settings.History && len(e.sess.Turns) > 0
}

// SaveTranscript persists the current session immediately.
func (e *Engine) SaveTranscript() error {
	if err := e.store.Save(e.sess); err != nil {
		return err
	}
	e.dirty = false
	return nil
}

// ProcessInput handles one line of user input: a slash command or a
// message that starts a model turn. All outcomes are reported through the
// callbacks; the engine itself never terminates the process.
func (e *Engine) ProcessInput(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if cmd, ok := parseCommand(line); ok {
		e.runCommand(ctx, cmd)
		return
	}
	e.processTurn(ctx, line)
}

// processTurn appends the user turn and drives the request/stream/tool
// loop until the model produces a plain answer.
func (e *Engine) processTurn(ctx context.Context, text string) {
	e.append(session.Turn{Role: session.RoleUser, Content: text})

	for {
		e.trace("state: awaiting request")
		stream, err := e.client.StreamChat(ctx, e.buildRequest())
		if err != nil {
			e.reportError(err)
			return
		}

		e.trace("state: streaming")
		content, calls, err := e.consumeStream(stream)
		if err != nil {
			// Partial content is never committed to the transcript.
			e.reportError(err)
			return
		}

		if len(calls) > 0 {
			e.trace(fmt.Sprintf("tool round: %d call(s)", len(calls)))
			e.append(session.Turn{
				Role:      session.RoleAssistant,
				Content:   content,
				ToolCalls: calls,
			})
			for _, call := range calls {
				inv := tools.Invocation{ID: call.ID, Name: call.Name, Arguments: call.Arguments}
				if e.cb.OnToolCall != nil {
					e.cb.OnToolCall(inv)
				}
				res := e.registry.Dispatch(ctx, inv)
				if e.cb.OnToolResult != nil {
					e.cb.OnToolResult(inv, res.Content)
				}
				e.append(session.Turn{
					Role:       session.RoleTool,
					Content:    res.Content,
					ToolCallID: res.ToolCallID,
				})
			}
			continue
		}

		e.append(session.Turn{Role: session.RoleAssistant, Content: content})
		if e.cb.OnAnswer != nil {
			e.cb.OnAnswer(content)
		}
		break
	}

	e.trace("state: settled")
	if e.settings.History {
		if err := e.store.Save(e.sess); err != nil {
			e.warning(fmt.Sprintf("failed to save session: %v", err))
		} else {
			e.dirty = false
		}
	}
}

// buildRequest assembles the completion request from the system prompt,
// the full transcript and the advertised tool declarations.
func (e *Engine) buildRequest() llm.Request {
	turns := make([]session.Turn, 0, len(e.sess.Turns)+1)
	if e.settings.SystemPrompt != "" {
		turns = append(turns, session.Turn{Role: session.RoleSystem, Content: e.settings.SystemPrompt})
	}
	turns = append(turns, e.sess.Turns...)
	return llm.Request{
		Model:       e.settings.Model,
		Turns:       turns,
		Temperature: e.settings.Temperature,
		MaxTokens:   e.settings.MaxTokens,
		Tools:       e.registry.Declarations(),
	}
}

// consumeStream drains one response stream, accumulating content and
// merging tool-call fragments per call index in arrival order.
func (e *Engine) consumeStream(stream *llm.Stream) (string, []session.ToolCall, error) {
	defer stream.Close()

	var content strings.Builder
	byIndex := make(map[int]*session.ToolCall)
	var order []int

	for {
		ev, err := stream.Next()
		if err != nil {
			return "", nil, err
		}
		switch ev.Type {
		case llm.EventContentDelta:
			content.WriteString(ev.Content)
			if e.cb.OnContentDelta != nil {
				e.cb.OnContentDelta(ev.Content)
			}
		case llm.EventToolCallDelta:
			tc, ok := byIndex[ev.ToolCall.Index]
			if !ok {
				tc = &session.ToolCall{}
				byIndex[ev.ToolCall.Index] = tc
				order = append(order, ev.ToolCall.Index)
			}
			if ev.ToolCall.ID != "" {
				tc.ID = ev.ToolCall.ID
			}
			if ev.ToolCall.Name != "" {
				tc.Name = ev.ToolCall.Name
			}
			tc.Arguments += ev.ToolCall.Arguments
		case llm.EventDone:
			calls := make([]session.ToolCall, 0, len(order))
			for _, idx := range order {
				tc := *byIndex[idx]
				if tc.ID == "" {
					tc.ID = "call_" + uuid.NewString()
				}
				calls = append(calls, tc)
			}
			return content.String(), calls, nil
		}
	}
}

func (e *Engine) append(t session.Turn) {
	e.sess.Append(t)
	e.dirty = true
}

func (e *Engine) persistSettings() {
	if e.saveConfig == nil {
		return
	}
	if err := e.saveConfig(e.settings); err != nil {
		e.warning(fmt.Sprintf("could not persist settings: %v", err))
	}
}

func (e *Engine) info(text string) {
	if e.cb.OnInfo != nil {
		e.cb.OnInfo(text)
	}
}

func (e *Engine) warning(text string) {
	if e.cb.OnWarning != nil {
		e.cb.OnWarning(text)
	}
}

func (e *Engine) reportError(err error) {
	if e.cb.OnError != nil {
		e.cb.OnError(err)
	}
}
