// Package terminal provides the interactive REPL front-end for the chat
// engine.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/peterh/liner"

	"github.com/chaterm/chaterm/chat"
	"github.com/chaterm/chaterm/tools"
	"github.com/chaterm/chaterm/ui"
)

// Terminal wires a liner prompt and the themed renderer around the engine.
// It is constructed before the engine so its Callbacks can be handed to
// chat.New.
type Terminal struct {
	engine   *chat.Engine
	renderer *ui.Renderer
	line     *liner.State
}

// New creates a terminal front-end over the given renderer.
func New(renderer *ui.Renderer) *Terminal {
	return &Terminal{renderer: renderer}
}

// Callbacks returns the display callbacks for interactive use: streamed
// deltas are printed as they arrive, command output goes through the
// active theme.
func (t *Terminal) Callbacks() chat.Callbacks {
	return chat.Callbacks{
		OnContentDelta: func(text string) {
			fmt.Print(text)
		},
		OnAnswer: func(string) {
			fmt.Println()
		},
		OnToolCall: func(inv tools.Invocation) {
			fmt.Println(t.renderer.ToolNote(fmt.Sprintf("> calling %s(%s)", inv.Name, inv.Arguments)))
		},
		OnToolResult: func(inv tools.Invocation, result string) {
			fmt.Println(t.renderer.ToolNote("< " + firstLine(result)))
		},
		OnInfo: func(text string) {
			fmt.Println(t.renderer.Info(text))
		},
		OnWarning: func(text string) {
			fmt.Println(t.renderer.Warning(text))
		},
		OnError: func(err error) {
			fmt.Println(t.renderer.Error(fmt.Sprintf("error: %v", err)))
		},
		OnThemeChange: func(name string) {
			_ = t.renderer.SetTheme(name)
		},
	}
}

// Run starts the interactive loop over the given engine and blocks until
// the user exits. Ctrl-C at the prompt and Ctrl-D both take the exit path;
// Ctrl-C during a streaming response cancels the in-flight request.
func (t *Terminal) Run(ctx context.Context, engine *chat.Engine) error {
	t.engine = engine
	t.line = liner.NewLiner()
	defer t.line.Close()
	t.line.SetCtrlCAborts(true)

	for {
		input, err := t.line.Prompt(t.renderer.Prompt("you> "))
		if err == liner.ErrPromptAborted || err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		t.line.AppendHistory(input)

		// An interrupt while a response streams cancels the request; the
		// engine reports the aborted stream and we exit cleanly.
		turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		t.engine.ProcessInput(turnCtx, input)
		interrupted := turnCtx.Err() != nil
		stop()

		if interrupted || t.engine.Exiting() {
			break
		}
	}

	t.offerSave()
	return nil
}

// offerSave implements the exit-path persistence offer for transcripts
// with unsaved turns.
func (t *Terminal) offerSave() {
	if !t.engine.NeedsSave() {
		return
	}
	answer, err := t.line.Prompt(t.renderer.Prompt("save this conversation? (y/n) "))
	if err != nil {
		return
	}
	if strings.TrimSpace(strings.ToLower(answer)) != "y" {
		return
	}
	if err := t.engine.SaveTranscript(); err != nil {
		fmt.Println(t.renderer.Error(fmt.Sprintf("error: %v", err)))
		return
	}
	fmt.Println(t.renderer.Info("saved session " + t.engine.Session().ID))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
