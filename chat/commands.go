package chat

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/chaterm/chaterm/errors"
	"github.com/chaterm/chaterm/session"
)

// commandKind is the closed set of slash commands. Input that does not map
// to a known command parses to cmdUnknown instead of falling into a
// default branch.
type commandKind int

const (
	cmdUnknown commandKind = iota
	cmdHelp
	cmdClear
	cmdSave
	cmdHistory
	cmdCopy
	cmdModel
	cmdSystem
	cmdTemp
	cmdTokens
	cmdTheme
	cmdFile
	cmdExport
	cmdSearch
	cmdExit
)

var commandKinds = map[string]commandKind{
	"help":    cmdHelp,
	"clear":   cmdClear,
	"save":    cmdSave,
	"history": cmdHistory,
	"copy":    cmdCopy,
	"model":   cmdModel,
	"system":  cmdSystem,
	"temp":    cmdTemp,
	"tokens":  cmdTokens,
	"theme":   cmdTheme,
	"file":    cmdFile,
	"export":  cmdExport,
	"search":  cmdSearch,
	"exit":    cmdExit,
	"quit":    cmdExit,
}

// commandTable maps each command kind to its handler.
var commandTable = map[commandKind]func(*Engine, context.Context, string){
	cmdHelp:    (*Engine).cmdHelp,
	cmdClear:   (*Engine).cmdClear,
	cmdSave:    (*Engine).cmdSave,
	cmdHistory: (*Engine).cmdHistory,
	cmdCopy:    (*Engine).cmdCopy,
	cmdModel:   (*Engine).cmdModel,
	cmdSystem:  (*Engine).cmdSystem,
	cmdTemp:    (*Engine).cmdTemp,
	cmdTokens:  (*Engine).cmdTokens,
	cmdTheme:   (*Engine).cmdTheme,
	cmdFile:    (*Engine).cmdFile,
	cmdExport:  (*Engine).cmdExport,
	cmdSearch:  (*Engine).cmdSearch,
	cmdExit:    (*Engine).cmdExit,
}

type command struct {
	kind commandKind
	name string
	arg  string
}

// parseCommand splits a slash line into (command, argument). ok is false
// for lines that are not commands at all.
func parseCommand(line string) (command, bool) {
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	name = strings.ToLower(name)
	kind, ok := commandKinds[name]
	if !ok {
		kind = cmdUnknown
	}
	return command{kind: kind, name: name, arg: strings.TrimSpace(arg)}, true
}

func (e *Engine) runCommand(ctx context.Context, cmd command) {
	if cmd.kind == cmdUnknown {
		e.warning(fmt.Sprintf("unknown command /%s (try /help)", cmd.name))
		return
	}
	commandTable[cmd.kind](e, ctx, cmd.arg)
}

const helpText = `Commands:
  /help             show this help
  /clear            clear the current conversation
  /save             save the conversation to history
  /history          list saved sessions
  /copy             copy the last answer to the clipboard
  /model [name]     show or change the model
  /system [prompt]  show or change the system prompt
  /temp [0-2]       show or change the sampling temperature
  /tokens [n]       show or change the response token limit
  /theme [name]     show or change the color theme
  /file <path>      add file contents to the conversation (globs allowed)
  /export [path]    export the conversation as markdown
  /search <query>   search saved sessions
  /exit, /quit      leave chaterm`

func (e *Engine) cmdHelp(ctx context.Context, arg string) {
	e.info(helpText)
}

func (e *Engine) cmdClear(ctx context.Context, arg string) {
	e.sess.Clear()
	e.dirty = false
	e.info("conversation cleared")
}

func (e *Engine) cmdSave(ctx context.Context, arg string) {
	if !e.settings.History {
		e.warning("history is disabled; enable it in the config to save sessions")
		return
	}
	if len(e.sess.Turns) == 0 {
		e.warning("nothing to save")
		return
	}
	if err := e.SaveTranscript(); err != nil {
		e.reportError(err)
		return
	}
	e.info(fmt.Sprintf("saved session %s", e.sess.ID))
}

func (e *Engine) cmdHistory(ctx context.Context, arg string) {
	sums := e.store.List()
	if len(sums) == 0 {
		e.info("no saved sessions")
		return
	}
	var b strings.Builder
	for _, s := range sums {
		fmt.Fprintf(&b, "%s  %s  %d turns\n", s.ID, s.Date.Format("2006-01-02 15:04"), s.TurnCount)
	}
	e.info(strings.TrimRight(b.String(), "\n"))
}

func (e *Engine) cmdCopy(ctx context.Context, arg string) {
	answer, ok := e.sess.LastAssistant()
	if !ok {
		e.warning("no assistant answer to copy")
		return
	}
	if err := e.writeClipboard(answer); err != nil {
		e.reportError(errors.Wrap(err, "could not copy to clipboard"))
		return
	}
	e.info("copied last answer to clipboard")
}

func (e *Engine) cmdModel(ctx context.Context, arg string) {
	if arg == "" {
		e.info("model: " + e.settings.Model)
		// Listing is best-effort; some endpoints do not serve /models.
		models, err := e.client.ListModels(ctx)
		if err != nil || len(models) == 0 {
			return
		}
		ids := make([]string, 0, len(models))
		for _, m := range models {
			ids = append(ids, m.ID)
		}
		e.info("available: " + strings.Join(ids, ", "))
		return
	}
	e.settings.Model = arg
	e.persistSettings()
	e.info("model set to " + arg)
}

func (e *Engine) cmdSystem(ctx context.Context, arg string) {
	if arg == "" {
		if e.settings.SystemPrompt == "" {
			e.info("system prompt: (none)")
		} else {
			e.info("system prompt: " + e.settings.SystemPrompt)
		}
		return
	}
	e.settings.SystemPrompt = arg
	e.persistSettings()
	e.info("system prompt updated")
}

func (e *Engine) cmdTemp(ctx context.Context, arg string) {
	if arg == "" {
		e.info(fmt.Sprintf("temperature: %g", e.settings.Temperature))
		return
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || v < 0 || v > 2 {
		e.warning(fmt.Sprintf("invalid temperature %q: must be a number between 0 and 2", arg))
		return
	}
	e.settings.Temperature = v
	e.persistSettings()
	e.info(fmt.Sprintf("temperature set to %g", v))
}

func (e *Engine) cmdTokens(ctx context.Context, arg string) {
	if arg == "" {
		e.info(fmt.Sprintf("max tokens: %d", e.settings.MaxTokens))
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		e.warning(fmt.Sprintf("invalid token limit %q: must be a positive integer", arg))
		return
	}
	e.settings.MaxTokens = n
	e.persistSettings()
	e.info(fmt.Sprintf("max tokens set to %d", n))
}

func (e *Engine) cmdTheme(ctx context.Context, arg string) {
	if arg == "" {
		if len(e.themes) > 0 {
			e.info(fmt.Sprintf("theme: %s (available: %s)", e.settings.Theme, strings.Join(e.themes, ", ")))
		} else {
			e.info("theme: " + e.settings.Theme)
		}
		return
	}
	if len(e.themes) > 0 && !containsString(e.themes, arg) {
		e.warning(fmt.Sprintf("unknown theme %q (available: %s)", arg, strings.Join(e.themes, ", ")))
		return
	}
	e.settings.Theme = arg
	e.persistSettings()
	if e.cb.OnThemeChange != nil {
		e.cb.OnThemeChange(arg)
	}
	e.info("theme set to " + arg)
}

func (e *Engine) cmdFile(ctx context.Context, arg string) {
	if arg == "" {
		e.warning("usage: /file <path>")
		return
	}
	matches, err := doublestar.FilepathGlob(arg)
	if err != nil {
		// Not a valid pattern; treat it as a literal path.
		matches = []string{arg}
	}
	if len(matches) == 0 {
		e.warning(fmt.Sprintf("no files match %q", arg))
		return
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			e.reportError(errors.Wrapf(err, "could not read %s", path))
			continue
		}
		e.append(session.Turn{
			Role:    session.RoleUser,
			Content: fmt.Sprintf("Contents of %s:\n\n%s", path, string(data)),
		})
		e.info(fmt.Sprintf("added %s to the conversation (%d bytes)", path, len(data)))
	}
}

func (e *Engine) cmdExport(ctx context.Context, arg string) {
	if len(e.sess.Turns) == 0 {
		e.warning("nothing to export")
		return
	}
	path := arg
	if path == "" {
		path = fmt.Sprintf("chaterm-%s.md", e.sess.ID)
	}
	if err := os.WriteFile(path, []byte(exportMarkdown(e.sess)), 0644); err != nil {
		e.reportError(errors.Wrapf(err, "could not export to %s", path))
		return
	}
	e.info("exported conversation to " + path)
}

func (e *Engine) cmdSearch(ctx context.Context, arg string) {
	if arg == "" {
		e.warning("usage: /search <query>")
		return
	}
	matches := e.store.Search(arg)
	if len(matches) == 0 {
		e.info(fmt.Sprintf("no matches for %q", arg))
		return
	}
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "%s (%s)\n", m.ID, m.Date.Format("2006-01-02 15:04"))
		for _, snip := range m.Snippets {
			fmt.Fprintf(&b, "  %s\n", snip)
		}
	}
	e.info(strings.TrimRight(b.String(), "\n"))
}

func (e *Engine) cmdExit(ctx context.Context, arg string) {
	e.exiting = true
}

// exportMarkdown renders the transcript as a markdown document.
func exportMarkdown(s *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation %s\n\n", s.ID)
	fmt.Fprintf(&b, "Started %s\n\n", s.Date.Format("2006-01-02 15:04:05"))
	for _, t := range s.Turns {
		switch t.Role {
		case session.RoleUser:
			b.WriteString("## User\n\n")
		case session.RoleAssistant:
			b.WriteString("## Assistant\n\n")
		case session.RoleTool:
			fmt.Fprintf(&b, "## Tool result (%s)\n\n", t.ToolCallID)
		default:
			fmt.Fprintf(&b, "## %s\n\n", t.Role)
		}
		if t.Content != "" {
			b.WriteString(t.Content)
			b.WriteString("\n\n")
		}
		for _, tc := range t.ToolCalls {
			fmt.Fprintf(&b, "```\ncall %s: %s(%s)\n```\n\n", tc.ID, tc.Name, tc.Arguments)
		}
	}
	return b.String()
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
