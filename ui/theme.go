// Package ui provides the color themes and the markdown renderer used by
// the terminal front-end. Display glue only; nothing here touches the
// transcript or the protocol.
package ui

import (
	"sort"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/chaterm/chaterm/errors"
)

// Theme bundles the styles for one named look.
type Theme struct {
	Name         string
	Prompt       lipgloss.Style
	Assistant    lipgloss.Style
	Info         lipgloss.Style
	Warning      lipgloss.Style
	Error        lipgloss.Style
	ToolNote     lipgloss.Style
	GlamourStyle string
	Plain        bool
}

var themes = map[string]Theme{
	"dark": {
		Name:         "dark",
		Prompt:       lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Assistant:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Info:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		ToolNote:     lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		GlamourStyle: "dark",
	},
	"light": {
		Name:         "light",
		Prompt:       lipgloss.NewStyle().Foreground(lipgloss.Color("26")).Bold(true),
		Assistant:    lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		Info:         lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		ToolNote:     lipgloss.NewStyle().Foreground(lipgloss.Color("55")),
		GlamourStyle: "light",
	},
	"dracula": {
		Name:         "dracula",
		Prompt:       lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9")).Bold(true),
		Assistant:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f8f8f2")),
		Info:         lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4")),
		Warning:      lipgloss.NewStyle().Foreground(lipgloss.Color("#f1fa8c")),
		Error:        lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555")),
		ToolNote:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8be9fd")),
		GlamourStyle: "dracula",
	},
	"plain": {
		Name:  "plain",
		Plain: true,
	},
}

// Names returns the known theme names, sorted.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	_, ok := themes[name]
	return ok
}

// Renderer applies the active theme to output text.
type Renderer struct {
	theme Theme
}

// NewRenderer creates a renderer for the named theme, falling back to
// "dark" for unknown names.
func NewRenderer(name string) *Renderer {
	theme, ok := themes[name]
	if !ok {
		theme = themes["dark"]
	}
	return &Renderer{theme: theme}
}

// SetTheme switches the active theme.
func (r *Renderer) SetTheme(name string) error {
	theme, ok := themes[name]
	if !ok {
		return errors.New("unknown theme %q", name)
	}
	r.theme = theme
	return nil
}

// ThemeName returns the active theme's name.
func (r *Renderer) ThemeName() string { return r.theme.Name }

// Prompt styles the input prompt.
func (r *Renderer) Prompt(s string) string { return r.render(r.theme.Prompt, s) }

// Info styles an informational line.
func (r *Renderer) Info(s string) string { return r.render(r.theme.Info, s) }

// Warning styles a warning line.
func (r *Renderer) Warning(s string) string { return r.render(r.theme.Warning, s) }

// Error styles an error line.
func (r *Renderer) Error(s string) string { return r.render(r.theme.Error, s) }

// ToolNote styles a tool invocation notice.
func (r *Renderer) ToolNote(s string) string { return r.render(r.theme.ToolNote, s) }

func (r *Renderer) render(style lipgloss.Style, s string) string {
	if r.theme.Plain {
		return s
	}
	return style.Render(s)
}

// Markdown renders an answer as terminal markdown. On any rendering
// problem the raw text is returned unchanged.
func (r *Renderer) Markdown(s string) string {
	if r.theme.Plain {
		return s
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.theme.GlamourStyle),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return s
	}
	out, err := tr.Render(s)
	if err != nil {
		return s
	}
	return out
}
