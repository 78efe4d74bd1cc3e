package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chaterm/chaterm/chat"
	"github.com/chaterm/chaterm/chat/terminal"
	"github.com/chaterm/chaterm/config"
	"github.com/chaterm/chaterm/llm"
	"github.com/chaterm/chaterm/session"
	"github.com/chaterm/chaterm/tools"
	"github.com/chaterm/chaterm/ui"
)

func main() {
	// Define flags
	modelFlag := flag.String("model", "", "Model to use, overriding the configured default")
	themeFlag := flag.String("theme", "", "Color theme, overriding the configured default")
	resumeFlag := flag.String("r", "", "Resume a saved session by id")
	noHistoryFlag := flag.Bool("no-history", false, "Do not persist this session")
	traceFlag := flag.Bool("trace", false, "Write engine state transitions to a trace file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "No API credential found. Set CHATERM_API_KEY (or OPENAI_API_KEY), or api_key in ~/.chaterm/config.yaml.")
		os.Exit(1)
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}
	if *themeFlag != "" {
		if !ui.Valid(*themeFlag) {
			fmt.Fprintf(os.Stderr, "Unknown theme '%s'. Available: %s.\n", *themeFlag, strings.Join(ui.Names(), ", "))
			os.Exit(1)
		}
		cfg.Theme = *themeFlag
	}
	if *noHistoryFlag {
		cfg.History = false
	}

	historyDir, err := config.HistoryDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating history directory: %+v\n", err)
		os.Exit(1)
	}
	store := session.NewStore(historyDir, cfg.History)

	// Resume or start a session
	var sess *session.Session
	if *resumeFlag != "" {
		sess, err = store.Load(*resumeFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error resuming session '%s': %+v\n", *resumeFlag, err)
			os.Exit(1)
		}
		fmt.Printf("Resuming session %s (%d turns)\n", sess.ID, len(sess.Turns))
	} else {
		sess = session.New()
	}

	client := llm.NewHTTPClient(cfg.BaseURL, cfg.APIKey)
	registry := tools.DefaultRegistry()
	renderer := ui.NewRenderer(cfg.Theme)
	term := terminal.New(renderer)

	opts := []chat.Option{
		chat.WithSession(sess),
		chat.WithThemes(ui.Names()),
		chat.WithSaveConfig(func(s config.Settings) error {
			cfg.Apply(s)
			return cfg.Save()
		}),
	}
	if *traceFlag {
		trace, closeTrace := openTrace()
		defer closeTrace()
		opts = append(opts, chat.WithTrace(trace))
	}

	// One-shot mode: trailing arguments form a single prompt whose answer
	// is rendered as markdown.
	prompt := strings.Join(flag.Args(), " ")
	if prompt != "" {
		engine := chat.New(cfg.Settings(), client, registry, store, oneShotCallbacks(renderer), opts...)
		engine.ProcessInput(context.Background(), prompt)
		return
	}

	engine := chat.New(cfg.Settings(), client, registry, store, term.Callbacks(), opts...)

	fmt.Printf("chaterm (model %s). Type a message, or /help for commands.\n", cfg.Model)
	if err := term.Run(context.Background(), engine); err != nil {
		fmt.Fprintf(os.Stderr, "chaterm stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}

// oneShotCallbacks suppresses incremental output and renders the settled
// answer once, as markdown.
func oneShotCallbacks(renderer *ui.Renderer) chat.Callbacks {
	return chat.Callbacks{
		OnAnswer: func(text string) {
			fmt.Println(renderer.Markdown(text))
		},
		OnInfo: func(text string) {
			fmt.Println(text)
		},
		OnWarning: func(text string) {
			fmt.Fprintln(os.Stderr, "Warning: "+text)
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		},
	}
}

// openTrace appends engine transitions to chaterm.trace in the working
// directory.
func openTrace() (func(string), func()) {
	f, err := os.OpenFile("chaterm.trace", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return func(string) {}, func() {}
	}
	trace := func(msg string) {
		fmt.Fprintf(f, "[%s] %s\n", time.Now().Format("15:04:05.000"), msg)
	}
	return trace, func() { f.Close() }
}
