// Package config loads the yaml configuration file and the environment
// credential, and carries the runtime-mutable settings the chat engine
// works with.
package config

import (
	"os"
	"path/filepath"

	"github.com/chaterm/chaterm/errors"
	"gopkg.in/yaml.v3"
)

// Config is the persisted configuration, stored as yaml under the config
// directory. The API key may live in the file but the environment always
// wins.
type Config struct {
	APIKey       string  `yaml:"api_key,omitempty"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt,omitempty"`
	History      bool    `yaml:"history"`
	Theme        string  `yaml:"theme"`

	path string
	// fileAPIKey is the credential as it appeared in the file, if any.
	// Save writes this value back so a key sourced from the environment
	// is never persisted to disk.
	fileAPIKey string
}

// Settings is the runtime-mutable slice of the configuration, handed to
// the engine at construction. Commands mutate a Settings value and persist
// it back through the config; nothing is globally visible as a side
// effect.
type Settings struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	SystemPrompt string
	Theme        string
	History      bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   1024,
		History:     true,
		Theme:       "dark",
	}
}

// Dir returns the configuration directory (~/.chaterm).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".chaterm"), nil
}

// HistoryDir returns the directory session files are stored in.
func HistoryDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// Load reads the config file if present, layered over the defaults, then
// applies environment overrides for the credential and endpoint.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.path = filepath.Join(dir, "config.yaml")

	if data, err := os.ReadFile(cfg.path); err == nil {
		// Unmarshal overwrites only the fields present in the file, which
		// gives a simple merge over the defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading config %s", cfg.path)
		}
	}
	cfg.fileAPIKey = cfg.APIKey

	if key := firstEnv("CHATERM_API_KEY", "OPENAI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	if url := firstEnv("CHATERM_BASE_URL", "OPENAI_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	return cfg, nil
}

// Save writes the configuration back to its file.
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return errors.Wrap(err, "could not create config directory")
	}
	out := *c
	out.APIKey = c.fileAPIKey
	data, err := yaml.Marshal(&out)
	if err != nil {
		return errors.Wrap(err, "failed to serialize config")
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return errors.Wrapf(err, "failed to write config %s", c.path)
	}
	return nil
}

// Settings extracts the runtime-mutable fields.
func (c *Config) Settings() Settings {
	return Settings{
		Model:        c.Model,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
		SystemPrompt: c.SystemPrompt,
		Theme:        c.Theme,
		History:      c.History,
	}
}

// Apply copies runtime settings back into the config, typically right
// before Save.
func (c *Config) Apply(s Settings) {
	c.Model = s.Model
	c.Temperature = s.Temperature
	c.MaxTokens = s.MaxTokens
	c.SystemPrompt = s.SystemPrompt
	c.Theme = s.Theme
	c.History = s.History
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
