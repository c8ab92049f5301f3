// Package llms connects the game to a local model server. Two wire
// dialects are supported: the OpenAI chat-completions API that LM
// Studio exposes on port 1234, and the native Ollama daemon API on
// port 11434. Detection tries them in that order.
//
// Providers cache their availability probe; Refresh drops the cache so
// a server started mid-session gets picked up.
package llms

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when no model server answers.
var ErrUnavailable = errors.New("no hay servidor LLM disponible")

// Provider is a connected model server.
type Provider interface {
	// Generate sends one prompt, with an optional system message,
	// and returns the model's text.
	Generate(ctx context.Context, prompt, system string) (string, error)

	// Available probes the server, caching the result. Refresh
	// drops the cache.
	Available(ctx context.Context) bool
	Refresh()

	// Info describes the server and its loaded models.
	Info(ctx context.Context) Info

	// Models lists the model IDs the server offers.
	Models(ctx context.Context) []string

	// SwitchModel selects a model by ID. It reports false when the
	// server does not offer that model.
	SwitchModel(ctx context.Context, id string) bool

	// EffectiveModel is the model actually answering: the one seen
	// in responses, the configured one, or the server's default.
	EffectiveModel(ctx context.Context) string
}

// Info is a provider self-description.
type Info struct {
	Type         string   `json:"tipo"`
	URL          string   `json:"url"`
	Model        string   `json:"modelo"`
	DefaultModel string   `json:"modelo_por_defecto,omitempty"`
	Models       []string `json:"modelos_disponibles,omitempty"`
	Err          string   `json:"error,omitempty"`
}

// Config holds the connection settings shared by both provider kinds.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// Defaults for the LM Studio dialect.
const (
	DefaultStudioURL = "http://127.0.0.1:1234/v1"
	DefaultOllamaURL = "http://127.0.0.1:11434/api"

	probeTimeout = 5 * time.Second
)

// withDefaults fills zero fields with the package defaults.
func (c Config) withDefaults(baseURL string) Config {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 500
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// message is one chat turn on either wire dialect.
type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func chatMessages(prompt, system string) []message {
	var msgs []message
	if system != "" {
		msgs = append(msgs, message{Role: "system", Content: system})
	}
	return append(msgs, message{Role: "user", Content: prompt})
}
