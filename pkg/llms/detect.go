package llms

import (
	"context"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
)

// Detect probes local servers in priority order: LM Studio first,
// then the Ollama daemon. It returns nil when neither answers.
func Detect(ctx context.Context) Provider {
	log := logger.GetLogger("llms")

	studio := NewOpenAIProvider(Config{})
	if studio.Available(ctx) {
		log.Debug("LLM detectado", "tipo", "LM Studio", "url", studio.config.BaseURL)
		return studio
	}

	daemon := NewOllamaProvider(Config{})
	if daemon.Available(ctx) {
		log.Debug("LLM detectado", "tipo", "Ollama", "url", daemon.config.BaseURL)
		return daemon
	}

	log.Debug("ningún servidor LLM disponible")
	return nil
}

// Connect builds a provider from explicit settings, or auto-detects
// when cfg.BaseURL is empty. The provider must answer its probe;
// otherwise ErrUnavailable comes back.
func Connect(ctx context.Context, cfg Config) (Provider, error) {
	if cfg.BaseURL == "" {
		if p := Detect(ctx); p != nil {
			return p, nil
		}
		return nil, ErrUnavailable
	}

	var p Provider
	if isOllamaURL(cfg.BaseURL) {
		p = NewOllamaProvider(cfg)
	} else {
		p = NewOpenAIProvider(cfg)
	}
	if !p.Available(ctx) {
		return nil, ErrUnavailable
	}
	return p, nil
}

// isOllamaURL picks the daemon dialect for /api-rooted endpoints.
func isOllamaURL(baseURL string) bool {
	return strings.HasSuffix(strings.TrimRight(baseURL, "/"), "/api")
}
