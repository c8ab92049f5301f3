package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/httpclient"
)

// OllamaProvider talks the native Ollama daemon API, which differs
// from the OpenAI dialect: POST /chat with options.num_predict, model
// listing under GET /tags.
type OllamaProvider struct {
	config     Config
	httpClient *httpclient.Client

	mu        sync.Mutex
	available *bool
}

type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type ollamaTagList struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// DefaultOllamaModel is requested when nothing else is configured.
const DefaultOllamaModel = "llama3.2"

// NewOllamaProvider creates a provider over a local Ollama daemon.
func NewOllamaProvider(cfg Config) *OllamaProvider {
	cfg = cfg.withDefaults(DefaultOllamaURL)
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	return &OllamaProvider{
		config:     cfg,
		httpClient: newProviderHTTPClient(cfg),
	}
}

func (p *OllamaProvider) chatURL() string { return p.config.BaseURL + "/chat" }
func (p *OllamaProvider) tagsURL() string { return p.config.BaseURL + "/tags" }

// Generate sends the prompt through the daemon's chat endpoint.
func (p *OllamaProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	p.mu.Lock()
	model := p.config.Model
	p.mu.Unlock()

	request := ollamaRequest{
		Model:    model,
		Messages: chatMessages(prompt, system),
		Options: ollamaOptions{
			Temperature: p.config.Temperature,
			NumPredict:  p.config.MaxTokens,
		},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.chatURL(), bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(requestBody)), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("no se pudo conectar a Ollama: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	var response ollamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("respuesta inesperada de Ollama: %w", err)
	}
	return strings.TrimSpace(response.Message.Content), nil
}

// Available reports whether the daemon answers /tags, cached until
// Refresh.
func (p *OllamaProvider) Available(ctx context.Context) bool {
	p.mu.Lock()
	if p.available != nil {
		ok := *p.available
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ok := false
	if req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tagsURL(), nil); err == nil {
		resp, err := p.httpClient.Do(req)
		if resp != nil {
			defer resp.Body.Close()
		}
		ok = err == nil && resp != nil && resp.StatusCode == http.StatusOK
	}

	p.mu.Lock()
	p.available = &ok
	p.mu.Unlock()
	return ok
}

// Refresh drops the cached availability.
func (p *OllamaProvider) Refresh() {
	p.mu.Lock()
	p.available = nil
	p.mu.Unlock()
}

// Info describes the daemon and its pulled models.
func (p *OllamaProvider) Info(ctx context.Context) Info {
	p.mu.Lock()
	model := p.config.Model
	p.mu.Unlock()

	info := Info{Type: "Ollama", URL: p.config.BaseURL, Model: model}

	names, err := p.listTags(ctx)
	if err != nil {
		info.Err = err.Error()
		return info
	}
	info.Models = names
	return info
}

func (p *OllamaProvider) listTags(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tagsURL(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var list ollamaTagList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Models lists the daemon's pulled models.
func (p *OllamaProvider) Models(ctx context.Context) []string {
	names, _ := p.listTags(ctx)
	return names
}

// SwitchModel selects a pulled model by name.
func (p *OllamaProvider) SwitchModel(ctx context.Context, id string) bool {
	for _, name := range p.Models(ctx) {
		if name == id {
			p.mu.Lock()
			p.config.Model = id
			p.mu.Unlock()
			return true
		}
	}
	return false
}

// EffectiveModel reports the configured model; the daemon always runs
// the model named in the request.
func (p *OllamaProvider) EffectiveModel(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config.Model
}

var _ Provider = (*OllamaProvider)(nil)
