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

// OpenAIProvider talks the OpenAI chat-completions dialect. LM Studio
// is the usual server behind it, but anything compatible works.
type OpenAIProvider struct {
	config     Config
	httpClient *httpclient.Client

	mu             sync.Mutex
	available      *bool
	effectiveModel string
}

type openAIRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

type openAIResponse struct {
	Model   string `json:"model,omitempty"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type openAIModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func newProviderHTTPClient(cfg Config) *httpclient.Client {
	return httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
	)
}

// NewOpenAIProvider creates a provider over an OpenAI-compatible
// server. Zero config fields fall back to the LM Studio defaults.
func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	cfg = cfg.withDefaults(DefaultStudioURL)
	return &OpenAIProvider{
		config:     cfg,
		httpClient: newProviderHTTPClient(cfg),
	}
}

func (p *OpenAIProvider) completionsURL() string { return p.config.BaseURL + "/chat/completions" }
func (p *OpenAIProvider) modelsURL() string      { return p.config.BaseURL + "/models" }

// Generate sends the prompt and returns the model's reply. When the
// configured model name is rejected with HTTP 400, the request is
// retried once without a model field so the server picks whatever it
// has loaded.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt, system string) (string, error) {
	p.mu.Lock()
	model := p.config.Model
	if model == "" {
		model = p.effectiveModel
	}
	p.mu.Unlock()

	request := openAIRequest{
		Model:       model,
		Messages:    chatMessages(prompt, system),
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	text, status, err := p.completion(ctx, request)
	if err != nil && status == http.StatusBadRequest && request.Model != "" {
		request.Model = ""
		text, _, err = p.completion(ctx, request)
	}
	return text, err
}

// completion runs one chat-completions round-trip. The returned status
// is zero when the request never reached the server.
func (p *OpenAIProvider) completion(ctx context.Context, request openAIRequest) (string, int, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.completionsURL(), bytes.NewReader(requestBody))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create HTTP request: %w", err)
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
		status := 0
		if resp != nil {
			status = resp.StatusCode
			if body, readErr := io.ReadAll(resp.Body); readErr == nil {
				if apiErr := parseAPIError(body); apiErr != nil {
					return "", status, fmt.Errorf("error del LLM (HTTP %d): %s", status, apiErr.Message)
				}
			}
		}
		return "", status, fmt.Errorf("no se pudo conectar al LLM: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", resp.StatusCode, fmt.Errorf("respuesta inesperada del LLM: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", resp.StatusCode, fmt.Errorf("respuesta inesperada del LLM: sin choices")
	}

	if response.Model != "" {
		p.mu.Lock()
		p.effectiveModel = response.Model
		p.mu.Unlock()
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), resp.StatusCode, nil
}

func parseAPIError(body []byte) *openAIError {
	var wrapper struct {
		Error *openAIError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error == nil {
		return nil
	}
	return wrapper.Error
}

// Available reports whether the server answers its model listing
// endpoint. The result is cached until Refresh.
func (p *OpenAIProvider) Available(ctx context.Context) bool {
	p.mu.Lock()
	if p.available != nil {
		ok := *p.available
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	ok := p.probe(ctx)
	p.mu.Lock()
	p.available = &ok
	p.mu.Unlock()
	return ok
}

// Refresh drops the cached availability so the next call re-probes.
func (p *OpenAIProvider) Refresh() {
	p.mu.Lock()
	p.available = nil
	p.mu.Unlock()
}

func (p *OpenAIProvider) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.modelsURL(), nil)
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	return err == nil && resp != nil && resp.StatusCode == http.StatusOK
}

// Info describes the server: its URL, active model and model list.
func (p *OpenAIProvider) Info(ctx context.Context) Info {
	info := Info{Type: "LM Studio", URL: p.config.BaseURL}

	ids, err := p.listModels(ctx)
	if err != nil {
		info.Model = p.config.Model
		if info.Model == "" {
			info.Model = "desconocido"
		}
		info.DefaultModel = "desconocido"
		info.Err = err.Error()
		return info
	}

	info.Models = ids
	info.DefaultModel = "ninguno"
	if len(ids) > 0 {
		info.DefaultModel = ids[0]
	}

	p.mu.Lock()
	effective := p.effectiveModel
	p.mu.Unlock()

	switch {
	case p.config.Model != "":
		info.Model = p.config.Model
	case effective != "":
		info.Model = effective
	default:
		info.Model = info.DefaultModel
	}
	return info
}

func (p *OpenAIProvider) listModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.modelsURL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

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
	var list openAIModelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list.Data))
	for _, m := range list.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Models lists the server's model IDs.
func (p *OpenAIProvider) Models(ctx context.Context) []string {
	ids, _ := p.listModels(ctx)
	return ids
}

// SwitchModel selects a model the server actually offers.
func (p *OpenAIProvider) SwitchModel(ctx context.Context, id string) bool {
	for _, available := range p.Models(ctx) {
		if available == id {
			p.mu.Lock()
			p.config.Model = id
			p.effectiveModel = id
			p.mu.Unlock()
			return true
		}
	}
	return false
}

// EffectiveModel reports the model actually answering requests.
func (p *OpenAIProvider) EffectiveModel(ctx context.Context) string {
	p.mu.Lock()
	effective := p.effectiveModel
	configured := p.config.Model
	p.mu.Unlock()

	if effective != "" {
		return effective
	}
	if configured != "" {
		return configured
	}
	info := p.Info(ctx)
	if info.DefaultModel != "" && info.DefaultModel != "ninguno" {
		return info.DefaultModel
	}
	if info.Model != "" {
		return info.Model
	}
	return "desconocido"
}

var _ Provider = (*OpenAIProvider)(nil)
