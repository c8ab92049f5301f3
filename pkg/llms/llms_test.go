package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studioServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func completionBody(t *testing.T, model, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"model": model,
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

func TestOpenAIGenerate(t *testing.T) {
	var gotRequest openAIRequest
	p := studioServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		w.Write(completionBody(t, "mistral-7b", "  El goblin cae.  "))
	})

	text, err := p.Generate(context.Background(), "Narra el golpe", "Eres el DM")
	require.NoError(t, err)
	assert.Equal(t, "El goblin cae.", text)

	require.Len(t, gotRequest.Messages, 2)
	assert.Equal(t, "system", gotRequest.Messages[0].Role)
	assert.Equal(t, "user", gotRequest.Messages[1].Role)
	assert.False(t, gotRequest.Stream)

	// The responding model is remembered as effective.
	assert.Equal(t, "mistral-7b", p.EffectiveModel(context.Background()))
}

func TestOpenAIGenerateRetriesWithoutUnknownModel(t *testing.T) {
	var calls []string
	p := studioServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		calls = append(calls, req.Model)
		if req.Model != "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"model not found"}}`))
			return
		}
		w.Write(completionBody(t, "loaded-model", "ok"))
	})
	p.config.Model = "no-such-model"

	text, err := p.Generate(context.Background(), "hola", "")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, []string{"no-such-model", ""}, calls)
}

func TestOpenAIAvailabilityCache(t *testing.T) {
	probes := 0
	p := studioServer(t, func(w http.ResponseWriter, r *http.Request) {
		probes++
		w.Write([]byte(`{"data":[]}`))
	})

	assert.True(t, p.Available(context.Background()))
	assert.True(t, p.Available(context.Background()))
	assert.Equal(t, 1, probes)

	p.Refresh()
	assert.True(t, p.Available(context.Background()))
	assert.Equal(t, 2, probes)
}

func TestOpenAIInfoAndSwitchModel(t *testing.T) {
	p := studioServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			w.Write([]byte(`{"data":[{"id":"alpha"},{"id":"beta"}]}`))
			return
		}
		w.Write(completionBody(t, "alpha", "ok"))
	})

	info := p.Info(context.Background())
	assert.Equal(t, "LM Studio", info.Type)
	assert.Equal(t, []string{"alpha", "beta"}, info.Models)
	assert.Equal(t, "alpha", info.DefaultModel)
	assert.Equal(t, "alpha", info.Model) // default wins with nothing configured

	assert.True(t, p.SwitchModel(context.Background(), "beta"))
	assert.Equal(t, "beta", p.EffectiveModel(context.Background()))
	assert.False(t, p.SwitchModel(context.Background(), "gamma"))
}

func TestOpenAIInfoServerDown(t *testing.T) {
	p := NewOpenAIProvider(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	info := p.Info(context.Background())
	assert.Equal(t, "desconocido", info.Model)
	assert.NotEmpty(t, info.Err)
	assert.False(t, p.Available(context.Background()))
}

func TestOllamaGenerate(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.Write([]byte(`{"message":{"content":"El orco gruñe."}}`))
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3.2"},{"name":"phi3"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	p := NewOllamaProvider(Config{BaseURL: srv.URL + "/api", MaxTokens: 256})
	text, err := p.Generate(context.Background(), "Narra", "sistema")
	require.NoError(t, err)
	assert.Equal(t, "El orco gruñe.", text)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.Equal(t, 256, got.Options.NumPredict)

	assert.True(t, p.Available(context.Background()))
	assert.Equal(t, []string{"llama3.2", "phi3"}, p.Models(context.Background()))
	assert.True(t, p.SwitchModel(context.Background(), "phi3"))
	assert.Equal(t, "phi3", p.EffectiveModel(context.Background()))

	info := p.Info(context.Background())
	assert.Equal(t, "Ollama", info.Type)
}

func TestConnectExplicitURLUnavailable(t *testing.T) {
	_, err := Connect(context.Background(), Config{BaseURL: "http://127.0.0.1:1/v1"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestIsOllamaURL(t *testing.T) {
	assert.True(t, isOllamaURL("http://127.0.0.1:11434/api"))
	assert.True(t, isOllamaURL("http://127.0.0.1:11434/api/"))
	assert.False(t, isOllamaURL("http://127.0.0.1:1234/v1"))
}

func TestLookupProfile(t *testing.T) {
	lite := LookupProfile("lite")
	assert.Equal(t, 300, lite.MaxTokens)

	// Unknown names fall back to the default.
	assert.Equal(t, lite, LookupProfile("turbo"))

	cfg := LookupProfile("completo").Apply(Config{BaseURL: "http://x"})
	assert.Equal(t, 900, cfg.MaxTokens)
	assert.Equal(t, 0.8, cfg.Temperature)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "http://x", cfg.BaseURL)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
}

func TestNormalizerCallbackUnwrapsDatos(t *testing.T) {
	p := studioServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, "m", "```json\n{\"tipo\":\"ataque\",\"datos\":{\"objetivo\":\"goblin\"},\"confianza\":0.9}\n```"))
	})

	fill := NormalizerCallback(p)
	fields, err := fill("Ataco al goblin", map[string]any{"faltantes": []string{"objetivo_id"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"objetivo": "goblin"}, fields)
}

func TestNarratorCallbackSwallowsErrors(t *testing.T) {
	p := NewOpenAIProvider(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	narrate := NarratorCallback(p)
	assert.Equal(t, "", narrate("Narra el golpe"))
}
