package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "datos/compendio", cfg.Paths.Compendium)
	assert.Equal(t, "partidas", cfg.Paths.Saves)
	assert.Equal(t, "lite", cfg.LLM.Profile)
	assert.Equal(t, "epico", cfg.Game.NarratorStyle)
	assert.Equal(t, "dm_elige", cfg.Game.Tone)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, "partidas", cfg.Paths.Saves)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	require.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
rutas:
  partidas: /srv/dnd/partidas
llm:
  url: http://localhost:1234/v1
  modelo: llama3
  perfil: completo
juego:
  estilo_narrador: casual
  tono: misterio
registro:
  nivel: debug
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "/srv/dnd/partidas", cfg.Paths.Saves)
	assert.Equal(t, "http://localhost:1234/v1", cfg.LLM.URL)
	assert.Equal(t, "casual", cfg.Game.NarratorStyle)
	assert.Equal(t, "misterio", cfg.Game.Tone)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "datos/compendio", cfg.Paths.Compendium)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_DND_MODEL", "mistral")
	path := writeConfig(t, `
llm:
  modelo: ${TEST_DND_MODEL}
  url: ${TEST_DND_URL:-http://localhost:11434/api}
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/api", cfg.LLM.URL)
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("DND_LLM_URL", "http://otra:1234/v1")
	t.Setenv("DND_LOG_LEVEL", "warn")
	path := writeConfig(t, `
llm:
  url: http://archivo:1234/v1
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "http://otra:1234/v1", cfg.LLM.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Game.NarratorStyle = "dramatico"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.Temperature = 3.5
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.LLM.TimeoutSecs = -1
	require.Error(t, cfg.Validate())
}

func TestLLMConfigProfileBaseline(t *testing.T) {
	cfg := Default()
	cfg.LLM.Profile = "completo"
	out := cfg.LLMConfig()
	assert.Equal(t, 900, out.MaxTokens)
	assert.Equal(t, 0.8, out.Temperature)
	assert.Equal(t, 60*time.Second, out.Timeout)
}

func TestLLMConfigExplicitValuesOverrideProfile(t *testing.T) {
	cfg := Default()
	cfg.LLM.Profile = "lite"
	cfg.LLM.Temperature = 1.1
	cfg.LLM.MaxTokens = 700
	cfg.LLM.TimeoutSecs = 90
	out := cfg.LLMConfig()
	assert.Equal(t, 1.1, out.Temperature)
	assert.Equal(t, 700, out.MaxTokens)
	assert.Equal(t, 90*time.Second, out.Timeout)
}

func TestAdventuresDir(t *testing.T) {
	cfg := Default()
	cfg.Paths.Saves = "/tmp/juego"
	assert.Equal(t, filepath.Join("/tmp/juego", "aventuras"), cfg.AdventuresDir())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := Default()
	cfg.LLM.Model = "llama3"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "llama3", loaded.LLM.Model)
	assert.Equal(t, cfg.Paths, loaded.Paths)
}

func TestExpandEnvVarsPlainTextUntouched(t *testing.T) {
	assert.Equal(t, "sin variables", expandEnvVars("sin variables"))
}
