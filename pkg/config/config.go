// Package config loads the game's settings: a YAML file with
// environment-variable expansion, .env files for local overrides, and
// defaults that work out of the box against a stock installation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/llms"
)

// Paths locates the game's data on disk. Relative paths resolve
// against the working directory.
type Paths struct {
	// Compendium is the directory with the catalogue JSON files
	// (monstruos.json, armas.json, ...).
	Compendium string `yaml:"compendio"`
	// Data holds rules data such as per-class progression tables.
	Data string `yaml:"datos"`
	// Saves is the root for character sheets and adventures.
	Saves string `yaml:"partidas"`
	// Tones holds optional adventure-tone JSON modules.
	Tones string `yaml:"tonos"`
}

// LLM configures the local model connection. An empty URL means
// auto-detection (LM Studio first, then Ollama).
type LLM struct {
	URL         string  `yaml:"url,omitempty"`
	Model       string  `yaml:"modelo,omitempty"`
	Profile     string  `yaml:"perfil,omitempty"`
	Temperature float64 `yaml:"temperatura,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	TimeoutSecs int     `yaml:"timeout_segundos,omitempty"`
	MaxRetries  int     `yaml:"max_reintentos,omitempty"`
}

// Game holds play-facing toggles.
type Game struct {
	// NarratorStyle is epico, casual or minimalista.
	NarratorStyle string `yaml:"estilo_narrador"`
	// Tone is the default adventure tone for new bibles.
	Tone string `yaml:"tono"`
	// StrictEquipment rejects attacks with weapons the sheet does
	// not carry instead of downgrading them.
	StrictEquipment bool `yaml:"equipo_estricto"`
}

// Logging mirrors the pkg/logger options.
type Logging struct {
	Level  string `yaml:"nivel"`
	Format string `yaml:"formato"`
	File   string `yaml:"fichero,omitempty"`
}

// Config is the full settings document.
type Config struct {
	Paths   Paths   `yaml:"rutas"`
	LLM     LLM     `yaml:"llm"`
	Game    Game    `yaml:"juego"`
	Logging Logging `yaml:"registro"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Paths: Paths{
			Compendium: "datos/compendio",
			Data:       "datos",
			Saves:      "partidas",
			Tones:      "datos/tonos",
		},
		LLM: LLM{
			Profile: llms.DefaultProfile,
		},
		Game: Game{
			NarratorStyle: "epico",
			Tone:          "dm_elige",
		},
		Logging: Logging{
			Level:  "info",
			Format: "simple",
		},
	}
}

// Load reads the YAML file at path over the defaults. Environment
// variables in the file body expand before parsing; .env and
// .env.local load first so they can feed the expansion. A missing
// file is not an error unless the path was explicitly requested.
func Load(path string, explicit bool) (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("leyendo configuración %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("configuración inválida %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

// applyEnvOverrides lets a few ergonomic variables win over the file,
// so `DND_LLM_URL=... dnd5e adventure` works without editing YAML.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DND_LLM_URL"); v != "" {
		c.LLM.URL = v
	}
	if v := os.Getenv("DND_LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("DND_SAVES_DIR"); v != "" {
		c.Paths.Saves = v
	}
	if v := os.Getenv("DND_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects values the rest of the stack would choke on.
func (c *Config) Validate() error {
	switch c.Game.NarratorStyle {
	case "epico", "casual", "minimalista":
	default:
		return fmt.Errorf("estilo_narrador inválido %q (epico, casual o minimalista)", c.Game.NarratorStyle)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperatura fuera de rango: %v", c.LLM.Temperature)
	}
	if c.LLM.TimeoutSecs < 0 {
		return fmt.Errorf("timeout_segundos negativo: %d", c.LLM.TimeoutSecs)
	}
	return nil
}

// LLMConfig converts the settings into the provider config. The
// generation profile sets the baseline and explicit file values
// override it.
func (c *Config) LLMConfig() llms.Config {
	var out llms.Config
	if c.LLM.Profile != "" {
		out = llms.LookupProfile(c.LLM.Profile).Apply(out)
	}
	out.BaseURL = c.LLM.URL
	out.Model = c.LLM.Model
	out.MaxRetries = c.LLM.MaxRetries
	if c.LLM.Temperature > 0 {
		out.Temperature = c.LLM.Temperature
	}
	if c.LLM.MaxTokens > 0 {
		out.MaxTokens = c.LLM.MaxTokens
	}
	if c.LLM.TimeoutSecs > 0 {
		out.Timeout = time.Duration(c.LLM.TimeoutSecs) * time.Second
	}
	return out
}

// AdventuresDir is where per-character bibles and patches live.
func (c *Config) AdventuresDir() string {
	return filepath.Join(c.Paths.Saves, "aventuras")
}

// Save writes the settings back as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializando configuración: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
