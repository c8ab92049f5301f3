package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/bible"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/llms"
)

// BibleCmd manages adventure bibles: generate one for a character,
// print the DM's spoiler-filtered view, or list the available tones
// and regions.
type BibleCmd struct {
	Character string `name:"personaje" help:"Character ID the bible belongs to."`
	Generate  bool   `name:"generar" help:"Generate a new bible (needs a running model)."`
	Show      bool   `name:"ver" help:"Print the DM view of the stored bible."`
	Tone      string `name:"tono" help:"Tone ID for generation. Defaults to the configured one."`
	Region    string `name:"region" default:"costa_espada" help:"Region ID for generation."`
	Tones     bool   `name:"tonos" help:"List available tones."`
	Regions   bool   `name:"regiones" help:"List available regions."`
}

func (c *BibleCmd) Run(cfg *config.Config) error {
	if c.Tones {
		for _, t := range bible.ListTones(cfg.Paths.Tones) {
			fmt.Printf("  %-16s %s — %s\n", t.ID, t.Name, t.Description)
		}
		return nil
	}
	if c.Regions {
		for _, r := range bible.ListRegions() {
			fmt.Printf("  %-18s %s\n", r.ID, r.Name)
		}
		return nil
	}

	_, store, _, err := openGameData(cfg)
	if err != nil {
		return err
	}
	sheet, err := pickCharacter(store, c.Character)
	if err != nil {
		return err
	}
	manager := bible.NewManager(cfg.Paths.Saves)

	switch {
	case c.Generate:
		ctx := context.Background()
		provider, err := llms.Connect(ctx, cfg.LLMConfig())
		if err != nil {
			return fmt.Errorf("conectando con el modelo: %w", err)
		}
		gen := bible.NewGenerator(func(prompt, system string) (string, error) {
			return provider.Generate(ctx, prompt, system)
		}, cfg.Paths.Tones)

		tone := c.Tone
		if tone == "" {
			tone = cfg.Game.Tone
		}
		fmt.Printf("📖 Generando biblia (%s, %s) para %s...\n", tone, c.Region, sheet.Info.Name)
		b, err := gen.Generate(sheet, tone, c.Region)
		if err != nil {
			return err
		}
		if err := manager.SaveFull(sheet.ID, b); err != nil {
			return err
		}
		fmt.Printf("✅ Biblia %s guardada: %s\n", b.Meta.ID, b.Logline)
		return nil

	case c.Show:
		view, err := manager.LoadView(sheet.ID)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	return fmt.Errorf("indica --generar, --ver, --tonos o --regiones")
}
