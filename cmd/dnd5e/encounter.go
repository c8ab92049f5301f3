package main

import (
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/encounter"
)

// EncounterCmd rates a composition against the XP budget, or suggests
// compositions for a target difficulty.
type EncounterCmd struct {
	Level    int      `name:"nivel" default:"1" help:"Average party level."`
	Party    int      `name:"pjs" default:"1" help:"Party size."`
	Monsters []string `name:"monstruos" help:"Monster IDs to rate (repeatable)."`
	Suggest  string   `name:"sugerir" help:"Suggest compositions: facil, media, dificil o mortal."`
}

var difficultyNames = map[string]encounter.Difficulty{
	"facil":   encounter.Easy,
	"media":   encounter.Medium,
	"dificil": encounter.Hard,
	"mortal":  encounter.Deadly,
}

func (c *EncounterCmd) Run(cfg *config.Config) error {
	_, _, comp, err := openGameData(cfg)
	if err != nil {
		return err
	}

	if c.Suggest != "" {
		target, ok := difficultyNames[strings.ToLower(c.Suggest)]
		if !ok {
			return fmt.Errorf("dificultad desconocida %q (facil, media, dificil, mortal)", c.Suggest)
		}
		roster := comp.Store().Monsters()
		available := make([]*compendium.Monster, 0, len(roster))
		for i := range roster {
			available = append(available, &roster[i])
		}
		suggestions := encounter.Suggest(c.Level, c.Party, target, available)
		if len(suggestions) == 0 {
			fmt.Println("Ningún monstruo del compendio encaja en esa banda de XP.")
			return nil
		}
		fmt.Printf("Sugerencias %s para nivel %d (%d PJ):\n", c.Suggest, c.Level, c.Party)
		for _, s := range suggestions {
			fmt.Printf("  - %s (XP ajustado %d)\n", s.Monsters[0].Name, s.AdjustedXP)
		}
		return nil
	}

	if len(c.Monsters) == 0 {
		return fmt.Errorf("indica --monstruos o --sugerir")
	}
	var monsters []*compendium.Monster
	for _, id := range c.Monsters {
		m, ok := comp.Store().Monster(id)
		if !ok {
			return fmt.Errorf("monstruo desconocido %q", id)
		}
		monsters = append(monsters, &m)
	}

	assessment := encounter.Assess(monsters, c.Level, c.Party)
	fmt.Println(assessment.Description())
	return nil
}
