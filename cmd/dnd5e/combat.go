package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/combat"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/narrator"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/orchestrator"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
)

// CombatCmd runs a standalone skirmish with the deterministic
// narrator, no model needed. Useful for testing builds and rules.
type CombatCmd struct {
	Character string   `name:"personaje" help:"Character ID. Defaults to the most recent one."`
	Monsters  []string `name:"monstruos" help:"Monster IDs to fight (repeatable)." default:"goblin"`
}

func (c *CombatCmd) Run(cfg *config.Config) error {
	data, store, comp, err := openGameData(cfg)
	if err != nil {
		return err
	}
	sheet, err := pickCharacter(store, c.Character)
	if err != nil {
		return err
	}

	roller := dice.NewRoller(nil)
	pipe := pipeline.New(comp, roller, nil, nil, cfg.Game.StrictEquipment)
	engine := combat.NewEngine(comp, pipe, roller)

	if err := engine.AddCombatant(combat.FromSheet(sheet, comp)); err != nil {
		return err
	}
	for _, id := range c.Monsters {
		if _, err := engine.AddFromCompendium(id, ""); err != nil {
			return fmt.Errorf("monstruo %q: %w", id, err)
		}
	}
	if err := engine.Start(true); err != nil {
		return err
	}

	fmt.Printf("⚔ %s contra %s\n", sheet.Info.Name, strings.Join(c.Monsters, ", "))
	for _, cb := range engine.Combatants() {
		fmt.Printf("   %s — iniciativa %d, CA %d, HP %d\n", cb.Name, cb.Initiative, cb.ArmorClass, cb.MaxHP)
	}

	narr := narrator.New(nil, narrator.Style(cfg.Game.NarratorStyle))
	prog := character.NewProgression(data)
	runner := orchestrator.NewCombatRunner(engine, narr, roller, comp, prog, sheet)

	scanner := bufio.NewScanner(os.Stdin)
	for !runner.Finished() {
		turn := runner.Current()
		if turn.Finished {
			break
		}
		if !turn.IsPlayer {
			line, err := runner.EnemyTurn()
			if err != nil {
				return err
			}
			fmt.Println(line)
			continue
		}

		fmt.Printf("\n[Ronda %d — tu turno] > ", turn.Round)
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/huir" {
			fmt.Println(runner.Flee())
			break
		}

		out := runner.PlayerTurn(input)
		if out.Narration != "" {
			fmt.Println(out.Narration)
		}
		if out.Question != "" {
			fmt.Println(out.Question)
			for i, opt := range out.Options {
				fmt.Printf("  %d. %s\n", i+1, opt)
			}
		}
	}

	result := runner.Result()
	fmt.Printf("\n%s\n", result.Summary)
	if result.XP > 0 {
		fmt.Printf("✨ XP ganada: %d\n", result.XP)
	}
	if _, err := store.Save(sheet); err != nil {
		return fmt.Errorf("guardando personaje: %w", err)
	}
	return nil
}
