package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/bible"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/llms"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/narrator"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/orchestrator"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/tools"
)

// AdventureCmd runs the interactive DM loop against a local model.
type AdventureCmd struct {
	Character string `name:"personaje" help:"Character ID to play. Defaults to the most recent one."`
	Profile   string `name:"perfil" help:"Generation profile (lite, normal, completo)." enum:"lite,normal,completo," default:""`
	Debug     bool   `help:"Print raw mechanical results."`
}

func (c *AdventureCmd) Run(cli *CLI, cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("la aventura necesita una terminal interactiva")
	}
	if c.Profile != "" {
		cfg.LLM.Profile = c.Profile
	}

	ctx := context.Background()
	provider, err := llms.Connect(ctx, cfg.LLMConfig())
	if err != nil {
		return fmt.Errorf("conectando con el modelo: %w (¿está LM Studio u Ollama en marcha?)", err)
	}
	info := provider.Info(ctx)
	fmt.Printf("🤖 Conectado a %s (%s)\n", info.Type, provider.EffectiveModel(ctx))

	data, store, comp, err := openGameData(cfg)
	if err != nil {
		return err
	}

	sheet, err := pickCharacter(store, c.Character)
	if err != nil {
		return err
	}
	fmt.Printf("🧝 %s — %s %s nivel %d\n\n", sheet.Info.Name, sheet.Info.Race, sheet.Info.Class, sheet.Info.Level)

	narrative, err := orchestrator.Restore(sheet)
	if err != nil {
		return err
	}

	registry, err := tools.NewBuiltinRegistry()
	if err != nil {
		return err
	}
	game := &tools.GameContext{
		Sheet:      sheet,
		Data:       data,
		Compendium: comp,
		Roller:     dice.NewRoller(nil),
	}

	var opts []orchestrator.Option
	manager := bible.NewManager(cfg.Paths.Saves)
	if manager.Exists(sheet.ID) {
		view, err := manager.LoadView(sheet.ID)
		if err != nil {
			return fmt.Errorf("cargando biblia de aventura: %w", err)
		}
		tone, _ := bible.LoadTone(cfg.Paths.Tones, cfg.Game.Tone)
		opts = append(opts, orchestrator.WithBible(view, tone))
		fmt.Println("📖 Biblia de aventura cargada")
	}

	dm := orchestrator.NewDM(provider, registry, game, narrative, opts...)

	opening, err := dm.OpeningScene(ctx)
	if err != nil {
		return err
	}
	fmt.Println(opening)
	fmt.Println("\nEscribe tus acciones. /ayuda lista los comandos.")

	narrStyle := narrator.Style(cfg.Game.NarratorStyle)
	narr := narrator.New(llms.NarratorCallback(provider), narrStyle)
	prog := character.NewProgression(data)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := c.slashCommand(input, dm, store, sheet)
			if err != nil {
				fmt.Println(err)
			}
			if quit {
				break
			}
			continue
		}

		reply, err := dm.ProcessTurn(ctx, input)
		if err != nil {
			fmt.Printf("⚠ %v\n", err)
			continue
		}
		fmt.Println(reply)

		if game.InCombat() {
			if err := c.runCombat(game, narr, prog, dm); err != nil {
				fmt.Printf("⚠ %v\n", err)
			}
		}
	}

	return saveAdventure(dm, store, sheet)
}

// runCombat drives an encounter the model just started until it ends.
func (c *AdventureCmd) runCombat(game *tools.GameContext, narr *narrator.Narrator,
	prog *character.Progression, dm *orchestrator.DM) error {

	runner, err := orchestrator.FromGame(game, narr, prog)
	if err != nil {
		return err
	}
	fmt.Println("\n⚔ ¡Combate! Describe tus acciones; /huir para escapar.")

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
		if c.Debug {
			fmt.Printf("   [%s]\n", out.Outcome)
		}
	}

	result := runner.Result()
	fmt.Printf("\n%s\n", result.Summary)
	if result.XP > 0 {
		fmt.Printf("✨ XP ganada: %d\n", result.XP)
		if result.Award != nil && result.Award.CanLevelUp {
			fmt.Printf("⬆ ¡Puedes subir a nivel %d!\n", result.Award.ReachableLevel)
		}
	}

	// The encounter engine is done; drop it from the shared context
	// and let the narrative mode fall back to exploration.
	game.Combat = nil
	dm.Context().SwitchMode(orchestrator.ModeExploration)
	return nil
}

func (c *AdventureCmd) slashCommand(input string, dm *orchestrator.DM,
	store *character.Store, sheet *character.Sheet) (quit bool, err error) {

	switch strings.Fields(input)[0] {
	case "/salir":
		return true, nil
	case "/guardar":
		if err := saveAdventure(dm, store, sheet); err != nil {
			return false, err
		}
		fmt.Println("💾 Partida guardada")
	case "/estado":
		data, _ := json.MarshalIndent(dm.GameState(), "", "  ")
		fmt.Println(string(data))
	case "/ayuda":
		fmt.Println("Comandos: /salir, /guardar, /estado, /ayuda (y /huir en combate)")
	default:
		fmt.Printf("Comando desconocido %q. /ayuda lista los disponibles.\n", input)
	}
	return false, nil
}

// pickCharacter loads the requested sheet, or the most recently
// played one when no ID is given.
func pickCharacter(store *character.Store, id string) (*character.Sheet, error) {
	if id != "" {
		return store.Load(id)
	}
	entries, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no hay personajes; crea uno con `dnd5e create`")
	}
	return store.Load(entries[0].ID)
}

func saveAdventure(dm *orchestrator.DM, store *character.Store, sheet *character.Sheet) error {
	if err := dm.Save(); err != nil {
		return err
	}
	if _, err := store.Save(sheet); err != nil {
		return fmt.Errorf("guardando personaje: %w", err)
	}
	return nil
}
