// Command dnd5e is the solo D&D 5e game driven by a local language
// model.
//
// Usage:
//
//	dnd5e adventure --personaje pj_a1b2c3d4
//	dnd5e create --nombre Elara --raza humano --clase guerrero
//	dnd5e encounter --nivel 3 --monstruos goblin,goblin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version    VersionCmd    `cmd:"" help:"Show version information."`
	Adventure  AdventureCmd  `cmd:"" help:"Play an LLM-driven adventure."`
	Combat     CombatCmd     `cmd:"" help:"Run a quick skirmish without a model."`
	Create     CreateCmd     `cmd:"" help:"Create a character."`
	Characters CharactersCmd `cmd:"" help:"List, inspect or delete characters."`
	Encounter  EncounterCmd  `cmd:"" help:"Rate or suggest encounter difficulty."`
	Bible      BibleCmd      `cmd:"" help:"Generate or inspect adventure bibles."`
	Schema     SchemaCmd     `cmd:"" help:"Generate the JSON Schema of the config file."`

	Config    string `short:"c" help:"Path to config file." default:"dnd5e.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple or verbose)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("dnd5e version %s\n", version)
	return nil
}

// loadConfig reads the config file named by -c. The default path may
// be absent; an explicit one must exist.
func loadConfig(cli *CLI) (*config.Config, error) {
	explicit := cli.Config != "dnd5e.yaml"
	cfg, err := config.Load(cli.Config, explicit)
	if err != nil {
		return nil, err
	}
	// CLI flags override file settings.
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Logging.Format = cli.LogFormat
	}
	if cli.LogFile != "" {
		cfg.Logging.File = cli.LogFile
	}
	return cfg, nil
}

// initLogging configures the process logger from the merged settings
// and returns the file cleanup, if any.
func initLogging(cfg *config.Config) (func(), error) {
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	output := os.Stderr
	cleanup := func() {}
	if cfg.Logging.File != "" {
		file, fileCleanup, err := logger.OpenLogFile(cfg.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("abriendo fichero de log: %w", err)
		}
		output = file
		cleanup = fileCleanup
	}

	logger.Init(level, output, cfg.Logging.Format)
	return cleanup, nil
}

// openGameData loads the shared stores: rules data, character store
// and compendium. A missing data directory yields empty rules data,
// which answers every lookup with defaults.
func openGameData(cfg *config.Config) (*character.Data, *character.Store, *compendium.Adapter, error) {
	data := &character.Data{}
	if _, err := os.Stat(filepath.Join(cfg.Paths.Data, "razas.json")); err == nil {
		data, err = character.LoadData(cfg.Paths.Data)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("cargando datos de reglas: %w", err)
		}
	}
	store := character.NewStore(cfg.Paths.Saves, data)
	comp := compendium.NewAdapter(compendium.NewStore(cfg.Paths.Compendium))
	return data, store, comp, nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("dnd5e"),
		kong.Description("D&D 5e en solitario con DM por modelo de lenguaje local"),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cleanup, err := initLogging(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	err = ctx.Run(&cli, cfg)
	ctx.FatalIfErrorf(err)
}
