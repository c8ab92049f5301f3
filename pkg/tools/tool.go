// Package tools is the catalogue of game actions the language model
// may invoke. Every tool validates its parameters, runs against the
// shared game context, and answers with a plain data map the model can
// narrate from. Failures are data, never panics: the registry converts
// anything thrown into an {exito:false} result.
package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/combat"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
)

// Parameter declares one tool parameter for validation and for the
// model-facing catalogue.
type Parameter struct {
	Name        string   `json:"nombre"`
	Type        string   `json:"tipo"` // string, int, float, bool or list
	Description string   `json:"descripcion"`
	Required    bool     `json:"requerido"`
	Options     []string `json:"opciones,omitempty"`
}

// Result is a tool's answer. Every result carries an "exito" flag;
// failed results add an "error" message.
type Result map[string]any

// Failf builds a failed result.
func Failf(format string, args ...any) Result {
	return Result{"exito": false, "error": fmt.Sprintf(format, args...)}
}

// GameContext is the mutable game state tools operate on. One context
// lives per session; start_combat installs the encounter engine on it
// and the orchestrator clears it when the encounter ends.
type GameContext struct {
	Sheet      *character.Sheet
	Data       *character.Data
	Compendium *compendium.Adapter
	Roller     *dice.Roller
	Combat     *combat.Engine
}

// InCombat reports whether an encounter is running.
func (g *GameContext) InCombat() bool {
	return g.Combat != nil && g.Combat.State() == combat.StateInProgress
}

// Tool is one model-invocable action.
type Tool interface {
	Name() string
	Description() string
	Parameters() []Parameter
	Execute(ctx *GameContext, params map[string]any) (Result, error)
}

// decodeParams maps loosely-typed model parameters onto a typed
// struct. JSON numbers arrive as float64 and numeric strings are
// common in model output, so decoding is weakly typed.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("parámetros inválidos: %w", err)
	}
	return nil
}
