package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/bible"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/encounter"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/llms"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/tools"
)

// dmSystemPrompt is the DM's standing instructions. Two slots get
// filled per turn: the tool catalogue and the current context.
const dmSystemPrompt = `Eres un Dungeon Master experto de D&D 5ª edición dirigiendo una partida en solitario.

AMBIENTACIÓN: Reinos Olvidados (Forgotten Realms). Usa lugares, facciones y deidades coherentes con ese mundo. La Costa de la Espada es tu escenario por defecto.

REGLAS DE DIRECCIÓN:
1. Tú narras el mundo; las mecánicas las resuelve el sistema. NUNCA inventes resultados de dados, daño ni HP: usa las herramientas.
2. Genera desafíos variados: combate, exploración, intriga social. No todo se resuelve luchando.
3. La trama principal avanza siempre; las misiones secundarias enriquecen pero no bloquean.
4. Los fallos del jugador generan costes y complicaciones, nunca callejones sin salida. La historia siempre avanza.
5. MODOS: exploracion (viaje y descubrimiento), social (conversación e intriga), combate (encuentros tácticos). Declara el cambio con "cambio_modo" cuando la escena lo pida.
6. INVENTARIO: cuando el jugador obtiene o pierde objetos u oro, usa dar_objeto, quitar_objeto o modificar_oro. No narres botín sin registrarlo.
7. TIRADAS: pide tiradas solo cuando el resultado es incierto y tiene consecuencias. Acciones triviales no requieren dados.
8. COMBATE: para iniciar un encuentro usa iniciar_combate; dentro del combate el sistema lleva iniciativa, turnos y daño.

HERRAMIENTAS DISPONIBLES:
%s

FORMATO DE RESPUESTA — responde SIEMPRE con un único objeto JSON:
{
  "narrativa": "lo que describes al jugador",
  "herramienta": "nombre_de_herramienta o null",
  "parametros": {},
  "cambio_modo": "exploracion|social|combate o null",
  "memoria": {}
}

MEMORIA — usa estas claves para que el sistema recuerde la trama entre turnos:
- "fase_mision" y "objetivo_mision": estado actual de la misión principal (reemplazan el valor anterior)
- "revelaciones", "misiones_secundarias", "amenazas_activas": listas de texto (se acumulan sin repetirse)
- "actitudes_npc": {"id_o_nombre": "hostil|neutral|amistoso"} (actualiza al NPC en escena)
Cualquier otra clave se guarda como dato libre de la aventura.

Ejemplos:
- Narración pura: {"narrativa": "La taberna huele a cerveza rancia...", "herramienta": null}
- Con tirada: {"narrativa": "El mercader entorna los ojos...", "herramienta": "tirar_habilidad", "parametros": {"habilidad": "persuasion", "dc": 13}}
- Iniciar combate: {"narrativa": "¡Dos goblins saltan de las sombras!", "herramienta": "iniciar_combate", "parametros": {"enemigos": [{"id": "goblin", "cantidad": 2}]}, "cambio_modo": "combate"}

CONTEXTO ACTUAL:
%s`

// narrationPrompt asks for the second pass: turning a mechanical
// result into prose.
const narrationPrompt = `La herramienta %q devolvió este resultado:
%s

Narra el desenlace de forma inmersiva en 2-4 frases, integrando el resultado mecánico sin citar números de dados salvo que aporten dramatismo. Responde SOLO con el JSON habitual.`

// DM drives the turn loop: player input in, narrated reply out, with
// at most one tool execution per turn validated by the rules engine.
type DM struct {
	llm      llms.Provider
	registry *tools.Registry
	game     *tools.GameContext
	context  *Context
	bibleDM  *bible.DMView
	tone     *bible.Tone
	log      *slog.Logger
}

// Option configures a DM.
type Option func(*DM)

// WithBible attaches the adventure bible's spoiler-filtered view and
// tone so they reach the system prompt.
func WithBible(view bible.DMView, tone bible.Tone) Option {
	return func(d *DM) {
		d.bibleDM = &view
		d.tone = &tone
	}
}

// NewDM wires the loop together. The game context's sheet doubles as
// the narrative context's character.
func NewDM(llm llms.Provider, registry *tools.Registry, game *tools.GameContext, narrative *Context, opts ...Option) *DM {
	if narrative == nil {
		narrative = NewContext()
	}
	narrative.Sheet = game.Sheet
	d := &DM{
		llm:      llm,
		registry: registry,
		game:     game,
		context:  narrative,
		log:      logger.GetLogger("orchestrator"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Context exposes the narrative state, mainly for persistence and the
// CLI status line.
func (d *DM) Context() *Context { return d.context }

// systemPrompt assembles the standing instructions for this turn.
func (d *DM) systemPrompt() string {
	prompt := fmt.Sprintf(dmSystemPrompt, d.registry.DescribeForModel(), d.context.PromptBlock())

	var extra strings.Builder
	if d.tone != nil {
		extra.WriteString(d.tone.PromptFragment())
		extra.WriteString("\n")
	}
	if d.bibleDM != nil {
		if data, err := json.MarshalIndent(d.bibleDM, "", "  "); err == nil {
			extra.WriteString("BIBLIA DE AVENTURA (visión del DM, no reveles secretos antes de tiempo):\n")
			extra.Write(data)
			extra.WriteString("\n")
		}
	}
	if s := d.game.Sheet; s != nil {
		extra.WriteString(encounter.GuidancePrompt(s.Info.Level, 1))
		extra.WriteString("\n")
	}
	if extra.Len() == 0 {
		return prompt
	}
	return prompt + "\n\n" + extra.String()
}

// ProcessTurn runs one full player turn. The model answers once; if
// it invoked a tool, the tool runs against the rules engine and the
// model gets a second call to narrate the mechanical result.
func (d *DM) ProcessTurn(ctx context.Context, playerInput string) (string, error) {
	playerInput = strings.TrimSpace(playerInput)
	if playerInput == "" {
		return "", fmt.Errorf("acción vacía")
	}
	d.context.Record("accion_jugador", playerInput)

	raw, err := d.llm.Generate(ctx, playerInput, d.systemPrompt())
	if err != nil {
		return "", fmt.Errorf("consultando al modelo: %w", err)
	}

	resp := ParseResponse(raw)
	if err := resp.Validate(); err != nil {
		d.log.Warn("respuesta del modelo inválida", "error", err)
		return fmt.Sprintf("[Error del DM: %v]", err), nil
	}

	narrative := resp.Narrative
	if resp.Tool != "" {
		narrative = d.runTool(ctx, resp)
	}

	d.applySideEffects(resp)
	d.context.Record("respuesta_dm", narrative)
	d.context.AdvanceTurn()
	return narrative, nil
}

// runTool executes the model's tool call and asks for a second-pass
// narration of the result.
func (d *DM) runTool(ctx context.Context, resp *Response) string {
	if tools.IsCombatOnly(resp.Tool) && !d.game.InCombat() {
		// The model tried to resolve an attack off-engine. Its
		// narrative is suppressed along with the tool call so the
		// player never sees combat that the system did not run.
		d.log.Debug("herramienta de combate rechazada fuera de combate", "herramienta", resp.Tool)
		return fmt.Sprintf("⚠ [Sistema: %s solo puede usarse durante un combate]", resp.Tool)
	}

	result := d.registry.Execute(d.game, resp.Tool, resp.Params)
	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	d.context.Record("resultado_mecanico", fmt.Sprintf("%s → %s", resp.Tool, resultJSON))
	d.log.Debug("herramienta ejecutada", "herramienta", resp.Tool, "exito", result["exito"])

	raw, err := d.llm.Generate(ctx, fmt.Sprintf(narrationPrompt, resp.Tool, resultJSON), d.systemPrompt())
	if err == nil {
		if second := ParseResponse(raw); second.Narrative != "" {
			d.applySideEffects(second)
			return second.Narrative
		}
	}
	return fallbackNarrative(resp.Tool, result, resp.Narrative)
}

// applySideEffects handles mode changes and memory the model attached
// to a response. Memory keys matching the structured dictionary merge
// into it; anything else lands in the free-form flags.
func (d *DM) applySideEffects(resp *Response) {
	if resp.ModeChange != "" {
		d.context.SwitchMode(resp.ModeChange)
	}
	if len(resp.Memory) == 0 {
		return
	}
	var delta Memory
	var meta mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &delta,
		TagName:          "json",
		Metadata:         &meta,
		WeaklyTypedInput: true,
	})
	if err != nil || dec.Decode(resp.Memory) != nil {
		for key, value := range resp.Memory {
			d.context.Flags[key] = value
		}
		return
	}
	d.context.MergeMemory(delta)
	for _, key := range meta.Unused {
		d.context.Flags[key] = resp.Memory[key]
	}
}

// OpeningScene asks the model to narrate the start of a session.
func (d *DM) OpeningScene(ctx context.Context) (string, error) {
	prompt := "Narra la escena inicial de la sesión: presenta la ubicación, el ambiente y un gancho de aventura. No uses herramientas todavía."
	if d.context.Turn > 0 {
		prompt = "El jugador retoma una partida guardada. Resume brevemente dónde estaba y relanza la escena actual."
	}
	raw, err := d.llm.Generate(ctx, prompt, d.systemPrompt())
	if err != nil {
		return "", fmt.Errorf("narrando escena inicial: %w", err)
	}
	resp := ParseResponse(raw)
	if resp.Narrative == "" {
		return "", fmt.Errorf("el modelo no devolvió narrativa")
	}
	d.applySideEffects(resp)
	d.context.Record("respuesta_dm", resp.Narrative)
	return resp.Narrative, nil
}

// GameState snapshots the session for the CLI /estado command.
func (d *DM) GameState() map[string]any {
	state := map[string]any{
		"turno": d.context.Turn,
		"modo":  d.context.Mode,
	}
	if s := d.game.Sheet; s != nil {
		state["personaje"] = s.Info.Name
		state["hp"] = fmt.Sprintf("%d/%d", s.Derived.CurrentHP, s.Derived.MaxHP)
		state["nivel"] = s.Info.Level
		state["xp"] = s.Info.Experience
	}
	if loc := d.context.Location; loc != nil {
		state["ubicacion"] = loc.Name
	}
	if d.game.InCombat() {
		state["combate"] = d.game.Combat.Summary()
	}
	return state
}

// Save persists the narrative context into the sheet's adventure
// state. The caller still writes the sheet to disk.
func (d *DM) Save() error { return d.context.Save() }

// fallbackNarrative covers the second model call failing: a plain
// mechanical readout so the turn never comes back empty.
func fallbackNarrative(tool string, result tools.Result, lead string) string {
	var line string
	if errMsg, ok := result["error"].(string); ok && errMsg != "" {
		line = fmt.Sprintf("⚠ [%s: %s]", tool, errMsg)
	} else {
		switch tool {
		case "tirar_habilidad", "tirar_salvacion":
			line = fmt.Sprintf("🎲 Tirada %v + mod = %v contra CD %v", result["tirada"], result["total"], result["cd"])
			if passed, ok := result["exito"].(bool); ok {
				if passed {
					line += ". ¡Éxito!"
				} else {
					line += ". Fallo."
				}
			}
		case "tirar_ataque":
			line = fmt.Sprintf("🎲 Ataque: %v contra CA %v", result["total"], result["ca_objetivo"])
		case "modificar_hp":
			line = fmt.Sprintf("💔 HP: %v/%v", result["hp_nuevo"], result["hp_maximo"])
		case "iniciar_combate":
			line = "⚔ ¡Comienza el combate!"
		default:
			data, _ := json.Marshal(result)
			line = fmt.Sprintf("[%s: %s]", tool, data)
		}
	}
	if lead != "" {
		return lead + "\n" + line
	}
	return line
}
