// Package narrator turns resolved mechanics into table prose. The
// model is narration-only here: it receives already-resolved events
// and may not decide rules, alter state or change clarification
// options. Without a model the narrator falls back to deterministic
// per-event text, so the game stays playable offline.
package narrator

import (
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
)

// Style selects the narration voice.
type Style string

const (
	StyleEpic    Style = "epico"
	StyleCasual  Style = "casual"
	StyleMinimal Style = "minimalista"
)

// Context carries everything the narrator needs for one turn. Rules
// never travel through it; events arrive fully resolved.
type Context struct {
	Round       int    `json:"ronda"`
	CombatState string `json:"estado_combate"`

	ActorName       string   `json:"actor_nombre"`
	ActorHP         int      `json:"actor_hp"`
	ActorMaxHP      int      `json:"actor_hp_max"`
	ActorConditions []string `json:"actor_condiciones"`

	Events     []pipeline.Event `json:"eventos"`
	Combatants []Participant    `json:"combatientes"`

	NeedsClarification bool              `json:"necesita_clarificacion,omitempty"`
	Question           string            `json:"pregunta_clarificacion,omitempty"`
	Options            []pipeline.Option `json:"opciones_clarificacion,omitempty"`

	ActionRejected bool   `json:"accion_rechazada,omitempty"`
	Reason         string `json:"motivo_rechazo,omitempty"`
	Suggestion     string `json:"sugerencia,omitempty"`
}

// Participant is the narrator's view of one combatant.
type Participant struct {
	Name       string   `json:"nombre"`
	CurrentHP  int      `json:"hp_actual"`
	MaxHP      int      `json:"hp_maximo"`
	Side       string   `json:"tipo"`
	Dead       bool     `json:"muerto"`
	Conditions []string `json:"condiciones"`
}

// Reply separates immersive prose from technical feedback. The
// reformulated question only appears on clarifications.
type Reply struct {
	Narration        string `json:"narracion"`
	SystemFeedback   string `json:"feedback_sistema,omitempty"`
	RestatedQuestion string `json:"pregunta_reformulada,omitempty"`
}

// LLMFunc is a prompt-to-prose callback. nil means no model.
type LLMFunc func(prompt string) string

// Narrator renders turn outcomes as prose.
type Narrator struct {
	llm   LLMFunc
	style Style
}

// New creates a narrator. llm may be nil; then deterministic text is
// produced. Unknown styles read as epic.
func New(llm LLMFunc, style Style) *Narrator {
	if style == "" {
		style = StyleEpic
	}
	return &Narrator{llm: llm, style: style}
}

// Style reports the active narration voice.
func (n *Narrator) Style() Style { return n.style }

// Narrate produces the reply for one resolved turn.
func (n *Narrator) Narrate(ctx Context) Reply {
	switch {
	case ctx.NeedsClarification:
		return n.narrateClarification(ctx)
	case ctx.ActionRejected:
		return n.narrateRejection(ctx)
	default:
		return n.narrateEvents(ctx)
	}
}

func (n *Narrator) narrateEvents(ctx Context) Reply {
	if n.llm != nil {
		if text := n.llm(n.eventsPrompt(ctx)); text != "" {
			return Reply{Narration: text}
		}
	}
	return Reply{Narration: n.fallbackNarration(ctx)}
}

// narrateClarification reformulates the question narratively. The
// options are never touched: they come back exactly as asked.
func (n *Narrator) narrateClarification(ctx Context) Reply {
	narration := "El DM necesita más información."
	question := ctx.Question

	if n.llm != nil {
		if text := n.llm(n.clarificationPrompt(ctx)); text != "" {
			narration = text
		}
		if question != "" {
			prompt := fmt.Sprintf(`Reformula esta pregunta de forma más inmersiva para D&D:
%q
Opciones disponibles: %s
IMPORTANTE: No cambies el significado ni añadas/quites opciones.
Solo reformula la pregunta de forma más narrativa.`, question, optionLabels(ctx.Options))
			if text := n.llm(prompt); text != "" {
				question = text
			}
		}
	}

	return Reply{Narration: narration, RestatedQuestion: question}
}

func (n *Narrator) narrateRejection(ctx Context) Reply {
	feedback := ctx.Reason
	if ctx.Suggestion != "" {
		feedback += " Sugerencia: " + ctx.Suggestion
	}

	narration := fmt.Sprintf("%s no puede hacer eso.", ctx.ActorName)
	if n.llm != nil {
		prompt := fmt.Sprintf(`Eres el DM de una partida de D&D 5e.
%s intentó hacer algo que no es posible.
Explica brevemente por qué no puede hacerlo de forma narrativa (1 frase).
NO incluyas sugerencias técnicas, solo narración.`, ctx.ActorName)
		if text := n.llm(prompt); text != "" {
			narration = text
		}
	}

	return Reply{Narration: narration, SystemFeedback: feedback}
}

func (n *Narrator) eventsPrompt(ctx Context) string {
	var events []string
	for _, e := range ctx.Events {
		events = append(events, describeEvent(e))
	}

	var roster []string
	for _, p := range ctx.Combatants {
		roster = append(roster, fmt.Sprintf("- %s: %s", p.Name, healthWord(p.CurrentHP, p.MaxHP)))
	}

	styleLine := map[Style]string{
		StyleEpic:    "Usa un tono épico y dramático.",
		StyleCasual:  "Usa un tono casual y ligero.",
		StyleMinimal: "Sé muy breve y directo.",
	}[n.style]

	return fmt.Sprintf(`Eres el DM de una partida de D&D 5e. Narra lo que acaba de ocurrir.

RONDA: %d
TURNO DE: %s

EVENTOS (en orden):
%s

ESTADO DE LOS COMBATIENTES:
%s

INSTRUCCIONES:
- %s
- Narra en segunda persona si es un PC ("Lanzas tu espada...")
- Narra en tercera persona si es un NPC ("El goblin ataca...")
- Sé conciso (2-4 frases máximo)
- NO inventes reglas ni resultados, solo narra lo que pasó
- NO menciones números de dados ni mecánicas`,
		ctx.Round, ctx.ActorName,
		strings.Join(events, "\n"), strings.Join(roster, "\n"), styleLine)
}

func (n *Narrator) clarificationPrompt(ctx Context) string {
	return fmt.Sprintf(`Eres el DM de una partida de D&D 5e.
%s quiere hacer algo pero necesitas más información.
Pregunta original: %s
Opciones: %s

Introduce la pregunta de forma narrativa, breve (1 frase).
NO cambies las opciones.`, ctx.ActorName, ctx.Question, optionLabels(ctx.Options))
}

func optionLabels(options []pipeline.Option) string {
	labels := make([]string, 0, len(options))
	for _, o := range options {
		labels = append(labels, o.Label)
	}
	return "[" + strings.Join(labels, ", ") + "]"
}

// healthWord buckets HP into narrative state. Exact numbers never
// reach the model.
func healthWord(current, max int) string {
	if max < 1 {
		max = 1
	}
	pct := 100 * current / max
	switch {
	case pct > 75:
		return "ileso"
	case pct > 25:
		return "herido"
	default:
		return "malherido"
	}
}

// describeEvent renders one resolved event as a prompt line.
func describeEvent(e pipeline.Event) string {
	d := e.Data
	switch e.Type {
	case pipeline.EventAttackMade:
		result := "FALLA"
		if truthy(d["impacta"]) {
			result = "IMPACTA"
		}
		suffix := ""
		if truthy(d["es_critico"]) {
			suffix = " (¡CRÍTICO!)"
		} else if truthy(d["es_pifia"]) {
			suffix = " (¡PIFIA!)"
		}
		return fmt.Sprintf("Ataque con %s: %s%s", str(d, "arma_nombre", "arma"), result, suffix)
	case pipeline.EventDamageComputed:
		return fmt.Sprintf("Daño: %v de tipo %s", num(d, "daño_total"), str(d, "tipo_daño", "desconocido"))
	case pipeline.EventSpellCast:
		return fmt.Sprintf("Conjuro: %s lanzado", str(d, "nombre", "desconocido"))
	case pipeline.EventMovementDone:
		return fmt.Sprintf("Movimiento: %v pies", num(d, "distancia_pies"))
	case pipeline.EventSkillCheck:
		return fmt.Sprintf("Prueba de %s: total %v", str(d, "habilidad", "?"), num(d, "total"))
	case pipeline.EventGenericAction:
		return fmt.Sprintf("Acción: %s", str(d, "accion_id", "desconocida"))
	}
	return "Evento: " + e.Type
}

// fallbackNarration produces deterministic prose without a model,
// honouring the configured style.
func (n *Narrator) fallbackNarration(ctx Context) string {
	var parts []string
	switch n.style {
	case StyleMinimal:
	case StyleCasual:
		parts = append(parts, fmt.Sprintf("Turno de %s.", ctx.ActorName))
	default:
		parts = append(parts, fmt.Sprintf("¡Es el turno de %s!", ctx.ActorName))
	}

	for _, e := range ctx.Events {
		d := e.Data
		switch e.Type {
		case pipeline.EventAttackMade:
			weapon := str(d, "arma_nombre", "su arma")
			switch {
			case truthy(d["es_critico"]):
				parts = append(parts, fmt.Sprintf("¡Golpe crítico con %s!", weapon))
			case truthy(d["es_pifia"]):
				parts = append(parts, "¡Falla estrepitosamente!")
			case truthy(d["impacta"]):
				parts = append(parts, fmt.Sprintf("Ataca con %s y acierta.", weapon))
			default:
				parts = append(parts, fmt.Sprintf("Ataca con %s pero falla.", weapon))
			}
		case pipeline.EventDamageComputed:
			parts = append(parts, fmt.Sprintf("Causa %v de daño.", num(d, "daño_total")))
		case pipeline.EventSpellCast:
			parts = append(parts, fmt.Sprintf("Lanza %s.", str(d, "nombre", "un conjuro")))
		case pipeline.EventMovementDone:
			parts = append(parts, fmt.Sprintf("Se mueve %v pies.", num(d, "distancia_pies")))
		case pipeline.EventSkillCheck:
			parts = append(parts, fmt.Sprintf("Hace una prueba de %s.", str(d, "habilidad", "habilidad")))
		case pipeline.EventGenericAction:
			switch str(d, "accion_id", "") {
			case "dodge":
				parts = append(parts, "Se prepara para esquivar.")
			case "dash":
				parts = append(parts, "Corre a toda velocidad.")
			case "disengage":
				parts = append(parts, "Se retira con cuidado.")
			default:
				parts = append(parts, fmt.Sprintf("Realiza %s.", str(d, "accion_id", "una acción")))
			}
		}
	}

	text := strings.Join(parts, " ")
	if n.style == StyleMinimal {
		if idx := strings.Index(text, ". "); idx >= 0 {
			text = text[:idx+1]
		}
	}
	return text
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}

func str(d map[string]any, key, fallback string) string {
	if s, ok := d[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func num(d map[string]any, key string) any {
	if v, ok := d[key]; ok {
		switch x := v.(type) {
		case float64:
			return int(x)
		default:
			return x
		}
	}
	return 0
}
