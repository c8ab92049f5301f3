// Package orchestrator runs the adventure loop: it carries the
// narrative state between turns, builds the DM system prompt, parses
// the model's structured replies, executes tool calls and drives
// integrated combat. The model narrates; every mechanical outcome
// comes from the rules engine.
package orchestrator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
)

// Game modes the DM switches between.
const (
	ModeExploration = "exploracion"
	ModeSocial      = "social"
	ModeCombat      = "combate"
)

// historyWindow is how many recent entries reach the prompt.
const historyWindow = 10

// Location is the scene the party currently occupies.
type Location struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Description string   `json:"descripcion"`
	Type        string   `json:"tipo"` // exterior, interior, dungeon, ciudad
	Connections []string `json:"conexiones,omitempty"`
}

// SceneNPC is a non-player character present in the scene.
type SceneNPC struct {
	ID          string         `json:"id"`
	Name        string         `json:"nombre"`
	Description string         `json:"descripcion"`
	Attitude    string         `json:"actitud"` // hostil, neutral, amistoso
	HP          *int           `json:"hp,omitempty"`
	MaxHP       *int           `json:"hp_max,omitempty"`
	AC          *int           `json:"ca,omitempty"`
	IsEnemy     bool           `json:"es_enemigo"`
	Extra       map[string]any `json:"datos_extra,omitempty"`
}

// HistoryEntry is one line of the adventure log.
type HistoryEntry struct {
	Turn      int    `json:"turno"`
	Kind      string `json:"tipo"` // accion_jugador, respuesta_dm, resultado_mecanico, evento
	Content   string `json:"contenido"`
	Timestamp string `json:"timestamp"`
}

// CombatStatus mirrors the running encounter for the prompt.
type CombatStatus struct {
	Round  int    `json:"ronda"`
	TurnOf string `json:"turno_actual"`
}

// Context is the accumulated narrative state of one adventure. It is
// everything the DM model sees beyond the bible view, and it
// round-trips through the character sheet's adventure-state blob.
type Context struct {
	Sheet    *character.Sheet `json:"-"`
	Location *Location        `json:"ubicacion,omitempty"`
	NPCs     []SceneNPC       `json:"npcs_activos"`
	History  []HistoryEntry   `json:"historial"`
	Turn     int              `json:"turno"`
	Mode     string           `json:"modo_juego"`
	Combat   *CombatStatus    `json:"estado_combate,omitempty"`
	Memory   Memory           `json:"memoria"`
	Flags    map[string]any   `json:"flags"`
	DMNotes  string           `json:"notas_dm,omitempty"`
}

// NewContext creates an empty exploration-mode context.
func NewContext() *Context {
	return &Context{
		Mode:  ModeExploration,
		Flags: map[string]any{},
	}
}

// SetLocation moves the scene.
func (c *Context) SetLocation(id, name, description, kind string) {
	if kind == "" {
		kind = "exterior"
	}
	c.Location = &Location{ID: id, Name: name, Description: description, Type: kind}
}

// AddNPC puts an NPC in the scene and returns it.
func (c *Context) AddNPC(npc SceneNPC) *SceneNPC {
	if npc.Attitude == "" {
		npc.Attitude = "neutral"
	}
	c.NPCs = append(c.NPCs, npc)
	return &c.NPCs[len(c.NPCs)-1]
}

// RemoveNPC takes an NPC out of the scene.
func (c *Context) RemoveNPC(id string) bool {
	for i := range c.NPCs {
		if c.NPCs[i].ID == id {
			c.NPCs = append(c.NPCs[:i], c.NPCs[i+1:]...)
			return true
		}
	}
	return false
}

// NPC finds a scene NPC by ID.
func (c *Context) NPC(id string) *SceneNPC {
	for i := range c.NPCs {
		if c.NPCs[i].ID == id {
			return &c.NPCs[i]
		}
	}
	return nil
}

// Record appends a history entry stamped with the current turn.
func (c *Context) Record(kind, content string) {
	c.History = append(c.History, HistoryEntry{
		Turn:      c.Turn,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// AdvanceTurn increments the turn counter.
func (c *Context) AdvanceTurn() { c.Turn++ }

// SwitchMode changes the game mode; unknown modes are ignored.
func (c *Context) SwitchMode(mode string) {
	switch mode {
	case ModeExploration, ModeSocial, ModeCombat:
		c.Mode = mode
	}
}

// PromptBlock renders the context as the CONTEXTO ACTUAL section of
// the DM system prompt.
func (c *Context) PromptBlock() string {
	var b strings.Builder

	if s := c.Sheet; s != nil {
		b.WriteString("=== PERSONAJE JUGADOR ===\n")
		fmt.Fprintf(&b, "Nombre: %s\n", orDefault(s.Info.Name, "Aventurero"))
		fmt.Fprintf(&b, "Raza: %s\n", orDefault(s.Info.Race, "Desconocida"))
		fmt.Fprintf(&b, "Clase: %s Nivel %d\n", orDefault(s.Info.Class, "Desconocida"), max(1, s.Info.Level))
		fmt.Fprintf(&b, "HP: %d/%d\n", s.Derived.CurrentHP, s.Derived.MaxHP)
		fmt.Fprintf(&b, "CA: %d\n", s.Derived.ArmorClass)
		if skills := proficientSkills(s); len(skills) > 0 {
			fmt.Fprintf(&b, "Competencias: %s\n", strings.Join(skills, ", "))
		}
		b.WriteString("\n")
	}

	if loc := c.Location; loc != nil {
		b.WriteString("=== UBICACIÓN ACTUAL ===\n")
		fmt.Fprintf(&b, "Lugar: %s\n", loc.Name)
		fmt.Fprintf(&b, "Tipo: %s\n", loc.Type)
		fmt.Fprintf(&b, "Descripción: %s\n\n", loc.Description)
	}

	if len(c.NPCs) > 0 {
		b.WriteString("=== NPCs EN ESCENA ===\n")
		for _, npc := range c.NPCs {
			hp := ""
			if npc.HP != nil && npc.MaxHP != nil {
				hp = fmt.Sprintf(" [HP: %d/%d]", *npc.HP, *npc.MaxHP)
			}
			fmt.Fprintf(&b, "- %s (%s)%s\n  %s\n", npc.Name, npc.Attitude, hp, npc.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "=== MODO ACTUAL: %s ===\n", strings.ToUpper(c.Mode))
	if c.Mode == ModeCombat && c.Combat != nil {
		fmt.Fprintf(&b, "Ronda: %d\n", c.Combat.Round)
		fmt.Fprintf(&b, "Turno de: %s\n", c.Combat.TurnOf)
	}
	b.WriteString("\n")

	if len(c.History) > 0 {
		b.WriteString("=== HISTORIAL RECIENTE ===\n")
		start := len(c.History) - historyWindow
		if start < 0 {
			start = 0
		}
		for _, entry := range c.History[start:] {
			fmt.Fprintf(&b, "[%s] %s\n", entry.Kind, entry.Content)
		}
		b.WriteString("\n")
	}

	b.WriteString(c.Memory.promptBlock())

	if len(c.Flags) > 0 {
		keys := make([]string, 0, len(c.Flags))
		for key := range c.Flags {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		b.WriteString("=== DATOS DE AVENTURA ===\n")
		for _, key := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", key, c.Flags[key])
		}
		b.WriteString("\n")
	}

	if c.DMNotes != "" {
		b.WriteString("=== NOTAS DEL DM ===\n")
		b.WriteString(c.DMNotes)
		b.WriteString("\n")
	}

	return b.String()
}

// Save serializes the context into the sheet's adventure state so a
// later session can resume where this one left off.
func (c *Context) Save() error {
	if c.Sheet == nil {
		return fmt.Errorf("no hay personaje cargado")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializando contexto: %w", err)
	}
	if c.Sheet.AdventureState == nil {
		c.Sheet.AdventureState = &character.AdventureState{}
	}
	c.Sheet.AdventureState.Context = data
	c.Sheet.AdventureState.Turn = c.Turn
	return nil
}

// Restore loads a previously saved context from the sheet. A sheet
// without saved state yields a fresh context.
func Restore(sheet *character.Sheet) (*Context, error) {
	c := NewContext()
	c.Sheet = sheet
	if sheet == nil || sheet.AdventureState == nil || len(sheet.AdventureState.Context) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(sheet.AdventureState.Context, c); err != nil {
		return nil, fmt.Errorf("contexto de aventura corrupto: %w", err)
	}
	if c.Flags == nil {
		c.Flags = map[string]any{}
	}
	c.SwitchMode(orDefault(c.Mode, ModeExploration))
	return c, nil
}

func proficientSkills(s *character.Sheet) []string {
	skills := make([]string, 0, len(s.Proficiencies.Skills))
	for _, sk := range s.Proficiencies.Skills {
		skills = append(skills, sk.ID)
	}
	return skills
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
