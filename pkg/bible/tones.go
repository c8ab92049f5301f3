package bible

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/storage"
)

// Tone is an adventure tone module. Tones shape both the generation
// prompt and the in-play DM persona.
type Tone struct {
	ID               string            `json:"id"`
	Name             string            `json:"nombre"`
	ShortDescription string            `json:"descripcion_corta"`
	NarrativeTone    string            `json:"tono_narrativo"`
	Frequencies      map[string]string `json:"frecuencias,omitempty"`
	FailurePolicy    string            `json:"como_resolver_fallos,omitempty"`
	Lethality        string            `json:"letalidad,omitempty"`
	Moral            string            `json:"moral,omitempty"`
	NPCArchetypes    []string          `json:"arquetipos_npc,omitempty"`
	AntagonistTypes  []string          `json:"tipos_antagonista,omitempty"`
	QuestTypes       []string          `json:"tipos_quest,omitempty"`
	SpecialRules     *SpecialRules     `json:"reglas_especiales,omitempty"`
	PromptExtra      string            `json:"prompt_extra,omitempty"`
}

// SpecialRules are tone-specific structural demands, used mostly by
// the mystery tone.
type SpecialRules struct {
	CluesPerRevelation  int  `json:"pistas_por_revelacion,omitempty"`
	GuaranteedClue      bool `json:"pista_garantizada,omitempty"`
	ActiveClocks        bool `json:"relojes_activos,omitempty"`
	MandatoryForeshadow bool `json:"foreshadowing_obligatorio,omitempty"`
}

// builtinTones keep the game playable without a tone directory.
var builtinTones = map[string]Tone{
	"epica_heroica": {
		ID:               "epica_heroica",
		Name:             "Épica Heroica",
		ShortDescription: "Héroes contra el mal, gestas memorables y victorias ganadas con sudor.",
		NarrativeTone:    "Heroico y grandioso, con momentos de asombro",
		Frequencies:      map[string]string{"combate": "media", "social": "media", "exploracion": "media"},
		FailurePolicy:    "Los fallos generan complicaciones dramáticas, nunca callejones sin salida.",
		Lethality:        "media",
		Moral:            "clara",
		AntagonistTypes:  []string{"Señor de la guerra ambicioso", "Culto a un poder antiguo", "Tirano con ejército"},
		QuestTypes:       []string{"Detener una amenaza creciente", "Recuperar una reliquia", "Liberar una región oprimida"},
	},
	"misterio": {
		ID:               "misterio",
		Name:             "Misterio e Intriga",
		ShortDescription: "Secretos enterrados, conspiraciones y verdades que nadie quiere contar.",
		NarrativeTone:    "Tenso y pausado, con revelaciones dosificadas",
		Frequencies:      map[string]string{"combate": "baja", "social": "alta", "exploracion": "media"},
		FailurePolicy:    "Un fallo revela la pista por otra vía, pero con un coste.",
		Lethality:        "baja",
		Moral:            "gris",
		NPCArchetypes:    []string{"Noble con doble vida", "Informante nervioso", "Guardia corrupto", "Erudito obsesionado"},
		AntagonistTypes:  []string{"Conspirador infiltrado", "Asesino metódico", "Sociedad secreta"},
		QuestTypes:       []string{"Resolver un asesinato", "Desenmascarar una conspiración", "Encontrar a un desaparecido"},
		SpecialRules: &SpecialRules{
			CluesPerRevelation:  3,
			GuaranteedClue:      true,
			ActiveClocks:        true,
			MandatoryForeshadow: true,
		},
	},
	"dm_elige": {
		ID:               "dm_elige",
		Name:             "Sorpréndeme",
		ShortDescription: "El DM elige el tono que mejor encaje con tu personaje.",
		NarrativeTone:    "Variable",
		Lethality:        "media",
		Moral:            "variable",
		NPCArchetypes:    []string{"Cualquier arquetipo según la escena"},
		AntagonistTypes:  []string{"Cualquier tipo según la historia"},
	},
}

// ToneSummary is a listing entry.
type ToneSummary struct {
	ID          string `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}

// LoadTone reads a tone module by ID: a JSON file from dir when it
// exists, otherwise the built-in of the same name.
func LoadTone(dir, id string) (Tone, bool) {
	if dir != "" {
		var t Tone
		path := filepath.Join(dir, id+".json")
		if storage.Exists(path) && storage.LoadJSON(path, &t) == nil {
			if t.ID == "" {
				t.ID = id
			}
			return t, true
		}
	}
	t, ok := builtinTones[id]
	return t, ok
}

// ListTones enumerates the available tones, files shadowing built-ins
// by ID. "dm_elige" sorts last; the rest sort by name.
func ListTones(dir string) []ToneSummary {
	byID := make(map[string]Tone, len(builtinTones))
	for id, t := range builtinTones {
		byID[id] = t
	}
	if dir != "" {
		if entries, err := os.ReadDir(dir); err == nil {
			for _, e := range entries {
				if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
					continue
				}
				id := strings.TrimSuffix(e.Name(), ".json")
				if t, ok := LoadTone(dir, id); ok {
					byID[t.ID] = t
				}
			}
		}
	}

	out := make([]ToneSummary, 0, len(byID))
	for _, t := range byID {
		out = append(out, ToneSummary{ID: t.ID, Name: t.Name, Description: t.ShortDescription})
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].ID == "dm_elige") != (out[j].ID == "dm_elige") {
			return out[j].ID == "dm_elige"
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// PromptFragment renders the tone as a system-prompt block for the
// in-play DM.
func (t Tone) PromptFragment() string {
	var b strings.Builder
	fmt.Fprintf(&b, "═══ TONO DE AVENTURA: %s ═══\n\n", strings.ToUpper(t.Name))
	fmt.Fprintf(&b, "Estilo: %s\n\n", t.ShortDescription)
	fmt.Fprintf(&b, "TONO NARRATIVO: %s\n\n", t.NarrativeTone)

	if len(t.Frequencies) > 0 {
		b.WriteString("BALANCE DE CONTENIDO:\n")
		keys := make([]string, 0, len(t.Frequencies))
		for k := range t.Frequencies {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  - %s: %s\n", capitalize(k), t.Frequencies[k])
		}
		b.WriteString("\n")
	}

	if t.FailurePolicy != "" {
		fmt.Fprintf(&b, "FALLOS: %s\n\n", t.FailurePolicy)
	}

	fmt.Fprintf(&b, "Letalidad: %s | Moral: %s\n\n", orDefault(t.Lethality, "media"), orDefault(t.Moral, "variable"))

	if len(t.NPCArchetypes) > 0 && t.NPCArchetypes[0] != "Cualquier arquetipo según la escena" {
		b.WriteString("ARQUETIPOS DE NPC TÍPICOS:\n")
		for _, a := range capList(t.NPCArchetypes, 4) {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
		b.WriteString("\n")
	}

	if len(t.AntagonistTypes) > 0 && t.AntagonistTypes[0] != "Cualquier tipo según la historia" {
		b.WriteString("TIPOS DE ANTAGONISTA:\n")
		for _, a := range capList(t.AntagonistTypes, 3) {
			fmt.Fprintf(&b, "  - %s\n", a)
		}
		b.WriteString("\n")
	}

	if r := t.SpecialRules; r != nil {
		b.WriteString("REGLAS ESPECIALES:\n")
		if r.CluesPerRevelation > 0 {
			fmt.Fprintf(&b, "  - Cada revelación tiene %d pistas (Regla de Tres)\n", r.CluesPerRevelation)
		}
		if r.GuaranteedClue {
			b.WriteString("  - Siempre hay una pista garantizada por revelación\n")
		}
		if r.ActiveClocks {
			b.WriteString("  - Usa relojes para tensión temporal\n")
		}
		if r.MandatoryForeshadow {
			b.WriteString("  - Foreshadowing OBLIGATORIO antes de revelaciones\n")
		}
		b.WriteString("\n")
	}

	if t.PromptExtra != "" {
		b.WriteString("INSTRUCCIONES DE TONO:\n")
		b.WriteString(t.PromptExtra)
		b.WriteString("\n")
	}
	return b.String()
}

// DeriveSoloBalance produces the solo-play balance block for a tone
// and character level.
func DeriveSoloBalance(t Tone, level int) SoloBalance {
	balance := SoloBalance{
		TargetDifficulty: "media",
		Lethality:        "media",
		Combat: CombatBalance{
			EncountersPerAct: "2-3",
			MaxEnemies:       3,
			MaxIndividualCR:  level + 1,
			RestsBetween:     true,
		},
		Obstacles: ObstacleBalance{
			TypicalDC:         "10-14",
			MaxDC:             16,
			AlwaysAlternative: true,
		},
	}

	switch t.Lethality {
	case "alta":
		balance.Lethality = "alta"
		balance.Combat.MaxEnemies = 4
		balance.Combat.RestsBetween = false
		balance.Obstacles.MaxDC = 18
	case "baja", "muy_baja":
		balance.Lethality = "baja"
		balance.Combat.MaxEnemies = 2
		balance.Obstacles.TypicalDC = "8-12"
		balance.Obstacles.MaxDC = 14
	}

	switch t.Frequencies["combate"] {
	case "alta":
		balance.Combat.EncountersPerAct = "3-4"
	case "baja":
		balance.Combat.EncountersPerAct = "1-2"
	}
	return balance
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func capList(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
