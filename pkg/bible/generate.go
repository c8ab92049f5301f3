package bible

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
)

// GenerateFunc is the model call the generator runs on:
// prompt plus system message in, raw text out.
type GenerateFunc func(prompt, system string) (string, error)

// Generator builds adventure bibles through a model and normalizes
// the result into a complete document.
type Generator struct {
	llm     GenerateFunc
	toneDir string
	log     interface {
		Debug(msg string, args ...any)
		Warn(msg string, args ...any)
	}
}

// NewGenerator creates a generator. toneDir may be empty; then only
// the built-in tones are available.
func NewGenerator(llm GenerateFunc, toneDir string) *Generator {
	return &Generator{llm: llm, toneDir: toneDir, log: logger.GetLogger("bible")}
}

// Generate produces a complete bible for the character, tone and
// region. The model output is extracted tolerantly, validated and
// filled with defaults.
func (g *Generator) Generate(sheet *character.Sheet, toneID, regionID string) (*Bible, error) {
	if g.llm == nil {
		return nil, fmt.Errorf("no hay conexión con el LLM")
	}

	tone, ok := LoadTone(g.toneDir, toneID)
	if !ok {
		return nil, fmt.Errorf("tipo de aventura %q no encontrado", toneID)
	}
	region := RegionInfo(regionID)

	prompt := BuildPrompt(sheet, tone, region)
	g.log.Debug("generando adventure bible", "tono", toneID, "region", region.Name)

	reply, err := g.llm(prompt, "")
	if err != nil {
		return nil, fmt.Errorf("error llamando al LLM: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("el LLM no devolvió respuesta")
	}

	raw, err := ExtractJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("error parseando respuesta: %w", err)
	}

	var b Bible
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("error parseando respuesta: %w", err)
	}
	if err := Validate(&b); err != nil {
		return nil, fmt.Errorf("estructura inválida: %w", err)
	}

	Normalize(&b, sheet, tone, region)
	return &b, nil
}

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	braceJSON  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON pulls the JSON object out of a model reply: a direct
// parse first, then a fenced block, then the outermost braces.
func ExtractJSON(reply string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(reply)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		if json.Valid([]byte(m[1])) {
			return json.RawMessage(m[1]), nil
		}
		return nil, fmt.Errorf("JSON inválido en bloque de código")
	}
	if m := braceJSON.FindString(reply); m != "" {
		if json.Valid([]byte(m)) {
			return json.RawMessage(m), nil
		}
		return nil, fmt.Errorf("JSON inválido")
	}
	return nil, fmt.Errorf("no se encontró JSON en la respuesta")
}

// Validate checks the minimum structure a playable bible needs.
func Validate(b *Bible) error {
	if b.Logline == "" {
		return fmt.Errorf("falta campo requerido: logline")
	}
	if b.MainQuest.FinalObjective == "" {
		return fmt.Errorf("main_quest.objetivo_final es requerido")
	}
	if b.Antagonist.RealIdentity == "" {
		return fmt.Errorf("antagonista.identidad_real es requerido")
	}
	if len(b.Acts) < 2 {
		return fmt.Errorf("se requieren al menos 2 actos")
	}
	for i, act := range b.Acts {
		if act.Name == "" {
			return fmt.Errorf("acto %d sin nombre", i+1)
		}
		if act.Objective == "" {
			return fmt.Errorf("acto %d sin objetivo", i+1)
		}
	}
	return nil
}

// Normalize fills metadata and defaults so the document is complete:
// act numbering and states, Three-Clue guarantees, NPC bookkeeping,
// clock segments and the default consistency contract.
func Normalize(b *Bible, sheet *character.Sheet, tone Tone, region Region) {
	level := 1
	if sheet != nil {
		if sheet.Info.Level > 0 {
			level = sheet.Info.Level
		}
		b.Meta.PCName = orDefault(sheet.Info.Name, "Aventurero")
		b.Meta.PCID = sheet.ID
	} else {
		b.Meta.PCName = "Aventurero"
	}

	b.Meta.ID = "adv_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	b.Meta.Generated = time.Now().Format(time.RFC3339)
	b.Meta.AdventureType = tone.ID
	b.Meta.PCLevel = level
	b.Meta.Setting = "Reinos Olvidados - Faerûn"
	b.Meta.StartRegion = region.Name

	b.SoloBalance = DeriveSoloBalance(tone, level)

	b.MainQuest.State = "acto_1"

	ant := &b.Antagonist
	ant.RealIdentity = orDefault(ant.RealIdentity, "Villano Misterioso")
	ant.Motivation = orDefault(ant.Motivation, "Poder")
	ant.Objective = orDefault(ant.Objective, "Dominar la región")
	ant.Weakness = orDefault(ant.Weakness, "Su arrogancia")
	ant.PlannedReveal = "acto_3"
	ant.Resources = capList(ant.Resources, 5)
	ant.ForeshadowClues = capList(ant.ForeshadowClues, 4)

	for i := range b.Acts {
		act := &b.Acts[i]
		if act.Number == 0 {
			act.Number = i + 1
		}
		act.Name = orDefault(act.Name, fmt.Sprintf("Acto %d", i+1))
		if i == 0 {
			act.State = "activo"
		} else {
			act.State = "pendiente"
		}
		for j := range act.SeedScenes {
			sc := &act.SeedScenes[j]
			sc.ID = orDefault(sc.ID, fmt.Sprintf("escena_%d_%d", i+1, j+1))
			sc.Type = orDefault(sc.Type, "exploracion")
			if !sc.Mandatory {
				sc.Flexible = true
			}
			sc.Completed = false
		}
	}

	for i := range b.Revelations {
		rev := &b.Revelations[i]
		rev.ID = orDefault(rev.ID, fmt.Sprintf("rev_%d", i+1))
		rev.Importance = orDefault(rev.Importance, "importante")
		if rev.Act < 1 {
			rev.Act = 1
		}
		rev.Discovered = false

		guaranteed := false
		for j := range rev.Clues {
			c := &rev.Clues[j]
			c.ID = orDefault(c.ID, fmt.Sprintf("pista_%d", j+1))
			c.Type = orDefault(c.Type, "fisica")
			c.Found = false
			guaranteed = guaranteed || c.Guaranteed
		}
		// Three-Clue guarantee: one clue is always handed over.
		if !guaranteed && len(rev.Clues) > 0 {
			rev.Clues[0].Guaranteed = true
		}
	}

	for i := range b.KeyNPCs {
		npc := &b.KeyNPCs[i]
		npc.Name = orDefault(npc.Name, "NPC Misterioso")
		npc.Role = orDefault(npc.Role, "Neutral")
		npc.InitialAttitude = orDefault(npc.InitialAttitude, "neutral")
		npc.CurrentAttitude = npc.InitialAttitude
		npc.State = "vivo"
		npc.KnownByPC = false
		npc.Interactions = []any{}
	}

	for i := range b.Clocks {
		clock := &b.Clocks[i]
		clock.Name = orDefault(clock.Name, "Reloj")
		if clock.TotalSegments <= 0 {
			clock.TotalSegments = 6
		}
		clock.CurrentSegments = 0
		clock.VisibleToPlayer = false
		clock.Active = true
	}

	for i := range b.SideQuests {
		sq := &b.SideQuests[i]
		sq.ID = orDefault(sq.ID, fmt.Sprintf("sq_%d", i+1))
		sq.State = "no_descubierta"
	}

	b.Contract = ConsistencyContract{
		Canon: []string{
			"Geografía y lugares de Faerûn mencionados",
			"Identidad y motivación del antagonista",
			"NPCs clave y su estado (vivo/muerto)",
			"Pistas descubiertas",
			"Eventos importantes ocurridos",
		},
		Flexible: []string{
			"Orden de escenas dentro de cada acto",
			"Número exacto de enemigos en encuentros",
			"NPCs secundarios y figurantes",
			"Ubicación exacta de pistas no descubiertas",
		},
		Impro: []string{
			"Descripciones ambientales",
			"Diálogos exactos",
			"Clima y hora del día",
			"Pequeños obstáculos narrativos",
		},
	}
}

// Region is a Faerûn starting region.
type Region struct {
	ID             string   `json:"id"`
	Name           string   `json:"nombre"`
	Description    string   `json:"descripcion"`
	Cities         []string `json:"ciudades"`
	Factions       []string `json:"facciones"`
	TypicalThreats []string `json:"amenazas_tipicas"`
}

var regions = map[string]Region{
	"costa_espada": {
		ID:             "costa_espada",
		Name:           "Costa de la Espada",
		Description:    "La región más cosmopolita de Faerûn. Incluye Aguas Profundas, Neverwinter, Puerta de Baldur y Luskan.",
		Cities:         []string{"Aguas Profundas", "Neverwinter", "Puerta de Baldur", "Luskan", "Mirabar"},
		Factions:       []string{"Lords de Aguas Profundas", "Arpistas", "Zhentarim", "Enclave Esmeralda"},
		TypicalThreats: []string{"Piratas", "Zhentarim", "Cultos demoníacos", "Dragones"},
	},
	"el_norte": {
		ID:             "el_norte",
		Name:           "El Norte Salvaje",
		Description:    "Tierras heladas y peligrosas. Diez Ciudades, Valle del Viento Helado, Mithral Hall.",
		Cities:         []string{"Diez Ciudades", "Mithral Hall", "Lonelywood", "Bryn Shander"},
		Factions:       []string{"Bárbaros Uthgardt", "Enanos de Mithral Hall", "Reghed"},
		TypicalThreats: []string{"Gigantes de escarcha", "Orcos", "Dragones blancos", "El frío"},
	},
	"cormyr": {
		ID:             "cormyr",
		Name:           "Cormyr",
		Description:    "El reino del Dragón Púrpura. Tierra de caballeros, nobles y política.",
		Cities:         []string{"Suzail", "Marsember", "Arabel", "Tilverton"},
		Factions:       []string{"Corona de Cormyr", "Caballeros Púrpura", "Magos de Guerra"},
		TypicalThreats: []string{"Intrigas nobles", "Shadovar", "Monstruos del Bosque Hullack"},
	},
	"tierras_valles": {
		ID:             "tierras_valles",
		Name:           "Tierras de los Valles",
		Description:    "Valles semi-independientes entre grandes poderes. Tierra de aventureros.",
		Cities:         []string{"Arroyo de la Sombra", "Valle de la Daga", "Tantras"},
		Factions:       []string{"Arpistas", "Zhentarim", "Culto del Dragón"},
		TypicalThreats: []string{"Zhentarim", "Drow", "Culto del Dragón", "Bandidos"},
	},
	"calimshan": {
		ID:             "calimshan",
		Name:           "Calimshan",
		Description:    "Tierras del sur, influencia árabe/persa. Genios, mercaderes, intrigas.",
		Cities:         []string{"Calimport", "Memnon", "Almraiven"},
		Factions:       []string{"Pashas mercantes", "Gremios de ladrones", "Vinculadores de genios"},
		TypicalThreats: []string{"Genios malignos", "Esclavistas", "Asesinos", "Política de pashas"},
	},
}

// RegionInfo resolves a region by ID, defaulting to the Sword Coast.
func RegionInfo(id string) Region {
	if r, ok := regions[id]; ok {
		return r
	}
	return regions["costa_espada"]
}

// ListRegions enumerates the known regions sorted by ID.
func ListRegions() []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
