// Package bible owns the adventure bible: the pre-generated story
// document the game master improvises against. The full bible (with
// spoilers) lives on disk next to an append-only patch log; the
// in-play side only ever sees the filtered DM view.
package bible

import "fmt"

// Bible is the complete adventure document, spoilers included.
type Bible struct {
	Meta           Meta                `json:"meta"`
	SoloBalance    SoloBalance         `json:"balance_solitario"`
	Logline        string              `json:"logline"`
	MainQuest      MainQuest           `json:"main_quest"`
	Antagonist     Antagonist          `json:"antagonista"`
	Acts           []Act               `json:"actos"`
	Revelations    []Revelation        `json:"revelaciones"`
	KeyNPCs        []NPC               `json:"pnj_clave"`
	Clocks         []Clock             `json:"relojes"`
	SideQuests     []SideQuest         `json:"side_quests"`
	PlannedRewards []Reward            `json:"recompensas_previstas"`
	Contract       ConsistencyContract `json:"contrato_consistencia"`
}

// Meta identifies the adventure and the character it was built for.
type Meta struct {
	ID            string `json:"id"`
	Generated     string `json:"generada"`
	AdventureType string `json:"tipo_aventura"`
	PCName        string `json:"pj_nombre"`
	PCID          string `json:"pj_id"`
	PCLevel       int    `json:"nivel_pj"`
	Setting       string `json:"ambientacion"`
	StartRegion   string `json:"region_inicial"`
}

// MainQuest is the spine of the adventure. State tracks the current
// act as "acto_N".
type MainQuest struct {
	FinalObjective string `json:"objetivo_final"`
	Stakes         string `json:"por_que_importa"`
	State          string `json:"estado"`
	InitialHook    string `json:"gancho_inicial"`
}

// Antagonist is the hidden villain. The real identity stays out of
// the DM view until the planned reveal act.
type Antagonist struct {
	RealIdentity    string   `json:"identidad_real"`
	Facade          string   `json:"fachada"`
	Motivation      string   `json:"motivacion"`
	Objective       string   `json:"objetivo"`
	Resources       []string `json:"recursos"`
	Weakness        string   `json:"debilidad"`
	PlannedReveal   string   `json:"revelacion_prevista"`
	ForeshadowClues []string `json:"pistas_foreshadowing"`
}

// Act is one of the adventure's acts with its seed scenes.
type Act struct {
	Number         int     `json:"numero"`
	Name           string  `json:"nombre"`
	Objective      string  `json:"objetivo"`
	State          string  `json:"estado"`
	SeedScenes     []Scene `json:"escenas_semilla"`
	Climax         string  `json:"climax"`
	NextTransition string  `json:"transicion_siguiente"`
}

// Scene is a seed scene inside an act. Mandatory scenes anchor the
// act; flexible ones may be reordered or dropped.
type Scene struct {
	ID          string `json:"id"`
	Type        string `json:"tipo"`
	Description string `json:"descripcion"`
	Mandatory   bool   `json:"obligatoria"`
	Flexible    bool   `json:"flexible"`
	Completed   bool   `json:"completada"`
}

// Revelation is a piece of plot truth gated behind clues.
type Revelation struct {
	ID         string `json:"id"`
	Content    string `json:"contenido"`
	Importance string `json:"importancia"`
	Act        int    `json:"acto"`
	Discovered bool   `json:"descubierta"`
	Clues      []Clue `json:"pistas"`
}

// Clue is one path to a revelation. At least one clue per revelation
// is guaranteed: it is handed over without a roll.
type Clue struct {
	ID          string `json:"id"`
	Type        string `json:"tipo"`
	Description string `json:"descripcion"`
	Where       string `json:"donde"`
	DC          *int   `json:"cd_obtener,omitempty"`
	Guaranteed  bool   `json:"garantizada"`
	Found       bool   `json:"encontrada"`
}

// NPC is a key non-player character. Dead NPCs stay in the document
// (state muerto) so canon survives.
type NPC struct {
	Name            string `json:"nombre"`
	Role            string `json:"rol"`
	Description     string `json:"descripcion_breve"`
	Secret          string `json:"secreto"`
	InitialAttitude string `json:"actitud_inicial"`
	CurrentAttitude string `json:"actitud_actual"`
	Location        string `json:"ubicacion"`
	State           string `json:"estado"`
	KnownByPC       bool   `json:"conocido_por_pj"`
	Interactions    []any  `json:"interacciones"`
}

// Clock is a progress clock building background tension.
type Clock struct {
	Name            string `json:"nombre"`
	Description     string `json:"descripcion"`
	TotalSegments   int    `json:"segmentos_total"`
	CurrentSegments int    `json:"segmentos_actual"`
	Advances        string `json:"que_avanza"`
	OnComplete      string `json:"que_pasa_al_completar"`
	VisibleToPlayer bool   `json:"visible_al_jugador"`
	Active          bool   `json:"activo"`
}

// SideQuest is an optional thread that may escalate into the main
// plot.
type SideQuest struct {
	ID            string `json:"id"`
	Hook          string `json:"gancho"`
	Reveals       string `json:"que_revela"`
	Escalation    string `json:"como_escala"`
	MainPotential bool   `json:"potencial_main"`
	State         string `json:"estado"`
	Reward        string `json:"recompensa"`
}

// Reward is a planned treasure drop.
type Reward struct {
	What string `json:"que"`
	When string `json:"cuando"`
}

// ConsistencyContract splits the world into what must never change
// (canon), what may bend (flexible) and what the DM improvises freely
// (impro).
type ConsistencyContract struct {
	Canon    []string `json:"canon"`
	Flexible []string `json:"flexible"`
	Impro    []string `json:"impro"`
}

// SoloBalance tunes the adventure for a single character at the
// table.
type SoloBalance struct {
	TargetDifficulty string          `json:"dificultad_objetivo"`
	Lethality        string          `json:"letalidad"`
	Combat           CombatBalance   `json:"combate"`
	Obstacles        ObstacleBalance `json:"obstaculos"`
}

// CombatBalance bounds encounter design for solo play.
type CombatBalance struct {
	EncountersPerAct string `json:"encuentros_por_acto"`
	MaxEnemies       int    `json:"enemigos_max_por_encuentro"`
	MaxIndividualCR  int    `json:"cr_max_individual"`
	RestsBetween     bool   `json:"descansos_entre_encuentros"`
}

// ObstacleBalance bounds non-combat challenge DCs.
type ObstacleBalance struct {
	TypicalDC         string `json:"cd_tipica"`
	MaxDC             int    `json:"cd_maxima"`
	AlwaysAlternative bool   `json:"siempre_alternativa"`
}

// CurrentAct derives the act number from the main quest state
// ("acto_N"). Malformed states read as act 1.
func (b *Bible) CurrentAct() int {
	return actNumber(b.MainQuest.State, 1)
}

// RevealAct is the act at which the antagonist's identity may be
// surfaced. Malformed values read as act 3.
func (a Antagonist) RevealAct() int {
	return actNumber(a.PlannedReveal, 3)
}

func actNumber(state string, fallback int) int {
	var n int
	if _, err := fmt.Sscanf(state, "acto_%d", &n); err != nil || n < 1 {
		return fallback
	}
	return n
}
