package bible

import (
	"fmt"
	"strings"
)

// DMView is the filtered briefing handed to the narrator model. It
// hides the antagonist's identity until the planned reveal act and
// only surfaces material for the act in progress.
type DMView struct {
	Meta         ViewMeta         `json:"meta"`
	Situation    Situation        `json:"situacion_actual"`
	Shadow       AntagonistShadow `json:"antagonista_sombra"`
	ActInfo      ActInfo          `json:"acto_actual_info"`
	NPCsInScene  []NPCView        `json:"pnj_en_escena"`
	Pending      []PendingReveal  `json:"revelaciones_pendientes"`
	Clocks       []ClockView      `json:"relojes_visibles"`
	ActiveCanon  []string         `json:"canon_activo"`
	FlexibleNow  []string         `json:"flexible_actual"`
	ToneReminder ToneReminder     `json:"recordatorios_tono"`
}

// ViewMeta carries the adventure headline facts.
type ViewMeta struct {
	CurrentAct    int    `json:"acto_actual"`
	AdventureType string `json:"tipo_aventura"`
	PCName        string `json:"pj_nombre"`
	PCLevel       int    `json:"nivel_pj"`
}

// Situation summarizes where the story stands right now.
type Situation struct {
	ImmediateGoal string `json:"objetivo_inmediato"`
	Location      string `json:"ubicacion"`
	ActiveThreat  string `json:"amenaza_activa"`
	Tension       string `json:"tension_actual"`
}

// AntagonistShadow is the vague silhouette the DM may hint at. The
// identity fields stay empty until the reveal act.
type AntagonistShadow struct {
	VagueDescription string   `json:"descripcion_vaga"`
	CluesToSeed      []string `json:"pistas_para_sembrar"`
	VisibleResources []string `json:"recursos_visibles"`
	RevealAvailable  bool     `json:"revelacion_disponible"`
	RealIdentity     string   `json:"identidad_real,omitempty"`
	Motivation       string   `json:"motivacion,omitempty"`
	Weakness         string   `json:"debilidad,omitempty"`
}

// ActInfo describes the running act and its seed scenes.
type ActInfo struct {
	Number          int         `json:"numero"`
	Name            string      `json:"nombre"`
	Objective       string      `json:"objetivo"`
	AvailableScenes []SceneView `json:"escenas_disponibles"`
	PlannedClimax   string      `json:"climax_previsto"`
	Progress        string      `json:"progreso"`
}

// SceneView is a seed scene as the DM sees it.
type SceneView struct {
	ID          string `json:"id"`
	Type        string `json:"tipo"`
	Description string `json:"descripcion"`
	Completed   bool   `json:"completada"`
}

// NPCView masks antagonist roles and replaces secrets with a hint.
type NPCView struct {
	Name        string `json:"nombre"`
	VisibleRole string `json:"rol_visible"`
	Attitude    string `json:"actitud_actual"`
	Location    string `json:"ubicacion"`
	SecretHint  string `json:"secreto_hint,omitempty"`
}

// PendingReveal is an undiscovered revelation with the clues the DM
// may still plant.
type PendingReveal struct {
	ID             string   `json:"id"`
	GuaranteedClue string   `json:"pista_garantizada,omitempty"`
	OptionalClues  []string `json:"pistas_opcionales"`
	Delivered      bool     `json:"entregada"`
}

// ClockView is an active clock with a coarse urgency reading.
type ClockView struct {
	Name     string `json:"nombre"`
	Segments string `json:"segmentos"`
	Urgency  string `json:"urgencia"`
	Advances string `json:"que_avanza"`
}

// ToneReminder keeps the DM on-tone between turns.
type ToneReminder struct {
	Lethality       string `json:"letalidad"`
	FailureHandling string `json:"como_resolver_fallos"`
	CombatFrequency string `json:"frecuencia_combate"`
}

const failureHandling = "Los fallos generan costes y complicaciones, pero la historia siempre avanza"

// View builds the spoiler-filtered DM briefing from the full bible.
func View(b *Bible) DMView {
	act := b.CurrentAct()
	return DMView{
		Meta: ViewMeta{
			CurrentAct:    act,
			AdventureType: b.Meta.AdventureType,
			PCName:        b.Meta.PCName,
			PCLevel:       b.Meta.PCLevel,
		},
		Situation:   situation(b, act),
		Shadow:      shadow(b, act),
		ActInfo:     actInfo(b, act),
		NPCsInScene: npcViews(b),
		Pending:     pendingReveals(b, act),
		Clocks:      clockViews(b),
		ActiveCanon: b.Contract.Canon,
		FlexibleNow: b.Contract.Flexible,
		ToneReminder: ToneReminder{
			Lethality:       orDefault(b.SoloBalance.Lethality, "media"),
			FailureHandling: failureHandling,
			CombatFrequency: orDefault(b.SoloBalance.Combat.EncountersPerAct, "2-3"),
		},
	}
}

func findAct(b *Bible, number int) *Act {
	for i := range b.Acts {
		if b.Acts[i].Number == number {
			return &b.Acts[i]
		}
	}
	return nil
}

func situation(b *Bible, act int) Situation {
	goal := ""
	if a := findAct(b, act); a != nil {
		goal = a.Objective
	}
	return Situation{
		ImmediateGoal: goal,
		Location:      b.Meta.StartRegion,
		ActiveThreat:  fmt.Sprintf("Una conspiración %s amenaza la ciudad", orDefault(b.Antagonist.Facade, "misteriosa")),
		Tension:       "media",
	}
}

func shadow(b *Bible, act int) AntagonistShadow {
	ant := b.Antagonist
	s := AntagonistShadow{
		VagueDescription: fmt.Sprintf("Una figura con conexiones en %s", orDefault(ant.Facade, "los círculos de poder")),
		CluesToSeed:      capList(ant.ForeshadowClues, 2),
		VisibleResources: capList(ant.Resources, 2),
		RevealAvailable:  act >= ant.RevealAct(),
	}
	if s.RevealAvailable {
		s.RealIdentity = ant.RealIdentity
		s.Motivation = ant.Motivation
		s.Weakness = ant.Weakness
	}
	return s
}

func actInfo(b *Bible, act int) ActInfo {
	a := findAct(b, act)
	if a == nil {
		return ActInfo{}
	}
	scenes := make([]SceneView, 0, len(a.SeedScenes))
	for _, sc := range a.SeedScenes {
		scenes = append(scenes, SceneView{
			ID:          sc.ID,
			Type:        sc.Type,
			Description: sc.Description,
			Completed:   sc.Completed,
		})
	}
	return ActInfo{
		Number:          act,
		Name:            a.Name,
		Objective:       a.Objective,
		AvailableScenes: scenes,
		PlannedClimax:   a.Climax,
		Progress:        "inicio",
	}
}

func npcViews(b *Bible) []NPCView {
	views := make([]NPCView, 0, len(b.KeyNPCs))
	for _, npc := range b.KeyNPCs {
		if npc.State == "muerto" {
			continue
		}
		role := npc.Role
		if isAntagonistRole(role) {
			role = "Noble local"
		}
		v := NPCView{
			Name:        npc.Name,
			VisibleRole: role,
			Attitude:    orDefault(npc.CurrentAttitude, npc.InitialAttitude),
			Location:    npc.Location,
		}
		if npc.Secret != "" {
			v.SecretHint = "Parece ocultar algo..."
		}
		views = append(views, v)
	}
	return views
}

func pendingReveals(b *Bible, act int) []PendingReveal {
	pending := make([]PendingReveal, 0, len(b.Revelations))
	for _, rev := range b.Revelations {
		if rev.Discovered || rev.Act > act {
			continue
		}
		p := PendingReveal{ID: rev.ID, OptionalClues: []string{}}
		for _, clue := range rev.Clues {
			if clue.Guaranteed {
				if p.GuaranteedClue == "" {
					p.GuaranteedClue = clue.Description
				}
				continue
			}
			if !clue.Found && len(p.OptionalClues) < 2 {
				p.OptionalClues = append(p.OptionalClues, clue.Description)
			}
		}
		pending = append(pending, p)
	}
	return pending
}

func clockViews(b *Bible) []ClockView {
	views := make([]ClockView, 0, len(b.Clocks))
	for _, clock := range b.Clocks {
		if !clock.Active {
			continue
		}
		total := clock.TotalSegments
		if total <= 0 {
			total = 6
		}
		views = append(views, ClockView{
			Name:     clock.Name,
			Segments: fmt.Sprintf("%d/%d", clock.CurrentSegments, total),
			Urgency:  clockUrgency(clock.CurrentSegments, total),
			Advances: clock.Advances,
		})
	}
	return views
}

func isAntagonistRole(role string) bool {
	return strings.Contains(strings.ToLower(role), "antagonista")
}

func clockUrgency(current, total int) string {
	ratio := float64(current) / float64(total)
	switch {
	case ratio >= 0.75:
		return "critica"
	case ratio >= 0.5:
		return "alta"
	case ratio >= 0.25:
		return "media"
	default:
		return "baja"
	}
}
