package orchestrator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/combat"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/narrator"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rolls"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/tools"
)

// CombatRunner drives an encounter to its end: player turns through
// the action pipeline, enemy turns through stat-block AI, narration
// on top of both. Sheet HP syncs back when the encounter closes.
type CombatRunner struct {
	engine *combat.Engine
	narr   *narrator.Narrator
	roller *dice.Roller
	comp   *compendium.Adapter
	prog   *character.Progression
	sheet  *character.Sheet
	log    *slog.Logger
	fled   bool
}

// NewCombatRunner wraps a started encounter engine. A nil narrator
// gets replaced by the model-less fallback narrator; a nil
// progression means no XP is awarded.
func NewCombatRunner(engine *combat.Engine, narr *narrator.Narrator, roller *dice.Roller,
	comp *compendium.Adapter, prog *character.Progression, sheet *character.Sheet) *CombatRunner {

	if narr == nil {
		narr = narrator.New(nil, narrator.StyleCasual)
	}
	return &CombatRunner{
		engine: engine,
		narr:   narr,
		roller: roller,
		comp:   comp,
		prog:   prog,
		sheet:  sheet,
		log:    logger.GetLogger("orchestrator"),
	}
}

// FromGame builds a runner from the shared game context, reusing the
// engine that iniciar_combate installed on it.
func FromGame(game *tools.GameContext, narr *narrator.Narrator, prog *character.Progression) (*CombatRunner, error) {
	if game.Combat == nil {
		return nil, fmt.Errorf("no hay combate activo")
	}
	return NewCombatRunner(game.Combat, narr, game.Roller, game.Compendium, prog, game.Sheet), nil
}

// TurnInfo says whose turn it is.
type TurnInfo struct {
	Round     int    `json:"ronda"`
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_nombre"`
	IsPlayer  bool   `json:"es_jugador"`
	Finished  bool   `json:"terminado"`
}

// Current reports the turn about to run.
func (r *CombatRunner) Current() TurnInfo {
	info := TurnInfo{Round: r.engine.Round(), Finished: r.Finished()}
	if actor := r.engine.CurrentTurn(); actor != nil {
		info.ActorID = actor.ID
		info.ActorName = actor.Name
		info.IsPlayer = actor.Side == combat.SidePC
	}
	return info
}

// Finished reports whether the encounter is over, by engine state or
// because the player fled.
func (r *CombatRunner) Finished() bool {
	return r.fled || r.engine.Finished()
}

// PlayerTurnResult is the outcome of one player action attempt.
type PlayerTurnResult struct {
	Outcome   pipeline.Outcome `json:"tipo"`
	Narration string           `json:"narracion"`
	Question  string           `json:"pregunta,omitempty"`
	Options   []string         `json:"opciones,omitempty"`
	Advanced  bool             `json:"turno_consumido"`
}

// PlayerTurn runs one free-text player action. Clarification requests
// and rejections do not consume the turn; an applied action advances
// to the next combatant.
func (r *CombatRunner) PlayerTurn(input string) PlayerTurnResult {
	result := r.engine.ProcessAction(input)

	out := PlayerTurnResult{Outcome: result.Outcome}
	out.Narration = r.narrate(result)

	switch result.Outcome {
	case pipeline.NeedsClarification:
		out.Question = result.Question
		for _, opt := range result.Options {
			out.Options = append(out.Options, opt.Label)
		}
	case pipeline.ActionApplied:
		r.engine.NextTurn()
		out.Advanced = true
	}
	return out
}

// EnemyTurn plays the current enemy with stat-block AI: first attack
// action against the player character, basic claws when the block has
// none. Incapacitated actors just pass.
func (r *CombatRunner) EnemyTurn() (string, error) {
	actor := r.engine.CurrentTurn()
	if actor == nil {
		return "", fmt.Errorf("no hay combatiente en turno")
	}
	if actor.Side == combat.SidePC {
		return "", fmt.Errorf("es el turno del jugador")
	}
	defer r.engine.NextTurn()

	if !actor.CanAct() {
		return fmt.Sprintf("%s no puede actuar este turno.", actor.Name), nil
	}

	target := r.playerCombatant()
	if target == nil || !target.Alive() {
		return fmt.Sprintf("%s busca un objetivo, pero no queda nadie en pie.", actor.Name), nil
	}

	action := pickAttack(actor)
	hit, err := rolls.ResolveMonsterAttack(r.roller, action, target.ArmorClass, dice.Normal)
	if err != nil {
		return "", fmt.Errorf("resolviendo ataque de %s: %w", actor.Name, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎲 %s ataca con %s: %d contra CA %d", actor.Name, action.Name, hit.AttackRoll.Total, target.ArmorClass)
	if hit.Critical {
		b.WriteString(" ¡CRÍTICO!")
	}
	if !hit.Hits {
		b.WriteString(" — falla.")
		return b.String(), nil
	}

	r.engine.ApplyDamage(target.ID, hit.DamageTotal)
	fmt.Fprintf(&b, "\n💥 Daño: %d (%s)", hit.DamageTotal, orDefault(hit.DamageType, "contundente"))
	if !target.Alive() || !target.CanAct() {
		fmt.Fprintf(&b, "\n💀 ¡%s cae!", target.Name)
	} else {
		fmt.Fprintf(&b, " — %s queda a %d/%d HP.", target.Name, target.CurrentHP, target.MaxHP)
	}
	r.log.Debug("turno enemigo", "actor", actor.Name, "impacta", hit.Hits, "daño", hit.DamageTotal)
	return b.String(), nil
}

// Flee ends the encounter without resolution. XP is forfeited.
func (r *CombatRunner) Flee() string {
	r.fled = true
	return "Huyes del combate. Los enemigos quedan atrás... por ahora."
}

// CombatResult summarizes a finished encounter.
type CombatResult struct {
	Victory  bool                   `json:"victoria"`
	Fled     bool                   `json:"huida"`
	Defeated []string               `json:"enemigos_derrotados"`
	FinalHP  int                    `json:"hp_final"`
	MaxHP    int                    `json:"hp_max"`
	XP       int                    `json:"xp_ganada"`
	Rounds   int                    `json:"rondas_totales"`
	Summary  string                 `json:"resumen_narrativo"`
	Award    *character.AwardResult `json:"progresion,omitempty"`
}

// Result closes the books on the encounter: defeated-enemy roster, XP
// from the compendium stat blocks, sheet HP sync and the XP award.
func (r *CombatRunner) Result() CombatResult {
	res := CombatResult{
		Victory: r.engine.State() == combat.StateVictory,
		Fled:    r.fled,
		Rounds:  r.engine.Round(),
	}

	for _, c := range r.engine.Combatants() {
		if c.Side == combat.SideEnemy && !c.Alive() {
			res.Defeated = append(res.Defeated, c.Name)
			res.XP += r.monsterXP(c)
		}
	}

	if pc := r.playerCombatant(); pc != nil {
		res.FinalHP = pc.CurrentHP
		res.MaxHP = pc.MaxHP
		if r.sheet != nil {
			r.sheet.Derived.CurrentHP = pc.CurrentHP
		}
	}

	switch {
	case res.Fled:
		res.XP = 0
		res.Summary = "El grupo escapa del combate sin resolverlo."
	case res.Victory:
		res.Summary = fmt.Sprintf("Victoria en %d rondas. Enemigos derrotados: %s.",
			res.Rounds, strings.Join(res.Defeated, ", "))
	default:
		res.Summary = "El combate termina en derrota."
	}

	if res.Victory && res.XP > 0 && r.prog != nil && r.sheet != nil {
		award := r.prog.AwardXP(r.sheet, res.XP)
		res.Award = &award
	}
	return res
}

func (r *CombatRunner) playerCombatant() *combat.Combatant {
	for _, c := range r.engine.Combatants() {
		if c.Side == combat.SidePC {
			return c
		}
	}
	return nil
}

func (r *CombatRunner) monsterXP(c *combat.Combatant) int {
	if c.CompendiumRef == "" || r.comp == nil {
		return 0
	}
	if m, ok := r.comp.Store().Monster(c.CompendiumRef); ok {
		return m.Experience
	}
	return 0
}

func (r *CombatRunner) narrate(result *pipeline.Result) string {
	if result.Outcome == pipeline.InternalError {
		return fmt.Sprintf("⚠ Error interno: %s", result.Err)
	}
	reply := r.narr.Narrate(narrator.FromCombat(r.engine, result))
	if reply.Narration != "" {
		return reply.Narration
	}
	return reply.SystemFeedback
}

// pickAttack chooses the enemy's action: the first stat-block attack,
// or an improvised strike when the block has none.
func pickAttack(actor *combat.Combatant) compendium.MonsterAction {
	for _, a := range actor.Actions {
		if a.IsAttack() {
			return a
		}
	}
	zero := 0
	return compendium.MonsterAction{
		Name:        "golpe",
		AttackBonus: &zero,
		Damage:      "1d6",
		DamageType:  "contundente",
	}
}
