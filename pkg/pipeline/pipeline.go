// Package pipeline glues the normaliser, validator and roll resolvers
// into the single entry point that processes one player action: text
// in, clarification question / rejection / applied events out.
//
// The LLM never decides rules here. It connects at exactly two
// points: the normaliser fallback for ambiguous text, and the
// narration callback after events are generated.
package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rolls"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/validator"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/vocab"
)

// Outcome classifies the result of processing one player action.
type Outcome string

const (
	NeedsClarification Outcome = "necesita_clarificar"
	ActionRejected     Outcome = "accion_rechazada"
	ActionApplied      Outcome = "accion_aplicada"
	InternalError      Outcome = "error_interno"
)

// Event is the structured record of something that happened during
// execution. Events are the currency of the system: the engine logs
// them and the narrator turns them into prose.
type Event struct {
	Type      string         `json:"tipo"`
	ActorID   string         `json:"actor_id"`
	Data      map[string]any `json:"datos"`
	Timestamp time.Time      `json:"timestamp"`
}

// Event types emitted by execution.
const (
	EventAttackMade     = "ataque_realizado"
	EventDamageComputed = "daño_calculado"
	EventSpellCast      = "conjuro_lanzado"
	EventMovementDone   = "movimiento_realizado"
	EventSkillCheck     = "prueba_habilidad"
	EventGenericAction  = "accion_generica"
)

// Option is one answer the player can pick to clarify an ambiguous
// action.
type Option struct {
	ID    string         `json:"id"`
	Label string         `json:"texto"`
	Data  map[string]any `json:"datos"`
}

// Result is the outcome of one pipeline run. Fields beyond Outcome
// are populated according to the outcome kind.
type Result struct {
	Outcome Outcome `json:"tipo"`

	// NeedsClarification
	Question      string             `json:"pregunta,omitempty"`
	Options       []Option           `json:"opciones,omitempty"`
	PartialAction *normalizer.Action `json:"accion_parcial,omitempty"`

	// ActionRejected
	Reason     string `json:"motivo,omitempty"`
	Suggestion string `json:"sugerencia,omitempty"`

	// ActionApplied
	Events        []Event `json:"eventos,omitempty"`
	Delta         *Delta  `json:"cambios_estado,omitempty"`
	NarrationHint string  `json:"mensaje_dm,omitempty"`

	// InternalError
	Err string `json:"error,omitempty"`

	Action     *normalizer.Action `json:"accion,omitempty"`
	Validation *validator.Result  `json:"validacion,omitempty"`
}

// NarratorFunc turns a batch of events into DM prose. Optional: when
// nil the narration hint stays empty and the orchestrator narrates.
type NarratorFunc func(events []Event, scene *normalizer.SceneContext) string

// Pipeline processes player actions against the live scene.
type Pipeline struct {
	comp     *compendium.Adapter
	norm     *normalizer.Normalizer
	valid    *validator.Validator
	roller   *dice.Roller
	narrator NarratorFunc
}

// New wires a pipeline. llm may be nil (no normaliser fallback) and
// narrator may be nil (no narration hint).
func New(comp *compendium.Adapter, roller *dice.Roller, llm normalizer.LLMFunc,
	narrator NarratorFunc, strictEquipment bool) *Pipeline {

	return &Pipeline{
		comp:     comp,
		norm:     normalizer.New(comp, llm),
		valid:    validator.New(comp, strictEquipment),
		roller:   roller,
		narrator: narrator,
	}
}

// Process runs the full flow for one player action: normalise, ask
// for clarification if ambiguous, validate, execute. Panics during
// dispatch surface as an internal-error result instead of crashing
// the session.
func (p *Pipeline) Process(text string, scene *normalizer.SceneContext) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &Result{Outcome: InternalError, Err: fmt.Sprint(r)}
		}
	}()

	action := p.norm.Normalize(text, scene)

	if action.NeedsClarification {
		return p.clarify(action, scene)
	}

	validation := p.validate(action, scene)
	if !validation.Valid {
		return &Result{
			Outcome:    ActionRejected,
			Reason:     validation.Reason,
			Suggestion: p.suggest(validation, scene),
			Action:     action,
			Validation: &validation,
		}
	}

	events, delta, err := p.execute(action, scene)
	if err != nil {
		return &Result{Outcome: InternalError, Err: err.Error(), Action: action}
	}

	hint := ""
	if p.narrator != nil {
		hint = p.narrator(events, scene)
	}

	return &Result{
		Outcome:       ActionApplied,
		Events:        events,
		Delta:         delta,
		NarrationHint: hint,
		Action:        action,
		Validation:    &validation,
	}
}

// clarify builds the question and options for an ambiguous action.
// Options are always drawn from the live scene so the player can
// never pick something the validator would later reject.
func (p *Pipeline) clarify(action *normalizer.Action, scene *normalizer.SceneContext) *Result {
	question := ""
	var options []Option

	missing := func(field string) bool {
		for _, m := range action.Missing {
			if m == field {
				return true
			}
		}
		return false
	}

	switch action.Kind {
	case normalizer.KindAttack:
		if missing("objetivo_id") {
			question = "¿A quién quieres atacar?"
			for _, enemy := range scene.LivingEnemies {
				options = append(options, Option{
					ID:    enemy.InstanceID,
					Label: enemy.Name,
					Data:  map[string]any{"tipo": "objetivo", "ref": enemy.CompendiumRef},
				})
			}
		} else if missing("arma_id") {
			question = "¿Con qué arma quieres atacar?"
			for _, weapon := range scene.AvailableWeapons {
				options = append(options, Option{
					ID:    weapon.ID,
					Label: weapon.Name,
					Data:  map[string]any{"tipo": "arma"},
				})
			}
			options = append(options, Option{
				ID:    "unarmed",
				Label: "Ataque desarmado",
				Data:  map[string]any{"tipo": "arma"},
			})
		}

	case normalizer.KindSpell:
		if missing("conjuro_id") {
			question = "¿Qué conjuro quieres lanzar?"
			for _, spell := range scene.KnownSpells {
				options = append(options, Option{
					ID:    spell.ID,
					Label: spell.Name,
					Data:  map[string]any{"tipo": "conjuro"},
				})
			}
		}

	case normalizer.KindSkill:
		if missing("habilidad") {
			question = "¿Qué habilidad quieres usar?"
			for _, skill := range rules.Skills {
				options = append(options, Option{
					ID:    skill,
					Label: skill,
					Data:  map[string]any{"tipo": "habilidad"},
				})
			}
		}

	case normalizer.KindMovement:
		if missing("distancia_pies") {
			question = "¿Cuántos pies quieres moverte?"
			for dist := 5; dist <= 30; dist += 5 {
				if dist <= scene.MovementLeft {
					options = append(options, Option{
						ID:    strconv.Itoa(dist),
						Label: fmt.Sprintf("%d pies", dist),
						Data:  map[string]any{"tipo": "distancia", "valor": dist},
					})
				}
			}
		}
	}

	if question == "" {
		question = "No entendí tu acción. ¿Qué quieres hacer?"
		options = []Option{
			{ID: "atacar", Label: "Atacar a un enemigo", Data: map[string]any{"tipo": "intencion"}},
			{ID: "conjuro", Label: "Lanzar un conjuro", Data: map[string]any{"tipo": "intencion"}},
			{ID: "mover", Label: "Moverme", Data: map[string]any{"tipo": "intencion"}},
			{ID: "habilidad", Label: "Usar una habilidad", Data: map[string]any{"tipo": "intencion"}},
		}
	}

	return &Result{
		Outcome:       NeedsClarification,
		Question:      question,
		Options:       options,
		PartialAction: action,
		Action:        action,
	}
}

// validate bridges the scene view into the validator's actor model
// and dispatches by action kind.
func (p *Pipeline) validate(action *normalizer.Action, scene *normalizer.SceneContext) validator.Result {
	actor := p.actorFromScene(scene)

	switch action.Kind {
	case normalizer.KindAttack:
		target := p.targetActor(str(action.Data["objetivo_id"]), scene)
		return p.valid.ValidateAttack(actor, target, str(action.Data["arma_id"]))

	case normalizer.KindSpell:
		target := p.targetActor(str(action.Data["objetivo_id"]), scene)
		return p.valid.ValidateSpell(actor, str(action.Data["conjuro_id"]), intval(action.Data["nivel_lanzamiento"]), target)

	case normalizer.KindMovement:
		// MovementLeft already discounts consumed movement, so the
		// validator sees zero used.
		return p.valid.ValidateMovement(actor, intval(action.Data["distancia_pies"]), 0)

	case normalizer.KindSkill:
		return p.valid.ValidateSkillCheck(actor, str(action.Data["habilidad"]))

	case normalizer.KindGeneric:
		return p.valid.ValidateGenericAction(genericKind(str(action.Data["accion_id"])), actor)

	case normalizer.KindItem:
		return p.valid.ValidateItemUse(actor, str(action.Data["objeto_id"]))
	}

	return validator.Result{Valid: true, Reason: "Acción permitida"}
}

func (p *Pipeline) actorFromScene(scene *normalizer.SceneContext) *validator.Actor {
	actor := &validator.Actor{
		Name:       scene.ActorName,
		SpellSlots: scene.AvailableSlots,
		Speed:      scene.MovementLeft,
	}
	if scene.MainWeapon != nil {
		actor.MainWeaponID = scene.MainWeapon.ID
	}
	if scene.OffhandWeapon != nil {
		actor.OffhandWeaponID = scene.OffhandWeapon.ID
	}
	for _, spell := range scene.KnownSpells {
		actor.KnownSpells = append(actor.KnownSpells, spell.ID)
		actor.PreparedSpells = append(actor.PreparedSpells, spell.ID)
	}
	return actor
}

// targetActor resolves a target ID against the living enemies. The
// scene only lists live creatures, so a found target is attackable.
func (p *Pipeline) targetActor(targetID string, scene *normalizer.SceneContext) *validator.Actor {
	if targetID == "" {
		return nil
	}
	for _, enemy := range scene.LivingEnemies {
		if enemy.InstanceID == targetID {
			hp := 1
			return &validator.Actor{Name: enemy.Name, CurrentHP: &hp}
		}
	}
	return nil
}

// execute runs a validated action and produces its events and state
// delta.
func (p *Pipeline) execute(action *normalizer.Action, scene *normalizer.SceneContext) ([]Event, *Delta, error) {
	switch action.Kind {
	case normalizer.KindAttack:
		return p.executeAttack(action, scene)
	case normalizer.KindSpell:
		return p.executeSpell(action, scene)
	case normalizer.KindMovement:
		return p.executeMovement(action, scene)
	case normalizer.KindSkill:
		return p.executeSkill(action, scene)
	case normalizer.KindGeneric:
		return p.executeGeneric(action, scene)
	}
	return nil, &Delta{}, nil
}

func (p *Pipeline) executeAttack(action *normalizer.Action, scene *normalizer.SceneContext) ([]Event, *Delta, error) {
	targetID := str(action.Data["objetivo_id"])
	mode := dice.Mode(str(action.Data["modo"]))
	if mode == "" {
		mode = dice.Normal
	}

	targetAC := 10
	for _, ref := range append(append([]normalizer.CombatantRef{}, scene.LivingEnemies...), scene.Allies...) {
		if ref.InstanceID == targetID && ref.ArmorClass > 0 {
			targetAC = ref.ArmorClass
			break
		}
	}

	// Monster actors attack through their stat-block action list
	// instead of inventory weapons.
	if monsterAction := pickMonsterAction(action, scene); monsterAction != nil {
		resolved, err := rolls.ResolveMonsterAttack(p.roller, *monsterAction, targetAC, mode)
		if err != nil {
			return nil, nil, err
		}
		return p.monsterAttackEvents(resolved, scene, targetID), attackDelta(resolved.Hits, targetID, resolved.DamageTotal, resolved.DamageType), nil
	}

	weaponID := str(action.Data["arma_id"])
	if weaponID == "" {
		weaponID = "unarmed"
	}

	var weapon *compendium.Weapon
	if weaponID != "unarmed" {
		if w, ok := p.comp.Store().Weapon(weaponID); ok {
			weapon = &w
		}
	}
	attackBonus, damageMod := rolls.WeaponBonuses(scene.Abilities, scene.ProficiencyBonus, weapon)

	resolved, err := rolls.ResolveWeaponAttack(p.roller, p.comp, weaponID, attackBonus, damageMod, targetAC, mode)
	if err != nil {
		return nil, nil, err
	}

	events := []Event{{
		Type:    EventAttackMade,
		ActorID: scene.ActorID,
		Data: map[string]any{
			"objetivo_id": targetID,
			"arma_id":     resolved.WeaponID,
			"arma_nombre": resolved.WeaponName,
			"tirada": map[string]any{
				"dados":       resolved.AttackRoll.Rolls,
				"modificador": resolved.AttackBonus,
				"total":       resolved.AttackRoll.Total,
				"tipo":        string(resolved.Mode),
			},
			"es_critico": resolved.Critical,
			"es_pifia":   resolved.Fumble,
			"impacta":    resolved.Hits,
		},
		Timestamp: time.Now(),
	}}

	if resolved.Hits {
		source := "arma"
		if resolved.WeaponID == "unarmed" {
			source = "desarmado"
		}
		events = append(events, Event{
			Type:    EventDamageComputed,
			ActorID: scene.ActorID,
			Data: map[string]any{
				"objetivo_id": targetID,
				"tirada": map[string]any{
					"expresion":   resolved.DamageExpr,
					"dados":       resolved.DamageRoll.Rolls,
					"modificador": resolved.DamageMod,
					"es_critico":  resolved.Critical,
				},
				"daño_total": resolved.DamageTotal,
				"tipo_daño":  resolved.DamageType,
				"fuente": map[string]any{
					"tipo":   source,
					"id":     resolved.WeaponID,
					"nombre": resolved.WeaponName,
				},
			},
			Timestamp: time.Now(),
		})
	}

	return events, attackDelta(resolved.Hits, targetID, resolved.DamageTotal, resolved.DamageType), nil
}

// pickMonsterAction chooses the stat-block action to attack with:
// explicit name match first, then the slug of the action name against
// the requested weapon ID, then melee over ranged.
func pickMonsterAction(action *normalizer.Action, scene *normalizer.SceneContext) *compendium.MonsterAction {
	if len(scene.MonsterActions) == 0 {
		return nil
	}

	if name := str(action.Data["ataque_nombre"]); name != "" {
		for i := range scene.MonsterActions {
			if strings.EqualFold(scene.MonsterActions[i].Name, name) {
				return &scene.MonsterActions[i]
			}
		}
	}

	if weaponID := str(action.Data["arma_id"]); weaponID != "" && weaponID != "unarmed" {
		for i := range scene.MonsterActions {
			if vocab.Slug(scene.MonsterActions[i].Name) == weaponID {
				return &scene.MonsterActions[i]
			}
		}
	}

	// Ranged actions carry a "long/short" reach like "80/320".
	var melee, ranged []*compendium.MonsterAction
	for i := range scene.MonsterActions {
		if strings.Contains(scene.MonsterActions[i].Reach, "/") {
			ranged = append(ranged, &scene.MonsterActions[i])
		} else {
			melee = append(melee, &scene.MonsterActions[i])
		}
	}
	if len(melee) > 0 {
		return melee[0]
	}
	if len(ranged) > 0 {
		return ranged[0]
	}
	return &scene.MonsterActions[0]
}

func (p *Pipeline) monsterAttackEvents(resolved *rolls.MonsterAttack, scene *normalizer.SceneContext, targetID string) []Event {
	events := []Event{{
		Type:    EventAttackMade,
		ActorID: scene.ActorID,
		Data: map[string]any{
			"objetivo_id": targetID,
			"arma_id":     nil,
			"arma_nombre": resolved.ActionName,
			"tirada": map[string]any{
				"dados":       resolved.AttackRoll.Rolls,
				"modificador": resolved.AttackBonus,
				"total":       resolved.AttackRoll.Total,
				"tipo":        string(resolved.Mode),
			},
			"es_critico": resolved.Critical,
			"es_pifia":   resolved.Fumble,
			"impacta":    resolved.Hits,
		},
		Timestamp: time.Now(),
	}}

	if resolved.Hits {
		events = append(events, Event{
			Type:    EventDamageComputed,
			ActorID: scene.ActorID,
			Data: map[string]any{
				"objetivo_id": targetID,
				"tirada": map[string]any{
					"expresion":   resolved.DamageExpr,
					"dados":       resolved.DamageRoll.Rolls,
					"modificador": resolved.DamageRoll.Modifier,
					"es_critico":  resolved.Critical,
				},
				"daño_total": resolved.DamageTotal,
				"tipo_daño":  resolved.DamageType,
				"fuente": map[string]any{
					"tipo":   "accion_monstruo",
					"id":     resolved.ActionName,
					"nombre": resolved.ActionName,
				},
			},
			Timestamp: time.Now(),
		})
	}

	return events
}

func attackDelta(hits bool, targetID string, damage int, damageType string) *Delta {
	delta := &Delta{ActionUsed: true}
	if hits {
		delta.DamageInflicted = &DamageDelta{
			TargetID: targetID,
			Amount:   damage,
			Type:     damageType,
		}
	}
	return delta
}

func (p *Pipeline) executeSpell(action *normalizer.Action, scene *normalizer.SceneContext) ([]Event, *Delta, error) {
	spellID := str(action.Data["conjuro_id"])
	name := spellID
	if spell, ok := p.comp.Store().Spell(spellID); ok {
		name = spell.Name
	}
	level := intval(action.Data["nivel_lanzamiento"])

	event := Event{
		Type:    EventSpellCast,
		ActorID: scene.ActorID,
		Data: map[string]any{
			"conjuro_id":  spellID,
			"nombre":      name,
			"nivel":       level,
			"objetivo_id": action.Data["objetivo_id"],
		},
		Timestamp: time.Now(),
	}

	delta := &Delta{ActionUsed: true}
	if level > 0 {
		delta.SlotSpent = &SlotDelta{Level: level, Count: 1}
	}

	return []Event{event}, delta, nil
}

func (p *Pipeline) executeMovement(action *normalizer.Action, scene *normalizer.SceneContext) ([]Event, *Delta, error) {
	distance := intval(action.Data["distancia_pies"])

	event := Event{
		Type:    EventMovementDone,
		ActorID: scene.ActorID,
		Data: map[string]any{
			"distancia_pies": distance,
			"destino":        action.Data["destino"],
		},
		Timestamp: time.Now(),
	}

	return []Event{event}, &Delta{MovementUsed: distance}, nil
}

func (p *Pipeline) executeSkill(action *normalizer.Action, scene *normalizer.SceneContext) ([]Event, *Delta, error) {
	skill := str(action.Data["habilidad"])
	if skill == "" {
		skill = "percepcion"
	}

	bonus := 3
	if len(scene.Abilities) > 0 {
		if ability, ok := rules.SkillAbility[skill]; ok {
			if score, ok := scene.Abilities[ability]; ok {
				bonus = rules.AbilityModifier(score)
			}
		}
	}

	roll, err := rolls.SkillCheck(p.roller, bonus, dice.Normal)
	if err != nil {
		return nil, nil, err
	}

	event := Event{
		Type:    EventSkillCheck,
		ActorID: scene.ActorID,
		Data: map[string]any{
			"habilidad":   skill,
			"tirada_d20":  roll.Rolls[0],
			"bonificador": bonus,
			"total":       roll.Total,
			"objetivo_id": action.Data["objetivo_id"],
		},
		Timestamp: time.Now(),
	}

	// Skill checks consume nothing: the DM interprets the result.
	return []Event{event}, &Delta{}, nil
}

func (p *Pipeline) executeGeneric(action *normalizer.Action, scene *normalizer.SceneContext) ([]Event, *Delta, error) {
	actionID := str(action.Data["accion_id"])

	event := Event{
		Type:      EventGenericAction,
		ActorID:   scene.ActorID,
		Data:      map[string]any{"accion_id": actionID},
		Timestamp: time.Now(),
	}

	delta := &Delta{ActionUsed: true}
	switch actionID {
	case "dash":
		delta.MovementBonus = scene.MovementLeft
	case "dodge":
		delta.TemporaryCondition = rules.CondDodging
	}

	return []Event{event}, delta, nil
}

// suggest maps a rejection reason to a next step the player can take.
func (p *Pipeline) suggest(validation validator.Result, scene *normalizer.SceneContext) string {
	reason := strings.ToLower(validation.Reason)

	switch {
	case strings.Contains(reason, "no está equipada"):
		return "Usa una interacción de objeto para equipar el arma primero, o ataca desarmado."

	case strings.Contains(reason, "muerto"):
		if len(scene.LivingEnemies) > 0 {
			names := make([]string, len(scene.LivingEnemies))
			for i, enemy := range scene.LivingEnemies {
				names[i] = enemy.Name
			}
			return "Elige otro objetivo: " + strings.Join(names, ", ")
		}
		return "No hay enemigos vivos."

	case strings.Contains(reason, "ranuras"):
		return "Usa un truco (nivel 0) o descansa para recuperar ranuras."

	case strings.Contains(reason, "movimiento"):
		return "Usa la acción Dash para duplicar tu movimiento este turno."

	case strings.Contains(reason, "incapacitado"), strings.Contains(reason, "paralizado"):
		return "No puedes actuar mientras tengas esta condición."
	}

	return ""
}

func genericKind(actionID string) validator.GenericAction {
	switch actionID {
	case "dodge":
		return validator.ActionDodge
	case "disengage":
		return validator.ActionDisengage
	case "help":
		return validator.ActionHelp
	case "hide":
		return validator.ActionHide
	case "search":
		return validator.ActionSearch
	case "ready":
		return validator.ActionReady
	}
	return validator.ActionDash
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func intval(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
