// Package validator decides whether an action is legal given the
// current game state. It never executes actions; it answers valid or
// invalid, with a reason and any advisory warnings.
package validator

import (
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
)

// GenericAction names the standard combat actions.
type GenericAction string

const (
	ActionDash      GenericAction = "dash"
	ActionDisengage GenericAction = "disengage"
	ActionDodge     GenericAction = "dodge"
	ActionHelp      GenericAction = "help"
	ActionHide      GenericAction = "hide"
	ActionReady     GenericAction = "ready"
	ActionSearch    GenericAction = "search"
)

// Actor is the validator's view of a creature: enough state to decide
// legality, detached from how sheets or monster instances store it.
type Actor struct {
	Name        string
	CurrentHP   *int // nil when HP is not tracked for this check
	Dead        bool
	Unconscious bool
	Conditions  []string

	MainWeaponID    string
	OffhandWeaponID string

	KnownSpells    []string
	PreparedSpells []string
	SpellSlots     map[int]int // available slots by level

	Speed int // feet per turn; 0 means the 30 ft default
}

func (a *Actor) displayName() string {
	if a == nil || a.Name == "" {
		return "La entidad"
	}
	return a.Name
}

// Result is the outcome of one validation.
type Result struct {
	Valid      bool           `json:"valido"`
	Reason     string         `json:"razon"`
	Advisories []string       `json:"advertencias,omitempty"`
	Extra      map[string]any `json:"datos_extra,omitempty"`
}

func (r Result) String() string {
	state := "✗ Inválido"
	if r.Valid {
		state = "✓ Válido"
	}
	s := fmt.Sprintf("%s: %s", state, r.Reason)
	if len(r.Advisories) > 0 {
		s += fmt.Sprintf("\n  Advertencias: %s", strings.Join(r.Advisories, ", "))
	}
	return s
}

func invalid(reason string) Result {
	return Result{Valid: false, Reason: reason}
}

// Validator checks action legality against the catalogue and actor
// state. With StrictEquipment set, attacks with unequipped weapons
// are rejected instead of flagged.
type Validator struct {
	comp            *compendium.Adapter
	strictEquipment bool
}

// New creates a validator. strictEquipment selects rejection over
// advisory for unequipped weapons.
func New(comp *compendium.Adapter, strictEquipment bool) *Validator {
	return &Validator{comp: comp, strictEquipment: strictEquipment}
}

// ValidateAttack checks an attack: the attacker can act, the target
// exists and is alive, and the weapon exists (and is equipped, in
// strict mode).
func (v *Validator) ValidateAttack(attacker, target *Actor, weaponID string) Result {
	var advisories []string

	if res := canAct(attacker); !res.Valid {
		return res
	}

	if target == nil {
		return invalid("No hay objetivo seleccionado")
	}
	if target.Dead {
		return invalid(fmt.Sprintf("%s ya está muerto", target.displayName()))
	}

	if weaponID != "" && weaponID != "unarmed" {
		weapon, ok := v.comp.Store().Weapon(weaponID)
		if !ok {
			return invalid(fmt.Sprintf("Arma '%s' no existe en el compendio", weaponID))
		}

		if weaponID != attacker.MainWeaponID && weaponID != attacker.OffhandWeaponID {
			if v.strictEquipment {
				return Result{
					Valid:      false,
					Reason:     fmt.Sprintf("'%s' no está equipada (modo estricto activado)", weapon.Name),
					Advisories: []string{"Usar interacción de objeto para equipar primero"},
				}
			}
			advisories = append(advisories, fmt.Sprintf("'%s' no está equipada", weapon.Name))
		}
	}

	attackKind := "con arma"
	if weaponID == "" {
		attackKind = "cuerpo a cuerpo"
	}
	return Result{
		Valid:      true,
		Reason:     fmt.Sprintf("Ataque válido contra %s", target.displayName()),
		Advisories: advisories,
		Extra: map[string]any{
			"arma_id":     weaponID,
			"tipo_ataque": attackKind,
		},
	}
}

// ValidateSpell checks a spell cast: the caster can act, the spell
// exists, the slot level is legal and available. Unknown/unprepared
// spells and missing targets only produce advisories.
func (v *Validator) ValidateSpell(caster *Actor, spellID string, slotLevel int, target *Actor) Result {
	var advisories []string

	if res := canAct(caster); !res.Valid {
		return res
	}

	spell, ok := v.comp.Store().Spell(spellID)
	if !ok {
		return invalid(fmt.Sprintf("Conjuro '%s' no existe en el compendio", spellID))
	}

	if !containsString(caster.KnownSpells, spellID) && !containsString(caster.PreparedSpells, spellID) {
		advisories = append(advisories, fmt.Sprintf("'%s' no está en conjuros conocidos/preparados", spell.Name))
	}

	useLevel := slotLevel
	if useLevel == 0 {
		useLevel = spell.Level
	}

	if spell.Level > 0 {
		if useLevel < spell.Level {
			return invalid(fmt.Sprintf("'%s' es nivel %d, no puede lanzarse con ranura de nivel %d",
				spell.Name, spell.Level, useLevel))
		}
		if caster.SpellSlots[useLevel] <= 0 {
			return invalid(fmt.Sprintf("No quedan ranuras de nivel %d disponibles", useLevel))
		}
	}

	needsTarget := spell.Target != "" && spell.Target != "personal" && spell.Target != "self"
	if needsTarget && target == nil {
		advisories = append(advisories, fmt.Sprintf("'%s' podría requerir un objetivo", spell.Name))
	}

	return Result{
		Valid:      true,
		Reason:     fmt.Sprintf("Puede lanzar '%s'", spell.Name),
		Advisories: advisories,
		Extra: map[string]any{
			"conjuro":      spell,
			"nivel_ranura": useLevel,
			"es_truco":     spell.Level == 0,
		},
	}
}

// ValidateItemUse checks that the user can act and the item exists.
func (v *Validator) ValidateItemUse(user *Actor, itemID string) Result {
	if res := canAct(user); !res.Valid {
		return res
	}

	item, ok := v.comp.Store().Item(itemID)
	if !ok {
		return invalid(fmt.Sprintf("Objeto '%s' no existe en el compendio", itemID))
	}

	return Result{
		Valid:  true,
		Reason: fmt.Sprintf("Puede usar '%s'", item.Name),
		Extra:  map[string]any{"objeto": item},
	}
}

// ValidateMovement checks that nothing pins the actor in place and
// that the distance fits in the movement left this turn.
func (v *Validator) ValidateMovement(actor *Actor, distance, movementUsed int) Result {
	for _, cond := range actor.Conditions {
		if rules.BlocksMovement(strings.ToLower(cond)) {
			return invalid(fmt.Sprintf("No puede moverse: está %s", cond))
		}
	}

	speed := actor.Speed
	if speed == 0 {
		speed = 30
	}
	remaining := speed - movementUsed

	if distance > remaining {
		return invalid(fmt.Sprintf("No tiene suficiente movimiento: necesita %d pies, le quedan %d pies",
			distance, remaining))
	}

	return Result{
		Valid:  true,
		Reason: fmt.Sprintf("Puede moverse %d pies (quedarán %d pies)", distance, remaining-distance),
		Extra: map[string]any{
			"velocidad_total":             speed,
			"movimiento_restante_despues": remaining - distance,
		},
	}
}

// ValidateSkillCheck checks the skill name against the fixed skill
// list. Conditions that hinder the check produce advisories, not
// rejections.
func (v *Validator) ValidateSkillCheck(actor *Actor, skill string) Result {
	skillID := strings.ReplaceAll(strings.ToLower(skill), " ", "_")

	if !rules.IsSkill(skillID) {
		return Result{
			Valid:  false,
			Reason: fmt.Sprintf("'%s' no es una habilidad válida", skill),
			Extra:  map[string]any{"habilidades_validas": rules.Skills},
		}
	}

	var advisories []string
	if containsString(actor.Conditions, rules.CondBlinded) && skillID == "percepcion" {
		advisories = append(advisories, "Está cegado: desventaja en Percepción que dependa de la vista")
	}
	if containsString(actor.Conditions, rules.CondFrightened) {
		advisories = append(advisories, "Está asustado: desventaja en pruebas mientras vea la fuente del miedo")
	}

	return Result{
		Valid:      true,
		Reason:     fmt.Sprintf("Puede hacer prueba de %s", skill),
		Advisories: advisories,
	}
}

// ValidateGenericAction checks that the actor can act and describes
// what the standard action will do.
func (v *Validator) ValidateGenericAction(kind GenericAction, actor *Actor) Result {
	if res := canAct(actor); !res.Valid {
		return res
	}

	name := actor.displayName()
	messages := map[GenericAction]string{
		ActionDash:      fmt.Sprintf("%s puede usar Dash (duplica movimiento este turno)", name),
		ActionDisengage: fmt.Sprintf("%s puede usar Disengage (no provoca ataques de oportunidad)", name),
		ActionDodge:     fmt.Sprintf("%s puede usar Dodge (ataques contra él tienen desventaja)", name),
		ActionHelp:      fmt.Sprintf("%s puede usar Help (da ventaja a un aliado)", name),
		ActionHide:      fmt.Sprintf("%s puede intentar Hide (tirada de Sigilo)", name),
		ActionSearch:    fmt.Sprintf("%s puede usar Search (tirada de Percepción/Investigación)", name),
		ActionReady:     fmt.Sprintf("%s puede preparar una acción", name),
	}

	reason, ok := messages[kind]
	if !ok {
		reason = fmt.Sprintf("%s puede realizar la acción", name)
	}
	return Result{Valid: true, Reason: reason}
}

// canAct rejects actors that are at 0 HP, dead, unconscious, or under
// a condition that removes their turn.
func canAct(actor *Actor) Result {
	name := actor.displayName()

	if actor.CurrentHP != nil && *actor.CurrentHP <= 0 {
		return invalid(fmt.Sprintf("%s tiene 0 PG", name))
	}
	if actor.Dead {
		return invalid(fmt.Sprintf("%s está muerto", name))
	}
	if actor.Unconscious {
		return invalid(fmt.Sprintf("%s está inconsciente", name))
	}
	for _, cond := range actor.Conditions {
		if rules.BlocksAction(strings.ToLower(cond)) {
			return invalid(fmt.Sprintf("%s está %s y no puede actuar", name, cond))
		}
	}
	return Result{Valid: true, Reason: fmt.Sprintf("%s puede actuar", name)}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
