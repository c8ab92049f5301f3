package tools

import (
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rolls"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
)

// rollMode maps the Spanish ventaja parameter onto a dice mode.
func rollMode(ventaja string) dice.Mode {
	switch ventaja {
	case "ventaja":
		return dice.Advantage
	case "desventaja":
		return dice.Disadvantage
	default:
		return dice.Normal
	}
}

var ventajaParam = Parameter{
	Name: "ventaja", Type: "string", Required: false,
	Description: "Modo de la tirada",
	Options:     []string{"normal", "ventaja", "desventaja"},
}

// breakdown renders a human-readable d20 summary, including the
// discarded die under advantage or disadvantage.
func breakdown(res dice.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "d20: %d", res.Rolls[0])
	if len(res.Discarded) > 0 {
		fmt.Fprintf(&b, " (descartado: %d)", res.Discarded[0])
	}
	fmt.Fprintf(&b, " %+d = %d", res.Modifier, res.Total)
	return b.String()
}

func d20Result(res dice.Result, dc int, kind string) Result {
	return Result{
		"exito":           res.Total >= dc,
		"tirada":          res.Rolls[0],
		"modificador":     res.Modifier,
		"total":           res.Total,
		"cd":              dc,
		"margen":          res.Total - dc,
		"tipo_tirada":     kind,
		"critico_natural": res.Critical,
		"pifia_natural":   res.Fumble,
		"desglose":        breakdown(res),
	}
}

// RollSkill makes a skill check against a DC for the loaded PC.
type RollSkill struct{}

func (RollSkill) Name() string { return "tirar_habilidad" }

func (RollSkill) Description() string {
	return "Tira 1d20 de una habilidad del personaje contra una clase de dificultad."
}

func (RollSkill) Parameters() []Parameter {
	return []Parameter{
		{Name: "habilidad", Type: "string", Required: true,
			Description: "Habilidad a tirar", Options: rules.Skills},
		{Name: "cd", Type: "int", Required: false,
			Description: "Clase de dificultad (por defecto 10)"},
		ventajaParam,
	}
}

func (RollSkill) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		Skill   string `mapstructure:"habilidad"`
		DC      int    `mapstructure:"cd"`
		Ventaja string `mapstructure:"ventaja"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.DC == 0 {
		p.DC = 10
	}

	ability := rules.SkillAbility[p.Skill]
	mod := ctx.Sheet.Derived.Modifiers[ability]
	proficient := ctx.Sheet.HasSkill(p.Skill)
	if proficient {
		mod += ctx.Sheet.Derived.ProficiencyBonus
	}

	res, err := rolls.SkillCheck(ctx.Roller, mod, rollMode(p.Ventaja))
	if err != nil {
		return nil, err
	}

	out := d20Result(res, p.DC, "habilidad")
	out["habilidad"] = p.Skill
	out["caracteristica"] = ability
	out["competente"] = proficient
	return out, nil
}

// RollSave makes a saving throw against a DC for the loaded PC.
type RollSave struct{}

func (RollSave) Name() string { return "tirar_salvacion" }

func (RollSave) Description() string {
	return "Tira 1d20 de salvación de una característica contra una clase de dificultad."
}

func (RollSave) Parameters() []Parameter {
	return []Parameter{
		{Name: "caracteristica", Type: "string", Required: true,
			Description: "Característica de la salvación", Options: rules.Abilities},
		{Name: "cd", Type: "int", Required: false,
			Description: "Clase de dificultad (por defecto 10)"},
		ventajaParam,
	}
}

func (RollSave) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		Ability string `mapstructure:"caracteristica"`
		DC      int    `mapstructure:"cd"`
		Ventaja string `mapstructure:"ventaja"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.DC == 0 {
		p.DC = 10
	}

	mod := ctx.Sheet.Derived.Modifiers[p.Ability]
	proficient := ctx.Sheet.HasSave(p.Ability)
	if proficient {
		mod += ctx.Sheet.Derived.ProficiencyBonus
	}

	res, err := rolls.Save(ctx.Roller, mod, rollMode(p.Ventaja))
	if err != nil {
		return nil, err
	}

	out := d20Result(res, p.DC, "salvacion")
	out["caracteristica"] = p.Ability
	out["competente"] = proficient
	return out, nil
}

// RollAttack attacks a target AC with the equipped weapon, rolling
// damage on a hit.
type RollAttack struct{}

func (RollAttack) Name() string { return "tirar_ataque" }

func (RollAttack) Description() string {
	return "Tira un ataque con el arma equipada contra una clase de armadura, con daño si impacta."
}

func (RollAttack) Parameters() []Parameter {
	return []Parameter{
		{Name: "ca_objetivo", Type: "int", Required: true,
			Description: "Clase de armadura del objetivo"},
		{Name: "tipo_ataque", Type: "string", Required: false,
			Description: "Ataque cuerpo a cuerpo o a distancia",
			Options:     []string{"cac", "distancia"}},
		ventajaParam,
	}
}

func (RollAttack) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		TargetAC int    `mapstructure:"ca_objetivo"`
		Kind     string `mapstructure:"tipo_ataque"`
		Ventaja  string `mapstructure:"ventaja"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Kind == "" {
		p.Kind = "cac"
	}

	ability := rules.Strength
	if p.Kind == "distancia" {
		ability = rules.Dexterity
	}
	mod := ctx.Sheet.Derived.Modifiers[ability]
	attackBonus := mod + ctx.Sheet.Derived.ProficiencyBonus

	// Weapon damage comes from the compendium; unarmed otherwise.
	damageExpr, damageType := "1d4", "contundente"
	weaponName := "Ataque desarmado"
	weaponID := "desarmado"
	if w := ctx.Sheet.Equipment.MainWeapon(); w != nil {
		weaponID, weaponName = w.CompendiumRef, w.Name
		damageExpr = "1d8"
		if entry, ok := ctx.Compendium.Store().Weapon(w.CompendiumRef); ok {
			damageExpr, damageType = entry.Damage, entry.DamageType
		}
	}

	damageMod := mod
	if style, ok := ctx.Sheet.Traits.ClassTrait("estilo_combate"); ok && style.Option == "duelo" {
		damageMod += 2
	}

	atk, err := rolls.Attack(ctx.Roller, attackBonus, rollMode(p.Ventaja))
	if err != nil {
		return nil, err
	}
	hit := rolls.ResolveHit(atk, p.TargetAC)

	out := Result{
		"exito":       hit.Hits,
		"tirada":      atk.Rolls[0],
		"modificador": attackBonus,
		"total":       atk.Total,
		"ca_objetivo": p.TargetAC,
		"impacta":     hit.Hits,
		"critico":     hit.Critical,
		"pifia":       hit.Fumble,
		"razon":       hit.Reason,
		"tipo_ataque": p.Kind,
		"arma":        map[string]any{"id": weaponID, "nombre": weaponName},
		"desglose":    breakdown(atk),
	}
	if !hit.Hits {
		return out, nil
	}

	dmg, err := rolls.Damage(ctx.Roller, damageExpr, hit.Critical)
	if err != nil {
		return nil, err
	}
	total := dmg.Total + damageMod
	if total < 0 {
		total = 0
	}
	out["daño"] = map[string]any{
		"expresion":   damageExpr,
		"dados":       dmg.Rolls,
		"modificador": damageMod,
		"total":       total,
		"tipo":        damageType,
		"critico":     hit.Critical,
	}
	return out, nil
}
