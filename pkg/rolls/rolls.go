// Package rolls builds the combat-specific rolls on top of the dice
// primitives: attacks, damage, saves, skill checks, initiative and
// ability-score generation, plus the resolvers that turn a roll into a
// hit-or-miss outcome.
package rolls

import (
	"fmt"
	"sort"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
)

// d20Expr renders "1d20" with a signed modifier.
func d20Expr(modifier int) string {
	if modifier >= 0 {
		return fmt.Sprintf("1d20+%d", modifier)
	}
	return fmt.Sprintf("1d20%d", modifier)
}

// Attack rolls d20 + attack bonus. The result carries critical and
// fumble flags for the combat engine to interpret: critical doubles
// the damage dice, fumble misses automatically.
func Attack(r *dice.Roller, attackBonus int, mode dice.Mode) (dice.Result, error) {
	return r.Roll(d20Expr(attackBonus), mode)
}

// Damage rolls a damage expression. On a critical the dice count is
// doubled; the flat modifier is kept once.
func Damage(r *dice.Roller, damageExpr string, critical bool) (dice.Result, error) {
	count, faces, modifier, err := dice.Parse(damageExpr)
	if err != nil {
		return dice.Result{}, err
	}

	if critical {
		count *= 2
	}

	expr := fmt.Sprintf("%dd%d", count, faces)
	if modifier > 0 {
		expr += fmt.Sprintf("+%d", modifier)
	} else if modifier < 0 {
		expr += fmt.Sprintf("%d", modifier)
	}
	return r.Roll(expr, dice.Normal)
}

// Save rolls a saving throw. Saves carry no automatic crit/fumble in
// the ruleset; callers compare the total against a DC.
func Save(r *dice.Roller, saveModifier int, mode dice.Mode) (dice.Result, error) {
	return r.Roll(d20Expr(saveModifier), mode)
}

// SkillCheck rolls an ability/skill check to compare against a DC.
func SkillCheck(r *dice.Roller, skillModifier int, mode dice.Mode) (dice.Result, error) {
	return r.Roll(d20Expr(skillModifier), mode)
}

// Initiative rolls d20 + DEX modifier + situational bonuses.
func Initiative(r *dice.Roller, dexModifier, otherBonus int, mode dice.Mode) (dice.Result, error) {
	return r.Roll(d20Expr(dexModifier+otherBonus), mode)
}

// Ability-score generation methods.
const (
	MethodFourDropLowest = "4d6_drop_lowest"
	MethodThreeD6        = "3d6"
	MethodStandardArray  = "standard_array"
)

// AbilityScores generates the six ability values with the chosen
// method, sorted descending for the player to assign.
func AbilityScores(r *dice.Roller, method string) ([]int, error) {
	var values []int

	switch method {
	case MethodStandardArray:
		values = []int{15, 14, 13, 12, 10, 8}
	case MethodThreeD6:
		for i := 0; i < 6; i++ {
			res, err := r.Roll("3d6", dice.Normal)
			if err != nil {
				return nil, err
			}
			values = append(values, res.Total)
		}
	case MethodFourDropLowest:
		for i := 0; i < 6; i++ {
			res, err := r.Roll("4d6", dice.Normal)
			if err != nil {
				return nil, err
			}
			rolled := append([]int(nil), res.Rolls...)
			sort.Ints(rolled)
			sum := 0
			for _, v := range rolled[1:] {
				sum += v
			}
			values = append(values, sum)
		}
	default:
		return nil, fmt.Errorf("unknown ability generation method: %s", method)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(values)))
	return values, nil
}

// HitOutcome is the verdict of comparing an attack roll against AC.
type HitOutcome struct {
	Hits     bool   `json:"impacta"`
	Critical bool   `json:"critico"`
	Fumble   bool   `json:"pifia"`
	Reason   string `json:"razon"`
}

// ResolveHit decides whether an attack roll hits: fumbles always
// miss, criticals always hit, otherwise total vs AC.
func ResolveHit(attackRoll dice.Result, targetAC int) HitOutcome {
	if attackRoll.Fumble {
		return HitOutcome{Hits: false, Fumble: true, Reason: "Pifia (1 natural)"}
	}
	if attackRoll.Critical {
		return HitOutcome{Hits: true, Critical: true, Reason: "Crítico (20 natural)"}
	}
	hits := attackRoll.Total >= targetAC
	return HitOutcome{
		Hits:   hits,
		Reason: fmt.Sprintf("Total %d vs CA %d", attackRoll.Total, targetAC),
	}
}

// WeaponAttack is the fully resolved outcome of a weapon (or unarmed)
// attack.
type WeaponAttack struct {
	WeaponID    string
	WeaponName  string
	AttackBonus int
	AttackRoll  dice.Result
	Mode        dice.Mode
	Hits        bool
	Critical    bool
	Fumble      bool

	DamageExpr  string
	DamageRoll  dice.Result
	DamageMod   int
	DamageTotal int
	DamageType  string
}

// Unarmed strikes use a fixed die when no stat block overrides it.
const unarmedDamage = "1d4"

// ResolveWeaponAttack runs a complete weapon attack: look up the
// weapon, roll the attack, compare against AC, roll damage on a hit
// (dice doubled on crit, flat modifier once). weaponID "unarmed" or
// "" resolves as an unarmed strike.
func ResolveWeaponAttack(r *dice.Roller, comp *compendium.Adapter, weaponID string,
	attackBonus, damageMod, targetAC int, mode dice.Mode) (*WeaponAttack, error) {

	damageExpr := unarmedDamage
	damageType := "contundente"
	weaponName := "Ataque desarmado"
	if weaponID == "" {
		weaponID = "unarmed"
	}
	if weaponID != "unarmed" {
		weapon, ok := comp.Store().Weapon(weaponID)
		if !ok {
			return nil, fmt.Errorf("weapon %q not found in compendium", weaponID)
		}
		damageExpr = weapon.Damage
		damageType = weapon.DamageType
		weaponName = weapon.Name
	}

	attackRoll, err := Attack(r, attackBonus, mode)
	if err != nil {
		return nil, err
	}
	outcome := ResolveHit(attackRoll, targetAC)

	result := &WeaponAttack{
		WeaponID:    weaponID,
		WeaponName:  weaponName,
		AttackBonus: attackBonus,
		AttackRoll:  attackRoll,
		Mode:        mode,
		Hits:        outcome.Hits,
		Critical:    outcome.Critical,
		Fumble:      outcome.Fumble,
		DamageExpr:  damageExpr,
		DamageType:  damageType,
		DamageMod:   damageMod,
	}

	if outcome.Hits {
		damageRoll, err := Damage(r, damageExpr, outcome.Critical)
		if err != nil {
			return nil, err
		}
		result.DamageRoll = damageRoll
		result.DamageTotal = damageRoll.Total + damageMod
		if result.DamageTotal < 0 {
			result.DamageTotal = 0
		}
	}

	return result, nil
}

// MonsterAttack is the resolved outcome of a stat-block action.
type MonsterAttack struct {
	ActionName  string
	AttackBonus int
	AttackRoll  dice.Result
	Mode        dice.Mode
	Hits        bool
	Critical    bool
	Fumble      bool

	DamageExpr  string
	DamageRoll  dice.Result
	DamageTotal int
	DamageType  string
}

// ResolveMonsterAttack runs a stat-block attack action against a
// target AC. The action's damage expression already embeds its flat
// modifier; on crit only the dice are doubled.
func ResolveMonsterAttack(r *dice.Roller, action compendium.MonsterAction,
	targetAC int, mode dice.Mode) (*MonsterAttack, error) {

	bonus := 0
	if action.AttackBonus != nil {
		bonus = *action.AttackBonus
	}
	damageExpr := action.Damage
	if damageExpr == "" {
		damageExpr = unarmedDamage
	}
	damageType := action.DamageType
	if damageType == "" {
		damageType = "contundente"
	}

	attackRoll, err := Attack(r, bonus, mode)
	if err != nil {
		return nil, err
	}
	outcome := ResolveHit(attackRoll, targetAC)

	result := &MonsterAttack{
		ActionName:  action.Name,
		AttackBonus: bonus,
		AttackRoll:  attackRoll,
		Mode:        mode,
		Hits:        outcome.Hits,
		Critical:    outcome.Critical,
		Fumble:      outcome.Fumble,
		DamageExpr:  damageExpr,
		DamageType:  damageType,
	}

	if outcome.Hits {
		damageRoll, err := Damage(r, damageExpr, outcome.Critical)
		if err != nil {
			return nil, err
		}
		result.DamageRoll = damageRoll
		result.DamageTotal = damageRoll.Total
	}

	return result, nil
}

// WeaponBonuses derives attack bonus and damage modifier from ability
// scores and proficiency: DEX for ranged weapons, the better of STR
// and DEX for finesse weapons, STR otherwise. Unarmed strikes use
// STR.
func WeaponBonuses(abilities map[string]int, proficiency int, weapon *compendium.Weapon) (attackBonus, damageMod int) {
	score := func(name string) int {
		if v, ok := abilities[name]; ok {
			return v
		}
		return 10
	}
	strMod := rules.AbilityModifier(score(rules.Strength))
	dexMod := rules.AbilityModifier(score(rules.Dexterity))

	mod := strMod
	if weapon != nil {
		switch {
		case weapon.HasProperty("distancia") || weapon.Category == "distancia":
			mod = dexMod
		case weapon.HasProperty("sutil") && dexMod > strMod:
			mod = dexMod
		}
	}
	return mod + proficiency, mod
}
