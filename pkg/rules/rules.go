// Package rules holds the pure derived-value calculations of the
// fifth-edition ruleset: ability modifiers, proficiency bonus, armour
// class, spell DCs and carry capacity. It never rolls dice.
package rules

// AbilityModifier converts an ability score (1-30) to its modifier
// using floored division, so 8 maps to -1 and 14 to +2.
func AbilityModifier(score int) int {
	d := score - 10
	if d < 0 && d%2 != 0 {
		return d/2 - 1
	}
	return d / 2
}

// ProficiencyBonus returns the per-level proficiency bonus:
// +2 at levels 1-4 rising by one every four levels up to +6.
func ProficiencyBonus(level int) int {
	switch {
	case level <= 4:
		return 2
	case level <= 8:
		return 3
	case level <= 12:
		return 4
	case level <= 16:
		return 5
	default:
		return 6
	}
}

// SpellSaveDC is 8 + casting ability modifier + proficiency bonus.
func SpellSaveDC(abilityMod, proficiency int) int {
	return 8 + abilityMod + proficiency
}

// SpellAttackBonus is casting ability modifier + proficiency bonus.
func SpellAttackBonus(abilityMod, proficiency int) int {
	return abilityMod + proficiency
}

// Armor describes the AC-relevant fields of a worn armour. DexCap nil
// means the full DEX modifier applies (light armour); 2 caps it
// (medium); 0 removes it (heavy).
type Armor struct {
	BaseAC int
	DexCap *int
}

// ArmorClass computes AC. Unarmoured is 10 + DEX mod; armoured is the
// armour base plus the (possibly capped) DEX mod. A shield adds +2 and
// the Defense fighting style adds +1 while any armour is worn.
func ArmorClass(armor *Armor, dexMod int, shield, defenseStyle bool) int {
	var ac int
	if armor == nil {
		ac = 10 + dexMod
	} else {
		applicable := dexMod
		if armor.DexCap != nil && applicable > *armor.DexCap {
			applicable = *armor.DexCap
		}
		ac = armor.BaseAC + applicable
	}
	if shield {
		ac += 2
	}
	if defenseStyle && armor != nil {
		ac++
	}
	return ac
}

// CarryCapacityLb is Strength x 15, in pounds.
func CarryCapacityLb(strength int) int {
	return strength * 15
}

// CarryCapacityKg converts the pound capacity to kilograms.
func CarryCapacityKg(strength int) float64 {
	return float64(CarryCapacityLb(strength)) * 0.453592
}
