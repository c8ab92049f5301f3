package character

import (
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
)

func intPtr(v int) *int { return &v }

// armorTable maps armour compendium refs to their AC behaviour. IDs
// follow the armaduras_escudos.json convention: main words joined with
// underscores, no articles.
var armorTable = map[string]rules.Armor{
	"armadura_acolchada":       {BaseAC: 11},
	"armadura_cuero":           {BaseAC: 11},
	"armadura_cuero_tachonado": {BaseAC: 12},
	"armadura_pieles":          {BaseAC: 12, DexCap: intPtr(2)},
	"cota_mallas":              {BaseAC: 13, DexCap: intPtr(2)},
	"cota_escamas":             {BaseAC: 14, DexCap: intPtr(2)},
	"coraza":                   {BaseAC: 14, DexCap: intPtr(2)},
	"semiplacas":               {BaseAC: 15, DexCap: intPtr(2)},
	"armadura_anillas":         {BaseAC: 14, DexCap: intPtr(0)},
	"cota_mallas_pesada":       {BaseAC: 16, DexCap: intPtr(0)},
	"cota_bandas":              {BaseAC: 17, DexCap: intPtr(0)},
	"armadura_placas":          {BaseAC: 18, DexCap: intPtr(0)},
}

// lookupArmor resolves an equipped armour to its table entry, trying
// first the full ref and then the ref with a trailing instance suffix
// stripped ("cota_mallas_2" matches "cota_mallas").
func lookupArmor(item *ArmorItem) *rules.Armor {
	if item == nil || !item.Equipped {
		return nil
	}
	ref := item.CompendiumRef
	if ref == "" {
		ref = item.ID
	}
	if a, ok := armorTable[ref]; ok {
		return &a
	}
	if i := strings.LastIndex(ref, "_"); i > 0 {
		if suffix := ref[i+1:]; suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
			if a, ok := armorTable[ref[:i]]; ok {
				return &a
			}
		}
	}
	return nil
}

// racial trait that grants +1 HP per level.
const traitDwarvenToughness = "dureza_enana"

// maxHP computes the hit-point maximum: full hit die plus CON mod at
// level 1, then the rounded-up die average plus CON mod per level,
// each level contributing at least 1.
func maxHP(data *Data, classID string, level, conMod int, dwarvenToughness bool) int {
	hp := data.HPLevel1(classID) + conMod
	if hp < 1 {
		hp = 1
	}
	perLevel := dieFaces(data.HitDie(classID))/2 + 1 + conMod
	if perLevel < 1 {
		perLevel = 1
	}
	if level > 1 {
		hp += perLevel * (level - 1)
	}
	if dwarvenToughness {
		hp += level
	}
	return hp
}

// Recompute rebuilds the derived block from the authored sections.
// It runs on load and after any mutation to authored fields; current
// HP is preserved but clamped to the new maximum.
func Recompute(s *Sheet, data *Data) {
	mods := make(map[string]int, len(rules.Abilities))
	for _, ab := range rules.Abilities {
		mods[ab] = rules.AbilityModifier(s.Ability(ab))
	}

	level := s.Info.Level
	if level < 1 {
		level = 1
	}
	prof := rules.ProficiencyBonus(level)

	hpMax := maxHP(data, s.Info.Class, level, mods[rules.Constitution],
		s.Traits.HasRacial(traitDwarvenToughness))

	armor := lookupArmor(s.Equipment.Armor)
	shield := s.Equipment.Shield != nil && s.Equipment.Shield.Equipped
	defense := false
	if style, ok := s.Traits.ClassTrait("estilo_combate"); ok {
		defense = style.Option == StyleDefense
	}
	ac := rules.ArmorClass(armor, mods[rules.Dexterity], shield, defense)

	saves := make(map[string]int, len(rules.Abilities))
	for _, ab := range rules.Abilities {
		saves[ab] = mods[ab]
		if s.HasSave(ab) {
			saves[ab] += prof
		}
	}

	current := s.Derived.CurrentHP
	if s.Derived.MaxHP == 0 && current == 0 {
		current = hpMax
	}
	if current > hpMax {
		current = hpMax
	}
	if current < 0 {
		current = 0
	}

	s.Derived = Derived{
		ProficiencyBonus: prof,
		MaxHP:            hpMax,
		CurrentHP:        current,
		HitDie:           data.HitDie(s.Info.Class),
		ArmorClass:       ac,
		Speed:            data.Speed(s.Info.Race),
		Initiative:       mods[rules.Dexterity],
		Modifiers:        mods,
		Saves:            saves,
	}
}

// ApplyRaceBonuses adds the fixed racial ability bonuses plus any
// chosen ones (races with floating bonuses) to the base scores.
func ApplyRaceBonuses(base map[string]int, data *Data, raceID string, chosen map[string]int) map[string]int {
	out := make(map[string]int, len(base))
	for k, v := range base {
		out[k] = v
	}
	for ab, bonus := range data.RaceBonuses(raceID) {
		if _, ok := out[ab]; ok {
			out[ab] += bonus
		}
	}
	for ab, bonus := range chosen {
		if _, ok := out[ab]; ok {
			out[ab] += bonus
		}
	}
	return out
}
