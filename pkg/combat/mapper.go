package combat

import (
	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
)

// FromSheet builds a PC combatant from a character sheet. Missing
// fields fall back to playable defaults so schema drift never aborts
// an encounter.
func FromSheet(s *character.Sheet, comp *compendium.Adapter) *Combatant {
	id := s.ID
	if id == "" {
		id = "pj_sin_id"
	}
	name := s.Info.Name
	if name == "" {
		name = "Aventurero"
	}

	maxHP := s.Derived.MaxHP
	if maxHP < 1 {
		maxHP = 1
	}
	currentHP := s.Derived.CurrentHP
	if currentHP <= 0 || currentHP > maxHP {
		currentHP = maxHP
	}
	ac := s.Derived.ArmorClass
	if ac == 0 {
		ac = 10
	}
	speed := s.Derived.Speed
	if speed == 0 {
		speed = 30
	}
	prof := s.Derived.ProficiencyBonus
	if prof == 0 {
		prof = 2
	}

	abilities := make(map[string]int, len(s.Abilities))
	for ab, score := range s.Abilities {
		abilities[ab] = score
	}

	var main *normalizer.WeaponRef
	if w := s.Equipment.MainWeapon(); w != nil {
		main = &normalizer.WeaponRef{ID: w.CompendiumRef, Name: w.Name}
	}

	var spells []normalizer.SpellRef
	for _, spellID := range s.Spells.Known {
		ref := normalizer.SpellRef{ID: spellID, Name: spellID}
		if comp != nil {
			if sp, ok := comp.Store().Spell(spellID); ok {
				ref.Name = sp.Name
			}
		}
		spells = append(spells, ref)
	}

	slots := make(map[int]int, len(s.Spells.Slots))
	for level, count := range s.Spells.Slots {
		slots[level] = count
	}

	return &Combatant{
		ID:          id,
		Name:        name,
		Side:        SidePC,
		MaxHP:       maxHP,
		CurrentHP:   currentHP,
		ArmorClass:  ac,
		Speed:       speed,
		Abilities:   abilities,
		Proficiency: prof,
		MainWeapon:  main,
		KnownSpells: spells,
		SpellSlots:  slots,
	}
}

// SyncToSheet writes a combatant's mutable state back to the sheet
// after combat: current HP and remaining spell slots.
func SyncToSheet(c *Combatant, s *character.Sheet) {
	s.Derived.CurrentHP = c.CurrentHP
	if len(c.SpellSlots) > 0 {
		if s.Spells.Slots == nil {
			s.Spells.Slots = make(map[int]int, len(c.SpellSlots))
		}
		for level, count := range c.SpellSlots {
			s.Spells.Slots[level] = count
		}
	}
}
