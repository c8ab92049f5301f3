package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
)

func testSheet() *character.Sheet {
	return &character.Sheet{
		ID:   "abc12345",
		Info: character.BasicInfo{Name: "Elara", Race: "humano", Class: "guerrero", Level: 3},
		Abilities: map[string]int{
			"fuerza": 16, "destreza": 14, "constitucion": 14,
		},
		Equipment: character.Equipment{
			Weapons: []character.WeaponItem{
				{ID: "espada_larga_1", CompendiumRef: "espada_larga", Name: "Espada larga", Equipped: true},
			},
		},
		Spells: character.Spellcasting{
			Known: []string{"proyectil_magico"},
			Slots: map[int]int{1: 2},
		},
		Derived: character.Derived{
			MaxHP:            28,
			CurrentHP:        20,
			ArmorClass:       17,
			Speed:            30,
			ProficiencyBonus: 2,
		},
	}
}

func TestFromSheet(t *testing.T) {
	c := FromSheet(testSheet(), nil)

	assert.Equal(t, "abc12345", c.ID)
	assert.Equal(t, SidePC, c.Side)
	assert.Equal(t, 28, c.MaxHP)
	assert.Equal(t, 20, c.CurrentHP)
	assert.Equal(t, 17, c.ArmorClass)
	require.NotNil(t, c.MainWeapon)
	assert.Equal(t, "espada_larga", c.MainWeapon.ID)
	require.Len(t, c.KnownSpells, 1)
	assert.Equal(t, map[int]int{1: 2}, c.SpellSlots)
}

func TestFromSheetDefaults(t *testing.T) {
	c := FromSheet(&character.Sheet{}, nil)

	assert.Equal(t, "pj_sin_id", c.ID)
	assert.Equal(t, "Aventurero", c.Name)
	assert.Equal(t, 1, c.MaxHP)
	assert.Equal(t, 1, c.CurrentHP)
	assert.Equal(t, 10, c.ArmorClass)
	assert.Equal(t, 30, c.Speed)
	assert.Equal(t, 2, c.Proficiency)
	assert.Nil(t, c.MainWeapon)
}

func TestSyncToSheet(t *testing.T) {
	s := testSheet()
	c := FromSheet(s, nil)

	c.CurrentHP = 7
	c.SpellSlots[1] = 1
	SyncToSheet(c, s)

	assert.Equal(t, 7, s.Derived.CurrentHP)
	assert.Equal(t, 1, s.Spells.Slots[1])
}
