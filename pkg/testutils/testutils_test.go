package testutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
)

func TestRollerReplaysValues(t *testing.T) {
	r := Roller(20, 1, 7)
	res, err := r.Roll("1d20", dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Total)

	res, err = r.Roll("2d8+3", dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Total)
}

func TestAdapterLoadsCatalogue(t *testing.T) {
	comp := Adapter(t)

	goblin, ok := comp.Store().Monster("goblin")
	require.True(t, ok)
	assert.Equal(t, 7, goblin.HitPoints)
	assert.Equal(t, 50, goblin.Experience)
	require.Len(t, goblin.Actions, 1)
	assert.True(t, goblin.Actions[0].IsAttack())

	assert.True(t, comp.WeaponExists("espada_larga"))
	assert.True(t, comp.ArmorExists("cota_mallas"))
	assert.True(t, comp.SpellExists("proyectil_magico"))
	assert.True(t, comp.ItemExists("pocion_curacion"))
}

func TestSampleSheetIsCoherent(t *testing.T) {
	s := SampleSheet()
	assert.Equal(t, 3, s.Info.Level)
	assert.Equal(t, s.Derived.MaxHP, s.Derived.CurrentHP)
	require.Len(t, s.Equipment.Weapons, 1)
	assert.True(t, s.Equipment.Weapons[0].Equipped)
	assert.Equal(t, 3, s.Derived.Modifiers["fuerza"])
}
