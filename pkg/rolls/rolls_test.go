package rolls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/testutils"
)

var roller = testutils.Roller

func testAdapter(t *testing.T) *compendium.Adapter {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"monstruos": `{"monstruos": []}`,
		"armas": `{"armas": [
			{"id": "espada_larga", "nombre": "Espada larga", "daño": "1d8", "tipo_daño": "cortante"},
			{"id": "arco_corto", "nombre": "Arco corto", "daño": "1d6", "tipo_daño": "perforante", "propiedades": ["distancia"], "categoria": "distancia"},
			{"id": "estoque", "nombre": "Estoque", "daño": "1d8", "tipo_daño": "perforante", "propiedades": ["sutil"]}
		]}`,
		"armaduras_escudos": `{"armaduras": [], "escudos": []}`,
		"conjuros":          `{"conjuros": []}`,
		"miscelanea":        `{"objetos": []}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0644))
	}
	return compendium.NewAdapter(compendium.NewStore(dir))
}

func TestAttackExpression(t *testing.T) {
	res, err := Attack(roller(12), 5, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, "1d20+5", res.Expression)
	assert.Equal(t, 17, res.Total)

	res, err = Attack(roller(12), -2, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, "1d20-2", res.Expression)
	assert.Equal(t, 10, res.Total)
}

func TestDamageDoublesDiceOnCritical(t *testing.T) {
	// 2d6+3 normal: two dice.
	res, err := Damage(roller(4, 5), "2d6+3", false)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, res.Rolls)
	assert.Equal(t, 12, res.Total)

	// On a crit the dice count doubles but the modifier stays once.
	res, err = Damage(roller(4, 5, 2, 6), "2d6+3", true)
	require.NoError(t, err)
	assert.Len(t, res.Rolls, 4)
	assert.Equal(t, 20, res.Total)
}

func TestDamageNegativeModifier(t *testing.T) {
	res, err := Damage(roller(3), "1d6-1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
}

func TestInitiative(t *testing.T) {
	res, err := Initiative(roller(15), 2, 0, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, 17, res.Total)
}

func TestAbilityScoresStandardArray(t *testing.T) {
	values, err := AbilityScores(roller(1), MethodStandardArray)
	require.NoError(t, err)
	assert.Equal(t, []int{15, 14, 13, 12, 10, 8}, values)
}

func TestAbilityScoresFourDropLowest(t *testing.T) {
	// Each group of four drops its lowest die; results sort
	// descending.
	values, err := AbilityScores(roller(
		6, 6, 6, 1, // 18
		1, 1, 1, 1, // 3
		4, 4, 4, 4, // 12
		5, 3, 2, 6, // 14
		2, 2, 3, 3, // 8
		6, 5, 4, 1, // 15
	), MethodFourDropLowest)
	require.NoError(t, err)
	assert.Equal(t, []int{18, 15, 14, 12, 8, 3}, values)
}

func TestAbilityScoresThreeD6(t *testing.T) {
	values, err := AbilityScores(roller(3), MethodThreeD6)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 9, 9, 9, 9, 9}, values)
}

func TestAbilityScoresUnknownMethod(t *testing.T) {
	_, err := AbilityScores(roller(1), "coin_flip")
	assert.Error(t, err)
}

func TestResolveHit(t *testing.T) {
	hit := func(values ...int) dice.Result {
		res, err := Attack(roller(values...), 4, dice.Normal)
		require.NoError(t, err)
		return res
	}

	out := ResolveHit(hit(1), 10)
	assert.False(t, out.Hits)
	assert.True(t, out.Fumble)
	assert.Equal(t, "Pifia (1 natural)", out.Reason)

	out = ResolveHit(hit(20), 99)
	assert.True(t, out.Hits)
	assert.True(t, out.Critical)
	assert.Equal(t, "Crítico (20 natural)", out.Reason)

	out = ResolveHit(hit(10), 15)
	assert.False(t, out.Hits)
	assert.Equal(t, "Total 14 vs CA 15", out.Reason)

	out = ResolveHit(hit(11), 15)
	assert.True(t, out.Hits)
}

func TestResolveWeaponAttackHit(t *testing.T) {
	comp := testAdapter(t)

	// d20=14, +5 = 19 vs AC 15: hit. Damage 1d8=6, +3.
	atk, err := ResolveWeaponAttack(roller(14, 6), comp, "espada_larga", 5, 3, 15, dice.Normal)
	require.NoError(t, err)
	assert.True(t, atk.Hits)
	assert.Equal(t, "Espada larga", atk.WeaponName)
	assert.Equal(t, 9, atk.DamageTotal)
	assert.Equal(t, "cortante", atk.DamageType)
}

func TestResolveWeaponAttackMiss(t *testing.T) {
	comp := testAdapter(t)

	atk, err := ResolveWeaponAttack(roller(5), comp, "espada_larga", 2, 3, 15, dice.Normal)
	require.NoError(t, err)
	assert.False(t, atk.Hits)
	assert.Equal(t, 0, atk.DamageTotal)
}

func TestResolveWeaponAttackCritical(t *testing.T) {
	comp := testAdapter(t)

	// Natural 20: two damage dice instead of one, modifier once.
	atk, err := ResolveWeaponAttack(roller(20, 4, 7), comp, "espada_larga", 5, 3, 25, dice.Normal)
	require.NoError(t, err)
	assert.True(t, atk.Hits)
	assert.True(t, atk.Critical)
	assert.Equal(t, 14, atk.DamageTotal)
}

func TestResolveWeaponAttackUnarmed(t *testing.T) {
	comp := testAdapter(t)

	atk, err := ResolveWeaponAttack(roller(14, 3), comp, "", 4, 2, 12, dice.Normal)
	require.NoError(t, err)
	assert.Equal(t, "unarmed", atk.WeaponID)
	assert.Equal(t, "Ataque desarmado", atk.WeaponName)
	assert.Equal(t, "1d4", atk.DamageExpr)
	assert.Equal(t, "contundente", atk.DamageType)
	assert.Equal(t, 5, atk.DamageTotal)
}

func TestResolveWeaponAttackUnknownWeapon(t *testing.T) {
	comp := testAdapter(t)

	_, err := ResolveWeaponAttack(roller(14), comp, "excalibur", 4, 2, 12, dice.Normal)
	assert.Error(t, err)
}

func TestResolveMonsterAttack(t *testing.T) {
	bonus := 4
	action := compendium.MonsterAction{
		Name:        "Cimitarra",
		AttackBonus: &bonus,
		Damage:      "1d6+2",
		DamageType:  "cortante",
	}

	atk, err := ResolveMonsterAttack(roller(12, 5), action, 14, dice.Normal)
	require.NoError(t, err)
	assert.True(t, atk.Hits)
	assert.Equal(t, 7, atk.DamageTotal)
	assert.Equal(t, "cortante", atk.DamageType)

	atk, err = ResolveMonsterAttack(roller(3), action, 14, dice.Normal)
	require.NoError(t, err)
	assert.False(t, atk.Hits)
}

func TestResolveMonsterAttackDefaults(t *testing.T) {
	atk, err := ResolveMonsterAttack(roller(18, 2), compendium.MonsterAction{Name: "Golpe"}, 10, dice.Normal)
	require.NoError(t, err)
	assert.True(t, atk.Hits)
	assert.Equal(t, "1d4", atk.DamageExpr)
	assert.Equal(t, "contundente", atk.DamageType)
}

func TestWeaponBonuses(t *testing.T) {
	comp := testAdapter(t)
	abilities := map[string]int{"fuerza": 16, "destreza": 14}

	sword, ok := comp.Store().Weapon("espada_larga")
	require.True(t, ok)
	atk, dmg := WeaponBonuses(abilities, 2, &sword)
	assert.Equal(t, 5, atk)
	assert.Equal(t, 3, dmg)

	// Ranged weapons use DEX.
	bow, ok := comp.Store().Weapon("arco_corto")
	require.True(t, ok)
	atk, dmg = WeaponBonuses(abilities, 2, &bow)
	assert.Equal(t, 4, atk)
	assert.Equal(t, 2, dmg)

	// Finesse picks the better of STR and DEX.
	rapier, ok := comp.Store().Weapon("estoque")
	require.True(t, ok)
	atk, _ = WeaponBonuses(abilities, 2, &rapier)
	assert.Equal(t, 5, atk)

	nimble := map[string]int{"fuerza": 10, "destreza": 18}
	atk, dmg = WeaponBonuses(nimble, 2, &rapier)
	assert.Equal(t, 6, atk)
	assert.Equal(t, 4, dmg)

	// Unarmed uses STR; missing scores default to 10.
	atk, dmg = WeaponBonuses(map[string]int{}, 2, nil)
	assert.Equal(t, 2, atk)
	assert.Equal(t, 0, dmg)
}
