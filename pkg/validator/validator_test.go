package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
)

func testAdapter(t *testing.T) *compendium.Adapter {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"monstruos": `{"monstruos": []}`,
		"armas": `{"armas": [
			{"id": "espada_larga", "nombre": "Espada larga", "daño": "1d8", "tipo_daño": "cortante"},
			{"id": "daga", "nombre": "Daga", "daño": "1d4", "tipo_daño": "perforante"}
		]}`,
		"armaduras_escudos": `{"armaduras": [], "escudos": []}`,
		"conjuros": `{"conjuros": [
			{"id": "rayo_de_escarcha", "nombre": "Rayo de escarcha", "nivel": 0, "daño": "1d8", "objetivo": "criatura"},
			{"id": "proyectil_magico", "nombre": "Proyectil mágico", "nivel": 1, "daño": "3d4+3", "objetivo": "criatura"},
			{"id": "escudo_magico", "nombre": "Escudo", "nivel": 1, "objetivo": "personal"}
		]}`,
		"miscelanea": `{"objetos": [{"id": "pocion_curacion", "nombre": "Poción de curación", "categoria": "consumible"}]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0644))
	}
	return compendium.NewAdapter(compendium.NewStore(dir))
}

func healthyActor() *Actor {
	hp := 10
	return &Actor{
		Name:         "Elara",
		CurrentHP:    &hp,
		MainWeaponID: "espada_larga",
		KnownSpells:  []string{"rayo_de_escarcha"},
		SpellSlots:   map[int]int{1: 2},
		Speed:        30,
	}
}

func goblinTarget() *Actor {
	hp := 7
	return &Actor{Name: "Goblin", CurrentHP: &hp}
}

func TestValidateAttackValid(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateAttack(healthyActor(), goblinTarget(), "espada_larga")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Advisories)
}

func TestValidateAttackDeadTarget(t *testing.T) {
	v := New(testAdapter(t), false)

	target := goblinTarget()
	target.Dead = true
	res := v.ValidateAttack(healthyActor(), target, "espada_larga")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "muerto")
}

func TestValidateAttackNoTarget(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateAttack(healthyActor(), nil, "espada_larga")
	assert.False(t, res.Valid)
}

func TestValidateAttackUnknownWeapon(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateAttack(healthyActor(), goblinTarget(), "excalibur")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "no existe")
}

func TestValidateAttackUnequippedWeapon(t *testing.T) {
	// Permissive mode: the attack passes with an advisory.
	v := New(testAdapter(t), false)
	res := v.ValidateAttack(healthyActor(), goblinTarget(), "daga")
	assert.True(t, res.Valid)
	require.Len(t, res.Advisories, 1)
	assert.Contains(t, res.Advisories[0], "no está equipada")

	// Strict mode: the attack is rejected.
	strict := New(testAdapter(t), true)
	res = strict.ValidateAttack(healthyActor(), goblinTarget(), "daga")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "modo estricto")
}

func TestValidateAttackUnarmedSkipsWeaponCheck(t *testing.T) {
	v := New(testAdapter(t), true)

	res := v.ValidateAttack(healthyActor(), goblinTarget(), "unarmed")
	assert.True(t, res.Valid)
}

func TestValidateAttackIncapacitatedAttacker(t *testing.T) {
	v := New(testAdapter(t), false)

	attacker := healthyActor()
	attacker.Conditions = []string{"paralizado"}
	res := v.ValidateAttack(attacker, goblinTarget(), "espada_larga")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "paralizado")

	zero := healthyActor()
	*zero.CurrentHP = 0
	res = v.ValidateAttack(zero, goblinTarget(), "espada_larga")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "0 PG")
}

func TestValidateSpellCantrip(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateSpell(healthyActor(), "rayo_de_escarcha", 0, goblinTarget())
	assert.True(t, res.Valid)
	assert.Equal(t, true, res.Extra["es_truco"])
	assert.Empty(t, res.Advisories)
}

func TestValidateSpellUnknownSpell(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateSpell(healthyActor(), "bola_de_fuego", 0, nil)
	assert.False(t, res.Valid)
}

func TestValidateSpellSlots(t *testing.T) {
	v := New(testAdapter(t), false)

	// Level 1 spell with a slot available: valid, advisory for not
	// being known.
	caster := healthyActor()
	res := v.ValidateSpell(caster, "proyectil_magico", 0, goblinTarget())
	assert.True(t, res.Valid)
	assert.Equal(t, 1, res.Extra["nivel_ranura"])
	require.Len(t, res.Advisories, 1)
	assert.Contains(t, res.Advisories[0], "conocidos")

	// No slots left.
	caster.SpellSlots = map[int]int{1: 0}
	res = v.ValidateSpell(caster, "proyectil_magico", 0, goblinTarget())
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "ranuras")
}

func TestValidateSpellTargetAdvisory(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateSpell(healthyActor(), "rayo_de_escarcha", 0, nil)
	assert.True(t, res.Valid)
	require.Len(t, res.Advisories, 1)
	assert.Contains(t, res.Advisories[0], "objetivo")

	// Self-targeted spells need no target.
	caster := healthyActor()
	caster.KnownSpells = []string{"escudo_magico"}
	res = v.ValidateSpell(caster, "escudo_magico", 0, nil)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Advisories)
}

func TestValidateItemUse(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateItemUse(healthyActor(), "pocion_curacion")
	assert.True(t, res.Valid)

	res = v.ValidateItemUse(healthyActor(), "anillo_unico")
	assert.False(t, res.Valid)
}

func TestValidateMovement(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateMovement(healthyActor(), 20, 0)
	assert.True(t, res.Valid)
	assert.Equal(t, 10, res.Extra["movimiento_restante_despues"])

	res = v.ValidateMovement(healthyActor(), 20, 15)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "suficiente movimiento")

	pinned := healthyActor()
	pinned.Conditions = []string{"agarrado"}
	res = v.ValidateMovement(pinned, 5, 0)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "agarrado")
}

func TestValidateMovementDefaultSpeed(t *testing.T) {
	v := New(testAdapter(t), false)

	actor := &Actor{Name: "Monstruo"}
	res := v.ValidateMovement(actor, 30, 0)
	assert.True(t, res.Valid)

	res = v.ValidateMovement(actor, 35, 0)
	assert.False(t, res.Valid)
}

func TestValidateSkillCheck(t *testing.T) {
	v := New(testAdapter(t), false)

	res := v.ValidateSkillCheck(healthyActor(), "percepcion")
	assert.True(t, res.Valid)

	res = v.ValidateSkillCheck(healthyActor(), "volar")
	assert.False(t, res.Valid)

	// Names with spaces normalise to the sheet ID.
	res = v.ValidateSkillCheck(healthyActor(), "juego manos")
	assert.True(t, res.Valid)
}

func TestValidateSkillCheckConditionAdvisories(t *testing.T) {
	v := New(testAdapter(t), false)

	blinded := healthyActor()
	blinded.Conditions = []string{"cegado"}
	res := v.ValidateSkillCheck(blinded, "percepcion")
	assert.True(t, res.Valid)
	require.Len(t, res.Advisories, 1)
	assert.Contains(t, res.Advisories[0], "cegado")

	// Blindness only affects perception.
	res = v.ValidateSkillCheck(blinded, "atletismo")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Advisories)

	scared := healthyActor()
	scared.Conditions = []string{"asustado"}
	res = v.ValidateSkillCheck(scared, "sigilo")
	assert.True(t, res.Valid)
	require.Len(t, res.Advisories, 1)
	assert.Contains(t, res.Advisories[0], "asustado")
}

func TestValidateGenericAction(t *testing.T) {
	v := New(testAdapter(t), false)

	for _, action := range []GenericAction{
		ActionDash, ActionDisengage, ActionDodge, ActionHelp,
		ActionHide, ActionSearch, ActionReady,
	} {
		res := v.ValidateGenericAction(action, healthyActor())
		assert.True(t, res.Valid, string(action))
	}

	down := healthyActor()
	down.Unconscious = true
	res := v.ValidateGenericAction(ActionDodge, down)
	assert.False(t, res.Valid)
}
