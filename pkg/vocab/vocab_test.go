package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		text   string
		intent Intent
		found  bool
	}{
		{"ataco al goblin", IntentAttack, true},
		{"Golpeo a la criatura", IntentAttack, true},
		{"me muevo hacia la puerta", IntentMovement, true},
		{"lanzo magia", IntentSpell, true},
		{"escucho atentamente", IntentSkill, true},
		{"bebo la poción", IntentItem, true},
		{"qué hora es", "", false},
		// Verbs embedded in longer words must not match.
		{"atacoso", "", false},
	}
	for _, tt := range tests {
		intent, found := DetectIntent(tt.text)
		assert.Equal(t, tt.found, found, tt.text)
		if found {
			assert.Equal(t, tt.intent, intent, tt.text)
		}
	}
}

func TestDetectSkill(t *testing.T) {
	skill, ok := DetectSkill("escucho tras la puerta")
	assert.True(t, ok)
	assert.Equal(t, "percepcion", skill)

	skill, ok = DetectSkill("intento persuadirlo")
	assert.True(t, ok)
	assert.Equal(t, "persuasion", skill)

	skill, ok = DetectSkill("trepo por el muro")
	assert.True(t, ok)
	assert.Equal(t, "atletismo", skill)

	_, ok = DetectSkill("ataco al goblin")
	assert.False(t, ok)
}

func TestDetectGenericAction(t *testing.T) {
	action, ok := DetectGenericAction("me pongo a esquivar")
	assert.True(t, ok)
	assert.Equal(t, "dodge", action)

	action, ok = DetectGenericAction("me escondo detrás del barril")
	assert.True(t, ok)
	assert.Equal(t, "hide", action)

	_, ok = DetectGenericAction("ataco con la espada")
	assert.False(t, ok)
}

func TestDetectWeapon(t *testing.T) {
	id, ok := DetectWeapon("ataco con mi espada larga")
	assert.True(t, ok)
	assert.Equal(t, "espada_larga", id)

	id, ok = DetectWeapon("saco el cuchillo")
	assert.True(t, ok)
	assert.Equal(t, "daga", id)

	_, ok = DetectWeapon("grito fuerte")
	assert.False(t, ok)
}

func TestIsUnarmed(t *testing.T) {
	assert.True(t, IsUnarmed("le doy un puñetazo"))
	assert.True(t, IsUnarmed("ataco sin arma"))
	assert.False(t, IsUnarmed("ataco con la daga"))
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Arco corto", "arco_corto"},
		{"Aliento ígneo", "aliento_igneo"},
		{"Mordisco (lobo)", "mordisco_lobo"},
		{"Espada larga +1", "espada_larga_1"},
		{"  Garras  ", "garras"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}
