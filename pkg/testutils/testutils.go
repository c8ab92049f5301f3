// Package testutils provides the fixtures game tests share: scripted
// dice, a catalogue directory with a goblin and basic gear, and a
// ready-to-fight sample sheet.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
)

// ScriptedSource replays a fixed sequence of die values, cycling when
// exhausted. Values are 1-based die faces.
type ScriptedSource struct {
	Values []int
	pos    int
}

func (s *ScriptedSource) IntN(n int) int {
	v := s.Values[s.pos%len(s.Values)]
	s.pos++
	return v - 1
}

// Roller builds a dice roller over scripted values.
func Roller(values ...int) *dice.Roller {
	return dice.NewRoller(&ScriptedSource{Values: values})
}

// CompendiumDir writes a minimal catalogue into a temp directory and
// returns its path: a goblin with a scimitar action, a longsword, a
// shortbow, chain mail, a shield and a healing potion.
func CompendiumDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"monstruos": `{"monstruos": [
			{"id": "goblin", "nombre": "Goblin", "tipo": "humanoide", "desafio": "1/4",
			 "puntos_golpe": 7, "clase_armadura": 15, "experiencia": 50,
			 "atributos": {"fuerza": 8, "destreza": 14},
			 "acciones": [{"nombre": "Cimitarra", "bonificador_ataque": 4, "daño": "1d6+2", "tipo_daño": "cortante", "alcance": "5"}]},
			{"id": "lobo", "nombre": "Lobo", "tipo": "bestia", "desafio": "1/4",
			 "puntos_golpe": 11, "clase_armadura": 13, "experiencia": 50,
			 "atributos": {"fuerza": 12, "destreza": 15}}
		]}`,
		"armas": `{"armas": [
			{"id": "espada_larga", "nombre": "Espada larga", "daño": "1d8", "tipo_daño": "cortante"},
			{"id": "arco_corto", "nombre": "Arco corto", "daño": "1d6", "tipo_daño": "perforante", "propiedades": ["distancia"], "categoria": "distancia"}
		]}`,
		"armaduras_escudos": `{"armaduras": [
			{"id": "cota_mallas", "nombre": "Cota de mallas", "ca_base": 13, "max_mod_destreza": 2}
		], "escudos": [
			{"id": "escudo", "nombre": "Escudo", "bonificador_ca": 2}
		]}`,
		"conjuros": `{"conjuros": [
			{"id": "proyectil_magico", "nombre": "Proyectil mágico", "nivel": 1, "daño": "3d4+3", "objetivo": "criatura"}
		]}`,
		"miscelanea": `{"objetos": [
			{"id": "pocion_curacion", "nombre": "Poción de curación", "categoria": "pocion"}
		]}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0644))
	}
	return dir
}

// Adapter builds a compendium adapter over CompendiumDir.
func Adapter(t *testing.T) *compendium.Adapter {
	t.Helper()
	return compendium.NewAdapter(compendium.NewStore(CompendiumDir(t)))
}

// SampleSheet is a level 3 human fighter with a longsword, derived
// values precomputed.
func SampleSheet() *character.Sheet {
	return &character.Sheet{
		ID:   "pj-1",
		Info: character.BasicInfo{Name: "Elara", Race: "humano", Class: "guerrero", Level: 3},
		Abilities: map[string]int{
			"fuerza": 16, "destreza": 14, "constitucion": 14,
			"inteligencia": 10, "sabiduria": 12, "carisma": 8,
		},
		Proficiencies: character.Proficiencies{
			Saves:  []string{"fuerza", "constitucion"},
			Skills: []character.SkillProficiency{{ID: "atletismo", Origin: "clase"}},
		},
		Equipment: character.Equipment{
			Weapons: []character.WeaponItem{
				{ID: "espada_larga_1", CompendiumRef: "espada_larga", Name: "Espada larga", Equipped: true},
			},
			Money: character.Money{Gold: 10},
		},
		Derived: character.Derived{
			ProficiencyBonus: 2,
			MaxHP:            28,
			CurrentHP:        28,
			ArmorClass:       16,
			Speed:            30,
			Initiative:       2,
			Modifiers: map[string]int{
				"fuerza": 3, "destreza": 2, "constitucion": 2,
				"inteligencia": 0, "sabiduria": 1, "carisma": -1,
			},
			Saves: map[string]int{"fuerza": 5, "constitucion": 4, "destreza": 2},
		},
	}
}
