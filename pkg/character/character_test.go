package character

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/storage"
)

func testData(t *testing.T) *Data {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"razas.json": `{
			"humano": {"nombre": "Humano", "velocidad": 30,
				"bonificadores": {"fuerza": 1, "destreza": 1, "constitucion": 1, "inteligencia": 1, "sabiduria": 1, "carisma": 1}},
			"enano": {"nombre": "Enano", "velocidad": 25,
				"bonificadores": {"constitucion": 2},
				"rasgos": [{"id": "dureza_enana", "nombre": "Dureza enana"}]}
		}`,
		"clases.json": `{
			"guerrero": {"nombre": "Guerrero", "dado_golpe": "d10", "hp_nivel_1": 10,
				"salvaciones": ["fuerza", "constitucion"]},
			"mago": {"nombre": "Mago", "dado_golpe": "d6", "hp_nivel_1": 6,
				"salvaciones": ["inteligencia", "sabiduria"]}
		}`,
		"trasfondos.json": `{
			"soldado": {"nombre": "Soldado", "competencias_habilidades": ["atletismo", "intimidacion"]}
		}`,
	}
	for name, content := range files {
		require.NoError(t, storage.WriteFileAtomic(filepath.Join(dir, name), []byte(content)))
	}

	data, err := LoadData(dir)
	require.NoError(t, err)
	return data
}

func fighterSheet() *Sheet {
	return &Sheet{
		Info: BasicInfo{Name: "Elara", Race: "humano", Class: "guerrero", Level: 1},
		Abilities: map[string]int{
			"fuerza": 16, "destreza": 14, "constitucion": 14,
			"inteligencia": 10, "sabiduria": 12, "carisma": 8,
		},
		Proficiencies: Proficiencies{
			Saves:  []string{"fuerza", "constitucion"},
			Skills: []SkillProficiency{{ID: "atletismo", Origin: "clase"}},
		},
		Equipment: Equipment{
			Weapons: []WeaponItem{
				{ID: "espada_larga_1", CompendiumRef: "espada_larga", Name: "Espada larga", Equipped: true},
				{ID: "daga_1", CompendiumRef: "daga", Name: "Daga"},
			},
			Armor:  &ArmorItem{ID: "cota_mallas_1", CompendiumRef: "cota_mallas", Name: "Cota de mallas", Equipped: true},
			Shield: &ArmorItem{ID: "escudo_1", CompendiumRef: "escudo", Name: "Escudo", Equipped: true},
			Money:  Money{Gold: 15},
		},
	}
}

func TestRecomputeFighter(t *testing.T) {
	data := testData(t)
	s := fighterSheet()
	Recompute(s, data)

	assert.Equal(t, 2, s.Derived.ProficiencyBonus)
	// 10 base + CON mod 2.
	assert.Equal(t, 12, s.Derived.MaxHP)
	assert.Equal(t, 12, s.Derived.CurrentHP)
	assert.Equal(t, "d10", s.Derived.HitDie)
	// Cota de mallas 13 + DEX capped at 2 + shield 2.
	assert.Equal(t, 17, s.Derived.ArmorClass)
	assert.Equal(t, 30, s.Derived.Speed)
	assert.Equal(t, 2, s.Derived.Initiative)
	assert.Equal(t, 3, s.Derived.Modifiers["fuerza"])
	// Proficient save: STR mod 3 + prof 2; untrained: DEX mod 2.
	assert.Equal(t, 5, s.Derived.Saves["fuerza"])
	assert.Equal(t, 2, s.Derived.Saves["destreza"])
}

func TestRecomputeDefenseStyleAndSuffix(t *testing.T) {
	data := testData(t)
	s := fighterSheet()
	s.Equipment.Armor.CompendiumRef = "cota_mallas_2" // instance suffix
	s.Traits.Class = append(s.Traits.Class, Trait{ID: "estilo_combate", Option: StyleDefense})
	Recompute(s, data)

	// 13 + 2 (capped DEX) + 2 (shield) + 1 (defense style).
	assert.Equal(t, 18, s.Derived.ArmorClass)
}

func TestRecomputeUnarmored(t *testing.T) {
	data := testData(t)
	s := fighterSheet()
	s.Equipment.Armor = nil
	s.Equipment.Shield = nil
	Recompute(s, data)

	assert.Equal(t, 12, s.Derived.ArmorClass)
}

func TestRecomputeDwarvenToughness(t *testing.T) {
	data := testData(t)
	s := fighterSheet()
	s.Info.Race = "enano"
	s.Info.Level = 3
	s.Traits.Racial = []Trait{{ID: "dureza_enana"}}
	Recompute(s, data)

	// 10+2 at level 1, +(6+2) per extra level, +1 per level for the
	// racial trait: 12 + 16 + 3.
	assert.Equal(t, 31, s.Derived.MaxHP)
	assert.Equal(t, 25, s.Derived.Speed)
}

func TestRecomputePreservesCurrentHP(t *testing.T) {
	data := testData(t)
	s := fighterSheet()
	Recompute(s, data)
	s.Derived.CurrentHP = 5
	Recompute(s, data)
	assert.Equal(t, 5, s.Derived.CurrentHP)

	// Clamped when the maximum drops below it.
	s.Info.Class = "mago"
	s.Derived.CurrentHP = 40
	Recompute(s, data)
	assert.Equal(t, s.Derived.MaxHP, s.Derived.CurrentHP)
}

func TestApplyRaceBonuses(t *testing.T) {
	data := testData(t)
	base := map[string]int{"fuerza": 15, "destreza": 14, "constitucion": 13,
		"inteligencia": 12, "sabiduria": 10, "carisma": 8}

	out := ApplyRaceBonuses(base, data, "enano", nil)
	assert.Equal(t, 15, out["constitucion"])
	assert.Equal(t, 15, out["fuerza"])
	// Base map untouched.
	assert.Equal(t, 13, base["constitucion"])

	out = ApplyRaceBonuses(base, data, "semielfo", map[string]int{"fuerza": 1, "destreza": 1})
	assert.Equal(t, 16, out["fuerza"])
}

func TestEquipWeaponKeepsSinglePrimary(t *testing.T) {
	s := fighterSheet()
	require.True(t, s.Equipment.EquipWeapon("daga_1"))

	assert.Equal(t, "daga_1", s.Equipment.MainWeapon().ID)
	for _, w := range s.Equipment.Weapons {
		if w.ID != "daga_1" {
			assert.False(t, w.Equipped)
		}
	}
	assert.False(t, s.Equipment.EquipWeapon("inexistente"))
}

func TestStoreSaveLoadList(t *testing.T) {
	data := testData(t)
	st := NewStore(t.TempDir(), data)

	s := fighterSheet()
	id, err := st.Save(s)
	require.NoError(t, err)
	require.Len(t, id, 8)
	assert.NotEmpty(t, s.CreatedAt)

	loaded, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "Elara", loaded.Info.Name)
	// Derived block recomputed on load.
	assert.Equal(t, 17, loaded.Derived.ArmorClass)

	entries, err := st.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "guerrero", entries[0].Class)

	_, err = st.Load("zzzzzzzz")
	assert.ErrorContains(t, err, "no encontrado")
}

func TestStoreSaveClearsAutosave(t *testing.T) {
	st := NewStore(t.TempDir(), nil)

	s := fighterSheet()
	id, err := st.SaveAutosave(s, "equipo", []string{"raza", "clase"})
	require.NoError(t, err)

	auto, err := st.LoadAutosave(id)
	require.NoError(t, err)
	assert.Equal(t, "equipo", auto.CurrentStep)
	assert.Equal(t, []string{"raza", "clase"}, auto.CompletedSteps)

	_, err = st.Save(s)
	require.NoError(t, err)

	_, err = st.LoadAutosave(id)
	assert.Error(t, err)
}

func TestStoreDelete(t *testing.T) {
	st := NewStore(t.TempDir(), nil)
	id, err := st.Save(fighterSheet())
	require.NoError(t, err)

	removed, err := st.Delete(id)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, st.Exists(id))
}

func TestAwardXP(t *testing.T) {
	p := NewProgression(nil)
	s := fighterSheet()

	res := p.AwardXP(s, 250)
	assert.Equal(t, 0, res.Before)
	assert.Equal(t, 250, res.After)
	assert.False(t, res.CanLevelUp)

	res = p.AwardXP(s, 100)
	assert.Equal(t, 350, res.After)
	assert.True(t, res.CanLevelUp)
	assert.Equal(t, 2, res.ReachableLevel)
	assert.Equal(t, 350, s.Info.Experience)
}

func TestLevelForXP(t *testing.T) {
	p := NewProgression(nil)
	assert.Equal(t, 1, p.LevelForXP(0))
	assert.Equal(t, 1, p.LevelForXP(299))
	assert.Equal(t, 2, p.LevelForXP(300))
	assert.Equal(t, 5, p.LevelForXP(6500))
	assert.Equal(t, 20, p.LevelForXP(400000))
}

func TestLevelUp(t *testing.T) {
	data := testData(t)
	p := NewProgression(data)
	s := fighterSheet()
	Recompute(s, data)
	s.Derived.CurrentHP = 4

	res, err := p.LevelUp(s, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PreviousLevel)
	assert.Equal(t, 2, res.NewLevel)
	// d10 average 6 + CON mod 2.
	assert.Equal(t, 8, res.HPGained)
	assert.Equal(t, 2, s.Info.Level)
	assert.Equal(t, s.Derived.MaxHP, s.Derived.CurrentHP)
}

func TestLevelUpToFourFlagsImprovement(t *testing.T) {
	p := NewProgression(nil)
	s := fighterSheet()

	res, err := p.LevelUp(s, 4)
	require.NoError(t, err)
	assert.True(t, res.AbilityImprovement)
	assert.Equal(t, 4, s.Info.Level)
	assert.Equal(t, 2, s.Derived.ProficiencyBonus)
}

func TestLevelUpRejectsLowerTarget(t *testing.T) {
	p := NewProgression(nil)
	s := fighterSheet()
	s.Info.Level = 5

	_, err := p.LevelUp(s, 3)
	assert.ErrorContains(t, err, "debe ser mayor")
}

func TestLevelUpRogueSneakAttack(t *testing.T) {
	p := NewProgression(nil)
	s := fighterSheet()
	s.Info.Class = "picaro"

	res, err := p.LevelUp(s, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, res.SneakAttackDice)
}

func TestXPProgress(t *testing.T) {
	p := NewProgression(nil)
	s := fighterSheet()
	s.Info.Experience = 150

	prog := p.XPProgress(s)
	assert.Equal(t, 300, prog.NextLevelXP)
	assert.Equal(t, 150, prog.Missing)
	assert.Equal(t, 50, prog.Percent)

	s.Info.Level = 20
	prog = p.XPProgress(s)
	assert.Equal(t, 100, prog.Percent)
	assert.Equal(t, 0, prog.NextLevelXP)
}

func TestLoadProgressionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progresion_niveles.json")
	require.NoError(t, storage.WriteFileAtomic(path, []byte(`{
		"clases": {
			"guerrero": {"niveles": {
				"2": {"features": [{"id": "accion_subida", "nombre": "Acción de oleada"}]}
			}}
		}
	}`)))

	p, err := LoadProgression(path, nil)
	require.NoError(t, err)

	s := fighterSheet()
	res, err := p.LevelUp(s, 2)
	require.NoError(t, err)
	require.Len(t, res.NewFeatures, 1)
	assert.Equal(t, "accion_subida", res.NewFeatures[0].ID)
	_, ok := s.Traits.ClassTrait("accion_subida")
	assert.True(t, ok)
}
