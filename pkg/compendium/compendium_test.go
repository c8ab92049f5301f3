package compendium

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogue(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0644)
	require.NoError(t, err)
}

func testStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()

	writeCatalogue(t, dir, fileMonsters, `{
		"monstruos": [
			{
				"id": "goblin",
				"nombre": "Goblin",
				"puntos_golpe": 7,
				"clase_armadura": 15,
				"atributos": {"fuerza": 8, "destreza": 14, "constitucion": 10},
				"acciones": [
					{"nombre": "Cimitarra", "bonificador_ataque": 4, "daño": "1d6+2", "tipo_daño": "cortante", "alcance": "cuerpo a cuerpo"},
					{"nombre": "Arco corto", "bonificador_ataque": 4, "daño": "1d6+2", "tipo_daño": "perforante", "alcance": "distancia"}
				],
				"rasgos": ["escape_agil"],
				"velocidad": 30,
				"experiencia": 50
			},
			{
				"id": "lobo",
				"nombre": "Lobo",
				"puntos_golpe": 11,
				"clase_armadura": 13,
				"atributos": {"fuerza": 12, "destreza": 15},
				"experiencia": 50
			}
		]
	}`)

	writeCatalogue(t, dir, fileWeapons, `{
		"armas": [
			{"id": "espada_larga", "nombre": "Espada larga", "daño": "1d8", "tipo_daño": "cortante", "propiedades": ["versatil"], "categoria": "marcial", "peso": 3},
			{"id": "daga", "nombre": "Daga", "daño": "1d4", "tipo_daño": "perforante", "propiedades": ["sutil", "ligera"], "categoria": "sencilla", "peso": 1}
		]
	}`)

	writeCatalogue(t, dir, fileArmors, `{
		"armaduras": [
			{"id": "cuero", "nombre": "Armadura de cuero", "ca_base": 11, "tipo": "ligera", "peso": 10},
			{"id": "cota_escamas", "nombre": "Cota de escamas", "ca_base": 14, "max_mod_destreza": 2, "desventaja_sigilo": true, "tipo": "media", "peso": 45}
		],
		"escudos": [
			{"id": "escudo", "nombre": "Escudo", "bonificador_ca": 2, "peso": 6}
		]
	}`)

	writeCatalogue(t, dir, fileSpells, `{
		"conjuros": [
			{"id": "rayo_de_escarcha", "nombre": "Rayo de escarcha", "nivel": 0, "clases": ["mago"], "daño": "1d8", "tipo_daño": "frio", "escalado": "truco"},
			{"id": "proyectil_magico", "nombre": "Proyectil mágico", "nivel": 1, "clases": ["mago", "hechicero"], "daño": "3d4+3", "tipo_daño": "fuerza", "escalado": "espacio"},
			{"id": "luz", "nombre": "Luz", "nivel": 0, "clases": ["mago", "clerigo"]}
		]
	}`)

	writeCatalogue(t, dir, fileItems, `{
		"objetos": [
			{"id": "pocion_curacion", "nombre": "Poción de curación", "categoria": "consumible", "peso": 0.5, "propiedades": {"curacion": "2d4+2"}},
			{"id": "cuerda", "nombre": "Cuerda de cáñamo", "categoria": "equipo", "peso": 10}
		]
	}`)

	return NewStore(dir)
}

func TestStoreLookups(t *testing.T) {
	s := testStore(t)

	goblin, ok := s.Monster("goblin")
	require.True(t, ok)
	assert.Equal(t, "Goblin", goblin.Name)
	assert.Equal(t, 7, goblin.HitPoints)
	assert.Len(t, goblin.Actions, 2)
	assert.True(t, goblin.Actions[0].IsAttack())

	_, ok = s.Monster("dragon")
	assert.False(t, ok)

	sword, ok := s.Weapon("espada_larga")
	require.True(t, ok)
	assert.True(t, sword.HasProperty("versatil"))
	assert.False(t, sword.HasProperty("sutil"))

	scale, ok := s.Armor("cota_escamas")
	require.True(t, ok)
	require.NotNil(t, scale.MaxDexMod)
	assert.Equal(t, 2, *scale.MaxDexMod)

	leather, ok := s.Armor("cuero")
	require.True(t, ok)
	assert.Nil(t, leather.MaxDexMod)

	shield, ok := s.Shield("escudo")
	require.True(t, ok)
	assert.Equal(t, 2, shield.ACBonus)

	potion, ok := s.Item("pocion_curacion")
	require.True(t, ok)
	assert.Equal(t, "2d4+2", potion.Properties["curacion"])
}

func TestStoreSpellFilters(t *testing.T) {
	s := testStore(t)

	all := s.Spells(SpellFilter{})
	assert.Len(t, all, 3)

	level := 0
	cantrips := s.Spells(SpellFilter{Level: &level})
	assert.Len(t, cantrips, 2)

	cleric := s.Spells(SpellFilter{Class: "clerigo"})
	require.Len(t, cleric, 1)
	assert.Equal(t, "luz", cleric[0].ID)
}

func TestStoreItemsByCategory(t *testing.T) {
	s := testStore(t)

	consumables := s.Items("consumible")
	require.Len(t, consumables, 1)
	assert.Equal(t, "pocion_curacion", consumables[0].ID)

	assert.Len(t, s.Items(""), 2)
}

func TestStoreSearch(t *testing.T) {
	s := testStore(t)

	results := s.Search("espada")
	assert.Len(t, results.Weapons, 1)
	assert.Equal(t, 1, results.Total())

	results = s.Search("POCIÓN")
	assert.Len(t, results.Items, 1)
}

func TestStoreMissingFile(t *testing.T) {
	s := NewStore(t.TempDir())
	assert.Empty(t, s.Monsters())
	_, ok := s.Weapon("daga")
	assert.False(t, ok)
}

func TestStoreCacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	writeCatalogue(t, dir, fileWeapons, `{"armas": [{"id": "daga", "nombre": "Daga", "daño": "1d4", "tipo_daño": "perforante"}]}`)
	s := NewStore(dir)

	_, ok := s.Weapon("daga")
	require.True(t, ok)

	// A rewrite is invisible until the cache is dropped.
	writeCatalogue(t, dir, fileWeapons, `{"armas": [{"id": "maza", "nombre": "Maza", "daño": "1d6", "tipo_daño": "contundente"}]}`)
	_, ok = s.Weapon("maza")
	assert.False(t, ok)

	s.Invalidate()
	_, ok = s.Weapon("maza")
	assert.True(t, ok)
	_, ok = s.Weapon("daga")
	assert.False(t, ok)
}

func TestAdapterExistence(t *testing.T) {
	a := NewAdapter(testStore(t))

	assert.True(t, a.MonsterExists("goblin"))
	assert.True(t, a.WeaponExists("daga"))
	assert.True(t, a.SpellExists("luz"))
	assert.True(t, a.Exists("pocion_curacion"))
	assert.False(t, a.Exists("excalibur"))

	entry, ok := a.Lookup("goblin")
	require.True(t, ok)
	assert.Equal(t, CategoryMonster, entry.Category)

	entry, ok = a.Lookup("cuero")
	require.True(t, ok)
	assert.Equal(t, CategoryArmor, entry.Category)
}

func TestAdapterSpellBaseDamage(t *testing.T) {
	a := NewAdapter(testStore(t))

	dmg, ok := a.SpellBaseDamage("rayo_de_escarcha")
	require.True(t, ok)
	assert.Equal(t, "1d8", dmg.Damage)
	assert.Equal(t, 0, dmg.BaseLevel)
	assert.Equal(t, "truco", dmg.Scaling)

	// Non-damaging spells report no damage block.
	_, ok = a.SpellBaseDamage("luz")
	assert.False(t, ok)
}

func TestNewMonsterInstance(t *testing.T) {
	a := NewAdapter(testStore(t))

	inst, ok := a.NewMonsterInstance("goblin", "")
	require.True(t, ok)
	assert.Equal(t, "Goblin", inst.Name)
	assert.Equal(t, "goblin", inst.CompendiumRef)
	assert.Equal(t, "enemigo", inst.Side)
	assert.Equal(t, 7, inst.MaxHP)
	assert.Equal(t, 7, inst.CurrentHP)
	assert.NotEmpty(t, inst.InstanceID)
	assert.Empty(t, inst.Conditions)

	named, ok := a.NewMonsterInstance("goblin", "Goblin 2")
	require.True(t, ok)
	assert.Equal(t, "Goblin 2", named.Name)
	assert.NotEqual(t, inst.InstanceID, named.InstanceID)

	// Mutating the instance must not touch the catalogue.
	inst.Attributes["fuerza"] = 20
	original, _ := a.Store().Monster("goblin")
	assert.Equal(t, 8, original.Attributes["fuerza"])

	// Missing speed defaults to 30.
	wolf, ok := a.NewMonsterInstance("lobo", "")
	require.True(t, ok)
	assert.Equal(t, 30, wolf.Speed)

	_, ok = a.NewMonsterInstance("dragon", "")
	assert.False(t, ok)
}

func TestNewWeaponInstance(t *testing.T) {
	a := NewAdapter(testStore(t))

	inst, ok := a.NewWeaponInstance("daga")
	require.True(t, ok)
	assert.Equal(t, CategoryWeapon, inst.Category)
	assert.Equal(t, 1, inst.Quantity)
	assert.Equal(t, "1d4", inst.Properties["daño"])
	assert.Equal(t, "perforante", inst.Properties["tipo_daño"])
	assert.Nil(t, inst.Properties["bonificador_magico"])
}

func TestNewArmorInstance(t *testing.T) {
	a := NewAdapter(testStore(t))

	inst, ok := a.NewArmorInstance("cota_escamas")
	require.True(t, ok)
	assert.Equal(t, CategoryArmor, inst.Category)
	assert.Equal(t, 14, inst.Properties["ca_base"])
	assert.Equal(t, true, inst.Properties["desventaja_sigilo"])
}

func TestNewItemInstance(t *testing.T) {
	a := NewAdapter(testStore(t))

	inst, ok := a.NewItemInstance("pocion_curacion", 3)
	require.True(t, ok)
	assert.Equal(t, "consumible", inst.Category)
	assert.Equal(t, 3, inst.Quantity)
	assert.Equal(t, "2d4+2", inst.Properties["curacion"])

	one, ok := a.NewItemInstance("cuerda", 0)
	require.True(t, ok)
	assert.Equal(t, 1, one.Quantity)
}
