package compendium

import (
	"github.com/google/uuid"
)

// Entry categories, as used by cross-category lookups and inventory
// entries.
const (
	CategoryMonster = "monstruo"
	CategoryWeapon  = "arma"
	CategoryArmor   = "armadura"
	CategorySpell   = "conjuro"
	CategoryItem    = "objeto"
	CategoryMisc    = "miscelanea"
)

// Adapter is the rules engine's view of the catalogue: lookups,
// existence checks and instance creation. It never interprets the
// data it hands out.
type Adapter struct {
	store *Store
}

// NewAdapter wraps a catalogue store.
func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

// Store exposes the underlying catalogue store.
func (a *Adapter) Store() *Store { return a.store }

// MonsterExists reports whether the stat block exists.
func (a *Adapter) MonsterExists(id string) bool {
	_, ok := a.store.Monster(id)
	return ok
}

// WeaponExists reports whether the weapon exists.
func (a *Adapter) WeaponExists(id string) bool {
	_, ok := a.store.Weapon(id)
	return ok
}

// ArmorExists reports whether the armour entry exists.
func (a *Adapter) ArmorExists(id string) bool {
	_, ok := a.store.Armor(id)
	return ok
}

// SpellExists reports whether the spell exists.
func (a *Adapter) SpellExists(id string) bool {
	_, ok := a.store.Spell(id)
	return ok
}

// ItemExists reports whether the miscellaneous item exists.
func (a *Adapter) ItemExists(id string) bool {
	_, ok := a.store.Item(id)
	return ok
}

// Exists reports whether the ID exists in any category.
func (a *Adapter) Exists(id string) bool {
	return a.MonsterExists(id) || a.WeaponExists(id) || a.ArmorExists(id) ||
		a.SpellExists(id) || a.ItemExists(id)
}

// AnyEntry is the result of a cross-category lookup.
type AnyEntry struct {
	Category string `json:"categoria"`
	Data     any    `json:"datos"`
}

// Lookup finds an ID in any category, checked in a fixed order so
// collisions resolve deterministically.
func (a *Adapter) Lookup(id string) (AnyEntry, bool) {
	if m, ok := a.store.Monster(id); ok {
		return AnyEntry{Category: CategoryMonster, Data: m}, true
	}
	if w, ok := a.store.Weapon(id); ok {
		return AnyEntry{Category: CategoryWeapon, Data: w}, true
	}
	if ar, ok := a.store.Armor(id); ok {
		return AnyEntry{Category: CategoryArmor, Data: ar}, true
	}
	if sp, ok := a.store.Spell(id); ok {
		return AnyEntry{Category: CategorySpell, Data: sp}, true
	}
	if it, ok := a.store.Item(id); ok {
		return AnyEntry{Category: CategoryItem, Data: it}, true
	}
	return AnyEntry{}, false
}

// SpellBaseDamage returns a spell's unscaled damage block, or false
// if the spell does not exist or deals no damage.
func (a *Adapter) SpellBaseDamage(id string) (SpellDamage, bool) {
	sp, ok := a.store.Spell(id)
	if !ok || sp.Damage == "" {
		return SpellDamage{}, false
	}
	return SpellDamage{
		Damage:     sp.Damage,
		DamageType: sp.DamageType,
		BaseLevel:  sp.Level,
		Scaling:    sp.Scaling,
	}, true
}

// NewMonsterInstance creates a combat-ready copy of a stat block with
// a fresh instance ID. customName overrides the catalogue name when
// non-empty ("Goblin 2"). Returns false if the stat block is unknown.
func (a *Adapter) NewMonsterInstance(monsterID, customName string) (MonsterInstance, bool) {
	data, ok := a.store.Monster(monsterID)
	if !ok {
		return MonsterInstance{}, false
	}

	name := data.Name
	if customName != "" {
		name = customName
	}
	speed := data.Speed
	if speed == 0 {
		speed = 30
	}

	attrs := make(map[string]int, len(data.Attributes))
	for k, v := range data.Attributes {
		attrs[k] = v
	}
	actions := make([]MonsterAction, len(data.Actions))
	copy(actions, data.Actions)
	traits := make([]string, len(data.Traits))
	copy(traits, data.Traits)

	return MonsterInstance{
		InstanceID:    uuid.NewString(),
		CompendiumRef: monsterID,
		Category:      CategoryMonster,
		Name:          name,
		Side:          "enemigo",
		MaxHP:         data.HitPoints,
		CurrentHP:     data.HitPoints,
		ArmorClass:    data.ArmorClass,
		Attributes:    attrs,
		Actions:       actions,
		Traits:        traits,
		Speed:         speed,
		Conditions:    []string{},
	}, true
}

// NewWeaponInstance creates an inventory entry for a weapon.
func (a *Adapter) NewWeaponInstance(weaponID string) (ItemInstance, bool) {
	data, ok := a.store.Weapon(weaponID)
	if !ok {
		return ItemInstance{}, false
	}
	return ItemInstance{
		InstanceID:    uuid.NewString(),
		CompendiumRef: weaponID,
		Category:      CategoryWeapon,
		Name:          data.Name,
		Quantity:      1,
		UnitWeightLb:  data.WeightLb,
		Magical:       data.Magical,
		Description:   data.Description,
		Properties: map[string]any{
			"daño":               data.Damage,
			"tipo_daño":          data.DamageType,
			"propiedades_arma":   data.Properties,
			"categoria_arma":     data.Category,
			"bonificador_magico": nil,
		},
	}, true
}

// NewArmorInstance creates an inventory entry for an armour piece.
func (a *Adapter) NewArmorInstance(armorID string) (ItemInstance, bool) {
	data, ok := a.store.Armor(armorID)
	if !ok {
		return ItemInstance{}, false
	}
	return ItemInstance{
		InstanceID:    uuid.NewString(),
		CompendiumRef: armorID,
		Category:      CategoryArmor,
		Name:          data.Name,
		Quantity:      1,
		UnitWeightLb:  data.WeightLb,
		Magical:       data.Magical,
		Description:   data.Description,
		Properties: map[string]any{
			"ca_base":            data.BaseAC,
			"max_mod_destreza":   data.MaxDexMod,
			"requisito_fuerza":   data.StrengthReq,
			"desventaja_sigilo":  data.StealthDisadvantage,
			"tipo_armadura":      data.Type,
			"bonificador_magico": nil,
		},
	}, true
}

// NewItemInstance creates an inventory entry for a miscellaneous item
// with the given stack size.
func (a *Adapter) NewItemInstance(itemID string, quantity int) (ItemInstance, bool) {
	data, ok := a.store.Item(itemID)
	if !ok {
		return ItemInstance{}, false
	}
	if quantity < 1 {
		quantity = 1
	}
	category := data.Category
	if category == "" {
		category = CategoryMisc
	}
	props := make(map[string]any, len(data.Properties))
	for k, v := range data.Properties {
		props[k] = v
	}
	return ItemInstance{
		InstanceID:    uuid.NewString(),
		CompendiumRef: itemID,
		Category:      category,
		Name:          data.Name,
		Quantity:      quantity,
		UnitWeightLb:  data.WeightLb,
		Magical:       data.Magical,
		Description:   data.Description,
		Properties:    props,
	}, true
}
