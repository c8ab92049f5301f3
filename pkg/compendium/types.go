// Package compendium provides read-only access to the game reference
// data (monsters, weapons, armour, spells, miscellaneous items) stored
// as JSON catalogue files, plus factories that stamp out per-combat and
// per-inventory instances of those entries.
//
// The package is a data adapter. It never interprets rules: damage
// scaling, attack attribute selection and similar decisions belong to
// the rules and combat packages.
package compendium

// Monster is a catalogue stat block.
type Monster struct {
	ID         string          `json:"id"`
	Name       string          `json:"nombre"`
	Type       string          `json:"tipo,omitempty"`
	HitPoints  int             `json:"puntos_golpe"`
	ArmorClass int             `json:"clase_armadura"`
	Attributes map[string]int  `json:"atributos"`
	Actions    []MonsterAction `json:"acciones,omitempty"`
	Traits     []string        `json:"rasgos,omitempty"`
	Speed      int             `json:"velocidad,omitempty"`
	Experience int             `json:"experiencia,omitempty"`
	Challenge  string          `json:"desafio,omitempty"`
}

// MonsterAction is one entry of a stat block's action list. Attack
// actions carry an attack bonus; utility actions leave it nil.
type MonsterAction struct {
	Name        string `json:"nombre"`
	AttackBonus *int   `json:"bonificador_ataque,omitempty"`
	Damage      string `json:"daño,omitempty"`
	DamageType  string `json:"tipo_daño,omitempty"`
	Reach       string `json:"alcance,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

// IsAttack reports whether the action is an attack rather than a
// utility action.
func (a MonsterAction) IsAttack() bool { return a.AttackBonus != nil }

// Weapon is a catalogue weapon entry.
type Weapon struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Damage      string   `json:"daño"`
	DamageType  string   `json:"tipo_daño"`
	Properties  []string `json:"propiedades,omitempty"`
	Category    string   `json:"categoria,omitempty"`
	Range       string   `json:"alcance,omitempty"`
	WeightLb    float64  `json:"peso,omitempty"`
	Magical     bool     `json:"is_magical,omitempty"`
	Description string   `json:"descripcion,omitempty"`
}

// HasProperty reports whether the weapon carries the named property
// (e.g. "sutil", "versatil", "distancia").
func (w Weapon) HasProperty(name string) bool {
	for _, p := range w.Properties {
		if p == name {
			return true
		}
	}
	return false
}

// Armor is a catalogue armour entry. MaxDexMod is nil for light
// armour (full DEX applies), 2 for medium, 0 for heavy.
type Armor struct {
	ID                  string  `json:"id"`
	Name                string  `json:"nombre"`
	BaseAC              int     `json:"ca_base"`
	MaxDexMod           *int    `json:"max_mod_destreza,omitempty"`
	StrengthReq         *int    `json:"requisito_fuerza,omitempty"`
	StealthDisadvantage bool    `json:"desventaja_sigilo,omitempty"`
	Type                string  `json:"tipo,omitempty"`
	WeightLb            float64 `json:"peso,omitempty"`
	Magical             bool    `json:"is_magical,omitempty"`
	Description         string  `json:"descripcion,omitempty"`
}

// Shield is a catalogue shield entry.
type Shield struct {
	ID          string  `json:"id"`
	Name        string  `json:"nombre"`
	ACBonus     int     `json:"bonificador_ca"`
	WeightLb    float64 `json:"peso,omitempty"`
	Description string  `json:"descripcion,omitempty"`
}

// Spell is a catalogue spell entry. Damage is empty for non-damaging
// spells; Scaling describes cantrip/slot scaling and is interpreted by
// the combat package.
type Spell struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Level       int      `json:"nivel"`
	School      string   `json:"escuela,omitempty"`
	Classes     []string `json:"clases,omitempty"`
	Damage      string   `json:"daño,omitempty"`
	DamageType  string   `json:"tipo_daño,omitempty"`
	Scaling     string   `json:"escalado,omitempty"`
	Range       string   `json:"alcance,omitempty"`
	Target      string   `json:"objetivo,omitempty"`
	Save        string   `json:"salvacion,omitempty"`
	Duration    string   `json:"duracion,omitempty"`
	Description string   `json:"descripcion,omitempty"`
}

// Item is a miscellaneous catalogue entry (potions, gear, trinkets).
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"nombre"`
	Category    string         `json:"categoria,omitempty"`
	WeightLb    float64        `json:"peso,omitempty"`
	Magical     bool           `json:"is_magical,omitempty"`
	Description string         `json:"descripcion,omitempty"`
	Properties  map[string]any `json:"propiedades,omitempty"`
}

// SpellDamage is the unscaled damage block of a spell, handed to the
// combat package for scaling.
type SpellDamage struct {
	Damage     string `json:"daño"`
	DamageType string `json:"tipo_daño"`
	BaseLevel  int    `json:"nivel_base"`
	Scaling    string `json:"escalado,omitempty"`
}

// SearchResults groups catalogue entries whose name matched a search
// term, by category.
type SearchResults struct {
	Monsters []Monster `json:"monstruos"`
	Weapons  []Weapon  `json:"armas"`
	Armors   []Armor   `json:"armaduras"`
	Spells   []Spell   `json:"conjuros"`
	Items    []Item    `json:"objetos"`
}

// Total returns the number of entries across all categories.
func (r SearchResults) Total() int {
	return len(r.Monsters) + len(r.Weapons) + len(r.Armors) + len(r.Spells) + len(r.Items)
}

// MonsterInstance is a combat-ready copy of a stat block with its own
// identity. Mutating an instance never touches the catalogue.
type MonsterInstance struct {
	InstanceID    string          `json:"instancia_id"`
	CompendiumRef string          `json:"compendio_ref"`
	Category      string          `json:"categoria"`
	Name          string          `json:"nombre"`
	Side          string          `json:"tipo"`
	MaxHP         int             `json:"puntos_golpe_maximo"`
	CurrentHP     int             `json:"puntos_golpe_actual"`
	ArmorClass    int             `json:"clase_armadura"`
	Attributes    map[string]int  `json:"atributos"`
	Actions       []MonsterAction `json:"acciones"`
	Traits        []string        `json:"rasgos"`
	Speed         int             `json:"velocidad"`
	Conditions    []string        `json:"condiciones"`
}

// ItemInstance is an inventory entry created from a catalogue item,
// weapon or armour. Properties carries the category-specific block
// (damage for weapons, AC data for armour, effect data for items).
type ItemInstance struct {
	InstanceID    string         `json:"instancia_id"`
	CompendiumRef string         `json:"compendio_ref"`
	Category      string         `json:"categoria"`
	Name          string         `json:"nombre"`
	Quantity      int            `json:"cantidad"`
	UnitWeightLb  float64        `json:"peso_unitario_lb"`
	Magical       bool           `json:"is_magical"`
	Description   string         `json:"descripcion"`
	Properties    map[string]any `json:"propiedades"`
}
