// Package character owns the player-character sheet: its authored
// sections, the derived block recomputed from them, persistence with
// autosaves, and XP progression.
package character

import (
	"encoding/json"
	"time"
)

// BasicInfo is the identity block of a sheet.
type BasicInfo struct {
	Name       string `json:"nombre"`
	Race       string `json:"raza"`
	Class      string `json:"clase"`
	Level      int    `json:"nivel"`
	Background string `json:"trasfondo,omitempty"`
	Alignment  string `json:"alineamiento,omitempty"`
	Experience int    `json:"experiencia"`
}

// SkillProficiency records one proficient skill and where it came from.
type SkillProficiency struct {
	ID     string `json:"id"`
	Origin string `json:"origen,omitempty"` // raza, clase or trasfondo
}

// Proficiencies groups everything the character is trained in.
type Proficiencies struct {
	Saves     []string           `json:"salvaciones,omitempty"`
	Skills    []SkillProficiency `json:"habilidades,omitempty"`
	Armors    []string           `json:"armaduras,omitempty"`
	Weapons   []string           `json:"armas,omitempty"`
	Tools     []string           `json:"herramientas,omitempty"`
	Languages []string           `json:"idiomas,omitempty"`
}

// Trait is one racial, class or background feature. Some traits carry
// a chosen option, e.g. the combat style.
type Trait struct {
	ID          string `json:"id"`
	Name        string `json:"nombre,omitempty"`
	Description string `json:"descripcion,omitempty"`
	Option      string `json:"opcion,omitempty"`
}

// Combat style options for the estilo_combate trait.
const (
	StyleDefense     = "defensa"
	StyleDueling     = "duelo"
	StyleGreatWeapon = "arma_a_dos_manos"
	StyleTwoWeapon   = "dos_armas"
	StyleArchery     = "tiro_con_arco"
)

// Traits holds the three feature lists of a sheet.
type Traits struct {
	Racial     []Trait `json:"raciales,omitempty"`
	Class      []Trait `json:"clase,omitempty"`
	Background []Trait `json:"trasfondo,omitempty"`
}

// ClassTrait finds a class trait by ID.
func (t Traits) ClassTrait(id string) (Trait, bool) {
	for _, tr := range t.Class {
		if tr.ID == id {
			return tr, true
		}
	}
	return Trait{}, false
}

// HasRacial reports whether a racial trait with the given ID exists.
func (t Traits) HasRacial(id string) bool {
	for _, tr := range t.Racial {
		if tr.ID == id {
			return true
		}
	}
	return false
}

// WeaponItem is one weapon instance in the inventory.
type WeaponItem struct {
	ID            string `json:"id"`
	CompendiumRef string `json:"compendio_ref"`
	Name          string `json:"nombre"`
	Equipped      bool   `json:"equipada"`
}

// ArmorItem is the armour or shield slot content.
type ArmorItem struct {
	ID            string `json:"id"`
	CompendiumRef string `json:"compendio_ref"`
	Name          string `json:"nombre"`
	Equipped      bool   `json:"equipada"`
}

// Item is a misc inventory entry with a stack count.
type Item struct {
	ID            string `json:"id"`
	CompendiumRef string `json:"compendio_ref"`
	Name          string `json:"nombre"`
	Count         int    `json:"cantidad"`
}

// Money is the coin purse in gold, silver and copper pieces.
type Money struct {
	Gold   int `json:"po"`
	Silver int `json:"pp"`
	Copper int `json:"pc"`
}

// Equipment is the inventory block of a sheet.
type Equipment struct {
	Weapons []WeaponItem `json:"armas,omitempty"`
	Armor   *ArmorItem   `json:"armadura,omitempty"`
	Shield  *ArmorItem   `json:"escudo,omitempty"`
	Items   []Item       `json:"objetos,omitempty"`
	Money   Money        `json:"dinero"`
}

// MainWeapon returns the equipped primary weapon, if any.
func (e *Equipment) MainWeapon() *WeaponItem {
	for i := range e.Weapons {
		if e.Weapons[i].Equipped {
			return &e.Weapons[i]
		}
	}
	return nil
}

// EquipWeapon marks one weapon instance as the equipped primary,
// unequipping the rest. At most one primary stays equipped.
func (e *Equipment) EquipWeapon(instanceID string) bool {
	found := false
	for i := range e.Weapons {
		if e.Weapons[i].ID == instanceID {
			e.Weapons[i].Equipped = true
			found = true
		} else {
			e.Weapons[i].Equipped = false
		}
	}
	return found
}

// Derived is the recomputed block. It is never authored directly:
// Recompute rebuilds it from the authored sections on load and after
// any mutation.
type Derived struct {
	ProficiencyBonus int            `json:"bonificador_competencia"`
	MaxHP            int            `json:"puntos_golpe_maximo"`
	CurrentHP        int            `json:"puntos_golpe_actual"`
	HitDie           string         `json:"dado_golpe"`
	ArmorClass       int            `json:"clase_armadura"`
	Speed            int            `json:"velocidad"`
	Initiative       int            `json:"iniciativa"`
	Modifiers        map[string]int `json:"modificadores"`
	Saves            map[string]int `json:"salvaciones"`
}

// AdventureState is the orchestrator's private blob on the sheet. The
// context payload stays opaque to this package.
type AdventureState struct {
	Context            json.RawMessage `json:"contexto,omitempty"`
	Turn               int             `json:"turno,omitempty"`
	LastSessionSummary string          `json:"resumen_ultima_sesion,omitempty"`
}

// Sheet is the full character record as persisted to disk.
type Sheet struct {
	ID             string          `json:"id"`
	Info           BasicInfo       `json:"info_basica"`
	Abilities      map[string]int  `json:"caracteristicas"`
	Proficiencies  Proficiencies   `json:"competencias"`
	Traits         Traits          `json:"rasgos"`
	Equipment      Equipment       `json:"equipo"`
	Spells         Spellcasting    `json:"conjuros,omitempty"`
	Derived        Derived         `json:"derivados"`
	AdventureState *AdventureState `json:"estado_aventura,omitempty"`
	CreatedAt      string          `json:"fecha_creacion,omitempty"`
	ModifiedAt     string          `json:"fecha_modificacion,omitempty"`
}

// Spellcasting lists known and prepared spells plus slots by level.
type Spellcasting struct {
	Known    []string    `json:"conocidos,omitempty"`
	Prepared []string    `json:"preparados,omitempty"`
	Slots    map[int]int `json:"ranuras,omitempty"`
}

// HasSkill reports proficiency in a skill.
func (s *Sheet) HasSkill(id string) bool {
	for _, sk := range s.Proficiencies.Skills {
		if sk.ID == id {
			return true
		}
	}
	return false
}

// HasSave reports proficiency in an ability's saving throws.
func (s *Sheet) HasSave(ability string) bool {
	for _, sv := range s.Proficiencies.Saves {
		if sv == ability {
			return true
		}
	}
	return false
}

// Ability returns one ability score, defaulting to 10.
func (s *Sheet) Ability(name string) int {
	if v, ok := s.Abilities[name]; ok {
		return v
	}
	return 10
}

// Touch refreshes the modification timestamp, setting the creation
// timestamp on first save.
func (s *Sheet) Touch(now time.Time) {
	stamp := now.Format(time.RFC3339)
	s.ModifiedAt = stamp
	if s.CreatedAt == "" {
		s.CreatedAt = stamp
	}
}
