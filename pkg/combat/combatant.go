// Package combat manages one encounter: combatant state, initiative
// order, per-turn resources, damage and death, and victory detection.
// Player actions flow through the action pipeline; this package is
// the only place where pipeline deltas mutate combat state.
package combat

import (
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
)

// Side classifies a combatant's allegiance.
type Side string

const (
	SidePC      Side = "pc"
	SideAlly    Side = "aliado"
	SideEnemy   Side = "enemigo"
	SideNeutral Side = "neutral"
)

// Combatant is one creature in the encounter. Source fields are
// copied at creation from the compendium or the character sheet and
// never change; runtime fields mutate as the encounter progresses.
type Combatant struct {
	ID            string
	Name          string
	Side          Side
	CompendiumRef string

	MaxHP       int
	ArmorClass  int
	Speed       int
	Abilities   map[string]int
	Proficiency int

	MainWeapon    *normalizer.WeaponRef
	OffhandWeapon *normalizer.WeaponRef
	KnownSpells   []normalizer.SpellRef
	SpellSlots    map[int]int

	// Stat-block attack actions; empty for sheet-based combatants.
	Actions []compendium.MonsterAction

	CurrentHP     int
	TempHP        int
	Conditions    []string
	Concentration string

	Initiative int

	ActionUsed      bool
	BonusActionUsed bool
	ReactionUsed    bool
	MovementUsed    int

	Unconscious bool
	Dead        bool
}

// Ability returns one ability score, defaulting to 10.
func (c *Combatant) Ability(name string) int {
	if v, ok := c.Abilities[name]; ok {
		return v
	}
	return 10
}

// Alive reports whether the combatant still holds a place in the
// initiative order. Unconscious creatures stay in the order.
func (c *Combatant) Alive() bool {
	return !c.Dead
}

// CanAct reports whether the combatant can take actions this turn.
func (c *Combatant) CanAct() bool {
	if c.Dead || c.Unconscious {
		return false
	}
	for _, cond := range c.Conditions {
		if rules.BlocksAction(cond) {
			return false
		}
	}
	return true
}

// MovementLeft is the feet of movement still available this turn.
func (c *Combatant) MovementLeft() int {
	left := c.Speed - c.MovementUsed
	if left < 0 {
		return 0
	}
	return left
}

// resetTurn restores per-turn resources at the top of the
// combatant's own turn. The reaction also recovers here.
func (c *Combatant) resetTurn() {
	c.ActionUsed = false
	c.BonusActionUsed = false
	c.ReactionUsed = false
	c.MovementUsed = 0
}

// Summary is the serialisable snapshot of one combatant.
type Summary struct {
	ID            string   `json:"id"`
	Name          string   `json:"nombre"`
	Side          Side     `json:"tipo"`
	CompendiumRef string   `json:"compendio_ref,omitempty"`
	CurrentHP     int      `json:"hp_actual"`
	MaxHP         int      `json:"hp_maximo"`
	TempHP        int      `json:"hp_temporal"`
	ArmorClass    int      `json:"clase_armadura"`
	Conditions    []string `json:"condiciones"`
	Initiative    int      `json:"iniciativa"`
	Dead          bool     `json:"muerto"`
	Unconscious   bool     `json:"inconsciente"`
	CanAct        bool     `json:"puede_actuar"`
}

// Snapshot builds the summary view of the combatant.
func (c *Combatant) Snapshot() Summary {
	conditions := append([]string(nil), c.Conditions...)
	if conditions == nil {
		conditions = []string{}
	}
	return Summary{
		ID:            c.ID,
		Name:          c.Name,
		Side:          c.Side,
		CompendiumRef: c.CompendiumRef,
		CurrentHP:     c.CurrentHP,
		MaxHP:         c.MaxHP,
		TempHP:        c.TempHP,
		ArmorClass:    c.ArmorClass,
		Conditions:    conditions,
		Initiative:    c.Initiative,
		Dead:          c.Dead,
		Unconscious:   c.Unconscious,
		CanAct:        c.CanAct(),
	}
}
