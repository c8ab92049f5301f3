package combat

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rolls"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
)

// State is the lifecycle phase of an encounter.
type State string

const (
	StateNotStarted State = "no_iniciado"
	StateInProgress State = "en_curso"
	StateVictory    State = "victoria"
	StateDefeat     State = "derrota"
	StateDraw       State = "empate"
	StateFinished   State = "terminado"
)

// HistoryEntry records one event applied during the encounter.
type HistoryEntry struct {
	Round   int            `json:"ronda"`
	ActorID string         `json:"actor_id"`
	Event   pipeline.Event `json:"evento"`
}

// deltaKey identifies one applied state change. The canonical hash
// keeps retried pipeline results from applying twice in the same
// turn.
type deltaKey struct {
	round     int
	actorID   string
	turnIndex int
	hash      string
}

// Engine runs one encounter. It owns the combatant map and is the
// only writer of combat state.
type Engine struct {
	comp   *compendium.Adapter
	pipe   *pipeline.Pipeline
	roller *dice.Roller
	log    *slog.Logger

	combatants map[string]*Combatant
	order      []string
	round      int
	turnIndex  int
	currentID  string
	state      State

	history []HistoryEntry
	applied map[deltaKey]struct{}
}

// NewEngine creates an encounter over the catalogue. pipe may be nil,
// in which case a default pipeline without LLM fallback is built.
func NewEngine(comp *compendium.Adapter, pipe *pipeline.Pipeline, roller *dice.Roller) *Engine {
	if roller == nil {
		roller = dice.NewRoller(dice.Default())
	}
	if pipe == nil {
		pipe = pipeline.New(comp, roller, nil, nil, false)
	}
	return &Engine{
		comp:       comp,
		pipe:       pipe,
		roller:     roller,
		log:        logger.GetLogger("combat"),
		combatants: make(map[string]*Combatant),
		round:      1,
		state:      StateNotStarted,
		applied:    make(map[deltaKey]struct{}),
	}
}

// AddCombatant registers a combatant before the encounter starts.
func (e *Engine) AddCombatant(c *Combatant) error {
	if e.state != StateNotStarted {
		return fmt.Errorf("no se pueden añadir combatientes después de iniciar el combate")
	}
	if c.ID == "" {
		return fmt.Errorf("el combatiente necesita un ID")
	}
	if _, exists := e.combatants[c.ID]; exists {
		return fmt.Errorf("ya existe un combatiente con ID %q", c.ID)
	}
	if c.CurrentHP == 0 {
		c.CurrentHP = c.MaxHP
	}
	e.combatants[c.ID] = c
	return nil
}

// AddFromCompendium instantiates a monster from the catalogue as an
// enemy combatant. Instance IDs are allocated as "<monster>_N". Only
// attack actions (those carrying an attack bonus) are loaded.
func (e *Engine) AddFromCompendium(monsterID, customName string) (*Combatant, error) {
	monster, ok := e.comp.Store().Monster(monsterID)
	if !ok {
		return nil, fmt.Errorf("monstruo %q no encontrado en compendio", monsterID)
	}

	counter := 1
	for {
		if _, exists := e.combatants[fmt.Sprintf("%s_%d", monsterID, counter)]; !exists {
			break
		}
		counter++
	}
	instanceID := fmt.Sprintf("%s_%d", monsterID, counter)

	var actions []compendium.MonsterAction
	for _, action := range monster.Actions {
		if !action.IsAttack() {
			continue
		}
		loaded := action
		if loaded.Name == "" {
			loaded.Name = "Ataque"
		}
		if loaded.Damage == "" {
			loaded.Damage = "1d4"
		}
		if loaded.DamageType == "" {
			loaded.DamageType = "contundente"
		}
		if loaded.Reach == "" {
			loaded.Reach = "cuerpo a cuerpo"
		}
		actions = append(actions, loaded)
	}

	name := customName
	if name == "" {
		name = monster.Name
	}
	if name == "" {
		name = monsterID
	}
	speed := monster.Speed
	if speed == 0 {
		speed = 30
	}
	hp := monster.HitPoints
	if hp == 0 {
		hp = 10
	}
	ac := monster.ArmorClass
	if ac == 0 {
		ac = 10
	}

	abilities := make(map[string]int, len(rules.Abilities))
	for _, ability := range rules.Abilities {
		abilities[ability] = 10
		if v, ok := monster.Attributes[ability]; ok {
			abilities[ability] = v
		}
	}

	c := &Combatant{
		ID:            instanceID,
		Name:          name,
		Side:          SideEnemy,
		CompendiumRef: monsterID,
		MaxHP:         hp,
		CurrentHP:     hp,
		ArmorClass:    ac,
		Speed:         speed,
		Abilities:     abilities,
		Actions:       actions,
	}
	if err := e.AddCombatant(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Start begins the encounter: rolls initiative (unless pre-assigned
// values should stand), sorts the order, and opens round 1.
func (e *Engine) Start(rollInitiative bool) error {
	if e.state != StateNotStarted {
		return fmt.Errorf("el combate ya fue iniciado")
	}
	if len(e.combatants) < 2 {
		return fmt.Errorf("se necesitan al menos 2 combatientes")
	}

	if rollInitiative {
		for _, c := range e.combatants {
			dexMod := rules.AbilityModifier(c.Ability(rules.Dexterity))
			res, err := rolls.Initiative(e.roller, dexMod, 0, dice.Normal)
			if err != nil {
				return err
			}
			c.Initiative = res.Total
		}
	}

	e.sortByInitiative()
	e.round = 1
	e.turnIndex = 0
	e.currentID = e.order[0]
	e.combatants[e.currentID].resetTurn()
	e.state = StateInProgress

	e.log.Info("combat started",
		"combatants", len(e.combatants),
		"first_turn", e.currentID)
	return nil
}

// sortByInitiative orders combatant IDs by initiative descending,
// breaking ties with dexterity, then ID for stability.
func (e *Engine) sortByInitiative() {
	e.order = e.order[:0]
	for id := range e.combatants {
		e.order = append(e.order, id)
	}
	sort.Slice(e.order, func(i, j int) bool {
		a, b := e.combatants[e.order[i]], e.combatants[e.order[j]]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if da, db := a.Ability(rules.Dexterity), b.Ability(rules.Dexterity); da != db {
			return da > db
		}
		return a.ID < b.ID
	})
}

// CurrentTurn returns the combatant whose turn it is, or nil when the
// encounter is not in progress.
func (e *Engine) CurrentTurn() *Combatant {
	if e.state != StateInProgress {
		return nil
	}
	return e.combatants[e.currentID]
}

// NextTurn advances the cursor to the next living combatant,
// crossing round boundaries and resetting the newcomer's per-turn
// resources. Returns nil when the encounter ends.
func (e *Engine) NextTurn() *Combatant {
	if e.state != StateInProgress {
		return nil
	}
	if e.checkEnd() {
		return nil
	}

	e.advanceCursor()
	for tries := 0; tries < len(e.order); tries++ {
		c := e.combatants[e.order[e.turnIndex]]
		if c.Alive() {
			e.currentID = c.ID
			c.resetTurn()
			return c
		}
		e.advanceCursor()
	}

	// Nobody left standing.
	e.state = StateDraw
	return nil
}

func (e *Engine) advanceCursor() {
	e.turnIndex++
	if e.turnIndex >= len(e.order) {
		e.turnIndex = 0
		e.round++
	}
}

// ProcessAction runs the active combatant's free-text action through
// the pipeline and, on success, applies the resulting delta exactly
// once and logs the events.
func (e *Engine) ProcessAction(text string) *pipeline.Result {
	if e.state != StateInProgress {
		return &pipeline.Result{
			Outcome: pipeline.ActionRejected,
			Reason:  "El combate no está en curso",
		}
	}
	actor := e.CurrentTurn()
	if actor == nil {
		return &pipeline.Result{
			Outcome: pipeline.ActionRejected,
			Reason:  "No hay combatiente activo",
		}
	}

	scene := e.sceneContext(actor)
	result := e.pipe.Process(text, scene)

	if result.Outcome == pipeline.ActionApplied {
		e.applyDelta(actor, result.Delta)
		for _, event := range result.Events {
			e.history = append(e.history, HistoryEntry{
				Round:   e.round,
				ActorID: actor.ID,
				Event:   event,
			})
		}
		e.checkEnd()
	}

	return result
}

// ApplyGuardedDelta routes an externally built delta through the same
// exactly-once guard as pipeline outcomes, keyed to the combatant in
// turn. A duplicate delta within the same turn is discarded; the
// return value reports whether the delta was applied.
func (e *Engine) ApplyGuardedDelta(delta *pipeline.Delta) bool {
	if e.state != StateInProgress {
		return false
	}
	actor := e.CurrentTurn()
	if actor == nil {
		return false
	}
	return e.applyDelta(actor, delta)
}

// applyDelta is the single mutation point for action outcomes. Each
// (round, actor, turn, delta-hash) applies at most once.
func (e *Engine) applyDelta(actor *Combatant, delta *pipeline.Delta) bool {
	if delta.IsZero() {
		return false
	}

	key := deltaKey{round: e.round, actorID: actor.ID, turnIndex: e.turnIndex, hash: delta.Hash()}
	if _, seen := e.applied[key]; seen {
		e.log.Debug("duplicate delta discarded", "actor", actor.ID, "hash", key.hash)
		return false
	}
	e.applied[key] = struct{}{}

	if delta.ActionUsed {
		actor.ActionUsed = true
	}
	if delta.MovementUsed != 0 {
		actor.MovementUsed += delta.MovementUsed
	}
	if delta.MovementBonus != 0 {
		// Dash grants extra movement, modelled as refunding used feet.
		actor.MovementUsed -= delta.MovementBonus
	}
	if delta.TemporaryCondition != "" {
		present := false
		for _, cond := range actor.Conditions {
			if cond == delta.TemporaryCondition {
				present = true
				break
			}
		}
		if !present {
			actor.Conditions = append(actor.Conditions, delta.TemporaryCondition)
		}
	}
	if delta.DamageInflicted != nil {
		if _, ok := e.combatants[delta.DamageInflicted.TargetID]; ok {
			e.ApplyDamage(delta.DamageInflicted.TargetID, delta.DamageInflicted.Amount)
		}
	}
	if delta.SlotSpent != nil {
		level := delta.SlotSpent.Level
		if remaining, ok := actor.SpellSlots[level]; ok && remaining > 0 {
			actor.SpellSlots[level] = remaining - 1
		}
	}
	return true
}

// ApplyDamage deals damage to a combatant: temp HP absorbs first,
// then current HP. At 0 HP, PCs fall unconscious and NPCs die.
func (e *Engine) ApplyDamage(targetID string, amount int) {
	target := e.combatants[targetID]
	if target == nil || target.Dead {
		return
	}

	if target.TempHP > 0 {
		absorbed := min(target.TempHP, amount)
		target.TempHP -= absorbed
		amount -= absorbed
	}

	target.CurrentHP -= amount
	if target.CurrentHP <= 0 {
		target.CurrentHP = 0
		if target.Side == SidePC {
			target.Unconscious = true
		} else {
			target.Dead = true
		}
		e.log.Info("combatant down", "id", target.ID, "dead", target.Dead)
	}
	e.checkEnd()
}

// sceneContext builds the pipeline's view of the scene from the
// active combatant's perspective: a PC sees enemy-side creatures as
// enemies, a monster sees the PC and allies as enemies. Downed
// creatures are excluded.
func (e *Engine) sceneContext(actor *Combatant) *normalizer.SceneContext {
	var enemies, allies []normalizer.CombatantRef

	for _, id := range e.order {
		c := e.combatants[id]
		if c.ID == actor.ID || c.Dead || c.Unconscious {
			continue
		}
		ref := normalizer.CombatantRef{
			InstanceID:    c.ID,
			Name:          c.Name,
			CompendiumRef: c.CompendiumRef,
			ArmorClass:    c.ArmorClass,
		}
		hostile := false
		if actor.Side == SidePC {
			hostile = c.Side == SideEnemy
		} else {
			hostile = c.Side == SidePC || c.Side == SideAlly
		}
		if hostile {
			enemies = append(enemies, ref)
		} else {
			allies = append(allies, ref)
		}
	}

	var weapons []normalizer.WeaponRef
	for _, w := range []*normalizer.WeaponRef{actor.MainWeapon, actor.OffhandWeapon} {
		if w != nil {
			weapons = append(weapons, *w)
		}
	}

	slots := make(map[int]int, len(actor.SpellSlots))
	for level, count := range actor.SpellSlots {
		slots[level] = count
	}

	return &normalizer.SceneContext{
		ActorID:              actor.ID,
		ActorName:            actor.Name,
		MainWeapon:           actor.MainWeapon,
		OffhandWeapon:        actor.OffhandWeapon,
		AvailableWeapons:     weapons,
		KnownSpells:          append([]normalizer.SpellRef(nil), actor.KnownSpells...),
		AvailableSlots:       slots,
		LivingEnemies:        enemies,
		Allies:               allies,
		MonsterActions:       append([]compendium.MonsterAction(nil), actor.Actions...),
		Abilities:            actor.Abilities,
		ProficiencyBonus:     actor.Proficiency,
		MovementLeft:         actor.MovementLeft(),
		ActionAvailable:      !actor.ActionUsed,
		BonusActionAvailable: !actor.BonusActionUsed,
	}
}

// SceneContext exposes the active combatant's scene view for callers
// that drive the pipeline externally.
func (e *Engine) SceneContext() (*normalizer.SceneContext, error) {
	actor := e.CurrentTurn()
	if actor == nil {
		return nil, fmt.Errorf("no hay combatiente activo")
	}
	return e.sceneContext(actor), nil
}

// checkEnd evaluates the victory conditions: live PCs against live
// enemy-side creatures. Unconscious counts as down.
func (e *Engine) checkEnd() bool {
	if e.state != StateInProgress {
		return true
	}

	livePCs, liveEnemies := 0, 0
	for _, c := range e.combatants {
		if c.Dead || c.Unconscious {
			continue
		}
		switch c.Side {
		case SidePC:
			livePCs++
		case SideEnemy:
			liveEnemies++
		}
	}

	switch {
	case liveEnemies == 0 && livePCs > 0:
		e.state = StateVictory
	case livePCs == 0 && liveEnemies > 0:
		e.state = StateDefeat
	case livePCs == 0 && liveEnemies == 0:
		e.state = StateDraw
	default:
		return false
	}

	e.log.Info("combat finished", "state", string(e.state), "round", e.round)
	return true
}

// Finished reports whether the encounter has concluded.
func (e *Engine) Finished() bool {
	return e.state != StateNotStarted && e.state != StateInProgress
}

// State returns the encounter state.
func (e *Engine) State() State { return e.state }

// Round returns the current round, starting at 1.
func (e *Engine) Round() int { return e.round }

// Combatant looks up a combatant by instance ID.
func (e *Engine) Combatant(id string) (*Combatant, bool) {
	c, ok := e.combatants[id]
	return c, ok
}

// Combatants lists all combatants in initiative order. Before the
// encounter starts the order is unspecified.
func (e *Engine) Combatants() []*Combatant {
	if len(e.order) > 0 {
		out := make([]*Combatant, 0, len(e.order))
		for _, id := range e.order {
			out = append(out, e.combatants[id])
		}
		return out
	}
	out := make([]*Combatant, 0, len(e.combatants))
	for _, c := range e.combatants {
		out = append(out, c)
	}
	return out
}

// EncounterSummary is the serialisable snapshot of the encounter.
type EncounterSummary struct {
	State      State     `json:"estado"`
	Round      int       `json:"ronda"`
	TurnOf     string    `json:"turno_de"`
	Combatants []Summary `json:"combatientes"`
	Order      []string  `json:"orden_iniciativa"`
}

// Summary snapshots the encounter for tools and persistence.
func (e *Engine) Summary() EncounterSummary {
	combatants := make([]Summary, 0, len(e.order))
	for _, id := range e.order {
		combatants = append(combatants, e.combatants[id].Snapshot())
	}
	return EncounterSummary{
		State:      e.state,
		Round:      e.round,
		TurnOf:     e.currentID,
		Combatants: combatants,
		Order:      append([]string(nil), e.order...),
	}
}

// History returns the applied events in order.
func (e *Engine) History() []HistoryEntry {
	return append([]HistoryEntry(nil), e.history...)
}
