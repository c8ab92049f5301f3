package tools

import (
	"github.com/ajujo/dnd5e-framework-sub000/pkg/combat"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/vocab"
)

// combatOnly names the tools that may only run while an encounter is
// active. The orchestrator refuses them otherwise instead of letting
// the model narrate attacks off-engine.
var combatOnly = map[string]bool{
	"tirar_ataque":  true,
	"dañar_enemigo": true,
}

// IsCombatOnly reports whether a tool belongs to the combat-only
// family.
func IsCombatOnly(name string) bool {
	return combatOnly[name]
}

// ListMonsters lists the compendium stat blocks available for
// encounters.
type ListMonsters struct{}

func (ListMonsters) Name() string { return "listar_monstruos" }

func (ListMonsters) Description() string {
	return "Lista los monstruos disponibles en el compendio con sus datos básicos."
}

func (ListMonsters) Parameters() []Parameter { return nil }

func (ListMonsters) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	monsters := ctx.Compendium.Store().Monsters()
	out := make([]map[string]any, 0, len(monsters))
	for _, m := range monsters {
		out = append(out, map[string]any{
			"id":      m.ID,
			"nombre":  m.Name,
			"tipo":    m.Type,
			"desafio": m.Challenge,
			"hp":      m.HitPoints,
			"ca":      m.ArmorClass,
		})
	}
	return Result{
		"exito":     true,
		"monstruos": out,
		"total":     len(out),
	}, nil
}

// StartCombat builds an encounter from compendium monster IDs plus the
// PC, rolls initiative, and installs the engine on the game context.
type StartCombat struct{}

func (StartCombat) Name() string { return "iniciar_combate" }

func (StartCombat) Description() string {
	return "Inicia un combate contra monstruos del compendio. Debe llamarse antes de narrar cualquier ataque."
}

func (StartCombat) Parameters() []Parameter {
	return []Parameter{
		{Name: "enemigos", Type: "list", Required: true,
			Description: "IDs de monstruos del compendio (repetir ID para varios)"},
		{Name: "sorpresa", Type: "string", Required: false,
			Description: "Quién sorprende a quién",
			Options:     []string{"ninguno", "jugador", "enemigos"}},
	}
}

func (StartCombat) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	if ctx.InCombat() {
		return Failf("Ya hay un combate en curso"), nil
	}
	var p struct {
		Enemies  []string `mapstructure:"enemigos"`
		Surprise string   `mapstructure:"sorpresa"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.Enemies) == 0 {
		return Failf("La lista de enemigos está vacía"), nil
	}
	if p.Surprise == "" {
		p.Surprise = "ninguno"
	}

	// All IDs must exist before anything is instantiated.
	var missing []string
	for i, id := range p.Enemies {
		id = vocab.Slug(id)
		p.Enemies[i] = id
		if !ctx.Compendium.MonsterExists(id) {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		res := Failf("Monstruos no encontrados en el compendio")
		res["monstruos_no_encontrados"] = missing
		res["monstruos_disponibles"] = monsterIDs(ctx)
		return res, nil
	}

	engine := combat.NewEngine(ctx.Compendium, nil, ctx.Roller)
	if err := engine.AddCombatant(combat.FromSheet(ctx.Sheet, ctx.Compendium)); err != nil {
		return nil, err
	}
	for _, id := range p.Enemies {
		if _, err := engine.AddFromCompendium(id, ""); err != nil {
			return nil, err
		}
	}
	if err := engine.Start(true); err != nil {
		return nil, err
	}
	ctx.Combat = engine

	summary := engine.Summary()
	res := Result{
		"exito":            true,
		"combatientes":     summary.Combatants,
		"orden_iniciativa": summary.Order,
		"estado_combate":   string(summary.State),
		"sorpresa":         p.Surprise,
	}
	if actor := engine.CurrentTurn(); actor != nil {
		res["primer_turno"] = map[string]any{"id": actor.ID, "nombre": actor.Name}
	}
	return res, nil
}

// DamageEnemy applies direct damage to an encounter combatant through
// the engine's guarded path.
type DamageEnemy struct{}

func (DamageEnemy) Name() string { return "dañar_enemigo" }

func (DamageEnemy) Description() string {
	return "Aplica daño directo a un combatiente del combate activo."
}

func (DamageEnemy) Parameters() []Parameter {
	return []Parameter{
		{Name: "objetivo_id", Type: "string", Required: true,
			Description: "ID de instancia del combatiente, p.ej. goblin_1"},
		{Name: "daño", Type: "int", Required: true,
			Description: "Puntos de daño a aplicar"},
		{Name: "tipo_daño", Type: "string", Required: false,
			Description: "Tipo del daño, p.ej. cortante o fuego"},
	}
}

func (DamageEnemy) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if !ctx.InCombat() {
		return Failf("No hay un combate activo"), nil
	}
	var p struct {
		TargetID   string `mapstructure:"objetivo_id"`
		Amount     int    `mapstructure:"daño"`
		DamageType string `mapstructure:"tipo_daño"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	target, ok := ctx.Combat.Combatant(p.TargetID)
	if !ok {
		return Failf("Combatiente '%s' no está en el combate", p.TargetID), nil
	}
	if target.Dead {
		return Failf("'%s' ya está muerto", target.Name), nil
	}
	if p.Amount < 0 {
		return Failf("El daño no puede ser negativo"), nil
	}

	// The delta guard discards a retried identical request within
	// the same turn, so the damage never applies twice.
	delta := &pipeline.Delta{
		DamageInflicted: &pipeline.DamageDelta{
			TargetID: p.TargetID,
			Amount:   p.Amount,
			Type:     p.DamageType,
		},
	}
	if !ctx.Combat.ApplyGuardedDelta(delta) {
		return Failf("Daño duplicado descartado: ya se aplicó en este turno"), nil
	}

	return Result{
		"exito":             true,
		"objetivo":          target.Name,
		"objetivo_id":       target.ID,
		"daño":              p.Amount,
		"tipo_daño":         p.DamageType,
		"hp_restante":       target.CurrentHP,
		"derrotado":         target.Dead || target.Unconscious,
		"combate_terminado": ctx.Combat.Finished(),
		"estado_combate":    string(ctx.Combat.State()),
	}, nil
}
