package narrator

import (
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/combat"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
)

// FromCombat builds a narration context from the live engine state and
// a pipeline result. This is the bridge between rules and prose.
func FromCombat(engine *combat.Engine, result *pipeline.Result) Context {
	ctx := Context{
		Round:       engine.Round(),
		CombatState: string(engine.State()),
		ActorName:   "Desconocido",
		ActorMaxHP:  1,
	}

	if actor := engine.CurrentTurn(); actor != nil {
		ctx.ActorName = actor.Name
		ctx.ActorHP = actor.CurrentHP
		ctx.ActorMaxHP = actor.MaxHP
		ctx.ActorConditions = append([]string(nil), actor.Conditions...)
	}

	for _, c := range engine.Combatants() {
		ctx.Combatants = append(ctx.Combatants, Participant{
			Name:       c.Name,
			CurrentHP:  c.CurrentHP,
			MaxHP:      c.MaxHP,
			Side:       string(c.Side),
			Dead:       c.Dead,
			Conditions: append([]string(nil), c.Conditions...),
		})
	}

	if result == nil {
		return ctx
	}

	ctx.Events = result.Events

	switch result.Outcome {
	case pipeline.NeedsClarification:
		ctx.NeedsClarification = true
		ctx.Question = result.Question
		ctx.Options = result.Options
	case pipeline.ActionRejected:
		ctx.ActionRejected = true
		ctx.Reason = result.Reason
		ctx.Suggestion = result.Suggestion
	}
	return ctx
}

// PipelineHook adapts the narrator into the hint hook the action
// pipeline accepts, so applied actions carry a narration hint even
// without a full combat context.
func (n *Narrator) PipelineHook() pipeline.NarratorFunc {
	return func(events []pipeline.Event, scene *normalizer.SceneContext) string {
		ctx := Context{ActorMaxHP: 1, Events: events}
		if scene != nil {
			ctx.ActorName = scene.ActorName
		}
		var lines []string
		for _, e := range events {
			lines = append(lines, describeEvent(e))
		}
		if n.llm == nil {
			return strings.Join(lines, " ")
		}
		return n.narrateEvents(ctx).Narration
	}
}
