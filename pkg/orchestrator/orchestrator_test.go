package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/bible"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/combat"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/dice"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/llms"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/pipeline"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/tools"
)

// scriptedSource replays a fixed sequence of die values.
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v - 1
}

func roller(values ...int) *dice.Roller {
	return dice.NewRoller(&scriptedSource{values: values})
}

// scriptedLLM replays canned model replies and records every call.
type scriptedLLM struct {
	replies []string
	pos     int
	prompts []string
	systems []string
}

func (s *scriptedLLM) Generate(_ context.Context, prompt, system string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.systems = append(s.systems, system)
	if s.pos >= len(s.replies) {
		return "", nil
	}
	reply := s.replies[s.pos]
	s.pos++
	return reply, nil
}

func (s *scriptedLLM) Available(context.Context) bool           { return true }
func (s *scriptedLLM) Refresh()                                 {}
func (s *scriptedLLM) Info(context.Context) llms.Info           { return llms.Info{Type: "test"} }
func (s *scriptedLLM) Models(context.Context) []string          { return nil }
func (s *scriptedLLM) SwitchModel(context.Context, string) bool { return true }
func (s *scriptedLLM) EffectiveModel(context.Context) string    { return "test" }

func testAdapter(t *testing.T) *compendium.Adapter {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"monstruos": `{"monstruos": [
			{"id": "goblin", "nombre": "Goblin", "puntos_golpe": 7, "clase_armadura": 15,
			 "experiencia": 50,
			 "atributos": {"destreza": 14},
			 "acciones": [{"nombre": "Cimitarra", "bonificador_ataque": 4, "daño": "1d6+2", "tipo_daño": "cortante", "alcance": "5"}]}
		]}`,
		"armas": `{"armas": [
			{"id": "espada_larga", "nombre": "Espada larga", "daño": "1d8", "tipo_daño": "cortante"}
		]}`,
		"armaduras_escudos": `{"armaduras": [], "escudos": []}`,
		"conjuros":          `{"conjuros": []}`,
		"miscelanea":        `{"objetos": []}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0644))
	}
	return compendium.NewAdapter(compendium.NewStore(dir))
}

func testSheet() *character.Sheet {
	return &character.Sheet{
		ID:   "pj-1",
		Info: character.BasicInfo{Name: "Elara", Race: "humano", Class: "guerrero", Level: 3},
		Abilities: map[string]int{
			"fuerza": 16, "destreza": 14, "constitucion": 14,
			"inteligencia": 10, "sabiduria": 12, "carisma": 8,
		},
		Proficiencies: character.Proficiencies{
			Skills: []character.SkillProficiency{{ID: "atletismo", Origin: "clase"}},
		},
		Derived: character.Derived{
			ProficiencyBonus: 2,
			MaxHP:            28,
			CurrentHP:        28,
			ArmorClass:       16,
			Speed:            30,
			Modifiers: map[string]int{
				"fuerza": 3, "destreza": 2, "constitucion": 2,
				"inteligencia": 0, "sabiduria": 1, "carisma": -1,
			},
			Saves: map[string]int{"fuerza": 5, "constitucion": 4},
		},
	}
}

func testGame(t *testing.T, values ...int) *tools.GameContext {
	if len(values) == 0 {
		values = []int{10}
	}
	return &tools.GameContext{
		Sheet:      testSheet(),
		Compendium: testAdapter(t),
		Roller:     roller(values...),
	}
}

func testDM(t *testing.T, llm *scriptedLLM, game *tools.GameContext, opts ...Option) *DM {
	t.Helper()
	reg, err := tools.NewBuiltinRegistry()
	require.NoError(t, err)
	return NewDM(llm, reg, game, nil, opts...)
}

// --- parser ---

func TestParseResponseDirectJSON(t *testing.T) {
	resp := ParseResponse(`{"narrativa": "La puerta cruje.", "herramienta": "tirar_habilidad", "parametros": {"habilidad": "sigilo", "cd": 12}}`)
	assert.Equal(t, "La puerta cruje.", resp.Narrative)
	assert.Equal(t, "tirar_habilidad", resp.Tool)
	assert.Equal(t, "sigilo", resp.Params["habilidad"])
}

func TestParseResponseFenced(t *testing.T) {
	raw := "Aquí va mi respuesta:\n```json\n{\"narrativa\": \"Entras en la cripta.\"}\n```"
	resp := ParseResponse(raw)
	assert.Equal(t, "Entras en la cripta.", resp.Narrative)
	assert.Empty(t, resp.Tool)
}

func TestParseResponseProseBeforeObject(t *testing.T) {
	raw := "El DM reflexiona un momento.\n{\"herramienta\": \"tirar_salvacion\", \"parametros\": {\"caracteristica\": \"destreza\", \"cd\": 14}}"
	resp := ParseResponse(raw)
	assert.Equal(t, "El DM reflexiona un momento.", resp.Narrative)
	assert.Equal(t, "tirar_salvacion", resp.Tool)
}

func TestParseResponseNarrativeOnly(t *testing.T) {
	resp := ParseResponse("La lluvia golpea los tejados de Puerta de Baldur.")
	assert.Equal(t, "La lluvia golpea los tejados de Puerta de Baldur.", resp.Narrative)
	assert.Empty(t, resp.Tool)
	require.NoError(t, resp.Validate())
}

func TestParseResponseNullishTools(t *testing.T) {
	for _, v := range []string{`null`, `"null"`, `"ninguna"`, `"none"`, `""`, `"NO"`} {
		resp := ParseResponse(`{"narrativa": "x", "herramienta": ` + v + `}`)
		assert.Empty(t, resp.Tool, "herramienta %s debería limpiarse", v)
	}
}

func TestParseResponseUppercaseKeys(t *testing.T) {
	resp := ParseResponse(`{"Narrativa": "Texto", "Herramienta": "modificar_oro", "Cambio_Modo": "Social"}`)
	assert.Equal(t, "Texto", resp.Narrative)
	assert.Equal(t, "modificar_oro", resp.Tool)
	assert.Equal(t, "social", resp.ModeChange)
}

func TestParseResponseBadJSONKeepsText(t *testing.T) {
	raw := `El goblin {gruñe} y ataca.`
	resp := ParseResponse(raw)
	assert.Equal(t, raw, resp.Narrative)
	assert.Empty(t, resp.Tool)
}

func TestValidateRequiresContent(t *testing.T) {
	resp := &Response{}
	require.Error(t, resp.Validate())
	resp.Tool = "tirar_habilidad"
	require.NoError(t, resp.Validate())
}

// --- context ---

func TestContextPromptBlock(t *testing.T) {
	c := NewContext()
	c.Sheet = testSheet()
	c.SetLocation("taberna", "El Dragón Dorado", "Una taberna ruidosa del puerto", "interior")
	hp, maxHP := 7, 7
	c.AddNPC(SceneNPC{ID: "tabernero", Name: "Brom", Description: "Tabernero corpulento", Attitude: "amistoso", HP: &hp, MaxHP: &maxHP})
	c.Record("accion_jugador", "Pido una jarra de cerveza")
	c.DMNotes = "Brom sabe del contrabando"

	block := c.PromptBlock()
	assert.Contains(t, block, "=== PERSONAJE JUGADOR ===")
	assert.Contains(t, block, "Nombre: Elara")
	assert.Contains(t, block, "HP: 28/28")
	assert.Contains(t, block, "=== UBICACIÓN ACTUAL ===")
	assert.Contains(t, block, "El Dragón Dorado")
	assert.Contains(t, block, "=== NPCs EN ESCENA ===")
	assert.Contains(t, block, "Brom (amistoso) [HP: 7/7]")
	assert.Contains(t, block, "=== MODO ACTUAL: EXPLORACION ===")
	assert.Contains(t, block, "[accion_jugador] Pido una jarra de cerveza")
	assert.Contains(t, block, "=== NOTAS DEL DM ===")
}

func TestContextHistoryWindow(t *testing.T) {
	c := NewContext()
	for i := 0; i < 15; i++ {
		c.Record("evento", string(rune('a'+i)))
		c.AdvanceTurn()
	}
	block := c.PromptBlock()
	assert.NotContains(t, block, "[evento] a\n")
	assert.NotContains(t, block, "[evento] e\n")
	assert.Contains(t, block, "[evento] f\n")
	assert.Contains(t, block, "[evento] o\n")
}

func TestContextSaveRestore(t *testing.T) {
	sheet := testSheet()
	c := NewContext()
	c.Sheet = sheet
	c.SetLocation("cripta", "Cripta olvidada", "Huele a polvo y siglos", "dungeon")
	c.AddNPC(SceneNPC{ID: "g1", Name: "Goblin", IsEnemy: true})
	c.Record("accion_jugador", "Abro el sarcófago")
	c.Turn = 7
	c.SwitchMode(ModeSocial)
	c.Flags["sarcofago_abierto"] = true
	c.MergeMemory(Memory{
		QuestPhase:  "investigacion",
		Revelations: []string{"El culto opera bajo la cripta"},
	})
	require.NoError(t, c.Save())
	assert.Equal(t, 7, sheet.AdventureState.Turn)

	restored, err := Restore(sheet)
	require.NoError(t, err)
	assert.Equal(t, 7, restored.Turn)
	assert.Equal(t, ModeSocial, restored.Mode)
	assert.Equal(t, "Cripta olvidada", restored.Location.Name)
	require.Len(t, restored.NPCs, 1)
	assert.True(t, restored.NPCs[0].IsEnemy)
	assert.Equal(t, true, restored.Flags["sarcofago_abierto"])
	assert.Equal(t, "investigacion", restored.Memory.QuestPhase)
	assert.Equal(t, []string{"El culto opera bajo la cripta"}, restored.Memory.Revelations)
}

func TestRestoreFreshSheet(t *testing.T) {
	c, err := Restore(testSheet())
	require.NoError(t, err)
	assert.Equal(t, ModeExploration, c.Mode)
	assert.Equal(t, 0, c.Turn)
	assert.NotNil(t, c.Flags)
}

func TestContextSwitchModeUnknownIgnored(t *testing.T) {
	c := NewContext()
	c.SwitchMode("sigilo")
	assert.Equal(t, ModeExploration, c.Mode)
	c.SwitchMode(ModeCombat)
	assert.Equal(t, ModeCombat, c.Mode)
}

func TestContextRemoveNPC(t *testing.T) {
	c := NewContext()
	c.AddNPC(SceneNPC{ID: "a", Name: "A"})
	c.AddNPC(SceneNPC{ID: "b", Name: "B"})
	assert.True(t, c.RemoveNPC("a"))
	assert.False(t, c.RemoveNPC("a"))
	require.Len(t, c.NPCs, 1)
	assert.Equal(t, "b", c.NPCs[0].ID)
	assert.NotNil(t, c.NPC("b"))
	assert.Nil(t, c.NPC("a"))
}

func TestMergeMemoryReplacesQuestAppendsRest(t *testing.T) {
	c := NewContext()
	c.MergeMemory(Memory{
		QuestPhase:     "inicio",
		QuestObjective: "Encontrar al alquimista desaparecido",
		Revelations:    []string{"El alquimista huyó hacia el norte"},
		Threats:        []string{"Banda de asaltantes en el camino"},
	})
	c.MergeMemory(Memory{
		QuestPhase:  "investigacion",
		Revelations: []string{"el alquimista huyó hacia el norte", "Alguien pagó su silencio"},
		SideQuests:  []string{"Recuperar el anillo de Brom"},
		Threats:     []string{"Banda de asaltantes en el camino"},
	})

	assert.Equal(t, "investigacion", c.Memory.QuestPhase)
	assert.Equal(t, "Encontrar al alquimista desaparecido", c.Memory.QuestObjective)
	assert.Equal(t, []string{"El alquimista huyó hacia el norte", "Alguien pagó su silencio"}, c.Memory.Revelations)
	assert.Equal(t, []string{"Recuperar el anillo de Brom"}, c.Memory.SideQuests)
	assert.Equal(t, []string{"Banda de asaltantes en el camino"}, c.Memory.Threats)

	// An empty update changes nothing.
	c.MergeMemory(Memory{})
	assert.Equal(t, "investigacion", c.Memory.QuestPhase)
	assert.Len(t, c.Memory.Revelations, 2)
}

func TestMergeMemoryUpdatesSceneNPCAttitude(t *testing.T) {
	c := NewContext()
	c.AddNPC(SceneNPC{ID: "brom", Name: "Brom", Attitude: "neutral"})
	c.AddNPC(SceneNPC{ID: "selene", Name: "Selene", Attitude: "amistoso"})

	c.MergeMemory(Memory{NPCAttitudes: map[string]string{
		"brom":   "hostil",
		"Selene": "neutral", // by name
		"lirael": "amistoso", // not in scene, remembered anyway
	}})

	assert.Equal(t, "hostil", c.NPC("brom").Attitude)
	assert.Equal(t, "neutral", c.NPC("selene").Attitude)
	assert.Equal(t, "amistoso", c.Memory.NPCAttitudes["lirael"])
}

func TestContextPromptBlockRendersMemoryAndFlags(t *testing.T) {
	c := NewContext()
	c.MergeMemory(Memory{
		QuestPhase:     "climax",
		QuestObjective: "Detener el ritual",
		Revelations:    []string{"El sumo sacerdote es un doppelganger"},
		SideQuests:     []string{"Devolver el amuleto a la viuda"},
		NPCAttitudes:   map[string]string{"brom": "hostil"},
		Threats:        []string{"Ritual completo en tres días"},
	})
	c.Flags["puente_destruido"] = true

	block := c.PromptBlock()
	assert.Contains(t, block, "=== MEMORIA NARRATIVA ===")
	assert.Contains(t, block, "Misión principal: Detener el ritual (fase: climax)")
	assert.Contains(t, block, "Revelaciones:\n  - El sumo sacerdote es un doppelganger")
	assert.Contains(t, block, "Misiones secundarias:\n  - Devolver el amuleto a la viuda")
	assert.Contains(t, block, "Amenazas activas:\n  - Ritual completo en tres días")
	assert.Contains(t, block, "Actitudes de NPC:\n  - brom: hostil")
	assert.Contains(t, block, "=== DATOS DE AVENTURA ===")
	assert.Contains(t, block, "- puente_destruido: true")

	empty := NewContext().PromptBlock()
	assert.NotContains(t, empty, "=== MEMORIA NARRATIVA ===")
	assert.NotContains(t, empty, "=== DATOS DE AVENTURA ===")
}

// --- DM ---

func TestProcessTurnNarrationOnly(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"narrativa": "El guardia os deja pasar con un gruñido."}`,
	}}
	dm := testDM(t, llm, testGame(t))

	out, err := dm.ProcessTurn(context.Background(), "Muestro el salvoconducto al guardia")
	require.NoError(t, err)
	assert.Equal(t, "El guardia os deja pasar con un gruñido.", out)
	assert.Equal(t, 1, dm.Context().Turn)

	require.Len(t, llm.systems, 1)
	assert.Contains(t, llm.systems[0], "HERRAMIENTAS DISPONIBLES")
	assert.Contains(t, llm.systems[0], "tirar_habilidad")
	assert.Contains(t, llm.systems[0], "=== MODO ACTUAL: EXPLORACION ===")
	assert.Contains(t, llm.systems[0], "Reglas de Dificultad de Encuentros")

	history := dm.Context().History
	require.Len(t, history, 2)
	assert.Equal(t, "accion_jugador", history[0].Kind)
	assert.Equal(t, "respuesta_dm", history[1].Kind)
}

func TestProcessTurnWithTool(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"narrativa": "El mercader duda...", "herramienta": "tirar_habilidad", "parametros": {"habilidad": "atletismo", "cd": 10}}`,
		`{"narrativa": "Trepas el muro con facilidad y caes al otro lado."}`,
	}}
	dm := testDM(t, llm, testGame(t, 15))

	out, err := dm.ProcessTurn(context.Background(), "Trepo el muro del almacén")
	require.NoError(t, err)
	assert.Equal(t, "Trepas el muro con facilidad y caes al otro lado.", out)

	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "tirar_habilidad")
	assert.Contains(t, llm.prompts[1], `"total"`)

	var kinds []string
	for _, h := range dm.Context().History {
		kinds = append(kinds, h.Kind)
	}
	assert.Equal(t, []string{"accion_jugador", "resultado_mecanico", "respuesta_dm"}, kinds)
}

func TestProcessTurnCombatToolRefusedOutsideCombat(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"narrativa": "¡Atacas al mercader!", "herramienta": "tirar_ataque", "parametros": {"ca_objetivo": 12}}`,
	}}
	dm := testDM(t, llm, testGame(t))

	out, err := dm.ProcessTurn(context.Background(), "Ataco al mercader")
	require.NoError(t, err)
	// The warning replaces the narrative: the model's off-engine
	// attack prose never reaches the player.
	assert.Equal(t, "⚠ [Sistema: tirar_ataque solo puede usarse durante un combate]", out)
	assert.NotContains(t, out, "¡Atacas al mercader!")
	// Only the first model call happened; no tool ran.
	assert.Len(t, llm.prompts, 1)
}

func TestProcessTurnFallbackWhenSecondCallEmpty(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"herramienta": "tirar_habilidad", "parametros": {"habilidad": "atletismo", "cd": 10}}`,
	}}
	dm := testDM(t, llm, testGame(t, 15))

	out, err := dm.ProcessTurn(context.Background(), "Trepo el muro")
	require.NoError(t, err)
	assert.Contains(t, out, "🎲 Tirada")
	assert.Contains(t, out, "¡Éxito!")
}

func TestProcessTurnInvalidReply(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"parametros": {}}`}}
	dm := testDM(t, llm, testGame(t))

	out, err := dm.ProcessTurn(context.Background(), "Miro alrededor")
	require.NoError(t, err)
	assert.Contains(t, out, "[Error del DM:")
}

func TestProcessTurnEmptyInput(t *testing.T) {
	dm := testDM(t, &scriptedLLM{}, testGame(t))
	_, err := dm.ProcessTurn(context.Background(), "   ")
	require.Error(t, err)
}

func TestProcessTurnModeAndMemory(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"narrativa": "La conversación se tensa.", "cambio_modo": "social", "memoria": {
			"fase_mision": "confrontacion",
			"revelaciones": ["El mercader trabaja para el culto"],
			"actitudes_npc": {"mercader": "hostil"},
			"puerta_trasera_abierta": true
		}}`,
	}}
	game := testGame(t)
	dm := testDM(t, llm, game)
	dm.Context().AddNPC(SceneNPC{ID: "mercader", Name: "Mercader", Attitude: "neutral"})

	_, err := dm.ProcessTurn(context.Background(), "Acuso al mercader de mentir")
	require.NoError(t, err)
	assert.Equal(t, ModeSocial, dm.Context().Mode)
	assert.Equal(t, "confrontacion", dm.Context().Memory.QuestPhase)
	assert.Equal(t, []string{"El mercader trabaja para el culto"}, dm.Context().Memory.Revelations)
	assert.Equal(t, "hostil", dm.Context().NPC("mercader").Attitude)
	// Keys outside the memory dictionary land in the free-form flags.
	assert.Equal(t, true, dm.Context().Flags["puerta_trasera_abierta"])
}

func TestOpeningScene(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"narrativa": "El sol cae sobre la Puerta de Baldur cuando llegas a sus murallas."}`,
	}}
	dm := testDM(t, llm, testGame(t))

	out, err := dm.OpeningScene(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out, "Puerta de Baldur")
	assert.Contains(t, llm.prompts[0], "escena inicial")
	// A resumed game asks for a recap instead.
	dm.Context().Turn = 5
	llm.replies = append(llm.replies, `{"narrativa": "Retomas el camino donde lo dejaste."}`)
	_, err = dm.OpeningScene(context.Background())
	require.NoError(t, err)
	assert.Contains(t, llm.prompts[1], "partida guardada")
}

func TestGameState(t *testing.T) {
	dm := testDM(t, &scriptedLLM{}, testGame(t))
	dm.Context().SetLocation("plaza", "Plaza del mercado", "Bulliciosa", "ciudad")

	state := dm.GameState()
	assert.Equal(t, "Elara", state["personaje"])
	assert.Equal(t, "28/28", state["hp"])
	assert.Equal(t, "Plaza del mercado", state["ubicacion"])
	assert.NotContains(t, state, "combate")
}

func TestSystemPromptIncludesBible(t *testing.T) {
	tone, ok := bible.LoadTone("", "misterio")
	require.True(t, ok)
	view := bible.DMView{ToneReminder: bible.ToneReminder{FailureHandling: "Tono: misterio"}}

	llm := &scriptedLLM{replies: []string{`{"narrativa": "ok"}`}}
	dm := testDM(t, llm, testGame(t), WithBible(view, tone))

	_, err := dm.ProcessTurn(context.Background(), "Observo la escena")
	require.NoError(t, err)
	assert.Contains(t, llm.systems[0], "TONO DE AVENTURA")
	assert.Contains(t, llm.systems[0], "BIBLIA DE AVENTURA")
}

// --- combat runner ---

func playerCombatant() *combat.Combatant {
	return &combat.Combatant{
		ID:          "pj-1",
		Name:        "Elara",
		Side:        combat.SidePC,
		MaxHP:       12,
		ArmorClass:  16,
		Speed:       30,
		Abilities:   map[string]int{"fuerza": 16, "destreza": 14},
		Proficiency: 2,
		MainWeapon:  &normalizer.WeaponRef{ID: "espada_larga", Name: "Espada larga"},
		Initiative:  18,
	}
}

// runnerWith builds an in-progress encounter, PC first in initiative.
// pipeValues feed the player's pipeline rolls, aiValues the enemy AI.
func runnerWith(t *testing.T, pipeValues, aiValues []int) (*CombatRunner, *combat.Engine, *character.Sheet) {
	t.Helper()
	comp := testAdapter(t)
	pipe := pipeline.New(comp, roller(pipeValues...), nil, nil, false)
	e := combat.NewEngine(comp, pipe, roller(10))

	require.NoError(t, e.AddCombatant(playerCombatant()))
	goblin, err := e.AddFromCompendium("goblin", "")
	require.NoError(t, err)
	goblin.Initiative = 10
	require.NoError(t, e.Start(false))

	sheet := testSheet()
	prog := character.NewProgression(nil)
	r := NewCombatRunner(e, nil, roller(aiValues...), comp, prog, sheet)
	return r, e, sheet
}

func TestCombatRunnerPlayerTurnAdvances(t *testing.T) {
	// Attack 14+mods hits CA 15, damage 1 keeps the goblin alive.
	r, e, _ := runnerWith(t, []int{14, 1}, []int{10})

	info := r.Current()
	assert.True(t, info.IsPlayer)
	assert.Equal(t, "Elara", info.ActorName)

	out := r.PlayerTurn("ataco al goblin con mi espada larga")
	assert.Equal(t, pipeline.ActionApplied, out.Outcome)
	assert.True(t, out.Advanced)
	assert.NotEmpty(t, out.Narration)
	assert.Equal(t, "goblin_1", e.CurrentTurn().ID)
	assert.False(t, r.Finished())
}

func TestCombatRunnerPlayerTurnClarificationKeepsTurn(t *testing.T) {
	r, e, _ := runnerWith(t, []int{10}, []int{10})

	out := r.PlayerTurn("hago algo")
	assert.NotEqual(t, pipeline.ActionApplied, out.Outcome)
	assert.False(t, out.Advanced)
	assert.Equal(t, "pj-1", e.CurrentTurn().ID)
}

func TestCombatRunnerEnemyTurnHits(t *testing.T) {
	r, e, _ := runnerWith(t, []int{14, 1}, []int{15, 3})
	r.PlayerTurn("ataco al goblin con mi espada larga")

	out, err := r.EnemyTurn()
	require.NoError(t, err)
	assert.Contains(t, out, "Goblin ataca con Cimitarra")
	assert.Contains(t, out, "💥 Daño: 5")

	pc, _ := e.Combatant("pj-1")
	assert.Equal(t, 7, pc.CurrentHP)
	// Turn passed back to the player.
	assert.Equal(t, "pj-1", e.CurrentTurn().ID)
	assert.Equal(t, 2, e.Round())
}

func TestCombatRunnerEnemyTurnMiss(t *testing.T) {
	r, e, _ := runnerWith(t, []int{14, 1}, []int{5})
	r.PlayerTurn("ataco al goblin con mi espada larga")

	out, err := r.EnemyTurn()
	require.NoError(t, err)
	assert.Contains(t, out, "falla")
	pc, _ := e.Combatant("pj-1")
	assert.Equal(t, 12, pc.CurrentHP)
}

func TestCombatRunnerEnemyCritDropsPC(t *testing.T) {
	// Natural 20 doubles the damage dice: 2d6 (6,6) + 2 = 14.
	r, e, _ := runnerWith(t, []int{14, 1}, []int{20, 6, 6})
	r.PlayerTurn("ataco al goblin con mi espada larga")

	out, err := r.EnemyTurn()
	require.NoError(t, err)
	assert.Contains(t, out, "¡CRÍTICO!")
	assert.Contains(t, out, "💀 ¡Elara cae!")
	assert.Equal(t, combat.StateDefeat, e.State())
	assert.True(t, r.Finished())

	res := r.Result()
	assert.False(t, res.Victory)
	assert.Equal(t, 0, res.XP)
}

func TestCombatRunnerEnemyTurnWrongSide(t *testing.T) {
	r, _, _ := runnerWith(t, []int{10}, []int{10})
	_, err := r.EnemyTurn()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turno del jugador")
}

func TestCombatRunnerVictoryResult(t *testing.T) {
	// Attack hits and the 6+3 damage kills the 7 HP goblin.
	r, e, sheet := runnerWith(t, []int{14, 6}, []int{10})

	out := r.PlayerTurn("ataco al goblin con mi espada larga")
	assert.True(t, out.Advanced)
	assert.Equal(t, combat.StateVictory, e.State())
	assert.True(t, r.Finished())

	res := r.Result()
	assert.True(t, res.Victory)
	assert.Equal(t, []string{"Goblin"}, res.Defeated)
	assert.Equal(t, 50, res.XP)
	assert.Equal(t, 12, res.FinalHP)
	assert.Contains(t, res.Summary, "Victoria")
	require.NotNil(t, res.Award)
	assert.Equal(t, 50, res.Award.Gained)
	assert.Equal(t, 50, sheet.Info.Experience)
	// Encounter HP synced back to the sheet.
	assert.Equal(t, 12, sheet.Derived.CurrentHP)
}

func TestCombatRunnerFlee(t *testing.T) {
	r, _, sheet := runnerWith(t, []int{10}, []int{10})

	msg := r.Flee()
	assert.Contains(t, msg, "Huyes")
	assert.True(t, r.Finished())

	res := r.Result()
	assert.False(t, res.Victory)
	assert.True(t, res.Fled)
	assert.Equal(t, 0, res.XP)
	assert.Equal(t, 0, sheet.Info.Experience)
}

func TestFromGameRequiresCombat(t *testing.T) {
	_, err := FromGame(testGame(t), nil, nil)
	require.Error(t, err)
}
