package encounter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/testutils"
)

func monster(name string, xp int) *compendium.Monster {
	return &compendium.Monster{ID: name, Name: name, Experience: xp}
}

func TestMultiplierSoloParty(t *testing.T) {
	// Solo play climbs every multiplier one rung.
	assert.Equal(t, 1.5, Multiplier(1, 1))
	assert.Equal(t, 2.0, Multiplier(2, 1))
	assert.Equal(t, 2.5, Multiplier(3, 1))
	assert.Equal(t, 3.0, Multiplier(7, 1))
	assert.Equal(t, 5.0, Multiplier(15, 1))
}

func TestMultiplierNormalAndLargeParty(t *testing.T) {
	assert.Equal(t, 1.0, Multiplier(1, 4))
	assert.Equal(t, 1.5, Multiplier(2, 4))
	assert.Equal(t, 2.0, Multiplier(6, 4))
	assert.Equal(t, 2.5, Multiplier(10, 4))
	assert.Equal(t, 4.0, Multiplier(15, 4))

	// Parties of 6+ drop one rung, floored at ×1.
	assert.Equal(t, 1.0, Multiplier(1, 6))
	assert.Equal(t, 1.0, Multiplier(2, 6))
	assert.Equal(t, 3.0, Multiplier(15, 6))
}

func TestGroupThresholds(t *testing.T) {
	solo := GroupThresholds(1, 1)
	assert.Equal(t, Thresholds{25, 50, 75, 100}, solo)

	party := GroupThresholds(5, 4)
	assert.Equal(t, Thresholds{1000, 2000, 3000, 4400}, party)

	// Out-of-range levels clamp to the table.
	assert.Equal(t, GroupThresholds(1, 1), GroupThresholds(0, 1))
	assert.Equal(t, GroupThresholds(20, 1), GroupThresholds(25, 1))
}

func TestEncounterXP(t *testing.T) {
	base, adjusted := EncounterXP(nil, 1)
	assert.Zero(t, base)
	assert.Zero(t, adjusted)

	goblins := []*compendium.Monster{monster("goblin", 50), monster("goblin", 50)}
	base, adjusted = EncounterXP(goblins, 1)
	assert.Equal(t, 100, base)
	assert.Equal(t, 200, adjusted) // ×2 for two monsters vs one PC
}

func TestClassify(t *testing.T) {
	th := Thresholds{Easy: 25, Medium: 50, Hard: 75, Deadly: 100}
	assert.Equal(t, Trivial, Classify(10, th))
	assert.Equal(t, Easy, Classify(25, th))
	assert.Equal(t, Medium, Classify(50, th))
	assert.Equal(t, Hard, Classify(75, th))
	assert.Equal(t, Deadly, Classify(100, th))
	assert.Equal(t, Deadly, Classify(149, th))
	assert.Equal(t, Lethal, Classify(150, th))
}

func TestAssessSoloGoblin(t *testing.T) {
	// One goblin vs one level-1 PC: 50 XP ×1.5 = 75, the hard
	// threshold exactly.
	a := Assess([]*compendium.Monster{monster("goblin", 50)}, 1, 1)
	assert.Equal(t, Hard, a.Difficulty)
	assert.Equal(t, 50, a.BaseXP)
	assert.Equal(t, 75, a.AdjustedXP)
	assert.Equal(t, 1.5, a.Multiplier)
}

func TestAssessmentDescription(t *testing.T) {
	a := Assess([]*compendium.Monster{monster("goblin", 50)}, 1, 1)
	desc := a.Description()
	assert.Contains(t, desc, "DIFÍCIL")
	assert.Contains(t, desc, "50 base × 1.5 = 75 ajustado")
	assert.Contains(t, desc, "Letal 100")
}

func TestSuggest(t *testing.T) {
	roster := []*compendium.Monster{
		monster("rat", 10),      // ×1.5 = 15, below the medium band
		monster("goblin", 50),   // ×1.5 = 75, above it
		monster("bandit", 25),   // ×1.5 = 37.5, inside [25, 50)
		monster("kobold", 25),   // same band
		monster("ogre", 450),    // far above
	}

	got := Suggest(1, 1, Medium, roster)
	require.Len(t, got, 2)
	assert.Equal(t, "bandit", got[0].Monsters[0].ID)
	assert.Equal(t, "kobold", got[1].Monsters[0].ID)
	assert.Equal(t, 37, got[0].AdjustedXP)
	assert.Equal(t, Medium, got[0].Difficulty)
}

func TestSuggestCapsAtTen(t *testing.T) {
	var roster []*compendium.Monster
	for i := 0; i < 25; i++ {
		roster = append(roster, monster("bandit", 25))
	}
	assert.Len(t, Suggest(1, 1, Medium, roster), 10)
}

func TestAssessFromCatalogue(t *testing.T) {
	comp := testutils.Adapter(t)
	goblin, ok := comp.Store().Monster("goblin")
	require.True(t, ok)
	lobo, ok := comp.Store().Monster("lobo")
	require.True(t, ok)

	// A lone goblin against a level-1 solo character reads hard.
	a := Assess([]*compendium.Monster{&goblin}, 1, 1)
	assert.Equal(t, 50, a.BaseXP)
	assert.Equal(t, 75, a.AdjustedXP)
	assert.Equal(t, Hard, a.Difficulty)

	// Adding a wolf pushes past 1.5× the deadly budget.
	a = Assess([]*compendium.Monster{&goblin, &lobo}, 1, 1)
	assert.Equal(t, 100, a.BaseXP)
	assert.Equal(t, 200, a.AdjustedXP)
	assert.Equal(t, Lethal, a.Difficulty)
}

func TestGuidancePrompt(t *testing.T) {
	p := GuidancePrompt(3, 1)
	assert.Contains(t, p, "1 PJ(s) de nivel 3")
	assert.Contains(t, p, "Fácil: 75 XP")
	assert.Contains(t, p, "Letal: 400 XP")
	assert.Contains(t, p, "1 enemigo: ×1.5")
	assert.True(t, strings.Contains(p, "evitar encuentros con 3+ enemigos"))
}
