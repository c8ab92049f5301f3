package encounter

import (
	"fmt"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
)

// Suggestion is one candidate encounter composition.
type Suggestion struct {
	Monsters   []*compendium.Monster `json:"monstruos"`
	Count      int                   `json:"cantidad"`
	AdjustedXP int                   `json:"xp_ajustado"`
	Difficulty Difficulty            `json:"dificultad"`
}

// maxSuggestions caps the returned list.
const maxSuggestions = 10

// Suggest picks single-monster compositions from the available roster
// whose adjusted XP lands in the target band. At most ten suggestions
// come back.
func Suggest(level, partySize int, target Difficulty, available []*compendium.Monster) []Suggestion {
	t := GroupThresholds(level, partySize)

	var xpMin, xpMax float64
	switch target {
	case Easy:
		xpMin, xpMax = float64(t.Easy)*0.5, float64(t.Easy)
	case Hard:
		xpMin, xpMax = float64(t.Medium), float64(t.Hard)
	case Deadly:
		xpMin, xpMax = float64(t.Hard), float64(t.Deadly)
	default:
		xpMin, xpMax = float64(t.Easy), float64(t.Medium)
	}

	soloMult := Multiplier(1, partySize)

	var out []Suggestion
	for _, m := range available {
		adjusted := float64(m.Experience) * soloMult
		if adjusted < xpMin || adjusted > xpMax {
			continue
		}
		out = append(out, Suggestion{
			Monsters:   []*compendium.Monster{m},
			Count:      1,
			AdjustedXP: int(adjusted),
			Difficulty: target,
		})
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

// GuidancePrompt renders the difficulty rules as a prompt block so the
// model picks enemies inside the party's budget.
func GuidancePrompt(level, partySize int) string {
	t := GroupThresholds(level, partySize)
	m1 := Multiplier(1, partySize)
	m2 := Multiplier(2, partySize)
	m3 := Multiplier(3, partySize)

	crEasy := level - 2
	if crEasy < 0 {
		crEasy = 0
	}
	crMedium := level - 1
	if crMedium < 0 {
		crMedium = 0
	}

	return fmt.Sprintf(`## Reglas de Dificultad de Encuentros (D&D 5e)

**Grupo**: %d PJ(s) de nivel %d

### Umbrales de XP:
- Trivial: < %d XP
- Fácil: %d XP
- Medio: %d XP
- Difícil: %d XP
- Letal: %d XP

### Multiplicadores por número de enemigos:
- 1 enemigo: ×%g
- 2 enemigos: ×%g
- 3+ enemigos: ×%g

### Ejemplos de CR apropiados para %d PJ nivel %d:
- Encuentro Fácil: 1 monstruo de CR %d o menor
- Encuentro Medio: 1 monstruo de CR %d
- Encuentro Difícil: 1 monstruo de CR %d
- Encuentro Letal: 1 monstruo de CR %d o 2 de CR %d

### IMPORTANTE:
- Para 1 PJ, evitar encuentros con 3+ enemigos (casi siempre letales)
- Preferir 1-2 enemigos para encuentros equilibrados
`,
		partySize, level,
		t.Easy, t.Easy, t.Medium, t.Hard, t.Deadly,
		m1, m2, m3,
		partySize, level,
		crEasy, crMedium, level, level+1, crMedium,
	)
}
