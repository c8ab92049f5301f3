// Package encounter rates combat encounters against the DMG XP budget
// tables, with the small-party multiplier adjustment that matters for
// solo play: one or two characters shift every monster-count
// multiplier one rung harder.
package encounter

import (
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
)

// Difficulty is a rated encounter tier.
type Difficulty string

const (
	Trivial Difficulty = "trivial"
	Easy    Difficulty = "fácil"
	Medium  Difficulty = "medio"
	Hard    Difficulty = "difícil"
	Deadly  Difficulty = "letal"
	Lethal  Difficulty = "mortal"
)

// Thresholds is a per-character XP budget row (DMG p. 82).
type Thresholds struct {
	Easy   int `json:"facil"`
	Medium int `json:"medio"`
	Hard   int `json:"dificil"`
	Deadly int `json:"letal"`
}

// xpThresholds indexes budgets by character level, 1..20.
var xpThresholds = map[int]Thresholds{
	1:  {25, 50, 75, 100},
	2:  {50, 100, 150, 200},
	3:  {75, 150, 225, 400},
	4:  {125, 250, 375, 500},
	5:  {250, 500, 750, 1100},
	6:  {300, 600, 900, 1400},
	7:  {350, 750, 1100, 1700},
	8:  {450, 900, 1400, 2100},
	9:  {550, 1100, 1600, 2400},
	10: {600, 1200, 1900, 2800},
	11: {800, 1600, 2400, 3600},
	12: {1000, 2000, 3000, 4500},
	13: {1100, 2200, 3400, 5100},
	14: {1250, 2500, 3800, 5700},
	15: {1400, 2800, 4300, 6400},
	16: {1600, 3200, 4800, 7200},
	17: {2000, 3900, 5900, 8800},
	18: {2100, 4200, 6300, 9500},
	19: {2400, 4900, 7300, 10900},
	20: {2800, 5700, 8500, 12700},
}

// baseMultipliers maps monster count to the XP multiplier for a normal
// party of 3-5. Counts of 15 or more use ×4.
var baseMultipliers = map[int]float64{
	1: 1.0, 2: 1.5,
	3: 2.0, 4: 2.0, 5: 2.0, 6: 2.0,
	7: 2.5, 8: 2.5, 9: 2.5, 10: 2.5,
	11: 3.0, 12: 3.0, 13: 3.0, 14: 3.0,
}

// multiplierLadder orders the possible multipliers so party-size
// adjustments can move one rung up or down.
var multiplierLadder = []float64{1.0, 1.5, 2.0, 2.5, 3.0, 4.0, 5.0}

// Multiplier returns the XP multiplier for the given monster count and
// party size. Parties of 1-2 climb one rung, parties of 6+ drop one.
func Multiplier(monsters, partySize int) float64 {
	base := 4.0
	if monsters < 15 {
		var ok bool
		if base, ok = baseMultipliers[monsters]; !ok {
			base = 2.0
		}
	}

	rung := 2
	for i, m := range multiplierLadder {
		if m == base {
			rung = i
			break
		}
	}

	switch {
	case partySize <= 2:
		if rung < len(multiplierLadder)-1 {
			rung++
		}
	case partySize >= 6:
		if rung > 0 {
			rung--
		}
	}
	return multiplierLadder[rung]
}

// GroupThresholds scales the per-character budget row by party size.
// Levels outside 1..20 clamp to the nearest table row.
func GroupThresholds(avgLevel, partySize int) Thresholds {
	level := avgLevel
	if level < 1 {
		level = 1
	}
	if level > 20 {
		level = 20
	}
	row := xpThresholds[level]
	return Thresholds{
		Easy:   row.Easy * partySize,
		Medium: row.Medium * partySize,
		Hard:   row.Hard * partySize,
		Deadly: row.Deadly * partySize,
	}
}

// EncounterXP sums the monsters' XP values and applies the count
// multiplier. An empty roster yields 0, 0.
func EncounterXP(monsters []*compendium.Monster, partySize int) (base, adjusted int) {
	if len(monsters) == 0 {
		return 0, 0
	}
	for _, m := range monsters {
		base += m.Experience
	}
	adjusted = int(float64(base) * Multiplier(len(monsters), partySize))
	return base, adjusted
}

// Classify maps adjusted XP onto the difficulty tiers. An encounter
// at or past 1.5× the deadly budget is rated mortal.
func Classify(adjustedXP int, t Thresholds) Difficulty {
	switch {
	case adjustedXP < t.Easy:
		return Trivial
	case adjustedXP < t.Medium:
		return Easy
	case adjustedXP < t.Hard:
		return Medium
	case adjustedXP < t.Deadly:
		return Hard
	case float64(adjustedXP) < float64(t.Deadly)*1.5:
		return Deadly
	default:
		return Lethal
	}
}

// Assessment is a full difficulty reading for one encounter.
type Assessment struct {
	Difficulty Difficulty `json:"dificultad"`
	BaseXP     int        `json:"xp_base"`
	AdjustedXP int        `json:"xp_ajustado"`
	Multiplier float64    `json:"multiplicador"`
	Thresholds Thresholds `json:"umbrales"`
	Monsters   int        `json:"num_monstruos"`
	PartySize  int        `json:"num_pjs"`
	Level      int        `json:"nivel_pj"`
}

// Assess rates an encounter for a party of partySize characters at the
// given average level.
func Assess(monsters []*compendium.Monster, level, partySize int) Assessment {
	t := GroupThresholds(level, partySize)
	base, adjusted := EncounterXP(monsters, partySize)
	return Assessment{
		Difficulty: Classify(adjusted, t),
		BaseXP:     base,
		AdjustedXP: adjusted,
		Multiplier: Multiplier(len(monsters), partySize),
		Thresholds: t,
		Monsters:   len(monsters),
		PartySize:  partySize,
		Level:      level,
	}
}

var difficultyMarkers = map[Difficulty]string{
	Trivial: "😴",
	Easy:    "🟢",
	Medium:  "🟡",
	Hard:    "🟠",
	Deadly:  "🔴",
	Lethal:  "💀",
}

// Description renders a human-readable summary of the assessment.
func (a Assessment) Description() string {
	marker, ok := difficultyMarkers[a.Difficulty]
	if !ok {
		marker = "⚔️"
	}
	return fmt.Sprintf(
		"%s Encuentro %s\n"+
			"   XP: %d base × %g = %d ajustado\n"+
			"   Umbrales (nivel %d, %d PJ): Fácil %d | Medio %d | Difícil %d | Letal %d",
		marker, strings.ToUpper(string(a.Difficulty)),
		a.BaseXP, a.Multiplier, a.AdjustedXP,
		a.Level, a.PartySize,
		a.Thresholds.Easy, a.Thresholds.Medium, a.Thresholds.Hard, a.Thresholds.Deadly,
	)
}
