package character

import (
	"fmt"
	"strconv"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/storage"
)

// xpThresholds[level] is the cumulative XP required to reach level.
var xpThresholds = map[int]int{
	1: 0, 2: 300, 3: 900, 4: 2700, 5: 6500,
	6: 14000, 7: 23000, 8: 34000, 9: 48000, 10: 64000,
	11: 85000, 12: 100000, 13: 120000, 14: 140000, 15: 165000,
	16: 195000, 17: 225000, 18: 265000, 19: 305000, 20: 355000,
}

// abilityImprovementLevels are the levels granting an ability score
// improvement for every class, used when no per-class data overrides.
var abilityImprovementLevels = map[int]bool{4: true, 8: true, 12: true, 16: true, 19: true}

// LevelData is what one class level grants.
type LevelData struct {
	Features           []Trait `json:"features,omitempty"`
	AbilityImprovement bool    `json:"mejora_caracteristica,omitempty"`
	SneakAttackDice    int     `json:"sneak_attack_dice,omitempty"`
}

// classProgress is the optional per-class section of the progression
// data file, with level records keyed by the level number as string.
type classProgress struct {
	Levels map[string]LevelData `json:"niveles"`
}

// Progression answers XP and level-up questions for sheets.
type Progression struct {
	data    *Data
	classes map[string]classProgress
}

// NewProgression builds a progression engine with built-in tables.
func NewProgression(data *Data) *Progression {
	return &Progression{data: data}
}

// LoadProgression additionally reads per-class level features from a
// progression data file.
func LoadProgression(path string, data *Data) (*Progression, error) {
	var file struct {
		Classes map[string]classProgress `json:"clases"`
	}
	if err := storage.LoadJSON(path, &file); err != nil {
		return nil, fmt.Errorf("loading progression data: %w", err)
	}
	return &Progression{data: data, classes: file.Classes}, nil
}

// LevelForXP returns the level a cumulative XP total corresponds to.
func (p *Progression) LevelForXP(xp int) int {
	level := 1
	for lvl := 2; lvl <= 20; lvl++ {
		if xp >= xpThresholds[lvl] {
			level = lvl
		} else {
			break
		}
	}
	return level
}

// XPForLevel returns the cumulative XP required to reach a level.
func (p *Progression) XPForLevel(level int) int {
	return xpThresholds[level]
}

// XPForNextLevel returns the threshold of the next level, or 0 at the
// level cap.
func (p *Progression) XPForNextLevel(current int) int {
	if current >= 20 {
		return 0
	}
	return xpThresholds[current+1]
}

// AwardResult reports an XP grant and whether it unlocked a level-up.
type AwardResult struct {
	Before         int  `json:"xp_anterior"`
	After          int  `json:"xp_nueva"`
	Gained         int  `json:"xp_ganada"`
	CanLevelUp     bool `json:"puede_subir_nivel"`
	CurrentLevel   int  `json:"nivel_actual"`
	ReachableLevel int  `json:"nivel_posible"`
}

// AwardXP adds experience to the sheet and reports whether the new
// total crosses the next level threshold. It does not level up.
func (p *Progression) AwardXP(s *Sheet, xp int) AwardResult {
	before := s.Info.Experience
	after := before + xp
	s.Info.Experience = after

	current := s.Info.Level
	if current < 1 {
		current = 1
	}
	reachable := p.LevelForXP(after)

	return AwardResult{
		Before:         before,
		After:          after,
		Gained:         xp,
		CanLevelUp:     reachable > current,
		CurrentLevel:   current,
		ReachableLevel: reachable,
	}
}

// LevelUpResult lists everything a level-up applied.
type LevelUpResult struct {
	PreviousLevel      int     `json:"nivel_anterior"`
	NewLevel           int     `json:"nivel_nuevo"`
	HPGained           int     `json:"hp_ganados"`
	NewFeatures        []Trait `json:"features_nuevos"`
	AbilityImprovement bool    `json:"mejora_caracteristica"`
	SneakAttackDice    int     `json:"sneak_attack_dice,omitempty"`
}

// LevelUp raises the sheet to the target level (default: one level),
// applying each intermediate level: hit points, proficiency bonus,
// class features and the ability-improvement flag. Hit points rise by
// at least 1 per level and the character heals to the new maximum.
func (p *Progression) LevelUp(s *Sheet, targetLevel int) (*LevelUpResult, error) {
	current := s.Info.Level
	if current < 1 {
		current = 1
	}
	if targetLevel == 0 {
		targetLevel = current + 1
	}
	if targetLevel > 20 {
		targetLevel = 20
	}
	if targetLevel <= current {
		return nil, fmt.Errorf("el nivel objetivo (%d) debe ser mayor que el actual (%d)", targetLevel, current)
	}

	result := &LevelUpResult{
		PreviousLevel: current,
		NewLevel:      targetLevel,
	}

	prevMax := s.Derived.MaxHP
	if prevMax == 0 {
		Recompute(s, p.data)
		prevMax = s.Derived.MaxHP
	}

	for level := current + 1; level <= targetLevel; level++ {
		ld := p.levelData(s.Info.Class, level)
		for _, f := range ld.Features {
			if _, ok := s.Traits.ClassTrait(f.ID); !ok {
				s.Traits.Class = append(s.Traits.Class, f)
			}
			result.NewFeatures = append(result.NewFeatures, f)
		}
		if ld.AbilityImprovement {
			result.AbilityImprovement = true
		}
		if ld.SneakAttackDice > 0 {
			result.SneakAttackDice = ld.SneakAttackDice
		}
	}

	s.Info.Level = targetLevel
	Recompute(s, p.data)
	s.Derived.CurrentHP = s.Derived.MaxHP

	result.HPGained = s.Derived.MaxHP - prevMax
	return result, nil
}

// levelData resolves what one class level grants, falling back to the
// built-in defaults when no progression file is loaded.
func (p *Progression) levelData(classID string, level int) LevelData {
	if cp, ok := p.classes[classID]; ok {
		if ld, ok := cp.Levels[strconv.Itoa(level)]; ok {
			return ld
		}
	}
	ld := LevelData{AbilityImprovement: abilityImprovementLevels[level]}
	if classID == "picaro" {
		ld.SneakAttackDice = (level + 1) / 2
	}
	return ld
}

// Progress summarises how far the sheet is into its current level.
type Progress struct {
	XP          int `json:"xp_actual"`
	Level       int `json:"nivel_actual"`
	NextLevelXP int `json:"xp_para_siguiente"`
	Missing     int `json:"xp_faltante"`
	Percent     int `json:"porcentaje"`
}

// XPProgress reports the sheet's progress towards the next level.
func (p *Progression) XPProgress(s *Sheet) Progress {
	xp := s.Info.Experience
	level := s.Info.Level
	if level < 1 {
		level = 1
	}
	if level >= 20 {
		return Progress{XP: xp, Level: 20, Percent: 100}
	}

	floor := p.XPForLevel(level)
	next := p.XPForNextLevel(level)
	missing := next - xp
	if missing < 0 {
		missing = 0
	}

	percent := 100
	if span := next - floor; span > 0 {
		percent = (xp - floor) * 100 / span
	}
	return Progress{
		XP:          xp,
		Level:       level,
		NextLevelXP: next,
		Missing:     missing,
		Percent:     max(0, min(100, percent)),
	}
}
