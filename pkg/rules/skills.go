package rules

// Ability identifiers, matching the character-sheet JSON keys.
const (
	Strength     = "fuerza"
	Dexterity    = "destreza"
	Constitution = "constitucion"
	Intelligence = "inteligencia"
	Wisdom       = "sabiduria"
	Charisma     = "carisma"
)

// Abilities in canonical sheet order.
var Abilities = []string{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// Skills is the fixed 18-skill vocabulary, keyed by sheet ID.
var Skills = []string{
	"acrobacias", "arcanos", "atletismo", "engaño", "historia",
	"interpretacion", "intimidacion", "investigacion", "juego_manos",
	"medicina", "naturaleza", "percepcion", "perspicacia", "persuasion",
	"religion", "sigilo", "supervivencia", "trato_animales",
}

// SkillAbility maps each skill to its governing ability.
var SkillAbility = map[string]string{
	"acrobacias":     Dexterity,
	"arcanos":        Intelligence,
	"atletismo":      Strength,
	"engaño":         Charisma,
	"historia":       Intelligence,
	"interpretacion": Charisma,
	"intimidacion":   Charisma,
	"investigacion":  Intelligence,
	"juego_manos":    Dexterity,
	"medicina":       Wisdom,
	"naturaleza":     Intelligence,
	"percepcion":     Wisdom,
	"perspicacia":    Wisdom,
	"persuasion":     Charisma,
	"religion":       Intelligence,
	"sigilo":         Dexterity,
	"supervivencia":  Wisdom,
	"trato_animales": Wisdom,
}

// IsSkill reports whether id names one of the 18 skills.
func IsSkill(id string) bool {
	_, ok := SkillAbility[id]
	return ok
}

// Condition identifiers, matching the sheet/combatant JSON values.
const (
	CondBlinded       = "cegado"
	CondFrightened    = "asustado"
	CondGrappled      = "agarrado"
	CondIncapacitated = "incapacitado"
	CondParalyzed     = "paralizado"
	CondPetrified     = "petrificado"
	CondProne         = "derribado"
	CondRestrained    = "apresado"
	CondStunned       = "aturdido"
	CondUnconscious   = "inconsciente"
	CondDodging       = "esquivando"
)

// CannotAct lists conditions that remove the actor's turn entirely.
var CannotAct = []string{CondParalyzed, CondPetrified, CondStunned, CondIncapacitated}

// CannotMove lists conditions that reduce speed to zero.
var CannotMove = []string{CondParalyzed, CondPetrified, CondStunned, CondUnconscious, CondGrappled, CondRestrained}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// BlocksAction reports whether the condition prevents taking actions.
func BlocksAction(condition string) bool {
	return contains(CannotAct, condition)
}

// BlocksMovement reports whether the condition prevents movement.
func BlocksMovement(condition string) bool {
	return contains(CannotMove, condition)
}
