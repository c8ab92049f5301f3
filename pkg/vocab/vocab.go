// Package vocab centralises the Spanish synonym tables the normaliser
// uses to detect intents and entities. Adding a synonym only requires
// touching the matching table; detection patterns derive from it.
package vocab

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intent is the coarse action kind a verb points to.
type Intent string

const (
	IntentAttack   Intent = "ataque"
	IntentSpell    Intent = "conjuro"
	IntentMovement Intent = "movimiento"
	IntentSkill    Intent = "habilidad"
	IntentGeneric  Intent = "accion"
	IntentItem     Intent = "objeto"
)

// VerbIntents maps player verbs to the intent they signal.
var VerbIntents = map[string]Intent{
	// attack
	"ataco": IntentAttack, "atacar": IntentAttack, "ataque": IntentAttack,
	"golpeo": IntentAttack, "golpear": IntentAttack,
	"pego": IntentAttack, "pegar": IntentAttack,
	"disparo": IntentAttack, "disparar": IntentAttack,
	"corto": IntentAttack, "cortar": IntentAttack,
	"apuñalo": IntentAttack, "apuñalar": IntentAttack,
	"hiero": IntentAttack, "herir": IntentAttack,

	// movement
	"muevo": IntentMovement, "moverme": IntentMovement, "mover": IntentMovement,
	"camino": IntentMovement, "caminar": IntentMovement,
	"corro": IntentMovement, "correr": IntentMovement,
	"acerco": IntentMovement, "acercarme": IntentMovement,
	"alejo": IntentMovement, "alejarme": IntentMovement,
	"desplazo": IntentMovement, "desplazarme": IntentMovement,
	"voy": IntentMovement, "ir": IntentMovement,
	"avanzo": IntentMovement, "avanzar": IntentMovement,
	"retrocedo": IntentMovement, "retroceder": IntentMovement,

	// spell (generic verbs; specific spells are matched by name)
	"conjuro": IntentSpell, "conjurar": IntentSpell,
	"hechizo": IntentSpell, "magia": IntentSpell,

	// skill
	"escucho": IntentSkill, "escuchar": IntentSkill,
	"oigo": IntentSkill, "oir": IntentSkill,
	"miro": IntentSkill, "mirar": IntentSkill,
	"busco": IntentSkill, "buscar": IntentSkill,
	"examino": IntentSkill, "examinar": IntentSkill,
	"investigo": IntentSkill, "investigar": IntentSkill,
	"persuado": IntentSkill, "persuadir": IntentSkill, "persuadirlo": IntentSkill,
	"convenzo": IntentSkill, "convencer": IntentSkill,
	"intimido": IntentSkill, "intimidar": IntentSkill,
	"amenazo": IntentSkill, "amenazar": IntentSkill,
	"miento": IntentSkill, "mentir": IntentSkill,
	"engaño": IntentSkill, "engañar": IntentSkill,
	"trepo": IntentSkill, "trepar": IntentSkill,
	"escalo": IntentSkill, "escalar": IntentSkill,
	"salto": IntentSkill, "saltar": IntentSkill,
	"nado": IntentSkill, "nadar": IntentSkill,

	// item
	"bebo": IntentItem, "beber": IntentItem,
	"tomo": IntentItem, "tomar": IntentItem,
}

// SkillVerbs maps verbs to the specific skill they imply.
var SkillVerbs = map[string]string{
	"escucho": "percepcion", "escuchar": "percepcion",
	"oigo": "percepcion", "oir": "percepcion",
	"miro": "percepcion", "mirar": "percepcion",
	"observo": "percepcion", "observar": "percepcion",
	"vigilo": "percepcion", "vigilar": "percepcion",
	"oteo": "percepcion", "otear": "percepcion",

	"investigo": "investigacion", "investigar": "investigacion",
	"examino": "investigacion", "examinar": "investigacion",
	"analizo": "investigacion", "analizar": "investigacion",
	"estudio": "investigacion", "estudiar": "investigacion",
	"inspecciono": "investigacion", "inspeccionar": "investigacion",

	"escondo": "sigilo", "esconderme": "sigilo",
	"oculto": "sigilo", "ocultarme": "sigilo",
	"sigiloso": "sigilo", "sigilosamente": "sigilo",

	"trepo": "atletismo", "trepar": "atletismo",
	"escalo": "atletismo", "escalar": "atletismo",
	"salto": "atletismo", "saltar": "atletismo",
	"nado": "atletismo", "nadar": "atletismo",
	"empujo": "atletismo", "empujar": "atletismo",
	"forcejeo": "atletismo", "forcejear": "atletismo",

	"ruedo": "acrobacias", "rodar": "acrobacias",
	"voltereta": "acrobacias", "equilibrio": "acrobacias",
	"equilibrarme": "acrobacias", "pirueta": "acrobacias",

	"persuado": "persuasion", "persuadir": "persuasion", "persuadirlo": "persuasion",
	"convenzo": "persuasion", "convencer": "persuasion",
	"negocio": "persuasion", "negociar": "persuasion",
	"regateo": "persuasion", "regatear": "persuasion",
	"halago": "persuasion", "halagar": "persuasion",

	"miento": "engaño", "mentir": "engaño",
	"engaño": "engaño", "engañar": "engaño",
	"finjo": "engaño", "fingir": "engaño",
	"faroleo": "engaño", "farolear": "engaño",
	"timo": "engaño", "timar": "engaño",

	"intimido": "intimidacion", "intimidar": "intimidacion",
	"amenazo": "intimidacion", "amenazar": "intimidacion",
	"asusto": "intimidacion", "asustar": "intimidacion",
	"aterrorizo": "intimidacion", "aterrorizar": "intimidacion",

	"curo": "medicina", "curar": "medicina",
	"estabilizo": "medicina", "estabilizar": "medicina",
	"diagnostico": "medicina", "diagnosticar": "medicina",
	"vendo": "medicina", "vendar": "medicina",

	"rastro": "supervivencia", "rastrear": "supervivencia",
	"sigo": "supervivencia", "seguir": "supervivencia",
	"cazo": "supervivencia", "cazar": "supervivencia",
	"forrajeo": "supervivencia", "forrajear": "supervivencia",

	"amanso": "trato_animales", "amansar": "trato_animales",
	"domestico": "trato_animales", "domesticar": "trato_animales",
	"calmo": "trato_animales", "calmar": "trato_animales",
}

// GenericActions maps colloquial phrases to the standard action IDs
// (dash, dodge, disengage, help, hide, search, ready).
var GenericActions = map[string]string{
	"dash": "dash", "carrera": "dash", "sprint": "dash",
	"correr rápido": "dash", "correr rapido": "dash",
	"corro todo lo que puedo": "dash",

	"dodge": "dodge", "esquivar": "dodge", "esquiva": "dodge", "esquivo": "dodge",
	"evadir": "dodge", "me pongo a esquivar": "dodge", "preparo para esquivar": "dodge",

	"disengage": "disengage", "desenganche": "disengage",
	"retirada": "disengage", "retirarse": "disengage", "retirarme": "disengage",
	"me retiro": "disengage", "retrocedo sin provocar": "disengage",

	"help": "help", "ayudar": "help", "ayuda": "help", "ayudo": "help",
	"asistir": "help", "asisto": "help", "echo una mano": "help",

	"hide": "hide", "esconder": "hide", "esconderse": "hide", "esconderme": "hide",
	"me escondo": "hide", "ocultar": "hide", "ocultarme": "hide", "me oculto": "hide",

	"search": "search", "buscar": "search", "registrar": "search", "registro": "search",

	"ready": "ready", "preparar": "ready", "preparo": "ready",
	"preparar acción": "ready", "preparar accion": "ready", "preparo una acción": "ready",
}

// WeaponSynonyms maps colloquial weapon terms to compendium IDs, most
// specific first.
var WeaponSynonyms = map[string][]string{
	"espadón":  {"espada_larga"},
	"espada":   {"espada_larga", "espada_corta"},
	"sable":    {"espada_corta"},
	"daga":     {"daga"},
	"cuchillo": {"daga"},
	"puñal":    {"daga"},
	"maza":     {"maza"},
	"martillo": {"maza"},
	"hacha":    {"hacha_mano"},
	"arco":     {"arco_corto"},
	"ballesta": {"ballesta_ligera"},
	"bastón":   {"baston"},
	"vara":     {"baston"},
	"palo":     {"baston"},
}

// UnarmedTerms mark an unarmed attack.
var UnarmedTerms = []string{
	"desarmado", "puño", "puñetazo", "patada", "cabezazo",
	"golpe", "mano", "codo", "rodilla", "sin arma",
}

var wordCache = map[string]*regexp.Regexp{}

func wordPattern(word string) *regexp.Regexp {
	if re, ok := wordCache[word]; ok {
		return re
	}
	re := regexp.MustCompile(`(^|[^\pL\pN])` + regexp.QuoteMeta(word) + `($|[^\pL\pN])`)
	wordCache[word] = re
	return re
}

func containsWord(text, word string) bool {
	return wordPattern(word).MatchString(text)
}

// DetectIntent scans the lowercased text for an intent verb.
func DetectIntent(text string) (Intent, bool) {
	lower := strings.ToLower(text)
	for verb, intent := range VerbIntents {
		if containsWord(lower, verb) {
			return intent, true
		}
	}
	return "", false
}

// DetectSkill scans for a verb implying a specific skill.
func DetectSkill(text string) (string, bool) {
	lower := strings.ToLower(text)
	for verb, skill := range SkillVerbs {
		if containsWord(lower, verb) {
			return skill, true
		}
	}
	return "", false
}

// DetectGenericAction scans for a generic-action phrase. Phrases are
// matched as substrings so multi-word entries work.
func DetectGenericAction(text string) (string, bool) {
	lower := strings.ToLower(text)
	for phrase, action := range GenericActions {
		if strings.Contains(lower, phrase) {
			return action, true
		}
	}
	return "", false
}

// DetectWeapon resolves a colloquial weapon term to a compendium ID.
func DetectWeapon(text string) (string, bool) {
	lower := strings.ToLower(text)
	for term, ids := range WeaponSynonyms {
		if strings.Contains(lower, term) {
			return ids[0], true
		}
	}
	return "", false
}

// IsUnarmed reports whether the text describes an unarmed attack.
func IsUnarmed(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range UnarmedTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slug normalises a display name for comparison: accents stripped,
// lowercased, runs of non-alphanumerics collapsed to underscores.
// "Aliento ígneo" becomes "aliento_igneo".
func Slug(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = slugCleaner.ReplaceAllString(folded, "_")
	return strings.Trim(folded, "_")
}
