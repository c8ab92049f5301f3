// Package normalizer converts free-form player text into canonical
// action structures. Detection is layered: deterministic vocabulary
// patterns first, a local LLM fallback only when fields stay missing.
// The LLM never decides rules; it only fills JSON fields. Legality is
// the validator package's job.
package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/compendium"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/vocab"
)

// Kind is the canonical action type of a normalised action.
type Kind string

const (
	KindAttack   Kind = "ataque"
	KindSpell    Kind = "conjuro"
	KindMovement Kind = "movimiento"
	KindSkill    Kind = "habilidad"
	KindGeneric  Kind = "accion"
	KindItem     Kind = "objeto"
	KindUnknown  Kind = "desconocido"
)

var intentToKind = map[vocab.Intent]Kind{
	vocab.IntentAttack:   KindAttack,
	vocab.IntentSpell:    KindSpell,
	vocab.IntentMovement: KindMovement,
	vocab.IntentSkill:    KindSkill,
	vocab.IntentGeneric:  KindGeneric,
	vocab.IntentItem:     KindItem,
}

// Action is the result of normalising one player input.
type Action struct {
	Kind               Kind           `json:"tipo"`
	Data               map[string]any `json:"datos"`
	Confidence         float64        `json:"confianza"`
	Missing            []string       `json:"faltantes"`
	Advisories         []string       `json:"advertencias"`
	OriginalText       string         `json:"texto_original"`
	NeedsClarification bool           `json:"requiere_clarificacion"`
	Source             string         `json:"fuente"`
}

// IsComplete reports whether the action has every field it needs and
// enough confidence to be executed without clarification.
func (a *Action) IsComplete() bool {
	return len(a.Missing) == 0 && a.Confidence >= 0.7
}

// WeaponRef identifies a weapon in the actor's inventory.
type WeaponRef struct {
	ID   string
	Name string
}

// CombatantRef identifies a creature on the scene.
type CombatantRef struct {
	InstanceID    string
	Name          string
	CompendiumRef string
	ArmorClass    int
}

// SpellRef identifies a spell the actor knows.
type SpellRef struct {
	ID   string
	Name string
}

// SceneContext is the live scene state used to resolve ambiguity:
// who is acting, what they carry, who they could target.
type SceneContext struct {
	ActorID   string
	ActorName string

	MainWeapon       *WeaponRef
	OffhandWeapon    *WeaponRef
	AvailableWeapons []WeaponRef

	KnownSpells    []SpellRef
	AvailableSlots map[int]int

	LivingEnemies []CombatantRef
	Allies        []CombatantRef

	// Monster actors act through their stat-block action list instead
	// of inventory weapons.
	MonsterActions []compendium.MonsterAction

	// Sheet-derived numbers for bonus computation during execution.
	Abilities        map[string]int
	ProficiencyBonus int

	MovementLeft         int
	ActionAvailable      bool
	BonusActionAvailable bool
}

// LLMFunc fills missing action fields from the player text. It
// receives a prompt and a context payload and returns field values to
// merge into the action data.
type LLMFunc func(prompt string, context map[string]any) (map[string]any, error)

// Normalizer turns player text into canonical actions.
type Normalizer struct {
	comp *compendium.Adapter
	llm  LLMFunc
}

// New creates a normaliser over the catalogue. llm may be nil; then
// incomplete actions are returned as-is for clarification.
func New(comp *compendium.Adapter, llm LLMFunc) *Normalizer {
	return &Normalizer{comp: comp, llm: llm}
}

var (
	cleanPattern   = regexp.MustCompile(`[^\p{L}\p{N}_\s\-]`)
	spacePattern   = regexp.MustCompile(`\s+`)
	potionPattern  = regexp.MustCompile(`\bpoci[oó]n\b`)
	rangedPattern  = regexp.MustCompile(`\b(arco|ballesta|distancia|disparar|disparo)\b`)
	advPattern     = regexp.MustCompile(`\bventaja\b`)
	disadvPattern  = regexp.MustCompile(`\bdesventaja\b`)
	castLevel      = regexp.MustCompile(`nivel\s+(\d+)`)
	feetPattern    = regexp.MustCompile(`(\d+)\s*(pies|ft|feet|pie)`)
	metersPattern  = regexp.MustCompile(`(\d+)\s*(metros?|m)\b`)
	squaresPattern = regexp.MustCompile(`(\d+)\s*casillas?`)
	destPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`hacia\s+(?:el|la|los|las)?\s*([\p{L}\p{N}_]+)`),
		regexp.MustCompile(`a\s+(?:el|la|los|las)?\s*([\p{L}\p{N}_]+)`),
	}
)

// Normalize converts player text into a canonical action using the
// scene context.
func (n *Normalizer) Normalize(text string, scene *SceneContext) *Action {
	clean := preprocess(text)
	kind, _ := n.detectKind(clean, scene)

	var action *Action
	switch kind {
	case KindAttack:
		action = n.normalizeAttack(clean, scene)
	case KindSpell:
		action = n.normalizeSpell(clean, scene)
	case KindMovement:
		action = n.normalizeMovement(clean, scene)
	case KindSkill:
		action = n.normalizeSkill(clean, scene)
	case KindGeneric:
		action = n.normalizeGeneric(clean, scene)
	case KindItem:
		action = n.normalizeItem(clean, scene)
	default:
		action = &Action{
			Kind:       KindUnknown,
			Data:       map[string]any{"actor_id": scene.ActorID},
			Confidence: 0.0,
			Missing:    []string{"tipo"},
			Source:     "patron",
		}
	}

	n.resolveAmbiguities(action, scene)

	if !action.IsComplete() && n.llm != nil {
		n.llmFallback(action, text, scene)
	}

	canonize(action)
	action.OriginalText = text
	return action
}

func preprocess(text string) string {
	text = strings.ToLower(text)
	text = cleanPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// detectKind runs the detection ladder: generic actions, spell names
// (known first, then catalogue), skill names, intent verbs, potions.
func (n *Normalizer) detectKind(text string, scene *SceneContext) (Kind, float64) {
	if _, ok := vocab.DetectGenericAction(text); ok {
		return KindGeneric, 0.9
	}

	for _, sp := range scene.KnownSpells {
		if name := strings.ToLower(sp.Name); name != "" && strings.Contains(text, name) {
			return KindSpell, 0.95
		}
	}
	for _, sp := range n.comp.Store().Spells(compendium.SpellFilter{}) {
		if strings.Contains(text, strings.ToLower(sp.Name)) {
			return KindSpell, 0.9
		}
	}

	skillText := foldSkillAccents(text)
	for _, skill := range rules.Skills {
		if strings.Contains(skillText, skill) {
			return KindSkill, 0.9
		}
	}

	if intent, ok := vocab.DetectIntent(text); ok {
		if kind, ok := intentToKind[intent]; ok {
			return kind, 0.85
		}
	}

	if potionPattern.MatchString(text) {
		return KindItem, 0.8
	}

	return KindUnknown, 0.0
}

func (n *Normalizer) normalizeAttack(text string, scene *SceneContext) *Action {
	data := map[string]any{
		"tipo":        "ataque",
		"atacante_id": scene.ActorID,
		"objetivo_id": nil,
		"arma_id":     nil,
		"subtipo":     "melee",
		"modo":        "normal",
	}
	var missing []string
	confidence := 0.7

	if vocab.IsUnarmed(text) {
		data["arma_id"] = "unarmed"
		data["subtipo"] = "unarmed"
	} else if weaponID, ok := n.findWeapon(text, scene); ok {
		data["arma_id"] = weaponID
		confidence = capConfidence(confidence + 0.1)
	} else {
		missing = append(missing, "arma_id")
	}

	if targetID, ok := findTarget(text, scene); ok {
		data["objetivo_id"] = targetID
		confidence = capConfidence(confidence + 0.1)
	} else {
		missing = append(missing, "objetivo_id")
	}

	if advPattern.MatchString(text) {
		data["modo"] = "ventaja"
	} else if disadvPattern.MatchString(text) {
		data["modo"] = "desventaja"
	}
	if rangedPattern.MatchString(text) {
		data["subtipo"] = "ranged"
	}

	return &Action{Kind: KindAttack, Data: data, Confidence: confidence, Missing: missing, Source: "patron"}
}

func (n *Normalizer) normalizeSpell(text string, scene *SceneContext) *Action {
	data := map[string]any{
		"tipo":              "conjuro",
		"lanzador_id":       scene.ActorID,
		"objetivo_id":       nil,
		"conjuro_id":        nil,
		"nivel_lanzamiento": nil,
	}
	var missing []string
	confidence := 0.6

	if spellID, ok := n.findSpell(text, scene); ok {
		data["conjuro_id"] = spellID
		confidence = capConfidence(confidence + 0.2)
		if sp, ok := n.comp.Store().Spell(spellID); ok {
			data["nivel_lanzamiento"] = sp.Level
		}
	} else {
		missing = append(missing, "conjuro_id")
	}

	if m := castLevel.FindStringSubmatch(text); m != nil {
		lvl, _ := strconv.Atoi(m[1])
		data["nivel_lanzamiento"] = lvl
	}

	if targetID, ok := findTarget(text, scene); ok {
		data["objetivo_id"] = targetID
	}

	return &Action{Kind: KindSpell, Data: data, Confidence: confidence, Missing: missing, Source: "patron"}
}

func (n *Normalizer) normalizeMovement(text string, scene *SceneContext) *Action {
	data := map[string]any{
		"tipo":           "movimiento",
		"actor_id":       scene.ActorID,
		"distancia_pies": nil,
		"destino":        nil,
	}
	var missing []string
	confidence := 0.7

	switch {
	case feetPattern.MatchString(text):
		m := feetPattern.FindStringSubmatch(text)
		ft, _ := strconv.Atoi(m[1])
		data["distancia_pies"] = ft
	case metersPattern.MatchString(text):
		m := metersPattern.FindStringSubmatch(text)
		meters, _ := strconv.Atoi(m[1])
		data["distancia_pies"] = int(float64(meters) * 3.28)
	case squaresPattern.MatchString(text):
		m := squaresPattern.FindStringSubmatch(text)
		squares, _ := strconv.Atoi(m[1])
		data["distancia_pies"] = squares * 5
	default:
		missing = append(missing, "distancia_pies")
	}

	for _, pat := range destPatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			data["destino"] = m[1]
			break
		}
	}

	return &Action{Kind: KindMovement, Data: data, Confidence: confidence, Missing: missing, Source: "patron"}
}

func (n *Normalizer) normalizeSkill(text string, scene *SceneContext) *Action {
	data := map[string]any{
		"tipo":        "habilidad",
		"actor_id":    scene.ActorID,
		"habilidad":   nil,
		"objetivo_id": nil,
	}
	var missing []string
	confidence := 0.6

	skillText := foldSkillAccents(text)
	for _, skill := range rules.Skills {
		if strings.Contains(skillText, skill) {
			data["habilidad"] = skill
			confidence = 0.9
			break
		}
	}

	if data["habilidad"] == nil {
		if skill, ok := vocab.DetectSkill(text); ok {
			data["habilidad"] = skill
			confidence = 0.85
		} else {
			missing = append(missing, "habilidad")
			confidence = 0.4
		}
	}

	return &Action{Kind: KindSkill, Data: data, Confidence: confidence, Missing: missing, Source: "patron"}
}

func (n *Normalizer) normalizeGeneric(text string, scene *SceneContext) *Action {
	data := map[string]any{
		"tipo":      "accion",
		"actor_id":  scene.ActorID,
		"accion_id": nil,
	}
	var missing []string
	confidence := 0.5

	if action, ok := vocab.DetectGenericAction(text); ok {
		data["accion_id"] = action
		confidence = 0.9
	} else {
		missing = append(missing, "accion_id")
	}

	return &Action{Kind: KindGeneric, Data: data, Confidence: confidence, Missing: missing, Source: "patron"}
}

func (n *Normalizer) normalizeItem(text string, scene *SceneContext) *Action {
	data := map[string]any{
		"tipo":      "objeto",
		"actor_id":  scene.ActorID,
		"objeto_id": nil,
	}
	missing := []string{"objeto_id"}
	confidence := 0.5

	for _, obj := range n.comp.Store().Items("") {
		if strings.Contains(text, strings.ToLower(obj.Name)) || strings.Contains(text, strings.ToLower(obj.ID)) {
			data["objeto_id"] = obj.ID
			missing = nil
			confidence = 0.85
			break
		}
	}

	// "bebo una poción" with no named item defaults to the healing
	// potion when the catalogue carries it.
	if data["objeto_id"] == nil && potionPattern.MatchString(text) && n.comp.ItemExists("pocion_curacion") {
		data["objeto_id"] = "pocion_curacion"
		missing = nil
		confidence = 0.6
	}

	return &Action{Kind: KindItem, Data: data, Confidence: confidence, Missing: missing, Source: "patron"}
}

// findWeapon resolves a weapon mention: inventory names first, then
// catalogue names, then vocabulary synonyms.
func (n *Normalizer) findWeapon(text string, scene *SceneContext) (string, bool) {
	for _, w := range scene.AvailableWeapons {
		if name := strings.ToLower(w.Name); name != "" && strings.Contains(text, name) {
			return w.ID, true
		}
	}
	for _, w := range n.comp.Store().Weapons() {
		if strings.Contains(text, strings.ToLower(w.Name)) {
			return w.ID, true
		}
	}
	if id, ok := vocab.DetectWeapon(text); ok {
		return id, true
	}
	return "", false
}

// findTarget resolves an enemy mention: full names, then significant
// name words, then catalogue references.
func findTarget(text string, scene *SceneContext) (string, bool) {
	for _, e := range scene.LivingEnemies {
		if name := strings.ToLower(e.Name); name != "" && strings.Contains(text, name) {
			return e.InstanceID, true
		}
	}
	for _, e := range scene.LivingEnemies {
		for _, word := range strings.Fields(strings.ToLower(e.Name)) {
			if len([]rune(word)) > 3 && strings.Contains(text, word) {
				return e.InstanceID, true
			}
		}
	}
	for _, e := range scene.LivingEnemies {
		if ref := strings.ToLower(e.CompendiumRef); ref != "" && strings.Contains(text, ref) {
			return e.InstanceID, true
		}
	}
	return "", false
}

// findSpell resolves a spell mention: the actor's known spells first,
// then catalogue names (also in slug form).
func (n *Normalizer) findSpell(text string, scene *SceneContext) (string, bool) {
	for _, sp := range scene.KnownSpells {
		if name := strings.ToLower(sp.Name); name != "" && strings.Contains(text, name) {
			return sp.ID, true
		}
	}
	for _, sp := range n.comp.Store().Spells(compendium.SpellFilter{}) {
		name := strings.ToLower(sp.Name)
		if strings.Contains(text, name) || strings.Contains(text, strings.ReplaceAll(name, " ", "_")) {
			return sp.ID, true
		}
	}
	return "", false
}

var skillAccentFolds = strings.NewReplacer(
	"percepción", "percepcion",
	"religión", "religion",
	"persuasión", "persuasion",
	"intimidación", "intimidacion",
	"investigación", "investigacion",
	"interpretación", "interpretacion",
)

func foldSkillAccents(text string) string {
	return skillAccentFolds.Replace(strings.ToLower(text))
}

// resolveAmbiguities fills fields the text left open when the scene
// only allows one answer: single living enemy, equipped main weapon,
// a spell's own level. Each inference is recorded as an advisory.
func (n *Normalizer) resolveAmbiguities(a *Action, scene *SceneContext) {
	if hasMissing(a, "objetivo_id") {
		switch len(scene.LivingEnemies) {
		case 1:
			enemy := scene.LivingEnemies[0]
			a.Data["objetivo_id"] = enemy.InstanceID
			removeMissing(a, "objetivo_id")
			a.Advisories = append(a.Advisories, fmt.Sprintf("Objetivo inferido: %s", enemy.Name))
			a.Confidence = capConfidence(a.Confidence + 0.1)
		default:
			if len(scene.LivingEnemies) > 1 {
				names := make([]string, len(scene.LivingEnemies))
				for i, e := range scene.LivingEnemies {
					names[i] = e.Name
				}
				a.Advisories = append(a.Advisories, fmt.Sprintf("Múltiples objetivos: %s", strings.Join(names, ", ")))
			}
		}
	}

	if a.Kind == KindAttack && hasMissing(a, "arma_id") && scene.MainWeapon != nil {
		a.Data["arma_id"] = scene.MainWeapon.ID
		removeMissing(a, "arma_id")
		name := scene.MainWeapon.Name
		if name == "" {
			name = scene.MainWeapon.ID
		}
		a.Advisories = append(a.Advisories, fmt.Sprintf("Arma inferida: %s", name))
		a.Confidence = capConfidence(a.Confidence + 0.1)
	}

	if a.Kind == KindSpell && a.Data["nivel_lanzamiento"] == nil {
		if spellID, ok := a.Data["conjuro_id"].(string); ok && spellID != "" {
			if sp, ok := n.comp.Store().Spell(spellID); ok {
				a.Data["nivel_lanzamiento"] = sp.Level
			}
		}
	}
}

// llmFallback asks the LLM to fill the remaining fields, merging any
// non-nil answers. Confidence is raised but capped below pattern-level
// certainty.
func (n *Normalizer) llmFallback(a *Action, originalText string, scene *SceneContext) {
	var equipped []map[string]any
	for _, w := range []*WeaponRef{scene.MainWeapon, scene.OffhandWeapon} {
		if w != nil {
			equipped = append(equipped, map[string]any{"id": w.ID, "nombre": w.Name})
		}
	}
	var enemies []map[string]any
	for _, e := range scene.LivingEnemies {
		enemies = append(enemies, map[string]any{"id": e.InstanceID, "nombre": e.Name})
	}

	llmContext := map[string]any{
		"texto_jugador":   originalText,
		"tipo_detectado":  string(a.Kind),
		"datos_parciales": a.Data,
		"faltantes":       a.Missing,
		"armas_equipadas": equipped,
		"enemigos_vivos":  enemies,
	}

	prompt := fmt.Sprintf(`Completa los campos faltantes de esta acción:
Texto: %q
Tipo: %s
Faltantes: %v
Responde SOLO con JSON.`, originalText, a.Kind, a.Missing)

	response, err := n.llm(prompt, llmContext)
	if err != nil {
		a.Advisories = append(a.Advisories, fmt.Sprintf("Error LLM: %v", err))
		return
	}
	for key, value := range response {
		if value == nil {
			continue
		}
		a.Data[key] = value
		removeMissing(a, key)
	}
	a.Source = "llm"
	a.Confidence = min(a.Confidence+0.15, 0.9)
}

// canonize applies per-kind defaults and decides whether a missing
// field is critical enough to require clarification.
func canonize(a *Action) {
	switch a.Kind {
	case KindAttack:
		setDefault(a.Data, "subtipo", "melee")
		setDefault(a.Data, "modo", "normal")
	case KindSpell:
		setDefault(a.Data, "nivel_lanzamiento", 1)
	case KindMovement:
		setDefault(a.Data, "distancia_pies", 0)
	}

	criticalFields := map[Kind][]string{
		KindAttack:   {"objetivo_id"},
		KindSpell:    {"conjuro_id"},
		KindMovement: {},
		KindSkill:    {"habilidad"},
		KindGeneric:  {"accion_id"},
		KindItem:     {"objeto_id"},
	}

	critical := criticalFields[a.Kind]
	a.NeedsClarification = false
	for _, f := range a.Missing {
		for _, c := range critical {
			if f == c {
				a.NeedsClarification = true
				return
			}
		}
	}
	if a.Kind == KindUnknown {
		a.NeedsClarification = true
	}
}

func setDefault(data map[string]any, key string, value any) {
	if v, ok := data[key]; !ok || v == nil {
		data[key] = value
	}
}

func hasMissing(a *Action, field string) bool {
	for _, f := range a.Missing {
		if f == field {
			return true
		}
	}
	return false
}

func removeMissing(a *Action, field string) {
	out := a.Missing[:0]
	for _, f := range a.Missing {
		if f != field {
			out = append(out, f)
		}
	}
	a.Missing = out
}

func capConfidence(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
