package bible

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/storage"
)

const (
	fullFile  = "adventure_bible_full.json"
	patchFile = "adventure_patch.json"
)

// Manager persists adventure bibles and their patch logs under
// <saves>/aventuras/<pjID>/. The full bible on disk is the canonical
// document; every change goes through ApplyPatch so the log stays a
// faithful audit trail.
type Manager struct {
	root string
}

// NewManager creates a manager rooted at savesDir. The aventuras
// subdirectory is created lazily on first write.
func NewManager(savesDir string) *Manager {
	return &Manager{root: filepath.Join(savesDir, "aventuras")}
}

func (m *Manager) adventureDir(pjID string) string {
	return filepath.Join(m.root, pjID)
}

// SaveFull writes the complete bible, spoilers included.
func (m *Manager) SaveFull(pjID string, b *Bible) error {
	dir := m.adventureDir(pjID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creando directorio de aventura: %w", err)
	}
	return storage.SaveJSON(filepath.Join(dir, fullFile), b)
}

// LoadFull reads the complete bible for a character.
func (m *Manager) LoadFull(pjID string) (*Bible, error) {
	var b Bible
	if err := storage.LoadJSON(filepath.Join(m.adventureDir(pjID), fullFile), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Exists reports whether a bible has been generated for the
// character.
func (m *Manager) Exists(pjID string) bool {
	return storage.Exists(filepath.Join(m.adventureDir(pjID), fullFile))
}

// LoadView loads the bible and returns its spoiler-filtered DM view.
func (m *Manager) LoadView(pjID string) (DMView, error) {
	b, err := m.LoadFull(pjID)
	if err != nil {
		return DMView{}, err
	}
	return View(b), nil
}

// PatchKind names the four edit operations the patch log records.
type PatchKind string

const (
	PatchAppend    PatchKind = "append"
	PatchReplace   PatchKind = "replace"
	PatchTombstone PatchKind = "tombstone"
	PatchMerge     PatchKind = "merge"
)

// PatchEntry is one audited change to the bible.
type PatchEntry struct {
	Turn      int       `json:"turno"`
	Timestamp string    `json:"timestamp"`
	Kind      PatchKind `json:"tipo"`
	Path      string    `json:"path"`
	Previous  any       `json:"valor_anterior"`
	Value     any       `json:"valor_nuevo"`
	Reason    string    `json:"razon"`
}

// PatchPolicy declares which paths accept which operations. It is
// advisory: the DM model reads it, ApplyPatch does not enforce it.
type PatchPolicy struct {
	AppendOnly []string `json:"append_only"`
	Replace    []string `json:"replace"`
	Tombstone  []string `json:"tombstone"`
}

// ChangeSummary aggregates the notable changes so the DM does not
// have to replay the whole log.
type ChangeSummary struct {
	DeadNPCs            []string `json:"pnj_muertos"`
	DiscoveredReveals   []string `json:"revelaciones_descubiertas"`
	CompletedSideQuests []string `json:"side_quests_completadas"`
	CompletedClocks     []string `json:"relojes_completados"`
	MainQuestChanges    []string `json:"cambios_main_quest"`
}

// PatchLog is the on-disk audit document next to the full bible.
type PatchLog struct {
	Version     int           `json:"version"`
	BibleID     string        `json:"bible_id"`
	Created     string        `json:"created"`
	LastUpdated string        `json:"last_updated"`
	Policy      PatchPolicy   `json:"patch_policy"`
	Patches     []PatchEntry  `json:"patches"`
	Summary     ChangeSummary `json:"resumen_cambios"`
}

func newPatchLog() *PatchLog {
	now := time.Now().Format(time.RFC3339)
	return &PatchLog{
		Version:     1,
		Created:     now,
		LastUpdated: now,
		Policy: PatchPolicy{
			AppendOnly: []string{"revelaciones", "pnj_clave.interacciones", "canon_activo"},
			Replace:    []string{"main_quest.estado", "actos.estado", "relojes.segmentos_actual"},
			Tombstone:  []string{"pnj_clave", "side_quests", "relojes"},
		},
		Patches: []PatchEntry{},
		Summary: ChangeSummary{
			DeadNPCs:            []string{},
			DiscoveredReveals:   []string{},
			CompletedSideQuests: []string{},
			CompletedClocks:     []string{},
			MainQuestChanges:    []string{},
		},
	}
}

// LoadPatches reads the patch log, returning a fresh one when none
// exists yet.
func (m *Manager) LoadPatches(pjID string) (*PatchLog, error) {
	path := filepath.Join(m.adventureDir(pjID), patchFile)
	if !storage.Exists(path) {
		return newPatchLog(), nil
	}
	var log PatchLog
	if err := storage.LoadJSON(path, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// SavePatches writes the patch log, stamping last_updated.
func (m *Manager) SavePatches(pjID string, log *PatchLog) error {
	dir := m.adventureDir(pjID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creando directorio de aventura: %w", err)
	}
	log.LastUpdated = time.Now().Format(time.RFC3339)
	return storage.SaveJSON(filepath.Join(dir, patchFile), log)
}

// ApplyPatch edits the stored bible at a dotted path and records the
// change. Paths walk objects by key and arrays by numeric index, e.g.
// "pnj_clave.0.estado" or "relojes.1.segmentos_actual". The edit runs
// on the raw JSON document so patches survive fields the typed view
// does not model.
func (m *Manager) ApplyPatch(pjID string, turn int, kind PatchKind, path string, value any, reason string) error {
	raw, err := m.loadRaw(pjID)
	if err != nil {
		return err
	}
	log, err := m.LoadPatches(pjID)
	if err != nil {
		return err
	}

	previous := valueAtPath(raw, path)

	switch kind {
	case PatchAppend:
		err = applyAppend(raw, path, value)
	case PatchReplace:
		err = setValueAtPath(raw, path, value)
	case PatchTombstone:
		err = applyTombstone(raw, path, value)
	case PatchMerge:
		err = applyMerge(raw, path, value)
	default:
		err = fmt.Errorf("tipo de patch desconocido: %q", kind)
	}
	if err != nil {
		return fmt.Errorf("aplicando patch %s en %s: %w", kind, path, err)
	}

	if log.BibleID == "" {
		if meta, ok := raw["meta"].(map[string]any); ok {
			log.BibleID, _ = meta["id"].(string)
		}
	}
	log.Patches = append(log.Patches, PatchEntry{
		Turn:      turn,
		Timestamp: time.Now().Format(time.RFC3339),
		Kind:      kind,
		Path:      path,
		Previous:  previous,
		Value:     value,
		Reason:    reason,
	})
	updateSummary(&log.Summary, kind, path, value)

	if err := m.saveRaw(pjID, raw); err != nil {
		return err
	}
	return m.SavePatches(pjID, log)
}

func (m *Manager) loadRaw(pjID string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Join(m.adventureDir(pjID), fullFile))
	if err != nil {
		return nil, fmt.Errorf("cargando bible: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bible corrupta: %w", err)
	}
	return raw, nil
}

func (m *Manager) saveRaw(pjID string, raw map[string]any) error {
	return storage.SaveJSON(filepath.Join(m.adventureDir(pjID), fullFile), raw)
}

// valueAtPath walks the document and returns a deep copy of the value
// at path, or nil when the path does not resolve.
func valueAtPath(doc any, path string) any {
	node, ok := resolve(doc, strings.Split(path, "."))
	if !ok {
		return nil
	}
	return deepCopy(node)
}

func resolve(node any, parts []string) (any, bool) {
	for _, part := range parts {
		switch v := node.(type) {
		case map[string]any:
			child, ok := v[part]
			if !ok {
				return nil, false
			}
			node = child
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			node = v[idx]
		default:
			return nil, false
		}
	}
	return node, true
}

// setValueAtPath writes value at path, creating intermediate objects
// for missing keys. Array hops must already exist.
func setValueAtPath(doc map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	var node any = doc
	for _, part := range parts[:len(parts)-1] {
		switch v := node.(type) {
		case map[string]any:
			child, ok := v[part]
			if !ok {
				child = map[string]any{}
				v[part] = child
			}
			node = child
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return fmt.Errorf("índice de lista inválido %q", part)
			}
			node = v[idx]
		default:
			return fmt.Errorf("no se puede descender por %q", part)
		}
	}
	last := parts[len(parts)-1]
	switch v := node.(type) {
	case map[string]any:
		v[last] = value
		return nil
	case []any:
		idx, err := strconv.Atoi(last)
		if err != nil || idx < 0 || idx >= len(v) {
			return fmt.Errorf("índice de lista inválido %q", last)
		}
		v[idx] = value
		return nil
	default:
		return fmt.Errorf("la ruta %q no termina en un contenedor", path)
	}
}

func applyAppend(doc map[string]any, path string, value any) error {
	current, ok := resolve(doc, strings.Split(path, "."))
	if !ok {
		return fmt.Errorf("ruta no encontrada")
	}
	list, ok := current.([]any)
	if !ok {
		return fmt.Errorf("el destino no es una lista")
	}
	return setValueAtPath(doc, path, append(list, value))
}

func applyTombstone(doc map[string]any, path string, value any) error {
	current, ok := resolve(doc, strings.Split(path, "."))
	if !ok {
		return fmt.Errorf("ruta no encontrada")
	}
	obj, ok := current.(map[string]any)
	if !ok {
		return fmt.Errorf("el destino no es un objeto")
	}
	obj["_tombstone"] = true
	obj["_tombstone_fecha"] = time.Now().Format(time.RFC3339)
	if extra, ok := value.(map[string]any); ok {
		for k, v := range extra {
			obj[k] = v
		}
	}
	return nil
}

func applyMerge(doc map[string]any, path string, value any) error {
	update, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("el valor de merge no es un objeto")
	}
	current, found := resolve(doc, strings.Split(path, "."))
	if !found {
		return fmt.Errorf("ruta no encontrada")
	}
	obj, ok := current.(map[string]any)
	if !ok {
		return fmt.Errorf("el destino no es un objeto")
	}
	deepMerge(obj, update)
	return nil
}

func deepMerge(base, update map[string]any) {
	for k, v := range update {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := base[k].(map[string]any); ok {
				deepMerge(existing, sub)
				continue
			}
		}
		base[k] = v
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}

func updateSummary(s *ChangeSummary, kind PatchKind, path string, value any) {
	if strings.Contains(path, "pnj_clave") && kind == PatchTombstone {
		if obj, ok := value.(map[string]any); ok && obj["estado"] == "muerto" {
			parts := strings.Split(path, ".")
			name := parts[len(parts)-1]
			if !contains(s.DeadNPCs, name) {
				s.DeadNPCs = append(s.DeadNPCs, name)
			}
		}
	}
	if strings.Contains(path, "revelaciones") && strings.Contains(fmt.Sprint(value), "descubierta") {
		parts := strings.Split(path, ".")
		id := "unknown"
		if len(parts) > 1 {
			id = parts[1]
		}
		if !contains(s.DiscoveredReveals, id) {
			s.DiscoveredReveals = append(s.DiscoveredReveals, id)
		}
	}
	if strings.Contains(path, "main_quest.estado") {
		s.MainQuestChanges = append(s.MainQuestChanges, fmt.Sprintf("Cambio a %v", value))
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
