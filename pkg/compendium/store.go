package compendium

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
)

// Catalogue file names (without the .json extension).
const (
	fileMonsters = "monstruos"
	fileWeapons  = "armas"
	fileArmors   = "armaduras_escudos"
	fileSpells   = "conjuros"
	fileItems    = "miscelanea"
)

type monstersFile struct {
	Monsters []Monster `json:"monstruos"`
}

type weaponsFile struct {
	Weapons []Weapon `json:"armas"`
}

type armorsFile struct {
	Armors  []Armor  `json:"armaduras"`
	Shields []Shield `json:"escudos"`
}

type spellsFile struct {
	Spells []Spell `json:"conjuros"`
}

type itemsFile struct {
	Items []Item `json:"objetos"`
}

// Store reads catalogue files from a base directory, caching each file
// after its first load. Watch invalidates the cache when a file
// changes on disk, so a running session picks up catalogue edits.
type Store struct {
	baseDir string

	mu    sync.RWMutex
	cache map[string]any
}

// NewStore creates a catalogue store over baseDir.
func NewStore(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		cache:   make(map[string]any),
	}
}

// BaseDir returns the directory the store reads from.
func (s *Store) BaseDir() string { return s.baseDir }

// Invalidate drops every cached file so the next access re-reads disk.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]any)
	s.mu.Unlock()
}

// Watch invalidates the cache whenever a catalogue .json file changes.
// It blocks until ctx is cancelled or the watcher fails.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalogue watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.baseDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.baseDir, err)
	}

	log := logger.GetLogger("compendium")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				log.Debug("Catalogue file changed, dropping cache", "file", event.Name)
				s.Invalidate()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Catalogue watcher error", "error", err)
		}
	}
}

// load decodes the named catalogue file into T, serving repeat calls
// from the cache.
func load[T any](s *Store, name string) (*T, error) {
	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached.(*T), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached.(*T), nil
	}

	path := filepath.Join(s.baseDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue file %s: %w", path, err)
	}

	decoded := new(T)
	if err := json.Unmarshal(data, decoded); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue file %s: %w", path, err)
	}

	s.cache[name] = decoded
	return decoded, nil
}

// Monster looks up a stat block by ID.
func (s *Store) Monster(id string) (Monster, bool) {
	f, err := load[monstersFile](s, fileMonsters)
	if err != nil {
		return Monster{}, false
	}
	for _, m := range f.Monsters {
		if m.ID == id {
			return m, true
		}
	}
	return Monster{}, false
}

// Monsters lists every stat block in the catalogue.
func (s *Store) Monsters() []Monster {
	f, err := load[monstersFile](s, fileMonsters)
	if err != nil {
		return nil
	}
	return f.Monsters
}

// Weapon looks up a weapon by ID.
func (s *Store) Weapon(id string) (Weapon, bool) {
	f, err := load[weaponsFile](s, fileWeapons)
	if err != nil {
		return Weapon{}, false
	}
	for _, w := range f.Weapons {
		if w.ID == id {
			return w, true
		}
	}
	return Weapon{}, false
}

// Weapons lists every weapon in the catalogue.
func (s *Store) Weapons() []Weapon {
	f, err := load[weaponsFile](s, fileWeapons)
	if err != nil {
		return nil
	}
	return f.Weapons
}

// Armor looks up an armour entry by ID.
func (s *Store) Armor(id string) (Armor, bool) {
	f, err := load[armorsFile](s, fileArmors)
	if err != nil {
		return Armor{}, false
	}
	for _, a := range f.Armors {
		if a.ID == id {
			return a, true
		}
	}
	return Armor{}, false
}

// Armors lists every armour entry in the catalogue.
func (s *Store) Armors() []Armor {
	f, err := load[armorsFile](s, fileArmors)
	if err != nil {
		return nil
	}
	return f.Armors
}

// Shield looks up a shield by ID.
func (s *Store) Shield(id string) (Shield, bool) {
	f, err := load[armorsFile](s, fileArmors)
	if err != nil {
		return Shield{}, false
	}
	for _, sh := range f.Shields {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shield{}, false
}

// Spell looks up a spell by ID.
func (s *Store) Spell(id string) (Spell, bool) {
	f, err := load[spellsFile](s, fileSpells)
	if err != nil {
		return Spell{}, false
	}
	for _, sp := range f.Spells {
		if sp.ID == id {
			return sp, true
		}
	}
	return Spell{}, false
}

// SpellFilter narrows a spell listing. A nil Level matches any level;
// an empty Class matches any class list.
type SpellFilter struct {
	Level *int
	Class string
}

// Spells lists spells matching the filter.
func (s *Store) Spells(filter SpellFilter) []Spell {
	f, err := load[spellsFile](s, fileSpells)
	if err != nil {
		return nil
	}
	var out []Spell
	for _, sp := range f.Spells {
		if filter.Level != nil && sp.Level != *filter.Level {
			continue
		}
		if filter.Class != "" && !containsString(sp.Classes, filter.Class) {
			continue
		}
		out = append(out, sp)
	}
	return out
}

// Item looks up a miscellaneous item by ID.
func (s *Store) Item(id string) (Item, bool) {
	f, err := load[itemsFile](s, fileItems)
	if err != nil {
		return Item{}, false
	}
	for _, it := range f.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Items lists miscellaneous items, optionally filtered by category.
func (s *Store) Items(category string) []Item {
	f, err := load[itemsFile](s, fileItems)
	if err != nil {
		return nil
	}
	if category == "" {
		return f.Items
	}
	var out []Item
	for _, it := range f.Items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Search scans every category for entries whose name contains the
// term, case-insensitively.
func (s *Store) Search(term string) SearchResults {
	term = strings.ToLower(term)
	var results SearchResults

	for _, m := range s.Monsters() {
		if strings.Contains(strings.ToLower(m.Name), term) {
			results.Monsters = append(results.Monsters, m)
		}
	}
	for _, w := range s.Weapons() {
		if strings.Contains(strings.ToLower(w.Name), term) {
			results.Weapons = append(results.Weapons, w)
		}
	}
	for _, a := range s.Armors() {
		if strings.Contains(strings.ToLower(a.Name), term) {
			results.Armors = append(results.Armors, a)
		}
	}
	for _, sp := range s.Spells(SpellFilter{}) {
		if strings.Contains(strings.ToLower(sp.Name), term) {
			results.Spells = append(results.Spells, sp)
		}
	}
	for _, it := range s.Items("") {
		if strings.Contains(strings.ToLower(it.Name), term) {
			results.Items = append(results.Items, it)
		}
	}
	return results
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
