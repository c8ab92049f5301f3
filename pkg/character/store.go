package character

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/storage"
)

// Store persists sheets and creation autosaves as plain JSON files in
// two sibling directories under its base path.
type Store struct {
	base string
	data *Data
}

// NewStore builds a store rooted at base. The reference data may be
// nil; loaded sheets then recompute with defaults.
func NewStore(base string, data *Data) *Store {
	return &Store{base: base, data: data}
}

func (st *Store) charactersDir() string { return filepath.Join(st.base, "characters") }
func (st *Store) autosaveDir() string   { return filepath.Join(st.base, "autosave") }

func (st *Store) characterPath(id string) string {
	return filepath.Join(st.charactersDir(), id+".json")
}

func (st *Store) autosavePath(id string) string {
	return filepath.Join(st.autosaveDir(), id+".json")
}

// NewID generates an 8-character character ID.
func NewID() string {
	return uuid.NewString()[:8]
}

// Save writes a sheet, assigning an ID on first save, refreshing the
// timestamps, and clearing any matching creation autosave.
func (st *Store) Save(s *Sheet) (string, error) {
	if s.ID == "" {
		s.ID = NewID()
	}
	s.Touch(time.Now())

	if err := storage.SaveJSON(st.characterPath(s.ID), s); err != nil {
		return "", fmt.Errorf("saving character %s: %w", s.ID, err)
	}
	if _, err := storage.Remove(st.autosavePath(s.ID)); err != nil {
		return "", fmt.Errorf("clearing autosave %s: %w", s.ID, err)
	}
	return s.ID, nil
}

// Load reads a sheet by ID and recomputes its derived block.
func (st *Store) Load(id string) (*Sheet, error) {
	var s Sheet
	if err := storage.LoadJSON(st.characterPath(id), &s); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("personaje %q no encontrado", id)
		}
		return nil, err
	}
	Recompute(&s, st.data)
	return &s, nil
}

// Exists reports whether a saved sheet with the given ID exists.
func (st *Store) Exists(id string) bool {
	return storage.Exists(st.characterPath(id))
}

// Delete removes a saved sheet. It reports whether one existed.
func (st *Store) Delete(id string) (bool, error) {
	return storage.Remove(st.characterPath(id))
}

// ListEntry is the summary row for saved-character listings.
type ListEntry struct {
	ID         string `json:"id"`
	Name       string `json:"nombre"`
	Race       string `json:"raza"`
	Class      string `json:"clase"`
	Level      int    `json:"nivel"`
	ModifiedAt string `json:"fecha_modificacion"`
}

// List returns all saved sheets, most recently modified first.
// Unreadable files are skipped.
func (st *Store) List() ([]ListEntry, error) {
	ids, err := storage.ListIDs(st.charactersDir())
	if err != nil {
		return nil, err
	}

	entries := make([]ListEntry, 0, len(ids))
	for _, id := range ids {
		var s Sheet
		if err := storage.LoadJSON(st.characterPath(id), &s); err != nil {
			continue
		}
		if s.ID == "" {
			s.ID = id
		}
		entries = append(entries, ListEntry{
			ID:         s.ID,
			Name:       s.Info.Name,
			Race:       s.Info.Race,
			Class:      s.Info.Class,
			Level:      s.Info.Level,
			ModifiedAt: s.ModifiedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModifiedAt > entries[j].ModifiedAt
	})
	return entries, nil
}

// Autosave is the mid-creation snapshot: the partial sheet plus the
// wizard position, so creation can resume where it stopped.
type Autosave struct {
	Sheet          *Sheet   `json:"pj"`
	CurrentStep    string   `json:"paso_actual"`
	CompletedSteps []string `json:"pasos_completados"`
	Timestamp      string   `json:"fecha"`
}

// SaveAutosave stores the creation progress for a partial sheet,
// assigning an ID if needed.
func (st *Store) SaveAutosave(s *Sheet, currentStep string, completed []string) (string, error) {
	if s.ID == "" {
		s.ID = NewID()
	}
	auto := Autosave{
		Sheet:          s,
		CurrentStep:    currentStep,
		CompletedSteps: completed,
		Timestamp:      time.Now().Format(time.RFC3339),
	}
	if err := storage.SaveJSON(st.autosavePath(s.ID), auto); err != nil {
		return "", fmt.Errorf("saving autosave %s: %w", s.ID, err)
	}
	return s.ID, nil
}

// LoadAutosave reads a pending creation autosave by ID.
func (st *Store) LoadAutosave(id string) (*Autosave, error) {
	var auto Autosave
	if err := storage.LoadJSON(st.autosavePath(id), &auto); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("autosave %q no encontrado", id)
		}
		return nil, err
	}
	return &auto, nil
}

// ListAutosaves returns all pending autosaves, most recent first.
func (st *Store) ListAutosaves() ([]Autosave, error) {
	ids, err := storage.ListIDs(st.autosaveDir())
	if err != nil {
		return nil, err
	}

	autos := make([]Autosave, 0, len(ids))
	for _, id := range ids {
		var auto Autosave
		if err := storage.LoadJSON(st.autosavePath(id), &auto); err != nil {
			continue
		}
		autos = append(autos, auto)
	}
	sort.Slice(autos, func(i, j int) bool {
		return autos[i].Timestamp > autos[j].Timestamp
	})
	return autos, nil
}

// DeleteAutosave removes a pending autosave.
func (st *Store) DeleteAutosave(id string) (bool, error) {
	return storage.Remove(st.autosavePath(id))
}
