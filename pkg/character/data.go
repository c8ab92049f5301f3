package character

import (
	"fmt"
	"path/filepath"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/storage"
)

// Race is one entry of razas.json.
type Race struct {
	Name        string         `json:"nombre"`
	Description string         `json:"descripcion,omitempty"`
	Speed       int            `json:"velocidad"`
	Bonuses     map[string]int `json:"bonificadores,omitempty"`
	Traits      []Trait        `json:"rasgos,omitempty"`
}

// Class is one entry of clases.json.
type Class struct {
	Name          string              `json:"nombre"`
	Description   string              `json:"descripcion,omitempty"`
	HitDie        string              `json:"dado_golpe"`
	HPLevel1      int                 `json:"hp_nivel_1"`
	Saves         []string            `json:"salvaciones,omitempty"`
	Proficiencies map[string][]string `json:"competencias,omitempty"`
	Level1Traits  []Trait             `json:"rasgos_nivel_1,omitempty"`
}

// Background is one entry of trasfondos.json.
type Background struct {
	Name        string   `json:"nombre"`
	Description string   `json:"descripcion,omitempty"`
	Skills      []string `json:"competencias_habilidades,omitempty"`
	Tools       []string `json:"competencias_herramientas,omitempty"`
	ExtraLangs  int      `json:"idiomas_extra,omitempty"`
}

// Data is the static reference data for character building: races,
// classes and backgrounds keyed by ID. The zero value answers every
// lookup with defaults, so callers without data files still work.
type Data struct {
	Races       map[string]Race
	Classes     map[string]Class
	Backgrounds map[string]Background
}

// LoadData reads razas.json, clases.json and trasfondos.json from dir.
func LoadData(dir string) (*Data, error) {
	d := &Data{}

	if err := storage.LoadJSON(filepath.Join(dir, "razas.json"), &d.Races); err != nil {
		return nil, fmt.Errorf("loading races: %w", err)
	}
	if err := storage.LoadJSON(filepath.Join(dir, "clases.json"), &d.Classes); err != nil {
		return nil, fmt.Errorf("loading classes: %w", err)
	}
	if err := storage.LoadJSON(filepath.Join(dir, "trasfondos.json"), &d.Backgrounds); err != nil {
		return nil, fmt.Errorf("loading backgrounds: %w", err)
	}
	return d, nil
}

// fallback hit dice for the core classes, used when no class data is
// loaded or the class is unknown.
var fallbackHitDie = map[string]string{
	"barbaro":    "d12",
	"guerrero":   "d10",
	"paladin":    "d10",
	"explorador": "d10",
	"bardo":      "d8",
	"brujo":      "d8",
	"clerigo":    "d8",
	"druida":     "d8",
	"monje":      "d8",
	"picaro":     "d8",
	"hechicero":  "d6",
	"mago":       "d6",
}

// HitDie returns the hit die of a class, e.g. "d10".
func (d *Data) HitDie(classID string) string {
	if d != nil {
		if c, ok := d.Classes[classID]; ok && c.HitDie != "" {
			return c.HitDie
		}
	}
	if die, ok := fallbackHitDie[classID]; ok {
		return die
	}
	return "d8"
}

// HPLevel1 returns the level-1 hit points of a class, which are the
// maximum of its hit die.
func (d *Data) HPLevel1(classID string) int {
	if d != nil {
		if c, ok := d.Classes[classID]; ok && c.HPLevel1 > 0 {
			return c.HPLevel1
		}
	}
	return dieFaces(d.HitDie(classID))
}

// Speed returns the base speed of a race in feet.
func (d *Data) Speed(raceID string) int {
	if d != nil {
		if r, ok := d.Races[raceID]; ok && r.Speed > 0 {
			return r.Speed
		}
	}
	return 30
}

// RaceBonuses returns the fixed ability bonuses of a race.
func (d *Data) RaceBonuses(raceID string) map[string]int {
	if d == nil {
		return nil
	}
	if r, ok := d.Races[raceID]; ok {
		return r.Bonuses
	}
	return nil
}

// dieFaces parses "d10" into 10; malformed dice fall back to 8.
func dieFaces(die string) int {
	var n int
	if _, err := fmt.Sscanf(die, "d%d", &n); err != nil || n <= 0 {
		return 8
	}
	return n
}
