package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
)

// CreateCmd builds a character from flags and saves it. Ability
// scores default to the standard array laid over the class's prime
// requisites in flag order.
type CreateCmd struct {
	Name       string `name:"nombre" required:"" help:"Character name."`
	Race       string `name:"raza" default:"humano" help:"Race ID (humano, elfo, enano, mediano)."`
	Class      string `name:"clase" default:"guerrero" help:"Class ID (guerrero, mago, picaro, clerigo)."`
	Background string `name:"trasfondo" default:"soldado" help:"Background ID."`
	Level      int    `name:"nivel" default:"1" help:"Starting level."`
	Abilities  string `name:"caracteristicas" help:"Six comma-separated scores ordered fue,des,con,int,sab,car."`
}

// standardArray in the conventional strongest-first order.
var standardArray = []int{15, 14, 13, 12, 10, 8}

var abilityOrder = []string{"fuerza", "destreza", "constitucion", "inteligencia", "sabiduria", "carisma"}

func (c *CreateCmd) Run(cfg *config.Config) error {
	if c.Level < 1 || c.Level > 20 {
		return fmt.Errorf("nivel fuera de rango: %d", c.Level)
	}

	data, store, _, err := openGameData(cfg)
	if err != nil {
		return err
	}

	base, err := c.abilityScores()
	if err != nil {
		return err
	}

	sheet := &character.Sheet{
		ID: character.NewID(),
		Info: character.BasicInfo{
			Name:       c.Name,
			Race:       strings.ToLower(c.Race),
			Class:      strings.ToLower(c.Class),
			Background: strings.ToLower(c.Background),
			Level:      c.Level,
		},
		Abilities: character.ApplyRaceBonuses(base, data, strings.ToLower(c.Race), nil),
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	if class, ok := data.Classes[sheet.Info.Class]; ok {
		sheet.Proficiencies.Saves = class.Saves
	}
	character.Recompute(sheet, data)

	id, err := store.Save(sheet)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Personaje creado: %s (%s)\n", sheet.Info.Name, id)
	fmt.Printf("   %s %s nivel %d — HP %d, CA %d\n",
		sheet.Info.Race, sheet.Info.Class, sheet.Info.Level,
		sheet.Derived.MaxHP, sheet.Derived.ArmorClass)
	for _, ab := range abilityOrder {
		fmt.Printf("   %-13s %2d (%+d)\n", ab, sheet.Abilities[ab], sheet.Derived.Modifiers[ab])
	}
	return nil
}

func (c *CreateCmd) abilityScores() (map[string]int, error) {
	scores := standardArray
	if c.Abilities != "" {
		parts := strings.Split(c.Abilities, ",")
		if len(parts) != 6 {
			return nil, fmt.Errorf("caracteristicas requiere 6 valores, hay %d", len(parts))
		}
		scores = make([]int, 6)
		for i, p := range parts {
			if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &scores[i]); err != nil {
				return nil, fmt.Errorf("característica inválida %q", p)
			}
			if scores[i] < 3 || scores[i] > 18 {
				return nil, fmt.Errorf("característica fuera de rango: %d", scores[i])
			}
		}
	}

	out := make(map[string]int, 6)
	for i, ab := range abilityOrder {
		out[ab] = scores[i]
	}
	return out, nil
}
