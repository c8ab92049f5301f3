package main

import (
	"encoding/json"
	"fmt"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/config"
)

// CharactersCmd lists saved characters, shows one as JSON, or
// deletes one.
type CharactersCmd struct {
	Show   string `name:"ver" help:"Print a character sheet as JSON."`
	Delete string `name:"borrar" help:"Delete a character by ID."`
}

func (c *CharactersCmd) Run(cfg *config.Config) error {
	_, store, _, err := openGameData(cfg)
	if err != nil {
		return err
	}

	switch {
	case c.Show != "":
		sheet, err := store.Load(c.Show)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(sheet, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil

	case c.Delete != "":
		ok, err := store.Delete(c.Delete)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no existe el personaje %q", c.Delete)
		}
		fmt.Printf("🗑 Personaje %s borrado\n", c.Delete)
		return nil
	}

	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No hay personajes. Crea uno con `dnd5e create --nombre ...`")
		return nil
	}
	fmt.Printf("%-14s %-16s %-10s %-10s %5s\n", "ID", "NOMBRE", "RAZA", "CLASE", "NIVEL")
	for _, e := range entries {
		fmt.Printf("%-14s %-16s %-10s %-10s %5d\n", e.ID, e.Name, e.Race, e.Class, e.Level)
	}
	return nil
}
