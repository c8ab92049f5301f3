package tools

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/vocab"
)

// ModifyHP heals or damages the PC, clamped to [0, max].
type ModifyHP struct{}

func (ModifyHP) Name() string { return "modificar_hp" }

func (ModifyHP) Description() string {
	return "Modifica los puntos de golpe del personaje: cantidad positiva cura, negativa daña."
}

func (ModifyHP) Parameters() []Parameter {
	return []Parameter{
		{Name: "cantidad", Type: "int", Required: true,
			Description: "Cambio de HP (negativo para daño)"},
		{Name: "motivo", Type: "string", Required: false,
			Description: "Causa del cambio"},
	}
}

func (ModifyHP) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		Amount int    `mapstructure:"cantidad"`
		Reason string `mapstructure:"motivo"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	d := &ctx.Sheet.Derived
	before := d.CurrentHP
	after := before + p.Amount
	if after < 0 {
		after = 0
	}
	if after > d.MaxHP {
		after = d.MaxHP
	}
	d.CurrentHP = after

	return Result{
		"exito":       true,
		"hp_anterior": before,
		"hp_nuevo":    after,
		"hp_maximo":   d.MaxHP,
		"cambio":      after - before,
		"motivo":      p.Reason,
		"estado":      hpState(after, d.MaxHP),
	}, nil
}

// GiveItem adds a compendium entry to the inventory: weapons as new
// instances, armour and shields into their slot, misc items stacked.
type GiveItem struct{}

func (GiveItem) Name() string { return "dar_objeto" }

func (GiveItem) Description() string {
	return "Entrega al personaje un objeto del compendio (arma, armadura u objeto)."
}

func (GiveItem) Parameters() []Parameter {
	return []Parameter{
		{Name: "objeto_id", Type: "string", Required: true,
			Description: "ID del objeto en el compendio"},
		{Name: "cantidad", Type: "int", Required: false,
			Description: "Unidades a entregar (por defecto 1)"},
	}
}

func (GiveItem) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		ItemID string `mapstructure:"objeto_id"`
		Count  int    `mapstructure:"cantidad"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Count <= 0 {
		p.Count = 1
	}
	id := vocab.Slug(p.ItemID)
	eq := &ctx.Sheet.Equipment

	if inst, ok := ctx.Compendium.NewWeaponInstance(id); ok {
		for i := 0; i < p.Count; i++ {
			w := inst
			if i > 0 {
				w, _ = ctx.Compendium.NewWeaponInstance(id)
			}
			eq.Weapons = append(eq.Weapons, character.WeaponItem{
				ID:            w.InstanceID,
				CompendiumRef: w.CompendiumRef,
				Name:          w.Name,
			})
		}
		return Result{
			"exito":   true,
			"tipo":    "arma",
			"objeto":  map[string]any{"id": id, "nombre": inst.Name, "cantidad": p.Count},
			"mensaje": fmt.Sprintf("Recibes %s", inst.Name),
		}, nil
	}

	if inst, ok := ctx.Compendium.NewArmorInstance(id); ok {
		if eq.Armor != nil {
			return Failf("Ya llevas una armadura: %s", eq.Armor.Name), nil
		}
		eq.Armor = &character.ArmorItem{
			ID:            inst.InstanceID,
			CompendiumRef: inst.CompendiumRef,
			Name:          inst.Name,
		}
		return Result{
			"exito":   true,
			"tipo":    "armadura",
			"objeto":  map[string]any{"id": id, "nombre": inst.Name},
			"mensaje": fmt.Sprintf("Recibes %s (sin equipar)", inst.Name),
		}, nil
	}

	if shield, ok := ctx.Compendium.Store().Shield(id); ok {
		if eq.Shield != nil {
			return Failf("Ya llevas un escudo: %s", eq.Shield.Name), nil
		}
		eq.Shield = &character.ArmorItem{
			ID:            uuid.NewString(),
			CompendiumRef: id,
			Name:          shield.Name,
		}
		return Result{
			"exito":   true,
			"tipo":    "escudo",
			"objeto":  map[string]any{"id": id, "nombre": shield.Name},
			"mensaje": fmt.Sprintf("Recibes %s (sin equipar)", shield.Name),
		}, nil
	}

	if entry, ok := ctx.Compendium.Store().Item(id); ok {
		for i := range eq.Items {
			if eq.Items[i].CompendiumRef == id {
				eq.Items[i].Count += p.Count
				return Result{
					"exito":   true,
					"tipo":    "misc",
					"objeto":  map[string]any{"id": id, "nombre": entry.Name, "cantidad": eq.Items[i].Count},
					"mensaje": fmt.Sprintf("Recibes %d x %s", p.Count, entry.Name),
				}, nil
			}
		}
		inst, _ := ctx.Compendium.NewItemInstance(id, p.Count)
		eq.Items = append(eq.Items, character.Item{
			ID:            inst.InstanceID,
			CompendiumRef: id,
			Name:          entry.Name,
			Count:         p.Count,
		})
		return Result{
			"exito":   true,
			"tipo":    "misc",
			"objeto":  map[string]any{"id": id, "nombre": entry.Name, "cantidad": p.Count},
			"mensaje": fmt.Sprintf("Recibes %d x %s", p.Count, entry.Name),
		}, nil
	}

	return Failf("Objeto '%s' no encontrado en el compendio", id), nil
}

// RemoveItem takes an item away, decrementing stacks before removing.
type RemoveItem struct{}

func (RemoveItem) Name() string { return "quitar_objeto" }

func (RemoveItem) Description() string {
	return "Quita del inventario un objeto por su ID de instancia o de compendio."
}

func (RemoveItem) Parameters() []Parameter {
	return []Parameter{
		{Name: "objeto_id", Type: "string", Required: true,
			Description: "ID del objeto a quitar"},
		{Name: "cantidad", Type: "int", Required: false,
			Description: "Unidades a quitar (por defecto 1)"},
	}
}

func (RemoveItem) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		ItemID string `mapstructure:"objeto_id"`
		Count  int    `mapstructure:"cantidad"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Count <= 0 {
		p.Count = 1
	}
	eq := &ctx.Sheet.Equipment

	for i := range eq.Items {
		it := &eq.Items[i]
		if it.ID != p.ItemID && it.CompendiumRef != p.ItemID {
			continue
		}
		it.Count -= p.Count
		remaining := it.Count
		name := it.Name
		if remaining <= 0 {
			remaining = 0
			eq.Items = append(eq.Items[:i], eq.Items[i+1:]...)
		}
		return Result{
			"exito":    true,
			"objeto":   name,
			"restante": remaining,
		}, nil
	}

	for i := range eq.Weapons {
		w := eq.Weapons[i]
		if w.ID != p.ItemID && w.CompendiumRef != p.ItemID {
			continue
		}
		eq.Weapons = append(eq.Weapons[:i], eq.Weapons[i+1:]...)
		return Result{
			"exito":    true,
			"objeto":   w.Name,
			"restante": 0,
		}, nil
	}

	return Failf("No tienes '%s' en el inventario", p.ItemID), nil
}

// ModifyGold adjusts the coin purse, never below zero.
type ModifyGold struct{}

func (ModifyGold) Name() string { return "modificar_oro" }

func (ModifyGold) Description() string {
	return "Suma o resta piezas de oro del personaje. El saldo nunca baja de cero."
}

func (ModifyGold) Parameters() []Parameter {
	return []Parameter{
		{Name: "cantidad", Type: "int", Required: true,
			Description: "Oro a sumar (negativo para gastar)"},
		{Name: "motivo", Type: "string", Required: false,
			Description: "Causa del cambio"},
	}
}

func (ModifyGold) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		Amount int    `mapstructure:"cantidad"`
		Reason string `mapstructure:"motivo"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	money := &ctx.Sheet.Equipment.Money
	if p.Amount < 0 && money.Gold+p.Amount < 0 {
		return Failf("No tienes suficiente oro. Tienes %d po, necesitas %d po.",
			money.Gold, -p.Amount), nil
	}

	before := money.Gold
	money.Gold += p.Amount

	msg := fmt.Sprintf("Ganaste %d po", p.Amount)
	if p.Amount < 0 {
		msg = fmt.Sprintf("Gastaste %d po", -p.Amount)
	}
	return Result{
		"exito":        true,
		"oro_anterior": before,
		"oro_nuevo":    money.Gold,
		"cambio":       p.Amount,
		"motivo":       p.Reason,
		"mensaje":      msg,
	}, nil
}
