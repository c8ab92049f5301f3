package tools

import (
	"github.com/ajujo/dnd5e-framework-sub000/pkg/rules"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/vocab"
)

// hpState buckets current HP into the narrative state the model uses.
func hpState(current, maxHP int) string {
	switch {
	case current <= 0:
		return "inconsciente"
	case maxHP > 0 && current <= maxHP/4:
		return "gravemente herido"
	case maxHP > 0 && current <= maxHP/2:
		return "herido"
	default:
		return "sano"
	}
}

// ConsultSheet exposes the loaded character sheet, whole or by section.
type ConsultSheet struct{}

func (ConsultSheet) Name() string { return "consultar_ficha" }

func (ConsultSheet) Description() string {
	return "Consulta la ficha del personaje jugador: características, habilidades, combate, equipo o todo."
}

func (ConsultSheet) Parameters() []Parameter {
	return []Parameter{
		{
			Name: "campo", Type: "string", Required: false,
			Description: "Sección de la ficha a consultar",
			Options:     []string{"todo", "caracteristicas", "habilidades", "combate", "equipo", "hp", "competencias"},
		},
	}
}

func (ConsultSheet) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	if ctx.Sheet == nil {
		return Failf("No hay personaje cargado"), nil
	}
	var p struct {
		Field string `mapstructure:"campo"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Field == "" {
		p.Field = "todo"
	}

	s := ctx.Sheet
	sections := map[string]func() any{
		"caracteristicas": func() any {
			return map[string]any{
				"puntuaciones":  s.Abilities,
				"modificadores": s.Derived.Modifiers,
			}
		},
		"habilidades": func() any {
			bonuses := make(map[string]int, len(rules.Skills))
			for _, skill := range rules.Skills {
				bonus := s.Derived.Modifiers[rules.SkillAbility[skill]]
				if s.HasSkill(skill) {
					bonus += s.Derived.ProficiencyBonus
				}
				bonuses[skill] = bonus
			}
			return bonuses
		},
		"combate": func() any {
			out := map[string]any{
				"clase_armadura":          s.Derived.ArmorClass,
				"iniciativa":              s.Derived.Initiative,
				"velocidad":               s.Derived.Speed,
				"puntos_golpe_actual":     s.Derived.CurrentHP,
				"puntos_golpe_maximo":     s.Derived.MaxHP,
				"bonificador_competencia": s.Derived.ProficiencyBonus,
				"salvaciones":             s.Derived.Saves,
			}
			if w := s.Equipment.MainWeapon(); w != nil {
				out["arma_principal"] = map[string]any{
					"id": w.CompendiumRef, "nombre": w.Name,
				}
			}
			return out
		},
		"equipo": func() any {
			return map[string]any{
				"armas":    s.Equipment.Weapons,
				"armadura": s.Equipment.Armor,
				"escudo":   s.Equipment.Shield,
				"objetos":  s.Equipment.Items,
				"dinero":   s.Equipment.Money,
			}
		},
		"hp": func() any {
			return map[string]any{
				"actual": s.Derived.CurrentHP,
				"maximo": s.Derived.MaxHP,
				"estado": hpState(s.Derived.CurrentHP, s.Derived.MaxHP),
			}
		},
		"competencias": func() any {
			return map[string]any{
				"salvaciones":  s.Proficiencies.Saves,
				"habilidades":  s.Proficiencies.Skills,
				"armas":        s.Proficiencies.Weapons,
				"armaduras":    s.Proficiencies.Armors,
				"herramientas": s.Proficiencies.Tools,
				"idiomas":      s.Proficiencies.Languages,
			}
		},
	}

	res := Result{
		"exito":     true,
		"personaje": s.Info.Name,
		"nivel":     s.Info.Level,
		"clase":     s.Info.Class,
		"raza":      s.Info.Race,
	}
	if p.Field == "todo" {
		for name, build := range sections {
			res[name] = build()
		}
		return res, nil
	}
	res[p.Field] = sections[p.Field]()
	return res, nil
}

// ConsultMonster looks up a stat block by compendium ID.
type ConsultMonster struct{}

func (ConsultMonster) Name() string { return "consultar_monstruo" }

func (ConsultMonster) Description() string {
	return "Consulta el bloque de estadísticas de un monstruo del compendio."
}

func (ConsultMonster) Parameters() []Parameter {
	return []Parameter{
		{Name: "id", Type: "string", Required: true,
			Description: "ID del monstruo, p.ej. goblin o lobo"},
	}
}

func (ConsultMonster) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	var p struct {
		ID string `mapstructure:"id"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	id := vocab.Slug(p.ID)
	monster, ok := ctx.Compendium.Store().Monster(id)
	if !ok {
		res := Failf("Monstruo '%s' no encontrado", id)
		res["monstruos_disponibles"] = monsterIDs(ctx)
		return res, nil
	}
	return Result{
		"exito":    true,
		"monstruo": monster,
	}, nil
}

func monsterIDs(ctx *GameContext) []string {
	monsters := ctx.Compendium.Store().Monsters()
	ids := make([]string, 0, len(monsters))
	for _, m := range monsters {
		ids = append(ids, m.ID)
	}
	return ids
}

// ConsultItem looks up a weapon, armour or misc item by ID.
type ConsultItem struct{}

func (ConsultItem) Name() string { return "consultar_objeto" }

func (ConsultItem) Description() string {
	return "Consulta un objeto del compendio: arma, armadura u objeto misceláneo."
}

func (ConsultItem) Parameters() []Parameter {
	return []Parameter{
		{Name: "id", Type: "string", Required: true,
			Description: "ID del objeto en el compendio"},
		{Name: "tipo", Type: "string", Required: false,
			Description: "Categoría donde buscar",
			Options:     []string{"arma", "armadura", "misc", "auto"}},
	}
}

func (ConsultItem) Execute(ctx *GameContext, params map[string]any) (Result, error) {
	var p struct {
		ID   string `mapstructure:"id"`
		Kind string `mapstructure:"tipo"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Kind == "" {
		p.Kind = "auto"
	}

	id := vocab.Slug(p.ID)
	store := ctx.Compendium.Store()

	if p.Kind == "arma" || p.Kind == "auto" {
		if w, ok := store.Weapon(id); ok {
			return Result{"exito": true, "tipo": "arma", "objeto": w}, nil
		}
		if p.Kind == "arma" {
			return Failf("Arma '%s' no encontrada", id), nil
		}
	}
	if p.Kind == "armadura" || p.Kind == "auto" {
		if a, ok := store.Armor(id); ok {
			return Result{"exito": true, "tipo": "armadura", "objeto": a}, nil
		}
		if s, ok := store.Shield(id); ok {
			return Result{"exito": true, "tipo": "armadura", "objeto": s}, nil
		}
		if p.Kind == "armadura" {
			return Failf("Armadura '%s' no encontrada", id), nil
		}
	}
	if it, ok := store.Item(id); ok {
		return Result{"exito": true, "tipo": "misc", "objeto": it}, nil
	}
	return Failf("Objeto '%s' no encontrado en el compendio", id), nil
}
