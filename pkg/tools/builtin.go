package tools

// Builtins returns the full tool catalogue in its canonical order.
func Builtins() []Tool {
	return []Tool{
		ConsultSheet{},
		ConsultMonster{},
		ConsultItem{},
		RollSkill{},
		RollSave{},
		RollAttack{},
		ModifyHP{},
		GiveItem{},
		RemoveItem{},
		ModifyGold{},
		ListMonsters{},
		StartCombat{},
		DamageEnemy{},
	}
}

// NewBuiltinRegistry builds a registry with every built-in tool.
func NewBuiltinRegistry() (*Registry, error) {
	r := NewRegistry()
	for _, t := range Builtins() {
		if err := r.RegisterTool(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}
