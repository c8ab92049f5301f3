package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// DamageDelta is damage to apply to one target.
type DamageDelta struct {
	TargetID string `json:"objetivo_id"`
	Amount   int    `json:"cantidad"`
	Type     string `json:"tipo"`
}

// SlotDelta is a spell-slot expenditure.
type SlotDelta struct {
	Level int `json:"nivel"`
	Count int `json:"cantidad"`
}

// Delta is the state change an applied action requests from the
// combat engine. The engine applies each delta exactly once; the
// canonical hash lets it discard duplicates on retries.
type Delta struct {
	ActionUsed         bool         `json:"accion_usada,omitempty"`
	MovementUsed       int          `json:"movimiento_usado,omitempty"`
	MovementBonus      int          `json:"movimiento_bonus,omitempty"`
	TemporaryCondition string       `json:"condicion_temporal,omitempty"`
	DamageInflicted    *DamageDelta `json:"daño_infligido,omitempty"`
	SlotSpent          *SlotDelta   `json:"ranura_gastada,omitempty"`
}

// IsZero reports whether the delta changes nothing.
func (d *Delta) IsZero() bool {
	return d == nil || (!d.ActionUsed && d.MovementUsed == 0 && d.MovementBonus == 0 &&
		d.TemporaryCondition == "" && d.DamageInflicted == nil && d.SlotSpent == nil)
}

// Hash returns a short content hash of the delta. Struct fields
// marshal in declaration order, so equal deltas always hash equal.
func (d *Delta) Hash() string {
	raw, err := json.Marshal(d)
	if err != nil {
		raw = []byte(err.Error())
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}
