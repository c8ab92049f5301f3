package orchestrator

import (
	"fmt"
	"sort"
	"strings"
)

// Memory is the DM's structured long-term notes: the running state of
// the main quest plus the facts the model asks to remember between
// turns. Unlike the history ring it never rotates out, and it feeds
// back into every system prompt.
type Memory struct {
	QuestPhase     string            `json:"fase_mision,omitempty"`
	QuestObjective string            `json:"objetivo_mision,omitempty"`
	Revelations    []string          `json:"revelaciones,omitempty"`
	SideQuests     []string          `json:"misiones_secundarias,omitempty"`
	NPCAttitudes   map[string]string `json:"actitudes_npc,omitempty"`
	Threats        []string          `json:"amenazas_activas,omitempty"`
}

// IsZero reports whether the memory has nothing to render.
func (m *Memory) IsZero() bool {
	return m.QuestPhase == "" && m.QuestObjective == "" &&
		len(m.Revelations) == 0 && len(m.SideQuests) == 0 &&
		len(m.NPCAttitudes) == 0 && len(m.Threats) == 0
}

// MergeMemory folds a memory update from the model into the context:
// quest phase and objective replace when set; revelations, side quests
// and threats append without duplicating; attitude changes update both
// the memory and any matching NPC in the scene.
func (c *Context) MergeMemory(delta Memory) {
	if delta.QuestPhase != "" {
		c.Memory.QuestPhase = delta.QuestPhase
	}
	if delta.QuestObjective != "" {
		c.Memory.QuestObjective = delta.QuestObjective
	}
	c.Memory.Revelations = appendUnique(c.Memory.Revelations, delta.Revelations)
	c.Memory.SideQuests = appendUnique(c.Memory.SideQuests, delta.SideQuests)
	c.Memory.Threats = appendUnique(c.Memory.Threats, delta.Threats)

	for who, attitude := range delta.NPCAttitudes {
		if who == "" || attitude == "" {
			continue
		}
		if c.Memory.NPCAttitudes == nil {
			c.Memory.NPCAttitudes = map[string]string{}
		}
		c.Memory.NPCAttitudes[who] = attitude
		if npc := c.findNPC(who); npc != nil {
			npc.Attitude = attitude
		}
	}
}

// findNPC locates a scene NPC by ID or, failing that, by name. The
// model refers to NPCs both ways.
func (c *Context) findNPC(who string) *SceneNPC {
	if npc := c.NPC(who); npc != nil {
		return npc
	}
	for i := range c.NPCs {
		if strings.EqualFold(c.NPCs[i].Name, who) {
			return &c.NPCs[i]
		}
	}
	return nil
}

// promptBlock renders the memory as a system-prompt section.
func (m *Memory) promptBlock() string {
	if m.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString("=== MEMORIA NARRATIVA ===\n")
	if m.QuestObjective != "" || m.QuestPhase != "" {
		fmt.Fprintf(&b, "Misión principal: %s", orDefault(m.QuestObjective, "sin definir"))
		if m.QuestPhase != "" {
			fmt.Fprintf(&b, " (fase: %s)", m.QuestPhase)
		}
		b.WriteString("\n")
	}
	writeList(&b, "Revelaciones", m.Revelations)
	writeList(&b, "Misiones secundarias", m.SideQuests)
	writeList(&b, "Amenazas activas", m.Threats)
	if len(m.NPCAttitudes) > 0 {
		names := make([]string, 0, len(m.NPCAttitudes))
		for name := range m.NPCAttitudes {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("Actitudes de NPC:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "  - %s: %s\n", name, m.NPCAttitudes[name])
		}
	}
	b.WriteString("\n")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "  - %s\n", item)
	}
}

// appendUnique adds the non-empty entries of src that dst does not
// already hold, compared case-insensitively.
func appendUnique(dst, src []string) []string {
	for _, s := range src {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		seen := false
		for _, have := range dst {
			if strings.EqualFold(have, s) {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, s)
		}
	}
	return dst
}
