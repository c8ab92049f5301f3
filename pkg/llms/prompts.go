package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/normalizer"
)

// SystemPrompts are the fixed personas the game speaks through.
var SystemPrompts = map[string]string{
	"narrador": `Eres el Dungeon Master de una partida de D&D 5e.
Tu rol es narrar lo que ocurre de forma inmersiva.

REGLAS DE PERSONA (OBLIGATORIAS):
- Si el ACTOR es PC: usa 2ª persona ("Lanzas tu espada...", "Tu golpe...")
- Si el ACTOR es NPC: usa 3ª persona ("El goblin ataca...")
- Si el OBJETIVO es PC: SIEMPRE usa 2ª persona ("te roza", "esquivas"). NO uses el nombre del PC.
- Si el OBJETIVO es NPC: usa 3ª persona ("el goblin cae")

PROHIBICIONES:
- NO inventes personajes, enemigos, aliados u objetos que no aparezcan en "Participantes visibles"
- NO menciones números de dados ni mecánicas
- NO añadas escenarios ni elementos de ambiente que no estén en "Escena"
- NO uses el nombre del PC cuando es el objetivo, usa "tú/te/tu"

REGLAS GENERALES:
- Sé conciso (2-3 frases máximo)
- Solo narra lo que pasó según el Resultado
- Si FALLA: describe el fallo (esquiva, bloqueo, error)
- Si IMPACTA: describe el golpe y su efecto`,

	"clarificacion": `Eres el Dungeon Master de una partida de D&D 5e.
Necesitas aclarar qué quiere hacer el jugador.
Reglas:
- Reformula la pregunta de forma narrativa
- NO cambies las opciones disponibles
- Sé breve (1 frase)`,

	"normalizador": `Eres un parser de acciones de D&D 5e.
Dado un texto en lenguaje natural, extrae la acción estructurada.

REGLAS ESTRICTAS:
- Responde SOLO con JSON válido
- SIN markdown, SIN backticks, SIN explicaciones
- Si no puedes interpretar, devuelve: {"tipo":"desconocido","datos":{},"confianza":0.0}

Formato:
{"tipo": "ataque|conjuro|movimiento|habilidad|accion", "datos": {...}, "confianza": 0.0-1.0}

Ejemplos:
"Ataco al goblin" -> {"tipo":"ataque","datos":{"objetivo":"goblin"},"confianza":0.95}
"Lanzo bola de fuego" -> {"tipo":"conjuro","datos":{"conjuro":"bola_de_fuego"},"confianza":0.90}
"Hago algo raro" -> {"tipo":"desconocido","datos":{},"confianza":0.0}`,
}

// NarratorCallback wraps a provider into a plain prompt-to-prose
// function under the narrator persona.
func NarratorCallback(p Provider) func(prompt string) string {
	return func(prompt string) string {
		text, err := p.Generate(context.Background(), prompt, SystemPrompts["narrador"])
		if err != nil {
			return ""
		}
		return text
	}
}

// NormalizerCallback wraps a provider into the field-filling function
// the action normaliser accepts. The model's answer is parsed
// tolerantly; a broken answer yields an error so the caller keeps its
// pattern-level result.
func NormalizerCallback(p Provider) normalizer.LLMFunc {
	return func(prompt string, llmContext map[string]any) (map[string]any, error) {
		contextJSON, _ := json.Marshal(llmContext)
		full := fmt.Sprintf("%s\nContexto: %s", prompt, contextJSON)

		text, err := p.Generate(context.Background(), full, SystemPrompts["normalizador"])
		if err != nil {
			return nil, err
		}

		parsed, err := ParseJSONReply(text)
		if err != nil {
			return nil, err
		}

		// The persona answers {tipo, datos, confianza}; the caller
		// merges field values, so unwrap datos when present.
		if datos, ok := parsed["datos"].(map[string]any); ok {
			return datos, nil
		}
		return parsed, nil
	}
}

// ParseJSONReply decodes a model answer that should be a JSON object,
// tolerating markdown fences around it.
func ParseJSONReply(text string) (map[string]any, error) {
	text = StripFences(text)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("respuesta JSON inválida: %w", err)
	}
	return parsed, nil
}

// StripFences removes a leading ```/```json fence pair if present.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimPrefix(strings.TrimSpace(text), "json")
	return strings.TrimSpace(text)
}
