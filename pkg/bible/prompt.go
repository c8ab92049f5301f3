package bible

import (
	"fmt"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/character"
)

const generationTemplate = `Eres un diseñador de aventuras de D&D 5e experto en Reinos Olvidados.

Tu tarea es crear una ADVENTURE BIBLE: un documento estructurado que define todos los elementos de una aventura ANTES de jugarla.

═══════════════════════════════════════════════════════════════════════
INFORMACIÓN DEL PERSONAJE JUGADOR
═══════════════════════════════════════════════════════════════════════
%s

═══════════════════════════════════════════════════════════════════════
TIPO DE AVENTURA: %s
═══════════════════════════════════════════════════════════════════════
%s

═══════════════════════════════════════════════════════════════════════
REGIÓN DE FAERÛN
═══════════════════════════════════════════════════════════════════════
%s

═══════════════════════════════════════════════════════════════════════
INSTRUCCIONES DE GENERACIÓN
═══════════════════════════════════════════════════════════════════════

Genera una Adventure Bible en JSON con EXACTAMENTE esta estructura:

{
  "logline": "Resumen en 1-2 frases (máx 200 caracteres)",

  "main_quest": {
    "objetivo_final": "Qué debe lograr el PJ",
    "por_que_importa": "Stakes - qué pasa si falla",
    "gancho_inicial": "Cómo se presenta al PJ (NO requiere tirada)"
  },

  "antagonista": {
    "identidad_real": "Nombre real del villano",
    "fachada": "Cómo se presenta públicamente (si aplica)",
    "motivacion": "Por qué hace lo que hace",
    "objetivo": "Qué quiere lograr",
    "recursos": ["recurso1", "recurso2", "recurso3"],
    "debilidad": "Cómo puede ser derrotado",
    "pistas_foreshadowing": ["pista1", "pista2", "pista3", "pista4"]
  },

  "actos": [
    {
      "numero": 1,
      "nombre": "Nombre del acto",
      "objetivo": "Qué debe lograr el PJ en este acto",
      "escenas_semilla": [
        {"id": "escena_1", "tipo": "social/combate/exploracion", "descripcion": "Breve descripción"},
        {"id": "escena_2", "tipo": "social/combate/exploracion", "descripcion": "Breve descripción"},
        {"id": "escena_3", "tipo": "social/combate/exploracion", "descripcion": "Breve descripción"}
      ],
      "climax": "Cómo termina el acto"
    },
    {
      "numero": 2,
      "nombre": "Nombre del acto 2",
      "objetivo": "...",
      "escenas_semilla": [...],
      "climax": "..."
    },
    {
      "numero": 3,
      "nombre": "Nombre del acto 3",
      "objetivo": "...",
      "escenas_semilla": [...],
      "climax": "..."
    }
  ],

  "revelaciones": [
    {
      "id": "rev_1",
      "contenido": "Qué se revela",
      "importancia": "critica/importante/menor",
      "acto": 1,
      "pistas": [
        {"id": "p1_social", "tipo": "social", "descripcion": "Pista obtenida hablando", "garantizada": false},
        {"id": "p1_fisica", "tipo": "fisica", "descripcion": "Pista física encontrada", "garantizada": true},
        {"id": "p1_documental", "tipo": "documental", "descripcion": "Pista en documentos", "garantizada": false}
      ]
    }
  ],

  "pnj_clave": [
    {
      "nombre": "Nombre fantástico",
      "rol": "Aliado/Enemigo/Neutral/Informante",
      "descripcion_breve": "Descripción física y personalidad en 1 frase",
      "secreto": "Algo que oculta",
      "actitud_inicial": "amistoso/neutral/desconfiado/hostil",
      "ubicacion": "Dónde encontrarlo"
    }
  ],

  "relojes": [
    {
      "nombre": "Nombre del reloj",
      "descripcion": "Qué representa",
      "segmentos_total": 6,
      "que_avanza": "Qué hace que avance",
      "que_pasa_al_completar": "Consecuencia"
    }
  ],

  "side_quests": [
    {
      "id": "sq_1",
      "gancho": "Cómo se presenta",
      "que_revela": "Información útil que da",
      "como_escala": "Cómo puede volverse importante",
      "potencial_main": true/false,
      "recompensa": "Qué obtiene el PJ"
    }
  ],

  "recompensas_previstas": [
    {"que": "Objeto o cantidad de oro", "cuando": "En qué momento"}
  ]
}

═══════════════════════════════════════════════════════════════════════
REGLAS DE DISEÑO
═══════════════════════════════════════════════════════════════════════

1. PARTIDA EN SOLITARIO (1 PJ nivel %d):
   - Un solo PJ, NO un grupo
   - Los encuentros deben ser navegables por 1 personaje

   REGLAS DE DIFICULTAD DE ENCUENTROS:
   Para un PJ de nivel %d, los umbrales son:
   - Encuentro FÁCIL: CR %d (1 enemigo) o 2 de CR %d
   - Encuentro MEDIO: CR %d (1 enemigo)
   - Encuentro DIFÍCIL: CR %d (1 enemigo)
   - Encuentro LETAL: CR %d o 2+ enemigos de CR %d

   ⚠️ IMPORTANTE: Para 1 PJ, 3+ enemigos SIEMPRE es encuentro MORTAL.

   Ejemplos de monstruos apropiados para nivel %d:
   - CR 0: Commoner, Rat, Goat
   - CR 1/8: Bandit, Cultist, Kobold
   - CR 1/4: Goblin, Esqueleto, Zombi
   - CR 1/2: Orc, Hobgoblin, Scout
   - CR 1: Bugbear, Ghoul, Specter
   - CR 2: Ogre, Ghast, Mimic
   - CR 3: Werewolf, Owlbear, Manticore

   Regla general: usa 1 enemigo de CR = nivel_pj - 1 para encuentro medio.

2. THREE CLUE RULE:
   - Cada revelación CRÍTICA tiene exactamente 3 pistas
   - Una pista es GARANTIZADA (se entrega sin tirada)
   - Las otras 2 requieren tiradas o acciones específicas

3. NUNCA BLOQUEAR:
   - El gancho inicial NO requiere tirada
   - Los fallos generan complicaciones, no bloqueos
   - Siempre hay alternativas

4. FORESHADOWING:
   - El antagonista tiene 4 pistas de foreshadowing
   - Estas pistas se siembran ANTES de revelar su identidad
   - La identidad se revela en el acto 3 normalmente

5. NOMBRES:
   - Usa nombres fantásticos de Reinos Olvidados
   - Nada de nombres modernos (Juan, María, etc.)
   - Ejemplos: Vaelindra Tormenta, Aldric Sombrafría, Grimjaw el Tuerto

6. COHERENCIA:
   - Todo debe encajar en la región de Faerûn especificada
   - Los NPCs tienen motivaciones lógicas
   - El antagonista tiene razones creíbles

7. ESTRUCTURA:
   - Exactamente 3 actos
   - 2-4 escenas semilla por acto
   - 2-4 NPCs clave
   - 1-2 relojes de tensión
   - 1-2 side quests
   - 2-4 revelaciones (al menos 1 crítica)

═══════════════════════════════════════════════════════════════════════
RESPONDE SOLO CON EL JSON
═══════════════════════════════════════════════════════════════════════
No añadas explicaciones antes ni después. Solo el JSON válido.
`

// BuildPrompt assembles the generation prompt from the character, the
// tone module and the region.
func BuildPrompt(sheet *character.Sheet, tone Tone, region Region) string {
	level := 1
	pcBlock := "Nombre: Aventurero\nRaza: Humano\nClase: Guerrero\nNivel: 1\nTrasfondo: Soldado"
	if sheet != nil {
		info := sheet.Info
		if info.Level > 0 {
			level = info.Level
		}
		pcBlock = fmt.Sprintf("Nombre: %s\nRaza: %s\nClase: %s\nNivel: %d\nTrasfondo: %s",
			orDefault(info.Name, "Aventurero"),
			orDefault(info.Race, "Humano"),
			orDefault(info.Class, "Guerrero"),
			level,
			orDefault(info.Background, "Soldado"))
	}

	toneBlock := fmt.Sprintf(`Estilo: %s
%s

Tono narrativo: %s

Letalidad: %s
Moral: %s

Cómo resolver fallos: %s

Tipos de antagonista típicos:
%s

Tipos de quest típicos:
%s`,
		orDefault(tone.Name, "Épica Heroica"),
		tone.ShortDescription,
		orDefault(tone.NarrativeTone, "Heroico"),
		orDefault(tone.Lethality, "media"),
		orDefault(tone.Moral, "clara"),
		orDefault(tone.FailurePolicy, "Los fallos generan complicaciones pero la historia avanza."),
		bulletList(tone.AntagonistTypes, "Villano genérico", 3),
		bulletList(tone.QuestTypes, "Misión genérica", 3))

	regionBlock := fmt.Sprintf("%s\n%s\nCiudades: %s",
		region.Name, region.Description, strings.Join(region.Cities, ", "))

	return fmt.Sprintf(generationTemplate,
		pcBlock,
		orDefault(tone.Name, "Épica Heroica"),
		toneBlock,
		regionBlock,
		level, level,
		max(0, level-2), max(0, level-3),
		max(0, level-1),
		level,
		level+1, max(0, level-1),
		level,
	)
}

func bulletList(items []string, fallback string, n int) string {
	if len(items) == 0 {
		items = []string{fallback}
	}
	lines := make([]string, 0, n)
	for _, it := range capList(items, n) {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}

