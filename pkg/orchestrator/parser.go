package orchestrator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Response is the structured reply the DM model is asked to emit.
// Local models are sloppy JSON writers, so ParseResponse accepts
// anything that contains a recognizable object and salvages the rest
// as narrative.
type Response struct {
	Tool       string         `json:"herramienta,omitempty"`
	Params     map[string]any `json:"parametros,omitempty"`
	Narrative  string         `json:"narrativa"`
	ModeChange string         `json:"cambio_modo,omitempty"`
	Memory     map[string]any `json:"memoria,omitempty"`
	DMAction   string         `json:"accion_dm,omitempty"`
}

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseResponse turns raw model output into a Response. Text outside
// a code fence or preceding the JSON object is kept as narrative when
// the object itself carries none. Output with no object at all is
// treated as pure narration.
func ParseResponse(raw string) *Response {
	text := strings.TrimSpace(raw)
	if text == "" {
		return &Response{}
	}

	prefix := ""
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		prefix = strings.TrimSpace(text[:strings.Index(text, m[0])])
		text = strings.TrimSpace(m[1])
	}

	obj := objectRe.FindStringIndex(text)
	if obj == nil {
		return &Response{Narrative: text}
	}
	if prefix == "" {
		prefix = strings.TrimSpace(text[:obj[0]])
	}

	resp, ok := decodeObject(text[obj[0]:obj[1]])
	if !ok {
		// The braces did not hold valid JSON. Keep the whole thing
		// as narration rather than dropping the turn.
		return &Response{Narrative: strings.TrimSpace(raw)}
	}
	if resp.Narrative == "" && prefix != "" {
		resp.Narrative = prefix
	}
	return resp
}

func decodeObject(s string) (*Response, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil {
		return nil, false
	}

	resp := &Response{}
	for key, value := range fields {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "herramienta", "tool":
			resp.Tool = cleanTool(value)
		case "parametros", "params":
			if m, ok := value.(map[string]any); ok {
				resp.Params = m
			}
		case "narrativa", "narracion", "texto":
			resp.Narrative = strings.TrimSpace(fmt.Sprint(value))
		case "cambio_modo", "modo":
			if s, ok := value.(string); ok {
				resp.ModeChange = strings.ToLower(strings.TrimSpace(s))
			}
		case "memoria":
			if m, ok := value.(map[string]any); ok {
				resp.Memory = m
			}
		case "accion_dm":
			if s, ok := value.(string); ok {
				resp.DMAction = strings.TrimSpace(s)
			}
		}
	}
	if resp.Narrative == "<nil>" {
		resp.Narrative = ""
	}
	return resp, true
}

// cleanTool normalizes the many ways a model says "no tool".
func cleanTool(value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "ninguna", "ninguno", "none", "no":
		return ""
	}
	return s
}

// Validate reports whether the response carries enough to act on.
func (r *Response) Validate() error {
	if r.Narrative == "" && r.Tool == "" {
		return fmt.Errorf("la respuesta no trae narrativa ni herramienta")
	}
	return nil
}
