package tools

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ajujo/dnd5e-framework-sub000/pkg/logger"
	"github.com/ajujo/dnd5e-framework-sub000/pkg/registry"
)

// Registry holds the tool catalogue and is the single execution path
// for model-requested tools.
type Registry struct {
	*registry.BaseRegistry[Tool]
	log *slog.Logger
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		BaseRegistry: registry.NewBaseRegistry[Tool](),
		log:          logger.GetLogger("tools"),
	}
}

// RegisterTool adds a tool under its own name.
func (r *Registry) RegisterTool(t Tool) error {
	return r.Register(t.Name(), t)
}

// Execute runs one tool by name. Unknown names, missing required
// parameters, enum violations, returned errors and panics all surface
// as failed results; Execute never propagates an exception upward.
func (r *Registry) Execute(ctx *GameContext, name string, params map[string]any) (result Result) {
	tool, ok := r.Get(name)
	if !ok {
		res := Failf("Herramienta desconocida: %s", name)
		res["herramientas_disponibles"] = r.Names()
		return res
	}

	if params == nil {
		params = map[string]any{}
	}
	if msg := validateParams(tool.Parameters(), params); msg != "" {
		return Failf("%s", msg)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("tool panicked", "tool", name, "panic", rec)
			result = Failf("Error ejecutando %s: %v", name, rec)
		}
	}()

	res, err := tool.Execute(ctx, params)
	if err != nil {
		return Failf("Error ejecutando %s: %v", name, err)
	}
	if res == nil {
		res = Result{}
	}
	if _, ok := res["exito"]; !ok {
		res["exito"] = true
	}
	return res
}

// validateParams checks required presence and enum membership. It
// returns an empty string when the parameters are acceptable.
func validateParams(decls []Parameter, params map[string]any) string {
	for _, p := range decls {
		value, present := params[p.Name]
		if !present || value == nil {
			if p.Required {
				return fmt.Sprintf("Falta el parámetro requerido '%s'", p.Name)
			}
			continue
		}
		if len(p.Options) > 0 {
			s := fmt.Sprintf("%v", value)
			valid := false
			for _, opt := range p.Options {
				if s == opt {
					valid = true
					break
				}
			}
			if !valid {
				return fmt.Sprintf("Valor inválido para '%s': '%s'. Valores válidos: %s",
					p.Name, s, strings.Join(p.Options, ", "))
			}
		}
	}
	return ""
}

// DescribeForModel renders the canonical tool catalogue injected into
// the system prompt, in registration-name order.
func (r *Registry) DescribeForModel() string {
	var b strings.Builder
	b.WriteString("HERRAMIENTAS DISPONIBLES:\n")

	for _, name := range r.Names() {
		tool, ok := r.Get(name)
		if !ok {
			continue
		}
		b.WriteString("\n## " + tool.Name() + "\n")
		b.WriteString(tool.Description() + "\n")

		params := tool.Parameters()
		if len(params) == 0 {
			continue
		}
		b.WriteString("Parámetros:\n")
		for _, p := range params {
			req := "opcional"
			if p.Required {
				req = "requerido"
			}
			fmt.Fprintf(&b, "- %s [%s] (%s): %s\n", p.Name, p.Type, req, p.Description)
			if len(p.Options) > 0 {
				fmt.Fprintf(&b, "  Valores válidos: %s\n", strings.Join(p.Options, ", "))
			}
		}
	}
	return b.String()
}
