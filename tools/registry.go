package tools

import (
	"errors"
	"fmt"
)

// Registry sentinel errors. Resolve failures are protocol-level (fed back to
// the model as corrective observations); Register failures are structural and
// abort run setup.
var (
	ErrDuplicateName = errors.New("tool name already registered")
	ErrUnknownTool   = errors.New("unknown tool")
)

// Registry maps tool names to definitions. It is populated during run setup
// and read-only afterwards, so concurrent runs may resolve from it freely.
type Registry struct {
	byName map[string]ToolDefinition
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]ToolDefinition{}}
}

// Register adds a definition. Empty names and duplicates are rejected.
func (r *Registry) Register(def ToolDefinition) error {
	if def.Name == "" {
		return errors.New("tool name is empty")
	}
	if def.Function == nil {
		return fmt.Errorf("tool %q has no handler", def.Name)
	}
	if _, exists := r.byName[def.Name]; exists {
		return fmt.Errorf("%q: %w", def.Name, ErrDuplicateName)
	}
	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Resolve returns the definition for name, or ErrUnknownTool.
func (r *Registry) Resolve(name string) (ToolDefinition, error) {
	def, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, fmt.Errorf("%q: %w", name, ErrUnknownTool)
	}
	return def, nil
}

// Definitions returns all registered tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.byName)
}
