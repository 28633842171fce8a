package tooling

import (
	"fmt"

	"taskflow/internal/domain"
)

// Registry holds Tool implementations keyed by name. The dispatcher uses it
// to enumerate tool definitions for the LLM prompt and route calls.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry returns an empty, ready-to-use registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Returns an error if the tool is nil or a tool with
// the same name is already registered.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool must not be nil")
	}
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get returns the tool with the given name or an error if not found.
func (r *Registry) Get(name string) (Tool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %q", name)
	}
	return tool, nil
}

// Definitions returns a domain.ToolDefinition for every registered tool in
// registration order, suitable for the catalog endpoint and for prompting.
func (r *Registry) Definitions() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.tools))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Definition(),
		})
	}
	return out
}
