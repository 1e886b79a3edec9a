package catalog

import (
	"fmt"
	"regexp"
)

var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Registry is the fixed tool table. It is built once and never mutated.
type Registry struct {
	order  []*Tool
	byName map[string]*Tool
}

// NewRegistry validates tools and indexes them in declaration order.
func NewRegistry(tools ...*Tool) (*Registry, error) {
	r := &Registry{
		order:  make([]*Tool, 0, len(tools)),
		byName: make(map[string]*Tool, len(tools)),
	}
	for _, t := range tools {
		if err := validateTool(t); err != nil {
			return nil, err
		}
		if _, exists := r.byName[t.Name]; exists {
			return nil, fmt.Errorf("tool %q registered twice", t.Name)
		}
		r.byName[t.Name] = t
		r.order = append(r.order, t)
	}
	return r, nil
}

// Get returns a tool by name
func (r *Registry) Get(name string) (*Tool, error) {
	t, exists := r.byName[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// List returns all tools in declaration order
func (r *Registry) List() []*Tool {
	out := make([]*Tool, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.order)
}

func validateTool(t *Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	if t.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if !validName.MatchString(t.Name) {
		return fmt.Errorf("tool name %q is invalid: must start with a letter, contain only letters, numbers, and underscores", t.Name)
	}
	if t.Fallback == "" {
		return fmt.Errorf("tool %q must have a fallback message", t.Name)
	}
	if t.build == nil {
		return fmt.Errorf("tool %q has no URL builder", t.Name)
	}
	if t.Schema == nil || t.Schema.Type != "object" {
		return fmt.Errorf("tool %q input schema must be an object", t.Name)
	}
	return nil
}
