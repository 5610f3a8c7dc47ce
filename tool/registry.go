package tool

import (
	"fmt"

	"github.com/hupe1980/archivist/core"
)

// Registry maps tool names to Tool implementations. Registration happens
// once at construction; the mapping is immutable afterwards, so a single
// registry can be shared by concurrent sessions without locking.
type Registry struct {
	tools map[string]Tool
	order []string // registration order for stable capability listings
}

// NewRegistry constructs an immutable registry from the given tools.
// Duplicate or empty names fail construction rather than being silently
// overwritten.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}

	for _, t := range tools {
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}

	return r, nil
}

// Resolve returns the tool registered under name or an error wrapping
// core.ErrUnknownTool.
func (r *Registry) Resolve(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownTool, name)
	}
	return t, nil
}

// Capabilities returns descriptors for every registered tool in
// registration order, used to inform the model what it may call.
func (r *Registry) Capabilities() []core.Capability {
	caps := make([]core.Capability, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		caps = append(caps, core.Capability{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return caps
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
