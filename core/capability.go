package core

// Capability declaratively describes a registered tool to the model: its
// unique name, a natural-language description and a minimal JSON-Schema
// parameter specification. Capabilities are registered once at startup
// and read-only thereafter.
type Capability struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}
