package api

import "context"

// Tool defines the structural interface for any local capability that the
// remote model can request during a turn. It carries the metadata declared
// to the service at session setup (JSON-Schema style parameter map) and the
// execution logic itself.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-Schema property map declared for this tool.
	Parameters() map[string]any
	// RequiredParameters lists the property names the model must supply.
	RequiredParameters() []string
	// Execute performs the actual tool logic using the supplied argument map.
	// The returned map becomes the success payload of the function result.
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ToolRegistry defines the interface for managing and accessing tools.
// It is populated once at startup and read-only while a session is live.
type ToolRegistry interface {
	Register(tool Tool)
	Get(name string) (Tool, bool)
	GetAll() []Tool
}
