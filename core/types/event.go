package types

// Event represents a structured state change emitted by an engine. Attributes
// are flat string pairs so downstream consumers can index them without caring
// about the originating module's types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
