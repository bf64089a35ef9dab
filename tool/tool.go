// Package tool holds tool declarations, a registry that renders them into
// provider wire formats, input validation against declared schemas, and the
// per-provider schema sanitizer applied when a request is assembled.
//
// Tools here are declarations, not executables. Running a tool belongs to
// the agent runtime; this package only carries names, descriptions, and
// schemas sound enough to survive every provider dialect.
package tool

import "encoding/json"

// Tool declares a capability the model may invoke.
type Tool interface {
	// Name is the identifier the model uses to reference the tool.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// InputSchema declares the tool's parameters as a JSON Schema
	// fragment. The top-level Type must be "object".
	InputSchema() ToolSchema
}

// ToolSchema is the structured form of a tool's input schema. The registry
// marshals it to the raw JSON that sanitizing and provider conversion
// operate on.
type ToolSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]PropertyDef `json:"properties"`
	Required   []string               `json:"required,omitempty"`
}

// Raw marshals the schema into the wire form consumed by the sanitizer
// and by provider request builders.
func (s ToolSchema) Raw() (json.RawMessage, error) {
	return json.Marshal(s)
}

// PropertyDef describes a single schema property. Constraint fields that
// are nil are simply not enforced.
type PropertyDef struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Items       *PropertyDef           `json:"items,omitempty"`
	Properties  map[string]PropertyDef `json:"properties,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
	MinLength   *int                   `json:"minLength,omitempty"`
	MaxLength   *int                   `json:"maxLength,omitempty"`
}

// decl is a plain declaration with a fixed name, description, and schema.
type decl struct {
	name        string
	description string
	schema      ToolSchema
}

// New builds a Tool declaration from its parts. Use it when the runtime
// owns execution and the pipeline only needs the tool's shape.
func New(name, description string, schema ToolSchema) Tool {
	return &decl{name: name, description: description, schema: schema}
}

func (d *decl) Name() string            { return d.name }
func (d *decl) Description() string     { return d.description }
func (d *decl) InputSchema() ToolSchema { return d.schema }
