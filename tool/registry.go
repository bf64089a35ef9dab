package tool

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
)

// Registry manages tools and renders them into provider wire formats.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: tool cannot be nil", ErrInvalidSchema)
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("%w: tool name cannot be empty", ErrInvalidSchema)
	}

	schema := tool.InputSchema()
	if schema.Type != "object" {
		return fmt.Errorf("%w: tool %s: schema type must be 'object', got %q",
			ErrInvalidSchema, name, schema.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = tool
	return nil
}

// RegisterAll adds multiple tools to the registry
func (r *Registry) RegisterAll(tools []Tool) error {
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// Has checks if a tool is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// List returns all registered tool names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ValidateCall checks a proposed tool invocation against the registered
// tool's declared schema. Runtimes call this before dispatching a tool_use
// block so malformed inputs are rejected with a usable message instead of
// reaching the tool.
func (r *Registry) ValidateCall(toolName string, input json.RawMessage) error {
	tool, exists := r.Get(toolName)
	if !exists {
		return fmt.Errorf("%w: %s", ErrToolNotFound, toolName)
	}

	return NewValidator().ValidateInput(tool.InputSchema(), input)
}

// Definitions renders every registered tool as a wire-level definition with
// its input schema marshaled to raw JSON, sorted by name. The result feeds
// the provider schema sanitizer before call assembly.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.tools))
	for _, t := range r.tools {
		raw, err := t.InputSchema().Raw()
		if err != nil {
			// ToolSchema is plain data; marshal cannot fail in practice.
			continue
		}
		defs = append(defs, Definition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: raw,
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// ToAnthropicTools converts all registered tools to Anthropic tool parameters
func (r *Registry) ToAnthropicTools() []anthropic.ToolParam {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]anthropic.ToolParam, 0, len(names))
	for _, name := range names {
		params = append(params, convertToolToParam(r.tools[name]))
	}

	return params
}

// ToAnthropicToolUnions converts tools to union parameters
func (r *Registry) ToAnthropicToolUnions() []anthropic.ToolUnionParam {
	params := r.ToAnthropicTools()
	unions := make([]anthropic.ToolUnionParam, len(params))

	for i := range params {
		unions[i] = anthropic.ToolUnionParam{
			OfTool: &params[i],
		}
	}

	return unions
}

// convertToolToParam converts a single tool to Anthropic format
func convertToolToParam(tool Tool) anthropic.ToolParam {
	schema := tool.InputSchema()

	properties := make(map[string]interface{})
	for propName, propDef := range schema.Properties {
		properties[propName] = convertPropertyDef(propDef)
	}

	inputSchema := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: properties,
	}

	if len(schema.Required) > 0 {
		inputSchema.Required = schema.Required
	}

	return anthropic.ToolParam{
		Name:        tool.Name(),
		Description: anthropic.String(tool.Description()),
		InputSchema: inputSchema,
	}
}

// convertPropertyDef converts a property definition to wire format
func convertPropertyDef(def PropertyDef) map[string]interface{} {
	prop := map[string]interface{}{
		"type": def.Type,
	}

	if def.Description != "" {
		prop["description"] = def.Description
	}

	if len(def.Enum) > 0 {
		prop["enum"] = def.Enum
	}

	if def.Minimum != nil {
		prop["minimum"] = *def.Minimum
	}

	if def.Maximum != nil {
		prop["maximum"] = *def.Maximum
	}

	if def.MinLength != nil {
		prop["minLength"] = *def.MinLength
	}

	if def.MaxLength != nil {
		prop["maxLength"] = *def.MaxLength
	}

	if def.Items != nil {
		prop["items"] = convertPropertyDef(*def.Items)
	}

	if len(def.Properties) > 0 {
		nestedProps := make(map[string]interface{})
		for key, nestedDef := range def.Properties {
			nestedProps[key] = convertPropertyDef(nestedDef)
		}
		prop["properties"] = nestedProps
	}

	return prop
}
