package tool

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Definition is a wire-level tool definition: the shape handed to a
// provider's function-calling API before dialect sanitizing.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ProviderFamily identifies a function-calling API dialect. Providers in
// the same family share a JSON-Schema capability set, so adding a provider
// is a data change, not new control flow.
type ProviderFamily string

const (
	// FamilyAnthropic accepts full JSON Schema; nothing is stripped.
	FamilyAnthropic ProviderFamily = "anthropic"

	// FamilyOpenAI covers OpenAI and OpenAI-compatible endpoints.
	FamilyOpenAI ProviderFamily = "openai"

	// FamilyGoogle covers Gemini and Vertex endpoints.
	FamilyGoogle ProviderFamily = "google"
)

// capability describes the schema keywords a family rejects.
type capability struct {
	// forbiddenKeywords are stripped from every schema node.
	forbiddenKeywords map[string]bool

	// allowedFormats restricts "format" values; nil allows all. A format
	// outside the set causes the format keyword itself to be stripped.
	allowedFormats map[string]bool
}

var familyCapabilities = map[ProviderFamily]capability{
	FamilyAnthropic: {},
	FamilyOpenAI: {
		forbiddenKeywords: map[string]bool{
			"minLength": true,
			"maxLength": true,
			"pattern":   true,
			"default":   true,
			"examples":  true,
			"$schema":   true,
		},
	},
	FamilyGoogle: {
		forbiddenKeywords: map[string]bool{
			"additionalProperties": true,
			"$schema":              true,
			"$defs":                true,
			"definitions":          true,
			"exclusiveMinimum":     true,
			"exclusiveMaximum":     true,
			"examples":             true,
			"default":              true,
		},
		allowedFormats: map[string]bool{
			"enum":      true,
			"date-time": true,
		},
	},
}

// FamilyForProvider maps a provider name (e.g. "anthropic", "openrouter",
// "google-vertex") onto its dialect family. Unknown providers get the
// OpenAI-compatible dialect, the lowest common denominator.
func FamilyForProvider(provider string) ProviderFamily {
	name := strings.ToLower(provider)
	switch {
	case strings.HasPrefix(name, "anthropic"):
		return FamilyAnthropic
	case strings.HasPrefix(name, "google"),
		strings.HasPrefix(name, "gemini"),
		strings.HasPrefix(name, "vertex"):
		return FamilyGoogle
	default:
		return FamilyOpenAI
	}
}

// SanitizeDefinitions rewrites tool schemas for the target provider's
// dialect, stripping the schema keywords its function-calling API rejects
// from every nested schema node. The input slice and its schemas are never
// mutated; when no schema needs a change the input slice itself is
// returned, so callers can detect the no-op by reference.
func SanitizeDefinitions(provider string, defs []Definition) []Definition {
	caps := familyCapabilities[FamilyForProvider(provider)]
	if len(caps.forbiddenKeywords) == 0 && caps.allowedFormats == nil {
		return defs
	}

	var out []Definition
	for i, def := range defs {
		sanitized, changed := sanitizeSchema(string(def.InputSchema), caps)
		if !changed {
			if out != nil {
				out = append(out, def)
			}
			continue
		}
		if out == nil {
			out = make([]Definition, i, len(defs))
			copy(out, defs[:i])
		}
		def.InputSchema = json.RawMessage(sanitized)
		out = append(out, def)
	}

	if out == nil {
		return defs
	}
	return out
}

// SanitizeSchema rewrites a single raw schema for the target provider.
// Returns the input unchanged (same reference) when nothing is stripped.
func SanitizeSchema(provider string, schema json.RawMessage) json.RawMessage {
	caps := familyCapabilities[FamilyForProvider(provider)]
	sanitized, changed := sanitizeSchema(string(schema), caps)
	if !changed {
		return schema
	}
	return json.RawMessage(sanitized)
}

// sanitizeSchema deletes forbidden keywords one path at a time. Paths go
// stale after each delete, so the walk restarts until clean; schemas are
// small enough that this stays cheap.
func sanitizeSchema(schema string, caps capability) (string, bool) {
	if !gjson.Valid(schema) {
		return schema, false
	}

	changed := false
	for {
		path, found := findForbidden(gjson.Parse(schema), "", caps, true)
		if !found {
			break
		}
		next, err := sjson.Delete(schema, path)
		if err != nil {
			break
		}
		schema = next
		changed = true
	}
	return schema, changed
}

// schemaMapKeywords are keywords whose object value maps arbitrary names to
// schema nodes; the names themselves are never treated as keywords.
var schemaMapKeywords = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"$defs":             true,
	"definitions":       true,
}

// opaqueKeywords carry data, not schemas; never recursed into.
var opaqueKeywords = map[string]bool{
	"enum":     true,
	"const":    true,
	"default":  true,
	"examples": true,
}

// findForbidden locates the first forbidden keyword in document order and
// returns its gjson path. isSchema marks whether the current object is a
// schema node (whose keys are keywords) or a name-to-schema map.
func findForbidden(node gjson.Result, prefix string, caps capability, isSchema bool) (string, bool) {
	var foundPath string
	var found bool

	walk := func(key, childPrefix string, value gjson.Result) bool {
		if isSchema {
			if caps.forbiddenKeywords[key] {
				foundPath = childPrefix
				found = true
				return false
			}
			if key == "format" && caps.allowedFormats != nil && !caps.allowedFormats[value.String()] {
				foundPath = childPrefix
				found = true
				return false
			}
			if opaqueKeywords[key] {
				return true
			}
		}

		childIsSchema := true
		if isSchema && schemaMapKeywords[key] {
			childIsSchema = false
		}

		switch {
		case value.IsObject():
			if path, ok := findForbidden(value, childPrefix, caps, childIsSchema); ok {
				foundPath = path
				found = true
				return false
			}
		case value.IsArray():
			for i, elem := range value.Array() {
				if !elem.IsObject() && !elem.IsArray() {
					continue
				}
				elemPath := childPrefix + "." + strconv.Itoa(i)
				if path, ok := findForbidden(elem, elemPath, caps, true); ok {
					foundPath = path
					found = true
					return false
				}
			}
		}
		return true
	}

	node.ForEach(func(key, value gjson.Result) bool {
		childPrefix := pathEscape(key.String())
		if prefix != "" {
			childPrefix = prefix + "." + childPrefix
		}
		return walk(key.String(), childPrefix, value)
	})

	return foundPath, found
}

// pathEscape escapes a JSON key for use in a gjson/sjson path.
func pathEscape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
