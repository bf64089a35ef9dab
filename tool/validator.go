package tool

import (
	"encoding/json"
	"fmt"
)

// Validator checks tool invocation inputs against the declared schema.
type Validator struct{}

// NewValidator returns a validator for tool input checking.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateInput checks a raw JSON input document against a tool schema.
// Schema problems wrap ErrInvalidSchema; input problems wrap ErrInvalidInput.
// Null values and absent optional fields pass.
func (v *Validator) ValidateInput(schema ToolSchema, input json.RawMessage) error {
	if schema.Type != "object" {
		return fmt.Errorf("%w: schema type must be 'object', got %q", ErrInvalidSchema, schema.Type)
	}

	var fields map[string]any
	if err := json.Unmarshal(input, &fields); err != nil {
		return fmt.Errorf("%w: not valid JSON: %v", ErrInvalidInput, err)
	}

	for _, name := range schema.Required {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("%w: missing required field %q", ErrInvalidInput, name)
		}
	}

	for name, def := range schema.Properties {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := v.checkValue(name, def, value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	return nil
}

// checkValue validates one value against its property definition. path is
// the dotted location of the value inside the input, used in messages.
func (v *Validator) checkValue(path string, def PropertyDef, value any) error {
	if value == nil {
		return nil
	}

	if err := checkType(path, def.Type, value); err != nil {
		return err
	}
	if err := checkEnum(path, def.Enum, value); err != nil {
		return err
	}

	switch def.Type {
	case "number", "integer":
		return checkRange(path, def, value)
	case "string":
		return checkLength(path, def, value)
	case "array":
		return v.checkItems(path, def, value)
	case "object":
		return v.checkNested(path, def, value)
	}
	return nil
}

func checkType(path, want string, value any) error {
	switch want {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q: expected string, got %T", path, value)
		}
	case "number":
		if _, err := asFloat64(value); err != nil {
			return fmt.Errorf("field %q: expected number, got %T", path, value)
		}
	case "integer":
		f, err := asFloat64(value)
		if err != nil {
			return fmt.Errorf("field %q: expected integer, got %T", path, value)
		}
		if f != float64(int64(f)) {
			return fmt.Errorf("field %q: expected integer, got float %v", path, f)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q: expected boolean, got %T", path, value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("field %q: expected array, got %T", path, value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("field %q: expected object, got %T", path, value)
		}
	}
	return nil
}

func checkEnum(path string, allowed []string, value any) error {
	if len(allowed) == 0 {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q: expected string for enum check, got %T", path, value)
	}
	for _, e := range allowed {
		if s == e {
			return nil
		}
	}
	return fmt.Errorf("field %q: value %q not in allowed values %v", path, s, allowed)
}

func checkRange(path string, def PropertyDef, value any) error {
	f, err := asFloat64(value)
	if err != nil {
		return fmt.Errorf("field %q: %w", path, err)
	}
	if def.Minimum != nil && f < *def.Minimum {
		return fmt.Errorf("field %q: value %v is less than minimum %v", path, f, *def.Minimum)
	}
	if def.Maximum != nil && f > *def.Maximum {
		return fmt.Errorf("field %q: value %v exceeds maximum %v", path, f, *def.Maximum)
	}
	return nil
}

func checkLength(path string, def PropertyDef, value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if def.MinLength != nil && len(s) < *def.MinLength {
		return fmt.Errorf("field %q: string length %d is less than minimum %d", path, len(s), *def.MinLength)
	}
	if def.MaxLength != nil && len(s) > *def.MaxLength {
		return fmt.Errorf("field %q: string length %d exceeds maximum %d", path, len(s), *def.MaxLength)
	}
	return nil
}

func (v *Validator) checkItems(path string, def PropertyDef, value any) error {
	if def.Items == nil {
		return nil
	}
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	for i, item := range arr {
		if err := v.checkValue(fmt.Sprintf("%s[%d]", path, i), *def.Items, item); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkNested(path string, def PropertyDef, value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	for name, nested := range def.Properties {
		inner, present := obj[name]
		if !present {
			continue
		}
		if err := v.checkValue(path+"."+name, nested, inner); err != nil {
			return err
		}
	}
	return nil
}

// asFloat64 accepts the numeric shapes json.Unmarshal and callers hand us.
func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
}
