package binding

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ValueType defines how values of one logical type are parsed from and
// rendered to parsable text.
type ValueType interface {
	// Name returns the logical type name (e.g., "string", "int").
	Name() string
	// GoType is the Go type of parsed values.
	GoType() reflect.Type
	// Parse converts parsable text into a value.
	Parse(text string) (any, error)
	// Format renders a value as parsable text. It fails for values of the wrong type.
	Format(value any) (string, error)
}

// Renderer is implemented by value types whose title or HTML differs from
// their parsable text.
type Renderer interface {
	Title(value any) string
	HTML(value any) string
}

// --- Built-in Type Implementations ---

// StringType handles string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) GoType() reflect.Type { return reflect.TypeOf("") }

func (t *StringType) Parse(text string) (any, error) { return text, nil }

func (t *StringType) Format(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", value)
	}
	return s, nil
}

// IntType handles integer values. Parsed values are of type int.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) GoType() reflect.Type { return reflect.TypeOf(0) }

func (t *IntType) Parse(text string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", text)
	}
	return n, nil
}

func (t *IntType) Format(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", v), nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return "", fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return "", fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType handles floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) GoType() reflect.Type { return reflect.TypeOf(float64(0)) }

func (t *FloatType) Parse(text string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil, fmt.Errorf("not a number: %q", text)
	}
	return f, nil
}

func (t *FloatType) Format(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v), nil
	default:
		return "", fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType handles boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) GoType() reflect.Type { return reflect.TypeOf(false) }

func (t *BoolType) Parse(text string) (any, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean: %q", text)
}

func (t *BoolType) Format(value any) (string, error) {
	b, ok := value.(bool)
	if !ok {
		return "", fmt.Errorf("expected bool, got %T", value)
	}
	return strconv.FormatBool(b), nil
}

func (t *BoolType) Title(value any) string {
	if b, ok := value.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

func (t *BoolType) HTML(value any) string {
	if b, ok := value.(bool); ok && b {
		return `<input type="checkbox" checked disabled>`
	}
	return `<input type="checkbox" disabled>`
}

// CustomType applies user-defined parse and format functions.
type CustomType struct {
	name   string
	goType reflect.Type
	parse  func(string) (any, error)
	format func(any) (string, error)
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) GoType() reflect.Type { return t.goType }

func (t *CustomType) Parse(text string) (any, error) { return t.parse(text) }

func (t *CustomType) Format(value any) (string, error) { return t.format(value) }

// --- Factory Functions ---

// String creates the string value type.
func String() ValueType { return &StringType{} }

// Int creates the integer value type.
func Int() ValueType { return &IntType{} }

// Float creates the float value type.
func Float() ValueType { return &FloatType{} }

// Bool creates the boolean value type.
func Bool() ValueType { return &BoolType{} }

// Custom creates a value type from user-defined functions.
func Custom(name string, goType reflect.Type, parse func(string) (any, error), format func(any) (string, error)) ValueType {
	return &CustomType{name: name, goType: goType, parse: parse, format: format}
}

// Builtins returns the built-in value types.
func Builtins() []ValueType {
	return []ValueType{String(), Int(), Float(), Bool()}
}
