package yamlspec

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ModelFile is the decoded form of a model file.
type ModelFile struct {
	Types   []TypeRecord   `mapstructure:"types"`
	Objects []ObjectRecord `mapstructure:"objects"`
}

// TypeRecord declares one logical type.
type TypeRecord struct {
	Name        string             `mapstructure:"name"`
	Kind        string             `mapstructure:"kind"`
	Title       string             `mapstructure:"title"`
	Fields      map[string]any     `mapstructure:"fields"`
	Properties  []PropertyRecord   `mapstructure:"properties"`
	Collections []CollectionRecord `mapstructure:"collections"`
	Actions     []ActionRecord     `mapstructure:"actions"`
}

// Condition is a CEL expression with the reason shown when it vetoes.
// A plain string is shorthand for an expression without a reason.
type Condition struct {
	Expr   string `mapstructure:"expr"`
	Reason string `mapstructure:"reason"`
}

func (c Condition) IsSet() bool { return c.Expr != "" }

type PropertyRecord struct {
	ID           string    `mapstructure:"id"`
	Name         string    `mapstructure:"name"`
	Type         string    `mapstructure:"type"`
	Optional     bool      `mapstructure:"optional"`
	ReadOnly     bool      `mapstructure:"readonly"`
	Hidden       Condition `mapstructure:"hidden"`
	Disabled     Condition `mapstructure:"disabled"`
	Valid        Condition `mapstructure:"valid"`
	Choices      string    `mapstructure:"choices"`
	AutoComplete string    `mapstructure:"autocomplete"`
}

type CollectionRecord struct {
	ID     string    `mapstructure:"id"`
	Name   string    `mapstructure:"name"`
	Type   string    `mapstructure:"type"`
	Hidden Condition `mapstructure:"hidden"`
}

type ActionRecord struct {
	ID        string            `mapstructure:"id"`
	Name      string            `mapstructure:"name"`
	Semantics string            `mapstructure:"semantics"`
	Returns   string            `mapstructure:"returns"`
	Params    []ParamRecord     `mapstructure:"params"`
	Hidden    Condition         `mapstructure:"hidden"`
	Disabled  Condition         `mapstructure:"disabled"`
	Valid     Condition         `mapstructure:"valid"`
	Effects   map[string]string `mapstructure:"effects"`
	Create    *CreateRecord     `mapstructure:"create"`
	Result    string            `mapstructure:"result"`
}

// CreateRecord makes an action instantiate a new object, optionally
// appending it to a collection field of the owner.
type CreateRecord struct {
	Type     string            `mapstructure:"type"`
	Fields   map[string]string `mapstructure:"fields"`
	AppendTo string            `mapstructure:"append_to"`
}

type ParamRecord struct {
	ID              string    `mapstructure:"id"`
	Name            string    `mapstructure:"name"`
	Type            string    `mapstructure:"type"`
	Plural          bool      `mapstructure:"plural"`
	Optional        bool      `mapstructure:"optional"`
	Default         string    `mapstructure:"default"`
	Choices         string    `mapstructure:"choices"`
	AutoComplete    string    `mapstructure:"autocomplete"`
	MinSearchLength int       `mapstructure:"min_search_length"`
	Valid           Condition `mapstructure:"valid"`
}

// ObjectRecord seeds an instance.
type ObjectRecord struct {
	Type   string         `mapstructure:"type"`
	ID     string         `mapstructure:"id"`
	Fields map[string]any `mapstructure:"fields"`
}

var conditionType = reflect.TypeOf(Condition{})

// conditionHook accepts a bare string wherever a Condition is expected.
func conditionHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != conditionType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"expr": data}, nil
}

// literalHook lets scalars stand for the CEL literal they spell, so that
// `default: 1` is the same as `default: "1"`.
func literalHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int64, reflect.Float64:
		return fmt.Sprint(data), nil
	}
	return data, nil
}

// Decode parses a YAML model file.
func Decode(data []byte) (*ModelFile, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model yaml: %w", err)
	}

	var model ModelFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(conditionHook, literalHook),
		ErrorUnused: true,
		Result:      &model,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &model, nil
}
