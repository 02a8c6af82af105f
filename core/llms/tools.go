package llms

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool is a named, schema-described action the model may request. The input
// schema is derived from the parameter struct of the execute function, so the
// wire description and the unmarshaling target can never drift apart.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema

	execute func(arguments string) (string, error)
}

// NewTool builds a tool whose parameters are described by the struct type T.
// Field names and descriptions come from `json` and `jsonschema` struct tags.
func NewTool[T any](name, description string, execute func(parameters T) (string, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true}

	var parameters T
	var schema *jsonschema.Schema
	if t := reflect.TypeOf(parameters); t != nil && t.Kind() == reflect.Ptr {
		schema = reflector.ReflectFromType(t.Elem())
	} else {
		schema = reflector.Reflect(parameters)
	}
	// Provider APIs reject schemas carrying a $schema version marker.
	schema.Version = ""

	return Tool{
		Name:        name,
		Description: description,
		InputSchema: schema,
		execute: func(arguments string) (string, error) {
			if arguments == "" {
				arguments = "{}"
			}
			var parameters T
			if err := json.Unmarshal([]byte(arguments), &parameters); err != nil {
				return "", fmt.Errorf("failed to unmarshal tool arguments: %w", err)
			}
			return execute(parameters)
		},
	}
}

// Execute runs the tool against the raw JSON arguments of a [ToolCall].
func (t Tool) Execute(arguments string) (string, error) {
	if t.execute == nil {
		return "", fmt.Errorf("tool %q has no execute function", t.Name)
	}
	return t.execute(arguments)
}
