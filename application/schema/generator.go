// Package schema generates JSON Schemas for configuration structs, the
// plugin configurations of the demo modules and the runner's harness files.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

type generatorConfig struct {
	fieldNameTag string
	title        string
}

// Option configures GenerateSchema.
type Option func(*generatorConfig)

// WithFieldNameTag names properties after tag ("yaml", ...) instead of json.
func WithFieldNameTag(tag string) Option {
	return func(c *generatorConfig) {
		c.fieldNameTag = tag
	}
}

// WithTitle sets the schema title.
func WithTitle(title string) Option {
	return func(c *generatorConfig) {
		c.title = title
	}
}

// GenerateSchema creates a JSON Schema (Draft 2020-12) from a Go struct.
// Descriptions come from `jsonschema:"description=..."` tags.
func GenerateSchema(v any, opts ...Option) ([]byte, error) {
	var cfg generatorConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		FieldNameTag:   cfg.fieldNameTag,
	}
	s := reflector.Reflect(v)
	if cfg.title != "" {
		s.Title = cfg.title
	}

	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return jsonBytes, nil
}
