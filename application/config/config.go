// Package config decodes and validates plugin configuration.
//
// Configuration arrives as raw bytes, from the PluginConfiguration buffer
// inside a guest or from a harness file on the host. Both JSON and YAML are
// accepted since YAML is a superset of JSON; typed targets are validated
// with `validate` struct tags. The package does not touch the host imports,
// so host-side code can use it too.
package config

import (
	stdErrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mosn/layotto/domain/errors"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

// Decode unmarshals data into target, a pointer to struct, and validates it.
// Field names follow the `yaml` tags of target. Empty data only runs the
// validation, so defaults set on target before the call survive.
func Decode(data []byte, target any) error {
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, target); err != nil {
			return &errors.ConfigError{Err: fmt.Errorf("failed to parse configuration: %w", err)}
		}
	}
	return Validate(target)
}

// Validate runs the struct validation of target.
func Validate(target any) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stdErrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &errors.ConfigError{
			Field: fe.Field(),
			Err:   fmt.Errorf("failed on the '%s' rule", fe.Tag()),
		}
	}
	return &errors.ConfigError{Err: err}
}

// Parse unmarshals data into an untyped Config. Empty data yields an empty
// Config.
func Parse(data []byte) (Config, error) {
	cfg := Config{}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &errors.ConfigError{Err: fmt.Errorf("failed to parse configuration: %w", err)}
	}
	return cfg, nil
}
