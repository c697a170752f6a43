package config

import (
	"fmt"
	"strings"

	"github.com/mosn/layotto/domain/errors"
)

// Config is an untyped plugin configuration, as returned by Parse.
type Config = map[string]any

// lookup resolves key in cfg. A dotted key ("store.name") descends into
// nested mappings when no top-level entry has that exact name.
func lookup(cfg Config, key string) (any, bool) {
	if v, ok := cfg[key]; ok {
		return v, true
	}
	head, rest, dotted := strings.Cut(key, ".")
	if !dotted {
		return nil, false
	}
	nested, ok := cfg[head].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}

// get resolves key and converts the value with as.
func get[T any](cfg Config, key string, as func(any) (T, bool)) (T, bool) {
	var zero T
	v, ok := lookup(cfg, key)
	if !ok {
		return zero, false
	}
	return as(v)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asInt accepts the integer kinds yaml.v3 produces and whole floats from JSON.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// GetString returns the string at key.
func GetString(cfg Config, key string) (string, bool) { return get(cfg, key, asString) }

// GetInt returns the integer at key.
func GetInt(cfg Config, key string) (int, bool) { return get(cfg, key, asInt) }

// GetFloat returns the number at key.
func GetFloat(cfg Config, key string) (float64, bool) { return get(cfg, key, asFloat) }

// GetBool returns the bool at key.
func GetBool(cfg Config, key string) (bool, bool) { return get(cfg, key, asBool) }

// GetStringSlice returns the list of strings at key.
func GetStringSlice(cfg Config, key string) ([]string, bool) { return get(cfg, key, asStringSlice) }

func withDefault[T any](v T, ok bool, defaultValue T) T {
	if !ok {
		return defaultValue
	}
	return v
}

// GetStringDefault returns the string at key, or defaultValue when it is
// missing or not a string.
func GetStringDefault(cfg Config, key, defaultValue string) string {
	v, ok := GetString(cfg, key)
	return withDefault(v, ok, defaultValue)
}

// GetIntDefault is GetStringDefault for integers.
func GetIntDefault(cfg Config, key string, defaultValue int) int {
	v, ok := GetInt(cfg, key)
	return withDefault(v, ok, defaultValue)
}

// GetFloatDefault is GetStringDefault for numbers.
func GetFloatDefault(cfg Config, key string, defaultValue float64) float64 {
	v, ok := GetFloat(cfg, key)
	return withDefault(v, ok, defaultValue)
}

// GetBoolDefault is GetStringDefault for bools.
func GetBoolDefault(cfg Config, key string, defaultValue bool) bool {
	v, ok := GetBool(cfg, key)
	return withDefault(v, ok, defaultValue)
}

func must[T any](cfg Config, key, kind string, as func(any) (T, bool)) (T, error) {
	v, ok := get(cfg, key, as)
	if !ok {
		return v, &errors.ConfigError{Field: key, Err: fmt.Errorf("missing or not a %s", kind)}
	}
	return v, nil
}

// MustGetString returns the string at key or a *errors.ConfigError naming it.
func MustGetString(cfg Config, key string) (string, error) { return must(cfg, key, "string", asString) }

// MustGetInt returns the integer at key or a *errors.ConfigError naming it.
func MustGetInt(cfg Config, key string) (int, error) { return must(cfg, key, "integer", asInt) }

// MustGetBool returns the bool at key or a *errors.ConfigError naming it.
func MustGetBool(cfg Config, key string) (bool, error) { return must(cfg, key, "bool", asBool) }
