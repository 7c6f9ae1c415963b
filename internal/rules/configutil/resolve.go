// Package configutil decodes and validates per-rule option maps.
package configutil

import (
	"fmt"
	"reflect"
	"sync"

	jsonv2 "encoding/json/v2"

	gjsonschema "github.com/google/jsonschema-go/jsonschema"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

// Resolve decodes a raw options map into T, then fills any field the user
// left unset from defaults. A nil or empty map yields defaults as-is.
//
// "Unset" means the decoded field holds its zero value. Slices and maps are
// only considered unset while nil, so an explicit empty list in the config
// clears a non-empty default rather than restoring it.
func Resolve[T any](opts map[string]any, defaults T) T {
	if len(opts) == 0 {
		return defaults
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(opts, "."), nil); err != nil {
		return defaults
	}

	var decoded T
	if err := k.Unmarshal("", &decoded); err != nil {
		return defaults
	}

	return fillZeroFields(decoded, defaults)
}

// Coerce normalizes the dynamic shapes a rule config value may arrive in:
// a typed T, a *T, or a raw map (which goes through Resolve). Anything
// else, including a nil *T, falls back to defaults.
func Coerce[T any](config any, defaults T) T {
	switch v := config.(type) {
	case *T:
		if v != nil {
			return *v
		}
	case map[string]any:
		return Resolve(v, defaults)
	case T:
		return v
	}
	return defaults
}

// fillZeroFields copies src's value into every settable zero-valued field
// of dst. Nested struct fields are left alone; option structs are flat.
func fillZeroFields[T any](dst, src T) T {
	dv := reflect.ValueOf(&dst).Elem()
	if dv.Kind() != reflect.Struct {
		return dst
	}
	sv := reflect.ValueOf(src)

	for i := range dv.NumField() {
		field := dv.Field(i)
		if !field.CanSet() || field.Kind() == reflect.Struct {
			continue
		}
		if field.IsZero() {
			field.Set(sv.Field(i))
		}
	}
	return dst
}

// schemaCache holds resolved schemas keyed by their serialized form, so a
// rule's schema is parsed once per process rather than once per file.
var schemaCache sync.Map

// ValidateWithSchema checks config against a JSON Schema given as a plain
// map. A nil schema or nil config passes trivially.
func ValidateWithSchema(config any, schema map[string]any) error {
	if schema == nil || configIsNil(config) {
		return nil
	}

	// Deterministic marshaling keeps the cache key stable across runs.
	data, err := jsonv2.Marshal(schema, jsonv2.Deterministic(true))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	resolved, err := compiledSchema(data)
	if err != nil {
		return err
	}

	// Round-trip the config through JSON so the validator sees the same
	// shapes (map[string]any, float64) it would read from a config file.
	raw, err := jsonv2.Marshal(config)
	if err != nil {
		return err
	}
	var doc any
	if err := jsonv2.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return resolved.Validate(doc)
}

func compiledSchema(data []byte) (*gjsonschema.Resolved, error) {
	key := string(data)
	if hit, ok := schemaCache.Load(key); ok {
		if resolved, ok := hit.(*gjsonschema.Resolved); ok {
			return resolved, nil
		}
	}

	var schema gjsonschema.Schema
	if err := jsonv2.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, resolved)
	return resolved, nil
}

func configIsNil(config any) bool {
	if config == nil {
		return true
	}
	rv := reflect.ValueOf(config)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
