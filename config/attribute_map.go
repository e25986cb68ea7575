package config

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// AttributeMap carries free-form, driver-specific settings.
type AttributeMap map[string]interface{}

// Has reports whether the attribute is present.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// String returns the attribute as a string, or "" when absent or of another
// type.
func (am AttributeMap) String(name string) string {
	if s, ok := am[name].(string); ok {
		return s
	}
	return ""
}

// Int returns the attribute as an int, or def when absent. YAML decodes
// whole numbers as int and others as float64; both are accepted.
func (am AttributeMap) Int(name string, def int) int {
	x, has := am[name]
	if !has {
		return def
	}
	switch v := x.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

// Float64 returns the attribute as a float64, or def when absent.
func (am AttributeMap) Float64(name string, def float64) float64 {
	x, has := am[name]
	if !has {
		return def
	}
	switch v := x.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Bool returns the attribute as a bool, or def when absent.
func (am AttributeMap) Bool(name string, def bool) bool {
	if v, ok := am[name].(bool); ok {
		return v
	}
	return def
}

// Decode converts the attribute map into a driver's own config struct.
func (am AttributeMap) Decode(into interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  into,
		TagName: "yaml",
	})
	if err != nil {
		return err
	}
	return errors.Wrap(decoder.Decode(map[string]interface{}(am)), "decoding attributes")
}
