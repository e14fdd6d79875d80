package coerce

import (
	"fmt"
	"reflect"

	"github.com/spf13/cast"
)

// ============================================================================
// SAFE COERCION HELPERS
// Each helper converts an interface{} to the target type and reports a clear
// error instead of panicking.
// ============================================================================

// ToString converts input to a string. Nil becomes "".
func ToString(input interface{}) string {
	if input == nil {
		return ""
	}
	s, err := cast.ToStringE(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return s
}

// ToInt accepts numeric strings ("123"), whole floats and the usual int kinds.
func ToInt(input interface{}) (int, error) {
	if input == nil {
		return 0, nil
	}
	i, err := cast.ToIntE(input)
	if err != nil {
		return 0, fmt.Errorf("failed to coerce value '%v' (type %T) to int", input, input)
	}
	return i, nil
}

// ToBool understands true/false, 1/0, "true"/"false", "on"/"off", "yes"/"no".
func ToBool(input interface{}) (bool, error) {
	if input == nil {
		return false, nil
	}
	if s, ok := input.(string); ok {
		switch s {
		case "on", "yes", "ON", "YES", "On", "Yes":
			return true, nil
		case "off", "no", "OFF", "NO", "Off", "No", "":
			return false, nil
		}
	}
	b, err := cast.ToBoolE(input)
	if err != nil {
		return false, fmt.Errorf("failed to coerce value '%v' (type %T) to bool", input, input)
	}
	return b, nil
}

// ToBoolDef is ToBool with a fallback for unparsable input.
func ToBoolDef(input interface{}, defaultVal bool) bool {
	if input == nil {
		return defaultVal
	}
	b, err := ToBool(input)
	if err != nil {
		return defaultVal
	}
	return b
}

// ToMap converts any Go map with string-like keys to map[string]interface{}.
// Strings are rejected even when they hold JSON: a template value that is a
// string must stay a string.
func ToMap(input interface{}) (map[string]interface{}, error) {
	if input == nil {
		return nil, nil
	}
	switch v := input.(type) {
	case map[string]interface{}:
		return v, nil
	case string, []byte:
		return nil, fmt.Errorf("failed to coerce value (type %T) to map", input)
	}

	if m, err := cast.ToStringMapE(input); err == nil {
		return m, nil
	}

	rv := reflect.ValueOf(input)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("failed to coerce value (type %T) to map", input)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("failed to coerce value (type %T) to map", input)
	}
	m := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, nil
}

// IsMap reports whether input is a map ToMap can convert.
func IsMap(input interface{}) bool {
	if input == nil {
		return false
	}
	rv := reflect.ValueOf(input)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return false
	}
	switch rv.Type().Key().Kind() {
	case reflect.String, reflect.Interface:
		return true
	}
	return false
}

// ToSlice converts input to []interface{}.
func ToSlice(input interface{}) ([]interface{}, error) {
	if input == nil {
		return nil, nil
	}
	s, err := cast.ToSliceE(input)
	if err != nil {
		return nil, fmt.Errorf("failed to coerce value (type %T) to slice", input)
	}
	return s, nil
}

// IsEmpty mirrors the loose emptiness check templates expect: nil, "", "0",
// false, numeric zero and empty collections are empty.
func IsEmpty(input interface{}) bool {
	if input == nil {
		return true
	}
	switch v := input.(type) {
	case string:
		return v == "" || v == "0"
	case bool:
		return !v
	}

	rv := reflect.ValueOf(input)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmpty(rv.Elem().Interface())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Chan:
		return rv.Len() == 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	}
	return false
}
