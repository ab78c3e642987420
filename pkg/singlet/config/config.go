// Package config loads registry configuration for singlet.
//
// A registry configuration is a flat key/value document (YAML or JSON)
// decoded into a Config, whose typed accessors fall back to a default on
// a missing or mistyped value. singlet.FromConfig consumes the keys in
// RegistryKeys; anything else is preserved for the embedding application
// and can be audited with Config.Unknown.
package config

import (
	"sort"
	"time"
)

// RegistryKeys lists the configuration keys singlet.FromConfig consumes.
//
//	name          registry name used in logs, metrics, events, journal
//	wait_warning  slow-wait warning threshold (duration)
//	metrics       enable OpenTelemetry metrics (bool)
//	tracing       enable OpenTelemetry tracing (bool)
var RegistryKeys = []string{"name", "wait_warning", "metrics", "tracing"}

// Config holds a decoded registry configuration document.
// The zero value behaves like an empty document.
type Config struct {
	data map[string]any
}

// New wraps an already-decoded document. A nil map yields an empty
// Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string under key, or fallback when the key is
// absent or holds a non-string.
func (c Config) String(key, fallback string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return fallback
}

// Duration returns the duration under key, or fallback when the key is
// absent or not convertible.
//
// Accepted forms: a time.ParseDuration string ("500ms", "1m30s"), a
// bare int/int64/float64 counted in seconds (the YAML and JSON number
// types), or a time.Duration placed directly in the map.
func (c Config) Duration(key string, fallback time.Duration) time.Duration {
	switch v := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case time.Duration:
		return v
	}
	return fallback
}

// Bool returns the bool under key, or fallback when the key is absent
// or holds a non-bool. Strings are not coerced.
func (c Config) Bool(key string, fallback bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return fallback
}

// Int returns the integer under key, or fallback when the key is absent
// or not convertible. JSON numbers arrive as float64; a fractional
// value falls back rather than truncating.
func (c Config) Int(key string, fallback int) int {
	switch v := c.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return fallback
}

// Has reports whether key is present in the document.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Unknown returns the document's keys outside the known set, sorted.
// With no arguments it checks against RegistryKeys, which catches
// misspelled registry options ("wait_warn", "metric") in loaded files.
func (c Config) Unknown(known ...string) []string {
	if len(known) == 0 {
		known = RegistryKeys
	}
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}

	var extra []string
	for k := range c.data {
		if !set[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

// Raw returns the underlying document map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
