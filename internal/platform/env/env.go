// Package env reads process configuration. A variable that is unset or
// only whitespace counts as unset and yields the default.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func String(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

// FirstString returns the first of keys that is set, or def.
func FirstString(def string, keys ...string) string {
	for _, key := range keys {
		if v, ok := lookup(key); ok {
			return v
		}
	}
	return def
}

func parsed[T any](key string, def T, parse func(string) (T, error)) (T, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	out, err := parse(v)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func Duration(key string, def time.Duration) (time.Duration, error) {
	return parsed(key, def, time.ParseDuration)
}

func Bool(key string, def bool) (bool, error) {
	return parsed(key, def, strconv.ParseBool)
}

func Int(key string, def int) (int, error) {
	return parsed(key, def, strconv.Atoi)
}

func Float(key string, def float64) (float64, error) {
	return parsed(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}
