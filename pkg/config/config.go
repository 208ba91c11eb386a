package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shuldan/reqreply/pkg/contracts"
)

// MapConfig is a read-only view over nested maps addressed by dotted keys,
// e.g. "broker.drivers.redis.db".
type MapConfig struct {
	values map[string]any
}

var _ contracts.Config = (*MapConfig)(nil)

func NewMapConfig(values map[string]any) contracts.Config {
	if values == nil {
		values = map[string]any{}
	}
	return &MapConfig{values: values}
}

func (c *MapConfig) Has(key string) bool {
	_, ok := c.find(key)
	return ok
}

func (c *MapConfig) Get(key string) any {
	value, _ := c.find(key)
	return value
}

func (c *MapConfig) GetString(key string, defaultVal ...string) string {
	v, ok := c.find(key)
	if !ok {
		return getFirst(defaultVal)
	}
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *MapConfig) GetInt(key string, defaultVal ...int) int {
	v, ok := c.find(key)
	if !ok {
		return getFirst(defaultVal)
	}
	i, ok := toInt64(v)
	if !ok || i < math.MinInt || i > math.MaxInt {
		return getFirst(defaultVal)
	}
	return int(i)
}

func (c *MapConfig) GetInt64(key string, defaultVal ...int64) int64 {
	v, ok := c.find(key)
	if !ok {
		return getFirst(defaultVal)
	}
	if i, ok := toInt64(v); ok {
		return i
	}
	return getFirst(defaultVal)
}

func (c *MapConfig) GetFloat64(key string, defaultVal ...float64) float64 {
	v, ok := c.find(key)
	if !ok {
		return getFirst(defaultVal)
	}
	switch n := v.(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	default:
		if i, ok := toInt64(v); ok {
			return float64(i)
		}
	}
	return getFirst(defaultVal)
}

func (c *MapConfig) GetBool(key string, defaultVal ...bool) bool {
	v, ok := c.find(key)
	if !ok {
		return getFirst(defaultVal)
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "on", "yes", "y":
			return true
		case "false", "0", "off", "no", "n":
			return false
		}
	default:
		if i, ok := toInt64(v); ok {
			return i != 0
		}
	}
	return getFirst(defaultVal)
}

// GetDuration accepts Go duration strings ("500ms", "2s") or plain numbers,
// which are read in the unit given by the key's "_ms" / "_s" suffix and
// default to milliseconds.
func (c *MapConfig) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	v, ok := c.find(key)
	if !ok {
		return getFirst(defaultVal)
	}
	if s, ok := v.(string); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d
		}
	}
	i, ok := toInt64(v)
	if !ok {
		return getFirst(defaultVal)
	}
	if strings.HasSuffix(key, "_s") {
		return time.Duration(i) * time.Second
	}
	return time.Duration(i) * time.Millisecond
}

func (c *MapConfig) GetStringSlice(key string, separator ...string) []string {
	v, ok := c.find(key)
	if !ok || v == nil {
		return nil
	}

	sep := ","
	if len(separator) > 0 {
		sep = separator[0]
	}

	switch val := v.(type) {
	case []string:
		return val
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			result[i] = fmt.Sprintf("%v", item)
		}
		return result
	case string:
		parts := strings.Split(val, sep)
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	default:
		return []string{fmt.Sprintf("%v", v)}
	}
}

func (c *MapConfig) GetSub(key string) (contracts.Config, bool) {
	sub, ok := c.find(key)
	if !ok {
		return nil, false
	}
	if m, ok := asStringMap(sub); ok {
		return NewMapConfig(m), true
	}
	return nil, false
}

func (c *MapConfig) All() map[string]any {
	cp := make(map[string]any, len(c.values))
	for k, v := range c.values {
		cp[k] = v
	}
	return cp
}

func (c *MapConfig) find(path string) (any, bool) {
	var current any = c.values
	for _, k := range strings.Split(path, ".") {
		m, ok := asStringMap(current)
		if !ok {
			return nil, false
		}
		if current, ok = m[k]; !ok {
			return nil, false
		}
	}
	return current, true
}

func asStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprintf("%v", k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n < math.MinInt64 || n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func getFirst[T any](values []T) T {
	var zero T
	if len(values) > 0 {
		return values[0]
	}
	return zero
}
