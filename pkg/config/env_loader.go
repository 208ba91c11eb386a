package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvConfigLoader maps PREFIX_SECTION__KEY=value to section.key.
type EnvConfigLoader struct {
	prefix  string
	environ func() []string
}

func NewEnvConfigLoader(prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{prefix: prefix, environ: os.Environ}
}

func (l *EnvConfigLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		key, value, found := strings.Cut(env, "=")
		if !found || !strings.HasPrefix(key, l.prefix) {
			continue
		}

		configKey := strings.ToLower(strings.TrimPrefix(key, l.prefix))
		configKey = strings.ReplaceAll(configKey, "__", ".")
		if configKey == "" {
			continue
		}

		setNested(config, configKey, parseScalar(value))
	}

	return config, nil
}

func parseScalar(value string) any {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func setNested(m map[string]any, key string, value any) {
	keys := strings.Split(key, ".")
	current := m
	for _, k := range keys[:len(keys)-1] {
		next, ok := current[k].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[k] = next
		}
		current = next
	}
	current[keys[len(keys)-1]] = value
}
