package config

type Loader interface {
	Load() (map[string]any, error)
}

var (
	_ Loader = (*YamlConfigLoader)(nil)
	_ Loader = (*EnvConfigLoader)(nil)
	_ Loader = (*ChainLoader)(nil)
	_ Loader = MapLoader(nil)
)

// MapLoader serves fixed values, typically built-in defaults.
type MapLoader map[string]any

func (m MapLoader) Load() (map[string]any, error) {
	return deepCopy(m), nil
}

func deepCopy(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			dst[k] = deepCopy(sub)
			continue
		}
		dst[k] = v
	}
	return dst
}
