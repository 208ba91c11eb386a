package config

import "github.com/shuldan/reqreply/pkg/errors"

// ChainLoader merges layers in order; later loaders override earlier ones.
// A failing layer is skipped unless every layer fails.
type ChainLoader struct {
	loaders []Loader
}

func NewChainLoader(loaders ...Loader) *ChainLoader {
	return &ChainLoader{loaders: loaders}
}

func (c *ChainLoader) Load() (map[string]any, error) {
	final := make(map[string]any)
	var lastErr error
	loaded := 0

	for _, loader := range c.loaders {
		config, err := loader.Load()
		if err != nil {
			if !isMissingSource(err) {
				return nil, err
			}
			lastErr = err
			continue
		}
		mergeMaps(final, config)
		loaded++
	}

	if loaded == 0 {
		return nil, ErrNoConfigSource.WithDetail("loader", "chain").WithCause(lastErr)
	}

	return final, nil
}

func isMissingSource(err error) bool {
	return errors.Is(err, ErrNoConfigSource)
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if vMap, ok := asStringMap(v); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeMaps(dstMap, vMap)
				continue
			}
			dst[k] = deepCopy(vMap)
			continue
		}
		dst[k] = v
	}
}
