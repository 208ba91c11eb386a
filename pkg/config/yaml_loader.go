package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
)

// YamlConfigLoader reads the first existing file among paths.
type YamlConfigLoader struct {
	paths []string
}

func NewYamlConfigLoader(paths ...string) *YamlConfigLoader {
	return &YamlConfigLoader{paths: paths}
}

func (l *YamlConfigLoader) Load() (map[string]any, error) {
	for _, path := range l.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, ErrReadFile.WithDetail("path", path).WithCause(err)
		}

		config := map[string]any{}
		if err = yaml.UnmarshalWithOptions(data, &config, yaml.UseJSONUnmarshaler()); err != nil {
			return nil, ErrParseYAML.
				WithDetail("path", path).
				WithDetail("reason", err.Error()).
				WithCause(err)
		}

		return config, nil
	}

	return nil, ErrNoConfigSource.WithDetail("loader", "yaml")
}
