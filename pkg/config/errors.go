package config

import "github.com/shuldan/reqreply/pkg/errors"

var newConfigCode = errors.WithPrefix("CONFIG")

var (
	ErrNoConfigSource = newConfigCode().New("no valid configuration source found. Loader: {{.loader}}")
	ErrParseYAML      = newConfigCode().New("failed to parse YAML file {{.path}}: {{.reason}}")
	ErrReadFile       = newConfigCode().New("failed to read configuration file {{.path}}")
)
