package metrics

import "github.com/shuldan/reqreply/pkg/errors"

var newMetricsCode = errors.WithPrefix("METRICS")

var (
	ErrRegisterFailed = newMetricsCode().New("failed to register collector")
	ErrServeFailed    = newMetricsCode().New("metrics endpoint on {{.address}} failed")
)
