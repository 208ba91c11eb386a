package broker

import "github.com/shuldan/reqreply/pkg/errors"

var newErrorCode = errors.WithPrefix("BROKER")

var (
	ErrUnsupportedDriver = newErrorCode().New("unsupported broker driver {{.driver}}")
	ErrInvalidAddress    = newErrorCode().New("invalid broker address {{.address}}")
)
