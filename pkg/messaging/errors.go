package messaging

import "github.com/shuldan/reqreply/pkg/errors"

var newMessagingCode = errors.WithPrefix("MESSAGING")

var (
	ErrConnection           = newMessagingCode().New("cannot establish connection to broker {{.address}}")
	ErrInvalidDestination   = newMessagingCode().New("{{.kind}} name must not be blank")
	ErrUnrecognizedShape    = newMessagingCode().New("unrecognized message shape {{.shape}}")
	ErrMissingRequest       = newMessagingCode().New("{{.shape}} message has no {{.key}} entry")
	ErrEncode               = newMessagingCode().New("failed to encode message")
	ErrSend                 = newMessagingCode().New("it was not possible to send the message to the {{.destination}}")
	ErrSendFailed           = newMessagingCode().New("error sending a response to {{.destination}}")
	ErrDispatch             = newMessagingCode().New("error while getting the message from a {{.channel}}")
	ErrClosed               = newMessagingCode().New("connection is closed")
	ErrAlreadyListening     = newMessagingCode().New("{{.target}} is already listening")
	ErrHandlerPanic         = newMessagingCode().New("message handler panicked on {{.destination}}")
	ErrMissingResponse      = newMessagingCode().New("reply has no {{.key}} field")
	ErrUnknownFailurePolicy = newMessagingCode().New("unknown failure policy {{.policy}}")
)
