package messaging

import (
	"time"
)

const (
	RequestKey  = "Request"
	ResponseKey = "Response"

	// TimestampLayout renders HH:mm dd/MM/yyyy.
	TimestampLayout = "15:04 02/01/2006"

	requestEchoPrefix = "Request : "
	responsePrefix    = "Response : "
)

func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// EncodeMapRequest carries text in the "Request" field. Used on queues.
func EncodeMapRequest(text string) *MapMessage {
	m := NewMapMessage()
	m.Set(RequestKey, text)
	return m
}

// EncodeTextRequest carries text in the "Request" string property. Used on topics.
func EncodeTextRequest(text string) *TextMessage {
	m := NewTextMessage()
	m.SetProperty(RequestKey, text)
	return m
}

// DecodeRequest extracts the request text. Unknown shapes yield
// ErrUnrecognizedShape; a known shape without the key yields ErrMissingRequest.
func DecodeRequest(msg Message) (string, error) {
	var (
		text  string
		found bool
	)

	switch ShapeOf(msg) {
	case ShapeMap:
		text, found = msg.(*MapMessage).Get(RequestKey)
	case ShapeText:
		text, found = msg.(*TextMessage).Property(RequestKey)
	default:
		return "", ErrUnrecognizedShape.WithDetail("shape", describe(msg))
	}

	if !found {
		return "", ErrMissingRequest.WithDetail("shape", string(ShapeOf(msg))).WithDetail("key", RequestKey)
	}
	return text, nil
}

// EncodeReply builds the map reply for requestText.
func EncodeReply(requestText, answer string, now time.Time) *MapMessage {
	m := NewMapMessage()
	m.Set(RequestKey, requestEchoPrefix+requestText)
	m.Set(ResponseKey, responsePrefix+answer+FormatTimestamp(now))
	return m
}

func describe(msg Message) string {
	if raw, ok := msg.(*RawMessage); ok && raw != nil && raw.Shape != "" {
		return raw.Shape
	}
	if msg == nil {
		return "nil"
	}
	return "unknown"
}
