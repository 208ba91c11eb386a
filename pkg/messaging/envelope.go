package messaging

import (
	"encoding/json"
	"unicode/utf8"
)

// envelope is the wire form shared by every broker driver.
type envelope struct {
	ID            string            `json:"id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Shape         string            `json:"shape"`
	Fields        map[string]string `json:"fields,omitempty"`
	Body          *string           `json:"body,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// invalidUTF8 reports the first field, property or body that JSON would
// rewrite with U+FFFD.
func (e envelope) invalidUTF8() (string, bool) {
	for k, v := range e.Fields {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return k, false
		}
	}
	for k, v := range e.Properties {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return k, false
		}
	}
	if e.Body != nil && !utf8.ValidString(*e.Body) {
		return "body", false
	}
	return "", true
}

// Marshal encodes map and text messages as UTF-8 JSON; invalid UTF-8 text is
// rejected with ErrEncode.
func Marshal(msg Message) ([]byte, error) {
	var env envelope

	switch m := msg.(type) {
	case *MapMessage:
		if m == nil {
			return nil, ErrUnrecognizedShape.WithDetail("shape", "nil")
		}
		env = envelope{Shape: string(ShapeMap), Fields: m.Fields}
	case *TextMessage:
		if m == nil {
			return nil, ErrUnrecognizedShape.WithDetail("shape", "nil")
		}
		env = envelope{Shape: string(ShapeText), Body: m.Body, Properties: m.Properties}
	case *RawMessage:
		if m == nil {
			return nil, ErrUnrecognizedShape.WithDetail("shape", "nil")
		}
		if m.Shape == "" {
			return m.Data, nil
		}
		env = envelope{Shape: m.Shape}
	default:
		return nil, ErrUnrecognizedShape.WithDetail("shape", describe(msg))
	}

	if key, ok := env.invalidUTF8(); !ok {
		return nil, ErrEncode.WithDetail("field", key)
	}

	meta := msg.Meta()
	env.ID = meta.ID
	env.CorrelationID = meta.CorrelationID

	data, err := json.Marshal(env)
	if err != nil {
		return nil, ErrEncode.WithCause(err)
	}
	return data, nil
}

// Unmarshal never fails: bytes that are not a known envelope come back as a
// *RawMessage so the dispatcher can drop them as unrecognized.
func Unmarshal(data []byte) Message {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &RawMessage{Data: data}
	}

	meta := Metadata{ID: env.ID, CorrelationID: env.CorrelationID}

	switch Shape(env.Shape) {
	case ShapeMap:
		m := &MapMessage{Metadata: meta, Fields: env.Fields}
		if m.Fields == nil {
			m.Fields = make(map[string]string)
		}
		return m
	case ShapeText:
		m := &TextMessage{Metadata: meta, Body: env.Body, Properties: env.Properties}
		if m.Properties == nil {
			m.Properties = make(map[string]string)
		}
		return m
	default:
		return &RawMessage{Metadata: meta, Shape: env.Shape, Data: data}
	}
}
