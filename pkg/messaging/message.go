package messaging

type Shape string

const (
	ShapeMap     Shape = "map"
	ShapeText    Shape = "text"
	ShapeUnknown Shape = ""
)

// Metadata is carried by every message regardless of shape.
type Metadata struct {
	ID            string
	CorrelationID string
}

// Message is one of *MapMessage, *TextMessage or *RawMessage.
type Message interface {
	Meta() *Metadata
	isMessage()
}

// MapMessage carries a set of named string fields.
type MapMessage struct {
	Metadata
	Fields map[string]string
}

func NewMapMessage() *MapMessage {
	return &MapMessage{Fields: make(map[string]string)}
}

func (m *MapMessage) Meta() *Metadata { return &m.Metadata }
func (*MapMessage) isMessage()        {}

func (m *MapMessage) Get(key string) (string, bool) {
	if m == nil || m.Fields == nil {
		return "", false
	}
	v, ok := m.Fields[key]
	return v, ok
}

func (m *MapMessage) Set(key, value string) {
	if m.Fields == nil {
		m.Fields = make(map[string]string)
	}
	m.Fields[key] = value
}

// TextMessage carries an optional string body plus named string properties.
type TextMessage struct {
	Metadata
	Body       *string
	Properties map[string]string
}

func NewTextMessage() *TextMessage {
	return &TextMessage{Properties: make(map[string]string)}
}

func (m *TextMessage) Meta() *Metadata { return &m.Metadata }
func (*TextMessage) isMessage()        {}

func (m *TextMessage) Property(key string) (string, bool) {
	if m == nil || m.Properties == nil {
		return "", false
	}
	v, ok := m.Properties[key]
	return v, ok
}

func (m *TextMessage) SetProperty(key, value string) {
	if m.Properties == nil {
		m.Properties = make(map[string]string)
	}
	m.Properties[key] = value
}

// RawMessage holds a delivery whose shape is not recognized.
type RawMessage struct {
	Metadata
	Shape string
	Data  []byte
}

func (m *RawMessage) Meta() *Metadata { return &m.Metadata }
func (*RawMessage) isMessage()        {}

// ShapeOf reports the shape of msg. Nil messages, including typed nil
// pointers, and raw messages are ShapeUnknown.
func ShapeOf(msg Message) Shape {
	switch m := msg.(type) {
	case *MapMessage:
		if m != nil {
			return ShapeMap
		}
	case *TextMessage:
		if m != nil {
			return ShapeText
		}
	}
	return ShapeUnknown
}
