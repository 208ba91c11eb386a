package errors

import (
	"bytes"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"text/template"
	"time"
)

type Code string

func (c Code) New(msg string) *Error {
	return &Error{
		Code:      c,
		Message:   msg,
		Details:   make(map[string]any),
		Timestamp: time.Now(),
	}
}

// Prefix returns the part of the code before the sequence number,
// e.g. "MESSAGING" for "MESSAGING_0003".
func (c Code) Prefix() string {
	s := string(c)
	if i := strings.LastIndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return s
}

// WithPrefix returns a generator of sequential codes. Codes depend on
// declaration order, so sentinels must be declared once at package level.
func WithPrefix(prefix string) func() Code {
	counter := int64(0)
	return func() Code {
		counter++
		return Code(fmt.Sprintf("%s_%04d", prefix, counter))
	}
}

// Error is a coded error. Sentinel values are never mutated: WithDetail and
// WithCause return copies carrying the caller's context.
type Error struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
	Stack     string         `json:"-"`
	Timestamp time.Time      `json:"timestamp"`
}

func (e *Error) Error() string {
	msg := e.render()
	if msg == "" {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) render() string {
	if !strings.Contains(e.Message, "{{") {
		return e.Message
	}
	t, err := template.New("error").Option("missingkey=zero").Parse(e.Message)
	if err != nil {
		return e.Message
	}
	var out bytes.Buffer
	if err := t.Execute(&out, e.Details); err != nil {
		return e.Message
	}
	return strings.ReplaceAll(out.String(), "<no value>", "")
}

func (e *Error) WithCause(err error) *Error {
	c := e.clone()
	c.Cause = err
	return c
}

func (e *Error) WithDetail(key string, value any) *Error {
	c := e.clone()
	c.Details[key] = value
	return c
}

// Detail returns the detail stored under key, if any.
func (e *Error) Detail(key string) (any, bool) {
	v, ok := e.Details[key]
	return v, ok
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports code equality, so a decorated copy matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

func (e *Error) clone() *Error {
	c := *e
	c.Details = make(map[string]any, len(e.Details)+1)
	maps.Copy(c.Details, e.Details)
	if c.Stack == "" {
		c.Stack = getStack()
	}
	c.Timestamp = time.Now()
	return &c
}

func getStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
