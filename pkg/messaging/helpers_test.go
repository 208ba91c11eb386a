package messaging

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shuldan/reqreply/pkg/contracts"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      *sync.Mutex
	entries *[]logEntry
	with    []any
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, entries: &[]logEntry{}}
}

func (l *recordingLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]any{}, l.with...), args...)
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: all})
}

func (l *recordingLogger) Trace(msg string, args ...any)    { l.record("TRACE", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any)    { l.record("DEBUG", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)     { l.record("INFO", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)     { l.record("WARN", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any)    { l.record("ERROR", msg, args) }
func (l *recordingLogger) Critical(msg string, args ...any) { l.record("CRITICAL", msg, args) }

func (l *recordingLogger) With(args ...any) contracts.Logger {
	return &recordingLogger{
		mu:      l.mu,
		entries: l.entries,
		with:    append(append([]any{}, l.with...), args...),
	}
}

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range *l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}

func (e logEntry) arg(key string) (any, bool) {
	for i := 0; i+1 < len(e.args); i += 2 {
		if k, ok := e.args[i].(string); ok && k == key {
			return e.args[i+1], true
		}
	}
	return nil, false
}

type published struct {
	dest Destination
	data []byte
}

type subscription struct {
	ctx     context.Context
	dest    Destination
	handler func([]byte) error
}

// fakeBroker records publishes and lets tests push deliveries to subscribers.
type fakeBroker struct {
	mu         sync.Mutex
	published  []published
	subs       []*subscription
	publishErr error
	consumeErr error
	closed     bool
}

func (b *fakeBroker) Publish(_ context.Context, dest Destination, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, published{dest: dest, data: data})
	return nil
}

func (b *fakeBroker) Consume(ctx context.Context, dest Destination, handler func([]byte) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.consumeErr != nil {
		return b.consumeErr
	}
	b.subs = append(b.subs, &subscription{ctx: ctx, dest: dest, handler: handler})
	return nil
}

func (b *fakeBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// deliver hands data to every live subscriber of dest and returns their errors.
func (b *fakeBroker) deliver(dest Destination, data []byte) []error {
	b.mu.Lock()
	var subs []*subscription
	for _, s := range b.subs {
		if s.dest == dest && s.ctx.Err() == nil {
			subs = append(subs, s)
		}
	}
	b.mu.Unlock()

	errs := make([]error, 0, len(subs))
	for _, s := range subs {
		errs = append(errs, s.handler(data))
	}
	return errs
}

func (b *fakeBroker) subscribers(dest Destination) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subs {
		if s.dest == dest && s.ctx.Err() == nil {
			n++
		}
	}
	return n
}

func (b *fakeBroker) sent() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]published, len(b.published))
	copy(out, b.published)
	return out
}

func openFake(t testing.TB, b *fakeBroker, opts ...ConnectionOption) *Connection {
	t.Helper()
	conn, err := Open(context.Background(), FactoryFunc("fake://broker", func(context.Context) (Broker, error) {
		return b, nil
	}), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustQueue(name string) Destination {
	d, err := NewQueue(name)
	if err != nil {
		panic(fmt.Sprintf("queue %q: %v", name, err))
	}
	return d
}

func mustTopic(name string) Destination {
	d, err := NewTopic(name)
	if err != nil {
		panic(fmt.Sprintf("topic %q: %v", name, err))
	}
	return d
}
