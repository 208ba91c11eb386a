package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type call struct {
	method string
	args   []any
}

// mockClient scripts the stream commands the broker issues. Unscripted reads
// block briefly and return redis.Nil like an empty stream.
type mockClient struct {
	redis.UniversalClient

	mu        sync.Mutex
	calls     []call
	reads     []redis.XStream
	addErr    error
	createErr error
	readErr   error
	pingErr   error
	closed    bool
	acked     chan string
}

func newMockClient() *mockClient {
	return &mockClient{acked: make(chan string, 64)}
}

func (m *mockClient) record(method string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call{method, args})
}

func (m *mockClient) callsTo(method string) []call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call
	for _, c := range m.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockClient) queueRead(stream string, msgs ...redis.XMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, redis.XStream{Stream: stream, Messages: msgs})
}

func (m *mockClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	m.record("XAdd", a)
	cmd := redis.NewStringCmd(ctx)
	if m.addErr != nil {
		cmd.SetErr(m.addErr)
	} else {
		cmd.SetVal("1-0")
	}
	return cmd
}

func (m *mockClient) XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd {
	m.record("XGroupCreateMkStream", stream, group, start)
	cmd := redis.NewStatusCmd(ctx)
	if m.createErr != nil {
		cmd.SetErr(m.createErr)
	} else {
		cmd.SetVal("OK")
	}
	return cmd
}

func (m *mockClient) XGroupDestroy(ctx context.Context, stream, group string) *redis.IntCmd {
	m.record("XGroupDestroy", stream, group)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(1)
	return cmd
}

func (m *mockClient) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	cmd := redis.NewXStreamSliceCmd(ctx)

	m.mu.Lock()
	m.calls = append(m.calls, call{"XReadGroup", []any{a}})
	if m.readErr != nil {
		err := m.readErr
		m.mu.Unlock()
		cmd.SetErr(err)
		return cmd
	}
	if len(m.reads) > 0 {
		next := m.reads[0]
		m.reads = m.reads[1:]
		m.mu.Unlock()
		cmd.SetVal([]redis.XStream{next})
		return cmd
	}
	m.mu.Unlock()

	select {
	case <-time.After(5 * time.Millisecond):
		cmd.SetErr(redis.Nil)
	case <-ctx.Done():
		cmd.SetErr(ctx.Err())
	}
	return cmd
}

func (m *mockClient) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	m.record("XAck", stream, group, ids)
	for _, id := range ids {
		m.acked <- id
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(ids)))
	return cmd
}

func (m *mockClient) Ping(ctx context.Context) *redis.StatusCmd {
	m.record("Ping")
	cmd := redis.NewStatusCmd(ctx)
	if m.pingErr != nil {
		cmd.SetErr(m.pingErr)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
