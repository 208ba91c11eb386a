package messaging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shuldan/reqreply/pkg/errors"
)

var fixedNow = time.Date(2025, time.June, 1, 14, 30, 0, 0, time.UTC)

type receiverFixture struct {
	broker   *fakeBroker
	conn     *Connection
	log      *recordingLogger
	receiver *Receiver
	response Destination
}

func newReceiverFixture(t *testing.T, opts ...ReceiverOption) *receiverFixture {
	t.Helper()

	f := &receiverFixture{
		broker:   &fakeBroker{},
		log:      newRecordingLogger(),
		response: mustQueue(ResponseQueueName),
	}
	f.conn = openFake(t, f.broker)

	producer, err := f.conn.CreateProducer(f.response)
	if err != nil {
		t.Fatal(err)
	}
	correlator := NewCorrelator(producer, "A", WithCorrelatorClock(func() time.Time { return fixedNow }))

	opts = append([]ReceiverOption{WithReceiverLogger(f.log)}, opts...)
	f.receiver = NewReceiver(f.conn, correlator, opts...)
	return f
}

func (f *receiverFixture) replies(t *testing.T) []*MapMessage {
	t.Helper()
	var out []*MapMessage
	for _, p := range f.broker.sent() {
		if p.dest != f.response {
			continue
		}
		m, ok := Unmarshal(p.data).(*MapMessage)
		if !ok {
			t.Fatalf("reply is not a map message")
		}
		out = append(out, m)
	}
	return out
}

func countMessages(entries []logEntry, msg string) int {
	n := 0
	for _, e := range entries {
		if e.msg == msg {
			n++
		}
	}
	return n
}

func TestReceiver_MapRequest(t *testing.T) {
	f := newReceiverFixture(t)

	request := EncodeMapRequest("test request")
	request.ID = "req-1"
	if err := f.receiver.OnMessage(context.Background(), ChannelQueue, request); err != nil {
		t.Fatalf("OnMessage: %v", err)
	}

	replies := f.replies(t)
	if len(replies) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(replies))
	}
	if got := countMessages(f.log.byLevel("INFO"), "test request"); got != 1 {
		t.Errorf("expected one INFO entry with the request text, got %d", got)
	}

	reply := replies[0]
	if got, _ := reply.Get(RequestKey); got != "Request : test request" {
		t.Errorf("unexpected echo %q", got)
	}
	if got, _ := reply.Get(ResponseKey); got != "Response : A14:30 01/06/2025" {
		t.Errorf("unexpected response %q", got)
	}
	if reply.CorrelationID != "req-1" {
		t.Errorf("expected correlation id req-1, got %q", reply.CorrelationID)
	}
}

func TestReceiver_TextRequest(t *testing.T) {
	f := newReceiverFixture(t)

	if err := f.receiver.OnMessage(context.Background(), ChannelTopic, EncodeTextRequest("from topic")); err != nil {
		t.Fatalf("OnMessage: %v", err)
	}
	replies := f.replies(t)
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(replies))
	}
	if got, _ := replies[0].Get(RequestKey); got != "Request : from topic" {
		t.Errorf("unexpected echo %q", got)
	}
}

func TestReceiver_UnrecognizedShape(t *testing.T) {
	var typedNil *TextMessage
	inputs := []Message{nil, typedNil, &RawMessage{Data: []byte{}}, Unmarshal([]byte("null"))}

	for i, msg := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			f := newReceiverFixture(t)

			if err := f.receiver.OnMessage(context.Background(), ChannelQueue, msg); err != nil {
				t.Fatalf("unrecognized messages are dropped without error, got %v", err)
			}

			warnings := f.log.byLevel("WARN")
			if len(warnings) != 1 || warnings[0].msg != "Invalid Message Received" {
				t.Fatalf("expected one warning, got %+v", warnings)
			}
			if len(f.broker.sent()) != 0 {
				t.Error("no publish expected")
			}
		})
	}
}

func TestReceiver_SendFailureNamesChannel(t *testing.T) {
	for _, channel := range []string{ChannelQueue, ChannelTopic} {
		t.Run(channel, func(t *testing.T) {
			f := newReceiverFixture(t)
			f.broker.publishErr = errors.New("broker down")

			err := f.receiver.OnMessage(context.Background(), channel, EncodeMapRequest("x"))
			if !errors.Is(err, ErrDispatch) {
				t.Fatalf("expected ErrDispatch, got %v", err)
			}
			if !errors.Is(err, ErrSendFailed) {
				t.Errorf("expected ErrSendFailed in the chain, got %v", err)
			}
			if !strings.Contains(err.Error(), "from a "+channel) {
				t.Errorf("error should name the %s channel: %v", channel, err)
			}
			if got, _ := errors.DetailOf(err, "channel"); got != channel {
				t.Errorf("unexpected channel detail %v", got)
			}

			errs := f.log.byLevel("ERROR")
			if len(errs) != 1 {
				t.Fatalf("expected one ERROR entry, got %d", len(errs))
			}
			if op, _ := errs[0].arg("operation"); op != "reply" {
				t.Errorf("unexpected operation %v", op)
			}
		})
	}
}

func TestReceiver_MissingRequestKey(t *testing.T) {
	f := newReceiverFixture(t)

	err := f.receiver.OnMessage(context.Background(), ChannelTopic, NewTextMessage())
	if !errors.Is(err, ErrDispatch) || !errors.Is(err, ErrMissingRequest) {
		t.Fatalf("expected ErrDispatch caused by ErrMissingRequest, got %v", err)
	}
	if len(f.broker.sent()) != 0 {
		t.Error("no reply expected")
	}
}

func TestReceiver_ConcurrentChannels(t *testing.T) {
	f := newReceiverFixture(t)
	const perChannel = 100

	var wg sync.WaitGroup
	for _, channel := range []string{ChannelQueue, ChannelTopic} {
		wg.Add(1)
		go func(channel string) {
			defer wg.Done()
			for i := 0; i < perChannel; i++ {
				text := fmt.Sprintf("%s-%d", channel, i)
				var msg Message = EncodeMapRequest(text)
				if channel == ChannelTopic {
					msg = EncodeTextRequest(text)
				}
				msg.Meta().ID = text
				if err := f.receiver.OnMessage(context.Background(), channel, msg); err != nil {
					t.Errorf("OnMessage: %v", err)
				}
			}
		}(channel)
	}
	wg.Wait()

	replies := f.replies(t)
	if len(replies) != 2*perChannel {
		t.Fatalf("expected %d replies, got %d", 2*perChannel, len(replies))
	}
	seen := make(map[string]bool)
	for _, r := range replies {
		echo, _ := r.Get(RequestKey)
		if echo != "Request : "+r.CorrelationID {
			t.Errorf("reply %q does not echo its own request %q", echo, r.CorrelationID)
		}
		if resp, _ := r.Get(ResponseKey); resp != "Response : A14:30 01/06/2025" {
			t.Errorf("answer was corrupted: %q", resp)
		}
		seen[r.CorrelationID] = true
	}
	if len(seen) != 2*perChannel {
		t.Errorf("expected every request answered once, got %d distinct", len(seen))
	}
}

func TestReceiver_StartListening(t *testing.T) {
	f := newReceiverFixture(t)
	queue, topic := mustQueue(RequestQueueName), mustTopic(TopicName)

	if f.receiver.State() != StateIdle {
		t.Fatalf("expected idle, got %s", f.receiver.State())
	}
	if err := f.receiver.StartListening(queue, topic); err != nil {
		t.Fatal(err)
	}
	if f.receiver.State() != StateListening {
		t.Fatalf("expected listening, got %s", f.receiver.State())
	}
	if err := f.receiver.StartListening(queue, topic); !errors.Is(err, ErrAlreadyListening) {
		t.Errorf("expected ErrAlreadyListening, got %v", err)
	}

	map1, _ := Marshal(EncodeMapRequest("via queue"))
	text1, _ := Marshal(EncodeTextRequest("via topic"))
	f.broker.deliver(queue, map1)
	f.broker.deliver(topic, text1)

	if got := len(f.replies(t)); got != 2 {
		t.Fatalf("expected 2 replies, got %d", got)
	}

	if err := f.receiver.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-f.receiver.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}
	if f.receiver.State() != StateClosed {
		t.Errorf("expected closed, got %s", f.receiver.State())
	}
	if err := f.receiver.StartListening(queue, topic); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestReceiver_DispatchingState(t *testing.T) {
	f := &receiverFixture{log: newRecordingLogger()}
	entered := make(chan struct{})
	release := make(chan struct{})
	r := NewReceiver(nil, replierFunc(func(context.Context, Message, string) error {
		close(entered)
		<-release
		return nil
	}), WithReceiverLogger(f.log))
	r.listening = true

	done := make(chan error)
	go func() { done <- r.OnMessage(context.Background(), ChannelQueue, EncodeMapRequest("x")) }()

	<-entered
	if r.State() != StateDispatching {
		t.Errorf("expected dispatching, got %s", r.State())
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if r.State() != StateListening {
		t.Errorf("expected listening, got %s", r.State())
	}
}

func TestReceiver_FailMessageKeepsListening(t *testing.T) {
	f := newReceiverFixture(t)
	queue, topic := mustQueue(RequestQueueName), mustTopic(TopicName)
	_ = f.receiver.StartListening(queue, topic)

	bad, _ := Marshal(NewMapMessage())
	good, _ := Marshal(EncodeMapRequest("ok"))
	f.broker.deliver(queue, bad)
	f.broker.deliver(queue, good)

	if got := len(f.replies(t)); got != 1 {
		t.Fatalf("expected the good message to be answered, got %d replies", got)
	}
	if f.receiver.State() == StateClosed {
		t.Error("FailMessage must not close the receiver")
	}
	if f.receiver.Err() != nil {
		t.Errorf("unexpected Err %v", f.receiver.Err())
	}
}

func TestReceiver_FailProcessCloses(t *testing.T) {
	f := newReceiverFixture(t, WithFailurePolicy(FailProcess))
	queue, topic := mustQueue(RequestQueueName), mustTopic(TopicName)
	_ = f.receiver.StartListening(queue, topic)

	bad, _ := Marshal(NewTextMessage())
	f.broker.deliver(topic, bad)

	select {
	case <-f.receiver.Done():
	case <-time.After(time.Second):
		t.Fatal("receiver should close after a dispatch error")
	}

	err := f.receiver.Err()
	if !errors.Is(err, ErrDispatch) {
		t.Fatalf("expected ErrDispatch, got %v", err)
	}
	if got, _ := errors.DetailOf(err, "channel"); got != ChannelTopic {
		t.Errorf("unexpected channel %v", got)
	}
	if !f.broker.closed {
		t.Error("connection should be closed")
	}
}

func TestParseFailurePolicy(t *testing.T) {
	tests := map[string]FailurePolicy{"": FailMessage, "message": FailMessage, " Process ": FailProcess}
	for in, want := range tests {
		got, err := ParseFailurePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseFailurePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFailurePolicy("retry"); !errors.Is(err, ErrUnknownFailurePolicy) {
		t.Errorf("expected ErrUnknownFailurePolicy, got %v", err)
	}
}

type replierFunc func(ctx context.Context, request Message, text string) error

func (f replierFunc) Reply(ctx context.Context, request Message, text string) error {
	return f(ctx, request, text)
}
