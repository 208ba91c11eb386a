package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/shuldan/reqreply/pkg/errors"
)

func TestSender(t *testing.T) {
	b := &fakeBroker{}
	conn := openFake(t, b)
	queue, topic := mustQueue(RequestQueueName), mustTopic(TopicName)
	now := time.Date(2025, time.January, 2, 8, 7, 0, 0, time.UTC)

	s, err := NewSender(conn, queue, topic, WithSenderClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SendToQueue(context.Background(), "to queue "); err != nil {
		t.Fatal(err)
	}
	if err := s.SendToTopic(context.Background(), "to topic "); err != nil {
		t.Fatal(err)
	}

	sent := b.sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(sent))
	}

	if sent[0].dest != queue {
		t.Errorf("first publish went to %s", sent[0].dest)
	}
	m, ok := Unmarshal(sent[0].data).(*MapMessage)
	if !ok {
		t.Fatal("queue requests are map messages")
	}
	if got, _ := m.Get(RequestKey); got != "to queue 08:07 02/01/2025" {
		t.Errorf("unexpected queue request %q", got)
	}

	if sent[1].dest != topic {
		t.Errorf("second publish went to %s", sent[1].dest)
	}
	tm, ok := Unmarshal(sent[1].data).(*TextMessage)
	if !ok {
		t.Fatal("topic requests are text messages")
	}
	if got, _ := tm.Property(RequestKey); got != "to topic 08:07 02/01/2025" {
		t.Errorf("unexpected topic request %q", got)
	}
}

func TestSender_PublishFailure(t *testing.T) {
	log := newRecordingLogger()
	b := &fakeBroker{publishErr: errors.New("unreachable")}
	conn := openFake(t, b)
	queue := mustQueue(RequestQueueName)

	s, _ := NewSender(conn, queue, mustTopic(TopicName), WithSenderLogger(log))

	err := s.SendToQueue(context.Background(), "x")
	if !errors.Is(err, ErrSend) {
		t.Fatalf("expected ErrSend, got %v", err)
	}
	if got, _ := errors.DetailOf(err, "destination"); got != queue.String() {
		t.Errorf("unexpected destination detail %v", got)
	}
	if len(log.byLevel("ERROR")) != 1 {
		t.Error("failure should be logged once")
	}
}

func TestSender_ClosedSession(t *testing.T) {
	conn := openFake(t, &fakeBroker{})
	_ = conn.Close()

	if _, err := NewSender(conn, mustQueue("q"), mustTopic("t")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
