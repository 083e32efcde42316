package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type stubStore struct {
	pending []*EventDocument
	sent    []string
	failed  []string
	next    time.Time
}

func (s *stubStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(s.pending) == 0 {
		return nil, nil
	}
	doc := s.pending[0]
	s.pending = s.pending[1:]
	doc.ClaimedBy = workerID
	return doc, nil
}

func (s *stubStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *stubStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.failed = append(s.failed, id)
	s.next = next
	return nil
}

type stubProducer struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
	err     error
}

func (p *stubProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.topic = topic
	p.key = key
	p.payload = payload
	p.headers = headers
	return nil
}

func stagedDoc() *EventDocument {
	return &EventDocument{
		ID:         "evt-1",
		Name:       "booking.requested",
		Payload:    []byte(`{"booking_id":"b1"}`),
		OccurredAt: time.Date(2027, 6, 1, 12, 0, 0, 0, time.UTC),
		Aggregate:  "b1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestProcessOncePublishesCloudEvent(t *testing.T) {
	store := &stubStore{pending: []*EventDocument{stagedDoc()}}
	producer := &stubProducer{}
	worker := &Worker{Store: store, Producer: producer, ID: "w1"}

	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if len(store.sent) != 1 || store.sent[0] != "evt-1" {
		t.Fatalf("sent = %v, want [evt-1]", store.sent)
	}
	if producer.topic != "booking.events.v1" {
		t.Fatalf("topic = %q, want booking.events.v1", producer.topic)
	}
	if producer.key != "b1" {
		t.Fatalf("key = %q, want aggregate id", producer.key)
	}
	if producer.headers["content-type"] != "application/cloudevents+json" {
		t.Fatalf("content-type header = %q", producer.headers["content-type"])
	}
	if producer.headers["traceparent"] == "" {
		t.Fatal("traceparent header must pass through")
	}

	var envelope map[string]any
	if err := json.Unmarshal(producer.payload, &envelope); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if envelope["specversion"] != "1.0" {
		t.Errorf("specversion = %v", envelope["specversion"])
	}
	if envelope["type"] != "booking.requested.v1" {
		t.Errorf("type = %v", envelope["type"])
	}
	if envelope["source"] != "app://staybook" {
		t.Errorf("source = %v", envelope["source"])
	}
	data, ok := envelope["data"].(map[string]any)
	if !ok || data["booking_id"] != "b1" {
		t.Errorf("data = %v", envelope["data"])
	}
}

func TestProcessOnceRetriesOnPublishFailure(t *testing.T) {
	store := &stubStore{pending: []*EventDocument{stagedDoc()}}
	producer := &stubProducer{err: errors.New("broker down")}
	worker := &Worker{
		Store:    store,
		Producer: producer,
		Backoff:  []time.Duration{time.Second, 5 * time.Second},
	}

	before := time.Now()
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce: %v", err)
	}
	if len(store.failed) != 1 {
		t.Fatalf("failed = %v, want one retry", store.failed)
	}
	if len(store.sent) != 0 {
		t.Fatal("failed publish must not be marked sent")
	}
	if store.next.Before(before.Add(time.Second)) {
		t.Fatalf("next attempt %s too soon", store.next)
	}
}

func TestProcessOnceIdleWhenNothingDue(t *testing.T) {
	worker := &Worker{Store: &stubStore{}, Producer: &stubProducer{}}
	if err := worker.processOnce(context.Background()); err != nil {
		t.Fatalf("processOnce idle: %v", err)
	}
}

func TestTopicRouting(t *testing.T) {
	cases := []struct {
		prefix string
		name   string
		want   string
	}{
		{"", "booking.requested", "booking.events.v1"},
		{"", "booking.cancelled", "booking.events.v1"},
		{"staging.", "booking.requested", "staging.booking.events.v1"},
		{"", "ping", "ping.events.v1"},
	}
	for _, c := range cases {
		w := &Worker{TopicPrefix: c.prefix}
		if got := w.topicFor(c.name); got != c.want {
			t.Errorf("topicFor(%q) with prefix %q = %q, want %q", c.name, c.prefix, got, c.want)
		}
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	w := &Worker{}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("want ErrWorkerNotConfigured, got %v", err)
	}
}
