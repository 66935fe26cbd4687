package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/ports"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan ports.EventEnvelope, 1)
	err := bus.Subscribe(ctx, "vote.recorded", "test-cg", func(_ context.Context, event ports.EventEnvelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := bus.Publish(ctx, "results.computed", ports.EventEnvelope{EventID: "ignored"}); err != nil {
		t.Fatalf("publish other topic: %v", err)
	}
	if err := bus.Publish(ctx, "vote.recorded", ports.EventEnvelope{EventID: "e1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "e1" {
			t.Fatalf("unexpected event %q", event.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestKafkaMessageUsesPrefixAndPartitionKey(t *testing.T) {
	k, err := NewKafka([]string{"localhost:9092"}, "pollster.", nil)
	if err != nil {
		t.Fatalf("new kafka: %v", err)
	}
	defer func() { _ = k.Close() }()

	message, err := k.message("vote.recorded", ports.EventEnvelope{
		EventID:      "e1",
		EventType:    "vote.recorded",
		PartitionKey: "q1",
		Data:         json.RawMessage(`{"vote_id":"v1"}`),
	})
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if message.Topic != "pollster.vote.recorded" || string(message.Key) != "q1" {
		t.Fatalf("unexpected message routing: topic=%s key=%s", message.Topic, message.Key)
	}
	var decoded ports.EventEnvelope
	if err := json.Unmarshal(message.Value, &decoded); err != nil || decoded.EventID != "e1" {
		t.Fatalf("unexpected value %s err=%v", message.Value, err)
	}

	fallback, _ := k.message("vote.recorded", ports.EventEnvelope{EventID: "e2"})
	if string(fallback.Key) != "e2" {
		t.Fatalf("expected event id key fallback, got %s", fallback.Key)
	}
}

func TestNewKafkaRequiresBrokers(t *testing.T) {
	if _, err := NewKafka(nil, "", nil); err == nil {
		t.Fatal("expected error without brokers")
	}
}
