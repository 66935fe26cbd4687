package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"pollster/contexts/community-polls/voting-service/adapters/memory"
	"pollster/contexts/community-polls/voting-service/ports"
	contractsv1 "pollster/contracts/gen/events/v1"
)

type countingObserver struct {
	votes   int
	results int
}

func (o *countingObserver) VoteRecorded(context.Context, ports.VoteRecorded) error {
	o.votes++
	return nil
}

func (o *countingObserver) ResultsComputed(context.Context, ports.ResultsComputed) error {
	o.results++
	return nil
}

type panickingObserver struct{}

func (panickingObserver) VoteRecorded(context.Context, ports.VoteRecorded) error {
	panic("observer exploded")
}

func (panickingObserver) ResultsComputed(context.Context, ports.ResultsComputed) error {
	return errors.New("results sink offline")
}

func TestFanoutSurvivesFailingObservers(t *testing.T) {
	first := &countingObserver{}
	last := &countingObserver{}
	fanout := NewFanout(nil, first, nil, panickingObserver{}, last)
	if len(fanout.Observers) != 3 {
		t.Fatalf("expected nil observers to be dropped, got %d", len(fanout.Observers))
	}

	ctx := context.Background()
	if err := fanout.VoteRecorded(ctx, ports.VoteRecorded{VoteID: "v1", QuestionID: "q1"}); err != nil {
		t.Fatalf("vote recorded returned error: %v", err)
	}
	if err := fanout.ResultsComputed(ctx, ports.ResultsComputed{QuestionID: "q1"}); err != nil {
		t.Fatalf("results computed returned error: %v", err)
	}
	if first.votes != 1 || last.votes != 1 {
		t.Fatalf("expected every healthy observer to see the vote, got %d and %d", first.votes, last.votes)
	}
	if first.results != 1 || last.results != 1 {
		t.Fatalf("expected every healthy observer to see the results, got %d and %d", first.results, last.results)
	}
}

func TestOutboxObserverAppendsPartitionedEnvelope(t *testing.T) {
	store := memory.NewStore(memory.Seed{}, true)
	observer := OutboxObserver{Outbox: store, IDGen: store}
	recordedAt := time.Date(2026, time.May, 1, 8, 0, 0, 0, time.UTC)

	err := observer.VoteRecorded(context.Background(), ports.VoteRecorded{
		VoteID:         "v1",
		QuestionID:     "q1",
		AnswerOptionID: "a1",
		UserID:         "u1",
		SelectedOption: "title",
		RecordedAt:     recordedAt,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(pending))
	}
	row := pending[0]
	if row.EventType != contractsv1.EventTypeVoteRecorded || row.PartitionKey != "q1" {
		t.Fatalf("unexpected outbox row: %+v", row)
	}
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var data contractsv1.VoteRecordedData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.VoteID != "v1" || data.AnswerOptionID != "a1" || !data.RecordedAt.Equal(recordedAt) {
		t.Fatalf("unexpected vote payload: %+v", data)
	}
	if envelope.SourceService != "voting-service" || envelope.SchemaVersion != 1 {
		t.Fatalf("unexpected envelope metadata: %+v", envelope)
	}
}
