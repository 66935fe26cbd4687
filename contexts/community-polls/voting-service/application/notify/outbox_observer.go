package notify

import (
	"context"
	"encoding/json"
	"time"

	"pollster/contexts/community-polls/voting-service/ports"
	contractsv1 "pollster/contracts/gen/events/v1"
)

const sourceService = "voting-service"

// OutboxObserver turns notifications into outbox envelopes for the relay.
// Both event types are partitioned by question so consumers see one
// question's events in order.
type OutboxObserver struct {
	Outbox ports.OutboxWriter
	IDGen  ports.IDGenerator
}

func (o OutboxObserver) VoteRecorded(ctx context.Context, event ports.VoteRecorded) error {
	return o.append(ctx, contractsv1.EventTypeVoteRecorded, event.QuestionID, event.RecordedAt, contractsv1.VoteRecordedData{
		VoteID:         event.VoteID,
		QuestionID:     event.QuestionID,
		AnswerOptionID: event.AnswerOptionID,
		UserID:         event.UserID,
		SelectedOption: event.SelectedOption,
		RecordedAt:     event.RecordedAt.UTC(),
	})
}

func (o OutboxObserver) ResultsComputed(ctx context.Context, event ports.ResultsComputed) error {
	return o.append(ctx, contractsv1.EventTypeResultsComputed, event.QuestionID, event.ComputedAt, contractsv1.ResultsComputedData{
		QuestionID: event.QuestionID,
		Groups:     event.Groups,
		TotalVotes: event.TotalVotes,
		ComputedAt: event.ComputedAt.UTC(),
	})
}

func (o OutboxObserver) append(ctx context.Context, eventType string, questionID string, occurredAt time.Time, data any) error {
	eventID, err := o.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return o.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "question_id",
		PartitionKey:     questionID,
		Data:             payload,
	})
}
