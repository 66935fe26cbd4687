package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/ports"
	contractsv1 "pollster/contracts/gen/events/v1"
)

const defaultVoteAuditCG = "voting-service-audit-cg"

// VoteAuditConsumer writes an audit line for every vote.recorded event seen on
// the bus. Redelivered events are skipped through the dedup store.
type VoteAuditConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c VoteAuditConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultVoteAuditCG
	}
	if err := c.Subscriber.Subscribe(ctx, contractsv1.EventTypeVoteRecorded, group, c.Handle); err != nil {
		logger.Error("vote audit consumer subscribe failed",
			"event", "voting_audit_consumer_subscribe_failed",
			"module", application.Module,
			"layer", "worker",
			"topic", contractsv1.EventTypeVoteRecorded,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("vote audit consumer subscribed",
		"event", "voting_audit_consumer_started",
		"module", application.Module,
		"layer", "worker",
		"topic", contractsv1.EventTypeVoteRecorded,
		"consumer_group", group,
	)
	return nil
}

// Handle processes one envelope. Exported so tests and alternative
// subscribers can drive it directly.
func (c VoteAuditConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	expiresAt := c.now().Add(c.dedupTTL())
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), expiresAt)
	if err != nil {
		return err
	}
	if alreadyProcessed {
		logger.Debug("vote.recorded replay skipped",
			"event", "voting_audit_vote_replayed",
			"module", application.Module,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload contractsv1.VoteRecordedData
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("vote.recorded payload decode failed",
			"event", "voting_audit_vote_decode_failed",
			"module", application.Module,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("vote.recorded consumed",
		"event", "voting_audit_vote_consumed",
		"module", application.Module,
		"layer", "worker",
		"event_id", event.EventID,
		"vote_id", payload.VoteID,
		"question_id", payload.QuestionID,
		"answer_id", payload.AnswerOptionID,
		"user_id", payload.UserID,
	)
	return nil
}

func (c VoteAuditConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func (c VoteAuditConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
