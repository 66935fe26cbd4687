package ports

import (
	"context"
	"time"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	contractsv1 "pollster/contracts/gen/events/v1"
)

// VoteFilter narrows FindVotes. Empty fields match everything.
type VoteFilter struct {
	QuestionID string
	UserID     string
}

// VoteStore is the append-only vote ledger. FindVotes returns rows in ledger
// order: creation time first, ties broken the same way on every call.
// InsertVote returns ErrDuplicate when the store enforces (question, user)
// uniqueness and a non-exempt row already exists.
type VoteStore interface {
	FindVotes(ctx context.Context, filter VoteFilter) ([]entities.Vote, error)
	InsertVote(ctx context.Context, vote entities.Vote) (string, error)
	ExistsVote(ctx context.Context, questionID string, userID string) (bool, error)
	CountVotesByAnswerOption(ctx context.Context, answerOptionID string) (int, error)
}

type QuestionRepository interface {
	CreateQuestion(ctx context.Context, question entities.Question) error
	UpdateQuestion(ctx context.Context, question entities.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
	GetQuestion(ctx context.Context, questionID string) (entities.Question, error)
	ListQuestions(ctx context.Context, includeHidden bool) ([]entities.Question, error)
	ListIdentifiers(ctx context.Context) ([]string, error)
}

type AnswerOptionRepository interface {
	CreateAnswerOption(ctx context.Context, option entities.AnswerOption) error
	UpdateAnswerOption(ctx context.Context, option entities.AnswerOption) error
	DeleteAnswerOption(ctx context.Context, answerOptionID string) error
	GetAnswerOption(ctx context.Context, answerOptionID string) (entities.AnswerOption, error)
	ListAnswerOptions(ctx context.Context, questionID string) ([]entities.AnswerOption, error)
}

type APIKeyRepository interface {
	CreateAPIKey(ctx context.Context, key entities.APIKey) error
	ListAPIKeys(ctx context.Context) ([]entities.APIKey, error)
	DeleteAPIKey(ctx context.Context, apiKeyID string) error
	FindAPIKey(ctx context.Context, key string) (entities.APIKey, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// SecretGenerator produces API key material.
type SecretGenerator interface {
	NewSecret(ctx context.Context) (string, error)
}

// VoteRecorded is emitted once per successfully stored vote.
type VoteRecorded struct {
	VoteID         string
	QuestionID     string
	AnswerOptionID string
	UserID         string
	SelectedOption string
	RecordedAt     time.Time
}

// ResultsComputed is emitted on every results computation.
type ResultsComputed struct {
	QuestionID string
	Groups     map[string]int
	TotalVotes int
	ComputedAt time.Time
}

// VoteNotifier receives domain notifications. Errors are reported back to the
// caller but never fail the operation that triggered them.
type VoteNotifier interface {
	VoteRecorded(ctx context.Context, event VoteRecorded) error
	ResultsComputed(ctx context.Context, event ResultsComputed) error
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedupStore reports alreadyProcessed=true when eventID was reserved
// before and has not expired.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
