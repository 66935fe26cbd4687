package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event envelope written to the outbox and published
// to the broker. Field names are part of the wire contract.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventTypeVoteRecorded    = "vote.recorded"
	EventTypeResultsComputed = "results.computed"
)

// VoteRecordedData is the payload of vote.recorded.
type VoteRecordedData struct {
	VoteID         string    `json:"vote_id"`
	QuestionID     string    `json:"question_id"`
	AnswerOptionID string    `json:"answer_id"`
	UserID         string    `json:"user_id"`
	SelectedOption string    `json:"selected_option,omitempty"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// ResultsComputedData is the payload of results.computed.
type ResultsComputedData struct {
	QuestionID string         `json:"question_id"`
	Groups     map[string]int `json:"groups"`
	TotalVotes int            `json:"total_votes"`
	ComputedAt time.Time      `json:"computed_at"`
}
