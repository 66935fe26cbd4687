package notify

import (
	"context"
	"log/slog"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/ports"
)

// AuditObserver writes one structured log line per notification.
type AuditObserver struct {
	Logger *slog.Logger
}

func (o AuditObserver) VoteRecorded(_ context.Context, event ports.VoteRecorded) error {
	application.ResolveLogger(o.Logger).Info("vote audit",
		"event", "voting_audit_vote_recorded",
		"module", application.Module,
		"layer", "application",
		"vote_id", event.VoteID,
		"question_id", event.QuestionID,
		"answer_id", event.AnswerOptionID,
		"user_id", event.UserID,
		"selected_option", event.SelectedOption,
		"recorded_at", event.RecordedAt,
	)
	return nil
}

func (o AuditObserver) ResultsComputed(_ context.Context, event ports.ResultsComputed) error {
	application.ResolveLogger(o.Logger).Debug("results audit",
		"event", "voting_audit_results_computed",
		"module", application.Module,
		"layer", "application",
		"question_id", event.QuestionID,
		"total_votes", event.TotalVotes,
		"groups", event.Groups,
	)
	return nil
}
