package queries

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/domain/services"
	"pollster/contexts/community-polls/voting-service/ports"
)

// ResultSummary bundles one computation with its derived figures so callers
// that need all of them do a single ledger scan.
type ResultSummary struct {
	Results    entities.ResultSet
	Highest    entities.HighestRated
	HasHighest bool
}

// ResultsAggregator derives counts from the vote ledger on every call.
// Nothing is cached or stored.
type ResultsAggregator struct {
	Questions     ports.QuestionRepository
	AnswerOptions ports.AnswerOptionRepository
	Votes         ports.VoteStore
	Notifier      ports.VoteNotifier
	Clock         ports.Clock
	Mode          entities.GroupingMode
	Logger        *slog.Logger
}

// Compute tallies all votes for a question and emits ResultsComputed.
func (a ResultsAggregator) Compute(ctx context.Context, questionID string) (entities.ResultSet, error) {
	logger := application.ResolveLogger(a.Logger)
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return entities.ResultSet{}, domainerrors.ErrInvalidInput
	}
	if _, err := a.Questions.GetQuestion(ctx, questionID); err != nil {
		return entities.ResultSet{}, a.failure(logger, "voting_results_question_lookup_failed", err, questionID)
	}
	votes, err := a.Votes.FindVotes(ctx, ports.VoteFilter{QuestionID: questionID})
	if err != nil {
		return entities.ResultSet{}, a.failure(logger, "voting_results_vote_scan_failed", err, questionID)
	}

	mode := a.mode()
	var labels map[string]string
	if mode == entities.GroupByAnswerOption {
		options, err := a.AnswerOptions.ListAnswerOptions(ctx, questionID)
		if err != nil {
			return entities.ResultSet{}, a.failure(logger, "voting_results_answer_lookup_failed", err, questionID)
		}
		labels = make(map[string]string, len(options))
		for _, option := range options {
			labels[option.AnswerOptionID] = option.Label()
		}
	}

	result := services.Tally(questionID, votes, mode, labels)
	a.notify(ctx, logger, result)
	logger.Debug("results computed",
		"event", "voting_results_computed",
		"module", application.Module,
		"layer", "application",
		"question_id", questionID,
		"mode", string(mode),
		"total_votes", result.TotalVotes,
		"group_count", len(result.Groups),
	)
	return result, nil
}

func (a ResultsAggregator) Summarize(ctx context.Context, questionID string) (ResultSummary, error) {
	result, err := a.Compute(ctx, questionID)
	if err != nil {
		return ResultSummary{}, err
	}
	highest, found := services.HighestRated(result)
	return ResultSummary{Results: result, Highest: highest, HasHighest: found}, nil
}

func (a ResultsAggregator) TotalVotes(ctx context.Context, questionID string) (int, error) {
	result, err := a.Compute(ctx, questionID)
	if err != nil {
		return 0, err
	}
	return result.TotalVotes, nil
}

// Percentages is empty, never NaN, when the question has no votes.
func (a ResultsAggregator) Percentages(ctx context.Context, questionID string) (map[string]float64, error) {
	result, err := a.Compute(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return result.Percentages(), nil
}

// HighestRated reports found=false when there are no votes.
func (a ResultsAggregator) HighestRated(ctx context.Context, questionID string) (entities.HighestRated, bool, error) {
	result, err := a.Compute(ctx, questionID)
	if err != nil {
		return entities.HighestRated{}, false, err
	}
	highest, found := services.HighestRated(result)
	return highest, found, nil
}

// UserVotes lists one entry per question the user voted on, ordered by
// question id.
func (a ResultsAggregator) UserVotes(ctx context.Context, userID string) ([]entities.UserVote, error) {
	logger := application.ResolveLogger(a.Logger)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	votes, err := a.Votes.FindVotes(ctx, ports.VoteFilter{UserID: userID})
	if err != nil {
		return nil, a.failure(logger, "voting_user_votes_scan_failed", err, "")
	}
	items := services.UserVotes(votes)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].QuestionID < items[j].QuestionID
	})
	return items, nil
}

func (a ResultsAggregator) notify(ctx context.Context, logger *slog.Logger, result entities.ResultSet) {
	if a.Notifier == nil {
		return
	}
	err := a.Notifier.ResultsComputed(ctx, ports.ResultsComputed{
		QuestionID: result.QuestionID,
		Groups:     result.Counts(),
		TotalVotes: result.TotalVotes,
		ComputedAt: a.now(),
	})
	if err != nil {
		logger.Warn("results computed notification failed",
			"event", "voting_results_notify_failed",
			"module", application.Module,
			"layer", "application",
			"question_id", result.QuestionID,
			"error", err.Error(),
		)
	}
}

func (a ResultsAggregator) failure(logger *slog.Logger, event string, err error, questionID string) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}
	logger.Error("results storage failure",
		"event", event,
		"module", application.Module,
		"layer", "application",
		"question_id", questionID,
		"error", err.Error(),
	)
	return domainerrors.Storage(err)
}

func (a ResultsAggregator) mode() entities.GroupingMode {
	if a.Mode == entities.GroupBySelectedOption {
		return entities.GroupBySelectedOption
	}
	return entities.GroupByAnswerOption
}

func (a ResultsAggregator) now() time.Time {
	if a.Clock != nil {
		return a.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
