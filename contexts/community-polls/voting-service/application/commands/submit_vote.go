package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
)

// SubmitVoteCommand carries one ballot. The voter identity is always explicit;
// the recorder never reads ambient session state.
type SubmitVoteCommand struct {
	Voter          entities.Voter
	QuestionID     string
	AnswerOptionID string
	SelectedOption string
}

type SubmitVoteResult struct {
	Vote entities.Vote
}

// VoteRecorder validates and persists a single vote, then notifies observers.
type VoteRecorder struct {
	Questions     ports.QuestionRepository
	AnswerOptions ports.AnswerOptionRepository
	Votes         ports.VoteStore
	Notifier      ports.VoteNotifier
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Settings      entities.Settings
	Logger        *slog.Logger
}

// Submit records a vote. Validation happens in order: site switches,
// referenced records, question/answer pairing, selected tag and voting
// window, duplicate policy, then insert. The store closes the race between
// the duplicate check and the insert.
func (r VoteRecorder) Submit(ctx context.Context, cmd SubmitVoteCommand) (SubmitVoteResult, error) {
	logger := application.ResolveLogger(r.Logger)
	questionID := strings.TrimSpace(cmd.QuestionID)
	answerOptionID := strings.TrimSpace(cmd.AnswerOptionID)
	userID := cmd.Voter.EffectiveUserID()
	logger.Info("vote submit processing started",
		"event", "voting_vote_submit_started",
		"module", application.Module,
		"layer", "application",
		"question_id", questionID,
		"answer_id", answerOptionID,
		"user_id", userID,
	)
	if questionID == "" || answerOptionID == "" {
		logger.Warn("vote submit validation failed",
			"event", "voting_vote_submit_validation_failed",
			"module", application.Module,
			"layer", "application",
			"question_id", questionID,
			"answer_id", answerOptionID,
		)
		return SubmitVoteResult{}, domainerrors.ErrInvalidInput
	}

	if !r.Settings.VotingEnabled {
		return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrVotingDisabled, questionID, userID)
	}
	if cmd.Voter.IsAnonymous() && !r.Settings.AllowAnonymous {
		return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrAnonymousVotingDisabled, questionID, userID)
	}
	question, err := r.Questions.GetQuestion(ctx, questionID)
	if err != nil {
		return SubmitVoteResult{}, r.lookupFailure(logger, err, questionID, userID)
	}
	answer, err := r.AnswerOptions.GetAnswerOption(ctx, answerOptionID)
	if err != nil {
		return SubmitVoteResult{}, r.lookupFailure(logger, err, questionID, userID)
	}

	// A mismatched pair fails the same way regardless of tag or question state.
	if answer.QuestionID != question.QuestionID {
		return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrMismatch, questionID, userID)
	}
	selected, ok := entities.ParseSelectedOption(cmd.SelectedOption)
	if !ok {
		return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrInvalidSelectedOption, questionID, userID)
	}
	now := r.now()
	if !question.AcceptsVotes(now) {
		return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrQuestionClosed, questionID, userID)
	}

	enforceSingle := r.Settings.DuplicatePolicy != entities.DuplicatePolicyUnlimited
	if enforceSingle && !cmd.Voter.Admin && !cmd.Voter.IsAnonymous() {
		exists, err := r.Votes.ExistsVote(ctx, question.QuestionID, userID)
		if err != nil {
			return SubmitVoteResult{}, r.storageFailure(logger, "voting_vote_exists_check_failed", err, questionID, userID)
		}
		if exists {
			return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrAlreadyVoted, questionID, userID)
		}
	}

	voteID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return SubmitVoteResult{}, r.storageFailure(logger, "voting_vote_id_generation_failed", err, questionID, userID)
	}
	vote := entities.Vote{
		VoteID:         voteID,
		UserID:         userID,
		QuestionID:     question.QuestionID,
		AnswerOptionID: answer.AnswerOptionID,
		SelectedOption: string(selected),
		AdminOverride:  cmd.Voter.Admin,
		CreatedAt:      now,
	}
	storedID, err := r.Votes.InsertVote(ctx, vote)
	if err != nil {
		if errors.Is(err, domainerrors.ErrDuplicate) {
			return SubmitVoteResult{}, r.reject(logger, domainerrors.ErrAlreadyVoted, questionID, userID)
		}
		return SubmitVoteResult{}, r.storageFailure(logger, "voting_vote_insert_failed", err, questionID, userID)
	}
	if storedID != "" {
		vote.VoteID = storedID
	}

	r.notify(ctx, logger, vote)
	logger.Info("vote recorded",
		"event", "voting_vote_recorded",
		"module", application.Module,
		"layer", "application",
		"vote_id", vote.VoteID,
		"question_id", vote.QuestionID,
		"answer_id", vote.AnswerOptionID,
		"user_id", vote.UserID,
		"selected_option", vote.SelectedOption,
		"admin_override", cmd.Voter.Admin,
	)
	return SubmitVoteResult{Vote: vote}, nil
}

func (r VoteRecorder) notify(ctx context.Context, logger *slog.Logger, vote entities.Vote) {
	if r.Notifier == nil {
		return
	}
	err := r.Notifier.VoteRecorded(ctx, ports.VoteRecorded{
		VoteID:         vote.VoteID,
		QuestionID:     vote.QuestionID,
		AnswerOptionID: vote.AnswerOptionID,
		UserID:         vote.UserID,
		SelectedOption: vote.SelectedOption,
		RecordedAt:     vote.CreatedAt,
	})
	if err != nil {
		logger.Warn("vote recorded notification failed",
			"event", "voting_vote_notify_failed",
			"module", application.Module,
			"layer", "application",
			"vote_id", vote.VoteID,
			"question_id", vote.QuestionID,
			"error", err.Error(),
		)
	}
}

func (r VoteRecorder) reject(logger *slog.Logger, err error, questionID string, userID string) error {
	logger.Warn("vote submit rejected",
		"event", "voting_vote_submit_rejected",
		"module", application.Module,
		"layer", "application",
		"question_id", questionID,
		"user_id", userID,
		"reason", err.Error(),
	)
	return err
}

func (r VoteRecorder) lookupFailure(logger *slog.Logger, err error, questionID string, userID string) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return r.reject(logger, err, questionID, userID)
	}
	return r.storageFailure(logger, "voting_vote_lookup_failed", err, questionID, userID)
}

func (r VoteRecorder) storageFailure(logger *slog.Logger, event string, err error, questionID string, userID string) error {
	logger.Error("vote submit storage failure",
		"event", event,
		"module", application.Module,
		"layer", "application",
		"question_id", questionID,
		"user_id", userID,
		"error", err.Error(),
	)
	return domainerrors.Storage(err)
}

func (r VoteRecorder) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
