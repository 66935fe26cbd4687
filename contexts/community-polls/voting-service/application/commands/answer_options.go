package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
)

type CreateAnswerOptionCommand struct {
	QuestionID  string
	Title       string
	ImageRef    string
	Description string
}

type UpdateAnswerOptionCommand struct {
	AnswerOptionID string
	Title          string
	ImageRef       string
	Description    string
}

// AnswerOptionUseCase is the admin write path for answer options.
type AnswerOptionUseCase struct {
	Questions     ports.QuestionRepository
	AnswerOptions ports.AnswerOptionRepository
	Votes         ports.VoteStore
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	// SingleOptionPerQuestion rejects a second answer option on a question.
	SingleOptionPerQuestion bool
	Logger                  *slog.Logger
}

func (uc AnswerOptionUseCase) CreateAnswerOption(ctx context.Context, cmd CreateAnswerOptionCommand) (entities.AnswerOption, error) {
	logger := application.ResolveLogger(uc.Logger)
	option := entities.AnswerOption{
		QuestionID:  strings.TrimSpace(cmd.QuestionID),
		Title:       strings.TrimSpace(cmd.Title),
		ImageRef:    strings.TrimSpace(cmd.ImageRef),
		Description: strings.TrimSpace(cmd.Description),
	}
	if option.QuestionID == "" || !option.HasContent() {
		logger.Warn("answer option create validation failed",
			"event", "voting_answer_option_create_validation_failed",
			"module", application.Module,
			"layer", "application",
			"question_id", option.QuestionID,
		)
		return entities.AnswerOption{}, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Questions.GetQuestion(ctx, option.QuestionID); err != nil {
		return entities.AnswerOption{}, classify(err)
	}
	if uc.SingleOptionPerQuestion {
		existing, err := uc.AnswerOptions.ListAnswerOptions(ctx, option.QuestionID)
		if err != nil {
			return entities.AnswerOption{}, classify(err)
		}
		if len(existing) > 0 {
			logger.Warn("answer option create blocked by existing option",
				"event", "voting_answer_option_exists",
				"module", application.Module,
				"layer", "application",
				"question_id", option.QuestionID,
				"existing_answer_id", existing[0].AnswerOptionID,
			)
			return entities.AnswerOption{}, domainerrors.ErrAnswerOptionExists
		}
	}

	answerOptionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.AnswerOption{}, classify(err)
	}
	now := uc.now()
	option.AnswerOptionID = answerOptionID
	option.CreatedAt = now
	option.UpdatedAt = now
	if err := uc.AnswerOptions.CreateAnswerOption(ctx, option); err != nil {
		return entities.AnswerOption{}, classify(err)
	}
	logger.Info("answer option created",
		"event", "voting_answer_option_created",
		"module", application.Module,
		"layer", "application",
		"answer_id", option.AnswerOptionID,
		"question_id", option.QuestionID,
	)
	return option, nil
}

func (uc AnswerOptionUseCase) UpdateAnswerOption(ctx context.Context, cmd UpdateAnswerOptionCommand) (entities.AnswerOption, error) {
	logger := application.ResolveLogger(uc.Logger)
	option, err := uc.AnswerOptions.GetAnswerOption(ctx, strings.TrimSpace(cmd.AnswerOptionID))
	if err != nil {
		return entities.AnswerOption{}, classify(err)
	}
	option.Title = strings.TrimSpace(cmd.Title)
	option.ImageRef = strings.TrimSpace(cmd.ImageRef)
	option.Description = strings.TrimSpace(cmd.Description)
	if !option.HasContent() {
		return entities.AnswerOption{}, domainerrors.ErrInvalidInput
	}
	option.UpdatedAt = uc.now()
	if err := uc.AnswerOptions.UpdateAnswerOption(ctx, option); err != nil {
		return entities.AnswerOption{}, classify(err)
	}
	logger.Info("answer option updated",
		"event", "voting_answer_option_updated",
		"module", application.Module,
		"layer", "application",
		"answer_id", option.AnswerOptionID,
		"question_id", option.QuestionID,
	)
	return option, nil
}

// DeleteAnswerOption refuses while votes reference the option, so the ledger
// never holds dangling rows.
func (uc AnswerOptionUseCase) DeleteAnswerOption(ctx context.Context, answerOptionID string) error {
	logger := application.ResolveLogger(uc.Logger)
	answerOptionID = strings.TrimSpace(answerOptionID)
	if _, err := uc.AnswerOptions.GetAnswerOption(ctx, answerOptionID); err != nil {
		return classify(err)
	}
	count, err := uc.Votes.CountVotesByAnswerOption(ctx, answerOptionID)
	if err != nil {
		return classify(err)
	}
	if count > 0 {
		logger.Warn("answer option delete blocked by votes",
			"event", "voting_answer_option_delete_blocked",
			"module", application.Module,
			"layer", "application",
			"answer_id", answerOptionID,
			"vote_count", count,
		)
		return domainerrors.ErrAnswerOptionInUse
	}
	if err := uc.AnswerOptions.DeleteAnswerOption(ctx, answerOptionID); err != nil {
		return classify(err)
	}
	logger.Info("answer option deleted",
		"event", "voting_answer_option_deleted",
		"module", application.Module,
		"layer", "application",
		"answer_id", answerOptionID,
	)
	return nil
}

func (uc AnswerOptionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
