package commands

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	application "pollster/contexts/community-polls/voting-service/application"
	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/domain/services"
	"pollster/contexts/community-polls/voting-service/ports"
)

var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type CreateQuestionCommand struct {
	Title       string
	Identifier  string
	Visible     bool
	ActivatesAt *time.Time
	ExpiresAt   *time.Time
}

type UpdateQuestionCommand struct {
	QuestionID  string
	Title       string
	Identifier  string
	Visible     bool
	ActivatesAt *time.Time
	ExpiresAt   *time.Time
}

// QuestionUseCase is the admin write path for questions.
type QuestionUseCase struct {
	Questions     ports.QuestionRepository
	AnswerOptions ports.AnswerOptionRepository
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        *slog.Logger
}

// CreateQuestion derives a unique identifier from the title when none is
// given. An explicit identifier must be a free machine name.
func (uc QuestionUseCase) CreateQuestion(ctx context.Context, cmd CreateQuestionCommand) (entities.Question, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	if title == "" || !validWindow(cmd.ActivatesAt, cmd.ExpiresAt) {
		logger.Warn("question create validation failed",
			"event", "voting_question_create_validation_failed",
			"module", application.Module,
			"layer", "application",
			"title", title,
		)
		return entities.Question{}, domainerrors.ErrInvalidInput
	}

	existing, err := uc.Questions.ListIdentifiers(ctx)
	if err != nil {
		return entities.Question{}, classify(err)
	}
	identifier := strings.TrimSpace(cmd.Identifier)
	if identifier == "" {
		identifier = services.UniqueIdentifier(title, existing)
	} else {
		if !identifierPattern.MatchString(identifier) {
			return entities.Question{}, domainerrors.ErrInvalidInput
		}
		if contains(existing, identifier) {
			return entities.Question{}, domainerrors.ErrIdentifierTaken
		}
	}

	questionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Question{}, classify(err)
	}
	now := uc.now()
	question := entities.Question{
		QuestionID:  questionID,
		Title:       title,
		Identifier:  identifier,
		Visible:     cmd.Visible,
		ActivatesAt: utcPtr(cmd.ActivatesAt),
		ExpiresAt:   utcPtr(cmd.ExpiresAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Questions.CreateQuestion(ctx, question); err != nil {
		logger.Error("question create failed",
			"event", "voting_question_create_failed",
			"module", application.Module,
			"layer", "application",
			"question_id", questionID,
			"error", err.Error(),
		)
		return entities.Question{}, classify(err)
	}
	logger.Info("question created",
		"event", "voting_question_created",
		"module", application.Module,
		"layer", "application",
		"question_id", question.QuestionID,
		"identifier", question.Identifier,
		"visible", question.Visible,
	)
	return question, nil
}

func (uc QuestionUseCase) UpdateQuestion(ctx context.Context, cmd UpdateQuestionCommand) (entities.Question, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := strings.TrimSpace(cmd.Title)
	if strings.TrimSpace(cmd.QuestionID) == "" || title == "" || !validWindow(cmd.ActivatesAt, cmd.ExpiresAt) {
		return entities.Question{}, domainerrors.ErrInvalidInput
	}
	question, err := uc.Questions.GetQuestion(ctx, strings.TrimSpace(cmd.QuestionID))
	if err != nil {
		return entities.Question{}, classify(err)
	}

	identifier := strings.TrimSpace(cmd.Identifier)
	if identifier != "" && identifier != question.Identifier {
		if !identifierPattern.MatchString(identifier) {
			return entities.Question{}, domainerrors.ErrInvalidInput
		}
		existing, err := uc.Questions.ListIdentifiers(ctx)
		if err != nil {
			return entities.Question{}, classify(err)
		}
		if contains(existing, identifier) {
			return entities.Question{}, domainerrors.ErrIdentifierTaken
		}
		question.Identifier = identifier
	}
	question.Title = title
	question.Visible = cmd.Visible
	question.ActivatesAt = utcPtr(cmd.ActivatesAt)
	question.ExpiresAt = utcPtr(cmd.ExpiresAt)
	question.UpdatedAt = uc.now()
	if err := uc.Questions.UpdateQuestion(ctx, question); err != nil {
		return entities.Question{}, classify(err)
	}
	logger.Info("question updated",
		"event", "voting_question_updated",
		"module", application.Module,
		"layer", "application",
		"question_id", question.QuestionID,
		"identifier", question.Identifier,
		"visible", question.Visible,
	)
	return question, nil
}

// DeleteQuestion refuses while answer options still reference the question.
func (uc QuestionUseCase) DeleteQuestion(ctx context.Context, questionID string) error {
	logger := application.ResolveLogger(uc.Logger)
	questionID = strings.TrimSpace(questionID)
	if _, err := uc.Questions.GetQuestion(ctx, questionID); err != nil {
		return classify(err)
	}
	options, err := uc.AnswerOptions.ListAnswerOptions(ctx, questionID)
	if err != nil {
		return classify(err)
	}
	if len(options) > 0 {
		logger.Warn("question delete blocked by answer options",
			"event", "voting_question_delete_blocked",
			"module", application.Module,
			"layer", "application",
			"question_id", questionID,
			"answer_option_count", len(options),
		)
		return domainerrors.ErrQuestionInUse
	}
	if err := uc.Questions.DeleteQuestion(ctx, questionID); err != nil {
		return classify(err)
	}
	logger.Info("question deleted",
		"event", "voting_question_deleted",
		"module", application.Module,
		"layer", "application",
		"question_id", questionID,
	)
	return nil
}

func (uc QuestionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func validWindow(activatesAt *time.Time, expiresAt *time.Time) bool {
	if activatesAt == nil || expiresAt == nil {
		return true
	}
	return expiresAt.After(*activatesAt)
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
