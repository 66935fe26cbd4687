package queries

import (
	"context"
	"errors"
	"strings"

	"pollster/contexts/community-polls/voting-service/domain/entities"
	domainerrors "pollster/contexts/community-polls/voting-service/domain/errors"
	"pollster/contexts/community-polls/voting-service/ports"
)

type QuestionDetail struct {
	Question      entities.Question
	AnswerOptions []entities.AnswerOption
}

// QuestionQueries serves the read side of the question catalogue. Hidden
// questions are only listed for admins.
type QuestionQueries struct {
	Questions     ports.QuestionRepository
	AnswerOptions ports.AnswerOptionRepository
}

func (q QuestionQueries) ListQuestions(ctx context.Context, voter entities.Voter) ([]entities.Question, error) {
	items, err := q.Questions.ListQuestions(ctx, voter.Admin)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return items, nil
}

func (q QuestionQueries) GetQuestion(ctx context.Context, voter entities.Voter, questionID string) (QuestionDetail, error) {
	question, err := q.Questions.GetQuestion(ctx, strings.TrimSpace(questionID))
	if err != nil {
		return QuestionDetail{}, wrapStorage(err)
	}
	if !question.Visible && !voter.Admin {
		return QuestionDetail{}, domainerrors.ErrQuestionNotFound
	}
	options, err := q.AnswerOptions.ListAnswerOptions(ctx, question.QuestionID)
	if err != nil {
		return QuestionDetail{}, wrapStorage(err)
	}
	return QuestionDetail{Question: question, AnswerOptions: options}, nil
}

func wrapStorage(err error) error {
	if errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}
	return domainerrors.Storage(err)
}
