package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput            = errors.New("invalid voting input")
	ErrMismatch                = errors.New("answer option does not belong to question")
	ErrAlreadyVoted            = errors.New("you have already voted on this question")
	ErrDuplicate               = errors.New("duplicate vote for question and user")
	ErrNotFound                = errors.New("not found")
	ErrStorage                 = errors.New("storage failure")
	ErrVotingDisabled          = errors.New("voting is disabled")
	ErrAnonymousVotingDisabled = errors.New("anonymous voting is disabled")
	ErrQuestionClosed          = errors.New("question is not open for voting")
	ErrInvalidSelectedOption   = errors.New("invalid selected option")
	ErrQuestionInUse           = errors.New("question is referenced by answer options")
	ErrAnswerOptionInUse       = errors.New("answer option is referenced by votes")
	ErrAnswerOptionExists      = errors.New("question already has an answer option")
	ErrIdentifierTaken         = errors.New("question identifier is already taken")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrConflict                = errors.New("voting conflict")
)

var (
	ErrQuestionNotFound     = fmt.Errorf("question %w", ErrNotFound)
	ErrAnswerOptionNotFound = fmt.Errorf("answer option %w", ErrNotFound)
	ErrAPIKeyNotFound       = fmt.Errorf("api key %w", ErrNotFound)
)

// Storage wraps an infrastructure failure so callers can match ErrStorage
// without losing the underlying cause.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
