package entities

import (
	"strings"
	"time"
)

type SelectedOption string

const (
	SelectedOptionNone        SelectedOption = ""
	SelectedOptionTitle       SelectedOption = "title"
	SelectedOptionDescription SelectedOption = "description"
	SelectedOptionImage       SelectedOption = "image"
)

// ParseSelectedOption normalizes case and rejects tags outside the closed set.
func ParseSelectedOption(raw string) (SelectedOption, bool) {
	switch SelectedOption(strings.ToLower(strings.TrimSpace(raw))) {
	case SelectedOptionNone:
		return SelectedOptionNone, true
	case SelectedOptionTitle:
		return SelectedOptionTitle, true
	case SelectedOptionDescription:
		return SelectedOptionDescription, true
	case SelectedOptionImage:
		return SelectedOptionImage, true
	default:
		return SelectedOptionNone, false
	}
}

// Vote is an immutable ledger row. SelectedOption holds the tag lower-cased
// by ParseSelectedOption; grouping still folds case so rows written by older
// or external producers tally together. AdminOverride marks votes cast under
// the admin override, which stores exempt from the one-vote-per-user
// constraint.
type Vote struct {
	VoteID         string
	UserID         string
	QuestionID     string
	AnswerOptionID string
	SelectedOption string
	AdminOverride  bool
	CreatedAt      time.Time
}

// Exempt reports whether the vote is outside the (question, user) uniqueness
// constraint.
func (v Vote) Exempt() bool {
	return v.AdminOverride || v.UserID == AnonymousUserID
}

// AnonymousUserID is the shared identity recorded for anonymous voters.
const AnonymousUserID = "0"

type Voter struct {
	UserID    string
	Anonymous bool
	Admin     bool
}

func AnonymousVoter() Voter {
	return Voter{UserID: AnonymousUserID, Anonymous: true}
}

// EffectiveUserID maps anonymous voters onto the shared marker id.
func (v Voter) EffectiveUserID() string {
	if v.Anonymous || strings.TrimSpace(v.UserID) == "" {
		return AnonymousUserID
	}
	return strings.TrimSpace(v.UserID)
}

func (v Voter) IsAnonymous() bool {
	return v.EffectiveUserID() == AnonymousUserID
}
